package utxos

import (
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/rs/zerolog"

	"github.com/tolelom/spvnode/spv"
)

func watchScript(target []byte) ScriptMatcher {
	return func(pkScript []byte) bool {
		if len(pkScript) != len(target) {
			return false
		}
		for i := range pkScript {
			if pkScript[i] != target[i] {
				return false
			}
		}
		return true
	}
}

func TestTrackerAddsMatchingOutput(t *testing.T) {
	myScript := []byte{0x76, 0xa9, 0x14}
	tr := New(watchScript(myScript), zerolog.Nop())

	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxOut(wire.NewTxOut(1000, myScript))
	tx.AddTxOut(wire.NewTxOut(2000, []byte{0xAA}))

	events := make(chan spv.Event, 1)
	events <- spv.BlockMatchedEvent{Height: 10, Transactions: []*wire.MsgTx{tx}}
	close(events)
	tr.Run(events)

	utxos := tr.UTXOs()
	if len(utxos) != 1 {
		t.Fatalf("got %d utxos, want 1 (only the matching output)", len(utxos))
	}
	if utxos[0].Value != 1000 || utxos[0].Height != 10 {
		t.Fatalf("got %+v, want value=1000 height=10", utxos[0])
	}
	if tr.Balance() != 1000 {
		t.Fatalf("got balance %d, want 1000", tr.Balance())
	}
}

func TestTrackerSpendsConsumedOutpoint(t *testing.T) {
	myScript := []byte{0x76, 0xa9, 0x14}
	tr := New(watchScript(myScript), zerolog.Nop())

	funding := wire.NewMsgTx(wire.TxVersion)
	funding.AddTxOut(wire.NewTxOut(5000, myScript))

	spending := wire.NewMsgTx(wire.TxVersion)
	spending.AddTxIn(&wire.TxIn{PreviousOutPoint: wire.OutPoint{Hash: funding.TxHash(), Index: 0}})

	events := make(chan spv.Event, 2)
	events <- spv.BlockMatchedEvent{Height: 1, Transactions: []*wire.MsgTx{funding}}
	events <- spv.BlockMatchedEvent{Height: 2, Transactions: []*wire.MsgTx{spending}}
	close(events)
	tr.Run(events)

	if len(tr.UTXOs()) != 0 {
		t.Fatalf("got %d utxos, want 0 (the funding output was spent)", len(tr.UTXOs()))
	}
	if tr.Balance() != 0 {
		t.Fatalf("got balance %d, want 0", tr.Balance())
	}
}

func TestTrackerIgnoresNonMatchingOutput(t *testing.T) {
	tr := New(watchScript([]byte{0x01}), zerolog.Nop())

	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxOut(wire.NewTxOut(999, []byte{0x02}))

	events := make(chan spv.Event, 1)
	events <- spv.BlockMatchedEvent{Height: 1, Transactions: []*wire.MsgTx{tx}}
	close(events)
	tr.Run(events)

	if len(tr.UTXOs()) != 0 {
		t.Fatalf("got %d utxos, want 0", len(tr.UTXOs()))
	}
}

func TestTrackerSkipsNilTransaction(t *testing.T) {
	tr := New(watchScript([]byte{0x01}), zerolog.Nop())

	events := make(chan spv.Event, 1)
	events <- spv.BlockMatchedEvent{Height: 1, Transactions: []*wire.MsgTx{nil}}
	close(events)

	// Must not panic on a nil transaction in the slice.
	tr.Run(events)
	if len(tr.UTXOs()) != 0 {
		t.Fatalf("got %d utxos, want 0", len(tr.UTXOs()))
	}
}
