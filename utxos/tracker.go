// Package utxos is an optional consumer of the client event bus, kept
// outside the core per spec's "UTXO bookkeeping" Non-goal: nothing in
// client or spv imports this package. It subscribes the way the
// teacher's indexer.Indexer does (register against an emitter, maintain
// a derived index, log and continue on malformed data) but keyed on
// Bitcoin outpoints rather than asset/session IDs.
package utxos

import (
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/rs/zerolog"

	"github.com/tolelom/spvnode/protocol"
	"github.com/tolelom/spvnode/spv"
)

// Outpoint identifies one transaction output.
type Outpoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// UTXO is one unspent output this Tracker believes it owns.
type UTXO struct {
	Outpoint Outpoint
	Value    int64
	PkScript []byte
	Height   protocol.Height
}

// ScriptMatcher reports whether pkScript belongs to a script this Tracker
// should watch for, e.g. backed by a wallet's address set.
type ScriptMatcher func(pkScript []byte) bool

// Tracker maintains a set of owned outpoints derived from BlockMatched
// events, spending them as they're consumed by a later matched block and
// adding new ones as they're received, the same add/remove-from-list
// shape as the teacher's indexer but over a map instead of a JSON list.
type Tracker struct {
	mu      sync.RWMutex
	matches ScriptMatcher
	utxos   map[Outpoint]UTXO
	log     zerolog.Logger
}

// New creates a Tracker that watches for outputs matches reports true for.
func New(matches ScriptMatcher, log zerolog.Logger) *Tracker {
	return &Tracker{
		matches: matches,
		utxos:   make(map[Outpoint]UTXO),
		log:     log.With().Str("component", "utxos").Logger(),
	}
}

// Run consumes events until the channel closes, updating the tracked
// UTXO set from BlockMatched events; TxStatusChanged events are only
// logged and do not change the set. Intended to run on
// its own goroutine, started by a caller that opted into -track-utxos.
func (t *Tracker) Run(events <-chan spv.Event) {
	for ev := range events {
		switch e := ev.(type) {
		case spv.BlockMatchedEvent:
			t.onBlockMatched(e)
		case spv.TxStatusChangedEvent:
			t.log.Debug().Str("txid", e.Txid.String()).Str("status", e.Status.String()).Msg("tracked transaction status changed")
		}
	}
}

func (t *Tracker) onBlockMatched(e spv.BlockMatchedEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, tx := range e.Transactions {
		if tx == nil {
			t.log.Warn().Uint32("height", e.Height).Msg("nil transaction in matched block, skipping")
			continue
		}
		for _, in := range tx.TxIn {
			op := Outpoint{Hash: in.PreviousOutPoint.Hash, Index: in.PreviousOutPoint.Index}
			delete(t.utxos, op)
		}
		txid := tx.TxHash()
		for i, out := range tx.TxOut {
			if out == nil || !t.matches(out.PkScript) {
				continue
			}
			op := Outpoint{Hash: txid, Index: uint32(i)}
			t.utxos[op] = UTXO{Outpoint: op, Value: out.Value, PkScript: out.PkScript, Height: e.Height}
		}
	}
}

// Balance returns the total value, in satoshis, of every tracked UTXO.
func (t *Tracker) Balance() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var total int64
	for _, u := range t.utxos {
		total += u.Value
	}
	return total
}

// UTXOs returns a snapshot of every tracked unspent output.
func (t *Tracker) UTXOs() []UTXO {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]UTXO, 0, len(t.utxos))
	for _, u := range t.utxos {
		out = append(out, u)
	}
	return out
}
