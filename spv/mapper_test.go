package spv

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"

	"github.com/tolelom/spvnode/event"
	"github.com/tolelom/spvnode/protocol"
)

func newHarness() (*Mapper, *event.Bus[Event], <-chan Event, *event.Emitter[Event]) {
	bus := event.NewBus[Event](64)
	sub := bus.Subscribe()
	emitter := event.NewEmitter(bus)
	return NewMapper(0, 0, 0), bus, sub, emitter
}

func drain(t *testing.T, sub <-chan Event, n int) []Event {
	t.Helper()
	out := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		select {
		case ev := <-sub:
			out = append(out, ev)
		default:
			t.Fatalf("expected %d events, only got %d", n, len(out))
		}
	}
	return out
}

func TestMapperReadyEventEmitsWithoutMutatingState(t *testing.T) {
	m, _, sub, emitter := newHarness()

	// A freshly-bootstrapped node typically has a header tip far ahead of
	// its filter tip. Ready must only announce that gap, never fold the
	// header tip into blockHeight/filterHeight.
	m.Process(protocol.ReadyEvent{Height: 800000, FilterHeight: 0}, emitter)

	evs := drain(t, sub, 1)
	ready, ok := evs[0].(ReadyEvent)
	if !ok {
		t.Fatalf("got %T, want ReadyEvent", evs[0])
	}
	if ready.Tip != 800000 || ready.FilterTip != 0 {
		t.Fatalf("got %+v, want Tip=800000 FilterTip=0", ready)
	}
	if m.filterHeight != 0 || m.blockHeight != 0 {
		t.Fatalf("Ready mutated Mapper state: %+v", m)
	}
}

// TestMapperFilterThenBlockEmitsSyncedOnce matches spec scenario 3/4:
// a filter match holds syncHeight at the last fully-scanned height until
// its block arrives, at which point a single Synced event reports the
// new height.
func TestMapperFilterThenBlockEmitsSyncedOnce(t *testing.T) {
	m, _, sub, emitter := newHarness()

	blockHash := [32]byte{0xAA}

	// Filter at height 1 does not match: syncHeight should advance to 1
	// immediately since nothing is pending.
	m.Process(protocol.FilterProcessedEvent{Height: 1, Matched: false, Valid: true, Block: blockHash}, emitter)
	evs := drain(t, sub, 2) // FilterProcessed, Synced
	if _, ok := evs[0].(FilterProcessedEvent); !ok {
		t.Fatalf("event 0: got %T, want FilterProcessedEvent", evs[0])
	}
	synced, ok := evs[1].(SyncedEvent)
	if !ok || synced.Height != 1 {
		t.Fatalf("event 1: got %+v, want Synced{Height:1}", evs[1])
	}

	// Filter at height 2 matches: syncHeight must NOT advance past 1 until
	// the block is scanned, so no Synced event is emitted here.
	matchHash := [32]byte{0xBB}
	m.Process(protocol.FilterProcessedEvent{Height: 2, Matched: true, Valid: true, Block: matchHash}, emitter)
	evs = drain(t, sub, 1)
	fp, ok := evs[0].(FilterProcessedEvent)
	if !ok || !fp.Matched {
		t.Fatalf("got %+v, want a matched FilterProcessedEvent", evs[0])
	}

	// The matching block arrives and is scanned: now syncHeight catches up
	// to 2 and exactly one Synced event fires.
	block := btcutil.NewBlock(&wire.MsgBlock{
		Header:       wire.BlockHeader{},
		Transactions: []*wire.MsgTx{wire.NewMsgTx(wire.TxVersion)},
	})
	m.Process(protocol.BlockProcessedEvent{Block: block, Height: 2}, emitter)
	evs = drain(t, sub, 2) // BlockMatched, Synced
	if _, ok := evs[0].(BlockMatchedEvent); !ok {
		t.Fatalf("event 0: got %T, want BlockMatchedEvent", evs[0])
	}
	synced, ok = evs[1].(SyncedEvent)
	if !ok || synced.Height != 2 {
		t.Fatalf("event 1: got %+v, want Synced{Height:2}", evs[1])
	}
}

func TestMapperFeeEstimateEmittedWhenPresent(t *testing.T) {
	m, _, sub, emitter := newHarness()
	m.Process(protocol.FilterProcessedEvent{Height: 1, Matched: true, Valid: true}, emitter)
	drain(t, sub, 1) // FilterProcessed

	block := btcutil.NewBlock(&wire.MsgBlock{Header: wire.BlockHeader{}})
	fees := &protocol.FeeEstimate{SatsPerVByte: 12.5}
	m.Process(protocol.BlockProcessedEvent{Block: block, Height: 1, Fees: fees}, emitter)

	evs := drain(t, sub, 3) // BlockMatched, FeeEstimated, Synced
	fee, ok := evs[1].(FeeEstimatedEvent)
	if !ok {
		t.Fatalf("event 1: got %T, want FeeEstimatedEvent", evs[1])
	}
	if fee.Fees.SatsPerVByte != 12.5 {
		t.Fatalf("got %v, want 12.5", fee.Fees.SatsPerVByte)
	}
}

func TestMapperConfirmedEmitsTxStatusChanged(t *testing.T) {
	m, _, sub, emitter := newHarness()
	tx := wire.NewMsgTx(wire.TxVersion)
	m.Process(protocol.ConfirmedEvent{Transaction: tx, Height: 5, Block: [32]byte{0x01}}, emitter)

	evs := drain(t, sub, 1)
	changed, ok := evs[0].(TxStatusChangedEvent)
	if !ok {
		t.Fatalf("got %T, want TxStatusChangedEvent", evs[0])
	}
	if changed.Status.Kind != StatusConfirmed || changed.Status.Height != 5 {
		t.Fatalf("got %+v, want Confirmed at height 5", changed.Status)
	}
}

func TestMapperRescanStartedResetsStateWithoutEmitting(t *testing.T) {
	m, _, sub, emitter := newHarness()
	m.Process(protocol.FilterProcessedEvent{Height: 1, Matched: true, Valid: true}, emitter)
	drain(t, sub, 1)

	m.Process(protocol.RescanStartedEvent{Start: 0}, emitter)

	select {
	case ev := <-sub:
		t.Fatalf("expected no event from RescanStarted, got %T", ev)
	default:
	}

	if m.filterHeight != 0 || m.blockHeight != 0 || m.syncHeight != 0 || len(m.pending) != 0 {
		t.Fatalf("rescan did not reset state: %+v", m)
	}
}

func TestMapperFilterProcessedAllowsNonConsecutiveHeight(t *testing.T) {
	m, _, sub, emitter := newHarness()

	// Heights only need to be non-decreasing, not strictly consecutive
	// (a rescan or catch-up can skip ahead).
	m.Process(protocol.FilterProcessedEvent{Height: 5, Matched: false, Valid: true}, emitter)

	evs := drain(t, sub, 2) // FilterProcessed, Synced
	if _, ok := evs[0].(FilterProcessedEvent); !ok {
		t.Fatalf("event 0: got %T, want FilterProcessedEvent", evs[0])
	}
	synced, ok := evs[1].(SyncedEvent)
	if !ok || synced.Height != 5 {
		t.Fatalf("event 1: got %+v, want Synced{Height:5}", evs[1])
	}
	if m.filterHeight != 5 {
		t.Fatalf("got filterHeight %d, want 5", m.filterHeight)
	}
}

func TestMapperUnsolicitedBlockIsNoOp(t *testing.T) {
	m, _, sub, emitter := newHarness()

	block := btcutil.NewBlock(&wire.MsgBlock{Header: wire.BlockHeader{}})
	m.Process(protocol.BlockProcessedEvent{Block: block, Height: 1}, emitter)

	select {
	case ev := <-sub:
		t.Fatalf("expected no event for an unsolicited block, got %T", ev)
	default:
	}
	if m.blockHeight != 0 || m.syncHeight != 0 || len(m.pending) != 0 {
		t.Fatalf("unsolicited block mutated Mapper state: %+v", m)
	}
}
