package spv

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/tolelom/spvnode/event"
	"github.com/tolelom/spvnode/protocol"
)

// assert panics unconditionally when cond is false. Reserved for
// invariants whose violation means Mapper's own bookkeeping has gone
// wrong, not anything a caller could trigger.
func assert(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}

// Mapper is the sole translator from the protocol core's low-level Event
// stream into the narrative a client subscriber actually wants: connected
// peers, matched blocks, transaction status transitions, and a single
// monotonic "synced to height H" heartbeat. It holds no lock of its own —
// Process is only ever called from the reactor thread that owns the
// protocol core, same as the Rust original's Mapper.
//
// Mapper tracks four heights:
//
//   - tipHeight: the height of the best known header, updated on every
//     protocol SyncedEvent regardless of filter/block progress.
//   - filterHeight: the height through which compact filters have been
//     fetched and checked against tracked scripts.
//   - blockHeight: the height through which a matched filter's full block
//     has been downloaded and scanned.
//   - syncHeight: the height reported to subscribers as "synced to", which
//     can never exceed filterHeight and trails blockHeight whenever a
//     filter match is still awaiting its block (see pending).
type Mapper struct {
	tipHeight    protocol.Height
	syncHeight   protocol.Height
	filterHeight protocol.Height
	blockHeight  protocol.Height
	pending      map[protocol.Height]pendingFilter
}

type pendingFilter struct {
	block chainhash.Hash
}

// NewMapper constructs a Mapper seeded with the heights recorded by the
// header and filter-header stores at startup (spec §4.B bootstrap, §4.C
// Ready event).
func NewMapper(tipHeight, filterHeight, blockHeight protocol.Height) *Mapper {
	return &Mapper{
		tipHeight:    tipHeight,
		syncHeight:   blockHeight,
		filterHeight: filterHeight,
		blockHeight:  blockHeight,
		pending:      make(map[protocol.Height]pendingFilter),
	}
}

// Process translates one protocol.Event into zero or more client events on
// emit, then re-evaluates whether a new SyncedEvent is due. Every protocol
// event produces at most one directly corresponding client event except
// SyncedEvent (tip bookkeeping only, no 1:1 client event — the client's own
// Synced is derived below), RescanStartedEvent (resets state, no client
// event at all), and BlockProcessedEvent (a BlockMatchedEvent when its
// height was pending, plus a FeeEstimatedEvent when fees are present).
func (m *Mapper) Process(ev protocol.Event, emit *event.Emitter[Event]) {
	switch e := ev.(type) {
	case protocol.ReadyEvent:
		emit.Emit(ReadyEvent{Tip: e.Height, FilterTip: e.FilterHeight})

	case protocol.PeerConnectedEvent:
		emit.Emit(PeerConnectedEvent{Addr: e.Addr, Link: e.Link})

	case protocol.PeerConnectionFailedEvent:
		emit.Emit(PeerConnectionFailedEvent{Addr: e.Addr, Error: e.Error})

	case protocol.PeerNegotiatedEvent:
		emit.Emit(PeerNegotiatedEvent{
			Addr:      e.Addr,
			Link:      e.Link,
			Services:  e.Services,
			UserAgent: e.UserAgent,
			Height:    e.Height,
			Version:   e.Version,
		})

	case protocol.PeerDisconnectedEvent:
		emit.Emit(PeerDisconnectedEvent{Addr: e.Addr, Reason: e.Reason})

	case protocol.PeerHeightUpdatedEvent:
		emit.Emit(PeerHeightUpdatedEvent{Height: e.Height})

	case protocol.SyncedEvent:
		// Tip bookkeeping only; the client-facing Synced event is derived
		// below from filterHeight/blockHeight/pending, not announced here.
		m.tipHeight = e.Height

	case protocol.BlockConnectedEvent:
		emit.Emit(BlockConnectedEvent{Header: e.Header, Hash: e.Header.BlockHash(), Height: e.Height})

	case protocol.BlockDisconnectedEvent:
		emit.Emit(BlockDisconnectedEvent{Header: e.Header, Hash: e.Header.BlockHash(), Height: e.Height})

	case protocol.BlockProcessedEvent:
		hash := m.processBlock(e, emit)
		if e.Fees != nil {
			emit.Emit(FeeEstimatedEvent{Block: hash, Height: e.Height, Fees: *e.Fees})
		}

	case protocol.ConfirmedEvent:
		emit.Emit(TxStatusChangedEvent{
			Txid: e.Transaction.TxHash(),
			Status: TxStatus{
				Kind:   StatusConfirmed,
				Height: e.Height,
				Block:  e.Block,
			},
		})

	case protocol.AcknowledgedEvent:
		emit.Emit(TxStatusChangedEvent{
			Txid: e.Txid,
			Status: TxStatus{
				Kind: StatusAcknowledged,
				Peer: e.Peer,
			},
		})

	case protocol.RescanStartedEvent:
		m.pending = make(map[protocol.Height]pendingFilter)
		m.filterHeight = e.Start
		m.blockHeight = e.Start
		m.syncHeight = e.Start
		return // no client event, no Synced re-evaluation against stale state

	case protocol.FilterProcessedEvent:
		m.processFilter(e, emit)

	default:
		// FilterReceivedEvent and any future protocol events carry no
		// client-facing narrative of their own; the Mapper simply ignores
		// them.
		return
	}

	assert(m.blockHeight <= m.filterHeight,
		"mapper: block height %d exceeds filter height %d", m.blockHeight, m.filterHeight)
	assert(m.syncHeight <= m.filterHeight,
		"mapper: sync height %d exceeds filter height %d", m.syncHeight, m.filterHeight)

	m.maybeEmitSynced(emit)

	debugAssert(len(m.pending) > 0 || m.syncHeight == m.filterHeight,
		"mapper: sync height %d behind filter height %d with no pending filter", m.syncHeight, m.filterHeight)
}

// processFilter records a compact filter's verification outcome, advancing
// filterHeight and, for a confirmed match, registering the block as
// pending until it is fetched and scanned.
func (m *Mapper) processFilter(e protocol.FilterProcessedEvent, emit *event.Emitter[Event]) {
	assert(e.Height >= m.filterHeight,
		"mapper: filter height %d behind current filter height %d", e.Height, m.filterHeight)

	m.filterHeight = e.Height
	emit.Emit(FilterProcessedEvent{Height: e.Height, Matched: e.Matched, Valid: e.Valid, Block: e.Block})

	if e.Matched {
		m.pending[e.Height] = pendingFilter{block: e.Block}
	}
}

// processBlock consumes the full block fetched for a pending filter match:
// it clears the pending entry, advances blockHeight, and emits the matched
// block to subscribers. It returns the block's hash for the caller to
// attach to a derived FeeEstimatedEvent.
func (m *Mapper) processBlock(e protocol.BlockProcessedEvent, emit *event.Emitter[Event]) chainhash.Hash {
	if _, wasPending := m.pending[e.Height]; !wasPending {
		// Unsolicited block: no filter match was waiting on it. Return its
		// hash without touching state or emitting anything.
		return *e.Block.Hash()
	}
	delete(m.pending, e.Height)

	if e.Height > m.blockHeight {
		m.blockHeight = e.Height
	}

	header := e.Block.MsgBlock().Header
	hash := e.Block.Hash()
	emit.Emit(BlockMatchedEvent{
		Height:       e.Height,
		Hash:         *hash,
		Header:       header,
		Transactions: e.Block.MsgBlock().Transactions,
	})
	return *hash
}

// maybeEmitSynced is run after every processed event: the client is synced
// through filterHeight as long as no filter match is still waiting on its
// block, otherwise only through blockHeight. A SyncedEvent is emitted only
// when that height has advanced past the last one reported.
func (m *Mapper) maybeEmitSynced(emit *event.Emitter[Event]) {
	height := m.filterHeight
	if len(m.pending) > 0 {
		height = m.blockHeight
	}
	if height > m.syncHeight {
		m.syncHeight = height
		emit.Emit(SyncedEvent{Height: height, Tip: m.tipHeight})
	}
}
