// Package protocol declares the contract between the client core and its
// external collaborators: the Bitcoin wire codec, the header/filter
// validator, and the reactor's socket I/O. Nothing in this package decodes
// a single byte off the wire — it only names the typed events and commands
// those collaborators produce and consume, plus one reference Service
// implementation good enough to drive the core in tests (see Stub).
package protocol

import (
	"net"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// Height is a non-negative block height.
type Height = uint32

// Link indicates which side of a connection dialed the other.
type Link uint8

const (
	Inbound Link = iota
	Outbound
)

// DisconnectReason explains why a peer connection ended.
type DisconnectReason struct {
	Command    string // command being processed when the disconnect happened, if any
	Error      error
	Persistent bool // true if the reactor should not attempt to reconnect
}

func (r DisconnectReason) Error() string {
	if r.Error != nil {
		return r.Error.Error()
	}
	return "disconnected"
}

// Event is the sum type of everything the protocol Service can emit. Each
// concrete type below implements Event via the unexported marker method,
// the standard Go rendition of a tagged union (see e.g. go-ethereum's core
// event types or tendermint's ABCI events): callers type-switch on the
// concrete value.
type Event interface{ protocolEvent() }

// ReadyEvent fires once at startup once header and filter stores are
// loaded, carrying their initial heights.
type ReadyEvent struct {
	Height       Height
	FilterHeight Height
}

func (ReadyEvent) protocolEvent() {}

// PeerConnectedEvent fires when a TCP/Tor connection to addr completes.
type PeerConnectedEvent struct {
	Addr net.Addr
	Link Link
}

func (PeerConnectedEvent) protocolEvent() {}

// PeerConnectionFailedEvent fires when dialing addr failed.
type PeerConnectionFailedEvent struct {
	Addr  net.Addr
	Error error
}

func (PeerConnectionFailedEvent) protocolEvent() {}

// PeerNegotiatedEvent fires once version/verack handshake completes.
type PeerNegotiatedEvent struct {
	Addr      net.Addr
	Link      Link
	Services  wire.ServiceFlag
	UserAgent string
	Height    Height
	Version   uint32
}

func (PeerNegotiatedEvent) protocolEvent() {}

// PeerDisconnectedEvent fires when a peer connection ends, for any reason.
type PeerDisconnectedEvent struct {
	Addr   net.Addr
	Reason DisconnectReason
}

func (PeerDisconnectedEvent) protocolEvent() {}

// PeerHeightUpdatedEvent fires when the best-known height among connected
// peers changes.
type PeerHeightUpdatedEvent struct {
	Height Height
}

func (PeerHeightUpdatedEvent) protocolEvent() {}

// SyncedEvent fires when the locally-validated chain reaches height,
// identified by the header hash at that height.
type SyncedEvent struct {
	Hash   chainhash.Hash
	Height Height
}

func (SyncedEvent) protocolEvent() {}

// BlockConnectedEvent fires when a header is appended to the best chain.
type BlockConnectedEvent struct {
	Header wire.BlockHeader
	Height Height
}

func (BlockConnectedEvent) protocolEvent() {}

// BlockDisconnectedEvent fires when a header is removed from the best
// chain during a reorganization.
type BlockDisconnectedEvent struct {
	Header wire.BlockHeader
	Height Height
}

func (BlockDisconnectedEvent) protocolEvent() {}

// BlockProcessedEvent fires once a full block requested because its filter
// matched has been downloaded and scanned.
type BlockProcessedEvent struct {
	Block  *btcutil.Block
	Height Height
	Fees   *FeeEstimate // nil if no fee estimate was computed for this block
}

func (BlockProcessedEvent) protocolEvent() {}

// FeeEstimate carries a fee-rate estimate derived from a scanned block.
type FeeEstimate struct {
	SatsPerVByte float64
}

// ConfirmedEvent fires when a tracked transaction is found in a connected
// block.
type ConfirmedEvent struct {
	Transaction *wire.MsgTx
	Height      Height
	Block       chainhash.Hash
}

func (ConfirmedEvent) protocolEvent() {}

// AcknowledgedEvent fires when a peer requests tx data after an inventory
// announcement (not proof of mempool acceptance, only receipt).
type AcknowledgedEvent struct {
	Txid chainhash.Hash
	Peer net.Addr
}

func (AcknowledgedEvent) protocolEvent() {}

// RescanStartedEvent fires when an operator-initiated rescan begins at
// start.
type RescanStartedEvent struct {
	Start Height
}

func (RescanStartedEvent) protocolEvent() {}

// FilterProcessedEvent fires once a compact filter at height has been
// fetched, checked against the tracked scripts, and its header verified.
type FilterProcessedEvent struct {
	Block   chainhash.Hash
	Height  Height
	Matched bool
	Valid   bool
}

func (FilterProcessedEvent) protocolEvent() {}

// FilterReceivedEvent fires whenever a raw compact filter arrives, whether
// or not it matched. It reaches subscribers of the raw protocol bus only:
// the Mapper ignores it and no separate filter bus is derived from it.
type FilterReceivedEvent struct {
	Filter []byte
	Block  chainhash.Hash
	Height Height
}

func (FilterReceivedEvent) protocolEvent() {}

// Peer describes a connected, negotiated peer as returned by GetPeers.
type Peer struct {
	Addr      net.Addr
	Link      Link
	Services  wire.ServiceFlag
	UserAgent string
	Height    Height
	Version   uint32
	Connected time.Time
}
