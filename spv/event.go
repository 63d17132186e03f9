package spv

import (
	"net"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/tolelom/spvnode/protocol"
)

// Event is the sum type of every high-level client event the Mapper
// produces — the narrative a wallet-style application subscribes to.
type Event interface{ clientEvent() }

// ReadyEvent fires once at startup with the initial tip and filter tip.
type ReadyEvent struct {
	Tip       protocol.Height
	FilterTip protocol.Height
}

func (ReadyEvent) clientEvent() {}

type PeerConnectedEvent struct {
	Addr net.Addr
	Link protocol.Link
}

func (PeerConnectedEvent) clientEvent() {}

type PeerConnectionFailedEvent struct {
	Addr  net.Addr
	Error error
}

func (PeerConnectionFailedEvent) clientEvent() {}

type PeerNegotiatedEvent struct {
	Addr      net.Addr
	Link      protocol.Link
	Services  wire.ServiceFlag
	UserAgent string
	Height    protocol.Height
	Version   uint32
}

func (PeerNegotiatedEvent) clientEvent() {}

type PeerDisconnectedEvent struct {
	Addr   net.Addr
	Reason protocol.DisconnectReason
}

func (PeerDisconnectedEvent) clientEvent() {}

type PeerHeightUpdatedEvent struct {
	Height protocol.Height
}

func (PeerHeightUpdatedEvent) clientEvent() {}

type BlockConnectedEvent struct {
	Header wire.BlockHeader
	Hash   chainhash.Hash
	Height protocol.Height
}

func (BlockConnectedEvent) clientEvent() {}

type BlockDisconnectedEvent struct {
	Header wire.BlockHeader
	Hash   chainhash.Hash
	Height protocol.Height
}

func (BlockDisconnectedEvent) clientEvent() {}

// FilterProcessedEvent fires for every filter processed, matched or not.
type FilterProcessedEvent struct {
	Height  protocol.Height
	Matched bool
	Valid   bool
	Block   chainhash.Hash
}

func (FilterProcessedEvent) clientEvent() {}

// BlockMatchedEvent fires once the block for a matched filter has been
// downloaded and scanned.
type BlockMatchedEvent struct {
	Height       protocol.Height
	Hash         chainhash.Hash
	Header       wire.BlockHeader
	Transactions []*wire.MsgTx
}

func (BlockMatchedEvent) clientEvent() {}

type FeeEstimatedEvent struct {
	Block  chainhash.Hash
	Height protocol.Height
	Fees   protocol.FeeEstimate
}

func (FeeEstimatedEvent) clientEvent() {}

type TxStatusChangedEvent struct {
	Txid   chainhash.Hash
	Status TxStatus
}

func (TxStatusChangedEvent) clientEvent() {}

// SyncedEvent is the periodic synced-height notification (spec §4.C).
type SyncedEvent struct {
	Height protocol.Height
	Tip    protocol.Height
}

func (SyncedEvent) clientEvent() {}
