package protocol

import (
	"net"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// ImportResult summarizes the outcome of importing a batch of headers.
type ImportResult struct {
	Height  Height
	Tip     chainhash.Hash
	Reverted []Height // heights disconnected by a reorg the import triggered
}

// TreeError is returned verbatim through ImportHeaders when the external
// validator tree rejects a header (bad proof of work, doesn't connect,
// etc). The core never interprets it.
type TreeError struct {
	Reason string
}

func (e *TreeError) Error() string { return "tree: " + e.Reason }

// CommandError is returned when the protocol service rejects a command it
// otherwise understood, e.g. SubmitTransaction with no eligible peer.
type CommandError struct {
	Reason string
}

func (e *CommandError) Error() string { return "command rejected: " + e.Reason }

// BlockReader is the narrow read view of the validated header chain handed
// to a QueryTree callback. Implemented by the chain package's reference
// Tree, or by a real validator in production.
type BlockReader interface {
	Height() Height
	GetBlockHeader(hash chainhash.Hash) (wire.BlockHeader, Height, bool)
	GetBlockHeaderByHeight(height Height) (wire.BlockHeader, bool)
	FindBranch(to chainhash.Hash) (Height, []wire.BlockHeader, bool)
}

// Command is the sum type of every instruction the Handle can dispatch to
// the reactor. Each concrete type carries its own response channel where a
// reply is expected, per spec §4.E's table.
type Command interface{ protocolCommand() }

type GetTipCommand struct {
	Reply chan<- TipResult
}

func (GetTipCommand) protocolCommand() {}

// TipResult is the reply to GetTipCommand.
type TipResult struct {
	Height Height
	Header wire.BlockHeader
}

type GetPeersCommand struct {
	Services wire.ServiceFlag
	Reply    chan<- []Peer
}

func (GetPeersCommand) protocolCommand() {}

type GetBlockByHeightCommand struct {
	Height Height
	Reply  chan<- *wire.BlockHeader // nil if not known
}

func (GetBlockByHeightCommand) protocolCommand() {}

type QueryTreeCommand struct {
	Query func(BlockReader)
}

func (QueryTreeCommand) protocolCommand() {}

type GetBlockCommand struct {
	Hash chainhash.Hash
}

func (GetBlockCommand) protocolCommand() {}

type GetFiltersCommand struct {
	From, To Height // inclusive range
	Reply    chan<- error
}

func (GetFiltersCommand) protocolCommand() {}

// BroadcastPredicate selects which connected peers a Broadcast command is
// sent to.
type BroadcastPredicate func(Peer) bool

type BroadcastCommand struct {
	Message   wire.Message
	Predicate BroadcastPredicate
	Reply     chan<- []net.Addr
}

func (BroadcastCommand) protocolCommand() {}

type QueryCommand struct {
	Message wire.Message
	Reply   chan<- net.Addr // nil if no peer was queried
}

func (QueryCommand) protocolCommand() {}

type ConnectCommand struct {
	Addr net.Addr
}

func (ConnectCommand) protocolCommand() {}

type DisconnectCommand struct {
	Addr net.Addr
}

func (DisconnectCommand) protocolCommand() {}

type ImportHeadersCommand struct {
	Headers []wire.BlockHeader
	Reply   chan<- ImportHeadersResult
}

func (ImportHeadersCommand) protocolCommand() {}

// ImportHeadersResult carries either a successful ImportResult or a
// verbatim TreeError, mirroring Result<ImportResult, tree::Error> from the
// original client.
type ImportHeadersResult struct {
	Result ImportResult
	Err    *TreeError
}

type ImportAddressesCommand struct {
	Addrs []*wire.NetAddress
}

func (ImportAddressesCommand) protocolCommand() {}

type SubmitTransactionCommand struct {
	Tx    *wire.MsgTx
	Reply chan<- SubmitResult
}

func (SubmitTransactionCommand) protocolCommand() {}

// SubmitResult carries the non-empty set of peers a transaction was sent
// to, or a CommandError if none were eligible.
type SubmitResult struct {
	Peers []net.Addr
	Err   *CommandError
}

// Hooks are opaque, single-threaded callbacks invoked by the protocol
// service at defined points. The core never calls them directly: it only
// threads them through to the Service constructor (spec §9). All fields
// are optional.
type Hooks struct {
	OnConnect    func(net.Addr)
	OnDisconnect func(net.Addr, error)
}

// Limits bounds protocol-service resource usage. The core only stores and
// forwards these; enforcement is the external Service's responsibility.
type Limits struct {
	MaxOutbound        int
	MaxInbound          int
	HandshakeTimeoutSec int
}

// DefaultLimits returns conservative defaults matching typical full-node
// peer budgets.
func DefaultLimits() Limits {
	return Limits{MaxOutbound: 8, MaxInbound: 16, HandshakeTimeoutSec: 30}
}
