package client

import (
	"net"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/tolelom/spvnode/event"
	"github.com/tolelom/spvnode/loading"
	"github.com/tolelom/spvnode/protocol"
	"github.com/tolelom/spvnode/reactor"
	"github.com/tolelom/spvnode/spv"
)

// DefaultTimeout bounds every Handle wait operation that doesn't take its
// own explicit timeout.
const DefaultTimeout = 60 * time.Second

// Handle is the thread-safe facade client code actually calls: dispatch
// a Command and, where one is expected, read its reply; subscribe to one
// of the three event buses. It holds only channels and bus references, so
// it is cheap to copy and safe to share across goroutines — the same
// contract as the original's Handle<W: Waker>.
type Handle struct {
	commands    chan<- protocol.Command
	shutdown    <-chan struct{}
	shutdownFn  func()
	waker       reactor.Waker
	protocolBus *event.Bus[protocol.Event]
	clientBus   *event.Bus[spv.Event]
	loadingBus  *event.Bus[loading.Event]
	correlate   func(kind string)
}

// command enqueues cmd and wakes the reactor, the send-then-wake pattern
// every mutating operation uses so a command is never left waiting for
// the reactor's next unrelated tick.
func (h Handle) command(kind string, cmd protocol.Command) error {
	h.correlate(kind)
	select {
	case h.commands <- cmd:
	case <-h.shutdown:
		return wrap(KindChannel, ErrChannelClosed)
	}
	h.waker.Wake()
	return nil
}

// Events subscribes to every client-facing event the Mapper produces.
func (h Handle) Events() <-chan spv.Event { return h.clientBus.Subscribe() }

// Loading subscribes to startup progress events; the channel closes once
// bootstrap completes.
func (h Handle) Loading() <-chan loading.Event { return h.loadingBus.Subscribe() }

// protocolEvents subscribes to the raw protocol bus, used internally by
// the Wait helpers below that need to observe peer-level events the
// client bus doesn't re-expose 1:1.
func (h Handle) protocolEvents() <-chan protocol.Event { return h.protocolBus.Subscribe() }

// GetTip returns the height and header of the best known chain tip.
func (h Handle) GetTip() (protocol.TipResult, error) {
	reply := make(chan protocol.TipResult, 1)
	if err := h.command("get_tip", protocol.GetTipCommand{Reply: reply}); err != nil {
		return protocol.TipResult{}, err
	}
	return <-reply, nil
}

// GetPeers returns every connected peer advertising every bit in services.
func (h Handle) GetPeers(services wire.ServiceFlag) ([]protocol.Peer, error) {
	reply := make(chan []protocol.Peer, 1)
	if err := h.command("get_peers", protocol.GetPeersCommand{Services: services, Reply: reply}); err != nil {
		return nil, err
	}
	return <-reply, nil
}

// GetBlockByHeight returns the header at height, or nil if not known.
func (h Handle) GetBlockByHeight(height protocol.Height) (*wire.BlockHeader, error) {
	reply := make(chan *wire.BlockHeader, 1)
	if err := h.command("get_block_by_height", protocol.GetBlockByHeightCommand{Height: height, Reply: reply}); err != nil {
		return nil, err
	}
	return <-reply, nil
}

// QueryTree runs query against the validated header tree on the reactor
// thread, so query may read the tree without any locking of its own.
func (h Handle) QueryTree(query func(protocol.BlockReader)) error {
	return h.command("query_tree", protocol.QueryTreeCommand{Query: query})
}

// FindBranch returns the branch from the header matching hash up to the
// current tip, via QueryTree.
func (h Handle) FindBranch(hash chainhash.Hash) (protocol.Height, []wire.BlockHeader, bool, error) {
	var (
		from    protocol.Height
		headers []wire.BlockHeader
		ok      bool
	)
	done := make(chan struct{})
	err := h.QueryTree(func(r protocol.BlockReader) {
		from, headers, ok = r.FindBranch(hash)
		close(done)
	})
	if err != nil {
		return 0, nil, false, err
	}
	<-done
	return from, headers, ok, nil
}

// GetBlock requests the full block for hash be fetched from a peer; the
// result arrives later as a BlockProcessedEvent/BlockMatchedEvent, not as
// a reply here — matching the original's fire-and-forget command.
func (h Handle) GetBlock(hash chainhash.Hash) error {
	return h.command("get_block", protocol.GetBlockCommand{Hash: hash})
}

// GetFilters requests compact filters for the inclusive height range
// [from, to]. An empty or inverted range is rejected with ErrEmptyRange
// rather than asserting, per spec's resolved Open Question.
func (h Handle) GetFilters(from, to protocol.Height) error {
	if from > to {
		return ErrEmptyRange
	}
	reply := make(chan error, 1)
	if err := h.command("get_filters", protocol.GetFiltersCommand{From: from, To: to, Reply: reply}); err != nil {
		return err
	}
	if err := <-reply; err != nil {
		return wrap(KindGetFilters, err)
	}
	return nil
}

// Broadcast sends msg to every connected peer matching predicate (nil
// matches all), returning the addresses it was sent to.
func (h Handle) Broadcast(msg wire.Message, predicate protocol.BroadcastPredicate) ([]net.Addr, error) {
	reply := make(chan []net.Addr, 1)
	if err := h.command("broadcast", protocol.BroadcastCommand{Message: msg, Predicate: predicate, Reply: reply}); err != nil {
		return nil, err
	}
	return <-reply, nil
}

// Query sends msg to a single connected peer, returning its address, or
// nil if none was available.
func (h Handle) Query(msg wire.Message) (net.Addr, error) {
	reply := make(chan net.Addr, 1)
	if err := h.command("query", protocol.QueryCommand{Message: msg, Reply: reply}); err != nil {
		return nil, err
	}
	return <-reply, nil
}

// Connect dials addr, waiting up to timeout for the resulting
// PeerConnected or PeerConnectionFailed event. The subscription is made
// before the command is dispatched, so there is no window in which the
// connection could complete and the event already be missed.
func (h Handle) Connect(addr net.Addr, timeout time.Duration) error {
	sub := h.protocolEvents()
	defer h.protocolBus.Unsubscribe(sub)

	if err := h.command("connect", protocol.ConnectCommand{Addr: addr}); err != nil {
		return err
	}
	_, err := event.Wait(sub, func(ev protocol.Event) (struct{}, bool) {
		switch e := ev.(type) {
		case protocol.PeerConnectedEvent:
			if sameAddr(e.Addr, addr) {
				return struct{}{}, true
			}
		case protocol.PeerConnectionFailedEvent:
			if sameAddr(e.Addr, addr) {
				return struct{}{}, true
			}
		}
		return struct{}{}, false
	}, timeout)
	return wrapTimeout(err)
}

// Disconnect closes the connection to addr, waiting up to timeout for the
// resulting PeerDisconnected event.
func (h Handle) Disconnect(addr net.Addr, timeout time.Duration) error {
	sub := h.protocolEvents()
	defer h.protocolBus.Unsubscribe(sub)

	if err := h.command("disconnect", protocol.DisconnectCommand{Addr: addr}); err != nil {
		return err
	}
	_, err := event.Wait(sub, func(ev protocol.Event) (struct{}, bool) {
		e, ok := ev.(protocol.PeerDisconnectedEvent)
		return struct{}{}, ok && sameAddr(e.Addr, addr)
	}, timeout)
	return wrapTimeout(err)
}

// ImportHeaders submits headers to the external validator tree.
func (h Handle) ImportHeaders(headers []wire.BlockHeader) (protocol.ImportResult, error) {
	reply := make(chan protocol.ImportHeadersResult, 1)
	if err := h.command("import_headers", protocol.ImportHeadersCommand{Headers: headers, Reply: reply}); err != nil {
		return protocol.ImportResult{}, err
	}
	res := <-reply
	if res.Err != nil {
		return protocol.ImportResult{}, wrap(KindTree, res.Err)
	}
	return res.Result, nil
}

// ImportAddresses feeds externally-discovered peer addresses to the
// reactor's address book.
func (h Handle) ImportAddresses(addrs []*wire.NetAddress) error {
	return h.command("import_addresses", protocol.ImportAddressesCommand{Addrs: addrs})
}

// SubmitTransaction broadcasts tx for relay, returning the peers it was
// sent to.
func (h Handle) SubmitTransaction(tx *wire.MsgTx) ([]net.Addr, error) {
	reply := make(chan protocol.SubmitResult, 1)
	if err := h.command("submit_transaction", protocol.SubmitTransactionCommand{Tx: tx, Reply: reply}); err != nil {
		return nil, err
	}
	res := <-reply
	if res.Err != nil {
		return nil, wrap(KindCommand, res.Err)
	}
	return res.Peers, nil
}

// WaitForPeers blocks until at least min peers are connected, or timeout
// elapses.
func (h Handle) WaitForPeers(min int, services wire.ServiceFlag, timeout time.Duration) error {
	sub := h.protocolEvents()
	defer h.protocolBus.Unsubscribe(sub)

	peers, err := h.GetPeers(services)
	if err == nil && len(peers) >= min {
		return nil
	}

	count := len(peers)
	_, err = event.Wait(sub, func(ev protocol.Event) (struct{}, bool) {
		switch ev.(type) {
		case protocol.PeerConnectedEvent:
			count++
		case protocol.PeerDisconnectedEvent:
			if count > 0 {
				count--
			}
		}
		return struct{}{}, count >= min
	}, timeout)
	return wrapTimeout(err)
}

// WaitForHeight blocks until the client-facing Synced event reports a
// height >= target, or timeout elapses. Only Synced events published after
// the call subscribes are observed: a height already reached before the
// call is not looked up, and the wait then runs until timeout.
func (h Handle) WaitForHeight(target protocol.Height, timeout time.Duration) error {
	sub := h.Events()
	defer h.clientBus.Unsubscribe(sub)

	_, err := event.Wait(sub, func(ev spv.Event) (struct{}, bool) {
		synced, ok := ev.(spv.SyncedEvent)
		return struct{}{}, ok && synced.Height >= target
	}, timeout)
	return wrapTimeout(err)
}

// Wait blocks until pred matches a client event or timeout elapses.
// Callers must call Events() to obtain sub before triggering whatever
// condition pred waits for.
func Wait[R any](sub <-chan spv.Event, pred func(spv.Event) (R, bool), timeout time.Duration) (R, error) {
	return event.Wait(sub, pred, timeout)
}

// Shutdown stops the client's reactor loop.
func (h Handle) Shutdown() { h.shutdownFn() }

func wrapTimeout(err error) error {
	if err == nil {
		return nil
	}
	return wrap(KindTimeout, err)
}

func sameAddr(a, b net.Addr) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.String() == b.String()
}
