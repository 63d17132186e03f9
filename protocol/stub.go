package protocol

import (
	"net"
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// Stub is a minimal, in-memory Service good enough to drive RunWith end to
// end in tests and examples — it never touches a socket. Commands are
// answered synchronously from whatever state Feed has pushed into it.
// Adapted from the teacher's network.Syncer (handlers keyed by message
// type, mutex-guarded shared state) generalized to the Service contract.
type Stub struct {
	mu      sync.Mutex
	tip     Height
	headers map[Height]wire.BlockHeader
	byHash  map[chainhash.Hash]Height
	peers   map[string]Peer
}

// NewStub creates a Stub service seeded with a single genesis header at
// height 0.
func NewStub(genesis wire.BlockHeader) *Stub {
	s := &Stub{
		headers: make(map[Height]wire.BlockHeader),
		byHash:  make(map[chainhash.Hash]Height),
		peers:   make(map[string]Peer),
	}
	s.headers[0] = genesis
	s.byHash[genesis.BlockHash()] = 0
	return s
}

// Feed lets a test push a header directly into the stub's tree without
// going through ImportHeaders, simulating headers the validator already
// accepted.
func (s *Stub) Feed(h wire.BlockHeader, height Height) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.headers[height] = h
	s.byHash[h.BlockHash()] = height
	if height > s.tip {
		s.tip = height
	}
}

// FeedPeer registers a connected peer so GetPeers/wait_for_peers can
// observe it without a real handshake.
func (s *Stub) FeedPeer(p Peer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peers[p.Addr.String()] = p
}

// Tick is a no-op: the stub has no background I/O to perform.
func (s *Stub) Tick(now time.Time, emit func(Event)) {}

// HandleCommand answers commands from the stub's in-memory state.
func (s *Stub) HandleCommand(cmd Command, emit func(Event)) {
	switch c := cmd.(type) {
	case GetTipCommand:
		s.mu.Lock()
		h := s.headers[s.tip]
		tip := s.tip
		s.mu.Unlock()
		c.Reply <- TipResult{Height: tip, Header: h}

	case GetPeersCommand:
		s.mu.Lock()
		var out []Peer
		for _, p := range s.peers {
			if p.Services&c.Services == c.Services {
				out = append(out, p)
			}
		}
		s.mu.Unlock()
		c.Reply <- out

	case GetBlockByHeightCommand:
		s.mu.Lock()
		h, ok := s.headers[c.Height]
		s.mu.Unlock()
		if !ok {
			c.Reply <- nil
			return
		}
		hc := h
		c.Reply <- &hc

	case QueryTreeCommand:
		c.Query(s)

	case GetBlockCommand:
		// A real service would fetch the block from a peer and emit
		// BlockProcessedEvent asynchronously; the stub has no peers to ask.

	case GetFiltersCommand:
		s.mu.Lock()
		_, fromOK := s.headers[c.From]
		_, toOK := s.headers[c.To]
		s.mu.Unlock()
		if !fromOK || !toOK || c.From > c.To {
			c.Reply <- &CommandError{Reason: "range not cached"}
			return
		}
		c.Reply <- nil

	case BroadcastCommand:
		s.mu.Lock()
		var sent []net.Addr
		for _, p := range s.peers {
			if c.Predicate == nil || c.Predicate(p) {
				sent = append(sent, p.Addr)
			}
		}
		s.mu.Unlock()
		c.Reply <- sent

	case QueryCommand:
		s.mu.Lock()
		var addr net.Addr
		for _, p := range s.peers {
			addr = p.Addr
			break
		}
		s.mu.Unlock()
		c.Reply <- addr

	case ConnectCommand:
		emit(PeerConnectedEvent{Addr: c.Addr, Link: Outbound})

	case DisconnectCommand:
		emit(PeerDisconnectedEvent{Addr: c.Addr, Reason: DisconnectReason{Persistent: true}})

	case ImportHeadersCommand:
		s.mu.Lock()
		height := s.tip
		for _, h := range c.Headers {
			height++
			s.headers[height] = h
			s.byHash[h.BlockHash()] = height
		}
		s.tip = height
		tipHash := s.headers[height].BlockHash()
		s.mu.Unlock()
		c.Reply <- ImportHeadersResult{Result: ImportResult{Height: height, Tip: tipHash}}

	case ImportAddressesCommand:
		// No peer cache in the stub; nothing to do.

	case SubmitTransactionCommand:
		s.mu.Lock()
		var sent []net.Addr
		for _, p := range s.peers {
			sent = append(sent, p.Addr)
		}
		s.mu.Unlock()
		if len(sent) == 0 {
			c.Reply <- SubmitResult{Err: &CommandError{Reason: "no eligible peers"}}
			return
		}
		c.Reply <- SubmitResult{Peers: sent}
	}
}

// Height implements BlockReader.
func (s *Stub) Height() Height {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tip
}

// GetBlockHeader implements BlockReader.
func (s *Stub) GetBlockHeader(hash chainhash.Hash) (wire.BlockHeader, Height, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	height, ok := s.byHash[hash]
	if !ok {
		return wire.BlockHeader{}, 0, false
	}
	return s.headers[height], height, true
}

// GetBlockHeaderByHeight implements BlockReader.
func (s *Stub) GetBlockHeaderByHeight(height Height) (wire.BlockHeader, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.headers[height]
	return h, ok
}

// FindBranch implements BlockReader: it returns every header from the one
// matching to up to the tip, in height order, if to is known.
func (s *Stub) FindBranch(to chainhash.Hash) (Height, []wire.BlockHeader, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	toHeight, ok := s.byHash[to]
	if !ok {
		return 0, nil, false
	}
	branch := make([]wire.BlockHeader, 0, s.tip-toHeight+1)
	for h := toHeight; h <= s.tip; h++ {
		branch = append(branch, s.headers[h])
	}
	return toHeight, branch, true
}
