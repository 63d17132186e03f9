// Package chain provides a minimal in-memory implementation of
// protocol.BlockReader: a height/hash-indexed header chain with
// prev-hash-linkage bookkeeping. It exists so Handle.QueryTree,
// Handle.FindBranch, and Handle.ImportHeaders have a real tree to query in
// RunWith-driven tests and examples; a production deployment wires its own
// validator-backed reader instead.
//
// Adapted from the teacher's core.Blockchain (height tracking, PrevHash
// linkage validation, RWMutex-guarded tip) with the teacher's custom
// signed Block replaced by wire.BlockHeader/chainhash.Hash.
package chain

import (
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/tolelom/spvnode/protocol"
)

// Tree is a thread-safe, append-only header chain.
type Tree struct {
	mu      sync.RWMutex
	headers map[protocol.Height]wire.BlockHeader
	byHash  map[chainhash.Hash]protocol.Height
	tip     protocol.Height
	hasTip  bool
}

// New creates a Tree rooted at genesis (height 0).
func New(genesis wire.BlockHeader) *Tree {
	t := &Tree{
		headers: make(map[protocol.Height]wire.BlockHeader),
		byHash:  make(map[chainhash.Hash]protocol.Height),
	}
	t.headers[0] = genesis
	t.byHash[genesis.BlockHash()] = 0
	t.hasTip = true
	return t
}

// Connect appends header at height, validating that it links to the
// current tip. Height 0 may only be used for the genesis header.
func (t *Tree) Connect(header wire.BlockHeader, height protocol.Height) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if height == 0 {
		return fmt.Errorf("chain: height 0 is reserved for genesis")
	}
	if t.hasTip {
		tipHeader := t.headers[t.tip]
		if height != t.tip+1 {
			return fmt.Errorf("chain: height %d does not follow tip %d", height, t.tip)
		}
		if header.PrevBlock != tipHeader.BlockHash() {
			return fmt.Errorf("chain: prev block mismatch at height %d", height)
		}
	}
	hash := header.BlockHash()
	t.headers[height] = header
	t.byHash[hash] = height
	t.tip = height
	t.hasTip = true
	return nil
}

// Height returns the current tip height.
func (t *Tree) Height() protocol.Height {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tip
}

// GetBlockHeader returns the header for hash, if known.
func (t *Tree) GetBlockHeader(hash chainhash.Hash) (wire.BlockHeader, protocol.Height, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	height, ok := t.byHash[hash]
	if !ok {
		return wire.BlockHeader{}, 0, false
	}
	return t.headers[height], height, true
}

// GetBlockHeaderByHeight returns the header at height, if known.
func (t *Tree) GetBlockHeaderByHeight(height protocol.Height) (wire.BlockHeader, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.headers[height]
	return h, ok
}

// FindBranch returns every header from the one matching to up to the tip,
// inclusive, in height order — the non-empty branch the Handle's
// find_branch command surfaces.
func (t *Tree) FindBranch(to chainhash.Hash) (protocol.Height, []wire.BlockHeader, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	fromHeight, ok := t.byHash[to]
	if !ok {
		return 0, nil, false
	}
	branch := make([]wire.BlockHeader, 0, t.tip-fromHeight+1)
	for h := fromHeight; h <= t.tip; h++ {
		branch = append(branch, t.headers[h])
	}
	return fromHeight, branch, true
}

var _ protocol.BlockReader = (*Tree)(nil)
