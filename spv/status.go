package spv

import (
	"fmt"
	"net"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/tolelom/spvnode/protocol"
)

// StatusKind tags a TxStatus variant for deterministic ordering (spec §3:
// "Ordering is defined on the variant tag for deterministic test output").
type StatusKind uint8

const (
	StatusUnconfirmed StatusKind = iota
	StatusAcknowledged
	StatusConfirmed
	StatusReverted
	StatusStale
)

// TxStatus is the tagged status of a tracked transaction. Only Unconfirmed,
// Acknowledged, and Confirmed are ever produced by Mapper; Reverted and
// Stale are preserved for a higher-level consumer (spec §9 Open Question)
// and are never synthesized here.
type TxStatus struct {
	Kind StatusKind

	// Acknowledged
	Peer net.Addr

	// Confirmed
	Height protocol.Height
	Block  chainhash.Hash

	// Stale
	ReplacedBy chainhash.Hash
}

// Compare orders two statuses by variant tag first, matching the derived
// Ord on the original Rust enum; ties within Confirmed break on height.
func (s TxStatus) Compare(other TxStatus) int {
	if s.Kind != other.Kind {
		if s.Kind < other.Kind {
			return -1
		}
		return 1
	}
	if s.Kind == StatusConfirmed && s.Height != other.Height {
		if s.Height < other.Height {
			return -1
		}
		return 1
	}
	return 0
}

func (s TxStatus) String() string {
	switch s.Kind {
	case StatusUnconfirmed:
		return "transaction is unconfirmed"
	case StatusAcknowledged:
		return fmt.Sprintf("transaction was acknowledged by peer %s", s.Peer)
	case StatusConfirmed:
		return fmt.Sprintf("transaction was included in block %s at height %d", s.Block, s.Height)
	case StatusReverted:
		return "transaction has been reverted"
	case StatusStale:
		return fmt.Sprintf("transaction was replaced by %s in block %s", s.ReplacedBy, s.Block)
	default:
		return "unknown status"
	}
}
