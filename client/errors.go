package client

import (
	"errors"
	"fmt"

	"github.com/tolelom/spvnode/event"
)

// Kind classifies an Error by the layer that produced it.
type Kind uint8

const (
	KindIO Kind = iota
	KindStore
	KindPeerStore
	KindChannel
	KindCommand
	KindGetFilters
	KindTree
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindStore:
		return "store"
	case KindPeerStore:
		return "peer store"
	case KindChannel:
		return "channel"
	case KindCommand:
		return "command"
	case KindGetFilters:
		return "get filters"
	case KindTree:
		return "tree"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error is the typed error every Client/Handle method returns, wrapping
// the underlying cause with the layer it surfaced from.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("client: %s", e.Kind)
	}
	return fmt.Sprintf("client: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// ErrEmptyRange is returned by Handle.GetFilters for a from > to range
// (spec's Open Question: a typed error, not an assertion).
var ErrEmptyRange = errors.New("client: empty filter range")

// ErrTimeout and ErrChannelClosed re-export the event package's sentinels
// so callers can errors.Is against them without importing event directly.
var (
	ErrTimeout       = event.ErrTimeout
	ErrChannelClosed = event.ErrClosed
)
