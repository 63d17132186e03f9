// Package reactor defines the contract between the client core and
// whatever actually owns peer sockets and wire framing, plus a reference
// implementation good enough to drive the core end to end without a real
// network.
//
// Adapted from the teacher's network.Node accept/read-loop pairing
// (network/node.go) and consensus.PoA.Run's ticker-over-select idiom
// (consensus/poa.go): the reactor owns one goroutine that multiplexes
// timer ticks, inbound commands, and shutdown, the same shape as PoA.Run
// but driving a protocol.Service instead of block production.
package reactor

import (
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/tolelom/spvnode/protocol"
)

// DefaultTick is how often Loop calls Service.Tick when otherwise idle.
const DefaultTick = 100 * time.Millisecond

// Waker lets a caller interrupt a Reactor's poll loop outside of its
// regular tick, e.g. right after a command is enqueued.
type Waker interface {
	Wake()
}

// Reactor is the external collaborator the client core drives: it owns
// the actual peer connections and wire codec. The core depends only on
// this interface; Loop below is a minimal reference good enough for
// RunWith in tests and as a default.
type Reactor interface {
	// Run drives svc until shutdown closes or cmds closes, dialing/listening
	// on addrs as appropriate. Every event svc produces is passed to emit.
	Run(addrs []string, svc protocol.Service, emit func(protocol.Event), cmds <-chan protocol.Command, shutdown <-chan struct{}) error
	// Waker returns the handle used to interrupt this Reactor's poll loop.
	Waker() Waker
}

// Loop is a minimal single-threaded Reactor: it never opens a socket
// itself (that is protocol.Service's job on Tick), only multiplexes
// timer ticks, commands, and an out-of-band wake signal against whatever
// Service.Tick/Service.HandleCommand do. Real listen/dial happens inside
// the Service implementation; Loop only reports the addresses it was
// asked to listen on, for a caller that wants to know when to announce
// itself ready.
type Loop struct {
	tick      time.Duration
	listening chan<- net.Addr
	wake      chan struct{}
	log       zerolog.Logger
}

// NewLoop creates a Loop. listening may be nil if the caller does not
// need listen-address notifications; tick <= 0 uses DefaultTick.
func NewLoop(listening chan<- net.Addr, tick time.Duration, log zerolog.Logger) *Loop {
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Loop{
		tick:      tick,
		listening: listening,
		wake:      make(chan struct{}, 1),
		log:       log,
	}
}

// Waker implements Reactor.
func (l *Loop) Waker() Waker { return (*loopWaker)(l) }

type loopWaker Loop

// Wake interrupts the Loop's current tick wait, if any, without blocking.
func (w *loopWaker) Wake() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Run implements Reactor. It resolves and reports each listen address
// (best-effort; a resolution failure is logged, not fatal, since the
// Service itself is the one that actually binds), then loops until
// shutdown closes.
func (l *Loop) Run(addrs []string, svc protocol.Service, emit func(protocol.Event), cmds <-chan protocol.Command, shutdown <-chan struct{}) error {
	for _, a := range addrs {
		addr, err := net.ResolveTCPAddr("tcp", a)
		if err != nil {
			l.log.Warn().Str("addr", a).Err(err).Msg("reactor: could not resolve listen address")
			continue
		}
		if l.listening != nil {
			select {
			case l.listening <- addr:
			case <-shutdown:
				return nil
			}
		}
	}

	ticker := time.NewTicker(l.tick)
	defer ticker.Stop()

	for {
		select {
		case <-shutdown:
			return nil

		case <-l.wake:
			// A command was just enqueued; loop around immediately to drain
			// cmds without waiting out the rest of this tick.

		case <-ticker.C:
			svc.Tick(time.Now(), emit)

		case cmd, ok := <-cmds:
			if !ok {
				return fmt.Errorf("reactor: command channel closed")
			}
			svc.HandleCommand(cmd, emit)
		}
	}
}
