// Package client is the orchestrator: it owns the three event buses (raw
// protocol events, client events, loading progress), the
// command/shutdown/listening channels, the store bootstrap, and the SPV
// Mapper, and drives a reactor.Reactor against whatever protocol.Service
// a caller supplies. Adapted from the teacher's cmd/node/main.go wiring
// sequence (load config, open stores, construct engine, start network,
// wait on a shutdown signal) turned into a reusable library type instead
// of a single main function.
package client

import (
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tolelom/spvnode/event"
	"github.com/tolelom/spvnode/loading"
	"github.com/tolelom/spvnode/protocol"
	"github.com/tolelom/spvnode/reactor"
	"github.com/tolelom/spvnode/spv"
	"github.com/tolelom/spvnode/store"
)

// commandBacklog bounds the channel a Handle dispatches commands through.
const commandBacklog = 64

// Client is the running SPV node: reactor plus stores plus event buses.
// The zero value is not usable; construct with New.
type Client struct {
	cfg Config
	log zerolog.Logger

	protocolBus *event.Bus[protocol.Event]
	clientBus   *event.Bus[spv.Event]
	loadingBus  *event.Bus[loading.Event]

	protocolEmitter *event.Emitter[protocol.Event]
	clientEmitter   *event.Emitter[spv.Event]

	commands  chan protocol.Command
	shutdown  chan struct{}
	listening chan net.Addr

	reactor reactor.Reactor

	shutdownOnce sync.Once

	mu      sync.Mutex
	mapper  *spv.Mapper
	boot    *store.Bootstrap
	running bool
}

// New allocates a Client's buses and channels for cfg, but performs no
// I/O: stores are opened and the reactor started by Run/RunWith. Buses
// are live from this point on, so Handle().Events()/Loading()
// may be subscribed before Run is ever called, closing the
// subscribe-then-command race window described in spec §9.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, wrap(KindCommand, err)
	}

	log := zerolog.New(os.Stderr).With().Timestamp().Str("component", "client").Logger()

	protocolBus := event.NewBus[protocol.Event](0)
	clientBus := event.NewBus[spv.Event](0)
	loadingBus := event.NewBus[loading.Event](0)

	c := &Client{
		cfg:             cfg,
		log:             log,
		protocolBus:     protocolBus,
		clientBus:       clientBus,
		loadingBus:      loadingBus,
		protocolEmitter: event.NewEmitter(protocolBus),
		clientEmitter:   event.NewEmitter(clientBus),
		commands:        make(chan protocol.Command, commandBacklog),
		shutdown:        make(chan struct{}),
		listening:       make(chan net.Addr, 8),
	}
	c.reactor = reactor.NewLoop(c.listening, 0, log.With().Str("subcomponent", "reactor").Logger())
	return c, nil
}

// Run performs the full startup sequence of spec §4.D: open/heal the
// three on-disk stores (publishing Loading progress), seed the Mapper
// from the heights they report, construct the protocol.Service via
// cfg.NewService, and hand control to RunWith. It blocks until Shutdown
// is called or the reactor exits on its own.
func (c *Client) Run() error {
	dir, err := c.cfg.dataDir()
	if err != nil {
		return wrap(KindIO, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return wrap(KindIO, err)
	}

	boot, err := store.Run(store.Options{
		Dir:           dir,
		Network:       c.cfg.Network,
		ExplicitPeers: c.cfg.Connect,
		Publish:       c.loadingBus.Publish,
		Log:           c.log.With().Str("subcomponent", "store").Logger(),
	})
	if err != nil {
		return wrap(KindStore, err)
	}
	c.loadingBus.Close()

	tipHeight, err := boot.Headers.Height()
	if err != nil {
		boot.Close()
		return wrap(KindStore, err)
	}
	filterHeight, err := boot.Filters.Height()
	if err != nil {
		boot.Close()
		return wrap(KindStore, err)
	}

	c.mu.Lock()
	c.boot = boot
	c.mapper = spv.NewMapper(tipHeight, filterHeight, filterHeight)
	c.mu.Unlock()

	svc, err := c.cfg.NewService(boot, c.cfg)
	if err != nil {
		boot.Close()
		return wrap(KindCommand, err)
	}

	c.emit(protocol.ReadyEvent{Height: tipHeight, FilterHeight: filterHeight})

	return c.RunWith(c.cfg.Listen, svc)
}

// RunWith is the bypass entry point: it skips store bootstrap entirely
// and drives svc directly, for tests and examples that supply their own
// protocol.Service and don't need a persisted Mapper starting point.
func (c *Client) RunWith(listen []string, svc protocol.Service) error {
	c.mu.Lock()
	if c.mapper == nil {
		c.mapper = spv.NewMapper(0, 0, 0)
	}
	c.running = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	return c.reactor.Run(listen, svc, c.emit, c.commands, c.shutdown)
}

// emit is the single point every protocol event passes through: it fans
// out onto the raw protocol bus, then feeds the Mapper to derive
// client-facing events onto the client bus.
func (c *Client) emit(ev protocol.Event) {
	c.protocolEmitter.Emit(ev)
	c.mu.Lock()
	mapper := c.mapper
	c.mu.Unlock()
	if mapper != nil {
		mapper.Process(ev, c.clientEmitter)
	}
}

// Shutdown stops the reactor loop. It is safe to call more than once or
// concurrently with Run/RunWith.
func (c *Client) Shutdown() {
	c.shutdownOnce.Do(func() { close(c.shutdown) })
}

// RunUntilSignal calls Run in the background and blocks until SIGINT or
// SIGTERM, then shuts down and returns Run's error. Adapted from the
// teacher's cmd/node/main.go signal-channel-plus-WaitGroup shutdown dance.
func (c *Client) RunUntilSignal() error {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	errCh := make(chan error, 1)
	go func() { errCh <- c.Run() }()

	select {
	case <-sig:
		c.log.Info().Msg("shutdown signal received")
		c.Shutdown()
		return <-errCh
	case err := <-errCh:
		return err
	}
}

// IsRunning reports whether RunWith's reactor loop is currently active.
func (c *Client) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Close releases the store handles opened by Run. A Client started via
// RunWith instead of Run has nothing to release.
func (c *Client) Close() error {
	c.mu.Lock()
	boot := c.boot
	c.mu.Unlock()
	if boot == nil {
		return nil
	}
	return wrap(KindStore, boot.Close())
}

// Handle returns a cloneable facade for dispatching commands and
// subscribing to events; see handle.go.
func (c *Client) Handle() Handle {
	return Handle{
		commands:    c.commands,
		shutdown:    c.shutdown,
		shutdownFn:  c.Shutdown,
		waker:       c.reactor.Waker(),
		protocolBus: c.protocolBus,
		clientBus:   c.clientBus,
		loadingBus:  c.loadingBus,
		correlate:   newCorrelator(c.log),
	}
}

// newCorrelator returns a function that stamps each dispatched command
// with a fresh correlation ID and logs it, so a command can be traced
// through the reactor by grepping for one uuid.
func newCorrelator(log zerolog.Logger) func(kind string) {
	return func(kind string) {
		log.Debug().Str("command", kind).Str("correlation_id", uuid.NewString()).Msg("dispatching command")
	}
}
