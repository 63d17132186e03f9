package store

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/tolelom/spvnode/chainparams"
	"github.com/tolelom/spvnode/loading"
	"github.com/tolelom/spvnode/peer"
)

// Bootstrap is the result of opening all three on-disk stores, ready to
// hand to a protocol.Service constructor.
type Bootstrap struct {
	Headers *Journal[HeaderRecord]
	Filters *Journal[FilterHeaderRecord]
	Peers   *peer.Cache
}

// Options configures Bootstrap.
type Options struct {
	// Dir is the per-network data directory, {root}/.nakamoto/{network}.
	Dir string
	// Network selects the genesis records and DNS seed list.
	Network *chainparams.Params
	// ExplicitPeers bypasses DNS seeding when non-empty (spec §4.B).
	ExplicitPeers []string
	// Publish reports Loading events as stores are replayed.
	Publish func(loading.Event)
	Log     zerolog.Logger
}

// Run performs the three-way open/heal dance for the header store, the
// filter-header store, and the peer cache, in that order, matching spec
// §4.B exactly — including DNS-seeding the peer cache when it is empty
// and no explicit peers were configured.
func Run(opts Options) (*Bootstrap, error) {
	publish := opts.Publish
	if publish == nil {
		publish = func(loading.Event) {}
	}

	headersPath := filepath.Join(opts.Dir, "headers.db")
	headers, created, err := CreateOrOpen(headersPath, HeaderRecord{Header: opts.Network.GenesisHeader}, DecodeHeaderRecord)
	if err != nil {
		return nil, fmt.Errorf("store: headers: %w", err)
	}
	if created {
		opts.Log.Info().Str("path", headersPath).Msg("initialized new block header store")
	} else {
		opts.Log.Info().Str("path", headersPath).Msg("found existing block header store")
		if _, ok, checkErr := headers.Check(); checkErr != nil {
			headers.Close()
			return nil, fmt.Errorf("store: headers: check: %w", checkErr)
		} else if !ok {
			opts.Log.Warn().Msg("corruption detected in header store, healing")
			if err := headers.Heal(); err != nil {
				headers.Close()
				return nil, fmt.Errorf("store: headers: heal: %w", err)
			}
		}
	}
	if _, err := headers.LoadWith(func(h uint32) {
		publish(loading.BlockHeaderLoaded{Height: h})
	}); err != nil {
		headers.Close()
		return nil, fmt.Errorf("store: headers: load: %w", err)
	}

	filterGenesis := FilterHeaderRecord{} // all-zero genesis filter header, by convention
	filtersPath := filepath.Join(opts.Dir, "filters.db")
	filters, created, err := CreateOrOpen(filtersPath, filterGenesis, DecodeFilterHeaderRecord)
	if err != nil {
		headers.Close()
		return nil, fmt.Errorf("store: filters: %w", err)
	}
	if created {
		opts.Log.Info().Str("path", filtersPath).Msg("initialized new filter header store")
	} else {
		opts.Log.Info().Str("path", filtersPath).Msg("found existing filter header store")
		if _, ok, checkErr := filters.Check(); checkErr != nil {
			headers.Close()
			filters.Close()
			return nil, fmt.Errorf("store: filters: check: %w", checkErr)
		} else if !ok {
			opts.Log.Warn().Msg("corruption detected in filter store, healing")
			if err := filters.Heal(); err != nil {
				headers.Close()
				filters.Close()
				return nil, fmt.Errorf("store: filters: heal: %w", err)
			}
		}
	}
	if _, err := filters.LoadWith(func(h uint32) {
		publish(loading.FilterHeaderLoaded{Height: h})
	}); err != nil {
		headers.Close()
		filters.Close()
		return nil, fmt.Errorf("store: filters: load: %w", err)
	}
	// A second pass re-verifies every filter header against its chained
	// predecessor, reporting progress separately from the load pass (spec
	// §4.B: "loads and then runs a verify pass").
	tip, err := filters.Height()
	if err != nil {
		headers.Close()
		filters.Close()
		return nil, fmt.Errorf("store: filters: height: %w", err)
	}
	for h := uint32(0); h <= tip; h++ {
		if h > 0 {
			cur, curErr := filters.Get(h)
			prev, prevErr := filters.Get(h - 1)
			if curErr != nil || prevErr != nil || cur.PrevHash() != prev.SelfHash() {
				headers.Close()
				filters.Close()
				return nil, fmt.Errorf("store: filters: verify failed at height %d", h)
			}
		}
		publish(loading.FilterHeaderVerified{Height: h})
	}

	peersPath := filepath.Join(opts.Dir, "peers.json")
	peers, created, err := peer.CreateOrOpen(peersPath)
	if err != nil {
		headers.Close()
		filters.Close()
		return nil, fmt.Errorf("store: peers: %w", err)
	}
	if created {
		opts.Log.Info().Str("path", peersPath).Msg("initialized new peer address cache")
	} else {
		cfPeers := peers.CountWithServices(opts.Network.CompactFilterService)
		opts.Log.Info().
			Int("peers", peers.Len()).
			Int("compact_filter_peers", cfPeers).
			Msg("found existing peer cache")
	}

	if len(opts.ExplicitPeers) == 0 && peers.IsEmpty() {
		opts.Log.Info().Msg("address book is empty, trying DNS seeds")
		if err := peers.Seed(opts.Network.DNSSeeds, opts.Network.DefaultPort, "dns", nil); err != nil {
			headers.Close()
			filters.Close()
			return nil, fmt.Errorf("store: peers: dns seed: %w", err)
		}
		if err := peers.Flush(); err != nil {
			headers.Close()
			filters.Close()
			return nil, fmt.Errorf("store: peers: flush: %w", err)
		}
		opts.Log.Info().Int("seeds", peers.Len()).Msg("seeds added to address book")
	}

	return &Bootstrap{Headers: headers, Filters: filters, Peers: peers}, nil
}

// Close releases the header and filter-header store handles. The peer
// cache has no open file handle to release (it is flushed eagerly).
func (b *Bootstrap) Close() error {
	var err error
	if e := b.Headers.Close(); e != nil {
		err = e
	}
	if e := b.Filters.Close(); e != nil {
		err = e
	}
	return err
}
