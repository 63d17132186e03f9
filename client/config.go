package client

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/wire"

	"github.com/tolelom/spvnode/chainparams"
	"github.com/tolelom/spvnode/protocol"
	"github.com/tolelom/spvnode/store"
)

// ServiceFactory builds the protocol.Service that will drive the reactor,
// given the stores Bootstrap opened. Production callers supply one backed
// by a real wire codec and peer pool; tests can return protocol.NewStub.
type ServiceFactory func(boot *store.Bootstrap, cfg Config) (protocol.Service, error)

// Config is everything needed to bring a Client up, generalized from the
// teacher's config.Config (JSON load/save/validate shape) onto the data
// model of spec §3/§4.
type Config struct {
	Network   *chainparams.Params
	Domains   []protocol.Domain // nil → protocol.AllDomains()
	Connect   []string          // explicit peers; bypasses discovery when non-empty
	Listen    []string
	Root      string // data root; "" → os.UserHomeDir()
	UserAgent string
	Services  wire.ServiceFlag
	Limits    protocol.Limits
	Hooks     protocol.Hooks

	NewService ServiceFactory
}

// DefaultConfig returns a Config for network with conservative defaults,
// mirroring the teacher's DefaultConfig().
func DefaultConfig(network *chainparams.Params) Config {
	return Config{
		Network:   network,
		Domains:   protocol.AllDomains(),
		UserAgent: "/spvnode:0.1.0/",
		Limits:    protocol.DefaultLimits(),
	}
}

// Validate checks that all required fields are present and well-formed,
// matching the teacher's Config.Validate idiom.
func (c Config) Validate() error {
	if c.Network == nil {
		return fmt.Errorf("network must not be nil")
	}
	if c.NewService == nil {
		return fmt.Errorf("new_service factory must not be nil")
	}
	return nil
}

// dataDir returns the per-network data directory, {root}/.nakamoto/{network}
// (spec §6), falling back to the user's home directory when Root is unset.
func (c Config) dataDir() (string, error) {
	root := c.Root
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = ""
		}
		root = home
	}
	return filepath.Join(root, ".nakamoto", c.Network.Name), nil
}

// domains returns Domains, defaulting to every known domain.
func (c Config) domains() []protocol.Domain {
	if len(c.Domains) == 0 {
		return protocol.AllDomains()
	}
	return c.Domains
}
