// Command spvnode starts a standalone SPV light client.
package main

import (
	"flag"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/tolelom/spvnode/chainparams"
	"github.com/tolelom/spvnode/client"
	"github.com/tolelom/spvnode/protocol"
	"github.com/tolelom/spvnode/store"
	"github.com/tolelom/spvnode/utxos"
)

func main() {
	network := flag.String("network", "mainnet", "network to connect to (mainnet, testnet3, regtest)")
	root := flag.String("root", "", "data root directory (default: user home)")
	listen := flag.String("listen", "", "comma-separated addresses to listen on")
	connect := flag.String("connect", "", "comma-separated explicit peer addresses, bypassing discovery")
	trackUTXOs := flag.Bool("track-utxos", false, "run the optional UTXO tracker against the client event bus")
	debug := flag.Bool("debug", false, "enable debug-level logging")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	params, ok := chainparams.ByName(*network)
	if !ok {
		log.Fatal().Str("network", *network).Msg("unknown network")
	}

	cfg := client.DefaultConfig(params)
	cfg.Root = *root
	cfg.Listen = splitNonEmpty(*listen)
	cfg.Connect = splitNonEmpty(*connect)
	cfg.NewService = func(boot *store.Bootstrap, cfg client.Config) (protocol.Service, error) {
		// No bundled wire-protocol implementation ships in this module; a
		// production deployment supplies its own protocol.Service built on
		// the btcd wire codec and a real peer pool. The stub below is only
		// sufficient to bring the reactor up and serve Handle reads.
		return protocol.NewStub(cfg.Network.GenesisHeader), nil
	}

	c, err := client.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("construct client")
	}
	defer c.Close()

	var g errgroup.Group

	if *trackUTXOs {
		tracker := utxos.New(func(pkScript []byte) bool { return false }, log.Logger)
		sub := c.Handle().Events()
		g.Go(func() error {
			tracker.Run(sub)
			return nil
		})
	}

	g.Go(func() error {
		return c.RunUntilSignal()
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("client exited with error")
	}
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}
