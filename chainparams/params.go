// Package chainparams identifies the Bitcoin network a node talks to:
// genesis header, checkpoints, default port, and DNS seeds.
package chainparams

import (
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// Checkpoint pins a known-good header at a given height, the way full
// chaincfg.Params do. CheckpointAt looks one up; the store package does
// not consult checkpoints when checking or healing a journal.
type Checkpoint struct {
	Height uint32
	Hash   chainhash.Hash
}

// Params describes one Bitcoin network.
type Params struct {
	Name string
	Net  wire.BitcoinNet

	GenesisHeader wire.BlockHeader
	GenesisHash   chainhash.Hash

	DefaultPort string
	DNSSeeds    []string

	// CompactFilterService is the service bit peers must advertise to be
	// usable as a compact-filter source.
	CompactFilterService wire.ServiceFlag

	Checkpoints []Checkpoint
}

// CheckpointAt returns the checkpoint hash for height, if one is pinned.
func (p *Params) CheckpointAt(height uint32) (chainhash.Hash, bool) {
	for _, c := range p.Checkpoints {
		if c.Height == height {
			return c.Hash, true
		}
	}
	return chainhash.Hash{}, false
}

// MainNet returns the parameters for the main Bitcoin network.
func MainNet() *Params {
	genesis := wire.BlockHeader{
		Version:    1,
		PrevBlock:  chainhash.Hash{},
		MerkleRoot: genesisMerkleRoot,
		Timestamp:  time.Unix(1231006505, 0),
		Bits:       0x1d00ffff,
		Nonce:      2083236893,
	}
	return &Params{
		Name:          "mainnet",
		Net:           wire.MainNet,
		GenesisHeader: genesis,
		GenesisHash:   genesis.BlockHash(),
		DefaultPort:   "8333",
		DNSSeeds: []string{
			"seed.bitcoin.sipa.be",
			"dnsseed.bluematt.me",
			"dnsseed.bitcoin.dashjr.org",
			"seed.bitcoinstats.com",
			"seed.btc.petertodd.org",
		},
		CompactFilterService: wire.SFNodeCF,
		Checkpoints: []Checkpoint{
			{Height: 0, Hash: genesis.BlockHash()},
		},
	}
}

// TestNet3 returns the parameters for the legacy Bitcoin test network.
func TestNet3() *Params {
	genesis := wire.BlockHeader{
		Version:    1,
		PrevBlock:  chainhash.Hash{},
		MerkleRoot: genesisMerkleRoot,
		Timestamp:  time.Unix(1296688602, 0),
		Bits:       0x1d00ffff,
		Nonce:      414098458,
	}
	return &Params{
		Name:          "testnet3",
		Net:           wire.TestNet3,
		GenesisHeader: genesis,
		GenesisHash:   genesis.BlockHash(),
		DefaultPort:   "18333",
		DNSSeeds: []string{
			"testnet-seed.bitcoin.jonasschnelli.ch",
			"seed.tbtc.petertodd.org",
		},
		CompactFilterService: wire.SFNodeCF,
		Checkpoints: []Checkpoint{
			{Height: 0, Hash: genesis.BlockHash()},
		},
	}
}

// Regtest returns parameters for a private regression-test network.
func Regtest() *Params {
	genesis := wire.BlockHeader{
		Version:    1,
		PrevBlock:  chainhash.Hash{},
		MerkleRoot: genesisMerkleRoot,
		Timestamp:  time.Unix(1296688602, 0),
		Bits:       0x207fffff,
		Nonce:      2,
	}
	return &Params{
		Name:          "regtest",
		Net:           wire.TestNet,
		GenesisHeader: genesis,
		GenesisHash:   genesis.BlockHash(),
		DefaultPort:   "18444",
		DNSSeeds:      nil,
		CompactFilterService: wire.SFNodeCF,
		Checkpoints: []Checkpoint{
			{Height: 0, Hash: genesis.BlockHash()},
		},
	}
}

// genesisMerkleRoot is the well-known coinbase-only merkle root shared by
// mainnet, testnet3, and regtest genesis blocks.
var genesisMerkleRoot = chainhash.Hash{
	0x3b, 0xa3, 0xed, 0xfd, 0x7a, 0x7b, 0x12, 0xb2,
	0x7a, 0xc7, 0x2c, 0x3e, 0x67, 0x76, 0x8f, 0x61,
	0x7f, 0xc8, 0x1b, 0xc3, 0x88, 0x8a, 0x51, 0x32,
	0x3a, 0x9f, 0xb8, 0xaa, 0x4b, 0x1e, 0x5e, 0x4a,
}

// ByName resolves a network by its string identifier, as read from Config.
func ByName(name string) (*Params, bool) {
	switch name {
	case "mainnet":
		return MainNet(), true
	case "testnet3":
		return TestNet3(), true
	case "regtest":
		return Regtest(), true
	default:
		return nil, false
	}
}
