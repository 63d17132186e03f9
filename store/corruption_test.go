package store

import (
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// These tests reach into the unexported append/setTip helpers to forge a
// broken PrevHash chain directly, since the public Append always validates
// linkage and can never produce one itself.

func TestJournalCheckDetectsBrokenLinkage(t *testing.T) {
	genesis := wire.BlockHeader{Version: 1, Bits: 0x207fffff, Nonce: 1}
	path := filepath.Join(t.TempDir(), "headers.db")
	j, _, err := CreateOrOpen(path, HeaderRecord{Header: genesis}, DecodeHeaderRecord)
	if err != nil {
		t.Fatalf("CreateOrOpen: %v", err)
	}
	defer j.Close()

	valid := wire.BlockHeader{Version: 1, PrevBlock: genesis.BlockHash(), Bits: 0x207fffff, Nonce: 2}
	if err := j.Append(1, HeaderRecord{Header: valid}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	// Forge a height-2 record that does not link to height 1, bypassing
	// Append's own linkage check.
	forged := wire.BlockHeader{Version: 1, PrevBlock: chainhash.Hash{0xEE}, Bits: 0x207fffff, Nonce: 3}
	if err := j.append(2, HeaderRecord{Header: forged}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := j.setTip(2); err != nil {
		t.Fatalf("setTip: %v", err)
	}

	brokenAt, ok, err := j.Check()
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if ok {
		t.Fatal("expected Check to detect the forged broken linkage")
	}
	if brokenAt != 2 {
		t.Fatalf("got brokenAt %d, want 2", brokenAt)
	}
}

func TestJournalHealRollsBackPastCorruption(t *testing.T) {
	genesis := wire.BlockHeader{Version: 1, Bits: 0x207fffff, Nonce: 1}
	path := filepath.Join(t.TempDir(), "headers.db")
	j, _, err := CreateOrOpen(path, HeaderRecord{Header: genesis}, DecodeHeaderRecord)
	if err != nil {
		t.Fatalf("CreateOrOpen: %v", err)
	}
	defer j.Close()

	valid := wire.BlockHeader{Version: 1, PrevBlock: genesis.BlockHash(), Bits: 0x207fffff, Nonce: 2}
	if err := j.Append(1, HeaderRecord{Header: valid}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	forged := wire.BlockHeader{Version: 1, PrevBlock: chainhash.Hash{0xEE}, Bits: 0x207fffff, Nonce: 3}
	if err := j.append(2, HeaderRecord{Header: forged}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := j.setTip(2); err != nil {
		t.Fatalf("setTip: %v", err)
	}

	if err := j.Heal(); err != nil {
		t.Fatalf("Heal: %v", err)
	}
	height, err := j.Height()
	if err != nil {
		t.Fatalf("Height: %v", err)
	}
	if height != 1 {
		t.Fatalf("got tip %d after heal, want 1 (roll back past the forged height 2 record)", height)
	}
	if _, ok, err := j.Check(); err != nil || !ok {
		t.Fatalf("Check after heal: ok=%v err=%v, want ok=true", ok, err)
	}
}
