// Package storetest provides fast test doubles and fixtures for the
// store package. Never import this from production code. Adapted from
// the teacher's internal/testutil/memdb.go (in-memory doubles, a
// NewMemDB-style constructor per type under test) but built around
// goleveldb's real on-disk format: store.Journal has no interface seam
// to fake in-memory, so the fixture here uses a throwaway temp
// directory instead, which is still fast enough for unit tests and
// exercises the real Check/Heal code paths rather than a reimplementation
// of them.
package storetest

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/tolelom/spvnode/store"
)

// NewHeaderJournal creates a HeaderRecord Journal in a temp directory
// seeded with genesis, closing and removing it automatically at the end
// of the test.
func NewHeaderJournal(t testing.TB, genesis wire.BlockHeader) *store.Journal[store.HeaderRecord] {
	t.Helper()
	dir := t.TempDir()
	j, _, err := store.CreateOrOpen(dir+"/headers.db", store.HeaderRecord{Header: genesis}, store.DecodeHeaderRecord)
	if err != nil {
		t.Fatalf("storetest: create header journal: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })
	return j
}

// NewFilterJournal creates a FilterHeaderRecord Journal in a temp
// directory seeded with the all-zero genesis filter header.
func NewFilterJournal(t testing.TB) *store.Journal[store.FilterHeaderRecord] {
	t.Helper()
	dir := t.TempDir()
	j, _, err := store.CreateOrOpen(dir+"/filters.db", store.FilterHeaderRecord{}, store.DecodeFilterHeaderRecord)
	if err != nil {
		t.Fatalf("storetest: create filter journal: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })
	return j
}

// HeaderChain builds n headers chained by PrevBlock onto genesis, each
// with a distinct Nonce so their hashes differ, for tests that need a
// populated header store.
func HeaderChain(genesis wire.BlockHeader, n int) []wire.BlockHeader {
	headers := make([]wire.BlockHeader, 0, n)
	prev := genesis
	for i := 0; i < n; i++ {
		h := wire.BlockHeader{
			Version:    prev.Version,
			PrevBlock:  prev.BlockHash(),
			MerkleRoot: chainhash.Hash{},
			Timestamp:  prev.Timestamp,
			Bits:       prev.Bits,
			Nonce:      prev.Nonce + uint32(i) + 1,
		}
		headers = append(headers, h)
		prev = h
	}
	return headers
}

// FilterHeaderChain builds n filter headers chained onto an all-zero
// genesis, with FilterHash distinguishing each height so they decode to
// distinct records.
func FilterHeaderChain(n int) []store.FilterHeaderRecord {
	records := make([]store.FilterHeaderRecord, 0, n)
	var prev [32]byte
	for i := 0; i < n; i++ {
		var r store.FilterHeaderRecord
		r.FilterHash[0] = byte(i + 1)
		r.Prev = prev
		r.FilterHeader = [32]byte(chainhash.DoubleHashH(append(r.FilterHash[:], r.Prev[:]...)))
		records = append(records, r)
		prev = r.FilterHeader
	}
	return records
}
