// Package store implements the three-way store bootstrap of spec §4.B:
// create-exclusive, fall back to opening an existing file, integrity-check
// it, and heal (roll back to the last internally consistent record) on
// corruption. Journal is a generic, height-indexed, goleveldb-backed
// append-only log used for both the header store and the filter-header
// store — the teacher duplicated this open/check/heal dance twice
// (cmd/node/main.go, once per store); here it is written once and
// parameterized over the record type.
package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/syndtr/goleveldb/leveldb"
)

// Record is one entry in a Journal: something height-indexed and
// chain-linked to its predecessor, so Check can walk the chain backwards.
type Record interface {
	SelfHash() [32]byte
	PrevHash() [32]byte
	Encode() ([]byte, error)
}

var tipKey = []byte("tip")

func heightKey(h uint32) []byte {
	var b [9]byte
	b[0] = 'h'
	binary.BigEndian.PutUint32(b[1:5], h)
	return b[:5]
}

// Journal is a generic append-only, height-indexed record log.
type Journal[R Record] struct {
	db     *leveldb.DB
	decode func([]byte) (R, error)
	path   string
}

// CreateOrOpen performs the three-way open of spec §4.B: try
// create-exclusive at path seeded with genesis; if the path already
// exists, open it read-write instead. The second return value reports
// whether a fresh store was created.
func CreateOrOpen[R Record](path string, genesis R, decode func([]byte) (R, error)) (*Journal[R], bool, error) {
	_, statErr := os.Stat(path)
	existed := statErr == nil

	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, false, fmt.Errorf("store: open %s: %w", path, err)
	}
	j := &Journal[R]{db: db, decode: decode, path: path}

	if existed {
		return j, false, nil
	}
	if err := j.append(0, genesis); err != nil {
		db.Close()
		return nil, false, fmt.Errorf("store: seed genesis at %s: %w", path, err)
	}
	if err := j.setTip(0); err != nil {
		db.Close()
		return nil, false, fmt.Errorf("store: set genesis tip at %s: %w", path, err)
	}
	return j, true, nil
}

func (j *Journal[R]) append(height uint32, rec R) error {
	data, err := rec.Encode()
	if err != nil {
		return err
	}
	return j.db.Put(heightKey(height), data, nil)
}

func (j *Journal[R]) setTip(height uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], height)
	return j.db.Put(tipKey, b[:], nil)
}

// Height returns the journal's current tip height.
func (j *Journal[R]) Height() (uint32, error) {
	data, err := j.db.Get(tipKey, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("store: read tip: %w", err)
	}
	return binary.BigEndian.Uint32(data), nil
}

// Append adds a new record at height, which must be exactly one past the
// current tip, and advances the tip.
func (j *Journal[R]) Append(height uint32, rec R) error {
	tip, err := j.Height()
	if err != nil {
		return err
	}
	if height != tip+1 {
		return fmt.Errorf("store: append height %d does not follow tip %d", height, tip)
	}
	prev, err := j.Get(tip)
	if err != nil {
		return err
	}
	if rec.PrevHash() != prev.SelfHash() {
		return fmt.Errorf("store: record at height %d does not link to tip", height)
	}
	if err := j.append(height, rec); err != nil {
		return err
	}
	return j.setTip(height)
}

// Get returns the record stored at height.
func (j *Journal[R]) Get(height uint32) (R, error) {
	var zero R
	data, err := j.db.Get(heightKey(height), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return zero, fmt.Errorf("store: no record at height %d", height)
	}
	if err != nil {
		return zero, fmt.Errorf("store: read height %d: %w", height, err)
	}
	return j.decode(data)
}

// LoadWith replays every record from height 0 to the tip, invoking
// progress for each height visited, the way the teacher's BlockCache
// reports per-record load progress. Returns the tip height.
func (j *Journal[R]) LoadWith(progress func(height uint32)) (uint32, error) {
	tip, err := j.Height()
	if err != nil {
		return 0, err
	}
	for h := uint32(0); h <= tip; h++ {
		if _, err := j.Get(h); err != nil {
			return 0, fmt.Errorf("store: load height %d: %w", h, err)
		}
		if progress != nil {
			progress(h)
		}
	}
	return tip, nil
}

// Check verifies the PrevHash chain from the tip back to height 0. It
// returns the first broken height found, or ok=true if the whole chain is
// internally consistent.
func (j *Journal[R]) Check() (brokenAt uint32, ok bool, err error) {
	tip, err := j.Height()
	if err != nil {
		return 0, false, err
	}
	if tip == 0 {
		return 0, true, nil
	}
	cur, err := j.Get(tip)
	if err != nil {
		return tip, false, nil
	}
	for h := tip; h > 0; h-- {
		prev, err := j.Get(h - 1)
		if err != nil {
			return h - 1, false, nil
		}
		if cur.PrevHash() != prev.SelfHash() {
			return h, false, nil
		}
		cur = prev
	}
	return 0, true, nil
}

// Heal rolls the journal's tip back to the last record whose PrevHash
// chain verifies, per spec §4.B ("roll back to the last internally
// consistent record, possibly the genesis"). It never deletes records,
// only moves the tip pointer backwards.
func (j *Journal[R]) Heal() error {
	for {
		brokenAt, ok, err := j.Check()
		if err != nil {
			return fmt.Errorf("store: heal: %w", err)
		}
		if ok {
			return nil
		}
		rollback := brokenAt
		if rollback > 0 {
			rollback--
		}
		if err := j.setTip(rollback); err != nil {
			return fmt.Errorf("store: heal: reset tip: %w", err)
		}
	}
}

// Close releases the underlying goleveldb handle.
func (j *Journal[R]) Close() error {
	return j.db.Close()
}
