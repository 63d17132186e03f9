package store

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/wire"
)

// HeaderRecord is a Journal[HeaderRecord] entry: one block header.
type HeaderRecord struct {
	Header wire.BlockHeader
}

func (r HeaderRecord) SelfHash() [32]byte { return r.Header.BlockHash() }
func (r HeaderRecord) PrevHash() [32]byte { return r.Header.PrevBlock }

func (r HeaderRecord) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Header.Serialize(&buf); err != nil {
		return nil, fmt.Errorf("header record encode: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeHeaderRecord decodes a HeaderRecord previously written by Encode.
func DecodeHeaderRecord(data []byte) (HeaderRecord, error) {
	var h wire.BlockHeader
	if err := h.Deserialize(bytes.NewReader(data)); err != nil {
		return HeaderRecord{}, fmt.Errorf("header record decode: %w", err)
	}
	return HeaderRecord{Header: h}, nil
}

// FilterHeaderRecord is a Journal[FilterHeaderRecord] entry: one compact
// filter header, chained to the previous filter header the way BIP 157/158
// define (FilterHeader = SHA256d(filterHash || prevFilterHeader)).
type FilterHeaderRecord struct {
	FilterHash   [32]byte // hash of the raw filter content at this height
	FilterHeader [32]byte // chained header committing to FilterHash and the previous header
	Prev         [32]byte
}

func (r FilterHeaderRecord) SelfHash() [32]byte { return r.FilterHeader }
func (r FilterHeaderRecord) PrevHash() [32]byte { return r.Prev }

func (r FilterHeaderRecord) Encode() ([]byte, error) {
	buf := make([]byte, 0, 96)
	buf = append(buf, r.FilterHash[:]...)
	buf = append(buf, r.FilterHeader[:]...)
	buf = append(buf, r.Prev[:]...)
	return buf, nil
}

// DecodeFilterHeaderRecord decodes a FilterHeaderRecord previously written
// by Encode.
func DecodeFilterHeaderRecord(data []byte) (FilterHeaderRecord, error) {
	if len(data) != 96 {
		return FilterHeaderRecord{}, fmt.Errorf("filter header record decode: want 96 bytes, got %d", len(data))
	}
	var r FilterHeaderRecord
	copy(r.FilterHash[:], data[0:32])
	copy(r.FilterHeader[:], data[32:64])
	copy(r.Prev[:], data[64:96])
	return r, nil
}
