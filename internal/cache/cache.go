// Package cache persists a finished pack.Table to disk, keyed by a content
// hash of the preprocessed grammar it was built from, so a second run over
// an unchanged grammar file can reuse the packed table instead of packing
// again. The automaton itself is not cached and is still rebuilt on every
// run. The on-disk format is this package's own
// (see Entry.MarshalBinary), framed at the file boundary with rezi the same
// way the teacher's dao/sqlite layer frames a hand-marshaled game state
// before writing it to a blob column.
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/dekarrin/rezi"

	"github.com/dekarrin/golemon/internal/pack"
)

// Hash returns the content hash of a preprocessed grammar source: a run with
// identical source (after comments/conditionals are resolved), the same
// compression setting, and an unchanged golemon version always produces the
// same packed table. The caller (golemon's Build) adds the compression
// setting to this hash to form the cache key.
func Hash(preprocessedSrc string) string {
	sum := sha256.Sum256([]byte(preprocessedSrc))
	return fmt.Sprintf("%x", sum)
}

// Entry is one cached build result.
type Entry struct {
	Hash  string
	Table pack.Table
}

// Load reads and validates a cache file at path, returning ok=false (with no
// error) if the file doesn't exist or its hash no longer matches wantHash,
// either of which just means the caller should rebuild normally.
func Load(path, wantHash string) (table *pack.Table, ok bool, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read cache file: %w", err)
	}

	var e Entry
	if _, err := rezi.DecBinary(raw, &e); err != nil {
		return nil, false, nil // corrupt or foreign-format cache: treat as a miss
	}
	if e.Hash != wantHash {
		return nil, false, nil
	}
	return &e.Table, true, nil
}

// Save writes table to path under key hash, overwriting any existing cache.
func Save(path, hash string, table *pack.Table) error {
	e := Entry{Hash: hash, Table: *table}
	data := rezi.EncBinary(e)
	return os.WriteFile(path, data, 0644)
}

// MarshalBinary implements encoding.BinaryMarshaler over Entry's own simple
// length-prefixed layout: the hash string, then the packed table's two
// scalar counts and six integer arrays, each array preceded by its element
// count. Every integer is varint-encoded (zigzag, via encoding/binary) since
// the table's action codes are routinely negative (noAction, errAction,
// accAction).
func (e Entry) MarshalBinary() ([]byte, error) {
	var buf []byte
	buf = appendString(buf, e.Hash)
	buf = appendVarint(buf, int64(e.Table.NState))
	buf = appendVarint(buf, int64(e.Table.NRule))
	buf = appendInts(buf, e.Table.YYAction)
	buf = appendInts(buf, e.Table.YYLookahead)
	buf = appendInts(buf, e.Table.ShiftOfst)
	buf = appendInts(buf, e.Table.Default)
	buf = appendInts(buf, e.Table.GotoOfst)
	buf = appendInts(buf, e.Table.Fallback)
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler, the exact inverse
// of MarshalBinary.
func (e *Entry) UnmarshalBinary(data []byte) error {
	var pos int
	var err error

	if e.Hash, pos, err = readString(data, pos); err != nil {
		return err
	}
	var nState, nRule int64
	if nState, pos, err = readVarint(data, pos); err != nil {
		return err
	}
	if nRule, pos, err = readVarint(data, pos); err != nil {
		return err
	}
	e.Table.NState = int(nState)
	e.Table.NRule = int(nRule)

	if e.Table.YYAction, pos, err = readInts(data, pos); err != nil {
		return err
	}
	if e.Table.YYLookahead, pos, err = readInts(data, pos); err != nil {
		return err
	}
	if e.Table.ShiftOfst, pos, err = readInts(data, pos); err != nil {
		return err
	}
	if e.Table.Default, pos, err = readInts(data, pos); err != nil {
		return err
	}
	if e.Table.GotoOfst, pos, err = readInts(data, pos); err != nil {
		return err
	}
	if e.Table.Fallback, _, err = readInts(data, pos); err != nil {
		return err
	}
	return nil
}

func appendVarint(buf []byte, v int64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutVarint(tmp[:], v)
	return append(buf, tmp[:n]...)
}

func appendString(buf []byte, s string) []byte {
	buf = appendVarint(buf, int64(len(s)))
	return append(buf, s...)
}

func appendInts(buf []byte, vals []int) []byte {
	buf = appendVarint(buf, int64(len(vals)))
	for _, v := range vals {
		buf = appendVarint(buf, int64(v))
	}
	return buf
}

func readVarint(data []byte, pos int) (int64, int, error) {
	v, n := binary.Varint(data[pos:])
	if n <= 0 {
		return 0, pos, fmt.Errorf("cache: truncated varint at offset %d", pos)
	}
	return v, pos + n, nil
}

func readString(data []byte, pos int) (string, int, error) {
	length, pos, err := readVarint(data, pos)
	if err != nil {
		return "", pos, err
	}
	end := pos + int(length)
	if end > len(data) {
		return "", pos, fmt.Errorf("cache: truncated string at offset %d", pos)
	}
	return string(data[pos:end]), end, nil
}

func readInts(data []byte, pos int) ([]int, int, error) {
	count, pos, err := readVarint(data, pos)
	if err != nil {
		return nil, pos, err
	}
	if count == 0 {
		return nil, pos, nil
	}
	out := make([]int, count)
	for i := range out {
		var v int64
		if v, pos, err = readVarint(data, pos); err != nil {
			return nil, pos, err
		}
		out[i] = int(v)
	}
	return out, pos, nil
}
