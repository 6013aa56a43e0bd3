// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

// Package spill indexes (element, value) pairs by record GUID, in memory or in an
// on-disk bbolt database when the pair table does not fit in memory.
package spill

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"
)

// ErrClosed is returned by operations on a closed index.
var ErrClosed = errors.New("spill: index closed")

// Pair is one long-format attribute row.
type Pair struct {
	Element string `msgpack:"e"`
	Value   string `msgpack:"v"`
}

// Index stores pairs per GUID and returns them in insertion order.
type Index interface {
	Add(guid string, p Pair) error
	Lookup(guid string) ([]Pair, error)
	Len() int
	Close() error
}

// Memory is an in-memory Index.
type Memory struct {
	pairs map[string][]Pair
	n     int
}

// NewMemory creates an empty in-memory index.
func NewMemory() *Memory {
	return &Memory{pairs: make(map[string][]Pair)}
}

func (m *Memory) Add(guid string, p Pair) error {
	if m.pairs == nil {
		return ErrClosed
	}
	m.pairs[guid] = append(m.pairs[guid], p)
	m.n++
	return nil
}

func (m *Memory) Lookup(guid string) ([]Pair, error) {
	if m.pairs == nil {
		return nil, ErrClosed
	}
	return m.pairs[guid], nil
}

func (m *Memory) Len() int {
	return m.n
}

func (m *Memory) Close() error {
	m.pairs = nil
	return nil
}

var bucketName = []byte("pairs")

const (
	batchSize = 10000
	keySep    = 0x00
)

// Bolt is an Index spilled to a temporary bbolt database.
// Keys are guid, a zero byte and a big-endian sequence number so that a prefix scan
// returns one GUID's pairs in insertion order.
type Bolt struct {
	db      *bbolt.DB
	path    string
	seq     uint64
	pending []entry
}

type entry struct {
	key   []byte
	value []byte
}

// OpenBolt creates a spill database in dir. The file is removed on Close.
func OpenBolt(dir string) (*Bolt, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}
	f, err := os.CreateTemp(dir, "xmlgen-spill-*.db")
	if err != nil {
		return nil, err
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second, NoSync: true})
	if err != nil {
		os.Remove(path) //nolint:errcheck
		return nil, fmt.Errorf("opening spill index %s: %w", filepath.Base(path), err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()      //nolint:errcheck
		os.Remove(path) //nolint:errcheck
		return nil, err
	}
	return &Bolt{db: db, path: path}, nil
}

// Path returns the database file path.
func (b *Bolt) Path() string {
	return b.path
}

func (b *Bolt) Add(guid string, p Pair) error {
	if b.db == nil {
		return ErrClosed
	}
	value, err := msgpack.Marshal(&p)
	if err != nil {
		return err
	}
	b.seq++
	b.pending = append(b.pending, entry{key: pairKey(guid, b.seq), value: value})
	if len(b.pending) >= batchSize {
		return b.flush()
	}
	return nil
}

func (b *Bolt) Lookup(guid string) ([]Pair, error) {
	if b.db == nil {
		return nil, ErrClosed
	}
	if err := b.flush(); err != nil {
		return nil, err
	}
	prefix := append([]byte(guid), keySep)
	var pairs []Pair
	err := b.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketName).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var p Pair
			if err := msgpack.Unmarshal(v, &p); err != nil {
				return fmt.Errorf("decoding pair %q: %w", k, err)
			}
			pairs = append(pairs, p)
		}
		return nil
	})
	return pairs, err
}

func (b *Bolt) Len() int {
	return int(b.seq)
}

// Close closes and removes the database.
func (b *Bolt) Close() error {
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	b.pending = nil
	if rmErr := os.Remove(b.path); rmErr != nil && err == nil {
		err = rmErr
	}
	return err
}

func (b *Bolt) flush() error {
	if len(b.pending) == 0 {
		return nil
	}
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketName)
		for _, e := range b.pending {
			if err := bucket.Put(e.key, e.value); err != nil {
				return err
			}
		}
		return nil
	})
	b.pending = b.pending[:0]
	return err
}

func pairKey(guid string, seq uint64) []byte {
	key := make([]byte, 0, len(guid)+9)
	key = append(key, guid...)
	key = append(key, keySep)
	return binary.BigEndian.AppendUint64(key, seq)
}
