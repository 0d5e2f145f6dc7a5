// Package slicestore keeps encoded hit slices in a Badger key-value store, keyed by
// run id and window start.
package slicestore

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/TomTonic/hitgen/slicefile"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// ErrNotFound is returned by Get when no slice is stored under the key.
var ErrNotFound = errors.New("slicestore: slice not found")

// Options configures Open.
type Options struct {
	// Dir is the database directory. Ignored when InMemory is set.
	Dir string
	// InMemory keeps everything in RAM; data is lost on Close.
	InMemory bool
	// Logger receives Badger's own messages. Nil silences them.
	Logger badger.Logger
}

// Store is a Badger-backed slice store. It is safe for concurrent use.
type Store struct {
	db *badger.DB
}

// Open opens or creates the store.
func Open(opts Options) (*Store, error) {
	badgerOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		badgerOpts = badgerOpts.WithInMemory(true).WithDir("").WithValueDir("")
	}
	badgerOpts = badgerOpts.WithLogger(opts.Logger)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open slice store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// key layout: "run/" + 16 byte run id + "/" + big-endian start with the sign bit
// flipped, so keys of one run sort by start time.
const runPrefix = "run/"

func runKeyPrefix(runID uuid.UUID) []byte {
	k := make([]byte, 0, len(runPrefix)+17+8)
	k = append(k, runPrefix...)
	k = append(k, runID[:]...)
	return append(k, '/')
}

func sliceKey(runID uuid.UUID, start int64) []byte {
	return binary.BigEndian.AppendUint64(runKeyPrefix(runID), uint64(start)^1<<63)
}

func startFromKey(key []byte) int64 {
	return int64(binary.BigEndian.Uint64(key[len(key)-8:]) ^ 1<<63)
}

// Put stores f under (f.RunID, f.Start), replacing any previous slice.
func (s *Store) Put(f *slicefile.Frame) error {
	data, err := slicefile.Marshal(f)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(sliceKey(f.RunID, f.Start), data)
	})
}

// Get returns the slice of run runID starting at start.
func (s *Store) Get(runID uuid.UUID, start int64) (*slicefile.Frame, error) {
	var f *slicefile.Frame
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sliceKey(runID, start))
		if err == badger.ErrKeyNotFound {
			return fmt.Errorf("run %s start %d: %w", runID, start, ErrNotFound)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			f, err = slicefile.Unmarshal(val)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// List returns the window starts stored for runID in ascending order.
func (s *Store) List(runID uuid.UUID) ([]int64, error) {
	var starts []int64
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = runKeyPrefix(runID)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			starts = append(starts, startFromKey(it.Item().Key()))
		}
		return nil
	})
	return starts, err
}

// Runs returns the ids of all runs in the store.
func (s *Store) Runs() ([]uuid.UUID, error) {
	var runs []uuid.UUID
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(runPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); {
			key := it.Item().Key()
			id, err := uuid.FromBytes(key[len(runPrefix) : len(runPrefix)+16])
			if err != nil {
				return err
			}
			runs = append(runs, id)
			// '0' follows '/', so this skips the remaining slices of the run
			next := runKeyPrefix(id)
			next[len(next)-1] = '0'
			it.Seek(next)
		}
		return nil
	})
	return runs, err
}

// Delete removes every slice of runID and returns how many were removed.
func (s *Store) Delete(runID uuid.UUID) (int, error) {
	starts, err := s.List(runID)
	if err != nil {
		return 0, err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		for _, start := range starts {
			if err := txn.Delete(sliceKey(runID, start)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(starts), nil
}
