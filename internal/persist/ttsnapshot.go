// Package persist provides an optional on-disk snapshot store for the
// search engine's transposition table, backed by BadgerDB. A snapshot lets
// a UCI session resume with the positions a previous session already
// searched, rather than starting the table cold.
package persist

import (
	"github.com/dgraph-io/badger/v4"

	"wyvern/internal/engine"
)

const ttSnapshotKey = "tt:snapshot"

// Store wraps a BadgerDB instance dedicated to transposition table
// snapshots, addressed through the UCI TTFile option.
type Store struct {
	db *badger.DB
}

// Open opens (creating if necessary) a badger database at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // the engine's own log.Printf convention covers this

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveSnapshot writes the table's current contents to disk, replacing any
// prior snapshot.
func (s *Store) SaveSnapshot(tt *engine.TranspositionTable) error {
	data, err := tt.MarshalBinary()
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(ttSnapshotKey), data)
	})
}

// LoadSnapshot restores a previously saved snapshot into tt. It is a no-op,
// leaving tt untouched, if no snapshot has ever been saved to this store.
func (s *Store) LoadSnapshot(tt *engine.TranspositionTable) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(ttSnapshotKey))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return tt.UnmarshalBinary(val)
		})
	})
}
