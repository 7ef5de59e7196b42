// Package boltstore persists cart state in a local bbolt file so a
// cart survives restarts of the client process. The full state tuple
// lives under a single fixed key, JSON-encoded.
package boltstore

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/piataonline/market-api/internal/cart"
)

var (
	bucketCart = []byte("cart")
	stateKey   = []byte("current")
)

// Store is a bbolt-backed cart.Store.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) the bbolt file at dbPath and makes sure the
// cart bucket exists.
func New(dbPath string) (*Store, error) {
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketCart)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cart bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database file.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save writes the full state tuple under the fixed key, replacing the
// previous value. Last write wins when two processes share the file.
func (s *Store) Save(state *cart.State) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketCart)
		if bucket == nil {
			return fmt.Errorf("cart bucket not found")
		}
		data, err := json.Marshal(state)
		if err != nil {
			return fmt.Errorf("failed to marshal cart state: %w", err)
		}
		return bucket.Put(stateKey, data)
	})
}

// Load restores the saved state, or returns (nil, nil) when nothing
// has been saved yet.
func (s *Store) Load() (*cart.State, error) {
	var state *cart.State
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketCart)
		if bucket == nil {
			return fmt.Errorf("cart bucket not found")
		}
		data := bucket.Get(stateKey)
		if data == nil {
			return nil
		}
		state = &cart.State{}
		if err := json.Unmarshal(data, state); err != nil {
			return fmt.Errorf("failed to unmarshal cart state: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}
