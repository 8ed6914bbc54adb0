// registry.go — an embedded bbolt store recording which user artifacts and
// which iterations already exist for a run, so resume checks are O(1)
// bucket lookups instead of scanning a directory of potentially many
// thousands of per-user files.
//
// Adapted from laplaque-ai-anonymizing-proxy's internal/anonymizer.bboltCache:
// same bolt.Open/CreateBucketIfNotExists setup, same Get/Set-shaped access,
// repurposed from a PII-value cache to a completion registry.
package storage

import (
	"fmt"
	"log"

	bolt "go.etcd.io/bbolt"
)

var (
	usersBucket      = []byte("completed_users")
	iterationsBucket = []byte("completed_iterations")
)

// Registry tracks completion state for a run in an embedded bbolt
// database so resume-by-presence checks do not require a directory scan.
type Registry struct {
	db *bolt.DB
}

// OpenRegistry opens (or creates) the registry database at path and
// ensures its buckets exist.
func OpenRegistry(path string) (*Registry, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("flfp: storage: open registry %q: %w", path, err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(usersBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(iterationsBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("flfp: storage: create registry buckets: %w", err)
	}

	log.Printf("[storage] registry opened at %s", path)
	return &Registry{db: db}, nil
}

// Close releases the database file.
func (r *Registry) Close() error { return r.db.Close() }

// MarkUserComplete records that a user's targeted fingerprint artifact has
// been written.
func (r *Registry) MarkUserComplete(runID, userID string) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(usersBucket).Put(registryKey(runID, userID), []byte{1})
	})
}

// UserComplete reports whether a user's artifact is already recorded as
// written.
func (r *Registry) UserComplete(runID, userID string) bool {
	var done bool
	_ = r.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(usersBucket).Get(registryKey(runID, userID))
		done = v != nil
		return nil
	})
	return done
}

// MarkIterationComplete records that an iteration's artifacts have been
// written.
func (r *Registry) MarkIterationComplete(runID string, iteration int) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(iterationsBucket).Put(registryKey(runID, fmt.Sprintf("%d", iteration)), []byte{1})
	})
}

// IterationComplete reports whether an iteration is already recorded as
// written.
func (r *Registry) IterationComplete(runID string, iteration int) bool {
	var done bool
	_ = r.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(iterationsBucket).Get(registryKey(runID, fmt.Sprintf("%d", iteration)))
		done = v != nil
		return nil
	})
	return done
}

func registryKey(runID, suffix string) []byte {
	return []byte(runID + "\x00" + suffix)
}
