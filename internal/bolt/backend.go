// Package bolt implements the pantry Backend on a bbolt key/value file.
//
// Each user owns a nested bucket holding two buckets: items maps item ID to
// the JSON document, names maps name + NUL + item ID to the item ID. Page
// reads walk the names bucket with a bbolt cursor, so the sort order is the
// byte order of the keys.
package bolt

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

const dbFileName = "pantry.bolt"

// Bucket names
var (
	bucketUsers = []byte("users")
	bucketItems = []byte("items")
	bucketNames = []byte("names")
)

var _ types.Backend = (*Backend)(nil)

// Backend implements types.Backend using bbolt.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *bbolt.DB

	now func() time.Time
}

// NewBackend creates a detached bolt backend.
func NewBackend() *Backend {
	return &Backend{now: time.Now}
}

// Attach opens (or creates) DataDir/pantry.bolt.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	if config.DataDir == "" {
		config.DataDir = "."
	}
	if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	dbPath := filepath.Join(config.DataDir, dbFileName)
	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketUsers)
		return err
	})
	if err != nil {
		db.Close()
		return fmt.Errorf("creating buckets: %w", err)
	}

	b.config = config
	b.db = db
	b.attached = true
	return nil
}

// Detach closes the bolt file. Idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	b.attached = false
	if b.db != nil {
		err := b.db.Close()
		b.db = nil
		return err
	}
	return nil
}

func (b *Backend) timestamp() time.Time {
	return b.now().UTC().Truncate(time.Second)
}
