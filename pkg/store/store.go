// Package store implements durable storage for the operations console on
// SQLite: the entity repositories, the relationship (links) table, and the
// bill-of-materials lines written by the transport router.
//
// Every successful write publishes a change event on the attached bus, which
// is how the graph view stays eventually consistent without polling. Reads
// never publish.
package store

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/opsdeck/opsdeck/pkg/bus"
	"github.com/opsdeck/opsdeck/pkg/entity"
)

// timeLayout is the canonical timestamp encoding for all columns.
const timeLayout = time.RFC3339

// dateLayout encodes scheduled_date, which carries no time component.
const dateLayout = "2006-01-02"

// Backend owns the SQLite handle and hands out table accessors.
// Safe for concurrent use; writes serialize on the backend mutex so that
// multi-statement operations see a consistent view.
type Backend struct {
	mu  sync.Mutex
	db  *sql.DB
	bus *bus.Bus
}

// Open opens (or creates) the console database inside dataDir and applies
// the schema. Events for every write are published on b, which may be nil
// when change notification is not needed (one-shot CLI commands).
func Open(dataDir string, b *bus.Bus) (*Backend, error) {
	dbPath := filepath.Join(dataDir, "opsdeck.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dbPath, err)
	}

	// modernc.org/sqlite serializes at the driver level; a single
	// connection avoids SQLITE_BUSY on concurrent writers.
	db.SetMaxOpenConns(1)

	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	return &Backend{db: db, bus: b}, nil
}

// OpenMemory opens an in-memory database, used by tests and the demo seed.
func OpenMemory(b *bus.Bus) (*Backend, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open in-memory database: %w", err)
	}
	db.SetMaxOpenConns(1)
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &Backend{db: db, bus: b}, nil
}

// Close releases the database handle.
func (b *Backend) Close() error {
	return b.db.Close()
}

// Links returns the relationship store backed by this database.
func (b *Backend) Links() *LinkStore {
	return &LinkStore{backend: b}
}

// Repository returns the entity repository for one type.
func (b *Backend) Repository(t entity.Type) entity.Repository {
	return &entityRepo{backend: b, typ: t}
}

// Registry builds a registry over all built-in entity types.
func (b *Backend) Registry() *entity.Registry {
	repos := make(map[entity.Type]entity.Repository)
	for _, t := range entity.Types() {
		repos[t] = b.Repository(t)
	}
	return entity.NewRegistry(repos)
}

// BOM returns the bill-of-materials accessor.
func (b *Backend) BOM() *BOMStore {
	return &BOMStore{backend: b}
}

// publish emits a change event when a bus is attached.
func (b *Backend) publish(topic bus.Topic, op bus.Op, id int64) {
	if b.bus != nil {
		b.bus.Publish(bus.Event{Topic: topic, Op: op, ID: id})
	}
}
