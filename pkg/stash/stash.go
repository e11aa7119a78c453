// Package stash implements the transporter: an ephemeral, session-local
// holding area for entities mid-transport between UI surfaces.
//
// Items are created when a card is dropped on a holding zone and consumed
// when the user later drops them on a real target (a calendar cell, a BOM
// zone, a goal board) or clears them by hand. Nothing here is durable
// application state: losing the stash loses nothing but an in-progress
// gesture.
//
// Two backends exist:
//   - memory: for a single-process console and for tests
//   - redis: when the console UI and its API server are separate processes
//     and the stash has to survive either one restarting mid-session
package stash

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/opsdeck/opsdeck/pkg/entity"
)

// ErrNotFound is returned when no stash item exists for the given id.
var ErrNotFound = errors.New("stash item not found")

// Item is one held entity. The original entity reference rides along so the
// eventual drop can address the right repository; Payload carries whatever
// free-form metadata the originating surface attached to the drag.
type Item struct {
	ID        string            `json:"id"`
	Ref       entity.Ref        `json:"ref"`
	Kind      string            `json:"kind"`
	Title     string            `json:"title"`
	Subtitle  string            `json:"subtitle,omitempty"`
	Payload   map[string]string `json:"payload,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewID returns a fresh stash item id.
func NewID() string { return uuid.NewString() }

// Store is the holding-area contract.
type Store interface {
	// Add stores an item. The caller assigns the id (see NewID).
	Add(ctx context.Context, item Item) error

	// Get returns the item or ErrNotFound.
	Get(ctx context.Context, id string) (Item, error)

	// Remove deletes the item. Removing an absent item is not an error;
	// a consumed item may already be gone.
	Remove(ctx context.Context, id string) error

	// List returns all held items, oldest first.
	List(ctx context.Context) ([]Item, error)

	// Clear empties the holding area.
	Clear(ctx context.Context) error
}
