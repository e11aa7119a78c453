// Package appstate is the injectable application-state service.
//
// It owns the session-scoped mutable state the transport router and the
// connection workflow need: the stash holding area, the pending schedule
// confirmation, and UI flags (open modals, active theme). Everything is
// behind typed methods on an injectable Service so the routing and workflow
// code can be unit-tested without a rendering environment. There are no
// package-level mutable globals.
package appstate

import (
	"errors"
	"sync"
	"time"

	"github.com/opsdeck/opsdeck/pkg/entity"
	"github.com/opsdeck/opsdeck/pkg/stash"
)

// ErrNoPendingSchedule is returned when no schedule confirmation is open.
var ErrNoPendingSchedule = errors.New("no pending schedule confirmation")

// PendingSchedule is an open calendar confirmation: a stash-wrapped task was
// dropped on a calendar cell and awaits the user's confirm or dismiss. No
// scheduling write happens while it is open.
type PendingSchedule struct {
	// Ref is the task to schedule.
	Ref entity.Ref `json:"ref"`

	// StashItemID is the consumed stash item, removed on confirm.
	StashItemID string `json:"stash_item_id"`

	// Date is the calendar cell's date.
	Date time.Time `json:"date"`

	// Time is the optional time of day ("HH:MM"), filled in at confirm.
	Time string `json:"time,omitempty"`
}

// Service holds session state. Safe for concurrent use.
type Service struct {
	mu      sync.RWMutex
	stash   stash.Store
	pending *PendingSchedule
	modals  map[string]bool
	theme   string
}

// New creates a service over the given stash store.
func New(stashStore stash.Store) *Service {
	return &Service{
		stash:  stashStore,
		modals: make(map[string]bool),
		theme:  "dark",
	}
}

// Stash returns the holding-area store.
func (s *Service) Stash() stash.Store {
	return s.stash
}

// OpenSchedule records a pending schedule confirmation, replacing any
// previous one. The replaced confirmation is simply dropped; its stash item
// stays in the holding area.
func (s *Service) OpenSchedule(p PendingSchedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = &p
}

// PendingSchedule returns the open confirmation, if any.
func (s *Service) PendingSchedule() (PendingSchedule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pending == nil {
		return PendingSchedule{}, false
	}
	return *s.pending, true
}

// TakeSchedule removes and returns the open confirmation. Used by the
// transport router at confirm time so a double confirm cannot write twice.
func (s *Service) TakeSchedule() (PendingSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return PendingSchedule{}, ErrNoPendingSchedule
	}
	p := *s.pending
	s.pending = nil
	return p, nil
}

// DismissSchedule discards the open confirmation without writing.
// Dismissing with none open is a no-op.
func (s *Service) DismissSchedule() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
}

// SetModal marks a named modal open or closed.
func (s *Service) SetModal(name string, open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if open {
		s.modals[name] = true
	} else {
		delete(s.modals, name)
	}
}

// ModalOpen reports whether the named modal is open.
func (s *Service) ModalOpen(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modals[name]
}

// SetTheme sets the active theme name.
func (s *Service) SetTheme(theme string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.theme = theme
}

// Theme returns the active theme name.
func (s *Service) Theme() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}
