// Package scheduling owns the canonical in-memory appointment list. The
// Store is the single writer: views and projections (agenda, reveal) read
// snapshots and never mutate appointments directly.
package scheduling

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hbarros/praxis/internal/model"
)

// Repository is the persistence collaborator the store works against. It
// may fail with model.ErrSlotConflict or model.ErrUpstreamCalendar on
// writes that the backend or its mirrored external calendar rejects.
type Repository interface {
	List(ctx context.Context) ([]model.Appointment, error)
	ListUpcoming(ctx context.Context, limit int) ([]model.Appointment, error)
	Create(ctx context.Context, fields model.DraftFields) (*model.Appointment, error)
	Update(ctx context.Context, id string, patch model.Patch) (*model.Appointment, error)
	Delete(ctx context.Context, id string) error
}

// Store holds the appointment list plus loading/error state and a single
// selected appointment. Mutation policy is reconcile-after-write
// everywhere: Create never touches the list (callers re-fetch to observe
// the new appointment), Update and Delete splice only with the
// authoritative response. Concurrent updates to the same id race at the
// transport layer and the last response to arrive wins; the store carries
// no version tokens.
type Store struct {
	repo   Repository
	logger *slog.Logger

	mu           sync.RWMutex
	appointments []model.Appointment
	selected     *model.Appointment
	loading      bool
	lastErr      error
}

// NewStore creates a store backed by the given repository. One store is
// constructed per application session; it is not an ambient singleton.
func NewStore(repo Repository, logger *slog.Logger) *Store {
	return &Store{repo: repo, logger: logger}
}

// Appointments returns a snapshot copy of the current list.
func (s *Store) Appointments() []model.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Appointment, len(s.appointments))
	copy(out, s.appointments)
	return out
}

// IsLoading reports whether a fetch is in flight.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the error recorded by the most recent failed operation, or
// nil after a success.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Selected returns a copy of the selected appointment, or nil.
func (s *Store) Selected() *model.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return nil
	}
	sel := *s.selected
	return &sel
}

// Select marks the appointment with the given id as selected. Selecting an
// id not present in the list clears the selection.
func (s *Store) Select(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.appointments {
		if s.appointments[i].ID == id {
			sel := s.appointments[i]
			s.selected = &sel
			return
		}
	}
	s.selected = nil
}

// ClearSelection drops the current selection.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	s.selected = nil
	s.mu.Unlock()
}

// FetchUpcoming replaces the list with the authoritative upcoming
// appointments. The loading flag is set for the duration of the call. On
// failure the error is both recorded on the store and returned; the
// previous list is kept.
func (s *Store) FetchUpcoming(ctx context.Context, limit int) error {
	s.setLoading(true)
	defer s.setLoading(false)

	apps, err := s.repo.ListUpcoming(ctx, limit)
	if err != nil {
		s.recordErr(err)
		return err
	}
	s.replaceList(apps)
	return nil
}

// FetchAll replaces the list with every persisted appointment.
func (s *Store) FetchAll(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)

	apps, err := s.repo.List(ctx)
	if err != nil {
		s.recordErr(err)
		return err
	}
	s.replaceList(apps)
	return nil
}

// Create persists a new appointment and returns the authoritative record.
// The in-memory list is deliberately left unchanged: creation can be
// rejected with a slot conflict or an upstream calendar failure, and a
// speculative insert would show a session that was never booked. Callers
// re-fetch to observe the result.
func (s *Store) Create(ctx context.Context, fields model.DraftFields) (*model.Appointment, error) {
	created, err := s.repo.Create(ctx, fields)
	if err != nil {
		s.recordErr(err)
		return nil, err
	}
	s.clearErr()
	s.logger.Info("appointment created", "id", created.ID, "patient", created.PatientID)
	return created, nil
}

// Update persists a partial change and splices the authoritative result
// into the list in place. If the selected appointment has the same id the
// selection is replaced too, keeping list and selection consistent.
func (s *Store) Update(ctx context.Context, id string, patch model.Patch) (*model.Appointment, error) {
	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		s.recordErr(err)
		return nil, err
	}

	s.mu.Lock()
	for i := range s.appointments {
		if s.appointments[i].ID == id {
			s.appointments[i] = *updated
			break
		}
	}
	if s.selected != nil && s.selected.ID == id {
		sel := *updated
		s.selected = &sel
	}
	s.lastErr = nil
	s.mu.Unlock()

	out := *updated
	return &out, nil
}

// Delete removes the appointment from the backend and from the list,
// clearing the selection when it pointed at the deleted id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		s.recordErr(err)
		return err
	}

	s.mu.Lock()
	kept := s.appointments[:0]
	for _, a := range s.appointments {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	s.appointments = kept
	if s.selected != nil && s.selected.ID == id {
		s.selected = nil
	}
	s.lastErr = nil
	s.mu.Unlock()
	return nil
}

func (s *Store) replaceList(apps []model.Appointment) {
	s.mu.Lock()
	s.appointments = apps
	s.lastErr = nil
	s.mu.Unlock()
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *Store) recordErr(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	s.logger.Warn("scheduling operation failed", "error", err)
}

func (s *Store) clearErr() {
	s.mu.Lock()
	s.lastErr = nil
	s.mu.Unlock()
}
