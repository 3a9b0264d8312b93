package scheduling

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/hbarros/praxis/internal/model"
)

// fakeRepo backs the store with in-memory behavior controlled per test.
type fakeRepo struct {
	appointments []model.Appointment
	listErr      error
	createErr    error
	updateErr    error
	deleteErr    error
	createCalls  int
}

func (f *fakeRepo) List(ctx context.Context) ([]model.Appointment, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Appointment(nil), f.appointments...), nil
}

func (f *fakeRepo) ListUpcoming(ctx context.Context, limit int) ([]model.Appointment, error) {
	return f.List(ctx)
}

func (f *fakeRepo) Create(ctx context.Context, fields model.DraftFields) (*model.Appointment, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	a := model.Appointment{
		ID:            "new",
		PatientID:     fields.PatientID,
		TherapistID:   fields.TherapistID,
		ScheduledFrom: fields.ScheduledFrom,
		ScheduledTo:   fields.ScheduledTo,
		Modality:      fields.Modality,
		Status:        fields.Status,
	}
	f.appointments = append(f.appointments, a)
	return &a, nil
}

func (f *fakeRepo) Update(ctx context.Context, id string, patch model.Patch) (*model.Appointment, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	for i := range f.appointments {
		if f.appointments[i].ID == id {
			if patch.Status != nil {
				f.appointments[i].Status = *patch.Status
			}
			if patch.Summary != nil {
				f.appointments[i].Summary = *patch.Summary
			}
			a := f.appointments[i]
			return &a, nil
		}
	}
	return nil, model.ErrNotFound
}

func (f *fakeRepo) Delete(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	kept := f.appointments[:0]
	for _, a := range f.appointments {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	f.appointments = kept
	return nil
}

func testStore(t *testing.T, repo *fakeRepo) *Store {
	t.Helper()
	return NewStore(repo, slog.New(slog.DiscardHandler))
}

func seeded(ids ...string) []model.Appointment {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	out := make([]model.Appointment, len(ids))
	for i, id := range ids {
		out[i] = model.Appointment{
			ID:            id,
			PatientID:     "p-" + id,
			ScheduledFrom: base.Add(time.Duration(i) * time.Hour),
			ScheduledTo:   base.Add(time.Duration(i+1) * time.Hour),
			Status:        model.StatusPending,
		}
	}
	return out
}

func TestFetchUpcomingReplacesList(t *testing.T) {
	repo := &fakeRepo{appointments: seeded("1", "2")}
	s := testStore(t, repo)

	if err := s.FetchUpcoming(context.Background(), 0); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got := len(s.Appointments()); got != 2 {
		t.Errorf("list len = %d, want 2", got)
	}
	if s.Err() != nil {
		t.Errorf("err = %v, want nil", s.Err())
	}
	if s.IsLoading() {
		t.Error("loading should be false after fetch returns")
	}
}

func TestFetchFailureRecordsAndReturns(t *testing.T) {
	repo := &fakeRepo{appointments: seeded("1")}
	s := testStore(t, repo)
	if err := s.FetchUpcoming(context.Background(), 0); err != nil {
		t.Fatalf("seed fetch: %v", err)
	}

	repo.listErr = errors.New("no connectivity")
	err := s.FetchUpcoming(context.Background(), 0)
	if err == nil {
		t.Fatal("fetch should return the failure, not swallow it")
	}
	if s.Err() == nil {
		t.Error("store error should be recorded for passive observers")
	}
	if got := len(s.Appointments()); got != 1 {
		t.Errorf("failed fetch should keep previous list, got len %d", got)
	}
}

func TestCreateIsNotOptimistic(t *testing.T) {
	repo := &fakeRepo{appointments: seeded("1")}
	s := testStore(t, repo)
	if err := s.FetchUpcoming(context.Background(), 0); err != nil {
		t.Fatalf("seed fetch: %v", err)
	}

	created, err := s.Create(context.Background(), model.DraftFields{
		PatientID:     "p-new",
		TherapistID:   "t1",
		ScheduledFrom: time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC),
		ScheduledTo:   time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC),
		Modality:      model.ModalityRemote,
		Status:        model.StatusPending,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Error("create should return the authoritative record")
	}

	if got := len(s.Appointments()); got != 1 {
		t.Errorf("list len after create = %d, want 1 (no speculative insert)", got)
	}

	if err := s.FetchUpcoming(context.Background(), 0); err != nil {
		t.Fatalf("refetch: %v", err)
	}
	count := 0
	for _, a := range s.Appointments() {
		if a.ID == created.ID {
			count++
		}
	}
	if count != 1 {
		t.Errorf("created appointment present %d times after refetch, want 1", count)
	}
}

func TestCreateSlotConflictSurfaces(t *testing.T) {
	repo := &fakeRepo{createErr: model.ErrSlotConflict}
	s := testStore(t, repo)

	_, err := s.Create(context.Background(), model.DraftFields{})
	if !errors.Is(err, model.ErrSlotConflict) {
		t.Errorf("err = %v, want ErrSlotConflict", err)
	}
	if !errors.Is(s.Err(), model.ErrSlotConflict) {
		t.Errorf("store err = %v, want ErrSlotConflict", s.Err())
	}
}

func TestUpdateKeepsSelectionConsistent(t *testing.T) {
	repo := &fakeRepo{appointments: seeded("1", "2")}
	s := testStore(t, repo)
	if err := s.FetchUpcoming(context.Background(), 0); err != nil {
		t.Fatalf("seed fetch: %v", err)
	}
	s.Select("1")

	cancelled := model.StatusCancelled
	if _, err := s.Update(context.Background(), "1", model.Patch{Status: &cancelled}); err != nil {
		t.Fatalf("update: %v", err)
	}

	sel := s.Selected()
	if sel == nil || sel.Status != model.StatusCancelled {
		t.Errorf("selection = %+v, want status cancelled", sel)
	}
	for _, a := range s.Appointments() {
		if a.ID == "1" && a.Status != model.StatusCancelled {
			t.Errorf("list entry 1 status = %s, want cancelled", a.Status)
		}
	}
}

func TestUpdateNonSelectedLeavesSelection(t *testing.T) {
	repo := &fakeRepo{appointments: seeded("1", "2")}
	s := testStore(t, repo)
	if err := s.FetchUpcoming(context.Background(), 0); err != nil {
		t.Fatalf("seed fetch: %v", err)
	}
	s.Select("1")

	confirmed := model.StatusConfirmed
	if _, err := s.Update(context.Background(), "2", model.Patch{Status: &confirmed}); err != nil {
		t.Fatalf("update: %v", err)
	}

	sel := s.Selected()
	if sel == nil || sel.ID != "1" || sel.Status != model.StatusPending {
		t.Errorf("selection = %+v, want untouched appointment 1", sel)
	}
}

func TestDeleteClearsMatchingSelection(t *testing.T) {
	repo := &fakeRepo{appointments: seeded("1", "2")}
	s := testStore(t, repo)
	if err := s.FetchUpcoming(context.Background(), 0); err != nil {
		t.Fatalf("seed fetch: %v", err)
	}
	s.Select("1")

	if err := s.Delete(context.Background(), "1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if s.Selected() != nil {
		t.Error("selection should be cleared when the selected appointment is deleted")
	}
	if got := len(s.Appointments()); got != 1 {
		t.Errorf("list len = %d, want 1", got)
	}
}

func TestSelectUnknownClearsSelection(t *testing.T) {
	repo := &fakeRepo{appointments: seeded("1")}
	s := testStore(t, repo)
	if err := s.FetchUpcoming(context.Background(), 0); err != nil {
		t.Fatalf("seed fetch: %v", err)
	}
	s.Select("1")
	s.Select("missing")
	if s.Selected() != nil {
		t.Error("selecting an unknown id should clear the selection")
	}
}
