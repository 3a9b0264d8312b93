package store

import (
	"context"
	"errors"
	"testing"

	"github.com/hbarros/praxis/internal/model"
)

func TestPatientCreateAndByID(t *testing.T) {
	db := setupTestDB(t)
	s := NewPatientStore(db)

	p, err := s.Create(context.Background(), "Ana Souza", "ana@example.com", "555-0101")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !p.HasContact() {
		t.Error("patient with email should have contact")
	}

	got, err := s.ByID(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("by id: %v", err)
	}
	if got.DisplayName != "Ana Souza" {
		t.Errorf("display name = %q", got.DisplayName)
	}
}

func TestPatientByIDNotFound(t *testing.T) {
	s := NewPatientStore(setupTestDB(t))
	_, err := s.ByID(context.Background(), "missing")
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestPatientListExcludesArchived(t *testing.T) {
	db := setupTestDB(t)
	s := NewPatientStore(db)

	a, err := s.Create(context.Background(), "Ana", "ana@example.com", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.Create(context.Background(), "Bruno", "", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.SetArchived(context.Background(), a.ID, true); err != nil {
		t.Fatalf("archive: %v", err)
	}

	active, err := s.List(context.Background(), false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 1 || active[0].DisplayName != "Bruno" {
		t.Errorf("active list = %d entries, want only Bruno", len(active))
	}

	all, err := s.List(context.Background(), true)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("full list = %d entries, want 2", len(all))
	}
}

func TestPatientIndex(t *testing.T) {
	db := setupTestDB(t)
	s := NewPatientStore(db)

	p, err := s.Create(context.Background(), "Ana", "ana@example.com", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	idx, err := s.Index(context.Background())
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	if got, ok := idx[p.ID]; !ok || got.DisplayName != "Ana" {
		t.Errorf("index missing patient %s", p.ID)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	s := NewSettingsStore(setupTestDB(t))

	if v, err := s.Get("calendar_connected"); err != nil || v != "" {
		t.Errorf("unset key = %q, %v; want empty, nil", v, err)
	}
	if err := s.Set("calendar_connected", "true"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set("calendar_connected", "false"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if v, _ := s.Get("calendar_connected"); v != "false" {
		t.Errorf("get = %q, want false", v)
	}
}

func TestSubscriptionUpsert(t *testing.T) {
	s := NewSubscriptionStore(setupTestDB(t))

	first, err := s.Create("https://push.example/abc", "k1", "a1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := s.Create("https://push.example/abc", "k2", "a2")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("upsert created a new row: %d vs %d", first.ID, second.ID)
	}
	if second.P256dhKey != "k2" {
		t.Errorf("p256dh = %q, want refreshed key", second.P256dhKey)
	}

	subs, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 1 {
		t.Errorf("list len = %d, want 1", len(subs))
	}

	if err := s.Delete(first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	subs, _ = s.List()
	if len(subs) != 0 {
		t.Errorf("list after delete = %d, want 0", len(subs))
	}
}
