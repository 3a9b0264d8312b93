package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/hbarros/praxis/internal/model"
)

// PatientStore persists patient records. It implements the PatientLookup
// collaborator consumed by the drawer's contact-address gate.
type PatientStore struct {
	db *sql.DB
}

func NewPatientStore(db *sql.DB) *PatientStore {
	return &PatientStore{db: db}
}

func (s *PatientStore) Create(ctx context.Context, displayName, email, phone string) (*model.Patient, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO patients (id, display_name, email, phone) VALUES (?, ?, ?, ?)`,
		id, displayName, email, phone,
	)
	if err != nil {
		return nil, fmt.Errorf("insert patient: %w", err)
	}
	return s.ByID(ctx, id)
}

// ByID returns the patient or model.ErrNotFound.
func (s *PatientStore) ByID(ctx context.Context, id string) (*model.Patient, error) {
	var p model.Patient
	var archived int
	err := s.db.QueryRowContext(ctx,
		`SELECT id, display_name, email, phone, archived, created_at, updated_at
		 FROM patients WHERE id = ?`, id,
	).Scan(&p.ID, &p.DisplayName, &p.Email, &p.Phone, &archived, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query patient: %w", err)
	}
	p.Archived = archived != 0
	return &p, nil
}

// List returns patients ordered by display name, excluding archived ones
// unless includeArchived is set.
func (s *PatientStore) List(ctx context.Context, includeArchived bool) ([]model.Patient, error) {
	q := `SELECT id, display_name, email, phone, archived, created_at, updated_at FROM patients`
	if !includeArchived {
		q += ` WHERE archived = 0`
	}
	q += ` ORDER BY display_name ASC`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query patients: %w", err)
	}
	defer rows.Close()

	var out []model.Patient
	for rows.Next() {
		var p model.Patient
		var archived int
		if err := rows.Scan(&p.ID, &p.DisplayName, &p.Email, &p.Phone, &archived, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		p.Archived = archived != 0
		out = append(out, p)
	}
	return out, rows.Err()
}

// Index returns patients keyed by id, the shape the agenda search filter
// consumes.
func (s *PatientStore) Index(ctx context.Context) (map[string]model.Patient, error) {
	patients, err := s.List(ctx, true)
	if err != nil {
		return nil, err
	}
	idx := make(map[string]model.Patient, len(patients))
	for _, p := range patients {
		idx[p.ID] = p
	}
	return idx, nil
}

// SetArchived flips the archived flag.
func (s *PatientStore) SetArchived(ctx context.Context, id string, archived bool) error {
	v := 0
	if archived {
		v = 1
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE patients SET archived = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, v, id)
	if err != nil {
		return fmt.Errorf("archive patient: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}
