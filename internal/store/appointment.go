package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hbarros/praxis/internal/model"
)

const appointmentColumns = `id, patient_id, therapist_id, scheduled_from, scheduled_to, modality, status, cost_cents, summary, created_at, updated_at`

// AppointmentStore persists appointments in SQLite. It implements the
// scheduling repository contract, including slot-conflict detection on
// writes.
type AppointmentStore struct {
	db *sql.DB
}

func NewAppointmentStore(db *sql.DB) *AppointmentStore {
	return &AppointmentStore{db: db}
}

// List returns every appointment ordered by start time.
func (s *AppointmentStore) List(ctx context.Context) ([]model.Appointment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments ORDER BY scheduled_from ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query appointments: %w", err)
	}
	defer rows.Close()
	return scanAppointments(rows)
}

// ListUpcoming returns appointments from the start of today (UTC) onward,
// ordered by start time. limit <= 0 means no limit. Date-level filtering
// against the practice timezone is done by the agenda layer; the query
// over-fetches by up to one day on purpose.
func (s *AppointmentStore) ListUpcoming(ctx context.Context, limit int) ([]model.Appointment, error) {
	dayStart := time.Now().UTC().Truncate(24 * time.Hour).Add(-24 * time.Hour)

	q := `SELECT ` + appointmentColumns + ` FROM appointments
	 WHERE scheduled_from >= ? ORDER BY scheduled_from ASC, id ASC`
	args := []any{dayStart}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query upcoming appointments: %w", err)
	}
	defer rows.Close()
	return scanAppointments(rows)
}

// GetByID returns the appointment or nil when it does not exist.
func (s *AppointmentStore) GetByID(ctx context.Context, id string) (*model.Appointment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = ?`, id)
	a, err := scanAppointment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query appointment: %w", err)
	}
	return a, nil
}

// Create inserts a new appointment and returns the authoritative record.
// Overlapping a non-cancelled booking of the same therapist fails with
// model.ErrSlotConflict.
func (s *AppointmentStore) Create(ctx context.Context, fields model.DraftFields) (*model.Appointment, error) {
	conflict, err := s.hasOverlap(ctx, fields.TherapistID, fields.ScheduledFrom, fields.ScheduledTo, "")
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, model.ErrSlotConflict
	}

	id := uuid.NewString()
	var cost sql.NullInt64
	if fields.CostCents != nil {
		cost = sql.NullInt64{Int64: *fields.CostCents, Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO appointments (id, patient_id, therapist_id, scheduled_from, scheduled_to, modality, status, cost_cents, summary)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, fields.PatientID, fields.TherapistID,
		fields.ScheduledFrom.UTC(), fields.ScheduledTo.UTC(),
		string(fields.Modality), string(fields.Status), cost, fields.Summary,
	)
	if err != nil {
		return nil, fmt.Errorf("insert appointment: %w", err)
	}

	created, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, fmt.Errorf("appointment %s vanished after insert", id)
	}
	return created, nil
}

// Update applies a partial patch and returns the authoritative record.
// Missing ids fail with model.ErrNotFound; moving the slot onto another
// booking fails with model.ErrSlotConflict.
func (s *AppointmentStore) Update(ctx context.Context, id string, patch model.Patch) (*model.Appointment, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, model.ErrNotFound
	}

	next := *existing
	if patch.PatientID != nil {
		next.PatientID = *patch.PatientID
	}
	if patch.ScheduledFrom != nil {
		next.ScheduledFrom = *patch.ScheduledFrom
	}
	if patch.ScheduledTo != nil {
		next.ScheduledTo = *patch.ScheduledTo
	}
	if patch.Modality != nil {
		next.Modality = *patch.Modality
	}
	if patch.Status != nil {
		next.Status = *patch.Status
	}
	if patch.CostCents != nil {
		next.CostCents = patch.CostCents
	}
	if patch.Summary != nil {
		next.Summary = *patch.Summary
	}

	if !next.ScheduledFrom.Before(next.ScheduledTo) {
		return nil, &model.ValidationError{Field: "scheduled_to", Reason: "must be after scheduled_from"}
	}

	if patch.ScheduledFrom != nil || patch.ScheduledTo != nil {
		conflict, err := s.hasOverlap(ctx, next.TherapistID, next.ScheduledFrom, next.ScheduledTo, id)
		if err != nil {
			return nil, err
		}
		if conflict {
			return nil, model.ErrSlotConflict
		}
	}

	var cost sql.NullInt64
	if next.CostCents != nil {
		cost = sql.NullInt64{Int64: *next.CostCents, Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE appointments
		 SET patient_id = ?, scheduled_from = ?, scheduled_to = ?, modality = ?, status = ?, cost_cents = ?, summary = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		next.PatientID, next.ScheduledFrom.UTC(), next.ScheduledTo.UTC(),
		string(next.Modality), string(next.Status), cost, next.Summary, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	return s.GetByID(ctx, id)
}

// Delete removes the appointment. Missing ids fail with model.ErrNotFound.
func (s *AppointmentStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// ListNeedingReminder returns confirmed appointments starting inside
// [from, to) that have not been reminded yet.
func (s *AppointmentStore) ListNeedingReminder(ctx context.Context, from, to time.Time) ([]model.Appointment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments
		 WHERE status = ? AND reminded_at IS NULL AND scheduled_from >= ? AND scheduled_from < ?
		 ORDER BY scheduled_from ASC`,
		string(model.StatusConfirmed), from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("query reminder appointments: %w", err)
	}
	defer rows.Close()
	return scanAppointments(rows)
}

// MarkReminded records that a reminder was sent for the appointment.
func (s *AppointmentStore) MarkReminded(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE appointments SET reminded_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark reminded: %w", err)
	}
	return nil
}

// hasOverlap reports whether [from, to) intersects a non-cancelled booking
// of the therapist, excluding excludeID (the record being updated).
func (s *AppointmentStore) hasOverlap(ctx context.Context, therapistID string, from, to time.Time, excludeID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM appointments
		 WHERE therapist_id = ? AND status != ? AND id != ?
		   AND scheduled_from < ? AND scheduled_to > ?`,
		therapistID, string(model.StatusCancelled), excludeID, to.UTC(), from.UTC(),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check slot overlap: %w", err)
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (*model.Appointment, error) {
	var a model.Appointment
	var cost sql.NullInt64
	err := row.Scan(&a.ID, &a.PatientID, &a.TherapistID, &a.ScheduledFrom, &a.ScheduledTo,
		&a.Modality, &a.Status, &cost, &a.Summary, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if cost.Valid {
		a.CostCents = &cost.Int64
	}
	return &a, nil
}

func scanAppointments(rows *sql.Rows) ([]model.Appointment, error) {
	var out []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}
