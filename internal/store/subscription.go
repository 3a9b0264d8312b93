package store

import (
	"database/sql"
	"fmt"
	"time"
)

// PushSubscription is one browser's web-push registration for session
// reminders.
type PushSubscription struct {
	ID        int64     `json:"id"`
	Endpoint  string    `json:"endpoint"`
	P256dhKey string    `json:"-"`
	AuthKey   string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

type SubscriptionStore struct {
	db *sql.DB
}

func NewSubscriptionStore(db *sql.DB) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

// Create upserts a subscription by endpoint.
func (s *SubscriptionStore) Create(endpoint, p256dh, auth string) (*PushSubscription, error) {
	_, err := s.db.Exec(
		`INSERT INTO push_subscriptions (endpoint, p256dh_key, auth_key)
		 VALUES (?, ?, ?)
		 ON CONFLICT(endpoint) DO UPDATE SET p256dh_key = excluded.p256dh_key, auth_key = excluded.auth_key`,
		endpoint, p256dh, auth,
	)
	if err != nil {
		return nil, fmt.Errorf("create push subscription: %w", err)
	}
	return s.getByEndpoint(endpoint)
}

func (s *SubscriptionStore) getByEndpoint(endpoint string) (*PushSubscription, error) {
	var sub PushSubscription
	err := s.db.QueryRow(
		`SELECT id, endpoint, p256dh_key, auth_key, created_at
		 FROM push_subscriptions WHERE endpoint = ?`, endpoint,
	).Scan(&sub.ID, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &sub.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get push subscription: %w", err)
	}
	return &sub, nil
}

func (s *SubscriptionStore) List() ([]PushSubscription, error) {
	rows, err := s.db.Query(
		`SELECT id, endpoint, p256dh_key, auth_key, created_at FROM push_subscriptions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list push subscriptions: %w", err)
	}
	defer rows.Close()

	var out []PushSubscription
	for rows.Next() {
		var sub PushSubscription
		if err := rows.Scan(&sub.ID, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan push subscription: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *SubscriptionStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete push subscription: %w", err)
	}
	return nil
}
