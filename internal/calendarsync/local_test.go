package calendarsync

import (
	"context"
	"log/slog"
	"testing"
)

type memSettings struct {
	values map[string]string
}

func newMemSettings() *memSettings {
	return &memSettings{values: make(map[string]string)}
}

func (s *memSettings) Get(key string) (string, error) {
	return s.values[key], nil
}

func (s *memSettings) Set(key, value string) error {
	s.values[key] = value
	return nil
}

func TestLocalAuthorizationRemembersConnection(t *testing.T) {
	settings := newMemSettings()
	auth := NewLocalAuthorization(settings, func(ctx context.Context) (int, error) { return 0, nil })

	if auth.WasConnected() {
		t.Error("fresh authorization should not report a previous connection")
	}

	if err := auth.RequestAuthorization(context.Background()); err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if !auth.WasConnected() {
		t.Error("WasConnected() should be true after authorization")
	}
}

func TestRevokeClearsPersistedConnection(t *testing.T) {
	settings := newMemSettings()
	auth := NewLocalAuthorization(settings, func(ctx context.Context) (int, error) { return 0, nil })
	if err := auth.RequestAuthorization(context.Background()); err != nil {
		t.Fatalf("authorize: %v", err)
	}

	if err := auth.Revoke(context.Background()); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if auth.WasConnected() {
		t.Error("WasConnected() should be false after revoke, or a restart reconnects on its own")
	}
}

func TestDisconnectStaysDisconnectedAcrossRestart(t *testing.T) {
	settings := newMemSettings()
	auth := NewLocalAuthorization(settings, func(ctx context.Context) (int, error) { return 0, nil })
	c := NewCoordinator(auth, nil, slog.New(slog.DiscardHandler))

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	c.Disconnect(context.Background())

	// A restart rebuilds the stack over the same settings and only
	// reconnects when a previous session was still connected.
	restarted := NewLocalAuthorization(settings, func(ctx context.Context) (int, error) { return 0, nil })
	if restarted.WasConnected() {
		t.Error("explicit disconnect must survive a restart")
	}
}
