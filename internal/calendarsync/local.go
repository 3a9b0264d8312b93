package calendarsync

import (
	"context"
	"fmt"
	"time"
)

// Settings is the key/value persistence the local authorization records the
// connection in, so a restart comes back connected.
type Settings interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

const settingConnected = "calendar_connected"

// LocalAuthorization is a provider stand-in used until a real calendar
// integration is configured: authorization always succeeds and is recorded
// in settings, and a sync run reports how many upcoming appointments would
// be mirrored. It honors the Authorization contract so the coordinator and
// everything gated on it behave exactly as with a real provider.
// TODO: replace with a Google Calendar provider once the OAuth credential
// flow is decided.
type LocalAuthorization struct {
	settings Settings
	count    func(ctx context.Context) (int, error)
}

// NewLocalAuthorization creates the stand-in. count reports how many
// appointments a sync run covers, typically the upcoming-list size.
func NewLocalAuthorization(settings Settings, count func(ctx context.Context) (int, error)) *LocalAuthorization {
	return &LocalAuthorization{settings: settings, count: count}
}

// RequestAuthorization records the connection.
func (l *LocalAuthorization) RequestAuthorization(ctx context.Context) error {
	if err := l.settings.Set(settingConnected, "true"); err != nil {
		return fmt.Errorf("record calendar connection: %w", err)
	}
	return nil
}

// Revoke clears the recorded connection so a later restart does not
// reconnect the calendar behind the user's back.
func (l *LocalAuthorization) Revoke(ctx context.Context) error {
	if err := l.settings.Set(settingConnected, "false"); err != nil {
		return fmt.Errorf("clear calendar connection: %w", err)
	}
	return nil
}

// Sync counts the appointments a provider sync would mirror.
func (l *LocalAuthorization) Sync(ctx context.Context) (int, error) {
	n, err := l.count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count appointments to mirror: %w", err)
	}
	// A provider round trip is not instant; keep the syncing state
	// observable for UIs polling the status endpoint.
	select {
	case <-time.After(10 * time.Millisecond):
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	return n, nil
}

// WasConnected reports whether a previous session had connected, letting
// the server re-run authorization at startup instead of asking the user
// again.
func (l *LocalAuthorization) WasConnected() bool {
	v, err := l.settings.Get(settingConnected)
	return err == nil && v == "true"
}
