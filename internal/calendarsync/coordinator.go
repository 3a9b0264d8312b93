// Package calendarsync tracks the connection to the external calendar
// provider and coordinates sync runs. It models the state machine only;
// the provider protocol itself lives behind the Authorization collaborator.
package calendarsync

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hbarros/praxis/internal/model"
)

// Authorization is the external calendar collaborator.
type Authorization interface {
	// RequestAuthorization establishes the provider connection.
	RequestAuthorization(ctx context.Context) error
	// Revoke drops the provider authorization so the connection does not
	// come back on its own after an explicit disconnect.
	Revoke(ctx context.Context) error
	// Sync reconciles local appointments with the provider and returns how
	// many events were synced. May fail with model.ErrCalendarTokenExpired.
	Sync(ctx context.Context) (int, error)
}

// State represents the coordinator connection state.
type State string

const (
	StateDisconnected     State = "disconnected"
	StateConnectedIdle    State = "connected-idle"
	StateConnectedSyncing State = "connected-syncing"
)

// Status holds the current coordinator status.
type Status struct {
	State       State      `json:"state"`
	LastSyncAt  *time.Time `json:"last_sync_at,omitempty"`
	SyncedCount int        `json:"synced_count"`
	Error       string     `json:"error,omitempty"`
}

// StatusCallback is called whenever the coordinator state changes.
type StatusCallback func(Status)

// Coordinator owns the calendar connection state. It is the single writer
// of that state; at most one sync is in flight at a time.
type Coordinator struct {
	auth     Authorization
	callback StatusCallback
	logger   *slog.Logger

	mu         sync.RWMutex
	status     Status
	connecting bool
	done       chan struct{}
}

// NewCoordinator creates a coordinator starting disconnected.
func NewCoordinator(auth Authorization, callback StatusCallback, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		auth:     auth,
		callback: callback,
		logger:   logger,
		status:   Status{State: StateDisconnected},
	}
}

// Status returns the current status.
func (c *Coordinator) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// Connected reports whether the external calendar is connected.
func (c *Coordinator) Connected() bool {
	return c.Status().State != StateDisconnected
}

// GateSchedule is the gating contract for starting a new appointment:
// it returns model.ErrCalendarNotConnected while disconnected, so callers
// can show the "calendar required" prompt instead of proceeding. Editing
// or deleting existing appointments is never gated.
func (c *Coordinator) GateSchedule() error {
	if !c.Connected() {
		return model.ErrCalendarNotConnected
	}
	return nil
}

// Connect asks the authorization collaborator for access and moves to
// connected-idle on success. A no-op when already connected or while
// another connect is in flight, so the collaborator sees one request.
func (c *Coordinator) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.status.State != StateDisconnected || c.connecting {
		c.mu.Unlock()
		return nil
	}
	c.connecting = true
	c.mu.Unlock()

	err := c.auth.RequestAuthorization(ctx)

	c.mu.Lock()
	c.connecting = false
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("calendar authorization failed", "error", err)
		c.setStatus(func(s *Status) { s.Error = err.Error() })
		return err
	}

	c.setStatus(func(s *Status) {
		s.State = StateConnectedIdle
		s.Error = ""
	})
	c.logger.Info("calendar connected")
	return nil
}

// Disconnect revokes the authorization and drops the connection state.
// The local state is dropped even when revocation fails, so the UI is
// never stuck connected against the user's intent.
func (c *Coordinator) Disconnect(ctx context.Context) {
	if err := c.auth.Revoke(ctx); err != nil {
		c.logger.Warn("calendar revoke failed", "error", err)
	}
	c.setStatus(func(s *Status) {
		s.State = StateDisconnected
		s.Error = ""
	})
}

// TriggerSync starts one sync run in the background. While a sync is in
// flight further triggers are no-ops (not queued, not errored). While
// disconnected it returns model.ErrCalendarNotConnected. The run outlives
// the caller: it keeps ctx's values but not its cancellation, so a sync
// kicked off from an HTTP handler survives the request ending.
func (c *Coordinator) TriggerSync(ctx context.Context) error {
	c.mu.Lock()
	switch c.status.State {
	case StateDisconnected:
		c.mu.Unlock()
		return model.ErrCalendarNotConnected
	case StateConnectedSyncing:
		c.mu.Unlock()
		return nil
	}
	c.status.State = StateConnectedSyncing
	c.status.Error = ""
	status := c.status
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()
	c.notify(status)

	syncCtx := context.WithoutCancel(ctx)
	go func() {
		defer close(done)
		c.runSync(syncCtx)
	}()
	return nil
}

// Wait blocks until the in-flight sync (if any) finishes.
func (c *Coordinator) Wait() {
	c.mu.RLock()
	done := c.done
	c.mu.RUnlock()
	if done != nil {
		<-done
	}
}

func (c *Coordinator) runSync(ctx context.Context) {
	count, err := c.auth.Sync(ctx)
	if err != nil {
		c.logger.Warn("calendar sync failed", "error", err)
		c.setStatus(func(s *Status) {
			// Expired authorization drops the connection so the UI shows
			// the reconnect prompt rather than a generic failure.
			if errors.Is(err, model.ErrCalendarTokenExpired) {
				s.State = StateDisconnected
			} else {
				s.State = StateConnectedIdle
			}
			s.Error = err.Error()
		})
		return
	}

	now := time.Now()
	c.setStatus(func(s *Status) {
		s.State = StateConnectedIdle
		s.LastSyncAt = &now
		s.SyncedCount = count
		s.Error = ""
	})
	c.logger.Info("calendar sync finished", "synced", count)
}

func (c *Coordinator) setStatus(mutate func(*Status)) {
	c.mu.Lock()
	mutate(&c.status)
	status := c.status
	c.mu.Unlock()
	c.notify(status)
}

func (c *Coordinator) notify(status Status) {
	if c.callback != nil {
		c.callback(status)
	}
}
