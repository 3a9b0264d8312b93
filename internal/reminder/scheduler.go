package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hbarros/praxis/internal/model"
	"github.com/hbarros/praxis/internal/store"
	"github.com/hbarros/praxis/internal/timeslot"
)

// Sender delivers one notification. Satisfied by *Service.
type Sender interface {
	Send(sub store.PushSubscription, payload Payload) error
}

// Scheduler periodically looks for confirmed appointments entering the
// reminder window and notifies every registered subscription once per
// appointment.
type Scheduler struct {
	mu           sync.RWMutex
	sender       Sender
	appointments *store.AppointmentStore
	patients     *store.PatientStore
	subs         *store.SubscriptionStore
	loc          *time.Location
	logger       *slog.Logger

	lead     time.Duration
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewScheduler creates a reminder scheduler. lead is how far ahead of the
// appointment start the reminder fires.
func NewScheduler(sender Sender, as *store.AppointmentStore, ps *store.PatientStore, ss *store.SubscriptionStore, loc *time.Location, lead time.Duration, logger *slog.Logger) *Scheduler {
	if lead <= 0 {
		lead = time.Hour
	}
	return &Scheduler{
		sender:       sender,
		appointments: as,
		patients:     ps,
		subs:         ss,
		loc:          loc,
		logger:       logger,
		lead:         lead,
		interval:     60 * time.Second,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Tick(ctx)
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Tick runs one reminder pass: every confirmed, not-yet-reminded appointment
// starting within the lead window is sent to all subscriptions and marked so
// it never fires twice. Expired subscriptions are dropped.
func (s *Scheduler) Tick(ctx context.Context) {
	now := time.Now()
	due, err := s.appointments.ListNeedingReminder(ctx, now, now.Add(s.lead))
	if err != nil {
		s.logger.Error("reminder scan failed", "error", err)
		return
	}
	if len(due) == 0 {
		return
	}

	subs, err := s.subs.List()
	if err != nil {
		s.logger.Error("listing push subscriptions failed", "error", err)
		return
	}

	index, err := s.patients.Index(ctx)
	if err != nil {
		s.logger.Error("loading patient index failed", "error", err)
		index = map[string]model.Patient{}
	}

	for _, appt := range due {
		payload := s.payload(appt, index)
		for _, sub := range subs {
			err := s.sender.Send(sub, payload)
			if errors.Is(err, ErrExpired) {
				if derr := s.subs.Delete(sub.ID); derr != nil {
					s.logger.Error("dropping expired subscription failed", "error", derr)
				}
				continue
			}
			if err != nil {
				s.logger.Error("reminder send failed", "appointment", appt.ID, "error", err)
			}
		}
		if err := s.appointments.MarkReminded(ctx, appt.ID); err != nil {
			s.logger.Error("marking appointment reminded failed", "appointment", appt.ID, "error", err)
		}
	}
}

func (s *Scheduler) payload(appt model.Appointment, patients map[string]model.Patient) Payload {
	who := "a patient"
	if p, ok := patients[appt.PatientID]; ok && p.DisplayName != "" {
		who = p.DisplayName
	}
	when := appt.ScheduledFrom.In(s.loc).Format("15:04")
	return Payload{
		Title: "Upcoming session",
		Body:  fmt.Sprintf("Session with %s at %s on %s", who, when, timeslot.LocalDate(appt.ScheduledFrom, s.loc)),
		Tag:   "appointment-" + appt.ID,
	}
}
