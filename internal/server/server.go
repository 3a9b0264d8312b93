package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hbarros/praxis/internal/agenda"
	"github.com/hbarros/praxis/internal/backup"
	"github.com/hbarros/praxis/internal/calendarsync"
	"github.com/hbarros/praxis/internal/config"
	"github.com/hbarros/praxis/internal/handler"
	"github.com/hbarros/praxis/internal/middleware"
	"github.com/hbarros/praxis/internal/reminder"
	"github.com/hbarros/praxis/internal/scheduling"
	"github.com/hbarros/praxis/internal/store"
	ws "github.com/hbarros/praxis/internal/websocket"
)

// Server wires stores, the scheduling view-model, and background managers
// behind one router.
type Server struct {
	db  *sql.DB
	hub *ws.Hub

	appointmentH *handler.AppointmentHandler
	agendaH      *handler.AgendaHandler
	patientH     *handler.PatientHandler
	calendarH    *handler.CalendarHandler
	pushH        *handler.PushHandler

	coordinator       *calendarsync.Coordinator
	backupManager     *backup.Manager
	reminderScheduler *reminder.Scheduler
	logger            *slog.Logger
}

func New(db *sql.DB, cfg config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	appointmentStore := store.NewAppointmentStore(db)
	patientStore := store.NewPatientStore(db)
	settingsStore := store.NewSettingsStore(db)
	subscriptionStore := store.NewSubscriptionStore(db)

	sched := scheduling.NewStore(appointmentStore, logger.With("component", "scheduling"))
	builder := agenda.NewBuilder(cfg.Timezone)
	reveal := agenda.NewReveal(cfg.RevealInitial, cfg.RevealStep, cfg.RevealDebounce)

	// Calendar connection state survives restarts through the settings
	// store; the coordinator itself starts disconnected.
	auth := calendarsync.NewLocalAuthorization(settingsStore, func(ctx context.Context) (int, error) {
		apps, err := appointmentStore.ListUpcoming(ctx, 0)
		return len(apps), err
	})
	coordinator := calendarsync.NewCoordinator(auth, func(s calendarsync.Status) {
		hub.Broadcast(ws.Message{
			Type:   "calendar_sync_status",
			Entity: "calendar_sync",
			Action: string(s.State),
			Extra: map[string]any{
				"synced_count": s.SyncedCount,
				"error":        s.Error,
			},
		})
	}, logger.With("component", "calendarsync"))
	if auth.WasConnected() {
		if err := coordinator.Connect(context.Background()); err != nil {
			logger.Warn("calendar reconnect on startup failed", "error", err)
		}
	}

	backupLogger := logger.With("component", "backup")
	backupMgr := backup.NewManager(backup.Config{
		S3: backup.S3Config{
			Endpoint:  cfg.Backup.Endpoint,
			Bucket:    cfg.Backup.Bucket,
			Region:    cfg.Backup.Region,
			AccessKey: cfg.Backup.AccessKey,
			SecretKey: cfg.Backup.SecretKey,
		},
		DBPath:        cfg.DBPath,
		Schedule:      cfg.BackupSchedule,
		RetentionDays: cfg.BackupRetention,
		Passphrase:    cfg.BackupPassphrase,
	}, db, func(s backup.Status) {
		hub.Broadcast(ws.Message{
			Type:   "backup_status",
			Entity: "backup",
			Action: string(s.State),
			Extra: map[string]any{
				"in_progress": s.InProgress,
				"error":       s.Error,
			},
		})
	}, backupLogger)

	var pushSvc *reminder.Service
	var reminderSched *reminder.Scheduler
	var pushH *handler.PushHandler
	if cfg.VAPIDPublicKey != "" && cfg.VAPIDPrivateKey != "" {
		pushSvc = reminder.NewService(reminder.Config{
			VAPIDPublicKey:  cfg.VAPIDPublicKey,
			VAPIDPrivateKey: cfg.VAPIDPrivateKey,
			Subscriber:      cfg.PushContact,
		})
		reminderSched = reminder.NewScheduler(pushSvc, appointmentStore, patientStore, subscriptionStore, cfg.Timezone, cfg.ReminderLead, logger.With("component", "reminder"))
		pushH = handler.NewPushHandler(subscriptionStore, pushSvc, logger.With("component", "push"))
	}

	return &Server{
		db:                db,
		hub:               hub,
		appointmentH:      handler.NewAppointmentHandler(sched, appointmentStore, patientStore, coordinator, hub, cfg.Timezone),
		agendaH:           handler.NewAgendaHandler(sched, patientStore, builder, reveal, cfg.Timezone),
		patientH:          handler.NewPatientHandler(patientStore, hub),
		calendarH:         handler.NewCalendarHandler(coordinator, appointmentStore, patientStore, logger.With("component", "calendar")),
		pushH:             pushH,
		coordinator:       coordinator,
		backupManager:     backupMgr,
		reminderScheduler: reminderSched,
		logger:            logger,
	}
}

// Coordinator returns the calendar sync coordinator.
func (s *Server) Coordinator() *calendarsync.Coordinator {
	return s.coordinator
}

// BackupManager returns the snapshot manager for lifecycle control.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

// ReminderScheduler returns the reminder scheduler, nil when VAPID keys are
// not configured.
func (s *Server) ReminderScheduler() *reminder.Scheduler {
	return s.reminderScheduler
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	// Appointment API routes
	mux.HandleFunc("GET /api/appointments", s.appointmentH.List)
	mux.HandleFunc("POST /api/appointments", s.appointmentH.Create)
	mux.HandleFunc("GET /api/appointments/selected", s.appointmentH.Selected)
	mux.HandleFunc("DELETE /api/appointments/selected", s.appointmentH.ClearSelection)
	mux.HandleFunc("GET /api/appointments/{id}", s.appointmentH.Get)
	mux.HandleFunc("PUT /api/appointments/{id}", s.appointmentH.Update)
	mux.HandleFunc("DELETE /api/appointments/{id}", s.appointmentH.Delete)
	mux.HandleFunc("POST /api/appointments/{id}/select", s.appointmentH.Select)

	// Agenda API routes
	mux.HandleFunc("GET /api/agenda", s.agendaH.Get)
	mux.HandleFunc("GET /api/agenda/today", s.agendaH.Today)
	mux.HandleFunc("POST /api/agenda/reveal", s.agendaH.Reveal)
	mux.HandleFunc("POST /api/agenda/reveal/reset", s.agendaH.ResetReveal)

	// Patient API routes
	mux.HandleFunc("GET /api/patients", s.patientH.List)
	mux.HandleFunc("POST /api/patients", s.patientH.Create)
	mux.HandleFunc("GET /api/patients/{id}", s.patientH.Get)
	mux.HandleFunc("POST /api/patients/{id}/archive", s.patientH.Archive)
	mux.HandleFunc("DELETE /api/patients/{id}/archive", s.patientH.Unarchive)

	// Calendar API routes
	mux.HandleFunc("POST /api/calendar/connect", s.calendarH.Connect)
	mux.HandleFunc("POST /api/calendar/disconnect", s.calendarH.Disconnect)
	mux.HandleFunc("POST /api/calendar/sync", s.calendarH.Sync)
	mux.HandleFunc("GET /api/calendar/status", s.calendarH.Status)
	mux.HandleFunc("GET /api/calendar/feed.ics", s.calendarH.Feed)

	// Push notification API routes
	if s.pushH != nil {
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
		mux.HandleFunc("GET /api/push/subscriptions", s.pushH.ListSubscriptions)
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
	}

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
