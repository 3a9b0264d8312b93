package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hbarros/praxis/internal/config"
	"github.com/hbarros/praxis/internal/database"
	"github.com/hbarros/praxis/internal/logging"
	"github.com/hbarros/praxis/internal/reminder"
	"github.com/hbarros/praxis/internal/server"
)

func main() {
	genKeys := flag.Bool("generate-vapid-keys", false, "print a fresh VAPID key pair and exit")
	flag.Parse()

	if *genKeys {
		pub, priv, err := reminder.GenerateVAPIDKeys()
		if err != nil {
			log.Fatalf("failed to generate VAPID keys: %v", err)
		}
		fmt.Printf("PRAXIS_VAPID_PUBLIC_KEY=%s\nPRAXIS_VAPID_PRIVATE_KEY=%s\n", pub, priv)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	srv := server.New(db, cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv.BackupManager().Start(ctx)
	if sched := srv.ReminderScheduler(); sched != nil {
		sched.Start(ctx)
	} else {
		logger.Info("reminders disabled, VAPID keys not configured")
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("praxis running", "addr", "http://localhost:"+cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}

	cancel()
	if sched := srv.ReminderScheduler(); sched != nil {
		sched.Stop()
	}
	srv.BackupManager().Stop()
	srv.Coordinator().Wait()
}
