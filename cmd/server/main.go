package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/smukkama/ftp-core/internal/audit"
	"github.com/smukkama/ftp-core/internal/corelog"
	"github.com/smukkama/ftp-core/internal/dispatch"
	"github.com/smukkama/ftp-core/internal/events"
	"github.com/smukkama/ftp-core/internal/ftpsession"
	"github.com/smukkama/ftp-core/internal/idletimer"
	"github.com/smukkama/ftp-core/internal/presence"
	"github.com/smukkama/ftp-core/internal/session"
	"github.com/smukkama/ftp-core/internal/transport"
	"github.com/smukkama/ftp-core/internal/workerpool"
	"github.com/smukkama/ftp-core/pkg/config"
)

func printUsage(programName string) {
	fmt.Fprintf(os.Stderr, "usage: %s <port>\n", programName)
}

func main() {
	if len(os.Args) != 2 {
		printUsage(os.Args[0])
		os.Exit(1)
	}

	port, err := strconv.Atoi(os.Args[1])
	if err != nil || port < 0 || port > 65535 {
		printUsage(os.Args[0])
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	cfg.Server.Port = port

	log := corelog.New(cfg.Log.Level)
	log.Info("starting ftp-core")

	db, err := audit.Connect(cfg.Database.ConnectionString())
	if err != nil {
		log.WithError(err).Fatal("failed to connect to audit database")
	}
	defer db.Close()

	auditLog := audit.NewLog(db, 100, 5*time.Second)
	auditLog.Start()
	defer auditLog.Stop()
	log.Info("audit log started")

	publisher := events.NewPublisher(events.PublisherConfig{
		Brokers:      cfg.Kafka.Brokers,
		Topic:        cfg.Kafka.Topic,
		BatchSize:    cfg.Kafka.BatchSize,
		BatchTimeout: cfg.Kafka.BatchTimeout,
		Compression:  cfg.Kafka.Compression,
		Async:        cfg.Kafka.Async,
		MaxAttempts:  cfg.Kafka.MaxAttempts,
		RequiredAcks: cfg.Kafka.RequiredAcks,
	})
	defer publisher.Close()
	log.Info("event publisher initialized")

	registry := session.NewRegistry(cfg.Server.MaxConnections)
	log.Info("session registry initialized")

	idleTimer := idletimer.NewManager()
	idleTimer.Start()
	defer idleTimer.Stop()
	log.Info("idle timer started")

	presenceMirror := presence.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.InstanceID)
	defer presenceMirror.Close()

	presenceCtx, cancelPresence := context.WithCancel(context.Background())
	defer cancelPresence()
	registry.OnChange(func(liveCount int) {
		presenceMirror.SetCount(presenceCtx, liveCount)
	})
	stopPresenceRefresh := presenceMirror.StartRefresh(presenceCtx, cfg.Redis.RefreshEvery, registry.Count)
	defer stopPresenceRefresh()
	log.Info("presence mirror started")

	workerCount := cfg.Pool.WorkerCount
	if workerCount == 0 {
		workerCount = runtime.NumCPU() + 1
	}
	pool := workerpool.New(workerCount, log)
	defer pool.Close()
	log.WithField("workers", workerCount).Info("worker pool started")

	var secureOpts *transport.SecureOptions
	if cfg.TLS.Enabled {
		secureOpts, err = transport.NewSecureOptions(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		if err != nil {
			log.WithError(err).Fatal("failed to load TLS certificate pair")
		}
		log.Info("TLS transport enabled")
	} else {
		secureOpts = transport.NewPlainOptions()
	}
	connCtx := transport.NewConnectionContext(secureOpts)

	publish := func(connectionID, kind, detail string) {
		ev := events.Event{ConnectionID: connectionID, Kind: kind, Detail: detail, At: time.Now()}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := publisher.Publish(ctx, ev); err != nil {
			log.WithError(err).Warn("failed to publish session event")
		}
	}

	handler := ftpsession.NewHandler(ftpsession.Config{
		InactivityTimeout: cfg.Server.InactivityTimeout,
	}, ftpsession.NoopCommandHandler{})

	listener, err := dispatch.New(dispatch.Config{
		Port:         cfg.Server.Port,
		MaxQueueSize: cfg.Server.MaxQueueSize,
	}, pool, connCtx, registry, idleTimer, auditLog, publish, log, handler)
	if err != nil {
		log.WithError(err).Fatal("failed to bind listener")
	}

	runCtx, cancelRun := context.WithCancel(context.Background())
	runDone := make(chan error, 1)
	go func() { runDone <- listener.Run(runCtx) }()

	log.WithField("addr", listener.Addr().String()).Info("ftp-core is listening")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining connections")
	cancelRun()
	<-runDone

	listener.DrainAll()
	log.Info("ftp-core has shut down cleanly")
}
