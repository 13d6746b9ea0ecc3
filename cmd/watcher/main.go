package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"solana-wallet-watcher/internal/cache"
	"solana-wallet-watcher/internal/config"
	"solana-wallet-watcher/internal/enrich"
	"solana-wallet-watcher/internal/keys"
	"solana-wallet-watcher/internal/metacache"
	"solana-wallet-watcher/internal/models"
	"solana-wallet-watcher/internal/pipeline"
	"solana-wallet-watcher/internal/queue"
	"solana-wallet-watcher/internal/server"
	"solana-wallet-watcher/internal/storage"
	"solana-wallet-watcher/internal/stream"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

// main wires the whole watcher together: key rotation, the rate-limited
// enrichment queue, the push-stream manager, the classification pipeline,
// the optional Redis/ClickHouse sinks and the control-plane API.
func main() {
	// Initialize structured logger with custom formatting
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown (Ctrl+C, SIGTERM)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Credential rotation: timer-driven plus a call-count threshold
	rotator, err := keys.NewRotator(keys.RotatorConfig{
		Keys:          cfg.APIKeys,
		CallThreshold: cfg.RotateCallThreshold,
		Interval:      cfg.RotateInterval,
		Logger:        logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create key rotator")
	}
	go rotator.Start(ctx)

	// Per-kind FIFO queue that paces every outbound enrichment call
	callQueue := queue.New(queue.Config{
		Interval: cfg.EnrichInterval,
		Logger:   logger,
	})
	defer callQueue.Close()

	metaCache := metacache.New(cfg.MetadataTTL, cfg.MetadataSweep)

	enricher := enrich.NewClient(enrich.ClientConfig{
		APIURL:  cfg.APIURL,
		RPCURL:  cfg.RPCURL,
		Timeout: cfg.HTTPTimeout,
		Rotator: rotator,
		Queue:   callQueue,
		Cache:   metaCache,
		Logger:  logger,
	})

	// Optional Redis event cache
	var eventCache storage.EventCache
	if cfg.RedisAddr != "" {
		rclient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rclient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("redis unavailable, recent-events cache disabled")
			_ = rclient.Close()
		} else {
			ec := cache.NewEventCacheFromClient(rclient, logger)
			eventCache = ec
			defer ec.Close()
		}
	}

	// Optional ClickHouse analytics sink
	var eventStore storage.EventStore
	if cfg.ClickHouseAddr != "" {
		store, err := cache.NewClickHouseStore(cache.ClickHouseConfig{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDatabase,
			Username: cfg.ClickHouseUsername,
			Password: cfg.ClickHousePassword,
		})
		if err != nil {
			logger.WithError(err).Warn("clickhouse unavailable, analytics sink disabled")
		} else {
			eventStore = store
			defer store.Close()
		}
	}

	// The stream manager owns the watched-address set; the pipeline reads it
	// through a snapshot func so both always agree on membership
	var manager *stream.Manager

	pipe, err := pipeline.New(pipeline.Config{
		Enricher: enricher,
		Watched:  func() map[string]bool { return manager.WatchedAddresses() },
		Handler: func(ev *models.ClassifiedEvent) {
			logger.WithFields(logrus.Fields{
				"signature": ev.Signature,
				"wallet":    ev.Wallet,
				"symbol":    ev.Symbol,
				"direction": ev.Direction,
				"amount":    ev.AmountText,
			}).Info("classified event")
		},
		Cache:  eventCache,
		Store:  eventStore,
		Logger: logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create pipeline")
	}

	manager, err = stream.NewManager(stream.ManagerConfig{
		WSURL:      cfg.WSURL,
		Keys:       rotator,
		Handler:    pipe.HandleSignature,
		Backoff:    cfg.ReconnectBackoff,
		BackoffCap: cfg.ReconnectBackoffCap,
		MaxRetries: cfg.ReconnectMaxRetries,
		Logger:     logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create stream manager")
	}
	defer manager.Stop()

	// A rotated key must be rebound at handshake time
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-rotator.Rotated():
				manager.OnCredentialRotated()
			}
		}
	}()

	for _, address := range cfg.WatchAddresses {
		if manager.AddAddress(address) {
			logger.WithField("address", address).Info("watching address")
		}
	}

	// Control-plane API
	srv, err := server.NewServer(server.ServerDeps{
		Handlers: &server.Handlers{
			Stream:  manager,
			Cache:   eventCache,
			Meta:    metaCache,
			Queue:   callQueue,
			DevMode: cfg.DevMode,
			Logger:  logger,
		},
		Config: server.ServerConfig{
			Addr:            cfg.APIAddr,
			DevMode:         cfg.DevMode,
			APIKey:          cfg.APIKey,
			ReadTimeout:     cfg.APIReadTimeout,
			WriteTimeout:    cfg.APIWriteTimeout,
			IdleTimeout:     cfg.APIIdleTimeout,
			ShutdownTimeout: cfg.APIShutdownTimeout,
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create http server")
	}

	go func() {
		<-sigCh // Wait for shutdown signal
		logger.Info("shutting down")
		cancel()
		_ = srv.Shutdown(context.Background())
	}()

	logger.WithField("addr", cfg.APIAddr).Info("watcher starting")
	if err := srv.Start(); err != nil && err != http.ErrServerClosed {
		logger.WithError(err).Fatal("api server failed")
	}

	// Wait for server to be fully shut down
	_ = srv.WaitClosed(context.Background())
}
