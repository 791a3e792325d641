// v3
// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"log/slog"

	"github.com/Abhishek5467/dogpose-backend/internal/config"
	"github.com/Abhishek5467/dogpose-backend/internal/events"
	"github.com/Abhishek5467/dogpose-backend/internal/httpapi"
	"github.com/Abhishek5467/dogpose-backend/internal/sensor"
	"github.com/Abhishek5467/dogpose-backend/internal/vision"
)

// Application wires configuration, logging, the sensor freshness store, the
// inference pipeline, the optional feeds, and graceful shutdown.
type Application struct {
	cfg     config.Config
	logger  *slog.Logger
	logFile *os.File
	server  *http.Server
	health  *httpapi.HealthState
	store   *sensor.Store
	feed    *sensor.Feed
	events  *events.Publisher
}

// New prepares a fully wired service instance using the supplied
// configuration. The inference engine is loaded here, exactly once; there is
// no hot reload.
func New(cfg config.Config) (*Application, error) {
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		return nil, errors.New("listen address cannot be empty")
	}
	logPath := filepath.Clean(cfg.LogFilePath)
	if logPath == "" {
		return nil, errors.New("log file path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	lf, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	logger := newLogger(lf)
	health := httpapi.NewHealthState()

	publisher, err := events.New(cfg.KafkaBrokers, cfg.ReadingsTopic, cfg.ResultsTopic,
		logger.With(slog.String("component", "event_publisher")))
	if err != nil {
		_ = lf.Close()
		return nil, fmt.Errorf("event publisher init: %w", err)
	}

	store := sensor.NewStore(logger.With(slog.String("component", "sensor_store")))
	store.SetNotify(func(r sensor.Reading) {
		go publisher.PublishReading(r)
	})

	engine := vision.NewSilhouetteEngine()
	adapter, err := vision.NewAdapter(engine)
	if err != nil {
		_ = publisher.Close()
		_ = lf.Close()
		return nil, fmt.Errorf("engine adapter init: %w", err)
	}
	pipeline, err := vision.NewPipeline(adapter, vision.NewLatestCache(),
		logger.With(slog.String("component", "pose_pipeline")),
		func(res vision.Result) {
			go publisher.PublishResult(res)
		})
	if err != nil {
		_ = publisher.Close()
		_ = lf.Close()
		return nil, fmt.Errorf("pipeline init: %w", err)
	}

	var feed *sensor.Feed
	if strings.TrimSpace(cfg.MQTTBroker) != "" {
		feed, err = sensor.NewFeed(cfg.MQTTBroker, cfg.MQTTTopic, store,
			logger.With(slog.String("component", "mqtt_feed")))
		if err != nil {
			_ = publisher.Close()
			_ = lf.Close()
			return nil, fmt.Errorf("mqtt feed init: %w", err)
		}
	}

	handlers := &httpapi.Handlers{
		Log:       logger.With(slog.String("component", "http")),
		Store:     store,
		Pipeline:  pipeline,
		MaxUpload: cfg.MaxUploadBytes,
	}
	router := httpapi.NewRouter(logger, health, handlers)
	server := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           router,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPWriteTimeout,
	}

	return &Application{
		cfg:     cfg,
		logger:  logger,
		logFile: lf,
		server:  server,
		health:  health,
		store:   store,
		feed:    feed,
		events:  publisher,
	}, nil
}

// Logger exposes the configured slog logger so callers (such as main) can
// emit structured logs after initialization.
func (a *Application) Logger() *slog.Logger {
	return a.logger
}

// Run blocks until the context is cancelled or the HTTP server terminates
// unexpectedly. The staleness evaluator runs for the whole lifetime of the
// context and talks to the store only through its atomic write path.
func (a *Application) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.feed != nil {
		if err := a.feed.Start(); err != nil {
			return fmt.Errorf("mqtt feed start: %w", err)
		}
	}

	evalDone := make(chan struct{})
	go func() {
		defer close(evalDone)
		a.store.Run(ctx, a.cfg.EvaluatorInterval)
	}()

	httpCh := make(chan error, 1)
	go func() {
		a.health.SetReady(true)
		a.logger.Info("http_server_listen", slog.String("address", a.cfg.ListenAddress))
		err := a.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpCh <- err
			return
		}
		httpCh <- nil
	}()

	var httpErr error
	select {
	case err := <-httpCh:
		httpErr = err
		if err != nil {
			a.logger.Error("http_server_error", slog.Any("err", err))
		}
		cancel()
	case <-ctx.Done():
		a.logger.Info("shutdown_signal")
	}

	a.health.SetReady(false)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	if err := a.server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("server_shutdown_failed", slog.Any("err", err))
		if httpErr == nil {
			httpErr = fmt.Errorf("shutdown: %w", err)
		}
	}
	shutdownCancel()

	<-evalDone
	if a.feed != nil {
		a.feed.Stop()
	}

	if httpErr != nil {
		return httpErr
	}
	a.logger.Info("shutdown_complete")
	return nil
}

// Close flushes and closes resources owned by the application instance.
func (a *Application) Close() error {
	if a.events != nil {
		if err := a.events.Close(); err != nil {
			return err
		}
		a.events = nil
	}
	if a.logFile == nil {
		return nil
	}
	if err := a.logFile.Close(); err != nil {
		return err
	}
	a.logFile = nil
	return nil
}
