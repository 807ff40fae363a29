package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/inovacc/gerritconn/internal/application"
	"github.com/inovacc/gerritconn/internal/connection"
	"github.com/inovacc/gerritconn/internal/logging"
	"github.com/inovacc/gerritconn/internal/notify"
	"github.com/inovacc/gerritconn/internal/settings"
	"github.com/inovacc/gerritconn/internal/store"
	"github.com/inovacc/gerritconn/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// app holds the services shared by every command of one invocation.
type app struct {
	logger   *zap.Logger
	settings *settings.Settings
	store    store.Store
	notifier *notify.Dispatcher
	registry *prometheus.Registry
	metrics  *telemetry.Metrics
	manager  *connection.Manager

	closeLog func() error
}

type appOptions struct {
	configPath string
	verbose    bool
	stderr     io.Writer
}

func newApp(opts appOptions) (*app, error) {
	dir, err := application.GetApplicationDirectory()
	if err != nil {
		return nil, err
	}

	logDir, err := application.LogDirectory()
	if err != nil {
		return nil, err
	}

	// User-facing messages reach stderr through the notifier; the
	// diagnostic log is mirrored there only when verbose.
	logOpts := logging.Options{Dir: logDir, Verbose: opts.verbose}
	if opts.verbose {
		logOpts.Console = opts.stderr
	}

	logger, closeLog, err := logging.New(logOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	a := &app{logger: logger, closeLog: closeLog}

	path := opts.configPath
	if path == "" {
		path = settings.DefaultPath(dir)
	} else if path, err = expandPath(path); err != nil {
		_ = a.Close()
		return nil, err
	}

	a.settings, err = settings.Load(path, logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	// Another invocation may hold the database; connectivity still works
	// without persisting the flag.
	var status connection.StatusSink

	if st, err := store.Open(dir); err != nil {
		logger.Warn("status store unavailable", zap.String("dir", dir), zap.Error(err))
	} else {
		a.store = st
		status = st
	}

	a.notifier = notify.NewDispatcher(logger)
	a.notifier.Register(notify.NewConsoleSender(opts.stderr))

	if webhook, ok := a.settings.Get(settings.KeySlackWebhook); ok && webhook != "" {
		if err := notify.ValidateWebhookURL(webhook); err != nil {
			logger.Warn("ignoring slack webhook", zap.Error(err))
		} else {
			a.notifier.Register(notify.NewSlackSender(webhook, notify.WithWarningsOnly()))
		}
	}

	a.registry = prometheus.NewRegistry()

	a.metrics, err = telemetry.NewMetrics(a.registry)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.manager, err = connection.NewManager(connection.Options{
		Source:   a.settings,
		Status:   status,
		Notifier: a.notifier,
		Logger:   logger,
		Metrics:  a.metrics,
	})
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	return a, nil
}

// Close releases the store and flushes the diagnostic log.
func (a *app) Close() error {
	var errs []error

	if a.store != nil {
		errs = append(errs, a.store.Close())
	}

	if a.logger != nil {
		_ = a.logger.Sync()
	}

	if a.closeLog != nil {
		errs = append(errs, a.closeLog())
	}

	return errors.Join(errs...)
}
