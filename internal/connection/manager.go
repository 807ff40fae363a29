package connection

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/inovacc/gerritconn/internal/credential"
	"github.com/inovacc/gerritconn/internal/gerrit"
	"github.com/inovacc/gerritconn/internal/telemetry"
)

// ConnectedKey is the context property mirroring the connectivity flag.
const ConnectedKey = "gerrit:connected"

// User-facing and diagnostic messages.
const (
	msgMissingLog      = "Missing URL, username or password. Please set them in your settings. (gerrit.auth.{url|username|password})"
	msgMissingSettings = `Missing Gerrit API connection settings. Please enter them using the "gerritconn credentials" command or in your settings file`
	msgInvalidSettings = "Invalid Gerrit API connection settings: %v"
	msgVerifyFailed    = "Connection to Gerrit failed, please check your settings and/or connection"
	msgVerifyOK        = "Successfully connected!"
)

// Client is an established connection to Gerrit.
type Client interface {
	TestConnection(ctx context.Context) error
}

// Factory builds a client from complete credentials without network I/O.
type Factory func(url, username, password string) (Client, error)

// StatusSink receives the connectivity flag.
type StatusSink interface {
	SetContext(ctx context.Context, key string, value bool) error
}

// Notifier shows messages to the user.
type Notifier interface {
	Info(ctx context.Context, text string)
	Warn(ctx context.Context, text string)
}

// Options configures NewManager. Source is required.
type Options struct {
	Source   credential.Getter
	Factory  Factory
	Status   StatusSink
	Notifier Notifier
	Logger   *zap.Logger
	Metrics  *telemetry.Metrics
}

// Manager caches a single Gerrit client and tracks connectivity.
//
// A new Manager has an empty cache, is disconnected and has no memo of
// previously attempted credentials.
type Manager struct {
	source   credential.Getter
	factory  Factory
	status   StatusSink
	notifier Notifier
	logger   *zap.Logger
	metrics  *telemetry.Metrics

	flight singleflight.Group

	mu          sync.Mutex
	client      Client
	builtFrom   credential.Set
	lastAttempt *credential.Set
}

// NewManager creates a Manager.
func NewManager(opts Options) (*Manager, error) {
	if opts.Source == nil {
		return nil, errors.New("credential source is required")
	}

	m := &Manager{
		source:   opts.Source,
		factory:  opts.Factory,
		status:   opts.Status,
		notifier: opts.Notifier,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}

	if m.factory == nil {
		m.factory = GerritFactory()
	}

	if m.status == nil {
		m.status = nopStatus{}
	}

	if m.notifier == nil {
		m.notifier = nopNotifier{}
	}

	if m.logger == nil {
		m.logger = zap.NewNop()
	}

	m.logger = m.logger.Named("connection")

	return m, nil
}

// GerritFactory returns a Factory building go-gerrit backed clients.
func GerritFactory(opts ...gerrit.Option) Factory {
	return func(url, username, password string) (Client, error) {
		c, err := gerrit.New(url, username, password, opts...)
		if err != nil {
			return nil, err
		}

		return c, nil
	}
}

// Client returns the cached client, building one from the current
// credentials when none is cached. It returns ErrMissingSettings while the
// credentials are incomplete and a *ConstructError when the client cannot
// be built. Overlapping calls share a single resolution.
func (m *Manager) Client(ctx context.Context) (Client, error) {
	if c := m.cached(); c != nil {
		m.metrics.ObserveResolution(telemetry.ResolutionCached)
		return c, nil
	}

	v, err, _ := m.flight.Do("resolve", func() (any, error) {
		return m.resolve(ctx)
	})
	if err != nil {
		return nil, err
	}

	return v.(Client), nil
}

// Connected reports whether a client is cached.
func (m *Manager) Connected() bool {
	return m.cached() != nil
}

// Reset drops the cached client and marks the host disconnected. The memo
// of attempted credentials is kept.
func (m *Manager) Reset(ctx context.Context) {
	m.mu.Lock()
	had := m.client != nil
	m.client = nil
	m.builtFrom = credential.Set{}
	m.mu.Unlock()

	if had {
		m.logger.Debug("cached gerrit client dropped")
	}

	m.setConnected(ctx, false)
}

// Refresh re-reads the credentials. The cached client is kept when it was
// built from an equivalent set; otherwise it is dropped and a new one is
// resolved. The connectivity flag is published once, for the final state.
func (m *Manager) Refresh(ctx context.Context) (Client, error) {
	fresh := credential.Read(m.source)

	m.mu.Lock()
	c, builtFrom := m.client, m.builtFrom
	m.mu.Unlock()

	if c != nil && builtFrom.Equivalent(fresh) {
		return c, nil
	}

	if c != nil {
		m.logger.Info("gerrit credentials changed, rebuilding client", zap.Stringer("credentials", fresh))

		// Only the outcome of the rebuild is published.
		m.mu.Lock()
		if m.client == c {
			m.client = nil
			m.builtFrom = credential.Set{}
		}
		m.mu.Unlock()
	}

	return m.Client(ctx)
}

func (m *Manager) cached() Client {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.client
}

func (m *Manager) resolve(ctx context.Context) (Client, error) {
	if c := m.cached(); c != nil {
		return c, nil
	}

	set := credential.Read(m.source)

	if !set.Complete() {
		m.setConnected(ctx, false)
		m.metrics.ObserveResolution(telemetry.ResolutionMissing)

		if m.remember(set) {
			m.logger.Warn(msgMissingLog, zap.Strings("missing", set.Missing()))
			m.notifier.Warn(ctx, msgMissingSettings)
		}

		return nil, ErrMissingSettings
	}

	url, username, password := set.URL.Value(), set.Username.Value(), set.Password.Value()

	c, err := m.factory(url, username, password)
	if err != nil {
		m.setConnected(ctx, false)
		m.metrics.ObserveResolution(telemetry.ResolutionInvalid)

		if m.remember(set) {
			m.logger.Warn("failed to create gerrit client", zap.String("url", url), zap.Error(err))
			m.notifier.Warn(ctx, fmt.Sprintf(msgInvalidSettings, err))
		}

		return nil, &ConstructError{URL: url, Err: err}
	}

	m.mu.Lock()
	m.client = c
	m.builtFrom = set
	m.mu.Unlock()

	m.setConnected(ctx, true)
	m.metrics.ObserveResolution(telemetry.ResolutionCreated)
	m.logger.Debug("gerrit client created", zap.String("url", url), zap.String("username", username))

	return c, nil
}

// remember stores set as the last attempted credentials and reports
// whether it differs from the previous attempt.
func (m *Manager) remember(set credential.Set) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	changed := m.lastAttempt == nil || !m.lastAttempt.Equivalent(set)
	m.lastAttempt = &set

	return changed
}

func (m *Manager) setConnected(ctx context.Context, connected bool) {
	m.metrics.SetConnected(connected)

	if err := m.status.SetContext(ctx, ConnectedKey, connected); err != nil {
		m.logger.Warn("failed to publish connectivity", zap.Bool("connected", connected), zap.Error(err))
	}
}

type nopStatus struct{}

func (nopStatus) SetContext(context.Context, string, bool) error { return nil }

type nopNotifier struct{}

func (nopNotifier) Info(context.Context, string) {}
func (nopNotifier) Warn(context.Context, string) {}
