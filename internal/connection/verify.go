package connection

import (
	"context"

	"go.uber.org/zap"

	"github.com/inovacc/gerritconn/internal/credential"
	"github.com/inovacc/gerritconn/internal/telemetry"
)

// VerifyOutcome classifies a verification.
type VerifyOutcome int

const (
	VerifyOK VerifyOutcome = iota
	VerifyMissingSettings
	VerifyFailed
)

func (o VerifyOutcome) String() string {
	switch o {
	case VerifyOK:
		return "ok"
	case VerifyMissingSettings:
		return "missing settings"
	case VerifyFailed:
		return "failed"
	}
	return "unknown"
}

// VerifyResult is the outcome of a verification. Err carries the cause of
// a failed round trip or construction.
type VerifyResult struct {
	Outcome VerifyOutcome
	Err     error
}

// OK reports whether the server accepted the credentials.
func (r VerifyResult) OK() bool {
	return r.Outcome == VerifyOK
}

// CheckConnection verifies the credentials currently in the settings.
func (m *Manager) CheckConnection(ctx context.Context) VerifyResult {
	return m.Verify(ctx, credential.Read(m.source))
}

// Verify builds a throwaway client from set and performs one round trip
// against the server. The user is told the result. The cached client, the
// connectivity flag and the attempted-credentials memo are left untouched.
func (m *Manager) Verify(ctx context.Context, set credential.Set) VerifyResult {
	if !set.Complete() {
		m.metrics.ObserveVerification(telemetry.VerificationMissing)
		m.notifier.Warn(ctx, msgMissingLog)

		return VerifyResult{Outcome: VerifyMissingSettings, Err: ErrMissingSettings}
	}

	url := set.URL.Value()

	c, err := m.factory(url, set.Username.Value(), set.Password.Value())
	if err != nil {
		return m.verifyFailed(ctx, url, &ConstructError{URL: url, Err: err})
	}

	if err := c.TestConnection(ctx); err != nil {
		return m.verifyFailed(ctx, url, err)
	}

	m.metrics.ObserveVerification(telemetry.VerificationOK)
	m.logger.Info("gerrit credentials verified", zap.String("url", url))
	m.notifier.Info(ctx, msgVerifyOK)

	return VerifyResult{Outcome: VerifyOK}
}

func (m *Manager) verifyFailed(ctx context.Context, url string, err error) VerifyResult {
	m.metrics.ObserveVerification(telemetry.VerificationFailed)
	m.logger.Warn("gerrit verification failed", zap.String("url", url), zap.Error(err))
	m.notifier.Warn(ctx, msgVerifyFailed)

	return VerifyResult{Outcome: VerifyFailed, Err: err}
}
