package connection

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/inovacc/gerritconn/internal/credential"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type harness struct {
	source   *fakeSource
	factory  *fakeFactory
	status   *recordingStatus
	notifier *recordingNotifier
	logs     *observer.ObservedLogs
	manager  *Manager
}

func newHarness(t *testing.T, source *fakeSource) *harness {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)

	h := &harness{
		source:   source,
		factory:  &fakeFactory{},
		status:   &recordingStatus{},
		notifier: &recordingNotifier{},
		logs:     logs,
	}

	m, err := NewManager(Options{
		Source:   source,
		Factory:  h.factory.build,
		Status:   h.status,
		Notifier: h.notifier,
		Logger:   zap.New(core),
	})
	require.NoError(t, err)

	h.manager = m

	return h
}

func (h *harness) missingLogs() int {
	return h.logs.FilterMessage(msgMissingLog).Len()
}

func TestNewManager_RequiresSource(t *testing.T) {
	_, err := NewManager(Options{})
	assert.Error(t, err)
}

func TestNewManager_InitialState(t *testing.T) {
	h := newHarness(t, newFakeSource("", "", ""))

	assert.False(t, h.manager.Connected())
	assert.Nil(t, h.manager.lastAttempt)
	_, published := h.status.last()
	assert.False(t, published, "nothing is published before the first resolution")
}

func TestClient_NoCredentials(t *testing.T) {
	h := newHarness(t, newFakeSource("", "", ""))

	c, err := h.manager.Client(context.Background())

	assert.Nil(t, c)
	assert.ErrorIs(t, err, ErrMissingSettings)
	assert.False(t, h.manager.Connected())

	flag, _ := h.status.last()
	assert.False(t, flag)

	infos, warns := h.notifier.counts()
	assert.Equal(t, 0, infos)
	assert.Equal(t, 1, warns)
	assert.Equal(t, msgMissingSettings, h.notifier.warns[0])
	assert.Equal(t, 1, h.missingLogs())
	assert.Equal(t, 0, h.factory.count())
}

func TestClient_CompleteCredentials(t *testing.T) {
	h := newHarness(t, newFakeSource("https://g.example", "bob", "secret"))

	c, err := h.manager.Client(context.Background())
	require.NoError(t, err)
	require.NotNil(t, c)

	assert.True(t, h.manager.Connected())

	flag, _ := h.status.last()
	assert.True(t, flag)

	infos, warns := h.notifier.counts()
	assert.Zero(t, infos)
	assert.Zero(t, warns)
	assert.Equal(t, "https://g.example", c.(*fakeClient).url)
	assert.Zero(t, c.(*fakeClient).testCalls(), "resolution never verifies credentials")
}

func TestClient_CachesHandle(t *testing.T) {
	h := newHarness(t, newFakeSource("https://g.example", "bob", "secret"))
	ctx := context.Background()

	first, err := h.manager.Client(ctx)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := h.manager.Client(ctx)
		require.NoError(t, err)
		assert.Same(t, first, again)
	}

	assert.Equal(t, 1, h.factory.count())
	assert.Equal(t, 1, h.source.readCount(), "cached path does not read settings")
	assert.Zero(t, first.(*fakeClient).testCalls(), "cached path performs no round trip")
}

func TestClient_DeduplicatesMissingWarnings(t *testing.T) {
	source := newFakeSource("https://g.example", "bob", "")
	h := newHarness(t, source)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := h.manager.Client(ctx)
		assert.ErrorIs(t, err, ErrMissingSettings)
	}

	_, warns := h.notifier.counts()
	assert.Equal(t, 1, warns)
	assert.Equal(t, 1, h.missingLogs())

	source.set("https://g.example", "alice", "")

	_, err := h.manager.Client(ctx)
	assert.ErrorIs(t, err, ErrMissingSettings)

	_, warns = h.notifier.counts()
	assert.Equal(t, 2, warns)
	assert.Equal(t, 2, h.missingLogs())
}

func TestClient_EmptyValueDiffersFromUnset(t *testing.T) {
	source := newFakeSource("", "bob", "secret")
	h := newHarness(t, source)
	ctx := context.Background()

	_, err := h.manager.Client(ctx)
	assert.ErrorIs(t, err, ErrMissingSettings)

	source.setRaw(map[string]string{
		credential.KeyURL:      "",
		credential.KeyUsername: "bob",
		credential.KeyPassword: "secret",
	})

	_, err = h.manager.Client(ctx)
	assert.ErrorIs(t, err, ErrMissingSettings)

	_, warns := h.notifier.counts()
	assert.Equal(t, 2, warns, "switching from unset to empty is a new attempt")
	assert.Equal(t, 0, h.factory.count())
}

func TestClient_MemoTracksLatestAttempt(t *testing.T) {
	source := newFakeSource("a", "", "")
	h := newHarness(t, source)
	ctx := context.Background()

	_, _ = h.manager.Client(ctx)
	source.set("b", "", "")
	_, _ = h.manager.Client(ctx)
	source.set("a", "", "")
	_, _ = h.manager.Client(ctx)

	_, warns := h.notifier.counts()
	assert.Equal(t, 3, warns, "only the latest attempt suppresses warnings")
	require.NotNil(t, h.manager.lastAttempt)
	assert.True(t, h.manager.lastAttempt.Equivalent(credential.Set{URL: credential.Present("a")}))
}

func TestClient_FlagMatchesResult(t *testing.T) {
	source := newFakeSource("", "", "")
	h := newHarness(t, source)
	ctx := context.Background()

	steps := []struct {
		url, username, password string
	}{
		{"", "", ""},
		{"https://g.example", "", ""},
		{"https://g.example", "bob", "secret"},
		{"", "", ""},
	}

	for _, step := range steps {
		source.set(step.url, step.username, step.password)

		c, _ := h.manager.Client(ctx)
		flag, _ := h.status.last()

		assert.Equal(t, c != nil, flag)
		assert.Equal(t, c != nil, h.manager.Connected())
	}
}

func TestClient_KeepsStaleHandleAfterSettingsChange(t *testing.T) {
	source := newFakeSource("https://g.example", "bob", "secret")
	h := newHarness(t, source)
	ctx := context.Background()

	first, err := h.manager.Client(ctx)
	require.NoError(t, err)

	source.set("", "", "")

	again, err := h.manager.Client(ctx)
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.True(t, h.manager.Connected())
}

func TestClient_ConstructionFailure(t *testing.T) {
	h := newHarness(t, newFakeSource("ftp://g.example", "bob", "secret"))
	cause := errors.New("scheme must be http or https")
	h.factory.err = cause
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		c, err := h.manager.Client(ctx)
		assert.Nil(t, c)

		var ce *ConstructError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "ftp://g.example", ce.URL)
		assert.ErrorIs(t, err, cause)
	}

	assert.False(t, h.manager.Connected())

	flag, _ := h.status.last()
	assert.False(t, flag)

	_, warns := h.notifier.counts()
	assert.Equal(t, 1, warns, "construction failures are de-duplicated like missing settings")
	assert.Contains(t, h.notifier.warns[0], "scheme must be http or https")
}

func TestClient_StatusSinkErrorIsLogged(t *testing.T) {
	h := newHarness(t, newFakeSource("https://g.example", "bob", "secret"))
	h.status.err = errors.New("store closed")

	c, err := h.manager.Client(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, c)
	assert.Equal(t, 1, h.logs.FilterMessage("failed to publish connectivity").Len())
}

func TestClient_ConcurrentResolutionBuildsOnce(t *testing.T) {
	h := newHarness(t, newFakeSource("https://g.example", "bob", "secret"))
	h.factory.gate = make(chan struct{})

	const callers = 16

	var (
		wg      sync.WaitGroup
		results = make([]Client, callers)
	)

	for i := 0; i < callers; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			c, err := h.manager.Client(context.Background())
			assert.NoError(t, err)
			results[i] = c
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(h.factory.gate)
	wg.Wait()

	assert.Equal(t, 1, h.factory.count())

	for _, c := range results {
		assert.Same(t, results[0], c)
	}
}

func TestReset(t *testing.T) {
	source := newFakeSource("", "", "")
	h := newHarness(t, source)
	ctx := context.Background()

	_, _ = h.manager.Client(ctx)
	source.set("https://g.example", "bob", "secret")

	first, err := h.manager.Client(ctx)
	require.NoError(t, err)

	h.manager.Reset(ctx)

	assert.False(t, h.manager.Connected())
	flag, _ := h.status.last()
	assert.False(t, flag)
	assert.NotNil(t, h.manager.lastAttempt, "reset keeps the memo")

	second, err := h.manager.Client(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, 2, h.factory.count())
}

func TestRefresh_UnchangedCredentialsKeepHandle(t *testing.T) {
	h := newHarness(t, newFakeSource("https://g.example", "bob", "secret"))
	ctx := context.Background()

	first, err := h.manager.Client(ctx)
	require.NoError(t, err)

	again, err := h.manager.Refresh(ctx)
	require.NoError(t, err)

	assert.Same(t, first, again)
	assert.Equal(t, 1, h.factory.count())
}

func TestRefresh_ChangedCredentialsRebuild(t *testing.T) {
	source := newFakeSource("https://g.example", "bob", "secret")
	h := newHarness(t, source)
	ctx := context.Background()

	first, err := h.manager.Client(ctx)
	require.NoError(t, err)

	source.set("https://g.example", "bob", "rotated")

	second, err := h.manager.Refresh(ctx)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, 2, h.factory.count())
	assert.True(t, h.manager.Connected())
}

func TestRefresh_PublishesOnlyFinalState(t *testing.T) {
	source := newFakeSource("https://g.example", "bob", "secret")
	h := newHarness(t, source)
	ctx := context.Background()

	_, err := h.manager.Client(ctx)
	require.NoError(t, err)

	source.set("https://g.example", "bob", "rotated")

	_, err = h.manager.Refresh(ctx)
	require.NoError(t, err)

	h.status.mu.Lock()
	defer h.status.mu.Unlock()
	assert.Equal(t, []bool{true, true}, h.status.values, "a successful rebuild never publishes a disconnect")
}

func TestRefresh_CredentialsRemoved(t *testing.T) {
	source := newFakeSource("https://g.example", "bob", "secret")
	h := newHarness(t, source)
	ctx := context.Background()

	_, err := h.manager.Client(ctx)
	require.NoError(t, err)

	source.set("https://g.example", "", "")

	c, err := h.manager.Refresh(ctx)
	assert.Nil(t, c)
	assert.ErrorIs(t, err, ErrMissingSettings)
	assert.False(t, h.manager.Connected())

	_, warns := h.notifier.counts()
	assert.Equal(t, 1, warns)
}

func TestRefresh_WithoutCachedClientResolves(t *testing.T) {
	h := newHarness(t, newFakeSource("https://g.example", "bob", "secret"))

	c, err := h.manager.Refresh(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, c)
	assert.True(t, h.manager.Connected())
}

func TestNewManager_Defaults(t *testing.T) {
	m, err := NewManager(Options{Source: newFakeSource("", "", "")})
	require.NoError(t, err)

	_, err = m.Client(context.Background())
	assert.ErrorIs(t, err, ErrMissingSettings)
}
