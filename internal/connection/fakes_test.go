package connection

import (
	"context"
	"errors"
	"sync"

	"github.com/inovacc/gerritconn/internal/credential"
)

type fakeSource struct {
	mu     sync.Mutex
	values map[string]string
	reads  int
}

func newFakeSource(url, username, password string) *fakeSource {
	s := &fakeSource{values: map[string]string{}}
	s.set(url, username, password)

	return s
}

func (s *fakeSource) set(url, username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = map[string]string{}
	for k, v := range map[string]string{
		credential.KeyURL:      url,
		credential.KeyUsername: username,
		credential.KeyPassword: password,
	} {
		if v != "" {
			s.values[k] = v
		}
	}
}

// setRaw replaces the values verbatim, keeping keys set to "".
func (s *fakeSource) setRaw(values map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = values
}

func (s *fakeSource) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key == credential.KeyURL {
		s.reads++
	}

	v, ok := s.values[key]

	return v, ok
}

func (s *fakeSource) readCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.reads
}

type fakeClient struct {
	url   string
	err   error
	mu    sync.Mutex
	calls int
}

func (c *fakeClient) TestConnection(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++

	return c.err
}

func (c *fakeClient) testCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.calls
}

type fakeFactory struct {
	mu      sync.Mutex
	built   []*fakeClient
	err     error
	testErr error
	gate    chan struct{}
}

func (f *fakeFactory) build(url, _, _ string) (Client, error) {
	if f.gate != nil {
		<-f.gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	c := &fakeClient{url: url, err: f.testErr}
	f.built = append(f.built, c)

	return c, nil
}

func (f *fakeFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.built)
}

type recordingStatus struct {
	mu     sync.Mutex
	values []bool
	err    error
}

func (r *recordingStatus) SetContext(_ context.Context, key string, value bool) error {
	if key != ConnectedKey {
		return errors.New("unexpected key " + key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, value)

	return r.err
}

func (r *recordingStatus) last() (bool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.values) == 0 {
		return false, false
	}

	return r.values[len(r.values)-1], true
}

type recordingNotifier struct {
	mu    sync.Mutex
	infos []string
	warns []string
}

func (n *recordingNotifier) Info(_ context.Context, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.infos = append(n.infos, text)
}

func (n *recordingNotifier) Warn(_ context.Context, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.warns = append(n.warns, text)
}

func (n *recordingNotifier) counts() (int, int) {
	n.mu.Lock()
	defer n.mu.Unlock()

	return len(n.infos), len(n.warns)
}
