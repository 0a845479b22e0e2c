package novacom

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

type recordedCall struct {
	action string
	params []string
}

// stubCaller returns canned replies and records every call.
type stubCaller struct {
	mu      sync.Mutex
	replies map[string][]byte
	err     error
	calls   []recordedCall
}

func newStubCaller() *stubCaller {
	return &stubCaller{replies: map[string][]byte{}}
}

func (s *stubCaller) Call(_ context.Context, action string, params ...string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, recordedCall{action: action, params: append([]string(nil), params...)})
	if s.err != nil {
		return nil, s.err
	}
	if data, ok := s.replies[action]; ok {
		return data, nil
	}
	return []byte(`{"status":"success"}`), nil
}

func (s *stubCaller) last(t *testing.T) recordedCall {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		t.Fatalf("expected a backend call")
	}
	return s.calls[len(s.calls)-1]
}

// newTestBridge serves handler over an in-memory listener and returns a
// caller wired to it.
func newTestBridge(t *testing.T, timeout time.Duration, handler fasthttp.RequestHandler) *HTTPCaller {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: handler}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = ln.Close() })

	c := NewHTTPCaller("http://bridge.test/api", timeout, nil)
	c.client.Dial = func(string) (net.Conn, error) { return ln.Dial() }
	return c
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
