package transport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"alert-desk/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

func TestAlertsEndpoint(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{"http://backend:8000", "ws://backend:8000/ws/alerts/"},
		{"https://backend", "wss://backend/ws/alerts/"},
		{"http://backend:8000/", "ws://backend:8000/ws/alerts/"},
		{"ws://backend:8000", "ws://backend:8000/ws/alerts/"},
	}
	for _, tc := range cases {
		got, err := AlertsEndpoint(tc.base)
		if err != nil {
			t.Fatalf("AlertsEndpoint(%q) error: %v", tc.base, err)
		}
		if got != tc.want {
			t.Fatalf("AlertsEndpoint(%q) = %q, want %q", tc.base, got, tc.want)
		}
	}

	if _, err := AlertsEndpoint("ftp://backend"); err == nil {
		t.Fatal("expected error for unsupported scheme")
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// testServer accepts websocket connections on /ws/alerts/ and counts dials.
type testServer struct {
	srv   *httptest.Server
	dials int32
	conns chan *websocket.Conn
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{conns: make(chan *websocket.Conn, 16)}
	ts.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws/alerts/" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		atomic.AddInt32(&ts.dials, 1)
		ts.conns <- conn
	}))
	t.Cleanup(ts.srv.Close)
	return ts
}

func (ts *testServer) dialCount() int32 {
	return atomic.LoadInt32(&ts.dials)
}

func (ts *testServer) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-ts.conns:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for connection")
		return nil
	}
}

func newTestChannel(endpoint string, onFrame func([]byte)) *Channel {
	if onFrame == nil {
		onFrame = func([]byte) {}
	}
	c := NewChannel(func() string { return endpoint }, onFrame, zerolog.Nop())
	c.retryDelay = 20 * time.Millisecond
	return c
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestOpenRequestsResync(t *testing.T) {
	ts := newTestServer(t)
	c := newTestChannel(ts.srv.URL, nil)
	defer c.Close()

	if err := c.Open(); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	conn := ts.accept(t)
	defer conn.Close()

	var first, second struct {
		Type string `json:"type"`
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("reading first outbound message: %v", err)
	}
	if err := conn.ReadJSON(&second); err != nil {
		t.Fatalf("reading second outbound message: %v", err)
	}
	if first.Type != "get_alerts" || second.Type != "get_sounds" {
		t.Fatalf("expected get_alerts then get_sounds, got %q then %q", first.Type, second.Type)
	}
	if c.State() != StateOpen {
		t.Fatalf("expected open state, got %v", c.State())
	}
}

func TestSendWhileClosedIsSilentNoOp(t *testing.T) {
	c := newTestChannel("http://127.0.0.1:1", nil)
	// Never opened; must not panic or buffer.
	c.Send(map[string]string{"type": "get_alerts"})
	if c.State() != StateIdle {
		t.Fatalf("expected idle state, got %v", c.State())
	}
}

func TestFramesDeliveredInArrivalOrder(t *testing.T) {
	ts := newTestServer(t)

	frames := make(chan string, 8)
	c := newTestChannel(ts.srv.URL, func(raw []byte) {
		var m struct {
			Seq int `json:"seq"`
		}
		json.Unmarshal(raw, &m)
		frames <- string(raw)
	})
	defer c.Close()

	if err := c.Open(); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	conn := ts.accept(t)
	defer conn.Close()

	for _, payload := range []string{`{"seq":1}`, `{"seq":2}`, `{"seq":3}`} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
			t.Fatalf("server write failed: %v", err)
		}
	}

	for _, want := range []string{`{"seq":1}`, `{"seq":2}`, `{"seq":3}`} {
		select {
		case got := <-frames:
			if got != want {
				t.Fatalf("expected frame %q, got %q", want, got)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for frame")
		}
	}
}

func TestUnexpectedCloseReconnects(t *testing.T) {
	ts := newTestServer(t)
	c := newTestChannel(ts.srv.URL, nil)
	defer c.Close()

	if err := c.Open(); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	conn := ts.accept(t)

	// Simulate a network failure, not a user close.
	conn.Close()

	waitFor(t, 2*time.Second, func() bool { return ts.dialCount() >= 2 },
		"expected automatic reconnect after unexpected close")

	// The attempt counter does not reset on a successful automatic
	// reconnect, only on a user-initiated one.
	if got := c.ConnState().ReconnectAttempts; got != 1 {
		t.Fatalf("expected 1 recorded reconnect attempt, got %d", got)
	}
}

func TestUserCloseSchedulesNoReconnect(t *testing.T) {
	ts := newTestServer(t)
	c := newTestChannel(ts.srv.URL, nil)

	if err := c.Open(); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	ts.accept(t)

	c.Close()

	time.Sleep(100 * time.Millisecond)
	if got := ts.dialCount(); got != 1 {
		t.Fatalf("user close must not reconnect, saw %d dials", got)
	}
	state := c.ConnState()
	if state.Connected || state.BridgeConnected || state.ReconnectAttempts != 0 {
		t.Fatalf("expected zeroed connection state after close, got %+v", state)
	}
}

func TestCloseInvalidatesAlreadyFiredRetry(t *testing.T) {
	ts := newTestServer(t)
	c := newTestChannel(ts.srv.URL, nil)

	if err := c.Open(); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	ts.accept(t)

	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	c.Close()

	// A retry timer that fired just before Close ran delivers its callback
	// afterwards, too late for Timer.Stop; the stale generation must stop
	// it from redialing.
	c.retryConnect(gen)

	time.Sleep(100 * time.Millisecond)
	if got := ts.dialCount(); got != 1 {
		t.Fatalf("stale retry must not redial after user close, saw %d dials", got)
	}
	if c.State() != StateClosed {
		t.Fatalf("expected channel to stay closed, got %v", c.State())
	}
	state := c.ConnState()
	if state.Connected || state.BridgeConnected || state.ReconnectAttempts != 0 {
		t.Fatalf("expected zeroed connection state after close, got %+v", state)
	}
}

func TestReconnectBudgetIsBounded(t *testing.T) {
	// Nothing listens here; every dial fails.
	c := newTestChannel("http://127.0.0.1:1", nil)

	c.Open()

	waitFor(t, 3*time.Second, func() bool {
		return c.ConnState().ReconnectAttempts == MaxReconnectAttempts
	}, "expected retry counter to reach the maximum")

	// Give any stray timer a chance to fire, then confirm no further
	// attempt was scheduled.
	time.Sleep(200 * time.Millisecond)
	if got := c.ConnState().ReconnectAttempts; got != MaxReconnectAttempts {
		t.Fatalf("expected attempts to stay at %d, got %d", MaxReconnectAttempts, got)
	}
	if c.State() != StateClosed {
		t.Fatalf("expected terminally closed channel, got %v", c.State())
	}

	// A user-initiated reconnect resets the budget.
	c.Open()
	waitFor(t, time.Second, func() bool {
		return c.ConnState().ReconnectAttempts >= 1
	}, "expected retries to resume after user reconnect")
	c.Close()
}

func TestBridgeStatusNotifiesObservers(t *testing.T) {
	c := newTestChannel("http://127.0.0.1:1", nil)

	var states []models.ConnectionState
	c.OnStateChange(func(s models.ConnectionState) {
		states = append(states, s)
	})

	c.SetBridgeConnected(true)
	if len(states) != 1 || !states[0].BridgeConnected {
		t.Fatalf("expected bridge-connected notification, got %+v", states)
	}

	// No change, no notification.
	c.SetBridgeConnected(true)
	if len(states) != 1 {
		t.Fatalf("unchanged status must not notify, got %+v", states)
	}
}
