package transport

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"alert-desk/internal/models"
	"alert-desk/internal/protocol"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// ReconnectDelay is the fixed pause between automatic reconnect
	// attempts after an unexpected closure.
	ReconnectDelay = 3 * time.Second
	// MaxReconnectAttempts bounds automatic reconnection. Once exhausted
	// the channel stays closed until the user reconnects; the client never
	// retries forever against a persistently unreachable backend.
	MaxReconnectAttempts = 5

	dialTimeout  = 10 * time.Second
	writeTimeout = 10 * time.Second
)

// State of the transport channel.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// AlertsEndpoint derives the persistent channel URL from the backend base
// URL: http(s)://host -> ws(s)://host/ws/alerts/.
func AlertsEndpoint(base string) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(base, "/"))
	if err != nil {
		return "", fmt.Errorf("parsing backend url %q: %w", base, err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported backend url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/alerts/"
	return u.String(), nil
}

// Channel owns the single bidirectional connection to the backend. It
// reconnects with a fixed delay and a bounded retry budget after unexpected
// closures; a user-initiated Close never triggers reconnection. Every
// connection-state change is delivered to observers synchronously.
type Channel struct {
	endpoint func() string
	onFrame  func([]byte)
	dialer   *websocket.Dialer
	logger   zerolog.Logger

	// retryDelay is ReconnectDelay; tests shorten it.
	retryDelay time.Duration

	mu              sync.Mutex
	state           State
	conn            *websocket.Conn
	gen             int
	attempts        int
	bridgeConnected bool
	retryTimer      *time.Timer

	writeMu sync.Mutex

	observers []func(models.ConnectionState)
}

// NewChannel creates an idle channel. endpoint is read at dial time so an
// updated settings value takes effect on the next explicit reconnect, never
// mid-flight. onFrame receives inbound frames one at a time in arrival
// order.
func NewChannel(endpoint func() string, onFrame func([]byte), logger zerolog.Logger) *Channel {
	return &Channel{
		endpoint:   endpoint,
		onFrame:    onFrame,
		dialer:     &websocket.Dialer{HandshakeTimeout: dialTimeout},
		logger:     logger.With().Str("component", "transport").Logger(),
		retryDelay: ReconnectDelay,
		state:      StateIdle,
	}
}

// OnStateChange registers a connection-state observer. Observers are called
// synchronously; wire them before Open.
func (c *Channel) OnStateChange(fn func(models.ConnectionState)) {
	c.observers = append(c.observers, fn)
}

// State returns the current channel state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ConnState returns the current connection-state snapshot.
func (c *Channel) ConnState() models.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connStateLocked()
}

func (c *Channel) connStateLocked() models.ConnectionState {
	return models.ConnectionState{
		Connected:         c.state == StateOpen,
		BridgeConnected:   c.bridgeConnected,
		ReconnectAttempts: c.attempts,
	}
}

// Open establishes the connection. It is the user-initiated entry point:
// the retry counter resets to zero and any pending reconnect is cancelled.
func (c *Channel) Open() error {
	c.mu.Lock()
	if c.state == StateOpen || c.state == StateConnecting {
		c.mu.Unlock()
		return nil
	}
	c.stopRetryLocked()
	c.attempts = 0
	c.mu.Unlock()
	return c.connect()
}

// Close performs a deliberate shutdown. Any pending reconnect timer is
// cancelled so a stray reconnection cannot race the disconnect, and the
// connection state resets to all-zero.
func (c *Channel) Close() {
	c.mu.Lock()
	c.stopRetryLocked()
	c.gen++
	c.attempts = 0
	c.bridgeConnected = false
	c.state = StateClosed
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		deadline := time.Now().Add(writeTimeout)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		conn.Close()
	}
	c.logger.Info().Msg("Channel closed by user")
	c.notify()
}

// Send marshals v and transmits it. It is a silent no-op when the channel
// is not open; nothing is buffered for later.
func (c *Channel) Send(v interface{}) {
	c.mu.Lock()
	conn := c.conn
	open := c.state == StateOpen
	c.mu.Unlock()
	if !open || conn == nil {
		return
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(v); err != nil {
		c.logger.Warn().Err(err).Msg("Write failed")
	}
}

// SetBridgeConnected records the second-order liveness signal reported by
// the backend and notifies observers.
func (c *Channel) SetBridgeConnected(connected bool) {
	c.mu.Lock()
	changed := c.bridgeConnected != connected
	c.bridgeConnected = connected
	c.mu.Unlock()
	if changed {
		c.notify()
	}
}

func (c *Channel) connect() error {
	c.mu.Lock()
	if c.state == StateOpen {
		c.mu.Unlock()
		return nil
	}
	c.state = StateConnecting
	gen := c.gen
	base := c.endpoint()
	c.mu.Unlock()
	c.notify()

	wsURL, err := AlertsEndpoint(base)
	if err != nil {
		// A malformed endpoint cannot be fixed by retrying.
		c.logger.Error().Err(err).Msg("Invalid backend endpoint")
		c.mu.Lock()
		c.state = StateClosed
		c.mu.Unlock()
		c.notify()
		return err
	}

	c.logger.Info().Str("url", wsURL).Msg("Connecting")
	conn, _, err := c.dialer.Dial(wsURL, nil)
	if err != nil {
		c.mu.Lock()
		stale := c.gen != gen
		if !stale {
			c.state = StateClosed
		}
		c.mu.Unlock()
		if stale {
			return nil
		}
		c.logger.Warn().Err(err).Msg("Dial failed")
		c.notify()
		c.scheduleRetry()
		return fmt.Errorf("dialing %s: %w", wsURL, err)
	}

	c.mu.Lock()
	if c.gen != gen {
		// User closed the channel while the dial was in flight.
		c.mu.Unlock()
		conn.Close()
		return nil
	}
	c.conn = conn
	c.state = StateOpen
	c.mu.Unlock()

	c.logger.Info().Msg("Channel open")
	c.notify()

	// Request a full resync so a reconnect after data loss is self-healing.
	c.Send(protocol.GetAlerts())
	c.Send(protocol.GetSounds())

	go c.readLoop(conn, gen)
	return nil
}

func (c *Channel) readLoop(conn *websocket.Conn, gen int) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		c.onFrame(raw)
	}
	conn.Close()

	c.mu.Lock()
	if c.gen != gen {
		// Deliberate close already handled the state transition.
		c.mu.Unlock()
		return
	}
	c.state = StateClosed
	c.conn = nil
	c.bridgeConnected = false
	c.mu.Unlock()

	c.logger.Warn().Msg("Channel closed unexpectedly")
	c.notify()
	c.scheduleRetry()
}

// scheduleRetry arms the reconnect timer unless the retry budget is spent.
// The attempt counter only resets on a user-initiated Open.
func (c *Channel) scheduleRetry() {
	c.mu.Lock()
	if c.state != StateClosed {
		c.mu.Unlock()
		return
	}
	if c.attempts >= MaxReconnectAttempts {
		c.mu.Unlock()
		c.logger.Error().
			Int("attempts", MaxReconnectAttempts).
			Msg("Reconnect attempts exhausted, waiting for manual reconnect")
		return
	}
	c.attempts++
	attempt := c.attempts
	gen := c.gen
	c.retryTimer = time.AfterFunc(c.retryDelay, func() {
		c.retryConnect(gen)
	})
	c.mu.Unlock()

	c.logger.Info().
		Int("attempt", attempt).
		Dur("delay", c.retryDelay).
		Msg("Reconnect scheduled")
	c.notify()
}

// retryConnect runs one scheduled reconnect attempt. gen is the generation
// the retry was armed under; a Close in between bumps the generation, which
// invalidates a callback that had already left the timer queue when
// Timer.Stop ran.
func (c *Channel) retryConnect(gen int) {
	c.mu.Lock()
	stale := c.gen != gen
	c.mu.Unlock()
	if stale {
		return
	}
	c.connect()
}

func (c *Channel) stopRetryLocked() {
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
}

func (c *Channel) notify() {
	state := c.ConnState()
	for _, fn := range c.observers {
		fn(state)
	}
}
