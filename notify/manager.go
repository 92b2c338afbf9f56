// Package notify maintains the single live push-notification channel keyed by
// the durable session identity: one current transport at a time, exponential
// backoff auto-reconnect, and ordered event delivery to a listener.
//
// Every connect attempt is tagged with a monotonically increasing generation.
// A transport's events are honored only while its generation is still the
// manager's current one, so a superseded transport's close can never corrupt
// the state of its replacement.
package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kaiwenyao/firmament-backoffice/internal/metrics"
)

const (
	baseRetryDelay = 1 * time.Second
	maxRetryDelay  = 30 * time.Second
	maxAttempts    = 10

	dialTimeout = 10 * time.Second

	eventBuffer = 64
)

type eventKind int

const (
	evOpen eventKind = iota
	evMessage
	evClose
	evError
)

type event struct {
	kind    eventKind
	payload []byte
	code    websocket.StatusCode
	err     error
}

// Manager owns the logical persistent connection. All exported methods are
// safe for concurrent use.
type Manager struct {
	url      string
	dial     Dialer
	listener Listener
	log      zerolog.Logger
	metrics  *metrics.Metrics

	afterFunc func(d time.Duration, fn func()) *time.Timer

	mu            sync.Mutex
	state         State
	gen           uint64
	current       Transport
	attempts      int
	retryTimer    *time.Timer
	clientClosing bool
	closed        bool

	events chan event
	done   chan struct{}
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger sets the logger for connection diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) { m.log = logger }
}

// WithDialer replaces the websocket dialer (custom headers, tests).
func WithDialer(d Dialer) Option {
	return func(m *Manager) {
		if d != nil {
			m.dial = d
		}
	}
}

// WithMetrics attaches prometheus instruments to the manager.
func WithMetrics(mx *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mx }
}

// WithAfterFunc overrides reconnect timer scheduling (primarily for testing).
func WithAfterFunc(fn func(d time.Duration, f func()) *time.Timer) Option {
	return func(m *Manager) {
		if fn != nil {
			m.afterFunc = fn
		}
	}
}

// NewManager builds a manager for the per-session endpoint
// "{base}/ws/{clientID}". The listener is required; connect does not happen
// until Connect is called.
func NewManager(baseURL, clientID string, listener Listener, options ...Option) (*Manager, error) {
	if baseURL == "" {
		return nil, errors.New("[notify.NewManager] baseURL is required")
	}
	if clientID == "" {
		return nil, errors.New("[notify.NewManager] clientID is required")
	}
	if listener == nil {
		return nil, errors.New("[notify.NewManager] listener is required")
	}

	m := &Manager{
		url:       fmt.Sprintf("%s/ws/%s", strings.TrimRight(baseURL, "/"), clientID),
		dial:      dialWebsocket,
		listener:  listener,
		log:       log.Logger,
		afterFunc: time.AfterFunc,
		state:     StateClosed,
		events:    make(chan event, eventBuffer),
		done:      make(chan struct{}),
	}
	for _, opt := range options {
		opt(m)
	}

	go m.dispatch()
	return m, nil
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connect opens a fresh transport. Any existing transport is superseded: its
// generation is invalidated first, then it is closed with a normal status, so
// none of its late events can touch the new connection's state.
func (m *Manager) Connect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectLocked()
}

// Reconnect resets the retry budget and forces a fresh connect. Used for
// user-triggered recovery after auto-reconnect has given up.
func (m *Manager) Reconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = 0
	m.connectLocked()
}

func (m *Manager) connectLocked() {
	if m.closed {
		return
	}
	m.cancelRetryLocked()
	m.clientClosing = false

	m.gen++
	gen := m.gen
	if m.current != nil {
		old := m.current
		m.current = nil
		go func() { _ = old.Close(websocket.StatusNormalClosure, "superseded") }()
	}
	m.state = StateConnecting
	go m.dialAndRun(gen)
}

func (m *Manager) dialAndRun(gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	t, err := m.dial(ctx, m.url)
	cancel()
	if err != nil {
		m.log.Warn().Err(err).Msg("push channel dial failed")
		m.transportClosed(gen, websocket.StatusAbnormalClosure, err)
		return
	}

	m.mu.Lock()
	if m.closed || gen != m.gen {
		m.mu.Unlock()
		_ = t.Close(websocket.StatusNormalClosure, "superseded")
		return
	}
	m.current = t
	m.attempts = 0
	m.state = StateOpen
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.ConnectionsOpened.Inc()
	}
	m.log.Info().Str("url", m.url).Msg("push channel open")
	m.emit(event{kind: evOpen})

	m.readLoop(gen, t)
}

func (m *Manager) readLoop(gen uint64, t Transport) {
	for {
		payload, err := t.Read(context.Background())
		if err != nil {
			code := websocket.CloseStatus(err)
			if code == -1 {
				code = websocket.StatusAbnormalClosure
			}
			m.transportClosed(gen, code, err)
			return
		}

		m.mu.Lock()
		stale := m.closed || gen != m.gen
		m.mu.Unlock()
		if stale {
			return
		}
		m.emit(event{kind: evMessage, payload: payload})
	}
}

// transportClosed handles the end of one transport's life, from either a dial
// failure or a read error. Stale generations are no-ops.
func (m *Manager) transportClosed(gen uint64, code websocket.StatusCode, cause error) {
	m.mu.Lock()
	if m.closed || gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.current = nil
	m.state = StateClosed

	clientInitiated := m.clientClosing || code == websocket.StatusNormalClosure
	m.clientClosing = false

	abnormal := !clientInitiated
	if abnormal && m.attempts < maxAttempts {
		delay := retryDelay(m.attempts)
		m.attempts++
		if m.metrics != nil {
			m.metrics.ReconnectAttempts.Inc()
		}
		m.log.Info().
			Dur("delay", delay).
			Int("attempt", m.attempts).
			Msg("push channel lost, reconnect scheduled")
		m.retryTimer = m.afterFunc(delay, m.retryFire)
	} else if abnormal {
		m.log.Warn().Int("attempts", m.attempts).Msg("push channel reconnect budget exhausted")
	}
	m.mu.Unlock()

	if abnormal && cause != nil {
		m.emit(event{kind: evError, err: cause})
	}
	m.emit(event{kind: evClose, code: code})
}

func (m *Manager) retryFire() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retryTimer = nil
	if m.closed {
		return
	}
	m.connectLocked()
}

// retryDelay is min(base << attempts, cap).
func retryDelay(attempts int) time.Duration {
	d := baseRetryDelay << uint(attempts)
	if d > maxRetryDelay || d <= 0 {
		d = maxRetryDelay
	}
	return d
}

// Send writes a text frame on the current transport. Failure is expected
// during transient disconnection, so it is reported as false and logged,
// never as an error.
func (m *Manager) Send(ctx context.Context, payload []byte) bool {
	m.mu.Lock()
	t := m.current
	open := m.state == StateOpen
	m.mu.Unlock()

	if !open || t == nil {
		m.log.Debug().Msg("send skipped, push channel not open")
		return false
	}
	if err := t.Write(ctx, payload); err != nil {
		m.log.Debug().Err(err).Msg("send failed on push channel")
		return false
	}
	return true
}

// Disconnect closes the current transport gracefully and cancels any pending
// reconnect. The state transition is driven by the resulting close event, so
// state stays single-sourced. A dial still in flight is invalidated by bumping
// the generation, so its late result is discarded instead of going Open.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.cancelRetryLocked()
	t := m.current
	if t != nil {
		m.clientClosing = true
		m.state = StateClosing
	} else if m.state == StateConnecting {
		m.gen++
		m.state = StateClosed
	}
	m.mu.Unlock()

	if t != nil {
		_ = t.Close(websocket.StatusNormalClosure, "client disconnect")
	}
}

// Close tears the manager down permanently: cancels timers, silences every
// future event, closes the current transport. Safe to call at any point in
// the lifecycle and idempotent.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.cancelRetryLocked()
	t := m.current
	m.current = nil
	m.state = StateClosed
	m.mu.Unlock()

	close(m.done)
	if t != nil {
		_ = t.Close(websocket.StatusNormalClosure, "client shutdown")
	}
}

func (m *Manager) cancelRetryLocked() {
	if m.retryTimer != nil {
		m.retryTimer.Stop()
		m.retryTimer = nil
	}
}

func (m *Manager) emit(ev event) {
	select {
	case m.events <- ev:
	case <-m.done:
	}
}

// dispatch serializes listener callbacks. The closed re-check before each
// delivery keeps the "no callback after teardown" guarantee even when an
// event was already queued when Close ran.
func (m *Manager) dispatch() {
	for {
		select {
		case <-m.done:
			return
		case ev := <-m.events:
			m.mu.Lock()
			closed := m.closed
			m.mu.Unlock()
			if closed {
				return
			}
			switch ev.kind {
			case evOpen:
				m.listener.OnOpen()
			case evMessage:
				m.listener.OnMessage(ev.payload)
			case evClose:
				m.listener.OnClose(ev.code)
			case evError:
				m.listener.OnError(ev.err)
			}
		}
	}
}
