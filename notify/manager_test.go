package notify_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/kaiwenyao/firmament-backoffice/notify"
)

type readResult struct {
	payload []byte
	err     error
}

// fakeTransport feeds the manager's read loop from a channel. Close unblocks a
// pending Read with a close error carrying the requested status, which is what
// a real websocket connection does.
type fakeTransport struct {
	reads chan readResult

	mu         sync.Mutex
	writes     [][]byte
	closeCodes []websocket.StatusCode
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{reads: make(chan readResult, 16)}
}

func (t *fakeTransport) Read(ctx context.Context) ([]byte, error) {
	select {
	case r := <-t.reads:
		return r.payload, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *fakeTransport) Write(_ context.Context, payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writes = append(t.writes, payload)
	return nil
}

func (t *fakeTransport) Close(code websocket.StatusCode, _ string) error {
	t.mu.Lock()
	t.closeCodes = append(t.closeCodes, code)
	t.mu.Unlock()

	select {
	case t.reads <- readResult{err: websocket.CloseError{Code: code}}:
	default:
	}
	return nil
}

func (t *fakeTransport) message(payload string) {
	t.reads <- readResult{payload: []byte(payload)}
}

func (t *fakeTransport) fail(code websocket.StatusCode) {
	t.reads <- readResult{err: websocket.CloseError{Code: code}}
}

func (t *fakeTransport) closedWith() []websocket.StatusCode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]websocket.StatusCode(nil), t.closeCodes...)
}

func (t *fakeTransport) written() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([][]byte(nil), t.writes...)
}

// recListener records every callback it receives.
type recListener struct {
	mu       sync.Mutex
	opens    int
	messages []string
	closes   []websocket.StatusCode
	errs     []error
}

func (l *recListener) OnOpen() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.opens++
}

func (l *recListener) OnMessage(payload []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, string(payload))
}

func (l *recListener) OnClose(code websocket.StatusCode) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closes = append(l.closes, code)
}

func (l *recListener) OnError(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, err)
}

func (l *recListener) openCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opens
}

func (l *recListener) messageList() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.messages...)
}

func (l *recListener) closeList() []websocket.StatusCode {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]websocket.StatusCode(nil), l.closes...)
}

func (l *recListener) callbackCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opens + len(l.messages) + len(l.closes) + len(l.errs)
}

// gatedDialer hands each dial request to the test, which decides when and how
// it resolves. This makes dial/connect races fully scriptable.
type gatedDialer struct {
	requests chan *dialRequest
}

type dialRequest struct {
	url     string
	respond chan dialResult
}

type dialResult struct {
	transport notify.Transport
	err       error
}

func newGatedDialer() *gatedDialer {
	return &gatedDialer{requests: make(chan *dialRequest, 8)}
}

func (d *gatedDialer) dial(ctx context.Context, url string) (notify.Transport, error) {
	req := &dialRequest{url: url, respond: make(chan dialResult, 1)}
	d.requests <- req
	select {
	case res := <-req.respond:
		return res.transport, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (d *gatedDialer) next(t *testing.T) *dialRequest {
	t.Helper()
	select {
	case req := <-d.requests:
		return req
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for dial attempt")
		return nil
	}
}

// immediateAfterFunc records each scheduled delay and fires the callback right
// away, so backoff sequences can be observed without waiting them out.
func immediateAfterFunc(mu *sync.Mutex, delays *[]time.Duration) func(time.Duration, func()) *time.Timer {
	return func(d time.Duration, fn func()) *time.Timer {
		mu.Lock()
		*delays = append(*delays, d)
		mu.Unlock()
		return time.AfterFunc(0, fn)
	}
}

func waitOpen(t *testing.T, listener *recListener, want int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return listener.openCount() == want
	}, 2*time.Second, 5*time.Millisecond)
}

func TestConnect_SupersedesEarlierInFlightDial(t *testing.T) {
	dialer := newGatedDialer()
	listener := &recListener{}
	m, err := notify.NewManager("ws://push.local", "client-1", listener, notify.WithDialer(dialer.dial))
	require.NoError(t, err)
	defer m.Close()

	m.Connect()
	first := dialer.next(t)
	require.Equal(t, "ws://push.local/ws/client-1", first.url)

	// A second connect before the first dial resolves supersedes it.
	m.Connect()
	second := dialer.next(t)

	t2 := newFakeTransport()
	second.respond <- dialResult{transport: t2}
	waitOpen(t, listener, 1)
	require.Equal(t, notify.StateOpen, m.State())

	// The first dial resolves late; its transport must be discarded, not
	// installed over the live one.
	t1 := newFakeTransport()
	first.respond <- dialResult{transport: t1}
	require.Eventually(t, func() bool {
		return len(t1.closedWith()) == 1
	}, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, websocket.StatusNormalClosure, t1.closedWith()[0])

	// Only the live transport's messages reach the listener.
	t2.message(`{"type":1,"content":"101"}`)
	require.Eventually(t, func() bool {
		return len(listener.messageList()) == 1
	}, 2*time.Second, 5*time.Millisecond)

	require.Equal(t, 1, listener.openCount())
	require.Equal(t, notify.StateOpen, m.State())
}

func TestReconnect_BackoffDoublesCapsAndStops(t *testing.T) {
	var (
		mu     sync.Mutex
		delays []time.Duration
	)
	var dialCalls int
	var dialMu sync.Mutex
	failingDial := func(ctx context.Context, url string) (notify.Transport, error) {
		dialMu.Lock()
		dialCalls++
		dialMu.Unlock()
		return nil, errors.New("connection refused")
	}

	listener := &recListener{}
	m, err := notify.NewManager("ws://push.local", "client-1", listener,
		notify.WithDialer(failingDial),
		notify.WithAfterFunc(immediateAfterFunc(&mu, &delays)),
	)
	require.NoError(t, err)
	defer m.Close()

	m.Connect()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(delays) == 10
	}, 5*time.Second, 5*time.Millisecond)

	// Budget exhausted: no further schedules, no further dials.
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	got := append([]time.Duration(nil), delays...)
	mu.Unlock()
	require.Equal(t, []time.Duration{
		1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second,
		30 * time.Second, 30 * time.Second, 30 * time.Second, 30 * time.Second, 30 * time.Second,
	}, got)

	dialMu.Lock()
	totalDials := dialCalls
	dialMu.Unlock()
	require.Equal(t, 11, totalDials)

	// Manual reconnect resets the budget and starts over at the base delay.
	m.Reconnect()
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(delays) >= 11
	}, 2*time.Second, 5*time.Millisecond)
	mu.Lock()
	require.Equal(t, 1*time.Second, delays[10])
	mu.Unlock()
}

func TestReconnect_AttemptCounterResetsOnSuccessfulOpen(t *testing.T) {
	var (
		mu     sync.Mutex
		delays []time.Duration
	)
	transport := newFakeTransport()

	var dialMu sync.Mutex
	dialCalls := 0
	dial := func(ctx context.Context, url string) (notify.Transport, error) {
		dialMu.Lock()
		defer dialMu.Unlock()
		dialCalls++
		// Two failures, then a healthy connection, then failures again.
		if dialCalls <= 2 || dialCalls > 3 {
			return nil, errors.New("connection refused")
		}
		return transport, nil
	}

	listener := &recListener{}
	m, err := notify.NewManager("ws://push.local", "client-1", listener,
		notify.WithDialer(dial),
		notify.WithAfterFunc(immediateAfterFunc(&mu, &delays)),
	)
	require.NoError(t, err)
	defer m.Close()

	m.Connect()
	waitOpen(t, listener, 1)

	mu.Lock()
	require.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, delays)
	mu.Unlock()

	// The established connection drops abnormally. Because the open reset the
	// counter, the next scheduled delay is back at the base.
	transport.fail(websocket.StatusAbnormalClosure)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(delays) >= 3
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	require.Equal(t, 1*time.Second, delays[2])
	mu.Unlock()
}

func TestDisconnect_DiscardsDialStillInFlight(t *testing.T) {
	dialer := newGatedDialer()
	listener := &recListener{}
	m, err := notify.NewManager("ws://push.local", "client-1", listener, notify.WithDialer(dialer.dial))
	require.NoError(t, err)
	defer m.Close()

	m.Connect()
	pending := dialer.next(t)
	require.Equal(t, notify.StateConnecting, m.State())

	// Disconnect lands before the dial resolves. The late result must be
	// thrown away, not installed as an open connection.
	m.Disconnect()
	require.Equal(t, notify.StateClosed, m.State())

	transport := newFakeTransport()
	pending.respond <- dialResult{transport: transport}
	require.Eventually(t, func() bool {
		return len(transport.closedWith()) == 1
	}, 2*time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 0, listener.openCount())
	require.Equal(t, notify.StateClosed, m.State())
}

func TestDisconnect_NoReconnectOnClientInitiatedClose(t *testing.T) {
	var (
		mu     sync.Mutex
		delays []time.Duration
	)
	transport := newFakeTransport()
	dial := func(ctx context.Context, url string) (notify.Transport, error) {
		return transport, nil
	}

	listener := &recListener{}
	m, err := notify.NewManager("ws://push.local", "client-1", listener,
		notify.WithDialer(dial),
		notify.WithAfterFunc(immediateAfterFunc(&mu, &delays)),
	)
	require.NoError(t, err)
	defer m.Close()

	m.Connect()
	waitOpen(t, listener, 1)

	m.Disconnect()
	require.Eventually(t, func() bool {
		return len(listener.closeList()) == 1
	}, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, websocket.StatusNormalClosure, listener.closeList()[0])
	require.Equal(t, notify.StateClosed, m.State())

	// No retry was scheduled for a deliberate disconnect.
	mu.Lock()
	require.Empty(t, delays)
	mu.Unlock()
}

func TestClose_SilencesLateTransportEvents(t *testing.T) {
	transport := newFakeTransport()
	dial := func(ctx context.Context, url string) (notify.Transport, error) {
		return transport, nil
	}

	listener := &recListener{}
	m, err := notify.NewManager("ws://push.local", "client-1", listener, notify.WithDialer(dial))
	require.NoError(t, err)

	m.Connect()
	waitOpen(t, listener, 1)
	before := listener.callbackCount()

	m.Close()
	m.Close() // idempotent

	// Events fired on the old transport after teardown must not reach the
	// listener.
	transport.message(`{"type":2,"content":"late"}`)
	transport.fail(websocket.StatusAbnormalClosure)
	time.Sleep(50 * time.Millisecond)

	require.Equal(t, before, listener.callbackCount())
	require.Equal(t, notify.StateClosed, m.State())
}

func TestSend_OnlyWhileOpen(t *testing.T) {
	transport := newFakeTransport()
	dial := func(ctx context.Context, url string) (notify.Transport, error) {
		return transport, nil
	}

	listener := &recListener{}
	m, err := notify.NewManager("ws://push.local", "client-1", listener, notify.WithDialer(dial))
	require.NoError(t, err)
	defer m.Close()

	require.False(t, m.Send(context.Background(), []byte("ping")))

	m.Connect()
	waitOpen(t, listener, 1)
	require.True(t, m.Send(context.Background(), []byte("ping")))
	require.Equal(t, [][]byte{[]byte("ping")}, transport.written())

	m.Disconnect()
	require.Eventually(t, func() bool {
		return m.State() == notify.StateClosed
	}, 2*time.Second, 5*time.Millisecond)
	require.False(t, m.Send(context.Background(), []byte("ping")))
}

func TestNewManager_Validation(t *testing.T) {
	listener := &recListener{}

	_, err := notify.NewManager("", "client-1", listener)
	require.Error(t, err)

	_, err = notify.NewManager("ws://push.local", "", listener)
	require.Error(t, err)

	_, err = notify.NewManager("ws://push.local", "client-1", nil)
	require.Error(t, err)
}
