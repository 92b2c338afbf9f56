package alert_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/kaiwenyao/firmament-backoffice/alert"
)

type fakeNotifier struct {
	titles []string
	bodies []string
}

func (f *fakeNotifier) Notify(title, body string) {
	f.titles = append(f.titles, title)
	f.bodies = append(f.bodies, body)
}

type fakePlayer struct {
	kinds   []int
	playErr error
}

func (f *fakePlayer) Play(kind int) error {
	f.kinds = append(f.kinds, kind)
	return f.playErr
}

func newDispatcher(t *testing.T) (*alert.Dispatcher, *fakeNotifier, *fakePlayer) {
	t.Helper()
	notifier := &fakeNotifier{}
	player := &fakePlayer{}
	d, err := alert.NewDispatcher(notifier, player)
	require.NoError(t, err)
	return d, notifier, player
}

func TestHandleMessage_NewOrder(t *testing.T) {
	d, notifier, player := newDispatcher(t)

	d.HandleMessage([]byte(`{"type":1,"content":"订单号：202609010001"}`))

	require.Equal(t, []string{"您有新的外卖订单，请及时处理"}, notifier.titles)
	require.Equal(t, []string{"订单号：202609010001"}, notifier.bodies)
	require.Equal(t, []int{alert.KindNewOrder}, player.kinds)
}

func TestHandleMessage_Reminder(t *testing.T) {
	d, notifier, player := newDispatcher(t)

	d.HandleMessage([]byte(`{"type":2,"content":"202609010001"}`))

	require.Equal(t, []string{"客户催单，请尽快处理!202609010001"}, notifier.titles)
	require.Equal(t, []int{alert.KindReminder}, player.kinds)
}

func TestHandleMessage_UnknownTypeIgnored(t *testing.T) {
	d, notifier, player := newDispatcher(t)

	d.HandleMessage([]byte(`{"type":9,"content":"whatever"}`))

	require.Empty(t, notifier.titles)
	require.Empty(t, player.kinds)
}

func TestHandleMessage_MalformedPayloadDropped(t *testing.T) {
	d, notifier, player := newDispatcher(t)

	d.HandleMessage([]byte(`{not json`))
	d.HandleMessage(nil)

	require.Empty(t, notifier.titles)
	require.Empty(t, player.kinds)
}

func TestHandleMessage_PlayerFailureIsNotFatal(t *testing.T) {
	notifier := &fakeNotifier{}
	player := &fakePlayer{playErr: errors.New("no audio device")}
	d, err := alert.NewDispatcher(notifier, player)
	require.NoError(t, err)

	d.HandleMessage([]byte(`{"type":1,"content":"101"}`))

	// The toast still went out even though playback failed.
	require.Len(t, notifier.titles, 1)
}

func TestNewDispatcher_Validation(t *testing.T) {
	_, err := alert.NewDispatcher(nil, &fakePlayer{})
	require.Error(t, err)

	_, err = alert.NewDispatcher(&fakeNotifier{}, nil)
	require.Error(t, err)
}
