// Package alert interprets push frames from the notification channel and
// routes them to the user-facing sinks: a toast notifier and an audio player.
package alert

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kaiwenyao/firmament-backoffice/internal/metrics"
)

// Push message kinds carried in the envelope's type field.
const (
	KindNewOrder = 1
	KindReminder = 2
)

const (
	newOrderText   = "您有新的外卖订单，请及时处理"
	reminderPrefix = "客户催单，请尽快处理!"
)

// Message is the push envelope: {type: 1|2, content?: string}.
type Message struct {
	Type    int    `json:"type"`
	Content string `json:"content,omitempty"`
}

// Notifier is the toast sink.
type Notifier interface {
	Notify(title, body string)
}

// Player is the audio sink. Play failures are logged, never propagated.
type Player interface {
	Play(kind int) error
}

// Dispatcher parses raw payloads and fires the sinks. Its HandleMessage
// method plugs into notify.ListenerFuncs.Message.
type Dispatcher struct {
	notifier Notifier
	player   Player
	log      zerolog.Logger
	metrics  *metrics.Metrics
}

// DispatcherOption configures the Dispatcher.
type DispatcherOption func(*Dispatcher)

func WithLogger(logger zerolog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.log = logger }
}

func WithMetrics(m *metrics.Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

func NewDispatcher(notifier Notifier, player Player, options ...DispatcherOption) (*Dispatcher, error) {
	if notifier == nil {
		return nil, errors.New("[alert.NewDispatcher] notifier is required")
	}
	if player == nil {
		return nil, errors.New("[alert.NewDispatcher] player is required")
	}
	d := &Dispatcher{notifier: notifier, player: player, log: log.Logger}
	for _, opt := range options {
		opt(d)
	}
	return d, nil
}

// HandleMessage decodes one push frame. Malformed payloads are logged and
// dropped; unrecognized types are silently ignored. Neither is ever fatal to
// the connection.
func (d *Dispatcher) HandleMessage(payload []byte) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		d.log.Warn().Err(err).Str("payload", string(payload)).Msg("malformed push message")
		return
	}

	switch msg.Type {
	case KindNewOrder:
		d.deliver(msg.Type, newOrderText, msg.Content)
	case KindReminder:
		d.deliver(msg.Type, reminderPrefix+msg.Content, msg.Content)
	default:
		d.log.Debug().Int("type", msg.Type).Msg("ignoring push message of unknown type")
	}
}

func (d *Dispatcher) deliver(kind int, title, body string) {
	if d.metrics != nil {
		d.metrics.PushMessages.WithLabelValues(kindLabel(kind)).Inc()
	}
	d.notifier.Notify(title, body)
	if err := d.player.Play(kind); err != nil {
		d.log.Warn().Err(err).Int("kind", kind).Msg("alert audio playback failed")
	}
}

func kindLabel(kind int) string {
	switch kind {
	case KindNewOrder:
		return "new_order"
	case KindReminder:
		return "reminder"
	}
	return "unknown"
}
