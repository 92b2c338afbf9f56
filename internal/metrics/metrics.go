// Package metrics holds the prometheus instruments for the client core.
// The registry is injected so tests can construct isolated instances.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ReconnectAttempts prometheus.Counter
	ConnectionsOpened prometheus.Counter
	PushMessages      *prometheus.CounterVec
	Refreshes         *prometheus.CounterVec
	SessionExpiries   prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ReconnectAttempts: factory.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_notify_reconnect_attempts_total",
			Help: "Scheduled reconnect attempts on the push channel.",
		}),
		ConnectionsOpened: factory.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_notify_connections_opened_total",
			Help: "Push channel connections that reached the open state.",
		}),
		PushMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_notify_push_messages_total",
			Help: "Push messages received, by alert kind.",
		}, []string{"kind"}),
		Refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_api_token_refreshes_total",
			Help: "Credential refresh operations, by outcome.",
		}, []string{"outcome"}),
		SessionExpiries: factory.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_api_session_expiries_total",
			Help: "Times the session-expired flow ran.",
		}),
	}
}
