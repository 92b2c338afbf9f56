package config

import (
	"time"
)

const (
	apiBaseURLVar     = "API_BASE_URL"
	pushBaseURLVar    = "PUSH_BASE_URL"
	requestTimeoutVar = "REQUEST_TIMEOUT"

	defaultRequestTimeout = 5 * time.Second
)

type Client struct{}

var _ ClientConfig = Client{}

// GetAPIBaseURL returns the base URL of the back-office REST API (e.g. "http://localhost:8080/api")
func (Client) GetAPIBaseURL() string {
	return GetEnv(apiBaseURLVar, "http://localhost:8080/api")
}

// GetPushBaseURL returns the base URL of the push-notification channel. The
// per-session endpoint is "{base}/ws/{clientID}".
func (Client) GetPushBaseURL() string {
	return GetEnv(pushBaseURLVar, "ws://localhost:8080")
}

func (Client) GetRequestTimeout() time.Duration {
	if v := GetEnv(requestTimeoutVar, ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return defaultRequestTimeout
}
