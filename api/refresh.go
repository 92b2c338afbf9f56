package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"

	interrors "github.com/kaiwenyao/firmament-backoffice/internal/errors"
	"github.com/kaiwenyao/firmament-backoffice/session"
)

const refreshPath = "/employee/refresh"

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// refreshResponse carries the rotated pair; the backend rotates the refresh
// token on every use.
type refreshResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// refreshCredentials coordinates the single-flight refresh. The first caller
// becomes the leader and performs the refresh; every concurrent caller is
// queued and settles with the leader's outcome. All waiters are drained as a
// batch when the refresh settles, whatever the outcome.
func (c *Client) refreshCredentials(ctx context.Context) (string, error) {
	c.refreshMu.Lock()
	if c.refreshing {
		ch := make(chan refreshResult, 1)
		c.waiters = append(c.waiters, ch)
		c.refreshMu.Unlock()

		select {
		case res := <-ch:
			return res.token, res.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	c.refreshing = true
	c.refreshMu.Unlock()

	token, err := c.performRefresh(ctx)

	c.refreshMu.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.refreshing = false
	c.refreshMu.Unlock()

	res := refreshResult{token: token, err: err}
	for _, ch := range waiters {
		ch <- res
	}
	return token, err
}

// performRefresh runs the actual refresh call. It deliberately bypasses the
// pipeline (no token header, no 401 handling) so a failing refresh cannot
// recurse into another refresh.
func (c *Client) performRefresh(ctx context.Context) (string, error) {
	creds := c.session.Credentials()
	if creds.RefreshToken == "" {
		c.sessionExpired()
		return "", interrors.ErrNoRefreshToken
	}

	payload, err := json.Marshal(refreshRequest{RefreshToken: creds.RefreshToken})
	if err != nil {
		return "", c.refreshFailed(errors.Wrap(err, "[api.Client.performRefresh] encode body"))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+refreshPath, bytes.NewReader(payload))
	if err != nil {
		return "", c.refreshFailed(errors.Wrap(err, "[api.Client.performRefresh] build request"))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", c.refreshFailed(errors.Wrap(err, "[api.Client.performRefresh] post refresh"))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", c.refreshFailed(errors.Wrap(err, "[api.Client.performRefresh] read response"))
	}
	if resp.StatusCode != http.StatusOK {
		return "", c.refreshFailed(errors.Errorf("[api.Client.performRefresh] refresh endpoint returned %d", resp.StatusCode))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", c.refreshFailed(errors.Wrap(err, "[api.Client.performRefresh] decode envelope"))
	}
	if env.Code != successCode {
		return "", c.refreshFailed(errors.Errorf("[api.Client.performRefresh] refresh rejected: %s", env.Msg))
	}

	var rotated refreshResponse
	if err := json.Unmarshal(env.Data, &rotated); err != nil {
		return "", c.refreshFailed(errors.Wrap(err, "[api.Client.performRefresh] decode data"))
	}
	if rotated.Token == "" || rotated.RefreshToken == "" {
		return "", c.refreshFailed(errors.New("[api.Client.performRefresh] incomplete token pair in response"))
	}

	if err := c.SetCredentials(session.Credentials{Token: rotated.Token, RefreshToken: rotated.RefreshToken}); err != nil {
		return "", c.refreshFailed(errors.Wrap(err, "[api.Client.performRefresh] store rotated pair"))
	}

	if c.metrics != nil {
		c.metrics.Refreshes.WithLabelValues("success").Inc()
	}
	c.log.Debug().Msg("credentials refreshed")
	return rotated.Token, nil
}

// refreshFailed is the unrecoverable path: credentials are cleared and the
// session-expired flow runs. The returned error matches ErrRefreshFailed.
func (c *Client) refreshFailed(cause error) error {
	if c.metrics != nil {
		c.metrics.Refreshes.WithLabelValues("failure").Inc()
	}
	c.log.Warn().Err(cause).Msg("token refresh failed")
	c.sessionExpired()
	return errors.Wrap(interrors.ErrRefreshFailed, cause.Error())
}

// sessionExpired clears the stored credentials and fires the one-shot
// expired handler. Concurrent triggers collapse into a single action; the
// guard is re-armed only when new credentials are stored.
func (c *Client) sessionExpired() {
	c.expiryMu.Lock()
	if c.expiredFired {
		c.expiryMu.Unlock()
		return
	}
	c.expiredFired = true
	c.expiryMu.Unlock()

	if c.metrics != nil {
		c.metrics.SessionExpiries.Inc()
	}
	if err := c.session.ClearCredentials(); err != nil {
		c.log.Error().Err(err).Msg("clearing credentials on session expiry")
	}
	c.log.Warn().Msg("session expired")
	if c.onSessionExpired != nil {
		c.onSessionExpired()
	}
}
