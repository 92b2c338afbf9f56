// Package api implements the authenticated request pipeline every back-office
// call goes through: token attachment, response-envelope unwrapping, and the
// single-flight refresh-and-retry cycle on authentication failure.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	interrors "github.com/kaiwenyao/firmament-backoffice/internal/errors"
	"github.com/kaiwenyao/firmament-backoffice/internal/metrics"
	"github.com/kaiwenyao/firmament-backoffice/session"
)

const (
	// The backend expects the raw access token under this header, not a
	// bearer scheme. External contract, do not change.
	authHeader = "token"

	defaultTimeout = 5 * time.Second

	successCode = 1
)

// envelope is the uniform response body: {code, msg, data}.
type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

type refreshResult struct {
	token string
	err   error
}

// Client is the single pipeline instance shared by all call sites. Its
// lifetime matches the application process; refresh coordination state lives
// here rather than in package-level globals.
type Client struct {
	baseURL string
	http    *http.Client
	session *session.Manager
	log     zerolog.Logger
	metrics *metrics.Metrics

	refreshMu  sync.Mutex
	refreshing bool
	waiters    []chan refreshResult

	expiryMu         sync.Mutex
	expiredFired     bool
	onSessionExpired func()
}

// Option configures the Client.
type Option func(*Client)

// WithLogger sets the logger used for pipeline diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.log = logger }
}

// WithHTTPClient replaces the underlying http client (primarily for tests).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTimeout bounds every request so a caller is never suspended
// indefinitely on a non-responsive server.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithMetrics attaches prometheus instruments to the pipeline.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithSessionExpiredHandler sets the sink invoked exactly once when the
// session becomes unrecoverable (refresh failed). The handler owns the
// user-visible notice and the navigation to login.
func WithSessionExpiredHandler(fn func()) Option {
	return func(c *Client) { c.onSessionExpired = fn }
}

// NewClient builds the request pipeline rooted at baseURL.
func NewClient(baseURL string, sess *session.Manager, options ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("[api.NewClient] baseURL is required")
	}
	if sess == nil {
		return nil, errors.New("[api.NewClient] session manager is required")
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		session: sess,
		log:     log.Logger,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Get issues an authenticated GET and decodes the envelope's data into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out, false)
}

// Post issues an authenticated POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, query url.Values, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, query, body, out, false)
}

// Put issues an authenticated PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, query url.Values, body, out interface{}) error {
	return c.do(ctx, http.MethodPut, path, query, body, out, false)
}

// Delete issues an authenticated DELETE.
func (c *Client) Delete(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.do(ctx, http.MethodDelete, path, query, nil, out, false)
}

// Session returns the session manager this pipeline reads credentials from.
func (c *Client) Session() *session.Manager {
	return c.session
}

// SetCredentials stores a fresh pair and re-arms the session-expired guard so
// a later expiry of the new session surfaces again.
func (c *Client) SetCredentials(creds session.Credentials) error {
	if err := c.session.SetCredentials(creds); err != nil {
		return err
	}
	c.expiryMu.Lock()
	c.expiredFired = false
	c.expiryMu.Unlock()
	return nil
}

func (c *Client) url(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do runs one request through the full pipeline. retried marks a request
// already replayed after a refresh; such a request is never retried again.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}, retried bool) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "[api.Client.do] encode request body")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path, query), reader)
	if err != nil {
		return errors.Wrap(err, "[api.Client.do] build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if creds := c.session.Credentials(); creds.Token != "" {
		req.Header.Set(authHeader, creds.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Msg: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Msg: err.Error(), Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if retried {
			// The rotated token was rejected too: the session is beyond
			// recovery, not just stale.
			c.log.Warn().Str("path", path).Msg("request unauthorized after refresh, session expired")
			c.sessionExpired()
			return interrors.ErrSessionExpired
		}
		if _, err := c.refreshCredentials(ctx); err != nil {
			return err
		}
		return c.do(ctx, method, path, query, body, out, true)
	}

	if resp.StatusCode != http.StatusOK {
		return &HTTPError{StatusCode: resp.StatusCode, Msg: httpErrorMessage(raw, resp.StatusCode)}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return errors.Wrap(err, "[api.Client.do] decode response envelope")
	}
	if env.Code != successCode {
		return &BusinessError{Code: env.Code, Msg: env.Msg}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return errors.Wrap(err, "[api.Client.do] decode response data")
		}
	}
	return nil
}

// httpErrorMessage picks the most informative message available: the
// body-embedded msg, then the status text.
func httpErrorMessage(raw []byte, status int) string {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Msg != "" {
		return env.Msg
	}
	return http.StatusText(status)
}

// DoRaw issues an authenticated request and returns the body verbatim, for
// endpoints that do not speak the envelope (report export). Auth failure is
// not retried here; callers get ErrUnauthorized directly.
func (c *Client) DoRaw(ctx context.Context, method, path string, query url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path, query), nil)
	if err != nil {
		return nil, errors.Wrap(err, "[api.Client.DoRaw] build request")
	}
	if creds := c.session.Credentials(); creds.Token != "" {
		req.Header.Set(authHeader, creds.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Msg: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, interrors.ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Msg: http.StatusText(resp.StatusCode)}
	}
	return io.ReadAll(resp.Body)
}

// DoMultipart posts a non-replayable body (file upload) with an explicit
// content type. The envelope is unwrapped as usual but the request is never
// retried: the stream has already been consumed.
func (c *Client) DoMultipart(ctx context.Context, path, contentType string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path, nil), body)
	if err != nil {
		return errors.Wrap(err, "[api.Client.DoMultipart] build request")
	}
	req.Header.Set("Content-Type", contentType)
	if creds := c.session.Credentials(); creds.Token != "" {
		req.Header.Set(authHeader, creds.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Msg: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Msg: err.Error(), Err: err}
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return interrors.ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return &HTTPError{StatusCode: resp.StatusCode, Msg: httpErrorMessage(raw, resp.StatusCode)}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return errors.Wrap(err, "[api.Client.DoMultipart] decode response envelope")
	}
	if env.Code != successCode {
		return &BusinessError{Code: env.Code, Msg: env.Msg}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return errors.Wrap(err, "[api.Client.DoMultipart] decode response data")
		}
	}
	return nil
}
