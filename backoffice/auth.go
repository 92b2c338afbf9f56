package backoffice

import (
	"context"
	"strconv"

	"github.com/pkg/errors"

	"github.com/kaiwenyao/firmament-backoffice/session"
)

// LoginRequest is the employee login payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult is the login response: identity display fields plus the
// credential pair.
type LoginResult struct {
	ID           int64  `json:"id"`
	UserName     string `json:"userName"`
	Name         string `json:"name"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// Login authenticates the employee and, on success, stores the credential
// pair and the cached profile fields. Storing the pair re-arms the pipeline's
// session-expired guard for the new session.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	var result LoginResult
	if err := c.api.Post(ctx, "/employee/login", nil, req, &result); err != nil {
		return nil, errors.Wrap(err, "[backoffice.Client.Login]")
	}
	if result.Token == "" || result.RefreshToken == "" {
		return nil, errors.New("[backoffice.Client.Login] incomplete token pair in response")
	}

	if err := c.api.SetCredentials(session.Credentials{
		Token:        result.Token,
		RefreshToken: result.RefreshToken,
	}); err != nil {
		return nil, errors.Wrap(err, "[backoffice.Client.Login] store credentials")
	}
	if err := c.api.Session().SetProfile(session.Profile{
		UserName: result.UserName,
		Name:     result.Name,
		UserID:   strconv.FormatInt(result.ID, 10),
	}); err != nil {
		return nil, errors.Wrap(err, "[backoffice.Client.Login] store profile")
	}
	return &result, nil
}

// Logout tells the backend the session is over and clears local credentials.
// The local clear happens even when the backend call fails.
func (c *Client) Logout(ctx context.Context) error {
	postErr := c.api.Post(ctx, "/employee/logout", nil, nil, nil)
	if clearErr := c.api.Session().ClearCredentials(); clearErr != nil {
		return errors.Wrap(clearErr, "[backoffice.Client.Logout] clear credentials")
	}
	if postErr != nil {
		return errors.Wrap(postErr, "[backoffice.Client.Logout]")
	}
	return nil
}
