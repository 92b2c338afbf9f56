package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenExpiry peeks at the stored access token's "exp" claim without
// verifying the signature. The server remains the authority on validity;
// this exists for display and diagnostics only. Returns the zero time when
// no token is stored, the token is opaque, or it carries no expiry.
func (m *Manager) AccessTokenExpiry() time.Time {
	creds := m.Credentials()
	if creds.Token == "" {
		return time.Time{}
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(creds.Token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
