package session

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	interrors "github.com/kaiwenyao/firmament-backoffice/internal/errors"
)

// Well-known store keys. Credentials and profile fields are always cleared
// together; the client identity outlives logout.
const (
	keyClientID     = "clientId"
	keyToken        = "token"
	keyRefreshToken = "refreshToken"
	keyUserName     = "userName"
	keyName         = "name"
	keyUserID       = "userId"
)

// Credentials is the access/refresh token pair. Both fields are set or both
// are empty; the pair is rotated as a unit on refresh.
type Credentials struct {
	Token        string
	RefreshToken string
}

// Profile holds the display fields cached at login.
type Profile struct {
	UserName string
	Name     string
	UserID   string
}

// Manager mediates all access to the durable store. It is safe for use from
// concurrent request flows; writes to the credential pair are atomic with
// respect to readers.
type Manager struct {
	store Store
	mu    sync.Mutex
}

func NewManager(store Store) (*Manager, error) {
	if store == nil {
		return nil, errors.New("[session.NewManager] store is required")
	}
	return &Manager{store: store}, nil
}

// ClientID returns the durable session identity, generating and persisting a
// fresh UUID on first use. Once created the identity is never regenerated
// unless the store is cleared externally.
func (m *Manager) ClientID() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, err := m.store.Get(keyClientID)
	if err == nil && id != "" {
		return id, nil
	}
	if err != nil && !interrors.Is(err, interrors.ErrKeyNotFound) {
		return "", errors.Wrap(err, "[Manager.ClientID] read identity")
	}

	id = uuid.New().String()
	if err := m.store.Set(keyClientID, id); err != nil {
		return "", errors.Wrap(err, "[Manager.ClientID] persist identity")
	}
	return id, nil
}

// Credentials returns the stored pair. A pair with an empty Token means no
// session is active.
func (m *Manager) Credentials() Credentials {
	m.mu.Lock()
	defer m.mu.Unlock()

	token, _ := m.store.Get(keyToken)
	refresh, _ := m.store.Get(keyRefreshToken)
	return Credentials{Token: token, RefreshToken: refresh}
}

// SetCredentials stores both tokens. Rejects a partial pair, and rolls the
// first write back when the second fails, so the both-present-or-both-absent
// invariant holds on every path out of here.
func (m *Manager) SetCredentials(creds Credentials) error {
	if creds.Token == "" || creds.RefreshToken == "" {
		return errors.New("[Manager.SetCredentials] both tokens are required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	prevToken, prevErr := m.store.Get(keyToken)
	if err := m.store.Set(keyToken, creds.Token); err != nil {
		return errors.Wrap(err, "[Manager.SetCredentials] store token")
	}
	if err := m.store.Set(keyRefreshToken, creds.RefreshToken); err != nil {
		if prevErr == nil {
			_ = m.store.Set(keyToken, prevToken)
		} else {
			_ = m.store.Delete(keyToken)
		}
		return errors.Wrap(err, "[Manager.SetCredentials] store refresh token")
	}
	return nil
}

// ClearCredentials removes the credential pair and the cached profile fields
// in one pass. The client identity is kept.
func (m *Manager) ClearCredentials() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range []string{keyToken, keyRefreshToken, keyUserName, keyName, keyUserID} {
		if err := m.store.Delete(key); err != nil {
			return errors.Wrapf(err, "[Manager.ClearCredentials] delete %q", key)
		}
	}
	return nil
}

func (m *Manager) SetProfile(p Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Set(keyUserName, p.UserName); err != nil {
		return errors.Wrap(err, "[Manager.SetProfile] store userName")
	}
	if err := m.store.Set(keyName, p.Name); err != nil {
		return errors.Wrap(err, "[Manager.SetProfile] store name")
	}
	if err := m.store.Set(keyUserID, p.UserID); err != nil {
		return errors.Wrap(err, "[Manager.SetProfile] store userId")
	}
	return nil
}

func (m *Manager) Profile() Profile {
	m.mu.Lock()
	defer m.mu.Unlock()

	userName, _ := m.store.Get(keyUserName)
	name, _ := m.store.Get(keyName)
	userID, _ := m.store.Get(keyUserID)
	return Profile{UserName: userName, Name: name, UserID: userID}
}
