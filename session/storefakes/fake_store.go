// Package storefakes provides an in-memory session.Store for tests.
package storefakes

import (
	"sync"

	interrors "github.com/kaiwenyao/firmament-backoffice/internal/errors"
	"github.com/kaiwenyao/firmament-backoffice/session"
)

type FakeStore struct {
	mu   sync.Mutex
	data map[string]string

	// SetErr, when non-nil, is returned by Set. With SetErrKey empty every
	// Set fails; otherwise only the Set for that key does.
	SetErr    error
	SetErrKey string
}

var _ session.Store = (*FakeStore)(nil)

func NewFakeStore() *FakeStore {
	return &FakeStore{data: map[string]string{}}
}

func (f *FakeStore) Get(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return "", interrors.ErrKeyNotFound
	}
	return v, nil
}

func (f *FakeStore) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetErr != nil && (f.SetErrKey == "" || f.SetErrKey == key) {
		return f.SetErr
	}
	f.data[key] = value
	return nil
}

func (f *FakeStore) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

func (f *FakeStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = map[string]string{}
	return nil
}

// Len reports the number of stored keys.
func (f *FakeStore) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.data)
}
