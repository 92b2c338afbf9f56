// Package session owns the durable client-side state shared by the request
// pipeline and the notification channel: the per-profile session identity,
// the access/refresh credential pair, and the profile fields cached at login.
package session

// Store is a durable string key/value store. Values written through a Store
// must survive a process restart; Clear removes every key in the scope.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
	Clear() error
}
