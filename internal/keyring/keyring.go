package keyring

import (
	"sync"

	opsdesk_errors "github.com/opsdesk/opsdesk/errors"
)

// Keyring holds the validated master key for the process lifetime. It does
// not verify the key itself; callers must only Set a secret after a
// successful store open. The held value is never logged or persisted.
type Keyring struct {
	mu     sync.RWMutex
	secret string
	set    bool
}

func New() *Keyring {
	return &Keyring{}
}

// Set stores the secret. The first accepted secret wins; later calls are
// no-ops so a concurrent second unlock cannot swap the key mid-flight.
func (k *Keyring) Set(secret string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.set {
		return
	}
	k.secret = secret
	k.set = true
}

// Get returns the held secret, or ErrNotUnlocked when no secret has been
// accepted yet.
func (k *Keyring) Get() (string, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if !k.set {
		return "", opsdesk_errors.ErrNotUnlocked
	}
	return k.secret, nil
}

// Unlocked reports whether a secret has been accepted.
func (k *Keyring) Unlocked() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.set
}

// Clear drops the held secret. Only intended for failed-validation resets
// and process shutdown.
func (k *Keyring) Clear() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.secret = ""
	k.set = false
}
