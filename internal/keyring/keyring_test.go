package keyring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	opsdesk_errors "github.com/opsdesk/opsdesk/errors"
)

func TestKeyring_LockedByDefault(t *testing.T) {
	k := New()

	assert.False(t, k.Unlocked())

	_, err := k.Get()
	assert.ErrorIs(t, err, opsdesk_errors.ErrNotUnlocked)
}

func TestKeyring_SetAndGet(t *testing.T) {
	k := New()
	k.Set("hunter2")

	assert.True(t, k.Unlocked())

	secret, err := k.Get()
	assert.NoError(t, err)
	assert.Equal(t, "hunter2", secret)
}

func TestKeyring_FirstSecretWins(t *testing.T) {
	k := New()
	k.Set("first")
	k.Set("second")

	secret, err := k.Get()
	assert.NoError(t, err)
	assert.Equal(t, "first", secret)
}

func TestKeyring_Clear(t *testing.T) {
	k := New()
	k.Set("hunter2")
	k.Clear()

	assert.False(t, k.Unlocked())
	_, err := k.Get()
	assert.ErrorIs(t, err, opsdesk_errors.ErrNotUnlocked)
}
