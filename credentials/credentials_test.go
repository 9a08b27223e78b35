package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

// newMockStore swaps the real keyring for the in-memory mock.
func newMockStore(t *testing.T) *Store {
	t.Helper()
	keyring.MockInit()
	return NewStore()
}

func TestSetAndGet(t *testing.T) {
	s := newMockStore(t)

	require.NoError(t, s.Set(SecretAPIKey, "sk-test-123"))

	got, err := s.Get(SecretAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "sk-test-123", got)
}

func TestGetNotStored(t *testing.T) {
	s := newMockStore(t)

	_, err := s.Get(SecretSMTPPassword)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotStored)
	assert.Contains(t, err.Error(), "LEADAGENT_SMTP_PASSWORD", "error should name the env fallback")
}

func TestEnvWinsOverKeyring(t *testing.T) {
	s := newMockStore(t)
	require.NoError(t, s.Set(SecretAPIKey, "from-keyring"))
	t.Setenv("LEADAGENT_API_KEY", "from-env")

	got, err := s.Get(SecretAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "from-env", got)
}

func TestGetOptional(t *testing.T) {
	s := newMockStore(t)

	got, err := s.GetOptional(SecretSMTPPassword)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.Set(SecretSMTPPassword, "relay-pass"))
	got, err = s.GetOptional(SecretSMTPPassword)
	require.NoError(t, err)
	assert.Equal(t, "relay-pass", got)
}

func TestSetRejectsEmptySecret(t *testing.T) {
	s := newMockStore(t)

	err := s.Set(SecretAPIKey, "   ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty secret")
}

func TestUnknownSecretName(t *testing.T) {
	s := newMockStore(t)

	_, err := s.Get("github-token")
	assert.ErrorIs(t, err, ErrUnknownSecret)

	err = s.Set("github-token", "x")
	assert.ErrorIs(t, err, ErrUnknownSecret)

	err = s.Delete("github-token")
	assert.ErrorIs(t, err, ErrUnknownSecret)
}

func TestDelete(t *testing.T) {
	s := newMockStore(t)
	require.NoError(t, s.Set(SecretAPIKey, "sk-test-123"))

	require.NoError(t, s.Delete(SecretAPIKey))
	_, err := s.Get(SecretAPIKey)
	assert.ErrorIs(t, err, ErrNotStored)

	// Deleting again is not an error.
	require.NoError(t, s.Delete(SecretAPIKey))
}
