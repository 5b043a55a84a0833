package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/shelfwise/pkg/catalog"
)

func TestIssueAndDecode(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	id := Identity{UserID: uuid.New(), Role: catalog.RoleAuthor}

	raw, err := issuer.Issue(id)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	got, err := issuer.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestDecodeWrongSecret(t *testing.T) {
	raw, err := NewTokenIssuer("secret-a", time.Hour).Issue(Identity{UserID: uuid.New(), Role: catalog.RoleUser})
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret-b", time.Hour).Decode(raw)
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrUnauthorized))
}

func TestDecodeExpired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }
	raw, err := issuer.Issue(Identity{UserID: uuid.New(), Role: catalog.RoleUser})
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Decode(raw)
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrUnauthorized))
}

func TestDecodeGarbage(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		_, err := issuer.Decode(raw)
		assert.True(t, errors.Is(err, catalog.ErrUnauthorized), "input %q", raw)
	}
}

func TestDecodeInvalidRole(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	raw, err := issuer.Issue(Identity{UserID: uuid.New(), Role: catalog.Role("superuser")})
	require.NoError(t, err)

	_, err = issuer.Decode(raw)
	assert.True(t, errors.Is(err, catalog.ErrUnauthorized))
}

func TestDefaultTTL(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", 0)
	assert.Equal(t, DefaultTokenTTL, issuer.ttl)
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)

	require.NoError(t, VerifyPassword(hash, "hunter2"))

	err = VerifyPassword(hash, "wrong")
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrUnauthorized))
}

func TestHashPasswordEmpty(t *testing.T) {
	_, err := HashPassword("")
	assert.True(t, errors.Is(err, catalog.ErrInvalidInput))
}
