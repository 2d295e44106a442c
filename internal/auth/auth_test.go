package auth

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/shelfmark/internal/domain"
)

var cheapParams = PasswordParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPasswordWithParams("correct horse", cheapParams)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"))
	assert.True(t, VerifyPassword(hash, "correct horse"))
	assert.False(t, VerifyPassword(hash, "wrong horse"))
}

func TestHashPassword_SaltDiffers(t *testing.T) {
	a, err := HashPasswordWithParams("pw", cheapParams)
	require.NoError(t, err)
	b, err := HashPasswordWithParams("pw", cheapParams)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHashPassword_Rejects(t *testing.T) {
	_, err := HashPasswordWithParams("", cheapParams)
	assert.Error(t, err)

	_, err = HashPasswordWithParams(strings.Repeat("a", MaxPasswordLength+1), cheapParams)
	assert.Error(t, err)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	assert.False(t, VerifyPassword("not-a-hash", "pw"))
	assert.False(t, VerifyPassword("$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA", "pw"))
}

func TestLoadOrGenerateKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "auth.key")

	key, err := LoadOrGenerateKey(path)
	require.NoError(t, err)
	assert.Len(t, key, 32)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := LoadOrGenerateKey(path)
	require.NoError(t, err)
	assert.Equal(t, key, again)
}

func TestLoadOrGenerateKey_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.key")
	require.NoError(t, os.WriteFile(path, []byte("short"), 0o600))

	_, err := LoadOrGenerateKey(path)
	assert.Error(t, err)
}

func newTokenService(t *testing.T, access time.Duration) *TokenService {
	t.Helper()
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	svc, err := NewTokenService(key, access, time.Hour)
	require.NoError(t, err)
	return svc
}

func TestAccessToken_RoundTrip(t *testing.T) {
	svc := newTokenService(t, 15*time.Minute)
	user := &domain.User{ID: 42, Email: "reader@example.com", Role: domain.RoleAdmin}

	token, expiresAt, err := svc.GenerateAccessToken(user, "session-abc")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "v4.local."))
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := svc.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "session-abc", claims.SessionID)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
	assert.Equal(t, "42", claims.Subject)
	assert.NotEmpty(t, claims.TokenID)
}

func TestAccessToken_Expired(t *testing.T) {
	svc := newTokenService(t, -time.Minute)
	token, _, err := svc.GenerateAccessToken(&domain.User{ID: 1, Role: domain.RoleMember}, "session-x")
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(token)
	assert.Error(t, err)
}

func TestAccessToken_WrongKey(t *testing.T) {
	svc := newTokenService(t, time.Minute)
	token, _, err := svc.GenerateAccessToken(&domain.User{ID: 1, Role: domain.RoleMember}, "session-x")
	require.NoError(t, err)

	other, err := NewTokenService(make([]byte, 32), time.Minute, time.Hour)
	require.NoError(t, err)
	_, err = other.VerifyAccessToken(token)
	assert.Error(t, err)

	_, err = svc.VerifyAccessToken("garbage")
	assert.Error(t, err)
}

func TestNewTokenService_KeyLength(t *testing.T) {
	_, err := NewTokenService([]byte("short"), time.Minute, time.Hour)
	assert.Error(t, err)
}

func TestRefreshToken(t *testing.T) {
	svc := newTokenService(t, time.Minute)
	a, err := svc.GenerateRefreshToken()
	require.NoError(t, err)
	b, err := svc.GenerateRefreshToken()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, HashRefreshToken(a), 64)
	assert.Equal(t, HashRefreshToken(a), HashRefreshToken(a))
	assert.NotEqual(t, HashRefreshToken(a), HashRefreshToken(b))
}
