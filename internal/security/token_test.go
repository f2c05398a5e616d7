package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, ttl time.Duration) *TokenManager {
	t.Helper()

	manager, err := NewTokenManager("test-secret", "HS256", ttl)
	require.NoError(t, err)
	return manager
}

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	manager := newTestManager(t, 2*time.Hour)

	token, expiresAt, err := manager.Issue(7, "admin")
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(2*time.Hour), expiresAt, 5*time.Second)

	claims, err := manager.Verify(token)
	require.NoError(t, err)
	require.Equal(t, int64(7), claims.UserID)
	require.Equal(t, "admin", claims.Role)
	require.NotEmpty(t, claims.TokenID)
	require.Equal(t, expiresAt.Unix(), claims.ExpiresAt.Unix())
}

func TestTokensAreUniquePerIssue(t *testing.T) {
	t.Parallel()

	manager := newTestManager(t, time.Hour)

	first, _, err := manager.Issue(1, "user")
	require.NoError(t, err)
	second, _, err := manager.Issue(1, "user")
	require.NoError(t, err)

	require.NotEqual(t, first, second)
}

func TestTokenExpires(t *testing.T) {
	t.Parallel()

	manager := newTestManager(t, time.Minute)
	issuedAt := time.Now()
	manager.now = func() time.Time { return issuedAt }

	token, _, err := manager.Issue(3, "user")
	require.NoError(t, err)

	manager.now = func() time.Time { return issuedAt.Add(59 * time.Second) }
	_, err = manager.Verify(token)
	require.NoError(t, err)

	manager.now = func() time.Time { return issuedAt.Add(2 * time.Minute) }
	_, err = manager.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsTamperedAndForeignTokens(t *testing.T) {
	t.Parallel()

	manager := newTestManager(t, time.Hour)
	token, _, err := manager.Issue(3, "user")
	require.NoError(t, err)

	other, err := NewTokenManager("another-secret", "HS256", time.Hour)
	require.NoError(t, err)
	_, err = other.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	tampered := token + "x"
	_, err = manager.Verify(tampered)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = manager.Verify("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsOtherAlgorithm(t *testing.T) {
	t.Parallel()

	manager := newTestManager(t, time.Hour)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS512, tokenClaims{
		UserID: 3,
		Role:   "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := foreign.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = manager.Verify(signed)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRequiresExpirationAndSubject(t *testing.T) {
	t.Parallel()

	manager := newTestManager(t, time.Hour)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{UserID: 3}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = manager.Verify(noExp)
	require.ErrorIs(t, err, ErrInvalidToken)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = manager.Verify(noUser)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenManagerValidation(t *testing.T) {
	t.Parallel()

	_, err := NewTokenManager("secret", "RS256", time.Hour)
	require.Error(t, err)
	_, err = NewTokenManager("secret", "none", time.Hour)
	require.Error(t, err)
	_, err = NewTokenManager("", "HS256", time.Hour)
	require.Error(t, err)
	_, err = NewTokenManager("secret", "HS384", 0)
	require.Error(t, err)

	manager, err := NewTokenManager("secret", "HS384", time.Minute)
	require.NoError(t, err)
	_, expiresAt, err := manager.Issue(1, "user")
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Minute), expiresAt, 5*time.Second)
}
