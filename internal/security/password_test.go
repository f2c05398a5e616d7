package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-watchlist/internal/model"
)

// Small parameters keep the suite fast; production uses DefaultArgon2Params.
var testParams = Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

func TestIsStrongPassword(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"Passw0rd!":       true,
		"Aa1{bcdef":       true,
		`Aa1"bcdef`:       true,
		"Aa1!bcd":         false, // seven characters
		"password1!":      false, // no uppercase
		"PASSWORD1!":      false, // no lowercase
		"Password!!":      false, // no digit
		"Password11":      false, // no symbol
		"Password1_":      false, // underscore is outside the symbol set
		"":                false,
		"Långt0rd!":       true,
		"Sup3r<secret>xx": true,
	}

	for password, want := range cases {
		t.Run(password, func(t *testing.T) {
			assert.Equal(t, want, IsStrongPassword(password))
		})
	}
}

func TestPasswordHasherRoundTrip(t *testing.T) {
	t.Parallel()

	hasher := NewPasswordHasher(testParams)

	hash, err := hasher.Hash("Passw0rd!")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$"))
	require.NotContains(t, hash, "Passw0rd!")

	assert.True(t, hasher.Verify("Passw0rd!", hash))
	assert.False(t, hasher.Verify("Passw0rd?", hash))
	assert.False(t, hasher.Verify("", hash))
}

func TestPasswordHasherSaltsEachHash(t *testing.T) {
	t.Parallel()

	hasher := NewPasswordHasher(testParams)

	first, err := hasher.Hash("Passw0rd!")
	require.NoError(t, err)
	second, err := hasher.Hash("Passw0rd!")
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	require.True(t, hasher.Verify("Passw0rd!", second))
}

func TestPasswordHasherRejectsWeakPassword(t *testing.T) {
	t.Parallel()

	_, err := NewPasswordHasher(testParams).Hash("weak")
	require.ErrorIs(t, err, ErrWeakPassword)
	require.ErrorIs(t, err, model.ErrWeakPassword)
}

func TestVerifyUsesParametersFromHash(t *testing.T) {
	t.Parallel()

	hash, err := NewPasswordHasher(testParams).Hash("Passw0rd!")
	require.NoError(t, err)

	other := NewPasswordHasher(Argon2Params{Time: 2, Memory: 16 * 1024, Threads: 2, KeyLen: 16, SaltLen: 8})
	require.True(t, other.Verify("Passw0rd!", hash))
}

func TestVerifyMalformedHash(t *testing.T) {
	t.Parallel()

	hasher := NewPasswordHasher(testParams)
	for _, encoded := range []string{
		"",
		"plaintext",
		"$2a$12$abcdefghijklmnopqrstuv",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$c2FsdA$",
	} {
		assert.False(t, hasher.Verify("Passw0rd!", encoded), encoded)
	}
}
