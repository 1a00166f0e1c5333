package secrets

import (
	"encoding/base64"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/argon2"
)

func TestHashPassword(t *testing.T) {
	t.Run("encodes the configured parameters", func(t *testing.T) {
		encoded, err := HashPassword("hunter2", "pepper")
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=65536,t=3,p=2$"))
		assert.Len(t, strings.Split(encoded, "$"), 6)
	})

	t.Run("salts are random", func(t *testing.T) {
		a, err := HashPassword("hunter2", "pepper")
		require.NoError(t, err)
		b, err := HashPassword("hunter2", "pepper")
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("empty password is rejected", func(t *testing.T) {
		_, err := HashPassword("", "pepper")
		assert.Error(t, err)
	})
}

func TestVerifyPassword(t *testing.T) {
	encoded, err := HashPassword("hunter2", "pepper")
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		pepper   string
		want     bool
	}{
		{"matching password", "hunter2", "pepper", true},
		{"wrong password", "hunter3", "pepper", false},
		{"wrong pepper", "hunter2", "paprika", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := VerifyPassword(tt.password, tt.pepper, encoded)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}

	t.Run("older cost parameters still verify", func(t *testing.T) {
		// The stored parameters, not the current constants, drive
		// verification, so rows hashed under cheaper costs keep working.
		salt := []byte("0123456789abcdef")
		key := argon2.IDKey([]byte("hunter2pepper"), salt, 2, 32*1024, 1, 32)
		legacy := fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s", 32*1024, 2, 1,
			base64.RawStdEncoding.EncodeToString(salt),
			base64.RawStdEncoding.EncodeToString(key))

		ok, err := VerifyPassword("hunter2", "pepper", legacy)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("malformed hashes error instead of matching", func(t *testing.T) {
		for _, encoded := range []string{
			"",
			"plaintext",
			"$bcrypt$2a$10$abcdef",
			"$argon2id$v=19$m=65536,t=3,p=2$salt-only",
			"$argon2id$v=19$bogus$c2FsdA$a2V5",
			"$argon2id$v=19$m=65536,t=3,p=2$!!!$a2V5",
			"$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$!!!",
		} {
			_, err := VerifyPassword("hunter2", "pepper", encoded)
			assert.ErrorIs(t, err, ErrMalformedHash, encoded)
		}
	})

	t.Run("unknown argon2 version is refused", func(t *testing.T) {
		parts := strings.Split(encoded, "$")
		parts[2] = "v=18"
		_, err := VerifyPassword("hunter2", "pepper", strings.Join(parts, "$"))
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrMalformedHash)
	})

	t.Run("truncated key fails closed", func(t *testing.T) {
		parts := strings.Split(encoded, "$")
		parts[5] = "c2hvcnQ"
		ok, err := VerifyPassword("hunter2", "pepper", strings.Join(parts, "$"))
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
