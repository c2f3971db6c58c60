// FILE: src/internal/auth/token_test.go
package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"arrowship/src/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *log.Logger {
	return log.NewLogger()
}

func TestNewTokenSource(t *testing.T) {
	t.Run("none returns nil source", func(t *testing.T) {
		src, err := NewTokenSource(nil, newTestLogger())
		require.NoError(t, err)
		assert.Nil(t, src)

		src, err = NewTokenSource(&config.AuthConfig{Type: "none"}, newTestLogger())
		require.NoError(t, err)
		assert.Nil(t, src)
	})

	t.Run("static token", func(t *testing.T) {
		src, err := NewTokenSource(&config.AuthConfig{Type: "token", Token: "secret"}, newTestLogger())
		require.NoError(t, err)

		tok, err := src.Token()
		require.NoError(t, err)
		assert.Equal(t, "secret", tok)
	})

	t.Run("missing file fails fast", func(t *testing.T) {
		_, err := NewTokenSource(&config.AuthConfig{
			Type:      "token_file",
			TokenFile: filepath.Join(t.TempDir(), "absent"),
		}, newTestLogger())
		assert.Error(t, err)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := NewTokenSource(&config.AuthConfig{Type: "kerberos"}, newTestLogger())
		assert.Error(t, err)
	})
}

func TestFileSourceCaching(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("tok-a\n"), 0600))

	src := &fileSource{path: path, margin: time.Minute, logger: newTestLogger()}

	tok, err := src.Token()
	require.NoError(t, err)
	assert.Equal(t, "tok-a", tok)
	assert.Equal(t, uint64(1), src.reloads.Load())

	// Unchanged file serves from cache
	tok, err = src.Token()
	require.NoError(t, err)
	assert.Equal(t, "tok-a", tok)
	assert.Equal(t, uint64(1), src.reloads.Load())

	// A rewrite with a newer mtime is picked up
	require.NoError(t, os.WriteFile(path, []byte("tok-b"), 0600))
	bumped := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, bumped, bumped))

	tok, err = src.Token()
	require.NoError(t, err)
	assert.Equal(t, "tok-b", tok)
	assert.Equal(t, uint64(2), src.reloads.Load())
}

func TestFileSourceExpiryReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")

	// Token expiring inside the refresh margin forces a re-read even
	// when the file looks unchanged.
	soon := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(30 * time.Second).Unix(),
	})
	signed, err := soon.SignedString([]byte("test-key"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte(signed), 0600))

	src := &fileSource{path: path, margin: time.Minute, logger: newTestLogger()}

	tok, err := src.Token()
	require.NoError(t, err)
	assert.Equal(t, signed, tok)
	require.Equal(t, uint64(1), src.reloads.Load())

	// Swap the contents but pin the recorded mtime
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("rotated"), 0600))
	require.NoError(t, os.Chtimes(path, info.ModTime(), info.ModTime()))

	tok, err = src.Token()
	require.NoError(t, err)
	assert.Equal(t, "rotated", tok)
	assert.Equal(t, uint64(2), src.reloads.Load())
}

func TestFileSourceEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0600))

	src := &fileSource{path: path, margin: time.Minute}
	_, err := src.Token()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestJWTExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()})
	signed, err := token.SignedString([]byte("test-key"))
	require.NoError(t, err)

	got, ok := jwtExpiry(signed)
	require.True(t, ok)
	assert.True(t, got.Equal(exp))

	_, ok = jwtExpiry("an-opaque-token")
	assert.False(t, ok)
}
