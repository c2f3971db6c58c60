// FILE: src/internal/auth/token.go
package auth

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"arrowship/src/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lixenwraith/log"
)

// TokenSource supplies bearer tokens for outbound requests.
type TokenSource interface {
	// Token returns the current bearer token.
	Token() (string, error)

	// Stats returns source statistics for status reporting.
	Stats() map[string]any
}

// NewTokenSource creates a token source from config.
// Returns nil when no authentication is configured.
func NewTokenSource(cfg *config.AuthConfig, logger *log.Logger) (TokenSource, error) {
	if cfg == nil || cfg.Type == "" || cfg.Type == "none" {
		return nil, nil
	}

	switch cfg.Type {
	case "token":
		if cfg.Token == "" {
			return nil, fmt.Errorf("static token source requires a token")
		}
		return &staticSource{token: cfg.Token}, nil

	case "token_file":
		if cfg.TokenFile == "" {
			return nil, fmt.Errorf("file token source requires a path")
		}
		s := &fileSource{
			path:   cfg.TokenFile,
			margin: time.Duration(cfg.RefreshMarginSeconds) * time.Second,
			logger: logger,
		}
		// Fail fast on an unreadable or empty file
		if _, err := s.Token(); err != nil {
			return nil, err
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unknown auth type: %s", cfg.Type)
	}
}

// staticSource returns a fixed token.
type staticSource struct {
	token string
}

func (s *staticSource) Token() (string, error) {
	return s.token, nil
}

func (s *staticSource) Stats() map[string]any {
	return map[string]any{"type": "token"}
}

// fileSource reads the token from a file and re-reads it when the file
// changes or the cached token approaches its JWT expiry.
type fileSource struct {
	// Configuration
	path   string
	margin time.Duration
	logger *log.Logger

	// Runtime
	mu      sync.Mutex
	token   string
	expiry  time.Time // zero when the token carries no deadline
	modTime time.Time

	// Statistics
	reloads atomic.Uint64
}

func (s *fileSource) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.path)
	if err != nil {
		// Keep serving the cached token while it is still usable
		if s.token != "" && !s.nearExpiry() {
			return s.token, nil
		}
		return "", fmt.Errorf("failed to stat token file: %w", err)
	}

	if s.token != "" && info.ModTime().Equal(s.modTime) && !s.nearExpiry() {
		return s.token, nil
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if s.token != "" && !s.nearExpiry() {
			return s.token, nil
		}
		return "", fmt.Errorf("failed to read token file: %w", err)
	}

	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", fmt.Errorf("token file is empty: %s", s.path)
	}

	s.token = token
	s.modTime = info.ModTime()
	s.expiry, _ = jwtExpiry(token)
	s.reloads.Add(1)

	if s.logger != nil {
		s.logger.Debug("msg", "Token reloaded",
			"component", "auth",
			"path", s.path,
			"has_expiry", !s.expiry.IsZero())
	}

	return s.token, nil
}

// nearExpiry reports whether the cached token is within the refresh
// margin of its expiry. Callers must hold s.mu.
func (s *fileSource) nearExpiry() bool {
	if s.expiry.IsZero() {
		return false
	}
	return time.Until(s.expiry) <= s.margin
}

func (s *fileSource) Stats() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return map[string]any{
		"type":       "token_file",
		"path":       s.path,
		"reloads":    s.reloads.Load(),
		"has_expiry": !s.expiry.IsZero(),
	}
}

// jwtExpiry extracts the exp claim without verifying the signature.
// The uploader only needs the deadline to schedule a re-read, the
// receiving end verifies the token.
func jwtExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
