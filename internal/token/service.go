package token

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/alexedwards/argon2id"

	"github.com/mjoly/fete-invites/internal/domain"
	"github.com/mjoly/fete-invites/pkg/config"
	"github.com/mjoly/fete-invites/pkg/logger"
)

// ErrNotConfigured means the admin password hash or a JWT secret is
// missing from the environment; the boundary reports this as a server
// configuration error, never as bad credentials.
var ErrNotConfigured = errors.New("admin authentication is not configured")

const adminRole = "admin"

// Session is the result of a successful login or rotation.
type Session struct {
	AdminID      string
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // access token lifetime, seconds
}

// Service implements the admin session lifecycle: password login, stateless
// access-token verification, one-time refresh rotation and revocation.
type Service struct {
	registry Registry
	cfg      config.AuthConfig

	// injectable for expiry-boundary and timing tests
	now   func() time.Time
	sleep func(time.Duration)
}

func NewService(registry Registry, cfg config.AuthConfig) *Service {
	return &Service{
		registry: registry,
		cfg:      cfg,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// Login verifies the shared admin password and mints a fresh session. A
// wrong password always costs an extra randomized 500-1000ms so response
// time leaks nothing about how the comparison failed.
func (s *Service) Login(ctx context.Context, password, userAgent string) (*Session, error) {
	if s.cfg.AdminPasswordHash == "" || s.cfg.AccessSecret == "" || s.cfg.RefreshSecret == "" {
		return nil, ErrNotConfigured
	}

	match, err := argon2id.ComparePasswordAndHash(password, s.cfg.AdminPasswordHash)
	if err != nil || !match {
		s.sleep(loginFailureDelay())
		return nil, domain.ErrInvalidCredentials
	}

	adminID, err := newAdminID()
	if err != nil {
		return nil, err
	}

	session, err := s.mint(ctx, adminID, userAgent)
	if err != nil {
		return nil, err
	}

	// Opportunistic cleanup of abandoned sessions.
	cutoff := s.now().Add(-s.cfg.RefreshTokenTTL)
	if err := s.registry.Sweep(ctx, cutoff); err != nil {
		logger.WarnContext(ctx, "refresh token sweep failed", "error", err)
	}

	logger.InfoContext(ctx, "admin login", "admin_id", adminID)
	return session, nil
}

// Verify checks an access token's signature and expiry. Access tokens are
// stateless: no registry lookup happens here.
func (s *Service) Verify(accessToken string) (*Claims, error) {
	claims, err := parse([]byte(s.cfg.AccessSecret), accessToken, s.now)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if claims.Type == "refresh" || claims.Role != adminRole {
		return nil, domain.ErrInvalidCredentials
	}
	return claims, nil
}

// Refresh rotates a refresh token: it must verify cryptographically AND
// still be present in the registry. The consumed token is gone whether or
// not minting succeeds, so a replayed token always fails.
func (s *Service) Refresh(ctx context.Context, refreshToken, userAgent string) (*Session, error) {
	claims, err := parse([]byte(s.cfg.RefreshSecret), refreshToken, s.now)
	if err != nil || claims.Type != "refresh" {
		return nil, domain.ErrInvalidCredentials
	}

	_, ok, err := s.registry.Consume(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("refresh token registry: %w", err)
	}
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}

	return s.mint(ctx, claims.AdminID, userAgent)
}

// Logout revokes one refresh token. Revoking an unknown or already-rotated
// token is not an error.
func (s *Service) Logout(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}
	if err := s.registry.Delete(ctx, refreshToken); err != nil {
		logger.WarnContext(ctx, "refresh token delete failed", "error", err)
	}
}

func (s *Service) mint(ctx context.Context, adminID, userAgent string) (*Session, error) {
	now := s.now()

	access, err := sign([]byte(s.cfg.AccessSecret),
		Claims{AdminID: adminID, Role: adminRole}, now, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refresh, err := sign([]byte(s.cfg.RefreshSecret),
		Claims{AdminID: adminID, Role: adminRole, Type: "refresh"}, now, s.cfg.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	if err := s.registry.Put(ctx, refresh, Entry{
		AdminID:   adminID,
		CreatedAt: now,
		UserAgent: userAgent,
	}); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &Session{
		AdminID:      adminID,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.cfg.AccessTokenTTL.Seconds()),
	}, nil
}

// Each login mints a fresh admin identity; sessions are deliberately not
// unified across logins.
func newAdminID() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return "admin-" + hex.EncodeToString(buf), nil
}

func loginFailureDelay() time.Duration {
	jitter, err := rand.Int(rand.Reader, big.NewInt(500))
	if err != nil {
		jitter = big.NewInt(250)
	}
	return time.Duration(500+jitter.Int64()) * time.Millisecond
}
