package token

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"

	"github.com/mjoly/fete-invites/internal/domain"
	"github.com/mjoly/fete-invites/pkg/config"
)

const testPassword = "open-sesame-2026"

func testAuthConfig(t *testing.T) config.AuthConfig {
	t.Helper()

	hash, err := argon2id.CreateHash(testPassword, argon2id.DefaultParams)
	if err != nil {
		t.Fatalf("CreateHash: %v", err)
	}
	return config.AuthConfig{
		AdminPasswordHash: hash,
		AccessSecret:      "access-secret-for-tests",
		RefreshSecret:     "refresh-secret-for-tests",
		AccessTokenTTL:    15 * time.Minute,
		RefreshTokenTTL:   7 * 24 * time.Hour,
	}
}

// newTestService returns a service with a frozen clock and recorded sleeps.
func newTestService(t *testing.T, at time.Time) (*Service, *MemoryRegistry, *time.Duration) {
	t.Helper()

	registry := NewMemoryRegistry()
	svc := NewService(registry, testAuthConfig(t))

	var slept time.Duration
	svc.now = func() time.Time { return at }
	svc.sleep = func(d time.Duration) { slept = d }
	return svc, registry, &slept
}

func TestLoginSuccess(t *testing.T) {
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	svc, registry, _ := newTestService(t, base)

	session, err := svc.Login(context.Background(), testPassword, "test-agent")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if !strings.HasPrefix(session.AdminID, "admin-") || len(session.AdminID) != len("admin-")+16 {
		t.Errorf("unexpected admin id %q", session.AdminID)
	}
	if session.ExpiresIn != 900 {
		t.Errorf("ExpiresIn = %d, want 900", session.ExpiresIn)
	}
	if session.AccessToken == "" || session.RefreshToken == "" {
		t.Fatal("expected both tokens to be set")
	}
	if session.AccessToken == session.RefreshToken {
		t.Error("access and refresh tokens must differ")
	}
	if registry.Len() != 1 {
		t.Errorf("registry holds %d entries, want 1", registry.Len())
	}

	claims, err := svc.Verify(session.AccessToken)
	if err != nil {
		t.Fatalf("Verify(access): %v", err)
	}
	if claims.AdminID != session.AdminID || claims.Role != "admin" {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestLoginFreshIdentityPerLogin(t *testing.T) {
	svc, _, _ := newTestService(t, time.Now())

	a, err := svc.Login(context.Background(), testPassword, "agent")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	b, err := svc.Login(context.Background(), testPassword, "agent")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if a.AdminID == b.AdminID {
		t.Errorf("both logins got admin id %q, want distinct identities", a.AdminID)
	}
}

func TestLoginWrongPasswordDelays(t *testing.T) {
	svc, registry, slept := newTestService(t, time.Now())

	_, err := svc.Login(context.Background(), "wrong", "agent")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if *slept < 500*time.Millisecond || *slept >= time.Second {
		t.Errorf("failure delay = %v, want in [500ms, 1s)", *slept)
	}
	if registry.Len() != 0 {
		t.Errorf("failed login stored %d refresh tokens", registry.Len())
	}
}

func TestLoginNotConfigured(t *testing.T) {
	svc := NewService(NewMemoryRegistry(), config.AuthConfig{})

	_, err := svc.Login(context.Background(), testPassword, "agent")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestVerifyExpiryBoundary(t *testing.T) {
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(t, base)

	session, err := svc.Login(context.Background(), testPassword, "agent")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	svc.now = func() time.Time { return base.Add(14*time.Minute + 59*time.Second) }
	if _, err := svc.Verify(session.AccessToken); err != nil {
		t.Errorf("Verify just before expiry: %v", err)
	}

	svc.now = func() time.Time { return base.Add(15*time.Minute + 1*time.Second) }
	if _, err := svc.Verify(session.AccessToken); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("Verify after expiry: err = %v, want ErrInvalidCredentials", err)
	}
}

func TestVerifyRejectsRefreshToken(t *testing.T) {
	svc, _, _ := newTestService(t, time.Now())

	session, err := svc.Login(context.Background(), testPassword, "agent")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if _, err := svc.Verify(session.RefreshToken); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("Verify(refresh token): err = %v, want ErrInvalidCredentials", err)
	}
}

func TestRefreshRotatesOnce(t *testing.T) {
	svc, registry, _ := newTestService(t, time.Now())
	ctx := context.Background()

	session, err := svc.Login(ctx, testPassword, "agent")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	rotated, err := svc.Refresh(ctx, session.RefreshToken, "agent")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if rotated.RefreshToken == session.RefreshToken {
		t.Error("rotation returned the same refresh token")
	}
	if rotated.AdminID != session.AdminID {
		t.Errorf("rotation changed admin id %q -> %q", session.AdminID, rotated.AdminID)
	}
	if registry.Len() != 1 {
		t.Errorf("registry holds %d entries after rotation, want 1", registry.Len())
	}

	// Replaying the consumed token must fail even though its signature
	// is still valid.
	if _, err := svc.Refresh(ctx, session.RefreshToken, "agent"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("replay: err = %v, want ErrInvalidCredentials", err)
	}

	// The rotated token still works.
	if _, err := svc.Refresh(ctx, rotated.RefreshToken, "agent"); err != nil {
		t.Errorf("rotated token: %v", err)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc, _, _ := newTestService(t, time.Now())
	ctx := context.Background()

	session, err := svc.Login(ctx, testPassword, "agent")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if _, err := svc.Refresh(ctx, session.AccessToken, "agent"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("Refresh(access token): err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	svc, registry, _ := newTestService(t, time.Now())
	ctx := context.Background()

	session, err := svc.Login(ctx, testPassword, "agent")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	svc.Logout(ctx, session.RefreshToken)
	if registry.Len() != 0 {
		t.Errorf("registry holds %d entries after logout, want 0", registry.Len())
	}
	if _, err := svc.Refresh(ctx, session.RefreshToken, "agent"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("refresh after logout: err = %v, want ErrInvalidCredentials", err)
	}

	// Logging out again, or with an unknown token, is a no-op.
	svc.Logout(ctx, session.RefreshToken)
	svc.Logout(ctx, "")
}

func TestLoginSweepsStaleSessions(t *testing.T) {
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	svc, registry, _ := newTestService(t, base)
	ctx := context.Background()

	if _, err := svc.Login(ctx, testPassword, "agent"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	// Well past the refresh TTL, a new login sweeps the abandoned entry.
	svc.now = func() time.Time { return base.Add(8 * 24 * time.Hour) }
	if _, err := svc.Login(ctx, testPassword, "agent"); err != nil {
		t.Fatalf("second login: %v", err)
	}
	if registry.Len() != 1 {
		t.Errorf("registry holds %d entries, want only the fresh session", registry.Len())
	}
}
