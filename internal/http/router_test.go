package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"

	apihttp "github.com/mjoly/fete-invites/internal/http"
	"github.com/mjoly/fete-invites/internal/invite"
	"github.com/mjoly/fete-invites/internal/mailer"
	"github.com/mjoly/fete-invites/internal/service"
	"github.com/mjoly/fete-invites/internal/store/memory"
	"github.com/mjoly/fete-invites/internal/token"
	"github.com/mjoly/fete-invites/pkg/config"
	"github.com/mjoly/fete-invites/pkg/events"
)

const adminPassword = "correct-horse-battery"

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	hash, err := argon2id.CreateHash(adminPassword, argon2id.DefaultParams)
	if err != nil {
		t.Fatalf("CreateHash: %v", err)
	}

	cfg := &config.Config{
		Server: config.ServerConfig{Env: "development"},
		Auth: config.AuthConfig{
			AdminPasswordHash: hash,
			AccessSecret:      "access-secret-for-tests",
			RefreshSecret:     "refresh-secret-for-tests",
			AccessTokenTTL:    15 * time.Minute,
			RefreshTokenTTL:   7 * 24 * time.Hour,
		},
		Invites: config.InviteConfig{
			BaseURL:    "https://fete.example.com",
			CodeLength: 16,
		},
	}

	qrStore, err := invite.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	guestStore := memory.New()
	mail := mailer.NewDevMailer()
	bus := events.NopBus{}

	tokens := token.NewService(token.NewMemoryRegistry(), cfg.Auth)
	guests := service.NewGuestService(guestStore, invite.NewGenerator(cfg.Invites.CodeLength), qrStore, mail, bus, cfg.Invites)
	rsvp := service.NewRSVPService(guestStore, mail, bus)

	return apihttp.NewRouter(cfg, tokens, guests, rsvp, qrStore.Dir())
}

type testRequest struct {
	method  string
	path    string
	body    any
	token   string
	cookies []*http.Cookie
}

func do(t *testing.T, h http.Handler, req testRequest) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var body bytes.Buffer
	if req.body != nil {
		if err := json.NewEncoder(&body).Encode(req.body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	r := httptest.NewRequest(req.method, req.path, &body)
	r.RemoteAddr = "192.0.2.1:5000"
	if req.body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		r.Header.Set("Authorization", "Bearer "+req.token)
	}
	for _, c := range req.cookies {
		r.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	var parsed map[string]any
	if ct := rec.Header().Get("Content-Type"); ct == "application/json" && rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &parsed); err != nil {
			t.Fatalf("%s %s: bad JSON %q: %v", req.method, req.path, rec.Body.String(), err)
		}
	}
	return rec, parsed
}

func login(t *testing.T, h http.Handler) (accessToken string, refreshCookie *http.Cookie) {
	t.Helper()

	rec, body := do(t, h, testRequest{
		method: http.MethodPost,
		path:   "/api/auth/admin",
		body:   map[string]string{"password": adminPassword},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status %d, body %s", rec.Code, rec.Body.String())
	}
	accessToken, _ = body["accessToken"].(string)
	if accessToken == "" {
		t.Fatal("login returned no access token")
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == "refreshToken" {
			refreshCookie = c
		}
	}
	if refreshCookie == nil {
		t.Fatal("login set no refresh cookie")
	}
	return accessToken, refreshCookie
}

func TestHealthz(t *testing.T) {
	h := newTestServer(t)
	rec, _ := do(t, h, testRequest{method: http.MethodGet, path: "/healthz"})
	if rec.Code != http.StatusOK {
		t.Errorf("healthz: status %d", rec.Code)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	h := newTestServer(t)

	start := time.Now()
	rec, _ := do(t, h, testRequest{
		method: http.MethodPost,
		path:   "/api/auth/admin",
		body:   map[string]string{"password": "nope"},
	})
	elapsed := time.Since(start)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status %d, want 401", rec.Code)
	}
	if elapsed < 500*time.Millisecond {
		t.Errorf("failed login answered in %v, want at least 500ms", elapsed)
	}
}

func TestRefreshCookieAttributes(t *testing.T) {
	h := newTestServer(t)
	_, cookie := login(t, h)

	if !cookie.HttpOnly {
		t.Error("refresh cookie not HttpOnly")
	}
	if cookie.Path != "/api/auth" {
		t.Errorf("cookie path %q", cookie.Path)
	}
	if cookie.SameSite != http.SameSiteStrictMode {
		t.Errorf("cookie SameSite %v", cookie.SameSite)
	}
	if cookie.Secure {
		t.Error("Secure flag set outside production")
	}
}

func TestRefreshRotationFlow(t *testing.T) {
	h := newTestServer(t)
	_, first := login(t, h)

	rec, body := do(t, h, testRequest{
		method:  http.MethodPost,
		path:    "/api/auth/refresh",
		cookies: []*http.Cookie{first},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: status %d, body %s", rec.Code, rec.Body.String())
	}
	if tok, _ := body["accessToken"].(string); tok == "" {
		t.Error("refresh returned no access token")
	}

	// The consumed cookie is dead.
	rec, _ = do(t, h, testRequest{
		method:  http.MethodPost,
		path:    "/api/auth/refresh",
		cookies: []*http.Cookie{first},
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("replayed refresh: status %d, want 403", rec.Code)
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	h := newTestServer(t)
	_, cookie := login(t, h)

	rec, _ := do(t, h, testRequest{
		method:  http.MethodPost,
		path:    "/api/auth/logout",
		cookies: []*http.Cookie{cookie},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: status %d", rec.Code)
	}

	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "refreshToken" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("logout did not clear the refresh cookie")
	}

	rec, _ = do(t, h, testRequest{
		method:  http.MethodPost,
		path:    "/api/auth/refresh",
		cookies: []*http.Cookie{cookie},
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("refresh after logout: status %d, want 403", rec.Code)
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	h := newTestServer(t)

	rec, _ := do(t, h, testRequest{method: http.MethodGet, path: "/api/guests/list"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status %d, want 401", rec.Code)
	}

	rec, _ = do(t, h, testRequest{method: http.MethodGet, path: "/api/guests/list", token: "garbage"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("bad token: status %d, want 403", rec.Code)
	}
}

func TestGuestLifecycle(t *testing.T) {
	h := newTestServer(t)
	accessToken, _ := login(t, h)

	// Admin creates a guest.
	rec, body := do(t, h, testRequest{
		method: http.MethodPost,
		path:   "/api/guests",
		token:  accessToken,
		body:   map[string]string{"name": "Marie Dupont", "email": "marie@example.com"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d, body %s", rec.Code, rec.Body.String())
	}
	guest, _ := body["guest"].(map[string]any)
	code, _ := guest["uniqueCode"].(string)
	guestID, _ := guest["id"].(string)
	if len(code) != 16 || guestID == "" {
		t.Fatalf("created guest: %v", guest)
	}
	if url, _ := guest["qrCodeUrl"].(string); url == "" {
		t.Error("guest created without QR artifact")
	}

	// Guest verifies the code; the public view hides the code itself.
	rec, body = do(t, h, testRequest{method: http.MethodGet, path: "/api/guests/verify/" + code})
	if rec.Code != http.StatusOK {
		t.Fatalf("verify: status %d", rec.Code)
	}
	public, _ := body["guest"].(map[string]any)
	if _, leaked := public["uniqueCode"]; leaked {
		t.Error("public view leaks the unique code")
	}
	if _, leaked := public["id"]; leaked {
		t.Error("public view leaks the internal id")
	}

	// Location stays hidden until the guest confirms.
	rec, _ = do(t, h, testRequest{method: http.MethodGet, path: "/api/guests/event-details?code=" + code})
	if rec.Code != http.StatusForbidden {
		t.Errorf("event details before RSVP: status %d, want 403", rec.Code)
	}

	// First RSVP answers "yes".
	rec, body = do(t, h, testRequest{
		method: http.MethodPost,
		path:   "/api/guests/rsvp",
		body: map[string]any{
			"email":       "marie@example.com",
			"code":        code,
			"attending":   true,
			"guestsCount": 1,
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("rsvp: status %d, body %s", rec.Code, rec.Body.String())
	}
	if access, _ := body["locationAccess"].(bool); !access {
		t.Error("confirmed RSVP did not grant location access")
	}

	rec, _ = do(t, h, testRequest{method: http.MethodGet, path: "/api/guests/event-details?code=" + code})
	if rec.Code != http.StatusOK {
		t.Errorf("event details after RSVP: status %d", rec.Code)
	}

	// Check-in, then an idempotent repeat scan.
	rec, body = do(t, h, testRequest{method: http.MethodPost, path: "/api/guests/check-in/" + code})
	if rec.Code != http.StatusOK {
		t.Fatalf("check-in: status %d, body %s", rec.Code, rec.Body.String())
	}
	if already, _ := body["alreadyCheckedIn"].(bool); already {
		t.Error("first scan flagged as repeat")
	}
	firstTime, _ := body["checkInTime"].(string)

	rec, body = do(t, h, testRequest{method: http.MethodPost, path: "/api/guests/check-in/" + code})
	if rec.Code != http.StatusOK {
		t.Fatalf("repeat check-in: status %d", rec.Code)
	}
	if already, _ := body["alreadyCheckedIn"].(bool); !already {
		t.Error("repeat scan not flagged")
	}
	if repeatTime, _ := body["checkInTime"].(string); repeatTime != firstTime {
		t.Errorf("repeat scan moved check-in time %q -> %q", firstTime, repeatTime)
	}

	// Stats reflect the single confirmed, checked-in guest.
	rec, body = do(t, h, testRequest{method: http.MethodGet, path: "/api/guests/stats", token: accessToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("stats: status %d", rec.Code)
	}
	stats, _ := body["stats"].(map[string]any)
	for field, want := range map[string]float64{
		"totalGuests":     1,
		"attendingGuests": 1,
		"checkedInGuests": 1,
		"totalAttendees":  2,
		"responseRate":    100,
		"checkInRate":     100,
	} {
		if got, _ := stats[field].(float64); got != want {
			t.Errorf("stats.%s = %v, want %v", field, stats[field], want)
		}
	}

	// The QR archive has one entry.
	rec, _ = do(t, h, testRequest{method: http.MethodGet, path: "/api/guests/download-qr-codes", token: accessToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("download: status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/zip" {
		t.Errorf("download Content-Type = %q", ct)
	}

	// Delete and confirm the code dies with the guest.
	rec, _ = do(t, h, testRequest{method: http.MethodDelete, path: "/api/guests/" + guestID, token: accessToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status %d", rec.Code)
	}
	rec, _ = do(t, h, testRequest{method: http.MethodGet, path: "/api/guests/verify/" + code})
	if rec.Code != http.StatusNotFound {
		t.Errorf("verify after delete: status %d, want 404", rec.Code)
	}
}

func TestDownloadWithNoQRCodesIs404(t *testing.T) {
	h := newTestServer(t)
	accessToken, _ := login(t, h)

	rec, _ := do(t, h, testRequest{method: http.MethodGet, path: "/api/guests/download-qr-codes", token: accessToken})
	if rec.Code != http.StatusNotFound {
		t.Errorf("empty download: status %d, want 404", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct == "application/zip" {
		t.Error("404 still carries zip headers")
	}
}

func TestVerifyRejectsMalformedCode(t *testing.T) {
	h := newTestServer(t)

	for _, code := range []string{"short", "ZZZZZZZZZZZZ", "abc-123-def-456"} {
		rec, _ := do(t, h, testRequest{method: http.MethodGet, path: "/api/guests/verify/" + code})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("verify %q: status %d, want 400", code, rec.Code)
		}
	}
}

func TestBulkGenerate(t *testing.T) {
	h := newTestServer(t)
	accessToken, _ := login(t, h)

	entries := make([]map[string]string, 0, 3)
	for i := 0; i < 3; i++ {
		entries = append(entries, map[string]string{
			"name":  fmt.Sprintf("Guest %d", i),
			"email": fmt.Sprintf("guest%d@example.com", i),
		})
	}

	rec, body := do(t, h, testRequest{
		method: http.MethodPost,
		path:   "/api/guests/generate-guest-list",
		token:  accessToken,
		body:   map[string]any{"guests": entries},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("bulk generate: status %d, body %s", rec.Code, rec.Body.String())
	}
	if created, _ := body["created"].(float64); created != 3 {
		t.Errorf("created = %v, want 3", body["created"])
	}

	// All three codes are distinct.
	results, _ := body["results"].([]any)
	seen := map[string]bool{}
	for _, raw := range results {
		res, _ := raw.(map[string]any)
		guest, _ := res["guest"].(map[string]any)
		code, _ := guest["uniqueCode"].(string)
		if seen[code] {
			t.Errorf("duplicate code %q in bulk result", code)
		}
		seen[code] = true
	}
}
