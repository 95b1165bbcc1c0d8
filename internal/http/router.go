package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/mjoly/fete-invites/internal/http/handlers"
	"github.com/mjoly/fete-invites/internal/http/middleware"
	"github.com/mjoly/fete-invites/internal/service"
	"github.com/mjoly/fete-invites/internal/token"
	"github.com/mjoly/fete-invites/pkg/config"
	mw "github.com/mjoly/fete-invites/pkg/middleware"
)

// NewRouter assembles the full API surface with its two trust tiers and
// per-route-class rate limits.
func NewRouter(
	cfg *config.Config,
	tokens *token.Service,
	guests *service.GuestService,
	rsvp *service.RSVPService,
	qrDir string,
) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.Invites.BaseURL},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	global := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Requests: 100, Window: 15 * time.Minute,
	})
	login := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Requests: 5, Window: 30 * time.Minute,
	})
	codeVerify := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Requests: 20, Window: 5 * time.Minute,
	})
	guestAPI := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Requests: 50, Window: 15 * time.Minute,
	})

	authHandler := handlers.NewAuthHandler(tokens, cfg.Auth.RefreshTokenTTL, cfg.Server.Env == "production")
	guestHandler := handlers.NewGuestHandler(rsvp)
	adminHandler := handlers.NewAdminHandler(guests)

	r.Route("/api", func(r chi.Router) {
		r.Use(global.Middleware())

		r.Mount("/auth", authHandler.Routes(login.Middleware()))

		r.Route("/guests", func(r chi.Router) {
			guestHandler.Register(r, codeVerify.Middleware(), guestAPI.Middleware())

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin(tokens))
				adminHandler.Register(r)
			})
		})
	})

	// Rendered QR images; file names are hashes, never raw codes.
	r.Handle("/qrcodes/*", http.StripPrefix("/qrcodes/", http.FileServer(http.Dir(qrDir))))

	return r
}
