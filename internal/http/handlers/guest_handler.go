package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mjoly/fete-invites/internal/domain"
	"github.com/mjoly/fete-invites/internal/http/response"
	"github.com/mjoly/fete-invites/internal/service"
	"github.com/mjoly/fete-invites/internal/utils"
)

// GuestHandler serves the guest trust tier: possession of a valid
// invitation code is the only credential. Every route here is rate-limited
// because code entropy is finite.
type GuestHandler struct {
	RSVP *service.RSVPService
}

func NewGuestHandler(rsvp *service.RSVPService) *GuestHandler {
	return &GuestHandler{RSVP: rsvp}
}

// Register mounts the guest-facing routes with their rate limiters.
func (h *GuestHandler) Register(r chi.Router, verifyLimiter, guestLimiter func(http.Handler) http.Handler) {
	r.With(verifyLimiter).Get("/verify/{code}", h.verify)
	r.With(guestLimiter).Post("/rsvp", h.rsvp)
	r.With(guestLimiter).Post("/check-in/{code}", h.checkIn)
	r.With(guestLimiter).Get("/event-details", h.eventDetails)
}

func (h *GuestHandler) verify(w http.ResponseWriter, r *http.Request) {
	code := utils.NormalizeCode(chi.URLParam(r, "code"))
	if !utils.IsValidCode(code) {
		response.BadRequest(w, "Invalid invitation code")
		return
	}

	g, err := h.RSVP.VerifyCode(r.Context(), code)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	response.Success(w, http.StatusOK, "Invitation found", map[string]any{
		"guest": g.PublicView(),
	})
}

func (h *GuestHandler) rsvp(w http.ResponseWriter, r *http.Request) {
	var in domain.RSVPRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	result, err := h.RSVP.SubmitRSVP(r.Context(), in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	status := http.StatusOK
	message := "Your response has been updated"
	if result.First {
		status = http.StatusCreated
		message = "Thank you for your response"
	}

	response.Success(w, status, message, map[string]any{
		"locationAccess": result.LocationAccess,
	})
}

func (h *GuestHandler) checkIn(w http.ResponseWriter, r *http.Request) {
	code := utils.NormalizeCode(chi.URLParam(r, "code"))
	if !utils.IsValidCode(code) {
		response.BadRequest(w, "Invalid invitation code")
		return
	}

	result, err := h.RSVP.CheckIn(r.Context(), code)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	message := "Welcome!"
	if result.AlreadyCheckedIn {
		message = "Already checked in"
	}

	response.Success(w, http.StatusOK, message, map[string]any{
		"name":             result.Guest.Name,
		"welcomeMessage":   result.Guest.PersonalWelcomeMessage,
		"alreadyCheckedIn": result.AlreadyCheckedIn,
		"checkInTime":      result.CheckInTime,
	})
}

func (h *GuestHandler) eventDetails(w http.ResponseWriter, r *http.Request) {
	code := utils.NormalizeCode(r.URL.Query().Get("code"))
	if !utils.IsValidCode(code) {
		response.BadRequest(w, "Invalid invitation code")
		return
	}

	details, err := h.RSVP.EventDetails(r.Context(), code)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	response.Success(w, http.StatusOK, "Event details", map[string]any{
		"eventDetails": details,
	})
}
