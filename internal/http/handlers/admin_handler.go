package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mjoly/fete-invites/internal/domain"
	"github.com/mjoly/fete-invites/internal/http/response"
	"github.com/mjoly/fete-invites/internal/service"
	"github.com/mjoly/fete-invites/pkg/logger"
)

// AdminHandler serves the token-gated organizer surface.
type AdminHandler struct {
	Guests *service.GuestService
}

func NewAdminHandler(guests *service.GuestService) *AdminHandler {
	return &AdminHandler{Guests: guests}
}

// Register mounts the admin routes; the caller wraps them in RequireAdmin.
func (h *AdminHandler) Register(r chi.Router) {
	r.Get("/list", h.list)
	r.Get("/stats", h.stats)
	r.Post("/", h.create)
	r.Post("/generate-guest-list", h.bulkGenerate)
	r.Post("/{id}/qr", h.generateQR)
	r.Delete("/{id}", h.delete)
	r.Get("/download-qr-codes", h.downloadQRCodes)
}

func (h *AdminHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := domain.ListFilter{
		Attendance: q.Get("attendance"),
		Search:     q.Get("search"),
	}
	if v := q.Get("checkedIn"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			filter.CheckedIn = &b
		}
	}
	if v := q.Get("needsAccommodation"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			filter.NeedsAccommodation = &b
		}
	}
	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Page = n
		}
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	filter.Normalize()

	guests, total, err := h.Guests.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"guests":  guests,
		"total":   total,
		"page":    filter.Page,
		"limit":   filter.Limit,
	})
}

func (h *AdminHandler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Guests.Stats(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"stats":   stats,
	})
}

func (h *AdminHandler) create(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateGuestRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	g, err := h.Guests.Create(r.Context(), in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	response.JSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Guest created",
		"guest":   g,
	})
}

func (h *AdminHandler) bulkGenerate(w http.ResponseWriter, r *http.Request) {
	var in domain.BulkGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || len(in.Guests) == 0 {
		response.BadRequest(w, "Provide at least one guest")
		return
	}

	results := h.Guests.BulkGenerate(r.Context(), in)

	created := 0
	for _, res := range results {
		if res.Error == "" {
			created++
		}
	}

	response.JSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Guest list generated",
		"created": created,
		"results": results,
	})
}

func (h *AdminHandler) generateQR(w http.ResponseWriter, r *http.Request) {
	g, err := h.Guests.GenerateQR(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	response.Success(w, http.StatusOK, "QR code generated", map[string]any{
		"qrCodeUrl": g.QRCodeURL,
	})
}

func (h *AdminHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Guests.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, "Guest deleted", nil)
}

func (h *AdminHandler) downloadQRCodes(w http.ResponseWriter, r *http.Request) {
	// The archive streams directly into the response. No byte is written
	// until the first entry succeeds, so an empty result can still become
	// a 404; a failure mid-stream surfaces as a truncated download.
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="qr-codes.zip"`)

	written, err := h.Guests.WriteQRArchive(r.Context(), w)
	if err != nil {
		logger.ErrorContext(r.Context(), "QR archive failed", "error", err)
		if written == 0 {
			w.Header().Del("Content-Type")
			w.Header().Del("Content-Disposition")
			response.InternalError(w)
		}
		return
	}
	if written == 0 {
		w.Header().Del("Content-Type")
		w.Header().Del("Content-Disposition")
		response.NotFound(w, "No QR codes generated yet")
	}
}
