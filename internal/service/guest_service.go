package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/mjoly/fete-invites/internal/domain"
	"github.com/mjoly/fete-invites/internal/invite"
	"github.com/mjoly/fete-invites/internal/mailer"
	"github.com/mjoly/fete-invites/internal/store"
	"github.com/mjoly/fete-invites/pkg/config"
	"github.com/mjoly/fete-invites/pkg/events"
	"github.com/mjoly/fete-invites/pkg/logger"
)

// createAttempts bounds retries when the insert itself loses a code race
// that the pre-check missed.
const createAttempts = 3

// GuestService owns the admin-facing guest lifecycle: creation with code
// and QR issuance, listing, stats, deletion, bulk generation.
type GuestService struct {
	store   store.GuestStore
	codes   *invite.Generator
	qrStore *invite.DiskStore
	mail    mailer.Service
	bus     events.Publisher
	invites config.InviteConfig

	now func() time.Time
}

func NewGuestService(
	guestStore store.GuestStore,
	codes *invite.Generator,
	qrStore *invite.DiskStore,
	mail mailer.Service,
	bus events.Publisher,
	invites config.InviteConfig,
) *GuestService {
	return &GuestService{
		store:   guestStore,
		codes:   codes,
		qrStore: qrStore,
		mail:    mail,
		bus:     bus,
		invites: invites,
		now:     time.Now,
	}
}

// Create inserts one guest with a freshly issued unique code and a rendered
// QR invitation. Code issuance failures are reported per guest, never
// silently dropped.
func (s *GuestService) Create(ctx context.Context, req domain.CreateGuestRequest) (*domain.Guest, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var g *domain.Guest
	for attempt := 0; attempt < createAttempts; attempt++ {
		code, err := s.codes.UniqueCode(ctx, s.store)
		if err != nil {
			return nil, err
		}

		g = &domain.Guest{
			ID:                     uuid.NewString(),
			Name:                   req.Name,
			Email:                  req.Email,
			UniqueCode:             code,
			PersonalWelcomeMessage: req.PersonalWelcomeMessage,
			CreatedAt:              s.now(),
		}

		err = s.store.Create(ctx, g)
		if err == nil {
			break
		}
		if errors.Is(err, domain.ErrDuplicateCode) {
			g = nil
			continue
		}
		return nil, err
	}
	if g == nil {
		return nil, domain.ErrCodeExhausted
	}

	if err := s.attachQR(ctx, g); err != nil {
		logger.WarnContext(ctx, "QR generation failed at guest creation",
			"guest_id", g.ID, "error", err)
	}

	if err := s.mail.SendInvitation(g.Email, g.Name, invite.InvitationURL(s.invites.BaseURL, g.UniqueCode)); err != nil {
		logger.WarnContext(ctx, "invitation email failed", "guest_id", g.ID, "error", err)
	}

	s.publish(ctx, events.SubjectGuestCreated, map[string]any{
		"guestId": g.ID,
		"email":   g.Email,
	})

	return g, nil
}

// BulkResult reports the outcome of one entry in a bulk generation call.
type BulkResult struct {
	Email string        `json:"email"`
	Guest *domain.Guest `json:"guest,omitempty"`
	Error string        `json:"error,omitempty"`
}

// BulkGenerate creates many guests in one call. Entries fail independently;
// the caller receives a per-entry report rather than a transaction.
func (s *GuestService) BulkGenerate(ctx context.Context, req domain.BulkGenerateRequest) []BulkResult {
	results := make([]BulkResult, 0, len(req.Guests))
	for _, entry := range req.Guests {
		g, err := s.Create(ctx, entry)
		res := BulkResult{Email: entry.Email}
		if err != nil {
			res.Error = err.Error()
		} else {
			res.Guest = g
		}
		results = append(results, res)
	}
	return results
}

// GenerateQR renders (or re-renders) the QR artifact for an existing guest.
// The code itself never changes.
func (s *GuestService) GenerateQR(ctx context.Context, id string) (*domain.Guest, error) {
	g, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.attachQR(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *GuestService) attachQR(ctx context.Context, g *domain.Guest) error {
	png, err := invite.RenderQR(g.UniqueCode, s.invites.BaseURL)
	if err != nil {
		return err
	}
	url, err := s.qrStore.Save(g.UniqueCode, png)
	if err != nil {
		return err
	}
	if err := s.store.SetQRCodeURL(ctx, g.ID, url); err != nil {
		return err
	}
	g.QRCodeURL = url
	return nil
}

func (s *GuestService) List(ctx context.Context, f domain.ListFilter) ([]domain.Guest, int, error) {
	f.Normalize()
	return s.store.List(ctx, f)
}

func (s *GuestService) Get(ctx context.Context, id string) (*domain.Guest, error) {
	return s.store.GetByID(ctx, id)
}

func (s *GuestService) Stats(ctx context.Context) (*domain.Stats, error) {
	return s.store.Stats(ctx)
}

func (s *GuestService) Delete(ctx context.Context, id string) error {
	g, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	// Artifact cleanup is best-effort.
	if err := s.qrStore.Remove(g.UniqueCode); err != nil {
		logger.WarnContext(ctx, "QR artifact cleanup failed", "guest_id", id, "error", err)
	}

	s.publish(ctx, events.SubjectGuestDeleted, map[string]any{"guestId": id})
	return nil
}

// WriteQRArchive streams a zip of every generated QR code. Returns the
// number of entries written; zero means there is nothing to download yet.
func (s *GuestService) WriteQRArchive(ctx context.Context, w io.Writer) (int, error) {
	var all []domain.Guest
	filter := domain.ListFilter{Page: 1, Limit: 100}
	for {
		page, total, err := s.store.List(ctx, filter)
		if err != nil {
			return 0, fmt.Errorf("failed to list guests for archive: %w", err)
		}
		all = append(all, page...)
		if len(all) >= total || len(page) == 0 {
			break
		}
		filter.Page++
	}

	// Only guests whose QR artifact has been generated belong in the
	// download; a fresh list with no QR codes yet is a 404, not an empty zip.
	eligible := all[:0]
	for _, g := range all {
		if g.QRCodeURL != "" {
			eligible = append(eligible, g)
		}
	}

	return invite.BuildArchive(ctx, w, eligible, s.invites.BaseURL)
}

func (s *GuestService) publish(ctx context.Context, subject string, data any) {
	if err := s.bus.Publish(ctx, subject, data); err != nil {
		logger.WarnContext(ctx, "event publish failed", "subject", subject, "error", err)
	}
}
