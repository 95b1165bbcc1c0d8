package service

import (
	"context"
	"time"

	"github.com/mjoly/fete-invites/internal/domain"
	"github.com/mjoly/fete-invites/internal/mailer"
	"github.com/mjoly/fete-invites/internal/store"
	"github.com/mjoly/fete-invites/pkg/events"
	"github.com/mjoly/fete-invites/pkg/logger"
)

// RSVPService is the guest-tier state machine:
//
//	Unknown --RSVP(no)--> Declined
//	Unknown --RSVP(yes)--> Confirmed --CheckIn--> Arrived
//
// RSVP answers may be overwritten; check-in is monotonic.
type RSVPService struct {
	store store.GuestStore
	mail  mailer.Service
	bus   events.Publisher

	now func() time.Time
}

func NewRSVPService(guestStore store.GuestStore, mail mailer.Service, bus events.Publisher) *RSVPService {
	return &RSVPService{
		store: guestStore,
		mail:  mail,
		bus:   bus,
		now:   time.Now,
	}
}

// VerifyCode resolves a code to the guest's own record.
func (s *RSVPService) VerifyCode(ctx context.Context, code string) (*domain.Guest, error) {
	return s.store.GetByCode(ctx, code)
}

// RSVPResult reports what an RSVP submission changed.
type RSVPResult struct {
	// First is true when this was the guest's first answer.
	First bool
	// LocationAccess is granted by a confirmed "yes".
	LocationAccess bool
	Guest          *domain.Guest
}

// SubmitRSVP binds the answer to the email+code pair and overwrites any
// previous answer wholesale. Re-submitting is how a guest changes their
// mind; nothing is merged from the earlier submission.
func (s *RSVPService) SubmitRSVP(ctx context.Context, req domain.RSVPRequest) (*RSVPResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	g, err := s.store.GetByEmailAndCode(ctx, req.Email, req.Code)
	if err != nil {
		return nil, err
	}

	first := !g.HasResponded()
	attending := *req.Attending

	guestsCount := req.GuestsCount
	needsAccommodation := req.NeedsAccommodation
	if !attending {
		// These fields are meaningful only for a "yes".
		guestsCount = 0
		needsAccommodation = false
	}

	if err := s.store.UpdateRSVP(ctx, g.ID, attending, guestsCount, needsAccommodation, req.Message); err != nil {
		return nil, err
	}

	g.Attending = &attending
	g.GuestsCount = guestsCount
	g.NeedsAccommodation = needsAccommodation
	g.Message = req.Message

	if err := s.mail.SendRSVPConfirmation(g.Email, g.Name, attending); err != nil {
		logger.WarnContext(ctx, "RSVP confirmation email failed", "guest_id", g.ID, "error", err)
	}

	s.publish(ctx, events.SubjectRSVPReceived, map[string]any{
		"guestId":   g.ID,
		"attending": attending,
		"first":     first,
	})

	return &RSVPResult{First: first, LocationAccess: attending, Guest: g}, nil
}

// CheckInResult is the welcome payload for the on-site scanner.
type CheckInResult struct {
	Guest            *domain.Guest
	AlreadyCheckedIn bool
	CheckInTime      time.Time
}

// CheckIn marks physical arrival. It requires a confirmed "yes"; scanning
// the same code twice is safe and returns the original check-in time.
func (s *RSVPService) CheckIn(ctx context.Context, code string) (*CheckInResult, error) {
	g, err := s.store.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if !g.IsAttending() {
		return nil, domain.ErrPrecondition
	}

	if g.HasCheckedIn {
		return &CheckInResult{Guest: g, AlreadyCheckedIn: true, CheckInTime: *g.CheckInTime}, nil
	}

	at := s.now()
	flipped, err := s.store.MarkCheckedIn(ctx, g.ID, at)
	if err != nil {
		return nil, err
	}
	if !flipped {
		// The conditional update refused for one of two reasons: a
		// concurrent scan won, or the guest withdrew their "yes" in the
		// meantime. Re-read to tell them apart.
		g, err = s.store.GetByID(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		if g.HasCheckedIn && g.CheckInTime != nil {
			return &CheckInResult{Guest: g, AlreadyCheckedIn: true, CheckInTime: *g.CheckInTime}, nil
		}
		return nil, domain.ErrPrecondition
	}

	g.HasCheckedIn = true
	g.CheckInTime = &at

	s.publish(ctx, events.SubjectGuestCheckedIn, map[string]any{
		"guestId":     g.ID,
		"checkInTime": at,
	})

	return &CheckInResult{Guest: g, CheckInTime: at}, nil
}

// EventDetails reveals the party location to guests who confirmed.
func (s *RSVPService) EventDetails(ctx context.Context, code string) (*domain.EventDetails, error) {
	g, err := s.store.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !g.IsAttending() {
		return nil, domain.ErrForbidden
	}
	details := partyDetails
	return &details, nil
}

// partyDetails is organizer content, kept server-side so it never reaches
// a guest who has not confirmed.
var partyDetails = domain.EventDetails{
	Location: domain.Location{
		Name:        "Villa Paradise",
		Address:     "123 Route du Soleil, Nice",
		Coordinates: domain.Coordinates{Lat: 43.7102, Lng: 7.2620},
		AccessCode:  "1234",
		ParkingInfo: "Parking privé disponible sur place, code portail: 5678",
	},
	AccommodationInfo: domain.AccommodationInfo{
		CheckIn:  "Vendredi 15 Juin à partir de 14h",
		CheckOut: "Dimanche 17 Juin avant 12h",
		Amenities: []string{
			"Piscine chauffée",
			"5 chambres avec salle de bain",
			"Grande terrasse avec vue sur la mer",
			"Cuisine équipée",
			"Barbecue et plancha",
		},
	},
	AdditionalInfo: "N'hésitez pas à apporter maillot de bain et serviette. Des activités sont prévues tout au long du weekend.",
}

func (s *RSVPService) publish(ctx context.Context, subject string, data any) {
	if err := s.bus.Publish(ctx, subject, data); err != nil {
		logger.WarnContext(ctx, "event publish failed", "subject", subject, "error", err)
	}
}
