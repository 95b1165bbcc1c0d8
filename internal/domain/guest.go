package domain

import (
	"math"
	"time"

	"github.com/mjoly/fete-invites/internal/utils"
)

// DefaultWelcomeMessage is shown after check-in when the organizer did not
// write a personal greeting.
const DefaultWelcomeMessage = "Nous sommes ravis de vous accueillir à notre fête!"

const (
	MaxGuestsCount   = 10
	MaxMessageLength = 1000
)

// Guest is the central entity. UniqueCode is a bearer credential: whoever
// holds it may read this record, RSVP and check in. It is generated once
// and never rotated or re-issued.
type Guest struct {
	ID                     string     `json:"id"`
	Name                   string     `json:"name"`
	Email                  string     `json:"email"`
	UniqueCode             string     `json:"uniqueCode,omitempty"`
	Attending              *bool      `json:"attending"`
	GuestsCount            int        `json:"guestsCount"`
	NeedsAccommodation     bool       `json:"needsAccommodation"`
	Message                string     `json:"message,omitempty"`
	PersonalWelcomeMessage string     `json:"personalWelcomeMessage"`
	HasCheckedIn           bool       `json:"hasCheckedIn"`
	CheckInTime            *time.Time `json:"checkInTime,omitempty"`
	QRCodeURL              string     `json:"qrCodeUrl,omitempty"`
	CreatedAt              time.Time  `json:"createdAt"`
}

// HasResponded reports whether the guest has answered the invitation.
func (g *Guest) HasResponded() bool { return g.Attending != nil }

// IsAttending reports a confirmed "yes".
func (g *Guest) IsAttending() bool { return g.Attending != nil && *g.Attending }

// PublicView strips the fields a guest holding the code should not see,
// most importantly other bookkeeping like the QR artifact location.
type PublicGuest struct {
	Name                   string     `json:"name"`
	Email                  string     `json:"email"`
	Attending              *bool      `json:"attending"`
	GuestsCount            int        `json:"guestsCount"`
	NeedsAccommodation     bool       `json:"needsAccommodation"`
	Message                string     `json:"message,omitempty"`
	PersonalWelcomeMessage string     `json:"personalWelcomeMessage"`
	HasCheckedIn           bool       `json:"hasCheckedIn"`
	CheckInTime            *time.Time `json:"checkInTime,omitempty"`
}

func (g *Guest) PublicView() PublicGuest {
	return PublicGuest{
		Name:                   g.Name,
		Email:                  g.Email,
		Attending:              g.Attending,
		GuestsCount:            g.GuestsCount,
		NeedsAccommodation:     g.NeedsAccommodation,
		Message:                g.Message,
		PersonalWelcomeMessage: g.PersonalWelcomeMessage,
		HasCheckedIn:           g.HasCheckedIn,
		CheckInTime:            g.CheckInTime,
	}
}

type CreateGuestRequest struct {
	Name                   string `json:"name"`
	Email                  string `json:"email"`
	PersonalWelcomeMessage string `json:"personalWelcomeMessage"`
}

func (r *CreateGuestRequest) Normalize() {
	r.Name = utils.NormalizeString(r.Name)
	r.Email = utils.NormalizeEmail(r.Email)
	r.PersonalWelcomeMessage = utils.SanitizeMessage(r.PersonalWelcomeMessage, MaxMessageLength)
	if r.PersonalWelcomeMessage == "" {
		r.PersonalWelcomeMessage = DefaultWelcomeMessage
	}
}

func (r *CreateGuestRequest) Validate() error {
	if !utils.IsValidName(r.Name) {
		return NewValidationError("name must be between 2 and 100 characters")
	}
	if !utils.IsValidEmail(r.Email) {
		return NewValidationError("invalid email address")
	}
	return nil
}

type BulkGenerateRequest struct {
	Guests []CreateGuestRequest `json:"guests"`
}

type RSVPRequest struct {
	Email              string `json:"email"`
	Code               string `json:"code"`
	Attending          *bool  `json:"attending"`
	GuestsCount        int    `json:"guestsCount"`
	NeedsAccommodation bool   `json:"needsAccommodation"`
	Message            string `json:"message"`
}

func (r *RSVPRequest) Normalize() {
	r.Email = utils.NormalizeEmail(r.Email)
	r.Code = utils.NormalizeCode(r.Code)
	r.Message = utils.SanitizeMessage(r.Message, MaxMessageLength)
}

func (r *RSVPRequest) Validate() error {
	if !utils.IsValidEmail(r.Email) {
		return NewValidationError("invalid email address")
	}
	if !utils.IsValidCode(r.Code) {
		return NewValidationError("invalid invitation code")
	}
	if r.Attending == nil {
		return NewValidationError("attending is required")
	}
	if r.GuestsCount < 0 || r.GuestsCount > MaxGuestsCount {
		return NewValidationError("guestsCount must be between 0 and 10")
	}
	return nil
}

// ListFilter drives admin listing. Attendance is one of "yes", "no",
// "pending" or empty for all.
type ListFilter struct {
	Attendance         string
	CheckedIn          *bool
	NeedsAccommodation *bool
	Search             string
	Page               int
	Limit              int
}

func (f *ListFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
	f.Search = utils.NormalizeString(f.Search)
}

func (f *ListFilter) Offset() int { return (f.Page - 1) * f.Limit }

// Stats aggregates the full guest set. Rates are integer percentages and
// are reported as 0 whenever the denominator is 0.
type Stats struct {
	TotalGuests         int `json:"totalGuests"`
	RespondedGuests     int `json:"respondedGuests"`
	AttendingGuests     int `json:"attendingGuests"`
	DeclinedGuests      int `json:"declinedGuests"`
	CheckedInGuests     int `json:"checkedInGuests"`
	TotalAttendees      int `json:"totalAttendees"`
	AccommodationNeeded int `json:"accommodationNeeded"`
	ResponseRate        int `json:"responseRate"`
	ConfirmationRate    int `json:"confirmationRate"`
	CheckInRate         int `json:"checkInRate"`
}

// FinalizeRates derives the percentage fields from the counters.
func (s *Stats) FinalizeRates() {
	s.ResponseRate = percent(s.RespondedGuests, s.TotalGuests)
	s.ConfirmationRate = percent(s.AttendingGuests, s.RespondedGuests)
	s.CheckInRate = percent(s.CheckedInGuests, s.AttendingGuests)
}

func percent(n, d int) int {
	if d == 0 {
		return 0
	}
	return int(math.Round(float64(n) / float64(d) * 100))
}
