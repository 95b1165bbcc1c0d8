package store

import (
	"context"
	"time"

	"github.com/mjoly/fete-invites/internal/domain"
)

// GuestStore is the persistence boundary for guest records. All mutations
// are scoped to a single record; implementations must make the check-in
// read-modify-write atomic per guest.
type GuestStore interface {
	// Create inserts a new guest. Returns domain.ErrDuplicateEmail when the
	// email is taken and ErrDuplicateCode when the unique code collides.
	Create(ctx context.Context, g *domain.Guest) error

	GetByID(ctx context.Context, id string) (*domain.Guest, error)
	GetByCode(ctx context.Context, code string) (*domain.Guest, error)
	GetByEmailAndCode(ctx context.Context, email, code string) (*domain.Guest, error)

	// UpdateRSVP overwrites the attendance answer wholesale; repeated
	// submissions replace the previous one rather than merging.
	UpdateRSVP(ctx context.Context, id string, attending bool, guestsCount int, needsAccommodation bool, message string) error

	// MarkCheckedIn flips hasCheckedIn and stamps checkInTime, but only for
	// a guest that confirmed attendance and has not checked in yet. It
	// reports whether this call performed the flip.
	MarkCheckedIn(ctx context.Context, id string, at time.Time) (bool, error)

	SetQRCodeURL(ctx context.Context, id, url string) error

	Delete(ctx context.Context, id string) error

	// List returns a page of guests plus the total count matching the filter.
	List(ctx context.Context, f domain.ListFilter) ([]domain.Guest, int, error)

	Stats(ctx context.Context) (*domain.Stats, error)

	CodeExists(ctx context.Context, code string) (bool, error)
}
