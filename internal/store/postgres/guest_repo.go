package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mjoly/fete-invites/internal/domain"
)

type GuestRepo struct{ pool *pgxpool.Pool }

func NewGuestRepo(pool *pgxpool.Pool) *GuestRepo { return &GuestRepo{pool: pool} }

const guestCols = `id, name, email, unique_code,
attending, guests_count, needs_accommodation, message,
personal_welcome_message, has_checked_in, check_in_time,
qr_code_url, created_at`

func scanGuest(row pgx.Row) (*domain.Guest, error) {
	var g domain.Guest
	err := row.Scan(
		&g.ID, &g.Name, &g.Email, &g.UniqueCode,
		&g.Attending, &g.GuestsCount, &g.NeedsAccommodation, &g.Message,
		&g.PersonalWelcomeMessage, &g.HasCheckedIn, &g.CheckInTime,
		&g.QRCodeURL, &g.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GuestRepo) Create(ctx context.Context, g *domain.Guest) error {
	const q = `INSERT INTO guests (
    id, name, email, unique_code,
    attending, guests_count, needs_accommodation, message,
    personal_welcome_message, has_checked_in, qr_code_url, created_at
  ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q,
		g.ID, g.Name, g.Email, g.UniqueCode,
		g.Attending, g.GuestsCount, g.NeedsAccommodation, g.Message,
		g.PersonalWelcomeMessage, g.HasCheckedIn, g.QRCodeURL, g.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if strings.Contains(pgErr.ConstraintName, "unique_code") {
				return domain.ErrDuplicateCode
			}
			return domain.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *GuestRepo) GetByID(ctx context.Context, id string) (*domain.Guest, error) {
	const q = `SELECT ` + guestCols + ` FROM guests WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanGuest(r.pool.QueryRow(ctx, q, id))
}

func (r *GuestRepo) GetByCode(ctx context.Context, code string) (*domain.Guest, error) {
	const q = `SELECT ` + guestCols + ` FROM guests WHERE unique_code=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanGuest(r.pool.QueryRow(ctx, q, code))
}

func (r *GuestRepo) GetByEmailAndCode(ctx context.Context, email, code string) (*domain.Guest, error) {
	const q = `SELECT ` + guestCols + ` FROM guests WHERE email=$1 AND unique_code=$2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanGuest(r.pool.QueryRow(ctx, q, email, code))
}

func (r *GuestRepo) UpdateRSVP(ctx context.Context, id string, attending bool, guestsCount int, needsAccommodation bool, message string) error {
	const q = `UPDATE guests
    SET attending=$2, guests_count=$3, needs_accommodation=$4, message=$5
    WHERE id=$1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	ct, err := r.pool.Exec(ctx, q, id, attending, guestsCount, needsAccommodation, message)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkCheckedIn relies on a conditional single-row UPDATE so concurrent
// scans of the same code flip the flag exactly once.
func (r *GuestRepo) MarkCheckedIn(ctx context.Context, id string, at time.Time) (bool, error) {
	const q = `UPDATE guests
    SET has_checked_in=true, check_in_time=$2
    WHERE id=$1 AND attending=true AND has_checked_in=false`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	ct, err := r.pool.Exec(ctx, q, id, at)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (r *GuestRepo) SetQRCodeURL(ctx context.Context, id, url string) error {
	const q = `UPDATE guests SET qr_code_url=$2 WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	ct, err := r.pool.Exec(ctx, q, id, url)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GuestRepo) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM guests WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	ct, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GuestRepo) List(ctx context.Context, f domain.ListFilter) ([]domain.Guest, int, error) {
	where, args := buildFilter(f)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM guests`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT ` + guestCols + ` FROM guests` + where +
		fmt.Sprintf(` ORDER BY created_at, id LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset())

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	guests := make([]domain.Guest, 0, f.Limit)
	for rows.Next() {
		g, err := scanGuest(rows)
		if err != nil {
			return nil, 0, err
		}
		guests = append(guests, *g)
	}
	return guests, total, rows.Err()
}

func buildFilter(f domain.ListFilter) (string, []any) {
	var conds []string
	var args []any

	switch f.Attendance {
	case "yes":
		conds = append(conds, "attending=true")
	case "no":
		conds = append(conds, "attending=false")
	case "pending":
		conds = append(conds, "attending IS NULL")
	}
	if f.CheckedIn != nil {
		args = append(args, *f.CheckedIn)
		conds = append(conds, fmt.Sprintf("has_checked_in=$%d", len(args)))
	}
	if f.NeedsAccommodation != nil {
		args = append(args, *f.NeedsAccommodation)
		conds = append(conds, fmt.Sprintf("needs_accommodation=$%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", len(args), len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *GuestRepo) Stats(ctx context.Context) (*domain.Stats, error) {
	const q = `SELECT
    count(*),
    count(attending),
    count(*) FILTER (WHERE attending=true),
    count(*) FILTER (WHERE attending=false),
    count(*) FILTER (WHERE has_checked_in),
    COALESCE(sum(1+guests_count) FILTER (WHERE attending=true), 0),
    count(*) FILTER (WHERE attending=true AND needs_accommodation)
  FROM guests`

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var st domain.Stats
	err := r.pool.QueryRow(ctx, q).Scan(
		&st.TotalGuests, &st.RespondedGuests, &st.AttendingGuests,
		&st.DeclinedGuests, &st.CheckedInGuests, &st.TotalAttendees,
		&st.AccommodationNeeded,
	)
	if err != nil {
		return nil, err
	}
	st.FinalizeRates()
	return &st, nil
}

func (r *GuestRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM guests WHERE unique_code=$1)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var exists bool
	err := r.pool.QueryRow(ctx, q, code).Scan(&exists)
	return exists, err
}
