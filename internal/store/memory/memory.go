package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mjoly/fete-invites/internal/domain"
)

// Store is a mutex-guarded in-memory GuestStore. It backs the test suite
// and the STORE_DRIVER=memory development mode.
type Store struct {
	mu     sync.RWMutex
	guests map[string]*domain.Guest // keyed by ID
}

func New() *Store {
	return &Store{guests: make(map[string]*domain.Guest)}
}

func (s *Store) Create(_ context.Context, g *domain.Guest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.guests {
		if existing.Email == g.Email {
			return domain.ErrDuplicateEmail
		}
		if existing.UniqueCode == g.UniqueCode {
			return domain.ErrDuplicateCode
		}
	}

	cp := *g
	s.guests[g.ID] = &cp
	return nil
}

func (s *Store) GetByID(_ context.Context, id string) (*domain.Guest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.guests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (s *Store) GetByCode(_ context.Context, code string) (*domain.Guest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, g := range s.guests {
		if g.UniqueCode == code {
			cp := *g
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) GetByEmailAndCode(_ context.Context, email, code string) (*domain.Guest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, g := range s.guests {
		if g.Email == email && g.UniqueCode == code {
			cp := *g
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) UpdateRSVP(_ context.Context, id string, attending bool, guestsCount int, needsAccommodation bool, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.guests[id]
	if !ok {
		return domain.ErrNotFound
	}

	g.Attending = &attending
	g.GuestsCount = guestsCount
	g.NeedsAccommodation = needsAccommodation
	g.Message = message
	return nil
}

func (s *Store) MarkCheckedIn(_ context.Context, id string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.guests[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if !g.IsAttending() || g.HasCheckedIn {
		return false, nil
	}

	g.HasCheckedIn = true
	g.CheckInTime = &at
	return true, nil
}

func (s *Store) SetQRCodeURL(_ context.Context, id, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.guests[id]
	if !ok {
		return domain.ErrNotFound
	}
	g.QRCodeURL = url
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.guests[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.guests, id)
	return nil
}

func (s *Store) List(_ context.Context, f domain.ListFilter) ([]domain.Guest, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]domain.Guest, 0, len(s.guests))
	for _, g := range s.guests {
		if matches(g, f) {
			matched = append(matched, *g)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	total := len(matched)
	start := f.Offset()
	if start > total {
		start = total
	}
	end := start + f.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func matches(g *domain.Guest, f domain.ListFilter) bool {
	switch f.Attendance {
	case "yes":
		if !g.IsAttending() {
			return false
		}
	case "no":
		if g.Attending == nil || *g.Attending {
			return false
		}
	case "pending":
		if g.Attending != nil {
			return false
		}
	}
	if f.CheckedIn != nil && g.HasCheckedIn != *f.CheckedIn {
		return false
	}
	if f.NeedsAccommodation != nil && g.NeedsAccommodation != *f.NeedsAccommodation {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(g.Name), needle) &&
			!strings.Contains(strings.ToLower(g.Email), needle) {
			return false
		}
	}
	return true
}

func (s *Store) Stats(_ context.Context) (*domain.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := &domain.Stats{}
	for _, g := range s.guests {
		st.TotalGuests++
		if g.HasResponded() {
			st.RespondedGuests++
		}
		if g.IsAttending() {
			st.AttendingGuests++
			st.TotalAttendees += 1 + g.GuestsCount
			if g.NeedsAccommodation {
				st.AccommodationNeeded++
			}
		} else if g.HasResponded() {
			st.DeclinedGuests++
		}
		if g.HasCheckedIn {
			st.CheckedInGuests++
		}
	}
	st.FinalizeRates()
	return st, nil
}

func (s *Store) CodeExists(_ context.Context, code string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, g := range s.guests {
		if g.UniqueCode == code {
			return true, nil
		}
	}
	return false, nil
}
