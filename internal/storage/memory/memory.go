// Package memory is an in-process store.Store used for local development
// and tests. Nothing survives a restart.
package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"motoinvest/internal/core"
	"motoinvest/internal/store"
)

type Store struct {
	mu       sync.Mutex
	now      func() time.Time
	profiles map[string]core.Profile
	earnings []core.Earning
	expenses []core.Expense
	bills    []core.Bill
	messages []core.Message
	access   map[string]core.AuthorizationRecord
	prefs    map[string]map[string]bool
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		now:      time.Now,
		profiles: map[string]core.Profile{},
		access:   map[string]core.AuthorizationRecord{},
		prefs:    map[string]map[string]bool{},
	}
}

// NewFromFiles seeds authorized users from base/seed_authorized.txt. Each
// line is "email,YYYY-MM-DD"; the expiry is the end of that UTC day.
func NewFromFiles(base string) *Store {
	s := New()
	for _, line := range readLines(filepath.Join(base, "seed_authorized.txt")) {
		email, day, ok := strings.Cut(line, ",")
		if !ok {
			continue
		}
		d, err := core.ParseDate(day)
		if err != nil {
			continue
		}
		key := normalizeEmail(email)
		s.access[key] = core.AuthorizationRecord{Email: key, ExpiresAt: d.AddDate(0, 0, 1)}
	}
	return s
}

func (s *Store) GetProfile(_ context.Context, userID string) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return core.Profile{}, store.ErrNotFound
	}
	p.Platforms = append([]string(nil), p.Platforms...)
	return p, nil
}

func (s *Store) CreateProfile(_ context.Context, p core.Profile) (core.Profile, error) {
	if err := p.Validate(); err != nil {
		return core.Profile{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
	}
	p.Platforms = append([]string(nil), p.Platforms...)
	s.profiles[p.UserID] = p
	return p, nil
}

func (s *Store) UpdateProfile(_ context.Context, userID string, u store.ProfileUpdate) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return core.Profile{}, store.ErrNotFound
	}
	p = u.Apply(p)
	if err := p.Validate(); err != nil {
		return core.Profile{}, err
	}
	s.profiles[userID] = p
	return p, nil
}

func (s *Store) ListEarnings(_ context.Context, userID string) ([]core.Earning, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Earning{}
	for _, e := range s.earnings {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date.Time) })
	return out, nil
}

func (s *Store) AddEarning(_ context.Context, e core.Earning) (core.Earning, error) {
	if err := e.Validate(); err != nil {
		return core.Earning{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.earnings = append(s.earnings, e)
	return e, nil
}

func (s *Store) ListExpenses(_ context.Context, userID string) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Expense{}
	for _, e := range s.expenses {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date.Time) })
	return out, nil
}

func (s *Store) AddExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.expenses = append(s.expenses, e)
	return e, nil
}

func (s *Store) ListBills(_ context.Context, userID string) ([]core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Bill{}
	for _, b := range s.bills {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate.Time) })
	return out, nil
}

func (s *Store) AddBill(_ context.Context, b core.Bill) (core.Bill, error) {
	if err := b.Validate(); err != nil {
		return core.Bill{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	s.bills = append(s.bills, b)
	return b, nil
}

func (s *Store) SetBillPaid(_ context.Context, userID, billID string, paid bool) (core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.bills {
		if s.bills[i].ID == billID && s.bills[i].UserID == userID {
			s.bills[i].IsPaid = paid
			return s.bills[i], nil
		}
	}
	return core.Bill{}, store.ErrNotFound
}

func (s *Store) DeleteBill(_ context.Context, userID, billID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.bills {
		if s.bills[i].ID == billID && s.bills[i].UserID == userID {
			s.bills = append(s.bills[:i], s.bills[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) ListMessages(_ context.Context, userID string) ([]core.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Message{}
	for _, m := range s.messages {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (s *Store) AddMessage(_ context.Context, m core.Message) (core.Message, error) {
	if err := m.Validate(); err != nil {
		return core.Message{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = s.now().UTC()
	}
	s.messages = append(s.messages, m)
	return m, nil
}

func (s *Store) GetAuthorization(_ context.Context, email string) (core.AuthorizationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.access[normalizeEmail(email)]
	if !ok {
		return core.AuthorizationRecord{}, store.ErrNotFound
	}
	return rec, nil
}

func (s *Store) UpsertAuthorization(_ context.Context, rec core.AuthorizationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.Email = normalizeEmail(rec.Email)
	s.access[rec.Email] = rec
	return nil
}

func (s *Store) GetPreferences(_ context.Context, userID string) (core.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	flags := s.prefs[userID]
	return core.Preferences{
		NotificationsMuted: flags[core.PrefNotificationsMuted],
		TutorialSeen:       flags[core.PrefTutorialSeen],
	}, nil
}

func (s *Store) SetPreference(_ context.Context, userID, key string, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	flags, ok := s.prefs[userID]
	if !ok {
		flags = map[string]bool{}
		s.prefs[userID] = flags
	}
	flags[key] = value
	return nil
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
