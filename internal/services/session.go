package services

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"motoinvest/internal/core"
	"motoinvest/internal/mentor"
)

// Phase is where a signed-in user stands.
type Phase string

const (
	PhaseLocked     Phase = "locked"     // no active authorization
	PhaseOnboarding Phase = "onboarding" // authorized, no profile yet
	PhaseReady      Phase = "ready"
)

// DefaultDisplayName is used when the auth provider has no name for the user.
const DefaultDisplayName = "Comandante"

// Identity is what the auth provider tells us about the signed-in user.
type Identity struct {
	UserID string
	Email  string
	Name   string
}

// Session holds one user's cached state between requests. Collections are
// replaced only after the store acknowledged the change.
type Session struct {
	Identity Identity

	mu          sync.RWMutex
	phase       Phase
	access      core.AuthorizationRecord
	granted     bool
	profile     *core.Profile
	earnings    []core.Earning
	expenses    []core.Expense
	bills       []core.Bill
	messages    []core.Message
	preferences core.Preferences
	chat        *mentor.Chat
	syncedAt    time.Time

	busy    *atomic.Bool // outlives Replace so a re-sign-in cannot start a second turn
	syncing atomic.Bool
}

func newSession(id Identity) *Session {
	if id.Name == "" {
		id.Name = DefaultDisplayName
	}
	return &Session{Identity: id, phase: PhaseLocked, chat: mentor.NewChat(nil), busy: new(atomic.Bool)}
}

// Snapshot is a consistent copy of a session.
type Snapshot struct {
	Identity    Identity
	Phase       Phase
	Access      core.AuthorizationRecord
	Profile     *core.Profile
	Earnings    []core.Earning
	Expenses    []core.Expense
	Bills       []core.Bill
	Messages    []core.Message
	Preferences core.Preferences
	ChatBusy    bool
	Syncing     bool
	SyncedAt    time.Time
}

func (s *Session) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// Snapshot copies the session. An empty transcript is presented with the
// welcome message, which is never stored.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Identity:    s.Identity,
		Phase:       s.phase,
		Access:      s.access,
		Earnings:    slices.Clone(s.earnings),
		Expenses:    slices.Clone(s.expenses),
		Bills:       slices.Clone(s.bills),
		Messages:    slices.Clone(s.messages),
		Preferences: s.preferences,
		ChatBusy:    s.busy.Load(),
		Syncing:     s.syncing.Load(),
		SyncedAt:    s.syncedAt,
	}
	if s.profile != nil {
		p := *s.profile
		p.Platforms = slices.Clone(p.Platforms)
		snap.Profile = &p
	}
	if len(snap.Messages) == 0 && s.phase == PhaseReady {
		snap.Messages = []core.Message{WelcomeMessage(s.Identity.Name, s.syncedAt)}
	}
	return snap
}

func (s *Session) accessGranted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.granted
}

func (s *Session) collections() ([]core.Earning, []core.Expense, []core.Bill, *core.Profile) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var p *core.Profile
	if s.profile != nil {
		cp := *s.profile
		p = &cp
	}
	return slices.Clone(s.earnings), slices.Clone(s.expenses), slices.Clone(s.bills), p
}

func (s *Session) findBill(billID string) (core.Bill, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.bills {
		if b.ID == billID {
			return b, true
		}
	}
	return core.Bill{}, false
}

func (s *Session) putBill(bill core.Bill) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, b := range s.bills {
		if b.ID == bill.ID {
			s.bills[i] = bill
			return
		}
	}
	s.bills = append(s.bills, bill)
}

func (s *Session) removeBill(billID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bills = slices.DeleteFunc(s.bills, func(b core.Bill) bool { return b.ID == billID })
}

func (s *Session) appendMessage(m core.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
}

func (s *Session) mentorChat() *mentor.Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chat
}

// WelcomeMessage greets a user whose transcript is empty.
func WelcomeMessage(name string, at time.Time) core.Message {
	if name == "" {
		name = DefaultDisplayName
	}
	return core.Message{
		Role:      core.RoleModel,
		Text:      "Salve, **" + name + "**! 🏍️\nQuanto rendeu o corre hoje?",
		Timestamp: at,
	}
}
