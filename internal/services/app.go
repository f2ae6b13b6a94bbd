package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"motoinvest/internal/core"
	"motoinvest/internal/log"
	"motoinvest/internal/media"
	"motoinvest/internal/mentor"
	"motoinvest/internal/store"
)

// App is the application core behind the HTTP API: access gate, data
// synchronizer, ledger operations, onboarding and the mentor chat loop.
type App struct {
	store    store.Store
	mentor   mentor.Service
	sessions *SessionManager
	images   *media.Preparer
	logger   *log.Logger
	now      func() time.Time
}

type Options struct {
	Store    store.Store
	Mentor   mentor.Service
	Sessions *SessionManager
	Images   *media.Preparer
	Logger   *log.Logger
	Now      func() time.Time
}

func NewApp(opts Options) *App {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.Mentor == nil {
		opts.Mentor = mentor.Unavailable{}
	}
	if opts.Sessions == nil {
		opts.Sessions = NewSessionManager(1000, 30*time.Minute, opts.Logger)
	}
	if opts.Images == nil {
		opts.Images = media.NewPreparer(0)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &App{
		store:    opts.Store,
		mentor:   opts.Mentor,
		sessions: opts.Sessions,
		images:   opts.Images,
		logger:   opts.Logger,
		now:      opts.Now,
	}
}

func (a *App) Sessions() *SessionManager { return a.sessions }

func (a *App) today() core.Date { return core.DateOf(a.now()) }

// Today is the current UTC day by the app clock.
func (a *App) Today() core.Date { return a.today() }

// SignIn starts a fresh session: the access gate is evaluated once and, if
// it passes, every collection is loaded. A denied session is still cached so
// later requests keep getting the paywall without re-polling.
func (a *App) SignIn(ctx context.Context, id Identity) (*Session, error) {
	if strings.TrimSpace(id.UserID) == "" {
		return nil, core.ErrEmptyUser
	}
	s := a.sessions.Replace(id)
	logger := a.logger.WithComponent(log.ComponentSession).With(log.FieldUserID, id.UserID)

	rec, err := a.checkAccess(ctx, id.Email)
	if err != nil {
		logger.WarnContext(ctx, "Access denied", log.FieldOperation, log.OpGate, log.FieldError, err)
		return s, err
	}
	s.mu.Lock()
	s.access = rec
	s.granted = true
	s.mu.Unlock()

	a.Sync(ctx, s)
	logger.InfoContext(ctx, "Session started", "phase", s.Phase())
	return s, nil
}

// Resolve returns the cached session for id, signing in when there is none.
func (a *App) Resolve(ctx context.Context, id Identity) (*Session, error) {
	if s, ok := a.sessions.Get(id.UserID); ok {
		if s.Phase() == PhaseLocked {
			return s, ErrAccessDenied
		}
		return s, nil
	}
	return a.SignIn(ctx, id)
}

// Session returns the cached session for userID.
func (a *App) Session(userID string) (*Session, error) {
	s, ok := a.sessions.Get(userID)
	if !ok {
		return nil, ErrNoSession
	}
	return s, nil
}

// SignOut drops the cached state of userID.
func (a *App) SignOut(ctx context.Context, userID string) {
	a.sessions.Drop(userID)
	a.logger.WithComponent(log.ComponentSession).InfoContext(ctx, "Session ended", log.FieldUserID, userID)
}

func (a *App) checkAccess(ctx context.Context, email string) (core.AuthorizationRecord, error) {
	if strings.TrimSpace(email) == "" {
		return core.AuthorizationRecord{}, fmt.Errorf("%w: no email on account", ErrAccessDenied)
	}
	rec, err := a.store.GetAuthorization(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return core.AuthorizationRecord{}, fmt.Errorf("%w: no authorization for %s", ErrAccessDenied, email)
		}
		return core.AuthorizationRecord{}, fmt.Errorf("%w: lookup failed: %v", ErrAccessDenied, err)
	}
	if !rec.Active(a.now()) {
		return rec, fmt.Errorf("%w: authorization expired at %s", ErrAccessDenied, rec.ExpiresAt.Format(time.RFC3339))
	}
	return rec, nil
}

// Sync reloads the session from the store. The profile is read first; the
// transcript, earnings, expenses and bills are then read concurrently. A
// failed read is logged and the previously cached collection is kept.
func (a *App) Sync(ctx context.Context, s *Session) {
	if !s.accessGranted() {
		return
	}
	s.syncing.Store(true)
	defer s.syncing.Store(false)

	userID := s.Identity.UserID
	logger := a.logger.WithComponent(log.ComponentSync).With(log.FieldUserID, userID)

	profile, err := a.store.GetProfile(ctx, userID)
	switch {
	case err == nil:
		s.mu.Lock()
		s.profile = &profile
		s.phase = PhaseReady
		s.mu.Unlock()
	case errors.Is(err, store.ErrNotFound):
		s.mu.Lock()
		s.profile = nil
		s.phase = PhaseOnboarding
		s.mu.Unlock()
	default:
		logger.ErrorContext(ctx, "Profile read failed", log.FieldError, err, log.FieldErrorType, log.ErrorTypeDatabase)
		s.mu.Lock()
		if s.profile == nil {
			s.phase = PhaseOnboarding
		}
		s.mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	read := func(name string, fn func(context.Context) error) {
		g.Go(func() error {
			if err := fn(gctx); err != nil {
				logger.ErrorContext(gctx, "Collection read failed", "collection", name, log.FieldError, err)
			}
			return nil
		})
	}
	read("chat_messages", func(ctx context.Context) error {
		msgs, err := a.store.ListMessages(ctx, userID)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.messages = msgs
		s.chat = mentor.NewChat(msgs)
		s.mu.Unlock()
		return nil
	})
	read("earnings", func(ctx context.Context) error {
		earnings, err := a.store.ListEarnings(ctx, userID)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.earnings = earnings
		s.mu.Unlock()
		return nil
	})
	read("expenses", func(ctx context.Context) error {
		expenses, err := a.store.ListExpenses(ctx, userID)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.expenses = expenses
		s.mu.Unlock()
		return nil
	})
	read("bills", func(ctx context.Context) error {
		bills, err := a.store.ListBills(ctx, userID)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.bills = bills
		s.mu.Unlock()
		return nil
	})
	_ = g.Wait()

	if prefs, err := a.store.GetPreferences(ctx, userID); err != nil {
		logger.WarnContext(ctx, "Preferences read failed", log.FieldError, err)
	} else {
		s.mu.Lock()
		s.preferences = prefs
		s.mu.Unlock()
	}

	s.mu.Lock()
	s.syncedAt = a.now()
	s.mu.Unlock()
	logger.InfoContext(ctx, "Session synchronized", log.FieldOperation, log.OpSync)
}

// requireReady rejects locked and onboarding sessions.
func requireReady(s *Session) error {
	switch s.Phase() {
	case PhaseLocked:
		return ErrAccessDenied
	case PhaseOnboarding:
		return ErrOnboarding
	}
	return nil
}

func writeFailed(what string, err error) error {
	return fmt.Errorf("save %s: %w: %w", what, ErrWriteFailed, err)
}
