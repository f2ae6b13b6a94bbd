package services

import (
	"context"
	"fmt"
	"strings"

	"motoinvest/internal/core"
	"motoinvest/internal/log"
	"motoinvest/internal/store"
)

// ProfileEdit is a partial edit of the goal; blank fields are left alone.
type ProfileEdit struct {
	GoalName      *string
	FinancialGoal *string
}

func (a *App) UpdateProfile(ctx context.Context, s *Session, edit ProfileEdit) (core.Profile, error) {
	if err := requireReady(s); err != nil {
		return core.Profile{}, err
	}
	var u store.ProfileUpdate
	if edit.GoalName != nil {
		name := strings.TrimSpace(*edit.GoalName)
		if name == "" {
			return core.Profile{}, core.ErrEmptyGoalName
		}
		u.GoalName = &name
	}
	if edit.FinancialGoal != nil {
		cents, err := core.ParseDecimalToCents(*edit.FinancialGoal)
		if err != nil {
			return core.Profile{}, fmt.Errorf("financial goal: %w", err)
		}
		m := core.Money{Cents: cents}
		u.FinancialGoal = &m
	}
	if u.Empty() {
		_, _, _, p := s.collections()
		return *p, nil
	}

	updated, err := a.store.UpdateProfile(ctx, s.Identity.UserID, u)
	if err != nil {
		return core.Profile{}, writeFailed("profile", err)
	}
	s.mu.Lock()
	s.profile = &updated
	s.mu.Unlock()
	a.logger.WithComponent(log.ComponentSession).InfoContext(ctx, "Profile updated",
		log.FieldUserID, s.Identity.UserID, log.FieldOperation, log.OpUpdate)
	return updated, nil
}

// PreferenceEdit sets the flags that are non-nil.
type PreferenceEdit struct {
	NotificationsMuted *bool
	TutorialSeen       *bool
}

func (a *App) Preferences(s *Session) (core.Preferences, error) {
	if s.Phase() == PhaseLocked {
		return core.Preferences{}, ErrAccessDenied
	}
	return s.Snapshot().Preferences, nil
}

func (a *App) SetPreferences(ctx context.Context, s *Session, edit PreferenceEdit) (core.Preferences, error) {
	if s.Phase() == PhaseLocked {
		return core.Preferences{}, ErrAccessDenied
	}
	userID := s.Identity.UserID
	if edit.NotificationsMuted != nil {
		if err := a.store.SetPreference(ctx, userID, core.PrefNotificationsMuted, *edit.NotificationsMuted); err != nil {
			return core.Preferences{}, writeFailed("preference", err)
		}
		s.mu.Lock()
		s.preferences.NotificationsMuted = *edit.NotificationsMuted
		s.mu.Unlock()
	}
	if edit.TutorialSeen != nil {
		if err := a.store.SetPreference(ctx, userID, core.PrefTutorialSeen, *edit.TutorialSeen); err != nil {
			return core.Preferences{}, writeFailed("preference", err)
		}
		s.mu.Lock()
		s.preferences.TutorialSeen = *edit.TutorialSeen
		s.mu.Unlock()
	}
	return s.Snapshot().Preferences, nil
}

// Resync reloads every collection from the store.
func (a *App) Resync(ctx context.Context, s *Session) (Snapshot, error) {
	if s.Phase() == PhaseLocked {
		return Snapshot{}, ErrAccessDenied
	}
	a.Sync(ctx, s)
	return s.Snapshot(), nil
}
