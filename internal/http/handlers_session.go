package http

import (
	"errors"
	"net/http"

	"motoinvest/internal/services"
)

// session resolves the caller's cached session, signing in on first use.
// On failure the error response has been written.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*services.Session, bool) {
	id, ok := IdentityFrom(r.Context())
	if !ok {
		ErrorResponse(http.StatusUnauthorized, ErrMissingToken.Error()).Write(w)
		return nil, false
	}
	sess, err := s.app.Resolve(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) writeSnapshot(w http.ResponseWriter, snap services.Snapshot) {
	dto := toSession(snap)
	if snap.Phase == services.PhaseLocked {
		dto.ContactURL = s.contactURL
	}
	NewJSONResponse().Body(dto).Write(w)
}

// handleSignIn runs the sign-in event. A locked account still gets its
// snapshot so the client can show the paywall.
func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())
	sess, err := s.app.SignIn(r.Context(), id)
	if err != nil && !errors.Is(err, services.ErrAccessDenied) {
		s.writeError(w, r, err)
		return
	}
	s.writeSnapshot(w, sess.Snapshot())
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())
	sess, err := s.app.Resolve(r.Context(), id)
	if err != nil && !errors.Is(err, services.ErrAccessDenied) {
		s.writeError(w, r, err)
		return
	}
	s.writeSnapshot(w, sess.Snapshot())
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())
	s.app.SignOut(r.Context(), id.UserID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResync(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	snap, err := s.app.Resync(r.Context(), sess)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSnapshot(w, snap)
}

type preferencesRequest struct {
	NotificationsMuted *bool `json:"notifications_muted"`
	TutorialSeen       *bool `json:"tutorial_seen"`
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	prefs, err := s.app.Preferences(sess)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(preferencesDTO(prefs)).Write(w)
}

func (s *Server) handleSetPreferences(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req preferencesRequest
	if err := decodeJSON(w, r, maxJSONBody, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	prefs, err := s.app.SetPreferences(r.Context(), sess, services.PreferenceEdit{
		NotificationsMuted: req.NotificationsMuted,
		TutorialSeen:       req.TutorialSeen,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(preferencesDTO(prefs)).Write(w)
}

type onboardingRequest struct {
	Age           int          `json:"age"`
	Gender        string       `json:"gender"`
	Experience    string       `json:"experience"`
	Tool          string       `json:"tool"`
	DaysWeek      int          `json:"days_week"`
	HoursDay      int          `json:"hours_day"`
	Platforms     []string     `json:"platforms"`
	Accident      bool         `json:"accident"`
	Challenge     string       `json:"challenge"`
	FinancialGoal amountString `json:"financial_goal"`
	GoalName      string       `json:"goal_name"`
}

type onboardingResponse struct {
	Profile *profileDTO `json:"profile"`
	Chat    *chatDTO    `json:"chat,omitempty"`
}

func (s *Server) handleOnboarding(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req onboardingRequest
	if err := decodeJSON(w, r, maxJSONBody, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.app.Onboard(r.Context(), sess, services.OnboardingAnswers{
		Age:           req.Age,
		Gender:        sanitizeInput(req.Gender),
		Experience:    sanitizeInput(req.Experience),
		Tool:          sanitizeInput(req.Tool),
		DaysWeek:      req.DaysWeek,
		HoursDay:      req.HoursDay,
		Platforms:     req.Platforms,
		Accident:      req.Accident,
		Challenge:     sanitizeInput(req.Challenge),
		FinancialGoal: string(req.FinancialGoal),
		GoalName:      sanitizeInput(req.GoalName),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := onboardingResponse{Profile: toProfile(res.Profile)}
	if res.Chat != nil {
		c := toChat(*res.Chat)
		out.Chat = &c
	}
	NewJSONResponse().Status(http.StatusCreated).Body(out).Write(w)
}

type profileRequest struct {
	GoalName      *string       `json:"goal_name"`
	FinancialGoal *amountString `json:"financial_goal"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req profileRequest
	if err := decodeJSON(w, r, maxJSONBody, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	var edit services.ProfileEdit
	if req.GoalName != nil {
		name := sanitizeInput(*req.GoalName)
		edit.GoalName = &name
	}
	if req.FinancialGoal != nil {
		goal := string(*req.FinancialGoal)
		edit.FinancialGoal = &goal
	}
	p, err := s.app.UpdateProfile(r.Context(), sess, edit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(toProfile(p)).Write(w)
}
