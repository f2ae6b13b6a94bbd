package services

import (
	"context"
	"fmt"
	"strings"

	"motoinvest/internal/core"
	"motoinvest/internal/log"
)

// Onboarding defaults applied to blank answers.
const (
	DefaultGoalName  = "Reserva de Emergência"
	DefaultGoalCents = 500000
)

// WelcomePrompt opens the conversation after onboarding.
const WelcomePrompt = "Acabei de criar meu perfil. Me dá umas boas vindas!"

// OnboardingAnswers is the questionnaire. Blank goal fields take the
// defaults above.
type OnboardingAnswers struct {
	Age           int
	Gender        string
	Experience    string
	Tool          string
	DaysWeek      int
	HoursDay      int
	Platforms     []string
	Accident      bool
	Challenge     string
	FinancialGoal string
	GoalName      string
}

// OnboardingResult carries the stored profile and the welcome turn. Chat is
// nil when the welcome turn could not start.
type OnboardingResult struct {
	Profile core.Profile
	Chat    *ChatResult
}

// Onboard collapses the questionnaire into one profile insert. On failure the
// session stays in onboarding.
func (a *App) Onboard(ctx context.Context, s *Session, ans OnboardingAnswers) (OnboardingResult, error) {
	switch s.Phase() {
	case PhaseLocked:
		return OnboardingResult{}, ErrAccessDenied
	case PhaseReady:
		return OnboardingResult{}, ErrAlreadyOnboarded
	}

	p, err := ans.profile(s.Identity)
	if err != nil {
		return OnboardingResult{}, err
	}
	p.CreatedAt = a.now()

	saved, err := a.store.CreateProfile(ctx, p)
	if err != nil {
		return OnboardingResult{}, writeFailed("profile", err)
	}
	s.mu.Lock()
	s.profile = &saved
	s.phase = PhaseReady
	s.mu.Unlock()
	a.logger.WithComponent(log.ComponentSession).InfoContext(ctx, "Profile created",
		log.FieldUserID, s.Identity.UserID, log.FieldAmountCents, saved.FinancialGoal.Cents)

	res := OnboardingResult{Profile: saved}
	chat, err := a.Chat(ctx, s, ChatInput{Text: BuildWelcomePrompt(saved)})
	if err != nil {
		a.logger.WithComponent(log.ComponentMentor).WarnContext(ctx, "Welcome turn not started",
			log.FieldUserID, s.Identity.UserID, log.FieldError, err)
		return res, nil
	}
	res.Chat = &chat
	return res, nil
}

func (ans OnboardingAnswers) profile(id Identity) (core.Profile, error) {
	goalName := strings.TrimSpace(ans.GoalName)
	if goalName == "" {
		goalName = DefaultGoalName
	}
	goal := core.Money{Cents: DefaultGoalCents}
	if strings.TrimSpace(ans.FinancialGoal) != "" {
		cents, err := core.ParseDecimalToCents(ans.FinancialGoal)
		if err != nil {
			return core.Profile{}, fmt.Errorf("financial goal: %w", err)
		}
		goal = core.Money{Cents: cents}
	}

	platforms := make([]string, 0, len(ans.Platforms))
	for _, pl := range ans.Platforms {
		if pl = strings.TrimSpace(pl); pl != "" {
			platforms = append(platforms, pl)
		}
	}

	p := core.Profile{
		UserID:        id.UserID,
		Name:          id.Name,
		Age:           ans.Age,
		Gender:        strings.TrimSpace(ans.Gender),
		Experience:    strings.TrimSpace(ans.Experience),
		Tool:          strings.TrimSpace(ans.Tool),
		DaysWeek:      ans.DaysWeek,
		HoursDay:      ans.HoursDay,
		Platforms:     platforms,
		Accident:      ans.Accident,
		Challenge:     strings.TrimSpace(ans.Challenge),
		FinancialGoal: goal,
		GoalName:      goalName,
	}
	if err := p.Validate(); err != nil {
		return core.Profile{}, err
	}
	return p, nil
}

// BuildWelcomePrompt is the welcome prompt followed by the answers, so the
// mentor can tailor its first message.
func BuildWelcomePrompt(p core.Profile) string {
	var b strings.Builder
	b.WriteString(WelcomePrompt)
	b.WriteString("\n\nMeu perfil:")
	line := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "\n- %s: %s", label, value)
		}
	}
	if p.Age > 0 {
		line("Idade", fmt.Sprintf("%d anos", p.Age))
	}
	line("Gênero", p.Gender)
	line("Experiência", p.Experience)
	line("Veículo", p.Tool)
	if p.DaysWeek > 0 {
		line("Dias por semana", fmt.Sprintf("%d", p.DaysWeek))
	}
	if p.HoursDay > 0 {
		line("Horas por dia", fmt.Sprintf("%d", p.HoursDay))
	}
	line("Plataformas", strings.Join(p.Platforms, ", "))
	if p.Accident {
		line("Já sofri acidente", "sim")
	} else {
		line("Já sofri acidente", "não")
	}
	line("Maior desafio", p.Challenge)
	line("Meta", fmt.Sprintf("%s (%s)", p.GoalName, p.FinancialGoal))
	return b.String()
}
