package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"motoinvest/internal/core"
	"motoinvest/internal/ledger"
	"motoinvest/internal/log"
	"motoinvest/internal/media"
	"motoinvest/internal/mentor"
)

// ApologyText is appended to the transcript when the mentor fails.
const ApologyText = "Ops, falhei na conexão."

// ImageOnlyText stands in for the text of a turn that only carried images.
const ImageOnlyText = "📷 Imagem enviada"

// ChatInput is a user turn: text and base64-encoded images.
type ChatInput struct {
	Text   string
	Images []string
}

// ChatResult is the outcome of one turn. Failed reports that the mentor
// could not answer and Reply holds the apology.
type ChatResult struct {
	UserMessage  core.Message
	Reply        core.Message
	Failed       bool
	ToolCalls    []mentor.ToolCall
	BillsCreated []core.Bill
}

// Chat runs one mentor turn. Only one turn per session runs at a time; a
// concurrent call gets ErrChatBusy. Blank input is rejected with
// ErrEmptyPrompt before anything is stored.
func (a *App) Chat(ctx context.Context, s *Session, in ChatInput) (ChatResult, error) {
	if s.Phase() == PhaseLocked {
		return ChatResult{}, ErrAccessDenied
	}
	text := strings.TrimSpace(in.Text)
	if text == "" && len(in.Images) == 0 {
		return ChatResult{}, ErrEmptyPrompt
	}
	if !s.busy.CompareAndSwap(false, true) {
		return ChatResult{}, ErrChatBusy
	}
	defer s.busy.Store(false)

	images := make([]media.Image, 0, len(in.Images))
	for i, raw := range in.Images {
		img, err := a.images.PrepareBase64(raw)
		if err != nil {
			return ChatResult{}, fmt.Errorf("image %d: %w", i+1, err)
		}
		images = append(images, img)
	}

	userID := s.Identity.UserID
	logger := a.logger.WithComponent(log.ComponentMentor).With(log.FieldUserID, userID)

	stored := text
	if stored == "" {
		stored = ImageOnlyText
	}
	userMsg, err := a.store.AddMessage(ctx, core.Message{UserID: userID, Role: core.RoleUser, Text: stored, Timestamp: a.now()})
	if err != nil {
		return ChatResult{}, writeFailed("message", err)
	}
	s.appendMessage(userMsg)

	exec := &sessionExecutor{app: a, session: s}
	reply, err := a.mentor.Send(ctx, s.mentorChat(), mentor.Prompt{Text: text, Images: images}, mentor.NewToolset(exec))
	if err != nil {
		logger.ErrorContext(ctx, "Mentor turn failed", log.FieldOperation, log.OpChat,
			log.FieldError, err, log.FieldErrorType, log.ErrorTypeUpstream)
		apology := core.Message{UserID: userID, Role: core.RoleModel, Text: ApologyText, Timestamp: a.now()}
		s.appendMessage(apology)
		return ChatResult{UserMessage: userMsg, Reply: apology, Failed: true, BillsCreated: exec.created}, nil
	}

	modelMsg := core.Message{UserID: userID, Role: core.RoleModel, Text: reply.Text, Timestamp: a.now()}
	saved, err := a.store.AddMessage(ctx, modelMsg)
	if err != nil {
		logger.ErrorContext(ctx, "Model reply not stored", log.FieldError, err, log.FieldErrorType, log.ErrorTypeDatabase)
	} else {
		modelMsg = saved
		s.appendMessage(saved)
	}
	logger.InfoContext(ctx, "Mentor turn completed", log.FieldOperation, log.OpChat, "tool_calls", len(reply.ToolCalls))

	return ChatResult{
		UserMessage:  userMsg,
		Reply:        modelMsg,
		ToolCalls:    reply.ToolCalls,
		BillsCreated: exec.created,
	}, nil
}

// sessionExecutor runs mentor tools against one session.
type sessionExecutor struct {
	app     *App
	session *Session
	created []core.Bill
}

func (e *sessionExecutor) AddBill(ctx context.Context, name string, amount core.Money, due core.Date) (core.Bill, error) {
	if err := requireReady(e.session); err != nil {
		return core.Bill{}, err
	}
	b, err := e.app.addBill(ctx, e.session, name, amount, due)
	if err != nil {
		return core.Bill{}, err
	}
	e.created = append(e.created, b)
	return b, nil
}

func (e *sessionExecutor) FinancialSummary(context.Context) (mentor.FinancialSummary, error) {
	view, err := e.app.Summary(e.session, core.MonthOf(e.app.today()))
	if err != nil && !errors.Is(err, ErrOnboarding) {
		return mentor.FinancialSummary{}, err
	}
	if errors.Is(err, ErrOnboarding) {
		earnings, expenses, bills, _ := e.session.collections()
		sum := ledger.Summarize(core.MonthOf(e.app.today()), earnings, expenses, bills)
		view = SummaryView{Summary: sum, Progress: ledger.Progress(sum.NetProfit, "", core.Money{})}
	}
	return toMentorSummary(view), nil
}

func toMentorSummary(v SummaryView) mentor.FinancialSummary {
	out := mentor.FinancialSummary{
		Month:            v.Summary.Month.Key(),
		TotalEarned:      v.Summary.TotalEarned.Reais(),
		TotalSpent:       v.Summary.TotalSpent.Reais(),
		NetProfit:        v.Summary.NetProfit.Reais(),
		UnpaidBillsTotal: v.Summary.UnpaidBillsTotal.Reais(),
		GoalName:         v.Progress.GoalName,
		Goal:             v.Progress.Goal.Reais(),
		GoalProgress:     v.Progress.Percent,
		Bills:            make([]mentor.SummaryBill, 0, len(v.Summary.Bills)),
	}
	for _, b := range v.Summary.Bills {
		out.Bills = append(out.Bills, mentor.SummaryBill{
			Name:    b.Name,
			Amount:  b.Amount.Reais(),
			DueDate: b.DueDate.String(),
			IsPaid:  b.IsPaid,
		})
	}
	return out
}
