package http

import (
	"time"

	"motoinvest/internal/core"
	"motoinvest/internal/render"
	"motoinvest/internal/services"
)

// Wire shapes. Money travels as integer cents plus a formatted string.

type moneyDTO struct {
	Cents     int64  `json:"cents"`
	Formatted string `json:"formatted"`
}

func toMoney(m core.Money) moneyDTO {
	return moneyDTO{Cents: m.Cents, Formatted: m.String()}
}

type earningDTO struct {
	ID    string   `json:"id"`
	Value moneyDTO `json:"value"`
	Date  string   `json:"date"`
}

type expenseDTO struct {
	ID          string   `json:"id"`
	Value       moneyDTO `json:"value"`
	Date        string   `json:"date"`
	Description string   `json:"description,omitempty"`
}

type billDTO struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Amount  moneyDTO `json:"amount"`
	DueDate string   `json:"due_date"`
	IsPaid  bool     `json:"is_paid"`
}

func toBill(b core.Bill) billDTO {
	return billDTO{ID: b.ID, Name: b.Name, Amount: toMoney(b.Amount), DueDate: b.DueDate.String(), IsPaid: b.IsPaid}
}

func toBills(bills []core.Bill) []billDTO {
	out := make([]billDTO, 0, len(bills))
	for _, b := range bills {
		out = append(out, toBill(b))
	}
	return out
}

type messageDTO struct {
	ID        string    `json:"id,omitempty"`
	Role      core.Role `json:"role"`
	Text      string    `json:"text"`
	HTML      string    `json:"html,omitempty"` // model turns only
	Timestamp time.Time `json:"timestamp"`
}

func toMessage(m core.Message) messageDTO {
	dto := messageDTO{ID: m.ID, Role: m.Role, Text: m.Text, Timestamp: m.Timestamp}
	if m.Role == core.RoleModel {
		if html, err := render.HTML(m.Text); err == nil {
			dto.HTML = html
		}
	}
	return dto
}

func toMessages(msgs []core.Message) []messageDTO {
	out := make([]messageDTO, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessage(m))
	}
	return out
}

type profileDTO struct {
	Name          string    `json:"name"`
	Age           int       `json:"age,omitempty"`
	Gender        string    `json:"gender,omitempty"`
	Experience    string    `json:"experience,omitempty"`
	Tool          string    `json:"tool,omitempty"`
	DaysWeek      int       `json:"days_week,omitempty"`
	HoursDay      int       `json:"hours_day,omitempty"`
	Platforms     []string  `json:"platforms"`
	Accident      bool      `json:"accident"`
	Challenge     string    `json:"challenge,omitempty"`
	FinancialGoal moneyDTO  `json:"financial_goal"`
	GoalName      string    `json:"goal_name"`
	CreatedAt     time.Time `json:"created_at"`
}

func toProfile(p core.Profile) *profileDTO {
	platforms := p.Platforms
	if platforms == nil {
		platforms = []string{}
	}
	return &profileDTO{
		Name: p.Name, Age: p.Age, Gender: p.Gender, Experience: p.Experience, Tool: p.Tool,
		DaysWeek: p.DaysWeek, HoursDay: p.HoursDay, Platforms: platforms, Accident: p.Accident,
		Challenge: p.Challenge, FinancialGoal: toMoney(p.FinancialGoal), GoalName: p.GoalName, CreatedAt: p.CreatedAt,
	}
}

type preferencesDTO struct {
	NotificationsMuted bool `json:"notifications_muted"`
	TutorialSeen       bool `json:"tutorial_seen"`
}

type sessionDTO struct {
	UserID      string         `json:"user_id"`
	Email       string         `json:"email"`
	Name        string         `json:"name"`
	Phase       services.Phase `json:"phase"`
	AccessUntil *time.Time     `json:"access_until,omitempty"`
	Profile     *profileDTO    `json:"profile,omitempty"`
	Earnings    []earningDTO   `json:"earnings"`
	Expenses    []expenseDTO   `json:"expenses"`
	Bills       []billDTO      `json:"bills"`
	Messages    []messageDTO   `json:"messages"`
	Preferences preferencesDTO `json:"preferences"`
	ChatBusy    bool           `json:"chat_busy"`
	Syncing     bool           `json:"syncing"`
	SyncedAt    *time.Time     `json:"synced_at,omitempty"`
	ContactURL  string         `json:"contact_url,omitempty"` // locked sessions only
}

func toSession(s services.Snapshot) sessionDTO {
	dto := sessionDTO{
		UserID:      s.Identity.UserID,
		Email:       s.Identity.Email,
		Name:        s.Identity.Name,
		Phase:       s.Phase,
		Earnings:    make([]earningDTO, 0, len(s.Earnings)),
		Expenses:    make([]expenseDTO, 0, len(s.Expenses)),
		Bills:       toBills(s.Bills),
		Messages:    toMessages(s.Messages),
		Preferences: preferencesDTO(s.Preferences),
		ChatBusy:    s.ChatBusy,
		Syncing:     s.Syncing,
	}
	if !s.Access.ExpiresAt.IsZero() {
		t := s.Access.ExpiresAt
		dto.AccessUntil = &t
	}
	if s.Profile != nil {
		dto.Profile = toProfile(*s.Profile)
	}
	if !s.SyncedAt.IsZero() {
		t := s.SyncedAt
		dto.SyncedAt = &t
	}
	for _, e := range s.Earnings {
		dto.Earnings = append(dto.Earnings, earningDTO{ID: e.ID, Value: toMoney(e.Value), Date: e.Date.String()})
	}
	for _, e := range s.Expenses {
		dto.Expenses = append(dto.Expenses, expenseDTO{ID: e.ID, Value: toMoney(e.Value), Date: e.Date.String(), Description: e.Description})
	}
	return dto
}

type progressDTO struct {
	GoalName string   `json:"goal_name"`
	Goal     moneyDTO `json:"goal"`
	Percent  float64  `json:"percent"`
	BarWidth float64  `json:"bar_width"`
}

type summaryDTO struct {
	Year             int         `json:"year"`
	Month            int         `json:"month"`
	TotalEarned      moneyDTO    `json:"total_earned"`
	TotalSpent       moneyDTO    `json:"total_spent"`
	NetProfit        moneyDTO    `json:"net_profit"`
	Bills            []billDTO   `json:"bills"`
	UnpaidBillsTotal moneyDTO    `json:"unpaid_bills_total"`
	Progress         progressDTO `json:"progress"`
}

func toSummary(v services.SummaryView) summaryDTO {
	return summaryDTO{
		Year:             v.Summary.Month.Year,
		Month:            v.Summary.Month.Month,
		TotalEarned:      toMoney(v.Summary.TotalEarned),
		TotalSpent:       toMoney(v.Summary.TotalSpent),
		NetProfit:        toMoney(v.Summary.NetProfit),
		Bills:            toBills(v.Summary.Bills),
		UnpaidBillsTotal: toMoney(v.Summary.UnpaidBillsTotal),
		Progress: progressDTO{
			GoalName: v.Progress.GoalName,
			Goal:     toMoney(v.Progress.Goal),
			Percent:  v.Progress.Percent,
			BarWidth: v.Progress.BarWidth,
		},
	}
}

type toolCallDTO struct {
	Name    string `json:"name"`
	IsError bool   `json:"is_error,omitempty"`
}

type chatDTO struct {
	UserMessage  messageDTO    `json:"user_message"`
	Reply        messageDTO    `json:"reply"`
	Failed       bool          `json:"failed"`
	ToolCalls    []toolCallDTO `json:"tool_calls"`
	BillsCreated []billDTO     `json:"bills_created"`
}

func toChat(r services.ChatResult) chatDTO {
	dto := chatDTO{
		UserMessage:  toMessage(r.UserMessage),
		Reply:        toMessage(r.Reply),
		Failed:       r.Failed,
		ToolCalls:    make([]toolCallDTO, 0, len(r.ToolCalls)),
		BillsCreated: toBills(r.BillsCreated),
	}
	for _, c := range r.ToolCalls {
		dto.ToolCalls = append(dto.ToolCalls, toolCallDTO{Name: c.Name, IsError: c.IsError})
	}
	return dto
}
