package postgres

import (
	"encoding/json"
	"time"

	"motoinvest/internal/core"
)

type profileRow struct {
	UserID             string `gorm:"primaryKey;size:64"`
	Name               string
	Age                int
	Gender             string `gorm:"size:32"`
	Experience         string `gorm:"size:64"`
	Tool               string `gorm:"size:64"`
	DaysWeek           int
	HoursDay           int
	Platforms          string `gorm:"type:text;not null;default:'[]'"` // JSON array
	Accident           bool
	Challenge          string `gorm:"type:text"`
	FinancialGoalCents int64  `gorm:"not null;default:0"`
	GoalName           string `gorm:"not null"`
	CreatedAt          time.Time
}

func (profileRow) TableName() string { return "profiles" }

type earningRow struct {
	ID         string    `gorm:"primaryKey;size:36"`
	UserID     string    `gorm:"index:idx_earnings_user_date;size:64;not null"`
	ValueCents int64     `gorm:"not null"`
	Date       time.Time `gorm:"type:date;index:idx_earnings_user_date;not null"`
	CreatedAt  time.Time
}

func (earningRow) TableName() string { return "earnings" }

type expenseRow struct {
	ID          string    `gorm:"primaryKey;size:36"`
	UserID      string    `gorm:"index:idx_expenses_user_date;size:64;not null"`
	ValueCents  int64     `gorm:"not null"`
	Date        time.Time `gorm:"type:date;index:idx_expenses_user_date;not null"`
	Description string    `gorm:"type:text"`
	CreatedAt   time.Time
}

func (expenseRow) TableName() string { return "expenses" }

type billRow struct {
	ID          string    `gorm:"primaryKey;size:36"`
	UserID      string    `gorm:"index:idx_bills_user_due;size:64;not null"`
	Name        string    `gorm:"size:120;not null"`
	AmountCents int64     `gorm:"not null"`
	DueDate     time.Time `gorm:"type:date;index:idx_bills_user_due;not null"`
	IsPaid      bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time
}

func (billRow) TableName() string { return "bills" }

type messageRow struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"index:idx_chat_messages_user_ts;size:64;not null"`
	Role      string    `gorm:"size:8;not null"`
	Text      string    `gorm:"type:text;not null"`
	Timestamp time.Time `gorm:"index:idx_chat_messages_user_ts;not null"`
}

func (messageRow) TableName() string { return "chat_messages" }

type authorizedUserRow struct {
	Email     string    `gorm:"primaryKey;size:255"`
	ExpiresAt time.Time `gorm:"not null"`
}

func (authorizedUserRow) TableName() string { return "authorized_users" }

type preferenceRow struct {
	UserID string `gorm:"primaryKey;size:64"`
	Key    string `gorm:"primaryKey;size:64"`
	Value  bool   `gorm:"not null;default:false"`
}

func (preferenceRow) TableName() string { return "preferences" }

func allModels() []any {
	return []any{
		&profileRow{}, &earningRow{}, &expenseRow{}, &billRow{},
		&messageRow{}, &authorizedUserRow{}, &preferenceRow{},
	}
}

func profileFromRow(r profileRow) core.Profile {
	p := core.Profile{
		UserID:        r.UserID,
		Name:          r.Name,
		Age:           r.Age,
		Gender:        r.Gender,
		Experience:    r.Experience,
		Tool:          r.Tool,
		DaysWeek:      r.DaysWeek,
		HoursDay:      r.HoursDay,
		Accident:      r.Accident,
		Challenge:     r.Challenge,
		FinancialGoal: core.Money{Cents: r.FinancialGoalCents},
		GoalName:      r.GoalName,
		CreatedAt:     r.CreatedAt.UTC(),
	}
	if err := json.Unmarshal([]byte(r.Platforms), &p.Platforms); err != nil || p.Platforms == nil {
		p.Platforms = []string{}
	}
	return p
}

func profileToRow(p core.Profile) profileRow {
	platforms := p.Platforms
	if platforms == nil {
		platforms = []string{}
	}
	b, _ := json.Marshal(platforms)
	return profileRow{
		UserID:             p.UserID,
		Name:               p.Name,
		Age:                p.Age,
		Gender:             p.Gender,
		Experience:         p.Experience,
		Tool:               p.Tool,
		DaysWeek:           p.DaysWeek,
		HoursDay:           p.HoursDay,
		Platforms:          string(b),
		Accident:           p.Accident,
		Challenge:          p.Challenge,
		FinancialGoalCents: p.FinancialGoal.Cents,
		GoalName:           p.GoalName,
		CreatedAt:          p.CreatedAt,
	}
}

func billFromRow(r billRow) core.Bill {
	return core.Bill{
		ID:      r.ID,
		UserID:  r.UserID,
		Name:    r.Name,
		Amount:  core.Money{Cents: r.AmountCents},
		DueDate: core.DateOf(r.DueDate),
		IsPaid:  r.IsPaid,
	}
}
