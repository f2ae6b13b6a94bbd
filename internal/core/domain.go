package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxBillName    = 120
	maxDescription = 200
)

// DateLayout is the wire and storage format of every date-only value.
const DateLayout = "2006-01-02"

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Preference keys persisted per user.
const (
	PrefNotificationsMuted = "moto_notifs_muted"
	PrefTutorialSeen       = "moto_tutorial_seen"
)

type (
	Role string

	// Date is a UTC-normalized calendar day.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Earning struct {
		ID     string
		UserID string
		Value  Money
		Date   Date
	}

	Expense struct {
		ID          string
		UserID      string
		Value       Money
		Date        Date
		Description string
	}

	Bill struct {
		ID      string
		UserID  string
		Name    string
		Amount  Money
		DueDate Date
		IsPaid  bool
	}

	Message struct {
		ID        string
		UserID    string
		Role      Role
		Text      string
		Timestamp time.Time
	}

	Profile struct {
		UserID        string
		Name          string
		Age           int
		Gender        string
		Experience    string
		Tool          string // vehicle used for deliveries
		DaysWeek      int
		HoursDay      int
		Platforms     []string
		Accident      bool
		Challenge     string
		FinancialGoal Money
		GoalName      string
		CreatedAt     time.Time
	}

	AuthorizationRecord struct {
		Email     string
		ExpiresAt time.Time
	}

	Preferences struct {
		NotificationsMuted bool
		TutorialSeen       bool
	}
)

var (
	ErrInvalidDay     = errors.New("invalid day")
	ErrInvalidMonth   = errors.New("invalid month")
	ErrInvalidDate    = errors.New("invalid date")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrEmptyName      = errors.New("empty name")
	ErrEmptyUser      = errors.New("empty user id")
	ErrInvalidRole    = errors.New("invalid role")
	ErrEmptyGoalName  = errors.New("empty goal name")
	ErrNameTooLong    = errors.New("name too long (max 120 characters)")
	ErrDescTooLong    = errors.New("description too long (max 200 characters)")
	ErrInvalidProfile = errors.New("invalid profile")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its UTC calendar day.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), int(u.Month()), u.Day())
}

// Today returns the current UTC day.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a YYYY-MM-DD string. Longer ISO timestamps are accepted
// and truncated to their date part.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(DateLayout) && s[len(DateLayout)] == 'T' {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// String formats the date as YYYY-MM-DD. The zero date formats as "".
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleModel
}

func (e Earning) Validate() error {
	if strings.TrimSpace(e.UserID) == "" {
		return ErrEmptyUser
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	return e.Value.Validate()
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.UserID) == "" {
		return ErrEmptyUser
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if utf8.RuneCountInString(e.Description) > maxDescription {
		return ErrDescTooLong
	}
	return e.Value.Validate()
}

func (b Bill) Validate() error {
	if strings.TrimSpace(b.UserID) == "" {
		return ErrEmptyUser
	}
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(b.Name) > maxBillName {
		return ErrNameTooLong
	}
	if err := b.DueDate.Validate(); err != nil {
		return fmt.Errorf("invalid due date: %w", err)
	}
	return b.Amount.Validate()
}

func (m Message) Validate() error {
	if strings.TrimSpace(m.UserID) == "" {
		return ErrEmptyUser
	}
	if !m.Role.Valid() {
		return ErrInvalidRole
	}
	return nil
}

func (p Profile) Validate() error {
	if strings.TrimSpace(p.UserID) == "" {
		return ErrEmptyUser
	}
	if strings.TrimSpace(p.GoalName) == "" {
		return ErrEmptyGoalName
	}
	if p.FinancialGoal.Cents < 0 {
		return ErrInvalidAmount
	}
	if p.Age < 0 || p.DaysWeek < 0 || p.DaysWeek > 7 || p.HoursDay < 0 || p.HoursDay > 24 {
		return ErrInvalidProfile
	}
	return nil
}

// Active reports whether the record grants access at instant now.
func (a AuthorizationRecord) Active(now time.Time) bool {
	return !a.ExpiresAt.IsZero() && a.ExpiresAt.After(now)
}
