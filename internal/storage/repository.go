package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"motoinvest/internal/core"
	"motoinvest/internal/store"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db   *sql.DB
	path string
}

var _ store.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, path: dbPath}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping backs the readiness probe.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) GetProfile(ctx context.Context, userID string) (core.Profile, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, name, age, gender, experience, tool, days_week, hours_day,
		       platforms, accident, challenge, financial_goal_cents, goal_name, created_at
		FROM profiles WHERE user_id = ?`, userID)

	var (
		p         core.Profile
		platforms string
		goal      int64
		created   string
	)
	err := row.Scan(&p.UserID, &p.Name, &p.Age, &p.Gender, &p.Experience, &p.Tool, &p.DaysWeek,
		&p.HoursDay, &platforms, &p.Accident, &p.Challenge, &goal, &p.GoalName, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Profile{}, store.ErrNotFound
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	if err := json.Unmarshal([]byte(platforms), &p.Platforms); err != nil {
		return core.Profile{}, fmt.Errorf("decode platforms: %w", err)
	}
	p.FinancialGoal = core.Money{Cents: goal}
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return p, nil
}

func (r *SQLiteRepository) CreateProfile(ctx context.Context, p core.Profile) (core.Profile, error) {
	if err := p.Validate(); err != nil {
		return core.Profile{}, err
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.Platforms == nil {
		p.Platforms = []string{}
	}
	platforms, err := json.Marshal(p.Platforms)
	if err != nil {
		return core.Profile{}, fmt.Errorf("encode platforms: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, name, age, gender, experience, tool, days_week, hours_day,
		                      platforms, accident, challenge, financial_goal_cents, goal_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, p.Name, p.Age, p.Gender, p.Experience, p.Tool, p.DaysWeek, p.HoursDay,
		string(platforms), p.Accident, p.Challenge, p.FinancialGoal.Cents, p.GoalName,
		p.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return core.Profile{}, fmt.Errorf("create profile: %w", err)
	}

	slog.InfoContext(ctx, "Profile saved to SQLite", "user_id", p.UserID, "goal_cents", p.FinancialGoal.Cents)
	return p, nil
}

func (r *SQLiteRepository) UpdateProfile(ctx context.Context, userID string, u store.ProfileUpdate) (core.Profile, error) {
	p, err := r.GetProfile(ctx, userID)
	if err != nil {
		return core.Profile{}, err
	}
	p = u.Apply(p)
	if err := p.Validate(); err != nil {
		return core.Profile{}, err
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE profiles SET goal_name = ?, financial_goal_cents = ? WHERE user_id = ?`,
		p.GoalName, p.FinancialGoal.Cents, userID)
	if err != nil {
		return core.Profile{}, fmt.Errorf("update profile: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) ListEarnings(ctx context.Context, userID string) ([]core.Earning, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, value_cents, date FROM earnings WHERE user_id = ? ORDER BY date DESC, rowid DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list earnings: %w", err)
	}
	defer rows.Close()

	out := []core.Earning{}
	for rows.Next() {
		var (
			e     core.Earning
			cents int64
			date  string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &cents, &date); err != nil {
			return nil, fmt.Errorf("scan earning: %w", err)
		}
		if e.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("earning %s: %w", e.ID, err)
		}
		e.Value = core.Money{Cents: cents}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) AddEarning(ctx context.Context, e core.Earning) (core.Earning, error) {
	if err := e.Validate(); err != nil {
		return core.Earning{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO earnings (id, user_id, value_cents, date) VALUES (?, ?, ?, ?)`,
		e.ID, e.UserID, e.Value.Cents, e.Date.String())
	if err != nil {
		return core.Earning{}, fmt.Errorf("create earning: %w", err)
	}

	slog.InfoContext(ctx, "Earning saved to SQLite",
		"id", e.ID,
		"user_id", e.UserID,
		"amount_cents", e.Value.Cents,
		"date", e.Date.String())
	return e, nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID string) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, value_cents, date, description FROM expenses WHERE user_id = ? ORDER BY date DESC, rowid DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	out := []core.Expense{}
	for rows.Next() {
		var (
			e     core.Expense
			cents int64
			date  string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &cents, &date, &e.Description); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if e.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("expense %s: %w", e.ID, err)
		}
		e.Value = core.Money{Cents: cents}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) AddExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (id, user_id, value_cents, date, description) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Value.Cents, e.Date.String(), e.Description)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"user_id", e.UserID,
		"amount_cents", e.Value.Cents,
		"date", e.Date.String())
	return e, nil
}

func (r *SQLiteRepository) ListBills(ctx context.Context, userID string) ([]core.Bill, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, amount_cents, due_date, is_paid FROM bills WHERE user_id = ? ORDER BY due_date ASC, rowid ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	defer rows.Close()

	out := []core.Bill{}
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBill(row rowScanner) (core.Bill, error) {
	var (
		b     core.Bill
		cents int64
		due   string
	)
	if err := row.Scan(&b.ID, &b.UserID, &b.Name, &cents, &due, &b.IsPaid); err != nil {
		return core.Bill{}, err
	}
	d, err := core.ParseDate(due)
	if err != nil {
		return core.Bill{}, fmt.Errorf("bill %s: %w", b.ID, err)
	}
	b.DueDate = d
	b.Amount = core.Money{Cents: cents}
	return b, nil
}

func (r *SQLiteRepository) AddBill(ctx context.Context, b core.Bill) (core.Bill, error) {
	if err := b.Validate(); err != nil {
		return core.Bill{}, err
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bills (id, user_id, name, amount_cents, due_date, is_paid) VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.Name, b.Amount.Cents, b.DueDate.String(), b.IsPaid)
	if err != nil {
		return core.Bill{}, fmt.Errorf("create bill: %w", err)
	}

	slog.InfoContext(ctx, "Bill saved to SQLite",
		"id", b.ID,
		"user_id", b.UserID,
		"amount_cents", b.Amount.Cents,
		"due_date", b.DueDate.String())
	return b, nil
}

func (r *SQLiteRepository) SetBillPaid(ctx context.Context, userID, billID string, paid bool) (core.Bill, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bills SET is_paid = ? WHERE id = ? AND user_id = ?`, paid, billID, userID)
	if err != nil {
		return core.Bill{}, fmt.Errorf("update bill: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Bill{}, store.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, amount_cents, due_date, is_paid FROM bills WHERE id = ?`, billID)
	b, err := scanBill(row)
	if err != nil {
		return core.Bill{}, fmt.Errorf("reload bill: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) DeleteBill(ctx context.Context, userID, billID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bills WHERE id = ? AND user_id = ?`, billID, userID)
	if err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	slog.InfoContext(ctx, "Bill deleted from SQLite", "id", billID, "user_id", userID)
	return nil
}

func (r *SQLiteRepository) ListMessages(ctx context.Context, userID string) ([]core.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, role, text, timestamp FROM chat_messages WHERE user_id = ? ORDER BY timestamp ASC, rowid ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	out := []core.Message{}
	for rows.Next() {
		var (
			m    core.Message
			role string
			ts   int64
		)
		if err := rows.Scan(&m.ID, &m.UserID, &role, &m.Text, &ts); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Role = core.Role(role)
		m.Timestamp = time.Unix(0, ts).UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) AddMessage(ctx context.Context, m core.Message) (core.Message, error) {
	if err := m.Validate(); err != nil {
		return core.Message{}, err
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO chat_messages (id, user_id, role, text, timestamp) VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.UserID, string(m.Role), m.Text, m.Timestamp.UnixNano())
	if err != nil {
		return core.Message{}, fmt.Errorf("create message: %w", err)
	}
	return m, nil
}

func (r *SQLiteRepository) GetAuthorization(ctx context.Context, email string) (core.AuthorizationRecord, error) {
	var rec core.AuthorizationRecord
	var expires string
	err := r.db.QueryRowContext(ctx,
		`SELECT email, expires_at FROM authorized_users WHERE email = ?`, normalizeEmail(email)).Scan(&rec.Email, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return core.AuthorizationRecord{}, store.ErrNotFound
	}
	if err != nil {
		return core.AuthorizationRecord{}, fmt.Errorf("get authorization: %w", err)
	}
	if rec.ExpiresAt, err = time.Parse(time.RFC3339Nano, expires); err != nil {
		return core.AuthorizationRecord{}, fmt.Errorf("parse expires_at: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) UpsertAuthorization(ctx context.Context, rec core.AuthorizationRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO authorized_users (email, expires_at) VALUES (?, ?)
		ON CONFLICT(email) DO UPDATE SET expires_at = excluded.expires_at`,
		normalizeEmail(rec.Email), rec.ExpiresAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert authorization: %w", err)
	}
	slog.InfoContext(ctx, "Authorization saved to SQLite", "email", normalizeEmail(rec.Email), "expires_at", rec.ExpiresAt)
	return nil
}

func (r *SQLiteRepository) GetPreferences(ctx context.Context, userID string) (core.Preferences, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM preferences WHERE user_id = ?`, userID)
	if err != nil {
		return core.Preferences{}, fmt.Errorf("get preferences: %w", err)
	}
	defer rows.Close()

	var p core.Preferences
	for rows.Next() {
		var key string
		var value bool
		if err := rows.Scan(&key, &value); err != nil {
			return core.Preferences{}, fmt.Errorf("scan preference: %w", err)
		}
		switch key {
		case core.PrefNotificationsMuted:
			p.NotificationsMuted = value
		case core.PrefTutorialSeen:
			p.TutorialSeen = value
		}
	}
	return p, rows.Err()
}

func (r *SQLiteRepository) SetPreference(ctx context.Context, userID, key string, value bool) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO preferences (user_id, key, value) VALUES (?, ?, ?)
		ON CONFLICT(user_id, key) DO UPDATE SET value = excluded.value`,
		userID, key, value)
	if err != nil {
		return fmt.Errorf("set preference: %w", err)
	}
	return nil
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
