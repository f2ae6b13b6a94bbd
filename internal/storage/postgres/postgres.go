// Package postgres is a gorm-backed store.Store for a hosted Postgres
// (Supabase-compatible table names).
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"motoinvest/internal/core"
	"motoinvest/internal/store"
)

type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

// Open connects to dsn and auto-migrates the tables.
func Open(dsn string) (*Store, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	s := &Store{db: gdb}
	if err := s.migrate(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	for _, m := range allModels() {
		if err := s.db.AutoMigrate(m); err != nil {
			return fmt.Errorf("auto-migrate %T: %w", m, err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) GetProfile(ctx context.Context, userID string) (core.Profile, error) {
	var row profileRow
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.Profile{}, store.ErrNotFound
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return profileFromRow(row), nil
}

func (s *Store) CreateProfile(ctx context.Context, p core.Profile) (core.Profile, error) {
	if err := p.Validate(); err != nil {
		return core.Profile{}, err
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	row := profileToRow(p)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return core.Profile{}, fmt.Errorf("create profile: %w", err)
	}
	slog.InfoContext(ctx, "Profile saved to Postgres", "user_id", p.UserID)
	return profileFromRow(row), nil
}

func (s *Store) UpdateProfile(ctx context.Context, userID string, u store.ProfileUpdate) (core.Profile, error) {
	p, err := s.GetProfile(ctx, userID)
	if err != nil {
		return core.Profile{}, err
	}
	p = u.Apply(p)
	if err := p.Validate(); err != nil {
		return core.Profile{}, err
	}
	err = s.db.WithContext(ctx).Model(&profileRow{}).Where("user_id = ?", userID).
		Updates(map[string]any{"goal_name": p.GoalName, "financial_goal_cents": p.FinancialGoal.Cents}).Error
	if err != nil {
		return core.Profile{}, fmt.Errorf("update profile: %w", err)
	}
	return p, nil
}

func (s *Store) ListEarnings(ctx context.Context, userID string) ([]core.Earning, error) {
	var rows []earningRow
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("date desc").Order("created_at desc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list earnings: %w", err)
	}
	out := make([]core.Earning, 0, len(rows))
	for _, r := range rows {
		out = append(out, core.Earning{ID: r.ID, UserID: r.UserID, Value: core.Money{Cents: r.ValueCents}, Date: core.DateOf(r.Date)})
	}
	return out, nil
}

func (s *Store) AddEarning(ctx context.Context, e core.Earning) (core.Earning, error) {
	if err := e.Validate(); err != nil {
		return core.Earning{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	row := earningRow{ID: e.ID, UserID: e.UserID, ValueCents: e.Value.Cents, Date: e.Date.Time}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return core.Earning{}, fmt.Errorf("create earning: %w", err)
	}
	return e, nil
}

func (s *Store) ListExpenses(ctx context.Context, userID string) ([]core.Expense, error) {
	var rows []expenseRow
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("date desc").Order("created_at desc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	out := make([]core.Expense, 0, len(rows))
	for _, r := range rows {
		out = append(out, core.Expense{
			ID:          r.ID,
			UserID:      r.UserID,
			Value:       core.Money{Cents: r.ValueCents},
			Date:        core.DateOf(r.Date),
			Description: r.Description,
		})
	}
	return out, nil
}

func (s *Store) AddExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	row := expenseRow{ID: e.ID, UserID: e.UserID, ValueCents: e.Value.Cents, Date: e.Date.Time, Description: e.Description}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	return e, nil
}

func (s *Store) ListBills(ctx context.Context, userID string) ([]core.Bill, error) {
	var rows []billRow
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("due_date asc").Order("created_at asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	out := make([]core.Bill, 0, len(rows))
	for _, r := range rows {
		out = append(out, billFromRow(r))
	}
	return out, nil
}

func (s *Store) AddBill(ctx context.Context, b core.Bill) (core.Bill, error) {
	if err := b.Validate(); err != nil {
		return core.Bill{}, err
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	row := billRow{ID: b.ID, UserID: b.UserID, Name: b.Name, AmountCents: b.Amount.Cents, DueDate: b.DueDate.Time, IsPaid: b.IsPaid}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return core.Bill{}, fmt.Errorf("create bill: %w", err)
	}
	slog.InfoContext(ctx, "Bill saved to Postgres", "id", b.ID, "user_id", b.UserID, "amount_cents", b.Amount.Cents)
	return b, nil
}

func (s *Store) SetBillPaid(ctx context.Context, userID, billID string, paid bool) (core.Bill, error) {
	res := s.db.WithContext(ctx).Model(&billRow{}).
		Where("id = ? AND user_id = ?", billID, userID).
		Update("is_paid", paid)
	if res.Error != nil {
		return core.Bill{}, fmt.Errorf("update bill: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return core.Bill{}, store.ErrNotFound
	}
	var row billRow
	if err := s.db.WithContext(ctx).Where("id = ?", billID).First(&row).Error; err != nil {
		return core.Bill{}, fmt.Errorf("reload bill: %w", err)
	}
	return billFromRow(row), nil
}

func (s *Store) DeleteBill(ctx context.Context, userID, billID string) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", billID, userID).Delete(&billRow{})
	if res.Error != nil {
		return fmt.Errorf("delete bill: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListMessages(ctx context.Context, userID string) ([]core.Message, error) {
	var rows []messageRow
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("timestamp asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	out := make([]core.Message, 0, len(rows))
	for _, r := range rows {
		out = append(out, core.Message{ID: r.ID, UserID: r.UserID, Role: core.Role(r.Role), Text: r.Text, Timestamp: r.Timestamp.UTC()})
	}
	return out, nil
}

func (s *Store) AddMessage(ctx context.Context, m core.Message) (core.Message, error) {
	if err := m.Validate(); err != nil {
		return core.Message{}, err
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	row := messageRow{ID: m.ID, UserID: m.UserID, Role: string(m.Role), Text: m.Text, Timestamp: m.Timestamp}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return core.Message{}, fmt.Errorf("create message: %w", err)
	}
	return m, nil
}

func (s *Store) GetAuthorization(ctx context.Context, email string) (core.AuthorizationRecord, error) {
	var row authorizedUserRow
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.AuthorizationRecord{}, store.ErrNotFound
	}
	if err != nil {
		return core.AuthorizationRecord{}, fmt.Errorf("get authorization: %w", err)
	}
	return core.AuthorizationRecord{Email: row.Email, ExpiresAt: row.ExpiresAt.UTC()}, nil
}

func (s *Store) UpsertAuthorization(ctx context.Context, rec core.AuthorizationRecord) error {
	row := authorizedUserRow{Email: normalizeEmail(rec.Email), ExpiresAt: rec.ExpiresAt.UTC()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"expires_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert authorization: %w", err)
	}
	return nil
}

func (s *Store) GetPreferences(ctx context.Context, userID string) (core.Preferences, error) {
	var rows []preferenceRow
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return core.Preferences{}, fmt.Errorf("get preferences: %w", err)
	}
	var p core.Preferences
	for _, r := range rows {
		switch r.Key {
		case core.PrefNotificationsMuted:
			p.NotificationsMuted = r.Value
		case core.PrefTutorialSeen:
			p.TutorialSeen = r.Value
		}
	}
	return p, nil
}

func (s *Store) SetPreference(ctx context.Context, userID, key string, value bool) error {
	row := preferenceRow{UserID: userID, Key: key, Value: value}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("set preference: %w", err)
	}
	return nil
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
