package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"budgetmaster/internal/config"
	"budgetmaster/internal/core"
)

// timestampLayout is fixed-width so text comparison is chronological.
const timestampLayout = "2006-01-02 15:04:05"

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries holds every statement the application runs. The same methods work
// on the pool and inside a transaction.
type Queries struct {
	db     dbtx
	rebind func(string) string
	now    func() time.Time
}

func newQueries(db dbtx, dialect string) *Queries {
	rebind := func(q string) string { return q }
	if dialect == config.DialectPostgres {
		rebind = rebindDollar
	}
	return &Queries{db: db, rebind: rebind, now: time.Now}
}

func (q *Queries) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return q.db.ExecContext(ctx, q.rebind(query), args...)
}

func (q *Queries) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return q.db.QueryContext(ctx, q.rebind(query), args...)
}

func (q *Queries) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return q.db.QueryRowContext(ctx, q.rebind(query), args...)
}

func (q *Queries) timestamp() string {
	return formatTimestamp(q.now())
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.ParseInLocation(timestampLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// Users

// CreateUser inserts u and returns its id. A duplicate email yields
// core.ErrEmailTaken and writes nothing.
func (q *Queries) CreateUser(ctx context.Context, u core.User) (int64, error) {
	var id int64
	err := q.queryRow(ctx,
		`INSERT INTO users (email, name, password_hash, monthly_savings_target_cents, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(email) DO NOTHING
		 RETURNING id`,
		core.NormalizeEmail(u.Email), u.Name, u.PasswordHash, u.MonthlySavingsTarget.Cents, q.timestamp(),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, core.ErrEmailTaken
	}
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

const userColumns = `id, email, name, password_hash, monthly_savings_target_cents, created_at`

func scanUser(row *sql.Row) (core.User, error) {
	var (
		u         core.User
		createdAt string
	)
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.MonthlySavingsTarget.Cents, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrUserNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	if u.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return core.User{}, err
	}
	return u, nil
}

func (q *Queries) GetUser(ctx context.Context, id int64) (core.User, error) {
	return scanUser(q.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	return scanUser(q.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, core.NormalizeEmail(email)))
}

func (q *Queries) UpdateSavingsTarget(ctx context.Context, userID int64, target core.Money) error {
	res, err := q.exec(ctx, `UPDATE users SET monthly_savings_target_cents = ? WHERE id = ?`, target.Cents, userID)
	if err != nil {
		return fmt.Errorf("update savings target: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrUserNotFound
	}
	return nil
}

// Categories

func (q *Queries) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := q.query(ctx, `SELECT id, name, icon, color FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	cats := []core.Category{}
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (q *Queries) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var c core.Category
	err := q.queryRow(ctx, `SELECT id, name, icon, color FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Icon, &c.Color)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrCategoryNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// Budget limits

// UpsertLimit creates or replaces the user's limit for a category.
func (q *Queries) UpsertLimit(ctx context.Context, userID, categoryID int64, limit core.Money) error {
	now := q.timestamp()
	_, err := q.exec(ctx,
		`INSERT INTO budget_limits (user_id, category_id, monthly_limit_cents, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, category_id)
		 DO UPDATE SET monthly_limit_cents = excluded.monthly_limit_cents, updated_at = excluded.updated_at`,
		userID, categoryID, limit.Cents, now, now)
	if err != nil {
		return fmt.Errorf("upsert budget limit: %w", err)
	}
	return nil
}

const limitColumns = `id, user_id, category_id, monthly_limit_cents, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLimit(row rowScanner) (core.BudgetLimit, error) {
	var (
		l                    core.BudgetLimit
		createdAt, updatedAt string
	)
	if err := row.Scan(&l.ID, &l.UserID, &l.CategoryID, &l.MonthlyLimit.Cents, &createdAt, &updatedAt); err != nil {
		return core.BudgetLimit{}, err
	}
	var err error
	if l.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return core.BudgetLimit{}, err
	}
	if l.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return core.BudgetLimit{}, err
	}
	return l, nil
}

// GetLimit reports found=false when the user has no limit for the category.
func (q *Queries) GetLimit(ctx context.Context, userID, categoryID int64) (core.BudgetLimit, bool, error) {
	l, err := scanLimit(q.queryRow(ctx,
		`SELECT `+limitColumns+` FROM budget_limits WHERE user_id = ? AND category_id = ?`,
		userID, categoryID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.BudgetLimit{}, false, nil
	}
	if err != nil {
		return core.BudgetLimit{}, false, fmt.Errorf("get budget limit: %w", err)
	}
	return l, true, nil
}

// ListLimits returns the user's limits ordered by category id.
func (q *Queries) ListLimits(ctx context.Context, userID int64) ([]core.BudgetLimit, error) {
	rows, err := q.query(ctx,
		`SELECT `+limitColumns+` FROM budget_limits WHERE user_id = ? ORDER BY category_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budget limits: %w", err)
	}
	defer rows.Close()

	limits := []core.BudgetLimit{}
	for rows.Next() {
		l, err := scanLimit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget limit: %w", err)
		}
		limits = append(limits, l)
	}
	return limits, rows.Err()
}

// Expenses

func (q *Queries) CreateExpense(ctx context.Context, e core.Expense) (int64, error) {
	var id int64
	err := q.queryRow(ctx,
		`INSERT INTO expenses (user_id, category_id, amount_cents, description, expense_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 RETURNING id`,
		e.UserID, e.CategoryID, e.Amount.Cents, e.Description, e.Date.String(), q.timestamp(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	return id, nil
}

// ListExpenses returns the user's expenses newest first, joined with the
// category's display fields.
func (q *Queries) ListExpenses(ctx context.Context, userID int64) ([]core.ExpenseView, error) {
	rows, err := q.query(ctx,
		`SELECT e.id, e.user_id, e.category_id, e.amount_cents, e.description, e.expense_date, e.created_at,
		        c.name, c.icon
		 FROM expenses e
		 JOIN categories c ON c.id = e.category_id
		 WHERE e.user_id = ?
		 ORDER BY e.expense_date DESC, e.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	out := []core.ExpenseView{}
	for rows.Next() {
		var (
			v               core.ExpenseView
			date, createdAt string
		)
		if err := rows.Scan(&v.ID, &v.UserID, &v.CategoryID, &v.Amount.Cents, &v.Description, &date, &createdAt,
			&v.CategoryName, &v.CategoryIcon); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if v.Date, err = core.ParseDate(date); err != nil {
			return nil, err
		}
		if v.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// SumExpensesSince totals the user's spend in a category with
// expense_date >= since.
func (q *Queries) SumExpensesSince(ctx context.Context, userID, categoryID int64, since core.Date) (core.Money, error) {
	var cents int64
	err := q.queryRow(ctx,
		`SELECT CAST(COALESCE(SUM(amount_cents), 0) AS BIGINT)
		 FROM expenses
		 WHERE user_id = ? AND category_id = ? AND expense_date >= ?`,
		userID, categoryID, since.String(),
	).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum expenses: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

// Notifications

// HasNotificationSince reports whether a notification of type typ was sent
// for (user, category) at or after since.
func (q *Queries) HasNotificationSince(ctx context.Context, userID, categoryID int64, typ core.NotificationType, since time.Time) (bool, error) {
	var count int
	err := q.queryRow(ctx,
		`SELECT COUNT(*) FROM notifications
		 WHERE user_id = ? AND category_id = ? AND notification_type = ? AND sent_at >= ?`,
		userID, categoryID, string(typ), formatTimestamp(since),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check notifications: %w", err)
	}
	return count > 0, nil
}

// RecordNotification appends n. It returns false without error when a
// notification for the same (user, category, type, period) already exists.
func (q *Queries) RecordNotification(ctx context.Context, n core.Notification) (bool, error) {
	res, err := q.exec(ctx,
		`INSERT INTO notifications (user_id, category_id, notification_type, sent_at, period)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, category_id, notification_type, period) DO NOTHING`,
		n.UserID, n.CategoryID, string(n.Type), formatTimestamp(n.SentAt), n.Period)
	if err != nil {
		return false, fmt.Errorf("record notification: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record notification: %w", err)
	}
	return affected > 0, nil
}

// ListNotifications returns the user's notifications oldest first.
func (q *Queries) ListNotifications(ctx context.Context, userID int64) ([]core.Notification, error) {
	rows, err := q.query(ctx,
		`SELECT id, user_id, category_id, notification_type, sent_at, period
		 FROM notifications WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := []core.Notification{}
	for rows.Next() {
		var (
			n      core.Notification
			typ    string
			sentAt string
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.CategoryID, &typ, &sentAt, &n.Period); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Type = core.NotificationType(typ)
		if n.SentAt, err = parseTimestamp(sentAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
