package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// NotificationBudgetExceeded is the only notification type emitted today.
const NotificationBudgetExceeded NotificationType = "budget_exceeded"

type (
	NotificationType string

	User struct {
		ID                   int64
		Email                string
		Name                 string
		PasswordHash         string
		MonthlySavingsTarget Money
		CreatedAt            time.Time
	}

	// Category is fixed reference data, seeded once.
	Category struct {
		ID    int64
		Name  string
		Icon  string
		Color string
	}

	BudgetLimit struct {
		ID           int64
		UserID       int64
		CategoryID   int64
		MonthlyLimit Money
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}

	Expense struct {
		ID          int64
		UserID      int64
		CategoryID  int64
		Amount      Money
		Description string
		Date        Date
		CreatedAt   time.Time
	}

	// ExpenseView is an expense joined with the display fields of its category.
	ExpenseView struct {
		Expense
		CategoryName string
		CategoryIcon string
	}

	Notification struct {
		ID         int64
		UserID     int64
		CategoryID int64
		Type       NotificationType
		SentAt     time.Time
		Period     string // YYYY-MM, local month of SentAt
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidLimit       = errors.New("limit must not be negative")
	ErrDescriptionTooLong = errors.New("description too long (max 500 characters)")
	ErrEmptyName          = errors.New("empty name")
	ErrEmptyEmail         = errors.New("empty email")

	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrCategoryNotFound   = errors.New("category not found")
)

const maxDescriptionLen = 500

// NormalizeEmail is the canonical form used for uniqueness and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Email) == "" {
		return ErrEmptyEmail
	}
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	if u.MonthlySavingsTarget.IsNegative() || !u.MonthlySavingsTarget.InRange() {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	if !e.Amount.IsPositive() || !e.Amount.InRange() {
		return ErrInvalidAmount
	}
	if utf8.RuneCountInString(e.Description) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return nil
}

func (l BudgetLimit) Validate() error {
	if l.MonthlyLimit.IsNegative() {
		return ErrInvalidLimit
	}
	if !l.MonthlyLimit.InRange() {
		return ErrInvalidAmount
	}
	return nil
}

// DefaultCategories is the catalogue seeded into an empty categories table.
func DefaultCategories() []Category {
	return []Category{
		{Name: "Groceries", Icon: "🛒", Color: "#27ae60"},
		{Name: "Outside Food", Icon: "🍕", Color: "#e74c3c"},
		{Name: "Gas", Icon: "⛽", Color: "#f39c12"},
		{Name: "Rent", Icon: "🏠", Color: "#3498db"},
		{Name: "Lent Money", Icon: "🤝", Color: "#9b59b6"},
		{Name: "Additional", Icon: "💳", Color: "#34495e"},
	}
}
