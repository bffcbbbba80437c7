package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"budgetmaster/internal/budget"
	"budgetmaster/internal/core"
	"budgetmaster/internal/log"
)

type ExpenseStore interface {
	GetUser(ctx context.Context, id int64) (core.User, error)
	CreateExpense(ctx context.Context, e core.Expense) (int64, error)
	ListExpenses(ctx context.Context, userID int64) ([]core.ExpenseView, error)
}

type CategoryReader interface {
	ListCategories(ctx context.Context) ([]core.Category, error)
	GetCategory(ctx context.Context, id int64) (core.Category, error)
}

type BudgetEvaluator interface {
	Evaluate(ctx context.Context, userID, categoryID int64) (budget.Outcome, error)
	Status(ctx context.Context, userID int64) ([]core.BudgetStatus, error)
}

// ExpenseService records expenses and runs the budget check after each one.
type ExpenseService struct {
	store      ExpenseStore
	categories CategoryReader
	evaluator  BudgetEvaluator
	logger     *log.Logger
	structured *log.StructuredLogger
	now        func() time.Time
}

func NewExpenseService(store ExpenseStore, categories CategoryReader, evaluator BudgetEvaluator, logger *log.Logger) *ExpenseService {
	return &ExpenseService{
		store:      store,
		categories: categories,
		evaluator:  evaluator,
		logger:     logger.WithComponent(log.ComponentExpense),
		structured: log.NewStructuredLogger(logger),
		now:        time.Now,
	}
}

// CreateExpense validates and saves e, then evaluates the category's budget.
// A zero Date means today. Evaluation problems are logged, never returned:
// the expense is already saved.
func (s *ExpenseService) CreateExpense(ctx context.Context, e core.Expense) (int64, error) {
	if e.Date.IsZero() {
		e.Date = core.DateOf(s.now())
	}
	e.Description = strings.TrimSpace(e.Description)
	if err := e.Validate(); err != nil {
		return 0, err
	}

	if _, err := s.store.GetUser(ctx, e.UserID); err != nil {
		return 0, err
	}
	if _, err := s.categories.GetCategory(ctx, e.CategoryID); err != nil {
		return 0, err
	}

	id, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return 0, fmt.Errorf("save expense: %w", err)
	}
	s.structured.LogExpenseCreated(ctx, id, e.UserID, e.CategoryID, e.Amount.Cents)

	outcome, err := s.evaluator.Evaluate(ctx, e.UserID, e.CategoryID)
	if err != nil {
		s.structured.LogError(ctx, "Budget evaluation failed", err, log.ComponentBudget, log.OpEvaluate,
			log.NewFields().WithUserCategory(e.UserID, e.CategoryID))
		return id, nil
	}
	s.logger.DebugContext(ctx, "Budget evaluated", log.FieldExpenseID, id, "outcome", outcome.String())

	return id, nil
}

// ListExpenses returns the user's expenses newest first. Unknown users
// simply have none.
func (s *ExpenseService) ListExpenses(ctx context.Context, userID int64) ([]core.ExpenseView, error) {
	return s.store.ListExpenses(ctx, userID)
}

func (s *ExpenseService) ListCategories(ctx context.Context) ([]core.Category, error) {
	return s.categories.ListCategories(ctx)
}
