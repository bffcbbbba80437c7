package services

import (
	"context"

	"budgetmaster/internal/core"
	"budgetmaster/internal/log"
	"budgetmaster/internal/storage"
)

type TxRunner interface {
	WithTx(ctx context.Context, fn func(q *storage.Queries) error) error
}

type LimitInput struct {
	CategoryID int64
	Amount     core.Money
}

// BudgetService maintains a user's savings target and category limits.
type BudgetService struct {
	tx        TxRunner
	evaluator BudgetEvaluator
	logger    *log.Logger
}

func NewBudgetService(tx TxRunner, evaluator BudgetEvaluator, logger *log.Logger) *BudgetService {
	return &BudgetService{
		tx:        tx,
		evaluator: evaluator,
		logger:    logger.WithComponent(log.ComponentBudget),
	}
}

// SetLimits replaces the savings target and upserts every limit in one
// transaction. Either everything is written or nothing is.
func (s *BudgetService) SetLimits(ctx context.Context, userID int64, savingsTarget core.Money, limits []LimitInput) error {
	if savingsTarget.IsNegative() || !savingsTarget.InRange() {
		return core.ErrInvalidAmount
	}
	for _, l := range limits {
		if err := (core.BudgetLimit{MonthlyLimit: l.Amount}).Validate(); err != nil {
			return err
		}
	}

	err := s.tx.WithTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetUser(ctx, userID); err != nil {
			return err
		}
		for _, l := range limits {
			if _, err := q.GetCategory(ctx, l.CategoryID); err != nil {
				return err
			}
		}

		if err := q.UpdateSavingsTarget(ctx, userID, savingsTarget); err != nil {
			return err
		}
		for _, l := range limits {
			if err := q.UpsertLimit(ctx, userID, l.CategoryID, l.Amount); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Budget limits updated",
		log.FieldUserID, userID,
		log.FieldOperation, log.OpUpdate,
		"limits", len(limits))
	return nil
}

// Status returns the user's current-month budget report.
func (s *BudgetService) Status(ctx context.Context, userID int64) ([]core.BudgetStatus, error) {
	return s.evaluator.Status(ctx, userID)
}
