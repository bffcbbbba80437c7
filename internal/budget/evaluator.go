// Package budget evaluates month-to-date spending against per-category
// limits and decides when a user is alerted.
package budget

import (
	"context"
	"fmt"
	"time"

	"budgetmaster/internal/core"
	"budgetmaster/internal/log"
)

type Store interface {
	GetUser(ctx context.Context, id int64) (core.User, error)
	GetLimit(ctx context.Context, userID, categoryID int64) (core.BudgetLimit, bool, error)
	ListLimits(ctx context.Context, userID int64) ([]core.BudgetLimit, error)
	SumExpensesSince(ctx context.Context, userID, categoryID int64, since core.Date) (core.Money, error)
	HasNotificationSince(ctx context.Context, userID, categoryID int64, typ core.NotificationType, since time.Time) (bool, error)
}

type CategoryReader interface {
	GetCategory(ctx context.Context, id int64) (core.Category, error)
}

type Notifier interface {
	Notify(ctx context.Context, alert core.Alert) bool
}

// Outcome says how an evaluation ended.
type Outcome int

const (
	NoLimit Outcome = iota
	UnderLimit
	AlreadyNotified
	Notified
	NotifyFailed
)

func (o Outcome) String() string {
	switch o {
	case NoLimit:
		return "no_limit"
	case UnderLimit:
		return "under_limit"
	case AlreadyNotified:
		return "already_notified"
	case Notified:
		return "notified"
	case NotifyFailed:
		return "notify_failed"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

type Evaluator struct {
	store      Store
	categories CategoryReader
	notifier   Notifier
	logger     *log.Logger
	now        func() time.Time
	locks      keyedMutex
}

type Option func(*Evaluator)

// WithClock replaces time.Now. The clock's location decides where month
// boundaries fall.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) { e.now = now }
}

func NewEvaluator(store Store, categories CategoryReader, notifier Notifier, logger *log.Logger, opts ...Option) *Evaluator {
	e := &Evaluator{
		store:      store,
		categories: categories,
		notifier:   notifier,
		logger:     logger.WithComponent(log.ComponentBudget),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate checks the user's month-to-date spend in a category against its
// limit and notifies at most once per calendar month. Concurrent calls for
// the same (user, category) run one at a time.
func (e *Evaluator) Evaluate(ctx context.Context, userID, categoryID int64) (Outcome, error) {
	unlock := e.locks.Lock(fmt.Sprintf("%d:%d", userID, categoryID))
	defer unlock()

	fields := log.NewFields().WithUserCategory(userID, categoryID).WithOperation(log.OpEvaluate)

	limit, found, err := e.store.GetLimit(ctx, userID, categoryID)
	if err != nil {
		return NoLimit, err
	}
	if !found {
		return NoLimit, nil
	}

	window := core.CurrentMonth(e.now())

	spent, err := e.store.SumExpensesSince(ctx, userID, categoryID, window.Start)
	if err != nil {
		return UnderLimit, err
	}
	fields = fields.WithBudget(limit.MonthlyLimit.Cents, spent.Cents)

	if !spent.GreaterOrEqual(limit.MonthlyLimit) {
		e.logger.DebugContext(ctx, "Spend under limit", fields.ToSlice()...)
		return UnderLimit, nil
	}

	notified, err := e.store.HasNotificationSince(ctx, userID, categoryID, core.NotificationBudgetExceeded, window.Since)
	if err != nil {
		return AlreadyNotified, err
	}
	if notified {
		e.logger.DebugContext(ctx, "Limit reached, already notified this month", fields.ToSlice()...)
		return AlreadyNotified, nil
	}

	user, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return NotifyFailed, fmt.Errorf("load user: %w", err)
	}
	cat, err := e.categories.GetCategory(ctx, categoryID)
	if err != nil {
		return NotifyFailed, fmt.Errorf("load category: %w", err)
	}

	e.logger.InfoContext(ctx, "Budget limit reached", fields.ToSlice()...)

	if !e.notifier.Notify(ctx, core.Alert{User: user, Category: cat, Limit: limit.MonthlyLimit, Spent: spent}) {
		return NotifyFailed, nil
	}
	return Notified, nil
}

// Status reports every limit the user has set, ordered by category id, with
// the current month's spend. It never notifies.
func (e *Evaluator) Status(ctx context.Context, userID int64) ([]core.BudgetStatus, error) {
	limits, err := e.store.ListLimits(ctx, userID)
	if err != nil {
		return nil, err
	}

	window := core.CurrentMonth(e.now())
	out := make([]core.BudgetStatus, 0, len(limits))
	for _, l := range limits {
		cat, err := e.categories.GetCategory(ctx, l.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("load category %d: %w", l.CategoryID, err)
		}
		spent, err := e.store.SumExpensesSince(ctx, userID, l.CategoryID, window.Start)
		if err != nil {
			return nil, err
		}
		out = append(out, core.NewBudgetStatus(cat, l.MonthlyLimit, spent))
	}
	return out, nil
}
