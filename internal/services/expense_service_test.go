package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"budgetmaster/internal/budget"
	"budgetmaster/internal/core"
	"budgetmaster/internal/log"
)

type fakeExpenseStore struct {
	users    map[int64]core.User
	expenses []core.Expense
	err      error
}

func (f *fakeExpenseStore) GetUser(_ context.Context, id int64) (core.User, error) {
	u, ok := f.users[id]
	if !ok {
		return core.User{}, core.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeExpenseStore) CreateExpense(_ context.Context, e core.Expense) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.expenses = append(f.expenses, e)
	return int64(len(f.expenses)), nil
}

func (f *fakeExpenseStore) ListExpenses(_ context.Context, userID int64) ([]core.ExpenseView, error) {
	out := []core.ExpenseView{}
	for _, e := range f.expenses {
		if e.UserID == userID {
			out = append(out, core.ExpenseView{Expense: e})
		}
	}
	return out, nil
}

type fakeCategories struct{}

func (fakeCategories) ListCategories(context.Context) ([]core.Category, error) {
	return []core.Category{{ID: 1, Name: "Groceries"}}, nil
}

func (fakeCategories) GetCategory(_ context.Context, id int64) (core.Category, error) {
	if id != 1 {
		return core.Category{}, core.ErrCategoryNotFound
	}
	return core.Category{ID: 1, Name: "Groceries"}, nil
}

type fakeEvaluator struct {
	calls []int64
	err   error
}

func (f *fakeEvaluator) Evaluate(_ context.Context, userID, categoryID int64) (budget.Outcome, error) {
	f.calls = append(f.calls, categoryID)
	return budget.UnderLimit, f.err
}

func (f *fakeEvaluator) Status(context.Context, int64) ([]core.BudgetStatus, error) {
	return nil, nil
}

func newExpenseService(store *fakeExpenseStore, eval *fakeEvaluator) *ExpenseService {
	svc := NewExpenseService(store, fakeCategories{}, eval, log.Discard())
	svc.now = func() time.Time { return time.Date(2026, time.October, 15, 23, 30, 0, 0, time.UTC) }
	return svc
}

func TestExpenseService_CreateDefaultsDateAndEvaluates(t *testing.T) {
	store := &fakeExpenseStore{users: map[int64]core.User{7: {ID: 7}}}
	eval := &fakeEvaluator{}
	svc := newExpenseService(store, eval)

	id, err := svc.CreateExpense(context.Background(), core.Expense{UserID: 7, CategoryID: 1, Amount: core.Money{Cents: 4500}, Description: "  milk "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id != 1 {
		t.Fatalf("id = %d", id)
	}
	saved := store.expenses[0]
	if saved.Date.String() != "2026-10-15" {
		t.Errorf("default date = %s", saved.Date)
	}
	if saved.Description != "milk" {
		t.Errorf("description = %q", saved.Description)
	}
	if len(eval.calls) != 1 || eval.calls[0] != 1 {
		t.Errorf("evaluator calls = %v", eval.calls)
	}
}

func TestExpenseService_EvaluationErrorDoesNotFail(t *testing.T) {
	store := &fakeExpenseStore{users: map[int64]core.User{7: {ID: 7}}}
	svc := newExpenseService(store, &fakeEvaluator{err: errors.New("db busy")})

	id, err := svc.CreateExpense(context.Background(), core.Expense{UserID: 7, CategoryID: 1, Amount: core.Money{Cents: 100}})
	if err != nil || id == 0 {
		t.Fatalf("expense must be saved despite evaluation error: id=%d err=%v", id, err)
	}
}

func TestExpenseService_CreateRejects(t *testing.T) {
	day := core.NewDate(2026, time.October, 1)
	tests := []struct {
		name string
		in   core.Expense
		want error
	}{
		{"zero amount", core.Expense{UserID: 7, CategoryID: 1, Date: day}, core.ErrInvalidAmount},
		{"negative amount", core.Expense{UserID: 7, CategoryID: 1, Amount: core.Money{Cents: -100}, Date: day}, core.ErrInvalidAmount},
		{"unknown user", core.Expense{UserID: 99, CategoryID: 1, Amount: core.Money{Cents: 100}, Date: day}, core.ErrUserNotFound},
		{"unknown category", core.Expense{UserID: 7, CategoryID: 42, Amount: core.Money{Cents: 100}, Date: day}, core.ErrCategoryNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeExpenseStore{users: map[int64]core.User{7: {ID: 7}}}
			eval := &fakeEvaluator{}
			svc := newExpenseService(store, eval)

			if _, err := svc.CreateExpense(context.Background(), tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			if len(store.expenses) != 0 || len(eval.calls) != 0 {
				t.Fatal("rejected expense must not be saved or evaluated")
			}
		})
	}
}
