package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"budgetmaster/internal/config"
	"budgetmaster/internal/core"
	"budgetmaster/internal/log"
	"budgetmaster/internal/storage"
)

func openStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open(context.Background(),
		config.Database{Dialect: config.DialectSQLite, DSN: filepath.Join(t.TempDir(), "budget.db")}, log.Discard())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBudgetService_SetLimits(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	uid, err := store.CreateUser(ctx, core.User{Email: "a@example.com", Name: "A", PasswordHash: "x", MonthlySavingsTarget: core.Money{Cents: 5000}})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	svc := NewBudgetService(store, &fakeEvaluator{}, log.Discard())

	err = svc.SetLimits(ctx, uid, core.Money{Cents: 30000}, []LimitInput{
		{CategoryID: 1, Amount: core.Money{Cents: 10000}},
		{CategoryID: 2, Amount: core.Money{Cents: 0}},
	})
	if err != nil {
		t.Fatalf("set limits: %v", err)
	}

	// second call replaces, omitted target resets to zero
	if err := svc.SetLimits(ctx, uid, core.Money{}, []LimitInput{{CategoryID: 1, Amount: core.Money{Cents: 12000}}}); err != nil {
		t.Fatalf("set limits again: %v", err)
	}

	u, _ := store.GetUser(ctx, uid)
	if u.MonthlySavingsTarget.Cents != 0 {
		t.Errorf("savings target = %d", u.MonthlySavingsTarget.Cents)
	}
	limits, _ := store.ListLimits(ctx, uid)
	if len(limits) != 2 || limits[0].MonthlyLimit.Cents != 12000 {
		t.Fatalf("unexpected limits %+v", limits)
	}
}

func TestBudgetService_SetLimitsIsAtomic(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	uid, _ := store.CreateUser(ctx, core.User{Email: "a@example.com", Name: "A", PasswordHash: "x"})
	svc := NewBudgetService(store, &fakeEvaluator{}, log.Discard())

	err := svc.SetLimits(ctx, uid, core.Money{Cents: 100}, []LimitInput{
		{CategoryID: 1, Amount: core.Money{Cents: 10000}},
		{CategoryID: 99, Amount: core.Money{Cents: 10000}},
	})
	if !errors.Is(err, core.ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}

	u, _ := store.GetUser(ctx, uid)
	limits, _ := store.ListLimits(ctx, uid)
	if u.MonthlySavingsTarget.Cents != 0 || len(limits) != 0 {
		t.Fatalf("partial write: target=%d limits=%d", u.MonthlySavingsTarget.Cents, len(limits))
	}
}

func TestBudgetService_SetLimitsRejects(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	uid, _ := store.CreateUser(ctx, core.User{Email: "a@example.com", Name: "A", PasswordHash: "x"})
	svc := NewBudgetService(store, &fakeEvaluator{}, log.Discard())

	if err := svc.SetLimits(ctx, 999, core.Money{}, nil); !errors.Is(err, core.ErrUserNotFound) {
		t.Errorf("unknown user: %v", err)
	}
	if err := svc.SetLimits(ctx, uid, core.Money{}, []LimitInput{{CategoryID: 1, Amount: core.Money{Cents: -1}}}); !errors.Is(err, core.ErrInvalidLimit) {
		t.Errorf("negative limit: %v", err)
	}
	if err := svc.SetLimits(ctx, uid, core.Money{Cents: -1}, nil); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("negative target: %v", err)
	}
}
