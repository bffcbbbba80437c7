package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"budgetmaster/internal/core"
	"budgetmaster/internal/log"
)

type fakeUserStore struct {
	users map[string]core.User
	next  int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]core.User{}}
}

func (f *fakeUserStore) CreateUser(_ context.Context, u core.User) (int64, error) {
	if _, ok := f.users[u.Email]; ok {
		return 0, core.ErrEmailTaken
	}
	f.next++
	u.ID = f.next
	f.users[u.Email] = u
	return u.ID, nil
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	u, ok := f.users[core.NormalizeEmail(email)]
	if !ok {
		return core.User{}, core.ErrUserNotFound
	}
	return u, nil
}

// plainHasher prefixes instead of hashing so tests stay fast.
type plainHasher struct{}

func (plainHasher) Hash(pw string) (string, error) { return "hashed:" + pw, nil }

func (plainHasher) Verify(hash, pw string) error {
	if hash != "hashed:"+pw {
		return errors.New("mismatch")
	}
	return nil
}

type fakeTokens struct{}

func (fakeTokens) GenerateToken(id int64) (string, error) { return "token-" + strconv.FormatInt(id, 10), nil }

func TestAccountService_Register(t *testing.T) {
	store := newFakeUserStore()
	svc := NewAccountService(store, plainHasher{}, fakeTokens{}, log.Discard())

	sess, err := svc.Register(context.Background(), RegisterInput{
		Email: " Jane@Example.com ", Name: " Jane ", Password: "pw", SavingsTarget: core.Money{Cents: 20000},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if sess.User.ID != 1 || sess.Token != "token-1" {
		t.Fatalf("unexpected session %+v", sess)
	}

	stored := store.users["jane@example.com"]
	if stored.Name != "Jane" || stored.PasswordHash != "hashed:pw" || stored.MonthlySavingsTarget.Cents != 20000 {
		t.Errorf("unexpected stored user %+v", stored)
	}
}

func TestAccountService_RegisterDuplicate(t *testing.T) {
	store := newFakeUserStore()
	svc := NewAccountService(store, plainHasher{}, fakeTokens{}, log.Discard())
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Name: "A", Password: "pw"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(ctx, RegisterInput{Email: "A@example.com", Name: "B", Password: "pw2"})
	if !errors.Is(err, core.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if len(store.users) != 1 {
		t.Fatalf("user count changed: %d", len(store.users))
	}
}

func TestAccountService_RegisterValidation(t *testing.T) {
	svc := NewAccountService(newFakeUserStore(), plainHasher{}, fakeTokens{}, log.Discard())
	ctx := context.Background()

	tests := []struct {
		name string
		in   RegisterInput
		want error
	}{
		{"empty email", RegisterInput{Email: " ", Name: "A", Password: "pw"}, core.ErrEmptyEmail},
		{"empty name", RegisterInput{Email: "a@b.c", Name: "  ", Password: "pw"}, core.ErrEmptyName},
		{"negative target", RegisterInput{Email: "a@b.c", Name: "A", Password: "pw", SavingsTarget: core.Money{Cents: -1}}, core.ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAccountService_LoginUniformFailure(t *testing.T) {
	store := newFakeUserStore()
	svc := NewAccountService(store, plainHasher{}, fakeTokens{}, log.Discard())
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Name: "A", Password: "right"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	sess, err := svc.Login(ctx, "A@EXAMPLE.com", "right")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.User.Email != "a@example.com" || !strings.HasPrefix(sess.Token, "token-") {
		t.Errorf("unexpected session %+v", sess)
	}

	_, wrongPw := svc.Login(ctx, "a@example.com", "wrong")
	_, unknown := svc.Login(ctx, "nobody@example.com", "right")
	if !errors.Is(wrongPw, core.ErrInvalidCredentials) || !errors.Is(unknown, core.ErrInvalidCredentials) {
		t.Fatalf("expected uniform ErrInvalidCredentials, got %v and %v", wrongPw, unknown)
	}
	if wrongPw.Error() != unknown.Error() {
		t.Fatalf("failure messages differ: %q vs %q", wrongPw, unknown)
	}
}
