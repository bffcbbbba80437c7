package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"budgetmaster/internal/core"
	"budgetmaster/internal/log"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) error
}

type TokenIssuer interface {
	GenerateToken(userID int64) (string, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, u core.User) (int64, error)
	GetUserByEmail(ctx context.Context, email string) (core.User, error)
}

// AccountService registers users and checks their credentials.
type AccountService struct {
	users  UserStore
	hasher PasswordHasher
	tokens TokenIssuer
	logger *log.Logger
}

func NewAccountService(users UserStore, hasher PasswordHasher, tokens TokenIssuer, logger *log.Logger) *AccountService {
	return &AccountService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: logger.WithComponent(log.ComponentAccount),
	}
}

type RegisterInput struct {
	Email         string
	Name          string
	Password      string
	SavingsTarget core.Money
}

// Session is an authenticated user plus the token proving it.
type Session struct {
	User  core.User
	Token string
}

// Register creates a user. core.ErrEmailTaken is returned for a duplicate
// email and nothing is written.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (Session, error) {
	u := core.User{
		Email:                core.NormalizeEmail(in.Email),
		Name:                 strings.TrimSpace(in.Name),
		MonthlySavingsTarget: in.SavingsTarget,
	}
	if err := u.Validate(); err != nil {
		return Session{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return Session{}, err
	}
	u.PasswordHash = hash

	id, err := s.users.CreateUser(ctx, u)
	if err != nil {
		return Session{}, err
	}
	u.ID = id

	s.logger.InfoContext(ctx, "User registered", log.FieldUserID, id, log.FieldOperation, log.OpCreate)
	return s.session(u)
}

// Login returns core.ErrInvalidCredentials for both an unknown email and a
// wrong password.
func (s *AccountService) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, core.ErrUserNotFound) {
		return Session{}, core.ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}

	if err := s.hasher.Verify(u.PasswordHash, password); err != nil {
		s.logger.DebugContext(ctx, "Password verification failed", log.FieldUserID, u.ID, log.FieldError, err)
		return Session{}, core.ErrInvalidCredentials
	}

	return s.session(u)
}

func (s *AccountService) session(u core.User) (Session, error) {
	token, err := s.tokens.GenerateToken(u.ID)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{User: u, Token: token}, nil
}
