package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"festivalrisk/internal/auth"
	"festivalrisk/internal/models"
	"festivalrisk/internal/store"
)

var (
	// ErrDisabled is returned for a valid session of a disabled account.
	ErrDisabled = errors.New("account disabled")
	// ErrUnauthorized covers missing, invalid and stale sessions.
	ErrUnauthorized = errors.New("unauthorized")
)

// Store describes the persistence operations required by the user service.
type Store interface {
	CreateUser(ctx context.Context, in store.NewUser) (models.User, error)
	UserByUsername(ctx context.Context, username string) (models.User, error)
	Authenticate(ctx context.Context, username, password string) (models.User, error)
}

// Tokens signs and verifies session tokens.
type Tokens interface {
	Issue(u models.User) (string, time.Time, error)
	Verify(raw string) (auth.Session, error)
}

// Service exposes login, session checks and account bootstrap.
type Service interface {
	Login(ctx context.Context, username, password string) (Login, error)
	Session(ctx context.Context, token string) (models.User, error)
	Ensure(ctx context.Context, in store.NewUser) (bool, error)
}

// Login is the result of a successful sign-in.
type Login struct {
	User      models.User
	Token     string
	ExpiresAt time.Time
}

type service struct {
	store  Store
	tokens Tokens
}

// New wires a Service backed by the provided Store and token manager.
func New(store Store, tokens Tokens) Service {
	return &service{store: store, tokens: tokens}
}

func (s *service) Login(ctx context.Context, username, password string) (Login, error) {
	if err := ctx.Err(); err != nil {
		return Login{}, err
	}
	u, err := s.store.Authenticate(ctx, username, password)
	if err != nil {
		return Login{}, err
	}
	if u.Disabled {
		return Login{}, ErrDisabled
	}
	token, exp, err := s.tokens.Issue(u)
	if err != nil {
		return Login{}, err
	}
	return Login{User: u, Token: token, ExpiresAt: exp}, nil
}

// Session resolves a token to its user. The role carried by the token must
// still match the stored role.
func (s *service) Session(ctx context.Context, token string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	if token == "" {
		return models.User{}, ErrUnauthorized
	}
	sess, err := s.tokens.Verify(token)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	u, err := s.store.UserByUsername(ctx, sess.Username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return models.User{}, ErrUnauthorized
		}
		return models.User{}, err
	}
	if u.Role != sess.Role {
		return models.User{}, fmt.Errorf("%w: role changed", ErrUnauthorized)
	}
	if u.Disabled {
		return u, ErrDisabled
	}
	return u, nil
}

// Ensure creates the account unless the username is taken. It reports
// whether a user was created.
func (s *service) Ensure(ctx context.Context, in store.NewUser) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if _, err := s.store.CreateUser(ctx, in); err != nil {
		if errors.Is(err, store.ErrUserExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
