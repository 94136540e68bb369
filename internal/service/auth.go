package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/coffee_shop/internal/models"
	"github.com/Skotchmaster/coffee_shop/internal/mykafka"
	"github.com/Skotchmaster/coffee_shop/internal/repo"
	"github.com/Skotchmaster/coffee_shop/internal/transport"
	pkg_hash "github.com/Skotchmaster/coffee_shop/pkg/hash"
	"github.com/Skotchmaster/coffee_shop/pkg/logging"
	"github.com/Skotchmaster/coffee_shop/pkg/tokens"
)

type AuthService struct {
	Repo      *repo.GormRepo
	JWTSecret []byte
	TokenTTL  time.Duration
	Events    EventPublisher
	Now       func() time.Time
}

type AuthResult struct {
	Account   *models.Account
	Token     string
	ExpiresAt time.Time
}

func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register", "username", req.Username)

	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if username == "" || email == "" {
		return nil, fmt.Errorf("%w: user_name and email are required", ErrValidation)
	}
	if len(req.Password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", ErrValidation)
	}

	userTaken, emailTaken, err := s.Repo.Taken(ctx, username, email)
	if err != nil {
		return nil, fmt.Errorf("check account: %w", err)
	}
	if userTaken {
		return nil, ErrUsernameTaken
	}
	if emailTaken {
		return nil, ErrEmailTaken
	}

	pwHash, err := pkg_hash.HashPassword(req.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		fullName = username
	}
	acc := &models.Account{
		Username:     username,
		Email:        email,
		PasswordHash: pwHash,
		FullName:     fullName,
		PhoneNumber:  strings.TrimSpace(req.PhoneNumber),
		Address:      strings.TrimSpace(req.Address),
		Role:         tokens.RoleUser,
	}
	if err := s.Repo.CreateAccount(ctx, acc); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			// lost a race with a concurrent registration
			return nil, fmt.Errorf("register: %w", ErrConflict)
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	res, err := s.issue(acc)
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, mykafka.TopicAccounts, acc.Username,
		mykafka.NewEvent("account_registered", acc.Username, map[string]any{"email": acc.Email}))
	l.Info("register_success")
	return res, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	acc, err := s.Repo.GetAccount(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("login_failed", "status", 401, "reason", "unknown user")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	if !pkg_hash.CheckPassword(acc.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "wrong password")
		return nil, ErrInvalidCredentials
	}

	return s.issue(acc)
}

func (s *AuthService) issue(acc *models.Account) (*AuthResult, error) {
	ttl := s.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	token, exp, err := tokens.Issue(acc.Username, acc.Role, s.JWTSecret, ttl, clock(s.Now))
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{Account: acc, Token: token, ExpiresAt: exp}, nil
}
