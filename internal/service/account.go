package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/coffee_shop/internal/models"
	"github.com/Skotchmaster/coffee_shop/internal/repo"
	"github.com/Skotchmaster/coffee_shop/internal/transport"
)

type AccountService struct {
	Repo *repo.GormRepo
}

func (s *AccountService) GetProfile(ctx context.Context, actor Actor) (*models.Account, error) {
	acc, err := s.Repo.GetAccount(ctx, actor.Username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return acc, nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, actor Actor, req transport.UpdateAccountRequest) (*models.Account, error) {
	fields := map[string]any{}
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			return nil, fmt.Errorf("%w: full_name cannot be empty", ErrValidation)
		}
		fields["full_name"] = name
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email == "" {
			return nil, fmt.Errorf("%w: email cannot be empty", ErrValidation)
		}
		taken, err := s.Repo.EmailTakenByOther(ctx, email, actor.Username)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrEmailTaken
		}
		fields["email"] = email
	}
	if req.PhoneNumber != nil {
		fields["phone_number"] = strings.TrimSpace(*req.PhoneNumber)
	}
	if req.Address != nil {
		fields["address"] = strings.TrimSpace(*req.Address)
	}

	acc, err := s.Repo.UpdateAccount(ctx, actor.Username, fields)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return nil, ErrAccountNotFound
		case errors.Is(err, repo.ErrDuplicate):
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("update account: %w", err)
	}
	return acc, nil
}
