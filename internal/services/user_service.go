package services

import (
	"context"
	"errors"
	"strings"

	"devcatalyst/portal/internal/models"
	"devcatalyst/portal/internal/repositories"
)

// UserService is the read-only view of the roster.
type UserService interface {
	List(ctx context.Context, actor models.Actor, role models.Role) ([]models.User, error)
	Get(ctx context.Context, actor models.Actor, name string) (*models.User, error)
}

type UserServiceImpl struct {
	users repositories.UserRepository
	gate  AuthorizationService
}

func NewUserService(users repositories.UserRepository, gate AuthorizationService) *UserServiceImpl {
	return &UserServiceImpl{users: users, gate: gate}
}

// List returns users ordered by name, optionally only those holding role.
func (s *UserServiceImpl) List(ctx context.Context, actor models.Actor, role models.Role) ([]models.User, error) {
	if err := s.gate.Authorize(ctx, actor, models.OpReadUsers); err != nil {
		return nil, err
	}

	filters := repositories.Filters{}
	if role != "" {
		if !role.IsValid() {
			return nil, ValidationError("unknown role %q", role)
		}
		filters["role"] = role
	}
	return s.users.Select(ctx, filters)
}

func (s *UserServiceImpl) Get(ctx context.Context, actor models.Actor, name string) (*models.User, error) {
	if err := s.gate.Authorize(ctx, actor, models.OpReadUsers); err != nil {
		return nil, err
	}
	user, err := s.users.FindByName(ctx, strings.TrimSpace(name))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, NotFoundError("user %s not found", name)
	}
	return user, err
}
