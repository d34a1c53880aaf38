package user

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type Service struct {
	repo  Repository
	newID func() string
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, newID: uuid.NewString}
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// Create validates the trimmed input and stores it under a fresh id.
// Any id supplied by the caller is ignored.
func (s *Service) Create(ctx context.Context, input User) (User, error) {
	user := Normalize(input)
	if err := Validate(user); err != nil {
		return User{}, err
	}

	user.ID = s.newID()
	return s.repo.Create(ctx, user)
}

func (s *Service) Update(ctx context.Context, id string, patch Patch) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, ErrNotFound
	}

	patch = NormalizePatch(patch)
	if err := ValidatePatch(patch); err != nil {
		return User{}, err
	}

	return s.repo.Update(ctx, id, patch)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}
