package service

import (
	"context"
	"strings"

	appErrors "github.com/unclebandit/opsboard-backend/internal/errors"
	"github.com/unclebandit/opsboard-backend/internal/model"
	"github.com/unclebandit/opsboard-backend/internal/repository"
)

type EntityService struct {
	Repo repository.EntityRepositoryInterface
}

func (s *EntityService) List(ctx context.Context) ([]*model.Entity, error) {
	return s.Repo.List(ctx)
}

func (s *EntityService) Get(ctx context.Context, id int) (*model.Entity, error) {
	return s.Repo.GetByID(ctx, id)
}

// Create adds an entity. Names are unique.
func (s *EntityService) Create(ctx context.Context, name string) (*model.Entity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErrors.NewValidation("name", "is required")
	}
	e := &model.Entity{Name: name}
	if err := s.Repo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *EntityService) Rename(ctx context.Context, id int, name string) (*model.Entity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErrors.NewValidation("name", "is required")
	}
	if err := s.Repo.Rename(ctx, id, name); err != nil {
		return nil, err
	}
	return s.Repo.GetByID(ctx, id)
}
