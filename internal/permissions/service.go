package permissions

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/nivra-platform/nivra-core/internal/shared"
)

// Service handles permission catalog business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput carries the writable fields of a new permission.
type CreateInput struct {
	Name         string
	Description  string
	ResourceType shared.ResourceType
	Action       shared.Action
}

// UpdateInput carries the fields to change; nil pointers leave the stored
// value untouched.
type UpdateInput struct {
	Name         *string
	Description  *string
	ResourceType *shared.ResourceType
	Action       *shared.Action
}

// Create validates the vocabulary and inserts a new permission.
func (s *Service) Create(ctx context.Context, in CreateInput) (Permission, error) {
	p := Permission{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(in.Name),
		Description:  strings.TrimSpace(in.Description),
		ResourceType: in.ResourceType,
		Action:       in.Action,
	}
	if err := validatePermission(p); err != nil {
		return Permission{}, err
	}
	return s.repo.Create(ctx, p)
}

// Update applies partial changes to an existing permission.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (Permission, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Permission{}, err
	}
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.ResourceType != nil {
		p.ResourceType = *in.ResourceType
	}
	if in.Action != nil {
		p.Action = *in.Action
	}
	if err := validatePermission(p); err != nil {
		return Permission{}, err
	}
	return s.repo.Update(ctx, p)
}

// Delete removes a permission, stripping it from every role holding it.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// Get fetches a permission by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Permission, error) {
	return s.repo.Get(ctx, id)
}

// List returns the whole catalog.
func (s *Service) List(ctx context.Context) ([]Permission, error) {
	return s.repo.List(ctx)
}

func validatePermission(p Permission) error {
	verr := &shared.ValidationError{}
	if p.Name == "" {
		verr.Add("name", "is required")
	}
	if !p.ResourceType.Valid() {
		verr.Add("resource_type", "must be one of the recognized resource types")
	}
	if !p.Action.Valid() {
		verr.Add("action", "must be one of the recognized actions")
	}
	if !verr.Empty() {
		return verr
	}
	return nil
}
