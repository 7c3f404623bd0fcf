package roles

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/nivra-platform/nivra-core/internal/permissions"
	"github.com/nivra-platform/nivra-core/internal/shared"
)

// Service handles role registry business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput carries the writable fields of a new role.
type CreateInput struct {
	Name          string
	Description   string
	PermissionIDs []uuid.UUID
}

// UpdateInput carries name/description changes; the permission set is
// managed separately through SetPermissions.
type UpdateInput struct {
	Name        *string
	Description *string
}

// Create inserts a new role with an optional initial permission set.
func (s *Service) Create(ctx context.Context, in CreateInput) (Role, error) {
	role := Role{
		ID:            uuid.New(),
		Name:          strings.TrimSpace(in.Name),
		Description:   strings.TrimSpace(in.Description),
		PermissionIDs: dedupe(in.PermissionIDs),
	}
	if role.Name == "" {
		return Role{}, shared.NewValidationError("name", "is required")
	}
	return s.repo.Create(ctx, role)
}

// Update changes name and/or description.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (Role, error) {
	role, err := s.repo.Get(ctx, id)
	if err != nil {
		return Role{}, err
	}
	if in.Name != nil {
		role.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		role.Description = strings.TrimSpace(*in.Description)
	}
	if role.Name == "" {
		return Role{}, shared.NewValidationError("name", "is required")
	}
	return s.repo.Update(ctx, role)
}

// SetPermissions replaces the role's permission set. The whole set is
// validated and applied atomically; partial application is forbidden.
func (s *Service) SetPermissions(ctx context.Context, id uuid.UUID, permissionIDs []uuid.UUID) (Role, error) {
	return s.repo.SetPermissions(ctx, id, dedupe(permissionIDs))
}

// Delete removes a role. Roles still assigned to users are refused.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// Get fetches a role by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Role, error) {
	return s.repo.Get(ctx, id)
}

// List returns all roles.
func (s *Service) List(ctx context.Context) ([]Role, error) {
	return s.repo.List(ctx)
}

// ListPermissions resolves the role's permission set to full records.
func (s *Service) ListPermissions(ctx context.Context, id uuid.UUID) ([]permissions.Permission, error) {
	return s.repo.ListPermissions(ctx, id)
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
