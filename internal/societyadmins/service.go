package societyadmins

import (
	"context"

	"github.com/google/uuid"
)

// Service handles society-admin binding business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput carries the fields of a new binding.
type CreateInput struct {
	UserID         uuid.UUID
	SocietyID      uuid.UUID
	IsPrimaryAdmin bool
}

// Create binds a user as admin of a society. Promoting a new primary admin
// demotes the current one atomically.
func (s *Service) Create(ctx context.Context, in CreateInput) (Binding, error) {
	return s.repo.Create(ctx, Binding{
		ID:             uuid.New(),
		UserID:         in.UserID,
		SocietyID:      in.SocietyID,
		IsPrimaryAdmin: in.IsPrimaryAdmin,
	})
}

// SetPrimary flips the primary flag of an existing binding.
func (s *Service) SetPrimary(ctx context.Context, id uuid.UUID, isPrimary bool) (Binding, error) {
	return s.repo.Update(ctx, id, isPrimary)
}

// Delete removes a binding.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// Get fetches a binding by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Binding, error) {
	return s.repo.Get(ctx, id)
}

// List returns bindings, optionally filtered by user or society.
func (s *Service) List(ctx context.Context, userID, societyID *uuid.UUID) ([]Binding, error) {
	switch {
	case userID != nil:
		return s.repo.ListByUser(ctx, *userID)
	case societyID != nil:
		return s.repo.ListBySociety(ctx, *societyID)
	default:
		return s.repo.List(ctx)
	}
}
