package societies

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/nivra-platform/nivra-core/internal/shared"
)

// Service handles society registry business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput carries the writable fields of a new society.
type CreateInput struct {
	Name       string
	City       string
	State      string
	TotalUnits int
	IsActive   *bool
}

// UpdateInput carries partial changes.
type UpdateInput struct {
	Name       *string
	City       *string
	State      *string
	TotalUnits *int
	IsActive   *bool
}

// Create validates and inserts a new society.
func (s *Service) Create(ctx context.Context, in CreateInput) (Society, error) {
	soc := Society{
		ID:         uuid.New(),
		Name:       strings.TrimSpace(in.Name),
		City:       strings.TrimSpace(in.City),
		State:      strings.TrimSpace(in.State),
		TotalUnits: in.TotalUnits,
		IsActive:   true,
	}
	if in.IsActive != nil {
		soc.IsActive = *in.IsActive
	}
	if err := validateSociety(soc); err != nil {
		return Society{}, err
	}
	return s.repo.Create(ctx, soc)
}

// Update applies partial changes to an existing society.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (Society, error) {
	soc, err := s.repo.Get(ctx, id)
	if err != nil {
		return Society{}, err
	}
	if in.Name != nil {
		soc.Name = strings.TrimSpace(*in.Name)
	}
	if in.City != nil {
		soc.City = strings.TrimSpace(*in.City)
	}
	if in.State != nil {
		soc.State = strings.TrimSpace(*in.State)
	}
	if in.TotalUnits != nil {
		soc.TotalUnits = *in.TotalUnits
	}
	if in.IsActive != nil {
		soc.IsActive = *in.IsActive
	}
	if err := validateSociety(soc); err != nil {
		return Society{}, err
	}
	return s.repo.Update(ctx, soc)
}

// Delete removes a society and its admin bindings.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// Get fetches a society by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Society, error) {
	return s.repo.Get(ctx, id)
}

// List returns one page of societies plus pagination metadata.
func (s *Service) List(ctx context.Context, page, perPage int) ([]Society, shared.Pagination, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	pg := shared.NewPagination(page, perPage, total)
	out, err := s.repo.List(ctx, pg.PerPage, pg.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return out, pg, nil
}

func validateSociety(soc Society) error {
	verr := &shared.ValidationError{}
	if soc.Name == "" {
		verr.Add("name", "is required")
	}
	if soc.City == "" {
		verr.Add("city", "is required")
	}
	if soc.State == "" {
		verr.Add("state", "is required")
	}
	if soc.TotalUnits <= 0 {
		verr.Add("total_units", "must be greater than zero")
	}
	if !verr.Empty() {
		return verr
	}
	return nil
}
