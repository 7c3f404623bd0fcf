package users

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/nivra-platform/nivra-core/internal/shared"
)

// Service handles user directory business logic.
type Service struct {
	repo   Repository
	hasher Hasher
}

// NewService builds a Service instance.
func NewService(repo Repository, hasher Hasher) *Service {
	return &Service{repo: repo, hasher: hasher}
}

// CreateInput carries the writable fields of a new account.
type CreateInput struct {
	Username string
	Email    string
	FullName string
	Password string
	RoleID   uuid.UUID
	IsActive *bool
}

// UpdateInput carries partial changes. Password is re-hashed only when
// explicitly supplied.
type UpdateInput struct {
	Username *string
	Email    *string
	FullName *string
	Password *string
	RoleID   *uuid.UUID
	IsActive *bool
}

// Create validates and inserts a new account. Accounts are active unless
// stated otherwise.
func (s *Service) Create(ctx context.Context, in CreateInput) (User, error) {
	u := User{
		ID:       uuid.New(),
		Username: normalize(in.Username),
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		FullName: normalize(in.FullName),
		RoleID:   in.RoleID,
		IsActive: true,
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}

	verr := &shared.ValidationError{}
	if u.Username == "" {
		verr.Add("username", "is required")
	}
	if u.Email == "" {
		verr.Add("email", "is required")
	}
	if u.FullName == "" {
		verr.Add("full_name", "is required")
	}
	if in.Password == "" {
		verr.Add("password", "is required")
	}
	if err := s.checkRole(ctx, u.RoleID, verr); err != nil {
		return User{}, err
	}
	if !verr.Empty() {
		return User{}, verr
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return User{}, err
	}
	u.PasswordHash = hash
	return s.repo.Create(ctx, u)
}

// Update applies partial changes to an existing account.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (User, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if in.Username != nil {
		u.Username = normalize(*in.Username)
	}
	if in.Email != nil {
		u.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.FullName != nil {
		u.FullName = normalize(*in.FullName)
	}
	if in.RoleID != nil {
		u.RoleID = *in.RoleID
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}

	verr := &shared.ValidationError{}
	if u.Username == "" {
		verr.Add("username", "is required")
	}
	if u.Email == "" {
		verr.Add("email", "is required")
	}
	if u.FullName == "" {
		verr.Add("full_name", "is required")
	}
	if in.Password != nil {
		if *in.Password == "" {
			verr.Add("password", "must not be blank")
		} else {
			hash, err := s.hasher.Hash(*in.Password)
			if err != nil {
				return User{}, err
			}
			u.PasswordHash = hash
		}
	}
	if in.RoleID != nil {
		if err := s.checkRole(ctx, u.RoleID, verr); err != nil {
			return User{}, err
		}
	}
	if !verr.Empty() {
		return User{}, verr
	}
	return s.repo.Update(ctx, u)
}

// Delete removes an account and its society-admin bindings.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// Get fetches an account by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (User, error) {
	return s.repo.Get(ctx, id)
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

func (s *Service) checkRole(ctx context.Context, roleID uuid.UUID, verr *shared.ValidationError) error {
	if roleID == uuid.Nil {
		verr.Add("role_id", "is required")
		return nil
	}
	exists, err := s.repo.RoleExists(ctx, roleID)
	if err != nil {
		return err
	}
	if !exists {
		verr.Add("role_id", "does not reference an existing role")
	}
	return nil
}

// normalize trims and NFC-normalizes user-supplied text so that visually
// identical usernames cannot coexist under different code point sequences.
func normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
