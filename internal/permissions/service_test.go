package permissions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nivra-platform/nivra-core/internal/shared"
)

// memoryPermissionRepo also tracks role grant sets so Delete can mirror
// the pg repository's contract of stripping the id from every role.
type memoryPermissionRepo struct {
	perms      map[uuid.UUID]Permission
	roleGrants map[uuid.UUID][]uuid.UUID
}

func newMemoryPermissionRepo() *memoryPermissionRepo {
	return &memoryPermissionRepo{
		perms:      make(map[uuid.UUID]Permission),
		roleGrants: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (r *memoryPermissionRepo) Create(ctx context.Context, p Permission) (Permission, error) {
	for _, existing := range r.perms {
		if existing.Name == p.Name {
			return Permission{}, shared.NewValidationError("name", "a permission with this name already exists")
		}
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	r.perms[p.ID] = p
	return p, nil
}

func (r *memoryPermissionRepo) Update(ctx context.Context, p Permission) (Permission, error) {
	stored, ok := r.perms[p.ID]
	if !ok {
		return Permission{}, &shared.NotFoundError{Resource: "permission", ID: p.ID.String()}
	}
	for id, existing := range r.perms {
		if id != p.ID && existing.Name == p.Name {
			return Permission{}, shared.NewValidationError("name", "a permission with this name already exists")
		}
	}
	p.CreatedAt = stored.CreatedAt
	p.UpdatedAt = time.Now()
	r.perms[p.ID] = p
	return p, nil
}

func (r *memoryPermissionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.perms[id]; !ok {
		return &shared.NotFoundError{Resource: "permission", ID: id.String()}
	}
	delete(r.perms, id)
	for roleID, grants := range r.roleGrants {
		kept := grants[:0]
		for _, permID := range grants {
			if permID != id {
				kept = append(kept, permID)
			}
		}
		r.roleGrants[roleID] = kept
	}
	return nil
}

func (r *memoryPermissionRepo) Get(ctx context.Context, id uuid.UUID) (Permission, error) {
	p, ok := r.perms[id]
	if !ok {
		return Permission{}, &shared.NotFoundError{Resource: "permission", ID: id.String()}
	}
	return p, nil
}

func (r *memoryPermissionRepo) List(ctx context.Context) ([]Permission, error) {
	out := make([]Permission, 0, len(r.perms))
	for _, p := range r.perms {
		out = append(out, p)
	}
	return out, nil
}

func TestCreatePermission(t *testing.T) {
	svc := NewService(newMemoryPermissionRepo())

	p, err := svc.Create(context.Background(), CreateInput{
		Name:         "notices.read",
		Description:  "Read notices",
		ResourceType: shared.ResourceNotices,
		Action:       shared.ActionRead,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, p.ID)
	require.Equal(t, shared.ResourceNotices, p.ResourceType)
	require.Equal(t, shared.ActionRead, p.Action)
}

func TestCreatePermissionRejectsUnknownVocabulary(t *testing.T) {
	svc := NewService(newMemoryPermissionRepo())

	_, err := svc.Create(context.Background(), CreateInput{
		Name:         "bogus",
		ResourceType: "buildings",
		Action:       "approve",
	})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	fields := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		fields = append(fields, f.Field)
	}
	require.Contains(t, fields, "resource_type")
	require.Contains(t, fields, "action")
}

func TestCreatePermissionRejectsMissingName(t *testing.T) {
	svc := NewService(newMemoryPermissionRepo())

	_, err := svc.Create(context.Background(), CreateInput{
		Name:         "   ",
		ResourceType: shared.ResourceNotices,
		Action:       shared.ActionRead,
	})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "name", verr.Fields[0].Field)
}

func TestCreatePermissionDuplicateName(t *testing.T) {
	svc := NewService(newMemoryPermissionRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Name: "notices.read", ResourceType: shared.ResourceNotices, Action: shared.ActionRead})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateInput{Name: "notices.read", ResourceType: shared.ResourceNotices, Action: shared.ActionManage})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "name", verr.Fields[0].Field)
}

func TestUpdatePermissionPartial(t *testing.T) {
	svc := NewService(newMemoryPermissionRepo())
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateInput{Name: "notices.read", ResourceType: shared.ResourceNotices, Action: shared.ActionRead})
	require.NoError(t, err)

	action := shared.ActionManage
	updated, err := svc.Update(ctx, p.ID, UpdateInput{Action: &action})
	require.NoError(t, err)
	require.Equal(t, "notices.read", updated.Name)
	require.Equal(t, shared.ResourceNotices, updated.ResourceType)
	require.Equal(t, shared.ActionManage, updated.Action)
}

func TestUpdatePermissionUnknownID(t *testing.T) {
	svc := NewService(newMemoryPermissionRepo())

	name := "renamed"
	_, err := svc.Update(context.Background(), uuid.New(), UpdateInput{Name: &name})
	var notFound *shared.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestDeletePermission(t *testing.T) {
	repo := newMemoryPermissionRepo()
	svc := NewService(repo)
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateInput{Name: "notices.read", ResourceType: shared.ResourceNotices, Action: shared.ActionRead})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, p.ID))
	_, err = svc.Get(ctx, p.ID)
	var notFound *shared.NotFoundError
	require.ErrorAs(t, err, &notFound)

	err = svc.Delete(ctx, p.ID)
	require.ErrorAs(t, err, &notFound)
}

func TestDeletePermissionStripsRoleReferences(t *testing.T) {
	repo := newMemoryPermissionRepo()
	svc := NewService(repo)
	ctx := context.Background()

	read, err := svc.Create(ctx, CreateInput{Name: "residents.read", ResourceType: shared.ResourceResidents, Action: shared.ActionRead})
	require.NoError(t, err)
	manage, err := svc.Create(ctx, CreateInput{Name: "residents.manage", ResourceType: shared.ResourceResidents, Action: shared.ActionManage})
	require.NoError(t, err)

	viewer := uuid.New()
	board := uuid.New()
	repo.roleGrants[viewer] = []uuid.UUID{read.ID, manage.ID}
	repo.roleGrants[board] = []uuid.UUID{read.ID}

	require.NoError(t, svc.Delete(ctx, read.ID))

	require.Equal(t, []uuid.UUID{manage.ID}, repo.roleGrants[viewer])
	require.Empty(t, repo.roleGrants[board])

	_, err = svc.Get(ctx, manage.ID)
	require.NoError(t, err)
}

func TestPermissionMatches(t *testing.T) {
	p := Permission{ResourceType: shared.ResourceFinances, Action: shared.ActionManage}
	require.True(t, p.Matches(shared.ResourceFinances, shared.ActionDelete))
	require.False(t, p.Matches(shared.ResourceNotices, shared.ActionRead))

	wildcard := Permission{ResourceType: shared.ResourceAll, Action: shared.ActionWrite}
	require.True(t, wildcard.Matches(shared.ResourceFinances, shared.ActionWrite))
	require.False(t, wildcard.Matches(shared.ResourceFinances, shared.ActionRead))
}
