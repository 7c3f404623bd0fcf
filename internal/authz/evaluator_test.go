package authz

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nivra-platform/nivra-core/internal/shared"
)

type memoryAuthzRepo struct {
	accounts map[uuid.UUID]Account
	grants   map[uuid.UUID][]Grant
	bindings map[[2]uuid.UUID]bool
}

func newMemoryAuthzRepo() *memoryAuthzRepo {
	return &memoryAuthzRepo{
		accounts: make(map[uuid.UUID]Account),
		grants:   make(map[uuid.UUID][]Grant),
		bindings: make(map[[2]uuid.UUID]bool),
	}
}

func (r *memoryAuthzRepo) GetAccount(ctx context.Context, userID uuid.UUID) (Account, error) {
	acct, ok := r.accounts[userID]
	if !ok {
		return Account{}, &shared.NotFoundError{Resource: "user", ID: userID.String()}
	}
	return acct, nil
}

func (r *memoryAuthzRepo) RoleGrants(ctx context.Context, roleID uuid.UUID) ([]Grant, error) {
	return r.grants[roleID], nil
}

func (r *memoryAuthzRepo) HasSocietyBinding(ctx context.Context, userID, societyID uuid.UUID) (bool, error) {
	return r.bindings[[2]uuid.UUID{userID, societyID}], nil
}

func (r *memoryAuthzRepo) addUser(active bool, grants ...Grant) uuid.UUID {
	userID := uuid.New()
	roleID := uuid.New()
	r.accounts[userID] = Account{ID: userID, RoleID: roleID, IsActive: active}
	r.grants[roleID] = grants
	return userID
}

func (r *memoryAuthzRepo) bind(userID, societyID uuid.UUID) {
	r.bindings[[2]uuid.UUID{userID, societyID}] = true
}

func TestEvaluateExactGrant(t *testing.T) {
	repo := newMemoryAuthzRepo()
	viewer := repo.addUser(true, Grant{Resource: shared.ResourceNotices, Action: shared.ActionRead})
	eval := NewEvaluator(repo)

	decision, err := eval.Evaluate(context.Background(), viewer, shared.ResourceNotices, shared.ActionRead, nil)
	require.NoError(t, err)
	require.Equal(t, Allow, decision)

	decision, err = eval.Evaluate(context.Background(), viewer, shared.ResourceNotices, shared.ActionWrite, nil)
	require.NoError(t, err)
	require.Equal(t, Deny, decision)

	decision, err = eval.Evaluate(context.Background(), viewer, shared.ResourceFinances, shared.ActionRead, nil)
	require.NoError(t, err)
	require.Equal(t, Deny, decision)
}

func TestEvaluateWildcardAxes(t *testing.T) {
	repo := newMemoryAuthzRepo()
	// "all"+read grants read everywhere but nothing beyond read.
	reader := repo.addUser(true, Grant{Resource: shared.ResourceAll, Action: shared.ActionRead})
	// notices+manage grants every verb on notices but only notices.
	manager := repo.addUser(true, Grant{Resource: shared.ResourceNotices, Action: shared.ActionManage})
	// all+manage grants everything.
	super := repo.addUser(true, Grant{Resource: shared.ResourceAll, Action: shared.ActionManage})
	eval := NewEvaluator(repo)
	ctx := context.Background()

	decision, err := eval.Evaluate(ctx, reader, shared.ResourceFinances, shared.ActionRead, nil)
	require.NoError(t, err)
	require.Equal(t, Allow, decision)
	decision, err = eval.Evaluate(ctx, reader, shared.ResourceFinances, shared.ActionDelete, nil)
	require.NoError(t, err)
	require.Equal(t, Deny, decision)

	decision, err = eval.Evaluate(ctx, manager, shared.ResourceNotices, shared.ActionDelete, nil)
	require.NoError(t, err)
	require.Equal(t, Allow, decision)
	decision, err = eval.Evaluate(ctx, manager, shared.ResourcePayments, shared.ActionRead, nil)
	require.NoError(t, err)
	require.Equal(t, Deny, decision)

	for _, resource := range shared.ResourceTypes() {
		for _, action := range shared.Actions() {
			decision, err = eval.Evaluate(ctx, super, resource, action, nil)
			require.NoError(t, err)
			require.Equal(t, Allow, decision, "resource=%s action=%s", resource, action)
		}
	}
}

func TestEvaluateInactiveAndUnknownUsers(t *testing.T) {
	repo := newMemoryAuthzRepo()
	inactive := repo.addUser(false, Grant{Resource: shared.ResourceAll, Action: shared.ActionManage})
	eval := NewEvaluator(repo)

	decision, err := eval.Evaluate(context.Background(), inactive, shared.ResourceNotices, shared.ActionRead, nil)
	require.NoError(t, err)
	require.Equal(t, Deny, decision)

	decision, err = eval.Evaluate(context.Background(), uuid.New(), shared.ResourceNotices, shared.ActionRead, nil)
	require.NoError(t, err)
	require.Equal(t, Deny, decision)
}

func TestEvaluateEmptyRole(t *testing.T) {
	repo := newMemoryAuthzRepo()
	bare := repo.addUser(true)
	eval := NewEvaluator(repo)

	decision, err := eval.Evaluate(context.Background(), bare, shared.ResourcePublic, shared.ActionRead, nil)
	require.NoError(t, err)
	require.Equal(t, Deny, decision)
}

func TestEvaluateSocietyScope(t *testing.T) {
	repo := newMemoryAuthzRepo()
	admin := repo.addUser(true, Grant{Resource: shared.ResourceFinances, Action: shared.ActionManage})
	societyID := uuid.New()
	otherID := uuid.New()
	repo.bind(admin, societyID)
	eval := NewEvaluator(repo)
	ctx := context.Background()

	decision, err := eval.Evaluate(ctx, admin, shared.ResourceFinances, shared.ActionRead, &societyID)
	require.NoError(t, err)
	require.Equal(t, Allow, decision)

	decision, err = eval.Evaluate(ctx, admin, shared.ResourceFinances, shared.ActionRead, &otherID)
	require.NoError(t, err)
	require.Equal(t, Deny, decision)

	// Without a society scope, the grant alone decides.
	decision, err = eval.Evaluate(ctx, admin, shared.ResourceFinances, shared.ActionRead, nil)
	require.NoError(t, err)
	require.Equal(t, Allow, decision)
}

func TestEvaluatePlatformWideBypassesSocietyScope(t *testing.T) {
	repo := newMemoryAuthzRepo()
	super := repo.addUser(true, Grant{Resource: shared.ResourceAll, Action: shared.ActionManage})
	societyID := uuid.New()
	eval := NewEvaluator(repo)

	// No binding, yet the "all" grant covers any society.
	decision, err := eval.Evaluate(context.Background(), super, shared.ResourceFinances, shared.ActionDelete, &societyID)
	require.NoError(t, err)
	require.Equal(t, Allow, decision)
}

func TestEvaluateScopeIgnoredForPlatformResources(t *testing.T) {
	repo := newMemoryAuthzRepo()
	admin := repo.addUser(true, Grant{Resource: shared.ResourceUsers, Action: shared.ActionManage})
	societyID := uuid.New()
	eval := NewEvaluator(repo)

	// Users are not society-scoped, so the scope parameter has no effect.
	decision, err := eval.Evaluate(context.Background(), admin, shared.ResourceUsers, shared.ActionUpdate, &societyID)
	require.NoError(t, err)
	require.Equal(t, Allow, decision)
}

func TestEvaluateRevokedGrant(t *testing.T) {
	repo := newMemoryAuthzRepo()
	userID := repo.addUser(true, Grant{Resource: shared.ResourceNotices, Action: shared.ActionRead})
	eval := NewEvaluator(repo)
	ctx := context.Background()

	decision, err := eval.Evaluate(ctx, userID, shared.ResourceNotices, shared.ActionRead, nil)
	require.NoError(t, err)
	require.Equal(t, Allow, decision)

	// Stripping the grant from the role flips the next evaluation.
	acct := repo.accounts[userID]
	repo.grants[acct.RoleID] = nil
	decision, err = eval.Evaluate(ctx, userID, shared.ResourceNotices, shared.ActionRead, nil)
	require.NoError(t, err)
	require.Equal(t, Deny, decision)
}

func TestGrantMatches(t *testing.T) {
	g := Grant{Resource: shared.ResourceNotices, Action: shared.ActionManage}
	require.True(t, g.Matches(shared.ResourceNotices, shared.ActionDelete))
	require.False(t, g.Matches(shared.ResourceAll, shared.ActionRead))

	wildcard := Grant{Resource: shared.ResourceAll, Action: shared.ActionRead}
	require.True(t, wildcard.Matches(shared.ResourcePayments, shared.ActionRead))
	require.False(t, wildcard.Matches(shared.ResourcePayments, shared.ActionUpdate))
}
