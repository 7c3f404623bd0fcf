package societyadmins

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nivra-platform/nivra-core/internal/shared"
)

// memoryBindingRepo serializes mutations with a mutex the way the pg
// repository serializes them with a society row lock, so demote-then-write
// stays atomic under concurrent callers.
type memoryBindingRepo struct {
	mu        sync.Mutex
	bindings  map[uuid.UUID]Binding
	users     map[uuid.UUID]bool
	societies map[uuid.UUID]bool
}

func newMemoryBindingRepo() *memoryBindingRepo {
	return &memoryBindingRepo{
		bindings:  make(map[uuid.UUID]Binding),
		users:     make(map[uuid.UUID]bool),
		societies: make(map[uuid.UUID]bool),
	}
}

func (r *memoryBindingRepo) addUser() uuid.UUID {
	id := uuid.New()
	r.users[id] = true
	return id
}

func (r *memoryBindingRepo) addSociety() uuid.UUID {
	id := uuid.New()
	r.societies[id] = true
	return id
}

func (r *memoryBindingRepo) demotePrimary(societyID uuid.UUID) {
	for id, b := range r.bindings {
		if b.SocietyID == societyID && b.IsPrimaryAdmin {
			b.IsPrimaryAdmin = false
			r.bindings[id] = b
		}
	}
}

func (r *memoryBindingRepo) Create(ctx context.Context, b Binding) (Binding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.users[b.UserID] {
		return Binding{}, &shared.NotFoundError{Resource: "user", ID: b.UserID.String()}
	}
	if !r.societies[b.SocietyID] {
		return Binding{}, &shared.NotFoundError{Resource: "society", ID: b.SocietyID.String()}
	}
	for _, existing := range r.bindings {
		if existing.UserID == b.UserID && existing.SocietyID == b.SocietyID {
			return Binding{}, &shared.ConflictError{Resource: "society admin", Reason: "user is already an admin of this society"}
		}
	}
	if b.IsPrimaryAdmin {
		r.demotePrimary(b.SocietyID)
	}
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	r.bindings[b.ID] = b
	return b, nil
}

func (r *memoryBindingRepo) Update(ctx context.Context, id uuid.UUID, isPrimary bool) (Binding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bindings[id]
	if !ok {
		return Binding{}, &shared.NotFoundError{Resource: "society admin", ID: id.String()}
	}
	if isPrimary && !b.IsPrimaryAdmin {
		r.demotePrimary(b.SocietyID)
	}
	b.IsPrimaryAdmin = isPrimary
	b.UpdatedAt = time.Now()
	r.bindings[id] = b
	return b, nil
}

func (r *memoryBindingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.bindings[id]; !ok {
		return &shared.NotFoundError{Resource: "society admin", ID: id.String()}
	}
	delete(r.bindings, id)
	return nil
}

func (r *memoryBindingRepo) Get(ctx context.Context, id uuid.UUID) (Binding, error) {
	b, ok := r.bindings[id]
	if !ok {
		return Binding{}, &shared.NotFoundError{Resource: "society admin", ID: id.String()}
	}
	return b, nil
}

func (r *memoryBindingRepo) List(ctx context.Context) ([]Binding, error) {
	out := make([]Binding, 0, len(r.bindings))
	for _, b := range r.bindings {
		out = append(out, b)
	}
	return out, nil
}

func (r *memoryBindingRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]Binding, error) {
	var out []Binding
	for _, b := range r.bindings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *memoryBindingRepo) ListBySociety(ctx context.Context, societyID uuid.UUID) ([]Binding, error) {
	var out []Binding
	for _, b := range r.bindings {
		if b.SocietyID == societyID {
			out = append(out, b)
		}
	}
	return out, nil
}

func TestCreateBinding(t *testing.T) {
	repo := newMemoryBindingRepo()
	svc := NewService(repo)
	userID := repo.addUser()
	societyID := repo.addSociety()

	b, err := svc.Create(context.Background(), CreateInput{UserID: userID, SocietyID: societyID})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, b.ID)
	require.False(t, b.IsPrimaryAdmin)
}

func TestCreateBindingUnknownReferences(t *testing.T) {
	repo := newMemoryBindingRepo()
	svc := NewService(repo)
	userID := repo.addUser()
	societyID := repo.addSociety()
	ctx := context.Background()

	var notFound *shared.NotFoundError
	_, err := svc.Create(ctx, CreateInput{UserID: uuid.New(), SocietyID: societyID})
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "user", notFound.Resource)

	_, err = svc.Create(ctx, CreateInput{UserID: userID, SocietyID: uuid.New()})
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "society", notFound.Resource)
}

func TestCreateBindingDuplicatePair(t *testing.T) {
	repo := newMemoryBindingRepo()
	svc := NewService(repo)
	userID := repo.addUser()
	societyID := repo.addSociety()
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{UserID: userID, SocietyID: societyID})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateInput{UserID: userID, SocietyID: societyID, IsPrimaryAdmin: true})
	var conflict *shared.ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestCreatePrimaryDemotesExisting(t *testing.T) {
	repo := newMemoryBindingRepo()
	svc := NewService(repo)
	societyID := repo.addSociety()
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateInput{UserID: repo.addUser(), SocietyID: societyID, IsPrimaryAdmin: true})
	require.NoError(t, err)

	second, err := svc.Create(ctx, CreateInput{UserID: repo.addUser(), SocietyID: societyID, IsPrimaryAdmin: true})
	require.NoError(t, err)
	require.True(t, second.IsPrimaryAdmin)

	stored, err := svc.Get(ctx, first.ID)
	require.NoError(t, err)
	require.False(t, stored.IsPrimaryAdmin)

	requireSinglePrimary(t, repo, societyID)
}

func TestSetPrimaryDemotesExisting(t *testing.T) {
	repo := newMemoryBindingRepo()
	svc := NewService(repo)
	societyID := repo.addSociety()
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateInput{UserID: repo.addUser(), SocietyID: societyID, IsPrimaryAdmin: true})
	require.NoError(t, err)
	second, err := svc.Create(ctx, CreateInput{UserID: repo.addUser(), SocietyID: societyID})
	require.NoError(t, err)

	promoted, err := svc.SetPrimary(ctx, second.ID, true)
	require.NoError(t, err)
	require.True(t, promoted.IsPrimaryAdmin)

	stored, err := svc.Get(ctx, first.ID)
	require.NoError(t, err)
	require.False(t, stored.IsPrimaryAdmin)

	requireSinglePrimary(t, repo, societyID)
}

func TestConcurrentPromotionsKeepSinglePrimary(t *testing.T) {
	repo := newMemoryBindingRepo()
	svc := NewService(repo)
	societyID := repo.addSociety()
	ctx := context.Background()

	ids := make([]uuid.UUID, 0, 8)
	for i := 0; i < 8; i++ {
		b, err := svc.Create(ctx, CreateInput{UserID: repo.addUser(), SocietyID: societyID})
		require.NoError(t, err)
		ids = append(ids, b.ID)
	}

	errs := make(chan error, len(ids))
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := svc.SetPrimary(ctx, id, true)
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	requireSinglePrimary(t, repo, societyID)
}

func TestPrimariesIndependentAcrossSocieties(t *testing.T) {
	repo := newMemoryBindingRepo()
	svc := NewService(repo)
	userID := repo.addUser()
	first := repo.addSociety()
	second := repo.addSociety()
	ctx := context.Background()

	a, err := svc.Create(ctx, CreateInput{UserID: userID, SocietyID: first, IsPrimaryAdmin: true})
	require.NoError(t, err)
	b, err := svc.Create(ctx, CreateInput{UserID: userID, SocietyID: second, IsPrimaryAdmin: true})
	require.NoError(t, err)

	require.True(t, a.IsPrimaryAdmin)
	require.True(t, b.IsPrimaryAdmin)
}

func TestListBindingFilters(t *testing.T) {
	repo := newMemoryBindingRepo()
	svc := NewService(repo)
	userID := repo.addUser()
	otherUser := repo.addUser()
	societyID := repo.addSociety()
	otherSociety := repo.addSociety()
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{UserID: userID, SocietyID: societyID})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{UserID: userID, SocietyID: otherSociety})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{UserID: otherUser, SocietyID: societyID})
	require.NoError(t, err)

	all, err := svc.List(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)

	byUser, err := svc.List(ctx, &userID, nil)
	require.NoError(t, err)
	require.Len(t, byUser, 2)

	bySociety, err := svc.List(ctx, nil, &societyID)
	require.NoError(t, err)
	require.Len(t, bySociety, 2)
}

func requireSinglePrimary(t *testing.T, repo *memoryBindingRepo, societyID uuid.UUID) {
	t.Helper()
	primaries := 0
	for _, b := range repo.bindings {
		if b.SocietyID == societyID && b.IsPrimaryAdmin {
			primaries++
		}
	}
	require.Equal(t, 1, primaries)
}
