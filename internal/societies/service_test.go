package societies

import (
	"context"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nivra-platform/nivra-core/internal/shared"
)

type memorySocietyRepo struct {
	societies map[uuid.UUID]Society
}

func newMemorySocietyRepo() *memorySocietyRepo {
	return &memorySocietyRepo{societies: make(map[uuid.UUID]Society)}
}

func (r *memorySocietyRepo) Create(ctx context.Context, s Society) (Society, error) {
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	r.societies[s.ID] = s
	return s, nil
}

func (r *memorySocietyRepo) Update(ctx context.Context, s Society) (Society, error) {
	stored, ok := r.societies[s.ID]
	if !ok {
		return Society{}, &shared.NotFoundError{Resource: "society", ID: s.ID.String()}
	}
	s.CreatedAt = stored.CreatedAt
	s.UpdatedAt = time.Now()
	r.societies[s.ID] = s
	return s, nil
}

func (r *memorySocietyRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.societies[id]; !ok {
		return &shared.NotFoundError{Resource: "society", ID: id.String()}
	}
	delete(r.societies, id)
	return nil
}

func (r *memorySocietyRepo) Get(ctx context.Context, id uuid.UUID) (Society, error) {
	s, ok := r.societies[id]
	if !ok {
		return Society{}, &shared.NotFoundError{Resource: "society", ID: id.String()}
	}
	return s, nil
}

func (r *memorySocietyRepo) List(ctx context.Context, limit, offset int) ([]Society, error) {
	all := make([]Society, 0, len(r.societies))
	for _, s := range r.societies {
		all = append(all, s)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *memorySocietyRepo) Count(ctx context.Context) (int, error) {
	return len(r.societies), nil
}

func TestCreateSociety(t *testing.T) {
	svc := NewService(newMemorySocietyRepo())

	s, err := svc.Create(context.Background(), CreateInput{
		Name:       "Green Meadows",
		City:       "Pune",
		State:      "Maharashtra",
		TotalUnits: 120,
	})
	require.NoError(t, err)
	require.True(t, s.IsActive)
	require.Equal(t, 120, s.TotalUnits)
}

func TestCreateSocietyFieldErrors(t *testing.T) {
	svc := NewService(newMemorySocietyRepo())

	_, err := svc.Create(context.Background(), CreateInput{TotalUnits: -3})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	fields := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		fields = append(fields, f.Field)
	}
	require.ElementsMatch(t, []string{"name", "city", "state", "total_units"}, fields)
}

func TestListSocietiesPaginates(t *testing.T) {
	repo := newMemorySocietyRepo()
	svc := NewService(repo)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		_, err := svc.Create(ctx, CreateInput{
			Name:       "Society " + strconv.Itoa(i),
			City:       "Pune",
			State:      "Maharashtra",
			TotalUnits: 10,
		})
		require.NoError(t, err)
	}

	page, pg, err := svc.List(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, page, 10)
	require.Equal(t, 25, pg.Total)
	require.Equal(t, 3, pg.TotalPages)

	last, pg, err := svc.List(ctx, 3, 10)
	require.NoError(t, err)
	require.Len(t, last, 5)
	require.Equal(t, 3, pg.Page)
}
