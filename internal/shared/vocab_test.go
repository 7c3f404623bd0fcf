package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResourceTypeValid(t *testing.T) {
	for _, r := range ResourceTypes() {
		require.True(t, r.Valid(), "resource %s", r)
	}
	require.False(t, ResourceType("buildings").Valid())
	require.False(t, ResourceType("").Valid())
}

func TestSocietyScopedSet(t *testing.T) {
	scoped := map[ResourceType]bool{
		ResourceSocieties: true,
		ResourceResidents: true,
		ResourceFinances:  true,
		ResourceNotices:   true,
		ResourcePayments:  true,
	}
	for _, r := range ResourceTypes() {
		require.Equal(t, scoped[r], r.SocietyScoped(), "resource %s", r)
	}
}

func TestActionCovers(t *testing.T) {
	require.True(t, ActionManage.Covers(ActionDelete))
	require.True(t, ActionRead.Covers(ActionRead))
	require.False(t, ActionWrite.Covers(ActionRead))
	// No action covers manage except manage itself.
	require.False(t, ActionDelete.Covers(ActionManage))
	require.True(t, ActionManage.Covers(ActionManage))
}
