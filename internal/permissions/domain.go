package permissions

import (
	"time"

	"github.com/google/uuid"

	"github.com/nivra-platform/nivra-core/internal/shared"
)

// Permission represents an atomic grantable capability, tagged with the
// resource type it governs and the action it authorizes.
type Permission struct {
	ID           uuid.UUID
	Name         string
	Description  string
	ResourceType shared.ResourceType
	Action       shared.Action
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Matches reports whether this permission satisfies a request for the given
// resource type and action. The "all" resource and the "manage" action are
// independent wildcard axes; neither implies the other.
func (p Permission) Matches(resource shared.ResourceType, action shared.Action) bool {
	if p.ResourceType != resource && p.ResourceType != shared.ResourceAll {
		return false
	}
	return p.Action.Covers(action)
}
