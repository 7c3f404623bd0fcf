package authz

import (
	"github.com/google/uuid"

	"github.com/nivra-platform/nivra-core/internal/shared"
)

// Decision is the outcome of an authorization check.
type Decision int

// Evaluation outcomes. Absence of a matching permission is a normal Deny,
// not an error.
const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "ALLOW"
	}
	return "DENY"
}

// Account is the slice of a user record the evaluator needs.
type Account struct {
	ID       uuid.UUID
	RoleID   uuid.UUID
	IsActive bool
}

// Grant is a permission as seen by the evaluator: a resource/action pair
// granted through the caller's role.
type Grant struct {
	Resource shared.ResourceType
	Action   shared.Action
}

// Matches reports whether the grant satisfies a request. The "all" resource
// and the "manage" action are independent wildcard axes.
func (g Grant) Matches(resource shared.ResourceType, action shared.Action) bool {
	if g.Resource != resource && g.Resource != shared.ResourceAll {
		return false
	}
	return g.Action.Covers(action)
}
