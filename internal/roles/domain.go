package roles

import (
	"time"

	"github.com/google/uuid"
)

// Role is a named grouping of permissions. PermissionIDs is a set: no
// duplicates, order carries no meaning.
type Role struct {
	ID            uuid.UUID
	Name          string
	Description   string
	PermissionIDs []uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
