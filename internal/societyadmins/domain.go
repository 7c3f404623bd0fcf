package societyadmins

import (
	"time"

	"github.com/google/uuid"
)

// Binding links a user to a society they administer. Each (user, society)
// pair appears at most once, and a society carries at most one primary
// admin at any time.
type Binding struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	SocietyID      uuid.UUID
	IsPrimaryAdmin bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
