package societies

import (
	"time"

	"github.com/google/uuid"
)

// Society is a housing society the platform manages. The core keeps a
// compact registry so admin bindings have a real owner to resolve against;
// resident and finance data live with their own services.
type Society struct {
	ID         uuid.UUID
	Name       string
	City       string
	State      string
	TotalUnits int
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
