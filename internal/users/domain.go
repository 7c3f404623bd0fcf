package users

import (
	"time"

	"github.com/google/uuid"
)

// User is an account in the directory. PasswordHash is write-only: it never
// leaves this package through a read operation. LastLogin is maintained by
// the authentication subsystem, not by this core.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	FullName     string
	PasswordHash string
	RoleID       uuid.UUID
	IsActive     bool
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
