package models

import (
	"time"

	"github.com/google/uuid"
)

// Role gates which lifecycle transitions an actor may perform. The
// authorization middleware enforces it; the core only declares the
// minimum role per operation (see the auth package).
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleTechnician Role = "technician"
	RoleRequester  Role = "requester"
	RoleViewer     Role = "viewer"
	RoleSuperAdmin Role = "super_admin"
)

// roleRank orders roles by privilege. super_admin sits above admin and
// is not tenant scoped.
var roleRank = map[Role]int{
	RoleViewer:     0,
	RoleRequester:  1,
	RoleTechnician: 2,
	RoleSupervisor: 3,
	RoleAdmin:      4,
	RoleSuperAdmin: 5,
}

// Valid reports whether the role is one of the closed set.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether the role carries at least the privilege of min.
func (r Role) AtLeast(min Role) bool {
	return roleRank[r] >= roleRank[min]
}

// User belongs to exactly one company, except super admins which are
// platform operators and carry a nil CompanyID.
type User struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CompanyID *uuid.UUID `gorm:"type:uuid;index"`
	Name      string     `gorm:"size:120"`
	Email     string     `gorm:"size:255;uniqueIndex"`
	Role      Role       `gorm:"size:20"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
