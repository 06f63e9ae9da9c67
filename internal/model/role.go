package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Built-in role names
const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
	RoleCounter    = "counter"
)

// Permission codes checked by the HTTP layer
const (
	PermInventoryRead      = "inventory.read"
	PermInventoryWrite     = "inventory.write"
	PermInventoryCount     = "inventory.count"
	PermInventoryImport    = "inventory.import"
	PermInventoryReset     = "inventory.reset"
	PermMovementsRead      = "movements.read"
	PermMovementsWrite     = "movements.write"
	PermMovementsDelete    = "movements.delete"
	PermReconciliationRead = "reconciliation.read"
	PermUsersRead          = "users.read"
	PermUsersWrite         = "users.write"
	PermUsersDelete        = "users.delete"
	PermRolesWrite         = "roles.write"
	PermAuditRead          = "audit.read"
	PermDashboardRead      = "dashboard.read"
)

// Role represents a user role with associated permissions
type Role struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string       `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	IsSystem    bool         `gorm:"default:false" json:"is_system"` // Prevent deletion of built-in roles
	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (r *Role) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Permission represents a single permission that can be assigned to roles
type Permission struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Code  string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"` // e.g. "inventory.count"
	Name  string    `gorm:"type:varchar(255);not null" json:"name"`
	Group string    `gorm:"type:varchar(50);not null;index" json:"group"` // "inventory", "movements", "users"...
}

func (p *Permission) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
