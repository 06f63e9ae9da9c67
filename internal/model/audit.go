package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionCreateInventory = "CREATE_INVENTORY"
	ActionUpdateInventory = "UPDATE_INVENTORY"
	ActionRecordCount     = "RECORD_COUNT"
	ActionImportInventory = "IMPORT_INVENTORY"
	ActionResetInventory  = "RESET_INVENTORY"

	ActionCreateMovement = "CREATE_MOVEMENT"
	ActionDeleteMovement = "DELETE_MOVEMENT"

	ActionCreateUser            = "CREATE_USER"
	ActionUpdateUser            = "UPDATE_USER"
	ActionDeleteUser            = "DELETE_USER"
	ActionUpdateRolePermissions = "UPDATE_ROLE_PERMISSIONS"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nil for CLI-driven changes
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:jsonb" json:"details"` // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

// AuditFilter narrows the audit trail listing. Empty fields are unconstrained.
type AuditFilter struct {
	Action   string
	EntityID string
	UserID   *uuid.UUID
	From     *time.Time
	To       *time.Time
}

func (a *AuditLog) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
