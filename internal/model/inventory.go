package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InventoryCount is one SKU at a warehouse/brand/location together with its physical count.
// CountedAt stays nil until the SKU has been counted.
type InventoryCount struct {
	ID               uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	Warehouse        string              `gorm:"type:varchar(50);not null;uniqueIndex:idx_inventory_sku_key,priority:1" json:"warehouse"`
	Location         string              `gorm:"type:varchar(100);not null;default:'';uniqueIndex:idx_inventory_sku_key,priority:2" json:"location"`
	Brand            string              `gorm:"type:varchar(100);not null;uniqueIndex:idx_inventory_sku_key,priority:3" json:"brand"`
	Barcode          string              `gorm:"type:varchar(100);not null;index;uniqueIndex:idx_inventory_sku_key,priority:4" json:"barcode"`
	Description      string              `gorm:"type:varchar(255)" json:"description"`
	SystemQuantity   decimal.Decimal     `gorm:"type:numeric(18,4);not null;default:0" json:"system_quantity"`
	PhysicalQuantity decimal.NullDecimal `gorm:"type:numeric(18,4)" json:"physical_quantity"`
	CountedAt        *time.Time          `gorm:"index" json:"counted_at"`
	CountedBy        *uuid.UUID          `gorm:"type:uuid" json:"counted_by"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

func (c *InventoryCount) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// IsCounted reports whether a physical count has been recorded
func (c *InventoryCount) IsCounted() bool {
	return c.CountedAt != nil
}

// Movement kinds
const (
	MovementIn  = "IN"
	MovementOut = "OUT"
)

// Movement records a stock adjustment of a SKU. Rows are immutable; only admins may hard-delete them.
type Movement struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Warehouse  string     `gorm:"type:varchar(50);not null;index:idx_movements_sku,priority:1" json:"warehouse"`
	Brand      string     `gorm:"type:varchar(100);not null;index:idx_movements_sku,priority:2" json:"brand"`
	Barcode    string     `gorm:"type:varchar(100);not null;index:idx_movements_sku,priority:3" json:"barcode"`
	Location   *string    `gorm:"type:varchar(100)" json:"location"` // Nil applies to every location of the SKU
	Kind       string     `gorm:"type:varchar(10);not null" json:"kind"`
	Quantity   int        `gorm:"type:int;not null" json:"quantity"`
	Note       string     `gorm:"type:text" json:"note"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User       *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	OccurredAt time.Time  `gorm:"not null;index" json:"occurred_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (m *Movement) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// AppliesToLocation reports whether the movement affects stock at location
func (m *Movement) AppliesToLocation(location string) bool {
	return m.Location == nil || *m.Location == "" || *m.Location == location
}

// InventoryFilter narrows inventory queries. Empty fields are unconstrained.
type InventoryFilter struct {
	Warehouse string
	Brand     string
	Location  string
}

// InventoryListFilter extends InventoryFilter for the paginated listing
type InventoryListFilter struct {
	InventoryFilter
	Search string
	Status string // counted, pending or empty
}

// Inventory list status values
const (
	CountStatusCounted = "counted"
	CountStatusPending = "pending"
)

// MovementFilter narrows the movement ledger listing
type MovementFilter struct {
	Warehouse string
	Brand     string
	Barcode   string
	Kind      string
	From      *time.Time
	To        *time.Time
}
