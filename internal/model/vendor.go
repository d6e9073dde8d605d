package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Vendor is a supplier materials can be routed to.
type Vendor struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name          string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	ContactPerson string         `gorm:"type:varchar(255)" json:"contact_person"`
	Email         string         `gorm:"type:varchar(255)" json:"email"`
	Phone         string         `gorm:"type:varchar(20)" json:"phone"`
	Address       string         `gorm:"type:text" json:"address"`
	Active        bool           `gorm:"not null;default:true" json:"active"`
	Prices        []VendorPrice  `gorm:"foreignKey:VendorID" json:"prices,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// VendorPrice is a vendor's quoted price for one material. Routing a
// material to a vendor requires a price row to exist.
type VendorPrice struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	VendorID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_vendor_material_price" json:"vendor_id"`
	MaterialName string          `gorm:"type:varchar(255);not null;uniqueIndex:idx_vendor_material_price" json:"material_name"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	Unit         string          `gorm:"type:varchar(30);not null" json:"unit"`
	ValidUntil   *time.Time      `json:"valid_until"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
