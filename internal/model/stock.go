package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockItem is one material held by the internal store. Store routing
// checks AvailableQty and reserves against it under a row lock.
type StockItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	MaterialName string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"material_name"`
	AvailableQty decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"available_qty"`
	ReservedQty  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"reserved_qty"`
	Unit         string          `gorm:"type:varchar(30);not null" json:"unit"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"-"`
}

// CatalogItem is a priced material in the project catalog. CR materials
// that resolve to a catalog item skip the estimator.
type CatalogItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	MaterialName string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"material_name"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	Unit         string          `gorm:"type:varchar(30);not null" json:"unit"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"-"`
}
