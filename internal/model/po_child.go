package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// POChildStatus tracks one sub-order from creation to closure.
type POChildStatus string

const (
	POChildStatusOpen       POChildStatus = "open"
	POChildStatusDispatched POChildStatus = "dispatched"
	POChildStatusDelivered  POChildStatus = "delivered"
	POChildStatusCompleted  POChildStatus = "completed"
	POChildStatusCancelled  POChildStatus = "cancelled"
)

// IsTerminal reports whether this child no longer blocks CR completion.
func (s POChildStatus) IsTerminal() bool {
	return s == POChildStatusCompleted || s == POChildStatusCancelled
}

// POChild is a numbered split of a CR's work to a single destination:
// one vendor-selection event, or the internal store. Suffixes under one
// CR are ".1", ".2", ... and are never reused.
type POChild struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ChangeRequestID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_po_child_suffix" json:"change_request_id"`
	Suffix          string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_po_child_suffix" json:"suffix"`

	RoutingType           RoutingType           `gorm:"type:varchar(10);not null;index" json:"routing_type"`
	VendorID              *uuid.UUID            `gorm:"type:uuid;index" json:"vendor_id"` // nil for store children
	Vendor                *Vendor               `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
	VendorSelectionStatus VendorSelectionStatus `gorm:"type:varchar(30);not null;default:'none'" json:"vendor_selection_status"`

	Status    POChildStatus     `gorm:"type:varchar(20);not null;default:'open';index" json:"status"`
	Materials []POChildMaterial `gorm:"foreignKey:POChildID" json:"materials"`

	CreatedBy *uuid.UUID     `gorm:"type:uuid" json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// PONumber renders the child's display identity, e.g. "PO-500.1".
func (p *POChild) PONumber(crNumber int64) string {
	return fmt.Sprintf("PO-%d%s", crNumber, p.Suffix)
}

// POChildMaterial is one material line carried by a sub-order.
type POChildMaterial struct {
	ID           uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	POChildID    uuid.UUID        `gorm:"type:uuid;not null;index" json:"po_child_id"`
	MaterialName string           `gorm:"type:varchar(255);not null" json:"material_name"`
	Quantity     decimal.Decimal  `gorm:"type:decimal(18,4);not null" json:"quantity"`
	Unit         string           `gorm:"type:varchar(30);not null" json:"unit"`
	UnitPrice    *decimal.Decimal `gorm:"type:decimal(18,4)" json:"unit_price"`
}
