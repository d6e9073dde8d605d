package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InspectionStatus is the overall verdict of one delivery inspection.
// It is derivable from the material lines and never set independently.
type InspectionStatus string

const (
	InspectionPending           InspectionStatus = "pending"
	InspectionFullyApproved     InspectionStatus = "fully_approved"
	InspectionPartiallyApproved InspectionStatus = "partially_approved"
	InspectionFullyRejected     InspectionStatus = "fully_rejected"
)

// RejectionCategory classifies why a material line was rejected.
type RejectionCategory string

const (
	RejectionQualityDefect    RejectionCategory = "quality_defect"
	RejectionWrongItem        RejectionCategory = "wrong_item"
	RejectionDamagedInTransit RejectionCategory = "damaged_in_transit"
	RejectionShortSupply      RejectionCategory = "short_supply"
	RejectionOther            RejectionCategory = "other"
)

// VendorDeliveryInspection records one PM accept/reject pass over a
// vendor delivery. Replacement deliveries link back through
// ParentInspectionID and carry iteration_number = parent + 1.
type VendorDeliveryInspection struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ChangeRequestID uuid.UUID  `gorm:"type:uuid;not null;index" json:"change_request_id"`
	POChildID       *uuid.UUID `gorm:"type:uuid;index" json:"po_child_id"`
	VendorID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"vendor_id"`
	Vendor          *Vendor    `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`

	Status InspectionStatus `gorm:"type:varchar(30);not null;default:'pending';index" json:"status"`

	IterationNumber    int                       `gorm:"not null;default:0" json:"iteration_number"`
	ParentInspectionID *uuid.UUID                `gorm:"type:uuid;index" json:"parent_inspection_id"`
	ParentInspection   *VendorDeliveryInspection `gorm:"foreignKey:ParentInspectionID" json:"-"`

	InspectedBy *uuid.UUID           `gorm:"type:uuid" json:"inspected_by"`
	Inspector   *User                `gorm:"foreignKey:InspectedBy" json:"inspector,omitempty"`
	Lines       []InspectionMaterial `gorm:"foreignKey:InspectionID" json:"lines"`
	Notes       string               `gorm:"type:text" json:"notes"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// InspectionMaterial is one inspected material line.
// Invariant: AcceptedQty + RejectedQty == OrderedQty.
type InspectionMaterial struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InspectionID uuid.UUID `gorm:"type:uuid;not null;index" json:"inspection_id"`
	MaterialName string    `gorm:"type:varchar(255);not null" json:"material_name"`

	OrderedQty  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"ordered_qty"`
	AcceptedQty decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"accepted_qty"`
	RejectedQty decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"rejected_qty"`

	Unit              string            `gorm:"type:varchar(30);not null" json:"unit"`
	UnitPrice         *decimal.Decimal  `gorm:"type:decimal(18,4)" json:"unit_price"`
	RejectionCategory RejectionCategory `gorm:"type:varchar(30)" json:"rejection_category,omitempty"`
	EvidenceRefs      string            `gorm:"type:jsonb" json:"evidence_refs"` // JSON array of photo/document URLs
}
