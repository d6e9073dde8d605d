package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ResolutionType decides what happens to rejected materials after the
// vendor takes them back.
type ResolutionType string

const (
	ResolutionRefund      ResolutionType = "refund"
	ResolutionReplacement ResolutionType = "replacement"
	ResolutionNewVendor   ResolutionType = "new_vendor"
)

// ReturnStatus is the return-request state machine. TD approval is a
// single irreversible transition; a rejected request is terminal.
type ReturnStatus string

const (
	ReturnPendingTDApproval ReturnStatus = "pending_td_approval"
	ReturnTDApproved        ReturnStatus = "td_approved"
	ReturnTDRejected        ReturnStatus = "td_rejected"
	ReturnInProgress        ReturnStatus = "return_in_progress"
	ReturnReturnedToVendor  ReturnStatus = "returned_to_vendor"

	// refund resolution
	ReturnRefundPending  ReturnStatus = "refund_pending"
	ReturnRefundReceived ReturnStatus = "refund_received"

	// replacement resolution
	ReturnReplacementPending   ReturnStatus = "replacement_pending"
	ReturnReplacementDelivered ReturnStatus = "replacement_delivered"

	// new-vendor resolution
	ReturnNewPOIssued ReturnStatus = "new_po_issued"
)

// IsTerminal reports whether the return request is finished.
func (s ReturnStatus) IsTerminal() bool {
	switch s {
	case ReturnTDRejected, ReturnRefundReceived, ReturnReplacementDelivered, ReturnNewPOIssued:
		return true
	}
	return false
}

// NewVendorStatus is the TD-approval sub-state of a new_vendor
// resolution's replacement vendor. Empty unless resolution is new_vendor.
type NewVendorStatus string

const (
	NewVendorPendingTDApproval NewVendorStatus = "pending_td_approval"
	NewVendorApproved          NewVendorStatus = "approved"
	NewVendorRejected          NewVendorStatus = "rejected"
)

// VendorReturnRequest is spawned from the rejected lines of exactly one
// inspection. The rejected-materials snapshot and its total value are
// computed at creation and immutable afterwards; disputes open a fresh
// request.
type VendorReturnRequest struct {
	ID              uuid.UUID                 `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InspectionID    uuid.UUID                 `gorm:"type:uuid;not null;index" json:"inspection_id"`
	Inspection      *VendorDeliveryInspection `gorm:"foreignKey:InspectionID" json:"-"`
	ChangeRequestID uuid.UUID                 `gorm:"type:uuid;not null;index" json:"change_request_id"`
	VendorID        uuid.UUID                 `gorm:"type:uuid;not null;index" json:"vendor_id"`
	Vendor          *Vendor                   `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`

	ResolutionType ResolutionType `gorm:"type:varchar(20);not null" json:"resolution_type"`
	Status         ReturnStatus   `gorm:"type:varchar(30);not null;default:'pending_td_approval';index" json:"status"`

	TotalValue decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_value"`

	TDDecidedBy       *uuid.UUID `gorm:"type:uuid" json:"td_decided_by"`
	TDDecider         *User      `gorm:"foreignKey:TDDecidedBy" json:"td_decider,omitempty"`
	TDDecidedAt       *time.Time `json:"td_decided_at"`
	TDRejectionReason string     `gorm:"type:text" json:"td_rejection_reason"`

	// financial settlement
	CreditNoteRef    string `gorm:"type:varchar(100)" json:"credit_note_ref"`
	LPOAdjustmentRef string `gorm:"type:varchar(100)" json:"lpo_adjustment_ref"`

	// new_vendor resolution only
	NewVendorID     *uuid.UUID      `gorm:"type:uuid" json:"new_vendor_id"`
	NewVendor       *Vendor         `gorm:"foreignKey:NewVendorID" json:"new_vendor,omitempty"`
	NewVendorStatus NewVendorStatus `gorm:"type:varchar(30)" json:"new_vendor_status,omitempty"`

	// replacement resolution only
	ReplacementInspectionID *uuid.UUID `gorm:"type:uuid" json:"replacement_inspection_id"`

	IterationID *uuid.UUID              `gorm:"type:uuid" json:"iteration_id"` // allocated on TD approval
	Materials   []ReturnRequestMaterial `gorm:"foreignKey:ReturnRequestID" json:"materials"`

	CreatedBy *uuid.UUID     `gorm:"type:uuid" json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ReturnRequestMaterial is one line of the immutable rejected-materials
// snapshot.
type ReturnRequestMaterial struct {
	ID              uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ReturnRequestID uuid.UUID         `gorm:"type:uuid;not null;index" json:"return_request_id"`
	MaterialName    string            `gorm:"type:varchar(255);not null" json:"material_name"`
	RejectedQty     decimal.Decimal   `gorm:"type:decimal(18,4);not null" json:"rejected_qty"`
	Unit            string            `gorm:"type:varchar(30);not null" json:"unit"`
	UnitPrice       decimal.Decimal   `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	LineValue       decimal.Decimal   `gorm:"type:decimal(18,4);not null" json:"line_value"`
	Category        RejectionCategory `gorm:"type:varchar(30)" json:"category"`
}
