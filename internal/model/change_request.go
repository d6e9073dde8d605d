package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CRStatus is the top-level lifecycle state of a change request.
type CRStatus string

const (
	CRStatusPending           CRStatus = "pending"
	CRStatusAssignedToPM      CRStatus = "assigned_to_pm"
	CRStatusPMApproved        CRStatus = "pm_approved"
	CRStatusBuyerAssigned     CRStatus = "buyer_assigned"
	CRStatusPendingTDApproval CRStatus = "pending_td_approval"
	CRStatusApproved          CRStatus = "approved"
	CRStatusRejected          CRStatus = "rejected"
	CRStatusSentToVendor      CRStatus = "sent_to_vendor"
	CRStatusSentToStore       CRStatus = "sent_to_store"
	CRStatusSplitToSubCRs     CRStatus = "split_to_sub_crs"
	CRStatusPurchaseCompleted CRStatus = "purchase_completed"
)

// IsTerminal reports whether no further lifecycle transition is allowed.
func (s CRStatus) IsTerminal() bool {
	return s == CRStatusRejected || s == CRStatusPurchaseCompleted
}

// IsPreApproval reports whether the CR can still be rejected outright.
func (s CRStatus) IsPreApproval() bool {
	switch s {
	case CRStatusPending, CRStatusAssignedToPM, CRStatusPMApproved,
		CRStatusBuyerAssigned, CRStatusPendingTDApproval:
		return true
	}
	return false
}

// ApproverRole tags which role a CR is waiting on next.
type ApproverRole string

const (
	ApproverEstimator ApproverRole = "estimator"
	ApproverBuyer     ApproverRole = "buyer"
)

// RoutingType is the destination of a routed material subset.
type RoutingType string

const (
	RoutingVendor RoutingType = "vendor"
	RoutingStore  RoutingType = "store"
)

// DeliveryRouting selects where a vendor delivery is received.
type DeliveryRouting string

const (
	DeliveryDirectToSite         DeliveryRouting = "direct_to_site"
	DeliveryViaProductionManager DeliveryRouting = "via_production_manager"
)

// VendorSelectionStatus tracks the TD decision on a buyer's vendor choice.
type VendorSelectionStatus string

const (
	VendorSelectionNone     VendorSelectionStatus = "none"
	VendorSelectionPending  VendorSelectionStatus = "pending_td_approval"
	VendorSelectionApproved VendorSelectionStatus = "approved"
	VendorSelectionRejected VendorSelectionStatus = "rejected"
)

// ChangeRequest is a request for materials beyond the original BOQ scope
// of a project. Displayed externally as PO-<cr_number>.
type ChangeRequest struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CRNumber int64     `gorm:"uniqueIndex;not null" json:"cr_number"`

	ProjectID  uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	BOQItemRef string    `gorm:"type:varchar(100)" json:"boq_item_ref"` // external BOQ line-item reference

	Status               CRStatus     `gorm:"type:varchar(30);not null;default:'pending';index" json:"status"`
	ApprovalRequiredFrom ApproverRole `gorm:"type:varchar(20);not null" json:"approval_required_from"`

	DeliveryRouting DeliveryRouting `gorm:"type:varchar(30);default:'direct_to_site'" json:"delivery_routing"`

	ProjectManagerID *uuid.UUID `gorm:"type:uuid;index" json:"project_manager_id"`
	ProjectManager   *User      `gorm:"foreignKey:ProjectManagerID" json:"project_manager,omitempty"`
	BuyerID          *uuid.UUID `gorm:"type:uuid;index" json:"buyer_id"`
	Buyer            *User      `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`

	SelectedVendorID      *uuid.UUID            `gorm:"type:uuid;index" json:"selected_vendor_id"`
	SelectedVendor        *Vendor               `gorm:"foreignKey:SelectedVendorID" json:"selected_vendor,omitempty"`
	VendorSelectionStatus VendorSelectionStatus `gorm:"type:varchar(30);not null;default:'none'" json:"vendor_selection_status"`
	VendorTDDecidedBy     *uuid.UUID            `gorm:"type:uuid" json:"vendor_td_decided_by"`
	VendorTDDecidedAt     *time.Time            `json:"vendor_td_decided_at"`

	RejectedBy      *uuid.UUID `gorm:"type:uuid" json:"rejected_by"`
	RejectedAt      *time.Time `json:"rejected_at"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason"`

	Materials       []ChangeRequestMaterial `gorm:"foreignKey:ChangeRequestID" json:"materials"`
	RoutedMaterials []RoutedMaterial        `gorm:"foreignKey:ChangeRequestID" json:"routed_materials"`

	CreatedBy *uuid.UUID     `gorm:"type:uuid" json:"created_by"`
	Creator   *User          `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// PONumber returns the external display identity, e.g. "PO-500".
func (c *ChangeRequest) PONumber() string {
	return fmt.Sprintf("PO-%d", c.CRNumber)
}

// FullyRouted reports whether every requested material has a ledger claim.
// Both lists must be loaded.
func (c *ChangeRequest) FullyRouted() bool {
	if len(c.Materials) == 0 {
		return false
	}
	claimed := make(map[string]bool, len(c.RoutedMaterials))
	for _, rm := range c.RoutedMaterials {
		claimed[rm.MaterialName] = true
	}
	for _, m := range c.Materials {
		if !claimed[m.Name] {
			return false
		}
	}
	return true
}

// ChangeRequestMaterial is one requested material line on a CR.
type ChangeRequestMaterial struct {
	ID              uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ChangeRequestID uuid.UUID        `gorm:"type:uuid;not null;index" json:"change_request_id"`
	Position        int              `gorm:"not null" json:"position"` // preserves request ordering
	Name            string           `gorm:"type:varchar(255);not null" json:"name"`
	Quantity        decimal.Decimal  `gorm:"type:decimal(18,4);not null" json:"quantity"`
	Unit            string           `gorm:"type:varchar(30);not null" json:"unit"`
	UnitPrice       *decimal.Decimal `gorm:"type:decimal(18,4)" json:"unit_price"` // nil until priced
	IsNew           bool             `gorm:"not null;default:false" json:"is_new"` // not in the priced catalog yet
}

// RoutedMaterial is one row of the append-only routing ledger. The
// composite unique index makes a routing claim a one-way, claim-once
// operation at the database level.
type RoutedMaterial struct {
	ID              uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ChangeRequestID uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_cr_material_claim" json:"change_request_id"`
	MaterialName    string      `gorm:"type:varchar(255);not null;uniqueIndex:idx_cr_material_claim" json:"material_name"`
	Routing         RoutingType `gorm:"type:varchar(10);not null" json:"routing"`
	POChildID       uuid.UUID   `gorm:"type:uuid;not null;index" json:"po_child_id"`
	RoutedBy        *uuid.UUID  `gorm:"type:uuid" json:"routed_by"`
	RoutedAt        time.Time   `gorm:"autoCreateTime" json:"routed_at"`
}
