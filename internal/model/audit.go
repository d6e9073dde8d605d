package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionSubmitChangeRequest = "SUBMIT_CHANGE_REQUEST"
	ActionAssignPM            = "ASSIGN_PROJECT_MANAGER"
	ActionPMApprove           = "PM_APPROVE"
	ActionAssignBuyer         = "ASSIGN_BUYER"
	ActionPriceMaterials      = "PRICE_MATERIALS"
	ActionSelectVendor        = "SELECT_VENDOR"
	ActionTDDecideVendor      = "TD_DECIDE_VENDOR"
	ActionDispatchPO          = "DISPATCH_PO"
	ActionRejectCR            = "REJECT_CHANGE_REQUEST"
	ActionCompletePurchase    = "COMPLETE_PURCHASE"

	ActionRouteMaterials  = "ROUTE_MATERIALS"
	ActionCreatePOChild   = "CREATE_PO_CHILD"
	ActionRecordInspect   = "RECORD_INSPECTION"
	ActionCreateReturnReq = "CREATE_RETURN_REQUEST"
	ActionTDDecideReturn  = "TD_DECIDE_RETURN"
	ActionResolveReturn   = "RESOLVE_RETURN"
	ActionSpawnIteration  = "SPAWN_ITERATION"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated bot
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
