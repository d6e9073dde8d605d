package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InspectionIteration is one node of the re-attempt tree rooted at a CR.
// The suffix chain (".1", ".1.1", ".2", ...) is allocated exactly once
// and never reassigned, even if the spawned attempt is cancelled later.
type InspectionIteration struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ChangeRequestID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cr_iteration_suffix" json:"change_request_id"`
	Suffix          string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_cr_iteration_suffix" json:"suffix"`

	ParentIterationID *uuid.UUID           `gorm:"type:uuid;index" json:"parent_iteration_id"`
	ParentIteration   *InspectionIteration `gorm:"foreignKey:ParentIterationID" json:"-"`

	InspectionID    *uuid.UUID `gorm:"type:uuid;index" json:"inspection_id"`     // inspection that triggered this attempt
	ReturnRequestID *uuid.UUID `gorm:"type:uuid;index" json:"return_request_id"` // return request that spawned it
	VendorID        *uuid.UUID `gorm:"type:uuid" json:"vendor_id"`               // vendor fulfilling the attempt
	POChildID       *uuid.UUID `gorm:"type:uuid" json:"po_child_id"`             // sub-order issued for the attempt

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
