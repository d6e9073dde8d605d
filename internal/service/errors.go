package service

import "errors"

// Error taxonomy for the CR workflow. Handlers map these to HTTP status
// codes with errors.Is; conflict and precondition failures are retryable
// with adjusted input, validation failures are not.
var (
	// validation
	ErrEmptyMaterialList = errors.New("material list is empty")
	ErrLineConservation  = errors.New("accepted + rejected must equal ordered quantity")
	ErrInvalidResolution = errors.New("invalid resolution type")

	// conflict
	ErrAlreadyRouted  = errors.New("one or more materials already routed")
	ErrAlreadyDecided = errors.New("decision already recorded with a different outcome")

	// precondition / state machine
	ErrInvalidState         = errors.New("operation not allowed in current state")
	ErrVendorNotApproved    = errors.New("vendor selection has not been TD-approved")
	ErrChildrenOutstanding  = errors.New("sub-orders still outstanding")
	ErrNoRejectedMaterials  = errors.New("inspection has no rejected materials")
	ErrReturnNotActionable  = errors.New("return request is not in an actionable state")

	// external dependency
	ErrMaterialNotFound     = errors.New("material not found on change request")
	ErrInsufficientStock    = errors.New("insufficient stock for requested quantity")
	ErrVendorPricingMissing = errors.New("vendor has no price for material")
)
