package handler

import (
	"errors"
	"net/http"

	"backend/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// statusForError maps workflow errors onto HTTP status codes. Anything
// unmapped is treated as a bad request rather than leaking a 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAlreadyRouted),
		errors.Is(err, service.ErrAlreadyDecided):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrVendorNotApproved),
		errors.Is(err, service.ErrChildrenOutstanding),
		errors.Is(err, service.ErrReturnNotActionable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrVendorPricingMissing):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

func actorID(c *gin.Context) string {
	v, _ := c.Get("userID")
	s, _ := v.(string)
	return s
}
