package repository

import (
	"context"
	"errors"
	"strings"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrMaterialClaimed is returned when a routing claim loses the
// uniqueness race on (change_request_id, material_name).
var ErrMaterialClaimed = errors.New("material already claimed")

type RoutedMaterialRepository interface {
	Claim(ctx context.Context, rm *model.RoutedMaterial) error
	ListByChangeRequest(ctx context.Context, crID uuid.UUID) ([]model.RoutedMaterial, error)
}

type routedMaterialRepository struct {
	db *gorm.DB
}

func NewRoutedMaterialRepository(db *gorm.DB) RoutedMaterialRepository {
	return &routedMaterialRepository{db: db}
}

// Claim appends one ledger row. The unique index enforces claim-once;
// a duplicate insert surfaces as ErrMaterialClaimed.
func (r *routedMaterialRepository) Claim(ctx context.Context, rm *model.RoutedMaterial) error {
	if err := GetDB(ctx, r.db).Create(rm).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			return ErrMaterialClaimed
		}
		return err
	}
	return nil
}

func (r *routedMaterialRepository) ListByChangeRequest(ctx context.Context, crID uuid.UUID) ([]model.RoutedMaterial, error) {
	var rows []model.RoutedMaterial
	if err := GetDB(ctx, r.db).
		Where("change_request_id = ?", crID).
		Order("routed_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// isUniqueViolation matches the driver error texts for unique-constraint
// failures (postgres 23505, sqlite "UNIQUE constraint failed").
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
