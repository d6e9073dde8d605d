package repository

import (
	"context"
	"fmt"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type IterationRepository interface {
	Allocate(ctx context.Context, node *model.InspectionIteration) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.InspectionIteration, error)
	FindBySpawningInspection(ctx context.Context, inspectionID uuid.UUID) (*model.InspectionIteration, error)
	ListByChangeRequest(ctx context.Context, crID uuid.UUID) ([]model.InspectionIteration, error)
	Update(ctx context.Context, node *model.InspectionIteration) error
}

type iterationRepository struct {
	db *gorm.DB
}

func NewIterationRepository(db *gorm.DB) IterationRepository {
	return &iterationRepository{db: db}
}

// Allocate fills in the node's suffix and persists it. Sibling counting
// is serialized per parent (or per CR at the root) by an advisory lock
// inside the caller's transaction, so the suffix and the resolution's
// first side effect commit or roll back together. Soft-deleted siblings
// still count: a suffix is never reassigned.
func (r *iterationRepository) Allocate(ctx context.Context, node *model.InspectionIteration) error {
	db := GetDB(ctx, r.db)

	lockKey := "iteration_suffix:" + node.ChangeRequestID.String()
	parentSuffix := ""
	query := db.Model(&model.InspectionIteration{}).
		Unscoped().
		Where("change_request_id = ?", node.ChangeRequestID)

	if node.ParentIterationID != nil {
		var parent model.InspectionIteration
		if err := db.First(&parent, "id = ?", *node.ParentIterationID).Error; err != nil {
			return fmt.Errorf("parent iteration not found: %w", err)
		}
		parentSuffix = parent.Suffix
		lockKey = "iteration_suffix:" + parent.ID.String()
		query = query.Where("parent_iteration_id = ?", *node.ParentIterationID)
	} else {
		query = query.Where("parent_iteration_id IS NULL")
	}

	lockSequence(db, lockKey)

	var siblings int64
	if err := query.Count(&siblings).Error; err != nil {
		return err
	}

	node.Suffix = fmt.Sprintf("%s.%d", parentSuffix, siblings+1)
	return db.Create(node).Error
}

func (r *iterationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.InspectionIteration, error) {
	var node model.InspectionIteration
	if err := GetDB(ctx, r.db).First(&node, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &node, nil
}

// FindBySpawningInspection returns the iteration node created from a
// given inspection's rejection, if one exists.
func (r *iterationRepository) FindBySpawningInspection(ctx context.Context, inspectionID uuid.UUID) (*model.InspectionIteration, error) {
	var node model.InspectionIteration
	if err := GetDB(ctx, r.db).First(&node, "inspection_id = ?", inspectionID).Error; err != nil {
		return nil, err
	}
	return &node, nil
}

func (r *iterationRepository) ListByChangeRequest(ctx context.Context, crID uuid.UUID) ([]model.InspectionIteration, error) {
	var nodes []model.InspectionIteration
	if err := GetDB(ctx, r.db).
		Where("change_request_id = ?", crID).
		Order("created_at ASC").
		Find(&nodes).Error; err != nil {
		return nil, err
	}
	return nodes, nil
}

func (r *iterationRepository) Update(ctx context.Context, node *model.InspectionIteration) error {
	return GetDB(ctx, r.db).Save(node).Error
}
