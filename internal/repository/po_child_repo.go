package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type POChildRepository interface {
	Create(ctx context.Context, child *model.POChild) error
	CreateMaterial(ctx context.Context, mat *model.POChildMaterial) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.POChild, error)
	FindStoreChild(ctx context.Context, crID uuid.UUID) (*model.POChild, error)
	ListByChangeRequest(ctx context.Context, crID uuid.UUID) ([]model.POChild, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.POChildStatus) error
	NextSuffix(ctx context.Context, crID uuid.UUID) (string, error)
}

type poChildRepository struct {
	db *gorm.DB
}

func NewPOChildRepository(db *gorm.DB) POChildRepository {
	return &poChildRepository{db: db}
}

func (r *poChildRepository) Create(ctx context.Context, child *model.POChild) error {
	return GetDB(ctx, r.db).Create(child).Error
}

func (r *poChildRepository) CreateMaterial(ctx context.Context, mat *model.POChildMaterial) error {
	return GetDB(ctx, r.db).Create(mat).Error
}

func (r *poChildRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.POChild, error) {
	var child model.POChild
	if err := GetDB(ctx, r.db).Preload("Materials").Preload("Vendor").First(&child, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &child, nil
}

// FindStoreChild returns the CR's single store-routed child, or
// gorm.ErrRecordNotFound when no store routing happened yet.
func (r *poChildRepository) FindStoreChild(ctx context.Context, crID uuid.UUID) (*model.POChild, error) {
	var child model.POChild
	if err := GetDB(ctx, r.db).
		Preload("Materials").
		First(&child, "change_request_id = ? AND routing_type = ?", crID, model.RoutingStore).Error; err != nil {
		return nil, err
	}
	return &child, nil
}

func (r *poChildRepository) ListByChangeRequest(ctx context.Context, crID uuid.UUID) ([]model.POChild, error) {
	var children []model.POChild
	if err := GetDB(ctx, r.db).
		Preload("Materials").
		Preload("Vendor").
		Where("change_request_id = ?", crID).
		Order("created_at ASC").
		Find(&children).Error; err != nil {
		return nil, err
	}
	return children, nil
}

func (r *poChildRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.POChildStatus) error {
	return GetDB(ctx, r.db).Model(&model.POChild{}).Where("id = ?", id).Update("status", status).Error
}

// NextSuffix allocates the next ".<n>" suffix for a CR. The scan is
// serialized per CR by an advisory lock and includes soft-deleted
// children so a suffix is never reused.
func (r *poChildRepository) NextSuffix(ctx context.Context, crID uuid.UUID) (string, error) {
	db := GetDB(ctx, r.db)
	lockSequence(db, "po_child_suffix:"+crID.String())

	var suffixes []string
	if err := db.Model(&model.POChild{}).
		Unscoped().
		Where("change_request_id = ?", crID).
		Pluck("suffix", &suffixes).Error; err != nil {
		return "", err
	}

	max := 0
	for _, s := range suffixes {
		n, err := strconv.Atoi(strings.TrimPrefix(s, "."))
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}

	return fmt.Sprintf(".%d", max+1), nil
}
