package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChangeRequestRepository interface {
	Create(ctx context.Context, cr *model.ChangeRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ChangeRequest, error)
	FindByIDWithMaterials(ctx context.Context, id uuid.UUID) (*model.ChangeRequest, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.ChangeRequest, error)
	List(ctx context.Context, status model.CRStatus, page, limit int) ([]model.ChangeRequest, int64, error)
	Update(ctx context.Context, cr *model.ChangeRequest) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.CRStatus) error
	NextCRNumber(ctx context.Context) (int64, error)
}

type changeRequestRepository struct {
	db *gorm.DB
}

func NewChangeRequestRepository(db *gorm.DB) ChangeRequestRepository {
	return &changeRequestRepository{db: db}
}

func (r *changeRequestRepository) Create(ctx context.Context, cr *model.ChangeRequest) error {
	return GetDB(ctx, r.db).Create(cr).Error
}

func (r *changeRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ChangeRequest, error) {
	var cr model.ChangeRequest
	if err := GetDB(ctx, r.db).First(&cr, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cr, nil
}

func (r *changeRequestRepository) FindByIDWithMaterials(ctx context.Context, id uuid.UUID) (*model.ChangeRequest, error) {
	var cr model.ChangeRequest
	if err := GetDB(ctx, r.db).
		Preload("Materials", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("RoutedMaterials").
		Preload("SelectedVendor").
		First(&cr, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cr, nil
}

// FindByIDForUpdate locks the CR row for the duration of the surrounding
// transaction. Routing calls serialize on this lock.
func (r *changeRequestRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.ChangeRequest, error) {
	var cr model.ChangeRequest
	if err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&cr, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cr, nil
}

func (r *changeRequestRepository) List(ctx context.Context, status model.CRStatus, page, limit int) ([]model.ChangeRequest, int64, error) {
	var crs []model.ChangeRequest
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.ChangeRequest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := db.Preload("Materials").Preload("RoutedMaterials").Preload("SelectedVendor")
	if status != "" {
		fetchQuery = fetchQuery.Where("status = ?", status)
	}
	if err := fetchQuery.Order("created_at DESC").Offset(offset).Limit(limit).Find(&crs).Error; err != nil {
		return nil, 0, err
	}

	return crs, total, nil
}

func (r *changeRequestRepository) Update(ctx context.Context, cr *model.ChangeRequest) error {
	return GetDB(ctx, r.db).Save(cr).Error
}

func (r *changeRequestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.CRStatus) error {
	return GetDB(ctx, r.db).Model(&model.ChangeRequest{}).Where("id = ?", id).Update("status", status).Error
}

// NextCRNumber allocates the next PO-<n> display number. Serialized by
// an advisory lock so concurrent submissions never share a number.
func (r *changeRequestRepository) NextCRNumber(ctx context.Context) (int64, error) {
	db := GetDB(ctx, r.db)
	lockSequence(db, "cr_number_seq")

	var max int64
	if err := db.Model(&model.ChangeRequest{}).
		Unscoped().
		Select("COALESCE(MAX(cr_number), 0)").
		Scan(&max).Error; err != nil {
		return 0, err
	}
	return max + 1, nil
}
