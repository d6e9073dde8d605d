package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateVendorRequest struct {
	Name          string `json:"name" binding:"required"`
	ContactPerson string `json:"contact_person"`
	Email         string `json:"email" binding:"omitempty,email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
}

type SetVendorPriceRequest struct {
	MaterialName string `json:"material_name" binding:"required"`
	UnitPrice    string `json:"unit_price" binding:"required"`
	Unit         string `json:"unit" binding:"required"`
	ValidUntil   string `json:"valid_until"` // RFC3339, optional
}

// VendorService manages the supplier registry and quoted prices.
type VendorService interface {
	Create(ctx context.Context, req CreateVendorRequest) (*model.Vendor, error)
	Get(ctx context.Context, id string) (*model.Vendor, error)
	List(ctx context.Context, page, limit int) ([]model.Vendor, int64, error)
	SetPrice(ctx context.Context, vendorID string, req SetVendorPriceRequest) (*model.VendorPrice, error)
}

type vendorService struct {
	repo repository.VendorRepository
}

func NewVendorService(repo repository.VendorRepository) VendorService {
	return &vendorService{repo: repo}
}

func (s *vendorService) Create(ctx context.Context, req CreateVendorRequest) (*model.Vendor, error) {
	vendor := &model.Vendor{
		Name:          req.Name,
		ContactPerson: req.ContactPerson,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		Active:        true,
	}
	if err := s.repo.Create(ctx, vendor); err != nil {
		return nil, fmt.Errorf("failed to create vendor: %w", err)
	}
	return vendor, nil
}

func (s *vendorService) Get(ctx context.Context, id string) (*model.Vendor, error) {
	vendorID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid vendor id: %w", err)
	}
	vendor, err := s.repo.FindByID(ctx, vendorID)
	if err != nil {
		return nil, errors.New("vendor not found")
	}
	return vendor, nil
}

func (s *vendorService) List(ctx context.Context, page, limit int) ([]model.Vendor, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.repo.List(ctx, page, limit)
}

func (s *vendorService) SetPrice(ctx context.Context, vendorID string, req SetVendorPriceRequest) (*model.VendorPrice, error) {
	id, err := uuid.Parse(vendorID)
	if err != nil {
		return nil, fmt.Errorf("invalid vendor id: %w", err)
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, errors.New("vendor not found")
	}

	unitPrice, err := decimal.NewFromString(req.UnitPrice)
	if err != nil || unitPrice.LessThan(decimal.Zero) {
		return nil, fmt.Errorf("invalid unit price %q", req.UnitPrice)
	}

	var validUntil *time.Time
	if req.ValidUntil != "" {
		t, parseErr := time.Parse(time.RFC3339, req.ValidUntil)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid valid_until: %w", parseErr)
		}
		validUntil = &t
	}

	// Upsert on (vendor_id, material_name): reuse the row id when the
	// material already has a quote.
	price := &model.VendorPrice{
		VendorID:     id,
		MaterialName: req.MaterialName,
		UnitPrice:    unitPrice,
		Unit:         req.Unit,
		ValidUntil:   validUntil,
	}
	if existing, findErr := s.repo.FindPrice(ctx, id, req.MaterialName); findErr == nil {
		price.ID = existing.ID
	} else if !errors.Is(findErr, gorm.ErrRecordNotFound) {
		return nil, findErr
	}
	if err := s.repo.UpsertPrice(ctx, price); err != nil {
		return nil, fmt.Errorf("failed to save vendor price: %w", err)
	}
	return price, nil
}
