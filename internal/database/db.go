package database

import (
	"log"

	"backend/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Vendor{},
		&model.VendorPrice{},
		&model.StockItem{},
		&model.CatalogItem{},
		&model.ChangeRequest{},
		&model.ChangeRequestMaterial{},
		&model.RoutedMaterial{},
		&model.POChild{},
		&model.POChildMaterial{},
		&model.VendorDeliveryInspection{},
		&model.InspectionMaterial{},
		&model.VendorReturnRequest{},
		&model.ReturnRequestMaterial{},
		&model.InspectionIteration{},
		&model.AuditLog{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}
