package repository

import (
	"context"
	"errors"
	"testing"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-memory sqlite database and creates the tables
// under test by hand: the models carry postgres column defaults that
// sqlite cannot evaluate, so tests assign ids themselves. Pool size is
// pinned to one connection or every pooled connection would see its own
// empty :memory: database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	stmts := []string{
		`CREATE TABLE routed_materials (
			id text PRIMARY KEY,
			change_request_id text NOT NULL,
			material_name text NOT NULL,
			routing text NOT NULL,
			po_child_id text NOT NULL,
			routed_by text,
			routed_at datetime,
			UNIQUE (change_request_id, material_name)
		)`,
		`CREATE TABLE po_children (
			id text PRIMARY KEY,
			change_request_id text NOT NULL,
			suffix text NOT NULL,
			routing_type text NOT NULL,
			vendor_id text,
			vendor_selection_status text,
			status text,
			created_by text,
			created_at datetime,
			updated_at datetime,
			deleted_at datetime,
			UNIQUE (change_request_id, suffix)
		)`,
		`CREATE TABLE inspection_iterations (
			id text PRIMARY KEY,
			change_request_id text NOT NULL,
			suffix text NOT NULL,
			parent_iteration_id text,
			inspection_id text,
			return_request_id text,
			vendor_id text,
			po_child_id text,
			created_at datetime,
			updated_at datetime,
			deleted_at datetime,
			UNIQUE (change_request_id, suffix)
		)`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("failed to create table: %v", err)
		}
	}
	return db
}

func TestClaimEnforcesUniqueness(t *testing.T) {
	db := newTestDB(t)
	repo := NewRoutedMaterialRepository(db)
	ctx := context.Background()

	crID := uuid.New()

	first := &model.RoutedMaterial{
		ID:              uuid.New(),
		ChangeRequestID: crID,
		MaterialName:    "cement 42.5",
		Routing:         model.RoutingVendor,
		POChildID:       uuid.New(),
	}
	if err := repo.Claim(ctx, first); err != nil {
		t.Fatalf("first Claim() error: %v", err)
	}

	dup := &model.RoutedMaterial{
		ID:              uuid.New(),
		ChangeRequestID: crID,
		MaterialName:    "cement 42.5",
		Routing:         model.RoutingStore,
		POChildID:       uuid.New(),
	}
	if err := repo.Claim(ctx, dup); !errors.Is(err, ErrMaterialClaimed) {
		t.Fatalf("duplicate Claim() error = %v, want ErrMaterialClaimed", err)
	}

	other := &model.RoutedMaterial{
		ID:              uuid.New(),
		ChangeRequestID: crID,
		MaterialName:    "rebar 12mm",
		Routing:         model.RoutingStore,
		POChildID:       uuid.New(),
	}
	if err := repo.Claim(ctx, other); err != nil {
		t.Fatalf("different material Claim() error: %v", err)
	}

	sameNameOtherCR := &model.RoutedMaterial{
		ID:              uuid.New(),
		ChangeRequestID: uuid.New(),
		MaterialName:    "cement 42.5",
		Routing:         model.RoutingVendor,
		POChildID:       uuid.New(),
	}
	if err := repo.Claim(ctx, sameNameOtherCR); err != nil {
		t.Fatalf("other CR Claim() error: %v", err)
	}

	rows, err := repo.ListByChangeRequest(ctx, crID)
	if err != nil {
		t.Fatalf("ListByChangeRequest() error: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("ledger has %d rows for the CR, want 2", len(rows))
	}
}

func TestNextSuffixNeverReuses(t *testing.T) {
	db := newTestDB(t)
	repo := NewPOChildRepository(db)
	ctx := context.Background()

	crID := uuid.New()

	suffix, err := repo.NextSuffix(ctx, crID)
	if err != nil {
		t.Fatalf("NextSuffix() error: %v", err)
	}
	if suffix != ".1" {
		t.Fatalf("first suffix = %s, want .1", suffix)
	}

	child := &model.POChild{
		ID:              uuid.New(),
		ChangeRequestID: crID,
		Suffix:          suffix,
		RoutingType:     model.RoutingVendor,
		Status:          model.POChildStatusOpen,
	}
	if err := repo.Create(ctx, child); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	suffix, err = repo.NextSuffix(ctx, crID)
	if err != nil {
		t.Fatalf("NextSuffix() error: %v", err)
	}
	if suffix != ".2" {
		t.Fatalf("second suffix = %s, want .2", suffix)
	}

	// A cancelled and soft-deleted child must still hold its number.
	if err := db.Delete(child).Error; err != nil {
		t.Fatalf("soft delete error: %v", err)
	}
	suffix, err = repo.NextSuffix(ctx, crID)
	if err != nil {
		t.Fatalf("NextSuffix() after delete error: %v", err)
	}
	if suffix != ".2" {
		t.Errorf("suffix after soft delete = %s, want .2", suffix)
	}
}

func TestIterationAllocateSuffixChain(t *testing.T) {
	db := newTestDB(t)
	repo := NewIterationRepository(db)
	ctx := context.Background()

	crID := uuid.New()

	root1 := &model.InspectionIteration{ID: uuid.New(), ChangeRequestID: crID}
	if err := repo.Allocate(ctx, root1); err != nil {
		t.Fatalf("Allocate() error: %v", err)
	}
	if root1.Suffix != ".1" {
		t.Fatalf("first root suffix = %s, want .1", root1.Suffix)
	}

	root2 := &model.InspectionIteration{ID: uuid.New(), ChangeRequestID: crID}
	if err := repo.Allocate(ctx, root2); err != nil {
		t.Fatalf("Allocate() error: %v", err)
	}
	if root2.Suffix != ".2" {
		t.Fatalf("second root suffix = %s, want .2", root2.Suffix)
	}

	child := &model.InspectionIteration{
		ID:                uuid.New(),
		ChangeRequestID:   crID,
		ParentIterationID: &root1.ID,
	}
	if err := repo.Allocate(ctx, child); err != nil {
		t.Fatalf("Allocate() child error: %v", err)
	}
	if child.Suffix != ".1.1" {
		t.Fatalf("child suffix = %s, want .1.1", child.Suffix)
	}

	grandchild := &model.InspectionIteration{
		ID:                uuid.New(),
		ChangeRequestID:   crID,
		ParentIterationID: &child.ID,
	}
	if err := repo.Allocate(ctx, grandchild); err != nil {
		t.Fatalf("Allocate() grandchild error: %v", err)
	}
	if grandchild.Suffix != ".1.1.1" {
		t.Fatalf("grandchild suffix = %s, want .1.1.1", grandchild.Suffix)
	}

	nodes, err := repo.ListByChangeRequest(ctx, crID)
	if err != nil {
		t.Fatalf("ListByChangeRequest() error: %v", err)
	}
	if len(nodes) != 4 {
		t.Errorf("tree has %d nodes, want 4", len(nodes))
	}

	missingParent := uuid.New()
	orphan := &model.InspectionIteration{
		ID:                uuid.New(),
		ChangeRequestID:   crID,
		ParentIterationID: &missingParent,
	}
	if err := repo.Allocate(ctx, orphan); err == nil {
		t.Error("expected error for missing parent iteration")
	}
}
