package services

import (
	"context"
	"errors"

	"github.com/localnerve/sqcb-service/internal/models"
	"github.com/localnerve/sqcb-service/internal/types"
	"gorm.io/gorm"
)

// LookupStatus is the outcome of a reference lookup
type LookupStatus int

const (
	NotFound LookupStatus = iota
	Found
	LookupFailed
)

func (s LookupStatus) String() string {
	switch s {
	case Found:
		return "found"
	case LookupFailed:
		return "error"
	default:
		return "not found"
	}
}

// LookupResult keeps genuine absence apart from database failure
type LookupResult struct {
	Status LookupStatus
	Name   string
	Err    error
}

func lookupFrom(name string, err error) LookupResult {
	switch {
	case err == nil:
		return LookupResult{Status: Found, Name: name}
	case errors.Is(err, gorm.ErrRecordNotFound):
		return LookupResult{Status: NotFound}
	default:
		return LookupResult{Status: LookupFailed, Err: err}
	}
}

// SupplierExists resolves a supplier code to its name
func SupplierExists(ctx context.Context, db *gorm.DB, code string) LookupResult {
	var supplier models.Supplier
	err := db.WithContext(ctx).Where("supplier_code = ?", code).Take(&supplier).Error
	return lookupFrom(supplier.SupplierName, err)
}

// PlantExists reports whether a plant id is known
func PlantExists(ctx context.Context, db *gorm.DB, plantID string) LookupResult {
	var plant models.Plant
	err := db.WithContext(ctx).Where("plant_id = ?", plantID).Take(&plant).Error
	return lookupFrom(plant.PlantID, err)
}

// requireReference maps a lookup into the error taxonomy for a named input field
func requireReference(result LookupResult, field, value string) error {
	switch result.Status {
	case Found:
		return nil
	case LookupFailed:
		return types.NewPersistenceError("Failed to verify "+field, result.Err)
	default:
		return types.NewValidationError("%s '%s' does not exist", field, value)
	}
}

// GetSupplier returns one supplier by code
func GetSupplier(ctx context.Context, db *gorm.DB, code string) (*models.Supplier, error) {
	result := SupplierExists(ctx, db, code)
	switch result.Status {
	case Found:
		return &models.Supplier{SupplierCode: code, SupplierName: result.Name}, nil
	case LookupFailed:
		return nil, types.NewPersistenceError("Failed to load supplier", result.Err)
	default:
		return nil, types.NewNotFoundError("Supplier '%s' not found", code)
	}
}

// GetPart returns one part by part number
func GetPart(ctx context.Context, db *gorm.DB, partNumber string) (*models.Part, error) {
	var part models.Part
	err := db.WithContext(ctx).Where("part_number = ?", partNumber).Take(&part).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NewNotFoundError("Part '%s' not found", partNumber)
	}
	if err != nil {
		return nil, types.NewPersistenceError("Failed to load part", err)
	}
	return &part, nil
}
