// Package clinic provides clinic-level database scoping for GORM.
//
// Every clinic-owned table carries a clinic_id column. Repositories apply
// Scope on each query so rows belonging to other clinics are never read,
// updated or deleted, and a missing clinic ID fails the query instead of
// silently widening it.
//
// Usage:
//
//	db.Scopes(clinic.Scope(clinicID)).Find(&invoices)
package clinic

import (
	"context"
	"errors"

	"github.com/clinicore/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrClinicIDRequired is returned when a query is scoped with a nil clinic ID.
var ErrClinicIDRequired = errors.New("clinic_id is required but was not provided")

// ErrInvalidClinicID is returned when a clinic ID string is not a valid UUID.
var ErrInvalidClinicID = errors.New("invalid clinic_id format")

// Scope restricts a GORM query to a single clinic. A nil clinic ID poisons
// the query with ErrClinicIDRequired rather than returning unscoped rows.
func Scope(clinicID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if clinicID == uuid.Nil {
			_ = db.AddError(ErrClinicIDRequired)
			return db
		}
		return db.Where("clinic_id = ?", clinicID)
	}
}

// ScopeString restricts a GORM query to a single clinic given a string ID.
// The ID must be a valid UUID.
func ScopeString(clinicID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if clinicID == "" {
			_ = db.AddError(ErrClinicIDRequired)
			return db
		}
		if _, err := uuid.Parse(clinicID); err != nil {
			_ = db.AddError(ErrInvalidClinicID)
			return db
		}
		return db.Where("clinic_id = ?", clinicID)
	}
}

// FromContext restricts a GORM query to the clinic recorded in the request
// context by the auth middleware. Requests that never passed authentication
// carry no clinic ID and fail with ErrClinicIDRequired.
func FromContext(ctx context.Context) func(db *gorm.DB) *gorm.DB {
	return ScopeString(logger.GetClinicID(ctx))
}
