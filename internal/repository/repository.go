// Package repository holds the storage contracts used by the services and
// their gorm implementations.
package repository

import (
	"errors"

	"gorm.io/gorm"

	"pharma-crm-server/internal/models"
	"pharma-crm-server/internal/policy"
)

var (
	// ErrNotFound is returned when a lookup by id matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a unique index.
	ErrDuplicate = errors.New("duplicate record")
	// ErrInUse is returned when a delete is blocked by rows referencing it.
	ErrInUse = errors.New("record is referenced by other records")
)

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrInUse
	}
	return err
}

// ownedBy narrows a query on an owned table to the scope's owner.
func ownedBy(q *gorm.DB, scope policy.Scope) *gorm.DB {
	if scope.Unrestricted() {
		return q
	}
	return q.Where("owner_id = ?", *scope.OwnerID)
}

// Coverage selects the doctors a dashboard measures. The zero value selects
// every doctor.
type Coverage struct {
	// RepresentativeID selects the doctors under the representative's active assignments.
	RepresentativeID string
	// OwnerID selects the doctors the user owns.
	OwnerID string
}

// coveredDoctors returns a subquery of the selected doctor ids, or nil when
// every doctor is selected.
func coveredDoctors(db *gorm.DB, c Coverage) *gorm.DB {
	switch {
	case c.RepresentativeID != "":
		return db.Model(&models.Assignment{}).
			Select("doctor_id").
			Where("representative_id = ? AND active = ?", c.RepresentativeID, true)
	case c.OwnerID != "":
		return db.Model(&models.Doctor{}).Select("id").Where("owner_id = ?", c.OwnerID)
	}
	return nil
}
