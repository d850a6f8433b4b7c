package matching

import (
	"context"

	"dorm-allocation-backend/internal/store"
)

// GenderGuard enforces single-gender occupancy per dormitory room.
type GenderGuard struct {
	store store.Store
}

// NewGenderGuard creates a guard backed by the given store.
func NewGenderGuard(s store.Store) *GenderGuard {
	return &GenderGuard{store: s}
}

// IsCompatible reports whether a candidate of the given gender may be
// assigned into the dormitory. An empty room is compatible with any
// gender; a room with any ACTIVE occupant of a different gender is not.
func (g *GenderGuard) IsCompatible(ctx context.Context, dormitoryID, gender string) (bool, error) {
	dorm, err := g.store.GetDormitory(ctx, dormitoryID)
	if err != nil {
		return false, &PersistenceError{Op: "fetch dormitory", Err: err}
	}
	if dorm == nil {
		return false, &NotFoundError{Kind: "dormitory", ID: dormitoryID}
	}

	allocs, err := g.store.ListActiveAllocationsByDorm(ctx, dormitoryID)
	if err != nil {
		return false, &PersistenceError{Op: "list active allocations", Err: err}
	}
	if len(allocs) == 0 {
		return true, nil
	}

	for _, alloc := range allocs {
		occupant, err := g.store.GetStudent(ctx, alloc.StudentID)
		if err != nil {
			return false, &PersistenceError{Op: "fetch occupant", Err: err}
		}
		if occupant != nil && occupant.Gender != gender {
			return false, nil
		}
	}
	return true, nil
}
