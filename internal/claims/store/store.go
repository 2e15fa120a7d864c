// Package store persists the single claims cache slot.
//
// Each backend holds at most one CacheEntry per slot, mirroring the single
// local-storage key the session manager reads on sign-in.
//
// Error Contract:
//   - Load returns sentinel.ErrNotFound when the slot is empty
//   - Save returns sentinel.ErrStaleWrite when the entry is for the stored subject
//     but carries an older timestamp; the stored entry is left unchanged
//   - Save returns sentinel.ErrInvalidState for a nil entry or nil claims
//   - infrastructure failures are wrapped with context
package store

import (
	"fmt"

	"coursegate/internal/claims/models"
	"coursegate/pkg/platform/sentinel"
)

// DefaultSlot is the slot name used when a store is constructed without one.
const DefaultSlot = "default"

func validateEntry(entry *models.CacheEntry) error {
	if entry == nil || entry.Claims == nil {
		return fmt.Errorf("claims cache entry is required: %w", sentinel.ErrInvalidState)
	}
	if entry.SubjectID.IsNil() {
		return fmt.Errorf("claims cache entry subject is required: %w", sentinel.ErrInvalidState)
	}
	return nil
}

// checkMonotonic enforces that a subject's timestamp never moves backwards.
// A different subject always replaces the stored entry.
func checkMonotonic(existing, next *models.CacheEntry) error {
	if existing == nil || existing.SubjectID != next.SubjectID {
		return nil
	}
	if next.Timestamp.Before(existing.Timestamp) {
		return fmt.Errorf("claims entry for %s older than stored entry: %w", next.SubjectID, sentinel.ErrStaleWrite)
	}
	return nil
}

func cloneEntry(entry *models.CacheEntry) *models.CacheEntry {
	out := *entry
	out.Claims = entry.Claims.Clone()
	return &out
}
