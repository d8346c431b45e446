// This file contains the user-group Mapping entity (the many-to-many join row)
// and its patch/filter companions.
package models

import "time"

// Mapping represents a single user-to-group association row.
// At most one row may exist per (user_id, group_id) pair at any time,
// including inactive rows; reactivation is the path to re-enable a disabled
// association, never a second row.
//
// Database: user_group_mapper table
type Mapping struct {
	ID        int       `json:"id" db:"id"`             // Primary key, auto-increment
	UserID    int       `json:"user_id" db:"user_id"`   // Externally owned user reference, positive
	GroupID   int       `json:"group_id" db:"group_id"` // Foreign key to user_groups
	IsActive  bool      `json:"is_active" db:"is_active"`
	Notes     string    `json:"notes" db:"notes"` // Optional free-form notes
	CreatedBy string    `json:"created_by" db:"created_by"`
	UpdatedBy string    `json:"updated_by" db:"updated_by"`
	CreatedOn time.Time `json:"created_on" db:"created_on"`
	UpdatedOn time.Time `json:"updated_on" db:"updated_on"`
}

// MappingInput carries the fields accepted when creating a mapping.
type MappingInput struct {
	UserID    int    `json:"user_id"`
	GroupID   int    `json:"group_id"`
	IsActive  *bool  `json:"is_active,omitempty"` // nil defaults to true
	Notes     string `json:"notes,omitempty"`
	CreatedBy string `json:"created_by,omitempty"`
}

// MappingPatch carries the allow-listed updatable fields for a mapping.
// A nil field means "leave unchanged". user_id and group_id are immutable:
// moving a user between groups is a deactivate + activate, not an update.
type MappingPatch struct {
	IsActive  *bool   `json:"is_active,omitempty"`
	Notes     *string `json:"notes,omitempty"`
	UpdatedBy *string `json:"updated_by,omitempty"`
}

// IsEmpty reports whether the patch carries no fields at all.
func (p MappingPatch) IsEmpty() bool {
	return p.IsActive == nil && p.Notes == nil && p.UpdatedBy == nil
}

// MappingFilter narrows mapping list queries. Nil fields apply no predicate.
type MappingFilter struct {
	UserID    *int
	GroupID   *int
	IsActive  *bool
	CreatedBy *string
}

// MappingWithGroup is a mapping row joined with denormalized group fields for
// display purposes.
type MappingWithGroup struct {
	Mapping
	GroupName        string `json:"group_name" db:"group_name"`
	GroupDescription string `json:"group_description" db:"group_description"`
	GroupIsActive    bool   `json:"group_is_active" db:"group_is_active"`
}

// MappingUpdateItem is one entry of a bulk mapping update batch.
type MappingUpdateItem struct {
	MappingID int          `json:"mapping_id"`
	Data      MappingPatch `json:"data"`
}
