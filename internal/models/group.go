// Package models defines data structures for the GroupMapper service.
// This file contains the Group entity and its patch/filter companions.
package models

import "time"

// Group represents a named collection entity that users can be associated
// with via user_group_mapper rows.
//
// Database: user_groups table
type Group struct {
	ID          int       `json:"id" db:"id"`                   // Primary key, auto-increment
	Name        string    `json:"group_name" db:"group_name"`   // Unique across active and inactive groups
	Description string    `json:"description" db:"description"` // Required, non-empty after trim
	IsActive    bool      `json:"is_active" db:"is_active"`     // Soft-delete flag
	CreatedBy   string    `json:"created_by" db:"created_by"`   // Opaque creator reference, owned externally
	UpdatedBy   string    `json:"updated_by" db:"updated_by"`   // Opaque updater reference
	CreatedOn   time.Time `json:"created_on" db:"created_on"`
	UpdatedOn   time.Time `json:"updated_on" db:"updated_on"`
}

// GroupInput carries the fields accepted when creating a group.
type GroupInput struct {
	Name        string `json:"group_name"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active,omitempty"` // nil defaults to true
	CreatedBy   string `json:"created_by,omitempty"`
}

// GroupPatch carries the allow-listed updatable fields for a group.
// A nil field means "leave unchanged", distinct from an explicit empty value.
// Unknown JSON keys are dropped by decoding, not treated as errors.
type GroupPatch struct {
	Name        *string `json:"group_name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
	UpdatedBy   *string `json:"updated_by,omitempty"`
}

// IsEmpty reports whether the patch carries no fields at all.
func (p GroupPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.IsActive == nil && p.UpdatedBy == nil
}

// GroupFilter narrows group list queries. Nil fields apply no predicate.
// Name and description matching belong to the search operation, not here.
type GroupFilter struct {
	IsActive      *bool
	CreatedBy     *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

// ScoredGroup is a group annotated with its search relevance score.
// Exact field matches score 2, substring matches score 1, summed per field.
type ScoredGroup struct {
	Group
	RelevanceScore int `json:"relevance_score"`
}

// GroupUpdateItem is one entry of a bulk group update batch.
type GroupUpdateItem struct {
	GroupID int        `json:"group_id"`
	Data    GroupPatch `json:"data"`
}
