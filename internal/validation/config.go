// Package validation provides centralized input validation for groups and
// user-group mappings. All rules are pure functions over in-memory data; no
// validator touches the database.
package validation

// Limits holds every named validation and batch ceiling in one place.
// The engine receives a *Limits at construction so tests can override
// individual ceilings without touching package state.
type Limits struct {
	// Group name length bounds, in runes.
	MinGroupNameLength int
	MaxGroupNameLength int

	// Free-text field ceilings, in runes.
	MaxDescriptionLength int
	MaxNotesLength       int

	// Pagination and search.
	MaxPageLimit       int // upper bound for list limits (0 in a request means "no limit")
	MaxSearchLimit     int
	DefaultSearchLimit int

	// Batch ceilings. Mapping creates allow larger batches than updates
	// because the relation table is expected to outgrow the group table.
	MaxBulkMappingCreate int
	MaxBulkUpdate        int
}

// DefaultLimits returns the production validation configuration.
func DefaultLimits() *Limits {
	return &Limits{
		MinGroupNameLength:   2,
		MaxGroupNameLength:   100,
		MaxDescriptionLength: 500,
		MaxNotesLength:       500,

		MaxPageLimit:       1000,
		MaxSearchLimit:     1000,
		DefaultSearchLimit: 50,

		MaxBulkMappingCreate: 1000,
		MaxBulkUpdate:        100,
	}
}
