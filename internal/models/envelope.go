// This file defines the uniform result envelopes returned by every engine
// operation: a success flag, the entity or entities involved, operation
// metadata, and a human-readable message. Single-item operations either return
// one of these fully populated or a typed error, never a partial result.
package models

import "time"

// Result is the common head of every operation envelope.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// OK builds a successful Result with the given message.
func OK(message string) Result {
	return Result{Success: true, Message: message}
}

// PageMeta describes one page of a list result. TotalCount is independent of
// limit/offset so callers can compute "has more" without a second query.
type PageMeta struct {
	TotalCount    int  `json:"total_count"`
	ReturnedCount int  `json:"returned_count"`
	Limit         int  `json:"limit"`  // 0 means no limit was applied
	Offset        int  `json:"offset"`
	HasMore       bool `json:"has_more"`
}

// NewPageMeta computes pagination metadata. The HasMore invariant lives here
// and only here: has_more == (offset + returned < total).
func NewPageMeta(total, returned, limit, offset int) PageMeta {
	return PageMeta{
		TotalCount:    total,
		ReturnedCount: returned,
		Limit:         limit,
		Offset:        offset,
		HasMore:       offset+returned < total,
	}
}

// FieldChange records one audited field mutation (old value -> new value).
type FieldChange struct {
	Field string `json:"field"`
	Old   any    `json:"old"`
	New   any    `json:"new"`
}

// GroupOpSummary summarizes a single-group operation for audit trails.
type GroupOpSummary struct {
	GroupID   int       `json:"group_id"`
	GroupName string    `json:"group_name"`
	IsActive  bool      `json:"is_active"`
	Timestamp time.Time `json:"timestamp"`
}

// GroupResult wraps a single-group operation outcome.
type GroupResult struct {
	Result
	Group    *Group          `json:"group"`
	Summary  *GroupOpSummary `json:"operation_summary,omitempty"`
	Metadata *GroupMetadata  `json:"metadata,omitempty"`
}

// GroupMetadata carries mapping-count figures attached to a group read.
type GroupMetadata struct {
	TotalMappings  int `json:"total_mappings"`
	ActiveMappings int `json:"active_mappings"`
}

// GroupListResult wraps a paginated group listing.
type GroupListResult struct {
	Result
	Groups []Group  `json:"groups"`
	Meta   PageMeta `json:"metadata"`
}

// GroupUpdateResult wraps a group update, including the audit diff of the
// fields that actually changed.
type GroupUpdateResult struct {
	Result
	Group   *Group        `json:"group"`
	Changes []FieldChange `json:"changes"`
}

// GroupDeleteResult wraps a group delete, reporting how many mapping rows
// were removed alongside the group.
type GroupDeleteResult struct {
	Result
	Group           *Group `json:"deleted_group"`
	MappingsDeleted int    `json:"deleted_mappings_count"`
	Forced          bool   `json:"force_used"`
}

// GroupSearchResult wraps a relevance-ranked group search.
type GroupSearchResult struct {
	Result
	Groups []ScoredGroup  `json:"groups"`
	Meta   SearchMetadata `json:"search_metadata"`
}

// SearchMetadata describes how a search was executed and truncated.
type SearchMetadata struct {
	Term         string   `json:"search_term"`
	Fields       []string `json:"search_fields"`
	TotalMatches int      `json:"total_matches"`
	Returned     int      `json:"returned_count"`
	LimitApplied bool     `json:"limit_applied"`
}

// BulkItemError reports one failed item of a bulk operation. ID refers to the
// group or mapping id the item targeted (0 when the item never resolved one).
type BulkItemError struct {
	Index   int    `json:"index"`
	ID      int    `json:"id"`
	Kind    string `json:"error_kind"`
	Message string `json:"error"`
}

// BulkSkip reports one bulk-create item skipped as a duplicate pair.
// Skips are not errors: the association already exists.
type BulkSkip struct {
	Index   int    `json:"index"`
	UserID  int    `json:"user_id"`
	GroupID int    `json:"group_id"`
	Reason  string `json:"reason"`
}

// BulkGroupUpdateResult aggregates a bulk group update. One item's failure
// never aborts the rest; results stay in input order.
type BulkGroupUpdateResult struct {
	Result
	TotalProcessed int                 `json:"total_processed"`
	Successful     int                 `json:"successful_updates"`
	Failed         int                 `json:"failed_updates"`
	Updated        []GroupUpdateResult `json:"results"`
	Errors         []BulkItemError     `json:"errors"`
	SuccessRate    float64             `json:"success_rate"`
}

// MappingOpSummary summarizes a single-mapping operation for audit trails.
type MappingOpSummary struct {
	MappingID int       `json:"mapping_id"`
	UserID    int       `json:"user_id"`
	GroupID   int       `json:"group_id"`
	IsActive  bool      `json:"is_active"`
	Timestamp time.Time `json:"timestamp"`
}

// GroupInfo is the denormalized group block attached to mapping reads.
type GroupInfo struct {
	Name        string `json:"group_name"`
	Description string `json:"group_description"`
	IsActive    bool   `json:"group_is_active"`
}

// MappingResult wraps a single-mapping operation outcome.
type MappingResult struct {
	Result
	Mapping *Mapping          `json:"mapping"`
	Group   *GroupInfo        `json:"group_info,omitempty"`
	Summary *MappingOpSummary `json:"operation_summary,omitempty"`
}

// MappingListResult wraps a paginated mapping listing enriched with group
// names and active/inactive counts.
type MappingListResult struct {
	Result
	Mappings      []MappingWithGroup `json:"mappings"`
	Meta          PageMeta           `json:"metadata"`
	ActiveCount   int                `json:"active_count"`
	InactiveCount int                `json:"inactive_count"`
}

// MappingUpdateResult wraps a mapping update with its audit diff.
type MappingUpdateResult struct {
	Result
	Mapping *Mapping      `json:"mapping"`
	Changes []FieldChange `json:"changes"`
}

// MappingDeleteResult wraps a hard mapping delete.
type MappingDeleteResult struct {
	Result
	Mapping *Mapping   `json:"deleted_mapping"`
	Group   *GroupInfo `json:"group_info,omitempty"`
}

// Activation branch names reported by MappingActionResult.Action.
const (
	ActionCreated     = "created"
	ActionReactivated = "reactivated"
	ActionAlreadyOn   = "already_active"
	ActionDeactivated = "deactivated"
)

// MappingActionResult wraps activate/deactivate outcomes and names which
// branch occurred.
type MappingActionResult struct {
	Result
	Action  string   `json:"action"`
	Mapping *Mapping `json:"mapping"`
}

// BulkMappingCreateResult aggregates a bulk mapping create. Duplicate pairs
// land in Skipped, not Errors; the success rate is computed over processed
// (non-skipped) items.
type BulkMappingCreateResult struct {
	Result
	TotalProcessed int             `json:"total_processed"`
	Successful     int             `json:"successful_creations"`
	Failed         int             `json:"failed_creations"`
	SkippedCount   int             `json:"skipped_duplicates"`
	Created        []Mapping       `json:"results"`
	Errors         []BulkItemError `json:"errors"`
	Skipped        []BulkSkip      `json:"skipped"`
	SuccessRate    float64         `json:"success_rate"`
}

// BulkMappingUpdateResult aggregates a bulk mapping update.
type BulkMappingUpdateResult struct {
	Result
	TotalProcessed int                   `json:"total_processed"`
	Successful     int                   `json:"successful_updates"`
	Failed         int                   `json:"failed_updates"`
	Updated        []MappingUpdateResult `json:"results"`
	Errors         []BulkItemError       `json:"errors"`
	SuccessRate    float64               `json:"success_rate"`
}

// MappingsSummary aggregates counts over a set of mappings for the read-only
// projection endpoints.
type MappingsSummary struct {
	TotalMappings    int      `json:"total_mappings"`
	ActiveMappings   int      `json:"active_mappings"`
	InactiveMappings int      `json:"inactive_mappings"`
	GroupNames       []string `json:"group_names,omitempty"`
	GroupCount       int      `json:"group_count,omitempty"`
	UserIDs          []int    `json:"user_ids,omitempty"`
	UniqueUsers      int      `json:"unique_users,omitempty"`
}

// UserMappingsResult is the per-user projection: all group mappings for one
// user with a denormalized summary. Pure derived data, no mutation.
type UserMappingsResult struct {
	Result
	UserID   int                `json:"user_id"`
	Mappings []MappingWithGroup `json:"mappings"`
	Summary  MappingsSummary    `json:"summary"`
}

// GroupMappingsResult is the per-group projection: all user mappings for one
// group with a denormalized summary.
type GroupMappingsResult struct {
	Result
	Group    *Group             `json:"group"`
	Mappings []MappingWithGroup `json:"mappings"`
	Summary  MappingsSummary    `json:"summary"`
}

// SuccessRate returns successes/processed as a percentage, 0 when nothing was
// processed (avoids division by zero on empty batches).
func SuccessRate(successes, processed int) float64 {
	if processed == 0 {
		return 0
	}
	return float64(successes) / float64(processed) * 100
}
