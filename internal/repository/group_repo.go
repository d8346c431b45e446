// This file implements the store adapter for the user_groups table.
package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/avissapr/groupmapper/internal/database"
	"github.com/avissapr/groupmapper/internal/models"
)

// Column list shared by every group query that returns full rows, so scans
// stay in one order.
const groupColumns = "id, group_name, description, is_active, created_by, updated_by, created_on, updated_on"

// GroupRepository handles group-related database operations. It owns no state
// across calls; every operation is self-contained given an id or a payload.
type GroupRepository struct{}

// NewGroupRepository creates a new instance of GroupRepository.
func NewGroupRepository() *GroupRepository {
	return &GroupRepository{}
}

func scanGroup(row pgx.Row) (*models.Group, error) {
	var g models.Group
	err := row.Scan(&g.ID, &g.Name, &g.Description, &g.IsActive,
		&g.CreatedBy, &g.UpdatedBy, &g.CreatedOn, &g.UpdatedOn)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// Exists reports whether a group with the given id exists, without fetching
// the row.
func (r *GroupRepository) Exists(ctx context.Context, groupID int) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM user_groups WHERE id = $1)`

	var exists bool
	if err := database.DB.QueryRow(ctx, query, groupID).Scan(&exists); err != nil {
		return false, mapStoreError("check group existence", "group", groupID, err)
	}
	return exists, nil
}

// GetByID fetches a single group. Returns NotFoundError if no row matches.
func (r *GroupRepository) GetByID(ctx context.Context, groupID int) (*models.Group, error) {
	query := fmt.Sprintf(`SELECT %s FROM user_groups WHERE id = $1`, groupColumns)

	group, err := scanGroup(database.DB.QueryRow(ctx, query, groupID))
	if err != nil {
		return nil, mapStoreError("fetch group", "group", groupID, err)
	}
	return group, nil
}

// List fetches one page of groups matching the filter, plus the total count
// of matching rows independent of limit/offset so callers can compute
// "has more" without a second round trip of their own. A limit of 0 applies
// no page bound. Results are ordered by ascending id for determinism.
func (r *GroupRepository) List(ctx context.Context, filter models.GroupFilter, limit, offset int) ([]models.Group, int, error) {
	where, args := buildGroupFilter(filter)

	countQuery := "SELECT COUNT(*) FROM user_groups" + where
	var total int
	if err := database.DB.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, mapStoreError("count groups", "group", 0, err)
	}

	query := fmt.Sprintf("SELECT %s FROM user_groups%s ORDER BY id", groupColumns, where)
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, limit)
	}
	if offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", len(args)+1)
		args = append(args, offset)
	}

	rows, err := database.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, mapStoreError("list groups", "group", 0, err)
	}
	defer rows.Close()

	var groups []models.Group
	for rows.Next() {
		var g models.Group
		err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.IsActive,
			&g.CreatedBy, &g.UpdatedBy, &g.CreatedOn, &g.UpdatedOn)
		if err != nil {
			return nil, 0, mapStoreError("scan group", "group", 0, err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapStoreError("list groups", "group", 0, err)
	}

	return groups, total, nil
}

// Insert creates a new group row and populates the generated id and
// timestamps on the passed struct. A unique violation on group_name surfaces
// as DuplicateError.
func (r *GroupRepository) Insert(ctx context.Context, group *models.Group) error {
	query := `
		INSERT INTO user_groups (group_name, description, is_active, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_on, updated_on
	`

	err := database.DB.QueryRow(ctx, query,
		group.Name, group.Description, group.IsActive, group.CreatedBy).
		Scan(&group.ID, &group.CreatedOn, &group.UpdatedOn)
	if err != nil {
		return mapStoreError("insert group", "group", 0, err)
	}
	return nil
}

// Update applies the non-nil patch fields to a group and returns the updated
// row. updated_on is always bumped. Returns NotFoundError if no row matches.
func (r *GroupRepository) Update(ctx context.Context, groupID int, patch models.GroupPatch) (*models.Group, error) {
	setClauses := []string{}
	args := []interface{}{}

	addSet := func(column string, value interface{}) {
		args = append(args, value)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Name != nil {
		addSet("group_name", *patch.Name)
	}
	if patch.Description != nil {
		addSet("description", *patch.Description)
	}
	if patch.IsActive != nil {
		addSet("is_active", *patch.IsActive)
	}
	if patch.UpdatedBy != nil {
		addSet("updated_by", *patch.UpdatedBy)
	}
	setClauses = append(setClauses, "updated_on = now()")

	args = append(args, groupID)
	query := fmt.Sprintf(`UPDATE user_groups SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), len(args), groupColumns)

	group, err := scanGroup(database.DB.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapStoreError("update group", "group", groupID, err)
	}
	return group, nil
}

// Delete removes the group row only. Cascading the referencing mappings is
// the engine's responsibility, not the adapter's. Returns the deleted row,
// or NotFoundError if no row matches.
func (r *GroupRepository) Delete(ctx context.Context, groupID int) (*models.Group, error) {
	query := fmt.Sprintf(`DELETE FROM user_groups WHERE id = $1 RETURNING %s`, groupColumns)

	group, err := scanGroup(database.DB.QueryRow(ctx, query, groupID))
	if err != nil {
		return nil, mapStoreError("delete group", "group", groupID, err)
	}
	return group, nil
}

// NameTaken reports whether a group name is already in use, case-sensitively,
// across active and inactive groups. excludeGroupID skips one id so updates
// can keep their own name; pass 0 to exclude nothing.
//
// This is a read-then-write pre-check: under concurrent writers the unique
// index in the schema remains the authoritative guard, and a late unique
// violation maps to the same DuplicateError.
func (r *GroupRepository) NameTaken(ctx context.Context, name string, excludeGroupID int) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM user_groups WHERE group_name = $1 AND id <> $2)`

	var taken bool
	if err := database.DB.QueryRow(ctx, query, name, excludeGroupID).Scan(&taken); err != nil {
		return false, mapStoreError("check name uniqueness", "group", 0, err)
	}
	return taken, nil
}

// buildGroupFilter renders the WHERE clause for the optional group filter.
func buildGroupFilter(filter models.GroupFilter) (string, []interface{}) {
	conds := []string{}
	args := []interface{}{}

	add := func(format string, value interface{}) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(format, len(args)))
	}

	if filter.IsActive != nil {
		add("is_active = $%d", *filter.IsActive)
	}
	if filter.CreatedBy != nil {
		add("created_by = $%d", *filter.CreatedBy)
	}
	if filter.CreatedAfter != nil {
		add("created_on > $%d", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		add("created_on < $%d", *filter.CreatedBefore)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
