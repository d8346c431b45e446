// This file implements the store adapter for the user_group_mapper table,
// which holds the many-to-many rows between externally owned users and
// groups.
package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/avissapr/groupmapper/internal/database"
	"github.com/avissapr/groupmapper/internal/models"
)

// Column list shared by every mapping query that returns full rows.
const mappingColumns = "id, user_id, group_id, is_active, notes, created_by, updated_by, created_on, updated_on"

// Join column list for queries that also return the denormalized group block.
const mappingJoinColumns = `m.id, m.user_id, m.group_id, m.is_active, m.notes,
	       m.created_by, m.updated_by, m.created_on, m.updated_on,
	       g.group_name, g.description, g.is_active`

// MappingRepository handles user-group mapping database operations. Like
// GroupRepository it owns no state across calls.
type MappingRepository struct{}

// NewMappingRepository creates a new instance of MappingRepository.
func NewMappingRepository() *MappingRepository {
	return &MappingRepository{}
}

func scanMapping(row pgx.Row) (*models.Mapping, error) {
	var m models.Mapping
	err := row.Scan(&m.ID, &m.UserID, &m.GroupID, &m.IsActive, &m.Notes,
		&m.CreatedBy, &m.UpdatedBy, &m.CreatedOn, &m.UpdatedOn)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func collectMappings(rows pgx.Rows) ([]models.Mapping, error) {
	defer rows.Close()

	var mappings []models.Mapping
	for rows.Next() {
		var m models.Mapping
		err := rows.Scan(&m.ID, &m.UserID, &m.GroupID, &m.IsActive, &m.Notes,
			&m.CreatedBy, &m.UpdatedBy, &m.CreatedOn, &m.UpdatedOn)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

func collectMappingsWithGroup(rows pgx.Rows) ([]models.MappingWithGroup, error) {
	defer rows.Close()

	var result []models.MappingWithGroup
	for rows.Next() {
		var mw models.MappingWithGroup
		err := rows.Scan(&mw.ID, &mw.UserID, &mw.GroupID, &mw.IsActive, &mw.Notes,
			&mw.CreatedBy, &mw.UpdatedBy, &mw.CreatedOn, &mw.UpdatedOn,
			&mw.GroupName, &mw.GroupDescription, &mw.GroupIsActive)
		if err != nil {
			return nil, err
		}
		result = append(result, mw)
	}
	return result, rows.Err()
}

// GetByID fetches a single mapping. Returns NotFoundError if no row matches.
func (r *MappingRepository) GetByID(ctx context.Context, mappingID int) (*models.Mapping, error) {
	query := fmt.Sprintf(`SELECT %s FROM user_group_mapper WHERE id = $1`, mappingColumns)

	mapping, err := scanMapping(database.DB.QueryRow(ctx, query, mappingID))
	if err != nil {
		return nil, mapStoreError("fetch mapping", "mapping", mappingID, err)
	}
	return mapping, nil
}

// FindPair fetches the mapping for a (user, group) pair regardless of its
// active state. The pair is unique, so at most one row can match; absence is
// NotFoundError. Used to detect duplicates and to drive activate/deactivate.
func (r *MappingRepository) FindPair(ctx context.Context, userID, groupID int) (*models.Mapping, error) {
	query := fmt.Sprintf(`SELECT %s FROM user_group_mapper WHERE user_id = $1 AND group_id = $2`, mappingColumns)

	mapping, err := scanMapping(database.DB.QueryRow(ctx, query, userID, groupID))
	if err != nil {
		return nil, mapStoreError("fetch mapping pair", "mapping", 0, err)
	}
	return mapping, nil
}

// FindByUser fetches all mappings for a user joined with their group fields,
// ordered by ascending id. Inactive rows are included only when
// includeInactive is set.
func (r *MappingRepository) FindByUser(ctx context.Context, userID int, includeInactive bool) ([]models.MappingWithGroup, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM user_group_mapper m
		JOIN user_groups g ON g.id = m.group_id
		WHERE m.user_id = $1`, mappingJoinColumns)
	if !includeInactive {
		query += " AND m.is_active"
	}
	query += " ORDER BY m.id"

	rows, err := database.DB.Query(ctx, query, userID)
	if err != nil {
		return nil, mapStoreError("list mappings by user", "mapping", 0, err)
	}

	mappings, err := collectMappingsWithGroup(rows)
	if err != nil {
		return nil, mapStoreError("scan mappings by user", "mapping", 0, err)
	}
	return mappings, nil
}

// FindByGroup fetches all mappings referencing a group, ordered by ascending
// id. The caller already holds the group row, so no join is performed.
// Inactive rows are included only when includeInactive is set.
func (r *MappingRepository) FindByGroup(ctx context.Context, groupID int, includeInactive bool) ([]models.Mapping, error) {
	query := fmt.Sprintf(`SELECT %s FROM user_group_mapper WHERE group_id = $1`, mappingColumns)
	if !includeInactive {
		query += " AND is_active"
	}
	query += " ORDER BY id"

	rows, err := database.DB.Query(ctx, query, groupID)
	if err != nil {
		return nil, mapStoreError("list mappings by group", "mapping", 0, err)
	}

	mappings, err := collectMappings(rows)
	if err != nil {
		return nil, mapStoreError("scan mappings by group", "mapping", 0, err)
	}
	return mappings, nil
}

// List fetches one page of mappings matching the filter, joined with their
// group fields, plus the total count of matching rows independent of
// limit/offset. A limit of 0 applies no page bound. Ordered by ascending
// mapping id for determinism.
func (r *MappingRepository) List(ctx context.Context, filter models.MappingFilter, limit, offset int) ([]models.MappingWithGroup, int, error) {
	where, args := buildMappingFilter(filter, "m.")

	countQuery := "SELECT COUNT(*) FROM user_group_mapper m" + where
	var total int
	if err := database.DB.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, mapStoreError("count mappings", "mapping", 0, err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM user_group_mapper m
		JOIN user_groups g ON g.id = m.group_id%s
		ORDER BY m.id`, mappingJoinColumns, where)
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
		return nil, 0, mapStoreError("list mappings", "mapping", 0, err)
	}

	mappings, err := collectMappingsWithGroup(rows)
	if err != nil {
		return nil, 0, mapStoreError("scan mappings", "mapping", 0, err)
	}
	return mappings, total, nil
}

// CountByGroup returns the total and active mapping counts for a group in a
// single query.
func (r *MappingRepository) CountByGroup(ctx context.Context, groupID int) (total, active int, err error) {
	query := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_active)
		FROM user_group_mapper
		WHERE group_id = $1
	`

	if err := database.DB.QueryRow(ctx, query, groupID).Scan(&total, &active); err != nil {
		return 0, 0, mapStoreError("count mappings by group", "mapping", 0, err)
	}
	return total, active, nil
}

// Insert creates a new mapping row and populates the generated id and
// timestamps on the passed struct. A duplicate (user, group) pair surfaces as
// DuplicateError; a dangling group reference surfaces as a group
// NotFoundError via the foreign key.
func (r *MappingRepository) Insert(ctx context.Context, mapping *models.Mapping) error {
	query := `
		INSERT INTO user_group_mapper (user_id, group_id, is_active, notes, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_on, updated_on
	`

	err := database.DB.QueryRow(ctx, query,
		mapping.UserID, mapping.GroupID, mapping.IsActive, mapping.Notes, mapping.CreatedBy).
		Scan(&mapping.ID, &mapping.CreatedOn, &mapping.UpdatedOn)
	if err != nil {
		return mapStoreError("insert mapping", "mapping", 0, err)
	}
	return nil
}

// Update applies the non-nil patch fields to a mapping and returns the
// updated row. updated_on is always bumped. Returns NotFoundError if no row
// matches.
func (r *MappingRepository) Update(ctx context.Context, mappingID int, patch models.MappingPatch) (*models.Mapping, error) {
	setClauses := []string{}
	args := []interface{}{}

	addSet := func(column string, value interface{}) {
		args = append(args, value)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.IsActive != nil {
		addSet("is_active", *patch.IsActive)
	}
	if patch.Notes != nil {
		addSet("notes", *patch.Notes)
	}
	if patch.UpdatedBy != nil {
		addSet("updated_by", *patch.UpdatedBy)
	}
	setClauses = append(setClauses, "updated_on = now()")

	args = append(args, mappingID)
	query := fmt.Sprintf(`UPDATE user_group_mapper SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), len(args), mappingColumns)

	mapping, err := scanMapping(database.DB.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapStoreError("update mapping", "mapping", mappingID, err)
	}
	return mapping, nil
}

// Delete permanently removes a single mapping row (hard delete). Returns the
// deleted row, or NotFoundError if no row matches.
func (r *MappingRepository) Delete(ctx context.Context, mappingID int) (*models.Mapping, error) {
	query := fmt.Sprintf(`DELETE FROM user_group_mapper WHERE id = $1 RETURNING %s`, mappingColumns)

	mapping, err := scanMapping(database.DB.QueryRow(ctx, query, mappingID))
	if err != nil {
		return nil, mapStoreError("delete mapping", "mapping", mappingID, err)
	}
	return mapping, nil
}

// DeleteByGroup permanently removes every mapping referencing a group and
// returns how many rows went away. This is the first step of the engine's
// forced group delete.
func (r *MappingRepository) DeleteByGroup(ctx context.Context, groupID int) (int, error) {
	query := `DELETE FROM user_group_mapper WHERE group_id = $1`

	tag, err := database.DB.Exec(ctx, query, groupID)
	if err != nil {
		return 0, mapStoreError("delete mappings by group", "mapping", 0, err)
	}
	return int(tag.RowsAffected()), nil
}

// buildMappingFilter renders the WHERE clause for the optional mapping
// filter. prefix qualifies the columns when the query joins other tables.
func buildMappingFilter(filter models.MappingFilter, prefix string) (string, []interface{}) {
	conds := []string{}
	args := []interface{}{}

	add := func(column string, value interface{}) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s%s = $%d", prefix, column, len(args)))
	}

	if filter.UserID != nil {
		add("user_id", *filter.UserID)
	}
	if filter.GroupID != nil {
		add("group_id", *filter.GroupID)
	}
	if filter.IsActive != nil {
		add("is_active", *filter.IsActive)
	}
	if filter.CreatedBy != nil {
		add("created_by", *filter.CreatedBy)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
