// Package repository implements the database access layer for the GroupMapper
// service: one adapter per table, both speaking through database.DB so tests
// can substitute a pgxmock pool.
package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/avissapr/groupmapper/internal/apperrors"
)

// PostgreSQL error codes the adapters translate into the domain taxonomy.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// mapStoreError translates driver-level failures into the error taxonomy:
// missing rows become NotFoundError, unique violations become DuplicateError
// (a constraint firing late is the same duplicate the pre-check would have
// caught), foreign key violations on mapping inserts mean the referenced
// group is gone, and everything else is a StoreError wrapped with operation
// context.
func mapStoreError(op, entity string, id int, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return &apperrors.NotFoundError{Entity: entity, ID: id}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return &apperrors.DuplicateError{
				Entity: entity,
				Detail: fmt.Sprintf("%s violates a uniqueness constraint: %s", entity, pgErr.ConstraintName),
			}
		case pgForeignKeyViolation:
			// Only the mapping table carries a foreign key, and it points
			// at user_groups.
			return &apperrors.NotFoundError{
				Entity: "group",
				Reason: "referenced group does not exist",
			}
		}
	}

	return apperrors.NewStore(op, entity, id, err)
}
