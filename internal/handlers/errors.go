// Package handlers implements HTTP request handlers for the GroupMapper
// service. This file maps the service error taxonomy onto HTTP responses.
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/avissapr/groupmapper/internal/apperrors"
	"github.com/avissapr/groupmapper/internal/logging"
)

// errorBody is the JSON shape returned for every failed request.
type errorBody struct {
	Success bool   `json:"success"`
	Kind    string `json:"error_kind"`
	Error   string `json:"error"`
}

// respondError translates a service error into its HTTP status:
// validation 400, not found 404, duplicate and constraint 409, and
// everything else 500. Store errors are logged; caller errors are not.
func respondError(c *fiber.Ctx, log *logging.Logger, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case apperrors.IsValidation(err):
		status = fiber.StatusBadRequest
	case apperrors.IsNotFound(err):
		status = fiber.StatusNotFound
	case apperrors.IsDuplicate(err), apperrors.IsConstraint(err):
		status = fiber.StatusConflict
	default:
		log.Error("request failed on store error", err)
	}

	return c.Status(status).JSON(errorBody{
		Success: false,
		Kind:    apperrors.Kind(err),
		Error:   err.Error(),
	})
}

// parseIDParam reads a positive integer route parameter. A malformed value
// is reported as a validation error on that parameter name.
func parseIDParam(c *fiber.Ctx, name string) (int, error) {
	id, err := c.ParamsInt(name)
	if err != nil {
		return 0, apperrors.NewValidation(name, "must be an integer")
	}
	return id, nil
}
