// This file contains user-group mapping handlers: CRUD, activate/deactivate,
// bulk operations, and the per-user and per-group read projections.
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/avissapr/groupmapper/internal/apperrors"
	"github.com/avissapr/groupmapper/internal/logging"
	"github.com/avissapr/groupmapper/internal/models"
	"github.com/avissapr/groupmapper/internal/services"
)

// MappingHandler handles all mapping-related HTTP requests.
type MappingHandler struct {
	mappings *services.MappingService
	log      *logging.Logger
}

// NewMappingHandler creates a new instance of MappingHandler.
//
// Parameters:
//   - mappings: Mapping service implementing the business rules
//   - log: Structured logger shared across the HTTP layer
//
// Returns:
//   - *MappingHandler: Initialized handler
func NewMappingHandler(mappings *services.MappingService, log *logging.Logger) *MappingHandler {
	return &MappingHandler{mappings: mappings, log: log}
}

// pairBody is the request shape for activate and deactivate.
type pairBody struct {
	UserID  int `json:"user_id"`
	GroupID int `json:"group_id"`
}

// Create handles POST /api/mappings.
//
// Returns:
//   - 201 with the created mapping envelope
//   - 404 when the group does not exist, 409 when the pair already has a row
func (h *MappingHandler) Create(c *fiber.Ctx) error {
	var in models.MappingInput
	if err := c.BodyParser(&in); err != nil {
		return respondError(c, h.log, apperrors.NewValidation("body", "invalid JSON: %v", err))
	}

	result, err := h.mappings.CreateMapping(c.Context(), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// Get handles GET /api/mappings/:id.
func (h *MappingHandler) Get(c *fiber.Ctx) error {
	mappingID, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	result, err := h.mappings.GetMapping(c.Context(), mappingID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(result)
}

// List handles GET /api/mappings with optional filter and pagination query
// parameters: user_id, group_id, is_active, created_by, limit, offset.
func (h *MappingHandler) List(c *fiber.Ctx) error {
	var filter models.MappingFilter
	if raw := c.Query("user_id"); raw != "" {
		userID := c.QueryInt("user_id")
		filter.UserID = &userID
	}
	if raw := c.Query("group_id"); raw != "" {
		groupID := c.QueryInt("group_id")
		filter.GroupID = &groupID
	}
	if raw := c.Query("is_active"); raw != "" {
		active := c.QueryBool("is_active")
		filter.IsActive = &active
	}
	if raw := c.Query("created_by"); raw != "" {
		filter.CreatedBy = &raw
	}

	result, err := h.mappings.ListMappings(c.Context(), filter, c.QueryInt("limit", 0), c.QueryInt("offset", 0))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(result)
}

// Update handles PATCH /api/mappings/:id. Only is_active, notes, and
// updated_by are updatable; user_id and group_id are immutable.
func (h *MappingHandler) Update(c *fiber.Ctx) error {
	mappingID, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	var patch models.MappingPatch
	if err := c.BodyParser(&patch); err != nil {
		return respondError(c, h.log, apperrors.NewValidation("body", "invalid JSON: %v", err))
	}

	result, err := h.mappings.UpdateMapping(c.Context(), mappingID, patch)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(result)
}

// Delete handles DELETE /api/mappings/:id. This is a hard delete; use
// Deactivate to keep the row for later reactivation.
func (h *MappingHandler) Delete(c *fiber.Ctx) error {
	mappingID, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	result, err := h.mappings.DeleteMapping(c.Context(), mappingID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(result)
}

// Activate handles POST /api/mappings/activate. The response names which
// branch occurred: already_active, reactivated, or created.
func (h *MappingHandler) Activate(c *fiber.Ctx) error {
	var body pairBody
	if err := c.BodyParser(&body); err != nil {
		return respondError(c, h.log, apperrors.NewValidation("body", "invalid JSON: %v", err))
	}

	result, err := h.mappings.ActivateUserInGroup(c.Context(), body.UserID, body.GroupID)
	if err != nil {
		return respondError(c, h.log, err)
	}

	status := fiber.StatusOK
	if result.Action == models.ActionCreated {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(result)
}

// Deactivate handles POST /api/mappings/deactivate. A missing pair and an
// already-inactive pair both return 404, with distinct messages.
func (h *MappingHandler) Deactivate(c *fiber.Ctx) error {
	var body pairBody
	if err := c.BodyParser(&body); err != nil {
		return respondError(c, h.log, apperrors.NewValidation("body", "invalid JSON: %v", err))
	}

	result, err := h.mappings.DeactivateUserFromGroup(c.Context(), body.UserID, body.GroupID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(result)
}

// BulkCreate handles POST /api/mappings/bulk. Duplicate pairs are reported
// as skipped, not failed; only an empty or oversized batch is rejected whole.
func (h *MappingHandler) BulkCreate(c *fiber.Ctx) error {
	var body struct {
		Mappings []models.MappingInput `json:"mappings"`
	}
	if err := c.BodyParser(&body); err != nil {
		return respondError(c, h.log, apperrors.NewValidation("body", "invalid JSON: %v", err))
	}

	result, err := h.mappings.BulkCreateMappings(c.Context(), body.Mappings)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(result)
}

// BulkUpdate handles POST /api/mappings/bulk-update.
func (h *MappingHandler) BulkUpdate(c *fiber.Ctx) error {
	var body struct {
		Updates []models.MappingUpdateItem `json:"updates"`
	}
	if err := c.BodyParser(&body); err != nil {
		return respondError(c, h.log, apperrors.NewValidation("body", "invalid JSON: %v", err))
	}

	result, err := h.mappings.BulkUpdateMappings(c.Context(), body.Updates)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(result)
}

// UserGroups handles GET /api/users/:user_id/groups?include_inactive=true,
// the per-user read projection. An unknown user simply has no mappings.
func (h *MappingHandler) UserGroups(c *fiber.Ctx) error {
	userID, err := parseIDParam(c, "user_id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	result, err := h.mappings.GetUserGroupMappings(c.Context(), userID, c.QueryBool("include_inactive", false))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(result)
}

// GroupUsers handles GET /api/groups/:id/users?include_inactive=true, the
// per-group read projection. The group must exist.
func (h *MappingHandler) GroupUsers(c *fiber.Ctx) error {
	groupID, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	result, err := h.mappings.GetGroupUserMappings(c.Context(), groupID, c.QueryBool("include_inactive", false))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(result)
}
