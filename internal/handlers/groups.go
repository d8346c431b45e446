// This file contains group lifecycle handlers: create, read, list, update,
// search, delete, and bulk update.
package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/avissapr/groupmapper/internal/apperrors"
	"github.com/avissapr/groupmapper/internal/logging"
	"github.com/avissapr/groupmapper/internal/models"
	"github.com/avissapr/groupmapper/internal/services"
)

// GroupHandler handles all group-related HTTP requests.
type GroupHandler struct {
	groups *services.GroupService
	log    *logging.Logger
}

// NewGroupHandler creates a new instance of GroupHandler.
//
// Parameters:
//   - groups: Group service implementing the business rules
//   - log: Structured logger shared across the HTTP layer
//
// Returns:
//   - *GroupHandler: Initialized handler
func NewGroupHandler(groups *services.GroupService, log *logging.Logger) *GroupHandler {
	return &GroupHandler{groups: groups, log: log}
}

// Create handles POST /api/groups.
//
// Returns:
//   - 201 with the created group envelope
//   - 400 on validation failure, 409 on a duplicate name
func (h *GroupHandler) Create(c *fiber.Ctx) error {
	var in models.GroupInput
	if err := c.BodyParser(&in); err != nil {
		return respondError(c, h.log, apperrors.NewValidation("body", "invalid JSON: %v", err))
	}

	result, err := h.groups.CreateGroup(c.Context(), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// Get handles GET /api/groups/:id.
//
// Returns:
//   - 200 with the group and its mapping-count metadata
//   - 404 when the group does not exist
func (h *GroupHandler) Get(c *fiber.Ctx) error {
	groupID, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	result, err := h.groups.GetGroup(c.Context(), groupID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(result)
}

// List handles GET /api/groups with optional filter and pagination query
// parameters: is_active, created_by, created_after, created_before (RFC 3339),
// limit, offset.
func (h *GroupHandler) List(c *fiber.Ctx) error {
	filter, err := parseGroupFilter(c)
	if err != nil {
		return respondError(c, h.log, err)
	}

	limit := c.QueryInt("limit", 0)
	offset := c.QueryInt("offset", 0)

	result, err := h.groups.ListGroups(c.Context(), filter, limit, offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(result)
}

// Search handles GET /api/groups/search?q=term&fields=group_name,description&limit=N.
// Matching is case-insensitive; results are ranked by relevance.
func (h *GroupHandler) Search(c *fiber.Ctx) error {
	term := c.Query("q")

	var fields []string
	if raw := c.Query("fields"); raw != "" {
		for _, f := range strings.Split(raw, ",") {
			if f = strings.TrimSpace(f); f != "" {
				fields = append(fields, f)
			}
		}
	}

	result, err := h.groups.SearchGroups(c.Context(), term, fields, c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(result)
}

// Update handles PATCH /api/groups/:id. Only group_name, description,
// is_active, and updated_by are updatable; unknown body keys are ignored.
func (h *GroupHandler) Update(c *fiber.Ctx) error {
	groupID, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	var patch models.GroupPatch
	if err := c.BodyParser(&patch); err != nil {
		return respondError(c, h.log, apperrors.NewValidation("body", "invalid JSON: %v", err))
	}

	result, err := h.groups.UpdateGroup(c.Context(), groupID, patch)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(result)
}

// Delete handles DELETE /api/groups/:id?force=true. Without force the delete
// is refused with 409 while any mapping still references the group.
func (h *GroupHandler) Delete(c *fiber.Ctx) error {
	groupID, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	result, err := h.groups.DeleteGroup(c.Context(), groupID, c.QueryBool("force", false))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(result)
}

// BulkUpdate handles POST /api/groups/bulk-update. The batch is processed
// item by item; per-item failures land in the errors list of a 200 response,
// only a malformed or oversized batch is rejected whole.
func (h *GroupHandler) BulkUpdate(c *fiber.Ctx) error {
	var body struct {
		Updates []models.GroupUpdateItem `json:"updates"`
	}
	if err := c.BodyParser(&body); err != nil {
		return respondError(c, h.log, apperrors.NewValidation("body", "invalid JSON: %v", err))
	}

	result, err := h.groups.BulkUpdateGroups(c.Context(), body.Updates)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(result)
}

// parseGroupFilter reads the optional list-filter query parameters.
func parseGroupFilter(c *fiber.Ctx) (models.GroupFilter, error) {
	var filter models.GroupFilter

	if raw := c.Query("is_active"); raw != "" {
		active := c.QueryBool("is_active")
		filter.IsActive = &active
	}
	if raw := c.Query("created_by"); raw != "" {
		filter.CreatedBy = &raw
	}
	if raw := c.Query("created_after"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, apperrors.NewValidation("created_after", "must be an RFC 3339 timestamp")
		}
		filter.CreatedAfter = &t
	}
	if raw := c.Query("created_before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, apperrors.NewValidation("created_before", "must be an RFC 3339 timestamp")
		}
		filter.CreatedBefore = &t
	}

	return filter, nil
}
