package services

import (
	"context"
	"fmt"

	"github.com/avissapr/groupmapper/internal/apperrors"
	"github.com/avissapr/groupmapper/internal/logging"
	"github.com/avissapr/groupmapper/internal/models"
	"github.com/avissapr/groupmapper/internal/repository"
	"github.com/avissapr/groupmapper/internal/validation"
)

// MappingService handles the lifecycle of user-group mappings: create, read,
// list, update, delete, the activate/deactivate pair, bulk operations, and
// the per-user and per-group read projections.
type MappingService struct {
	mappings *repository.MappingRepository
	groups   *repository.GroupRepository
	validate *validation.Service
	log      *logging.Logger
}

// NewMappingService creates a mapping service. A nil validator falls back to
// default limits; a nil logger falls back to stdout.
func NewMappingService(validate *validation.Service, log *logging.Logger) *MappingService {
	if validate == nil {
		validate = validation.NewService(nil)
	}
	if log == nil {
		log = logging.NewLogger()
	}
	return &MappingService{
		mappings: repository.NewMappingRepository(),
		groups:   repository.NewGroupRepository(),
		validate: validate,
		log:      log,
	}
}

// CreateMapping associates a user with a group. The group must exist and the
// (user, group) pair must not already have a row, active or inactive; an
// inactive pair should be reactivated via ActivateUserInGroup instead of
// re-created. The unique index remains authoritative under concurrent
// creates.
func (s *MappingService) CreateMapping(ctx context.Context, in models.MappingInput) (*models.MappingResult, error) {
	in, err := s.validate.ValidateMappingInput(in)
	if err != nil {
		return nil, err
	}

	exists, err := s.groups.Exists(ctx, in.GroupID)
	if err != nil {
		s.log.StoreFailure("group existence check failed", "group", in.GroupID, err)
		return nil, err
	}
	if !exists {
		return nil, &apperrors.NotFoundError{Entity: "group", ID: in.GroupID}
	}

	existing, err := s.mappings.FindPair(ctx, in.UserID, in.GroupID)
	if err != nil && !apperrors.IsNotFound(err) {
		s.log.StoreFailure("mapping pair check failed", "mapping", 0, err)
		return nil, err
	}
	if existing != nil {
		state := "active"
		if !existing.IsActive {
			state = "inactive"
		}
		return nil, &apperrors.DuplicateError{
			Entity: "mapping",
			Detail: fmt.Sprintf("mapping between user %d and group %d already exists (%s)",
				in.UserID, in.GroupID, state),
		}
	}

	isActive := true
	if in.IsActive != nil {
		isActive = *in.IsActive
	}

	mapping := &models.Mapping{
		UserID:    in.UserID,
		GroupID:   in.GroupID,
		IsActive:  isActive,
		Notes:     in.Notes,
		CreatedBy: in.CreatedBy,
	}
	if err := s.mappings.Insert(ctx, mapping); err != nil {
		if apperrors.IsStore(err) {
			s.log.StoreFailure("mapping insert failed", "mapping", 0, err)
		}
		return nil, err
	}

	s.log.Operation(fmt.Sprintf("created mapping user %d -> group %d", mapping.UserID, mapping.GroupID),
		"mapping", mapping.ID)

	return &models.MappingResult{
		Result:  models.OK(fmt.Sprintf("User %d mapped to group %d successfully", mapping.UserID, mapping.GroupID)),
		Mapping: mapping,
		Summary: &models.MappingOpSummary{
			MappingID: mapping.ID,
			UserID:    mapping.UserID,
			GroupID:   mapping.GroupID,
			IsActive:  mapping.IsActive,
			Timestamp: mapping.CreatedOn,
		},
	}, nil
}

// GetMapping fetches one mapping with its denormalized group block.
func (s *MappingService) GetMapping(ctx context.Context, mappingID int) (*models.MappingResult, error) {
	if err := s.validate.ValidatePositiveID("mapping_id", mappingID); err != nil {
		return nil, err
	}

	mapping, err := s.mappings.GetByID(ctx, mappingID)
	if err != nil {
		if apperrors.IsStore(err) {
			s.log.StoreFailure("mapping fetch failed", "mapping", mappingID, err)
		}
		return nil, err
	}

	group, err := s.groups.GetByID(ctx, mapping.GroupID)
	if err != nil {
		s.log.StoreFailure("group fetch failed", "group", mapping.GroupID, err)
		return nil, err
	}

	return &models.MappingResult{
		Result:  models.OK(fmt.Sprintf("Mapping %d retrieved successfully", mapping.ID)),
		Mapping: mapping,
		Group: &models.GroupInfo{
			Name:        group.Name,
			Description: group.Description,
			IsActive:    group.IsActive,
		},
	}, nil
}

// ListMappings returns one page of mappings matching the filter, each joined
// with its group fields, plus active/inactive counts over the returned page.
func (s *MappingService) ListMappings(ctx context.Context, filter models.MappingFilter, limit, offset int) (*models.MappingListResult, error) {
	if err := s.validate.ValidatePagination(limit, offset); err != nil {
		return nil, err
	}

	mappings, total, err := s.mappings.List(ctx, filter, limit, offset)
	if err != nil {
		s.log.StoreFailure("mapping list failed", "mapping", 0, err)
		return nil, err
	}
	if mappings == nil {
		mappings = []models.MappingWithGroup{}
	}

	active := 0
	for _, m := range mappings {
		if m.IsActive {
			active++
		}
	}

	return &models.MappingListResult{
		Result:        models.OK(fmt.Sprintf("Retrieved %d of %d mappings", len(mappings), total)),
		Mappings:      mappings,
		Meta:          models.NewPageMeta(total, len(mappings), limit, offset),
		ActiveCount:   active,
		InactiveCount: len(mappings) - active,
	}, nil
}

// UpdateMapping applies a partial update to a mapping and reports the fields
// that actually changed. user_id and group_id are immutable; re-parenting a
// mapping means deleting it and creating a new one.
func (s *MappingService) UpdateMapping(ctx context.Context, mappingID int, patch models.MappingPatch) (*models.MappingUpdateResult, error) {
	if err := s.validate.ValidatePositiveID("mapping_id", mappingID); err != nil {
		return nil, err
	}
	if err := s.validate.ValidateMappingPatch(&patch); err != nil {
		return nil, err
	}

	current, err := s.mappings.GetByID(ctx, mappingID)
	if err != nil {
		if apperrors.IsStore(err) {
			s.log.StoreFailure("mapping fetch failed", "mapping", mappingID, err)
		}
		return nil, err
	}

	updated, err := s.mappings.Update(ctx, mappingID, patch)
	if err != nil {
		if apperrors.IsStore(err) {
			s.log.StoreFailure("mapping update failed", "mapping", mappingID, err)
		}
		return nil, err
	}

	changes := diffMapping(current, updated, patch)
	s.log.Operation(fmt.Sprintf("updated mapping %d (%d field(s) changed)", updated.ID, len(changes)),
		"mapping", updated.ID)

	return &models.MappingUpdateResult{
		Result:  models.OK(fmt.Sprintf("Mapping %d updated successfully", updated.ID)),
		Mapping: updated,
		Changes: changes,
	}, nil
}

// DeleteMapping permanently removes a mapping row. This is a hard delete;
// use DeactivateUserFromGroup to keep the row for later reactivation.
func (s *MappingService) DeleteMapping(ctx context.Context, mappingID int) (*models.MappingDeleteResult, error) {
	if err := s.validate.ValidatePositiveID("mapping_id", mappingID); err != nil {
		return nil, err
	}

	deleted, err := s.mappings.Delete(ctx, mappingID)
	if err != nil {
		if apperrors.IsStore(err) {
			s.log.StoreFailure("mapping delete failed", "mapping", mappingID, err)
		}
		return nil, err
	}

	result := &models.MappingDeleteResult{
		Result: models.OK(fmt.Sprintf("Mapping between user %d and group %d deleted successfully",
			deleted.UserID, deleted.GroupID)),
		Mapping: deleted,
	}

	// The group outlives its mappings, so this lookup normally succeeds.
	if group, err := s.groups.GetByID(ctx, deleted.GroupID); err == nil {
		result.Group = &models.GroupInfo{
			Name:        group.Name,
			Description: group.Description,
			IsActive:    group.IsActive,
		}
	}

	s.log.Operation(fmt.Sprintf("deleted mapping user %d -> group %d", deleted.UserID, deleted.GroupID),
		"mapping", deleted.ID)
	return result, nil
}

// DeactivateUserFromGroup soft-deletes the mapping between a user and a
// group. A missing pair and an already-inactive pair both surface as
// NotFoundError, with distinct messages.
func (s *MappingService) DeactivateUserFromGroup(ctx context.Context, userID, groupID int) (*models.MappingActionResult, error) {
	if err := s.validate.ValidatePositiveID("user_id", userID); err != nil {
		return nil, err
	}
	if err := s.validate.ValidatePositiveID("group_id", groupID); err != nil {
		return nil, err
	}

	pair, err := s.mappings.FindPair(ctx, userID, groupID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, &apperrors.NotFoundError{
				Entity: "mapping",
				Reason: fmt.Sprintf("no mapping exists between user %d and group %d", userID, groupID),
			}
		}
		s.log.StoreFailure("mapping pair fetch failed", "mapping", 0, err)
		return nil, err
	}

	if !pair.IsActive {
		return nil, &apperrors.NotFoundError{
			Entity: "mapping",
			ID:     pair.ID,
			Reason: fmt.Sprintf("mapping between user %d and group %d is already inactive", userID, groupID),
		}
	}

	off := false
	updated, err := s.mappings.Update(ctx, pair.ID, models.MappingPatch{IsActive: &off})
	if err != nil {
		if apperrors.IsStore(err) {
			s.log.StoreFailure("mapping deactivate failed", "mapping", pair.ID, err)
		}
		return nil, err
	}

	s.log.Operation(fmt.Sprintf("deactivated mapping user %d -> group %d", userID, groupID),
		"mapping", updated.ID)

	return &models.MappingActionResult{
		Result:  models.OK(fmt.Sprintf("User %d deactivated from group %d", userID, groupID)),
		Action:  models.ActionDeactivated,
		Mapping: updated,
	}, nil
}

// ActivateUserInGroup ensures an active mapping exists between a user and a
// group, reporting which branch occurred: the pair was already active, an
// inactive row was reactivated (keeping its id), or no row existed and one
// was created.
func (s *MappingService) ActivateUserInGroup(ctx context.Context, userID, groupID int) (*models.MappingActionResult, error) {
	if err := s.validate.ValidatePositiveID("user_id", userID); err != nil {
		return nil, err
	}
	if err := s.validate.ValidatePositiveID("group_id", groupID); err != nil {
		return nil, err
	}

	pair, err := s.mappings.FindPair(ctx, userID, groupID)
	if err != nil && !apperrors.IsNotFound(err) {
		s.log.StoreFailure("mapping pair fetch failed", "mapping", 0, err)
		return nil, err
	}

	if pair != nil {
		if pair.IsActive {
			return &models.MappingActionResult{
				Result:  models.OK(fmt.Sprintf("User %d is already active in group %d", userID, groupID)),
				Action:  models.ActionAlreadyOn,
				Mapping: pair,
			}, nil
		}

		on := true
		updated, err := s.mappings.Update(ctx, pair.ID, models.MappingPatch{IsActive: &on})
		if err != nil {
			if apperrors.IsStore(err) {
				s.log.StoreFailure("mapping reactivate failed", "mapping", pair.ID, err)
			}
			return nil, err
		}

		s.log.Operation(fmt.Sprintf("reactivated mapping user %d -> group %d", userID, groupID),
			"mapping", updated.ID)

		return &models.MappingActionResult{
			Result:  models.OK(fmt.Sprintf("User %d reactivated in group %d", userID, groupID)),
			Action:  models.ActionReactivated,
			Mapping: updated,
		}, nil
	}

	exists, err := s.groups.Exists(ctx, groupID)
	if err != nil {
		s.log.StoreFailure("group existence check failed", "group", groupID, err)
		return nil, err
	}
	if !exists {
		return nil, &apperrors.NotFoundError{Entity: "group", ID: groupID}
	}

	mapping := &models.Mapping{UserID: userID, GroupID: groupID, IsActive: true}
	if err := s.mappings.Insert(ctx, mapping); err != nil {
		if apperrors.IsStore(err) {
			s.log.StoreFailure("mapping insert failed", "mapping", 0, err)
		}
		return nil, err
	}

	s.log.Operation(fmt.Sprintf("created mapping user %d -> group %d via activation", userID, groupID),
		"mapping", mapping.ID)

	return &models.MappingActionResult{
		Result:  models.OK(fmt.Sprintf("User %d activated in group %d", userID, groupID)),
		Action:  models.ActionCreated,
		Mapping: mapping,
	}, nil
}

// BulkCreateMappings creates many mappings in one call. A batch larger than
// the configured maximum is rejected whole. Duplicate pairs are skipped, not
// failed; missing groups and invalid items are reported as per-item errors.
// The success rate is computed over processed items, so a batch with only
// duplicates and no failures still reports zero rather than an error.
func (s *MappingService) BulkCreateMappings(ctx context.Context, items []models.MappingInput) (*models.BulkMappingCreateResult, error) {
	if len(items) == 0 {
		return nil, apperrors.NewValidation("mappings", "cannot be empty")
	}
	if max := s.validate.Limits().MaxBulkMappingCreate; len(items) > max {
		return nil, apperrors.NewValidation("mappings",
			"batch size %d exceeds maximum of %d", len(items), max)
	}

	result := &models.BulkMappingCreateResult{
		TotalProcessed: len(items),
		Created:        []models.Mapping{},
		Errors:         []models.BulkItemError{},
		Skipped:        []models.BulkSkip{},
	}

	fail := func(index int, err error) {
		result.Failed++
		result.Errors = append(result.Errors, models.BulkItemError{
			Index:   index,
			Kind:    apperrors.Kind(err),
			Message: err.Error(),
		})
	}

	for i, item := range items {
		in, err := s.validate.ValidateMappingInput(item)
		if err != nil {
			fail(i, err)
			continue
		}

		existing, err := s.mappings.FindPair(ctx, in.UserID, in.GroupID)
		if err != nil && !apperrors.IsNotFound(err) {
			fail(i, err)
			continue
		}
		if existing != nil {
			result.SkippedCount++
			result.Skipped = append(result.Skipped, models.BulkSkip{
				Index:   i,
				UserID:  in.UserID,
				GroupID: in.GroupID,
				Reason:  "mapping already exists",
			})
			continue
		}

		exists, err := s.groups.Exists(ctx, in.GroupID)
		if err != nil {
			fail(i, err)
			continue
		}
		if !exists {
			fail(i, &apperrors.NotFoundError{Entity: "group", ID: in.GroupID})
			continue
		}

		isActive := true
		if in.IsActive != nil {
			isActive = *in.IsActive
		}
		mapping := models.Mapping{
			UserID:    in.UserID,
			GroupID:   in.GroupID,
			IsActive:  isActive,
			Notes:     in.Notes,
			CreatedBy: in.CreatedBy,
		}
		if err := s.mappings.Insert(ctx, &mapping); err != nil {
			fail(i, err)
			continue
		}

		result.Successful++
		result.Created = append(result.Created, mapping)
	}

	processed := result.TotalProcessed - result.SkippedCount
	result.SuccessRate = models.SuccessRate(result.Successful, processed)
	result.Success = result.Failed == 0
	result.Message = fmt.Sprintf("Bulk create completed: %d created, %d skipped, %d failed",
		result.Successful, result.SkippedCount, result.Failed)

	s.log.Operation(result.Message, "mapping", 0)
	return result, nil
}

// BulkUpdateMappings applies independent partial updates to many mappings.
// One item's failure never aborts the batch. The success rate is computed
// over all items.
func (s *MappingService) BulkUpdateMappings(ctx context.Context, items []models.MappingUpdateItem) (*models.BulkMappingUpdateResult, error) {
	if len(items) == 0 {
		return nil, apperrors.NewValidation("updates", "cannot be empty")
	}
	if max := s.validate.Limits().MaxBulkUpdate; len(items) > max {
		return nil, apperrors.NewValidation("updates",
			"batch size %d exceeds maximum of %d", len(items), max)
	}

	result := &models.BulkMappingUpdateResult{
		TotalProcessed: len(items),
		Updated:        []models.MappingUpdateResult{},
		Errors:         []models.BulkItemError{},
	}

	for i, item := range items {
		updated, err := s.UpdateMapping(ctx, item.MappingID, item.Data)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, models.BulkItemError{
				Index:   i,
				ID:      item.MappingID,
				Kind:    apperrors.Kind(err),
				Message: err.Error(),
			})
			continue
		}
		result.Successful++
		result.Updated = append(result.Updated, *updated)
	}

	result.SuccessRate = models.SuccessRate(result.Successful, result.TotalProcessed)
	result.Success = result.Failed == 0
	result.Message = fmt.Sprintf("Bulk update completed: %d successful, %d failed",
		result.Successful, result.Failed)

	s.log.Operation(result.Message, "mapping", 0)
	return result, nil
}

// GetUserGroupMappings is the per-user read projection: every group mapping
// for a user, enriched with group fields and a summary of distinct active
// groups. An unknown user simply has no mappings; this never mutates state.
func (s *MappingService) GetUserGroupMappings(ctx context.Context, userID int, includeInactive bool) (*models.UserMappingsResult, error) {
	if err := s.validate.ValidatePositiveID("user_id", userID); err != nil {
		return nil, err
	}

	mappings, err := s.mappings.FindByUser(ctx, userID, includeInactive)
	if err != nil {
		s.log.StoreFailure("user mappings fetch failed", "mapping", 0, err)
		return nil, err
	}
	if mappings == nil {
		mappings = []models.MappingWithGroup{}
	}

	summary := models.MappingsSummary{TotalMappings: len(mappings)}
	seen := map[string]bool{}
	for _, m := range mappings {
		if !m.IsActive {
			summary.InactiveMappings++
			continue
		}
		summary.ActiveMappings++
		if !seen[m.GroupName] {
			seen[m.GroupName] = true
			summary.GroupNames = append(summary.GroupNames, m.GroupName)
		}
	}
	summary.GroupCount = len(summary.GroupNames)

	return &models.UserMappingsResult{
		Result:   models.OK(fmt.Sprintf("Retrieved %d mapping(s) for user %d", len(mappings), userID)),
		UserID:   userID,
		Mappings: mappings,
		Summary:  summary,
	}, nil
}

// GetGroupUserMappings is the per-group read projection: every user mapping
// for a group with a summary of the distinct active users. The group must
// exist.
func (s *MappingService) GetGroupUserMappings(ctx context.Context, groupID int, includeInactive bool) (*models.GroupMappingsResult, error) {
	if err := s.validate.ValidatePositiveID("group_id", groupID); err != nil {
		return nil, err
	}

	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if apperrors.IsStore(err) {
			s.log.StoreFailure("group fetch failed", "group", groupID, err)
		}
		return nil, err
	}

	rows, err := s.mappings.FindByGroup(ctx, groupID, includeInactive)
	if err != nil {
		s.log.StoreFailure("group mappings fetch failed", "mapping", 0, err)
		return nil, err
	}

	mappings := make([]models.MappingWithGroup, 0, len(rows))
	summary := models.MappingsSummary{TotalMappings: len(rows)}
	seen := map[int]bool{}
	for _, m := range rows {
		mappings = append(mappings, models.MappingWithGroup{
			Mapping:          m,
			GroupName:        group.Name,
			GroupDescription: group.Description,
			GroupIsActive:    group.IsActive,
		})
		if !m.IsActive {
			summary.InactiveMappings++
			continue
		}
		summary.ActiveMappings++
		if !seen[m.UserID] {
			seen[m.UserID] = true
			summary.UserIDs = append(summary.UserIDs, m.UserID)
		}
	}
	summary.UniqueUsers = len(summary.UserIDs)

	return &models.GroupMappingsResult{
		Result:   models.OK(fmt.Sprintf("Retrieved %d mapping(s) for group %q", len(rows), group.Name)),
		Group:    group,
		Mappings: mappings,
		Summary:  summary,
	}, nil
}

// diffMapping records the audited field changes a patch actually caused.
func diffMapping(before, after *models.Mapping, patch models.MappingPatch) []models.FieldChange {
	changes := []models.FieldChange{}

	if patch.IsActive != nil && before.IsActive != after.IsActive {
		changes = append(changes, models.FieldChange{Field: "is_active", Old: before.IsActive, New: after.IsActive})
	}
	if patch.Notes != nil && before.Notes != after.Notes {
		changes = append(changes, models.FieldChange{Field: "notes", Old: before.Notes, New: after.Notes})
	}
	if patch.UpdatedBy != nil && before.UpdatedBy != after.UpdatedBy {
		changes = append(changes, models.FieldChange{Field: "updated_by", Old: before.UpdatedBy, New: after.UpdatedBy})
	}

	return changes
}
