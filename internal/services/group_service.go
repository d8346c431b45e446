// Package services implements the mapping management engine: business rules,
// result envelopes, and the error taxonomy contract over the repository
// layer. Handlers stay thin; everything a caller can observe about an
// operation is decided here.
package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/avissapr/groupmapper/internal/apperrors"
	"github.com/avissapr/groupmapper/internal/logging"
	"github.com/avissapr/groupmapper/internal/models"
	"github.com/avissapr/groupmapper/internal/repository"
	"github.com/avissapr/groupmapper/internal/validation"
)

// GroupService handles group lifecycle operations: create, read, list,
// update, search, delete, and bulk update.
type GroupService struct {
	groups   *repository.GroupRepository
	mappings *repository.MappingRepository
	validate *validation.Service
	log      *logging.Logger
}

// NewGroupService creates a group service. A nil validator falls back to
// default limits; a nil logger falls back to stdout.
func NewGroupService(validate *validation.Service, log *logging.Logger) *GroupService {
	if validate == nil {
		validate = validation.NewService(nil)
	}
	if log == nil {
		log = logging.NewLogger()
	}
	return &GroupService{
		groups:   repository.NewGroupRepository(),
		mappings: repository.NewMappingRepository(),
		validate: validate,
		log:      log,
	}
}

// CreateGroup validates the input, enforces name uniqueness, and inserts a
// new group. The name is checked before the insert for a friendly error; the
// unique index remains authoritative under concurrent creates.
func (s *GroupService) CreateGroup(ctx context.Context, in models.GroupInput) (*models.GroupResult, error) {
	in, err := s.validate.ValidateGroupInput(in)
	if err != nil {
		return nil, err
	}

	taken, err := s.groups.NameTaken(ctx, in.Name, 0)
	if err != nil {
		s.log.StoreFailure("group name check failed", "group", 0, err)
		return nil, err
	}
	if taken {
		return nil, &apperrors.DuplicateError{
			Entity: "group",
			Detail: fmt.Sprintf("group with name %q already exists", in.Name),
		}
	}

	isActive := true
	if in.IsActive != nil {
		isActive = *in.IsActive
	}

	group := &models.Group{
		Name:        in.Name,
		Description: in.Description,
		IsActive:    isActive,
		CreatedBy:   in.CreatedBy,
	}
	if err := s.groups.Insert(ctx, group); err != nil {
		if apperrors.IsStore(err) {
			s.log.StoreFailure("group insert failed", "group", 0, err)
		}
		return nil, err
	}

	s.log.Operation(fmt.Sprintf("created group %q", group.Name), "group", group.ID)

	return &models.GroupResult{
		Result: models.OK(fmt.Sprintf("Group %q created successfully", group.Name)),
		Group:  group,
		Summary: &models.GroupOpSummary{
			GroupID:   group.ID,
			GroupName: group.Name,
			IsActive:  group.IsActive,
			Timestamp: group.CreatedOn,
		},
	}, nil
}

// GetGroup fetches one group with its mapping-count metadata.
func (s *GroupService) GetGroup(ctx context.Context, groupID int) (*models.GroupResult, error) {
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

	total, active, err := s.mappings.CountByGroup(ctx, groupID)
	if err != nil {
		s.log.StoreFailure("mapping count failed", "group", groupID, err)
		return nil, err
	}

	return &models.GroupResult{
		Result: models.OK(fmt.Sprintf("Group %q retrieved successfully", group.Name)),
		Group:  group,
		Metadata: &models.GroupMetadata{
			TotalMappings:  total,
			ActiveMappings: active,
		},
	}, nil
}

// ListGroups returns one page of groups matching the filter, with pagination
// metadata computed from the unpaged total. A limit of 0 returns everything.
func (s *GroupService) ListGroups(ctx context.Context, filter models.GroupFilter, limit, offset int) (*models.GroupListResult, error) {
	if err := s.validate.ValidatePagination(limit, offset); err != nil {
		return nil, err
	}

	groups, total, err := s.groups.List(ctx, filter, limit, offset)
	if err != nil {
		s.log.StoreFailure("group list failed", "group", 0, err)
		return nil, err
	}
	if groups == nil {
		groups = []models.Group{}
	}

	return &models.GroupListResult{
		Result: models.OK(fmt.Sprintf("Retrieved %d of %d groups", len(groups), total)),
		Groups: groups,
		Meta:   models.NewPageMeta(total, len(groups), limit, offset),
	}, nil
}

// UpdateGroup applies a partial update to a group and reports the fields
// that actually changed. A name change is checked for uniqueness against
// every other group.
func (s *GroupService) UpdateGroup(ctx context.Context, groupID int, patch models.GroupPatch) (*models.GroupUpdateResult, error) {
	if err := s.validate.ValidatePositiveID("group_id", groupID); err != nil {
		return nil, err
	}
	if err := s.validate.ValidateGroupPatch(&patch); err != nil {
		return nil, err
	}

	current, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if apperrors.IsStore(err) {
			s.log.StoreFailure("group fetch failed", "group", groupID, err)
		}
		return nil, err
	}

	if patch.Name != nil && *patch.Name != current.Name {
		taken, err := s.groups.NameTaken(ctx, *patch.Name, groupID)
		if err != nil {
			s.log.StoreFailure("group name check failed", "group", groupID, err)
			return nil, err
		}
		if taken {
			return nil, &apperrors.DuplicateError{
				Entity: "group",
				Detail: fmt.Sprintf("group with name %q already exists", *patch.Name),
			}
		}
	}

	updated, err := s.groups.Update(ctx, groupID, patch)
	if err != nil {
		if apperrors.IsStore(err) {
			s.log.StoreFailure("group update failed", "group", groupID, err)
		}
		return nil, err
	}

	changes := diffGroup(current, updated, patch)
	s.log.Operation(fmt.Sprintf("updated group %q (%d field(s) changed)", updated.Name, len(changes)),
		"group", updated.ID)

	return &models.GroupUpdateResult{
		Result:  models.OK(fmt.Sprintf("Group %q updated successfully", updated.Name)),
		Group:   updated,
		Changes: changes,
	}, nil
}

// DeleteGroup permanently removes a group. Without force the delete is
// refused while any mapping row references the group, active or not. With
// force the mappings are removed first, then the group; if the group delete
// then fails the error states how many mappings are already gone, since the
// two steps are not atomic.
func (s *GroupService) DeleteGroup(ctx context.Context, groupID int, force bool) (*models.GroupDeleteResult, error) {
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

	total, _, err := s.mappings.CountByGroup(ctx, groupID)
	if err != nil {
		s.log.StoreFailure("mapping count failed", "group", groupID, err)
		return nil, err
	}

	if total > 0 && !force {
		return nil, &apperrors.ConstraintError{
			Reason: fmt.Sprintf("cannot delete group %q: %d mapping(s) still reference it; use force to remove them as well",
				group.Name, total),
			Count: total,
		}
	}

	mappingsDeleted := 0
	if total > 0 {
		mappingsDeleted, err = s.mappings.DeleteByGroup(ctx, groupID)
		if err != nil {
			s.log.StoreFailure("cascade mapping delete failed", "group", groupID, err)
			return nil, err
		}
	}

	if _, err := s.groups.Delete(ctx, groupID); err != nil {
		storeErr := apperrors.NewStore(
			fmt.Sprintf("delete group after %d mapping(s) were already removed; the group row remains and needs manual cleanup",
				mappingsDeleted),
			"group", groupID, err)
		s.log.StoreFailure(storeErr.Error(), "group", groupID, err)
		return nil, storeErr
	}

	s.log.Operation(fmt.Sprintf("deleted group %q (%d mapping(s) removed)", group.Name, mappingsDeleted),
		"group", groupID)

	return &models.GroupDeleteResult{
		Result: models.OK(fmt.Sprintf("Group %q deleted successfully (%d mapping(s) removed)",
			group.Name, mappingsDeleted)),
		Group:           group,
		MappingsDeleted: mappingsDeleted,
		Forced:          force,
	}, nil
}

// SearchGroups scans all groups case-insensitively and ranks matches by
// relevance: an exact field match scores 2, a substring match scores 1,
// summed across the searched fields. Ties break on ascending id so results
// are deterministic.
func (s *GroupService) SearchGroups(ctx context.Context, term string, fields []string, limit int) (*models.GroupSearchResult, error) {
	term, fields, limit, err := s.validate.ValidateSearch(term, fields, limit)
	if err != nil {
		return nil, err
	}

	all, _, err := s.groups.List(ctx, models.GroupFilter{}, 0, 0)
	if err != nil {
		s.log.StoreFailure("group search scan failed", "group", 0, err)
		return nil, err
	}

	var matches []models.ScoredGroup
	for _, g := range all {
		score := 0
		for _, field := range fields {
			var value string
			switch field {
			case "group_name":
				value = g.Name
			case "description":
				value = g.Description
			}
			value = strings.ToLower(value)
			if value == term {
				score += 2
			} else if strings.Contains(value, term) {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, models.ScoredGroup{Group: g, RelevanceScore: score})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].RelevanceScore != matches[j].RelevanceScore {
			return matches[i].RelevanceScore > matches[j].RelevanceScore
		}
		return matches[i].ID < matches[j].ID
	})

	totalMatches := len(matches)
	limited := totalMatches > limit
	if limited {
		matches = matches[:limit]
	}
	if matches == nil {
		matches = []models.ScoredGroup{}
	}

	return &models.GroupSearchResult{
		Result: models.OK(fmt.Sprintf("Found %d group(s) matching %q", totalMatches, term)),
		Groups: matches,
		Meta: models.SearchMetadata{
			Term:         term,
			Fields:       fields,
			TotalMatches: totalMatches,
			Returned:     len(matches),
			LimitApplied: limited,
		},
	}, nil
}

// BulkUpdateGroups applies independent partial updates to many groups. One
// item's failure never aborts the batch; each failure is reported with its
// input index, target id, and error kind. The success rate is computed over
// all items.
func (s *GroupService) BulkUpdateGroups(ctx context.Context, items []models.GroupUpdateItem) (*models.BulkGroupUpdateResult, error) {
	if len(items) == 0 {
		return nil, apperrors.NewValidation("updates", "cannot be empty")
	}
	if max := s.validate.Limits().MaxBulkUpdate; len(items) > max {
		return nil, apperrors.NewValidation("updates",
			"batch size %d exceeds maximum of %d", len(items), max)
	}

	result := &models.BulkGroupUpdateResult{
		TotalProcessed: len(items),
		Updated:        []models.GroupUpdateResult{},
		Errors:         []models.BulkItemError{},
	}

	for i, item := range items {
		updated, err := s.UpdateGroup(ctx, item.GroupID, item.Data)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, models.BulkItemError{
				Index:   i,
				ID:      item.GroupID,
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

	s.log.Operation(result.Message, "group", 0)
	return result, nil
}

// diffGroup records the audited field changes a patch actually caused.
// Fields absent from the patch are never reported, even if the stored value
// moved underneath us.
func diffGroup(before, after *models.Group, patch models.GroupPatch) []models.FieldChange {
	changes := []models.FieldChange{}

	if patch.Name != nil && before.Name != after.Name {
		changes = append(changes, models.FieldChange{Field: "group_name", Old: before.Name, New: after.Name})
	}
	if patch.Description != nil && before.Description != after.Description {
		changes = append(changes, models.FieldChange{Field: "description", Old: before.Description, New: after.Description})
	}
	if patch.IsActive != nil && before.IsActive != after.IsActive {
		changes = append(changes, models.FieldChange{Field: "is_active", Old: before.IsActive, New: after.IsActive})
	}
	if patch.UpdatedBy != nil && before.UpdatedBy != after.UpdatedBy {
		changes = append(changes, models.FieldChange{Field: "updated_by", Old: before.UpdatedBy, New: after.UpdatedBy})
	}

	return changes
}
