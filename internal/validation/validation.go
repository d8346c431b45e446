package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/avissapr/groupmapper/internal/apperrors"
	"github.com/avissapr/groupmapper/internal/models"
)

// Characters rejected in group names. Matches the markup/escape set that has
// caused rendering problems downstream.
const invalidNameChars = `<>"'&%`

// Fields the search operation may scan.
var searchableFields = map[string]bool{
	"group_name":  true,
	"description": true,
}

// Service validates field constraints for groups and mappings before any
// persistence call. All methods return apperrors.ValidationError carrying the
// offending field name and a human-readable reason.
type Service struct {
	limits *Limits
}

// NewService creates a validation service. A nil limits falls back to
// DefaultLimits.
func NewService(limits *Limits) *Service {
	if limits == nil {
		limits = DefaultLimits()
	}
	return &Service{limits: limits}
}

// Limits exposes the active configuration so the engine can share the batch
// ceilings without a second source of truth.
func (s *Service) Limits() *Limits {
	return s.limits
}

// ValidateGroupInput normalizes and validates group creation data.
// Name and description are trimmed; the returned input is the normalized copy.
func (s *Service) ValidateGroupInput(in models.GroupInput) (models.GroupInput, error) {
	name, err := s.validateGroupName(in.Name)
	if err != nil {
		return in, err
	}
	desc, err := s.validateDescription(in.Description)
	if err != nil {
		return in, err
	}

	in.Name = name
	in.Description = desc
	in.CreatedBy = strings.TrimSpace(in.CreatedBy)
	return in, nil
}

// ValidateGroupPatch validates the allow-listed updatable group fields.
// At least one field must be present; present fields are normalized in place.
func (s *Service) ValidateGroupPatch(p *models.GroupPatch) error {
	if p == nil || p.IsEmpty() {
		return apperrors.NewValidation("", "update data cannot be empty")
	}

	if p.Name != nil {
		name, err := s.validateGroupName(*p.Name)
		if err != nil {
			return err
		}
		*p.Name = name
	}

	if p.Description != nil {
		desc, err := s.validateDescription(*p.Description)
		if err != nil {
			return err
		}
		*p.Description = desc
	}

	if p.UpdatedBy != nil {
		*p.UpdatedBy = strings.TrimSpace(*p.UpdatedBy)
	}

	return nil
}

// ValidateMappingInput validates mapping creation data. user_id and group_id
// must be positive; notes are bounded.
func (s *Service) ValidateMappingInput(in models.MappingInput) (models.MappingInput, error) {
	if err := s.ValidatePositiveID("user_id", in.UserID); err != nil {
		return in, err
	}
	if err := s.ValidatePositiveID("group_id", in.GroupID); err != nil {
		return in, err
	}

	in.Notes = strings.TrimSpace(in.Notes)
	if utf8.RuneCountInString(in.Notes) > s.limits.MaxNotesLength {
		return in, apperrors.NewValidation("notes",
			"must be %d characters or less", s.limits.MaxNotesLength)
	}

	in.CreatedBy = strings.TrimSpace(in.CreatedBy)
	return in, nil
}

// ValidateMappingPatch validates the allow-listed updatable mapping fields.
func (s *Service) ValidateMappingPatch(p *models.MappingPatch) error {
	if p == nil || p.IsEmpty() {
		return apperrors.NewValidation("", "update data cannot be empty")
	}

	if p.Notes != nil {
		*p.Notes = strings.TrimSpace(*p.Notes)
		if utf8.RuneCountInString(*p.Notes) > s.limits.MaxNotesLength {
			return apperrors.NewValidation("notes",
				"must be %d characters or less", s.limits.MaxNotesLength)
		}
	}

	if p.UpdatedBy != nil {
		*p.UpdatedBy = strings.TrimSpace(*p.UpdatedBy)
	}

	return nil
}

// ValidatePositiveID rejects non-positive identifiers, naming the field and
// the offending value.
func (s *Service) ValidatePositiveID(field string, id int) error {
	if id <= 0 {
		return apperrors.NewValidation(field, "must be a positive integer, got %d", id)
	}
	return nil
}

// ValidatePagination checks list paging parameters. A limit of 0 means no
// limit; otherwise it must fall within (0, MaxPageLimit].
func (s *Service) ValidatePagination(limit, offset int) error {
	if limit < 0 || limit > s.limits.MaxPageLimit {
		return apperrors.NewValidation("limit",
			"must be between 0 and %d, got %d", s.limits.MaxPageLimit, limit)
	}
	if offset < 0 {
		return apperrors.NewValidation("offset", "must be non-negative, got %d", offset)
	}
	return nil
}

// ValidateSearch normalizes search parameters: the term is trimmed and
// lowered for case-insensitive matching, fields default to all searchable
// ones, and the limit defaults to DefaultSearchLimit when 0.
func (s *Service) ValidateSearch(term string, fields []string, limit int) (string, []string, int, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return "", nil, 0, apperrors.NewValidation("search_term", "cannot be empty")
	}

	if len(fields) == 0 {
		fields = []string{"group_name", "description"}
	}
	for _, f := range fields {
		if !searchableFields[f] {
			return "", nil, 0, apperrors.NewValidation("search_fields",
				"unknown field %q (allowed: group_name, description)", f)
		}
	}

	if limit == 0 {
		limit = s.limits.DefaultSearchLimit
	}
	if limit < 1 || limit > s.limits.MaxSearchLimit {
		return "", nil, 0, apperrors.NewValidation("limit",
			"must be between 1 and %d, got %d", s.limits.MaxSearchLimit, limit)
	}

	return term, fields, limit, nil
}

func (s *Service) validateGroupName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.NewValidation("group_name", "is required")
	}

	length := utf8.RuneCountInString(name)
	if length < s.limits.MinGroupNameLength {
		return "", apperrors.NewValidation("group_name",
			"must be at least %d characters", s.limits.MinGroupNameLength)
	}
	if length > s.limits.MaxGroupNameLength {
		return "", apperrors.NewValidation("group_name",
			"must be %d characters or less", s.limits.MaxGroupNameLength)
	}

	if strings.ContainsAny(name, invalidNameChars) {
		return "", apperrors.NewValidation("group_name",
			"contains invalid characters (%s)", invalidNameChars)
	}

	return name, nil
}

func (s *Service) validateDescription(desc string) (string, error) {
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return "", apperrors.NewValidation("description", "is required")
	}
	if utf8.RuneCountInString(desc) > s.limits.MaxDescriptionLength {
		return "", apperrors.NewValidation("description",
			"must be %d characters or less", s.limits.MaxDescriptionLength)
	}
	return desc, nil
}
