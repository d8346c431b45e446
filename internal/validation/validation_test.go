// Package validation_test provides unit tests for the field validation
// service: name and description bounds, patch allow-listing, pagination,
// and search parameter normalization.
package validation_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avissapr/groupmapper/internal/apperrors"
	"github.com/avissapr/groupmapper/internal/models"
	"github.com/avissapr/groupmapper/internal/validation"
)

// TestValidateGroupInput_Normalizes verifies that valid input comes back
// trimmed and otherwise untouched.
func TestValidateGroupInput_Normalizes(t *testing.T) {
	svc := validation.NewService(nil)

	in, err := svc.ValidateGroupInput(models.GroupInput{
		Name:        "  Engineering  ",
		Description: " Core engineering department ",
		CreatedBy:   " admin ",
	})

	require.NoError(t, err)
	assert.Equal(t, "Engineering", in.Name)
	assert.Equal(t, "Core engineering department", in.Description)
	assert.Equal(t, "admin", in.CreatedBy)
}

// TestValidateGroupInput_NameBounds exercises the name length and character
// rules: 2 to 100 characters after trimming, markup characters rejected.
func TestValidateGroupInput_NameBounds(t *testing.T) {
	svc := validation.NewService(nil)

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"Empty", "", true},
		{"WhitespaceOnly", "   ", true},
		{"TooShort", "A", true},
		{"MinimumLength", "QA", false},
		{"MaximumLength", strings.Repeat("x", 100), false},
		{"TooLong", strings.Repeat("x", 101), true},
		{"AngleBracket", "Eng<team>", true},
		{"Quote", `Eng "A"`, true},
		{"Apostrophe", "Eng's team", true},
		{"Ampersand", "R&D", true},
		{"Percent", "Top 10%", true},
		{"PlainName", "Platform Engineering", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateGroupInput(models.GroupInput{
				Name:        tt.input,
				Description: "A perfectly fine description",
			})
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, apperrors.IsValidation(err), "Error should be a validation error")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestValidateGroupInput_DescriptionBounds verifies the description is
// required and capped at 500 characters.
func TestValidateGroupInput_DescriptionBounds(t *testing.T) {
	svc := validation.NewService(nil)

	_, err := svc.ValidateGroupInput(models.GroupInput{Name: "Engineering", Description: "  "})
	assert.Error(t, err, "Blank description should be rejected")

	_, err = svc.ValidateGroupInput(models.GroupInput{
		Name:        "Engineering",
		Description: strings.Repeat("d", 501),
	})
	assert.Error(t, err, "Over-long description should be rejected")

	_, err = svc.ValidateGroupInput(models.GroupInput{
		Name:        "Engineering",
		Description: strings.Repeat("d", 500),
	})
	assert.NoError(t, err, "500 characters is within bounds")
}

// TestValidateGroupPatch_Empty verifies an all-nil patch is rejected rather
// than silently doing nothing.
func TestValidateGroupPatch_Empty(t *testing.T) {
	svc := validation.NewService(nil)

	err := svc.ValidateGroupPatch(&models.GroupPatch{})
	assert.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

// TestValidateGroupPatch_NormalizesPresentFields verifies present fields are
// trimmed in place and absent fields stay nil.
func TestValidateGroupPatch_NormalizesPresentFields(t *testing.T) {
	svc := validation.NewService(nil)

	name := "  Platform  "
	patch := models.GroupPatch{Name: &name}

	require.NoError(t, svc.ValidateGroupPatch(&patch))
	assert.Equal(t, "Platform", *patch.Name)
	assert.Nil(t, patch.Description, "Absent fields must stay nil")
}

// TestValidateMappingInput verifies id positivity and the notes bound.
func TestValidateMappingInput(t *testing.T) {
	svc := validation.NewService(nil)

	_, err := svc.ValidateMappingInput(models.MappingInput{UserID: 0, GroupID: 1})
	assert.Error(t, err, "Zero user_id should be rejected")

	_, err = svc.ValidateMappingInput(models.MappingInput{UserID: 1, GroupID: -5})
	assert.Error(t, err, "Negative group_id should be rejected")

	_, err = svc.ValidateMappingInput(models.MappingInput{
		UserID: 1, GroupID: 2, Notes: strings.Repeat("n", 501),
	})
	assert.Error(t, err, "Over-long notes should be rejected")

	in, err := svc.ValidateMappingInput(models.MappingInput{
		UserID: 1, GroupID: 2, Notes: "  on-call rotation  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "on-call rotation", in.Notes)
}

// TestValidatePagination verifies the limit window and non-negative offset.
// A limit of 0 means no limit and is allowed.
func TestValidatePagination(t *testing.T) {
	svc := validation.NewService(nil)

	assert.NoError(t, svc.ValidatePagination(0, 0))
	assert.NoError(t, svc.ValidatePagination(1000, 50))
	assert.Error(t, svc.ValidatePagination(1001, 0), "Limit above ceiling should be rejected")
	assert.Error(t, svc.ValidatePagination(-1, 0))
	assert.Error(t, svc.ValidatePagination(10, -1))
}

// TestValidateSearch verifies term normalization, field allow-listing, and
// the default limit.
func TestValidateSearch(t *testing.T) {
	svc := validation.NewService(nil)

	term, fields, limit, err := svc.ValidateSearch("  Admin  ", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, "admin", term, "Term should be trimmed and lowered")
	assert.Equal(t, []string{"group_name", "description"}, fields, "Fields should default")
	assert.Equal(t, 50, limit, "Limit should default to 50")

	_, _, _, err = svc.ValidateSearch("   ", nil, 0)
	assert.Error(t, err, "Blank term should be rejected")

	_, _, _, err = svc.ValidateSearch("admin", []string{"created_by"}, 0)
	assert.Error(t, err, "Unknown search field should be rejected")

	_, _, _, err = svc.ValidateSearch("admin", nil, 1001)
	assert.Error(t, err, "Limit above search ceiling should be rejected")
}

// TestCustomLimits verifies that injected limits replace the defaults.
func TestCustomLimits(t *testing.T) {
	limits := validation.DefaultLimits()
	limits.MaxGroupNameLength = 10
	svc := validation.NewService(limits)

	_, err := svc.ValidateGroupInput(models.GroupInput{
		Name:        "A Much Longer Name",
		Description: "desc",
	})
	assert.Error(t, err, "Custom name ceiling should apply")
}
