package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/sigetic/helpdesk/pkg/util/errorutil"
)

func TestValidate_CreateTicketForm(t *testing.T) {
	err := Validate(CreateTicketForm{Category: "abc", Priority: "whenever"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	fields := apperrors.ToDomainError(err).Details["fields"].(map[string]any)
	assert.Equal(t, "must be a number", fields["category"])
	assert.Equal(t, "is required", fields["description"])
	assert.Contains(t, fields["priority"], "must be one of")

	ok := CreateTicketForm{Category: "3", Subcategory: "9", Description: "printer jammed"}
	require.NoError(t, Validate(ok))
	category, sub, site, dept := ok.IDs()
	assert.Equal(t, int64(3), category)
	require.NotNil(t, sub)
	assert.Equal(t, int64(9), *sub)
	assert.Nil(t, site)
	assert.Nil(t, dept)
}

func TestValidate_AssignAndStatus(t *testing.T) {
	assert.NoError(t, Validate(AssignRequest{}))
	zero := int64(0)
	assert.Error(t, Validate(AssignRequest{TechnicianID: &zero}))

	assert.NoError(t, Validate(StatusRequest{Status: "resolved"}))
	assert.Error(t, Validate(StatusRequest{Status: "reopened"}))
	assert.Error(t, Validate(ListQuery{DateScope: "year"}))
}
