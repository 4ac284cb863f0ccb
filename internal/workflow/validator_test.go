// internal/workflow/validator_test.go
package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDirectors(shares ...float64) StageData {
	entries := make([]interface{}, 0, len(shares))
	for i, s := range shares {
		entries = append(entries, map[string]interface{}{
			"full_name":     "Director " + string(rune('A'+i)),
			"email":         "director@example.com",
			"share_percent": s,
		})
	}
	return StageData{"directors": entries}
}

func TestValidateRequiredFields(t *testing.T) {
	res, err := Validate(StageProposedNames, StageData{}, EntityBusinessName)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, []string{
		"first name option is required",
		"second name option is required",
	}, res.Errors)
}

func TestValidateWhitespaceIsEmpty(t *testing.T) {
	res, err := Validate(StageProposedNames, StageData{
		"name_option_1": "   ",
		"name_option_2": "Lagos Provisions Ltd",
	}, EntityBusinessName)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"first name option is required"}, res.Errors)
}

func TestValidateEmailFormat(t *testing.T) {
	data := StageData{
		"business_nature": "Retail trade",
		"business_email":  "not-an-email",
		"business_phone":  "+2348012345678",
	}
	res, err := Validate(StageBusinessDetails, data, EntityBusinessName)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"business email is not a valid email address"}, res.Errors)

	data["business_email"] = "hello@lagosprovisions.ng"
	res, err = Validate(StageBusinessDetails, data, EntityBusinessName)
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestValidateNumericFields(t *testing.T) {
	res, err := Validate(StageShareCapital, StageData{
		"authorized_share_capital": "one million",
		"share_unit_price":         -5,
	}, EntityPrivateLimited)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, []string{
		"authorized share capital must be a non-negative number",
		"price per share must be a non-negative number",
	}, res.Errors)

	res, err = Validate(StageShareCapital, StageData{
		"authorized_share_capital": 1000000,
		"share_unit_price":         "1.50",
	}, EntityPrivateLimited)
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestValidateErrorOrderIsStable(t *testing.T) {
	data := StageData{
		"business_email": "bad",
	}
	for i := 0; i < 10; i++ {
		res, err := Validate(StageBusinessDetails, data, EntityPrivateLimited)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"nature of business is required",
			"business email is not a valid email address",
			"business phone is required",
		}, res.Errors)
	}
}

func TestShareholdingSumsToHundred(t *testing.T) {
	res, err := Validate(StageDirectors, validDirectors(60, 40), EntityPrivateLimited)
	require.NoError(t, err)
	assert.True(t, res.Valid, "60/40 split must pass: %v", res.Errors)
}

func TestShareholdingWithinTolerance(t *testing.T) {
	res, err := Validate(StageDirectors, validDirectors(33.33, 33.33, 33.34), EntityPrivateLimited)
	require.NoError(t, err)
	assert.True(t, res.Valid)

	res, err = Validate(StageDirectors, validDirectors(33.33, 33.33, 33.345), EntityPrivateLimited)
	require.NoError(t, err)
	assert.True(t, res.Valid, "within the 0.01 tolerance")
}

func TestShareholdingViolationCitesTotal(t *testing.T) {
	res, err := Validate(StageDirectors, validDirectors(60, 30), EntityPrivateLimited)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "shareholding across all directors must total 100%, got 90", res.Errors[0])
}

func TestDirectorEntryFieldErrors(t *testing.T) {
	data := StageData{"directors": []interface{}{
		map[string]interface{}{"full_name": "Ada Obi", "email": "ada@obis.ng", "share_percent": 100},
		map[string]interface{}{"full_name": "", "email": "broken", "share_percent": "lots"},
	}}
	res, err := Validate(StageDirectors, data, EntityPrivateLimited)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, []string{
		"director 2: full name is required",
		"director 2: email is not a valid email address",
		"director 2: shareholding percent must be a non-negative number",
	}, res.Errors)
}

func TestTrusteesMinimumCount(t *testing.T) {
	data := StageData{"trustees": []interface{}{
		map[string]interface{}{"full_name": "Chinedu Eze", "email": "chinedu@example.org"},
	}}
	res, err := Validate(StageTrustees, data, EntityIncorporatedTrustees)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"at least 2 trustees are required"}, res.Errors)
}

func TestValidateUnknownStageIsFatal(t *testing.T) {
	_, err := Validate(StageID("payment_details"), StageData{}, EntityBusinessName)
	require.Error(t, err)
	assert.True(t, IsConsistencyError(err))
}

func TestValidateIsPure(t *testing.T) {
	data := StageData{"name_option_1": "Ada Ventures", "name_option_2": "Obi Trading"}
	before := data.clone()
	_, err := Validate(StageProposedNames, data, EntityBusinessName)
	require.NoError(t, err)
	assert.Equal(t, before, data)
}
