// internal/utils/validator_test.go
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type phoneFixture struct {
	Phone string `validate:"ng_phone"`
}

func TestNigerianPhoneValidation(t *testing.T) {
	valid := []string{
		"+2348031234567",
		"08031234567",
		"+234 803 123 4567",
		"0703 123 4567",
	}
	for _, p := range valid {
		assert.NoError(t, ValidateStruct(phoneFixture{Phone: p}), p)
	}

	invalid := []string{
		"8031234567",
		"+23480312345",
		"+14155550100",
		"0803123456789",
		"not-a-phone",
	}
	for _, p := range invalid {
		assert.Error(t, ValidateStruct(phoneFixture{Phone: p}), p)
	}
}

type passwordFixture struct {
	Password string `validate:"strong_password"`
}

func TestStrongPasswordValidation(t *testing.T) {
	assert.NoError(t, ValidateStruct(passwordFixture{Password: "Lagos2024!"}))

	weak := []string{"short1!", "nouppercase1!", "NOLOWERCASE1!", "NoNumbers!", "NoSpecial123"}
	for _, p := range weak {
		assert.Error(t, ValidateStruct(passwordFixture{Password: p}), p)
	}
}

type usernameFixture struct {
	Username string `validate:"username"`
}

func TestUsernameValidation(t *testing.T) {
	assert.NoError(t, ValidateStruct(usernameFixture{Username: "ada_okafor1"}))
	assert.Error(t, ValidateStruct(usernameFixture{Username: "ab"}))
	assert.Error(t, ValidateStruct(usernameFixture{Username: "has space"}))
	assert.Error(t, ValidateStruct(usernameFixture{Username: "dash-ed"}))
}

type registerFixture struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

func TestGetValidationErrors(t *testing.T) {
	err := ValidateStruct(registerFixture{Email: "not-an-email", Password: "short"})
	assert.Error(t, err)

	errs := GetValidationErrors(err)
	assert.Len(t, errs, 2)
	assert.Equal(t, "email", errs[0].Field)
	assert.Equal(t, "Invalid email format", errs[0].Message)
	assert.Equal(t, "password", errs[1].Field)
	assert.Equal(t, "min", errs[1].Tag)
}
