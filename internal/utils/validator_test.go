// internal/utils/validator_test.go
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type passwordFixture struct {
	Password string `validate:"required,strong_password"`
}

func TestStrongPasswordRule(t *testing.T) {
	valid := []string{"Abcdef1!", "Sapphire#2024", "xY9$long-enough"}
	for _, password := range valid {
		assert.NoError(t, ValidateStruct(&passwordFixture{Password: password}), password)
	}

	invalid := []string{
		"alllowercase1!",
		"ALLUPPERCASE1!",
		"NoNumbers!",
		"NoSpecials1",
		"Ab1!",
	}
	for _, password := range invalid {
		assert.Error(t, ValidateStruct(&passwordFixture{Password: password}), password)
	}
}

func TestGetValidationErrors(t *testing.T) {
	type form struct {
		Email string `validate:"required,email"`
		Name  string `validate:"required,min=2"`
	}

	err := ValidateStruct(&form{Email: "not-an-email", Name: "x"})
	require.Error(t, err)

	validationErrors := GetValidationErrors(err)
	require.Len(t, validationErrors, 2)

	assert.Equal(t, "email", validationErrors[0].Field)
	assert.Equal(t, "Invalid email format", validationErrors[0].Message)
	assert.Equal(t, "name", validationErrors[1].Field)
	assert.Equal(t, "min", validationErrors[1].Tag)
}

func TestGetValidationErrorsOnNil(t *testing.T) {
	assert.Empty(t, GetValidationErrors(nil))
}
