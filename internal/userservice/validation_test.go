package userservice

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/devnovate/devnovate/internal/common"
)

func TestValidateUsername(t *testing.T) {
	testCases := []struct {
		name     string
		username string
		valid    bool
	}{
		{name: "valid", username: "testuser", valid: true},
		{name: "empty", username: "", valid: false},
		{name: "too short", username: "ab", valid: false},
		{name: "symbols", username: "test_user!", valid: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := common.NewValidator()
			validateUsername(v, tc.username)
			assert.Equal(t, tc.valid, v.Valid())
		})
	}
}

func TestValidateEmail(t *testing.T) {
	testCases := []struct {
		name  string
		email string
		valid bool
	}{
		{name: "valid", email: "test@example.com", valid: true},
		{name: "empty", email: "", valid: false},
		{name: "missing domain", email: "test@", valid: false},
		{name: "missing at", email: "test.example.com", valid: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := common.NewValidator()
			validateEmail(v, tc.email)
			assert.Equal(t, tc.valid, v.Valid())
		})
	}
}

func TestValidatePassword(t *testing.T) {
	testCases := []struct {
		name     string
		password string
		valid    bool
	}{
		{name: "valid", password: "Str0ng#Password", valid: true},
		{name: "empty", password: "", valid: false},
		{name: "too short", password: "S7#a", valid: false},
		{name: "no uppercase", password: "weak#passw0rd", valid: false},
		{name: "no symbol", password: "Weakpassw0rd", valid: false},
		{name: "no number", password: "Weak#password", valid: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := common.NewValidator()
			validatePassword(v, tc.password)
			assert.Equal(t, tc.valid, v.Valid())
		})
	}
}

func TestValidateToken(t *testing.T) {
	v := common.NewValidator()
	ValidateToken(v, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	assert.True(t, v.Valid())

	v = common.NewValidator()
	ValidateToken(v, "tooshort")
	assert.False(t, v.Valid())

	v = common.NewValidator()
	ValidateToken(v, "")
	assert.False(t, v.Valid())
}
