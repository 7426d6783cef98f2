package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code2deploy-console/internal/model"
)

func TestStruct_SignupForm(t *testing.T) {
	t.Parallel()

	valid := model.SignupForm{
		Username:        "ada",
		Email:           "ada@example.com",
		Password:        "longenough",
		ConfirmPassword: "longenough",
	}
	require.NoError(t, Struct(valid))

	bad := valid
	bad.Email = "not-an-email"
	bad.Password = "short"
	bad.ConfirmPassword = "different"

	err := Struct(bad)
	var verr *Error
	require.True(t, errors.As(err, &verr))

	fields := verr.Fields()
	assert.Equal(t, "must be a valid email address", fields["email"])
	assert.Equal(t, "must be at least 8 characters", fields["password"])
	assert.Contains(t, fields["confirm_password"], "must match")
}

func TestStruct_ChangePasswordMismatch(t *testing.T) {
	t.Parallel()

	err := Struct(model.ChangePasswordForm{
		CurrentPassword: "old-password",
		NewPassword:     "new-password-1",
		ConfirmPassword: "new-password-2",
	})

	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields(), "confirm_password")
	assert.NotContains(t, verr.Fields(), "new_password")
}

func TestVar(t *testing.T) {
	t.Parallel()

	msg, ok := Var("", "required")
	assert.False(t, ok)
	assert.Equal(t, "is required", msg)

	msg, ok = Var("advanced", "oneof=beginner intermediate advanced")
	assert.True(t, ok)
	assert.Empty(t, msg)

	msg, ok = Var("expert", "oneof=beginner intermediate advanced")
	assert.False(t, ok)
	assert.Equal(t, "must be one of: beginner intermediate advanced", msg)
}

func TestError_MessageIsStable(t *testing.T) {
	t.Parallel()

	err := NewError(map[string]string{"title": "is required", "level": "must be one of: a b"})
	assert.Equal(t, "field 'level' must be one of: a b; field 'title' is required", err.Error())
}
