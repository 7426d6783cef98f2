package model

import "strings"

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleMentor  Role = "mentor"
	RoleLearner Role = "learner"
)

// Normalize folds backend role values onto the three dashboard roles.
// Anything that is neither admin nor mentor is treated as a learner.
func (r Role) Normalize() Role {
	switch Role(strings.ToLower(strings.TrimSpace(string(r)))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleMentor:
		return RoleMentor
	default:
		return RoleLearner
	}
}

type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Role         Role   `json:"role"`
	Avatar       string `json:"avatar,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Organization string `json:"organization,omitempty"`
	IsActive     bool   `json:"is_active"`
}

func (u User) IsAdmin() bool {
	return u.Role.Normalize() == RoleAdmin
}

type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type SignupForm struct {
	Username        string `json:"username" validate:"required,max=150"`
	Email           string `json:"email" validate:"required,email"`
	FirstName       string `json:"first_name" validate:"max=150"`
	LastName        string `json:"last_name" validate:"max=150"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	Phone           string `json:"phone,omitempty" validate:"max=20"`
	Organization    string `json:"organization,omitempty" validate:"max=255"`
	Role            string `json:"role,omitempty" validate:"omitempty,oneof=learner mentor"`
}

type SignupResult struct {
	Detail               string `json:"detail"`
	RequiresConfirmation bool   `json:"requires_confirmation"`
}

type ChangePasswordForm struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ConfirmEmailRequest struct {
	UID   string `json:"uid" validate:"required"`
	Token string `json:"token" validate:"required"`
}

type ResetPasswordRequest struct {
	UID             string `json:"uid" validate:"required"`
	Token           string `json:"token" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

// ProfileUpdate is a partial update of the editable profile fields. Email,
// username and role are read-only on the backend.
type ProfileUpdate struct {
	FirstName    *string `json:"first_name,omitempty" validate:"omitempty,max=150"`
	LastName     *string `json:"last_name,omitempty" validate:"omitempty,max=150"`
	Phone        *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Organization *string `json:"organization,omitempty" validate:"omitempty,max=255"`
}

// AccountDeletionConfirmText must be typed verbatim to request deletion.
const AccountDeletionConfirmText = "DELETE MY ACCOUNT"

type AccountDeletionRequest struct {
	Password         string `json:"password" validate:"required"`
	ConfirmationText string `json:"confirmation_text" validate:"required,eq=DELETE MY ACCOUNT"`
}

// Detail is the backend's human-readable acknowledgement for pass-through calls.
type Detail struct {
	Detail string `json:"detail"`
}
