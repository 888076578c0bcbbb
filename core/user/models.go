package user

import (
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/shubhammm008/Infosys-Team5/core"
)

type Role string

// Roles
const (
	RoleAdmin    Role = "admin"
	RoleEducator Role = "educator"
	RoleLearner  Role = "learner"
)

var AllRoles = []Role{RoleAdmin, RoleEducator, RoleLearner}

func (r Role) IsValid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

func (r Role) DisplayName() string { return core.DisplayName(string(r)) }

func (r *Role) UnmarshalJSON(data []byte) error {
	s, err := core.UnmarshalEnum(data, string(RoleAdmin), string(RoleEducator), string(RoleLearner))
	if err != nil {
		return err
	}
	*r = Role(s)
	return nil
}

type User struct {
	ID                string      `json:"id"`
	OrganizationID    null.String `json:"organizationId,omitempty"`
	Email             string      `json:"email"`
	Role              Role        `json:"role"`
	FirstName         string      `json:"firstName"`
	LastName          string      `json:"lastName"`
	ProfilePictureURL null.String `json:"profilePictureURL,omitempty"`
	IsActive          bool        `json:"isActive"`
	CreatedAt         time.Time   `json:"createdAt"`          // UTC
	UpdatedAt         time.Time   `json:"updatedAt"`          // UTC
	LastLogin         null.Time   `json:"lastLogin,omitempty"` // UTC
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u User) IsAdmin() bool    { return u.Role == RoleAdmin }
func (u User) IsEducator() bool { return u.Role == RoleEducator }
func (u User) IsLearner() bool  { return u.Role == RoleLearner }

// NewUser contains the information needed to register a User.
type NewUser struct {
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,pwdminlen,pwdnospace"`
	FirstName      string `json:"firstName" validate:"required,max=100"`
	LastName       string `json:"lastName" validate:"required,max=100"`
	Role           Role   `json:"role" validate:"required,oneof=admin educator learner"`
	OrganizationID string `json:"organizationId" validate:"omitempty,uuid"`
}

// Validate cleans the input and applies the registration rules, password policy included.
func (nu *NewUser) Validate(v *core.Validator) error {
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)
	nu.OrganizationID = core.CleanString(nu.OrganizationID)
	return v.Struct(nu)
}

// User materializes the registration as an active User with the given id.
func (nu NewUser) User(id string, now time.Time) User {
	usr := User{
		ID:        id,
		Email:     nu.Email,
		Role:      nu.Role,
		FirstName: nu.FirstName,
		LastName:  nu.LastName,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if nu.OrganizationID != "" {
		usr.OrganizationID = null.StringFrom(nu.OrganizationID)
	}
	return usr
}

type QueryFilter struct {
	Search   string // case-insensitive match on full name or email
	Role     Role
	IsActive *bool
}

func (qf QueryFilter) Match(u User) bool {
	if qf.Role != "" && u.Role != qf.Role {
		return false
	}
	if qf.IsActive != nil && u.IsActive != *qf.IsActive {
		return false
	}
	search := core.CleanString(qf.Search, true /* lower */)
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(u.FullName()), search) ||
		strings.Contains(strings.ToLower(u.Email), search)
}
