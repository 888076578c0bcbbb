package user

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/shubhammm008/Infosys-Team5/core"
)

// RegisterValidators adds the struct level rules of this package to v.
func RegisterValidators(v *core.Validator) {
	v.RegisterStructValidation(userStructValidation, NewUser{})
}

// userStructValidation does struct level validation on NewUser.
func userStructValidation(sl validator.StructLevel) {
	if nu, ok := sl.Current().Interface().(NewUser); ok {
		localPart := nu.Email
		if at := strings.LastIndex(localPart, "@"); at > 0 {
			localPart = localPart[:at]
		}
		validatePasswordSimilarity(nu.Password, sl, nu.FirstName, nu.LastName, nu.Email, localPart)
	}
}

// validatePasswordSimilarity rejects passwords too close to the user attributes.
func validatePasswordSimilarity(pwd string, sl validator.StructLevel, attrs ...string) {
	if len([]rune(pwd)) < core.MinimumPasswordLength {
		return // reported by pwdminlen
	}
	if core.PasswordSimilarity(pwd, attrs...) >= core.PwdMaxSim {
		sl.ReportError(pwd, "password", "Password", core.PwdAttrSimTag, "")
	}
}
