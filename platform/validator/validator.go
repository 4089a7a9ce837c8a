// Package validator provides validation infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package validator

import (
	"errors"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"crm_dashboard_backend/platform/phone"

	"github.com/go-playground/validator/v10"
)

var employeeSizePattern = regexp.MustCompile(`^(\d+-\d+|\d+\+)$`)

// Validator wraps the go-playground validator for structured validation.
// Using a struct allows for dependency injection and easier testing.
type Validator struct {
	v *validator.Validate
}

// New creates a new Validator with the format rules shared by lead and
// agent forms already registered: mobile, linkedin, empsize.
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
		return phone.IsValidMobile(fl.Field().String())
	})
	_ = v.RegisterValidation("linkedin", func(fl validator.FieldLevel) bool {
		return IsLinkedInURL(fl.Field().String())
	})
	_ = v.RegisterValidation("empsize", func(fl validator.FieldLevel) bool {
		return IsEmployeeSize(fl.Field().String())
	})
	return &Validator{v: v}
}

// Struct validates a struct based on validation tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// Var validates a single variable against a tag.
func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation registers a custom validation function.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}

// FieldErrors flattens a validation error into a field -> tag map keyed by
// the field's JSON name (struct field name when untagged). Non-validation errors yield nil.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = describe(fe)
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "mobile":
		return "must be a valid mobile number"
	case "linkedin":
		return "must be a LinkedIn profile or company URL"
	case "empsize":
		return "must look like 11-50 or 10000+"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}

// IsLinkedInURL reports whether raw is an http(s) URL on linkedin.com
// pointing at a profile (/in/) or company (/company/) page.
func IsLinkedInURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host != "linkedin.com" && !strings.HasSuffix(host, ".linkedin.com") {
		return false
	}
	return strings.HasPrefix(u.Path, "/in/") || strings.HasPrefix(u.Path, "/company/")
}

// IsEmployeeSize reports whether raw is an employee-size bucket such as
// "51-200" or "10000+".
func IsEmployeeSize(raw string) bool {
	return employeeSizePattern.MatchString(strings.TrimSpace(raw))
}
