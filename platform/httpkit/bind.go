package httpkit

import (
	"net/http"

	"crm_dashboard_backend/platform/apperr"
	"crm_dashboard_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// BindJSON decodes the request body into dst and validates it. On failure
// it writes the error response (with per-field details for validation
// failures) and returns false.
func BindJSON(c *gin.Context, val *validator.Validator, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	return validate(c, val, dst)
}

// BindQuery is BindJSON for query parameters.
func BindQuery(c *gin.Context, val *validator.Validator, dst interface{}) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	return validate(c, val, dst)
}

func validate(c *gin.Context, val *validator.Validator, dst interface{}) bool {
	if val == nil {
		return true
	}
	if err := val.Struct(dst); err != nil {
		if fields := validator.FieldErrors(err); fields != nil {
			HandleError(c, apperr.FieldErrors(fields))
			return false
		}
		Error(c, http.StatusBadRequest, msgValidationFailed, nil)
		return false
	}
	return true
}
