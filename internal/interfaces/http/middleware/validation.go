package middleware

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/hims/backend/internal/interfaces/http/dto"
)

// SetupValidator configures the gin binding validator to report field
// names from json tags instead of Go struct field names.
func SetupValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// FormatValidationErrors converts validator errors into field-level details
func FormatValidationErrors(err error) []dto.ValidationDetail {
	var details []dto.ValidationDetail

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return details
	}

	for _, fe := range validationErrors {
		details = append(details, dto.ValidationDetail{
			Field:   fe.Field(),
			Message: getValidationMessage(fe),
		})
	}
	return details
}

// HandleValidationError writes a structured 400 response for binding errors
func HandleValidationError(c *gin.Context, err error) {
	requestID := getRequestIDFromContext(c)

	details := FormatValidationErrors(err)
	if len(details) == 0 {
		c.JSON(http.StatusBadRequest,
			dto.NewErrorResponseWithRequestID(dto.ErrCodeInvalidJSON, "invalid request body", requestID))
		return
	}

	c.JSON(http.StatusBadRequest,
		dto.NewValidationErrorResponse("validation failed", requestID, details))
}

func getRequestIDFromContext(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// getValidationMessage produces a human readable message for a failed rule
func getValidationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "uuid":
		return "must be a valid UUID"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	default:
		return "is invalid"
	}
}
