package utils

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// FormatValidationError formats validation errors into a readable string.
func FormatValidationError(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err.Error()
	}
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		field := strings.ToLower(e.Field()[:1]) + e.Field()[1:]
		if e.Tag() == "required" {
			messages = append(messages, field+" is required")
			continue
		}
		messages = append(messages, field+" is invalid")
	}
	return strings.Join(messages, ", ")
}

// BindAndValidate binds the request (JSON or form, by Content-Type) to a
// struct and runs its binding tags. If either fails, it sends a BadRequest
// response and returns false.
func BindAndValidate(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBind(obj); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			BadRequest(c, "Validation failed: "+FormatValidationError(err))
			return false
		}
		BadRequest(c, "Invalid request payload: "+err.Error())
		return false
	}
	return true
}
