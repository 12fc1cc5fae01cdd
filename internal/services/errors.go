// Package services implements the CRM use cases on top of the repositories.
// Every call takes the policy.Actor of the request and applies the
// visibility rules itself.
package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"pharma-crm-server/internal/repository"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("not allowed")
	ErrInvalidID        = errors.New("invalid id")
	ErrInvalidStart     = errors.New("invalid start")
	ErrInvalidDoctor    = errors.New("invalid doctor")
	ErrPipelineMismatch = errors.New("stage/pipeline mismatch")
	ErrDuplicate        = errors.New("duplicate")
	ErrInUse            = errors.New("in use")
	ErrValidation       = errors.New("validation failed")
	ErrBadCredentials   = errors.New("invalid username or password")
	ErrInvalidToken     = errors.New("refresh token not found, expired, or revoked")
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// validateInput runs the struct tags of an input and wraps failures in
// ErrValidation with a readable field list.
func validateInput(in interface{}) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		switch e.Tag() {
		case "required":
			msgs = append(msgs, e.Field()+" is required")
		case "max":
			msgs = append(msgs, e.Field()+" is too long")
		case "min":
			msgs = append(msgs, e.Field()+" is too short")
		default:
			msgs = append(msgs, e.Field()+" is invalid")
		}
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, ", "))
}

// fromRepo maps repository sentinels onto service sentinels.
func fromRepo(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return ErrDuplicate
	case errors.Is(err, repository.ErrInUse):
		return ErrInUse
	}
	return err
}
