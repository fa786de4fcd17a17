package validator

import (
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ErrorResponse struct {
	FailedField string
	Tag         string
	Value       string
}

var validate = validator.New()

func init() {
	// "uuidstr" accepts a uuid.UUID (non-nil) or a string that parses as one.
	// Request DTOs carry foreign keys as strings, so this catches garbage ids
	// before they reach the repositories.
	validate.RegisterValidation("uuidstr", func(fl validator.FieldLevel) bool {
		switch v := fl.Field().Interface().(type) {
		case uuid.UUID:
			return v != uuid.Nil
		case string:
			_, err := uuid.Parse(v)
			return err == nil
		}
		return false
	})
}

func ValidateStruct(data interface{}) []*ErrorResponse {
	var errors []*ErrorResponse
	err := validate.Struct(data)
	if err != nil {
		for _, err := range err.(validator.ValidationErrors) {
			var element ErrorResponse
			element.FailedField = err.StructNamespace()
			element.Tag = err.Tag()
			element.Value = err.Param()
			errors = append(errors, &element)
		}
	}
	return errors
}
