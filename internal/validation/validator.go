// Package validation provides custom validators for the application
package validation

import (
	"docvault/internal/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Initialize registers all custom validators
func Initialize() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		err := v.RegisterValidation("role", validateRole)
		if err != nil {
			panic(err)
		}
	}
}

// validateRole checks that a field holds one of the known privilege levels
func validateRole(fl validator.FieldLevel) bool {
	return models.Role(fl.Field().String()).Valid()
}
