// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"moneybook/internal/currency"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("iso4217", validateISO4217)
		_ = v.RegisterValidation("flow_type", validateFlowType)
		_ = v.RegisterValidation("account_type", validateAccountType)
		_ = v.RegisterValidation("category_type", validateCategoryType)
		_ = v.RegisterValidation("repeat_type", validateRepeatType)
	}
}

func validateISO4217(fl validator.FieldLevel) bool {
	return currency.Valid(fl.Field().String())
}

func validateFlowType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "expense", "income", "transfer", "adjust":
		return true
	}
	return false
}

func validateAccountType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "checking", "credit", "asset", "debt":
		return true
	}
	return false
}

func validateCategoryType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "expense", "income":
		return true
	}
	return false
}

func validateRepeatType(fl validator.FieldLevel) bool {
	switch fl.Field().Int() {
	case 0, 1, 2, 3:
		return true
	}
	return false
}
