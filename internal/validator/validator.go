// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"bookcatalog/internal/isbn"
	"bookcatalog/internal/models"
)

var (
	countryCodeRegex  = regexp.MustCompile(`^[A-Za-z]{2}$`)
	languageCodeRegex = regexp.MustCompile(`^[a-z]{2,3}(_[A-Z]{2})?$`)
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterOn(v)
	}
}

// RegisterOn registers the catalog validators on v.
func RegisterOn(v *validator.Validate) {
	_ = v.RegisterValidation("isbn13", validateISBN13)
	_ = v.RegisterValidation("book_rating", validateRating)
	_ = v.RegisterValidation("book_binding", validateBinding)
	_ = v.RegisterValidation("book_condition", validateCondition)
	_ = v.RegisterValidation("company_type", validateCompanyType)
	_ = v.RegisterValidation("country_code", validateCountryCode)
	_ = v.RegisterValidation("language_code", validateLanguageCode)
}

func validateISBN13(fl validator.FieldLevel) bool {
	return isbn.IsValid(fl.Field().String())
}

func validateRating(fl validator.FieldLevel) bool {
	switch models.Rating(fl.Field().String()) {
	case models.RatingNotRated, models.RatingVeryBad, models.RatingFair,
		models.RatingGood, models.RatingVeryGood, models.RatingMasterpiece:
		return true
	}
	return false
}

func validateBinding(fl validator.FieldLevel) bool {
	switch models.Binding(fl.Field().String()) {
	case models.BindingHardcover, models.BindingPaperback, models.BindingSpiral,
		models.BindingEbook, models.BindingOther:
		return true
	}
	return false
}

func validateCondition(fl validator.FieldLevel) bool {
	switch models.Condition(fl.Field().String()) {
	case models.ConditionNew, models.ConditionGood, models.ConditionUsed, models.ConditionDamaged:
		return true
	}
	return false
}

func validateCompanyType(fl validator.FieldLevel) bool {
	switch models.CompanyType(fl.Field().String()) {
	case models.CompanyTypePerson, models.CompanyTypeCompany:
		return true
	}
	return false
}

func validateCountryCode(fl validator.FieldLevel) bool {
	return countryCodeRegex.MatchString(fl.Field().String())
}

func validateLanguageCode(fl validator.FieldLevel) bool {
	return languageCodeRegex.MatchString(fl.Field().String())
}
