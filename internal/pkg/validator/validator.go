package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

var (
	// OrderByFields lists the image columns a query may sort on
	OrderByFields = []string{"hash", "size", "created_at", "access_count"}

	hashPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)
)

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	validate.RegisterValidation("order_by", func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		if v == "" {
			return true
		}
		for _, f := range OrderByFields {
			if v == f {
				return true
			}
		}
		return false
	})

	validate.RegisterValidation("order_dir", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "", "asc", "desc":
			return true
		}
		return false
	})

	// sha256 hex, lowercase
	validate.RegisterValidation("content_hash", func(fl validator.FieldLevel) bool {
		return hashPattern.MatchString(fl.Field().String())
	})
}

// IsContentHash reports whether s is a lowercase hex sha256 digest.
func IsContentHash(s string) bool {
	return hashPattern.MatchString(s)
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}
	}

	errors := make(map[string]string)
	for _, err := range verrs {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "gtefield":
			errors[field] = "Value must not be lower than " + err.Param()
		case "order_by":
			errors[field] = "Invalid order field. Must be: " + strings.Join(OrderByFields, ", ")
		case "order_dir":
			errors[field] = "Invalid order direction. Must be: asc or desc"
		case "content_hash":
			errors[field] = "Must be a 64 character lowercase hex sha256 digest"
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
