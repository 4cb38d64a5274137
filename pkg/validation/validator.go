package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/oksasatya/library-loans-api/internal/domain/entity"
)

var initOnce sync.Once

// Init configures the global validator used by Gin's binding.
// - Uses JSON tag names in errors.
// - Registers notblank, the library enum tags and the date tag.
func Init() {
	initOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			Register(v)
		}
	})
}

// Register installs the tag name func, aliases and custom tags on v.
func Register(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterAlias("pwd", "min=8,max=72")
	v.RegisterAlias("regno", "max=50")

	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("genre", func(fl validator.FieldLevel) bool {
		return entity.Genre(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("book_status", func(fl validator.FieldLevel) bool {
		return entity.BookStatus(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("loan_status", func(fl validator.FieldLevel) bool {
		return entity.LoanStatus(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := entity.ParseDate(fl.Field().String())
		return err == nil
	})
}

// ToDetails converts validation/binding errors into a map[field]message suitable for API error.details.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) {
		return map[string]string{"payload": "invalid json"}
	}
	if errors.As(err, &ute) {
		if ute.Field != "" {
			return map[string]string{ute.Field: "must be a " + ute.Type.String()}
		}
		return map[string]string{"payload": "invalid json"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = formatFieldError(fe)
		}
		return out
	}

	return map[string]string{"payload": "invalid payload"}
}

// Field builds a single-field details map, for checks done outside the validator.
func Field(name, message string) map[string]string {
	return map[string]string{name: message}
}

func formatFieldError(fe validator.FieldError) string {
	tag := fe.Tag()
	param := fe.Param()
	kind := fe.Kind()

	switch tag {
	case "required":
		return "is required"
	case "notblank":
		return "must not be blank"
	case "required_without":
		return "is required when " + param + " is not present"

	case "email":
		return "must be a valid email"
	case "uuid", "uuid4":
		return "must be a valid UUID"

	case "len":
		if param != "" {
			return fmt.Sprintf("must be exactly %s characters long", param)
		}
		return "invalid length"
	case "min":
		if isNumberKind(kind) {
			return "must be at least " + param
		}
		return "must be at least " + param + " characters long"
	case "max":
		if isNumberKind(kind) {
			return "must be at most " + param
		}
		return "must be at most " + param + " characters long"
	case "gt":
		return "must be greater than " + param
	case "gte":
		return "must be greater than or equal to " + param
	case "lte":
		return "must be less than or equal to " + param

	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(param), ", ")

	case "genre":
		return "must be one of: " + joinValues(entity.Genres)
	case "book_status":
		return "must be one of: " + joinValues(entity.BookStatuses)
	case "loan_status":
		return "must be one of: " + joinValues(entity.LoanStatuses)
	case "date":
		return "must be a date in YYYY-MM-DD format"

	case "pwd":
		return "must be between 8 and 72 characters long"
	case "regno":
		return "must be at most 50 characters long"

	default:
		if param != "" {
			return fmt.Sprintf("validation failed for '%s' with parameter '%s'", tag, param)
		}
		return fmt.Sprintf("validation failed for '%s'", tag)
	}
}

func joinValues[T ~string](vals []T) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
