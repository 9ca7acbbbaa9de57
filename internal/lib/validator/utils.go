package validator

import (
	"cineflix/proj/internal/domain/fields"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	govalidator "github.com/go-playground/validator/v10"
)

var (
	emailRx      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	cardExpiryRx = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
)

// New returns a validator with the project's custom tags registered.
func New() *govalidator.Validate {
	v := govalidator.New(govalidator.WithRequiredStructEnabled())
	must := func(tag string, fn govalidator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
	must("simpleemail", ValidateSimpleEmail)
	must("cardexpiry", ValidateCardExpiry)
	must("cardnumber", ValidateCardNumber)
	must("genre", ValidateGenre)
	must("period", ValidatePeriod)
	return v
}

func IsEmail(s string) bool {
	return emailRx.MatchString(s)
}

func camelToSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

func structType(obj any) reflect.Type {
	t := reflect.TypeOf(obj)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func getFieldName(obj any, origFieldName string) (fieldName string) {
	t := structType(obj)
	field, found := t.FieldByName(origFieldName)
	if !found {
		panic(fmt.Sprintf("Field %s not found in type %s", origFieldName, t.Name()))
	}
	if tag := field.Tag.Get("json"); tag != "" && tag != "-" {
		jsonName := strings.Split(tag, ",")[0]
		if jsonName != "" {
			return jsonName
		}
	}
	return camelToSnake(origFieldName)
}

func ProcessValidationErrors(obj any, errs govalidator.ValidationErrors) map[string]string {
	processedErrors := make(map[string]string)
	for _, e := range errs {
		processedErrors[getFieldName(obj, e.StructField())] = GetErrorMsgForField(obj, e)
	}
	return processedErrors
}

func ValidateStruct(validator *govalidator.Validate, obj any) (validationErrs map[string]string) {
	if err := validator.Struct(obj); err != nil {
		var verrs govalidator.ValidationErrors
		if !errors.As(err, &verrs) {
			panic(err)
		}
		validationErrs = ProcessValidationErrors(obj, verrs)
	}
	return
}

func GetErrorMsgForField(obj any, err govalidator.FieldError) (errorMsg string) {
	t := structType(obj)
	field, found := t.FieldByName(err.StructField())
	if !found {
		panic(fmt.Sprintf("Field %s not found in type %s", err.StructField(), t.Name()))
	}
	errorMsg = field.Tag.Get("errorMsg")
	if errorMsg == "" {
		switch err.Tag() {
		case "required", "required_if":
			errorMsg = "This field is required"
		case "max":
			errorMsg = fmt.Sprintf("The maximum value is %s", err.Param())
		case "min":
			errorMsg = fmt.Sprintf("The minimum value is %s", err.Param())
		case "gte":
			errorMsg = fmt.Sprintf("Value should be greater than or equal to %s", err.Param())
		case "lte":
			errorMsg = fmt.Sprintf("Value should be less than or equal to %s", err.Param())
		case "lt":
			errorMsg = fmt.Sprintf("Value should be less than %s", err.Param())
		case "gt":
			errorMsg = fmt.Sprintf("Value should be greater than %s", err.Param())
		case "eqfield", "eq":
			errorMsg = fmt.Sprintf("Value should be equal to %s", err.Param())
		case "oneof":
			errorMsg = fmt.Sprintf("Value should be one of %s", err.Param())
		case "len":
			errorMsg = fmt.Sprintf("Length should be equal to %s", err.Param())
		case "url":
			errorMsg = "Value must be a valid URL"
		case "email", "simpleemail":
			errorMsg = "Value must be a valid email address"
		case "numeric", "number":
			errorMsg = "Value must contain digits only"
		case "cardnumber":
			errorMsg = "Card number must have 13 to 19 digits"
		case "cardexpiry":
			errorMsg = "Expiry must be in MM/YY format"
		case "genre":
			errorMsg = "Value must be one of acao, drama, comedia, terror, ficcao"
		case "period":
			errorMsg = "Value must be monthly or yearly"
		default:
			errorMsg = "This field is invalid"
		}
	}
	return
}

// CUSTOM VALIDATORS

func ValidateSimpleEmail(fl govalidator.FieldLevel) bool {
	return IsEmail(fl.Field().String())
}

func ValidateCardExpiry(fl govalidator.FieldLevel) bool {
	return cardExpiryRx.MatchString(fl.Field().String())
}

// ValidateCardNumber accepts 13 to 19 digits once whitespace is stripped.
func ValidateCardNumber(fl govalidator.FieldLevel) bool {
	digits := strings.Join(strings.Fields(fl.Field().String()), "")
	if len(digits) < 13 || len(digits) > 19 {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func ValidateGenre(fl govalidator.FieldLevel) bool {
	return fields.Genre(fl.Field().String()).Valid()
}

func ValidatePeriod(fl govalidator.FieldLevel) bool {
	return fields.Period(fl.Field().String()).Valid()
}
