package validations

import (
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var validatorOnce sync.Once
var validate *validator.Validate

var mobileRe = regexp.MustCompile(`^\+?[0-9]{9,15}$`)

// Validator returns the shared validator configured for the binding tag
// with the project's custom rules registered.
func Validator() *validator.Validate {
	validatorOnce.Do(func() {
		validate = validator.New()
		validate.SetTagName("binding")

		// errors here are programming mistakes, fail loudly at init
		if err := validate.RegisterValidation("iso8601", iso8601); err != nil {
			panic(err)
		}
		if err := validate.RegisterValidation("mobile", mobile); err != nil {
			panic(err)
		}

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ValidateStruct runs binding-tag validation over obj, ignoring
// non-struct values.
func ValidateStruct(obj interface{}) error {
	if kindOfData(obj) == reflect.Struct {
		if err := Validator().Struct(obj); err != nil {
			return err
		}
	}
	return nil
}

// Fields flattens a validation error into a field -> failed-rule map
// suitable for an error envelope.
func Fields(err error) map[string]any {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	fields := make(map[string]any, len(errs))
	for _, fe := range errs {
		fields[fe.Field()] = fe.Tag()
	}
	return fields
}

func iso8601(fl validator.FieldLevel) bool {
	_, err := time.Parse(time.RFC3339, fl.Field().String())
	return err == nil
}

func mobile(fl validator.FieldLevel) bool {
	return mobileRe.MatchString(fl.Field().String())
}

func kindOfData(data interface{}) reflect.Kind {
	value := reflect.ValueOf(data)
	valueType := value.Kind()
	if valueType == reflect.Ptr {
		valueType = value.Elem().Kind()
	}
	return valueType
}
