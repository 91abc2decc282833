package service

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/unclebandit/opsboard-backend/internal/errors"
	"github.com/unclebandit/opsboard-backend/internal/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	v.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
	})
	v.RegisterValidation("language", func(fl validator.FieldLevel) bool {
		return model.ValidLanguage(fl.Field().String())
	})
	v.RegisterValidation("flag", func(fl validator.FieldLevel) bool {
		_, ok := model.ParseFlag(fl.Field().String())
		return ok
	})
	return v
}

// ValidateStruct checks s against its validate tags and returns a
// *appErrors.ValidationError listing every failing field.
func ValidateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	var msgs []string
	for _, e := range verrs {
		field := e.Field()
		switch e.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "max":
			msgs = append(msgs, field+" must be at most "+e.Param()+" characters")
		case "httpurl":
			msgs = append(msgs, field+" must start with http:// or https://")
		case "language":
			msgs = append(msgs, field+" must be one of "+languageList())
		case "flag":
			msgs = append(msgs, field+" must be a checklist stage")
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}

	return &appErrors.ValidationError{Reason: strings.Join(msgs, ", ")}
}

func languageList() string {
	parts := make([]string, len(model.Languages))
	for i, l := range model.Languages {
		parts[i] = string(l)
	}
	return strings.Join(parts, ", ")
}
