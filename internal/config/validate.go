package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslation "github.com/go-playground/validator/v10/translations/en"

	"github.com/agentic-research/neutralizer/internal/directive"
)

type rule struct {
	tag     string
	fn      validator.Func
	message string
}

var rules = []rule{
	{
		tag: "export_format",
		fn: func(fl validator.FieldLevel) bool {
			_, err := directive.ParseFormat(fl.Field().String())
			return err == nil
		},
		message: "{0} must be one of " + strings.Join(directive.FormatNames(), ", "),
	},
	{
		tag: "duration",
		fn: func(fl validator.FieldLevel) bool {
			d, err := time.ParseDuration(fl.Field().String())
			return err == nil && d >= 0
		},
		message: "{0} must be a non-negative duration such as 90s or 5m",
	},
}

func newValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()

	enLocale := en.New()
	enTranslator, found := ut.New(enLocale, enLocale).GetTranslator("en")
	if !found {
		panic(fmt.Errorf("en translator was not found"))
	}
	if err := enTranslation.RegisterDefaultTranslations(validate, enTranslator); err != nil {
		panic(fmt.Errorf("translator was not registered: %w", err))
	}

	for _, r := range rules {
		if err := validate.RegisterValidation(r.tag, r.fn); err != nil {
			panic(err)
		}
		msg := r.message
		err := validate.RegisterTranslation(r.tag, enTranslator,
			func(t ut.Translator) error { return t.Add(r.tag, msg, true) },
			func(t ut.Translator, fe validator.FieldError) string {
				s, _ := t.T(fe.Tag(), fe.Field())
				return s
			},
		)
		if err != nil {
			panic(err)
		}
	}

	// Report document field names, not Go field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	return validate, enTranslator
}

// validate checks v and returns every problem joined, each prefixed with
// its location such as "directives[1]".
func validate(v any) error {
	vd, translator := newValidator()
	err := vd.Struct(v)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}
	errs := make([]error, 0, len(validationErrs))
	for _, e := range validationErrs {
		prefix := ""
		if ns := processNamespace(e.Namespace()); ns != "" {
			prefix = ns + "."
		}
		errs = append(errs, fmt.Errorf("%s%s", prefix, e.Translate(translator)))
	}
	return errors.Join(errs...)
}

// processNamespace drops the struct name and the field itself:
// "Config.directives[1].type" becomes "directives[1]".
func processNamespace(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) <= 2 {
		return ""
	}
	return strings.Join(parts[1:len(parts)-1], ".")
}
