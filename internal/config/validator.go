package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

// customRule is a validation tag with its English message. A nil fn overrides only the message of a built-in tag.
type customRule struct {
	tag     string
	fn      validator.Func
	message string
}

var customRules = []customRule{
	{tag: "file", fn: isFileReadable, message: "{0} must be an existing and readable file"},
	{tag: "ltefield", message: "{0} must not be greater than {1}"},
	{tag: "gtefield", message: "{0} must be zero or at least {1}"},
	{tag: "oneof", message: "{0} must be one of [{1}]"},
	{tag: "gte", message: "{0} must be {1} or greater"},
}

func newValidator() (*validator.Validate, ut.Translator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, nil, fmt.Errorf("failed to register default translations: %w", err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	for _, rule := range customRules {
		if rule.fn != nil {
			if err := validate.RegisterValidation(rule.tag, rule.fn); err != nil {
				return nil, nil, fmt.Errorf("failed to register %s validation: %w", rule.tag, err)
			}
		}
		if err := validate.RegisterTranslation(rule.tag, trans, registerMessage(rule.tag, rule.message), translateField); err != nil {
			return nil, nil, fmt.Errorf("failed to register %s translation: %w", rule.tag, err)
		}
	}

	return validate, trans, nil
}

func registerMessage(tag, message string) validator.RegisterTranslationsFunc {
	return func(ut ut.Translator) error {
		return ut.Add(tag, message, true)
	}
}

// translateField renders a field by its full config key, e.g. retry.max_jitter.
func translateField(ut ut.Translator, fe validator.FieldError) string {
	t, _ := ut.T(fe.Tag(), strings.TrimPrefix(fe.Namespace(), "Config."), toConfigKey(fe.Param()))
	return t
}

var configKeys = map[string]string{
	"BaseDelay": "base_delay",
}

func toConfigKey(param string) string {
	if key, ok := configKeys[param]; ok {
		return key
	}
	return param
}

func isFileReadable(fl validator.FieldLevel) bool {
	path := fl.Field().String()
	if path == "" {
		return false
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}

	// Check if the owner has read permission
	return info.Mode().Perm()&0o400 != 0
}
