// Package validate checks request structs against their `validate` tags and
// renders the first failure as a one-line English message.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"testseries-service/internal/domain"
)

var (
	v          *validator.Validate
	translator ut.Translator

	// custom validation tags
	notBlankTag   = "notblank"
	answerableTag = "answerable"
)

func init() {
	v = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, translator)

	// JSON names in messages, matching what clients send.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation(notBlankTag, notBlank)
	v.RegisterStructValidation(answerableQuestion, domain.Question{})

	registerTranslations(notBlankTag, answerableTag, "gtfield")
}

// Struct validates s and returns validator.ValidationErrors on failure.
func Struct(s interface{}) error {
	return v.Struct(s)
}

// Message renders the first field failure in err. ok is false when err carries none.
func Message(err error) (msg string, ok bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "", false
	}
	return verrs[0].Translate(translator), true
}

// registerTranslations overrides the messages of the given tags.
// The translation func is a noop because the default set is already registered.
func registerTranslations(tags ...string) {
	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range tags {
		_ = v.RegisterTranslation(tag, translator, registerFn, translate)
	}
}

func translate(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return fmt.Sprintf("%s is required", fe.Field())
	case answerableTag:
		return fmt.Sprintf("%s must name one of the four options", fieldPath(fe))
	case "gtfield":
		return fmt.Sprintf("%s must be after %s", fe.Field(), lowerFirst(fe.Param()))
	default:
		return fe.Error()
	}
}

// fieldPath drops the root struct name from the namespace: questions[2].correctOption.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func notBlank(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

// answerableQuestion rejects questions whose correct option resolves to none of the four.
func answerableQuestion(sl validator.StructLevel) {
	q, ok := sl.Current().Interface().(domain.Question)
	if !ok {
		return
	}
	if q.CorrectIndex() == 0 {
		sl.ReportError(q.CorrectOption, "correctOption", "CorrectOption", answerableTag, "")
	}
}
