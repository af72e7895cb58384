// Package inputval validates bound form input with struct tags.
//
// Fields carry a `validate` tag (go-playground/validator rules) and an
// optional `label` tag used in messages:
//
//	type registerInput struct {
//		Email string `validate:"required,email,max=254" label:"E-mail"`
//	}
//
//	res := inputval.Validate(in)
//	if res.HasErrors() {
//		data.SetError(res.First())
//	}
package inputval

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FieldError is one failed rule. Field is the Go struct field name.
type FieldError struct {
	Field   string
	Message string
}

// Result collects the failures of one Validate call in field order.
type Result struct {
	Errors []FieldError
}

func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first message, or "" when valid.
func (r *Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every message with "; ".
func (r *Result) All() string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// ByField maps struct field names to their message.
func (r *Result) ByField() map[string]string {
	out := make(map[string]string, len(r.Errors))
	for _, e := range r.Errors {
		if _, ok := out[e.Field]; !ok {
			out[e.Field] = e.Message
		}
	}
	return out
}

// Add appends a failure not expressible as a tag rule.
func (r *Result) Add(field, msg string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Message: msg})
}

var (
	once     sync.Once
	validate *validator.Validate
)

var urlNameRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

func instance() *validator.Validate {
	once.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			if l := f.Tag.Get("label"); l != "" {
				return l
			}
			return f.Name
		})
		// Our email rules are stricter about dots and reject display names.
		_ = v.RegisterValidation("email", func(fl validator.FieldLevel) bool {
			return IsValidEmail(fl.Field().String())
		})
		_ = v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
			return primitive.IsValidObjectID(fl.Field().String())
		})
		_ = v.RegisterValidation("urlname", func(fl validator.FieldLevel) bool {
			return urlNameRe.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("accepted", func(fl validator.FieldLevel) bool {
			return fl.Field().Kind() == reflect.Bool && fl.Field().Bool()
		})
		validate = v
	})
	return validate
}

// Validate runs the struct tag rules of input.
func Validate(input any) *Result {
	res := &Result{}
	err := instance().Struct(input)
	if err == nil {
		return res
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		res.Add("", err.Error())
		return res
	}
	for _, fe := range verrs {
		res.Add(fe.StructField(), message(fe))
	}
	return res
}

func message(fe validator.FieldError) string {
	label := fe.Field()
	isList := fe.Kind() == reflect.Slice || fe.Kind() == reflect.Array || fe.Kind() == reflect.Map

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", label)
	case "email":
		return "A valid email address is required."
	case "max":
		if isList {
			return fmt.Sprintf("%s: select at most %s.", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
	case "min":
		if isList {
			return fmt.Sprintf("%s: select at least %s.", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters.", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s is not a valid choice.", label)
	case "accepted":
		return fmt.Sprintf("%s must be accepted.", label)
	case "objectid":
		return fmt.Sprintf("%s is not a valid id.", label)
	case "urlname":
		return fmt.Sprintf("%s may only contain lowercase letters, digits and single hyphens.", label)
	case "gt", "gte":
		return fmt.Sprintf("%s must be greater than %s.", label, fe.Param())
	case "gtfield":
		return fmt.Sprintf("%s must be after %s.", label, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid.", label)
	}
}

const localSpecials = "!#$%&'*+/=?^_`{|}~-"

// IsValidEmail accepts plain addr-spec addresses (no display names, no
// quoting). Single-label domains such as "localhost" are allowed.
func IsValidEmail(s string) bool {
	if s == "" || len(s) > 254 {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	if at <= 0 || at == len(s)-1 {
		return false
	}
	local, domain := s[:at], s[at+1:]

	if !dotAtoms(local, func(r rune) bool {
		return isAlnum(r) || strings.ContainsRune(localSpecials, r)
	}) {
		return false
	}
	return dotAtoms(domain, func(r rune) bool { return isAlnum(r) || r == '-' })
}

// dotAtoms reports whether s is non-empty dot-separated atoms, each
// non-empty and made only of allowed runes.
func dotAtoms(s string, allowed func(rune) bool) bool {
	for _, part := range strings.Split(s, ".") {
		if part == "" {
			return false
		}
		for _, r := range part {
			if !allowed(r) {
				return false
			}
		}
	}
	return true
}

func isAlnum(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}
