package validator

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/healthhub-client/pkg/errors"
)

// Validator checks user input before it reaches the network layer
type Validator interface {
	Validate(interface{}) error
}

// FieldError represents a single failed rule
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors is carried as the cause of a validation AppError
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for _, e := range fe {
		parts = append(parts, e.Field+": "+e.Message)
	}
	return strings.Join(parts, "; ")
}

type validate struct {
	engine   *validator.Validate
	messages map[string]string
}

// DefaultMessages are shown to the user per failed tag.
func DefaultMessages() map[string]string {
	return map[string]string{
		"required": "is required",
		"email":    "must be a valid email address",
		"min":      "is too short",
		"gte":      "must not be negative",
		"eqfield":  "does not match",
		"oneof":    "is not a supported value",
	}
}

func New() Validator {
	engine := validator.New(validator.WithRequiredStructEnabled())
	engine.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return &validate{
		engine:   engine,
		messages: DefaultMessages(),
	}
}

func (v *validate) Validate(obj interface{}) error {
	err := v.engine.Struct(obj)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.Validation("invalid input", err)
	}

	fields := make(FieldErrors, 0, len(verrs))
	tags := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msg := v.messages[e.Tag()]
		if msg == "" {
			msg = e.Error()
		}
		if e.Tag() == "min" {
			msg = fmt.Sprintf("must be at least %s characters long", e.Param())
		}
		fields = append(fields, FieldError{Field: e.Field(), Message: msg})
		tags = append(tags, e.Tag())
	}

	// missing fields are reported before mismatches, mismatches before format rules
	idx := make([]int, len(fields))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return tagPriority(tags[idx[a]]) < tagPriority(tags[idx[b]])
	})
	ordered := make(FieldErrors, 0, len(fields))
	for _, i := range idx {
		ordered = append(ordered, fields[i])
	}
	fields = ordered

	first := fields[0]
	return errors.Validation(first.Field+" "+first.Message, fields)
}

func tagPriority(tag string) int {
	switch tag {
	case "required":
		return 0
	case "eqfield":
		return 1
	default:
		return 2
	}
}
