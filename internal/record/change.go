package record

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidChange is returned when a Change is missing required fields or uses
// a value outside the configured vocabulary. Invalid changes are never persisted.
var ErrInvalidChange = errors.New("invalid change")

// Change kinds recognised by the default vocabulary.
const (
	KindNew     = "new"
	KindChange  = "change"
	KindRemoved = "removed"
	KindFix     = "fix"
)

// Change is a single pending changelog entry. The JSON field names are fixed
// for compatibility with existing .changelog directories.
type Change struct {
	VersionType string `json:"version_type" yaml:"version_type" validate:"notblank"`
	Category    string `json:"category" yaml:"category" validate:"notblank"`
	Type        string `json:"type" yaml:"type" validate:"notblank"`
	Message     string `json:"message" yaml:"message" validate:"notblank"`
}

// DefaultKinds returns the change kinds in their canonical order.
func DefaultKinds() []string {
	return []string{KindNew, KindChange, KindRemoved, KindFix}
}

// Validate reports whether all four fields are present and non-blank.
func Validate(c Change) bool {
	return notBlank(c.VersionType) &&
		notBlank(c.Category) &&
		notBlank(c.Type) &&
		notBlank(c.Message)
}

// Format returns the human-readable confirmation string for a change:
// "{version_type}-{category}-{type}:{message}".
func Format(c Change) string {
	return fmt.Sprintf("%s-%s-%s:%s", c.VersionType, c.Category, c.Type, c.Message)
}

// CheckOptions restricts the accepted vocabulary beyond non-emptiness.
// Empty slices accept any non-blank value.
type CheckOptions struct {
	Categories []string
	Kinds      []string
}

// Check validates a change and returns an error wrapping ErrInvalidChange that
// names every offending field.
func Check(c Change, opts CheckOptions) error {
	var problems []string

	if err := changeValidator.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("%w: %v", ErrInvalidChange, err)
		}
		for _, fe := range fieldErrs {
			problems = append(problems, fmt.Sprintf("%s is required", jsonFieldName(fe.Field())))
		}
	}

	if notBlank(c.VersionType) {
		if _, err := ParseBumpKind(c.VersionType); err != nil {
			problems = append(problems, fmt.Sprintf("version_type %q must be one of %s",
				c.VersionType, strings.Join(bumpKindNames(), ", ")))
		}
	}
	if notBlank(c.Category) && len(opts.Categories) > 0 && !slices.Contains(opts.Categories, c.Category) {
		problems = append(problems, fmt.Sprintf("category %q must be one of %s",
			c.Category, strings.Join(opts.Categories, ", ")))
	}
	if notBlank(c.Type) && len(opts.Kinds) > 0 && !slices.Contains(opts.Kinds, c.Type) {
		problems = append(problems, fmt.Sprintf("type %q must be one of %s",
			c.Type, strings.Join(opts.Kinds, ", ")))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidChange, strings.Join(problems, "; "))
	}
	return nil
}

var changeValidator = newChangeValidator()

func newChangeValidator() *validator.Validate {
	v := validator.New()
	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return notBlank(fl.Field().String())
	})
	return v
}

func jsonFieldName(field string) string {
	switch field {
	case "VersionType":
		return "version_type"
	case "Category":
		return "category"
	case "Type":
		return "type"
	case "Message":
		return "message"
	default:
		return strings.ToLower(field)
	}
}

func notBlank(s string) bool {
	return strings.TrimSpace(s) != ""
}
