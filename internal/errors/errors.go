// Package errors wraps the standard library errors package with categorized,
// context-carrying errors. Import it in place of "errors".
package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
	"strings"
	"time"
)

// Category classifies an error for HTTP mapping and reporting.
type Category string

const (
	CategoryValidation    Category = "validation"
	CategoryNotFound      Category = "not-found"
	CategoryDatabase      Category = "database"
	CategoryNetwork       Category = "network"
	CategoryConfiguration Category = "configuration"
	CategoryDelivery      Category = "delivery"
	CategorySystem        Category = "system"
	CategoryGeneric       Category = "generic"
)

// EnhancedError is an error annotated with component, category and context.
type EnhancedError struct {
	Err       error
	Timestamp time.Time

	component string
	category  Category
	context   map[string]any
}

func (e *EnhancedError) Error() string {
	if e.Err == nil {
		return string(e.category)
	}
	return e.Err.Error()
}

func (e *EnhancedError) Unwrap() error { return e.Err }

// GetComponent returns the component that produced the error.
func (e *EnhancedError) GetComponent() string { return e.component }

// GetCategory returns the error category.
func (e *EnhancedError) GetCategory() Category { return e.category }

// GetContext returns a copy of the attached context.
func (e *EnhancedError) GetContext() map[string]any {
	return maps.Clone(e.context)
}

// ErrorBuilder assembles an EnhancedError.
type ErrorBuilder struct {
	err       error
	component string
	category  Category
	context   map[string]any
}

// New starts building an enhanced error around err.
func New(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err, category: CategoryGeneric}
}

// Newf starts building an enhanced error from a format string. %w is honoured.
func Newf(format string, args ...any) *ErrorBuilder {
	return New(fmt.Errorf(format, args...))
}

func (b *ErrorBuilder) Component(component string) *ErrorBuilder {
	b.component = component
	return b
}

func (b *ErrorBuilder) Category(category Category) *ErrorBuilder {
	b.category = category
	return b
}

func (b *ErrorBuilder) Context(key string, value any) *ErrorBuilder {
	if b.context == nil {
		b.context = make(map[string]any)
	}
	b.context[key] = value
	return b
}

// Build finalizes the error and hands it to the reporter when one is installed.
func (b *ErrorBuilder) Build() *EnhancedError {
	ee := &EnhancedError{
		Err:       b.err,
		Timestamp: time.Now(),
		component: b.component,
		category:  b.category,
		context:   b.context,
	}
	if ee.component == "" {
		ee.component = "unknown"
	}
	report(ee)
	return ee
}

// CategoryOf returns the category of the first EnhancedError in err's chain,
// or CategoryGeneric.
func CategoryOf(err error) Category {
	var ee *EnhancedError
	if stderrors.As(err, &ee) {
		return ee.category
	}
	return CategoryGeneric
}

// IsCategory reports whether err carries the given category.
func IsCategory(err error, category Category) bool {
	return CategoryOf(err) == category
}

// Messages joins the messages of a list of errors, skipping nils.
func Messages(errs []error) string {
	parts := make([]string, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			parts = append(parts, err.Error())
		}
	}
	return strings.Join(parts, "; ")
}

func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

func Join(errs ...error) error { return stderrors.Join(errs...) }

func Unwrap(err error) error { return stderrors.Unwrap(err) }

// NewStd creates a plain error, equivalent to the standard library errors.New.
func NewStd(text string) error { return stderrors.New(text) }
