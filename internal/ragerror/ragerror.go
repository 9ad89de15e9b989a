package ragerror

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies a failure so callers can decide severity and the
// presentation layer can pick hint text without parsing messages.
type Kind int

const (
	KindUnknown Kind = iota
	KindSourceNotFound
	KindSchema
	KindStoreUnavailable
	KindGeneration
	KindPipeline
)

func (k Kind) String() string {
	switch k {
	case KindSourceNotFound:
		return "source_not_found"
	case KindSchema:
		return "schema"
	case KindStoreUnavailable:
		return "store_unavailable"
	case KindGeneration:
		return "generation"
	case KindPipeline:
		return "pipeline"
	default:
		return "unknown"
	}
}

// Error is a kinded error with an attached context map and a wrapped cause.
type Error struct {
	Kind   Kind
	Op     string
	Fields map[string]any
	Err    error
}

func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// With attaches a context field and returns the same error for chaining.
func (e *Error) With(key string, value any) *Error {
	if e.Fields == nil {
		e.Fields = map[string]any{}
	}
	e.Fields[key] = value
	return e
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Kind.String())
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" [")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Fields[k])
		}
		b.WriteString("]")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf walks the error chain and returns the kind of the outermost
// classified error, or KindUnknown.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindUnknown
}

// FieldsOf returns the context map of the outermost classified error.
func FieldsOf(err error) map[string]any {
	var re *Error
	if errors.As(err, &re) {
		return re.Fields
	}
	return nil
}
