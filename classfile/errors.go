package classfile

import (
	"fmt"
	"strings"
)

// Kind categorizes a failure. Every error returned by this package and by
// the assembler carries exactly one kind and none of them is recoverable.
type Kind string

const (
	// KindMalformed is bad input: wrong magic, unknown tag or attribute
	// name, bad descriptor, truncated stream.
	KindMalformed Kind = "malformed container"
	// KindUnsupported is valid input this implementation refuses to handle.
	KindUnsupported Kind = "unsupported feature"
	// KindMisuse is a contract violation by the caller of a builder or writer.
	KindMisuse Kind = "builder misuse"
)

// Sentinels for errors.Is.
var (
	ErrMalformed   = &Error{Kind: KindMalformed}
	ErrUnsupported = &Error{Kind: KindUnsupported}
	ErrMisuse      = &Error{Kind: KindMisuse}
)

type Error struct {
	Kind   Kind
	Path   []string
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on Kind only.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// At returns a copy of e with path elements prepended.
func (e *Error) At(path ...string) *Error {
	c := *e
	c.Path = append(append([]string{}, path...), e.Path...)
	return &c
}

func Malformed(format string, args ...any) *Error {
	return &Error{Kind: KindMalformed, Detail: fmt.Sprintf(format, args...)}
}

func Unsupported(format string, args ...any) *Error {
	return &Error{Kind: KindUnsupported, Detail: fmt.Sprintf(format, args...)}
}

func Misuse(format string, args ...any) *Error {
	return &Error{Kind: KindMisuse, Detail: fmt.Sprintf(format, args...)}
}

// within prefixes a path segment onto err if it is an *Error, otherwise it
// classifies err as malformed input.
func within(err error, path string) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e.At(path)
	}
	return &Error{Kind: KindMalformed, Path: []string{path}, Detail: "read failed", Cause: err}
}
