// Package cliperr defines the error kinds reported by the clip loading
// pipeline. Callers match them with errors.Is against the Err* sentinels:
//
//	if errors.Is(err, cliperr.ErrNotFound) { ... }
package cliperr

import (
	"fmt"
	"strings"
)

// Kind classifies an Error.
type Kind int

const (
	// NotFound reports a missing root, class directory or clip file.
	NotFound Kind = iota + 1
	// CorruptData reports an array that cannot be parsed or holds no frames.
	CorruptData
	// Configuration reports invalid loader or augmentation parameters.
	Configuration
	// Shape reports mismatched tensor or frame dimensions.
	Shape
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case CorruptData:
		return "corrupt data"
	case Configuration:
		return "configuration"
	case Shape:
		return "shape"
	default:
		return "unknown"
	}
}

// Error is the concrete error type. Op names the failing operation and Path
// the file involved, when there is one.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

// Sentinels for errors.Is. Only the Kind is compared.
var (
	ErrNotFound      = &Error{Kind: NotFound}
	ErrCorruptData   = &Error{Kind: CorruptData}
	ErrConfiguration = &Error{Kind: Configuration}
	ErrShape         = &Error{Kind: Shape}
)

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Path != "" {
		fmt.Fprintf(&b, " %q", e.Path)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newf(kind Kind, op, path, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: fmt.Errorf(format, args...)}
}

// NotFoundf builds a NotFound error.
func NotFoundf(op, path, format string, args ...any) error {
	return newf(NotFound, op, path, format, args...)
}

// CorruptDataf builds a CorruptData error.
func CorruptDataf(op, path, format string, args ...any) error {
	return newf(CorruptData, op, path, format, args...)
}

// Configurationf builds a Configuration error.
func Configurationf(op, format string, args ...any) error {
	return newf(Configuration, op, "", format, args...)
}

// Shapef builds a Shape error.
func Shapef(op, format string, args ...any) error {
	return newf(Shape, op, "", format, args...)
}

// Wrap attaches kind, op and path to an underlying error. A nil err yields nil.
func Wrap(kind Kind, op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}
