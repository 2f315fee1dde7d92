package audio

import (
	"errors"
	"fmt"
)

// Kind classifies an I/O or container failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindInputOpen
	KindOutputCreate
	KindSeek
	KindShortRead
	KindShortWrite
	KindUnsupportedContainer
)

// Sentinel errors, one per Kind. Use errors.Is to test for them.
var (
	ErrInputOpen            = errors.New("cannot open input")
	ErrOutputCreate         = errors.New("cannot create output")
	ErrSeek                 = errors.New("seek failed")
	ErrShortRead            = errors.New("short read")
	ErrShortWrite           = errors.New("short write")
	ErrUnsupportedContainer = errors.New("unsupported container")
)

func (k Kind) String() string {
	switch k {
	case KindInputOpen:
		return "input open"
	case KindOutputCreate:
		return "output create"
	case KindSeek:
		return "seek"
	case KindShortRead:
		return "short read"
	case KindShortWrite:
		return "short write"
	case KindUnsupportedContainer:
		return "unsupported container"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindInputOpen:
		return ErrInputOpen
	case KindOutputCreate:
		return ErrOutputCreate
	case KindSeek:
		return ErrSeek
	case KindShortRead:
		return ErrShortRead
	case KindShortWrite:
		return ErrShortWrite
	case KindUnsupportedContainer:
		return ErrUnsupportedContainer
	default:
		return nil
	}
}

// Error describes a failed file operation.
type Error struct {
	Kind Kind
	Path string
	Err  error // underlying cause, may be nil
}

// NewError returns an *Error for a failed operation on path.
func NewError(kind Kind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

func (e *Error) Error() string {
	var msg string
	if s := e.Kind.sentinel(); s != nil {
		msg = fmt.Sprintf("%s: %v", e.Path, s)
	} else {
		msg = fmt.Sprintf("%s: %s error", e.Path, e.Kind)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the Kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	var errs []error
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf reports the Kind of the first *Error in err's chain, or
// KindUnknown if there is none.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}
