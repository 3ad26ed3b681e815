package fault

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Classification Codes
// --------------------------------------------------------------------------

// Code classifies an Error.
type Code uint64

const (
	CodeUnknown            Code = iota // 0: Any failure not matching another code.
	CodeSerialization                  // 1: A persisted value could not be encoded or decoded.
	CodeStorageUnavailable             // 2: The persistent medium rejected a read or write.
	CodeDomain                         // 3: Raised deliberately by calling code.
)

func (c Code) String() string {
	switch c {
	case CodeUnknown:
		return "Unknown"
	case CodeSerialization:
		return "Serialization"
	case CodeStorageUnavailable:
		return "StorageUnavailable"
	case CodeDomain:
		return "Domain"
	default:
		return fmt.Sprintf("Code(%d)", uint64(c))
	}
}

// DefaultMessage is used when a failure carries no usable message.
const DefaultMessage = "Unknown error"

// --------------------------------------------------------------------------
// Classified Error
// --------------------------------------------------------------------------

// Error is the normalized representation of every failure handled by a Boundary.
type Error struct {
	Code     Code   // The classification code
	Msg      string // Human-readable message
	Original any    // The original failure, if any
}

// New creates a classified error without an original cause.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// Newf is New with fmt formatting.
func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Error implements the error interface and returns only the message.
func (e *Error) Error() string {
	if e == nil {
		return DefaultMessage
	}
	return e.Msg
}

// Unwrap exposes the original failure if it is an error itself.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	if err, ok := e.Original.(error); ok {
		return err
	}
	return nil
}

// Format supports %+v, which prints the code and the original cause.
func (e *Error) Format(f fmt.State, verb rune) {
	if e == nil {
		fmt.Fprint(f, DefaultMessage)
		return
	}
	switch {
	case verb == 'v' && f.Flag('+'):
		fmt.Fprintf(f, "fault.Error{Code: %s (%d), Msg: %q", e.Code, uint64(e.Code), e.Msg)
		if e.Original != nil {
			fmt.Fprintf(f, ", Original: %#v", e.Original)
		}
		fmt.Fprint(f, "}")
	case verb == 'd':
		fmt.Fprintf(f, "%d", uint64(e.Code))
	default:
		fmt.Fprint(f, e.Msg)
	}
}

// --------------------------------------------------------------------------
// Normalization
// --------------------------------------------------------------------------

// Classify normalizes any failure value into exactly one *Error with the given code.
//
//   - a classified error with the same code is returned unchanged
//   - a classified error with another code is re-wrapped, keeping message and original cause
//   - an error is wrapped using its message
//   - a string becomes the message
//   - anything else gets DefaultMessage and is kept as the original cause,
//     including a nil *Error
func Classify(v any, code Code) *Error {
	switch f := v.(type) {
	case *Error:
		if f == nil {
			return &Error{Code: code, Msg: DefaultMessage}
		}
		return reclassify(f, code)
	case error:
		var classified *Error
		if errors.As(f, &classified) && classified != nil {
			return reclassify(classified, code)
		}
		return &Error{Code: code, Msg: f.Error(), Original: f}
	case string:
		return &Error{Code: code, Msg: f}
	default:
		return &Error{Code: code, Msg: DefaultMessage, Original: v}
	}
}

func reclassify(e *Error, code Code) *Error {
	if e.Code == code {
		return e
	}
	return &Error{Code: code, Msg: e.Msg, Original: e.Original}
}

// Is reports whether v is (or wraps) a classified error.
func Is(v any) bool {
	switch f := v.(type) {
	case *Error:
		return f != nil
	case error:
		var classified *Error
		return errors.As(f, &classified) && classified != nil
	default:
		return false
	}
}

// CodeOf returns the code of a classified error and CodeUnknown otherwise.
func CodeOf(err error) Code {
	var classified *Error
	if errors.As(err, &classified) && classified != nil {
		return classified.Code
	}
	return CodeUnknown
}

// Rethrow panics with v if v is a classified error and returns otherwise.
// Handlers use it to let deliberate domain errors escape to an outer boundary.
func Rethrow(v any) {
	if Is(v) {
		panic(v)
	}
}
