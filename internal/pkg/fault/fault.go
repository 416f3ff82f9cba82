// Package fault classifies marketplace failures.
//
// Every named failure is a package-level *Error sentinel. Callers compare with
// errors.Is and use KindOf/CodeOf to map a failure onto a transport status or
// a log field without knowing the concrete sentinel.
package fault

import "errors"

type Kind uint8

const (
	KindUnknown Kind = iota
	KindNotFound
	KindUnauthorized
	KindConflict
	KindValidation
	KindArithmetic
	KindConsent
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	case KindArithmetic:
		return "arithmetic"
	case KindConsent:
		return "consent"
	default:
		return "unknown"
	}
}

// Error is a classified failure with a stable code.
type Error struct {
	Kind Kind
	Code string
	Msg  string
}

func New(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Msg: msg}
}

func (e *Error) Error() string { return e.Msg }

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// CodeOf returns the code of the first *Error in err's chain, "OK" for nil
// and "Internal" for unclassified errors.
func CodeOf(err error) string {
	if err == nil {
		return "OK"
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return "Internal"
}
