package gltfio

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package matches exactly one of
// them through errors.Is.
var (
	// ErrData reports malformed input: GLB framing, bad base64, an
	// out-of-range or misaligned accessor, an inconsistent sparse region.
	ErrData = errors.New("gltfio: invalid data")

	// ErrContract reports a caller misuse: reading with the wrong native
	// type, writing at a non-sequential offset, bad builder descriptors.
	ErrContract = errors.New("gltfio: contract violation")
)

// Error carries the violated rule alongside its kind.
type Error struct {
	Kind error  // ErrData or ErrContract
	Rule string // e.g. "accessor.alignment"
	Msg  string
	Err  error // optional cause
}

func (e *Error) Error() string {
	s := "gltfio: " + e.Rule + ": " + e.Msg
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

func dataErr(rule, format string, args ...any) error {
	return &Error{Kind: ErrData, Rule: rule, Msg: fmt.Sprintf(format, args...)}
}

func contractErr(rule, format string, args ...any) error {
	return &Error{Kind: ErrContract, Rule: rule, Msg: fmt.Sprintf(format, args...)}
}

func wrapDataErr(rule string, cause error, format string, args ...any) error {
	return &Error{Kind: ErrData, Rule: rule, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// RuleOf returns the rule id of err, or "" when err did not come from this
// package.
func RuleOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Rule
	}
	return ""
}
