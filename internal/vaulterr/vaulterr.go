// Package vaulterr classifies every failure the vault engine can report.
//
// A Kind is a stable category a UI layer can map to a message. An *Error
// carries the Kind, the operation that failed and, for I/O and crypto
// failures, the original cause. Kind itself implements error so callers
// can test with errors.Is(err, vaulterr.NotFound).
package vaulterr

import (
	"errors"
	"strings"
)

// Kind is the category of a vault failure
type Kind uint8

const (
	Other Kind = iota
	Validation
	InvalidMasterKey
	NotFound
	DuplicateEntry
	EmptyList
	LoadFailed
	SaveFailed
	UnsupportedFormat
)

var kindNames = [...]string{
	Other:             "error",
	Validation:        "validation error",
	InvalidMasterKey:  "invalid master key",
	NotFound:          "not found",
	DuplicateEntry:    "duplicate entry",
	EmptyList:         "no entries",
	LoadFailed:        "load failed",
	SaveFailed:        "save failed",
	UnsupportedFormat: "unsupported format",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return kindNames[Other]
}

// Error lets a bare Kind be used as an errors.Is target
func (k Kind) Error() string {
	return k.String()
}

// Error is a classified vault failure
type Error struct {
	Kind Kind
	Op   string // operation, e.g. "store.load"
	Msg  string // optional detail
	Err  error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the Kind of e
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// E builds a classified error without a cause
func E(kind Kind, op, msg string) error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap classifies err under kind. A nil err returns nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the Kind of the outermost *Error in err's chain,
// or Other when err is not classified.
func KindOf(err error) Kind {
	if err == nil {
		return Other
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return Other
}
