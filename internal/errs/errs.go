// Package errs defines the structural error taxonomy shared by the map codec,
// the record codec and the engine data recoverer.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Code identifies a class of structural failure.
type Code string

const (
	BadSignature        Code = "bad_signature"
	UnsupportedVersion  Code = "unsupported_version"
	BadSectionSignature Code = "bad_section_signature"
	UnknownSection      Code = "unknown_section"
	TrailingData        Code = "trailing_data"
	DuplicateIndex      Code = "duplicate_index"
	ShapeMismatch       Code = "shape_mismatch"
	MalformedCoordinate Code = "malformed_coordinate"
	WrongKingdom        Code = "wrong_kingdom"
	DuplicateServerID   Code = "duplicate_server_id"
	CountMismatch       Code = "count_mismatch"
	Truncated           Code = "truncated"
	MissingInfo         Code = "missing_info"
	ModifierCount       Code = "modifier_count"
	MissingAnchor       Code = "missing_anchor"
	MalformedString     Code = "malformed_string"
	Unencodable         Code = "unencodable"
)

// Unknown marks an absent offset, section or record index.
const Unknown = -1

// Error is a terminal decode or encode failure. Offset, Section and Record
// locate the failure when known and are Unknown otherwise.
type Error struct {
	Code    Code
	Message string
	Offset  int64
	Section int
	Record  int
	Cause   error
}

// New returns an Error with no location.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Offset:  Unknown,
		Section: Unknown,
		Record:  Unknown,
	}
}

// AtOffset sets the byte offset and returns e.
func (e *Error) AtOffset(off int64) *Error {
	e.Offset = off
	return e
}

// InSection sets the section id and returns e.
func (e *Error) InSection(id int) *Error {
	e.Section = id
	return e
}

// AtRecord sets the record index and returns e.
func (e *Error) AtRecord(i int) *Error {
	e.Record = i
	return e
}

// Wrap sets the underlying cause and returns e.
func (e *Error) Wrap(cause error) *Error {
	e.Cause = cause
	return e
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)

	var loc []string
	if e.Offset >= 0 {
		loc = append(loc, fmt.Sprintf("offset 0x%x", e.Offset))
	}
	if e.Section >= 0 {
		loc = append(loc, fmt.Sprintf("section %d", e.Section))
	}
	if e.Record >= 0 {
		loc = append(loc, fmt.Sprintf("record %d", e.Record))
	}
	if len(loc) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(loc, ", "))
		b.WriteString(")")
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code, so that the
// package-level sentinels match any located instance.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Locate fills in the offset and section of the first *Error in err's chain
// when they are still unknown. Errors of other types are returned as is.
func Locate(err error, off int64, section int) error {
	var e *Error
	if errors.As(err, &e) {
		if e.Offset < 0 {
			e.Offset = off
		}
		if e.Section < 0 {
			e.Section = section
		}
	}
	return err
}

// LocateRecord fills in the record index of the first *Error in err's chain
// when it is still unknown.
func LocateRecord(err error, index int) error {
	var e *Error
	if errors.As(err, &e) && e.Record < 0 {
		e.Record = index
	}
	return err
}

// Sentinels for errors.Is.
var (
	ErrBadSignature        = &Error{Code: BadSignature, Message: "bad file signature"}
	ErrUnsupportedVersion  = &Error{Code: UnsupportedVersion, Message: "unsupported format version"}
	ErrBadSectionSignature = &Error{Code: BadSectionSignature, Message: "section signature mismatch"}
	ErrUnknownSection      = &Error{Code: UnknownSection, Message: "unknown section id"}
	ErrTrailingData        = &Error{Code: TrailingData, Message: "trailing data"}
	ErrDuplicateIndex      = &Error{Code: DuplicateIndex, Message: "duplicate index"}
	ErrShapeMismatch       = &Error{Code: ShapeMismatch, Message: "value does not match field shape"}
	ErrMalformedCoordinate = &Error{Code: MalformedCoordinate, Message: "malformed coordinate"}
	ErrWrongKingdom        = &Error{Code: WrongKingdom, Message: "unexpected kingdom"}
	ErrDuplicateServerID   = &Error{Code: DuplicateServerID, Message: "duplicate server id"}
	ErrCountMismatch       = &Error{Code: CountMismatch, Message: "count mismatch"}
	ErrTruncated           = &Error{Code: Truncated, Message: "truncated input"}
	ErrMissingInfo         = &Error{Code: MissingInfo, Message: "info section missing"}
	ErrModifierCount       = &Error{Code: ModifierCount, Message: "effect must have 0 or 2 modifiers"}
	ErrMissingAnchor       = &Error{Code: MissingAnchor, Message: "anchor string not found"}
	ErrMalformedString     = &Error{Code: MalformedString, Message: "malformed string"}
	ErrUnencodable         = &Error{Code: Unencodable, Message: "text not representable in codepage"}
)
