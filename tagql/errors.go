package tagql

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

type ErrorKind string

const (
	ErrLex                 ErrorKind = "lex"
	ErrParseEmpty          ErrorKind = "parse_empty"
	ErrParseUnexpected     ErrorKind = "parse_unexpected"
	ErrParseUnexpectedEnd  ErrorKind = "parse_unexpected_end"
	ErrParseUnmatchedParen ErrorKind = "parse_unmatched_paren"
	ErrUnknownField        ErrorKind = "unknown_field"
	ErrIncompatibleCmp     ErrorKind = "incompatible_comparator"
	ErrBadValue            ErrorKind = "bad_value"
	ErrQueryTooComplex     ErrorKind = "query_too_complex"
	ErrUnresolvedTag       ErrorKind = "unresolved_tag"
	ErrExecute             ErrorKind = "execute"
	ErrTimeout             ErrorKind = "timeout"
)

// Error is the engine's unified error. Lex, parse and validation
// failures carry the byte offset of the offending input and a caret
// snippet pointing at it.
type Error struct {
	Kind    ErrorKind
	Message string
	Offset  int
	Snippet string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	base := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", base, e.Cause)
	}
	return base
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func Wrap(kind ErrorKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

func New(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// snippet renders the query with a caret line under the given byte
// offset. The caret column counts code points, not bytes, so it lines
// up in a terminal.
func snippet(query string, offset int) string {
	if offset < 0 {
		offset = 0
	}
	if offset > len(query) {
		offset = len(query)
	}
	col := utf8.RuneCountInString(query[:offset])
	return query + "\n" + strings.Repeat(" ", col) + "^"
}
