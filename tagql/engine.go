// Package tagql evaluates tag query expressions over a catalog of
// file-system items. A query is lexed, parsed, validated against the
// tag vocabulary and then executed by a source, either the relational
// store or the in-memory evaluator.
package tagql

import (
	"context"
	"errors"
	"time"

	"github.com/tagql/tagql/tagql/catalog"
	"github.com/tagql/tagql/tagql/query"
	"github.com/tagql/tagql/tagql/validate"
)

// DefaultTimeout bounds a single Evaluate call unless the caller's
// context is already tighter.
const DefaultTimeout = 10 * time.Second

// CatalogSource supplies the tag vocabulary the validator resolves
// against.
type CatalogSource interface {
	LoadCatalog(ctx context.Context) (*catalog.Catalog, error)
}

// ItemSource executes a validated expression and returns matching
// items ordered by path bytes.
type ItemSource interface {
	ListItemsMatching(ctx context.Context, expr validate.Expr) ([]catalog.Item, error)
}

// Source is what an Engine runs on. The relational store and the
// in-memory source both satisfy it.
type Source interface {
	CatalogSource
	ItemSource
}

// Options tunes evaluation behavior.
type Options struct {
	// Timeout bounds one Evaluate call. Zero means DefaultTimeout.
	Timeout time.Duration
	// Now pins the clock for relative date shorthands; nil means
	// time.Now.
	Now func() time.Time
	// MaxNodes and MaxInValues override the validation guardrails when
	// positive.
	MaxNodes    int
	MaxInValues int
	// StrictTags makes unresolved tag text an error instead of an empty
	// match set.
	StrictTags bool
}

type Engine struct {
	source Source
	opts   Options
}

func NewEngine(source Source, opts Options) *Engine {
	return &Engine{source: source, opts: opts}
}

// Parse lexes and parses a query without validating it. Errors are
// *Error values carrying offsets and caret snippets.
func Parse(q string) (query.Expr, error) {
	expr, err := query.Parse(q)
	if err != nil {
		return nil, mapQueryError(q, err)
	}
	return expr, nil
}

// Evaluate runs the full pipeline: parse, validate against the
// source's current tag vocabulary, execute, assemble.
func (e *Engine) Evaluate(ctx context.Context, q string) (*Result, error) {
	timeout := e.opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	expr, err := Parse(q)
	if err != nil {
		return nil, err
	}

	cat, err := e.source.LoadCatalog(ctx)
	if err != nil {
		return nil, execError(ctx, "load catalog", err)
	}

	checked, err := validate.Validate(expr, cat, e.validateOptions())
	if err != nil {
		return nil, mapValidateError(q, err)
	}

	items, err := e.source.ListItemsMatching(ctx, checked)
	if err != nil {
		return nil, execError(ctx, "execute query", err)
	}

	return assemble(items), nil
}

// Check parses and validates a query against the source's vocabulary
// without executing it.
func (e *Engine) Check(ctx context.Context, q string) (validate.Expr, error) {
	expr, err := Parse(q)
	if err != nil {
		return nil, err
	}
	cat, err := e.source.LoadCatalog(ctx)
	if err != nil {
		return nil, execError(ctx, "load catalog", err)
	}
	checked, err := validate.Validate(expr, cat, e.validateOptions())
	if err != nil {
		return nil, mapValidateError(q, err)
	}
	return checked, nil
}

func (e *Engine) validateOptions() validate.Options {
	opts := validate.DefaultOptions()
	if e.opts.Now != nil {
		opts.Now = e.opts.Now
	}
	if e.opts.MaxNodes > 0 {
		opts.MaxNodes = e.opts.MaxNodes
	}
	if e.opts.MaxInValues > 0 {
		opts.MaxInValues = e.opts.MaxInValues
	}
	opts.StrictTags = e.opts.StrictTags
	return opts
}

func execError(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Wrap(ErrTimeout, op, err)
	}
	return Wrap(ErrExecute, op, err)
}

func mapQueryError(q string, err error) error {
	var lexErr *query.LexError
	if errors.As(err, &lexErr) {
		return &Error{
			Kind:    ErrLex,
			Message: lexErr.Reason,
			Offset:  lexErr.Offset,
			Snippet: snippet(q, lexErr.Offset),
			Cause:   err,
		}
	}

	var parseErr *query.ParseError
	if errors.As(err, &parseErr) {
		kind := ErrParseUnexpected
		switch parseErr.Kind {
		case query.ErrEmptyExpression:
			kind = ErrParseEmpty
		case query.ErrUnexpectedEnd:
			kind = ErrParseUnexpectedEnd
		case query.ErrUnmatchedParen:
			kind = ErrParseUnmatchedParen
		}
		return &Error{
			Kind:    kind,
			Message: parseErr.Error(),
			Offset:  parseErr.Offset,
			Snippet: snippet(q, parseErr.Offset),
			Cause:   err,
		}
	}

	return Wrap(ErrParseUnexpected, "parse query", err)
}

func mapValidateError(q string, err error) error {
	var valErr *validate.Error
	if !errors.As(err, &valErr) {
		return Wrap(ErrBadValue, "validate query", err)
	}

	kind := ErrBadValue
	switch valErr.Code {
	case validate.CodeUnknownField:
		kind = ErrUnknownField
	case validate.CodeIncompatibleComparator:
		kind = ErrIncompatibleCmp
	case validate.CodeTooComplex:
		kind = ErrQueryTooComplex
	case validate.CodeUnresolvedTag:
		kind = ErrUnresolvedTag
	}
	return &Error{
		Kind:    kind,
		Message: valErr.Message,
		Offset:  valErr.Offset,
		Snippet: snippet(q, valErr.Offset),
		Cause:   err,
	}
}
