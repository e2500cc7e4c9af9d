package validate

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tagql/tagql/tagql/catalog"
	"github.com/tagql/tagql/tagql/query"
)

// Code classifies validation failures.
type Code int

const (
	CodeUnknownField Code = iota
	CodeIncompatibleComparator
	CodeBadValue
	CodeTooComplex
	CodeUnresolvedTag
)

// Error is a positioned semantic error.
type Error struct {
	Code    Code
	Field   string
	Message string
	Offset  int
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (field=%s, offset %d)", e.Message, e.Field, e.Offset)
	}
	return fmt.Sprintf("%s (offset %d)", e.Message, e.Offset)
}

// Options configures validation guardrails and policies.
type Options struct {
	// Now pins the clock used to resolve relative date shorthands.
	Now func() time.Time
	// MaxNodes caps the AST size accepted for compilation.
	MaxNodes int
	// MaxInValues caps the length of an IN value list.
	MaxInValues int
	// StrictTags turns unresolved tag text into a hard error instead of
	// the default empty-set resolution.
	StrictTags bool
}

// DefaultOptions returns the default guardrails.
func DefaultOptions() Options {
	return Options{
		Now:         time.Now,
		MaxNodes:    500,
		MaxInValues: 256,
	}
}

// Field is the closed set of queryable fields.
type Field int

const (
	FieldTag Field = iota
	FieldName
	FieldSize
	FieldModified
	FieldCreated
	FieldPath
)

// fieldNames maps accepted (lowercased) field spellings to fields.
// "filename" is an alias for "name".
var fieldNames = map[string]Field{
	"tag":      FieldTag,
	"name":     FieldName,
	"filename": FieldName,
	"size":     FieldSize,
	"modified": FieldModified,
	"created":  FieldCreated,
	"path":     FieldPath,
}

// fieldComparators is the comparator-compatibility table. Nothing
// outside it reaches the compilers.
var fieldComparators = map[Field]map[query.Comparator]bool{
	FieldTag:      {query.CmpEq: true, query.CmpNeq: true, query.CmpLike: true, query.CmpIn: true},
	FieldName:     {query.CmpEq: true, query.CmpNeq: true, query.CmpLike: true, query.CmpIn: true},
	FieldPath:     {query.CmpEq: true, query.CmpNeq: true, query.CmpLike: true, query.CmpIn: true},
	FieldSize:     {query.CmpEq: true, query.CmpNeq: true, query.CmpGt: true, query.CmpLt: true, query.CmpGte: true, query.CmpLte: true},
	FieldModified: {query.CmpEq: true, query.CmpNeq: true, query.CmpGt: true, query.CmpLt: true, query.CmpGte: true, query.CmpLte: true},
	FieldCreated:  {query.CmpEq: true, query.CmpNeq: true, query.CmpGt: true, query.CmpLt: true, query.CmpGte: true, query.CmpLte: true},
}

// Validate walks the AST once, resolves field names and tag references
// against the snapshot, enforces the comparator/type table, expands
// function calls, and returns the checked tree.
func Validate(expr query.Expr, cat *catalog.Catalog, opts Options) (Expr, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	if n := countNodes(expr); opts.MaxNodes > 0 && n > opts.MaxNodes {
		return nil, &Error{
			Code:    CodeTooComplex,
			Message: fmt.Sprintf("query too complex: %d nodes (max %d)", n, opts.MaxNodes),
		}
	}

	v := &validator{cat: cat, opts: opts}
	return v.check(expr)
}

type validator struct {
	cat  *catalog.Catalog
	opts Options
}

func (v *validator) check(expr query.Expr) (Expr, error) {
	switch e := expr.(type) {
	case query.And:
		left, err := v.check(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := v.check(e.Right)
		if err != nil {
			return nil, err
		}
		return And{Left: left, Right: right}, nil

	case query.Or:
		left, err := v.check(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := v.check(e.Right)
		if err != nil {
			return nil, err
		}
		return Or{Left: left, Right: right}, nil

	case query.Not:
		inner, err := v.check(e.Inner)
		if err != nil {
			return nil, err
		}
		return Not{Inner: inner}, nil

	case query.Comparison:
		return v.checkComparison(e)

	case query.FuncCall:
		return v.checkFuncCall(e)

	default:
		return nil, &Error{Code: CodeBadValue, Message: fmt.Sprintf("unknown expression node %T", expr)}
	}
}

func (v *validator) checkComparison(c query.Comparison) (Expr, error) {
	field, ok := fieldNames[c.Field]
	if !ok {
		return nil, &Error{
			Code:    CodeUnknownField,
			Field:   c.Field,
			Message: fmt.Sprintf("unknown field %q", c.Field),
			Offset:  c.Offset,
		}
	}

	if !fieldComparators[field][c.Op] {
		return nil, &Error{
			Code:    CodeIncompatibleComparator,
			Field:   c.Field,
			Message: fmt.Sprintf("comparator %s is not valid for field %s", c.Op, c.Field),
			Offset:  c.Offset,
		}
	}

	switch field {
	case FieldTag:
		return v.checkTag(c)
	case FieldSize:
		return v.checkSize(c)
	case FieldModified, FieldCreated:
		return v.checkTime(c, field)
	default:
		return v.checkText(c, field)
	}
}

func (v *validator) checkTag(c query.Comparison) (Expr, error) {
	switch c.Op {
	case query.CmpEq, query.CmpNeq:
		text, err := stringValue(c, "tag")
		if err != nil {
			return nil, err
		}
		ids, err := v.resolveTag(text, false, c.Offset)
		if err != nil {
			return nil, err
		}
		if c.Op == query.CmpNeq {
			return Not{Inner: HasTag{TagIDs: ids}}, nil
		}
		return HasTag{TagIDs: ids}, nil

	case query.CmpLike:
		text, err := stringValue(c, "tag")
		if err != nil {
			return nil, err
		}
		ids, err := v.resolveTag(text, true, c.Offset)
		if err != nil {
			return nil, err
		}
		return HasTag{TagIDs: ids}, nil

	case query.CmpIn:
		values, err := v.listValues(c, "tag")
		if err != nil {
			return nil, err
		}
		var ids []int64
		seen := make(map[int64]bool)
		for _, text := range values {
			resolved, err := v.resolveTag(text, false, c.Offset)
			if err != nil {
				return nil, err
			}
			for _, id := range resolved {
				if !seen[id] {
					seen[id] = true
					ids = append(ids, id)
				}
			}
		}
		return HasTag{TagIDs: ids}, nil
	}

	return nil, &Error{Code: CodeIncompatibleComparator, Field: "tag", Offset: c.Offset,
		Message: fmt.Sprintf("comparator %s is not valid for field tag", c.Op)}
}

// resolveTag maps tag text to the set of matching tag ids. "group:value"
// restricts the lookup to one group. Text that matches nothing resolves
// to the empty set unless StrictTags is on.
func (v *validator) resolveTag(text string, glob bool, offset int) ([]int64, error) {
	group, value := catalog.SplitGroupValue(text)
	if group != "" && !v.cat.HasGroup(group) {
		// "a:b" where "a" names no group: the whole text is a bare value,
		// so tags whose value contains a colon stay queryable.
		group, value = "", text
	}

	var refs []catalog.TagRef
	if glob {
		refs = v.cat.ResolveGlob(value, group)
	} else {
		refs = v.cat.Resolve(value, group)
	}

	if len(refs) == 0 && v.opts.StrictTags {
		return nil, &Error{
			Code:    CodeUnresolvedTag,
			Field:   "tag",
			Message: fmt.Sprintf("no tag matches %q", text),
			Offset:  offset,
		}
	}

	ids := make([]int64, 0, len(refs))
	for _, r := range refs {
		ids = append(ids, r.TagID)
	}
	return ids, nil
}

func (v *validator) checkSize(c query.Comparison) (Expr, error) {
	num, ok := c.Value.(query.Num)
	if !ok {
		return nil, &Error{
			Code:    CodeBadValue,
			Field:   "size",
			Message: "size requires a numeric value (optionally with a KB/MB/GB suffix)",
			Offset:  c.Offset,
		}
	}
	return SizeCmp{Op: c.Op, Bytes: int64(num.Val)}, nil
}

func (v *validator) checkTime(c query.Comparison, field Field) (Expr, error) {
	name := "modified"
	tf := TimeModified
	if field == FieldCreated {
		name = "created"
		tf = TimeCreated
	}

	str, ok := c.Value.(query.Str)
	if !ok {
		return nil, &Error{
			Code:    CodeBadValue,
			Field:   name,
			Message: fmt.Sprintf("%s requires a date value (ISO-8601, today, yesterday or -Nd)", name),
			Offset:  c.Offset,
		}
	}

	ms, err := parseWhen(str.Text, v.opts.Now())
	if err != nil {
		return nil, &Error{
			Code:    CodeBadValue,
			Field:   name,
			Message: fmt.Sprintf("malformed date %q", str.Text),
			Offset:  c.Offset,
		}
	}

	return TimeCmp{Field: tf, Op: c.Op, UnixMS: ms}, nil
}

func (v *validator) checkText(c query.Comparison, field Field) (Expr, error) {
	name := "name"
	tf := TextName
	if field == FieldPath {
		name = "path"
		tf = TextPath
	}

	switch c.Op {
	case query.CmpEq, query.CmpNeq:
		text, err := stringValue(c, name)
		if err != nil {
			return nil, err
		}
		return TextCmp{Field: tf, Op: c.Op, Text: text}, nil

	case query.CmpLike:
		text, err := stringValue(c, name)
		if err != nil {
			return nil, err
		}
		return TextLike{Field: tf, Pattern: globToLike(text)}, nil

	case query.CmpIn:
		values, err := v.listValues(c, name)
		if err != nil {
			return nil, err
		}
		return TextIn{Field: tf, Values: values}, nil
	}

	return nil, &Error{Code: CodeIncompatibleComparator, Field: name, Offset: c.Offset,
		Message: fmt.Sprintf("comparator %s is not valid for field %s", c.Op, name)}
}

// checkFuncCall expands contains/startsWith/endsWith into the
// equivalent Like node so the compilers never see function calls.
func (v *validator) checkFuncCall(f query.FuncCall) (Expr, error) {
	field, ok := fieldNames[f.Field]
	if !ok {
		return nil, &Error{
			Code:    CodeUnknownField,
			Field:   f.Field,
			Message: fmt.Sprintf("unknown field %q", f.Field),
			Offset:  f.Offset,
		}
	}

	var tf TextField
	switch field {
	case FieldName:
		tf = TextName
	case FieldPath:
		tf = TextPath
	default:
		return nil, &Error{
			Code:    CodeIncompatibleComparator,
			Field:   f.Field,
			Message: fmt.Sprintf("%s only applies to name or path", f.Name),
			Offset:  f.Offset,
		}
	}

	str, ok := f.Value.(query.Str)
	if !ok {
		return nil, &Error{
			Code:    CodeBadValue,
			Field:   f.Field,
			Message: fmt.Sprintf("%s requires a string value", f.Name),
			Offset:  f.Offset,
		}
	}

	escaped := escapeLike(str.Text)
	var pattern string
	switch f.Name {
	case "contains":
		pattern = "%" + escaped + "%"
	case "startsWith":
		pattern = escaped + "%"
	case "endsWith":
		pattern = "%" + escaped
	default:
		return nil, &Error{
			Code:    CodeBadValue,
			Message: fmt.Sprintf("unknown function %q", f.Name),
			Offset:  f.Offset,
		}
	}

	return TextLike{Field: tf, Pattern: pattern}, nil
}

func stringValue(c query.Comparison, field string) (string, error) {
	str, ok := c.Value.(query.Str)
	if !ok {
		return "", &Error{
			Code:    CodeBadValue,
			Field:   field,
			Message: fmt.Sprintf("%s requires a string value", field),
			Offset:  c.Offset,
		}
	}
	return str.Text, nil
}

func (v *validator) listValues(c query.Comparison, field string) ([]string, error) {
	list, ok := c.Value.(query.List)
	if !ok {
		return nil, &Error{
			Code:    CodeBadValue,
			Field:   field,
			Message: "IN requires a parenthesized value list",
			Offset:  c.Offset,
		}
	}
	if v.opts.MaxInValues > 0 && len(list.Values) > v.opts.MaxInValues {
		return nil, &Error{
			Code:    CodeTooComplex,
			Field:   field,
			Message: fmt.Sprintf("IN list too long: %d values (max %d)", len(list.Values), v.opts.MaxInValues),
			Offset:  c.Offset,
		}
	}

	values := make([]string, 0, len(list.Values))
	for _, item := range list.Values {
		str, ok := item.(query.Str)
		if !ok {
			return nil, &Error{
				Code:    CodeBadValue,
				Field:   field,
				Message: fmt.Sprintf("IN list for %s must contain strings", field),
				Offset:  c.Offset,
			}
		}
		values = append(values, str.Text)
	}
	return values, nil
}

// globToLike translates a user glob (`*`, `?`) to SQL LIKE syntax,
// escaping literal `%`, `_` and `\` in the user text first.
func globToLike(glob string) string {
	var sb strings.Builder
	for _, r := range glob {
		switch r {
		case '*':
			sb.WriteByte('%')
		case '?':
			sb.WriteByte('_')
		case '%', '_', '\\':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// escapeLike escapes LIKE metacharacters in literal user text.
func escapeLike(text string) string {
	var sb strings.Builder
	for _, r := range text {
		switch r {
		case '%', '_', '\\':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// parseWhen resolves a date literal or relative shorthand to epoch
// milliseconds.
func parseWhen(text string, now time.Time) (int64, error) {
	switch strings.ToLower(text) {
	case "today":
		return startOfDay(now), nil
	case "yesterday":
		return startOfDay(now.AddDate(0, 0, -1)), nil
	}

	if ms, ok := parseRelative(text, now); ok {
		return ms, nil
	}

	if t, err := time.Parse("2006-01-02", text); err == nil {
		return t.UnixMilli(), nil
	}
	if t, err := time.Parse(time.RFC3339, text); err == nil {
		return t.UnixMilli(), nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", text); err == nil {
		return t.UnixMilli(), nil
	}

	return 0, fmt.Errorf("invalid date format: %s", text)
}

// parseRelative handles signed duration shorthands: -7d is seven days
// in the past, 3h three hours ahead.
func parseRelative(text string, now time.Time) (int64, bool) {
	if len(text) < 2 {
		return 0, false
	}
	unit := text[len(text)-1]
	numPart := text[:len(text)-1]

	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil {
		return 0, false
	}

	var d time.Duration
	switch unit {
	case 'd':
		d = time.Duration(n) * 24 * time.Hour
	case 'h':
		d = time.Duration(n) * time.Hour
	case 'w':
		d = time.Duration(n) * 7 * 24 * time.Hour
	default:
		return 0, false
	}

	return now.Add(d).UnixMilli(), true
}

func startOfDay(t time.Time) int64 {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).UnixMilli()
}

// countNodes counts expression nodes for the complexity guardrail.
func countNodes(expr query.Expr) int {
	switch e := expr.(type) {
	case query.And:
		return 1 + countNodes(e.Left) + countNodes(e.Right)
	case query.Or:
		return 1 + countNodes(e.Left) + countNodes(e.Right)
	case query.Not:
		return 1 + countNodes(e.Inner)
	default:
		return 1
	}
}
