package query

import (
	"errors"
	"testing"
)

func TestParseSimpleComparison(t *testing.T) {
	expr, err := Parse("tag = vacation")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cmp, ok := expr.(Comparison)
	if !ok {
		t.Fatalf("expected Comparison, got %T", expr)
	}
	if cmp.Field != "tag" || cmp.Op != CmpEq {
		t.Errorf("expected tag =, got %s %s", cmp.Field, cmp.Op)
	}
	str, ok := cmp.Value.(Str)
	if !ok || str.Text != "vacation" {
		t.Errorf("expected Str(vacation), got %v", cmp.Value)
	}
}

func TestParseFieldNameCaseInsensitive(t *testing.T) {
	expr, err := Parse("TAG = vacation")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cmp := expr.(Comparison)
	if cmp.Field != "tag" {
		t.Errorf("expected lowercased field, got %q", cmp.Field)
	}
}

func TestParsePrecedence(t *testing.T) {
	// AND binds tighter than OR: a OR b AND c == a OR (b AND c)
	expr, err := Parse("a = 1 OR b = 2 AND c = 3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	or, ok := expr.(Or)
	if !ok {
		t.Fatalf("expected Or at top, got %T", expr)
	}
	if _, ok := or.Right.(And); !ok {
		t.Errorf("expected And on right of Or, got %T", or.Right)
	}
}

func TestParseLeftAssociative(t *testing.T) {
	expr, err := Parse("a = 1 AND b = 2 AND c = 3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	and, ok := expr.(And)
	if !ok {
		t.Fatalf("expected And, got %T", expr)
	}
	if _, ok := and.Left.(And); !ok {
		t.Errorf("expected left-nested And, got %T", and.Left)
	}
}

func TestParseNotBindsTighterThanAnd(t *testing.T) {
	expr, err := Parse("NOT a = 1 AND b = 2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	and, ok := expr.(And)
	if !ok {
		t.Fatalf("expected And at top, got %T", expr)
	}
	if _, ok := and.Left.(Not); !ok {
		t.Errorf("expected Not on left, got %T", and.Left)
	}
}

func TestParseDoubleNot(t *testing.T) {
	expr, err := Parse("NOT NOT tag = x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outer, ok := expr.(Not)
	if !ok {
		t.Fatalf("expected Not, got %T", expr)
	}
	if _, ok := outer.Inner.(Not); !ok {
		t.Errorf("expected nested Not, got %T", outer.Inner)
	}
}

func TestParseParens(t *testing.T) {
	expr, err := Parse("(a = 1 OR b = 2) AND c = 3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	and, ok := expr.(And)
	if !ok {
		t.Fatalf("expected And at top, got %T", expr)
	}
	if _, ok := and.Left.(Or); !ok {
		t.Errorf("expected Or on left, got %T", and.Left)
	}
}

func TestParseIn(t *testing.T) {
	expr, err := Parse(`tag IN (urgent, review, "needs work")`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cmp, ok := expr.(Comparison)
	if !ok {
		t.Fatalf("expected Comparison, got %T", expr)
	}
	if cmp.Op != CmpIn {
		t.Fatalf("expected IN, got %s", cmp.Op)
	}
	list, ok := cmp.Value.(List)
	if !ok {
		t.Fatalf("expected List, got %T", cmp.Value)
	}
	if len(list.Values) != 3 {
		t.Fatalf("expected 3 values, got %d", len(list.Values))
	}
	if s := list.Values[2].(Str); s.Text != "needs work" {
		t.Errorf("expected third value %q, got %q", "needs work", s.Text)
	}
}

func TestParseFunctionCall(t *testing.T) {
	expr, err := Parse(`contains(name, "report")`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fc, ok := expr.(FuncCall)
	if !ok {
		t.Fatalf("expected FuncCall, got %T", expr)
	}
	if fc.Name != "contains" || fc.Field != "name" {
		t.Errorf("expected contains(name, ...), got %s(%s, ...)", fc.Name, fc.Field)
	}
}

func TestParseFunctionNameCaseSensitive(t *testing.T) {
	// "Contains" is not a function, so it parses as a field name and
	// then fails on the '('.
	_, err := Parse(`Contains(name, "x")`)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestParseEmpty(t *testing.T) {
	for _, input := range []string{"", "   ", "\t\n"} {
		_, err := Parse(input)
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("expected ParseError for %q, got %v", input, err)
		}
		if parseErr.Kind != ErrEmptyExpression {
			t.Errorf("for %q: expected ErrEmptyExpression, got %v", input, parseErr.Kind)
		}
	}
}

func TestParseTrailingValueError(t *testing.T) {
	// The boundary between the two errors: "tag = " fails with
	// unexpected-end at the end of input, "tag = AND" fails on the
	// unexpected AND token.
	_, err := Parse("tag = ")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if parseErr.Kind != ErrUnexpectedEnd {
		t.Errorf("expected ErrUnexpectedEnd, got %v", parseErr.Kind)
	}
	if parseErr.Offset != len("tag = ") {
		t.Errorf("expected offset at end of input, got %d", parseErr.Offset)
	}

	_, err = Parse("tag = AND")
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if parseErr.Kind != ErrUnexpectedToken {
		t.Errorf("expected ErrUnexpectedToken, got %v", parseErr.Kind)
	}
}

func TestParseNoImplicitAnd(t *testing.T) {
	_, err := Parse("tag = a tag = b")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if parseErr.Kind != ErrUnexpectedToken {
		t.Errorf("expected ErrUnexpectedToken, got %v", parseErr.Kind)
	}
}

func TestParseUnmatchedParens(t *testing.T) {
	_, err := Parse("(tag = a")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if parseErr.Kind != ErrUnexpectedEnd {
		t.Errorf("expected ErrUnexpectedEnd for missing ')', got %v", parseErr.Kind)
	}

	_, err = Parse("tag = a)")
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if parseErr.Kind != ErrUnmatchedParen {
		t.Errorf("expected ErrUnmatchedParen, got %v", parseErr.Kind)
	}
}

func TestParseMissingComparator(t *testing.T) {
	_, err := Parse("tag vacation")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if parseErr.Expected != "comparator" {
		t.Errorf("expected comparator error, got %q", parseErr.Expected)
	}
}
