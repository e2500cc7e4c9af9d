package query

import (
	"errors"
	"strings"
	"testing"
)

func TestLexSimpleComparison(t *testing.T) {
	tokens, err := Lex("tag = vacation")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Tokens: Ident("tag"), Eq, Ident("vacation"), EOF
	if len(tokens) != 4 {
		t.Fatalf("expected 4 tokens (including EOF), got %d: %v", len(tokens), tokens)
	}
	if tokens[0].Kind != TokIdent || tokens[0].Text != "tag" {
		t.Errorf("expected Ident(tag), got %v", tokens[0])
	}
	if tokens[1].Kind != TokEq {
		t.Errorf("expected Eq, got %v", tokens[1])
	}
	if tokens[2].Kind != TokIdent || tokens[2].Text != "vacation" {
		t.Errorf("expected Ident(vacation), got %v", tokens[2])
	}
	if tokens[3].Kind != TokEOF {
		t.Errorf("expected EOF, got %v", tokens[3])
	}
}

func TestLexOperators(t *testing.T) {
	tests := []struct {
		input    string
		expected TokenKind
	}{
		{"a = b", TokEq},
		{"a != b", TokNeq},
		{"a ~ b", TokLike},
		{"a > 5", TokGt},
		{"a >= 5", TokGte},
		{"a < 5", TokLt},
		{"a <= 5", TokLte},
	}
	for _, tt := range tests {
		tokens, err := Lex(tt.input)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", tt.input, err)
		}
		if tokens[1].Kind != tt.expected {
			t.Errorf("for %s: expected %v, got %v", tt.input, tt.expected, tokens[1].Kind)
		}
	}
}

func TestLexString(t *testing.T) {
	tokens, err := Lex(`name = "hello world"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens[2].Kind != TokString || tokens[2].Text != "hello world" {
		t.Errorf("expected String(hello world), got %v", tokens[2])
	}
}

func TestLexEscapedString(t *testing.T) {
	tokens, err := Lex(`name = "say \"hi\" \\ there"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens[2].Kind != TokString || tokens[2].Text != `say "hi" \ there` {
		t.Errorf("unexpected string token: %q", tokens[2].Text)
	}
}

func TestLexUnterminatedString(t *testing.T) {
	_, err := Lex(`name = "oops`)
	var lexErr *LexError
	if !errors.As(err, &lexErr) {
		t.Fatalf("expected LexError, got %v", err)
	}
	if lexErr.Offset != 7 {
		t.Errorf("expected offset 7 (opening quote), got %d", lexErr.Offset)
	}
}

func TestLexNumber(t *testing.T) {
	tokens, err := Lex("size > 3.14")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens[2].Kind != TokNumber || tokens[2].Num != 3.14 {
		t.Errorf("expected Number(3.14), got %v", tokens[2])
	}
}

func TestLexNegativeNumber(t *testing.T) {
	tokens, err := Lex("size > -5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens[2].Kind != TokNumber || tokens[2].Num != -5 {
		t.Errorf("expected Number(-5), got %v", tokens[2])
	}
}

func TestLexSizeUnits(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"10B", 10},
		{"10KB", 10 * 1024},
		{"10MB", 10485760},
		{"10mb", 10485760},
		{"1.5GB", 1.5 * (1 << 30)},
		{"2TB", 2 * (1 << 40)},
	}
	for _, tt := range tests {
		tokens, err := Lex("size > " + tt.input)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", tt.input, err)
		}
		if tokens[2].Kind != TokNumber || tokens[2].Num != tt.want {
			t.Errorf("for %s: expected Number(%v), got %v", tt.input, tt.want, tokens[2])
		}
	}
}

func TestLexUnknownUnit(t *testing.T) {
	_, err := Lex("size > 10XB")
	var lexErr *LexError
	if !errors.As(err, &lexErr) {
		t.Fatalf("expected LexError, got %v", err)
	}
	if !strings.Contains(lexErr.Reason, "unit") {
		t.Errorf("unexpected reason: %s", lexErr.Reason)
	}
	if lexErr.Offset != 9 {
		t.Errorf("expected offset 9 (suffix start), got %d", lexErr.Offset)
	}
}

func TestLexUnquotedDate(t *testing.T) {
	tokens, err := Lex("modified >= 2024-01-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens[2].Kind != TokIdent || tokens[2].Text != "2024-01-02" {
		t.Errorf("expected Ident(2024-01-02), got %v", tokens[2])
	}
}

func TestLexDurationShorthand(t *testing.T) {
	tokens, err := Lex("modified >= -7d")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens[2].Kind != TokIdent || tokens[2].Text != "-7d" {
		t.Errorf("expected Ident(-7d), got %v", tokens[2])
	}
}

func TestLexKeywordsCaseSensitive(t *testing.T) {
	tokens, err := Lex("a AND b and c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens[1].Kind != TokAnd {
		t.Errorf("expected AND keyword, got %v", tokens[1])
	}
	// lowercase "and" is an ordinary identifier
	if tokens[3].Kind != TokIdent || tokens[3].Text != "and" {
		t.Errorf("expected Ident(and), got %v", tokens[3])
	}
}

func TestLexParens(t *testing.T) {
	tokens, err := Lex("(a = b OR c = d) AND e = f")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens[0].Kind != TokLParen {
		t.Errorf("expected LParen, got %v", tokens[0])
	}
}

func TestLexBangWithoutEquals(t *testing.T) {
	_, err := Lex("a ! b")
	var lexErr *LexError
	if !errors.As(err, &lexErr) {
		t.Fatalf("expected LexError, got %v", err)
	}
	if lexErr.Offset != 2 {
		t.Errorf("expected offset 2, got %d", lexErr.Offset)
	}
}

func TestLexOffsets(t *testing.T) {
	tokens, err := Lex(`tag = "x"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantOffsets := []int{0, 4, 6, 9}
	for i, want := range wantOffsets {
		if tokens[i].Offset != want {
			t.Errorf("token %d: expected offset %d, got %d", i, want, tokens[i].Offset)
		}
	}
}

func TestLexTooLong(t *testing.T) {
	_, err := Lex(strings.Repeat("a", MaxQueryLen+1))
	var lexErr *LexError
	if !errors.As(err, &lexErr) {
		t.Fatalf("expected LexError, got %v", err)
	}
}
