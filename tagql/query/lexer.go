package query

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxQueryLen is the maximum accepted query length in code points.
const MaxQueryLen = 4096

// Token represents a lexical token. Offset is the byte offset of the
// token's first character in the original input.
type Token struct {
	Kind   TokenKind
	Text   string
	Num    float64
	Offset int
}

// TokenKind is the type of token
type TokenKind int

const (
	TokIdent TokenKind = iota
	TokString
	TokNumber
	TokEq
	TokNeq
	TokLike
	TokGt
	TokGte
	TokLt
	TokLte
	TokLParen
	TokRParen
	TokComma
	TokAnd
	TokOr
	TokNot
	TokIn
	TokEOF
)

func (k TokenKind) String() string {
	switch k {
	case TokIdent:
		return "identifier"
	case TokString:
		return "string"
	case TokNumber:
		return "number"
	case TokEq:
		return "'='"
	case TokNeq:
		return "'!='"
	case TokLike:
		return "'~'"
	case TokGt:
		return "'>'"
	case TokGte:
		return "'>='"
	case TokLt:
		return "'<'"
	case TokLte:
		return "'<='"
	case TokLParen:
		return "'('"
	case TokRParen:
		return "')'"
	case TokComma:
		return "','"
	case TokAnd:
		return "AND"
	case TokOr:
		return "OR"
	case TokNot:
		return "NOT"
	case TokIn:
		return "IN"
	case TokEOF:
		return "end of input"
	default:
		return "unknown"
	}
}

// LexError is a lexical error with the exact byte offset of the
// offending input, for caret-style reporting.
type LexError struct {
	Reason string
	Offset int
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s (offset %d)", e.Reason, e.Offset)
}

// sizeUnits maps a size suffix to its byte multiplier. Normalization to
// bytes happens at lex time so later stages only ever see byte counts.
var sizeUnits = map[string]float64{
	"B":  1,
	"KB": 1 << 10,
	"MB": 1 << 20,
	"GB": 1 << 30,
	"TB": 1 << 40,
}

// durationUnits are the suffixes of relative date shorthands (-7d, 3h,
// 2w). These lex as bare word tokens; the validator interprets them.
var durationUnits = map[string]bool{"d": true, "h": true, "w": true}

// Lexer tokenizes a query string
type Lexer struct {
	input string
	pos   int
}

// NewLexer creates a new lexer for the input string
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Lex tokenizes the entire input
func Lex(input string) ([]Token, error) {
	if utf8.RuneCountInString(input) > MaxQueryLen {
		return nil, &LexError{Reason: fmt.Sprintf("query too long (max %d characters)", MaxQueryLen), Offset: 0}
	}

	lexer := NewLexer(input)
	var tokens []Token

	for {
		tok, err := lexer.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == TokEOF {
			break
		}
	}

	return tokens, nil
}

// Next returns the next token
func (l *Lexer) Next() (Token, error) {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{Kind: TokEOF, Offset: len(l.input)}, nil
	}

	start := l.pos
	ch, _ := l.rune(l.pos)

	switch ch {
	case '(':
		l.pos++
		return Token{Kind: TokLParen, Text: "(", Offset: start}, nil
	case ')':
		l.pos++
		return Token{Kind: TokRParen, Text: ")", Offset: start}, nil
	case ',':
		l.pos++
		return Token{Kind: TokComma, Text: ",", Offset: start}, nil
	case '=':
		l.pos++
		return Token{Kind: TokEq, Text: "=", Offset: start}, nil
	case '~':
		l.pos++
		return Token{Kind: TokLike, Text: "~", Offset: start}, nil
	case '!':
		if l.peek(1) == '=' {
			l.pos += 2
			return Token{Kind: TokNeq, Text: "!=", Offset: start}, nil
		}
		return Token{}, &LexError{Reason: "illegal character '!'", Offset: start}
	case '>':
		if l.peek(1) == '=' {
			l.pos += 2
			return Token{Kind: TokGte, Text: ">=", Offset: start}, nil
		}
		l.pos++
		return Token{Kind: TokGt, Text: ">", Offset: start}, nil
	case '<':
		if l.peek(1) == '=' {
			l.pos += 2
			return Token{Kind: TokLte, Text: "<=", Offset: start}, nil
		}
		l.pos++
		return Token{Kind: TokLt, Text: "<", Offset: start}, nil
	case '"':
		return l.scanString()
	}

	if unicode.IsDigit(ch) || (ch == '-' && unicode.IsDigit(l.peek(1))) {
		return l.scanNumber()
	}

	if unicode.IsLetter(ch) || ch == '_' {
		return l.scanWord()
	}

	return Token{}, &LexError{Reason: fmt.Sprintf("illegal character %q", ch), Offset: start}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		r, size := l.rune(l.pos)
		if !unicode.IsSpace(r) {
			return
		}
		l.pos += size
	}
}

func (l *Lexer) rune(pos int) (rune, int) {
	return utf8.DecodeRuneInString(l.input[pos:])
}

// peek returns the rune at the given byte offset from the current
// position, or 0 past the end. Only called where ASCII is expected.
func (l *Lexer) peek(offset int) rune {
	pos := l.pos + offset
	if pos < len(l.input) {
		r, _ := l.rune(pos)
		return r
	}
	return 0
}

func (l *Lexer) scanString() (Token, error) {
	start := l.pos
	l.pos++ // consume opening quote
	var sb strings.Builder

	for l.pos < len(l.input) {
		ch, size := l.rune(l.pos)
		if ch == '"' {
			l.pos++ // consume closing quote
			return Token{Kind: TokString, Text: sb.String(), Offset: start}, nil
		}
		if ch == '\\' && l.pos+1 < len(l.input) {
			l.pos++
			esc, escSize := l.rune(l.pos)
			switch esc {
			case '"':
				sb.WriteRune('"')
			case '\\':
				sb.WriteRune('\\')
			default:
				sb.WriteRune(esc)
			}
			l.pos += escSize
			continue
		}
		sb.WriteRune(ch)
		l.pos += size
	}

	return Token{}, &LexError{Reason: "unterminated string", Offset: start}
}

// scanNumber scans a numeric literal with an optional sign, fraction and
// unit suffix. Unquoted ISO dates (2024-01-02) and duration shorthands
// (-7d) start like numbers and come out as bare word tokens instead.
func (l *Lexer) scanNumber() (Token, error) {
	start := l.pos

	if l.input[l.pos] == '-' {
		l.pos++
	}

	digitsStart := l.pos
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
	}
	intDigits := l.pos - digitsStart

	// Unquoted date: exactly four leading digits followed by -DD...
	if intDigits == 4 && l.input[start] != '-' &&
		l.pos < len(l.input) && l.input[l.pos] == '-' &&
		l.pos+1 < len(l.input) && isDigit(l.input[l.pos+1]) {
		return l.scanDate(start), nil
	}

	hasFraction := false
	if l.pos < len(l.input) && l.input[l.pos] == '.' &&
		l.pos+1 < len(l.input) && isDigit(l.input[l.pos+1]) {
		hasFraction = true
		l.pos++
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
		}
	}

	numEnd := l.pos

	// Alphabetic suffix: a size unit, a duration shorthand, or an error.
	suffixStart := l.pos
	for l.pos < len(l.input) {
		r, size := l.rune(l.pos)
		if !unicode.IsLetter(r) {
			break
		}
		l.pos += size
	}
	suffix := l.input[suffixStart:l.pos]

	if suffix == "" {
		numStr := l.input[start:numEnd]
		num, err := strconv.ParseFloat(numStr, 64)
		if err != nil {
			return Token{}, &LexError{Reason: fmt.Sprintf("invalid number %q", numStr), Offset: start}
		}
		return Token{Kind: TokNumber, Text: numStr, Num: num, Offset: start}, nil
	}

	if mult, ok := sizeUnits[strings.ToUpper(suffix)]; ok {
		numStr := l.input[start:numEnd]
		num, err := strconv.ParseFloat(numStr, 64)
		if err != nil {
			return Token{}, &LexError{Reason: fmt.Sprintf("invalid number %q", numStr), Offset: start}
		}
		num *= mult
		return Token{Kind: TokNumber, Text: l.input[start:l.pos], Num: num, Offset: start}, nil
	}

	if durationUnits[strings.ToLower(suffix)] && !hasFraction {
		return Token{Kind: TokIdent, Text: l.input[start:l.pos], Offset: start}, nil
	}

	return Token{}, &LexError{Reason: fmt.Sprintf("unknown unit suffix %q", suffix), Offset: suffixStart}
}

// scanDate consumes the rest of an unquoted ISO-8601 date/time token.
func (l *Lexer) scanDate(start int) Token {
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if isDigit(c) || c == '-' || c == ':' || c == 'T' || c == 'Z' || c == '+' || c == '.' {
			l.pos++
			continue
		}
		break
	}
	return Token{Kind: TokIdent, Text: l.input[start:l.pos], Offset: start}
}

func (l *Lexer) scanWord() (Token, error) {
	start := l.pos
	for l.pos < len(l.input) {
		r, size := l.rune(l.pos)
		if !isIdentRune(r) {
			break
		}
		l.pos += size
	}
	text := l.input[start:l.pos]

	// Boolean keywords are case-sensitive; anything else is an identifier.
	switch text {
	case "AND":
		return Token{Kind: TokAnd, Text: text, Offset: start}, nil
	case "OR":
		return Token{Kind: TokOr, Text: text, Offset: start}, nil
	case "NOT":
		return Token{Kind: TokNot, Text: text, Offset: start}, nil
	case "IN":
		return Token{Kind: TokIn, Text: text, Offset: start}, nil
	}

	return Token{Kind: TokIdent, Text: text, Offset: start}, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.'
}
