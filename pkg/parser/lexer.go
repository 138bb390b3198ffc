package parser

import (
	"unicode/utf8"

	"github.com/sandrolain/gofhirpath/pkg/types"
)

const eof = -1

// Lexer converts a path expression into a sequence of tokens.
// The implementation is based on Rob Pike's "Lexical Scanning in Go" technique.
type Lexer struct {
	input   string // Input string being scanned
	length  int    // Length of input string
	start   int    // Start position of current token
	current int    // Current position in input
	width   int    // Width of last rune read
	err     *types.Error
}

// NewLexer creates a new lexer from the provided input string.
// The input is tokenized by successive calls to the Next method.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		length: len(input),
	}
}

// Next returns the next token from the input.
// When the end of the input is reached, Next returns TokenEOF for all subsequent calls.
func (l *Lexer) Next() Token {
	l.skipWhitespace()
	if l.err != nil {
		return Token{Type: TokenError, Position: l.err.Position}
	}

	ch := l.nextRune()
	if ch == eof {
		return l.eof()
	}

	// Two-character symbols first (e.g., !=, <=, !~)
	if rts := lookupSymbol2(ch); rts != nil {
		for _, rt := range rts {
			if l.acceptRune(rt.r) {
				return l.newToken(rt.tt)
			}
		}
	}

	if tt := lookupSymbol1(ch); tt > 0 {
		return l.newToken(tt)
	}

	switch {
	case ch == '\'':
		l.ignore()
		return l.scanQuoted(ch, TokenString, types.ErrStringNotClosed)
	case ch == '`':
		l.ignore()
		return l.scanQuoted(ch, TokenNameEsc, types.ErrNameNotClosed)
	case isDigit(ch):
		l.backup()
		return l.scanNumber()
	case ch == '@':
		l.ignore()
		return l.scanDateTime()
	case ch == '$':
		l.ignore()
		if !l.acceptAll(isIdentRune) {
			return l.error(types.ErrSyntaxError, "Expected a variable name after $")
		}
		return l.newToken(TokenVariable)
	case ch == '%':
		l.ignore()
		return l.scanExternal()
	case isIdentStart(ch):
		l.backup()
		return l.scanName()
	}
	return l.error(types.ErrSyntaxError, "Unexpected character")
}

// Error returns the first error encountered during lexing, if any.
func (l *Lexer) Error() error {
	if l.err == nil {
		return nil
	}
	return l.err
}

// scanQuoted reads a string literal or a delimited identifier. The opening
// quote has already been consumed; the token value keeps escape sequences.
func (l *Lexer) scanQuoted(quote rune, tt TokenType, code types.ErrorCode) Token {
Loop:
	for {
		switch l.nextRune() {
		case quote:
			break Loop
		case '\\':
			// Consume escaped character
			if r := l.nextRune(); r != eof {
				break
			}
			fallthrough
		case eof:
			return l.error(code, "Unterminated literal")
		}
	}

	l.backup()
	t := l.newToken(tt)
	l.acceptRune(quote)
	l.ignore()
	return t
}

// scanNumber reads a number literal from the current position.
// Format: [0-9]+(\.[0-9]+)?
func (l *Lexer) scanNumber() Token {
	l.acceptAll(isDigit)

	if l.acceptRune('.') && !l.acceptAll(isDigit) {
		// "1.foo()" is a member access on the integer 1.
		l.current--
	}
	return l.newToken(TokenNumber)
}

// scanDateTime reads the body of a date, datetime or time literal after '@'.
func (l *Lexer) scanDateTime() Token {
	for {
		r := l.nextRune()
		if r == '.' && isDigit(l.peek()) {
			continue
		}
		if r == '.' {
			// "@2018-05-24.toString()": the dot starts a member access.
			l.current--
			break
		}
		if !isDateTimeRune(r) {
			l.backup()
			break
		}
	}
	if l.current == l.start {
		return l.error(types.ErrInvalidLiteral, "Expected a date or time after @")
	}
	return l.newToken(TokenDateTime)
}

// scanExternal reads %name, %'name' or %`name`.
func (l *Lexer) scanExternal() Token {
	switch {
	case l.acceptRune('\''):
		l.ignore()
		return l.scanQuoted('\'', TokenExternal, types.ErrStringNotClosed)
	case l.acceptRune('`'):
		l.ignore()
		return l.scanQuoted('`', TokenExternal, types.ErrNameNotClosed)
	case l.acceptAll(isIdentRune):
		return l.newToken(TokenExternal)
	}
	return l.error(types.ErrSyntaxError, "Expected a name after %")
}

// scanName reads an identifier or keyword.
func (l *Lexer) scanName() Token {
	l.acceptAll(isIdentRune)
	t := l.newToken(TokenName)
	if tt := lookupKeyword(t.Value); tt > 0 {
		t.Type = tt
	}
	return t
}

// Helper methods

func (l *Lexer) eof() Token {
	return Token{
		Type:     TokenEOF,
		Position: l.current,
	}
}

func (l *Lexer) error(code types.ErrorCode, message string) Token {
	t := l.newToken(TokenError)
	l.err = &types.Error{
		Code:     code,
		Message:  message,
		Position: t.Position,
		Token:    t.Value,
	}
	return t
}

func (l *Lexer) newToken(tt TokenType) Token {
	t := Token{
		Type:     tt,
		Value:    l.input[l.start:l.current],
		Position: l.start,
	}
	l.width = 0
	l.start = l.current
	return t
}

func (l *Lexer) nextRune() rune {
	if l.err != nil || l.current >= l.length {
		l.width = 0
		return eof
	}

	r, w := utf8.DecodeRuneInString(l.input[l.current:])
	l.width = w
	l.current += w
	return r
}

func (l *Lexer) backup() {
	l.current -= l.width
}

func (l *Lexer) ignore() {
	l.start = l.current
}

func (l *Lexer) peek() rune {
	r := l.nextRune()
	l.backup()
	return r
}

func (l *Lexer) acceptRune(r rune) bool {
	return l.accept(func(c rune) bool {
		return c == r
	})
}

func (l *Lexer) accept(isValid func(rune) bool) bool {
	if isValid(l.nextRune()) {
		return true
	}
	l.backup()
	return false
}

func (l *Lexer) acceptAll(isValid func(rune) bool) bool {
	var matched bool
	for l.accept(isValid) {
		matched = true
	}
	return matched
}

// skipWhitespace skips whitespace, // line comments and /* block comments */.
func (l *Lexer) skipWhitespace() {
	for l.err == nil {
		l.acceptAll(isWhitespace)
		l.ignore()

		if l.peek() != '/' || l.current+1 >= l.length {
			return
		}
		switch l.input[l.current+1] {
		case '/':
			for ch := l.nextRune(); ch != eof && ch != '\n'; ch = l.nextRune() {
			}
		case '*':
			start := l.current
			l.current += 2
			for {
				ch := l.nextRune()
				if ch == eof {
					l.err = &types.Error{
						Code:     types.ErrCommentNotClosed,
						Message:  "Unclosed comment",
						Position: start,
					}
					return
				}
				if ch == '*' && l.acceptRune('/') {
					break
				}
			}
		default:
			return
		}
	}
}

// Character classification functions

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentRune(r rune) bool {
	return isIdentStart(r) || isDigit(r)
}

func isDateTimeRune(r rune) bool {
	switch r {
	case 'T', 'Z', '-', '+', ':':
		return true
	}
	return isDigit(r)
}
