package parser

// TokenType represents the type of a lexical token.
type TokenType uint8

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	// Literals
	TokenString   // 'hello'
	TokenNumber   // 123, 3.14
	TokenBoolean  // true, false
	TokenDateTime // @2018-05-24, @2018-05-24T14:48:00Z, @T14:48
	TokenName     // fieldName
	TokenNameEsc  // `field name with spaces`
	TokenVariable // $this, $index, $total
	TokenExternal // %name, %'name', %`name`

	// Grouping symbols
	TokenBracketOpen  // [
	TokenBracketClose // ]
	TokenBraceOpen    // {
	TokenBraceClose   // }
	TokenParenOpen    // (
	TokenParenClose   // )

	// Basic symbols
	TokenDot   // .
	TokenComma // ,

	// Arithmetic operators
	TokenPlus  // +
	TokenMinus // -
	TokenMult  // *
	TokenDiv   // /

	// Other operators
	TokenPipe   // |
	TokenConcat // &

	// Comparison operators
	TokenEqual         // =
	TokenNotEqual      // !=
	TokenEquivalent    // ~
	TokenNotEquivalent // !~
	TokenLess          // <
	TokenLessEqual     // <=
	TokenGreater       // >
	TokenGreaterEqual  // >=

	// Keyword operators
	TokenAnd      // and
	TokenOr       // or
	TokenXor      // xor
	TokenImplies  // implies
	TokenIn       // in
	TokenContains // contains
	TokenIs       // is
	TokenAs       // as
	TokenIntDiv   // div
	TokenMod      // mod
)

// String returns a string representation of the token type.
func (tt TokenType) String() string {
	switch tt {
	case TokenEOF:
		return "(eof)"
	case TokenError:
		return "(error)"
	case TokenString:
		return "(string)"
	case TokenNumber:
		return "(number)"
	case TokenBoolean:
		return "(boolean)"
	case TokenDateTime:
		return "(datetime)"
	case TokenName, TokenNameEsc:
		return "(name)"
	case TokenVariable:
		return "(variable)"
	case TokenExternal:
		return "(external)"
	case TokenBracketOpen:
		return "["
	case TokenBracketClose:
		return "]"
	case TokenBraceOpen:
		return "{"
	case TokenBraceClose:
		return "}"
	case TokenParenOpen:
		return "("
	case TokenParenClose:
		return ")"
	case TokenDot:
		return "."
	case TokenComma:
		return ","
	case TokenPlus:
		return "+"
	case TokenMinus:
		return "-"
	case TokenMult:
		return "*"
	case TokenDiv:
		return "/"
	case TokenPipe:
		return "|"
	case TokenConcat:
		return "&"
	case TokenEqual:
		return "="
	case TokenNotEqual:
		return "!="
	case TokenEquivalent:
		return "~"
	case TokenNotEquivalent:
		return "!~"
	case TokenLess:
		return "<"
	case TokenLessEqual:
		return "<="
	case TokenGreater:
		return ">"
	case TokenGreaterEqual:
		return ">="
	case TokenAnd:
		return "and"
	case TokenOr:
		return "or"
	case TokenXor:
		return "xor"
	case TokenImplies:
		return "implies"
	case TokenIn:
		return "in"
	case TokenContains:
		return "contains"
	case TokenIs:
		return "is"
	case TokenAs:
		return "as"
	case TokenIntDiv:
		return "div"
	case TokenMod:
		return "mod"
	default:
		return "(unknown)"
	}
}

// IsKeyword reports whether the token is a keyword operator. Keywords may
// still name members and functions, as in Patient.contains or x.is(T).
func (tt TokenType) IsKeyword() bool {
	return tt >= TokenAnd && tt <= TokenMod
}

// Token represents a lexical token in a path expression.
type Token struct {
	Type     TokenType // Type of the token
	Value    string    // Literal value of the token
	Position int       // Starting position in the input string
}

// symbols1 maps single-character symbols to token types.
var symbols1 = [...]TokenType{
	'[': TokenBracketOpen,
	']': TokenBracketClose,
	'{': TokenBraceOpen,
	'}': TokenBraceClose,
	'(': TokenParenOpen,
	')': TokenParenClose,
	'.': TokenDot,
	',': TokenComma,
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenMult,
	'/': TokenDiv,
	'|': TokenPipe,
	'&': TokenConcat,
	'=': TokenEqual,
	'~': TokenEquivalent,
	'<': TokenLess,
	'>': TokenGreater,
}

// runeTokenType pairs a rune with its corresponding token type.
type runeTokenType struct {
	r  rune
	tt TokenType
}

// symbols2 maps two-character symbol sequences to token types.
// The key is the first character of the sequence.
var symbols2 = [...][]runeTokenType{
	'!': {{'=', TokenNotEqual}, {'~', TokenNotEquivalent}},
	'<': {{'=', TokenLessEqual}},
	'>': {{'=', TokenGreaterEqual}},
}

const (
	symbol1Count = rune(len(symbols1))
	symbol2Count = rune(len(symbols2))
)

// lookupSymbol1 returns the token type for a single-character symbol.
// Returns 0 if the rune is not a valid symbol.
func lookupSymbol1(r rune) TokenType {
	if r < 0 || r >= symbol1Count {
		return 0
	}
	return symbols1[r]
}

// lookupSymbol2 returns possible two-character symbol completions.
// Returns nil if the rune cannot start a two-character symbol.
func lookupSymbol2(r rune) []runeTokenType {
	if r < 0 || r >= symbol2Count {
		return nil
	}
	return symbols2[r]
}

// lookupKeyword returns the token type for a keyword.
// Returns 0 if the string is not a recognized keyword.
func lookupKeyword(s string) TokenType {
	switch s {
	case "and":
		return TokenAnd
	case "or":
		return TokenOr
	case "xor":
		return TokenXor
	case "implies":
		return TokenImplies
	case "in":
		return TokenIn
	case "contains":
		return TokenContains
	case "is":
		return TokenIs
	case "as":
		return TokenAs
	case "div":
		return TokenIntDiv
	case "mod":
		return TokenMod
	case "true", "false":
		return TokenBoolean
	default:
		return 0
	}
}
