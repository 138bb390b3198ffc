package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/sandrolain/gofhirpath/pkg/types"
	"github.com/sandrolain/gofhirpath/pkg/ucum"
	"github.com/sandrolain/gofhirpath/pkg/value"
)

// Parser implements a recursive descent parser for path expressions.
// It uses Pratt's "Top Down Operator Precedence" algorithm to handle
// operator precedence correctly.
type Parser struct {
	lexer   *Lexer
	current Token
	prev    Token
	arena   *types.NodeArena
	opts    CompileOptions
	depth   int
}

// NewParser creates a new parser for the given input string.
func NewParser(input string, opts ...CompileOption) *Parser {
	options := CompileOptions{
		MaxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(&options)
	}

	p := &Parser{
		lexer: NewLexer(input),
		arena: types.NewNodeArena(),
		opts:  options,
	}

	// Read the first token
	p.advance()

	return p
}

// Parse parses the entire expression and returns the compiled Expression.
func (p *Parser) Parse() (*types.Expression, error) {
	if p.current.Type == TokenEOF {
		return nil, p.error(types.ErrSyntaxError, "Empty expression")
	}

	node, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	if p.current.Type != TokenEOF {
		return nil, p.error(types.ErrSyntaxError, fmt.Sprintf("Unexpected token: %s", p.current.Value))
	}

	return types.NewExpressionWithArena(node, p.lexer.input, p.arena), nil
}

// Binding powers, lowest first.
const (
	bpImplies    = 10
	bpOr         = 20
	bpAnd        = 30
	bpMembership = 35
	bpEquality   = 40
	bpInequality = 50
	bpUnion      = 60
	bpType       = 65
	bpAdditive   = 70
	bpMultiply   = 80
	bpUnary      = 90
	bpPostfix    = 100
)

// Operator precedence table (binding power).
// Higher values bind more tightly.
var precedence = map[TokenType]int{
	TokenImplies:       bpImplies,
	TokenOr:            bpOr,
	TokenXor:           bpOr,
	TokenAnd:           bpAnd,
	TokenIn:            bpMembership,
	TokenContains:      bpMembership,
	TokenEqual:         bpEquality,
	TokenNotEqual:      bpEquality,
	TokenEquivalent:    bpEquality,
	TokenNotEquivalent: bpEquality,
	TokenLess:          bpInequality,
	TokenLessEqual:     bpInequality,
	TokenGreater:       bpInequality,
	TokenGreaterEqual:  bpInequality,
	TokenPipe:          bpUnion,
	TokenIs:            bpType,
	TokenAs:            bpType,
	TokenPlus:          bpAdditive,
	TokenMinus:         bpAdditive,
	TokenConcat:        bpAdditive,
	TokenMult:          bpMultiply,
	TokenDiv:           bpMultiply,
	TokenIntDiv:        bpMultiply,
	TokenMod:           bpMultiply,
	TokenDot:           bpPostfix,
	TokenBracketOpen:   bpPostfix,
}

// getPrecedence returns the precedence of a token type.
func (p *Parser) getPrecedence(tt TokenType) int {
	if prec, ok := precedence[tt]; ok {
		return prec
	}
	return 0
}

// advance moves to the next token.
func (p *Parser) advance() {
	p.prev = p.current
	p.current = p.lexer.Next()
}

// expect checks if the current token matches the expected type and advances.
func (p *Parser) expect(tt TokenType) error {
	if p.current.Type != tt {
		if p.current.Type == TokenEOF {
			return p.errorExpected(types.ErrUnexpectedEnd, "Unexpected end of expression", tt.String())
		}
		return p.errorExpected(types.ErrExpectedToken,
			fmt.Sprintf("Expected %s but got %s", tt.String(), p.current.Type.String()), tt.String())
	}
	p.advance()
	return nil
}

// error creates a parser error at the current token. A pending lexer
// error takes precedence, since the current token is then meaningless.
func (p *Parser) error(code types.ErrorCode, message string) error {
	if p.current.Type == TokenError && p.lexer.err != nil {
		return p.lexer.err
	}
	return &types.Error{
		Code:     code,
		Message:  message,
		Position: p.current.Position,
		Token:    p.current.Value,
	}
}

func (p *Parser) errorExpected(code types.ErrorCode, message, expected string) error {
	err := p.error(code, message)
	if fe, ok := err.(*types.Error); ok && fe != p.lexer.err {
		fe.Expected = expected
	}
	return err
}

func (p *Parser) node(nodeType types.NodeType, pos int) *types.ASTNode {
	return p.arena.Alloc(nodeType, pos)
}

// parseExpression parses an expression with operator precedence.
// rbp is the right binding power (minimum precedence).
func (p *Parser) parseExpression(rbp int) (*types.ASTNode, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > p.opts.MaxDepth {
		return nil, p.error(types.ErrMaxDepth, fmt.Sprintf("Expression nesting exceeds %d", p.opts.MaxDepth))
	}

	// Parse prefix expression (nud - null denotation)
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}

	// Parse infix expressions while precedence allows (led - left denotation)
	for rbp < p.getPrecedence(p.current.Type) {
		left, err = p.parseInfix(left)
		if err != nil {
			return nil, err
		}
	}

	return left, nil
}

// parsePrefix parses a prefix expression (nud - null denotation).
// These are expressions that don't require a left-hand side.
func (p *Parser) parsePrefix() (*types.ASTNode, error) {
	token := p.current

	switch token.Type {
	case TokenString:
		return p.parseString()
	case TokenNumber:
		return p.parseNumber()
	case TokenBoolean:
		return p.parseBoolean()
	case TokenDateTime:
		return p.parseDateTime()
	case TokenName, TokenNameEsc:
		return p.parseName()
	case TokenVariable:
		return p.parseVariable()
	case TokenExternal:
		return p.parseExternal()
	case TokenMinus, TokenPlus:
		return p.parseUnary()
	case TokenParenOpen:
		return p.parseGrouping()
	case TokenBraceOpen:
		return p.parseEmpty()
	case TokenEOF:
		return nil, p.error(types.ErrUnexpectedEnd, "Unexpected end of expression")
	default:
		if token.Type.IsKeyword() {
			// Keywords can also name members and functions
			return p.parseName()
		}
		return nil, p.error(types.ErrSyntaxError, fmt.Sprintf("Unexpected token: %s", token.Type.String()))
	}
}

// parseInfix parses an infix expression (led - left denotation).
// These are expressions that require a left-hand side.
func (p *Parser) parseInfix(left *types.ASTNode) (*types.ASTNode, error) {
	switch p.current.Type {
	case TokenDot:
		return p.parsePath(left)
	case TokenBracketOpen:
		return p.parseIndex(left)
	case TokenIs, TokenAs:
		return p.parseTypeOp(left)
	default:
		return p.parseBinaryOp(left)
	}
}

// unescapeString processes escape sequences in a string literal or
// delimited identifier. Handles \uXXXX escapes including UTF-16 surrogate pairs.
func unescapeString(s string) (string, error) {
	if !strings.Contains(s, "\\") {
		return s, nil // Fast path: no escapes
	}

	var result strings.Builder
	result.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			result.WriteByte(s[i])
			continue
		}

		i++ // Skip backslash
		if i >= len(s) {
			return "", fmt.Errorf("invalid escape sequence at end of string")
		}

		switch s[i] {
		case 'n':
			result.WriteByte('\n')
		case 't':
			result.WriteByte('\t')
		case 'r':
			result.WriteByte('\r')
		case 'f':
			result.WriteByte('\f')
		case '\\', '"', '\'', '`', '/':
			result.WriteByte(s[i])
		case 'u':
			if i+4 >= len(s) {
				return "", fmt.Errorf("invalid \\u escape: not enough characters")
			}
			hex := s[i+1 : i+5]
			codePoint, err := strconv.ParseUint(hex, 16, 16)
			if err != nil {
				return "", fmt.Errorf("invalid \\u escape: %s", hex)
			}
			i += 4

			r := rune(codePoint)
			if utf16.IsSurrogate(r) && i+6 < len(s) && s[i+1] == '\\' && s[i+2] == 'u' {
				if low, err := strconv.ParseUint(s[i+3:i+7], 16, 16); err == nil {
					if combined := utf16.DecodeRune(r, rune(low)); combined != utf8.RuneError {
						r = combined
						i += 6
					}
				}
			}
			result.WriteRune(r)
		default:
			return "", fmt.Errorf("unsupported escape sequence \\%c", s[i])
		}
	}

	return result.String(), nil
}

func (p *Parser) parseString() (*types.ASTNode, error) {
	s, err := unescapeString(p.current.Value)
	if err != nil {
		return nil, p.error(types.ErrUnsupportedEscape, err.Error())
	}
	node := p.node(types.NodeString, p.current.Position)
	node.Value = value.String(s)
	p.advance()
	return node, nil
}

// parseNumber parses an integer or decimal literal, and the quantity
// literal formed when a unit string or calendar keyword follows it.
func (p *Parser) parseNumber() (*types.ASTNode, error) {
	tok := p.current
	var num value.Value
	if strings.Contains(tok.Value, ".") {
		d, err := value.ParseDecimal(tok.Value)
		if err != nil {
			return nil, p.error(types.ErrInvalidNumber, fmt.Sprintf("Invalid number: %s", tok.Value))
		}
		num = d
	} else {
		i, err := strconv.ParseInt(tok.Value, 10, 32)
		if err != nil {
			return nil, p.error(types.ErrInvalidNumber, fmt.Sprintf("Integer out of range: %s", tok.Value))
		}
		num = value.Integer(i)
	}
	p.advance()

	unit, isQuantity, err := p.parseUnit()
	if err != nil {
		return nil, err
	}
	if !isQuantity {
		nodeType := types.NodeInteger
		if _, ok := num.(value.Decimal); ok {
			nodeType = types.NodeDecimal
		}
		node := p.node(nodeType, tok.Position)
		node.Value = num
		return node, nil
	}

	amount, ok := num.(value.Decimal)
	if !ok {
		amount = value.DecimalFromInt(int64(num.(value.Integer)))
	}
	node := p.node(types.NodeQuantity, tok.Position)
	node.Value = value.NewQuantity(amount, unit)
	return node, nil
}

// parseUnit consumes the unit of a quantity literal, if one follows.
func (p *Parser) parseUnit() (string, bool, error) {
	switch {
	case p.current.Type == TokenString:
		unit, err := unescapeString(p.current.Value)
		if err != nil {
			return "", false, p.error(types.ErrUnsupportedEscape, err.Error())
		}
		p.advance()
		return unit, true, nil
	case p.current.Type == TokenName && ucum.IsCalendarKeyword(p.current.Value):
		unit := p.current.Value
		p.advance()
		return unit, true, nil
	}
	return "", false, nil
}

func (p *Parser) parseBoolean() (*types.ASTNode, error) {
	node := p.node(types.NodeBoolean, p.current.Position)
	node.Value = value.Boolean(p.current.Value == "true")
	p.advance()
	return node, nil
}

// parseDateTime parses @date, @dateTime and @Ttime literals.
func (p *Parser) parseDateTime() (*types.ASTNode, error) {
	text := p.current.Value
	var (
		nodeType types.NodeType
		v        value.Value
		err      error
	)
	switch {
	case strings.HasPrefix(text, "T"):
		nodeType = types.NodeTime
		v, err = value.ParseTime(text[1:])
	case strings.Contains(text, "T"):
		nodeType = types.NodeDateTime
		v, err = value.ParseDateTime(text)
	default:
		nodeType = types.NodeDate
		v, err = value.ParseDate(text)
	}
	if err != nil {
		return nil, p.error(types.ErrInvalidLiteral, fmt.Sprintf("Invalid date/time literal: @%s", text))
	}
	node := p.node(nodeType, p.current.Position)
	node.Value = v
	p.advance()
	return node, nil
}

// parseName parses an identifier, or a function call when '(' follows.
func (p *Parser) parseName() (*types.ASTNode, error) {
	tok := p.current
	name := tok.Value
	if tok.Type == TokenNameEsc {
		var err error
		if name, err = unescapeString(name); err != nil {
			return nil, p.error(types.ErrUnsupportedEscape, err.Error())
		}
	}
	p.advance()

	if p.current.Type == TokenParenOpen {
		return p.parseFunctionCall(name, tok.Position)
	}

	node := p.node(types.NodeName, tok.Position)
	node.StrValue = name
	return node, nil
}

func (p *Parser) parseVariable() (*types.ASTNode, error) {
	switch p.current.Value {
	case "this", "index", "total":
	default:
		return nil, p.error(types.ErrSyntaxError, fmt.Sprintf("Unknown variable: $%s", p.current.Value))
	}
	node := p.node(types.NodeVariable, p.current.Position)
	node.StrValue = p.current.Value
	p.advance()
	return node, nil
}

func (p *Parser) parseExternal() (*types.ASTNode, error) {
	name, err := unescapeString(p.current.Value)
	if err != nil {
		return nil, p.error(types.ErrUnsupportedEscape, err.Error())
	}
	node := p.node(types.NodeExternal, p.current.Position)
	node.StrValue = name
	p.advance()
	return node, nil
}

// parseUnary parses unary + and -.
func (p *Parser) parseUnary() (*types.ASTNode, error) {
	op := p.current
	p.advance()

	operand, err := p.parseExpression(bpUnary)
	if err != nil {
		return nil, err
	}

	node := p.node(types.NodeUnary, op.Position)
	node.StrValue = op.Type.String()
	node.LHS = operand
	return node, nil
}

// parseGrouping parses a parenthesized expression.
func (p *Parser) parseGrouping() (*types.ASTNode, error) {
	p.advance() // Skip '('

	inner, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	if err := p.expect(TokenParenClose); err != nil {
		return nil, err
	}
	return inner, nil
}

// parseEmpty parses the empty collection literal {}.
func (p *Parser) parseEmpty() (*types.ASTNode, error) {
	pos := p.current.Position
	p.advance() // Skip '{'
	if err := p.expect(TokenBraceClose); err != nil {
		return nil, err
	}
	return p.node(types.NodeEmpty, pos), nil
}

// parsePath parses member access and method calls after '.'.
func (p *Parser) parsePath(left *types.ASTNode) (*types.ASTNode, error) {
	pos := p.current.Position
	p.advance() // Skip '.'

	switch {
	case p.current.Type == TokenName, p.current.Type == TokenNameEsc, p.current.Type.IsKeyword():
	case p.current.Type == TokenEOF:
		return nil, p.errorExpected(types.ErrUnexpectedEnd, "Unexpected end of expression", "(name)")
	default:
		return nil, p.errorExpected(types.ErrExpectedToken,
			fmt.Sprintf("Expected a name after '.' but got %s", p.current.Type.String()), "(name)")
	}

	right, err := p.parseName()
	if err != nil {
		return nil, err
	}

	node := p.node(types.NodePath, pos)
	node.LHS = left
	node.RHS = right
	return node, nil
}

// parseIndex parses the indexer a[i].
func (p *Parser) parseIndex(left *types.ASTNode) (*types.ASTNode, error) {
	pos := p.current.Position
	p.advance() // Skip '['

	index, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenBracketClose); err != nil {
		return nil, err
	}

	node := p.node(types.NodeIndex, pos)
	node.LHS = left
	node.RHS = index
	return node, nil
}

// parseTypeOp parses "is" and "as" followed by a type specifier.
func (p *Parser) parseTypeOp(left *types.ASTNode) (*types.ASTNode, error) {
	op := p.current
	p.advance()

	typeName, pos, err := p.parseTypeSpecifier()
	if err != nil {
		return nil, err
	}

	spec := p.node(types.NodeName, pos)
	spec.StrValue = typeName

	node := p.node(types.NodeTypeOp, op.Position)
	node.StrValue = op.Type.String()
	node.LHS = left
	node.RHS = spec
	return node, nil
}

// parseTypeSpecifier reads a type name, optionally qualified by the System
// or FHIR namespace.
func (p *Parser) parseTypeSpecifier() (string, int, error) {
	if p.current.Type != TokenName && p.current.Type != TokenNameEsc {
		return "", 0, p.errorExpected(types.ErrExpectedToken,
			fmt.Sprintf("Expected a type name but got %s", p.current.Type.String()), "(name)")
	}
	pos := p.current.Position
	name := p.current.Value
	p.advance()

	if (name == "System" || name == "FHIR") && p.current.Type == TokenDot {
		p.advance()
		if p.current.Type != TokenName && p.current.Type != TokenNameEsc {
			return "", 0, p.errorExpected(types.ErrExpectedToken,
				fmt.Sprintf("Expected a type name after %s.", name), "(name)")
		}
		name += "." + p.current.Value
		p.advance()
	}
	return name, pos, nil
}

// parseBinaryOp parses a left-associative binary operator.
func (p *Parser) parseBinaryOp(left *types.ASTNode) (*types.ASTNode, error) {
	op := p.current
	prec := p.getPrecedence(op.Type)
	p.advance()

	// Parse the right-hand side with appropriate precedence
	right, err := p.parseExpression(prec)
	if err != nil {
		return nil, err
	}

	node := p.node(types.NodeBinary, op.Position)
	node.StrValue = op.Type.String()
	node.LHS = left
	node.RHS = right

	return node, nil
}

// parseFunctionCall parses the argument list of a call to name.
func (p *Parser) parseFunctionCall(name string, pos int) (*types.ASTNode, error) {
	p.advance() // Skip '('

	node := p.node(types.NodeFunction, pos)
	node.StrValue = name

	if p.current.Type != TokenParenClose {
		for {
			arg, err := p.parseExpression(0)
			if err != nil {
				return nil, err
			}
			node.Arguments = append(node.Arguments, arg)

			if p.current.Type == TokenParenClose {
				break
			}

			if err := p.expect(TokenComma); err != nil {
				return nil, err
			}
		}
	}

	if err := p.expect(TokenParenClose); err != nil {
		return nil, err
	}

	return node, nil
}
