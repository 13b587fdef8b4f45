package parser

import (
	"strconv"

	"github.com/sambeau/bindweed/pkg/tendril/ast"
	terrors "github.com/sambeau/bindweed/pkg/tendril/errors"
	"github.com/sambeau/bindweed/pkg/tendril/lexer"
)

// Precedence levels for operators
const (
	_ int = iota
	LOWEST
	FILTER      // x | filter
	ASSIGNMENT  // =
	TERNARY     // ? :
	LOGIC_OR    // ||
	LOGIC_AND   // &&
	EQUALS      // == != === !==
	LESSGREATER // < > <= >=
	SUM         // + -
	PRODUCT     // * / %
	PREFIX      // -x or !x
	CALL        // fn(x), a[i], a.b
)

// precedences maps tokens to their precedence
var precedences = map[lexer.TokenType]int{
	lexer.PIPE:          FILTER,
	lexer.ASSIGN:        ASSIGNMENT,
	lexer.QUESTION:      TERNARY,
	lexer.OR:            LOGIC_OR,
	lexer.AND:           LOGIC_AND,
	lexer.EQ:            EQUALS,
	lexer.NOT_EQ:        EQUALS,
	lexer.STRICT_EQ:     EQUALS,
	lexer.STRICT_NOT_EQ: EQUALS,
	lexer.LT:            LESSGREATER,
	lexer.GT:            LESSGREATER,
	lexer.LTE:           LESSGREATER,
	lexer.GTE:           LESSGREATER,
	lexer.PLUS:          SUM,
	lexer.MINUS:         SUM,
	lexer.SLASH:         PRODUCT,
	lexer.ASTERISK:      PRODUCT,
	lexer.PERCENT:       PRODUCT,
	lexer.LPAREN:        CALL,
	lexer.LBRACKET:      CALL,
	lexer.DOT:           CALL,
}

// Parser represents the parser
type Parser struct {
	l *lexer.Lexer

	errors []*terrors.TendrilError

	curToken  lexer.Token
	peekToken lexer.Token

	prefixParseFns map[lexer.TokenType]prefixParseFn
	infixParseFns  map[lexer.TokenType]infixParseFn
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

// New creates a new parser instance
func New(l *lexer.Lexer) *Parser {
	p := &Parser{
		l: l,
	}

	p.prefixParseFns = make(map[lexer.TokenType]prefixParseFn)
	p.registerPrefix(lexer.IDENT, p.parseIdentifier)
	p.registerPrefix(lexer.NUMBER, p.parseNumberLiteral)
	p.registerPrefix(lexer.STRING, p.parseStringLiteral)
	p.registerPrefix(lexer.BANG, p.parsePrefixExpression)
	p.registerPrefix(lexer.MINUS, p.parsePrefixExpression)
	p.registerPrefix(lexer.PLUS, p.parsePrefixExpression)
	p.registerPrefix(lexer.LPAREN, p.parseGroupedExpression)
	p.registerPrefix(lexer.LBRACKET, p.parseArrayLiteral)
	p.registerPrefix(lexer.LBRACE, p.parseObjectLiteral)

	p.infixParseFns = make(map[lexer.TokenType]infixParseFn)
	p.registerInfix(lexer.PLUS, p.parseInfixExpression)
	p.registerInfix(lexer.MINUS, p.parseInfixExpression)
	p.registerInfix(lexer.SLASH, p.parseInfixExpression)
	p.registerInfix(lexer.ASTERISK, p.parseInfixExpression)
	p.registerInfix(lexer.PERCENT, p.parseInfixExpression)
	p.registerInfix(lexer.EQ, p.parseInfixExpression)
	p.registerInfix(lexer.NOT_EQ, p.parseInfixExpression)
	p.registerInfix(lexer.STRICT_EQ, p.parseInfixExpression)
	p.registerInfix(lexer.STRICT_NOT_EQ, p.parseInfixExpression)
	p.registerInfix(lexer.LT, p.parseInfixExpression)
	p.registerInfix(lexer.GT, p.parseInfixExpression)
	p.registerInfix(lexer.LTE, p.parseInfixExpression)
	p.registerInfix(lexer.GTE, p.parseInfixExpression)
	p.registerInfix(lexer.AND, p.parseLogicalExpression)
	p.registerInfix(lexer.OR, p.parseLogicalExpression)
	p.registerInfix(lexer.ASSIGN, p.parseAssignmentExpression)
	p.registerInfix(lexer.QUESTION, p.parseConditionalExpression)
	p.registerInfix(lexer.PIPE, p.parseFilterExpression)
	p.registerInfix(lexer.LPAREN, p.parseCallExpression)
	p.registerInfix(lexer.LBRACKET, p.parseIndexExpression)
	p.registerInfix(lexer.DOT, p.parseMemberExpression)

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()

	return p
}

func (p *Parser) registerPrefix(tokenType lexer.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType lexer.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

// Errors returns the structured errors collected while parsing
func (p *Parser) Errors() []*terrors.TendrilError {
	return p.errors
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
	if p.peekToken.Type == lexer.ILLEGAL {
		p.addLexError(p.peekToken)
	}
}

func (p *Parser) addLexError(tok lexer.Token) {
	p.errors = append(p.errors,
		terrors.New(terrors.ClassLex, "LEX-0001", tok.Err).WithPos(tok.Line, tok.Column))
}

func (p *Parser) addError(code, msg string) {
	p.errors = append(p.errors,
		terrors.New(terrors.ClassParse, code, msg).WithPos(p.curToken.Line, p.curToken.Column))
}

func (p *Parser) curTokenIs(t lexer.TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t lexer.TokenType) bool { return p.peekToken.Type == t }

// expectPeek advances when the peek token matches, or records an error
func (p *Parser) expectPeek(t lexer.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.errors = append(p.errors,
		terrors.Newf(terrors.ClassParse, "PARSE-0001", "expected %s, got %s",
			t.String(), describeToken(p.peekToken)).
			WithPos(p.peekToken.Line, p.peekToken.Column))
	return false
}

func describeToken(tok lexer.Token) string {
	if tok.Type == lexer.EOF {
		return "end of expression"
	}
	return "'" + tok.Literal + "'"
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}

// ParseProgram parses the whole expression text: statements separated by
// ';', with a trailing ';' permitted. Returns nil once an error is recorded.
func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{}

	for !p.curTokenIs(lexer.EOF) {
		if p.curTokenIs(lexer.SEMICOLON) {
			p.nextToken()
			continue
		}
		stmt := p.parseExpression(LOWEST)
		if stmt == nil || len(p.errors) > 0 {
			return nil
		}
		program.Statements = append(program.Statements, stmt)

		if !p.peekTokenIs(lexer.SEMICOLON) && !p.peekTokenIs(lexer.EOF) {
			p.errors = append(p.errors,
				terrors.Newf(terrors.ClassParse, "PARSE-0002", "unexpected %s",
					describeToken(p.peekToken)).
					WithPos(p.peekToken.Line, p.peekToken.Column))
			return nil
		}
		p.nextToken()
	}

	return program
}

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		if p.curToken.Type != lexer.ILLEGAL {
			p.addError("PARSE-0003", "unexpected "+describeToken(p.curToken))
		}
		return nil
	}
	left := prefix()
	if left == nil {
		return nil
	}

	for !p.peekTokenIs(lexer.SEMICOLON) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		left = infix(left)
		if left == nil {
			return nil
		}
	}

	return left
}

// parseIdentifier resolves the reserved names this/null/true/false/undefined
// to their node kinds; every other name becomes an Identifier.
func (p *Parser) parseIdentifier() ast.Expression {
	switch p.curToken.Literal {
	case "this":
		return &ast.ThisExpression{Token: p.curToken}
	case "null":
		return &ast.NullLiteral{Token: p.curToken}
	case "undefined":
		return &ast.UndefinedLiteral{Token: p.curToken}
	case "true":
		return &ast.BooleanLiteral{Token: p.curToken, Value: true}
	case "false":
		return &ast.BooleanLiteral{Token: p.curToken, Value: false}
	}
	return &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseNumberLiteral() ast.Expression {
	value, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.addError("PARSE-0004", "could not parse '"+p.curToken.Literal+"' as a number")
		return nil
	}
	return &ast.NumberLiteral{Token: p.curToken, Value: value}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Value}
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	expr := &ast.PrefixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
	}
	p.nextToken()
	expr.Right = p.parseExpression(PREFIX)
	if expr.Right == nil {
		return nil
	}
	return expr
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expr := &ast.InfixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
		Left:     left,
	}
	precedence := p.curPrecedence()
	p.nextToken()
	expr.Right = p.parseExpression(precedence)
	if expr.Right == nil {
		return nil
	}
	return expr
}

func (p *Parser) parseLogicalExpression(left ast.Expression) ast.Expression {
	expr := &ast.LogicalExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
		Left:     left,
	}
	precedence := p.curPrecedence()
	p.nextToken()
	expr.Right = p.parseExpression(precedence)
	if expr.Right == nil {
		return nil
	}
	return expr
}

// parseAssignmentExpression builds 'target = value'. The target must be an
// identifier or member access; '1 = 2' is rejected here, not later.
// Assignment is right-associative: 'a = b = c' assigns c to both.
func (p *Parser) parseAssignmentExpression(left ast.Expression) ast.Expression {
	switch left.(type) {
	case *ast.Identifier, *ast.MemberExpression, *ast.IndexExpression:
	default:
		p.addError("PARSE-0005", "cannot assign to this expression")
		return nil
	}

	expr := &ast.AssignmentExpression{Token: p.curToken, Left: left}
	p.nextToken()
	expr.Right = p.parseExpression(ASSIGNMENT - 1)
	if expr.Right == nil {
		return nil
	}
	return expr
}

func (p *Parser) parseConditionalExpression(test ast.Expression) ast.Expression {
	expr := &ast.ConditionalExpression{Token: p.curToken, Test: test}

	p.nextToken()
	expr.Consequent = p.parseExpression(FILTER)
	if expr.Consequent == nil {
		return nil
	}

	if !p.expectPeek(lexer.COLON) {
		return nil
	}
	p.nextToken()
	expr.Alternate = p.parseExpression(FILTER)
	if expr.Alternate == nil {
		return nil
	}
	return expr
}

// parseFilterExpression builds 'input | name:arg1:arg2'
func (p *Parser) parseFilterExpression(input ast.Expression) ast.Expression {
	expr := &ast.FilterExpression{Token: p.curToken, Input: input}

	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	expr.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	for p.peekTokenIs(lexer.COLON) {
		p.nextToken()
		p.nextToken()
		arg := p.parseExpression(FILTER)
		if arg == nil {
			return nil
		}
		expr.Arguments = append(expr.Arguments, arg)
	}

	return expr
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	p.nextToken()
	expr := p.parseExpression(LOWEST)
	if expr == nil {
		return nil
	}
	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}
	return expr
}

func (p *Parser) parseArrayLiteral() ast.Expression {
	array := &ast.ArrayLiteral{Token: p.curToken}

	if p.peekTokenIs(lexer.RBRACKET) {
		p.nextToken()
		return array
	}

	p.nextToken()
	element := p.parseExpression(FILTER)
	if element == nil {
		return nil
	}
	array.Elements = append(array.Elements, element)

	for p.peekTokenIs(lexer.COMMA) {
		p.nextToken()
		// A trailing comma closes the array
		if p.peekTokenIs(lexer.RBRACKET) {
			break
		}
		p.nextToken()
		element := p.parseExpression(FILTER)
		if element == nil {
			return nil
		}
		array.Elements = append(array.Elements, element)
	}

	if !p.expectPeek(lexer.RBRACKET) {
		return nil
	}
	return array
}

func (p *Parser) parseObjectLiteral() ast.Expression {
	object := &ast.ObjectLiteral{Token: p.curToken}

	if p.peekTokenIs(lexer.RBRACE) {
		p.nextToken()
		return object
	}

	for {
		p.nextToken()
		property := p.parseObjectProperty()
		if property == nil {
			return nil
		}
		object.Properties = append(object.Properties, property)

		if !p.peekTokenIs(lexer.COMMA) {
			break
		}
		p.nextToken()
	}

	if !p.expectPeek(lexer.RBRACE) {
		return nil
	}
	return object
}

// parseObjectProperty parses 'key: value' where key is an identifier,
// string or number.
func (p *Parser) parseObjectProperty() *ast.ObjectProperty {
	var key ast.Expression
	switch p.curToken.Type {
	case lexer.IDENT:
		key = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	case lexer.STRING:
		key = &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Value}
	case lexer.NUMBER:
		value, err := strconv.ParseFloat(p.curToken.Literal, 64)
		if err != nil {
			p.addError("PARSE-0004", "could not parse '"+p.curToken.Literal+"' as a number")
			return nil
		}
		key = &ast.NumberLiteral{Token: p.curToken, Value: value}
	default:
		p.addError("PARSE-0006", "expected a property key, got "+describeToken(p.curToken))
		return nil
	}

	if !p.expectPeek(lexer.COLON) {
		return nil
	}
	p.nextToken()
	value := p.parseExpression(FILTER)
	if value == nil {
		return nil
	}

	return &ast.ObjectProperty{Key: key, Value: value}
}

func (p *Parser) parseCallExpression(callee ast.Expression) ast.Expression {
	call := &ast.CallExpression{Token: p.curToken, Callee: callee}

	if p.peekTokenIs(lexer.RPAREN) {
		p.nextToken()
		return call
	}

	p.nextToken()
	arg := p.parseExpression(FILTER)
	if arg == nil {
		return nil
	}
	call.Arguments = append(call.Arguments, arg)

	for p.peekTokenIs(lexer.COMMA) {
		p.nextToken()
		p.nextToken()
		arg := p.parseExpression(FILTER)
		if arg == nil {
			return nil
		}
		call.Arguments = append(call.Arguments, arg)
	}

	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}
	return call
}

func (p *Parser) parseIndexExpression(object ast.Expression) ast.Expression {
	expr := &ast.IndexExpression{Token: p.curToken, Object: object}

	p.nextToken()
	expr.Index = p.parseExpression(LOWEST)
	if expr.Index == nil {
		return nil
	}

	if !p.expectPeek(lexer.RBRACKET) {
		return nil
	}
	return expr
}

func (p *Parser) parseMemberExpression(object ast.Expression) ast.Expression {
	expr := &ast.MemberExpression{Token: p.curToken, Object: object}

	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	expr.Property = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	return expr
}
