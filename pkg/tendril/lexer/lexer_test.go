package lexer

import (
	"testing"
)

// TestNextTokenOperators tests the full operator and punctuation set,
// including greedy longest-match scanning
func TestNextTokenOperators(t *testing.T) {
	input := `+ - * / % ! = == != === !== < > <= >= && || | ? , ; : . ( ) { } [ ]`

	expected := []struct {
		typ     TokenType
		literal string
	}{
		{PLUS, "+"}, {MINUS, "-"}, {ASTERISK, "*"}, {SLASH, "/"}, {PERCENT, "%"},
		{BANG, "!"}, {ASSIGN, "="}, {EQ, "=="}, {NOT_EQ, "!="},
		{STRICT_EQ, "==="}, {STRICT_NOT_EQ, "!=="},
		{LT, "<"}, {GT, ">"}, {LTE, "<="}, {GTE, ">="},
		{AND, "&&"}, {OR, "||"}, {PIPE, "|"}, {QUESTION, "?"},
		{COMMA, ","}, {SEMICOLON, ";"}, {COLON, ":"}, {DOT, "."},
		{LPAREN, "("}, {RPAREN, ")"}, {LBRACE, "{"}, {RBRACE, "}"},
		{LBRACKET, "["}, {RBRACKET, "]"},
		{EOF, ""},
	}

	l := New(input)
	for i, exp := range expected {
		tok := l.NextToken()
		if tok.Type != exp.typ {
			t.Fatalf("token %d: expected type %s, got %s (%q)", i, exp.typ, tok.Type, tok.Literal)
		}
		if tok.Literal != exp.literal {
			t.Fatalf("token %d: expected literal %q, got %q", i, exp.literal, tok.Literal)
		}
	}
}

// TestGreedyOperatorScan checks that operators are matched longest-first
// at each position
func TestGreedyOperatorScan(t *testing.T) {
	tests := []struct {
		input    string
		expected []TokenType
	}{
		{"a===b", []TokenType{IDENT, STRICT_EQ, IDENT, EOF}},
		{"a==b", []TokenType{IDENT, EQ, IDENT, EOF}},
		{"a=b", []TokenType{IDENT, ASSIGN, IDENT, EOF}},
		{"a!==b", []TokenType{IDENT, STRICT_NOT_EQ, IDENT, EOF}},
		{"a||b", []TokenType{IDENT, OR, IDENT, EOF}},
		{"a|b", []TokenType{IDENT, PIPE, IDENT, EOF}},
		{"a<=b", []TokenType{IDENT, LTE, IDENT, EOF}},
		{"a<b", []TokenType{IDENT, LT, IDENT, EOF}},
	}

	for _, tt := range tests {
		l := New(tt.input)
		for i, expType := range tt.expected {
			tok := l.NextToken()
			if tok.Type != expType {
				t.Errorf("%q token %d: expected %s, got %s", tt.input, i, expType, tok.Type)
				break
			}
		}
	}
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"233", "233"},
		{"0", "0"},
		{"3.14159", "3.14159"},
		{".25", ".25"},
		{"6e3", "6e3"},
		{"6E3", "6E3"},
		{"1.2e-4", "1.2e-4"},
		{"1.2E+4", "1.2E+4"},
	}

	for _, tt := range tests {
		l := New(tt.input)
		tok := l.NextToken()
		if tok.Type != NUMBER {
			t.Errorf("%q: expected NUMBER, got %s (%s)", tt.input, tok.Type, tok.Err)
			continue
		}
		if tok.Literal != tt.expected {
			t.Errorf("%q: expected literal %q, got %q", tt.input, tt.expected, tok.Literal)
		}
	}
}

// TestTrailingDot checks that "1." is the number 1 followed by a dot
func TestTrailingDot(t *testing.T) {
	l := New("1.x")
	if tok := l.NextToken(); tok.Type != NUMBER || tok.Literal != "1" {
		t.Fatalf("expected NUMBER 1, got %s %q", tok.Type, tok.Literal)
	}
	if tok := l.NextToken(); tok.Type != DOT {
		t.Fatalf("expected DOT, got %s", tok.Type)
	}
	if tok := l.NextToken(); tok.Type != IDENT || tok.Literal != "x" {
		t.Fatalf("expected IDENT x, got %s %q", tok.Type, tok.Literal)
	}
}

func TestInvalidExponent(t *testing.T) {
	for _, input := range []string{"1e", "1e+", "1e-", "3eZ"} {
		l := New(input)
		tok := l.NextToken()
		if tok.Type != ILLEGAL {
			t.Errorf("%q: expected ILLEGAL, got %s %q", input, tok.Type, tok.Literal)
			continue
		}
		if tok.Err == "" {
			t.Errorf("%q: ILLEGAL token without a message", input)
		}
	}
}

func TestStrings(t *testing.T) {
	tests := []struct {
		input   string
		decoded string
	}{
		{`"hello"`, "hello"},
		{`'hello'`, "hello"},
		{`"it's"`, "it's"},
		{`'say "hi"'`, `say "hi"`},
		{`"a\nb"`, "a\nb"},
		{`"a\tb"`, "a\tb"},
		{`"a\fb"`, "a\fb"},
		{`"a\rb"`, "a\rb"},
		{`"a\vb"`, "a\vb"},
		{`"a\'b"`, "a'b"},
		{`"a\"b"`, `a"b`},
		{`"aAb"`, "aAb"},
		{`"é"`, "é"},
		{`"a\zb"`, "azb"}, // unknown escape passes the character through
		{`""`, ""},
	}

	for _, tt := range tests {
		l := New(tt.input)
		tok := l.NextToken()
		if tok.Type != STRING {
			t.Errorf("%s: expected STRING, got %s (%s)", tt.input, tok.Type, tok.Err)
			continue
		}
		if tok.Value != tt.decoded {
			t.Errorf("%s: expected value %q, got %q", tt.input, tt.decoded, tok.Value)
		}
		if tok.Literal != tt.input {
			t.Errorf("%s: expected raw literal preserved, got %q", tt.input, tok.Literal)
		}
	}
}

func TestStringErrors(t *testing.T) {
	for _, input := range []string{`"abc`, `'abc`, `"ab\u12"`, `"ab\uZZZZ"`, `"ab\`} {
		l := New(input)
		tok := l.NextToken()
		if tok.Type != ILLEGAL {
			t.Errorf("%q: expected ILLEGAL, got %s %q", input, tok.Type, tok.Literal)
		}
	}
}

func TestMismatchedQuote(t *testing.T) {
	l := New(`'abc"`)
	tok := l.NextToken()
	if tok.Type != ILLEGAL {
		t.Fatalf("expected ILLEGAL for unterminated string, got %s", tok.Type)
	}
}

func TestIdentifiers(t *testing.T) {
	tests := []string{"abc", "_private", "$index", "a1", "$$watchers", "café", "日本語"}

	for _, input := range tests {
		l := New(input)
		tok := l.NextToken()
		if tok.Type != IDENT {
			t.Errorf("%q: expected IDENT, got %s", input, tok.Type)
			continue
		}
		if tok.Literal != input {
			t.Errorf("%q: expected literal %q, got %q", input, input, tok.Literal)
		}
	}
}

func TestWhitespaceSkipping(t *testing.T) {
	// space, tab, CR, LF, VT and the non-breaking space are all skipped
	l := New(" \t\r\n\v\u00a0 abc")
	tok := l.NextToken()
	if tok.Type != IDENT || tok.Literal != "abc" {
		t.Fatalf("expected IDENT abc after whitespace, got %s %q", tok.Type, tok.Literal)
	}
}

func TestUnknownCharacter(t *testing.T) {
	for _, input := range []string{"#", "@", "~", "^", "&"} {
		l := New(input)
		tok := l.NextToken()
		if tok.Type != ILLEGAL {
			t.Errorf("%q: expected ILLEGAL, got %s", input, tok.Type)
		}
	}
}

func TestLineAndColumnTracking(t *testing.T) {
	l := New("a +\nbb")
	a := l.NextToken()
	plus := l.NextToken()
	bb := l.NextToken()

	if a.Line != 1 || a.Column != 1 {
		t.Errorf("a: expected 1:1, got %d:%d", a.Line, a.Column)
	}
	if plus.Line != 1 || plus.Column != 3 {
		t.Errorf("+: expected 1:3, got %d:%d", plus.Line, plus.Column)
	}
	if bb.Line != 2 || bb.Column != 1 {
		t.Errorf("bb: expected 2:1, got %d:%d", bb.Line, bb.Column)
	}
}

func TestLeadingDotNumber(t *testing.T) {
	l := New(".5 + a.b")
	if tok := l.NextToken(); tok.Type != NUMBER || tok.Literal != ".5" {
		t.Fatalf("expected NUMBER .5, got %s %q", tok.Type, tok.Literal)
	}
	if tok := l.NextToken(); tok.Type != PLUS {
		t.Fatalf("expected PLUS, got %s", tok.Type)
	}
	if tok := l.NextToken(); tok.Type != IDENT {
		t.Fatalf("expected IDENT, got %s", tok.Type)
	}
	if tok := l.NextToken(); tok.Type != DOT {
		t.Fatalf("expected DOT after identifier, got %s", tok.Type)
	}
}
