package parser_test

import (
	"testing"

	"github.com/sandrolain/gorexx/pkg/parser"
)

type lexerTestCase struct {
	name     string
	input    string
	expected []parser.TokenType
	values   []string // optional, compared when non-nil
}

func runLexerTests(t *testing.T, tests []lexerTestCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := parser.Tokenize(tt.input)
			want := append(append([]parser.TokenType{}, tt.expected...), parser.TokenEOF)
			if len(tokens) != len(want) {
				t.Fatalf("Tokenize(%q) produced %d tokens %v, want %d", tt.input, len(tokens), tokenTypes(tokens), len(want))
			}
			for i, tok := range tokens {
				if tok.Type != want[i] {
					t.Errorf("token %d: type %s, want %s", i, tok.Type, want[i])
				}
				if tt.values != nil && i < len(tt.values) && tok.Value != tt.values[i] {
					t.Errorf("token %d: value %q, want %q", i, tok.Value, tt.values[i])
				}
			}
		})
	}
}

func tokenTypes(tokens []parser.Token) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Type.String()
	}
	return out
}

func TestLexerBasics(t *testing.T) {
	tests := []lexerTestCase{
		{
			name:     "assignment",
			input:    "x = 1",
			expected: []parser.TokenType{parser.TokenSymbol, parser.TokenEqual, parser.TokenNumber},
			values:   []string{"x", "=", "1"},
		},
		{
			name:     "compound symbol",
			input:    "arr.i = arr. + .5",
			expected: []parser.TokenType{parser.TokenSymbol, parser.TokenEqual, parser.TokenSymbol, parser.TokenPlus, parser.TokenNumber},
			values:   []string{"arr.i", "=", "arr.", "+", ".5"},
		},
		{
			name:     "exponent",
			input:    "1.5E+3 3E",
			expected: []parser.TokenType{parser.TokenNumber, parser.TokenNumber, parser.TokenSymbol},
			values:   []string{"1.5E+3", "3", "E"},
		},
		{
			name:     "blank lines collapse",
			input:    "\n\na\n\n\nb\n",
			expected: []parser.TokenType{parser.TokenSymbol, parser.TokenNewline, parser.TokenSymbol, parser.TokenNewline},
		},
	}

	runLexerTests(t, tests)
}

func TestLexerStrings(t *testing.T) {
	tests := []lexerTestCase{
		{
			name:     "single quoted",
			input:    `'it''s'`,
			expected: []parser.TokenType{parser.TokenString},
			values:   []string{"it's"},
		},
		{
			name:     "double quoted",
			input:    `"say ""hi"" {name}"`,
			expected: []parser.TokenType{parser.TokenDString},
			values:   []string{`say "hi" {name}`},
		},
		{
			name:     "multi-line string",
			input:    "'a\nb'",
			expected: []parser.TokenType{parser.TokenString},
			values:   []string{"a\nb"},
		},
		{
			name:     "unterminated",
			input:    "'abc",
			expected: []parser.TokenType{parser.TokenError},
		},
	}

	runLexerTests(t, tests)
}

func TestLexerComments(t *testing.T) {
	tests := []lexerTestCase{
		{
			name:     "line comments",
			input:    "x -- one\ny // two\nz",
			expected: []parser.TokenType{parser.TokenSymbol, parser.TokenNewline, parser.TokenSymbol, parser.TokenNewline, parser.TokenSymbol},
		},
		{
			name:     "nested block comment",
			input:    "a /* outer /* inner */ still */ b",
			expected: []parser.TokenType{parser.TokenSymbol, parser.TokenSymbol},
			values:   []string{"a", "b"},
		},
		{
			name:     "unclosed block comment",
			input:    "a /* never",
			expected: []parser.TokenType{parser.TokenSymbol, parser.TokenError},
		},
	}

	runLexerTests(t, tests)
}

func TestLexerOperators(t *testing.T) {
	tests := []lexerTestCase{
		{
			name:  "comparison family",
			input: `= == \= \== != !== <> >< < <= > >= \< \>`,
			expected: []parser.TokenType{
				parser.TokenEqual, parser.TokenStrictEqual, parser.TokenNotEqual, parser.TokenStrictNotEqual,
				parser.TokenNotEqual, parser.TokenStrictNotEqual, parser.TokenNotEqual, parser.TokenNotEqual,
				parser.TokenLess, parser.TokenLessEqual, parser.TokenGreater, parser.TokenGreaterEqual,
				parser.TokenGreaterEqual, parser.TokenLessEqual,
			},
		},
		{
			name:  "arithmetic and logic",
			input: `+ - * / % ** || | & && \ ! |> => ?`,
			expected: []parser.TokenType{
				parser.TokenPlus, parser.TokenMinus, parser.TokenMult, parser.TokenDiv, parser.TokenMod,
				parser.TokenPower, parser.TokenConcat, parser.TokenOr, parser.TokenAnd, parser.TokenXor,
				parser.TokenNot, parser.TokenNot, parser.TokenPipe, parser.TokenArrow, parser.TokenPlaceholder,
			},
		},
		{
			name:     "unexpected character does not stop lexing",
			input:    "a ~ b",
			expected: []parser.TokenType{parser.TokenSymbol, parser.TokenError, parser.TokenSymbol},
		},
	}

	runLexerTests(t, tests)
}

func TestLexerContinuation(t *testing.T) {
	tests := []lexerTestCase{
		{
			name:     "trailing pipe",
			input:    "a |>\n  F",
			expected: []parser.TokenType{parser.TokenSymbol, parser.TokenPipe, parser.TokenSymbol},
		},
		{
			name:     "leading pipe",
			input:    "a\n  |> F\nb",
			expected: []parser.TokenType{parser.TokenSymbol, parser.TokenPipe, parser.TokenSymbol, parser.TokenNewline, parser.TokenSymbol},
		},
		{
			name:     "trailing comma",
			input:    "CALL f 1,\n 2",
			expected: []parser.TokenType{parser.TokenSymbol, parser.TokenSymbol, parser.TokenNumber, parser.TokenComma, parser.TokenNumber},
		},
		{
			name:  "inside brackets",
			input: "F(1\n, [2\n])",
			expected: []parser.TokenType{
				parser.TokenSymbol, parser.TokenParenOpen, parser.TokenNumber, parser.TokenComma,
				parser.TokenBracketOpen, parser.TokenNumber, parser.TokenBracketClose, parser.TokenParenClose,
			},
		},
	}

	runLexerTests(t, tests)
}

func TestLexerPositions(t *testing.T) {
	tokens := parser.Tokenize("a = 1\n  b = 'x'")
	var b parser.Token
	for _, tok := range tokens {
		if tok.Value == "b" {
			b = tok
		}
	}
	if b.Line != 2 || b.Column != 3 {
		t.Errorf("b at %d:%d, want 2:3", b.Line, b.Column)
	}
	if tokens[0].Line != 1 || tokens[0].Column != 1 {
		t.Errorf("a at %d:%d, want 1:1", tokens[0].Line, tokens[0].Column)
	}
}
