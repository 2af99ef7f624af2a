package parser

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const eof = -1

// Lexer converts REXX source text into a sequence of tokens.
// The implementation is based on Rob Pike's "Lexical Scanning in Go" technique.
//
// The lexer never fails: malformed input produces a TokenError whose Value is
// the diagnostic, and the parser reports it as a syntax error.
type Lexer struct {
	input      string // Input string being scanned
	length     int    // Length of input string
	start      int    // Start position of current token
	current    int    // Current position in input
	width      int    // Width of last rune read
	depth      int    // Open ( [ { nesting
	prev       TokenType
	lineStarts []int
}

// NewLexer creates a new lexer from the provided input string.
// The input is tokenized by successive calls to the Next method.
func NewLexer(input string) *Lexer {
	starts := []int{0}
	for i := 0; i < len(input); i++ {
		if input[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Lexer{
		input:      input,
		length:     len(input),
		prev:       TokenNewline,
		lineStarts: starts,
	}
}

// Tokenize returns the full token stream of text, terminated by TokenEOF.
func Tokenize(text string) []Token {
	l := NewLexer(text)
	tokens := make([]Token, 0, len(text)/3+1)
	for {
		t := l.Next()
		tokens = append(tokens, t)
		if t.Type == TokenEOF {
			return tokens
		}
	}
}

// Next returns the next token from the input.
// When the end of the input is reached, Next returns TokenEOF for all subsequent calls.
//
// Line breaks become TokenNewline, except inside brackets, after a trailing
// "|>" or ",", and before a line that starts with "|>": those lines continue
// the current statement.
func (l *Lexer) Next() Token {
	for {
		if t, ok := l.skipBlanks(); !ok {
			return t
		}

		ch := l.nextRune()
		switch {
		case ch == eof:
			return l.eof()

		case ch == '\n':
			if l.depth > 0 || l.prev == TokenPipe || l.prev == TokenComma ||
				l.prev == TokenNewline || l.prev == TokenSemicolon || l.continuesWithPipe() {
				l.ignore()
				continue
			}
			return l.newToken(TokenNewline)

		case ch == '"' || ch == '\'':
			return l.scanString(ch)

		case isDigit(ch):
			l.backup()
			return l.scanNumber()

		case ch == '.' && isDigit(l.peek()):
			l.backup()
			return l.scanNumber()

		case isSymbolStart(ch):
			l.backup()
			return l.scanSymbol()
		}

		// Check for three- and two-character operators first (e.g. \==, ||, |>)
		if rts := lookupSymbol2(ch); rts != nil {
			next := l.peek()
			for _, rt := range rts {
				if next != rt.r {
					continue
				}
				l.nextRune()
				for _, rt3 := range lookupSymbol3(ch, rt.r) {
					if l.acceptRune(rt3.r) {
						return l.newToken(rt3.tt)
					}
				}
				return l.newToken(rt.tt)
			}
		}

		if tt := lookupSymbol1(ch); tt > 0 {
			switch tt {
			case TokenParenOpen, TokenBracketOpen, TokenBraceOpen:
				l.depth++
			case TokenParenClose, TokenBracketClose, TokenBraceClose:
				if l.depth > 0 {
					l.depth--
				}
			}
			return l.newToken(tt)
		}

		return l.error("unexpected character " + string(ch))
	}
}

// scanString reads a quoted string. The opening quote has already been
// consumed. A doubled quote stands for one quote character; line breaks are
// part of the string.
func (l *Lexer) scanString(quote rune) Token {
	for {
		switch l.nextRune() {
		case quote:
			if l.acceptRune(quote) {
				continue
			}
			raw := l.input[l.start+1 : l.current-1]
			q := string(quote)
			tt := TokenString
			if quote == '"' {
				tt = TokenDString
			}
			t := l.newToken(tt)
			t.Value = strings.ReplaceAll(raw, q+q, q)
			return t
		case eof:
			return l.error("unterminated string literal")
		}
	}
}

// scanNumber reads a number literal from the current position.
// Format: [0-9]*(\.[0-9]*)?([eE][+-]?[0-9]+)?
func (l *Lexer) scanNumber() Token {
	l.acceptAll(isDigit)
	if l.acceptRune('.') {
		l.acceptAll(isDigit)
	}

	// The exponent is only taken when digits follow, so "3E" stays 3 then E.
	if c := l.peek(); c == 'e' || c == 'E' {
		save := l.current
		l.nextRune()
		l.acceptRunes2('+', '-')
		if !l.acceptAll(isDigit) {
			l.current = save
		}
	}
	return l.newToken(TokenNumber)
}

// scanSymbol reads a symbol: a variable, keyword, label or compound name.
// Dots are part of the symbol, so "arr.i" and "arr." are single tokens.
func (l *Lexer) scanSymbol() Token {
	l.nextRune()
	l.acceptAll(isSymbolChar)
	return l.newToken(TokenSymbol)
}

// skipBlanks skips whitespace (except line breaks) and comments. It returns
// false with an error token for an unclosed block comment.
func (l *Lexer) skipBlanks() (Token, bool) {
	for {
		l.acceptAll(isBlank)
		l.ignore()

		rest := l.input[l.current:]
		switch {
		case strings.HasPrefix(rest, "--"), strings.HasPrefix(rest, "//"):
			idx := strings.IndexByte(rest, '\n')
			if idx < 0 {
				idx = len(rest)
			}
			l.current += idx
			l.ignore()

		case strings.HasPrefix(rest, "/*"):
			nesting := 0
			for {
				rest = l.input[l.current:]
				switch {
				case rest == "":
					return l.error("unclosed comment"), false
				case strings.HasPrefix(rest, "/*"):
					nesting++
					l.current += 2
				case strings.HasPrefix(rest, "*/"):
					nesting--
					l.current += 2
				default:
					_, w := utf8.DecodeRuneInString(rest)
					l.current += w
				}
				if nesting == 0 {
					break
				}
			}
			l.ignore()

		default:
			return Token{}, true
		}
	}
}

// continuesWithPipe reports whether the next non-blank line starts with "|>".
func (l *Lexer) continuesWithPipe() bool {
	rest := strings.TrimLeft(l.input[l.current:], " \t\r\n")
	return strings.HasPrefix(rest, "|>")
}

// Helper methods

func (l *Lexer) eof() Token {
	line, col := l.position(l.length)
	l.start = l.current
	return Token{
		Type:   TokenEOF,
		Line:   line,
		Column: col,
	}
}

func (l *Lexer) error(message string) Token {
	t := l.newToken(TokenError)
	t.Value = message
	return t
}

func (l *Lexer) newToken(tt TokenType) Token {
	line, col := l.position(l.start)
	t := Token{
		Type:   tt,
		Value:  l.input[l.start:l.current],
		Line:   line,
		Column: col,
	}
	l.prev = tt
	l.width = 0
	l.start = l.current
	return t
}

func (l *Lexer) position(offset int) (int, int) {
	i := sort.Search(len(l.lineStarts), func(i int) bool {
		return l.lineStarts[i] > offset
	}) - 1
	return i + 1, offset - l.lineStarts[i] + 1
}

func (l *Lexer) nextRune() rune {
	if l.current >= l.length {
		l.width = 0
		return eof
	}

	r, w := utf8.DecodeRuneInString(l.input[l.current:])
	l.width = w
	l.current += w
	return r
}

func (l *Lexer) peek() rune {
	r := l.nextRune()
	l.backup()
	return r
}

func (l *Lexer) backup() {
	l.current -= l.width
}

func (l *Lexer) ignore() {
	l.start = l.current
}

func (l *Lexer) acceptRune(r rune) bool {
	return l.accept(func(c rune) bool {
		return c == r
	})
}

func (l *Lexer) acceptRunes2(r1, r2 rune) bool {
	return l.accept(func(c rune) bool {
		return c == r1 || c == r2
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

// Character classification functions

func isBlank(r rune) bool {
	switch r {
	case ' ', '\t', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isSymbolStart(r rune) bool {
	switch r {
	case '_', '@', '#', '$':
		return true
	}
	return r != eof && unicode.IsLetter(r)
}

func isSymbolChar(r rune) bool {
	return isSymbolStart(r) || isDigit(r) || r == '.'
}
