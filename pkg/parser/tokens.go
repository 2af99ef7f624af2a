package parser

// TokenType represents the type of a lexical token.
type TokenType uint8

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError
	TokenNewline // statement separator produced by a line break

	// Literals
	TokenString  // 'literal'
	TokenDString // "interpolated {name}"
	TokenNumber  // 12, 3.5, 1E+3
	TokenSymbol  // name, stem., stem.tail

	// Grouping symbols
	TokenBracketOpen  // [
	TokenBracketClose // ]
	TokenBraceOpen    // {
	TokenBraceClose   // }
	TokenParenOpen    // (
	TokenParenClose   // )

	// Basic symbols
	TokenDot         // .
	TokenComma       // ,
	TokenColon       // :
	TokenSemicolon   // ;
	TokenPlaceholder // ?

	// Arithmetic operators
	TokenPlus  // +
	TokenMinus // -
	TokenMult  // *
	TokenDiv   // /
	TokenMod   // %
	TokenPower // **

	// String operators
	TokenConcat // ||

	// Comparison operators
	TokenEqual          // =
	TokenStrictEqual    // ==
	TokenNotEqual       // \= != <> ><
	TokenStrictNotEqual // \== !==
	TokenLess           // <
	TokenLessEqual      // <= \>
	TokenGreater        // >
	TokenGreaterEqual   // >= \<

	// Logical operators
	TokenAnd // &
	TokenOr  // |
	TokenXor // &&
	TokenNot // \ !

	// Special operators
	TokenPipe  // |>
	TokenArrow // =>
)

// String returns a string representation of the token type.
func (tt TokenType) String() string {
	switch tt {
	case TokenEOF:
		return "(eof)"
	case TokenError:
		return "(error)"
	case TokenNewline:
		return "(newline)"
	case TokenString, TokenDString:
		return "(string)"
	case TokenNumber:
		return "(number)"
	case TokenSymbol:
		return "(symbol)"
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
	case TokenColon:
		return ":"
	case TokenSemicolon:
		return ";"
	case TokenPlaceholder:
		return "?"
	case TokenPlus:
		return "+"
	case TokenMinus:
		return "-"
	case TokenMult:
		return "*"
	case TokenDiv:
		return "/"
	case TokenMod:
		return "%"
	case TokenPower:
		return "**"
	case TokenConcat:
		return "||"
	case TokenEqual:
		return "="
	case TokenStrictEqual:
		return "=="
	case TokenNotEqual:
		return "\\="
	case TokenStrictNotEqual:
		return "\\=="
	case TokenLess:
		return "<"
	case TokenLessEqual:
		return "<="
	case TokenGreater:
		return ">"
	case TokenGreaterEqual:
		return ">="
	case TokenAnd:
		return "&"
	case TokenOr:
		return "|"
	case TokenXor:
		return "&&"
	case TokenNot:
		return "\\"
	case TokenPipe:
		return "|>"
	case TokenArrow:
		return "=>"
	default:
		return "(unknown)"
	}
}

// Token represents a lexical token.
//
// Value holds the source text of the token, except for strings, where it holds
// the content with the quotes removed and doubled quotes collapsed.
type Token struct {
	Type   TokenType
	Value  string
	Line   int // 1-based
	Column int // 1-based, in bytes
}

// Symbol lookup tables

type runeTokenType struct {
	r  rune
	tt TokenType
}

// symbols3 lists three-character operators by their first two characters.
var symbols3 = map[[2]rune][]runeTokenType{
	{'\\', '='}: {{'=', TokenStrictNotEqual}},
	{'!', '='}:  {{'=', TokenStrictNotEqual}},
}

// symbols2 lists two-character operators by their first character.
var symbols2 = map[rune][]runeTokenType{
	'|':  {{'>', TokenPipe}, {'|', TokenConcat}},
	'&':  {{'&', TokenXor}},
	'*':  {{'*', TokenPower}},
	'=':  {{'=', TokenStrictEqual}, {'>', TokenArrow}},
	'\\': {{'=', TokenNotEqual}, {'<', TokenGreaterEqual}, {'>', TokenLessEqual}},
	'!':  {{'=', TokenNotEqual}},
	'<':  {{'=', TokenLessEqual}, {'>', TokenNotEqual}},
	'>':  {{'=', TokenGreaterEqual}, {'<', TokenNotEqual}},
}

var symbols1 = [...]TokenType{
	'[':  TokenBracketOpen,
	']':  TokenBracketClose,
	'{':  TokenBraceOpen,
	'}':  TokenBraceClose,
	'(':  TokenParenOpen,
	')':  TokenParenClose,
	'.':  TokenDot,
	',':  TokenComma,
	':':  TokenColon,
	';':  TokenSemicolon,
	'?':  TokenPlaceholder,
	'+':  TokenPlus,
	'-':  TokenMinus,
	'*':  TokenMult,
	'/':  TokenDiv,
	'%':  TokenMod,
	'|':  TokenOr,
	'&':  TokenAnd,
	'=':  TokenEqual,
	'<':  TokenLess,
	'>':  TokenGreater,
	'\\': TokenNot,
	'!':  TokenNot,
}

func lookupSymbol1(r rune) TokenType {
	if r < 0 || int(r) >= len(symbols1) {
		return 0
	}
	return symbols1[r]
}

func lookupSymbol2(r rune) []runeTokenType {
	return symbols2[r]
}

func lookupSymbol3(r1, r2 rune) []runeTokenType {
	return symbols3[[2]rune{r1, r2}]
}
