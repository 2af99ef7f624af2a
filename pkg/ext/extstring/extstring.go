// Package extstring provides the string builtins: the classic REXX set
// (SUBSTR, POS, WORD, STRIP, ...) plus Unicode-aware case mapping.
//
// Positions are 1-based and count characters, not bytes.
package extstring

import (
	"context"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sandrolain/gorexx/pkg/ext/extutil"
	"github.com/sandrolain/gorexx/pkg/functions"
	"github.com/sandrolain/gorexx/pkg/value"
)

// All returns all string builtin definitions.
func All() []functions.CustomFunctionDef {
	return []functions.CustomFunctionDef{
		Length(),
		Substr(),
		Left(),
		Right(),
		Pos(),
		LastPos(),
		Word(),
		Words(),
		SubWord(),
		WordPos(),
		Strip(),
		Space(),
		Reverse(),
		Copies(),
		Center(),
		Upper(),
		Lower(),
		Title(),
		ChangeStr(),
		CountStr(),
		Abbrev(),
		Split(),
	}
}

// AllEntries returns all string builtins as [functions.FunctionEntry]:
//
//	evaluator.WithFunctions(extstring.AllEntries()...)
func AllEntries() []functions.FunctionEntry {
	return extutil.Entries(All())
}

// Length returns the definition for LENGTH(string).
func Length() functions.CustomFunctionDef {
	return extutil.Def("LENGTH", "LENGTH(string)", 1, 1, func(_ context.Context, args functions.Args) (value.Value, error) {
		return value.Int(len([]rune(extutil.Str(args, 0, "STRING", "")))), nil
	})
}

// Substr returns the definition for SUBSTR(string, start [, length [, pad]]).
func Substr() functions.CustomFunctionDef {
	return extutil.Def("SUBSTR", "SUBSTR(string, start [, length [, pad]])", 2, 4, func(_ context.Context, args functions.Args) (value.Value, error) {
		s := []rune(extutil.Str(args, 0, "STRING", ""))
		start, err := extutil.Whole("SUBSTR", args, 1, "START", 1, 1)
		if err != nil {
			return value.Empty, err
		}
		length, err := extutil.Whole("SUBSTR", args, 2, "LENGTH", 0, max(len(s)-start+1, 0))
		if err != nil {
			return value.Empty, err
		}
		pad, err := extutil.Pad("SUBSTR", args, 3, "PAD")
		if err != nil {
			return value.Empty, err
		}
		return value.String(section(s, start-1, length, pad)), nil
	})
}

// section returns length runes of s from index from, padded with pad.
func section(s []rune, from, length int, pad string) string {
	var b strings.Builder
	for i := from; i < from+length; i++ {
		if i < len(s) {
			b.WriteRune(s[i])
		} else {
			b.WriteString(pad)
		}
	}
	return b.String()
}

// Left returns the definition for LEFT(string, length [, pad]).
func Left() functions.CustomFunctionDef {
	return extutil.Def("LEFT", "LEFT(string, length [, pad])", 2, 3, func(_ context.Context, args functions.Args) (value.Value, error) {
		s := []rune(extutil.Str(args, 0, "STRING", ""))
		length, err := extutil.Whole("LEFT", args, 1, "LENGTH", 0, 0)
		if err != nil {
			return value.Empty, err
		}
		pad, err := extutil.Pad("LEFT", args, 2, "PAD")
		if err != nil {
			return value.Empty, err
		}
		return value.String(section(s, 0, length, pad)), nil
	})
}

// Right returns the definition for RIGHT(string, length [, pad]).
func Right() functions.CustomFunctionDef {
	return extutil.Def("RIGHT", "RIGHT(string, length [, pad])", 2, 3, func(_ context.Context, args functions.Args) (value.Value, error) {
		s := []rune(extutil.Str(args, 0, "STRING", ""))
		length, err := extutil.Whole("RIGHT", args, 1, "LENGTH", 0, 0)
		if err != nil {
			return value.Empty, err
		}
		pad, err := extutil.Pad("RIGHT", args, 2, "PAD")
		if err != nil {
			return value.Empty, err
		}
		if length <= len(s) {
			return value.String(string(s[len(s)-length:])), nil
		}
		return value.String(strings.Repeat(pad, length-len(s)) + string(s)), nil
	})
}

// Pos returns the definition for POS(needle, haystack [, start]).
// It returns 0 when needle is not found.
func Pos() functions.CustomFunctionDef {
	return extutil.Def("POS", "POS(needle, haystack [, start])", 2, 3, func(_ context.Context, args functions.Args) (value.Value, error) {
		needle := []rune(extutil.Str(args, 0, "NEEDLE", ""))
		hay := []rune(extutil.Str(args, 1, "HAYSTACK", ""))
		start, err := extutil.Whole("POS", args, 2, "START", 1, 1)
		if err != nil {
			return value.Empty, err
		}
		if len(needle) == 0 || start > len(hay) {
			return value.Int(0), nil
		}
		sub := string(hay[start-1:])
		idx := strings.Index(sub, string(needle))
		if idx < 0 {
			return value.Int(0), nil
		}
		return value.Int(start + utf8.RuneCountInString(sub[:idx])), nil
	})
}

// LastPos returns the definition for LASTPOS(needle, haystack).
func LastPos() functions.CustomFunctionDef {
	return extutil.Def("LASTPOS", "LASTPOS(needle, haystack)", 2, 2, func(_ context.Context, args functions.Args) (value.Value, error) {
		needle := extutil.Str(args, 0, "NEEDLE", "")
		hay := extutil.Str(args, 1, "HAYSTACK", "")
		if needle == "" {
			return value.Int(0), nil
		}
		idx := strings.LastIndex(hay, needle)
		if idx < 0 {
			return value.Int(0), nil
		}
		return value.Int(len([]rune(hay[:idx])) + 1), nil
	})
}

// Word returns the definition for WORD(string, n).
func Word() functions.CustomFunctionDef {
	return extutil.Def("WORD", "WORD(string, n)", 2, 2, func(_ context.Context, args functions.Args) (value.Value, error) {
		n, err := extutil.Whole("WORD", args, 1, "N", 1, 1)
		if err != nil {
			return value.Empty, err
		}
		words := strings.Fields(extutil.Str(args, 0, "STRING", ""))
		if n > len(words) {
			return value.Empty, nil
		}
		return value.String(words[n-1]), nil
	})
}

// Words returns the definition for WORDS(string).
func Words() functions.CustomFunctionDef {
	return extutil.Def("WORDS", "WORDS(string)", 1, 1, func(_ context.Context, args functions.Args) (value.Value, error) {
		return value.Int(len(strings.Fields(extutil.Str(args, 0, "STRING", "")))), nil
	})
}

// SubWord returns the definition for SUBWORD(string, n [, count]).
func SubWord() functions.CustomFunctionDef {
	return extutil.Def("SUBWORD", "SUBWORD(string, n [, count])", 2, 3, func(_ context.Context, args functions.Args) (value.Value, error) {
		words := strings.Fields(extutil.Str(args, 0, "STRING", ""))
		n, err := extutil.Whole("SUBWORD", args, 1, "N", 1, 1)
		if err != nil {
			return value.Empty, err
		}
		count, err := extutil.Whole("SUBWORD", args, 2, "COUNT", 0, len(words))
		if err != nil {
			return value.Empty, err
		}
		if n > len(words) {
			return value.Empty, nil
		}
		end := min(n-1+count, len(words))
		return value.String(strings.Join(words[n-1:end], " ")), nil
	})
}

// WordPos returns the definition for WORDPOS(phrase, string): the number of
// the word where phrase starts, or 0.
func WordPos() functions.CustomFunctionDef {
	return extutil.Def("WORDPOS", "WORDPOS(phrase, string)", 2, 2, func(_ context.Context, args functions.Args) (value.Value, error) {
		phrase := strings.Fields(extutil.Str(args, 0, "PHRASE", ""))
		words := strings.Fields(extutil.Str(args, 1, "STRING", ""))
		if len(phrase) == 0 {
			return value.Int(0), nil
		}
	outer:
		for i := 0; i+len(phrase) <= len(words); i++ {
			for j, p := range phrase {
				if words[i+j] != p {
					continue outer
				}
			}
			return value.Int(i + 1), nil
		}
		return value.Int(0), nil
	})
}

// Strip returns the definition for STRIP(string [, option [, char]]).
// option is B (both, the default), L (leading) or T (trailing).
func Strip() functions.CustomFunctionDef {
	return extutil.Def("STRIP", "STRIP(string [, option [, char]])", 1, 3, func(_ context.Context, args functions.Args) (value.Value, error) {
		s := extutil.Str(args, 0, "STRING", "")
		char, err := extutil.Pad("STRIP", args, 2, "CHAR")
		if err != nil {
			return value.Empty, err
		}
		switch extutil.Option(args, 1, "OPTION", "B") {
		case "B":
			return value.String(strings.Trim(s, char)), nil
		case "L":
			return value.String(strings.TrimLeft(s, char)), nil
		case "T":
			return value.String(strings.TrimRight(s, char)), nil
		default:
			return value.Empty, functions.ArgError("STRIP", "option must be B, L or T")
		}
	})
}

// Space returns the definition for SPACE(string [, n [, pad]]): the words
// of string separated by n pad characters.
func Space() functions.CustomFunctionDef {
	return extutil.Def("SPACE", "SPACE(string [, n [, pad]])", 1, 3, func(_ context.Context, args functions.Args) (value.Value, error) {
		n, err := extutil.Whole("SPACE", args, 1, "N", 0, 1)
		if err != nil {
			return value.Empty, err
		}
		pad, err := extutil.Pad("SPACE", args, 2, "PAD")
		if err != nil {
			return value.Empty, err
		}
		words := strings.Fields(extutil.Str(args, 0, "STRING", ""))
		return value.String(strings.Join(words, strings.Repeat(pad, n))), nil
	})
}

// Reverse returns the definition for REVERSE(string).
func Reverse() functions.CustomFunctionDef {
	return extutil.Def("REVERSE", "REVERSE(string)", 1, 1, func(_ context.Context, args functions.Args) (value.Value, error) {
		r := []rune(extutil.Str(args, 0, "STRING", ""))
		for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
			r[i], r[j] = r[j], r[i]
		}
		return value.String(string(r)), nil
	})
}

// Copies returns the definition for COPIES(string, n).
func Copies() functions.CustomFunctionDef {
	return extutil.Def("COPIES", "COPIES(string, n)", 2, 2, func(_ context.Context, args functions.Args) (value.Value, error) {
		n, err := extutil.Whole("COPIES", args, 1, "N", 0, 0)
		if err != nil {
			return value.Empty, err
		}
		return value.String(strings.Repeat(extutil.Str(args, 0, "STRING", ""), n)), nil
	})
}

// Center returns the definition for CENTER(string, length [, pad]).
func Center() functions.CustomFunctionDef {
	return extutil.Def("CENTER", "CENTER(string, length [, pad])", 2, 3, func(_ context.Context, args functions.Args) (value.Value, error) {
		s := []rune(extutil.Str(args, 0, "STRING", ""))
		length, err := extutil.Whole("CENTER", args, 1, "LENGTH", 0, 0)
		if err != nil {
			return value.Empty, err
		}
		pad, err := extutil.Pad("CENTER", args, 2, "PAD")
		if err != nil {
			return value.Empty, err
		}
		if length <= len(s) {
			cut := (len(s) - length) / 2
			return value.String(string(s[cut : cut+length])), nil
		}
		left := (length - len(s)) / 2
		right := length - len(s) - left
		return value.String(strings.Repeat(pad, left) + string(s) + strings.Repeat(pad, right)), nil
	})
}

// Upper returns the definition for UPPER(string).
func Upper() functions.CustomFunctionDef {
	return caseDef("UPPER", func() cases.Caser { return cases.Upper(language.Und) })
}

// Lower returns the definition for LOWER(string).
func Lower() functions.CustomFunctionDef {
	return caseDef("LOWER", func() cases.Caser { return cases.Lower(language.Und) })
}

// Title returns the definition for TITLE(string).
func Title() functions.CustomFunctionDef {
	return caseDef("TITLE", func() cases.Caser { return cases.Title(language.Und) })
}

// caseDef builds a case-mapping builtin. A cases.Caser is stateful, so each
// call gets its own.
func caseDef(name string, caser func() cases.Caser) functions.CustomFunctionDef {
	return extutil.Def(name, name+"(string)", 1, 1, func(_ context.Context, args functions.Args) (value.Value, error) {
		return value.String(caser().String(extutil.Str(args, 0, "STRING", ""))), nil
	})
}

// ChangeStr returns the definition for CHANGESTR(needle, haystack, new).
func ChangeStr() functions.CustomFunctionDef {
	return extutil.Def("CHANGESTR", "CHANGESTR(needle, haystack, new)", 3, 3, func(_ context.Context, args functions.Args) (value.Value, error) {
		needle := extutil.Str(args, 0, "NEEDLE", "")
		hay := extutil.Str(args, 1, "HAYSTACK", "")
		if needle == "" {
			return value.String(hay), nil
		}
		return value.String(strings.ReplaceAll(hay, needle, extutil.Str(args, 2, "NEW", ""))), nil
	})
}

// CountStr returns the definition for COUNTSTR(needle, haystack).
func CountStr() functions.CustomFunctionDef {
	return extutil.Def("COUNTSTR", "COUNTSTR(needle, haystack)", 2, 2, func(_ context.Context, args functions.Args) (value.Value, error) {
		needle := extutil.Str(args, 0, "NEEDLE", "")
		if needle == "" {
			return value.Int(0), nil
		}
		return value.Int(strings.Count(extutil.Str(args, 1, "HAYSTACK", ""), needle)), nil
	})
}

// Abbrev returns the definition for ABBREV(information, info [, length]):
// 1 when info is a prefix of information at least length characters long.
func Abbrev() functions.CustomFunctionDef {
	return extutil.Def("ABBREV", "ABBREV(information, info [, length])", 2, 3, func(_ context.Context, args functions.Args) (value.Value, error) {
		full := extutil.Str(args, 0, "INFORMATION", "")
		info := extutil.Str(args, 1, "INFO", "")
		minLen, err := extutil.Whole("ABBREV", args, 2, "LENGTH", 0, len([]rune(info)))
		if err != nil {
			return value.Empty, err
		}
		ok := len([]rune(info)) >= minLen && strings.HasPrefix(full, info)
		return value.Bool(ok), nil
	})
}

// Split returns the definition for SPLIT(string [, separator]): an array of
// the pieces, or of the words when no separator is given.
func Split() functions.CustomFunctionDef {
	return extutil.Def("SPLIT", "SPLIT(string [, separator])", 1, 2, func(_ context.Context, args functions.Args) (value.Value, error) {
		s := extutil.Str(args, 0, "STRING", "")
		var parts []string
		if sep, ok := args.String(1, "SEPARATOR"); ok && sep != "" {
			parts = strings.Split(s, sep)
		} else {
			parts = strings.Fields(s)
		}
		out := make([]value.Value, len(parts))
		for i, p := range parts {
			out[i] = value.String(p)
		}
		return value.Array(out...), nil
	})
}
