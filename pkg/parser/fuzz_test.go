package parser_test

import (
	"testing"

	"github.com/sandrolain/gorexx/pkg/parser"
	"github.com/sandrolain/gorexx/pkg/types"
)

func FuzzParse(f *testing.F) {
	seeds := []string{
		"SAY 'hello'",
		"x = 1 + 2 * 3",
		"DO i = 1 TO 3\n  SAY i\nEND",
		"SELECT\n WHEN a THEN NOP\n OTHERWISE SAY 1\nEND",
		"CALL sub\nEXIT\nsub: PROCEDURE\nRETURN 1",
		"x = a |> UPPER |> SUBSTR(?, 2)",
		"y = MAP(list, x => x * 2)",
		"INTERPRET code WITH ISOLATED IMPORT a EXPORT b",
		"PARSE VAR s a '=' b",
		"IF x THEN\n SAY 1\nELSE\n SAY 2\nENDIF",
		"/* unclosed",
		"'unterminated",
		"",
	}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, src string) {
		_ = parser.Tokenize(src)
		_, err := parser.Parse(src)
		if err != nil {
			if _, ok := types.AsError(err); !ok {
				t.Fatalf("non-structured error for %q: %v", src, err)
			}
		}
	})
}
