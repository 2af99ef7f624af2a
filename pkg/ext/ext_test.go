package ext_test

import (
	"context"
	"strings"
	"testing"

	"github.com/sandrolain/gorexx/pkg/evaluator"
	"github.com/sandrolain/gorexx/pkg/ext"
	"github.com/sandrolain/gorexx/pkg/ext/extarray"
	"github.com/sandrolain/gorexx/pkg/ext/extformat"
	"github.com/sandrolain/gorexx/pkg/ext/extstring"
	"github.com/sandrolain/gorexx/pkg/functions"
	"github.com/sandrolain/gorexx/pkg/types"
	"github.com/sandrolain/gorexx/pkg/value"
)

// say runs "SAY expr" and returns the single output line.
func say(t *testing.T, expr string, opts ...evaluator.EvalOption) string {
	t.Helper()
	var out []string
	opts = append(opts, evaluator.WithOutputFunc(func(s string) { out = append(out, s) }))
	ev := evaluator.New(opts...)
	if _, err := ev.RunSource(context.Background(), "SAY "+expr); err != nil {
		t.Fatalf("SAY %s: %v", expr, err)
	}
	if len(out) != 1 {
		t.Fatalf("SAY %s: got %d lines, want 1", expr, len(out))
	}
	return out[0]
}

func runErr(t *testing.T, src string, opts ...evaluator.EvalOption) error {
	t.Helper()
	opts = append(opts, evaluator.WithOutputFunc(func(string) {}))
	_, err := evaluator.New(opts...).RunSource(context.Background(), src)
	return err
}

type sayCase struct {
	expr string
	want string
}

func runCases(t *testing.T, tests []sayCase, opts ...evaluator.EvalOption) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			if got := say(t, tt.expr, opts...); got != tt.want {
				t.Errorf("SAY %s = %q, want %q", tt.expr, got, tt.want)
			}
		})
	}
}

// ── WithAll ────────────────────────────────────────────────────────────────

func TestWithAll_StringFunctions(t *testing.T) {
	runCases(t, []sayCase{
		{`LENGTH('hello')`, "5"},
		{`SUBSTR('abcdef', 2, 3)`, "bcd"},
		{`LEFT('abc', 5, '.')`, "abc.."},
		{`RIGHT('abc', 2)`, "bc"},
		{`POS('an', 'banana')`, "2"},
		{`LASTPOS('an', 'banana')`, "4"},
		{`WORD('the quick fox', 2)`, "quick"},
		{`WORDS('the quick fox')`, "3"},
		{`STRIP('  x  ')`, "x"},
		{`COPIES('ab', 3)`, "ababab"},
		{`REVERSE('abc')`, "cba"},
		{`UPPER('straße')`, "STRASSE"},
		{`LOWER('ABC')`, "abc"},
		{`TITLE('hello world')`, "Hello World"},
		{`CHANGESTR('a', 'banana', 'o')`, "bonono"},
		{`COUNTSTR('a', 'banana')`, "3"},
		{`SPLIT('a,b', ',')`, `["a","b"]`},
	}, ext.WithAll())
}

func TestWithAll_NumericFunctions(t *testing.T) {
	runCases(t, []sayCase{
		{`ABS(-3)`, "3"},
		{`SIGN(-0.5)`, "-1"},
		{`MAX(1, 7, 3)`, "7"},
		{`MIN(4, '007', 9)`, "4"},
		{`TRUNC(3.789, 2)`, "3.78"},
		{`ROUND(2.5)`, "3"},
		{`SQRT(16)`, "4"},
		{`SUM(ARRAY(1, 2, 3))`, "6"},
		{`AVERAGE(1, 2, 3, 4)`, "2.5"},
		{`MEDIAN('3 1 2')`, "2"},
	}, ext.WithAll())
}

func TestWithAll_ArrayFunctions(t *testing.T) {
	runCases(t, []sayCase{
		{`ARRAY(1, 'a')`, `[1,"a"]`},
		{`ITEM(ARRAY('x', 'y', 'z'), -1)`, "z"},
		{`APPEND(ARRAY(1), 2, 3)`, "[1,2,3]"},
		{`SLICE(ARRAY(1, 2, 3, 4), 2, 2)`, "[2,3]"},
		{`FLATTEN(ARRAY(1, ARRAY(2, ARRAY(3))))`, "[1,2,3]"},
		{`RANGE(1, 4)`, "[1,2,3,4]"},
		{`RANGE(3, 1)`, "[3,2,1]"},
		{`JOIN(SORT(ARRAY(3, 1, 2)), ',')`, "1,2,3"},
		{`JOIN(SORT('b a c', 'D'))`, "c b a"},
		{`UNIQUE(ARRAY(1, 2, 1))`, "[1,2]"},
	}, ext.WithAll())
}

func TestWithAll_HigherOrderFunctions(t *testing.T) {
	runCases(t, []sayCase{
		{`MAP(ARRAY(1, 2, 3), x => x * 2)`, "[2,4,6]"},
		{`FILTER(ARRAY(1, 2, 3, 4), x => x > 2)`, "[3,4]"},
		{`REDUCE(ARRAY(1, 2, 3), (acc, x) => acc + x, 10)`, "16"},
		{`REDUCE(ARRAY(1, 2, 3), (acc, x) => acc * x)`, "6"},
		{`FIND(ARRAY(5, 8, 9), x => x > 6)`, "8"},
		{`SOME(ARRAY(1, 2), x => x > 1)`, "1"},
		{`EVERY(ARRAY(1, 2), x => x > 1)`, "0"},
		{`EVERY(ARRAY(), x => x > 1)`, "1"},
		{`SORT_BY(ARRAY('bb', 'a', 'ccc'), s => LENGTH(s))`, `["a","bb","ccc"]`},
		{`MAP('a b', 'UPPER')`, `["A","B"]`},
		{`PIPE('  hi  ', 'STRIP', 'UPPER')`, "HI"},
		{`PIPE(3, x => x + 1, x => x * 10)`, "40"},
		{`APPLY('MAX', ARRAY(3, 9, 4))`, "9"},
	}, ext.WithAll())
}

func TestWithAll_ObjectFunctions(t *testing.T) {
	runCases(t, []sayCase{
		{`KEYS(MAP_OF('a', 1, 'b', 2))`, `["a","b"]`},
		{`VALUES(MAP_OF('a', 1, 'b', 2))`, "[1,2]"},
		{`GET(MAP_OF('a', 1), 'A')`, "1"},
		{`GET(MAP_OF('a', 1), 'z', 'none')`, "none"},
		{`HAS_KEY(PUT(MAP_OF(), 'k', 'v'), 'k')`, "1"},
		{`KEYS(REMOVE_KEY(MAP_OF('a', 1, 'b', 2), 'a'))`, `["b"]`},
		{`MERGE(MAP_OF('a', 1), MAP_OF('a', 2, 'b', 3))`, `{"a":2,"b":3}`},
		{`PAIRS(MAP_OF('a', 1))`, `[["a",1]]`},
		{`SIZE(FROM_PAIRS(PAIRS(MAP_OF('a', 1, 'b', 2))))`, "2"},
	}, ext.WithAll())
}

func TestWithAll_TypeFunctions(t *testing.T) {
	runCases(t, []sayCase{
		{`DATATYPE('12')`, "NUM"},
		{`DATATYPE('12x')`, "CHAR"},
		{`DATATYPE('ABC', 'U')`, "1"},
		{`DATATYPE('AbC', 'U')`, "0"},
		{`DATATYPE('3.5', 'W')`, "0"},
		{`DATATYPE('ff', 'X')`, "1"},
		{`TYPEOF(ARRAY())`, "array"},
		{`TYPEOF('x')`, "string"},
		{`IS_MAP(MAP_OF())`, "1"},
		{`IS_EMPTY(ARRAY())`, "1"},
		{`DEFAULT('', 'x')`, "x"},
	}, ext.WithAll())
}

func TestWithAll_CryptoAndFormat(t *testing.T) {
	runCases(t, []sayCase{
		{`HASH('abc')`, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{`HASH('abc', 'md5')`, "900150983cd24fb0d6963f7d28e17f72"},
		{`LENGTH(UUID())`, "36"},
		{`TEMPLATE('Hi {{name}}, {{other}}', MAP_OF('name', 'Ann'))`, "Hi Ann, {{other}}"},
	}, ext.WithAll())
}

// ── By category ────────────────────────────────────────────────────────────

func TestCategoryOptionsRegisterOnlyTheirBuiltins(t *testing.T) {
	if got := say(t, "LENGTH('abc')", ext.WithString()); got != "3" {
		t.Errorf("LENGTH = %q", got)
	}
	err := runErr(t, "SAY ABS(-1)", ext.WithString())
	if !types.IsCode(err, types.ErrUndefinedFunction) {
		t.Errorf("ABS without WithNumeric: err = %v, want UndefinedFunctionError", err)
	}
}

func TestSingleBuiltin(t *testing.T) {
	got := say(t, "SUBSTR('hello', 2)", evaluator.WithFunctions(extstring.Substr()))
	if got != "ello" {
		t.Errorf("SUBSTR = %q", got)
	}
}

func TestArgumentErrors(t *testing.T) {
	tests := []string{
		"SAY SQRT(-1)",
		"SAY LENGTH()",
		"SAY ABS('x')",
		"SAY RANGE(1, 5, 0)",
		"SAY HASH('x', 'crc')",
		"SAY DATATYPE('x', 'Q')",
		"SAY FILTER(ARRAY(1), x => 'maybe')",
		"SAY FORMAT_NUMBER(1, 'not a locale!')",
		"SAY FORMAT_CURRENCY(1, 'XYZQ')",
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			err := runErr(t, src, ext.WithAll())
			if !types.IsCode(err, types.ErrArgument) {
				t.Errorf("err = %v, want ArgumentError", err)
			}
		})
	}
}

func TestRegistryHoldsEveryBuiltin(t *testing.T) {
	reg := ext.Registry()
	if reg.Len() != len(ext.AllEntries()) {
		t.Errorf("Len = %d, want %d", reg.Len(), len(ext.AllEntries()))
	}
	for _, name := range []string{"SUBSTR", "MAP", "PIPE", "DATE", "HASH", "CSV_PARSE"} {
		if _, ok := reg.Lookup(name); !ok {
			t.Errorf("%s not registered", name)
		}
	}
}

func TestAdvancedBuiltinWithoutCaller(t *testing.T) {
	fn := extarray.Map().Fn
	_, err := fn(context.Background(), nil, functions.NewArgs(value.Array(value.Int(1)), value.String("UPPER")))
	if !types.IsCode(err, types.ErrArgument) {
		t.Errorf("err = %v, want ArgumentError", err)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	ctx := context.Background()
	rows, err := extformat.ParseCSV().Fn(ctx, functions.NewArgs(value.String("name,age\nann,30\nbob,41")))
	if err != nil {
		t.Fatalf("CSV_PARSE: %v", err)
	}
	if rows.Len() != 2 {
		t.Fatalf("rows = %s", rows.String())
	}
	first, _ := rows.Index(1)
	if v, _ := first.Map().Get("age"); v.String() != "30" {
		t.Errorf("age = %q", v.String())
	}

	text, err := extformat.ToCSV().Fn(ctx, functions.NewArgs(rows))
	if err != nil {
		t.Fatalf("CSV_FORMAT: %v", err)
	}
	if want := "name,age\nann,30\nbob,41"; text.String() != want {
		t.Errorf("CSV_FORMAT = %q, want %q", text.String(), want)
	}

	semi, err := extformat.ParseCSV().Fn(ctx, functions.NewArgs(value.String("a;b\n1;2"), value.String(";")))
	if err != nil {
		t.Fatalf("CSV_PARSE with separator: %v", err)
	}
	if !strings.Contains(semi.String(), `"b":"2"`) {
		t.Errorf("CSV_PARSE with separator = %s", semi.String())
	}
}

func TestLocaleFormatting(t *testing.T) {
	runCases(t, []sayCase{
		{`FORMAT_NUMBER(1234567.5)`, "1,234,567.5"},
		{`FORMAT_NUMBER(1234.5, 'de-DE')`, "1.234,5"},
		{`FORMAT_PERCENT(0.25)`, "25%"},
	}, ext.WithFormat())

	got := say(t, "FORMAT_CURRENCY(1234.5, 'USD')", ext.WithFormat())
	if !strings.Contains(got, "$") || !strings.Contains(got, "1,234.50") {
		t.Errorf("FORMAT_CURRENCY = %q", got)
	}
}
