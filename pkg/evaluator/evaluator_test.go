package evaluator_test

import (
	"context"
	"strings"
	"testing"

	"github.com/sandrolain/gorexx/pkg/evaluator"
	"github.com/sandrolain/gorexx/pkg/functions"
	"github.com/sandrolain/gorexx/pkg/types"
	"github.com/sandrolain/gorexx/pkg/value"
)

// cat concatenates its positional arguments.
var cat = evaluator.WithCustomFunction("CAT", "CAT(string, ...)", func(_ context.Context, args functions.Args) (value.Value, error) {
	var b strings.Builder
	for _, a := range args.Positional {
		b.WriteString(a.String())
	}
	return value.String(b.String()), nil
})

// twice applies a function value two times: TWICE(fn, v) = fn(fn(v)).
func twice() evaluator.EvalOption {
	def := functions.AdvancedCustomFunctionDef{
		Name:      "TWICE",
		Signature: "TWICE(fn, value)",
		Fn: func(ctx context.Context, caller functions.Caller, args functions.Args) (value.Value, error) {
			if err := functions.CheckArity("TWICE", args, 2, 2); err != nil {
				return value.Empty, err
			}
			v := args.Positional[1]
			for range 2 {
				r, err := caller.Call(ctx, args.Positional[0], v)
				if err != nil {
					return value.Empty, err
				}
				v = r
			}
			return v, nil
		},
	}
	return func(opts *evaluator.EvalOptions) {
		evaluator.WithFunctions(def)(opts)
		evaluator.WithLambdaSites("TWICE")(opts)
	}
}

func TestScenarios(t *testing.T) {
	t.Run("numeric strings add numerically", func(t *testing.T) {
		wantOutput(t, mustRun(t, `SAY "5" + "3"`).out, "8")
	})

	t.Run("concatenation never coerces", func(t *testing.T) {
		wantOutput(t, mustRun(t, `SAY "5" || "3"`).out, "53")
	})

	t.Run("counted loop emits in order", func(t *testing.T) {
		o := mustRun(t, lines(
			"DO i = 1 TO 3",
			"  SAY i",
			"END",
		))
		wantOutput(t, o.out, "1", "2", "3")
	})

	t.Run("isolated INTERPRET binds nothing in the caller", func(t *testing.T) {
		o := mustRun(t, lines(
			"INTERPRET 'fresh = 42' WITH ISOLATED",
			"SAY SYMBOL('fresh')",
		))
		wantOutput(t, o.out, "LIT")
		o.undefined(t, "FRESH")
	})

	t.Run("import export INTERPRET", func(t *testing.T) {
		o := mustRun(t, lines(
			"a = 2; b = 3",
			"INTERPRET 'total = a + b; scratch = 1' WITH ISOLATED IMPORT a b EXPORT total",
		))
		if got := o.variable(t, "TOTAL"); got != "5" {
			t.Errorf("TOTAL = %q, want 5", got)
		}
		o.undefined(t, "SCRATCH")
		if got := o.sess.Variables(); strings.Join(got, ",") != "A,B,TOTAL" {
			t.Errorf("variables = %v", got)
		}
	})

	t.Run("SELECT without match or OTHERWISE", func(t *testing.T) {
		o := mustRun(t, lines(
			"x = 9",
			"SELECT",
			"  WHEN x = 1 THEN SAY 'one'",
			"  WHEN x = 2 THEN SAY 'two'",
			"END",
			"SAY 'after'",
		))
		wantOutput(t, o.out, "after")
	})
}

func TestExpressions(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"'007' + 0", "7"},
		{"'007' || ''", "007"},
		{"7 / 2", "3.5"},
		{"7 % 3", "1"},
		{"2 ** 10", "1024"},
		{"-3 + 1", "-2"},
		{"1 + 2 * 3", "7"},
		{"(1 + 2) * 3", "9"},
		{"0.1 + 0.2", "0.3"},
		{"2 = '2.0'", "1"},
		{"2 == '2.0'", "0"},
		{"'abc' = 'abc  '", "1"},
		{"'abc' \\= 'abd'", "1"},
		{"'a' < 'b'", "1"},
		{"10 > 9", "1"},
		{"3 <= 3", "1"},
		{"1 & 0", "0"},
		{"1 | 0", "1"},
		{"1 && 1", "0"},
		{"\\0", "1"},
		{"'a' || 'b' || 1 + 1", "ab2"},
		{"[1, 'x']", `[1,"x"]`},
		{`{"a": 1, "b": 'two'}`, `{"a":1,"b":"two"}`},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			wantOutput(t, mustRun(t, "SAY "+tt.expr).out, tt.want)
		})
	}
}

func TestExpressionErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code types.ErrorCode
	}{
		{"non-numeric operand", "SAY 'a' + 1", types.ErrArithmeticType},
		{"division by zero", "SAY 1 / 0", types.ErrDivisionByZero},
		{"modulo by zero", "SAY 5 % 0", types.ErrDivisionByZero},
		{"non-logical condition", "IF 'maybe' THEN NOP", types.ErrArithmeticType},
		{"non-logical operand", "SAY 2 & 1", types.ErrArithmeticType},
		{"unknown function", "SAY nothing(1)", types.ErrUndefinedFunction},
		{"unknown subroutine", "CALL nowhere", types.ErrUndefinedSubroutine},
		{"placeholder outside pipe", "SAY CAT(?)", types.ErrSyntax},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wantCode(t, run(t, tt.src, cat).err, tt.code)
		})
	}
}

func TestSyntaxErrorRunsNothing(t *testing.T) {
	o := run(t, lines(
		"SAY 'before'",
		"SAY (1",
	))
	wantCode(t, o.err, types.ErrSyntax)
	wantOutput(t, o.out)
}

func TestErrorCarriesLineAndVariables(t *testing.T) {
	o := run(t, lines(
		"a = 5",
		"b = a / 0",
	))
	te := wantCode(t, o.err, types.ErrDivisionByZero)
	if te.Line != 2 {
		t.Errorf("Line = %d, want 2", te.Line)
	}
	if te.Variables["A"] != "5" {
		t.Errorf("Variables = %v", te.Variables)
	}
}

func TestOutputBeforeFaultStands(t *testing.T) {
	o := run(t, lines(
		"SAY 'one'",
		"SAY 1 / 0",
		"SAY 'two'",
	))
	wantCode(t, o.err, types.ErrDivisionByZero)
	wantOutput(t, o.out, "one")
}

func TestVariables(t *testing.T) {
	t.Run("unset variable reads as its name", func(t *testing.T) {
		wantOutput(t, mustRun(t, "SAY hello").out, "HELLO")
	})

	t.Run("strict mode", func(t *testing.T) {
		wantCode(t, run(t, "SAY hello", evaluator.WithStrict(true)).err, types.ErrUndefinedVariable)
	})

	t.Run("names are case-insensitive", func(t *testing.T) {
		wantOutput(t, mustRun(t, "Count = 3; SAY COUNT").out, "3")
	})

	t.Run("interpolation", func(t *testing.T) {
		o := mustRun(t, lines(
			"name = 'Ann'; n = 2",
			`SAY "Hello {name}, {n} new, {nobody}"`,
			`SAY 'Hello {name}'`,
		))
		wantOutput(t, o.out, "Hello Ann, 2 new, {nobody}", "Hello {name}")
	})

	t.Run("DROP", func(t *testing.T) {
		o := mustRun(t, lines(
			"a = 1; s.1 = 'x'; s.2 = 'y'",
			"DROP a s.",
			"SAY SYMBOL('a') || SYMBOL('s.1')",
		))
		wantOutput(t, o.out, "LITLIT")
	})
}

func TestStems(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"tail substitution", "i = 2; arr.i = 'x'; SAY arr.2", []string{"x"}},
		{"multi-part tail", "r = 1; c = 2; grid.r.c = 'cell'; SAY grid.1.2", []string{"cell"}},
		{"stem default", "s. = 0; s.3 = 7; SAY s.5 || s.3", []string{"07"}},
		{"stem assignment resets compounds", "s.1 = 'a'; s. = 'z'; SAY s.1", []string{"z"}},
		{"array through a compound", "list = [10, 20]; SAY list.2 || ':' || list.0", []string{"20:2"}},
		{"map through a compound", `m = {"name": 'Ann'}; SAY m.name`, []string{"Ann"}},
		{"array assigned to a stem", "s. = [5, 6]; SAY s.0 || ':' || s.2", []string{"2:6"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wantOutput(t, mustRun(t, tt.src).out, tt.want...)
		})
	}
}

func TestIfAndSelect(t *testing.T) {
	t.Run("IF ELSE", func(t *testing.T) {
		o := mustRun(t, lines(
			"x = 5",
			"IF x > 3 THEN",
			"  SAY 'big'",
			"ELSE",
			"  SAY 'small'",
			"IF x < 3 THEN SAY 'no'; ELSE SAY 'yes'",
		))
		wantOutput(t, o.out, "big", "yes")
	})

	t.Run("first matching WHEN wins", func(t *testing.T) {
		o := mustRun(t, lines(
			"x = 2",
			"SELECT",
			"  WHEN x > 1 THEN SAY 'first'",
			"  WHEN x = 2 THEN SAY 'second'",
			"  OTHERWISE",
			"    SAY 'other'",
			"END",
		))
		wantOutput(t, o.out, "first")
	})

	t.Run("OTHERWISE", func(t *testing.T) {
		o := mustRun(t, lines(
			"SELECT",
			"  WHEN 0 THEN SAY 'no'",
			"  OTHERWISE",
			"    SAY 'default'",
			"    SAY 'block'",
			"END",
		))
		wantOutput(t, o.out, "default", "block")
	})
}

func TestDoForms(t *testing.T) {
	tests := []struct {
		name string
		src  []string
		want []string
	}{
		{"BY", []string{"DO i = 1 TO 10 BY 4", "SAY i", "END"}, []string{"1", "5", "9"}},
		{"descending", []string{"DO i = 3 TO 1 BY -1", "SAY i", "END"}, []string{"3", "2", "1"}},
		{"FOR", []string{"DO i = 1 BY 2 FOR 3", "SAY i", "END"}, []string{"1", "3", "5"}},
		{"empty range", []string{"DO i = 5 TO 1", "SAY i", "END", "SAY 'done' || i"}, []string{"done5"}},
		{"variable ends past the limit", []string{"DO i = 1 TO 3", "END", "SAY i"}, []string{"4"}},
		{"repeat count", []string{"DO 2", "SAY 'x'", "END"}, []string{"x", "x"}},
		{"zero count", []string{"DO 0", "SAY 'x'", "END"}, nil},
		{"WHILE", []string{"n = 0", "DO WHILE n < 3", "n = n + 1", "END", "SAY n"}, []string{"3"}},
		{"UNTIL runs at least once", []string{"n = 5", "DO UNTIL 1", "n = n + 1", "END", "SAY n"}, []string{"6"}},
		{"FOREVER with LEAVE", []string{"n = 0", "DO FOREVER", "n = n + 1", "IF n = 3 THEN LEAVE", "END", "SAY n"}, []string{"3"}},
		{"ITERATE", []string{"DO i = 1 TO 4", "IF i % 2 = 0 THEN ITERATE", "SAY i", "END"}, []string{"1", "3"}},
		{"plain DO block", []string{"DO", "SAY 'a'", "SAY 'b'", "END"}, []string{"a", "b"}},
		{"LEAVE through a DO block", []string{"DO i = 1 TO 3", "DO", "IF i = 2 THEN LEAVE", "END", "SAY i", "END"}, []string{"1"}},
		{
			"LEAVE named loop",
			[]string{"DO i = 1 TO 3", "DO j = 1 TO 3", "IF j = 2 THEN LEAVE i", "SAY i || j", "END", "END"},
			[]string{"11"},
		},
		{
			"ITERATE named loop",
			[]string{"DO i = 1 TO 2", "DO j = 1 TO 3", "IF j = 2 THEN ITERATE i", "SAY i || j", "END", "END"},
			[]string{"11", "21"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wantOutput(t, mustRun(t, lines(tt.src...)).out, tt.want...)
		})
	}
}

func TestDoErrors(t *testing.T) {
	tests := []struct {
		name string
		src  []string
		code types.ErrorCode
	}{
		{"bad count", []string{"DO 'x'", "END"}, types.ErrArgument},
		{"negative count", []string{"DO -1", "END"}, types.ErrArgument},
		{"bad FOR", []string{"DO i = 1 FOR 'x'", "END"}, types.ErrArgument},
		{"bad start", []string{"DO i = 'a' TO 3", "END"}, types.ErrArithmeticType},
		{"bad limit", []string{"DO i = 1 TO 'z'", "END"}, types.ErrArithmeticType},
		{"LEAVE outside a loop", []string{"LEAVE"}, types.ErrSyntax},
		{"ITERATE unknown loop", []string{"DO i = 1 TO 2", "ITERATE k", "END"}, types.ErrSyntax},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wantCode(t, run(t, lines(tt.src...)).err, tt.code)
		})
	}
}

func TestDoOver(t *testing.T) {
	tests := []struct {
		name string
		src  []string
		want []string
	}{
		{"stem with count", []string{"arr.1 = 'a'; arr.2 = 'b'; arr.3 = 'c'; arr.0 = 2", "DO x OVER arr.", "SAY x", "END"}, []string{"a", "b"}},
		{"stem without count", []string{"s.1 = 'x'; s.2 = 'y'; s.4 = 'z'", "DO v OVER s.", "SAY v", "END"}, []string{"x", "y"}},
		{"array", []string{"DO x OVER [3, 4]", "SAY x", "END"}, []string{"3", "4"}},
		{"one-based map", []string{`m = {"2": 'b', "1": 'a'}`, "DO x OVER m", "SAY x", "END"}, []string{"a", "b"}},
		{"zero-based map", []string{`m = {"0": 'z', "1": 'y'}`, "DO x OVER m", "SAY x", "END"}, []string{"z", "y"}},
		{"keyed map", []string{`m = {"x": 1, "y": 2}`, "DO k OVER m", "SAY k", "END"}, []string{"x", "y"}},
		{"map with gaps", []string{`m = {"1": 'a', "3": 'b'}`, "DO k OVER m", "SAY k", "END"}, []string{"1", "3"}},
		{"words", []string{"DO w OVER 'red  green'", "SAY w", "END"}, []string{"red", "green"}},
		{"LEAVE", []string{"DO w OVER 'a b c'", "IF w = 'b' THEN LEAVE", "SAY w", "END"}, []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wantOutput(t, mustRun(t, lines(tt.src...)).out, tt.want...)
		})
	}
}

func TestCallAndReturn(t *testing.T) {
	t.Run("CALL sets RESULT", func(t *testing.T) {
		o := mustRun(t, lines(
			"CALL add 2, 3",
			"SAY RESULT",
			"EXIT",
			"add:",
			"  RETURN ARG(1) + ARG(2)",
		))
		wantOutput(t, o.out, "5")
	})

	t.Run("CALL without a value drops RESULT", func(t *testing.T) {
		o := mustRun(t, lines(
			"RESULT = 'stale'",
			"CALL noop",
			"SAY SYMBOL('RESULT')",
			"EXIT",
			"noop:",
			"  RETURN",
		))
		wantOutput(t, o.out, "LIT")
	})

	t.Run("function call", func(t *testing.T) {
		o := mustRun(t, lines(
			"SAY double(4) + 1",
			"EXIT",
			"double:",
			"  PARSE ARG n",
			"  RETURN n * 2",
		))
		wantOutput(t, o.out, "9")
	})

	t.Run("ARG intrinsic", func(t *testing.T) {
		o := mustRun(t, lines(
			"CALL probe 'a', 'b'",
			"EXIT",
			"probe:",
			"  SAY ARG() || ARG(2) || ARG(2, 'E') || ARG(3, 'O')",
		))
		wantOutput(t, o.out, "2b11")
	})

	t.Run("recursion with PROCEDURE", func(t *testing.T) {
		o := mustRun(t, lines(
			"SAY fact(5)",
			"EXIT",
			"fact: PROCEDURE",
			"  PARSE ARG n",
			"  IF n <= 1 THEN RETURN 1",
			"  RETURN n * fact(n - 1)",
		))
		wantOutput(t, o.out, "120")
	})

	t.Run("PROCEDURE EXPOSE", func(t *testing.T) {
		o := mustRun(t, lines(
			"total = 10; secret = 'main'",
			"CALL bump",
			"SAY total || ' ' || secret",
			"EXIT",
			"bump: PROCEDURE EXPOSE total",
			"  total = total + 1",
			"  secret = 'local'",
			"  RETURN",
		))
		wantOutput(t, o.out, "11 main")
	})

	t.Run("routine without PROCEDURE shares variables", func(t *testing.T) {
		o := mustRun(t, lines(
			"CALL setx",
			"SAY x",
			"EXIT",
			"setx:",
			"  x = 'shared'",
			"  RETURN",
		))
		wantOutput(t, o.out, "shared")
	})

	t.Run("function without a value", func(t *testing.T) {
		o := run(t, lines(
			"SAY f()",
			"EXIT",
			"f:",
			"  NOP",
		))
		wantCode(t, o.err, types.ErrSyntax)
	})

	t.Run("PROCEDURE in the main program", func(t *testing.T) {
		wantCode(t, run(t, "PROCEDURE").err, types.ErrSyntax)
	})

	t.Run("depth limit", func(t *testing.T) {
		o := run(t, lines(
			"CALL deeper",
			"EXIT",
			"deeper:",
			"  CALL deeper",
		), evaluator.WithMaxDepth(20))
		wantCode(t, o.err, types.ErrStackOverflow)
	})
}

func TestLoopVariableSurvivesCall(t *testing.T) {
	o := mustRun(t, lines(
		"DO i = 1 TO 2",
		"  CALL inner",
		"  SAY i",
		"END",
		"EXIT",
		"inner:",
		"  DO i = 10 TO 11",
		"  END",
		"  RETURN",
	))
	wantOutput(t, o.out, "1", "2")
}

func TestExitValue(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		want     string
		hasValue bool
	}{
		{"EXIT with value", "EXIT 3", "3", true},
		{"top-level RETURN", "RETURN 'done'", "done", true},
		{"EXIT inside a routine", "CALL stop\nSAY 'not reached'\nEXIT\nstop:\n  EXIT 'early'", "early", true},
		{"end of program", "x = 1", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := mustRun(t, tt.src)
			wantOutput(t, o.out)
			if o.res.HasValue != tt.hasValue || o.res.Value.String() != tt.want {
				t.Errorf("result = %q (HasValue %v), want %q (%v)", o.res.Value.String(), o.res.HasValue, tt.want, tt.hasValue)
			}
		})
	}
}

func TestPipes(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"'b' |> CAT('a')", "ba"},
		{"'b' |> CAT('a', ?)", "ab"},
		{"'x' |> CAT('y') |> CAT(?, ?)", "xyxy"},
		{"'x' |> CAT", "x"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			wantOutput(t, mustRun(t, "SAY "+tt.expr, cat).out, tt.want)
		})
	}
}

func TestLambdas(t *testing.T) {
	t.Run("lambda argument", func(t *testing.T) {
		wantOutput(t, mustRun(t, "SAY TWICE(x => x * 3, 2)", twice()).out, "18")
	})

	t.Run("parameters do not leak", func(t *testing.T) {
		o := mustRun(t, lines(
			"x = 'outer'",
			"y = TWICE(x => x + 1, 1)",
			"SAY x || ' ' || y",
		), twice())
		wantOutput(t, o.out, "outer 3")
	})

	t.Run("free variables", func(t *testing.T) {
		wantOutput(t, mustRun(t, "k = 10; SAY TWICE(n => n + k, 1)", twice()).out, "21")
	})

	t.Run("function name", func(t *testing.T) {
		o := mustRun(t, lines(
			"SAY TWICE('half', 8)",
			"EXIT",
			"half:",
			"  RETURN ARG(1) / 2",
		), twice())
		wantOutput(t, o.out, "2")
	})

	t.Run("not a function", func(t *testing.T) {
		wantCode(t, run(t, "SAY TWICE('1 2', 8)", twice()).err, types.ErrArgument)
	})

	t.Run("lambda outside a lambda site", func(t *testing.T) {
		wantCode(t, run(t, "SAY CAT(x => x)", cat).err, types.ErrSyntax)
	})

	t.Run("errors carry the call line", func(t *testing.T) {
		tests := []struct {
			fn       string
			code     types.ErrorCode
			function string
		}{
			{"'NOPE'", types.ErrUndefinedFunction, "TWICE"},
			{"'1 2'", types.ErrArgument, "TWICE"},
			{"'ARG'", types.ErrArgument, "ARG"},
		}
		for _, tt := range tests {
			t.Run(tt.fn, func(t *testing.T) {
				o := run(t, lines(
					"x = 'x'",
					"y = x",
					"  |> TWICE("+tt.fn+", ?)",
				), twice())
				te := wantCode(t, o.err, tt.code)
				if te.Line != 3 || te.Function != tt.function {
					t.Errorf("line = %d, function = %q, want 3 and %s", te.Line, te.Function, tt.function)
				}
			})
		}
	})

	t.Run("trapped error reports the call line", func(t *testing.T) {
		o := mustRun(t, lines(
			"SIGNAL ON ERROR NAME h",
			"y = 8",
			"  |> TWICE('NOPE', ?)",
			"EXIT",
			"h:",
			"  SAY ERROR_LINE || ' ' || ERROR_KIND",
		), twice())
		wantOutput(t, o.out, "3 UndefinedFunctionError")
	})
}

func TestOperationCommand(t *testing.T) {
	greet := func(_ context.Context, args functions.Args) (value.Value, error) {
		name, _ := args.String(0, "NAME")
		return value.String("Hello, " + name), nil
	}

	t.Run("operation runs as a command", func(t *testing.T) {
		o := mustRun(t, lines(
			"GREET name='Ann'",
			"SAY RC || ': ' || RESULT",
			"SAY GREET('Bob')",
		), evaluator.WithCustomOperation("GREET", "GREET(name)", greet))
		wantOutput(t, o.out, "0: Hello, Ann", "Hello, Bob")
	})

	t.Run("plain function is not a command", func(t *testing.T) {
		o := run(t, lines(
			"SAY GREET('Bob')",
			"GREET name='Ann'",
		), evaluator.WithCustomFunction("GREET", "GREET(name)", greet))
		te := wantCode(t, o.err, types.ErrUndefinedFunction)
		if te.Line != 2 {
			t.Errorf("line = %d, want 2", te.Line)
		}
		wantOutput(t, o.out, "Hello, Bob")
	})

	t.Run("flag set through a definition", func(t *testing.T) {
		o := mustRun(t, "GREET 'Cy'; SAY RESULT", evaluator.WithFunctions(functions.CustomFunctionDef{
			Name:      "GREET",
			Operation: true,
			Fn:        greet,
		}))
		wantOutput(t, o.out, "Hello, Cy")
	})
}

func TestCompileUsesCache(t *testing.T) {
	ev := evaluator.New(evaluator.WithOutputFunc(func(string) {}))
	if _, cached, err := ev.Compile("SAY 1"); err != nil || cached {
		t.Fatalf("first Compile: cached=%v err=%v", cached, err)
	}
	if _, cached, err := ev.Compile("SAY 1"); err != nil || !cached {
		t.Fatalf("second Compile: cached=%v err=%v", cached, err)
	}

	uncached := evaluator.New(evaluator.WithCaching(false))
	if uncached.Cache() != nil {
		t.Error("Cache() should be nil with caching disabled")
	}
	if _, cached, _ := uncached.Compile("SAY 1"); cached {
		t.Error("uncached evaluator reported a hit")
	}
}
