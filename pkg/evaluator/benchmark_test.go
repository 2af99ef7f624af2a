package evaluator_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/sandrolain/gorexx/pkg/evaluator"
	"github.com/sandrolain/gorexx/pkg/parser"
	"github.com/sandrolain/gorexx/pkg/types"
	"github.com/sandrolain/gorexx/pkg/value"
)

// Run with:
//
//	go test -bench=. -benchmem ./pkg/evaluator/...

var sharedEval = evaluator.New(evaluator.WithOutputFunc(func(string) {}))

func mustCompile(src string) *types.Program {
	prog, err := parser.Compile(src)
	if err != nil {
		panic(fmt.Sprintf("mustCompile(%q): %v", src, err))
	}
	return prog
}

func runProgram(b *testing.B, prog *types.Program, args ...value.Value) {
	b.Helper()
	if _, err := sharedEval.Run(context.Background(), prog, args...); err != nil {
		b.Fatal(err)
	}
}

// bigProgram repeats a routine-heavy block n times.
func bigProgram(n int) string {
	var sb strings.Builder
	for i := range n {
		fmt.Fprintf(&sb, "x%d = %d\nIF x%d > 5 THEN SAY 'big'\nELSE DO\n  CALL sub x%d\nEND\n", i, i, i, i)
	}
	sb.WriteString("EXIT\nsub: PROCEDURE\n  ARG v\n  RETURN v * 2\n")
	return sb.String()
}

// Parser benchmarks

func BenchmarkCompileSmall(b *testing.B) {
	src := "SAY 'hello' || 1 + 2"
	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		if _, err := parser.Compile(src); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCompileLarge(b *testing.B) {
	src := bigProgram(200)
	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		if _, err := parser.Compile(src); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCompileCached(b *testing.B) {
	src := bigProgram(200)
	ev := evaluator.New()
	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		if _, _, err := ev.Compile(src); err != nil {
			b.Fatal(err)
		}
	}
}

// Evaluator benchmarks

func BenchmarkLoopArithmetic(b *testing.B) {
	prog := mustCompile("t = 0\nDO i = 1 TO 1000\n  t = t + i * 2\nEND")
	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		runProgram(b, prog)
	}
}

func BenchmarkRecursiveCall(b *testing.B) {
	prog := mustCompile(lines(
		"RETURN fib(15)",
		"fib: PROCEDURE",
		"  ARG n",
		"  IF n < 2 THEN RETURN n",
		"  RETURN fib(n - 1) + fib(n - 2)",
	))
	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		runProgram(b, prog)
	}
}

func BenchmarkStems(b *testing.B) {
	prog := mustCompile(lines(
		"DO i = 1 TO 500",
		"  s.i = i",
		"END",
		"t = 0",
		"DO i = 1 TO 500",
		"  t = t + s.i",
		"END",
	))
	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		runProgram(b, prog)
	}
}

func BenchmarkParseTemplate(b *testing.B) {
	prog := mustCompile(lines(
		"DO 200",
		"  PARSE VALUE 'key=value;2026-10-19 rest' WITH k '=' v ';' y '-' m '-' d .",
		"END",
	))
	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		runProgram(b, prog)
	}
}

func BenchmarkInterpretCached(b *testing.B) {
	prog := mustCompile(lines(
		"DO i = 1 TO 100",
		"  INTERPRET 'x = i * 2' WITH ISOLATED IMPORT i EXPORT x",
		"END",
	))
	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		runProgram(b, prog)
	}
}

func BenchmarkConcurrentRuns(b *testing.B) {
	prog := mustCompile("PARSE ARG n\nt = 0\nDO i = 1 TO n\n  t = t + i\nEND\nRETURN t")
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := sharedEval.Run(context.Background(), prog, value.Int(100)); err != nil {
				b.Error(err)
			}
		}
	})
}
