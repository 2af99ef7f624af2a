package evaluator_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sandrolain/gorexx/pkg/address"
	"github.com/sandrolain/gorexx/pkg/evaluator"
	"github.com/sandrolain/gorexx/pkg/functions"
	"github.com/sandrolain/gorexx/pkg/types"
	"github.com/sandrolain/gorexx/pkg/value"
)

func TestSessionKeepsState(t *testing.T) {
	var out []string
	ev := evaluator.New(evaluator.WithOutputFunc(func(s string) { out = append(out, s) }))
	s := ev.NewSession()
	ctx := context.Background()

	for _, src := range []string{
		"x = 1; ADDRESS calc; NUMERIC DIGITS 5",
		"x = x + 1; SAY x || ADDRESS() || DIGITS()",
	} {
		if _, err := s.RunSource(ctx, src); err != nil {
			t.Fatalf("%s: %v", src, err)
		}
	}
	wantOutput(t, out, "2CALC5")
	if s.Address() != "CALC" || s.Numeric().Digits != 5 {
		t.Errorf("Address = %q, Numeric = %+v", s.Address(), s.Numeric())
	}

	fresh := ev.NewSession()
	if _, ok := fresh.Variable("x"); ok || fresh.Address() != address.Default {
		t.Error("a new session should start clean")
	}
}

func TestSessionHostVariables(t *testing.T) {
	var out []string
	s := evaluator.New(evaluator.WithOutputFunc(func(s string) { out = append(out, s) })).NewSession()
	s.SetVariable("name", value.String("Ann"))
	s.SetStem("items", []value.Value{value.String("a"), value.String("b")})
	s.SetVariable("gone", value.String("x"))
	s.DropVariable("gone")

	_, err := s.RunSource(context.Background(), lines(
		"SAY name || items.0",
		"DO it OVER items.",
		"  SAY it",
		"END",
		"SAY SYMBOL('gone')",
		"total = 3",
	))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	wantOutput(t, out, "Ann2", "a", "b", "LIT")

	if v, ok := s.Variable("Total"); !ok || v.String() != "3" {
		t.Errorf("TOTAL = %q, %v", v.String(), ok)
	}
	if v, _ := s.Variable("items.2"); v.String() != "b" {
		t.Errorf("ITEMS.2 = %q", v.String())
	}
	want := []string{"IT", "ITEMS.0", "ITEMS.1", "ITEMS.2", "NAME", "TOTAL"}
	if got := s.Variables(); !slices.Equal(got, want) {
		t.Errorf("Variables = %v, want %v", got, want)
	}

	s.DropVariable("items.")
	if _, ok := s.Variable("items.1"); ok {
		t.Error("dropping the stem should drop its compounds")
	}
}

func TestRunNilProgram(t *testing.T) {
	if _, err := evaluator.New().Run(context.Background(), nil); err == nil {
		t.Error("want an error for a nil program")
	}
}

func TestTimeout(t *testing.T) {
	ev := evaluator.New(evaluator.WithTimeout(20*time.Millisecond), evaluator.WithOutputFunc(func(string) {}))
	_, err := ev.RunSource(context.Background(), "DO FOREVER\n  NOP\nEND")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

func TestCancellationIsNotTrapped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stop := evaluator.WithCustomFunction("STOP", "STOP()", func(context.Context, functions.Args) (value.Value, error) {
		cancel()
		return value.Empty, nil
	})
	ev := evaluator.New(stop, evaluator.WithOutputFunc(func(string) {}))
	_, err := ev.RunSource(ctx, lines(
		"SIGNAL ON ERROR NAME h",
		"x = STOP()",
		"DO FOREVER",
		"END",
		"h:",
		"  SAY 'trapped'",
	))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestConcurrentSessions(t *testing.T) {
	var (
		mu  sync.Mutex
		out []string
	)
	ev := evaluator.New(evaluator.WithOutputFunc(func(s string) {
		mu.Lock()
		out = append(out, s)
		mu.Unlock()
	}))
	prog, _, err := ev.Compile(lines(
		"n = ARG(1)",
		"NUMERIC DIGITS n + 2",
		"DO i = 1 TO 50",
		"  n = n + 0",
		"END",
		"SAY n || ':' || DIGITS()",
	))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ev.Run(context.Background(), prog, value.Int(i+1)); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("run: %v", err)
	}

	slices.Sort(out)
	var want []string
	for i := 1; i <= 8; i++ {
		want = append(want, fmt.Sprintf("%d:%d", i, i+2))
	}
	slices.Sort(want)
	if !slices.Equal(out, want) {
		t.Errorf("output = %v, want %v", out, want)
	}
}

func TestOutputWriter(t *testing.T) {
	var buf bytes.Buffer
	if _, err := evaluator.New(evaluator.WithOutput(&buf)).RunSource(context.Background(), "SAY 'hi'; SAY"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if buf.String() != "hi\n\n" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestNumericOption(t *testing.T) {
	o := mustRun(t, "SAY DIGITS() || FORM()", evaluator.WithNumeric(value.Numeric{Digits: 5, Form: value.FormEngineering}))
	wantOutput(t, o.out, "5ENGINEERING")

	o = mustRun(t, "SAY DIGITS()", evaluator.WithNumeric(value.Numeric{Digits: 0}))
	wantOutput(t, o.out, "9")
}

func TestNumericStatement(t *testing.T) {
	o := mustRun(t, lines(
		"NUMERIC DIGITS 4",
		"SAY 1 / 3",
		"NUMERIC DIGITS",
		"NUMERIC FUZZ 2",
		"NUMERIC FORM ENGINEERING",
		"SAY DIGITS() || FUZZ() || FORM()",
	))
	wantOutput(t, o.out, "0.3333", "92ENGINEERING")

	wantCode(t, run(t, "NUMERIC FUZZ 9").err, types.ErrArgument)
	wantCode(t, run(t, "NUMERIC DIGITS 'many'").err, types.ErrArgument)
}

func TestDebugLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	mustRun(t, "CALL sub; EXIT; sub: RETURN", evaluator.WithDebug(true), evaluator.WithLogger(logger))
	for _, msg := range []string{"executing statement", "calling routine"} {
		if !strings.Contains(buf.String(), msg) {
			t.Errorf("log is missing %q:\n%s", msg, buf.String())
		}
	}
}

func TestRegistries(t *testing.T) {
	reg := functions.NewRegistry(functions.CustomFunctionDef{
		Name: "ONE",
		Fn: func(context.Context, functions.Args) (value.Value, error) {
			return value.Int(1), nil
		},
	})
	ev := evaluator.New(evaluator.WithRegistry(reg), evaluator.WithOutputFunc(func(string) {}))
	if _, ok := ev.Functions().Lookup("one"); !ok {
		t.Fatal("ONE should be registered")
	}

	rec := &address.Recorder{Reply: address.OK(value.Empty)}
	ev.Addresses().Register("late", rec)
	if _, err := ev.RunSource(context.Background(), "ADDRESS late 'x' || ONE()"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if cmds := rec.Commands(); len(cmds) != 1 || cmds[0].Text != "x1" {
		t.Errorf("commands = %+v", cmds)
	}
}
