package evaluator_test

import (
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/sandrolain/gorexx/pkg/evaluator"
	"github.com/sandrolain/gorexx/pkg/types"
)

// lines joins source lines; the first one is line 1.
func lines(src ...string) string {
	return strings.Join(src, "\n")
}

type outcome struct {
	out  []string
	sess *evaluator.Session
	res  *evaluator.Result
	err  error
}

func run(t *testing.T, src string, opts ...evaluator.EvalOption) *outcome {
	t.Helper()
	o := &outcome{}
	opts = append(opts, evaluator.WithOutputFunc(func(s string) { o.out = append(o.out, s) }))
	o.sess = evaluator.New(opts...).NewSession()
	o.res, o.err = o.sess.RunSource(context.Background(), src)
	return o
}

func mustRun(t *testing.T, src string, opts ...evaluator.EvalOption) *outcome {
	t.Helper()
	o := run(t, src, opts...)
	if o.err != nil {
		t.Fatalf("run failed: %v\n--- source ---\n%s", o.err, src)
	}
	return o
}

func wantOutput(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(want) == 0 && len(got) == 0 {
		return
	}
	if !slices.Equal(got, want) {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func wantCode(t *testing.T, err error, code types.ErrorCode) *types.Error {
	t.Helper()
	te, ok := types.AsError(err)
	if !ok {
		t.Fatalf("err = %v, want %s", err, code)
	}
	if te.Code != code {
		t.Fatalf("err code = %s (%v), want %s", te.Code, err, code)
	}
	return te
}

func (o *outcome) variable(t *testing.T, name string) string {
	t.Helper()
	v, ok := o.sess.Variable(name)
	if !ok {
		t.Fatalf("variable %s is not defined", name)
	}
	return v.String()
}

func (o *outcome) undefined(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		if v, ok := o.sess.Variable(name); ok {
			t.Errorf("variable %s = %q, want undefined", name, v.String())
		}
	}
}
