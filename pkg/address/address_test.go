package address_test

import (
	"context"
	"testing"

	"github.com/sandrolain/gorexx/pkg/address"
	"github.com/sandrolain/gorexx/pkg/value"
)

func TestRegistryLookup(t *testing.T) {
	reg := address.NewRegistry()
	rec := &address.Recorder{Reply: address.OK(value.String("done"))}
	reg.Register("browser", rec)

	h, ok := reg.Lookup("BROWSER")
	if !ok {
		t.Fatal("lookup is not case-insensitive")
	}
	res, err := h.Send(context.Background(), address.Command{Target: "BROWSER", Name: "click"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.Value.String() != "done" {
		t.Errorf("result = %+v", res)
	}
	if got := rec.Commands(); len(got) != 1 || got[0].Name != "click" {
		t.Errorf("recorded %v", got)
	}

	cp := reg.Clone()
	reg.Unregister("browser")
	if _, ok := reg.Lookup("browser"); ok {
		t.Error("unregister failed")
	}
	if got := cp.Targets(); len(got) != 1 || got[0] != "BROWSER" {
		t.Errorf("clone targets = %v", got)
	}
}

func TestCommandParams(t *testing.T) {
	cmd := address.Command{
		Name: "open",
		Params: []address.Param{
			{Value: value.String("first")},
			{Key: "URL", Value: value.String("http://x")},
			{Value: value.String("second")},
		},
	}
	if v, ok := cmd.Param("url"); !ok || v.String() != "http://x" {
		t.Errorf("Param(url) = %q, %v", v.String(), ok)
	}
	if _, ok := cmd.Param("missing"); ok {
		t.Error("missing param found")
	}
	pos := cmd.Positional()
	if len(pos) != 2 || pos[0].String() != "first" || pos[1].String() != "second" {
		t.Errorf("Positional = %v", pos)
	}
}

func TestResultHelpers(t *testing.T) {
	tests := []struct {
		name string
		res  address.Result
		rc   int
	}{
		{"ok", address.OK(value.Empty), 0},
		{"fail default code", address.Fail(0, "boom %d", 1), 1},
		{"fail explicit code", address.Fail(3, "no"), 3},
		{"zero result", address.Result{}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.res.RC(); got != tt.rc {
				t.Errorf("RC = %d, want %d", got, tt.rc)
			}
		})
	}
	if msg := address.Fail(0, "boom %d", 1).Error; msg != "boom 1" {
		t.Errorf("Error = %q", msg)
	}
}

func TestHandlerFunc(t *testing.T) {
	h := address.HandlerFunc(func(_ context.Context, cmd address.Command) (address.Result, error) {
		return address.OK(value.String(cmd.Text)), nil
	})
	res, _ := h.Send(context.Background(), address.Command{Text: "echo 1"})
	if res.Value.String() != "echo 1" {
		t.Errorf("got %q", res.Value.String())
	}
}
