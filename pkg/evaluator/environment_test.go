package evaluator

import (
	"slices"
	"testing"

	"github.com/sandrolain/gorexx/pkg/value"
)

func TestProcedureEnvironment(t *testing.T) {
	global := NewEnvironment()
	global.Set("TOTAL", value.Int(1))
	global.Set("OTHER", value.String("main"))
	global.Set("LIST.1", value.String("a"))

	local := newProcedureEnv(global, []string{"total", "list."})
	local.Set("TOTAL", value.Int(2))
	local.Set("OTHER", value.String("local"))
	local.Set("LIST.2", value.String("b"))

	if v, _ := global.Get("TOTAL"); v.String() != "2" {
		t.Errorf("exposed TOTAL = %q, want 2", v.String())
	}
	if v, _ := global.Get("OTHER"); v.String() != "main" {
		t.Errorf("hidden OTHER = %q, want main", v.String())
	}
	if v, _ := global.Get("LIST.2"); v.String() != "b" {
		t.Errorf("exposed stem LIST.2 = %q, want b", v.String())
	}

	want := []string{"LIST.1", "LIST.2", "OTHER", "TOTAL"}
	if got := local.Names(); !slices.Equal(got, want) {
		t.Errorf("Names = %v, want %v", got, want)
	}
}

func TestCopyToStem(t *testing.T) {
	src := NewEnvironment()
	src.Set("S.", value.String("default"))
	src.Set("S.1", value.String("x"))
	src.Set("T.1", value.String("other"))

	dst := NewEnvironment()
	src.copyTo(dst, "S.")
	src.copyTo(dst, "MISSING")

	if v, _ := dst.Get("S.1"); v.String() != "x" {
		t.Errorf("S.1 = %q", v.String())
	}
	if v, _ := dst.Get("S.9"); v.String() != "default" {
		t.Errorf("S.9 = %q, want the stem default", v.String())
	}
	if dst.Has("T.1") || dst.Has("MISSING") {
		t.Errorf("unexpected names copied: %v", dst.Names())
	}
}

func TestIndexedValues(t *testing.T) {
	build := func(keys ...string) *value.Map {
		m := value.NewMap()
		for _, k := range keys {
			m.Set(k, value.String("v"+k))
		}
		return m
	}
	tests := []struct {
		name string
		keys []string
		want []string
		ok   bool
	}{
		{"one-based", []string{"2", "1", "3"}, []string{"v1", "v2", "v3"}, true},
		{"zero-based", []string{"0", "1"}, []string{"v0", "v1"}, true},
		{"gap", []string{"1", "3"}, nil, false},
		{"starts at two", []string{"2", "3"}, nil, false},
		{"named", []string{"a"}, nil, false},
		{"empty", nil, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vals, ok := indexedValues(build(tt.keys...))
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			var got []string
			for _, v := range vals {
				got = append(got, v.String())
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("values = %v, want %v", got, tt.want)
			}
		})
	}
}
