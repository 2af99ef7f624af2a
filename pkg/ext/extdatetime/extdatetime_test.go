package extdatetime

import (
	"context"
	"testing"
	"time"

	"github.com/sandrolain/gorexx/pkg/functions"
	"github.com/sandrolain/gorexx/pkg/types"
	"github.com/sandrolain/gorexx/pkg/value"
)

func fixedNow(t *testing.T) {
	t.Helper()
	prev := now
	now = func() time.Time { return time.Date(2024, time.March, 5, 14, 7, 9, 123456000, time.UTC) }
	t.Cleanup(func() { now = prev })
}

func call(t *testing.T, def functions.CustomFunctionDef, args ...string) (value.Value, error) {
	t.Helper()
	vals := make([]value.Value, len(args))
	for i, a := range args {
		vals[i] = value.String(a)
	}
	return def.Fn(context.Background(), functions.NewArgs(vals...))
}

func TestDate(t *testing.T) {
	fixedNow(t)
	tests := []struct {
		opt  string
		want string
	}{
		{"", "5 Mar 2024"},
		{"Normal", "5 Mar 2024"},
		{"B", "738949"},
		{"D", "65"},
		{"E", "05/03/24"},
		{"I", "2024-03-05"},
		{"M", "March"},
		{"O", "24/03/05"},
		{"S", "20240305"},
		{"U", "03/05/24"},
		{"weekday", "Tuesday"},
	}
	for _, tt := range tests {
		t.Run(tt.opt, func(t *testing.T) {
			var args []string
			if tt.opt != "" {
				args = append(args, tt.opt)
			}
			got, err := call(t, Date(), args...)
			if err != nil {
				t.Fatalf("DATE(%q): %v", tt.opt, err)
			}
			if got.String() != tt.want {
				t.Errorf("DATE(%q) = %q, want %q", tt.opt, got.String(), tt.want)
			}
		})
	}
}

func TestTime(t *testing.T) {
	fixedNow(t)
	tests := []struct {
		opt  string
		want string
	}{
		{"", "14:07:09"},
		{"C", "2:07pm"},
		{"H", "14"},
		{"L", "14:07:09.123456"},
		{"M", "847"},
		{"S", "50829"},
	}
	for _, tt := range tests {
		t.Run(tt.opt, func(t *testing.T) {
			var args []string
			if tt.opt != "" {
				args = append(args, tt.opt)
			}
			got, err := call(t, Time(), args...)
			if err != nil {
				t.Fatalf("TIME(%q): %v", tt.opt, err)
			}
			if got.String() != tt.want {
				t.Errorf("TIME(%q) = %q, want %q", tt.opt, got.String(), tt.want)
			}
		})
	}
}

func TestDateArithmetic(t *testing.T) {
	tests := []struct {
		name string
		def  functions.CustomFunctionDef
		args []string
		want string
	}{
		{"add days", DateAdd(), []string{"20240228", "2"}, "20240301"},
		{"add months", DateAdd(), []string{"20240131", "1", "M"}, "20240302"},
		{"subtract years", DateAdd(), []string{"20240305", "-4", "Y"}, "20200305"},
		{"diff", DateDiff(), []string{"20240101", "20240305"}, "64"},
		{"negative diff", DateDiff(), []string{"20240305", "20240101"}, "-64"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := call(t, tt.def, tt.args...)
			if err != nil {
				t.Fatalf("%v", err)
			}
			if got.String() != tt.want {
				t.Errorf("got %q, want %q", got.String(), tt.want)
			}
		})
	}
}

func TestDateErrors(t *testing.T) {
	fixedNow(t)
	if _, err := call(t, Date(), "Q"); !types.IsCode(err, types.ErrArgument) {
		t.Errorf("DATE('Q'): err = %v, want ArgumentError", err)
	}
	if _, err := call(t, DateAdd(), "2024-03-05", "1"); !types.IsCode(err, types.ErrArgument) {
		t.Errorf("DATE_ADD bad date: err = %v, want ArgumentError", err)
	}
	if _, err := call(t, DateAdd(), "20240305", "1", "W"); !types.IsCode(err, types.ErrArgument) {
		t.Errorf("DATE_ADD bad unit: err = %v, want ArgumentError", err)
	}
}
