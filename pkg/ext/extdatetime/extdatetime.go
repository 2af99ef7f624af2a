// Package extdatetime provides the DATE and TIME builtins plus simple date
// arithmetic on sorted (yyyymmdd) dates.
package extdatetime

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sandrolain/gorexx/pkg/ext/extutil"
	"github.com/sandrolain/gorexx/pkg/functions"
	"github.com/sandrolain/gorexx/pkg/value"
)

// now is replaced in tests.
var now = time.Now

const sortedLayout = "20060102"

// All returns all date/time builtin definitions.
func All() []functions.CustomFunctionDef {
	return []functions.CustomFunctionDef{
		Date(),
		Time(),
		DateAdd(),
		DateDiff(),
	}
}

// AllEntries returns all date/time builtins as [functions.FunctionEntry].
func AllEntries() []functions.FunctionEntry {
	return extutil.Entries(All())
}

// Date returns the definition for DATE([option]).
//
//	N  dd Mon yyyy (default)   B  days since 1 January 0001
//	D  day of the year         E  dd/mm/yy
//	I  yyyy-mm-dd              M  month name
//	O  yy/mm/dd                S  yyyymmdd
//	U  mm/dd/yy                W  weekday name
func Date() functions.CustomFunctionDef {
	return extutil.Def("DATE", "DATE([option])", 0, 1, func(_ context.Context, args functions.Args) (value.Value, error) {
		opt := extutil.Option(args, 0, "OPTION", "N")
		s, err := formatDate(now(), opt)
		if err != nil {
			return value.Empty, err
		}
		return value.String(s), nil
	})
}

func formatDate(t time.Time, opt string) (string, error) {
	switch opt {
	case "N":
		return fmt.Sprintf("%d %s", t.Day(), t.Format("Jan 2006")), nil
	case "B":
		return fmt.Sprint(baseDays(t)), nil
	case "D":
		return fmt.Sprint(t.YearDay()), nil
	case "E":
		return t.Format("02/01/06"), nil
	case "I":
		return t.Format("2006-01-02"), nil
	case "M":
		return t.Month().String(), nil
	case "O":
		return t.Format("06/01/02"), nil
	case "S":
		return t.Format(sortedLayout), nil
	case "U":
		return t.Format("01/02/06"), nil
	case "W":
		return t.Weekday().String(), nil
	}
	return "", functions.ArgError("DATE", "unknown option %q", opt)
}

func baseDays(t time.Time) int {
	epoch := time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return int((day.Unix() - epoch.Unix()) / 86400)
}

// Time returns the definition for TIME([option]).
//
//	N  hh:mm:ss (default)      C  h:mmam / h:mmpm
//	H  hours since midnight    L  hh:mm:ss.uuuuuu
//	M  minutes since midnight  S  seconds since midnight
func Time() functions.CustomFunctionDef {
	return extutil.Def("TIME", "TIME([option])", 0, 1, func(_ context.Context, args functions.Args) (value.Value, error) {
		t := now()
		opt := extutil.Option(args, 0, "OPTION", "N")
		switch opt {
		case "N":
			return value.String(t.Format("15:04:05")), nil
		case "C":
			return value.String(strings.ToLower(t.Format("3:04PM"))), nil
		case "H":
			return value.Int(t.Hour()), nil
		case "L":
			return value.String(t.Format("15:04:05.000000")), nil
		case "M":
			return value.Int(t.Hour()*60 + t.Minute()), nil
		case "S":
			return value.Int(t.Hour()*3600 + t.Minute()*60 + t.Second()), nil
		}
		return value.Empty, functions.ArgError("TIME", "unknown option %q", opt)
	})
}

// DateAdd returns the definition for DATE_ADD(date, amount [, unit]). date
// is in sorted form; unit is D (days, default), M (months) or Y (years).
func DateAdd() functions.CustomFunctionDef {
	return extutil.Def("DATE_ADD", "DATE_ADD(date, amount [, unit])", 2, 3, func(_ context.Context, args functions.Args) (value.Value, error) {
		t, err := parseSorted("DATE_ADD", args.Positional[0])
		if err != nil {
			return value.Empty, err
		}
		n, ok := args.Positional[1].Int()
		if !ok {
			return value.Empty, functions.ArgError("DATE_ADD", "amount must be a whole number, got %q", args.Positional[1].String())
		}
		switch unit := extutil.Option(args, 2, "UNIT", "D"); unit {
		case "D":
			t = t.AddDate(0, 0, n)
		case "M":
			t = t.AddDate(0, n, 0)
		case "Y":
			t = t.AddDate(n, 0, 0)
		default:
			return value.Empty, functions.ArgError("DATE_ADD", "unknown unit %q", unit)
		}
		return value.String(t.Format(sortedLayout)), nil
	})
}

// DateDiff returns the definition for DATE_DIFF(from, to): the number of days
// from one sorted date to another.
func DateDiff() functions.CustomFunctionDef {
	return extutil.Def("DATE_DIFF", "DATE_DIFF(from, to)", 2, 2, func(_ context.Context, args functions.Args) (value.Value, error) {
		from, err := parseSorted("DATE_DIFF", args.Positional[0])
		if err != nil {
			return value.Empty, err
		}
		to, err := parseSorted("DATE_DIFF", args.Positional[1])
		if err != nil {
			return value.Empty, err
		}
		return value.Int(baseDays(to) - baseDays(from)), nil
	})
}

func parseSorted(fn string, v value.Value) (time.Time, error) {
	t, err := time.Parse(sortedLayout, strings.TrimSpace(v.String()))
	if err != nil {
		return time.Time{}, functions.ArgError(fn, "date must be yyyymmdd, got %q", v.String())
	}
	return t, nil
}
