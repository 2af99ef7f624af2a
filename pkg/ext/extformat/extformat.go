// Package extformat provides text format builtins: CSV conversion, {{key}}
// templates and locale-aware number formatting.
package extformat

import (
	"context"
	"encoding/csv"
	"regexp"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/sandrolain/gorexx/pkg/ext/extutil"
	"github.com/sandrolain/gorexx/pkg/functions"
	"github.com/sandrolain/gorexx/pkg/value"
)

var placeholder = regexp.MustCompile(`\{\{(\w+)\}\}`)

// All returns all format builtin definitions.
func All() []functions.CustomFunctionDef {
	return []functions.CustomFunctionDef{
		ParseCSV(),
		ToCSV(),
		Template(),
		FormatNumber(),
		FormatPercent(),
		FormatCurrency(),
	}
}

// AllEntries returns all format builtins as [functions.FunctionEntry].
func AllEntries() []functions.FunctionEntry {
	return extutil.Entries(All())
}

// ParseCSV returns the definition for CSV_PARSE(text [, separator]). The
// first record holds the headers; every later record becomes a map.
func ParseCSV() functions.CustomFunctionDef {
	return extutil.Def("CSV_PARSE", "CSV_PARSE(text [, separator])", 1, 2, func(_ context.Context, args functions.Args) (value.Value, error) {
		r := csv.NewReader(strings.NewReader(args.Positional[0].String()))
		sep, err := extutil.Pad("CSV_PARSE", args, 1, "SEPARATOR")
		if err != nil {
			return value.Empty, err
		}
		if _, ok := args.Get(1, "SEPARATOR"); !ok {
			sep = ","
		}
		r.Comma = []rune(sep)[0]
		r.TrimLeadingSpace = true
		r.FieldsPerRecord = -1

		records, err := r.ReadAll()
		if err != nil {
			return value.Empty, functions.ArgError("CSV_PARSE", "%v", err)
		}
		if len(records) < 2 {
			return value.Array(), nil
		}
		headers := records[0]
		out := make([]value.Value, 0, len(records)-1)
		for _, row := range records[1:] {
			m := value.NewMap()
			for i, h := range headers {
				cell := ""
				if i < len(row) {
					cell = row[i]
				}
				m.Set(h, value.String(cell))
			}
			out = append(out, value.FromMap(m))
		}
		return value.Array(out...), nil
	})
}

// ToCSV returns the definition for CSV_FORMAT(rows [, columns]). rows is an
// array of maps; columns default to the keys of the first row.
func ToCSV() functions.CustomFunctionDef {
	return extutil.Def("CSV_FORMAT", "CSV_FORMAT(rows [, columns])", 1, 2, func(_ context.Context, args functions.Args) (value.Value, error) {
		rows := extutil.Elements(args.Positional[0])
		if len(rows) == 0 {
			return value.Empty, nil
		}
		var columns []string
		if c, ok := args.Get(1, "COLUMNS"); ok {
			for _, col := range extutil.Elements(c) {
				columns = append(columns, col.String())
			}
		} else if first := rows[0].Map(); first != nil {
			columns = append(columns, first.Keys()...)
		}

		var sb strings.Builder
		w := csv.NewWriter(&sb)
		if err := w.Write(columns); err != nil {
			return value.Empty, functions.ArgError("CSV_FORMAT", "%v", err)
		}
		for i, row := range rows {
			m := row.Map()
			if m == nil {
				return value.Empty, functions.ArgError("CSV_FORMAT", "row %d is not a map", i+1)
			}
			rec := make([]string, len(columns))
			for j, col := range columns {
				if v, ok := m.Get(col); ok {
					rec[j] = v.String()
				}
			}
			if err := w.Write(rec); err != nil {
				return value.Empty, functions.ArgError("CSV_FORMAT", "%v", err)
			}
		}
		w.Flush()
		return value.String(strings.TrimSuffix(sb.String(), "\n")), nil
	})
}

// Template returns the definition for TEMPLATE(text, bindings). {{key}}
// placeholders are replaced from the bindings map; unknown keys are left as
// they are.
func Template() functions.CustomFunctionDef {
	return extutil.Def("TEMPLATE", "TEMPLATE(text, bindings)", 2, 2, func(_ context.Context, args functions.Args) (value.Value, error) {
		m, err := extutil.Map("TEMPLATE", args, 1)
		if err != nil {
			return value.Empty, err
		}
		out := placeholder.ReplaceAllStringFunc(args.Positional[0].String(), func(match string) string {
			if v, ok := m.GetFold(match[2 : len(match)-2]); ok {
				return v.String()
			}
			return match
		})
		return value.String(out), nil
	})
}

// defaultLocale is used when no locale argument is given.
const defaultLocale = "en-US"

func printer(fn string, args functions.Args, i int) (*message.Printer, error) {
	locale := extutil.Str(args, i, "LOCALE", defaultLocale)
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, functions.ArgError(fn, "invalid locale %q", locale)
	}
	return message.NewPrinter(tag), nil
}

// FormatNumber returns the definition for FORMAT_NUMBER(n [, locale]),
// which groups digits the way the locale does.
func FormatNumber() functions.CustomFunctionDef {
	return extutil.Def("FORMAT_NUMBER", "FORMAT_NUMBER(n [, locale])", 1, 2, func(_ context.Context, args functions.Args) (value.Value, error) {
		x, err := extutil.Number("FORMAT_NUMBER", args, 0, "N")
		if err != nil {
			return value.Empty, err
		}
		p, err := printer("FORMAT_NUMBER", args, 1)
		if err != nil {
			return value.Empty, err
		}
		return value.String(p.Sprintf("%v", number.Decimal(x))), nil
	})
}

// FormatPercent returns the definition for FORMAT_PERCENT(n [, locale]);
// 0.25 formats as 25%.
func FormatPercent() functions.CustomFunctionDef {
	return extutil.Def("FORMAT_PERCENT", "FORMAT_PERCENT(n [, locale])", 1, 2, func(_ context.Context, args functions.Args) (value.Value, error) {
		x, err := extutil.Number("FORMAT_PERCENT", args, 0, "N")
		if err != nil {
			return value.Empty, err
		}
		p, err := printer("FORMAT_PERCENT", args, 1)
		if err != nil {
			return value.Empty, err
		}
		return value.String(p.Sprintf("%v", number.Percent(x))), nil
	})
}

// FormatCurrency returns the definition for
// FORMAT_CURRENCY(n, code [, locale]), code being an ISO 4217 currency.
func FormatCurrency() functions.CustomFunctionDef {
	return extutil.Def("FORMAT_CURRENCY", "FORMAT_CURRENCY(n, code [, locale])", 2, 3, func(_ context.Context, args functions.Args) (value.Value, error) {
		x, err := extutil.Number("FORMAT_CURRENCY", args, 0, "N")
		if err != nil {
			return value.Empty, err
		}
		code := extutil.Str(args, 1, "CODE", "")
		unit, err := currency.ParseISO(code)
		if err != nil {
			return value.Empty, functions.ArgError("FORMAT_CURRENCY", "unknown currency %q", code)
		}
		p, err := printer("FORMAT_CURRENCY", args, 2)
		if err != nil {
			return value.Empty, err
		}
		return value.String(p.Sprintf("%v", currency.Symbol(unit.Amount(x)))), nil
	})
}
