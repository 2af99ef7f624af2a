package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Form selects how numbers too large or too small for plain notation render.
type Form uint8

const (
	FormScientific Form = iota
	FormEngineering
)

// String returns the NUMERIC FORM keyword.
func (f Form) String() string {
	if f == FormEngineering {
		return "ENGINEERING"
	}
	return "SCIENTIFIC"
}

// ParseForm parses a NUMERIC FORM keyword (case-insensitive).
func ParseForm(s string) (Form, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SCIENTIFIC":
		return FormScientific, true
	case "ENGINEERING":
		return FormEngineering, true
	default:
		return FormScientific, false
	}
}

// MaxFloatDigits is the largest precision float64 can represent faithfully.
const MaxFloatDigits = 17

// Numeric holds the NUMERIC DIGITS / FUZZ / FORM settings.
type Numeric struct {
	Digits int
	Fuzz   int
	Form   Form
}

// DefaultNumeric is the initial setting of every session.
var DefaultNumeric = Numeric{Digits: 9, Fuzz: 0, Form: FormScientific}

// Validate checks the invariants 1 <= Digits and 0 <= Fuzz < Digits.
func (n Numeric) Validate() error {
	if n.Digits < 1 {
		return fmt.Errorf("NUMERIC DIGITS must be a positive whole number, got %d", n.Digits)
	}
	if n.Fuzz < 0 || n.Fuzz >= n.Digits {
		return fmt.Errorf("NUMERIC FUZZ must be between 0 and %d, got %d", n.Digits-1, n.Fuzz)
	}
	return nil
}

func (n Numeric) digits() int {
	if n.Digits <= 0 {
		return DefaultNumeric.Digits
	}
	return n.Digits
}

// FromNumber creates a numeric value whose canonical string is f formatted
// under these settings. The cached numeric form is the parse of that string.
func (n Numeric) FromNumber(f float64) Value {
	s := n.Format(f)
	parsed, _ := ParseNumber(s)
	return Value{kind: KindString, str: s, num: &numCache{done: true, ok: true, f: parsed}}
}

// Format renders f with at most Digits significant digits, switching to
// exponential notation when the integer part needs more than Digits digits
// or the fraction needs more than twice Digits.
func (n Numeric) Format(f float64) string {
	if f == 0 || math.IsNaN(f) {
		return "0"
	}
	if math.IsInf(f, 0) {
		if f > 0 {
			return "Infinity"
		}
		return "-Infinity"
	}
	digits := n.digits()
	prec := min(digits, MaxFloatDigits)

	mant, exp := splitExp(strconv.FormatFloat(f, 'e', -1, 64))
	if countDigits(mant) > prec {
		mant, exp = splitExp(strconv.FormatFloat(f, 'e', prec-1, 64))
	}

	neg := strings.HasPrefix(mant, "-")
	mant = strings.TrimPrefix(mant, "-")
	ds := strings.TrimRight(strings.Replace(mant, ".", "", 1), "0")
	if ds == "" {
		return "0"
	}
	nd := len(ds)

	var out string
	switch {
	case exp+1 > digits || nd-1-exp > 2*digits:
		out = n.exponential(ds, exp)
	case exp >= 0:
		if nd <= exp+1 {
			out = ds + strings.Repeat("0", exp+1-nd)
		} else {
			out = ds[:exp+1] + "." + ds[exp+1:]
		}
	default:
		out = "0." + strings.Repeat("0", -exp-1) + ds
	}
	if neg {
		out = "-" + out
	}
	return out
}

func (n Numeric) exponential(ds string, exp int) string {
	intDigits := 1
	if n.Form == FormEngineering {
		m := exp % 3
		if m < 0 {
			m += 3
		}
		intDigits = m + 1
		exp -= m
	}
	for len(ds) < intDigits {
		ds += "0"
	}

	var b strings.Builder
	b.WriteString(ds[:intDigits])
	if len(ds) > intDigits {
		b.WriteByte('.')
		b.WriteString(ds[intDigits:])
	}
	if exp != 0 {
		b.WriteByte('E')
		if exp > 0 {
			b.WriteByte('+')
		}
		b.WriteString(strconv.Itoa(exp))
	}
	return b.String()
}

// Compare compares two numbers after rounding both to Digits-Fuzz
// significant digits. It returns -1, 0 or +1.
func (n Numeric) Compare(a, b float64) int {
	p := min(max(n.digits()-n.Fuzz, 1), MaxFloatDigits)
	ra, rb := roundSig(a, p), roundSig(b, p)
	switch {
	case ra < rb:
		return -1
	case ra > rb:
		return 1
	default:
		return 0
	}
}

// Round rounds f to Digits significant digits.
func (n Numeric) Round(f float64) float64 {
	return roundSig(f, min(n.digits(), MaxFloatDigits))
}

func roundSig(x float64, p int) float64 {
	if x == 0 || math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(x, 'e', p-1, 64), 64)
	if err != nil {
		return x
	}
	return r
}

func splitExp(s string) (string, int) {
	idx := strings.IndexByte(s, 'e')
	if idx < 0 {
		return s, 0
	}
	exp, _ := strconv.Atoi(s[idx+1:])
	return s[:idx], exp
}

func countDigits(mant string) int {
	n := 0
	for i := 0; i < len(mant); i++ {
		if mant[i] >= '0' && mant[i] <= '9' {
			n++
		}
	}
	return n
}

// ParseNumber parses a string in REXX number format: optional surrounding
// blanks, an optional sign (blanks may follow it), digits with an optional
// decimal point, and an optional exponent.
func ParseNumber(s string) (float64, bool) {
	t := strings.Trim(s, " \t")
	if t == "" {
		return 0, false
	}

	i := 0
	neg := false
	if t[0] == '+' || t[0] == '-' {
		neg = t[0] == '-'
		i++
		for i < len(t) && t[i] == ' ' {
			i++
		}
	}
	start := i

	digits := 0
	for i < len(t) && isDigit(t[i]) {
		i++
		digits++
	}
	if i < len(t) && t[i] == '.' {
		i++
		for i < len(t) && isDigit(t[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0, false
	}

	if i < len(t) && (t[i] == 'e' || t[i] == 'E') {
		i++
		if i < len(t) && (t[i] == '+' || t[i] == '-') {
			i++
		}
		expDigits := 0
		for i < len(t) && isDigit(t[i]) {
			i++
			expDigits++
		}
		if expDigits == 0 {
			return 0, false
		}
	}
	if i != len(t) {
		return 0, false
	}

	f, err := strconv.ParseFloat(t[start:], 64)
	if err != nil {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f, true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
