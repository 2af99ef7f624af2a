package evaluator

import (
	"sort"
	"strconv"
	"strings"

	"github.com/sandrolain/gorexx/pkg/value"
)

// Environment is a variable pool. Names are stored upper-cased; compound
// names are stored with their tails already substituted ("ARR.1").
//
// A PROCEDURE environment forwards its exposed names (and stems) to the
// caller's environment.
type Environment struct {
	vars    map[string]value.Value
	stems   map[string]value.Value // stem defaults, keyed "STEM."
	parent  *Environment
	exposed map[string]bool
}

// NewEnvironment creates an empty environment.
func NewEnvironment() *Environment {
	return &Environment{
		vars:  make(map[string]value.Value),
		stems: make(map[string]value.Value),
	}
}

// newProcedureEnv creates a local pool forwarding expose to parent.
func newProcedureEnv(parent *Environment, expose []string) *Environment {
	env := NewEnvironment()
	env.parent = parent
	env.exposed = make(map[string]bool, len(expose))
	for _, name := range expose {
		env.exposed[strings.ToUpper(name)] = true
	}
	return env
}

// stemOf returns "STEM." for "STEM.TAIL" and "STEM.", or "" for simple names.
func stemOf(name string) string {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i+1]
	}
	return ""
}

func isStemName(name string) bool {
	return strings.HasSuffix(name, ".") && strings.IndexByte(name, '.') == len(name)-1
}

// owner returns the environment that holds name.
func (e *Environment) owner(name string) *Environment {
	if e.parent == nil {
		return e
	}
	if e.exposed[name] {
		return e.parent.owner(name)
	}
	if stem := stemOf(name); stem != "" && e.exposed[stem] {
		return e.parent.owner(name)
	}
	return e
}

// Get returns the value of a variable. A compound name falls back to the
// array or map held by its base variable ("LIST" for "LIST.2"), then to the
// stem default.
func (e *Environment) Get(name string) (value.Value, bool) {
	return e.get(name, true)
}

// entry is Get without the stem default.
func (e *Environment) entry(name string) (value.Value, bool) {
	return e.get(name, false)
}

func (e *Environment) get(name string, withDefault bool) (value.Value, bool) {
	o := e.owner(name)
	if v, ok := o.vars[name]; ok {
		return v, true
	}
	stem := stemOf(name)
	if stem == "" {
		return value.Empty, false
	}
	if name != stem {
		if v, ok := e.container(stem, name[len(stem):]); ok {
			return v, true
		}
	}
	if d, ok := o.stems[stem]; ok && withDefault {
		return d, true
	}
	return value.Empty, false
}

// container resolves tail against the composite value of the stem's base
// variable. Array index 0 yields the length.
func (e *Environment) container(stem, tail string) (value.Value, bool) {
	base, ok := e.Get(stem[:len(stem)-1])
	if !ok {
		return value.Empty, false
	}
	cur := base
	for _, part := range strings.Split(tail, ".") {
		switch cur.Kind() {
		case value.KindArray:
			i, err := strconv.Atoi(part)
			if err != nil {
				return value.Empty, false
			}
			if i == 0 {
				cur = value.Int(cur.Len())
				continue
			}
			if cur, ok = cur.Index(i); !ok {
				return value.Empty, false
			}
		case value.KindMap:
			if cur, ok = cur.Map().GetFold(part); !ok {
				return value.Empty, false
			}
		default:
			return value.Empty, false
		}
	}
	return cur, true
}

// Has reports whether name is defined.
func (e *Environment) Has(name string) bool {
	_, ok := e.Get(name)
	return ok
}

// Set assigns a variable. Assigning to a stem ("ARR.") drops every compound
// of the stem and sets its default; an array assigned to a stem is expanded
// with SetStem.
func (e *Environment) Set(name string, v value.Value) {
	o := e.owner(name)
	if isStemName(name) {
		if v.Kind() == value.KindArray {
			o.SetStem(name, v.Elements())
			return
		}
		o.dropStem(name)
		o.stems[name] = v
		return
	}
	o.vars[name] = v
}

// SetStem writes stem.1 .. stem.n and stem.0 = n in one call, replacing
// the previous content of the stem.
func (e *Environment) SetStem(stem string, values []value.Value) {
	stem = strings.ToUpper(stem)
	if !strings.HasSuffix(stem, ".") {
		stem += "."
	}
	o := e.owner(stem)
	o.dropStem(stem)
	for i, v := range values {
		o.vars[stem+strconv.Itoa(i+1)] = v
	}
	o.vars[stem+"0"] = value.Int(len(values))
}

func (e *Environment) dropStem(stem string) {
	for k := range e.vars {
		if strings.HasPrefix(k, stem) {
			delete(e.vars, k)
		}
	}
	delete(e.stems, stem)
}

// Drop undefines a variable, or a whole stem.
func (e *Environment) Drop(name string) {
	o := e.owner(name)
	if isStemName(name) {
		o.dropStem(name)
		return
	}
	delete(o.vars, name)
}

// copyTo copies name (a variable, or every entry of a stem) into dst by value.
func (e *Environment) copyTo(dst *Environment, name string) {
	if !isStemName(name) {
		if v, ok := e.Get(name); ok {
			dst.Set(name, v)
		}
		return
	}
	src := e.owner(name)
	if d, ok := src.stems[name]; ok {
		dst.Set(name, d)
	}
	for k, v := range src.vars {
		if strings.HasPrefix(k, name) {
			dst.Set(k, v)
		}
	}
}

// Names returns the defined variable names in sorted order, including
// names exposed from the caller.
func (e *Environment) Names() []string {
	seen := make(map[string]bool, len(e.vars))
	for k := range e.vars {
		seen[k] = true
	}
	for k := range e.stems {
		seen[k] = true
	}
	if e.parent != nil {
		for _, k := range e.parent.Names() {
			if e.owner(k) != e {
				seen[k] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Snapshot returns the string form of every visible variable.
func (e *Environment) Snapshot() map[string]string {
	names := e.Names()
	out := make(map[string]string, len(names))
	for _, k := range names {
		if v, ok := e.Get(k); ok {
			out[k] = v.String()
		}
	}
	return out
}
