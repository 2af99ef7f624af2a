package evaluator

import (
	"fmt"

	"github.com/sandrolain/gorexx/pkg/types"
	"github.com/sandrolain/gorexx/pkg/value"
)

// flowKind is the outcome of executing a statement.
type flowKind uint8

const (
	flowNext flowKind = iota
	flowLeave
	flowIterate
	flowReturn
	flowExit
	flowSignal
)

func (k flowKind) String() string {
	switch k {
	case flowNext:
		return "next"
	case flowLeave:
		return "leave"
	case flowIterate:
		return "iterate"
	case flowReturn:
		return "return"
	case flowExit:
		return "exit"
	case flowSignal:
		return "signal"
	default:
		return "unknown"
	}
}

// flow carries a non-sequential transfer of control up to the construct
// that consumes it: loops take leave/iterate, runUnit takes signal, the
// caller takes return, Run takes exit.
type flow struct {
	kind     flowKind
	label    string // SIGNAL target, LEAVE/ITERATE loop name
	value    value.Value
	hasValue bool
	line     int    // source line of the transfer (SIGL)
	fault    *fault // set when an error handler raised the signal
}

var next = flow{}

// unit is a compilation unit: the main program or one INTERPRET string.
// Labels never resolve across units.
type unit struct {
	prog   *types.Program
	parent *unit
}

// handler is an active SIGNAL ON ERROR.
type handler struct {
	label string
	unit  *unit
}

// loopState is an active repetitive DO.
type loopState struct {
	name string // control variable, empty for unnamed loops
}

// frame is one activation: the main program, a called routine or an
// INTERPRET unit.
type frame struct {
	routine string // upper-cased routine label, types.MainRoutine for unit roots
	unit    *unit
	env     *Environment
	args    []value.Value
	handler *handler
	loops   []*loopState
	pipe    []value.Value // pipe slot values, innermost last
	parent  *frame
	root    bool // first frame of its unit
	depth   int
	sess    *Session
	proc    bool // PROCEDURE already executed
}

// child creates the frame of a routine called from f.
func (f *frame) child(routine string, args []value.Value) *frame {
	c := &frame{
		routine: routine,
		unit:    f.unit,
		env:     f.env,
		args:    args,
		parent:  f,
		depth:   f.depth + 1,
		sess:    f.sess,
	}
	if f.handler != nil {
		h := *f.handler
		c.handler = &h
	}
	return c
}

// pushLoop registers an active loop; the returned func pops it.
func (f *frame) pushLoop(name string) func() {
	f.loops = append(f.loops, &loopState{name: name})
	n := len(f.loops)
	return func() {
		f.loops = f.loops[:n-1]
	}
}

// hasLoop reports whether a loop named name (or any loop, for "") is active.
func (f *frame) hasLoop(name string) bool {
	for i := len(f.loops) - 1; i >= 0; i-- {
		if name == "" || f.loops[i].name == name {
			return true
		}
	}
	return false
}

type savedVar struct {
	name    string
	val     value.Value
	defined bool
}

// saveVars records the current bindings of names; the returned func puts
// them back.
func saveVars(env *Environment, names []string) func() {
	if len(names) == 0 {
		return func() {}
	}
	saved := make([]savedVar, len(names))
	for i, name := range names {
		v, ok := env.Get(name)
		saved[i] = savedVar{name: name, val: v, defined: ok}
	}
	return func() {
		for _, s := range saved {
			if s.defined {
				env.Set(s.name, s.val)
			} else {
				env.Drop(s.name)
			}
		}
	}
}

// saveLoopVars protects the control variables of f's active loops across a
// CALL or INTERPRET.
func (f *frame) saveLoopVars() func() {
	var names []string
	for _, l := range f.loops {
		if l.name != "" {
			names = append(names, l.name)
		}
	}
	return saveVars(f.env, names)
}

// controlError carries a flow out of an expression: a user function that
// ends with SIGNAL or EXIT. execStatement turns it back into a flow.
type controlError struct {
	flow flow
}

func (c *controlError) Error() string {
	return fmt.Sprintf("unconsumed %s", c.flow.kind)
}

// terminalError marks a fault that left its frame without a handler.
// Outer frames do not trap it again.
type terminalError struct {
	err *types.Error
}

func (t *terminalError) Error() string {
	return t.err.Error()
}

func (t *terminalError) Unwrap() error {
	return t.err
}
