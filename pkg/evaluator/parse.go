package evaluator

import (
	"context"
	"strings"

	"github.com/sandrolain/gorexx/pkg/types"
	"github.com/sandrolain/gorexx/pkg/value"
)

// execParse runs PARSE. Comma-separated templates take successive
// arguments for PARSE ARG; for the other sources only the first template
// sees the data and the rest see the empty string.
func (e *Evaluator) execParse(ctx context.Context, f *frame, n *types.ASTNode) error {
	spec := n.Parse

	var sources []string
	switch spec.Source {
	case types.ParseArg:
		for _, a := range f.args {
			sources = append(sources, a.String())
		}
	case types.ParsePull:
		line, err := f.sess.pull()
		if err != nil {
			return types.NewError(types.ErrExternal, err.Error(), n.Line).WithCause(err)
		}
		sources = []string{line}
	case types.ParseVar:
		v, err := e.lookup(f, spec.Var)
		if err != nil {
			return err
		}
		sources = []string{v.String()}
	case types.ParseValue:
		v, err := e.eval(ctx, f, n.RHS)
		if err != nil {
			return err
		}
		sources = []string{v.String()}
	}

	for i, group := range splitTemplate(spec.Template) {
		data := ""
		if i < len(sources) {
			data = sources[i]
		}
		switch {
		case spec.Upper:
			data = strings.ToUpper(data)
		case spec.Lower:
			data = strings.ToLower(data)
		}
		e.applyTemplate(f, data, group)
	}
	return nil
}

func splitTemplate(items []*types.TemplateItem) [][]*types.TemplateItem {
	groups := [][]*types.TemplateItem{nil}
	for _, item := range items {
		if item.Kind == types.TemplateComma {
			groups = append(groups, nil)
			continue
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], item)
	}
	return groups
}

// applyTemplate splits data under one template. Targets collect until a
// pattern or position ends their section:
//   - a literal or (var) pattern is searched from the cursor; a missing
//     match ends the section at the end of the data;
//   - an absolute position is 1-based, a relative position counts from
//     the start of the previous pattern; a position before the cursor
//     ends the section at the end of the data.
func (e *Evaluator) applyTemplate(f *frame, data string, items []*types.TemplateItem) {
	var targets []*types.TemplateItem
	cursor, anchor := 0, 0

	for _, item := range items {
		switch item.Kind {
		case types.TemplateTarget, types.TemplateDot:
			targets = append(targets, item)
			continue
		}

		var end, resume int
		switch item.Kind {
		case types.TemplateLiteral, types.TemplateVarPat:
			pat := item.Text
			if item.Kind == types.TemplateVarPat {
				v, _ := f.env.Get(e.symbolName(f, item.Name))
				pat = v.String()
			}
			idx := -1
			if pat != "" {
				idx = strings.Index(data[cursor:], pat)
			}
			if idx < 0 {
				end, resume, anchor = len(data), len(data), len(data)
			} else {
				end = cursor + idx
				resume = end + len(pat)
				anchor = end
			}

		case types.TemplateAbsolute, types.TemplateRelative:
			pos := item.Offset - 1
			if item.Kind == types.TemplateRelative {
				pos = anchor + item.Offset
			}
			pos = min(max(pos, 0), len(data))
			end = pos
			if pos <= cursor {
				end = len(data)
			}
			resume, anchor = pos, pos
		}

		e.assignTargets(f, data[cursor:max(end, cursor)], targets)
		targets = targets[:0]
		cursor = resume
	}

	e.assignTargets(f, data[cursor:], targets)
}

// assignTargets gives a section to its targets. A lone target takes the
// section as is; otherwise each target but the last takes one blank
// delimited word and the last takes the remainder without leading blanks.
// The "." placeholder discards its piece.
func (e *Evaluator) assignTargets(f *frame, section string, targets []*types.TemplateItem) {
	if len(targets) == 0 {
		return
	}
	if len(targets) == 1 {
		e.assignTarget(f, targets[0], section)
		return
	}

	rest := section
	for i, t := range targets {
		rest = strings.TrimLeft(rest, " \t")
		if i == len(targets)-1 {
			e.assignTarget(f, t, rest)
			return
		}
		word := rest
		if j := strings.IndexAny(rest, " \t"); j >= 0 {
			word, rest = rest[:j], rest[j:]
		} else {
			rest = ""
		}
		e.assignTarget(f, t, word)
	}
}

func (e *Evaluator) assignTarget(f *frame, t *types.TemplateItem, piece string) {
	if t.Kind == types.TemplateDot {
		return
	}
	name := t.Name
	if t.Node != nil {
		name = t.Node.Value
	}
	f.env.Set(e.symbolName(f, name), value.String(piece))
}
