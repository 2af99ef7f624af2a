package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sandrolain/gorexx/pkg/types"
)

// parseParse parses the PARSE family:
//
//	PARSE [UPPER|LOWER] ARG template
//	PARSE [UPPER|LOWER] VAR name template
//	PARSE [UPPER|LOWER] VALUE expr WITH template
//	PARSE [UPPER|LOWER] PULL template
//	ARG template                          (PARSE UPPER ARG)
//	PULL template                         (PARSE UPPER PULL)
func (p *Parser) parseParse() (*types.ASTNode, error) {
	n := p.node(types.NodeParse, p.current)
	spec := &types.ParseSpec{}
	n.Parse = spec

	keyword := strings.ToUpper(p.current.Value)
	p.advance()

	switch keyword {
	case "ARG":
		spec.Source = types.ParseArg
		spec.Upper = true
	case "PULL":
		spec.Source = types.ParsePull
		spec.Upper = true
	default:
		switch {
		case p.atKeyword("UPPER"):
			spec.Upper = true
			p.advance()
		case p.atKeyword("LOWER"):
			spec.Lower = true
			p.advance()
		}

		switch {
		case p.atKeyword("ARG"):
			spec.Source = types.ParseArg
			p.advance()
		case p.atKeyword("PULL"):
			spec.Source = types.ParsePull
			p.advance()
		case p.atKeyword("VAR"):
			spec.Source = types.ParseVar
			p.advance()
			if p.current.Type != TokenSymbol {
				return nil, p.unexpected("variable name")
			}
			spec.Var = p.symbolNode(p.current)
			p.advance()
		case p.atKeyword("VALUE"):
			spec.Source = types.ParseValue
			p.advance()
			if !p.atKeyword("WITH") {
				expr, err := p.parseExpression(0)
				if err != nil {
					return nil, err
				}
				n.RHS = expr
			}
			if err := p.expectKeyword("WITH"); err != nil {
				return nil, err
			}
		default:
			return nil, p.unexpected("ARG, VAR, VALUE or PULL")
		}
	}

	template, err := p.parseTemplate()
	if err != nil {
		return nil, err
	}
	spec.Template = template
	return n, nil
}

// parseTemplate parses template elements up to the end of the clause:
// target names, ".", literal patterns, (variable) patterns, absolute
// positions (5, =5), relative positions (+3, -3) and commas.
func (p *Parser) parseTemplate() ([]*types.TemplateItem, error) {
	var items []*types.TemplateItem

	for !p.atClauseEnd() {
		tok := p.current
		item := &types.TemplateItem{}

		switch tok.Type {
		case TokenSymbol:
			item.Kind = types.TemplateTarget
			item.Name = tok.Value
			item.Node = p.symbolNode(tok)
			p.advance()

		case TokenDot:
			item.Kind = types.TemplateDot
			p.advance()

		case TokenString, TokenDString:
			item.Kind = types.TemplateLiteral
			item.Text = tok.Value
			p.advance()

		case TokenParenOpen:
			p.advance()
			if p.current.Type != TokenSymbol {
				return nil, p.unexpected("variable name")
			}
			item.Kind = types.TemplateVarPat
			item.Name = p.current.Value
			p.advance()
			if err := p.expect(TokenParenClose); err != nil {
				return nil, err
			}

		case TokenNumber:
			off, err := p.templateOffset()
			if err != nil {
				return nil, err
			}
			item.Kind = types.TemplateAbsolute
			item.Offset = off

		case TokenEqual, TokenPlus, TokenMinus:
			p.advance()
			off, err := p.templateOffset()
			if err != nil {
				return nil, err
			}
			switch tok.Type {
			case TokenEqual:
				item.Kind = types.TemplateAbsolute
			case TokenPlus:
				item.Kind = types.TemplateRelative
			default:
				item.Kind = types.TemplateRelative
				off = -off
			}
			item.Offset = off

		case TokenComma:
			item.Kind = types.TemplateComma
			p.advance()

		default:
			return nil, p.unexpected("template element")
		}

		items = append(items, item)
	}

	return items, nil
}

func (p *Parser) templateOffset() (int, error) {
	if p.current.Type != TokenNumber {
		return 0, p.unexpected("position")
	}
	off, err := strconv.Atoi(p.current.Value)
	if err != nil || off < 0 {
		return 0, p.error(fmt.Sprintf("invalid template position %s", p.current.Value))
	}
	p.advance()
	return off, nil
}
