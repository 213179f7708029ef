package kripke

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var ErrParse = errors.New("ctl parse error")

var unaryTemporal = map[string]func(Formula) Formula{
	"EX": func(f Formula) Formula { return EX{F: f} },
	"AX": func(f Formula) Formula { return AX{F: f} },
	"EF": func(f Formula) Formula { return EF{F: f} },
	"AF": func(f Formula) Formula { return AF{F: f} },
	"EG": func(f Formula) Formula { return EG{F: f} },
	"AG": func(f Formula) Formula { return AG{F: f} },
}

type parser struct {
	tokens []string
	pos    int
}

// Parse reads a formula in the syntax String produces: "!", "&", "|", "->",
// the operators EX AX EF AF EG AG, E[p U q], A[p U q], unsteady(v), TRUE and
// FALSE. Operator names are reserved and cannot be used as variables.
func Parse(text string) (Formula, error) {
	tokens, err := lex(text)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	f, err := p.implies()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.tokens) {
		return nil, fmt.Errorf("%w: unexpected %q", ErrParse, p.peek())
	}
	return f, nil
}

// MustParse is Parse for formulas known to be valid.
func MustParse(text string) Formula {
	f, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return f
}

func lex(s string) ([]string, error) {
	var out []string
	for i := 0; i < len(s); {
		c := rune(s[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case strings.HasPrefix(s[i:], "->"):
			out = append(out, "->")
			i += 2
		case strings.ContainsRune("!&|()[]", c):
			out = append(out, string(c))
			i++
		case c == '_' || c == '.' || unicode.IsLetter(c) || unicode.IsDigit(c):
			j := i
			for j < len(s) && (s[j] == '_' || s[j] == '.' || unicode.IsLetter(rune(s[j])) || unicode.IsDigit(rune(s[j]))) {
				j++
			}
			out = append(out, s[i:j])
			i = j
		default:
			return nil, fmt.Errorf("%w: unexpected %q at %d", ErrParse, c, i)
		}
	}
	return out, nil
}

func (p *parser) peek() string {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return ""
}

func (p *parser) expect(tok string) error {
	if got := p.peek(); got != tok {
		return fmt.Errorf("%w: expected %q, got %q", ErrParse, tok, got)
	}
	p.pos++
	return nil
}

func (p *parser) implies() (Formula, error) {
	left, err := p.or()
	if err != nil {
		return nil, err
	}
	if p.peek() != "->" {
		return left, nil
	}
	p.pos++
	right, err := p.implies()
	if err != nil {
		return nil, err
	}
	return Implies{Left: left, Right: right}, nil
}

func (p *parser) or() (Formula, error) {
	first, err := p.and()
	if err != nil {
		return nil, err
	}
	terms := []Formula{first}
	for p.peek() == "|" {
		p.pos++
		t, err := p.and()
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	if len(terms) == 1 {
		return first, nil
	}
	return Or{Terms: terms}, nil
}

func (p *parser) and() (Formula, error) {
	first, err := p.unary()
	if err != nil {
		return nil, err
	}
	terms := []Formula{first}
	for p.peek() == "&" {
		p.pos++
		t, err := p.unary()
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	if len(terms) == 1 {
		return first, nil
	}
	return And{Terms: terms}, nil
}

func (p *parser) unary() (Formula, error) {
	tok := p.peek()
	if tok == "!" {
		p.pos++
		f, err := p.unary()
		if err != nil {
			return nil, err
		}
		return Not{F: f}, nil
	}
	if mk, ok := unaryTemporal[tok]; ok {
		p.pos++
		f, err := p.unary()
		if err != nil {
			return nil, err
		}
		return mk(f), nil
	}
	return p.atom()
}

func (p *parser) atom() (Formula, error) {
	tok := p.peek()
	p.pos++
	switch tok {
	case "":
		return nil, fmt.Errorf("%w: unexpected end of formula", ErrParse)
	case "(":
		f, err := p.implies()
		if err != nil {
			return nil, err
		}
		return f, p.expect(")")
	case "TRUE", "1":
		return True{}, nil
	case "FALSE", "0":
		return False{}, nil
	case "E", "A":
		if err := p.expect("["); err != nil {
			return nil, err
		}
		left, err := p.implies()
		if err != nil {
			return nil, err
		}
		if err := p.expect("U"); err != nil {
			return nil, err
		}
		right, err := p.implies()
		if err != nil {
			return nil, err
		}
		if err := p.expect("]"); err != nil {
			return nil, err
		}
		if tok == "E" {
			return EU{P: left, Q: right}, nil
		}
		return AU{P: left, Q: right}, nil
	case "unsteady":
		if err := p.expect("("); err != nil {
			return nil, err
		}
		name := p.peek()
		if !isIdent(name) {
			return nil, fmt.Errorf("%w: expected variable in unsteady(), got %q", ErrParse, name)
		}
		p.pos++
		return Unsteady{Name: name}, p.expect(")")
	case ")", "]", "&", "|", "->", "U":
		return nil, fmt.Errorf("%w: unexpected %q", ErrParse, tok)
	default:
		if !isIdent(tok) {
			return nil, fmt.Errorf("%w: unexpected %q", ErrParse, tok)
		}
		return Var{Name: tok}, nil
	}
}

func isIdent(tok string) bool {
	if tok == "" || strings.ContainsAny(tok, "!&|()[]") || tok == "->" {
		return false
	}
	if _, ok := unaryTemporal[tok]; ok {
		return false
	}
	return true
}
