package primes

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
)

var ErrParse = errors.New("parse error")

// expr is a parsed Boolean update function.
type expr interface {
	eval(env map[string]bool) bool
	vars(into map[string]struct{})
}

type varExpr string
type constExpr bool
type notExpr struct{ e expr }
type andExpr struct{ l, r expr }
type orExpr struct{ l, r expr }

func (v varExpr) eval(env map[string]bool) bool   { return env[string(v)] }
func (c constExpr) eval(map[string]bool) bool     { return bool(c) }
func (n notExpr) eval(env map[string]bool) bool   { return !n.e.eval(env) }
func (a andExpr) eval(env map[string]bool) bool   { return a.l.eval(env) && a.r.eval(env) }
func (o orExpr) eval(env map[string]bool) bool    { return o.l.eval(env) || o.r.eval(env) }
func (v varExpr) vars(into map[string]struct{})   { into[string(v)] = struct{}{} }
func (constExpr) vars(map[string]struct{})        {}
func (n notExpr) vars(into map[string]struct{})   { n.e.vars(into) }
func (a andExpr) vars(into map[string]struct{})   { a.l.vars(into); a.r.vars(into) }
func (o orExpr) vars(into map[string]struct{})    { o.l.vars(into); o.r.vars(into) }

// exprParser is a recursive descent parser for "!", "&", "|" and parentheses,
// binding in that order.
type exprParser struct {
	tokens []string
	pos    int
}

func tokenize(s string) ([]string, error) {
	var tokens []string
	for i := 0; i < len(s); {
		c := rune(s[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case strings.ContainsRune("!&|()", c):
			tokens = append(tokens, string(c))
			i++
		case isNameRune(c):
			j := i
			for j < len(s) && isNameRune(rune(s[j])) {
				j++
			}
			tokens = append(tokens, s[i:j])
			i = j
		default:
			return nil, fmt.Errorf("%w: unexpected %q", ErrParse, c)
		}
	}
	return tokens, nil
}

func isNameRune(c rune) bool {
	return c == '_' || c == '.' || unicode.IsLetter(c) || unicode.IsDigit(c)
}

func (p *exprParser) peek() string {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return ""
}

func (p *exprParser) next() string {
	t := p.peek()
	p.pos++
	return t
}

func (p *exprParser) parseOr() (expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek() == "|" {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = orExpr{left, right}
	}
	return left, nil
}

func (p *exprParser) parseAnd() (expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peek() == "&" {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = andExpr{left, right}
	}
	return left, nil
}

func (p *exprParser) parseUnary() (expr, error) {
	switch t := p.next(); t {
	case "":
		return nil, fmt.Errorf("%w: unexpected end of expression", ErrParse)
	case "!":
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notExpr{e}, nil
	case "(":
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.next() != ")" {
			return nil, fmt.Errorf("%w: missing ')'", ErrParse)
		}
		return e, nil
	case "0":
		return constExpr(false), nil
	case "1":
		return constExpr(true), nil
	case "&", "|", ")":
		return nil, fmt.Errorf("%w: unexpected %q", ErrParse, t)
	default:
		return varExpr(t), nil
	}
}

func parseExpr(s string) (expr, error) {
	tokens, err := tokenize(s)
	if err != nil {
		return nil, err
	}
	p := &exprParser{tokens: tokens}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos != len(tokens) {
		return nil, fmt.Errorf("%w: trailing %q", ErrParse, p.peek())
	}
	return e, nil
}

// ParseBnet reads a network in bnet format: one "name, expression" rule per line.
// Lines may also be separated by ';'. Variables that are referenced but never
// defined become inputs.
func ParseBnet(r io.Reader) (Network, error) {
	rules := map[string]expr{}
	var order []string
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		for _, line := range strings.Split(sc.Text(), ";") {
			if i := strings.IndexByte(line, '#'); i >= 0 {
				line = line[:i]
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			name, body, ok := strings.Cut(line, ",")
			if !ok {
				return nil, fmt.Errorf("%w: line %d: missing ','", ErrParse, lineNo)
			}
			name, body = strings.TrimSpace(name), strings.TrimSpace(body)
			if strings.EqualFold(name, "targets") && strings.EqualFold(body, "factors") {
				continue
			}
			if name == "" || strings.ContainsFunc(name, func(c rune) bool { return !isNameRune(c) }) {
				return nil, fmt.Errorf("%w: line %d: bad name %q", ErrParse, lineNo, name)
			}
			if _, dup := rules[name]; dup {
				return nil, fmt.Errorf("%w: line %d: %q defined twice", ErrParse, lineNo, name)
			}
			e, err := parseExpr(body)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			rules[name] = e
			order = append(order, name)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	for _, name := range order {
		refs := map[string]struct{}{}
		rules[name].vars(refs)
		for ref := range refs {
			if _, ok := rules[ref]; !ok {
				rules[ref] = varExpr(ref)
			}
		}
	}

	net := make(Network, len(rules))
	for name, e := range rules {
		refs := map[string]struct{}{}
		e.vars(refs)
		support := make([]string, 0, len(refs))
		for ref := range refs {
			support = append(support, ref)
		}
		sort.Strings(support)
		pair, err := computePrimes(support, func(assign uint32) bool {
			env := make(map[string]bool, len(support))
			for i, s := range support {
				env[s] = assign&(1<<i) != 0
			}
			return e.eval(env)
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		net[name] = pair
	}
	return net, nil
}

// ParseBnetString parses bnet text such as "v1, 0; v2, v2".
func ParseBnetString(text string) (Network, error) {
	return ParseBnet(strings.NewReader(text))
}

// MustParse is ParseBnetString for fixtures and tests.
func MustParse(text string) Network {
	net, err := ParseBnetString(text)
	if err != nil {
		panic(err)
	}
	return net
}

// ReadJSON reads primes in the {"name": [[negative...], [positive...]]} layout.
func ReadJSON(r io.Reader) (Network, error) {
	var net Network
	if err := json.NewDecoder(r).Decode(&net); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if err := net.Check(); err != nil {
		return nil, err
	}
	return net, nil
}

// WriteJSON writes primes in the layout ReadJSON accepts.
func WriteJSON(w io.Writer, net Network) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(net)
}

// Load reads a network from a .bnet or .json/.primes file, or from the built-in
// repository when path has the form "repo:NAME".
func Load(path string) (Network, error) {
	if name, ok := strings.CutPrefix(path, "repo:"); ok {
		return Repository(name)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".primes":
		return ReadJSON(f)
	default:
		return ParseBnet(f)
	}
}
