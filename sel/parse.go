package sel

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

var keywords = map[string]bool{
	"and": true, "or": true, "not": true, "all": true,
	"chain": true, "resseq": true, "resid": true, "resname": true,
	"name": true, "element": true, "protein": true, "nucleotide": true,
	"index": true,
}

func isKeyword(s string) bool {
	return keywords[strings.ToLower(s)]
}

type token struct {
	text   string
	quoted bool
	pos    int
}

func (t token) is(word string) bool {
	return !t.quoted && strings.EqualFold(t.text, word)
}

// Parse reads a query expression. It is the inverse of Expr.String.
func Parse(query string) (Expr, error) {
	toks, err := tokenize(query)
	if err != nil {
		return nil, fmt.Errorf("Invalid selection '%s': %s", query, err)
	}
	if len(toks) == 0 {
		return nil, fmt.Errorf("Invalid selection '%s': it is empty", query)
	}
	p := &parser{toks: toks}
	e, err := p.or()
	if err == nil && p.pos < len(p.toks) {
		err = fmt.Errorf("unexpected '%s' at column %d",
			p.toks[p.pos].text, p.toks[p.pos].pos+1)
	}
	if err != nil {
		return nil, fmt.Errorf("Invalid selection '%s': %s", query, err)
	}
	return e, nil
}

// MustParse is like Parse but panics on error.
func MustParse(query string) Expr {
	e, err := Parse(query)
	if err != nil {
		panic(err)
	}
	return e
}

func tokenize(s string) ([]token, error) {
	toks := make([]token, 0)
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case unicode.IsSpace(rune(c)):
			i++
		case c == '(' || c == ')':
			toks = append(toks, token{text: string(c), pos: i})
			i++
		case c == '\'' || c == '"':
			end := strings.IndexByte(s[i+1:], c)
			if end < 0 {
				return nil, fmt.Errorf("unterminated quote at column %d", i+1)
			}
			toks = append(toks, token{text: s[i+1 : i+1+end], quoted: true, pos: i})
			i += end + 2
		default:
			start := i
			for i < len(s) && !unicode.IsSpace(rune(s[i])) &&
				s[i] != '(' && s[i] != ')' {
				i++
			}
			toks = append(toks, token{text: s[start:i], pos: start})
		}
	}
	return toks, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) next() (token, error) {
	t, ok := p.peek()
	if !ok {
		return t, fmt.Errorf("unexpected end of selection")
	}
	p.pos++
	return t, nil
}

func (p *parser) or() (Expr, error) {
	x, err := p.and()
	if err != nil {
		return nil, err
	}
	terms := []Expr{x}
	for {
		t, ok := p.peek()
		if !ok || !t.is("or") {
			break
		}
		p.pos++
		y, err := p.and()
		if err != nil {
			return nil, err
		}
		terms = append(terms, y)
	}
	return Union(terms...), nil
}

func (p *parser) and() (Expr, error) {
	x, err := p.unary()
	if err != nil {
		return nil, err
	}
	terms := []Expr{x}
	for {
		t, ok := p.peek()
		if !ok || !t.is("and") {
			break
		}
		p.pos++
		y, err := p.unary()
		if err != nil {
			return nil, err
		}
		terms = append(terms, y)
	}
	return Intersect(terms...), nil
}

func (p *parser) unary() (Expr, error) {
	t, ok := p.peek()
	if ok && t.is("not") {
		p.pos++
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return Not{x}, nil
	}
	return p.atom()
}

func (p *parser) atom() (Expr, error) {
	t, err := p.next()
	if err != nil {
		return nil, err
	}
	if t.quoted {
		return nil, fmt.Errorf("unexpected value '%s' at column %d",
			t.text, t.pos+1)
	}
	if t.text == "(" {
		x, err := p.or()
		if err != nil {
			return nil, err
		}
		closing, err := p.next()
		if err != nil {
			return nil, err
		}
		if closing.quoted || closing.text != ")" {
			return nil, fmt.Errorf("expected ')' at column %d", closing.pos+1)
		}
		return x, nil
	}

	switch strings.ToLower(t.text) {
	case "all":
		return All{}, nil
	case "protein":
		return Protein{}, nil
	case "nucleotide":
		return Nucleotide{}, nil
	case "chain", "resname", "name", "element", "resseq", "resid", "index":
	default:
		return nil, fmt.Errorf("unknown keyword '%s' at column %d",
			t.text, t.pos+1)
	}

	arg, err := p.next()
	if err != nil {
		return nil, err
	}
	if !arg.quoted && (arg.text == "(" || arg.text == ")") {
		return nil, fmt.Errorf("'%s' needs a value at column %d",
			t.text, t.pos+1)
	}
	switch strings.ToLower(t.text) {
	case "chain":
		return Chain(arg.text), nil
	case "resname":
		return ResName(arg.text), nil
	case "name":
		return Name(arg.text), nil
	case "element":
		return Element(arg.text), nil
	case "resseq":
		start, end, err := parseRange(arg.text)
		if err != nil {
			return nil, err
		}
		return ResSeq{start, end}, nil
	case "index":
		start, end, err := parseRange(arg.text)
		if err != nil {
			return nil, err
		}
		return Index{start, end}, nil
	}

	// resid
	if strings.Contains(arg.text, ":") {
		start, end, err := parseRange(arg.text)
		if err != nil {
			return nil, err
		}
		return ResSeq{start, end}, nil
	}
	return parseResID(arg.text)
}

// parseRange reads "a" or "a:b". Both bounds may be negative.
func parseRange(s string) (int, int, error) {
	colon := strings.IndexByte(s, ':')
	if colon < 0 {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, fmt.Errorf("'%s' is not a residue number", s)
		}
		return n, n, nil
	}
	start, err := strconv.Atoi(s[:colon])
	if err != nil {
		return 0, 0, fmt.Errorf("'%s' is not a valid range", s)
	}
	end, err := strconv.Atoi(s[colon+1:])
	if err != nil {
		return 0, 0, fmt.Errorf("'%s' is not a valid range", s)
	}
	if end < start {
		return 0, 0, fmt.Errorf("the range '%s' is empty", s)
	}
	return start, end, nil
}

// parseResID reads a residue number with an optional insertion code,
// e.g. "52A".
func parseResID(s string) (Expr, error) {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil {
		return nil, fmt.Errorf("'%s' is not a residue id", s)
	}
	return ResID{Num: n, ICode: s[i:]}, nil
}
