package reflectpath

import (
	"strconv"
	"strings"

	"github.com/wippyai/scriptref/errors"
)

// Parse reads a path in the form produced by Path.String, resolving hook
// references against the built-in hooks.
//
//	translation.x
//	.items[2]["display name"]
//	.scores{"alice"}
//	.parent#some.name
func Parse(s string) (Path, error) {
	return ParseWith(s, Builtins())
}

// ParseWith is Parse with a caller supplied hook table.
func ParseWith(s string, hooks map[string]*Hook) (Path, error) {
	p := &pathParser{src: s, hooks: hooks}
	return p.parse()
}

type pathParser struct {
	hooks map[string]*Hook
	src   string
	pos   int
}

func (p *pathParser) parse() (Path, error) {
	var out Path
	if p.pos < len(p.src) && isIdentStart(p.src[p.pos]) {
		out = append(out, Field(p.ident()))
	}
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch c {
		case '.':
			p.pos++
			name := p.ident()
			if name == "" {
				return nil, p.fail("expected field name after '.'")
			}
			out = append(out, Field(name))
		case '[':
			e, err := p.bracket()
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		case '{':
			e, err := p.brace()
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		case '#':
			p.pos++
			id := p.ident()
			h, ok := p.hooks[id]
			if !ok {
				return nil, p.fail("unknown hook #" + id)
			}
			out = append(out, Custom(h))
		default:
			return nil, p.fail("unexpected character " + strconv.QuoteRune(rune(c)))
		}
	}
	return out, nil
}

func (p *pathParser) bracket() (Element, error) {
	p.pos++
	end := p.closing(']')
	if end < 0 {
		return Element{}, p.fail("unterminated '['")
	}
	body := strings.TrimSpace(p.src[p.pos:end])
	p.pos = end + 1
	if strings.HasPrefix(body, `"`) {
		name, err := strconv.Unquote(body)
		if err != nil {
			return Element{}, p.fail("bad quoted field " + body)
		}
		return Field(name), nil
	}
	i, err := strconv.Atoi(body)
	if err != nil || i < 0 {
		return Element{}, p.fail("bad index " + strconv.Quote(body))
	}
	return Index(i), nil
}

func (p *pathParser) brace() (Element, error) {
	p.pos++
	end := p.closing('}')
	if end < 0 {
		return Element{}, p.fail("unterminated '{'")
	}
	body := strings.TrimSpace(p.src[p.pos:end])
	p.pos = end + 1
	switch {
	case strings.HasPrefix(body, `"`):
		k, err := strconv.Unquote(body)
		if err != nil {
			return Element{}, p.fail("bad quoted key " + body)
		}
		return Key(k), nil
	case body == "true" || body == "false":
		return Key(body == "true"), nil
	}
	if i, err := strconv.Atoi(body); err == nil {
		return Key(i), nil
	}
	if f, err := strconv.ParseFloat(body, 64); err == nil {
		return Key(f), nil
	}
	return Element{}, p.fail("bad key " + strconv.Quote(body))
}

// closing finds the delimiter ending the current group, skipping quoted text.
func (p *pathParser) closing(delim byte) int {
	inQuote := false
	for i := p.pos; i < len(p.src); i++ {
		switch c := p.src[i]; {
		case inQuote && c == '\\':
			i++
		case c == '"':
			inQuote = !inQuote
		case !inQuote && c == delim:
			return i
		}
	}
	return -1
}

func (p *pathParser) ident() string {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if !isIdentStart(c) && !(p.pos > start && c >= '0' && c <= '9') {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *pathParser) fail(msg string) error {
	return errors.New(errors.PhasePath, errors.KindInvalidInput).
		Value(p.src).
		Detail("%s at offset %d", msg, p.pos).
		Build()
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
