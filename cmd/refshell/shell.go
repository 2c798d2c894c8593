package main

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/scriptref/convert"
	"github.com/wippyai/scriptref/ref"
	"github.com/wippyai/scriptref/world"
)

const usage = `statements:
  get <ref>            print the value at ref
  type <ref>           print the script type at ref
  set <ref> <value>    store a value (number, true/false, "string" or bare word)
  apply <dst> <src>    copy the value at src into dst
  entities             list entities and their components
  resources            list resources
  help                 show this text

refs look like Transform@1.translation.x or $Score.value`

// shell executes statements against a world.
type shell struct {
	world *world.World
	log   *zap.Logger
}

func newShell(w *world.World, log *zap.Logger) *shell {
	return &shell{world: w, log: log}
}

// exec runs one statement and returns its output.
func (s *shell) exec(line string) (string, error) {
	cmd, rest := cut(strings.TrimSpace(line))
	s.log.Debug("exec", zap.String("cmd", cmd), zap.String("args", rest))

	switch cmd {
	case "":
		return "", nil
	case "help":
		return usage, nil
	case "get":
		r, err := s.parse(rest)
		if err != nil {
			return "", err
		}
		p, err := r.Primitive()
		if err != nil {
			return "", err
		}
		return p.String(), nil
	case "type":
		r, err := s.parse(rest)
		if err != nil {
			return "", err
		}
		t, err := r.Type()
		if err != nil {
			return "", err
		}
		if wt, ok := convert.WITOf(t); ok {
			return convert.WITName(wt), nil
		}
		return t.String(), nil
	case "set":
		target, value := cut(rest)
		if value == "" {
			return "", fmt.Errorf("usage: set <ref> <value>")
		}
		r, err := s.parse(target)
		if err != nil {
			return "", err
		}
		if err := r.SetValue(parseValue(value)); err != nil {
			return "", err
		}
		return "ok", nil
	case "apply":
		dst, src := cut(rest)
		if src == "" {
			return "", fmt.Errorf("usage: apply <dst> <src>")
		}
		d, err := s.parse(dst)
		if err != nil {
			return "", err
		}
		r, err := s.parse(src)
		if err != nil {
			return "", err
		}
		if err := d.Apply(r); err != nil {
			return "", err
		}
		return "ok", nil
	case "entities":
		var b strings.Builder
		for i, e := range s.world.Entities() {
			if i > 0 {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "%s: %s", e, strings.Join(s.world.ComponentsOf(e), ", "))
		}
		return b.String(), nil
	case "resources":
		return strings.Join(s.world.ResourceNames(), ", "), nil
	default:
		return "", fmt.Errorf("unknown statement %q, try help", cmd)
	}
}

func (s *shell) parse(text string) (*ref.Reference, error) {
	if text == "" {
		return nil, fmt.Errorf("missing reference")
	}
	return ref.Parse(s.world, text)
}

// cut splits off the first whitespace-separated word.
func cut(s string) (head, tail string) {
	s = strings.TrimSpace(s)
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i+1:])
}

// parseValue reads a literal the way a script would write it.
func parseValue(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	case "none", "nil":
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if q, err := strconv.Unquote(s); err == nil {
		return q
	}
	return s
}
