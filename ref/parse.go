package ref

import (
	"strconv"
	"strings"

	"github.com/wippyai/scriptref/errors"
	"github.com/wippyai/scriptref/reflectpath"
	"github.com/wippyai/scriptref/world"
)

// Parse builds a reference into w from its textual form:
//
//	Transform@4.translation.x   component Transform on entity 4
//	$Score.value                resource Score
//
// The path part uses reflectpath.Parse syntax.
func Parse(w *world.World, s string) (*Reference, error) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "$"); ok {
		name, tail := splitName(rest)
		if name == "" {
			return nil, errors.InvalidInput(errors.PhaseResolve, "missing resource name in "+strconv.Quote(s))
		}
		res, ok := w.Resource(name)
		if !ok {
			return nil, errors.NotFound(errors.PhaseResolve, "resource", name)
		}
		return withPath(ResourceBase(w, res), tail)
	}

	name, tail := splitName(s)
	if name == "" || !strings.HasPrefix(tail, "@") {
		return nil, errors.InvalidInput(errors.PhaseResolve, "expected Name@entity or $Resource, got "+strconv.Quote(s))
	}
	tail = tail[1:]
	end := 0
	for end < len(tail) && tail[end] >= '0' && tail[end] <= '9' {
		end++
	}
	id, err := strconv.ParseUint(tail[:end], 10, 64)
	if err != nil {
		return nil, errors.InvalidInput(errors.PhaseResolve, "bad entity id in "+strconv.Quote(s))
	}
	comp, ok := w.Component(name)
	if !ok {
		return nil, errors.NotFound(errors.PhaseResolve, "component", name)
	}
	return withPath(ComponentBase(w, comp, world.Entity(id)), tail[end:])
}

func withPath(b Base, s string) (*Reference, error) {
	if s != "" && s[0] != '.' && s[0] != '[' && s[0] != '{' && s[0] != '#' {
		return nil, errors.InvalidInput(errors.PhaseResolve, "unexpected "+strconv.Quote(s)+" after "+b.String())
	}
	p, err := reflectpath.Parse(s)
	if err != nil {
		return nil, err
	}
	return New(b, p...), nil
}

func splitName(s string) (name, rest string) {
	i := strings.IndexAny(s, ".[{#@")
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i:]
}
