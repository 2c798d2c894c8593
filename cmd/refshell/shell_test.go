package main

import (
	"bytes"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/scriptref/errors"
	"github.com/wippyai/scriptref/world"
)

func newTestShell() *shell {
	return newShell(demoWorld(), zap.NewNop())
}

func TestShell_Statements(t *testing.T) {
	sh := newTestShell()

	tests := []struct {
		stmt string
		want string
	}{
		{"get Transform@1.translation.x", "1"},
		{"get Transform@2.parent", "some(<main.vec3 {1 2 3}>)"},
		{"get Health@1.modifiers{\"armor\"}", "5"},
		{"get $Settings.difficulty", `"normal"`},
		{"type Transform@1.tags", "list<string>"},
		{"type $Score.level", "u8"},
		{"set Transform@1.translation.y 7.5", "ok"},
		{"get Transform@1.translation.y", "7.5"},
		{"set $Score.level 300", "ok"},
		{"get $Score.level", "44"},
		{"set Health@1.current -3.9", "ok"},
		{"get Health@1.current", "-3"},
		{"apply Transform@2.translation Transform@1.translation", "ok"},
		{"get Transform@2.translation.y", "7.5"},
		{"entities", "1: Health, Transform\n2: Transform"},
		{"resources", "Score, Settings"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.stmt, func(t *testing.T) {
			got, err := sh.exec(tt.stmt)
			if err != nil {
				t.Fatalf("exec(%q): %v", tt.stmt, err)
			}
			if got != tt.want {
				t.Errorf("exec(%q) = %q, want %q", tt.stmt, got, tt.want)
			}
		})
	}

	h, _ := world.Get[health](sh.world, 1)
	if h.Current != -3 {
		t.Fatalf("health after set = %+v", h)
	}
}

func TestShell_Errors(t *testing.T) {
	sh := newTestShell()

	tests := []struct {
		stmt string
		kind errors.Kind
	}{
		{"get Transform@1.rotation", errors.KindInvalidReflectionPath},
		{"get Transform@9.scale", errors.KindInvalidBaseReference},
		{"get Velocity@1", errors.KindNotFound},
		{"set $Settings.volume 1", errors.KindInsufficientProvenance},
		{"set Transform@1.tags 3", errors.KindTypeMismatch},
		{"apply Transform@1.scale Health@1", errors.KindTypeMismatch},
		{"get nonsense", errors.KindInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.stmt, func(t *testing.T) {
			_, err := sh.exec(tt.stmt)
			if errors.KindOf(err) != tt.kind {
				t.Fatalf("exec(%q) error = %v, want kind %s", tt.stmt, err, tt.kind)
			}
		})
	}

	for _, stmt := range []string{"set Transform@1.scale", "apply Transform@1", "get", "frobnicate"} {
		if _, err := sh.exec(stmt); err == nil {
			t.Errorf("exec(%q) should fail", stmt)
		}
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"true", true},
		{"none", nil},
		{"-12", int64(-12)},
		{"2.5", 2.5},
		{`"two words"`, "two words"},
		{"bare", "bare"},
	}
	for _, tt := range tests {
		if got := parseValue(tt.in); got != tt.want {
			t.Errorf("parseValue(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestRunScript(t *testing.T) {
	sh := newTestShell()
	in := strings.NewReader(`
# comment
set $Score.value 10
get $Score.value
get $Score.missing
`)
	var out bytes.Buffer
	err := runScript(sh, in, &out)
	if err == nil || !strings.Contains(err.Error(), "1 statements failed") {
		t.Fatalf("runScript error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 || lines[0] != "ok" || lines[1] != "10" || !strings.HasPrefix(lines[2], "line 5:") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}

func TestRunStatements(t *testing.T) {
	sh := newTestShell()
	var out bytes.Buffer
	if err := runStatements(sh, []string{"set $Score.value 3", "get $Score.value"}, &out); err != nil {
		t.Fatal(err)
	}
	if out.String() != "ok\n3\n" {
		t.Fatalf("output = %q", out.String())
	}
	if err := runStatements(sh, []string{"get $Nope"}, &out); err == nil {
		t.Fatal("expected failure")
	}
}

func TestInteractiveModel(t *testing.T) {
	m := newInteractiveModel(newTestShell())

	m.input.SetValue("get $Score.level")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.input.SetValue("get $Nope")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if len(m.log) != 2 {
		t.Fatalf("log has %d entries", len(m.log))
	}
	if m.log[0].output != "1" || m.log[0].err != nil {
		t.Fatalf("first entry = %+v", m.log[0])
	}
	if m.log[1].err == nil {
		t.Fatal("second entry should carry an error")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if m.input.Value() != "get $Nope" {
		t.Fatalf("history recall = %q", m.input.Value())
	}
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if m.input.Value() != "get $Score.level" {
		t.Fatalf("history recall = %q", m.input.Value())
	}

	view := m.View()
	if !strings.Contains(view, "Reference Shell") || !strings.Contains(view, "get $Score.level") {
		t.Fatalf("view missing content:\n%s", view)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("esc should quit")
	}
}

func TestInstallLoggers(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	installLoggers(zap.New(core))
	defer installLoggers(zap.NewNop())

	sh := newShell(demoWorld(), logger.Named("shell"))
	if _, err := sh.exec("get Transform@1.rotation"); err == nil {
		t.Fatal("expected a path error")
	}

	seen := map[string]bool{}
	for _, e := range logs.All() {
		seen[e.LoggerName] = true
	}
	for _, name := range []string{"world", "ref"} {
		if !seen[name] {
			t.Errorf("no %s logs, saw %v", name, seen)
		}
	}
}
