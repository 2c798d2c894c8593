package ref

import (
	"testing"

	"github.com/wippyai/scriptref/errors"
)

func TestParse(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		in   string
		want string
	}{
		{"transform@1.Translation.X", "(transform on 1).Translation.X"},
		{"transform@1", "(transform on 1)"},
		{"transform@1.Tags[0]", "(transform on 1).Tags[0]"},
		{`transform@1.Meta{"speed"}`, `(transform on 1).Meta{"speed"}`},
		{"$score.Value", "(Resource score).Value"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			r, err := Parse(f.w, tt.in)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if r.String() != tt.want {
				t.Errorf("String() = %q, want %q", r.String(), tt.want)
			}
			if _, err := r.Value(); err != nil {
				t.Errorf("Value: %v", err)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		in   string
		kind errors.Kind
	}{
		{"transform", errors.KindInvalidInput},
		{"transform@", errors.KindInvalidInput},
		{"transform@1x", errors.KindInvalidInput},
		{"$", errors.KindInvalidInput},
		{"nope@1", errors.KindNotFound},
		{"$nope", errors.KindNotFound},
		{"transform@1.", errors.KindInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := Parse(f.w, tt.in)
			if errors.KindOf(err) != tt.kind {
				t.Errorf("Parse(%q) = %v, want kind %q", tt.in, err, tt.kind)
			}
		})
	}
}
