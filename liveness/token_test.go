package liveness

import (
	"reflect"
	"testing"

	"github.com/wippyai/scriptref/access"
	"github.com/wippyai/scriptref/errors"
)

func TestToken_WeakUpgrade(t *testing.T) {
	v := 42
	tok := NewToken(reflect.ValueOf(&v).Elem())
	weak := tok.Weak()

	up, ok := weak.Upgrade()
	if !ok {
		t.Fatal("Upgrade failed on a live token")
	}
	if err := tok.Drop(); err != nil {
		t.Fatal(err)
	}
	if !weak.Alive() {
		t.Fatal("value should stay alive while an upgraded token is held")
	}
	if err := up.Drop(); err != nil {
		t.Fatal(err)
	}

	if weak.Alive() {
		t.Fatal("value should be dead after the last strong token is dropped")
	}
	if _, ok := weak.Upgrade(); ok {
		t.Fatal("Upgrade should fail on a dead value")
	}
	if tok.Value().IsValid() {
		t.Fatal("dead value should be released")
	}
}

func TestToken_DoubleDrop(t *testing.T) {
	tok := NewToken(reflect.ValueOf(1))
	clone := tok.Clone()

	_ = tok.Drop()
	_ = tok.Drop()
	if !clone.Alive() {
		t.Fatal("double drop of one token must not release another token's count")
	}
	if tok.Clone() != nil {
		t.Fatal("Clone of a dropped token should return nil")
	}
	_ = clone.Drop()
	if clone.Alive() {
		t.Fatal("expected dead after all drops")
	}
}

func TestWeak_Zero(t *testing.T) {
	var w Weak
	if !w.IsZero() || w.Alive() {
		t.Fatal("zero Weak should be unbound and dead")
	}
	if _, ok := w.Upgrade(); ok {
		t.Fatal("zero Weak should not upgrade")
	}
	if _, err := w.Claim(access.Shared); !errors.Is(err, errors.ErrGarbageCollectedAllocation) {
		t.Fatalf("Claim on zero Weak = %v", err)
	}
}

func TestWeak_ClaimDiscipline(t *testing.T) {
	v := "hello"
	tok := NewToken(reflect.ValueOf(&v).Elem())
	w := tok.Weak()

	r1, err := w.Claim(access.Shared)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := w.Claim(access.Shared)
	if err != nil {
		t.Fatal(err)
	}
	if r1.Epoch() == r2.Epoch() {
		t.Fatal("epochs should differ per claim")
	}
	if _, err := w.Claim(access.Exclusive); !errors.Is(err, errors.ErrCannotClaimAccess) {
		t.Fatalf("exclusive while shared held = %v, want CannotClaimAccess", err)
	}
	_ = r1.Release()
	_ = r2.Release()

	wr, err := w.Claim(access.Exclusive)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Claim(access.Shared); !errors.Is(err, errors.ErrCannotClaimAccess) {
		t.Fatalf("shared while exclusive held = %v, want CannotClaimAccess", err)
	}
	wr.Value().SetString("world")
	_ = wr.Release()

	if v != "world" {
		t.Fatalf("write through guard not visible: %q", v)
	}
}

type closer struct {
	closed *int
}

func (c closer) Close() error {
	*c.closed++
	return nil
}

func TestGuard_PinsDeadValue(t *testing.T) {
	closed := 0
	tok := NewToken(reflect.ValueOf(closer{closed: &closed}))
	w := tok.Weak()

	g, err := w.Claim(access.Shared)
	if err != nil {
		t.Fatal(err)
	}
	_ = tok.Drop()

	if g.Alive() {
		t.Fatal("guard should observe that the owner dropped the value")
	}
	if !g.Value().IsValid() {
		t.Fatal("pinned value must stay readable until the guard is released")
	}
	if closed != 0 {
		t.Fatal("value finalized while pinned")
	}
	if _, err := w.Claim(access.Shared); !errors.Is(err, errors.ErrGarbageCollectedAllocation) {
		t.Fatalf("new claim on dead value = %v", err)
	}

	_ = g.Release()
	if closed != 1 {
		t.Fatalf("closed = %d after last pin released, want 1", closed)
	}
	_ = g.Release()
	if closed != 1 {
		t.Fatal("double release finalized twice")
	}
}
