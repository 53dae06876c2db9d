package registry

import (
	"testing"

	"ja-rule-go/internal/rdmframe"
)

type fakeModel struct {
	name      string
	activated bool
	dead      bool
}

func (m *fakeModel) Name() string    { return m.name }
func (m *fakeModel) Activate()       { m.activated = true }
func (m *fakeModel) Deactivate()     { m.dead = true }
func (m *fakeModel) Ioctl(string, any) (any, error) { return nil, nil }
func (m *fakeModel) HandleRequest(rdmframe.Frame) (rdmframe.Frame, bool) { return rdmframe.Frame{}, false }
func (m *fakeModel) Tasks()          {}

func TestActivateSwitchesModels(t *testing.T) {
	r := New()
	a := &fakeModel{name: "basic"}
	b := &fakeModel{name: "led"}
	r.Register(a)
	r.Register(b)

	if !r.Activate("basic") {
		t.Fatal("expected activation to succeed")
	}
	if !a.activated || r.Active() != Model(a) {
		t.Fatal("expected basic active")
	}

	if !r.Activate("led") {
		t.Fatal("expected activation to succeed")
	}
	if !a.dead {
		t.Fatal("expected basic deactivated on switch")
	}
	if !b.activated || r.Active() != Model(b) {
		t.Fatal("expected led active")
	}
}

func TestActivateUnknownNameFails(t *testing.T) {
	r := New()
	if r.Activate("nope") {
		t.Fatal("expected activation of unregistered model to fail")
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	r := New()
	r.Register(&fakeModel{name: "basic"})
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	r.Register(&fakeModel{name: "basic"})
}
