package gateway

import (
	"testing"

	"ja-rule-go/internal/rdmframe"
	"ja-rule-go/internal/registry"
	"ja-rule-go/types"
)

type fakeModel struct {
	name        string
	responded   bool
	deactivated bool
}

func (m *fakeModel) Name() string { return m.name }
func (m *fakeModel) Activate()    {}
func (m *fakeModel) Deactivate()  { m.deactivated = true }
func (m *fakeModel) Ioctl(string, any) (any, error) { return nil, nil }
func (m *fakeModel) HandleRequest(rdmframe.Frame) (rdmframe.Frame, bool) {
	m.responded = true
	return rdmframe.Frame{PID: 0x0060}, true
}
func (m *fakeModel) Tasks() {}

func TestHandleInboundRDMRequiresResponderMode(t *testing.T) {
	reg := registry.New()
	model := &fakeModel{name: "basic"}
	reg.Register(model)
	reg.Activate("basic")

	g := New(reg, types.NewUID(1, 1))
	if _, ok := g.HandleInboundRDM(rdmframe.Frame{}); ok {
		t.Fatal("expected no dispatch while in controller mode")
	}

	g.SetMode(types.ModeResponder)
	if _, ok := g.HandleInboundRDM(rdmframe.Frame{}); !ok || !model.responded {
		t.Fatal("expected dispatch to the active model in responder mode")
	}
}

func TestHandleInboundRDMNoActiveModel(t *testing.T) {
	reg := registry.New()
	g := New(reg, types.NewUID(1, 1))
	g.SetMode(types.ModeResponder)
	if _, ok := g.HandleInboundRDM(rdmframe.Frame{}); ok {
		t.Fatal("expected no dispatch without an active model")
	}
}

func TestResetAllReturnsToControllerModeAndDeactivates(t *testing.T) {
	reg := registry.New()
	model := &fakeModel{name: "basic"}
	reg.Register(model)
	reg.Activate("basic")

	g := New(reg, types.NewUID(1, 1))
	g.SetMode(types.ModeResponder)
	g.ResetAll()

	if g.Mode() != types.ModeController {
		t.Fatal("expected ResetAll to return to controller mode")
	}
	if !model.deactivated {
		t.Fatal("expected ResetAll to deactivate the active model")
	}
}
