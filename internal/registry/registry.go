// Package registry implements spec §4.4.6's responder model registry:
// register up to MaxModels candidate models, activate exactly one at a
// time, and support switching models at runtime. Grounded on the
// teacher's services/hal/internal/core/registry.go RegisterBuilder/lookup
// pattern (panic on duplicate name, map-backed lookup under a mutex).
package registry

import (
	"sync"

	"ja-rule-go/internal/rdmframe"
	"ja-rule-go/x/fmtx"
)

// MaxModels is the registration ceiling spec §4.4.6 names (">= 4");
// the gateway ships seven (basic, led, dimmer, movinglight, network,
// proxy, sensor), so the ceiling is set comfortably above that.
const MaxModels = 8

// Model is the capability set spec §4.4.6 requires every responder model
// to implement: {activate, deactivate, ioctl, handle_request, tasks}.
type Model interface {
	Name() string
	Activate()
	Deactivate()
	Ioctl(cmd string, arg any) (any, error)
	HandleRequest(req rdmframe.Frame) (rdmframe.Frame, bool)
	Tasks()
}

// Registry holds the registered models and tracks which one is active.
type Registry struct {
	mu     sync.Mutex
	models map[string]Model
	order  []string
	active Model
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{models: make(map[string]Model)}
}

// Register adds m under its own Name(). Panics on a duplicate name (a
// programming error, matching RegisterBuilder's panic-on-duplicate) or once
// MaxModels is reached.
func (r *Registry) Register(m Model) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.models[m.Name()]; exists {
		panic(fmtx.Sprintf("registry: duplicate model %q", m.Name()))
	}
	if len(r.models) >= MaxModels {
		panic(fmtx.Sprintf("registry: MaxModels (%d) exceeded registering %q", MaxModels, m.Name()))
	}
	r.models[m.Name()] = m
	r.order = append(r.order, m.Name())
}

// Activate deactivates whichever model is currently active (if any) and
// activates name, per spec §4.4.6's "deactivate the old, activate the
// new" runtime switch.
func (r *Registry) Activate(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.models[name]
	if !ok {
		return false
	}
	if r.active != nil {
		r.active.Deactivate()
	}
	r.active = m
	m.Activate()
	return true
}

// Active returns the currently active model, or nil if none has been
// activated yet.
func (r *Registry) Active() Model {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Names returns the registered model names in registration order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}
