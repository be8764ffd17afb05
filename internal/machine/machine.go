// Package machine ties the scheduler, bus fabric and controller registry
// together into the lifecycle spec.md §3 describes:
// machine_init -> machine_reset -> machine_run -> machine_deinit.
package machine

import (
	"fmt"

	"github.com/intuitionamiga/emux/internal/bus"
	"github.com/intuitionamiga/emux/internal/controller"
	"github.com/intuitionamiga/emux/internal/scheduler"
)

// ComponentSpec names one controller instance a Description wants
// instantiated, in the topological order §3 requires (controllers before
// the CPUs that consult their IRQ lines — callers order the slice
// accordingly; Init runs in slice order).
type ComponentSpec struct {
	Name      string // registry factory name
	Instance  string // this instance's identity, for diagnostics/removal
	BusID     string
	Resources bus.Resources
	MachData  any
}

// Description is the machine description spec.md §3 refers to: a
// declarative list of controller instances with their resources. Each is
// instantiated in declaration order.
type Description struct {
	Name       string
	Components []ComponentSpec
}

// Machine owns the fabric, scheduler and live controller instances for
// one running emulated system.
type Machine struct {
	Fabric    *bus.Fabric
	Scheduler *scheduler.Scheduler
	Registry  *controller.Registry

	live []liveComponent

	// InterruptSink receives every cpu_interrupt(line) call raised by a
	// controller. A machine with multiple CPUs (none of the five target
	// systems needs this, but PSX's sub-CPU coprocessors conceptually
	// could) may fan this out itself.
	InterruptSink func(line int)
}

type liveComponent struct {
	spec ComponentSpec
	ctrl controller.Controller
	inst *controller.Instance
}

// New creates a machine with a fresh fabric and scheduler. pace enables
// wall-clock pacing on the scheduler (disabled in tests).
func New(registry *controller.Registry, pace bool) *Machine {
	return &Machine{
		Fabric:    bus.NewFabric(nil),
		Scheduler: scheduler.New(pace),
		Registry:  registry,
	}
}

// Init instantiates every component in desc, in order. If any component's
// Init fails, every previously-initialized component is deinitialized in
// reverse order before the error is returned (spec.md §7 "InitFailure").
func (m *Machine) Init(desc Description) error {
	for _, spec := range desc.Components {
		ctrl, err := m.Registry.New(spec.Name)
		if err != nil {
			m.deinitLive()
			return err
		}
		inst := &controller.Instance{
			Name:      spec.Instance,
			BusID:     spec.BusID,
			Fabric:    m.Fabric,
			Scheduler: m.Scheduler,
			Resources: spec.Resources,
			MachData:  spec.MachData,
			Interrupt: m.interrupt,
		}
		if err := ctrl.Init(inst); err != nil {
			m.deinitLive()
			return fmt.Errorf("machine %q: %w", desc.Name, err)
		}
		m.live = append(m.live, liveComponent{spec: spec, ctrl: ctrl, inst: inst})
	}
	return nil
}

func (m *Machine) interrupt(line int) {
	if m.InterruptSink != nil {
		m.InterruptSink(line)
	}
}

// deinitLive tears down every live component in reverse order. Used both
// by partial-Init rollback and by the public Deinit.
func (m *Machine) deinitLive() {
	for i := len(m.live) - 1; i >= 0; i-- {
		c := m.live[i]
		c.ctrl.Deinit()
		m.Fabric.RemoveOwner(c.spec.Instance)
	}
	m.live = nil
}

// Reset invokes every registered component's Reset hook, in declaration
// order, without touching registrations (spec.md §3 "machine_reset").
func (m *Machine) Reset() {
	for _, c := range m.live {
		c.ctrl.Reset()
	}
}

// Run starts the scheduler loop; it returns when quit is closed (the
// external Quit event, spec.md §5 "Cancellation / timeout" — there is no
// other exit).
func (m *Machine) Run(quit <-chan struct{}) {
	m.Scheduler.Run(quit)
}

// Deinit reverses every registration in reverse declaration order and
// frees each controller's private state (spec.md §3 "machine_deinit").
func (m *Machine) Deinit() {
	m.deinitLive()
}

// Controller returns the live controller instantiated under instanceName,
// for tests and debug tooling that need to reach into a specific
// peripheral after Init.
func (m *Machine) Controller(instanceName string) (controller.Controller, bool) {
	for _, c := range m.live {
		if c.spec.Instance == instanceName {
			return c.ctrl, true
		}
	}
	return nil, false
}
