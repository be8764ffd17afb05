// Package controller defines the lifecycle and resource-binding protocol
// every peripheral in the core implements (spec.md §4.3). It replaces the
// teacher's implicit "every chip has a Reset()" convention
// (component_reset.go) with an explicit interface plus a declarative
// registry table, per the REDESIGN FLAGS note on replacing
// compiler-specific constructor auto-registration with an explicit table
// walked once at startup.
package controller

import (
	"fmt"

	"github.com/intuitionamiga/emux/internal/bus"
	"github.com/intuitionamiga/emux/internal/scheduler"
)

// Controller is the uniform peripheral lifecycle: Init allocates private
// state and performs every registration (regions, ports, clocks, DMA
// channels, IRQ lines); Reset reinitializes state without
// re-registering anything; Deinit reverses every registration Init made
// and frees private state.
type Controller interface {
	Init(inst *Instance) error
	Reset()
	Deinit()
}

// Cpu is the opaque CPU tick adapter contract (spec.md §1 "CPU
// instruction decoders ... treat as opaque tick functions consuming
// cycles via the scheduler API"). A Cpu is a Controller that additionally
// steps and accepts interrupt lines through Irq,
// so a machine description's IRQ wiring has somewhere to deliver
// Instance.Interrupt calls without this package needing to know anything
// about instruction semantics. Real 6502/Z80/M68K/x86 decoders are
// out-of-pack collaborators that implement this same interface; only
// internal/chip8 is a complete in-repo example.
type Cpu interface {
	Controller
	// Step advances the CPU by one instruction (or one opaque unit of
	// work for a stub adapter) and returns the number of cycles it
	// consumed, for the caller to report to the scheduler via
	// ctx.Consume.
	Step() int
	// Irq latches a pending interrupt on the named line. Edge vs level
	// semantics are the Cpu implementation's responsibility.
	Irq(line int)
}

// Instance is what a controller's Init receives: its bus id, the
// resources the machine description bound to it, an opaque payload
// supplied by the machine description, and the shared fabric to register
// against.
type Instance struct {
	Name      string
	BusID     string
	Fabric    *bus.Fabric
	Scheduler *scheduler.Scheduler
	Resources bus.Resources
	MachData  any

	// Interrupt delivers a synchronous cpu_interrupt(line) call
	// (spec.md §5 "Ordering"): it sets a pending bit the CPU examines on
	// its next tick boundary. Edge vs level semantics are the caller's
	// responsibility.
	Interrupt func(line int)
}

// Require resolves a named, typed resource or returns a Resource-kind
// InitError. Controllers call this from Init before registering
// anything, so a missing resource aborts cleanly before partial state is
// built (spec.md §7 "Resource").
func (inst *Instance) Require(name string, kind bus.Kind) (bus.Resource, error) {
	r, ok := inst.Resources.Find(name, kind)
	if !ok {
		return bus.Resource{}, &InitError{
			Controller: inst.Name,
			Kind:       KindResource,
			Detail:     fmt.Sprintf("missing %s resource %q", kind, name),
		}
	}
	return r, nil
}

// ErrKind enumerates the controller-lifecycle error kinds of spec.md §7.
type ErrKind int

const (
	KindNotFound ErrKind = iota
	KindResource
	KindInitFailure
	KindMalformedImage
)

func (k ErrKind) String() string {
	switch k {
	case KindNotFound:
		return "not-found"
	case KindResource:
		return "resource"
	case KindInitFailure:
		return "init-failure"
	case KindMalformedImage:
		return "malformed-image"
	default:
		return "unknown"
	}
}

// InitError reports a failure during a controller's Init. Surrounding
// controllers that already initialized successfully must be deinitialized
// in reverse order by the caller (machine.Init does this).
type InitError struct {
	Controller string
	Kind       ErrKind
	Detail     string
	Err        error
}

func (e *InitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("controller %q init (%s): %s: %v", e.Controller, e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("controller %q init (%s): %s", e.Controller, e.Kind, e.Detail)
}

func (e *InitError) Unwrap() error { return e.Err }

// Factory constructs a fresh, unconfigured Controller instance. Registry
// entries hold a Factory rather than a live Controller so a machine
// description can instantiate the same controller type more than once
// (e.g. two independent DMA-FIFO engines).
type Factory func() Controller

// Registry is the explicit (name, factory) table spec.md §9 calls for in
// place of section-based auto-registration: a compile-time map walked
// once at machine_init.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a named factory. It panics on a duplicate name, since
// that can only happen from a programming error in the registry table
// itself (never from guest/runtime input).
func (r *Registry) Register(name string, f Factory) {
	if _, dup := r.factories[name]; dup {
		panic(fmt.Sprintf("controller: duplicate registration for %q", name))
	}
	r.factories[name] = f
}

// New instantiates the controller registered under name, or a
// NotFound-kind error if no such name was registered.
func (r *Registry) New(name string) (Controller, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, &InitError{Controller: name, Kind: KindNotFound, Detail: "no factory registered for this name"}
	}
	return f(), nil
}
