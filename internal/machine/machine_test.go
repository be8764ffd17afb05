package machine

import (
	"errors"
	"testing"

	"github.com/intuitionamiga/emux/internal/controller"
)

type recorder struct {
	name  string
	trace *[]string
	fail  bool
}

func (r *recorder) Init(inst *controller.Instance) error {
	*r.trace = append(*r.trace, "init:"+r.name)
	if r.fail {
		return &controller.InitError{Controller: r.name, Kind: controller.KindInitFailure, Detail: "forced failure"}
	}
	return nil
}
func (r *recorder) Reset()  { *r.trace = append(*r.trace, "reset:"+r.name) }
func (r *recorder) Deinit() { *r.trace = append(*r.trace, "deinit:"+r.name) }

func newRegistry(trace *[]string, failing string) *controller.Registry {
	reg := controller.NewRegistry()
	for _, name := range []string{"a", "b", "c"} {
		n := name
		fail := n == failing
		reg.Register(n, func() controller.Controller { return &recorder{name: n, trace: trace, fail: fail} })
	}
	return reg
}

func TestInitRollsBackOnFailureInReverseOrder(t *testing.T) {
	var trace []string
	reg := newRegistry(&trace, "c")
	m := New(reg, false)
	desc := Description{Name: "test", Components: []ComponentSpec{
		{Name: "a", Instance: "a"},
		{Name: "b", Instance: "b"},
		{Name: "c", Instance: "c"},
	}}
	err := m.Init(desc)
	if err == nil {
		t.Fatalf("expected init failure")
	}
	var initErr *controller.InitError
	if !errors.As(err, &initErr) {
		t.Fatalf("expected *controller.InitError in chain, got %v", err)
	}
	want := []string{"init:a", "init:b", "init:c", "deinit:b", "deinit:a"}
	if len(trace) != len(want) {
		t.Fatalf("trace = %v, want %v", trace, want)
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Fatalf("trace = %v, want %v", trace, want)
		}
	}
}

func TestResetDoesNotReregister(t *testing.T) {
	var trace []string
	reg := newRegistry(&trace, "")
	m := New(reg, false)
	desc := Description{Components: []ComponentSpec{{Name: "a", Instance: "a"}}}
	if err := m.Init(desc); err != nil {
		t.Fatal(err)
	}
	trace = nil
	m.Reset()
	if len(trace) != 1 || trace[0] != "reset:a" {
		t.Fatalf("trace = %v", trace)
	}
}

func TestDeinitReversesOrder(t *testing.T) {
	var trace []string
	reg := newRegistry(&trace, "")
	m := New(reg, false)
	desc := Description{Components: []ComponentSpec{
		{Name: "a", Instance: "a"}, {Name: "b", Instance: "b"},
	}}
	if err := m.Init(desc); err != nil {
		t.Fatal(err)
	}
	trace = nil
	m.Deinit()
	want := []string{"deinit:b", "deinit:a"}
	for i := range want {
		if trace[i] != want[i] {
			t.Fatalf("trace = %v, want %v", trace, want)
		}
	}
}

func TestInterruptSinkReceivesLine(t *testing.T) {
	var trace []string
	reg := controller.NewRegistry()
	var gotLine int
	reg.Register("irqsrc", func() controller.Controller {
		return irqSource{trace: &trace}
	})
	m := New(reg, false)
	m.InterruptSink = func(line int) { gotLine = line }
	if err := m.Init(Description{Components: []ComponentSpec{{Name: "irqsrc", Instance: "irqsrc"}}}); err != nil {
		t.Fatal(err)
	}
	ctrl, ok := m.Controller("irqsrc")
	if !ok {
		t.Fatal("controller not found")
	}
	_ = ctrl
	if gotLine != 7 {
		t.Fatalf("InterruptSink got line %d, want 7", gotLine)
	}
}

type irqSource struct{ trace *[]string }

func (irqSource) Init(inst *controller.Instance) error {
	inst.Interrupt(7)
	return nil
}
func (irqSource) Reset()  {}
func (irqSource) Deinit() {}
