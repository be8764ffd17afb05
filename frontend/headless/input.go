package headless

import "github.com/intuitionamiga/emux/frontend"

// Input is a frontend.InputBackend driven programmatically by tests via
// Inject, instead of reading a real keyboard/gamepad.
type Input struct {
	listeners []frontend.InputConfig
}

func NewInput() *Input { return &Input{} }

func (i *Input) Init(window any) error { return nil }

func (i *Input) Update() {}

func (i *Input) Register(cfg frontend.InputConfig) {
	i.listeners = append(i.listeners, cfg)
}

// Inject dispatches ev to every registered listener synchronously, as
// if Update had just polled it from the host.
func (i *Input) Inject(ev frontend.InputEvent) {
	for _, l := range i.listeners {
		if l.Callback == nil {
			continue
		}
		for _, want := range l.Events {
			if want == ev.Kind {
				l.Callback(ev)
				break
			}
		}
	}
}
