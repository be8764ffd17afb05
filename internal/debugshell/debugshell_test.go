package debugshell

import (
	"bytes"
	"strings"
	"testing"

	"github.com/intuitionamiga/emux/internal/scheduler"
)

func TestParseAddressFormats(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
		ok   bool
	}{
		{"$1000", 0x1000, true},
		{"0x1000", 0x1000, true},
		{"1000", 0x1000, true},
		{"#4096", 4096, true},
		{"$DEAD", 0xDEAD, true},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseAddress(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ParseAddress(%q) = (%X,%v), want (%X,%v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseCommandSplitsNameAndArgs(t *testing.T) {
	cmd := ParseCommand("  break $1000  ")
	if cmd.Name != "break" || len(cmd.Args) != 1 || cmd.Args[0] != "$1000" {
		t.Fatalf("ParseCommand = %+v", cmd)
	}
	if empty := ParseCommand("   "); empty.Name != "" {
		t.Fatalf("ParseCommand(blank) = %+v, want zero value", empty)
	}
}

func TestEngineBreakAtFiresWhenPCMatches(t *testing.T) {
	pc := uint64(0)
	e := NewEngine(func() uint64 { return pc })
	if err := e.LoadString(`break_at(42)`); err != nil {
		t.Fatalf("LoadString: %v", err)
	}

	pc = 10
	if hit, _ := e.AfterTick(1); hit {
		t.Fatalf("breakpoint fired before PC reached target")
	}
	pc = 42
	hit, addr := e.AfterTick(1)
	if !hit || addr != 42 {
		t.Fatalf("AfterTick = (%v,%d), want (true,42)", hit, addr)
	}
}

func TestEngineOnTickRunsEveryCallback(t *testing.T) {
	e := NewEngine(func() uint64 { return 0 })
	if err := e.LoadString(`
ticks = 0
on_tick(function(cycles) ticks = ticks + cycles end)
`); err != nil {
		t.Fatalf("LoadString: %v", err)
	}
	e.AfterTick(3)
	e.AfterTick(4)
	lv := e.state.GetGlobal("ticks")
	if lv.String() != "7" {
		t.Fatalf("ticks = %s, want 7", lv.String())
	}
}

func TestShellStepAndBreakCommands(t *testing.T) {
	sched := scheduler.New(false)
	count := 0
	sched.AddClock(&scheduler.Clock{Name: "cpu", RateHz: 1, Tick: func(ctx *scheduler.TickContext) {
		count++
		ctx.Consume(1)
	}})

	var out bytes.Buffer
	sh := NewShell(sched, func() uint64 { return uint64(count) }, &out)
	defer sh.Close()

	in := strings.NewReader("step\nbreak $2\nquit\n")
	quit := make(chan struct{})
	sh.Serve(in, quit)

	got := out.String()
	if !strings.Contains(got, "tick consumed") {
		t.Fatalf("expected step output, got %q", got)
	}
	if !strings.Contains(got, "breakpoint set at $2") {
		t.Fatalf("expected breakpoint confirmation, got %q", got)
	}
	if !sh.engine.breakpoints[2] {
		t.Fatalf("breakpoint at 2 was not armed")
	}
}

func TestShellRunUntilBreakStopsAtLuaBreakpoint(t *testing.T) {
	sched := scheduler.New(false)
	count := uint64(0)
	sched.AddClock(&scheduler.Clock{Name: "cpu", RateHz: 1, Tick: func(ctx *scheduler.TickContext) {
		count++
		ctx.Consume(1)
	}})

	var out bytes.Buffer
	sh := NewShell(sched, func() uint64 { return count }, &out)
	defer sh.Close()
	if err := sh.LoadString(`break_at(3)`); err != nil {
		t.Fatalf("LoadString: %v", err)
	}

	quit := make(chan struct{})
	if hit := sh.RunUntilBreak(quit); !hit {
		t.Fatalf("expected RunUntilBreak to report a hit")
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
	if !strings.Contains(out.String(), "BREAK at $3") {
		t.Fatalf("expected break message, got %q", out.String())
	}
}
