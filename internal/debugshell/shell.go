package debugshell

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.design/x/clipboard"

	"github.com/intuitionamiga/emux/internal/scheduler"
)

// Command is a parsed shell input line: a name and its whitespace-split
// arguments. Grounded on the teacher's MonitorCommand/ParseCommand shape.
type Command struct {
	Name string
	Args []string
}

// ParseCommand splits a raw input line into a command name and arguments.
func ParseCommand(input string) Command {
	input = strings.TrimSpace(input)
	if input == "" {
		return Command{}
	}
	parts := strings.Fields(input)
	return Command{Name: strings.ToLower(parts[0]), Args: parts[1:]}
}

// Shell is the interactive debug REPL: it drives a scheduler one tick at
// a time, runs Lua on_tick hooks and breakpoint checks after every tick,
// and accepts monitor-style commands from an input stream.
type Shell struct {
	sched  *scheduler.Scheduler
	engine *Engine
	out    io.Writer

	history []string

	clipboardOnce sync.Once
	clipboardOK   bool

	lastBreak string // last breakpoint message, copy target
}

// NewShell creates a shell driving sched, reading the program counter for
// breakpoint checks from pc, and writing output to out.
func NewShell(sched *scheduler.Scheduler, pc func() uint64, out io.Writer) *Shell {
	return &Shell{
		sched:  sched,
		engine: NewEngine(pc),
		out:    out,
	}
}

// Close releases the shell's Lua engine.
func (s *Shell) Close() { s.engine.Close() }

// LoadScript runs a Lua script (break_at/on_tick calls) against the
// shell's engine.
func (s *Shell) LoadScript(path string) error {
	return s.engine.LoadFile(path)
}

// LoadString runs a chunk of Lua source against the shell's engine.
func (s *Shell) LoadString(src string) error {
	return s.engine.LoadString(src)
}

// RunUntilBreak ticks the scheduler until a Lua breakpoint fires or quit
// closes, returning true if it stopped on a breakpoint.
func (s *Shell) RunUntilBreak(quit <-chan struct{}) bool {
	for {
		select {
		case <-quit:
			return false
		default:
		}
		step := s.sched.Tick()
		hit, addr := s.engine.AfterTick(step)
		if hit {
			s.lastBreak = fmt.Sprintf("BREAK at $%X (cycle %d)", addr, s.sched.VirtualCycles())
			fmt.Fprintln(s.out, s.lastBreak)
			return true
		}
		if step == 0 {
			return false
		}
	}
}

// Serve runs the REPL loop against in until it reaches EOF or a "quit"
// command. help/step/continue/break/clear/clip-copy/clip-paste are
// recognized; anything else is run as a Lua chunk, giving scripts and
// interactive commands the same surface.
func (s *Shell) Serve(in io.Reader, quit <-chan struct{}) {
	scanner := bufio.NewScanner(in)
	fmt.Fprintln(s.out, "emux debug shell - type help for commands")
	for scanner.Scan() {
		line := scanner.Text()
		cmd := ParseCommand(line)
		s.history = append(s.history, line)
		switch cmd.Name {
		case "":
			continue
		case "quit", "exit":
			return
		case "help":
			s.printHelp()
		case "continue", "c":
			s.RunUntilBreak(quit)
		case "step", "s":
			step := s.sched.Tick()
			fmt.Fprintf(s.out, "tick consumed %d cycles (total %d)\n", step, s.sched.VirtualCycles())
		case "break", "b":
			s.cmdBreak(cmd.Args)
		case "clear":
			s.engine.LoadString("clear_breakpoints()")
			fmt.Fprintln(s.out, "breakpoints cleared")
		case "clip-copy":
			s.copyLastBreak()
		case "clip-paste":
			s.pasteBreakpoint()
		default:
			if err := s.engine.LoadString(line); err != nil {
				fmt.Fprintf(s.out, "error: %v\n", err)
			}
		}
	}
}

func (s *Shell) cmdBreak(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "usage: break <addr>")
		return
	}
	addr, ok := ParseAddress(args[0])
	if !ok {
		fmt.Fprintf(s.out, "bad address %q\n", args[0])
		return
	}
	s.engine.breakpoints[addr] = true
	fmt.Fprintf(s.out, "breakpoint set at $%X\n", addr)
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, "commands: help, step (s), continue (c), break <addr> (b), clear, clip-copy, clip-paste, quit")
	fmt.Fprintln(s.out, "anything else is run as a Lua chunk (break_at(addr), on_tick(fn) available)")
}

func (s *Shell) ensureClipboard() bool {
	s.clipboardOnce.Do(func() {
		s.clipboardOK = clipboard.Init() == nil
	})
	return s.clipboardOK
}

// copyLastBreak copies the most recent breakpoint message to
// the system clipboard, mirroring the teacher's copy-out-of-the-monitor
// behavior in its video backend.
func (s *Shell) copyLastBreak() {
	if !s.ensureClipboard() {
		fmt.Fprintln(s.out, "clipboard unavailable")
		return
	}
	if s.lastBreak == "" {
		fmt.Fprintln(s.out, "nothing to copy yet")
		return
	}
	// Write returns a channel closed when the clipboard is later
	// overwritten by someone else, not when this write completes — the
	// write itself is synchronous, so the channel is discarded here.
	clipboard.Write(clipboard.FmtText, []byte(s.lastBreak))
	fmt.Fprintln(s.out, "copied")
}

// pasteBreakpoint reads an address out of the system clipboard and arms
// it as a breakpoint.
func (s *Shell) pasteBreakpoint() {
	if !s.ensureClipboard() {
		fmt.Fprintln(s.out, "clipboard unavailable")
		return
	}
	data := clipboard.Read(clipboard.FmtText)
	if len(data) == 0 {
		fmt.Fprintln(s.out, "clipboard empty")
		return
	}
	addr, ok := ParseAddress(strings.TrimSpace(string(data)))
	if !ok {
		fmt.Fprintf(s.out, "clipboard text %q is not a valid address\n", string(data))
		return
	}
	s.engine.breakpoints[addr] = true
	fmt.Fprintf(s.out, "breakpoint set at $%X (from clipboard)\n", addr)
}
