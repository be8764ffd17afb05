// Command emux runs one of the representative machine descriptions
// (systems/nes, systems/gb, systems/sms, systems/psx, systems/chip8)
// against a ROM image, validating it with internal/romset before
// machine_init, then driving machine_run until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/intuitionamiga/emux/frontend"
	"github.com/intuitionamiga/emux/frontend/ebitenvideo"
	"github.com/intuitionamiga/emux/frontend/headless"
	"github.com/intuitionamiga/emux/frontend/otoaudio"
	"github.com/intuitionamiga/emux/frontend/termconsole"
	"github.com/intuitionamiga/emux/frontend/voodoostub"
	"github.com/intuitionamiga/emux/internal/cdrom"
	"github.com/intuitionamiga/emux/internal/debugshell"
	"github.com/intuitionamiga/emux/internal/machine"
	"github.com/intuitionamiga/emux/internal/romset"
	"github.com/intuitionamiga/emux/systems/chip8"
	"github.com/intuitionamiga/emux/systems/gb"
	"github.com/intuitionamiga/emux/systems/nes"
	"github.com/intuitionamiga/emux/systems/psx"
	"github.com/intuitionamiga/emux/systems/sms"
)

func main() {
	var (
		system      = flag.String("system", "", "nes|gb|sms|psx|chip8")
		romPath     = flag.String("rom", "", "path to the ROM/disc image")
		chrPath     = flag.String("chr", "", "path to a separate CHR/pattern-table image (nes/gb/sms)")
		useHeadless = flag.Bool("headless", false, "use in-process audio/video/input stubs instead of real backends")
		videoBackend = flag.String("video", "ebiten", "real-backend video output: ebiten|vulkan (ignored with -headless)")
		debug       = flag.Bool("debug", false, "serve a Lua debug shell on stdin instead of free-running")
	)
	flag.Parse()

	if *system == "" || (*romPath == "" && *system != "chip8" && *system != "psx") {
		fmt.Fprintln(os.Stderr, "usage: emux -system nes|gb|sms|psx|chip8 -rom path [-chr path] [-video ebiten|vulkan] [-headless] [-debug]")
		os.Exit(1)
	}

	entries := romEntries(*system, *romPath, *chrPath)
	if len(entries) > 0 {
		results, err := romset.Validate(context.Background(), entries)
		if err != nil {
			fmt.Fprintf(os.Stderr, "romset: %v\n", err)
			os.Exit(1)
		}
		if !romset.OK(results) {
			for _, r := range romset.Failures(results) {
				fmt.Fprintf(os.Stderr, "romset: %s: %v\n", r.Entry.Name, r.Err)
			}
			os.Exit(1)
		}
	}

	mach, desc, video, err := build(*system, *romPath, *chrPath, *useHeadless, *videoBackend)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build: %v\n", err)
		os.Exit(1)
	}

	if err := mach.Init(desc); err != nil {
		fmt.Fprintf(os.Stderr, "machine_init: %v\n", err)
		os.Exit(1)
	}
	defer mach.Deinit()

	if hud, ok := video.(*ebitenvideo.Output); ok {
		hud.EnableHUD(func() []string {
			var lines []string
			for _, c := range mach.Scheduler.Clocks() {
				lines = append(lines, fmt.Sprintf("%s: %dHz", c.Name, c.RateHz))
			}
			lines = append(lines, fmt.Sprintf("cycles: %d", mach.Scheduler.VirtualCycles()))
			return lines
		})
	}

	quit := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		close(quit)
	}()

	if *debug {
		shell := debugshell.NewShell(mach.Scheduler, func() uint64 { return mach.Scheduler.VirtualCycles() }, os.Stdout)
		defer shell.Close()
		shell.Serve(os.Stdin, quit)
		return
	}

	mach.Run(quit)
}

// romEntries builds the romset.Entry batch for the system's required
// images. chip8/psx accept an empty path (a blank CHIP-8 ROM, or a
// PSX machine with no disc inserted) so neither contributes an entry
// when romPath is empty.
func romEntries(system, romPath, chrPath string) []romset.Entry {
	var entries []romset.Entry
	if romPath != "" {
		entries = append(entries, romset.Entry{Name: "rom", Path: romPath, Kind: romset.DetectKind(romPath)})
	}
	if chrPath != "" {
		entries = append(entries, romset.Entry{Name: "chr", Path: chrPath, Kind: romset.KindROM})
	}
	return entries
}

func build(system, romPath, chrPath string, useHeadless bool, videoBackend string) (*machine.Machine, machine.Description, frontend.VideoOutput, error) {
	switch system {
	case "chip8":
		video, input, err := videoInputBackends(useHeadless, videoBackend, 64, 32)
		if err != nil {
			return nil, machine.Description{}, nil, err
		}
		rom, err := readOptional(romPath)
		if err != nil {
			return nil, machine.Description{}, nil, err
		}
		mach, desc, err := chip8.Build(rom, video, input)
		return mach, desc, video, err

	case "nes":
		audio, video, err := audioVideoBackends(useHeadless, videoBackend, 256, 240)
		if err != nil {
			return nil, machine.Description{}, nil, err
		}
		input, err := inputFrontend(useHeadless)
		if err != nil {
			return nil, machine.Description{}, nil, err
		}
		prg, err := os.ReadFile(romPath)
		if err != nil {
			return nil, machine.Description{}, nil, err
		}
		chr, err := readOptional(chrPath)
		if err != nil {
			return nil, machine.Description{}, nil, err
		}
		mach, desc, err := nes.Build(nes.Cartridge{PRGROM: prg, CHRROM: chr, Mapper: nes.MapperMMC1}, audio, video, input)
		return mach, desc, video, err

	case "gb":
		audio, video, err := audioVideoBackends(useHeadless, videoBackend, 160, 144)
		if err != nil {
			return nil, machine.Description{}, nil, err
		}
		romData, err := os.ReadFile(romPath)
		if err != nil {
			return nil, machine.Description{}, nil, err
		}
		chrData, err := readOptional(chrPath)
		if err != nil {
			return nil, machine.Description{}, nil, err
		}
		mach, desc, err := gb.Build(gb.Cartridge{ROMData: romData, CHRData: chrData}, audio, video)
		return mach, desc, video, err

	case "sms":
		audio, video, err := audioVideoBackends(useHeadless, videoBackend, 256, 192)
		if err != nil {
			return nil, machine.Description{}, nil, err
		}
		input, err := inputFrontend(useHeadless)
		if err != nil {
			return nil, machine.Description{}, nil, err
		}
		romData, err := os.ReadFile(romPath)
		if err != nil {
			return nil, machine.Description{}, nil, err
		}
		chrData, err := readOptional(chrPath)
		if err != nil {
			return nil, machine.Description{}, nil, err
		}
		mach, desc, err := sms.Build(sms.Cartridge{ROMData: romData, CHRData: chrData}, audio, video, input)
		return mach, desc, video, err

	case "psx":
		var source cdrom.Source
		if romPath != "" {
			image, err := os.ReadFile(romPath)
			if err != nil {
				return nil, machine.Description{}, nil, err
			}
			source = headless.NewCdromSource(image)
		}
		mach, desc, err := psx.Build(source)
		return mach, desc, nil, err

	default:
		return nil, machine.Description{}, nil, fmt.Errorf("emux: unknown system %q", system)
	}
}

func readOptional(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	return os.ReadFile(path)
}

// realVideoOutput constructs the video backend named by videoBackend
// ("ebiten" or "vulkan"); any other value is an error.
func realVideoOutput(videoBackend string, width, height, scale int) (frontend.VideoOutput, error) {
	switch videoBackend {
	case "", "ebiten":
		video := ebitenvideo.New()
		if err := video.Init(width, height, 60, scale); err != nil {
			return nil, err
		}
		return video, nil
	case "vulkan":
		video := voodoostub.New()
		if err := video.Init(width, height, 60, scale); err != nil {
			return nil, err
		}
		return video, nil
	default:
		return nil, fmt.Errorf("emux: unknown video backend %q", videoBackend)
	}
}

func audioVideoBackends(useHeadless bool, videoBackend string, width, height int) (frontend.AudioBackend, frontend.VideoOutput, error) {
	if useHeadless {
		audio := headless.NewAudio()
		video := headless.NewVideo()
		if err := video.Init(width, height, 60, 1); err != nil {
			return nil, nil, err
		}
		return audio, video, nil
	}
	audio := otoaudio.New()
	if err := audio.Init(44100); err != nil {
		return nil, nil, err
	}
	video, err := realVideoOutput(videoBackend, width, height, 3)
	if err != nil {
		return nil, nil, err
	}
	return audio, video, nil
}

// inputFrontend returns the input backend a bus-mapped joypad controller
// registers against: the same termconsole backend the real-backend
// video path uses for chip8, or the headless test double.
func inputFrontend(useHeadless bool) (frontend.InputBackend, error) {
	if useHeadless {
		return headless.NewInput(), nil
	}
	input := termconsole.New()
	if err := input.Init(nil); err != nil {
		return nil, err
	}
	return input, nil
}

func videoInputBackends(useHeadless bool, videoBackend string, width, height int) (frontend.VideoOutput, frontend.InputBackend, error) {
	if useHeadless {
		video := headless.NewVideo()
		if err := video.Init(width, height, 60, 1); err != nil {
			return nil, nil, err
		}
		return video, headless.NewInput(), nil
	}
	video, err := realVideoOutput(videoBackend, width, height, 8)
	if err != nil {
		return nil, nil, err
	}
	input := termconsole.New()
	if err := input.Init(nil); err != nil {
		return nil, nil, err
	}
	return video, input, nil
}
