// Command gbcore drives a Gameboy scheduler from a ROM file, optionally
// attaching the REPL debugger, the diagnostics publisher, or a windowed
// presenter, matching the teacher's cmd/gbemu flag-driven CLI idiom.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fennegan-labs/gbcore/internal/cart"
	"github.com/fennegan-labs/gbcore/internal/debugger"
	"github.com/fennegan-labs/gbcore/internal/diagnostics"
	"github.com/fennegan-labs/gbcore/internal/display"
	"github.com/fennegan-labs/gbcore/internal/gameboy"
)

type cliFlags struct {
	ROMPath  string
	BootROM  string
	Headless bool
	Pace     bool
	Debug    bool
	DiagPort string
	Scale    int
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.ROMPath, "rom", "", "path to ROM (.gb)")
	flag.StringVar(&f.BootROM, "bootrom", "", "optional DMG boot ROM")
	flag.BoolVar(&f.Headless, "headless", false, "run without a window")
	flag.BoolVar(&f.Pace, "pace", true, "pace execution to the real DMG clock rate")
	flag.BoolVar(&f.Debug, "debug", false, "attach the REPL debugger on stdin/stdout")
	flag.StringVar(&f.DiagPort, "diagport", "", "address to serve diagnostics snapshots on, e.g. :6060 (disabled if empty)")
	flag.IntVar(&f.Scale, "scale", 3, "window scale")
	flag.Parse()
	return f
}

func mustRead(path string) []byte {
	if path == "" {
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read %s: %v", path, err)
	}
	return b
}

func main() {
	f := parseFlags()

	rom := mustRead(f.ROMPath)
	if len(rom) == 0 {
		log.Fatalf("missing -rom")
	}
	if h, err := cart.ParseHeader(rom); err == nil {
		log.Printf("ROM: %q type=%s banks=%d ram=%dB", h.Title, h.CartTypeStr, h.ROMBanks, h.RAMSizeBytes)
	}

	boot := mustRead(f.BootROM)
	var gb *gameboy.Gameboy
	if len(boot) >= 0x100 {
		gb = gameboy.NewWithBootROM(cart.NewCartridge(rom), boot)
	} else {
		gb = gameboy.New(cart.NewCartridge(rom))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if f.DiagPort != "" {
		pub := diagnostics.New(gb, 0)
		go func() {
			if err := pub.ListenAndServe(ctx, f.DiagPort); err != nil {
				log.Printf("diagnostics server: %v", err)
			}
		}()
	}

	switch {
	case f.Debug:
		debugger.New(gb, os.Stdout).Run(os.Stdin)
	case f.Headless:
		reason := gb.Run(f.Pace)
		if reason == gameboy.StopFault {
			log.Fatalf("emulation fault: %v", gb.CPU.Fault)
		}
		fmt.Printf("stopped: %v, cycles=%d\n", reason, gb.Cycles())
	default:
		app := display.New(gb, f.Scale, f.Pace)
		if err := display.Run(app, "gbcore"); err != nil {
			log.Fatal(err)
		}
	}
}
