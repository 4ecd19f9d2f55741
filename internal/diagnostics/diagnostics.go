// Package diagnostics implements a periodic snapshot publisher: measured
// rate, register values as zero-padded hex strings, and small memory
// windows centered on SP and PC. Some Game Boy tooling ships this kind of
// telemetry over MQTT; without an MQTT client on hand this publishes the
// same payload over net/http + encoding/json instead.
package diagnostics

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/fennegan-labs/gbcore/internal/gameboy"
)

// windowDepth matches the reference reporter's STACK_DEPTH: an odd-ish
// split of 4 bytes before and 5 at/after the center address.
const windowDepth = 9

// MemWord pairs a hex-formatted address with the hex-formatted byte there.
type MemWord struct {
	Addr string `json:"addr"`
	Byte string `json:"byte"`
}

// Snapshot is the payload published each tick.
type Snapshot struct {
	FPS       int       `json:"fps"`
	Rate      float64   `json:"rate"`
	Registers Registers `json:"registers"`
	Stack     []MemWord `json:"stack"`
	Program   []MemWord `json:"program"`
}

// Registers mirrors the reference's zero-padded-hex register dump.
type Registers struct {
	AF string `json:"AF"`
	BC string `json:"BC"`
	DE string `json:"DE"`
	HL string `json:"HL"`
	SP string `json:"SP"`
	PC string `json:"PC"`
}

// Publisher samples a Gameboy's state through its audit port on a fixed
// interval and serves the latest Snapshot as JSON over HTTP. It never
// touches the core's mutating ports.
type Publisher struct {
	gb       *gameboy.Gameboy
	interval time.Duration

	mu       sync.RWMutex
	snapshot Snapshot

	srv *http.Server
}

// New constructs a Publisher sampling gb at interval (the reference uses
// a 1/5 s frame period).
func New(gb *gameboy.Gameboy, interval time.Duration) *Publisher {
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	return &Publisher{gb: gb, interval: interval}
}

// ListenAndServe starts the periodic sampler and an HTTP server on addr
// exposing GET /snapshot; it blocks until ctx is canceled, then shuts the
// server down gracefully.
func (p *Publisher) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/snapshot", p.handleSnapshot)
	p.srv = &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- p.srv.ListenAndServe() }()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	lastFrame := time.Now()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = p.srv.Shutdown(shutdownCtx)
			return nil
		case err := <-errCh:
			if err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("diagnostics http server: %w", err)
			}
			return nil
		case now := <-ticker.C:
			fps := int(math.Round(1 / now.Sub(lastFrame).Seconds()))
			lastFrame = now
			p.refresh(fps)
		}
	}
}

func (p *Publisher) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	p.mu.RLock()
	snap := p.snapshot
	p.mu.RUnlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(snap)
}

// refresh recomputes the snapshot by reading the Gameboy's audit port —
// a side-effect-free view, so sampling never perturbs the core.
func (p *Publisher) refresh(fps int) {
	mem := p.gb.Mem.AuditPort()
	c := p.gb.CPU

	snap := Snapshot{
		FPS:  fps,
		Rate: p.gb.MeasuredHz(),
		Registers: Registers{
			AF: hexp(uint16(c.A)<<8|uint16(c.F), 4),
			BC: hexp(uint16(c.B)<<8|uint16(c.C), 4),
			DE: hexp(uint16(c.D)<<8|uint16(c.E), 4),
			HL: hexp(uint16(c.H)<<8|uint16(c.L), 4),
			SP: hexp(c.SP, 4),
			PC: hexp(c.PC, 4),
		},
		Stack:   memWindow(mem, c.SP),
		Program: memWindow(mem, c.PC),
	}

	p.mu.Lock()
	p.snapshot = snap
	p.mu.Unlock()
}

// memWindow reads windowDepth bytes centered on addr, clamped so the
// window never runs off either end of the 16-bit address space (matching
// the reference reporter's clamping logic).
func memWindow(mem interface{ Read(uint16) byte }, addr uint16) []MemWord {
	lower := windowDepth / 2
	upper := windowDepth - lower

	center := int(addr)
	if center+upper > 0x10000 {
		center = 0x10000 - upper
	} else if center-lower < 0 {
		center = lower
	}

	out := make([]MemWord, 0, windowDepth)
	for a := center - lower; a < center+upper; a++ {
		addr16 := uint16(a)
		out = append(out, MemWord{Addr: hexp(addr16, 4), Byte: hexp(uint16(mem.Read(addr16)), 2)})
	}
	return out
}

func hexp(v uint16, width int) string {
	return fmt.Sprintf("%0*x", width, v)
}
