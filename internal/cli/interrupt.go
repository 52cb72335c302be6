package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// InterruptHandler cancels a run on SIGINT or SIGTERM and tells the user
// what was kept.
type InterruptHandler struct {
	writer      io.Writer
	sigChan     chan os.Signal
	interrupted bool
	saving      bool
	mu          sync.Mutex
}

// NewInterruptHandler creates a new interrupt handler.
func NewInterruptHandler(writer io.Writer) *InterruptHandler {
	if writer == nil {
		writer = os.Stderr
	}
	return &InterruptHandler{
		writer:  writer,
		sigChan: make(chan os.Signal, 1),
	}
}

// HandleInterrupts returns a context that is canceled on interrupt. saving
// reports whether finished runs are written to history. Signal handling
// stops once the parent context is done.
func (h *InterruptHandler) HandleInterrupts(ctx context.Context, saving bool) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	h.mu.Lock()
	h.saving = saving
	h.mu.Unlock()

	signal.Notify(h.sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(h.sigChan)
		select {
		case <-h.sigChan:
			h.mu.Lock()
			if !h.interrupted {
				h.interrupted = true
				h.showInterruptMessage()
			}
			h.mu.Unlock()
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx
}

// Interrupt behaves as if SIGINT had been received.
func (h *InterruptHandler) Interrupt() {
	select {
	case h.sigChan <- os.Interrupt:
	default:
	}
}

func (h *InterruptHandler) showInterruptMessage() {
	msg := "\n" + FormatWarning("Classification interrupted!")

	if h.saving {
		msg += "\n" + FormatInfo("Finished runs were saved. List them with: atlas history list")
	}
	msg += "\n"

	if _, err := fmt.Fprint(h.writer, msg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write interrupt message: %v\n", err)
	}
}

// WasInterrupted returns true if the process was interrupted.
func (h *InterruptHandler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}
