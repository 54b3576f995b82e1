package render

import (
	"fmt"
	"io"
	"sync"
)

// ProgressPrinter renders harvest progress as a single self-overwriting line.
// Safe for calls from harvester worker goroutines.
type ProgressPrinter struct {
	w      io.Writer
	mu     sync.Mutex
	active bool
}

// NewProgressPrinter writes progress to w, typically stderr so the table on
// stdout stays pipeable.
func NewProgressPrinter(w io.Writer) *ProgressPrinter {
	return &ProgressPrinter{w: w}
}

// Update redraws the progress line; the final update appends a newline.
func (p *ProgressPrinter) Update(completed, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if total <= 0 {
		return
	}
	p.active = true
	fmt.Fprintf(p.w, "\rScanning open interest %d/%d (%d%%)", completed, total, completed*100/total)
	if completed == total {
		fmt.Fprintln(p.w)
		p.active = false
	}
}

// Clear terminates a partially drawn line, e.g. after an aborted scan.
func (p *ProgressPrinter) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active {
		fmt.Fprintln(p.w)
		p.active = false
	}
}
