// Package ui provides terminal UI components for recall.
// This file implements the progress line shown while transcripts are scanned.
package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// minRedraw throttles TTY redraws.
const minRedraw = 50 * time.Millisecond

// ScanProgress renders "Scanning transcripts [n/N]" on one line, redrawn in
// place on a terminal. On a non-terminal it prints only the final count.
type ScanProgress struct {
	mu       sync.Mutex
	out      io.Writer
	isTTY    bool
	label    string
	done     int
	total    int
	started  time.Time
	lastDraw time.Time
	drawn    bool
}

// NewScanProgress creates a ScanProgress writing to stderr.
func NewScanProgress() *ScanProgress {
	return newScanProgress(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())))
}

func newScanProgress(out io.Writer, isTTY bool) *ScanProgress {
	return &ScanProgress{
		out:     out,
		isTTY:   isTTY,
		label:   "Scanning transcripts",
		started: time.Now(),
	}
}

// Update records progress. Its signature matches search.ProgressFunc.
func (p *ScanProgress) Update(done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = done
	p.total = total

	if !p.isTTY {
		return
	}
	if done < total && time.Since(p.lastDraw) < minRedraw {
		return
	}
	p.renderTTY()
}

// Finish clears the live line on a terminal, or prints a summary line otherwise.
func (p *ScanProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isTTY {
		if p.drawn {
			fmt.Fprint(p.out, "\r\033[2K")
		}
		return
	}
	if p.total > 0 {
		fmt.Fprintf(p.out, "%s [%d/%d] in %s\n", p.label, p.done, p.total, formatDuration(time.Since(p.started)))
	}
}

// renderTTY redraws the line in place.
func (p *ScanProgress) renderTTY() {
	fmt.Fprintf(p.out, "\r\033[2K\033[90m%s [%d/%d]\033[0m", p.label, p.done, p.total)
	p.lastDraw = time.Now()
	p.drawn = true
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm%ds", m, s)
}
