package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// Progress is a minimal counter written to stderr, safe for concurrent
// Increment calls from export/import workers. When stderr is not a
// terminal it stays silent except for the final summary line.
type Progress struct {
	mu    sync.Mutex
	w     io.Writer
	label string
	total int
	n     int
	tty   bool
}

// NewProgress starts a counter toward total items.
func NewProgress(label string, total int) *Progress {
	p := &Progress{
		w:     os.Stderr,
		label: label,
		total: total,
		tty:   term.IsTerminal(int(os.Stderr.Fd())),
	}
	p.draw()
	return p
}

// Increment advances the counter by one.
func (p *Progress) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.n++
	p.draw()
}

// Done finishes the line.
func (p *Progress) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tty {
		fmt.Fprintln(p.w)
	}
}

func (p *Progress) draw() {
	if !p.tty {
		return
	}
	fmt.Fprintf(p.w, "\r%s: %d/%d", p.label, p.n, p.total)
}
