package tui

import (
	"bytes"
	"sync"

	"github.com/vito/midterm"
)

// Pane is a scrollable virtual terminal holding one rule's output.
type Pane struct {
	mu     sync.Mutex
	vt     *midterm.Terminal
	buf    bytes.Buffer
	offset int
	width  int
	height int
}

// NewPane creates an empty pane.
func NewPane() *Pane {
	return &Pane{vt: midterm.NewAutoResizingTerminal(), height: 1, width: 1}
}

// Write feeds rule output to the terminal. A pane scrolled to the bottom follows new output.
func (p *Pane) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	follow := p.offset >= p.maxOffset()
	n, err := p.vt.Write(data)
	if follow {
		p.offset = p.maxOffset()
	}
	return n, err
}

// Resize sets the visible area. Values below one are raised to one.
func (p *Pane) Resize(width, height int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	follow := p.offset >= p.maxOffset()
	p.width, p.height = max(width, 1), max(height, 1)
	p.vt.ResizeX(p.width)
	if follow {
		p.offset = p.maxOffset()
	}
	p.clamp()
}

// Scroll moves the view by delta lines.
func (p *Pane) Scroll(delta int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.offset += delta
	p.clamp()
}

// ScrollPage moves the view by pages.
func (p *Pane) ScrollPage(pages int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.offset += pages * p.height
	p.clamp()
}

// ScrollTop moves the view to the first line.
func (p *Pane) ScrollTop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.offset = 0
}

// ScrollBottom moves the view to the last line, after which the pane follows output.
func (p *Pane) ScrollBottom() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.offset = p.maxOffset()
}

// Offset returns the first visible line.
func (p *Pane) Offset() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.offset
}

// Lines returns the number of lines written so far.
func (p *Pane) Lines() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.vt.UsedHeight()
}

// Height returns the visible height.
func (p *Pane) Height() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.height
}

// View renders the visible lines.
func (p *Pane) View() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.clamp()
	p.buf.Reset()
	used := p.vt.UsedHeight()
	for i := 0; i < p.height && p.offset+i < used; i++ {
		if i > 0 {
			_ = p.buf.WriteByte('\n')
		}
		_ = p.vt.RenderLine(&p.buf, p.offset+i)
	}
	return p.buf.String()
}

func (p *Pane) clamp() {
	p.offset = min(max(p.offset, 0), p.maxOffset())
}

func (p *Pane) maxOffset() int {
	return max(p.vt.UsedHeight()-p.height, 0)
}
