package tui_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/tui"
)

func lines(n int) string {
	var b strings.Builder
	for i := range n {
		if i > 0 {
			b.WriteString("\r\n")
		}
		b.WriteString(string(rune('a' + i)))
	}
	return b.String()
}

func TestPane_FollowsOutput(t *testing.T) {
	t.Parallel()

	p := tui.NewPane()
	p.Resize(20, 3)
	_, err := p.Write([]byte(lines(6)))
	require.NoError(t, err)

	assert.Equal(t, 6, p.Lines())
	assert.Equal(t, 3, p.Offset())
	view := p.View()
	assert.Contains(t, view, "f")
	assert.NotContains(t, view, "c")
	assert.Equal(t, 2, strings.Count(view, "\n"))
}

func TestPane_ScrolledUpStays(t *testing.T) {
	t.Parallel()

	p := tui.NewPane()
	p.Resize(20, 2)
	_, _ = p.Write([]byte(lines(4) + "\r\n"))
	p.ScrollTop()
	_, _ = p.Write([]byte("more\r\n"))
	assert.Equal(t, 0, p.Offset())

	p.ScrollBottom()
	_, _ = p.Write([]byte("tail\r\n"))
	assert.Equal(t, p.Lines()-p.Height(), p.Offset())
}

func TestPane_ScrollClamps(t *testing.T) {
	t.Parallel()

	p := tui.NewPane()
	p.Resize(20, 2)
	_, _ = p.Write([]byte(lines(4)))

	p.Scroll(-10)
	assert.Equal(t, 0, p.Offset())
	p.Scroll(10)
	assert.Equal(t, 2, p.Offset())
	p.ScrollPage(-1)
	assert.Equal(t, 0, p.Offset())
	p.ScrollPage(1)
	assert.Equal(t, 2, p.Offset())
}

func TestPane_ResizeMinimum(t *testing.T) {
	t.Parallel()

	p := tui.NewPane()
	p.Resize(0, -4)
	assert.Equal(t, 1, p.Height())
}
