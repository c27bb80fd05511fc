package output_test

import (
	"bytes"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"go.trai.ch/kiln/internal/ui/output"
)

func TestProfile_NoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.Equal(t, termenv.Ascii, output.Profile(true))
	assert.Equal(t, termenv.Ascii, output.Profile(false))
}

func TestProfile_NonInteractive(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	assert.Equal(t, termenv.ANSI, output.Profile(false))
}

func TestNew(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	var buf bytes.Buffer
	out := output.New(&buf, false)
	_, _ = out.WriteString(out.String("x").Foreground(termenv.ANSIRed).String())
	assert.Contains(t, buf.String(), "\x1b[", "ANSI profile must emit escapes")
}

func TestNew_NilWriter(t *testing.T) {
	t.Parallel()
	assert.NotNil(t, output.New(nil, true))
}
