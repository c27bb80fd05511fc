// Package output builds termenv outputs with the color rules shared by every kiln
// surface.
package output

import (
	"io"
	"os"

	"github.com/muesli/termenv"
)

// Profile returns the color profile for a surface. NO_COLOR always wins. Interactive
// surfaces detect the terminal; everything else gets plain ANSI so CI logs keep color.
func Profile(interactive bool) termenv.Profile {
	if os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	if interactive {
		return termenv.EnvColorProfile()
	}
	return termenv.ANSI
}

// New creates a termenv.Output writing to w, or to stderr when w is nil.
func New(w io.Writer, interactive bool, opts ...termenv.OutputOption) *termenv.Output {
	if w == nil {
		w = os.Stderr
	}
	opts = append(opts, termenv.WithProfile(Profile(interactive)), termenv.WithTTY(true))
	return termenv.NewOutput(w, opts...)
}
