package detector_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/detector"
	"go.trai.ch/kiln/internal/core/domain"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestDetect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		tty      bool
		ci       string
		expected detector.OutputMode
	}{
		{name: "TTY without CI", tty: true, expected: detector.ModeTUI},
		{name: "CI=true forces linear mode", tty: true, ci: "true", expected: detector.ModeLinear},
		{name: "CI=1 forces linear mode", tty: true, ci: "1", expected: detector.ModeLinear},
		{name: "CI=false does not force linear", tty: true, ci: "false", expected: detector.ModeTUI},
		{name: "No TTY", tty: false, expected: detector.ModeLinear},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, detector.Detect(tt.tty, env(map[string]string{"CI": tt.ci})))
		})
	}
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	for flag, want := range map[string]detector.OutputMode{
		"":       detector.ModeAuto,
		"auto":   detector.ModeAuto,
		"tui":    detector.ModeTUI,
		"linear": detector.ModeLinear,
		"ci":     detector.ModeLinear,
	} {
		got, err := detector.ParseMode(flag)
		require.NoError(t, err)
		assert.Equal(t, want, got, flag)
	}

	_, err := detector.ParseMode("fancy")
	require.ErrorContains(t, err, domain.ErrInvalidArgument.Error())
}

func TestResolveMode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, detector.ModeTUI, detector.ResolveMode(detector.ModeTUI, detector.ModeAuto))
	assert.Equal(t, detector.ModeLinear, detector.ResolveMode(detector.ModeTUI, detector.ModeLinear))
	assert.Equal(t, "linear", detector.ModeLinear.String())
}
