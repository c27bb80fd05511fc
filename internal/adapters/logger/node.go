package logger

import (
	"context"
	"os"
	"strings"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/core/ports"
)

// NodeID is the unique identifier for the logger Graft node.
const NodeID graft.ID = "adapter.logger"

// EnvVar holds comma-separated logger options: "json" and "debug".
const EnvVar = "KILN_LOG"

func init() {
	graft.Register(graft.Node[ports.Logger]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Logger, error) {
			lg := New().(*Logger)
			lg.ApplyEnv(os.Getenv(EnvVar))
			return lg, nil
		},
	})
}

// ApplyEnv enables the options listed in value, formatted like EnvVar. Unknown
// options are ignored. Command-line flags applied later take precedence.
func (l *Logger) ApplyEnv(value string) {
	for opt := range strings.SplitSeq(value, ",") {
		switch strings.ToLower(strings.TrimSpace(opt)) {
		case "json":
			l.SetJSON(true)
		case "debug":
			l.SetVerbose(true)
		}
	}
}
