package logger_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/kiln/internal/adapters/logger"
)

func TestConsoleHandler(t *testing.T) {
	tests := []struct {
		name string
		log  func(l *slog.Logger)
		want string
	}{
		{
			name: "rule prefix",
			log:  func(l *slog.Logger) { l.Info("built", logger.RuleKey, "//pkg:hello") },
			want: "[//pkg:hello] built\n",
		},
		{
			name: "rule from WithAttrs",
			log:  func(l *slog.Logger) { l.With(logger.RuleKey, "//pkg:hello").Warn("slow step") },
			want: "! [//pkg:hello] slow step\n",
		},
		{
			name: "quoted values",
			log:  func(l *slog.Logger) { l.Info("step", "cmd", "cat $SRCS", "empty", "") },
			want: `step cmd="cat $SRCS" empty=""` + "\n",
		},
		{
			name: "groups flatten",
			log: func(l *slog.Logger) {
				l.WithGroup("cache").Info("hit", "tier", "dir", slog.Group("size", "bytes", 12))
			},
			want: "hit cache.tier=dir cache.size.bytes=12\n",
		},
		{
			name: "rule inside group is an attribute",
			log:  func(l *slog.Logger) { l.WithGroup("g").Info("x", logger.RuleKey, "//a:b") },
			want: "x g.rule=//a:b\n",
		},
		{
			name: "debug filtered",
			log:  func(l *slog.Logger) { l.Debug("hidden") },
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", "1")
			var buf bytes.Buffer
			tt.log(slog.New(logger.NewConsoleHandler(&buf, nil)))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}
