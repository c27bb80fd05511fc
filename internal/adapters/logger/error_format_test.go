package logger_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/logger"
	"go.trai.ch/zerr"
)

func TestCollectErrorEntries(t *testing.T) {
	t.Parallel()

	t.Run("standard error", func(t *testing.T) {
		t.Parallel()
		entries := logger.CollectErrorEntriesExported(errors.New("plain"))
		require.Len(t, entries, 1)
		assert.Equal(t, "plain", entries[0].Message)
		assert.Nil(t, entries[0].Metadata)
	})

	t.Run("wrapped chain ends at standard error", func(t *testing.T) {
		t.Parallel()
		err := zerr.Wrap(zerr.Wrap(errors.New("root cause"), "middle"), "outer")
		entries := logger.CollectErrorEntriesExported(err)
		messages := make([]string, len(entries))
		for i, e := range entries {
			messages[i] = e.Message
		}
		assert.Equal(t, []string{"outer", "middle", "root cause"}, messages)
	})

	t.Run("metadata stays on its link", func(t *testing.T) {
		t.Parallel()
		inner := zerr.With(zerr.New("inner"), "path", "src/a.txt")
		err := zerr.With(zerr.With(zerr.Wrap(inner, "outer"), "target", "//a:a"), "step", "exec")
		entries := logger.CollectErrorEntriesExported(err)
		require.Len(t, entries, 2)
		assert.Equal(t, map[string]any{"target": "//a:a", "step": "exec"}, entries[0].Metadata)
		assert.Equal(t, map[string]any{"path": "src/a.txt"}, entries[1].Metadata)
	})
}

func TestFormatErrorEntries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		entries []logger.ErrorEntry
		want    string
	}{
		{
			name:    "single entry",
			entries: []logger.ErrorEntry{{Message: "single error"}},
			want:    "Error: single error",
		},
		{
			name:    "causes",
			entries: []logger.ErrorEntry{{Message: "first"}, {Message: "second"}, {Message: "third"}},
			want:    "Error: first\n\n  Caused by:\n    → second\n    → third",
		},
		{
			name: "metadata sorted",
			entries: []logger.ErrorEntry{{
				Message:  "error",
				Metadata: map[string]any{"zebra": "z", "alpha": "a", "mike": 3},
			}},
			want: "Error: error\n       alpha: a\n       mike: 3\n       zebra: z",
		},
		{
			name: "metadata on cause",
			entries: []logger.ErrorEntry{
				{Message: "main"},
				{Message: "cause", Metadata: map[string]any{"cause_key": "cause_val"}},
			},
			want: "Error: main\n\n  Caused by:\n    → cause\n      cause_key: cause_val",
		},
		{
			name:    "multiline message",
			entries: []logger.ErrorEntry{{Message: "main"}, {Message: "cause line1\ncause line2"}},
			want:    "Error: main\n\n  Caused by:\n    → cause line1\n      cause line2",
		},
		{
			name:    "empty",
			entries: nil,
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, logger.FormatErrorEntriesExported(tt.entries))
		})
	}
}
