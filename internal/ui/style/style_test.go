package style_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/kiln/internal/ui/style"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		result string
		err    error
		want   style.Class
		icon   string
	}{
		{result: "BUILT_LOCALLY", want: style.Built, icon: style.Check},
		{result: "FETCHED_FROM_CACHE", want: style.Fetched, icon: style.Arrow},
		{result: "FETCHED_FROM_CACHE_DEP_FILE", want: style.Fetched, icon: style.Arrow},
		{result: "MATCHING_RULE_KEY", want: style.Reused, icon: style.Tilde},
		{result: "MATCHING_DEP_FILE_RULE_KEY", want: style.Reused, icon: style.Tilde},
		{result: "NOOP", want: style.Reused, icon: style.Tilde},
		{result: "CANCELED", want: style.Skipped, icon: style.Circle},
		{result: "UNPOPULATED", want: style.Skipped, icon: style.Circle},
		{result: "FAIL", want: style.Failed, icon: style.Cross},
		{result: "MATCHING_RULE_KEY", err: errors.New("boom"), want: style.Failed, icon: style.Cross},
	}
	for _, tt := range tests {
		got := style.Classify(tt.result, tt.err)
		assert.Equal(t, tt.want, got, tt.result)
		assert.Equal(t, tt.icon, got.Icon(), tt.result)
		assert.NotEmpty(t, string(got.Color()))
	}
}
