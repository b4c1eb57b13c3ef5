package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShortCommit(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		commit string
		want   string
	}{
		"long hash": {commit: "0123456789abcdef", want: "01234567"},
		"exactly 8": {commit: "01234567", want: "01234567"},
		"short":     {commit: "abc", want: "abc"},
		"unknown":   {commit: "unknown", want: "unknown"},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ShortCommit(tt.commit))
		})
	}
}

func TestDetails(t *testing.T) {
	t.Parallel()

	details := Details()
	require.Len(t, details, 5)
	assert.Equal(t, "Version", details[0].Label)
	assert.Equal(t, Version, details[0].Value)
	assert.Equal(t, runtime.Version(), details[3].Value)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, details[4].Value)
}

func TestIsDevBuild(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Version == "dev", IsDevBuild())
}
