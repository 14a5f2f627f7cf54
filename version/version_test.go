package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teranos/chronicle/errors"
)

func TestInfoString(t *testing.T) {
	info := Info{Version: "dev", CommitHash: "abc1234def", BuildTime: "today"}
	assert.Equal(t, "chronicle dev (commit abc1234def, built today)", info.String())
	assert.Equal(t, "abc1234", info.Short())

	info.Version = "0.4.1"
	assert.Equal(t, "chronicle 0.4.1 (commit abc1234def, built today)", info.String())
	assert.Equal(t, "chronicle/0.4.1 (https://github.com/teranos/chronicle)", info.UserAgent())
}

func TestSatisfies(t *testing.T) {
	tests := []struct {
		name       string
		version    string
		constraint string
		want       bool
	}{
		{"within range", "0.4.1", ">= 0.4", true},
		{"too old", "0.3.9", ">= 0.4", false},
		{"caret", "1.2.0", "^1.1", true},
		{"dev build always passes", "dev", ">= 9.0", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := Satisfies(tt.version, tt.constraint)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestSatisfiesInvalidConstraint(t *testing.T) {
	_, err := Satisfies("1.0.0", "not a constraint")
	require.Error(t, err)
	assert.True(t, errors.IsConfigurationError(err))
}
