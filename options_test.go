package strand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyOptions(t *testing.T) {
	t.Run("returns empty options when no options provided", func(t *testing.T) {
		opts := ApplyOptions()

		require.NotNil(t, opts)
		assert.Empty(t, opts.Model)
		assert.Empty(t, opts.System)
		assert.Zero(t, opts.MaxTokens)
		assert.Nil(t, opts.Temperature)
	})

	t.Run("applies multiple options", func(t *testing.T) {
		opts := ApplyOptions(
			WithModel("claude-sonnet-4-5"),
			WithSystem("You are terse."),
			WithMaxTokens(1000),
			WithTemperature(0.7),
		)

		assert.Equal(t, "claude-sonnet-4-5", opts.Model)
		assert.Equal(t, "You are terse.", opts.System)
		assert.Equal(t, 1000, opts.MaxTokens)
		require.NotNil(t, opts.Temperature)
		assert.Equal(t, 0.7, *opts.Temperature)
	})

	t.Run("later options win", func(t *testing.T) {
		opts := ApplyOptions(WithModel("first"), WithModel("second"))
		assert.Equal(t, "second", opts.Model)
	})

	t.Run("zero temperature is distinguishable from unset", func(t *testing.T) {
		opts := ApplyOptions(WithTemperature(0))

		require.NotNil(t, opts.Temperature)
		assert.Zero(t, *opts.Temperature)
	})
}

func TestUsageAdd(t *testing.T) {
	u := Usage{InputTokens: 10, OutputTokens: 5}
	sum := u.Add(Usage{InputTokens: 3, OutputTokens: 7})

	assert.Equal(t, Usage{InputTokens: 13, OutputTokens: 12}, sum)
	assert.Equal(t, Usage{InputTokens: 10, OutputTokens: 5}, u, "Add does not mutate the receiver")
}
