package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trims surrounding whitespace", "  hello  \n", "hello"},
		{"normalizes crlf", "line one\r\nline two", "line one\nline two"},
		{"preserves case", "Hello World", "Hello World"},
		{"preserves interior spacing", "a  b", "a  b"},
		{"empty stays empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonicalize(tt.in))
		})
	}
}

func TestKey(t *testing.T) {
	t.Run("is stable for identical inputs", func(t *testing.T) {
		assert.Equal(t, Key("hash1", "input"), Key("hash1", "input"))
	})

	t.Run("equal after canonicalization", func(t *testing.T) {
		assert.Equal(t, Key("hash1", "input"), Key("hash1", "  input\r\n"))
	})

	t.Run("differs by spec hash", func(t *testing.T) {
		assert.NotEqual(t, Key("hash1", "input"), Key("hash2", "input"))
	})

	t.Run("differs by input", func(t *testing.T) {
		assert.NotEqual(t, Key("hash1", "a"), Key("hash1", "b"))
	})

	t.Run("separator prevents boundary collisions", func(t *testing.T) {
		assert.NotEqual(t, Key("ab", "c"), Key("a", "bc"))
	})
}
