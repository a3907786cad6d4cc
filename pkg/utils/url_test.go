package utils

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripQuery(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no query", "https://x/1", "https://x/1"},
		{"tracking params", "https://x/1?ref=1&trk=abc", "https://x/1"},
		{"fragment", "https://x/1#apply", "https://x/1"},
		{"query and fragment", "https://x/1?a=b#c", "https://x/1"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripQuery(tt.in))
		})
	}
}

func TestToAbsoluteURL(t *testing.T) {
	base, err := url.Parse("https://www.seek.com.au")
	require.NoError(t, err)

	got, err := ToAbsoluteURL(base, "/job/123?type=standard")
	require.NoError(t, err)
	assert.Equal(t, "https://www.seek.com.au/job/123?type=standard", got)

	got, err = ToAbsoluteURL(base, "https://elsewhere.example/job/9")
	require.NoError(t, err)
	assert.Equal(t, "https://elsewhere.example/job/9", got)
}

func TestHashKey(t *testing.T) {
	assert.Equal(t, HashKey("a", "b"), HashKey("a", "b"))
	assert.NotEqual(t, HashKey("ab", ""), HashKey("a", "b"))
	assert.Len(t, HashKey("x"), 64)
}
