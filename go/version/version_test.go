package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for _, tc := range []struct {
		in       string
		expected Version
		err      bool
	}{
		{"1", Version{1, 0, 0}, false},
		{"1.20", Version{1, 20, 0}, false},
		{"1.20.4", Version{1, 20, 4}, false},
		{"latest", Latest, false},
		{"", Version{}, true},
		{"1.x", Version{}, true},
		{"1.2.3.4", Version{}, true},
		{"-1", Version{}, true},
	} {
		v, err := Parse(tc.in)
		if tc.err {
			require.Error(t, err, "Parse(%q)", tc.in)
			continue
		}
		require.NoError(t, err, "Parse(%q)", tc.in)
		require.Equal(t, tc.expected, v, "Parse(%q)", tc.in)
	}
}

func TestCompare(t *testing.T) {
	for _, tc := range []struct {
		a, b     string
		expected int
	}{
		{"1.12.2", "1.13.0", -1},
		{"1.13.0", "1.12.2", 1},
		{"1.20.4", "1.20.4", 0},
		{"2.0.0", "1.99.99", 1},
		{"1.20.0", "1.20.1", -1},
		{"latest", "1.21.10", 1},
	} {
		require.Equal(t, tc.expected, MustParse(tc.a).Compare(MustParse(tc.b)), "%s <=> %s", tc.a, tc.b)
	}
	require.True(t, New(1, 13, 0).AtLeast(New(1, 13, 0)))
	require.True(t, New(1, 12, 2).Less(New(1, 13, 0)))
}

func TestTextRoundTrip(t *testing.T) {
	var v Version
	require.NoError(t, v.UnmarshalText([]byte("1.19.4")))
	b, err := v.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "1.19.4", string(b))
}
