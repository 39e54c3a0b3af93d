package memsize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToBytes(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"1024", 1024},
		{"1k", 1000},
		{"1m", 1000 * 1000},
		{"1g", 1000 * 1000 * 1000},
		{"1ki", 1024},
		{"1mi", 1024 * 1024},
		{"1gi", 1024 * 1024 * 1024},
		{"  2Mi  ", 2 * 1024 * 1024},
		{"0", 0},
	}

	for _, c := range cases {
		got, err := ToBytes(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestToBytesInvalid(t *testing.T) {
	for _, in := range []string{"", "abc", "1tb", "-1", "1.5g"} {
		_, err := ToBytes(in)
		assert.Error(t, err, in)
	}
}

func TestFromBytes(t *testing.T) {
	assert.Equal(t, "1024", FromBytes(1024, ""))
	assert.Equal(t, "1ki", FromBytes(1024, "ki"))
	assert.Equal(t, "1mi", FromBytes(1024*1024, "mi"))
	assert.Equal(t, "1k", FromBytes(1000, "k"))
}

func TestRoundTrip(t *testing.T) {
	n, err := ToBytes(FromBytes(5*1024*1024, "mi"))
	require.NoError(t, err)
	assert.EqualValues(t, 5*1024*1024, n)
}
