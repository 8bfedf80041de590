package bbolt

import (
	"testing"

	"github.com/corey/acsearch/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePatterns_Layout(t *testing.T) {
	data := encodePatterns([]ports.PatternEntry{{Text: "ab", Value: 3}})
	assert.Equal(t, []byte{
		1,          // version
		1, 0, 0, 0, // count
		2, 0, 0, 0, 'a', 'b',
		3, 0, 0, 0, 0, 0, 0, 0,
	}, data)
}

func TestDecodePatterns_PreservesOrderAndNegativeValues(t *testing.T) {
	in := []ports.PatternEntry{
		{Text: "z", Value: -1},
		{Text: "日本", Value: 1 << 40},
		{Text: "a", Value: 0},
	}
	out, err := decodePatterns(encodePatterns(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodePatterns_Empty(t *testing.T) {
	out, err := decodePatterns(encodePatterns(nil))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDecodePatterns_Corrupt(t *testing.T) {
	good := encodePatterns([]ports.PatternEntry{{Text: "hello", Value: 1}, {Text: "world", Value: 2}})

	cases := map[string][]byte{
		"nil":          nil,
		"short header": good[:3],
		"bad version":  append([]byte{9}, good[1:]...),
		"truncated":    good[:len(good)-3],
		"trailing":     append(append([]byte(nil), good...), 0),
		"huge count":   {1, 0xff, 0xff, 0xff, 0xff, 0},
		"huge text":    {1, 1, 0, 0, 0, 0xff, 0xff, 0xff, 0x7f, 'a'},
	}
	for name, data := range cases {
		_, err := decodePatterns(data)
		assert.Error(t, err, name)
	}
}
