package casefold

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// Case folding: lowercase text before building or scanning
// =============================================================================

func TestLower(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"already lower", "already lower"},
		{"Hello WORLD", "hello world"},
		{"ÀÉÎÕÜ", "àéîõü"},
		{"ΑΒΓΔ", "αβγδ"},
		{"ПРИВЕТ", "привет"},
		{"日本語 ABC", "日本語 abc"},
		{"\U0001F600 OK", "\U0001F600 ok"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Lower(tc.in), tc.in)
	}
}

func TestLower_ASCIIFastPathReturnsInput(t *testing.T) {
	in := "no uppercase here 123"
	assert.Equal(t, in, Lower(in))
	assert.True(t, isLowerASCII(in))
	assert.False(t, isLowerASCII("Z"))
	assert.False(t, isLowerASCII("é"))
}

func TestLower_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.Equal(t, "straße", Lower("STRAßE"))
			}
		}()
	}
	wg.Wait()
}
