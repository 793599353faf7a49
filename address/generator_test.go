package address

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	gen := NewGenerator()

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		addr, err := gen.Generate()
		require.NoError(t, err)
		assert.Len(t, addr, 32)
		for _, c := range addr {
			assert.True(t, strings.ContainsRune(charset, c), "unexpected char %q", c)
		}
		seen[addr] = struct{}{}
	}
	assert.Len(t, seen, 50, "generated addresses collided")
}
