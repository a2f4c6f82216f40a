package orderid

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextFormat(t *testing.T) {
	gen, err := New(1)
	require.NoError(t, err)
	gen.now = func() time.Time {
		return time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC)
	}

	number, err := gen.Next()
	require.NoError(t, err)

	parts := strings.SplitN(number, "-", 3)
	require.Len(t, parts, 3)
	assert.Equal(t, "FL", parts[0])
	assert.Equal(t, "20260901", parts[1])
	assert.NotEmpty(t, parts[2])
}

func TestNextUnique(t *testing.T) {
	gen, err := New(2)
	require.NoError(t, err)

	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		number, err := gen.Next()
		require.NoError(t, err)
		_, dup := seen[number]
		require.False(t, dup, "duplicate order number %s", number)
		seen[number] = struct{}{}
	}
}
