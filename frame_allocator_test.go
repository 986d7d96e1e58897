package fatpecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameAllocatorAllocAndReset(t *testing.T) {
	fa := NewFrameAllocator[int](4)
	s1 := fa.Alloc(3)
	assert.Len(t, s1, 3)
	assert.Equal(t, 3, fa.Len())

	s2 := fa.Alloc(2)
	assert.Len(t, s2, 2)
	assert.Equal(t, 5, fa.Len())

	fa.Reset()
	assert.Equal(t, 0, fa.Len())
	assert.GreaterOrEqual(t, fa.Cap(), 5, "Reset must not release the backing array")
}
