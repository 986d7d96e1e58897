package fatpecs

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSaturatingAddUint8(t *testing.T) {
	assert.Equal(t, uint8(250), SaturatingAdd(uint8(100), uint8(150)))
	assert.Equal(t, uint8(255), SaturatingAdd(uint8(200), uint8(100)))
}

func TestSaturatingSubUint8(t *testing.T) {
	assert.Equal(t, uint8(0), SaturatingSub(uint8(10), uint8(20)))
	assert.Equal(t, uint8(5), SaturatingSub(uint8(10), uint8(5)))
}

func TestSaturatingAddInt32Overflow(t *testing.T) {
	assert.Equal(t, int32(math.MaxInt32), SaturatingAdd(int32(math.MaxInt32-1), int32(10)))
}

func TestSaturatingSubInt32Underflow(t *testing.T) {
	assert.Equal(t, int32(math.MinInt32), SaturatingSub(int32(math.MinInt32+1), int32(10)))
}

func TestCheckedAdd(t *testing.T) {
	sum, ok := CheckedAdd(uint8(200), uint8(50))
	assert.True(t, ok)
	assert.Equal(t, uint8(250), sum)

	_, ok = CheckedAdd(uint8(200), uint8(100))
	assert.False(t, ok)
}
