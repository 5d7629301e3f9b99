package convert

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntToUint(t *testing.T) {
	t.Run("converts valid value", func(t *testing.T) {
		result, err := IntToUint(7)
		require.NoError(t, err)
		assert.Equal(t, uint(7), result)
	})

	t.Run("rejects negative value", func(t *testing.T) {
		_, err := IntToUint(-1)
		assert.Error(t, err)
	})
}

func TestIntToUintClamped(t *testing.T) {
	assert.Equal(t, uint(0), IntToUintClamped(-5))
	assert.Equal(t, uint(3), IntToUintClamped(3))
}

func TestIntToUint32Clamped(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want uint32
	}{
		{"negative", -1, 0},
		{"zero", 0, 0},
		{"in range", 42, 42},
		{"max", math.MaxUint32, math.MaxUint32},
		{"overflow", math.MaxUint32 + 1, math.MaxUint32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IntToUint32Clamped(tt.in))
		})
	}
}
