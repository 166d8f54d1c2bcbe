package structure

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBloomNoFalseNegatives(t *testing.T) {
	bf := NewBloomFilter(1000, 0.01)
	for i := 0; i < 1000; i++ {
		bf.Add(float64(i) * 37.25)
	}
	for i := 0; i < 1000; i++ {
		assert.True(t, bf.Contains(float64(i)*37.25), "key %d", i)
	}
}

func TestBloomFalsePositiveRate(t *testing.T) {
	bf := NewBloomFilter(1000, 0.01)
	for i := 0; i < 1000; i++ {
		bf.Add(float64(i))
	}
	fp := 0
	for i := 0; i < 10000; i++ {
		if bf.Contains(float64(i) + 0.5) {
			fp++
		}
	}
	assert.Less(t, fp, 500, "false positive rate far above target")
}

func TestBloomSignedZeroAndReset(t *testing.T) {
	bf := NewBloomFilter(10, 0.01)
	bf.Add(math.Copysign(0, -1))
	assert.True(t, bf.Contains(0))

	bf.Reset()
	assert.False(t, bf.Contains(0))
	assert.Equal(t, uint(0), bf.Stats()["bloom_count"])
}
