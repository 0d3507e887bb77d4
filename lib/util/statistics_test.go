package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewStats(t *testing.T) {
	require.Equal(t, Stats{}, NewStats(nil))

	s := NewStats([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	require.Equal(t, 2.0, s.Min)
	require.Equal(t, 9.0, s.Max)
	require.Equal(t, 5.0, s.Mean)
	require.InDelta(t, 2.0, s.StdDeviation, 1e-9)
	require.InDelta(t, 2.0/9.0, s.MinMaxRatio, 1e-9)
}

func TestDistributionStats(t *testing.T) {
	even := NewDistributionStats([]int{3, 3, 3, 3})
	require.InDelta(t, 1.0, even.DistributionQuality, 1e-9)

	skewed := NewDistributionStats([]int32{12, 0, 0, 0})
	require.Less(t, skewed.DistributionQuality, even.DistributionQuality)
	require.Equal(t, 0.0, skewed.MinMaxRatio)
}

func TestSizeHistogram(t *testing.T) {
	h := NewSizeHistogram()
	require.Equal(t, 0, h.AverageSize())
	require.Equal(t, 0, h.PercentileEstimate(50))

	h.AddSample(8)
	h.AddSample(100)
	h.AddSample(100)
	h.AddSample(5000)

	require.EqualValues(t, 4, h.Count())
	require.EqualValues(t, 5208, h.Sum())
	require.Equal(t, 5208/4, h.AverageSize())

	// 8 lands in the first bucket, 100 in (64, 256]
	require.Equal(t, 8, h.PercentileEstimate(25))
	require.Equal(t, (64+256)/2, h.PercentileEstimate(50))

	boundaries, pct := h.Distribution()
	require.Len(t, pct, len(boundaries)+1)
	require.InDelta(t, 50.0, pct[2], 1e-9)

	h.AddSample(1 << 33)
	require.Equal(t, 4294967296*2, h.PercentileEstimate(100))

	h.Reset()
	require.EqualValues(t, 0, h.Count())
}
