package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(n int, sampleRateHz, freqHz, amp float64) []float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = amp * math.Sin(2*math.Pi*freqHz*float64(i)/sampleRateHz)
	}
	return xs
}

// 稳态段的RMS（跳过前1/4，避开滤波器暂态）
func steadyRMS(xs []float64) float64 {
	start := len(xs) / 4
	var sum float64
	for _, x := range xs[start:] {
		sum += x * x
	}
	return math.Sqrt(sum / float64(len(xs)-start))
}

func TestNotch_AttenuatesMains(t *testing.T) {
	const fs = 250.0
	mains := sine(2000, fs, 50, 1)

	filtered := NewNotch(fs, 50, 30).Apply(mains)

	assert.Less(t, steadyRMS(filtered), 0.1*steadyRMS(mains))
}

func TestNotch_PassesNeighborFrequencies(t *testing.T) {
	const fs = 250.0
	alpha := sine(2000, fs, 10, 1)

	filtered := NewNotch(fs, 50, 30).Apply(alpha)

	assert.Greater(t, steadyRMS(filtered), 0.9*steadyRMS(alpha))
}

func TestBandPass_PassbandAndStopband(t *testing.T) {
	const fs = 250.0
	chain := NewBandPass(fs, 1, 45)

	inBand := chain.Apply(sine(2000, fs, 10, 1))
	assert.Greater(t, steadyRMS(inBand), 0.7)

	// 0.1Hz漂移应被高通压制
	drift := chain.Apply(sine(2000, fs, 0.1, 1))
	assert.Less(t, steadyRMS(drift), 0.25)

	// 100Hz噪声应被低通压制
	noise := chain.Apply(sine(2000, fs, 100, 1))
	assert.Less(t, steadyRMS(noise), 0.25)
}

func TestRemoveDC(t *testing.T) {
	xs := []float64{10, 11, 12, 13, 14}
	out := RemoveDC(xs)

	var sum float64
	for _, v := range out {
		sum += v
	}
	assert.InDelta(t, 0, sum, 1e-9)
	assert.InDelta(t, -2, out[0], 1e-9)
}

func TestWaveletPower_PeaksAtSignalFrequency(t *testing.T) {
	const fs = 250.0
	xs := sine(1250, fs, 10, 20)

	freqs := LinearFreqs(1, 45, 1)
	powers := WaveletPower(xs, fs, freqs)
	require.Len(t, powers, len(freqs))

	best := 0
	for i, p := range powers {
		if p > powers[best] {
			best = i
		}
	}
	assert.InDelta(t, 10, freqs[best], 1.5)
}

func TestBandPower_EmptyBandIsZero(t *testing.T) {
	freqs := []float64{1, 2, 3}
	powers := []float64{1, 1, 1}

	assert.Equal(t, 0.0, BandPower(freqs, powers, 30, 50))
	assert.Equal(t, 2.0, BandPower(freqs, powers, 1, 3))
}

func TestBandPower_MismatchedLengthsPanics(t *testing.T) {
	assert.Panics(t, func() {
		BandPower([]float64{1, 2}, []float64{1}, 0, 10)
	})
}

func TestWelchPSD_PeakAtSignalFrequency(t *testing.T) {
	const fs = 4.0
	// 0.25Hz正弦，300个点（75秒）
	xs := sine(300, fs, 0.25, 1)

	freqs, psd := WelchPSD(xs, fs)
	require.NotEmpty(t, psd)

	best := 0
	for i, p := range psd {
		if p > psd[best] {
			best = i
		}
	}
	assert.InDelta(t, 0.25, freqs[best], 0.05)
}

func TestWelchPSD_TooShortReturnsNil(t *testing.T) {
	freqs, psd := WelchPSD([]float64{1, 2, 3}, 4)
	assert.Nil(t, freqs)
	assert.Nil(t, psd)
}

func TestIntegrateBand_ConstantPSD(t *testing.T) {
	freqs := []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5}
	psd := []float64{2, 2, 2, 2, 2, 2}

	// 常数PSD上积分 = 高度×带宽，边界插值不引入误差
	got := IntegrateBand(freqs, psd, 0.04, 0.15)
	assert.InDelta(t, 2*(0.15-0.04), got, 1e-9)
}

func TestIntegrateBand_OutOfRange(t *testing.T) {
	freqs := []float64{0, 0.1, 0.2}
	psd := []float64{1, 1, 1}

	assert.Equal(t, 0.0, IntegrateBand(freqs, psd, 0.5, 0.9))
}

func TestResampleUniform_LinearSeries(t *testing.T) {
	// 线性序列插值后仍为线性
	ts := []float64{0, 1, 2, 4}
	vs := []float64{0, 10, 20, 40}

	out := ResampleUniform(ts, vs, 2) // 0.5s步进
	require.NotEmpty(t, out)

	for i, v := range out {
		assert.InDelta(t, float64(i)*5, v, 1e-9)
	}
}

func TestResampleUniform_TooShort(t *testing.T) {
	assert.Nil(t, ResampleUniform([]float64{1}, []float64{1}, 4))
}

func TestMovingAverage_SmoothsSpike(t *testing.T) {
	xs := []float64{0, 0, 0, 9, 0, 0, 0}
	out := MovingAverage(xs, 3)
	assert.InDelta(t, 3, out[3], 1e-9)
	assert.InDelta(t, 3, out[2], 1e-9)
}
