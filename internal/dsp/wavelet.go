package dsp

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// 每个分析频率的Morlet核周期数：越大频率分辨率越好，时间分辨率越差
const morletCycles = 5.0

// morletKernel 生成实Morlet核（余弦×高斯包络），长度为奇数
func morletKernel(sampleRateHz, freqHz float64) []float64 {
	sigma := morletCycles / (2 * math.Pi * freqHz)
	halfLen := int(3 * sigma * sampleRateHz)
	if halfLen < 1 {
		halfLen = 1
	}
	kernel := make([]float64, 2*halfLen+1)
	var norm float64
	for i := -halfLen; i <= halfLen; i++ {
		t := float64(i) / sampleRateHz
		g := math.Exp(-t * t / (2 * sigma * sigma))
		kernel[i+halfLen] = g * math.Cos(2*math.Pi*freqHz*t)
		norm += g
	}
	if norm > 0 {
		for i := range kernel {
			kernel[i] /= norm
		}
	}
	return kernel
}

// WaveletPower 按逐频率小波卷积计算功率谱
// freqsHz中的每个频率卷积一次，功率取卷积输出绝对值的均值
// （实核卷积会产生负值，取绝对值避免符号伪迹）
func WaveletPower(xs []float64, sampleRateHz float64, freqsHz []float64) []float64 {
	powers := make([]float64, len(freqsHz))
	if len(xs) == 0 {
		return powers
	}
	for fi, f := range freqsHz {
		kernel := morletKernel(sampleRateHz, f)
		half := len(kernel) / 2

		var sum float64
		var n int
		// 只在核完全落在信号内的区间取值，避免边缘伪迹
		for i := half; i < len(xs)-half; i++ {
			acc := floats.Dot(xs[i-half:i-half+len(kernel)], kernel)
			sum += math.Abs(acc)
			n++
		}
		if n > 0 {
			powers[fi] = sum / float64(n)
		}
	}
	return powers
}

// BandPower 对逐频率功率按频段求和
// freqsHz与powers一一对应；频段为[lowHz, highHz)，空频段返回0
func BandPower(freqsHz, powers []float64, lowHz, highHz float64) float64 {
	if len(freqsHz) != len(powers) {
		panic("dsp: freqs/powers length mismatch")
	}
	var sum float64
	for i, f := range freqsHz {
		if f >= lowHz && f < highHz {
			sum += math.Abs(powers[i])
		}
	}
	return sum
}

// LinearFreqs 生成[startHz, endHz]闭区间、stepHz步进的分析频率表
func LinearFreqs(startHz, endHz, stepHz float64) []float64 {
	var freqs []float64
	for f := startHz; f <= endHz+1e-9; f += stepHz {
		freqs = append(freqs, f)
	}
	return freqs
}
