package dsp

import "math"

// Biquad 二阶IIR滤波器节（直接II型转置结构）
// 系数按RBJ Audio EQ Cookbook公式计算
type Biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
	z1, z2     float64
}

// NewLowPass 低通二阶节
func NewLowPass(sampleRateHz, cutoffHz, q float64) *Biquad {
	w0 := 2 * math.Pi * cutoffHz / sampleRateHz
	alpha := math.Sin(w0) / (2 * q)
	cosw0 := math.Cos(w0)

	b0 := (1 - cosw0) / 2
	b1 := 1 - cosw0
	b2 := (1 - cosw0) / 2
	a0 := 1 + alpha
	a1 := -2 * cosw0
	a2 := 1 - alpha

	return normalize(b0, b1, b2, a0, a1, a2)
}

// NewHighPass 高通二阶节
func NewHighPass(sampleRateHz, cutoffHz, q float64) *Biquad {
	w0 := 2 * math.Pi * cutoffHz / sampleRateHz
	alpha := math.Sin(w0) / (2 * q)
	cosw0 := math.Cos(w0)

	b0 := (1 + cosw0) / 2
	b1 := -(1 + cosw0)
	b2 := (1 + cosw0) / 2
	a0 := 1 + alpha
	a1 := -2 * cosw0
	a2 := 1 - alpha

	return normalize(b0, b1, b2, a0, a1, a2)
}

// NewNotch 陷波二阶节（工频干扰抑制）
func NewNotch(sampleRateHz, centerHz, q float64) *Biquad {
	w0 := 2 * math.Pi * centerHz / sampleRateHz
	alpha := math.Sin(w0) / (2 * q)
	cosw0 := math.Cos(w0)

	b0 := 1.0
	b1 := -2 * cosw0
	b2 := 1.0
	a0 := 1 + alpha
	a1 := -2 * cosw0
	a2 := 1 - alpha

	return normalize(b0, b1, b2, a0, a1, a2)
}

func normalize(b0, b1, b2, a0, a1, a2 float64) *Biquad {
	return &Biquad{
		b0: b0 / a0,
		b1: b1 / a0,
		b2: b2 / a0,
		a1: a1 / a0,
		a2: a2 / a0,
	}
}

// Process 处理单个采样点
func (f *Biquad) Process(x float64) float64 {
	y := f.b0*x + f.z1
	f.z1 = f.b1*x - f.a1*y + f.z2
	f.z2 = f.b2*x - f.a2*y
	return y
}

// Reset 清除滤波器状态
func (f *Biquad) Reset() {
	f.z1 = 0
	f.z2 = 0
}

// Apply 对整段信号滤波，返回新切片（状态先清零）
func (f *Biquad) Apply(xs []float64) []float64 {
	f.Reset()
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = f.Process(x)
	}
	return out
}

// Chain 滤波器级联
type Chain []*Biquad

// Apply 依次施加所有节
func (c Chain) Apply(xs []float64) []float64 {
	out := xs
	for _, f := range c {
		out = f.Apply(out)
	}
	return out
}

// NewBandPass 由高通+低通级联构成的带通
func NewBandPass(sampleRateHz, lowHz, highHz float64) Chain {
	const q = 0.7071 // Butterworth
	return Chain{
		NewHighPass(sampleRateHz, lowHz, q),
		NewLowPass(sampleRateHz, highHz, q),
	}
}

// RemoveDC 去直流：减去整段均值
func RemoveDC(xs []float64) []float64 {
	if len(xs) == 0 {
		return nil
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = x - mean
	}
	return out
}

// MovingAverage 简单滑动平均平滑（窗口居中，边缘截断）
func MovingAverage(xs []float64, window int) []float64 {
	if window < 2 || len(xs) == 0 {
		out := make([]float64, len(xs))
		copy(out, xs)
		return out
	}
	half := window / 2
	out := make([]float64, len(xs))
	for i := range xs {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half
		if hi >= len(xs) {
			hi = len(xs) - 1
		}
		var sum float64
		for j := lo; j <= hi; j++ {
			sum += xs[j]
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}
