package dsp

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

// HammingWindow 生成Hamming窗系数
func HammingWindow(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

// WelchPSD Welch平均周期图法功率谱密度估计
// 分段长度根据样本量自适应（50%重叠），每段加Hamming窗后
// 零填充到下一个2的幂再做实FFT，各段功率谱取平均。
// 返回频率轴（Hz）和对应的PSD。
func WelchPSD(xs []float64, sampleRateHz float64) (freqs, psd []float64) {
	n := len(xs)
	if n < 8 || sampleRateHz <= 0 {
		return nil, nil
	}

	segLen := n
	if n >= 64 {
		segLen = n / 2
	}
	step := segLen / 2
	if step < 1 {
		step = 1
	}
	nfft := nextPow2(segLen)

	window := HammingWindow(segLen)
	windowPower := floats.Dot(window, window)

	fft := fourier.NewFFT(nfft)
	bins := nfft/2 + 1
	acc := make([]float64, bins)
	segment := make([]float64, nfft)
	coeffs := make([]complex128, bins)

	var segments int
	for start := 0; start+segLen <= n; start += step {
		for i := 0; i < segLen; i++ {
			segment[i] = xs[start+i] * window[i]
		}
		// 零填充到nfft
		for i := segLen; i < nfft; i++ {
			segment[i] = 0
		}

		fft.Coefficients(coeffs, segment)
		for i := 0; i < bins; i++ {
			p := real(coeffs[i])*real(coeffs[i]) + imag(coeffs[i])*imag(coeffs[i])
			// 单边谱：除直流和Nyquist外乘2
			if i != 0 && i != bins-1 {
				p *= 2
			}
			acc[i] += p / (sampleRateHz * windowPower)
		}
		segments++
	}
	if segments == 0 {
		return nil, nil
	}

	psd = make([]float64, bins)
	freqs = make([]float64, bins)
	for i := 0; i < bins; i++ {
		psd[i] = acc[i] / float64(segments)
		freqs[i] = float64(i) * sampleRateHz / float64(nfft)
	}
	return freqs, psd
}

// IntegrateBand 梯形法对PSD在[lowHz, highHz]频段积分
// 频段边界落在两个频点之间时对PSD线性插值
func IntegrateBand(freqs, psd []float64, lowHz, highHz float64) float64 {
	if len(freqs) != len(psd) {
		panic("dsp: freqs/psd length mismatch")
	}
	if len(freqs) < 2 || lowHz >= highHz {
		return 0
	}
	if lowHz < freqs[0] {
		lowHz = freqs[0]
	}
	if highHz > freqs[len(freqs)-1] {
		highHz = freqs[len(freqs)-1]
	}
	if lowHz >= highHz {
		return 0
	}

	var power float64
	prevF := lowHz
	prevP := interpPSD(freqs, psd, lowHz)
	for i := 0; i < len(freqs); i++ {
		if freqs[i] <= lowHz {
			continue
		}
		f := freqs[i]
		p := psd[i]
		if f >= highHz {
			f = highHz
			p = interpPSD(freqs, psd, highHz)
		}
		power += (prevP + p) / 2 * (f - prevF)
		if f >= highHz {
			break
		}
		prevF = f
		prevP = p
	}
	return power
}

// interpPSD 在频点f处线性插值PSD
func interpPSD(freqs, psd []float64, f float64) float64 {
	if f <= freqs[0] {
		return psd[0]
	}
	for i := 1; i < len(freqs); i++ {
		if freqs[i] >= f {
			span := freqs[i] - freqs[i-1]
			if span == 0 {
				return psd[i]
			}
			frac := (f - freqs[i-1]) / span
			return psd[i-1] + frac*(psd[i]-psd[i-1])
		}
	}
	return psd[len(psd)-1]
}

// ResampleUniform 将不等间隔序列（ts为累计时间，单位任意但需一致）
// 线性插值重采样为rate固定速率的均匀序列
func ResampleUniform(ts, vs []float64, rate float64) []float64 {
	if len(ts) != len(vs) {
		panic("dsp: ts/vs length mismatch")
	}
	if len(ts) < 2 || rate <= 0 {
		return nil
	}
	span := ts[len(ts)-1] - ts[0]
	if span <= 0 {
		return nil
	}
	n := int(span*rate) + 1
	out := make([]float64, 0, n)
	j := 1
	for i := 0; i < n; i++ {
		t := ts[0] + float64(i)/rate
		for j < len(ts)-1 && ts[j] < t {
			j++
		}
		spanSeg := ts[j] - ts[j-1]
		if spanSeg <= 0 {
			out = append(out, vs[j])
			continue
		}
		frac := (t - ts[j-1]) / spanSeg
		if frac < 0 {
			frac = 0
		}
		if frac > 1 {
			frac = 1
		}
		out = append(out, vs[j-1]+frac*(vs[j]-vs[j-1]))
	}
	return out
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
