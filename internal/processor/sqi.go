package processor

import (
	"gonum.org/v1/gonum/stat"
)

// 信号质量评分：对每个0.5s子窗口计算幅值得分和方差得分，
// 按70/30加权合成0-100的SQI，再展开为逐采样点向量。
// 幅值/方差的合理区间由各通道按自身量纲给定。

type sqiParams struct {
	windowSamples int     // 0.5s对应的采样点数
	ampLow        float64 // 峰峰值合理下限
	ampHigh       float64 // 峰峰值合理上限
	varLow        float64 // 方差合理下限
	varHigh       float64 // 方差合理上限
}

const (
	amplitudeWeight = 0.7
	varianceWeight  = 0.3
)

// computeSQI 返回与xs等长的逐点SQI向量
func computeSQI(xs []float64, p sqiParams) []float64 {
	sqi := make([]float64, len(xs))
	if len(xs) == 0 {
		return sqi
	}
	win := p.windowSamples
	if win < 2 {
		win = 2
	}
	for start := 0; start < len(xs); start += win {
		end := start + win
		if end > len(xs) {
			end = len(xs)
		}
		seg := xs[start:end]

		ampScore := rangeScore(peakToPeak(seg), p.ampLow, p.ampHigh)
		varScore := rangeScore(stat.Variance(seg, nil), p.varLow, p.varHigh)
		score := amplitudeWeight*ampScore + varianceWeight*varScore

		for i := start; i < end; i++ {
			sqi[i] = score
		}
	}
	return sqi
}

// rangeScore 值落在[lo,hi]内得满分，偏离后线性/反比衰减
func rangeScore(v, lo, hi float64) float64 {
	switch {
	case v >= lo && v <= hi:
		return 100
	case v < lo:
		if lo <= 0 {
			return 0
		}
		return clamp01(v/lo) * 100
	default:
		if v <= 0 {
			return 0
		}
		return clamp01(hi/v) * 100
	}
}

// qualityStats 质量掩码：返回通过阈值的索引和通过率（0-100）
func qualityStats(sqi []float64, threshold float64) (passing []int, overall float64) {
	if len(sqi) == 0 {
		return nil, 0
	}
	for i, s := range sqi {
		if s >= threshold {
			passing = append(passing, i)
		}
	}
	overall = float64(len(passing)) / float64(len(sqi)) * 100
	return passing, overall
}

func peakToPeak(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	min, max := xs[0], xs[0]
	for _, x := range xs[1:] {
		if x < min {
			min = x
		}
		if x > max {
			max = x
		}
	}
	return max - min
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// safeRatio 比值计算，分母为0时返回0
func safeRatio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
