package processor

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// 心跳峰检测：自适应局部阈值检测器为主，
// 导数过零检测器为回退，按RR一致性/峰幅值/生理合理性打分取优。

const (
	minPeakDistanceSec = 0.3 // 对应200BPM上限
	smoothWindow       = 5

	// RR区间与心率的生理范围
	rrMinMs  = 300
	rrMaxMs  = 1500
	bpmMin   = 40
	bpmMax   = 200
	rrCVSoft = 0.5 // RR变异系数超过此值时置信度打9折
)

// detectPeaksAdaptive 自适应阈值峰检测
// 信号应已去均值；阈值 = 0.5×标准差，带不应期（取较高峰）
func detectPeaksAdaptive(xs []float64, sampleRateHz float64) []int {
	if len(xs) < 3 {
		return nil
	}
	threshold := 0.5 * stat.StdDev(xs, nil)
	minDist := int(minPeakDistanceSec * sampleRateHz)

	var peaks []int
	for i := 1; i < len(xs)-1; i++ {
		if xs[i] <= threshold {
			continue
		}
		if xs[i] < xs[i-1] || xs[i] <= xs[i+1] {
			continue
		}
		if len(peaks) > 0 && i-peaks[len(peaks)-1] < minDist {
			// 不应期内保留更高的峰
			if xs[i] > xs[peaks[len(peaks)-1]] {
				peaks[len(peaks)-1] = i
			}
			continue
		}
		peaks = append(peaks, i)
	}
	return peaks
}

// detectPeaksDerivative 导数过零峰检测（回退方案）
// 一阶差分由正转负且幅值为正的点视为峰
func detectPeaksDerivative(xs []float64, sampleRateHz float64) []int {
	if len(xs) < 3 {
		return nil
	}
	minDist := int(minPeakDistanceSec * sampleRateHz)

	var peaks []int
	for i := 1; i < len(xs)-1; i++ {
		rising := xs[i]-xs[i-1] > 0
		falling := xs[i+1]-xs[i] <= 0
		if !rising || !falling || xs[i] <= 0 {
			continue
		}
		if len(peaks) > 0 && i-peaks[len(peaks)-1] < minDist {
			if xs[i] > xs[peaks[len(peaks)-1]] {
				peaks[len(peaks)-1] = i
			}
			continue
		}
		peaks = append(peaks, i)
	}
	return peaks
}

// scorePeakSet 峰集合评分：RR一致性(变异系数) + 峰幅值强度 + 生理合理性
func scorePeakSet(xs []float64, peaks []int, sampleRateHz float64) float64 {
	if len(peaks) < 3 {
		return 0
	}
	rr := rrFromPeaks(peaks, sampleRateHz)
	mean := stat.Mean(rr, nil)
	if mean <= 0 {
		return 0
	}
	cv := stat.StdDev(rr, nil) / mean

	var ampSum float64
	for _, p := range peaks {
		ampSum += math.Abs(xs[p])
	}
	ampMean := ampSum / float64(len(peaks))
	sd := stat.StdDev(xs, nil)
	ampScore := 0.0
	if sd > 0 {
		ampScore = clamp01(ampMean / (3 * sd))
	}

	bpm := 60000.0 / mean
	plausible := 0.0
	if bpm >= bpmMin && bpm <= bpmMax {
		plausible = 1.0
	}

	return 0.5*(1-clamp01(cv)) + 0.25*ampScore + 0.25*plausible
}

// rrFromPeaks 由峰位置计算RR区间（毫秒）
func rrFromPeaks(peaks []int, sampleRateHz float64) []float64 {
	if len(peaks) < 2 {
		return nil
	}
	rr := make([]float64, 0, len(peaks)-1)
	for i := 1; i < len(peaks); i++ {
		rr = append(rr, float64(peaks[i]-peaks[i-1])*1000.0/sampleRateHz)
	}
	return rr
}

// filterRR 保留生理范围[300,1500]ms内的RR，再按1.5×IQR剔除离群值
func filterRR(rr []float64) []float64 {
	var inRange []float64
	for _, v := range rr {
		if v >= rrMinMs && v <= rrMaxMs {
			inRange = append(inRange, v)
		}
	}
	if len(inRange) < 4 {
		return inRange
	}

	sorted := make([]float64, len(inRange))
	copy(sorted, inRange)
	sort.Float64s(sorted)

	q1 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
	q3 := stat.Quantile(0.75, stat.Empirical, sorted, nil)
	iqr := q3 - q1
	lo := q1 - 1.5*iqr
	hi := q3 + 1.5*iqr

	var out []float64
	for _, v := range inRange {
		if v >= lo && v <= hi {
			out = append(out, v)
		}
	}
	return out
}

// weightedHeartRate 由RR序列计算加权平均心率，越新的区间权重越高
// 结果超出[40,200]BPM时判为不可信返回0；CV>0.5时返回的置信度打9折
func weightedHeartRate(rr []float64) (bpm, confidence float64) {
	if len(rr) == 0 {
		return 0, 0
	}
	var weightedSum, weightTotal float64
	for i, v := range rr {
		if v <= 0 {
			continue
		}
		w := float64(i + 1)
		weightedSum += w * (60000.0 / v)
		weightTotal += w
	}
	if weightTotal == 0 {
		return 0, 0
	}
	bpm = weightedSum / weightTotal
	if bpm < bpmMin || bpm > bpmMax {
		return 0, 0
	}

	confidence = 1.0
	mean := stat.Mean(rr, nil)
	if mean > 0 && stat.StdDev(rr, nil)/mean > rrCVSoft {
		confidence *= 0.9
	}
	return bpm, confidence
}

// rmssd 相邻RR差值的均方根
func rmssd(rr []float64) float64 {
	if len(rr) < 2 {
		return 0
	}
	var sum float64
	for i := 1; i < len(rr); i++ {
		d := rr[i] - rr[i-1]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(rr)-1))
}
