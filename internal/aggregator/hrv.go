package aggregator

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// 时域HRV统计，在长RR缓冲（约2分钟）上计算。
// 压力指数为SDNN/RMSSD反归一化与心率偏离静息基线的加权混合。

const (
	pnnFastThresholdMs = 50
	pnnSlowThresholdMs = 20

	// 压力指数归一化区间（毫秒）与静息心率基线
	stressSDNNLow    = 20
	stressSDNNHigh   = 80
	stressRMSSDLow   = 15
	stressRMSSDHigh  = 60
	restingBPM       = 65.0
	stressSDNNWeight = 0.4
	stressRMSSDWt    = 0.3
	stressHRWeight   = 0.3
)

// timeDomainHRV 时域HRV指标集
type timeDomainHRV struct {
	AVNN  float64
	SDNN  float64
	RMSSD float64
	SDSD  float64
	PNN50 float64
	PNN20 float64
}

// computeTimeDomainHRV 对RR序列计算AVNN/SDNN/RMSSD/SDSD/pNN50/pNN20
func computeTimeDomainHRV(rr []float64) timeDomainHRV {
	var out timeDomainHRV
	if len(rr) == 0 {
		return out
	}
	out.AVNN = stat.Mean(rr, nil)
	if len(rr) >= 2 {
		out.SDNN = stat.StdDev(rr, nil)
	}

	if len(rr) < 2 {
		return out
	}
	diffs := make([]float64, 0, len(rr)-1)
	var sumSq float64
	var nn50, nn20 int
	for i := 1; i < len(rr); i++ {
		d := rr[i] - rr[i-1]
		diffs = append(diffs, d)
		sumSq += d * d
		if math.Abs(d) > pnnFastThresholdMs {
			nn50++
		}
		if math.Abs(d) > pnnSlowThresholdMs {
			nn20++
		}
	}
	out.RMSSD = math.Sqrt(sumSq / float64(len(diffs)))
	if len(diffs) >= 2 {
		out.SDSD = stat.StdDev(diffs, nil)
	}
	out.PNN50 = float64(nn50) / float64(len(diffs)) * 100
	out.PNN20 = float64(nn20) / float64(len(diffs)) * 100
	return out
}

// stressIndex 归一化压力指数，裁剪到[0,1]
// SDNN/RMSSD越低、心率偏离静息基线越远，压力越高
func stressIndex(sdnn, rmssdVal, bpm float64) float64 {
	sdnnStress := 1 - normalize(sdnn, stressSDNNLow, stressSDNNHigh)
	rmssdStress := 1 - normalize(rmssdVal, stressRMSSDLow, stressRMSSDHigh)

	hrStress := 0.0
	if bpm > 0 {
		hrStress = math.Abs(bpm-restingBPM) / restingBPM
		if hrStress > 1 {
			hrStress = 1
		}
	}

	v := stressSDNNWeight*sdnnStress + stressRMSSDWt*rmssdStress + stressHRWeight*hrStress
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func normalize(v, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	n := (v - lo) / (hi - lo)
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}
