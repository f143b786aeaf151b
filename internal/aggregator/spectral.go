package aggregator

import (
	"errors"
	"math"
	"time"

	"wisefido-wearable/internal/dsp"
	"wisefido-wearable/internal/models"
)

// ErrUnstable 频域重算未通过有效性/稳定性校验，保留上次有效状态
var ErrUnstable = errors.New("aggregator: spectral recomputation unstable")

const (
	// RR序列重采样率与频段边界（Hz）
	rrResampleRateHz = 4.0
	lfLowHz          = 0.04
	lfHighHz         = 0.15
	hfLowHz          = 0.15
	hfHighHz         = 0.40

	// HF功率相对LF小得离谱时改用加宽HF频段重试
	hfWideLowHz     = 0.12
	hfWideHighHz    = 0.50
	hfImplausibleLF = 0.02

	// 接受校验：RR有效占比与逐拍稳定占比都须超过0.75
	acceptRatio        = 0.75
	successiveJumpOver = 0.25

	spectralMinSamples = 30
)

// spectralEngine 频域HRV状态机
// Cold：样本不足；Warming：已计算但尚未通过校验；
// Stable：最近一次重算通过；Degraded：重算失败，保留上次有效值。
// 任何失败路径都不会把已有的LF/HF清零。
type spectralEngine struct {
	phase models.SpectralPhase
	lf    float64
	hf    float64
	ratio float64

	minSamples  int
	interval    time.Duration
	lastCompute time.Time
	now         func() time.Time
}

func newSpectralEngine(interval time.Duration) *spectralEngine {
	return &spectralEngine{
		phase:      models.SpectralCold,
		minSamples: spectralMinSamples,
		interval:   interval,
		now:        time.Now,
	}
}

// maybeRecompute 在样本量和最小间隔允许时重算频域指标
// ringFull为真时按最小重算间隔节流（限制CPU开销）
func (e *spectralEngine) maybeRecompute(rr []float64, ringFull bool) error {
	if len(rr) < e.minSamples {
		return nil
	}
	if ringFull && e.now().Sub(e.lastCompute) < e.interval {
		return nil
	}
	e.lastCompute = e.now()

	if !e.seriesAcceptable(rr) {
		e.fail()
		return ErrUnstable
	}

	lf, hf, ok := welchBandPowers(rr)
	if !ok {
		e.fail()
		return ErrUnstable
	}

	e.lf = lf
	e.hf = hf
	if hf > 0 {
		e.ratio = lf / hf
	} else {
		e.ratio = 0
	}
	e.phase = models.SpectralStable
	return nil
}

// fail 记录一次失败转移，不触碰已有数值
func (e *spectralEngine) fail() {
	switch e.phase {
	case models.SpectralCold, models.SpectralWarming:
		e.phase = models.SpectralWarming
	default:
		e.phase = models.SpectralDegraded
	}
}

// seriesAcceptable 有效占比与稳定占比校验
func (e *spectralEngine) seriesAcceptable(rr []float64) bool {
	if len(rr) < 2 {
		return false
	}
	valid := 0
	for _, v := range rr {
		if v >= rrPhysioMinMs && v <= rrPhysioMaxMs {
			valid++
		}
	}
	validRatio := float64(valid) / float64(len(rr))

	stable := 0
	for i := 1; i < len(rr); i++ {
		prev := rr[i-1]
		if prev <= 0 {
			continue
		}
		if math.Abs(rr[i]-prev)/prev <= successiveJumpOver {
			stable++
		}
	}
	stabilityRatio := float64(stable) / float64(len(rr)-1)

	return validRatio > acceptRatio && stabilityRatio > acceptRatio
}

// welchBandPowers RR序列重采样后做Welch周期图，积分LF/HF频段
func welchBandPowers(rr []float64) (lf, hf float64, ok bool) {
	// 累计时间轴（秒），RR值本身作为被插值信号
	ts := make([]float64, len(rr))
	var cum float64
	for i, v := range rr {
		cum += v / 1000.0
		ts[i] = cum
	}

	uniform := dsp.ResampleUniform(ts, rr, rrResampleRateHz)
	if len(uniform) < 16 {
		return 0, 0, false
	}
	uniform = dsp.RemoveDC(uniform)

	freqs, psd := dsp.WelchPSD(uniform, rrResampleRateHz)
	if len(psd) == 0 {
		return 0, 0, false
	}

	lf = dsp.IntegrateBand(freqs, psd, lfLowHz, lfHighHz)
	hf = dsp.IntegrateBand(freqs, psd, hfLowHz, hfHighHz)

	// HF相对LF小得不合理时，改用加宽的HF频段再试一次
	if lf > 0 && hf < lf*hfImplausibleLF {
		hf = dsp.IntegrateBand(freqs, psd, hfWideLowHz, hfWideHighHz)
	}

	if lf < 0 || hf < 0 {
		return 0, 0, false
	}
	return lf, hf, true
}

// snapshot 当前频域状态（最后有效值）
func (e *spectralEngine) snapshot() models.SpectralMetrics {
	return models.SpectralMetrics{
		Phase:   e.phase,
		LFPower: e.lf,
		HFPower: e.hf,
		LFHF:    e.ratio,
	}
}
