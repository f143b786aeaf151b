package processor

import (
	"math"

	"go.uber.org/zap"

	"wisefido-wearable/internal/dsp"
	"wisefido-wearable/internal/models"
)

const (
	bioMinSamples       = 500 // 2s @ 250Hz
	bioTransientDiscard = 250 // 滤波器暂态丢弃
	bioMinQualitySpan   = 250 // 质量样本不足此数时回退到全窗口

	// 脑电幅值/方差合理区间（微伏）
	bioAmpLowUv  = 10
	bioAmpHighUv = 200
	bioVarLow    = 1
	bioVarHigh   = 2500

	// 半球平衡的近零分母保护
	balanceDenominatorFloor = 0.001
)

// 频段decomposition范围：1-45Hz逐Hz小波卷积
var bioAnalysisFreqs = dsp.LinearFreqs(1, 45, 1)

// BioProcessor 脑电通道处理器
// 工频陷波 → 1-45Hz带通 → 暂态丢弃 → 逐点SQI → 质量掩码 →
// 逐频率小波分解 → 五频段功率 → 派生指标
type BioProcessor struct {
	sampleRateHz  float64
	maskThreshold float64 // 逐点质量掩码阈值（15-30可调）
	notch         *dsp.Biquad
	logger        *zap.Logger
}

// NewBioProcessor 创建脑电处理器
func NewBioProcessor(sampleRateHz int, mainsHz, maskThreshold float64, logger *zap.Logger) *BioProcessor {
	return &BioProcessor{
		sampleRateHz:  float64(sampleRateHz),
		maskThreshold: maskThreshold,
		notch:         dsp.NewNotch(float64(sampleRateHz), mainsHz, 30),
		logger:        logger,
	}
}

// Process 处理一个缓冲快照
func (p *BioProcessor) Process(samples []models.BioSample) (*models.BioWindow, error) {
	if len(samples) < bioMinSamples {
		return nil, ErrInsufficientData
	}

	ch1 := make([]float64, len(samples))
	ch2 := make([]float64, len(samples))
	var leadOffCount int
	for i, s := range samples {
		ch1[i] = s.Ch1Uv
		ch2[i] = s.Ch2Uv
		if s.LeadOffCh1 || s.LeadOffCh2 {
			leadOffCount++
		}
	}

	f1 := p.filter(ch1)
	f2 := p.filter(ch2)

	// 丢弃滤波器暂态
	f1 = f1[bioTransientDiscard:]
	f2 = f2[bioTransientDiscard:]
	trimmed := samples[bioTransientDiscard:]

	params := sqiParams{
		windowSamples: int(p.sampleRateHz / 2),
		ampLow:        bioAmpLowUv,
		ampHigh:       bioAmpHighUv,
		varLow:        bioVarLow,
		varHigh:       bioVarHigh,
	}
	sqi1 := computeSQI(f1, params)
	sqi2 := computeSQI(f2, params)

	sqi := make([]float64, len(f1))
	for i := range sqi {
		sqi[i] = (sqi1[i] + sqi2[i]) / 2
		// 电极脱落的点不可信
		if trimmed[i].LeadOffCh1 || trimmed[i].LeadOffCh2 {
			sqi[i] = 0
		}
	}

	passing, overall := qualityStats(sqi, p.maskThreshold)

	// 有足够的质量样本时只对它们做谱分析，否则回退到全窗口
	spec1, spec2 := f1, f2
	if len(passing) >= bioMinQualitySpan {
		spec1 = selectIndices(f1, passing)
		spec2 = selectIndices(f2, passing)
	}

	bands1 := p.bandPowers(spec1)
	bands2 := p.bandPowers(spec2)

	w := &models.BioWindow{
		StartTimestampMs: trimmed[0].TimestampMs,
		EndTimestampMs:   trimmed[len(trimmed)-1].TimestampMs,
		FilteredCh1:      f1,
		FilteredCh2:      f2,
		SQI:              sqi,
		OverallQuality:   overall,
		BandsCh1:         bands1,
		BandsCh2:         bands2,
		Bands:            averageBands(bands1, bands2),
		LeadOffRatio:     float64(leadOffCount) / float64(len(samples)),
	}
	w.Indices = deriveIndices(w.Bands, bands1.Alpha, bands2.Alpha)

	if overall == 0 {
		return w, ErrInvalidQuality
	}
	return w, nil
}

func (p *BioProcessor) filter(xs []float64) []float64 {
	notched := p.notch.Apply(xs)
	return dsp.NewBandPass(p.sampleRateHz, 1, 45).Apply(notched)
}

// bandPowers 小波分解后积分到五个经典频段
// 全部取绝对值，避免实核卷积负输出造成符号伪迹
func (p *BioProcessor) bandPowers(xs []float64) models.BandPowers {
	powers := dsp.WaveletPower(xs, p.sampleRateHz, bioAnalysisFreqs)
	return models.BandPowers{
		Delta: dsp.BandPower(bioAnalysisFreqs, powers, 0.5, 4),
		Theta: dsp.BandPower(bioAnalysisFreqs, powers, 4, 8),
		Alpha: dsp.BandPower(bioAnalysisFreqs, powers, 8, 13),
		Beta:  dsp.BandPower(bioAnalysisFreqs, powers, 13, 30),
		Gamma: dsp.BandPower(bioAnalysisFreqs, powers, 30, 50),
	}
}

// deriveIndices 由频段功率计算派生指标，除零一律返回0
func deriveIndices(b models.BandPowers, leftAlpha, rightAlpha float64) models.BioIndices {
	return models.BioIndices{
		Focus:              safeRatio(b.Beta, b.Alpha+b.Theta),
		Relaxation:         safeRatio(b.Alpha, b.Alpha+b.Beta),
		Stress:             safeRatio(b.Beta+b.Gamma, b.Alpha+b.Theta),
		HemisphericBalance: hemisphericBalance(leftAlpha, rightAlpha),
		CognitiveLoad:      safeRatio(b.Theta, b.Alpha),
		EmotionalStability: safeRatio(b.Alpha+b.Theta, b.Gamma),
	}
}

// hemisphericBalance (左alpha-右alpha)/(左alpha+右alpha)，裁剪到[-1,1]
// 单侧为0时直接取±1，近零分母返回0
func hemisphericBalance(left, right float64) float64 {
	left = math.Abs(left)
	right = math.Abs(right)
	switch {
	case left == 0 && right == 0:
		return 0
	case right == 0:
		return 1
	case left == 0:
		return -1
	}
	den := left + right
	if den < balanceDenominatorFloor {
		return 0
	}
	v := (left - right) / den
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

func averageBands(a, b models.BandPowers) models.BandPowers {
	return models.BandPowers{
		Delta: (a.Delta + b.Delta) / 2,
		Theta: (a.Theta + b.Theta) / 2,
		Alpha: (a.Alpha + b.Alpha) / 2,
		Beta:  (a.Beta + b.Beta) / 2,
		Gamma: (a.Gamma + b.Gamma) / 2,
	}
}

func selectIndices(xs []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = xs[j]
	}
	return out
}
