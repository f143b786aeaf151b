package processor

import (
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"wisefido-wearable/internal/dsp"
	"wisefido-wearable/internal/models"
)

const (
	pulseMinSamples = 150 // 3s @ 50Hz

	// 边缘暂态裁剪：每侧0.5s
	pulseEdgeTrimSec = 0.5

	// 脉搏波带通（心率0.5-5Hz对应30-300BPM）
	pulseBandLowHz  = 0.5
	pulseBandHighHz = 5.0

	// 脉搏AC幅值/方差合理区间（ADC计数）
	pulseAmpLow  = 20
	pulseAmpHigh = 50000
	pulseVarLow  = 10
	pulseVarHigh = 2.5e8

	pulseMaskThreshold = 30
)

// PulseProcessor 光电脉搏通道处理器
// 边缘裁剪 → 去直流+带通 → SQI → 多方法峰检测 → RR/心率/RMSSD → SpO2
// 不保留跨窗口HRV状态，长时程HRV全部交给聚合器
type PulseProcessor struct {
	sampleRateHz float64
	logger       *zap.Logger
}

// NewPulseProcessor 创建脉搏处理器
func NewPulseProcessor(sampleRateHz int, logger *zap.Logger) *PulseProcessor {
	return &PulseProcessor{
		sampleRateHz: float64(sampleRateHz),
		logger:       logger,
	}
}

// Process 处理一个缓冲快照
func (p *PulseProcessor) Process(samples []models.PulseSample) (*models.PulseWindow, error) {
	if len(samples) < pulseMinSamples {
		return nil, ErrInsufficientData
	}

	// 裁剪两侧暂态
	trim := int(pulseEdgeTrimSec * p.sampleRateHz)
	if len(samples) <= 4*trim {
		trim = 0
	}
	trimmed := samples[trim : len(samples)-trim]

	rawRed := make([]float64, len(trimmed))
	rawIR := make([]float64, len(trimmed))
	for i, s := range trimmed {
		rawRed[i] = float64(s.Red)
		rawIR[i] = float64(s.IR)
	}

	band := dsp.NewBandPass(p.sampleRateHz, pulseBandLowHz, pulseBandHighHz)
	fRed := band.Apply(dsp.RemoveDC(rawRed))
	fIR := dsp.NewBandPass(p.sampleRateHz, pulseBandLowHz, pulseBandHighHz).Apply(dsp.RemoveDC(rawIR))

	params := sqiParams{
		windowSamples: int(p.sampleRateHz / 2),
		ampLow:        pulseAmpLow,
		ampHigh:       pulseAmpHigh,
		varLow:        pulseVarLow,
		varHigh:       pulseVarHigh,
	}
	sqiRed := computeSQI(fRed, params)
	sqiIR := computeSQI(fIR, params)
	sqi := make([]float64, len(fIR))
	for i := range sqi {
		sqi[i] = (sqiRed[i] + sqiIR[i]) / 2
	}
	_, overall := qualityStats(sqi, pulseMaskThreshold)

	// 峰检测在平滑零均值的红外通道上做（信噪比更好）
	smoothed := dsp.RemoveDC(dsp.MovingAverage(fIR, smoothWindow))
	peaks := p.bestPeakSet(smoothed)

	rr := filterRR(rrFromPeaks(peaks, p.sampleRateHz))
	bpm, confidence := weightedHeartRate(rr)

	w := &models.PulseWindow{
		StartTimestampMs: trimmed[0].TimestampMs,
		EndTimestampMs:   trimmed[len(trimmed)-1].TimestampMs,
		FilteredRed:      fRed,
		FilteredIR:       fIR,
		SQI:              sqi,
		OverallQuality:   overall,
		HeartRate:        bpm,
		HRConfidence:     confidence,
		RRIntervalsMs:    rr,
		RMSSD:            rmssd(rr),
		SpO2: computeSpO2(
			peakToPeak(fRed), stat.Mean(rawRed, nil),
			peakToPeak(fIR), stat.Mean(rawIR, nil),
			overall,
		),
	}

	if overall == 0 {
		return w, ErrInvalidQuality
	}
	return w, nil
}

// bestPeakSet 运行两种检测器，按评分取优
func (p *PulseProcessor) bestPeakSet(xs []float64) []int {
	adaptive := detectPeaksAdaptive(xs, p.sampleRateHz)
	derivative := detectPeaksDerivative(xs, p.sampleRateHz)

	scoreA := scorePeakSet(xs, adaptive, p.sampleRateHz)
	scoreD := scorePeakSet(xs, derivative, p.sampleRateHz)

	if scoreD > scoreA {
		return derivative
	}
	return adaptive
}
