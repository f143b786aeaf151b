package processor

import (
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"wisefido-wearable/internal/dsp"
	"wisefido-wearable/internal/models"
)

const (
	inertialMinSamples = 50 // 1s @ 50Hz

	// 合理幅值范围（g）：静止时约1g，饱和/自由落体视为可疑
	inertialMagMax = 8.0
	inertialMagMin = 0.2

	// 活动分类阈值：去重力后幅值标准差（g）
	activityWalkingThreshold = 0.05
	activityRunningThreshold = 0.4

	// 姿态判定：重力主轴分量阈值（g）
	postureAxisThreshold = 0.7

	// 步频检测的最小摆动幅度（g）
	stepSwingThreshold = 0.05
)

// InertialProcessor 加速度通道处理器
// 幅值/重力分离 → 活动与姿态分类 → 运动强度 → SQI
type InertialProcessor struct {
	sampleRateHz float64
	logger       *zap.Logger
}

// NewInertialProcessor 创建加速度处理器
func NewInertialProcessor(sampleRateHz int, logger *zap.Logger) *InertialProcessor {
	return &InertialProcessor{
		sampleRateHz: float64(sampleRateHz),
		logger:       logger,
	}
}

// Process 处理一个缓冲快照
func (p *InertialProcessor) Process(samples []models.InertialSample) (*models.InertialWindow, error) {
	if len(samples) < inertialMinSamples {
		return nil, ErrInsufficientData
	}

	mag := make([]float64, len(samples))
	var sumX, sumY, sumZ float64
	for i, s := range samples {
		mag[i] = s.Magnitude
		sumX += s.X
		sumY += s.Y
		sumZ += s.Z
	}
	n := float64(len(samples))
	meanX, meanY, meanZ := sumX/n, sumY/n, sumZ/n

	// 1s滑动平均近似重力分量，残差为动态加速度
	gravity := dsp.MovingAverage(mag, int(p.sampleRateHz))
	dynamic := make([]float64, len(mag))
	for i := range mag {
		dynamic[i] = mag[i] - gravity[i]
	}
	intensity := stat.StdDev(dynamic, nil)

	sqi := p.computeSQI(mag, dynamic)
	_, overall := qualityStats(sqi, 50)

	w := &models.InertialWindow{
		StartTimestampMs: samples[0].TimestampMs,
		EndTimestampMs:   samples[len(samples)-1].TimestampMs,
		Magnitude:        mag,
		SQI:              sqi,
		OverallQuality:   overall,
		Activity:         classifyActivity(intensity),
		Posture:          classifyPosture(meanX, meanY, meanZ),
		MotionIntensity:  intensity,
		StepFrequencyHz:  p.stepFrequency(dynamic),
	}
	if overall == 0 {
		return w, ErrInvalidQuality
	}
	return w, nil
}

// computeSQI 幅值合理性为主（70%），动态方差合理性为辅（30%）
func (p *InertialProcessor) computeSQI(mag, dynamic []float64) []float64 {
	win := int(p.sampleRateHz / 2)
	if win < 2 {
		win = 2
	}
	sqi := make([]float64, len(mag))
	for start := 0; start < len(mag); start += win {
		end := start + win
		if end > len(mag) {
			end = len(mag)
		}

		plausible := 0
		for _, m := range mag[start:end] {
			if m >= inertialMagMin && m <= inertialMagMax {
				plausible++
			}
		}
		ampScore := float64(plausible) / float64(end-start) * 100

		// 动态方差过大说明剧烈晃动或撞击，线性衰减
		v := stat.Variance(dynamic[start:end], nil)
		varScore := clamp01(1-v/4.0) * 100

		score := amplitudeWeight*ampScore + varianceWeight*varScore
		for i := start; i < end; i++ {
			sqi[i] = score
		}
	}
	return sqi
}

func classifyActivity(intensity float64) models.ActivityClass {
	switch {
	case intensity < activityWalkingThreshold:
		return models.ActivityStationary
	case intensity < activityRunningThreshold:
		return models.ActivityWalking
	default:
		return models.ActivityRunning
	}
}

// classifyPosture 按重力主轴判断姿态
// 头戴设备直立时重力沿Z轴，躺卧时转移到X/Y轴
func classifyPosture(meanX, meanY, meanZ float64) models.PostureClass {
	ax, ay, az := math.Abs(meanX), math.Abs(meanY), math.Abs(meanZ)
	switch {
	case az >= postureAxisThreshold:
		return models.PostureUpright
	case ax >= postureAxisThreshold || ay >= postureAxisThreshold:
		return models.PostureLying
	default:
		return models.PostureUnknown
	}
}

// stepFrequency 动态加速度向上穿越阈值的频率
func (p *InertialProcessor) stepFrequency(dynamic []float64) float64 {
	if len(dynamic) < 2 {
		return 0
	}
	crossings := 0
	for i := 1; i < len(dynamic); i++ {
		if dynamic[i-1] < stepSwingThreshold && dynamic[i] >= stepSwingThreshold {
			crossings++
		}
	}
	durationSec := float64(len(dynamic)) / p.sampleRateHz
	if durationSec <= 0 {
		return 0
	}
	return float64(crossings) / durationSec
}
