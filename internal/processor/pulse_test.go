package processor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wisefido-wearable/internal/models"
)

const pulseFs = 50

// makePulseSamples 生成周期性脉搏波，bpm为目标心率
func makePulseSamples(n int, bpm, redAmp, irAmp float64) []models.PulseSample {
	samples := make([]models.PulseSample, n)
	freq := bpm / 60.0
	for i := range samples {
		t := float64(i) / pulseFs
		samples[i] = models.PulseSample{
			TimestampMs: t * 1000,
			Red:         uint32(120000 + redAmp*math.Sin(2*math.Pi*freq*t)),
			IR:          uint32(150000 + irAmp*math.Sin(2*math.Pi*freq*t)),
		}
	}
	return samples
}

func TestPulseProcess_InsufficientData(t *testing.T) {
	p := NewPulseProcessor(pulseFs, zap.NewNop())

	_, err := p.Process(makePulseSamples(100, 60, 2000, 3000))
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestPulseProcess_SixtyBPM(t *testing.T) {
	p := NewPulseProcessor(pulseFs, zap.NewNop())

	// 60BPM（1000ms周期）的合成信号，检出心率应在±2BPM内
	w, err := p.Process(makePulseSamples(500, 60, 2000, 3000))
	require.NoError(t, err)

	assert.InDelta(t, 60, w.HeartRate, 2)
	assert.Greater(t, w.HRConfidence, 0.8)
	require.NotEmpty(t, w.RRIntervalsMs)
	for _, rr := range w.RRIntervalsMs {
		assert.InDelta(t, 1000, rr, 60)
	}
	// 规则节律的RMSSD应很小
	assert.Less(t, w.RMSSD, 50.0)
}

func TestPulseProcess_HeartRatePlausibleRange(t *testing.T) {
	p := NewPulseProcessor(pulseFs, zap.NewNop())

	for _, bpm := range []float64{50, 75, 120} {
		w, err := p.Process(makePulseSamples(500, bpm, 2000, 3000))
		require.NoError(t, err, "bpm=%v", bpm)
		if w.HeartRate != 0 {
			assert.GreaterOrEqual(t, w.HeartRate, 40.0)
			assert.LessOrEqual(t, w.HeartRate, 200.0)
			assert.InDelta(t, bpm, w.HeartRate, 5)
		}
	}
}

func TestPulseProcess_SpO2Range(t *testing.T) {
	p := NewPulseProcessor(pulseFs, zap.NewNop())

	w, err := p.Process(makePulseSamples(500, 60, 2000, 3000))
	require.NoError(t, err)

	assert.GreaterOrEqual(t, w.SpO2, 85.0)
	assert.LessOrEqual(t, w.SpO2, 100.0)
}

func TestPulseProcess_FlatSignalEmitsZeroHR(t *testing.T) {
	p := NewPulseProcessor(pulseFs, zap.NewNop())

	// 无脉动（传感器脱离皮肤）：输出置零但不报错中断
	flat := make([]models.PulseSample, 500)
	for i := range flat {
		flat[i] = models.PulseSample{TimestampMs: float64(i) * 20, Red: 120000, IR: 150000}
	}

	w, err := p.Process(flat)
	assert.ErrorIs(t, err, ErrInvalidQuality)
	require.NotNil(t, w)
	assert.Equal(t, 0.0, w.HeartRate)
	assert.Equal(t, 0.0, w.OverallQuality)
}

func TestFilterRR_PhysiologicalRangeAndIQR(t *testing.T) {
	// 100ms与5000ms超出[300,1500]直接剔除
	rr := []float64{100, 800, 810, 790, 805, 5000}
	out := filterRR(rr)
	assert.Equal(t, []float64{800, 810, 790, 805}, out)

	// 离群值被1.5×IQR规则剔除
	rr = []float64{800, 805, 810, 795, 800, 1450}
	out = filterRR(rr)
	assert.NotContains(t, out, 1450.0)
	assert.Contains(t, out, 800.0)
}

func TestWeightedHeartRate_RejectsImplausible(t *testing.T) {
	// RR=2000ms对应30BPM，低于下限40，判为不可信
	bpm, conf := weightedHeartRate([]float64{2000, 2000, 2000})
	assert.Equal(t, 0.0, bpm)
	assert.Equal(t, 0.0, conf)

	bpm, conf = weightedHeartRate([]float64{})
	assert.Equal(t, 0.0, bpm)
	assert.Equal(t, 0.0, conf)
}

func TestWeightedHeartRate_WeightsRecentHigher(t *testing.T) {
	// 序列后段更快：加权结果应高于简单平均
	rr := []float64{1000, 1000, 1000, 600, 600, 600}
	bpm, conf := weightedHeartRate(rr)
	require.NotZero(t, bpm)

	var plain float64
	for _, v := range rr {
		plain += 60000 / v
	}
	plain /= float64(len(rr))

	assert.Greater(t, bpm, plain)
	// 此序列CV≈0.25，低于0.5的打折阈值，置信度保持满值
	assert.InDelta(t, 1.0, conf, 1e-9)
}

func TestRMSSD(t *testing.T) {
	assert.Equal(t, 0.0, rmssd([]float64{800}))
	// 差值恒为10 → RMSSD = 10
	assert.InDelta(t, 10, rmssd([]float64{800, 810, 820, 830}), 1e-9)
}
