package aggregator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wisefido-wearable/internal/models"
)

func newTestAggregator() *Aggregator {
	return New(Config{
		BioGate:          80,
		PulseGate:        80,
		InertialGate:     50,
		SpectralInterval: time.Second,
	}, zap.NewNop())
}

func bioWindow(quality float64) *models.BioWindow {
	return &models.BioWindow{
		OverallQuality: quality,
		Indices:        models.BioIndices{Focus: 0.8, Relaxation: 0.6},
		Bands:          models.BandPowers{Alpha: 10, Beta: 5},
	}
}

func TestIngestBio_QualityGateBoundary(t *testing.T) {
	a := newTestAggregator()

	// SQI=79：不得改变队列
	assert.False(t, a.IngestBio(bioWindow(79)))
	assert.Equal(t, 0, a.BioQueueLen())

	// SQI=80：恰好追加一个条目
	assert.True(t, a.IngestBio(bioWindow(80)))
	assert.Equal(t, 1, a.BioQueueLen())
}

func TestIngestBio_QueueEvictsOldestAtCapacity(t *testing.T) {
	a := newTestAggregator()

	for i := 0; i < gatedQueueCapacity; i++ {
		require.True(t, a.IngestBio(bioWindow(90)))
	}
	require.Equal(t, gatedQueueCapacity, a.BioQueueLen())

	// 满员后再追加：长度不变（最旧者被逐出）
	assert.True(t, a.IngestBio(bioWindow(95)))
	assert.Equal(t, gatedQueueCapacity, a.BioQueueLen())
}

func TestIngestPulse_RRRestrictedToPhysiologicalRange(t *testing.T) {
	a := newTestAggregator()

	a.IngestPulse(&models.PulseWindow{
		OverallQuality: 90,
		RRIntervalsMs:  []float64{250, 800, 900, 1300, 1000},
	})

	// 250和1300在[300,1200]之外，不进入长缓冲
	assert.Equal(t, 3, a.BeatRingLen())
}

func TestIngestPulse_MovingAverageSkipsZeroReadings(t *testing.T) {
	a := newTestAggregator()

	a.IngestPulse(&models.PulseWindow{OverallQuality: 90, HeartRate: 72, SpO2: 97})
	a.IngestPulse(&models.PulseWindow{OverallQuality: 90, HeartRate: 0, SpO2: 0})
	a.IngestPulse(&models.PulseWindow{OverallQuality: 90, HeartRate: 68, SpO2: 95})

	m := a.Snapshot()
	// 零读数不参与平均
	assert.InDelta(t, 70, m.Pulse.HeartRate, 1e-9)
	assert.InDelta(t, 96, m.Pulse.SpO2, 1e-9)
}

func TestSpectral_UnstableInputLeavesStateUnchanged(t *testing.T) {
	a := newTestAggregator()

	// 先注入带LF节律调制的平稳RR序列使频域状态有效
	// 周期10拍（约8s → 0.125Hz），逐拍变化远小于25%
	stable := &models.PulseWindow{OverallQuality: 90}
	for i := 0; i < 40; i++ {
		stable.RRIntervalsMs = append(stable.RRIntervalsMs, 800+50*math.Sin(2*math.Pi*float64(i)/10))
	}
	a.IngestPulse(stable)

	before := a.Snapshot().Spectral
	require.Equal(t, models.SpectralStable, before.Phase)
	require.Greater(t, before.LFPower, 0.0)

	// 再反复注入剧烈跳变的RR：校验失败，数值保持不变
	for n := 0; n < 5; n++ {
		jumpy := &models.PulseWindow{OverallQuality: 90}
		for i := 0; i < 40; i++ {
			if i%2 == 0 {
				jumpy.RRIntervalsMs = append(jumpy.RRIntervalsMs, 400)
			} else {
				jumpy.RRIntervalsMs = append(jumpy.RRIntervalsMs, 1100)
			}
		}
		a.IngestPulse(jumpy)

		after := a.Snapshot().Spectral
		assert.Equal(t, models.SpectralDegraded, after.Phase)
		assert.Equal(t, before.LFPower, after.LFPower)
		assert.Equal(t, before.HFPower, after.HFPower)
		assert.Equal(t, before.LFHF, after.LFHF)
	}
}

func TestSpectral_ColdUntilMinimumSamples(t *testing.T) {
	a := newTestAggregator()

	a.IngestPulse(&models.PulseWindow{
		OverallQuality: 90,
		RRIntervalsMs:  []float64{800, 810, 820},
	})

	m := a.Snapshot()
	assert.Equal(t, models.SpectralCold, m.Spectral.Phase)
	assert.Equal(t, 0.0, m.Spectral.LFPower)
}

func TestTimeDomainHRV_KnownValues(t *testing.T) {
	// 差值序列恒为+10：RMSSD=10，SDSD=0，pNN50=0，pNN20=0（差值不超过20）
	rr := []float64{800, 810, 820, 830, 840}
	td := computeTimeDomainHRV(rr)

	assert.InDelta(t, 820, td.AVNN, 1e-9)
	assert.InDelta(t, 10, td.RMSSD, 1e-9)
	assert.InDelta(t, 0, td.SDSD, 1e-9)
	assert.Equal(t, 0.0, td.PNN50)
	assert.Equal(t, 0.0, td.PNN20)

	// 混入大差值
	td = computeTimeDomainHRV([]float64{800, 880, 800, 830, 800})
	assert.Equal(t, 50.0, td.PNN50) // 2/4超过50ms
	assert.Equal(t, 100.0, td.PNN20)
}

func TestHRMaxMin_TrackedFromAcceptedBPM(t *testing.T) {
	a := newTestAggregator()

	for _, bpm := range []float64{65, 80, 55, 210, 30} {
		a.IngestPulse(&models.PulseWindow{OverallQuality: 90, HeartRate: bpm})
	}

	m := a.Snapshot()
	// 210与30超出(40,200)不参与极值追踪
	assert.Equal(t, 80.0, m.HRV.HRMax)
	assert.Equal(t, 55.0, m.HRV.HRMin)
}

func TestStressIndex_ClampedToUnitInterval(t *testing.T) {
	assert.GreaterOrEqual(t, stressIndex(0, 0, 200), 0.0)
	assert.LessOrEqual(t, stressIndex(0, 0, 200), 1.0)
	// 高变异、静息心率 → 低压力
	assert.Less(t, stressIndex(100, 80, 65), 0.2)
	// 低变异、心率大幅偏离 → 高压力
	assert.Greater(t, stressIndex(5, 5, 130), 0.8)
}

func TestInertialGate_ConfigurableThreshold(t *testing.T) {
	a := newTestAggregator()

	assert.False(t, a.IngestInertial(&models.InertialWindow{OverallQuality: 40}))
	assert.True(t, a.IngestInertial(&models.InertialWindow{OverallQuality: 60, MotionIntensity: 0.3, Activity: models.ActivityWalking}))

	m := a.Snapshot()
	assert.InDelta(t, 0.3, m.Inertial.MotionIntensity, 1e-9)
	assert.Equal(t, string(models.ActivityWalking), m.Inertial.Activity)
}

func TestMeanValid(t *testing.T) {
	assert.InDelta(t, 75, meanValid([]float64{70, 80, 0, math.NaN()}, 1), 1e-9)
	assert.Equal(t, 0.0, meanValid(nil, 1))
	assert.Equal(t, 0.0, meanValid([]float64{0, 0}, 1))
}
