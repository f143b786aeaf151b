package aggregator

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"wisefido-wearable/internal/buffer"
	"wisefido-wearable/internal/models"
)

const (
	// 门限队列长度：典型节奏下约2分钟
	gatedQueueCapacity = 120

	// RR长缓冲与插入时的生理范围（毫秒）
	beatRingCapacity = 120
	rrPhysioMinMs    = 300
	rrPhysioMaxMs    = 1200

	// 心率极值追踪缓冲与生理范围（BPM，开区间）
	bpmRingCapacity = 60
	bpmTrackMin     = 40
	bpmTrackMax     = 200

	// 滑动平均中参与计算的字段下限（零/NaN读数不拖低平均）
	minValidHR    = 1
	minValidSpO2  = 50
	minValidRatio = 0.001
)

// Config 聚合器配置
type Config struct {
	BioGate          float64       // 脑电窗口SQI门限
	PulseGate        float64       // 脉搏窗口SQI门限
	InertialGate     float64       // 加速度窗口SQI门限
	SpectralInterval time.Duration // RR缓冲满后的最小重算间隔
}

// bioEntry / pulseEntry / inertialEntry 进入门限队列的逐窗口指标样本
type bioEntry struct {
	indices models.BioIndices
	bands   models.BandPowers
}

type pulseEntry struct {
	heartRate float64
	rmssd     float64
	spo2      float64
}

type inertialEntry struct {
	intensity float64
	activity  models.ActivityClass
}

// Aggregator 跨窗口分析指标聚合器
// 每个通道拥有互不相交的队列状态；快照在发出时整体加锁拷贝。
// 显式构造、显式持有，同一进程可以并存多个实例（多设备会话）。
type Aggregator struct {
	mu sync.Mutex

	cfg    Config
	logger *zap.Logger

	bioQueue      *GatedQueue[bioEntry]
	pulseQueue    *GatedQueue[pulseEntry]
	inertialQueue *GatedQueue[inertialEntry]

	beatRing *buffer.Ring[float64] // RR区间长缓冲
	bpmRing  *buffer.Ring[float64] // 心率极值追踪

	spectral *spectralEngine
	hrv      models.HRVMetrics
}

// New 创建聚合器
func New(cfg Config, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		cfg:           cfg,
		logger:        logger,
		bioQueue:      NewGatedQueue[bioEntry](gatedQueueCapacity),
		pulseQueue:    NewGatedQueue[pulseEntry](gatedQueueCapacity),
		inertialQueue: NewGatedQueue[inertialEntry](gatedQueueCapacity),
		beatRing:      buffer.NewRing[float64](beatRingCapacity),
		bpmRing:       buffer.NewRing[float64](bpmRingCapacity),
		spectral:      newSpectralEngine(cfg.SpectralInterval),
	}
}

// IngestBio 注入一个脑电处理窗口，返回是否通过质量门限
func (a *Aggregator) IngestBio(w *models.BioWindow) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if w.OverallQuality < a.cfg.BioGate {
		return false
	}
	a.bioQueue.Push(bioEntry{indices: w.Indices, bands: w.Bands})
	return true
}

// IngestPulse 注入一个脉搏处理窗口
// RR区间无论门限是否通过都进入长缓冲（插入时限定生理范围），
// 滑动平均只在门限通过时更新
func (a *Aggregator) IngestPulse(w *models.PulseWindow) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, rr := range w.RRIntervalsMs {
		if rr >= rrPhysioMinMs && rr <= rrPhysioMaxMs {
			a.beatRing.Push(rr)
		}
	}
	if w.HeartRate > bpmTrackMin && w.HeartRate < bpmTrackMax {
		a.bpmRing.Push(w.HeartRate)
	}

	a.recomputeHRV()

	if w.OverallQuality < a.cfg.PulseGate {
		return false
	}
	a.pulseQueue.Push(pulseEntry{
		heartRate: w.HeartRate,
		rmssd:     w.RMSSD,
		spo2:      w.SpO2,
	})
	return true
}

// IngestInertial 注入一个加速度处理窗口
func (a *Aggregator) IngestInertial(w *models.InertialWindow) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if w.OverallQuality < a.cfg.InertialGate {
		return false
	}
	a.inertialQueue.Push(inertialEntry{
		intensity: w.MotionIntensity,
		activity:  w.Activity,
	})
	return true
}

// recomputeHRV 更新时域HRV与频域状态（调用方须已持锁）
func (a *Aggregator) recomputeHRV() {
	rr := a.beatRing.ToSlice()
	td := computeTimeDomainHRV(rr)

	a.hrv.AVNN = td.AVNN
	a.hrv.SDNN = td.SDNN
	a.hrv.RMSSD = td.RMSSD
	a.hrv.SDSD = td.SDSD
	a.hrv.PNN50 = td.PNN50
	a.hrv.PNN20 = td.PNN20

	bpms := a.bpmRing.ToSlice()
	a.hrv.HRMax, a.hrv.HRMin = 0, 0
	for _, b := range bpms {
		if a.hrv.HRMax == 0 || b > a.hrv.HRMax {
			a.hrv.HRMax = b
		}
		if a.hrv.HRMin == 0 || b < a.hrv.HRMin {
			a.hrv.HRMin = b
		}
	}

	meanBPM := 0.0
	if td.AVNN > 0 {
		meanBPM = 60000.0 / td.AVNN
	}
	a.hrv.StressIndex = stressIndex(td.SDNN, td.RMSSD, meanBPM)

	if err := a.spectral.maybeRecompute(rr, a.beatRing.Full()); err != nil {
		a.logger.Debug("Spectral recomputation rejected, keeping previous state",
			zap.Error(err),
			zap.Int("rr_count", len(rr)),
		)
	}
}

// Snapshot 返回当前聚合指标的只读拷贝
func (a *Aggregator) Snapshot() models.AggregatedMetrics {
	a.mu.Lock()
	defer a.mu.Unlock()

	m := models.AggregatedMetrics{
		TimestampMs: time.Now().UnixMilli(),
		HRV:         a.hrv,
		Spectral:    a.spectral.snapshot(),
	}

	bios := a.bioQueue.Values()
	if len(bios) > 0 {
		focus := make([]float64, len(bios))
		relax := make([]float64, len(bios))
		stress := make([]float64, len(bios))
		balance := make([]float64, len(bios))
		load := make([]float64, len(bios))
		stability := make([]float64, len(bios))
		var bands models.BandPowers
		for i, e := range bios {
			focus[i] = e.indices.Focus
			relax[i] = e.indices.Relaxation
			stress[i] = e.indices.Stress
			balance[i] = e.indices.HemisphericBalance
			load[i] = e.indices.CognitiveLoad
			stability[i] = e.indices.EmotionalStability
			bands.Delta += e.bands.Delta
			bands.Theta += e.bands.Theta
			bands.Alpha += e.bands.Alpha
			bands.Beta += e.bands.Beta
			bands.Gamma += e.bands.Gamma
		}
		n := float64(len(bios))
		m.Bio = models.BioAverages{
			Focus:              meanValid(focus, minValidRatio),
			Relaxation:         meanValid(relax, minValidRatio),
			Stress:             meanValid(stress, minValidRatio),
			HemisphericBalance: meanAll(balance),
			CognitiveLoad:      meanValid(load, minValidRatio),
			EmotionalStability: meanValid(stability, minValidRatio),
			Bands: models.BandPowers{
				Delta: bands.Delta / n,
				Theta: bands.Theta / n,
				Alpha: bands.Alpha / n,
				Beta:  bands.Beta / n,
				Gamma: bands.Gamma / n,
			},
		}
	}

	pulses := a.pulseQueue.Values()
	if len(pulses) > 0 {
		hr := make([]float64, len(pulses))
		rm := make([]float64, len(pulses))
		sp := make([]float64, len(pulses))
		for i, e := range pulses {
			hr[i] = e.heartRate
			rm[i] = e.rmssd
			sp[i] = e.spo2
		}
		m.Pulse = models.PulseAverages{
			HeartRate: meanValid(hr, minValidHR),
			RMSSD:     meanValid(rm, minValidRatio),
			SpO2:      meanValid(sp, minValidSpO2),
		}
	}

	inertials := a.inertialQueue.Values()
	if len(inertials) > 0 {
		intensity := make([]float64, len(inertials))
		counts := map[models.ActivityClass]int{}
		for i, e := range inertials {
			intensity[i] = e.intensity
			counts[e.activity]++
		}
		var majority models.ActivityClass
		best := 0
		for c, n := range counts {
			if n > best {
				best = n
				majority = c
			}
		}
		m.Inertial = models.InertialAverages{
			MotionIntensity: meanAll(intensity),
			Activity:        string(majority),
		}
	}

	return m
}

// BioQueueLen 脑电门限队列长度（测试与观测用）
func (a *Aggregator) BioQueueLen() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bioQueue.Len()
}

// PulseQueueLen 脉搏门限队列长度
func (a *Aggregator) PulseQueueLen() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pulseQueue.Len()
}

// BeatRingLen RR长缓冲长度
func (a *Aggregator) BeatRingLen() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.beatRing.Len()
}
