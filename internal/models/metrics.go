package models

// SpectralPhase 频域HRV状态机的阶段
type SpectralPhase string

const (
	SpectralCold     SpectralPhase = "cold"     // RR样本不足，尚未计算
	SpectralWarming  SpectralPhase = "warming"  // 样本已够，首次计算未通过校验
	SpectralStable   SpectralPhase = "stable"   // 最近一次重算通过校验
	SpectralDegraded SpectralPhase = "degraded" // 重算失败，保留上次有效值
)

// SpectralMetrics 频域HRV指标（最近一次有效计算的结果）
type SpectralMetrics struct {
	Phase   SpectralPhase `json:"phase"`
	LFPower float64       `json:"lf_power"` // 0.04-0.15Hz
	HFPower float64       `json:"hf_power"` // 0.15-0.4Hz
	LFHF    float64       `json:"lf_hf"`
}

// HRVMetrics 时域HRV指标（在长RR缓冲上计算）
type HRVMetrics struct {
	AVNN        float64 `json:"avnn"`
	SDNN        float64 `json:"sdnn"`
	RMSSD       float64 `json:"rmssd"`
	SDSD        float64 `json:"sdsd"`
	PNN50       float64 `json:"pnn50"` // 百分比
	PNN20       float64 `json:"pnn20"`
	StressIndex float64 `json:"stress_index"` // 0-1
	HRMax       float64 `json:"hr_max"`
	HRMin       float64 `json:"hr_min"`
}

// BioAverages 脑电滑动平均
type BioAverages struct {
	Focus              float64    `json:"focus"`
	Relaxation         float64    `json:"relaxation"`
	Stress             float64    `json:"stress"`
	HemisphericBalance float64    `json:"hemispheric_balance"`
	CognitiveLoad      float64    `json:"cognitive_load"`
	EmotionalStability float64    `json:"emotional_stability"`
	Bands              BandPowers `json:"bands"`
}

// PulseAverages 脉搏滑动平均
type PulseAverages struct {
	HeartRate float64 `json:"heart_rate"`
	RMSSD     float64 `json:"rmssd"`
	SpO2      float64 `json:"spo2"`
}

// InertialAverages 活动滑动平均
type InertialAverages struct {
	MotionIntensity float64 `json:"motion_intensity"`
	Activity        string  `json:"activity"` // 窗口多数分类
}

// AggregatedMetrics 聚合后的分析指标快照
// 由聚合器在每个被接受的窗口后发出，下游只读
type AggregatedMetrics struct {
	SessionID   string           `json:"session_id"`
	DeviceID    string           `json:"device_id"`
	TenantID    string           `json:"tenant_id,omitempty"`
	TimestampMs int64            `json:"timestamp_ms"`
	Bio         BioAverages      `json:"bio"`
	Pulse       PulseAverages    `json:"pulse"`
	Inertial    InertialAverages `json:"inertial"`
	HRV         HRVMetrics       `json:"hrv"`
	Spectral    SpectralMetrics  `json:"spectral"`
}
