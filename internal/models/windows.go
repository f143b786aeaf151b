package models

// BandPowers 脑电五个经典频段的功率
type BandPowers struct {
	Delta float64 `json:"delta"` // 0.5-4Hz
	Theta float64 `json:"theta"` // 4-8Hz
	Alpha float64 `json:"alpha"` // 8-13Hz
	Beta  float64 `json:"beta"`  // 13-30Hz
	Gamma float64 `json:"gamma"` // 30-50Hz
}

// BioIndices 脑电派生指标（由频段功率比值计算）
type BioIndices struct {
	Focus              float64 `json:"focus"`               // beta/(alpha+theta)
	Relaxation         float64 `json:"relaxation"`          // alpha/(alpha+beta)
	Stress             float64 `json:"stress"`              // (beta+gamma)/(alpha+theta)
	HemisphericBalance float64 `json:"hemispheric_balance"` // (左alpha-右alpha)/(左alpha+右alpha)
	CognitiveLoad      float64 `json:"cognitive_load"`      // theta/alpha
	EmotionalStability float64 `json:"emotional_stability"` // (alpha+theta)/gamma
}

// BioWindow 脑电通道一次处理窗口的输出
type BioWindow struct {
	StartTimestampMs float64    `json:"start_timestamp_ms"`
	EndTimestampMs   float64    `json:"end_timestamp_ms"`
	FilteredCh1      []float64  `json:"-"`
	FilteredCh2      []float64  `json:"-"`
	SQI              []float64  `json:"-"` // 每采样点信号质量 0-100
	OverallQuality   float64    `json:"overall_quality"`
	BandsCh1         BandPowers `json:"bands_ch1"`
	BandsCh2         BandPowers `json:"bands_ch2"`
	Bands            BandPowers `json:"bands"` // 双通道平均
	Indices          BioIndices `json:"indices"`
	LeadOffRatio     float64    `json:"lead_off_ratio"`
}

// PulseWindow 脉搏通道一次处理窗口的输出
type PulseWindow struct {
	StartTimestampMs float64   `json:"start_timestamp_ms"`
	EndTimestampMs   float64   `json:"end_timestamp_ms"`
	FilteredRed      []float64 `json:"-"`
	FilteredIR       []float64 `json:"-"`
	SQI              []float64 `json:"-"`
	OverallQuality   float64   `json:"overall_quality"`
	HeartRate        float64   `json:"heart_rate"` // BPM，不可信时为0
	HRConfidence     float64   `json:"hr_confidence"`
	RRIntervalsMs    []float64 `json:"rr_intervals_ms"`
	RMSSD            float64   `json:"rmssd"`
	SpO2             float64   `json:"spo2"`
}

// ActivityClass 活动分类
type ActivityClass string

const (
	ActivityStationary ActivityClass = "stationary"
	ActivityWalking    ActivityClass = "walking"
	ActivityRunning    ActivityClass = "running"
)

// PostureClass 姿态分类（按重力主轴判断）
type PostureClass string

const (
	PostureUpright PostureClass = "upright"
	PostureLying   PostureClass = "lying"
	PostureUnknown PostureClass = "unknown"
)

// InertialWindow 加速度通道一次处理窗口的输出
type InertialWindow struct {
	StartTimestampMs float64       `json:"start_timestamp_ms"`
	EndTimestampMs   float64       `json:"end_timestamp_ms"`
	Magnitude        []float64     `json:"-"`
	SQI              []float64     `json:"-"`
	OverallQuality   float64       `json:"overall_quality"`
	Activity         ActivityClass `json:"activity"`
	Posture          PostureClass  `json:"posture"`
	MotionIntensity  float64       `json:"motion_intensity"` // 去重力后幅值标准差
	StepFrequencyHz  float64       `json:"step_frequency_hz"`
}
