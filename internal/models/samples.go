package models

// ChannelTag 通道标识（对应设备的三路BLE特征）
type ChannelTag string

const (
	ChannelBio      ChannelTag = "bio"      // 脑电（双通道）
	ChannelPulse    ChannelTag = "pulse"    // 光电容积脉搏波（红光/红外）
	ChannelInertial ChannelTag = "inertial" // 三轴加速度
)

// RawFrame 设备通知的原始二进制帧
// Payload 由传输层持有，解码器一次性消费
type RawFrame struct {
	Channel ChannelTag
	Payload []byte
}

// BioSample 脑电采样点
// ch1/ch2 已按模拟前端增益换算为微伏
type BioSample struct {
	TimestampMs float64 `json:"timestamp_ms"`
	Ch1Uv       float64 `json:"ch1_uv"`
	Ch2Uv       float64 `json:"ch2_uv"`
	LeadOffCh1  bool    `json:"lead_off_ch1"`
	LeadOffCh2  bool    `json:"lead_off_ch2"`
}

// PulseSample 光电脉搏采样点（原始ADC计数）
type PulseSample struct {
	TimestampMs float64 `json:"timestamp_ms"`
	Red         uint32  `json:"red"`
	IR          uint32  `json:"ir"`
}

// InertialSample 加速度采样点（单位：g）
type InertialSample struct {
	TimestampMs float64 `json:"timestamp_ms"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Z           float64 `json:"z"`
	Magnitude   float64 `json:"magnitude"`
}
