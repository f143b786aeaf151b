package decoder

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"wisefido-wearable/internal/models"
)

// ErrTruncated 帧长度不足（畸形帧直接丢弃，无线协议本身有损，不重试）
var ErrTruncated = errors.New("decoder: truncated frame")

// Decoder 二进制通知帧解码器
// 按通道类型解析定长记录，输出带设备时间戳的类型化采样点。
// 加速度通道的时间戳需要跨帧连续性状态，因此解码器按设备实例持有。
type Decoder struct {
	bioRateHz      float64
	pulseRateHz    float64
	inertialRateHz float64

	// 加速度时间戳连续性状态
	lastInertialTsMs   float64
	lastInertialWall   time.Time
	inertialHasHistory bool

	now func() time.Time
}

// NewDecoder 创建解码器
func NewDecoder(bioRateHz, pulseRateHz, inertialRateHz int) *Decoder {
	return &Decoder{
		bioRateHz:      float64(bioRateHz),
		pulseRateHz:    float64(pulseRateHz),
		inertialRateHz: float64(inertialRateHz),
		now:            time.Now,
	}
}

// DecodeBio 解析脑电帧
// 布局：4B小端时间戳 + N×7B记录（1B状态 + 3B大端有符号ch1 + 3B大端有符号ch2）
func (d *Decoder) DecodeBio(payload []byte) ([]models.BioSample, error) {
	if len(payload) < headerBytes+bioRecordBytes {
		return nil, fmt.Errorf("%w: bio payload %d bytes", ErrTruncated, len(payload))
	}

	baseMs := ticksToMs(binary.LittleEndian.Uint32(payload[:headerBytes]))
	body := payload[headerBytes:]
	count := len(body) / bioRecordBytes

	samples := make([]models.BioSample, 0, count)
	for i := 0; i < count; i++ {
		rec := body[i*bioRecordBytes : (i+1)*bioRecordBytes]
		status := rec[0]
		ch1 := int24BE(rec[1:4])
		ch2 := int24BE(rec[4:7])

		samples = append(samples, models.BioSample{
			TimestampMs: baseMs + float64(i)*1000.0/d.bioRateHz,
			Ch1Uv:       float64(ch1) * bioUvPerCount,
			Ch2Uv:       float64(ch2) * bioUvPerCount,
			LeadOffCh1:  status&(1<<bioStatusLeadOffCh1Bit) != 0,
			LeadOffCh2:  status&(1<<bioStatusLeadOffCh2Bit) != 0,
		})
	}
	return samples, nil
}

// DecodePulse 解析脉搏帧
// 布局：4B小端时间戳 + N×6B记录（3B大端无符号red + 3B大端无符号ir）
func (d *Decoder) DecodePulse(payload []byte) ([]models.PulseSample, error) {
	if len(payload) < headerBytes+pulseRecordBytes {
		return nil, fmt.Errorf("%w: pulse payload %d bytes", ErrTruncated, len(payload))
	}

	baseMs := ticksToMs(binary.LittleEndian.Uint32(payload[:headerBytes]))
	body := payload[headerBytes:]
	count := len(body) / pulseRecordBytes

	samples := make([]models.PulseSample, 0, count)
	for i := 0; i < count; i++ {
		rec := body[i*pulseRecordBytes : (i+1)*pulseRecordBytes]
		samples = append(samples, models.PulseSample{
			TimestampMs: baseMs + float64(i)*1000.0/d.pulseRateHz,
			Red:         uint24BE(rec[0:3]),
			IR:          uint24BE(rec[3:6]),
		})
	}
	return samples, nil
}

// DecodeInertial 解析加速度帧
// 布局：4B小端时间戳 + N×6B记录（3×2B小端有符号，±4g满量程）
// 采样时间戳接续上一帧的最后一个点外推，避免通知包之间的缝隙/重叠；
// 接收时钟显示距上一帧超过3倍期望帧时长时，重新锚定到帧自带的设备时间戳。
func (d *Decoder) DecodeInertial(payload []byte) ([]models.InertialSample, error) {
	if len(payload) < headerBytes+inertialRecordBytes {
		return nil, fmt.Errorf("%w: inertial payload %d bytes", ErrTruncated, len(payload))
	}

	deviceMs := ticksToMs(binary.LittleEndian.Uint32(payload[:headerBytes]))
	body := payload[headerBytes:]
	count := len(body) / inertialRecordBytes

	dtMs := 1000.0 / d.inertialRateHz
	wall := d.now()

	var baseMs float64
	switch {
	case !d.inertialHasHistory:
		baseMs = deviceMs
	case wall.Sub(d.lastInertialWall) > d.expectedInertialGap(count):
		// 丢包恢复：连续性外推会产生过大缝隙，改用设备时间戳
		baseMs = deviceMs
	default:
		baseMs = d.lastInertialTsMs + dtMs
	}

	samples := make([]models.InertialSample, 0, count)
	for i := 0; i < count; i++ {
		rec := body[i*inertialRecordBytes : (i+1)*inertialRecordBytes]
		x := float64(int16(binary.LittleEndian.Uint16(rec[0:2]))) * inertialGPerCount
		y := float64(int16(binary.LittleEndian.Uint16(rec[2:4]))) * inertialGPerCount
		z := float64(int16(binary.LittleEndian.Uint16(rec[4:6]))) * inertialGPerCount

		samples = append(samples, models.InertialSample{
			TimestampMs: baseMs + float64(i)*dtMs,
			X:           x,
			Y:           y,
			Z:           z,
			Magnitude:   math.Sqrt(x*x + y*y + z*z),
		})
	}

	d.lastInertialTsMs = samples[len(samples)-1].TimestampMs
	d.lastInertialWall = wall
	d.inertialHasHistory = true

	return samples, nil
}

// ResetInertialContinuity 清除加速度时间戳连续性状态（会话重建时调用）
func (d *Decoder) ResetInertialContinuity() {
	d.inertialHasHistory = false
	d.lastInertialTsMs = 0
	d.lastInertialWall = time.Time{}
}

func (d *Decoder) expectedInertialGap(recordCount int) time.Duration {
	frameMs := float64(recordCount) * 1000.0 / d.inertialRateHz
	return time.Duration(frameMs*inertialResyncFactor) * time.Millisecond
}

func ticksToMs(ticks uint32) float64 {
	return float64(ticks) / clockTicksPerSecond * 1000.0
}

// int24BE 3字节大端有符号整数
func int24BE(b []byte) int32 {
	v := int32(b[0])<<16 | int32(b[1])<<8 | int32(b[2])
	if v&0x800000 != 0 {
		v -= 1 << 24
	}
	return v
}

// uint24BE 3字节大端无符号整数
func uint24BE(b []byte) uint32 {
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}
