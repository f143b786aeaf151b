package decoder

// 硬件标定常数，来源于设备数据手册，不要凭经验修改。

const (
	// 设备时间戳时钟：32.768kHz晶振计数，4字节小端
	clockTicksPerSecond = 32768.0

	// 脑电模拟前端（24位ADC，双通道）
	// LSB电压 = Vref / PGA增益 / 2^23，换算为微伏
	bioVrefVolts  = 4.5
	bioPgaGain    = 24.0
	bioUvPerCount = bioVrefVolts / bioPgaGain / 8388608.0 * 1e6

	// 加速度计：16位有符号，满量程±4g
	inertialGPerCount = 4.0 / 32768.0
)

// 帧布局
const (
	headerBytes = 4 // 小端时间戳

	bioRecordBytes      = 7 // 1B状态 + 3B大端ch1 + 3B大端ch2
	pulseRecordBytes    = 6 // 3B大端red + 3B大端ir
	inertialRecordBytes = 6 // 2B小端x + 2B小端y + 2B小端z

	bioStatusLeadOffCh1Bit = 0
	bioStatusLeadOffCh2Bit = 2
)

// 加速度时间戳重同步：距上一帧的真实间隔超过期望帧时长的3倍时，
// 放弃连续性外推，改用接收时钟（丢包恢复）
const inertialResyncFactor = 3.0
