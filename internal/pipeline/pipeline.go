package pipeline

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wisefido-wearable/internal/aggregator"
	"wisefido-wearable/internal/buffer"
	"wisefido-wearable/internal/decoder"
	"wisefido-wearable/internal/models"
	"wisefido-wearable/internal/processor"
)

// Sink 流水线的输出边界，由宿主应用实现（电量/图形/分析/存储回调）
// 收到的都是拷贝或不可变视图，不会持有流水线内部存储的引用
type Sink interface {
	OnBioProcessed(w *models.BioWindow)
	OnPulseProcessed(w *models.PulseWindow)
	OnInertialProcessed(w *models.InertialWindow)
	OnMetricsUpdated(m models.AggregatedMetrics)
	OnError(channel models.ChannelTag, err error)
}

// Config 流水线配置（由宿主应用提供）
type Config struct {
	BioRateHz      int
	PulseRateHz    int
	InertialRateHz int

	BioBufferSec      int
	PulseBufferSec    int
	InertialBufferSec int

	BioGate          float64
	PulseGate        float64
	InertialGate     float64
	BioMaskThreshold float64

	SpectralInterval time.Duration
	MainsHz          float64
	InertialEnabled  bool

	// 一次处理卡死时强制释放通道护栏的超时
	WatchdogTimeout time.Duration
}

// 持续争用丢帧达到此数时，对应缓冲一次性扩容
const growAfterDrops = 32

// channelState 每通道的单次在途调度状态
// 护栏置位期间新到的帧计为丢弃（不排队不阻塞），
// 缓冲的覆盖最旧语义本身就是背压机制
type channelState struct {
	guard   atomic.Bool
	dropped atomic.Uint64
	retry   atomic.Bool // 争用时是否在本次结束后立即重跑（脉搏通道）
}

// Pipeline 单设备采集流水线
// 显式构造、显式持有；缓冲与队列都归本实例独占，
// 不同实例（多设备会话）之间没有共享可变状态
type Pipeline struct {
	SessionID string
	DeviceID  string
	TenantID  string

	cfg     Config
	logger  *zap.Logger
	sink    Sink
	decoder *decoder.Decoder

	bioRing      *buffer.Ring[models.BioSample]
	pulseRing    *buffer.Ring[models.PulseSample]
	inertialRing *buffer.Ring[models.InertialSample]

	bioProc      *processor.BioProcessor
	pulseProc    *processor.PulseProcessor
	inertialProc *processor.InertialProcessor

	agg *aggregator.Aggregator

	bioState      channelState
	pulseState    channelState
	inertialState channelState

	// 互斥保护三个环形缓冲的写入与快照
	// （传输回调与处理协程可能来自不同goroutine）
	mu sync.Mutex

	// 测试可替换的处理入口
	bioPass      func()
	pulsePass    func()
	inertialPass func()
}

// New 创建流水线
func New(cfg Config, deviceID, tenantID string, sink Sink, logger *zap.Logger) *Pipeline {
	if cfg.WatchdogTimeout <= 0 {
		cfg.WatchdogTimeout = time.Second
	}
	p := &Pipeline{
		SessionID: uuid.New().String(),
		DeviceID:  deviceID,
		TenantID:  tenantID,
		cfg:       cfg,
		logger:    logger,
		sink:      sink,
		decoder:   decoder.NewDecoder(cfg.BioRateHz, cfg.PulseRateHz, cfg.InertialRateHz),

		bioRing:      buffer.NewRing[models.BioSample](cfg.BioRateHz * cfg.BioBufferSec),
		pulseRing:    buffer.NewRing[models.PulseSample](cfg.PulseRateHz * cfg.PulseBufferSec),
		inertialRing: buffer.NewRing[models.InertialSample](cfg.InertialRateHz * cfg.InertialBufferSec),

		bioProc:      processor.NewBioProcessor(cfg.BioRateHz, cfg.MainsHz, cfg.BioMaskThreshold, logger),
		pulseProc:    processor.NewPulseProcessor(cfg.PulseRateHz, logger),
		inertialProc: processor.NewInertialProcessor(cfg.InertialRateHz, logger),

		agg: aggregator.New(aggregator.Config{
			BioGate:          cfg.BioGate,
			PulseGate:        cfg.PulseGate,
			InertialGate:     cfg.InertialGate,
			SpectralInterval: cfg.SpectralInterval,
		}, logger),
	}
	p.bioPass = p.runBioPass
	p.pulsePass = p.runPulsePass
	p.inertialPass = p.runInertialPass
	return p
}

// HandleFrame 注入一个原始帧：解码、入环、调度异步处理
// 解码失败的帧直接丢弃（经OnError上报），不重试
func (p *Pipeline) HandleFrame(frame models.RawFrame) error {
	switch frame.Channel {
	case models.ChannelBio:
		samples, err := p.decoder.DecodeBio(frame.Payload)
		if err != nil {
			p.sink.OnError(models.ChannelBio, err)
			return err
		}
		p.mu.Lock()
		p.bioRing.PushSlice(samples)
		p.mu.Unlock()
		p.schedule(models.ChannelBio, &p.bioState, p.bioPass)

	case models.ChannelPulse:
		samples, err := p.decoder.DecodePulse(frame.Payload)
		if err != nil {
			p.sink.OnError(models.ChannelPulse, err)
			return err
		}
		p.mu.Lock()
		p.pulseRing.PushSlice(samples)
		p.mu.Unlock()
		p.schedule(models.ChannelPulse, &p.pulseState, p.pulsePass)

	case models.ChannelInertial:
		if !p.cfg.InertialEnabled {
			return nil
		}
		samples, err := p.decoder.DecodeInertial(frame.Payload)
		if err != nil {
			p.sink.OnError(models.ChannelInertial, err)
			return err
		}
		p.mu.Lock()
		p.inertialRing.PushSlice(samples)
		p.mu.Unlock()
		p.schedule(models.ChannelInertial, &p.inertialState, p.inertialPass)

	default:
		err := fmt.Errorf("pipeline: unknown channel %q", frame.Channel)
		p.sink.OnError(frame.Channel, err)
		return err
	}
	return nil
}

// schedule 单次在途调度：护栏空闲则启动异步处理，否则计为丢弃
// 脉搏通道争用时置retry标记，处理结束后立即重跑而不是丢弃输出机会
func (p *Pipeline) schedule(channel models.ChannelTag, state *channelState, pass func()) {
	if !state.guard.CompareAndSwap(false, true) {
		dropped := state.dropped.Add(1)
		if channel == models.ChannelPulse {
			state.retry.Store(true)
		}
		if dropped%growAfterDrops == 0 {
			p.growRing(channel)
		}
		p.logger.Debug("Processing pass in flight, frame counted as dropped",
			zap.String("channel", string(channel)),
			zap.Uint64("dropped_total", dropped),
		)
		return
	}

	go func() {
		// 处理卡死时由看门狗强制释放护栏，避免通道永久停摆
		watchdog := time.AfterFunc(p.cfg.WatchdogTimeout, func() {
			state.guard.Store(false)
			p.logger.Warn("Watchdog force-cleared processing guard",
				zap.String("channel", string(channel)),
				zap.Duration("timeout", p.cfg.WatchdogTimeout),
			)
		})

		pass()

		if watchdog.Stop() {
			state.guard.Store(false)
		}

		// 争用期间被丢弃过的脉搏帧：立即补跑一轮，保持心率输出响应
		if channel == models.ChannelPulse && state.retry.CompareAndSwap(true, false) {
			p.schedule(channel, state, pass)
		}
	}()
}

func (p *Pipeline) runBioPass() {
	p.mu.Lock()
	snapshot := p.bioRing.ToSlice()
	p.mu.Unlock()

	w, err := p.bioProc.Process(snapshot)
	if err != nil && w == nil {
		p.reportPassError(models.ChannelBio, err)
		return
	}
	if err != nil {
		// 低置信度窗口照常下发：持续输出优先于静默
		p.sink.OnError(models.ChannelBio, err)
	}

	p.sink.OnBioProcessed(w)
	if p.agg.IngestBio(w) {
		p.emitMetrics()
	}
}

func (p *Pipeline) runPulsePass() {
	p.mu.Lock()
	snapshot := p.pulseRing.ToSlice()
	p.mu.Unlock()

	w, err := p.pulseProc.Process(snapshot)
	if err != nil && w == nil {
		p.reportPassError(models.ChannelPulse, err)
		return
	}
	if err != nil {
		p.sink.OnError(models.ChannelPulse, err)
	}

	p.sink.OnPulseProcessed(w)
	if p.agg.IngestPulse(w) {
		p.emitMetrics()
	}
}

func (p *Pipeline) runInertialPass() {
	p.mu.Lock()
	snapshot := p.inertialRing.ToSlice()
	p.mu.Unlock()

	w, err := p.inertialProc.Process(snapshot)
	if err != nil && w == nil {
		p.reportPassError(models.ChannelInertial, err)
		return
	}
	if err != nil {
		p.sink.OnError(models.ChannelInertial, err)
	}

	p.sink.OnInertialProcessed(w)
	if p.agg.IngestInertial(w) {
		p.emitMetrics()
	}
}

// reportPassError 样本不足是正常的预热状态，只记debug不上报
func (p *Pipeline) reportPassError(channel models.ChannelTag, err error) {
	if err == processor.ErrInsufficientData {
		p.logger.Debug("Skipping pass, buffer below minimum window",
			zap.String("channel", string(channel)),
		)
		return
	}
	p.sink.OnError(channel, err)
}

func (p *Pipeline) emitMetrics() {
	m := p.agg.Snapshot()
	m.SessionID = p.SessionID
	m.DeviceID = p.DeviceID
	m.TenantID = p.TenantID
	p.sink.OnMetricsUpdated(m)
}

// growRing 持续争用压力下的一次性扩容
func (p *Pipeline) growRing(channel models.ChannelTag) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var grown bool
	switch channel {
	case models.ChannelBio:
		grown = p.bioRing.GrowOnce(1.5)
	case models.ChannelPulse:
		grown = p.pulseRing.GrowOnce(1.5)
	case models.ChannelInertial:
		grown = p.inertialRing.GrowOnce(1.5)
	}
	if grown {
		p.logger.Info("Ring buffer grown under sustained pressure",
			zap.String("channel", string(channel)),
		)
	}
}

// DroppedFrames 各通道因争用丢弃的帧数
func (p *Pipeline) DroppedFrames() map[models.ChannelTag]uint64 {
	return map[models.ChannelTag]uint64{
		models.ChannelBio:      p.bioState.dropped.Load(),
		models.ChannelPulse:    p.pulseState.dropped.Load(),
		models.ChannelInertial: p.inertialState.dropped.Load(),
	}
}

// Clear 清空全部环形缓冲（会话重建由调用方驱动）
func (p *Pipeline) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bioRing.Clear()
	p.pulseRing.Clear()
	p.inertialRing.Clear()
	p.decoder.ResetInertialContinuity()
}

// Metrics 当前聚合指标快照
func (p *Pipeline) Metrics() models.AggregatedMetrics {
	m := p.agg.Snapshot()
	m.SessionID = p.SessionID
	m.DeviceID = p.DeviceID
	m.TenantID = p.TenantID
	return m
}
