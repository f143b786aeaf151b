package consumer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"wisefido-wearable/internal/config"
	"wisefido-wearable/internal/models"
	"wisefido-wearable/internal/pipeline"
	"wisefido-wearable/internal/repository"
	"wisefido-wearable/pkg/mqtt"
)

// DeviceStore 设备查询接口（由 repository.DeviceRepository 实现）
type DeviceStore interface {
	GetDeviceBySerialNumber(serialNumber string) (*repository.Device, error)
	GetDeviceByUID(uid string) (*repository.Device, error)
}

// SinkFactory 为每个设备创建输出端
type SinkFactory func(device *repository.Device) pipeline.Sink

// MQTTConsumer MQTT消息消费者
// 按设备维护独立的处理流水线，消息到达时惰性创建
type MQTTConsumer struct {
	config      *config.Config
	mqttClient  *mqtt.Client
	deviceRepo  DeviceStore
	sinkFactory SinkFactory
	logger      *zap.Logger

	mu        sync.Mutex
	pipelines map[string]*pipeline.Pipeline // device_id -> pipeline
	devices   map[string]*repository.Device // topic identifier -> resolved device
}

// NewMQTTConsumer 创建MQTT消费者
func NewMQTTConsumer(
	cfg *config.Config,
	mqttClient *mqtt.Client,
	deviceRepo DeviceStore,
	sinkFactory SinkFactory,
	logger *zap.Logger,
) *MQTTConsumer {
	return &MQTTConsumer{
		config:      cfg,
		mqttClient:  mqttClient,
		deviceRepo:  deviceRepo,
		sinkFactory: sinkFactory,
		logger:      logger,
		pipelines:   make(map[string]*pipeline.Pipeline),
		devices:     make(map[string]*repository.Device),
	}
}

// Start 启动消费者
func (c *MQTTConsumer) Start(ctx context.Context) error {
	if err := c.mqttClient.Subscribe(c.config.Wearable.Topics.Data, c.config.MQTT.QoS, c.HandleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to data topic: %w", err)
	}

	c.logger.Info("MQTT consumer started",
		zap.String("topic", c.config.Wearable.Topics.Data),
		zap.Uint8("qos", c.config.MQTT.QoS),
	)

	<-ctx.Done()
	return nil
}

// Stop 停止消费者
func (c *MQTTConsumer) Stop(ctx context.Context) error {
	if err := c.mqttClient.Unsubscribe(c.config.Wearable.Topics.Data); err != nil {
		c.logger.Error("Failed to unsubscribe", zap.Error(err))
	}

	c.logger.Info("MQTT consumer stopped")
	return nil
}

// ParseTopic 解析数据主题
// 主题格式: wearable/{identifier}/{eeg|ppg|acc}
func ParseTopic(topic string) (identifier string, channel models.ChannelTag, err error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != "wearable" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid topic format: %s", topic)
	}

	switch parts[2] {
	case "eeg":
		channel = models.ChannelBio
	case "ppg":
		channel = models.ChannelPulse
	case "acc":
		channel = models.ChannelInertial
	default:
		return "", "", fmt.Errorf("unknown channel suffix in topic: %s", topic)
	}
	return parts[1], channel, nil
}

// HandleMessage 处理一条MQTT消息：解析主题、解析设备、注入对应流水线
func (c *MQTTConsumer) HandleMessage(topic string, payload []byte) error {
	c.logger.Debug("Received MQTT message",
		zap.String("topic", topic),
		zap.Int("payload_size", len(payload)),
	)

	identifier, channel, err := ParseTopic(topic)
	if err != nil {
		c.logger.Error("Failed to parse topic", zap.String("topic", topic), zap.Error(err))
		return err
	}

	p, err := c.pipelineFor(identifier)
	if err != nil {
		return err
	}

	return p.HandleFrame(models.RawFrame{Channel: channel, Payload: payload})
}

// pipelineFor 返回标识符对应的流水线，不存在则解析设备并创建
func (c *MQTTConsumer) pipelineFor(identifier string) (*pipeline.Pipeline, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if device, ok := c.devices[identifier]; ok {
		return c.pipelines[device.DeviceID], nil
	}

	// 标识符可能是 serial_number 或 uid
	device, err := c.deviceRepo.GetDeviceBySerialNumber(identifier)
	if err != nil {
		device, err = c.deviceRepo.GetDeviceByUID(identifier)
		if err != nil {
			c.logger.Warn("Device not found",
				zap.String("identifier", identifier),
				zap.Error(err),
			)
			return nil, fmt.Errorf("device not found: %s", identifier)
		}
	}

	c.devices[identifier] = device
	if p, ok := c.pipelines[device.DeviceID]; ok {
		return p, nil
	}

	p := pipeline.New(c.pipelineConfig(), device.DeviceID, device.TenantID, c.sinkFactory(device), c.logger)
	c.pipelines[device.DeviceID] = p

	c.logger.Info("Pipeline created for device",
		zap.String("device_id", device.DeviceID),
		zap.String("tenant_id", device.TenantID),
		zap.String("session_id", p.SessionID),
	)
	return p, nil
}

func (c *MQTTConsumer) pipelineConfig() pipeline.Config {
	w := c.config.Wearable
	return pipeline.Config{
		BioRateHz:      w.Sampling.BioRateHz,
		PulseRateHz:    w.Sampling.PulseRateHz,
		InertialRateHz: w.Sampling.InertialRateHz,

		BioBufferSec:      w.Buffers.BioSeconds,
		PulseBufferSec:    w.Buffers.PulseSeconds,
		InertialBufferSec: w.Buffers.InertialSeconds,

		BioGate:          w.Quality.BioGate,
		PulseGate:        w.Quality.PulseGate,
		InertialGate:     w.Quality.InertialGate,
		BioMaskThreshold: w.Quality.BioMaskThreshold,

		SpectralInterval: w.Spectral.RecomputeInterval,
		MainsHz:          w.MainsFrequencyHz,
		InertialEnabled:  w.InertialEnabled,
	}
}

// PipelineCount 当前活跃流水线数（观测用）
func (c *MQTTConsumer) PipelineCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pipelines)
}
