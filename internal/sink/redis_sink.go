package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"wisefido-wearable/internal/models"
)

const (
	// 实时指标键的TTL：下游读到的永远是最近几秒内的状态
	realtimeTTL = 10 * time.Second

	metricsStream = "wearable:metrics:stream"
	windowStream  = "wearable:windows:stream"
)

// RedisSink 把处理窗口与聚合指标写入 Redis
// 实时状态走带TTL的KV键，历史走Streams（下游按消费组读取）
type RedisSink struct {
	store    Store
	logger   *zap.Logger
	deviceID string
}

// NewRedisSink 创建 Redis 输出端
func NewRedisSink(store Store, deviceID string, logger *zap.Logger) *RedisSink {
	return &RedisSink{
		store:    store,
		logger:   logger,
		deviceID: deviceID,
	}
}

func (s *RedisSink) realtimeKey() string {
	return fmt.Sprintf("wearable:device:%s:realtime", s.deviceID)
}

// OnMetricsUpdated 聚合指标：更新实时键并追加到指标流
func (s *RedisSink) OnMetricsUpdated(m models.AggregatedMetrics) {
	ctx := context.Background()

	jsonBytes, err := json.Marshal(m)
	if err != nil {
		s.logger.Error("Failed to marshal aggregated metrics",
			zap.Error(err),
			zap.String("device_id", s.deviceID),
		)
		return
	}

	if err := s.store.Set(ctx, s.realtimeKey(), string(jsonBytes), realtimeTTL); err != nil {
		s.logger.Error("Failed to update realtime metrics key",
			zap.Error(err),
			zap.String("device_id", s.deviceID),
		)
	}

	if _, err := s.store.XAdd(ctx, metricsStream, map[string]interface{}{
		"device_id":  s.deviceID,
		"session_id": m.SessionID,
		"tenant_id":  m.TenantID,
		"data":       string(jsonBytes),
		"timestamp":  m.TimestampMs,
	}); err != nil {
		s.logger.Error("Failed to publish metrics to stream",
			zap.Error(err),
			zap.String("device_id", s.deviceID),
			zap.String("stream", metricsStream),
		)
	}
}

// OnBioProcessed 脑电窗口追加到窗口流
func (s *RedisSink) OnBioProcessed(w *models.BioWindow) {
	s.publishWindow(string(models.ChannelBio), w)
}

// OnPulseProcessed 脉搏窗口追加到窗口流
func (s *RedisSink) OnPulseProcessed(w *models.PulseWindow) {
	s.publishWindow(string(models.ChannelPulse), w)
}

// OnInertialProcessed 加速度窗口追加到窗口流
func (s *RedisSink) OnInertialProcessed(w *models.InertialWindow) {
	s.publishWindow(string(models.ChannelInertial), w)
}

func (s *RedisSink) publishWindow(channel string, w interface{}) {
	ctx := context.Background()

	jsonBytes, err := json.Marshal(w)
	if err != nil {
		s.logger.Error("Failed to marshal processed window",
			zap.Error(err),
			zap.String("device_id", s.deviceID),
			zap.String("channel", channel),
		)
		return
	}

	if _, err := s.store.XAdd(ctx, windowStream, map[string]interface{}{
		"device_id": s.deviceID,
		"channel":   channel,
		"data":      string(jsonBytes),
		"timestamp": time.Now().UnixMilli(),
	}); err != nil {
		s.logger.Error("Failed to publish window to stream",
			zap.Error(err),
			zap.String("device_id", s.deviceID),
			zap.String("channel", channel),
			zap.String("stream", windowStream),
		)
	}
}

// OnError 处理错误只记日志，不中断流水线
func (s *RedisSink) OnError(channel models.ChannelTag, err error) {
	s.logger.Warn("Pipeline reported channel error",
		zap.Error(err),
		zap.String("device_id", s.deviceID),
		zap.String("channel", string(channel)),
	)
}
