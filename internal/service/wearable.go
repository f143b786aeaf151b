package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"wisefido-wearable/internal/config"
	"wisefido-wearable/internal/consumer"
	"wisefido-wearable/internal/pipeline"
	"wisefido-wearable/internal/repository"
	"wisefido-wearable/internal/sink"
	"wisefido-wearable/pkg/database"
	"wisefido-wearable/pkg/mqtt"
	"wisefido-wearable/pkg/redisx"
)

// WearableService 穿戴设备接入服务
type WearableService struct {
	config     *config.Config
	logger     *zap.Logger
	db         *sql.DB
	redis      *redis.Client
	mqttClient *mqtt.Client
	consumer   *consumer.MQTTConsumer
}

// NewWearableService 创建穿戴设备接入服务
func NewWearableService(cfg *config.Config, logger *zap.Logger) (*WearableService, error) {
	// 初始化数据库
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// 初始化Redis
	redisClient := redisx.NewRedisClient(&cfg.Redis)
	if err := redisx.Ping(context.Background(), redisClient); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	// 初始化MQTT
	mqttClient, err := mqtt.NewClient(&cfg.MQTT, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT: %w", err)
	}

	// 创建Repository
	deviceRepo := repository.NewDeviceRepository(db, logger)

	// 每个设备一个输出端，共用同一个Redis存储
	store := sink.NewRedisStore(redisClient)
	sinkFactory := func(device *repository.Device) pipeline.Sink {
		return sink.NewRedisSink(store, device.DeviceID, logger)
	}

	// 创建Consumer
	mqttConsumer := consumer.NewMQTTConsumer(cfg, mqttClient, deviceRepo, sinkFactory, logger)

	return &WearableService{
		config:     cfg,
		logger:     logger,
		db:         db,
		redis:      redisClient,
		mqttClient: mqttClient,
		consumer:   mqttConsumer,
	}, nil
}

// Start 启动服务
func (s *WearableService) Start(ctx context.Context) error {
	s.logger.Info("Starting wearable service components")

	if err := s.consumer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start MQTT consumer: %w", err)
	}

	s.logger.Info("Wearable service started successfully")
	return nil
}

// Stop 停止服务
func (s *WearableService) Stop(ctx context.Context) error {
	s.logger.Info("Stopping wearable service")

	if s.consumer != nil {
		if err := s.consumer.Stop(ctx); err != nil {
			s.logger.Error("Error stopping consumer", zap.Error(err))
		}
	}

	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}

	if s.redis != nil {
		redisx.Close(s.redis)
	}

	if s.db != nil {
		database.Close(s.db)
	}

	s.logger.Info("Wearable service stopped")
	return nil
}
