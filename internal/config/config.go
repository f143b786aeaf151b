package config

import (
	"os"
	"strconv"
	"time"

	"wisefido-wearable/pkg/config"
)

// Config 穿戴设备接入服务配置
type Config struct {
	Database config.DatabaseConfig
	Redis    config.RedisConfig
	MQTT     config.MQTTConfig

	// 穿戴服务特定配置
	Wearable struct {
		Topics struct {
			Data string // 数据主题，如 "wearable/+/+"
		}
		Sampling struct {
			BioRateHz      int // 脑电采样率
			PulseRateHz    int // 脉搏采样率
			InertialRateHz int // 加速度采样率
		}
		Buffers struct {
			BioSeconds      int
			PulseSeconds    int
			InertialSeconds int
		}
		Quality struct {
			BioGate          float64 // 聚合门限（SQI >= 该值才进入滑动平均）
			PulseGate        float64
			InertialGate     float64
			BioMaskThreshold float64 // 脑电逐点质量掩码阈值（15-30可调）
		}
		Spectral struct {
			RecomputeInterval time.Duration // 缓冲满后的最小重算间隔
		}
		MainsFrequencyHz float64 // 工频陷波频率（50或60）
		InertialEnabled  bool
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	// 基础设施配置：默认值 + 共享库的环境变量覆盖
	cfg.Database = config.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "owlrd",
		SSLMode:  "disable",
	}
	cfg.Database.LoadFromEnv("DB")

	cfg.Redis = config.RedisConfig{Addr: "localhost:6379"}
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.MQTT = config.MQTTConfig{
		Broker:   "tcp://localhost:1883",
		ClientID: "wisefido-wearable",
		QoS:      1,
	}
	cfg.MQTT.LoadFromEnv("MQTT")

	// 穿戴服务配置
	cfg.Wearable.Topics.Data = getEnv("WEARABLE_TOPIC_DATA", "wearable/+/+")

	cfg.Wearable.Sampling.BioRateHz = getEnvInt("WEARABLE_BIO_RATE", 250)
	cfg.Wearable.Sampling.PulseRateHz = getEnvInt("WEARABLE_PULSE_RATE", 50)
	cfg.Wearable.Sampling.InertialRateHz = getEnvInt("WEARABLE_INERTIAL_RATE", 50)

	cfg.Wearable.Buffers.BioSeconds = getEnvInt("WEARABLE_BIO_BUFFER_SEC", 5)
	cfg.Wearable.Buffers.PulseSeconds = getEnvInt("WEARABLE_PULSE_BUFFER_SEC", 10)
	cfg.Wearable.Buffers.InertialSeconds = getEnvInt("WEARABLE_INERTIAL_BUFFER_SEC", 5)

	cfg.Wearable.Quality.BioGate = getEnvFloat("WEARABLE_BIO_GATE", 80)
	cfg.Wearable.Quality.PulseGate = getEnvFloat("WEARABLE_PULSE_GATE", 80)
	cfg.Wearable.Quality.InertialGate = getEnvFloat("WEARABLE_INERTIAL_GATE", 50)
	cfg.Wearable.Quality.BioMaskThreshold = getEnvFloat("WEARABLE_BIO_MASK_THRESHOLD", 25)

	spectralMs := getEnvInt("WEARABLE_SPECTRAL_INTERVAL_MS", 1000)
	cfg.Wearable.Spectral.RecomputeInterval = time.Duration(spectralMs) * time.Millisecond

	cfg.Wearable.MainsFrequencyHz = getEnvFloat("WEARABLE_MAINS_HZ", 50)
	cfg.Wearable.InertialEnabled = getEnvBool("WEARABLE_INERTIAL_ENABLED", true)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
