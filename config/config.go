package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel      string `yaml:"log_level" env:"LOG_LEVEL"`
	TelegramToken string `yaml:"telegram_token" env:"TELEGRAM_TOKEN"`
	MetricsAddr   string `yaml:"metrics_addr" env:"METRICS_ADDR"`

	Scan struct {
		WholeFrameFPS    float64       `yaml:"whole_frame_fps" env:"SCAN_WHOLE_FRAME_FPS"`
		ZoneFPS          float64       `yaml:"zone_fps" env:"SCAN_ZONE_FPS"`
		Confidence       float64       `yaml:"confidence" env:"SCAN_CONFIDENCE"`
		ProgressInterval time.Duration `yaml:"progress_interval" env:"SCAN_PROGRESS_INTERVAL"`
		MaxReplyFrames   int           `yaml:"max_reply_frames" env:"SCAN_MAX_REPLY_FRAMES"`
		Timeout          time.Duration `yaml:"timeout" env:"SCAN_TIMEOUT"`
	} `yaml:"scan"`

	Detector struct {
		ModelPath    string  `yaml:"model_path" env:"DETECTOR_MODEL_PATH"`
		InputSize    int     `yaml:"input_size" env:"DETECTOR_INPUT_SIZE"`
		NMSThreshold float64 `yaml:"nms_threshold" env:"DETECTOR_NMS_THRESHOLD"`
	} `yaml:"detector"`

	Storage struct {
		Dir       string        `yaml:"dir" env:"STORAGE_DIR"`
		Retention time.Duration `yaml:"retention" env:"STORAGE_RETENTION"`
	} `yaml:"storage"`

	Minio struct {
		Endpoint  string `yaml:"endpoint" env:"MINIO_ENDPOINT"`
		AccessKey string `yaml:"access_key" env:"MINIO_ACCESS_KEY"`
		SecretKey string `yaml:"secret_key" env:"MINIO_SECRET_KEY"`
		Bucket    string `yaml:"bucket" env:"MINIO_BUCKET"`
		Secure    bool   `yaml:"secure" env:"MINIO_SECURE"`
	} `yaml:"minio"`

	Postgres struct {
		DSN string `yaml:"dsn" env:"DATABASE_DSN"`
	} `yaml:"postgres"`

	Kafka struct {
		Brokers       []string `yaml:"brokers" env:"KAFKA_BROKERS" envSeparator:","`
		GroupID       string   `yaml:"group_id" env:"KAFKA_GROUP_ID"`
		JobTopic      string   `yaml:"job_topic" env:"KAFKA_JOB_TOPIC"`
		ProgressTopic string   `yaml:"progress_topic" env:"KAFKA_PROGRESS_TOPIC"`
	} `yaml:"kafka"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	cfg := &Config{
		LogLevel:    "info",
		MetricsAddr: ":9090",
	}
	cfg.Scan.WholeFrameFPS = 10
	cfg.Scan.ZoneFPS = 2
	cfg.Scan.Confidence = 0.5
	cfg.Scan.ProgressInterval = 5 * time.Second
	cfg.Scan.MaxReplyFrames = 5
	cfg.Scan.Timeout = 30 * time.Minute
	cfg.Detector.InputSize = 640
	cfg.Detector.NMSThreshold = 0.45
	cfg.Storage.Dir = "output"
	cfg.Storage.Retention = 24 * time.Hour
	cfg.Minio.Bucket = "zonewatch-frames"
	cfg.Kafka.GroupID = "zonewatch-workers"
	cfg.Kafka.JobTopic = "scan-jobs"
	cfg.Kafka.ProgressTopic = "scan-progress"
	return cfg
}

// Load читает .env, затем YAML (если path не пуст), затем переменные окружения
func Load(path string) (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет значения, без которых сканер работает неверно
func (c *Config) Validate() error {
	if c.Scan.WholeFrameFPS <= 0 || c.Scan.ZoneFPS <= 0 {
		return errors.New("scan target fps must be positive")
	}
	if c.Scan.Confidence < 0 || c.Scan.Confidence > 1 {
		return fmt.Errorf("scan confidence %.2f is out of [0,1]", c.Scan.Confidence)
	}
	if c.Scan.MaxReplyFrames < 0 {
		return errors.New("max reply frames must not be negative")
	}
	return nil
}
