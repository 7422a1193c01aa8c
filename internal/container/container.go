package container

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"zonewatch/config"
	app "zonewatch/internal/application"
	"zonewatch/internal/domain/port"
	"zonewatch/internal/infrastructure/messaging"
	"zonewatch/internal/infrastructure/metrics"
	"zonewatch/internal/infrastructure/render"
	"zonewatch/internal/infrastructure/storage"
	"zonewatch/internal/infrastructure/vision"
)

type Container struct {
	Config          *config.Config
	UserService     *app.UserService
	AnalysisService *app.AnalysisService
	Metrics         *metrics.Metrics
	// FileSinks не nil, если кадры хранятся на диске и их нужно чистить
	FileSinks *storage.FileFrameSinks

	closers []func() error
}

// New собирает сервисы приложения по конфигурации.
// Необязательные бэкенды (MinIO, PostgreSQL, Kafka) подключаются, только если настроены.
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg, Metrics: metrics.New()}

	detector, err := vision.NewDetector(vision.Options{
		ModelPath:    cfg.Detector.ModelPath,
		InputSize:    cfg.Detector.InputSize,
		NMSThreshold: cfg.Detector.NMSThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("create detector: %w", err)
	}
	c.closers = append(c.closers, detector.Close)

	sinks, err := c.frameSinks(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}

	reports, err := c.scanRepository(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}

	progress, err := c.progressObserver()
	if err != nil {
		c.Close()
		return nil, err
	}

	scanner := app.NewScanner(vision.NewVideoSource(), detector, render.NewRenderer(), progress, ScannerConfig(cfg))
	c.AnalysisService = app.NewAnalysisService(scanner, vision.NewVideoSource(), sinks, reports, c.Metrics)
	c.UserService = app.NewUserService(storage.NewMemoryUserRepository())

	return c, nil
}

// ScannerConfig переносит параметры сканирования из конфигурации
func ScannerConfig(cfg *config.Config) app.ScannerConfig {
	return app.ScannerConfig{
		WholeFrameFPS:    cfg.Scan.WholeFrameFPS,
		ZoneFPS:          cfg.Scan.ZoneFPS,
		Confidence:       cfg.Scan.Confidence,
		ProgressInterval: cfg.Scan.ProgressInterval,
	}
}

func (c *Container) frameSinks(ctx context.Context) (port.FrameSinkFactory, error) {
	m := c.Config.Minio
	if m.Endpoint != "" {
		sinks, err := storage.NewMinioFrameSinks(ctx, m.Endpoint, m.AccessKey, m.SecretKey, m.Bucket, m.Secure)
		if err != nil {
			return nil, fmt.Errorf("connect minio: %w", err)
		}
		log.Info().Str("endpoint", m.Endpoint).Str("bucket", m.Bucket).Msg("Frames stored in MinIO")
		return sinks, nil
	}

	sinks, err := storage.NewFileFrameSinks(c.Config.Storage.Dir)
	if err != nil {
		return nil, err
	}
	c.FileSinks = sinks
	return sinks, nil
}

func (c *Container) scanRepository(ctx context.Context) (port.ScanRepository, error) {
	if c.Config.Postgres.DSN == "" {
		return storage.NewMemoryScanRepository(), nil
	}

	repo, err := storage.NewPostgresScanRepository(ctx, c.Config.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	c.closers = append(c.closers, repo.Close)
	return repo, nil
}

func (c *Container) progressObserver() (port.ProgressObserver, error) {
	k := c.Config.Kafka
	if len(k.Brokers) == 0 || k.ProgressTopic == "" {
		return nil, nil
	}

	producer, err := messaging.NewProgressProducer(k.Brokers, k.ProgressTopic)
	if err != nil {
		return nil, fmt.Errorf("connect kafka: %w", err)
	}
	c.closers = append(c.closers, producer.Close)
	return messaging.Fanout{producer}, nil
}

// StartCleanup удаляет старые кадры с диска раз в interval до отмены ctx
func (c *Container) StartCleanup(ctx context.Context, interval time.Duration) {
	if c.FileSinks == nil || c.Config.Storage.Retention <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				removed, err := c.FileSinks.Cleanup(c.Config.Storage.Retention, now)
				if err != nil {
					log.Warn().Err(err).Msg("Frame cleanup failed")
					continue
				}
				if removed > 0 {
					log.Info().Int("removed", removed).Msg("Old scan frames removed")
				}
			}
		}
	}()
}

// Close освобождает ресурсы в обратном порядке
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
