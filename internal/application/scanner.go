package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"zonewatch/internal/domain/entity"
	"zonewatch/internal/domain/geometry"
	"zonewatch/internal/domain/port"
)

const (
	DefaultWholeFrameFPS    = 10
	DefaultZoneFPS          = 2
	DefaultProgressInterval = 5 * time.Second
)

// ScannerConfig параметры сканирования
type ScannerConfig struct {
	WholeFrameFPS    float64       // целевая частота выборки без зон
	ZoneFPS          float64       // целевая частота выборки с зонами
	Confidence       float64       // порог уверенности детектора
	ProgressInterval time.Duration // не чаще одного наблюдения за интервал
}

// DefaultScannerConfig возвращает конфигурацию по умолчанию
func DefaultScannerConfig() ScannerConfig {
	return ScannerConfig{
		WholeFrameFPS:    DefaultWholeFrameFPS,
		ZoneFPS:          DefaultZoneFPS,
		Confidence:       DefaultConfidence,
		ProgressInterval: DefaultProgressInterval,
	}
}

// TargetFPS возвращает целевую частоту выборки для режима
func (c ScannerConfig) TargetFPS(mode entity.ScanMode) float64 {
	if mode == entity.ModeZones {
		return c.ZoneFPS
	}
	return c.WholeFrameFPS
}

// ScanRequest запрос на сканирование одного видео
type ScanRequest struct {
	ScanID    string
	VideoPath string
	Zones     []entity.Zone  // пусто: режим всего кадра
	Region    *entity.Region // дополнительный фильтр детектора
}

// Mode возвращает режим анализа запроса
func (r ScanRequest) Mode() entity.ScanMode {
	if len(r.Zones) == 0 {
		return entity.ModeWholeFrame
	}
	return entity.ModeZones
}

// Scanner проходит видео кадр за кадром: выборка, детекция, зоны, разметка.
// Одновременно выполняется не больше одного сканирования на экземпляр,
// так как детектор не обязан быть потокобезопасным.
type Scanner struct {
	source    port.VideoSource
	detection *PersonDetection
	annotator port.Annotator
	progress  port.ProgressObserver
	cfg       ScannerConfig
	now       func() time.Time

	mu sync.Mutex
}

// NewScanner создаёт сканер. annotator и progress могут быть nil.
func NewScanner(source port.VideoSource, detector port.PersonDetector, annotator port.Annotator, progress port.ProgressObserver, cfg ScannerConfig) *Scanner {
	return &Scanner{
		source:    source,
		detection: NewPersonDetection(detector),
		annotator: annotator,
		progress:  progress,
		cfg:       cfg,
		now:       time.Now,
	}
}

// scanRun состояние одного прохода по видео
type scanRun struct {
	req     ScanRequest
	info    entity.VideoInfo
	zones   []entity.PixelZone
	sampler Sampler
	sink    port.FrameSink
	result  *entity.ScanResult
	logger  zerolog.Logger
}

// Scan сканирует видео и возвращает результат.
// Неверные зоны отклоняются до открытия видео: результат nil.
// При ошибке источника или детектора результат не nil и содержит всё, что успели найти.
// sink может быть nil, тогда кадры не сохраняются.
func (s *Scanner) Scan(ctx context.Context, req ScanRequest, sink port.FrameSink) (*entity.ScanResult, error) {
	if err := entity.ValidateZones(req.Zones); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	run := &scanRun{
		req:    req,
		sink:   sink,
		result: &entity.ScanResult{State: entity.ScanOpening, Detections: []entity.DetectionRecord{}},
		logger: log.With().Str("scan_id", req.ScanID).Str("mode", string(req.Mode())).Logger(),
	}

	start := s.now()
	err := s.open(ctx, run)
	run.result.ProcessingTime = s.now().Sub(start)

	if err != nil {
		run.result.State = entity.ScanFailed
		run.result.Err = err
		run.logger.Error().Err(err).
			Int("frames", run.result.FramesAnalyzed).
			Int("detections", len(run.result.Detections)).
			Msg("Video scan failed")
		return run.result, err
	}

	run.result.State = entity.ScanCompleted
	run.logger.Info().
		Int("frames", run.result.FramesAnalyzed).
		Dur("elapsed", run.result.ProcessingTime).
		Int("detections", len(run.result.Detections)).
		Msg("Video scan complete")
	return run.result, nil
}

// open захватывает видео и гарантированно освобождает его при любом выходе
func (s *Scanner) open(ctx context.Context, run *scanRun) error {
	handle, err := s.source.Open(ctx, run.req.VideoPath)
	if err != nil {
		if errors.Is(err, entity.ErrSourceUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", entity.ErrSourceUnavailable, err)
	}
	defer func() {
		run.result.State = entity.ScanFinalizing
		if err := handle.Close(); err != nil {
			run.logger.Warn().Err(err).Msg("Failed to release video")
		}
	}()

	run.info = handle.Info()
	run.zones, err = geometry.NormalizeAll(run.req.Zones, run.info.Width, run.info.Height)
	if err != nil {
		return err
	}
	run.sampler = NewSampler(run.info.FPS, s.cfg.TargetFPS(run.req.Mode()))

	run.logger.Info().
		Str("duration", entity.FormatTimestamp(run.info.Duration)).
		Int("interval", run.sampler.Interval).
		Int("zones", len(run.zones)).
		Msg("Video opened")

	run.result.State = entity.ScanScanning
	return s.scanFrames(ctx, handle, run)
}

func (s *Scanner) scanFrames(ctx context.Context, handle port.VideoHandle, run *scanRun) error {
	var lastProgress time.Time
	frameIdx := 0

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("scan interrupted at frame %d: %w", frameIdx, err)
		}

		frame, ok := handle.Read()
		if !ok || frame == nil {
			return nil
		}
		frameIdx++

		if !run.sampler.Selects(frameIdx) {
			continue
		}

		if now := s.now(); now.Sub(lastProgress) >= s.cfg.ProgressInterval {
			s.observe(run, frameIdx, now)
			lastProgress = now
		}

		run.result.FramesAnalyzed++

		boxes, err := s.detection.Detect(ctx, frame, s.cfg.Confidence, run.req.Region)
		if err != nil {
			return fmt.Errorf("frame %d: %w", frameIdx, err)
		}

		timestamp := frameTimestamp(frameIdx, run.info.FPS)
		for _, m := range EvaluateZones(boxes, run.zones) {
			frameID := fmt.Sprintf("%d_%d", int(timestamp), len(run.result.Detections))

			record := entity.DetectionRecord{
				FrameID:    frameID,
				Timestamp:  timestamp,
				Confidence: m.Box.Confidence,
				Box:        m.Box.Box(),
			}
			if m.Zone != nil {
				record.ZoneID = m.Zone.ID
			}
			run.result.Detections = append(run.result.Detections, record)

			if err := s.persist(ctx, run, frameID, frame, m.Box, timestamp); err != nil {
				run.logger.Warn().Err(err).Str("frame_id", frameID).Msg("Detection kept without annotated frame")
			}
		}
	}
}

// persist рисует и сохраняет кадр; ошибка не влияет на результат сканирования
func (s *Scanner) persist(ctx context.Context, run *scanRun, frameID string, frame image.Image, box entity.BoundingBox, timestamp float64) error {
	if s.annotator == nil || run.sink == nil {
		return nil
	}

	annotated, err := s.annotator.Annotate(frame, port.Annotation{
		Zones:      run.zones,
		Detections: []entity.BoundingBox{box},
		Timestamp:  timestamp,
	})
	if err != nil {
		return fmt.Errorf("%w: annotate %s: %v", entity.ErrRendering, frameID, err)
	}

	if err := run.sink.Store(ctx, frameID, annotated); err != nil {
		return fmt.Errorf("%w: store %s: %v", entity.ErrRendering, frameID, err)
	}
	return nil
}

func (s *Scanner) observe(run *scanRun, frameIdx int, now time.Time) {
	p := entity.ScanProgress{
		ScanID:         run.req.ScanID,
		FrameIndex:     frameIdx,
		FrameCount:     run.info.FrameCount,
		FramesAnalyzed: run.result.FramesAnalyzed,
		Detections:     len(run.result.Detections),
		TimeStamp:      now.UTC(),
	}

	run.logger.Info().Msgf("Processing: %.1f%% complete (%d/%d frames)", p.Percent(), frameIdx, run.info.FrameCount)
	if s.progress != nil {
		s.progress.Observe(p)
	}
}

func frameTimestamp(frameIdx int, fps float64) float64 {
	if fps <= 0 {
		return 0
	}
	return float64(frameIdx) / fps
}
