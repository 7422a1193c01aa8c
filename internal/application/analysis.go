package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"zonewatch/internal/domain/entity"
	"zonewatch/internal/domain/port"
)

// reportSaveTimeout ограничивает сохранение отчёта, в том числе прерванного скана
const reportSaveTimeout = 10 * time.Second

// AnalysisService запускает сканирования, хранит отчёты и размеченные кадры
type AnalysisService struct {
	scanner *Scanner
	source  port.VideoSource
	sinks   port.FrameSinkFactory
	reports port.ScanRepository
	metrics port.ScanMetrics
	newID   func() string
}

// AnalyzeRequest запрос на анализ видео
type AnalyzeRequest struct {
	ScanID    string // если пусто, генерируется
	VideoPath string
	Zones     []entity.Zone
	Region    *entity.Region
}

// AnalysisOutput результат анализа с идентификатором сканирования
type AnalysisOutput struct {
	ScanID string
	Mode   entity.ScanMode
	Result *entity.ScanResult
}

// NewAnalysisService создаёт сервис анализа. sinks, reports и metrics могут быть nil.
func NewAnalysisService(scanner *Scanner, source port.VideoSource, sinks port.FrameSinkFactory, reports port.ScanRepository, metrics port.ScanMetrics) *AnalysisService {
	return &AnalysisService{
		scanner: scanner,
		source:  source,
		sinks:   sinks,
		reports: reports,
		metrics: metrics,
		newID:   uuid.NewString,
	}
}

// Analyze сканирует видео. При ошибке сканирования output не nil,
// если сканирование успело начаться; частичный результат тоже сохраняется.
func (s *AnalysisService) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalysisOutput, error) {
	if s.scanner == nil {
		return nil, errors.New("scanner is not configured")
	}

	scanID := req.ScanID
	if scanID == "" {
		scanID = s.newID()
	}
	if err := entity.ValidateScanID(scanID); err != nil {
		return nil, err
	}

	var sink port.FrameSink
	if s.sinks != nil {
		sink = s.sinks.ForScan(scanID)
	}

	scanReq := ScanRequest{
		ScanID:    scanID,
		VideoPath: req.VideoPath,
		Zones:     req.Zones,
		Region:    req.Region,
	}

	result, scanErr := s.scanner.Scan(ctx, scanReq, sink)
	if result == nil {
		return nil, scanErr
	}

	if s.metrics != nil {
		s.metrics.ObserveScan(scanReq.Mode(), result)
	}

	if s.reports != nil {
		// частичный отчёт прерванного скана тоже сохраняется
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reportSaveTimeout)
		defer cancel()
		if err := s.reports.Save(saveCtx, scanID, req.VideoPath, result); err != nil {
			log.Error().Err(err).Str("scan_id", scanID).Msg("Failed to save scan report")
		}
	}

	return &AnalysisOutput{ScanID: scanID, Mode: scanReq.Mode(), Result: result}, scanErr
}

// Info возвращает параметры видео или nil, если его не удалось открыть
func (s *AnalysisService) Info(ctx context.Context, path string) *entity.VideoInfo {
	handle, err := s.source.Open(ctx, path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("Could not open video")
		return nil
	}
	defer handle.Close()

	info := handle.Info()
	return &info
}

// Report возвращает сохранённый отчёт
func (s *AnalysisService) Report(ctx context.Context, scanID string) (*entity.ScanResult, error) {
	if s.reports == nil {
		return nil, errors.New("report storage is not configured")
	}
	return s.reports.Get(ctx, scanID)
}

// Frame возвращает размеченный кадр сканирования в JPEG
func (s *AnalysisService) Frame(ctx context.Context, scanID, frameID string) ([]byte, error) {
	if s.sinks == nil {
		return nil, errors.New("frame storage is not configured")
	}
	if err := entity.ValidateScanID(scanID); err != nil {
		return nil, err
	}

	data, err := s.sinks.ForScan(scanID).Load(ctx, frameID)
	if err != nil {
		return nil, fmt.Errorf("load frame %s/%s: %w", scanID, frameID, err)
	}
	return data, nil
}
