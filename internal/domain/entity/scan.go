package entity

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrSourceUnavailable видео не удалось открыть
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrDetectorUnavailable детектор вернул ошибку посреди сканирования
	ErrDetectorUnavailable = errors.New("detector unavailable")
	// ErrMalformedZone зона не прошла проверку
	ErrMalformedZone = errors.New("malformed zone")
	// ErrRendering не удалось отрисовать или сохранить кадр
	ErrRendering = errors.New("rendering failure")
	// ErrInvalidScanID идентификатор сканирования нельзя использовать как ключ хранилища
	ErrInvalidScanID = errors.New("invalid scan id")
)

const maxScanIDLen = 128

// ValidateScanID допускает латиницу, цифры, '-' и '_'
func ValidateScanID(id string) error {
	if id == "" || len(id) > maxScanIDLen {
		return fmt.Errorf("%w: %q", ErrInvalidScanID, id)
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidScanID, id)
		}
	}
	return nil
}

// ScanState состояние сканирования
type ScanState string

const (
	ScanOpening    ScanState = "opening"
	ScanScanning   ScanState = "scanning"
	ScanFinalizing ScanState = "finalizing"
	ScanCompleted  ScanState = "completed"
	ScanFailed     ScanState = "failed"
)

// ScanMode режим анализа
type ScanMode string

const (
	ModeWholeFrame ScanMode = "whole_frame" // без зон, принимается любая детекция
	ModeZones      ScanMode = "zones"       // только детекции внутри зон
)

// VideoInfo параметры видео
type VideoInfo struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	FPS        float64 `json:"fps"`
	FrameCount int     `json:"frame_count"`
	Duration   float64 `json:"duration_seconds"`
}

// NewVideoInfo собирает VideoInfo и считает длительность
func NewVideoInfo(width, height int, fps float64, frameCount int) VideoInfo {
	var duration float64
	if fps > 0 {
		duration = float64(frameCount) / fps
	}
	return VideoInfo{
		Width:      width,
		Height:     height,
		FPS:        fps,
		FrameCount: frameCount,
		Duration:   duration,
	}
}

// ScanResult итог сканирования видео.
// Если Err не nil, Detections содержит частичный результат.
type ScanResult struct {
	Detections     []DetectionRecord
	FramesAnalyzed int
	ProcessingTime time.Duration
	State          ScanState
	Err            error
}

// Failed сообщает, завершилось ли сканирование ошибкой
func (r *ScanResult) Failed() bool {
	return r.Err != nil
}

type scanResultJSON struct {
	Detections     []DetectionRecord `json:"detections"`
	FramesAnalyzed int               `json:"frames_analyzed"`
	ProcessingTime float64           `json:"processing_time_seconds"`
	Error          string            `json:"error,omitempty"`
}

// MarshalJSON отдаёт результат в формате внешнего API
func (r ScanResult) MarshalJSON() ([]byte, error) {
	out := scanResultJSON{
		Detections:     r.Detections,
		FramesAnalyzed: r.FramesAnalyzed,
		ProcessingTime: r.ProcessingTime.Seconds(),
	}
	if out.Detections == nil {
		out.Detections = []DetectionRecord{}
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}

// UnmarshalJSON восстанавливает сохранённый отчёт
func (r *ScanResult) UnmarshalJSON(data []byte) error {
	var in scanResultJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	r.Detections = in.Detections
	r.FramesAnalyzed = in.FramesAnalyzed
	r.ProcessingTime = time.Duration(in.ProcessingTime * float64(time.Second))
	r.State = ScanCompleted
	r.Err = nil
	if in.Error != "" {
		r.State = ScanFailed
		r.Err = errors.New(in.Error)
	}
	return nil
}

// ScanProgress наблюдение за ходом сканирования
type ScanProgress struct {
	ScanID         string    `json:"scan_id"`
	FrameIndex     int       `json:"frame"`
	FrameCount     int       `json:"frame_count"`
	FramesAnalyzed int       `json:"frames_analyzed"`
	Detections     int       `json:"detections"`
	TimeStamp      time.Time `json:"timestamp"`
}

// Percent возвращает прогресс в процентах
func (p ScanProgress) Percent() float64 {
	if p.FrameCount <= 0 {
		return 0
	}
	return float64(p.FrameIndex) / float64(p.FrameCount) * 100
}
