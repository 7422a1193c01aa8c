package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	app "zonewatch/internal/application"
	"zonewatch/internal/domain/entity"
	"zonewatch/internal/infrastructure/messaging"
)

// Analyzer запускает анализ одного видео
type Analyzer interface {
	Analyze(ctx context.Context, req app.AnalyzeRequest) (*app.AnalysisOutput, error)
}

// Worker выполняет задания на сканирование из очереди по одному
type Worker struct {
	analyzer Analyzer
	messages <-chan messaging.Message
	timeout  time.Duration
}

// New создаёт обработчик заданий. timeout <= 0 отключает ограничение времени скана.
func New(analyzer Analyzer, messages <-chan messaging.Message, timeout time.Duration) *Worker {
	return &Worker{analyzer: analyzer, messages: messages, timeout: timeout}
}

// ListenAndRun обрабатывает задания до отмены ctx или закрытия канала
func (w *Worker) ListenAndRun(ctx context.Context) {
	log.Info().Msg("Worker: listening for scan jobs")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Worker: shutting down")
			return
		case msg, ok := <-w.messages:
			if !ok {
				log.Info().Msg("Worker: message channel closed")
				return
			}
			if w.handle(ctx, msg.Value) {
				msg.Ack()
			} else if msg.Nack != nil {
				msg.Nack()
			}
		}
	}
}

// handle возвращает true, если сообщение можно подтвердить.
// Неразборчивые задания и ошибки видео подтверждаются: повтор их не исправит.
func (w *Worker) handle(ctx context.Context, value []byte) bool {
	job, err := messaging.DecodeJob(value)
	if err != nil {
		log.Error().Err(err).Msg("Invalid scan job, skipping")
		return true
	}

	scanCtx := ctx
	if w.timeout > 0 {
		var cancel context.CancelFunc
		scanCtx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	out, err := w.analyzer.Analyze(scanCtx, app.AnalyzeRequest{
		ScanID:    job.ScanID,
		VideoPath: job.VideoPath,
		Zones:     job.Zones,
	})

	switch {
	case err == nil:
		log.Info().
			Str("scan_id", out.ScanID).
			Int("detections", len(out.Result.Detections)).
			Msg("Scan job done")
		return true
	case ctx.Err() != nil:
		// остановка воркера: задание заберёт следующий
		return false
	case errors.Is(err, entity.ErrDetectorUnavailable):
		log.Error().Err(err).Str("video", job.VideoPath).Msg("Scan job failed, will retry")
		return false
	default:
		log.Error().Err(err).Str("video", job.VideoPath).Msg("Scan job failed")
		return true
	}
}
