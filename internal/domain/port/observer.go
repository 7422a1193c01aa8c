package port

import (
	"context"

	"zonewatch/internal/domain/entity"
)

// ProgressObserver получает наблюдения о ходе сканирования.
// Observe не должен блокировать сканирование.
type ProgressObserver interface {
	Observe(p entity.ScanProgress)
}

// ScanMetrics учитывает завершённые сканирования
type ScanMetrics interface {
	ObserveScan(mode entity.ScanMode, result *entity.ScanResult)
}

// ScanRepository хранилище отчётов сканирования
type ScanRepository interface {
	// Save сохраняет отчёт под идентификатором сканирования
	Save(ctx context.Context, scanID string, videoPath string, result *entity.ScanResult) error

	// Get возвращает отчёт; nil, если не найден
	Get(ctx context.Context, scanID string) (*entity.ScanResult, error)
}
