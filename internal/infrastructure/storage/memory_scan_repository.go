package storage

import (
	"context"
	"sync"

	"zonewatch/internal/domain/entity"
	"zonewatch/internal/domain/port"
)

// MemoryScanRepository in-memory хранилище отчётов
type MemoryScanRepository struct {
	mu      sync.RWMutex
	reports map[string]entity.ScanResult
}

// NewMemoryScanRepository создаёт пустое хранилище
func NewMemoryScanRepository() *MemoryScanRepository {
	return &MemoryScanRepository{reports: make(map[string]entity.ScanResult)}
}

func (r *MemoryScanRepository) Save(ctx context.Context, scanID string, videoPath string, result *entity.ScanResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *result
	copied.Detections = append([]entity.DetectionRecord(nil), result.Detections...)
	r.reports[scanID] = copied
	return nil
}

func (r *MemoryScanRepository) Get(ctx context.Context, scanID string) (*entity.ScanResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result, ok := r.reports[scanID]
	if !ok {
		return nil, nil
	}
	return &result, nil
}

var _ port.ScanRepository = (*MemoryScanRepository)(nil)
