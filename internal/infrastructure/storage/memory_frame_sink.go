package storage

import (
	"context"
	"fmt"
	"image"
	"sync"

	"zonewatch/internal/domain/port"
)

// MemoryFrameSinks in-memory хранилище кадров по ключу scanID/frameID
type MemoryFrameSinks struct {
	mu     sync.RWMutex
	frames map[string][]byte
}

// NewMemoryFrameSinks создаёт пустое хранилище
func NewMemoryFrameSinks() *MemoryFrameSinks {
	return &MemoryFrameSinks{frames: make(map[string][]byte)}
}

// ForScan возвращает хранилище кадров одного сканирования
func (m *MemoryFrameSinks) ForScan(scanID string) port.FrameSink {
	return &memoryFrameSink{parent: m, scanID: scanID}
}

// Len возвращает число сохранённых кадров
func (m *MemoryFrameSinks) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.frames)
}

type memoryFrameSink struct {
	parent *MemoryFrameSinks
	scanID string
}

func (s *memoryFrameSink) Store(ctx context.Context, id string, img image.Image) error {
	data, err := encodeJPEG(img)
	if err != nil {
		return err
	}

	s.parent.mu.Lock()
	s.parent.frames[s.scanID+"/"+id] = data
	s.parent.mu.Unlock()
	return nil
}

func (s *memoryFrameSink) Load(ctx context.Context, id string) ([]byte, error) {
	s.parent.mu.RLock()
	data, ok := s.parent.frames[s.scanID+"/"+id]
	s.parent.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("frame %s/%s not found", s.scanID, id)
	}
	return data, nil
}

var _ port.FrameSinkFactory = (*MemoryFrameSinks)(nil)
