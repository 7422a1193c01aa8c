package port

import (
	"context"
	"image"
)

// FrameSink хранилище размеченных кадров
type FrameSink interface {
	// Store сохраняет кадр под идентификатором
	Store(ctx context.Context, id string, img image.Image) error

	// Load возвращает сохранённый кадр в JPEG
	Load(ctx context.Context, id string) ([]byte, error)
}

// FrameSinkFactory выдаёт отдельное пространство кадров на каждое сканирование
type FrameSinkFactory interface {
	ForScan(scanID string) FrameSink
}
