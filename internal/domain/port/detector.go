package port

import (
	"context"
	"image"

	"zonewatch/internal/domain/entity"
)

// PersonDetector внешний детектор объектов на кадре.
// Реализация создаётся один раз при старте и не обязана быть потокобезопасной.
type PersonDetector interface {
	// Detect возвращает все найденные на кадре объекты с классом и уверенностью
	Detect(ctx context.Context, frame image.Image) ([]entity.Detection, error)

	// Close освобождает ресурсы модели
	Close() error
}
