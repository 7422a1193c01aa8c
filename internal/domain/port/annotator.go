package port

import (
	"image"

	"zonewatch/internal/domain/entity"
)

// Annotation что нарисовать поверх кадра
type Annotation struct {
	Zones      []entity.PixelZone
	Detections []entity.BoundingBox
	Timestamp  float64 // секунды от начала видео
}

// Annotator рисует рамки, зоны и время на копии кадра
type Annotator interface {
	Annotate(frame image.Image, a Annotation) (image.Image, error)
}
