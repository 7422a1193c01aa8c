package app

import (
	"context"
	"fmt"
	"image"

	"zonewatch/internal/domain/entity"
	"zonewatch/internal/domain/geometry"
	"zonewatch/internal/domain/port"
)

// DefaultConfidence порог уверенности по умолчанию
const DefaultConfidence = 0.5

// PersonDetection приводит ответ внешнего детектора к рамкам людей
type PersonDetection struct {
	detector port.PersonDetector
}

// NewPersonDetection оборачивает детектор
func NewPersonDetection(detector port.PersonDetector) *PersonDetection {
	return &PersonDetection{detector: detector}
}

// Detect возвращает рамки людей с уверенностью не ниже threshold.
// Если задан region, остаются только рамки, центр которых внутри области.
// Ошибка детектора превращается в ErrDetectorUnavailable, частичный список не возвращается.
func (d *PersonDetection) Detect(ctx context.Context, frame image.Image, threshold float64, region *entity.Region) ([]entity.BoundingBox, error) {
	if d.detector == nil {
		return nil, fmt.Errorf("%w: detector is not configured", entity.ErrDetectorUnavailable)
	}

	raw, err := d.detector.Detect(ctx, frame)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrDetectorUnavailable, err)
	}

	boxes := make([]entity.BoundingBox, 0, len(raw))
	for _, det := range raw {
		if det.Class != entity.ClassPerson {
			continue
		}
		if err := det.Box.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", entity.ErrDetectorUnavailable, err)
		}
		if det.Box.Confidence < threshold {
			continue
		}
		if region != nil && !inRegion(det.Box.Center(), region) {
			continue
		}
		boxes = append(boxes, det.Box)
	}

	return boxes, nil
}

// inRegion проверяет попадание центра рамки в область (пересечение не учитывается)
func inRegion(center image.Point, region *entity.Region) bool {
	if len(region.Polygon) > 0 {
		return geometry.Contains(center, region.Polygon)
	}
	if region.Rect != nil {
		r := *region.Rect
		return center.X >= r.Min.X && center.X <= r.Max.X && center.Y >= r.Min.Y && center.Y <= r.Max.Y
	}
	return true
}
