// Package geometry содержит чистые функции работы с зонами:
// перевод нормированных координат в пиксели и проверку попадания точки в многоугольник.
package geometry

import (
	"image"

	"zonewatch/internal/domain/entity"
)

// Normalize переводит зону в пиксельные координаты видео.
// Дробная часть отбрасывается.
func Normalize(zone entity.Zone, width, height int) (entity.PixelZone, error) {
	c, err := entity.ParseColor(zone.Color)
	if err != nil {
		return entity.PixelZone{}, err
	}

	polygon := make([]image.Point, len(zone.Points))
	for i, p := range zone.Points {
		polygon[i] = image.Pt(int(p.X*float64(width)), int(p.Y*float64(height)))
	}

	return entity.PixelZone{ID: zone.ID, Color: c, Polygon: polygon}, nil
}

// NormalizeAll переводит зоны в пиксели, сохраняя их порядок
func NormalizeAll(zones []entity.Zone, width, height int) ([]entity.PixelZone, error) {
	out := make([]entity.PixelZone, 0, len(zones))
	for _, z := range zones {
		pz, err := Normalize(z, width, height)
		if err != nil {
			return nil, err
		}
		out = append(out, pz)
	}
	return out, nil
}

// Contains проверяет попадание точки в многоугольник методом луча.
// Вертикальные рёбра всегда считаются пересечением, если y в диапазоне ребра.
// Для точек ровно на ребре результат не определён.
func Contains(pt image.Point, polygon []image.Point) bool {
	n := len(polygon)
	if n == 0 {
		return false
	}

	x, y := float64(pt.X), float64(pt.Y)
	inside := false

	p1x, p1y := float64(polygon[0].X), float64(polygon[0].Y)
	for i := 1; i <= n; i++ {
		p2 := polygon[i%n]
		p2x, p2y := float64(p2.X), float64(p2.Y)

		if y > min(p1y, p2y) && y <= max(p1y, p2y) && x <= max(p1x, p2x) {
			xIntersect := p1x
			if p1y != p2y {
				xIntersect = (y-p1y)*(p2x-p1x)/(p2y-p1y) + p1x
			}
			if p1x == p2x || x <= xIntersect {
				inside = !inside
			}
		}

		p1x, p1y = p2x, p2y
	}

	return inside
}

// Center возвращает центр рамки
func Center(box entity.BoundingBox) image.Point {
	return box.Center()
}
