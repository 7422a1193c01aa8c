package app

import (
	"zonewatch/internal/domain/entity"
	"zonewatch/internal/domain/geometry"
)

// Match детекция, принятая оценщиком зон
type Match struct {
	Box  entity.BoundingBox
	Zone *entity.PixelZone // nil в режиме всего кадра
}

// EvaluateZones распределяет детекции по зонам.
// Без зон принимается всё. С зонами детекция попадает в первую по порядку зону,
// содержащую центр рамки; детекции вне зон отбрасываются.
func EvaluateZones(boxes []entity.BoundingBox, zones []entity.PixelZone) []Match {
	matches := make([]Match, 0, len(boxes))

	if len(zones) == 0 {
		for _, b := range boxes {
			matches = append(matches, Match{Box: b})
		}
		return matches
	}

	for _, b := range boxes {
		center := b.Center()
		for i := range zones {
			if geometry.Contains(center, zones[i].Polygon) {
				matches = append(matches, Match{Box: b, Zone: &zones[i]})
				break
			}
		}
	}

	return matches
}
