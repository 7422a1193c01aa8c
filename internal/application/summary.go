package app

import (
	"cmp"
	"slices"

	"github.com/samber/lo"

	"zonewatch/internal/domain/entity"
)

// Summary краткая сводка по результату сканирования
type Summary struct {
	Total     int
	PerZone   map[string]int
	FirstSeen float64
	LastSeen  float64
	Frames    []string // идентификаторы кадров с наибольшей уверенностью
}

// Summarize считает детекции по зонам и выбирает до maxFrames лучших кадров
func Summarize(result *entity.ScanResult, maxFrames int) Summary {
	if result == nil || len(result.Detections) == 0 {
		return Summary{PerZone: map[string]int{}}
	}

	dets := result.Detections
	perZone := lo.CountValuesBy(
		lo.Filter(dets, func(d entity.DetectionRecord, _ int) bool { return d.ZoneID != "" }),
		func(d entity.DetectionRecord) string { return d.ZoneID },
	)

	best := lo.UniqBy(sortedByConfidence(dets), func(d entity.DetectionRecord) int { return int(d.Timestamp) })
	if len(best) > maxFrames {
		best = best[:maxFrames]
	}

	return Summary{
		Total:     len(dets),
		PerZone:   perZone,
		FirstSeen: dets[0].Timestamp,
		LastSeen:  dets[len(dets)-1].Timestamp,
		Frames:    lo.Map(best, func(d entity.DetectionRecord, _ int) string { return d.FrameID }),
	}
}

// sortedByConfidence возвращает копию, упорядоченную по убыванию уверенности
func sortedByConfidence(dets []entity.DetectionRecord) []entity.DetectionRecord {
	out := slices.Clone(dets)
	slices.SortStableFunc(out, func(a, b entity.DetectionRecord) int {
		return cmp.Compare(b.Confidence, a.Confidence)
	})
	return out
}
