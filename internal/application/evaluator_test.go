package app

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"

	"zonewatch/internal/domain/entity"
)

func box(x1, y1, x2, y2 int) entity.BoundingBox {
	return entity.BoundingBox{X1: x1, Y1: y1, X2: x2, Y2: y2, Confidence: 0.8}
}

func TestEvaluateZones_WholeFrameAcceptsAll(t *testing.T) {
	boxes := []entity.BoundingBox{box(0, 0, 10, 10), box(500, 400, 600, 470)}

	matches := EvaluateZones(boxes, nil)
	require.Len(t, matches, 2)
	for i, m := range matches {
		require.Equal(t, boxes[i], m.Box)
		require.Nil(t, m.Zone)
	}
}

func TestEvaluateZones_DropsOutsideAndPicksFirst(t *testing.T) {
	zones := []entity.PixelZone{
		{ID: "left", Polygon: []image.Point{{0, 0}, {320, 0}, {320, 480}, {0, 480}}},
		{ID: "wide", Polygon: []image.Point{{0, 0}, {600, 0}, {600, 480}, {0, 480}}},
	}
	boxes := []entity.BoundingBox{
		box(50, 150, 150, 250),  // (100, 200) обе зоны
		box(450, 150, 550, 250), // (500, 200) только wide
		box(610, 10, 630, 30),   // (620, 20) ни одной
	}

	matches := EvaluateZones(boxes, zones)
	require.Len(t, matches, 2)
	require.Equal(t, "left", matches[0].Zone.ID)
	require.Equal(t, "wide", matches[1].Zone.ID)
	require.Equal(t, boxes[1], matches[1].Box)
}

func TestEvaluateZones_Empty(t *testing.T) {
	require.Empty(t, EvaluateZones(nil, nil))
	require.Empty(t, EvaluateZones(nil, []entity.PixelZone{{ID: "z", Polygon: []image.Point{{0, 0}, {1, 0}, {0, 1}}}}))
}
