package geometry

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"

	"zonewatch/internal/domain/entity"
)

// pentagon выпуклый тестовый многоугольник
var pentagon = []image.Point{{100, 20}, {180, 80}, {150, 170}, {50, 170}, {20, 80}}

func TestContains_ConvexPolygon(t *testing.T) {
	inside := []image.Point{{100, 100}, {60, 90}, {140, 150}, {100, 30}}
	outside := []image.Point{{0, 0}, {190, 100}, {100, 180}, {25, 160}, {300, 300}}

	for _, p := range inside {
		require.True(t, Contains(p, pentagon), "expected %v inside", p)
	}
	for _, p := range outside {
		require.False(t, Contains(p, pentagon), "expected %v outside", p)
	}
}

func TestContains_TranslationAndReflection(t *testing.T) {
	points := []image.Point{{100, 100}, {60, 90}, {0, 0}, {190, 100}, {140, 150}}
	offset := image.Pt(-37, 512)

	shifted := make([]image.Point, len(pentagon))
	mirrored := make([]image.Point, len(pentagon))
	for i, v := range pentagon {
		shifted[i] = v.Add(offset)
		mirrored[i] = image.Pt(-v.X, v.Y)
	}

	for _, p := range points {
		want := Contains(p, pentagon)
		require.Equal(t, want, Contains(p.Add(offset), shifted), "translation of %v", p)
		require.Equal(t, want, Contains(image.Pt(-p.X, p.Y), mirrored), "reflection of %v", p)
	}
}

func TestContains_NonConvex(t *testing.T) {
	// Г-образная зона
	shape := []image.Point{{0, 0}, {100, 0}, {100, 40}, {40, 40}, {40, 100}, {0, 100}}

	require.True(t, Contains(image.Pt(80, 20), shape))
	require.True(t, Contains(image.Pt(20, 80), shape))
	require.False(t, Contains(image.Pt(80, 80), shape))
}

func TestContains_Degenerate(t *testing.T) {
	require.False(t, Contains(image.Pt(1, 1), nil))
	require.False(t, Contains(image.Pt(1, 1), []image.Point{{1, 1}}))
}

func TestNormalize_LeftHalf(t *testing.T) {
	zone := entity.Zone{
		ID:     "left",
		Color:  "#00ff00",
		Points: []entity.Point{{X: 0, Y: 0}, {X: 0.5, Y: 0}, {X: 0.5, Y: 1}, {X: 0, Y: 1}},
	}

	pz, err := Normalize(zone, 640, 480)
	require.NoError(t, err)
	require.Equal(t, "left", pz.ID)
	require.Equal(t, entity.Color{G: 255}, pz.Color)
	require.Equal(t, []image.Point{{0, 0}, {320, 0}, {320, 480}, {0, 480}}, pz.Polygon)

	require.True(t, Contains(image.Pt(100, 200), pz.Polygon))
	require.False(t, Contains(image.Pt(500, 200), pz.Polygon))
}

func TestNormalize_Truncates(t *testing.T) {
	zone := entity.Zone{
		ID:     "z",
		Color:  "#000000",
		Points: []entity.Point{{X: 0.333, Y: 0.999}, {X: 0.1, Y: 0.1}, {X: 0.7, Y: 0.2}},
	}

	pz, err := Normalize(zone, 100, 100)
	require.NoError(t, err)
	require.Equal(t, image.Pt(33, 99), pz.Polygon[0])
}

func TestNormalize_Linear(t *testing.T) {
	zone := entity.Zone{
		ID:     "z",
		Color:  "#123456",
		Points: []entity.Point{{X: 0.13, Y: 0.27}, {X: 0.91, Y: 0.05}, {X: 0.66, Y: 0.77}, {X: 0.21, Y: 0.93}},
	}

	base, err := Normalize(zone, 641, 479)
	require.NoError(t, err)

	for _, k := range []int{2, 3, 5} {
		scaled, err := Normalize(zone, 641*k, 479*k)
		require.NoError(t, err)
		for i := range base.Polygon {
			require.InDelta(t, base.Polygon[i].X*k, scaled.Polygon[i].X, float64(k), "x of point %d at k=%d", i, k)
			require.InDelta(t, base.Polygon[i].Y*k, scaled.Polygon[i].Y, float64(k), "y of point %d at k=%d", i, k)
		}
	}
}

func TestNormalizeAll_KeepsOrderAndRejectsBadColor(t *testing.T) {
	pts := []entity.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}
	zones := []entity.Zone{{ID: "b", Color: "#ffffff", Points: pts}, {ID: "a", Color: "#000000", Points: pts}}

	out, err := NormalizeAll(zones, 10, 10)
	require.NoError(t, err)
	require.Equal(t, "b", out[0].ID)
	require.Equal(t, "a", out[1].ID)

	zones[1].Color = "nope"
	_, err = NormalizeAll(zones, 10, 10)
	require.ErrorIs(t, err, entity.ErrMalformedZone)
}

func TestCenter_FloorDivision(t *testing.T) {
	require.Equal(t, image.Pt(150, 200), Center(entity.BoundingBox{X1: 100, Y1: 100, X2: 200, Y2: 300}))
	require.Equal(t, image.Pt(0, 0), Center(entity.BoundingBox{X1: 0, Y1: 0, X2: 1, Y2: 1}))
}
