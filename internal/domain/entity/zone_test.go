package entity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func square() []Point {
	return []Point{{0, 0}, {0.5, 0}, {0.5, 1}, {0, 1}}
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#FF8000")
	require.NoError(t, err)
	require.Equal(t, Color{R: 255, G: 128, B: 0}, c)
	require.Equal(t, "#ff8000", c.Hex())

	c, err = ParseColor("00ff00")
	require.NoError(t, err)
	require.Equal(t, Color{G: 255}, c)

	_, err = ParseColor("#fff")
	require.ErrorIs(t, err, ErrMalformedZone)

	_, err = ParseColor("#gg0000")
	require.ErrorIs(t, err, ErrMalformedZone)
}

func TestZoneValidate(t *testing.T) {
	require.NoError(t, Zone{ID: "left", Color: "#00ff00", Points: square()}.Validate())

	tests := []struct {
		name string
		zone Zone
	}{
		{"two points", Zone{ID: "a", Color: "#00ff00", Points: []Point{{0, 0}, {1, 1}}}},
		{"x above one", Zone{ID: "b", Color: "#00ff00", Points: []Point{{0, 0}, {1.2, 0}, {1, 1}}}},
		{"negative y", Zone{ID: "c", Color: "#00ff00", Points: []Point{{0, -0.1}, {1, 0}, {1, 1}}}},
		{"nan x", Zone{ID: "e", Color: "#00ff00", Points: []Point{{math.NaN(), 0}, {1, 0}, {1, 1}}}},
		{"infinite y", Zone{ID: "f", Color: "#00ff00", Points: []Point{{0, math.Inf(1)}, {1, 0}, {1, 1}}}},
		{"bad color", Zone{ID: "d", Color: "green", Points: square()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.zone.Validate(), ErrMalformedZone)
		})
	}
}

func TestValidateZones_StopsAtFirstBadZone(t *testing.T) {
	zones := []Zone{
		{ID: "ok", Color: "#00ff00", Points: square()},
		{ID: "bad", Color: "#00ff00", Points: square()[:2]},
	}
	err := ValidateZones(zones)
	require.ErrorIs(t, err, ErrMalformedZone)
	require.Contains(t, err.Error(), `"bad"`)
}
