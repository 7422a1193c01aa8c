package entity

import (
	"fmt"
	"image"
	"strconv"
	"strings"
)

// minZonePoints минимальное число вершин многоугольника зоны
const minZonePoints = 3

// Point точка зоны в нормированных координатах [0,1]×[0,1]
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Color цвет зоны в RGB
type Color struct {
	R, G, B uint8
}

// RGBA возвращает непрозрачный цвет для отрисовки
func (c Color) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R)
	r |= r << 8
	g = uint32(c.G)
	g |= g << 8
	b = uint32(c.B)
	b |= b << 8
	return r, g, b, 0xffff
}

// Hex возвращает цвет в формате #RRGGBB
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseColor разбирает строку вида #RRGGBB (решётка необязательна)
func ParseColor(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("%w: color %q is not #RRGGBB", ErrMalformedZone, s)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%w: color %q: %v", ErrMalformedZone, s, err)
	}

	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// Zone пользовательская зона интереса.
// Многоугольник замкнут: последняя вершина соединяется с первой.
type Zone struct {
	ID     string  `json:"id" yaml:"id"`
	Color  string  `json:"color" yaml:"color"`
	Points []Point `json:"points" yaml:"points"`
}

// Validate проверяет зону до начала сканирования
func (z Zone) Validate() error {
	if len(z.Points) < minZonePoints {
		return fmt.Errorf("%w: zone %q has %d points, need at least %d", ErrMalformedZone, z.ID, len(z.Points), minZonePoints)
	}

	for i, p := range z.Points {
		if !(p.X >= 0 && p.X <= 1 && p.Y >= 0 && p.Y <= 1) {
			return fmt.Errorf("%w: zone %q point %d (%.3f, %.3f) is outside [0,1]", ErrMalformedZone, z.ID, i, p.X, p.Y)
		}
	}

	if _, err := ParseColor(z.Color); err != nil {
		return fmt.Errorf("zone %q: %w", z.ID, err)
	}

	return nil
}

// ValidateZones проверяет все зоны запроса
func ValidateZones(zones []Zone) error {
	for _, z := range zones {
		if err := z.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// PixelZone зона в пиксельных координатах конкретного видео
type PixelZone struct {
	ID      string
	Color   Color
	Polygon []image.Point
}
