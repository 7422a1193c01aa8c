// Package render рисует доказательство детекции поверх копии кадра:
// зоны с полупрозрачной заливкой, рамки людей, уверенность и время.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"zonewatch/internal/domain/entity"
	"zonewatch/internal/domain/geometry"
	"zonewatch/internal/domain/port"
)

var (
	boxGreen  = color.RGBA{G: 255, A: 255}
	textWhite = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Renderer реализует port.Annotator на чистом Go
type Renderer struct {
	BoxColor  color.RGBA
	TextColor color.RGBA
	FillAlpha float64 // доля цвета зоны в заливке
	Thickness int
}

// NewRenderer создаёт рендерер с параметрами по умолчанию
func NewRenderer() *Renderer {
	return &Renderer{
		BoxColor:  boxGreen,
		TextColor: textWhite,
		FillAlpha: 0.3,
		Thickness: 2,
	}
}

// Annotate возвращает новый кадр; исходный не меняется
func (r *Renderer) Annotate(frame image.Image, a port.Annotation) (image.Image, error) {
	if frame == nil {
		return nil, errors.New("nil frame")
	}
	bounds := frame.Bounds()
	if bounds.Empty() {
		return nil, errors.New("empty frame")
	}

	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, frame, bounds.Min, draw.Src)

	for _, z := range a.Zones {
		r.fillPolygon(out, z.Polygon, z.Color)
		r.strokePolygon(out, z.Polygon, z.Color)
	}

	for _, b := range a.Detections {
		r.strokeRect(out, b.Rect(), r.BoxColor)
		drawText(out, fmt.Sprintf("Person: %.2f", b.Confidence), image.Pt(b.X1, b.Y1-10), r.BoxColor)
	}

	drawText(out, "Time: "+entity.FormatTimestamp(a.Timestamp), image.Pt(bounds.Min.X+10, bounds.Min.Y+30), r.TextColor)

	return out, nil
}

// fillPolygon смешивает цвет зоны с кадром внутри многоугольника
func (r *Renderer) fillPolygon(img *image.RGBA, polygon []image.Point, c color.Color) {
	if len(polygon) < 3 {
		return
	}

	area := polygonBounds(polygon).Intersect(img.Bounds())
	zr, zg, zb, _ := c.RGBA()
	alpha := r.FillAlpha

	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			if !geometry.Contains(image.Pt(x, y), polygon) {
				continue
			}
			px := img.RGBAAt(x, y)
			img.SetRGBA(x, y, color.RGBA{
				R: blend(uint8(zr>>8), px.R, alpha),
				G: blend(uint8(zg>>8), px.G, alpha),
				B: blend(uint8(zb>>8), px.B, alpha),
				A: px.A,
			})
		}
	}
}

func (r *Renderer) strokePolygon(img *image.RGBA, polygon []image.Point, c color.Color) {
	if len(polygon) < 2 {
		return
	}
	r.stroke(img, polygon, c)
}

func (r *Renderer) strokeRect(img *image.RGBA, rect image.Rectangle, c color.Color) {
	r.stroke(img, []image.Point{
		rect.Min,
		image.Pt(rect.Max.X, rect.Min.Y),
		rect.Max,
		image.Pt(rect.Min.X, rect.Max.Y),
	}, c)
}

// stroke обводит замкнутую ломаную линией толщины r.Thickness с квадратными концами.
// Все отрезки обходятся в одном направлении, поэтому стыки не дают дыр.
func (r *Renderer) stroke(img *image.RGBA, points []image.Point, c color.Color) {
	b := img.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	half := float32(max(1, r.Thickness)) / 2

	for i := range points {
		segment(z, points[i].Sub(b.Min), points[(i+1)%len(points)].Sub(b.Min), half)
	}
	z.Draw(img, b, image.NewUniform(c), image.Point{})
}

// segment добавляет прямоугольник вокруг отрезка ab; координаты берутся по центрам пикселей
func segment(z *vector.Rasterizer, a, b image.Point, half float32) {
	ax, ay := float32(a.X)+0.5, float32(a.Y)+0.5
	bx, by := float32(b.X)+0.5, float32(b.Y)+0.5

	dx, dy := bx-ax, by-ay
	if l := float32(math.Hypot(float64(dx), float64(dy))); l > 0 {
		dx, dy = dx/l, dy/l
	} else {
		dx, dy = 1, 0
	}
	ux, uy := dx*half, dy*half
	nx, ny := -uy, ux

	z.MoveTo(ax-ux+nx, ay-uy+ny)
	z.LineTo(bx+ux+nx, by+uy+ny)
	z.LineTo(bx+ux-nx, by+uy-ny)
	z.LineTo(ax-ux-nx, ay-uy-ny)
	z.ClosePath()
}

// blend возвращает alpha*top + (1-alpha)*bottom
func blend(top, bottom uint8, alpha float64) uint8 {
	v := alpha*float64(top) + (1-alpha)*float64(bottom)
	return uint8(math.Min(255, math.Round(v)))
}

func polygonBounds(polygon []image.Point) image.Rectangle {
	b := image.Rectangle{Min: polygon[0], Max: polygon[0]}
	for _, p := range polygon[1:] {
		b.Min.X = min(b.Min.X, p.X)
		b.Min.Y = min(b.Min.Y, p.Y)
		b.Max.X = max(b.Max.X, p.X)
		b.Max.Y = max(b.Max.Y, p.Y)
	}
	b.Max = b.Max.Add(image.Pt(1, 1))
	return b
}

// drawText пишет строку, pt: левая точка базовой линии
func drawText(img *image.RGBA, text string, pt image.Point, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(pt.X, pt.Y),
	}
	d.DrawString(text)
}

var _ port.Annotator = (*Renderer)(nil)
