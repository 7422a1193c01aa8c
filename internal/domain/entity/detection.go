package entity

import (
	"fmt"
	"image"
)

// ClassPerson единственный класс, который интересует сканер
const ClassPerson = "person"

// BoundingBox рамка детекции в пикселях
type BoundingBox struct {
	X1, Y1, X2, Y2 int     // углы рамки, X1 <= X2, Y1 <= Y2
	Confidence     float64 // уверенность детектора в [0,1]
}

// Center возвращает центр рамки (целочисленное деление, как для пикселей)
func (b BoundingBox) Center() image.Point {
	return image.Pt((b.X1+b.X2)/2, (b.Y1+b.Y2)/2)
}

// Rect возвращает рамку как image.Rectangle
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2)
}

// Box возвращает координаты в формате [x1, y1, x2, y2]
func (b BoundingBox) Box() [4]int {
	return [4]int{b.X1, b.Y1, b.X2, b.Y2}
}

// Validate проверяет инварианты рамки
func (b BoundingBox) Validate() error {
	if b.X1 > b.X2 || b.Y1 > b.Y2 {
		return fmt.Errorf("invalid box [%d %d %d %d]", b.X1, b.Y1, b.X2, b.Y2)
	}
	if b.Confidence < 0 || b.Confidence > 1 {
		return fmt.Errorf("invalid confidence %.4f", b.Confidence)
	}
	return nil
}

// Detection сырой результат внешнего детектора
type Detection struct {
	Class string
	Box   BoundingBox
}

// Region дополнительная область интереса детектора: прямоугольник или многоугольник.
// Если заданы оба, используется многоугольник.
type Region struct {
	Rect    *image.Rectangle
	Polygon []image.Point
}

// DetectionRecord принятая детекция человека в рамках одного сканирования
type DetectionRecord struct {
	FrameID    string  `json:"frame_id"`
	Timestamp  float64 `json:"timestamp_seconds"`
	Confidence float64 `json:"confidence"`
	Box        [4]int  `json:"box"`
	ZoneID     string  `json:"zone_id,omitempty"`
}
