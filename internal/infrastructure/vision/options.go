package vision

import (
	"image"

	"zonewatch/internal/domain/entity"
	"zonewatch/internal/domain/port"
)

const (
	yoloInputSize    = 640
	yoloFeatures     = 84 // 4 координаты рамки + 80 классов COCO
	yoloPersonClass  = 0
	defaultNMSThresh = 0.45
	defaultMinScore  = 0.25
)

// Options параметры детектора
type Options struct {
	ModelPath    string  // путь к ONNX модели; если пусто, HOG детектор OpenCV
	InputSize    int     // сторона входа сети
	MinScore     float64 // отсечение до NMS, итоговый порог применяет сканер
	NMSThreshold float64
}

func (o Options) withDefaults() Options {
	if o.InputSize <= 0 {
		o.InputSize = yoloInputSize
	}
	if o.MinScore <= 0 {
		o.MinScore = defaultMinScore
	}
	if o.NMSThreshold <= 0 {
		o.NMSThreshold = defaultNMSThresh
	}
	return o
}

// NewDetector выбирает YOLO при заданной модели и HOG в остальных случаях
func NewDetector(opts Options) (port.PersonDetector, error) {
	opts = opts.withDefaults()
	if opts.ModelPath != "" {
		d, err := NewYOLODetector(opts)
		if err != nil {
			return nil, err
		}
		return d, nil
	}

	d, err := NewHOGDetector()
	if err != nil {
		return nil, err
	}
	return d, nil
}

// candidate рамка человека до подавления пересечений
type candidate struct {
	rect  image.Rectangle
	score float32
}

// decodeYOLO разбирает выход сети формы [1, 84, anchors] в рамки людей.
// Координаты центра и размеры переводятся в пиксели кадра через scaleX, scaleY.
func decodeYOLO(data []float32, anchors int, scaleX, scaleY float64, minScore float32) []candidate {
	if anchors <= 0 || len(data) < yoloFeatures*anchors {
		return nil
	}

	at := func(feature, anchor int) float32 { return data[feature*anchors+anchor] }

	var out []candidate
	for i := 0; i < anchors; i++ {
		score := at(4+yoloPersonClass, i)
		if score < minScore {
			continue
		}

		cx, cy := float64(at(0, i)), float64(at(1, i))
		w, h := float64(at(2, i)), float64(at(3, i))
		out = append(out, candidate{
			rect: image.Rect(
				int((cx-w/2)*scaleX),
				int((cy-h/2)*scaleY),
				int((cx+w/2)*scaleX),
				int((cy+h/2)*scaleY),
			),
			score: score,
		})
	}
	return out
}

// toDetection обрезает рамку по кадру и превращает её в детекцию человека
func toDetection(r image.Rectangle, score float64, bounds image.Rectangle) (entity.Detection, bool) {
	r = r.Intersect(bounds)
	if r.Empty() {
		return entity.Detection{}, false
	}
	return entity.Detection{
		Class: entity.ClassPerson,
		Box: entity.BoundingBox{
			X1:         r.Min.X,
			Y1:         r.Min.Y,
			X2:         r.Max.X,
			Y2:         r.Max.Y,
			Confidence: min(max(score, 0), 1),
		},
	}, true
}
