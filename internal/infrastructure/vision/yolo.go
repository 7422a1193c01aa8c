//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"zonewatch/internal/domain/entity"
)

// YOLODetector детектор людей на YOLOv8 в формате ONNX (OpenCV DNN)
type YOLODetector struct {
	net  gocv.Net
	opts Options
}

// NewYOLODetector загружает модель
func NewYOLODetector(opts Options) (*YOLODetector, error) {
	opts = opts.withDefaults()

	net := gocv.ReadNetFromONNX(opts.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("%w: cannot load model %s", entity.ErrDetectorUnavailable, opts.ModelPath)
	}
	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, err
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, err
	}

	return &YOLODetector{net: net, opts: opts}, nil
}

// Detect прогоняет кадр через сеть и возвращает людей после NMS
func (d *YOLODetector) Detect(ctx context.Context, frame image.Image) ([]entity.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if frame == nil || frame.Bounds().Empty() {
		return nil, errors.New("empty frame")
	}

	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	defer mat.Close()

	size := d.opts.InputSize
	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(size, size), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	defer out.Close()

	dims := out.Size()
	if len(dims) != 3 || dims[1] != yoloFeatures {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}
	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}

	bounds := frame.Bounds()
	scaleX := float64(bounds.Dx()) / float64(size)
	scaleY := float64(bounds.Dy()) / float64(size)
	candidates := decodeYOLO(data, dims[2], scaleX, scaleY, float32(d.opts.MinScore))
	if len(candidates) == 0 {
		return nil, nil
	}

	rects := make([]image.Rectangle, len(candidates))
	scores := make([]float32, len(candidates))
	for i, c := range candidates {
		rects[i] = c.rect
		scores[i] = c.score
	}

	keep := gocv.NMSBoxes(rects, scores, float32(d.opts.MinScore), float32(d.opts.NMSThreshold))
	detections := make([]entity.Detection, 0, len(keep))
	for _, idx := range keep {
		if det, ok := toDetection(rects[idx], float64(scores[idx]), bounds); ok {
			detections = append(detections, det)
		}
	}
	return detections, nil
}

func (d *YOLODetector) Close() error {
	return d.net.Close()
}

// HOGDetector детектор людей OpenCV по умолчанию, уверенность не оценивает
type HOGDetector struct {
	hog gocv.HOGDescriptor
}

func NewHOGDetector() (*HOGDetector, error) {
	hog := gocv.NewHOGDescriptor()
	people := gocv.HOGDefaultPeopleDetector()
	defer people.Close()

	if err := hog.SetSVMDetector(people); err != nil {
		hog.Close()
		return nil, fmt.Errorf("%w: %v", entity.ErrDetectorUnavailable, err)
	}
	return &HOGDetector{hog: hog}, nil
}

func (d *HOGDetector) Detect(ctx context.Context, frame image.Image) ([]entity.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if frame == nil || frame.Bounds().Empty() {
		return nil, errors.New("empty frame")
	}

	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	defer mat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	bounds := frame.Bounds()
	var detections []entity.Detection
	for _, r := range d.hog.DetectMultiScale(gray) {
		if det, ok := toDetection(r.Add(bounds.Min), 1.0, bounds); ok {
			detections = append(detections, det)
		}
	}
	return detections, nil
}

func (d *HOGDetector) Close() error {
	return d.hog.Close()
}
