//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"image"

	"zonewatch/internal/domain/entity"
	"zonewatch/internal/domain/port"
)

var errNoGoCV = errors.New("gocv build tag is not enabled")

// VideoSource заглушка без OpenCV
type VideoSource struct{}

func NewVideoSource() *VideoSource {
	return &VideoSource{}
}

// Open возвращает ошибку, если сборка без тега gocv.
func (s *VideoSource) Open(ctx context.Context, path string) (port.VideoHandle, error) {
	_ = ctx
	return nil, fmt.Errorf("%w: %s: %v", entity.ErrSourceUnavailable, path, errNoGoCV)
}

// YOLODetector заглушка без OpenCV
type YOLODetector struct{}

// NewYOLODetector возвращает ошибку, если сборка без тега gocv.
func NewYOLODetector(opts Options) (*YOLODetector, error) {
	_ = opts
	return nil, fmt.Errorf("%w: %v", entity.ErrDetectorUnavailable, errNoGoCV)
}

func (d *YOLODetector) Detect(ctx context.Context, frame image.Image) ([]entity.Detection, error) {
	return nil, errNoGoCV
}

func (d *YOLODetector) Close() error { return nil }

// HOGDetector заглушка без OpenCV
type HOGDetector struct{}

// NewHOGDetector возвращает ошибку, если сборка без тега gocv.
func NewHOGDetector() (*HOGDetector, error) {
	return nil, fmt.Errorf("%w: %v", entity.ErrDetectorUnavailable, errNoGoCV)
}

func (d *HOGDetector) Detect(ctx context.Context, frame image.Image) ([]entity.Detection, error) {
	return nil, errNoGoCV
}

func (d *HOGDetector) Close() error { return nil }

var _ port.VideoSource = (*VideoSource)(nil)
