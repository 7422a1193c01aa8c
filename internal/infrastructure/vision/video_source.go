//go:build gocv
// +build gocv

package vision

import (
	"context"
	"fmt"
	"image"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"zonewatch/internal/domain/entity"
	"zonewatch/internal/domain/port"
)

// VideoSource открывает видеофайлы через OpenCV
type VideoSource struct{}

func NewVideoSource() *VideoSource {
	return &VideoSource{}
}

// Open открывает файл и читает его параметры
func (s *VideoSource) Open(ctx context.Context, path string) (port.VideoHandle, error) {
	_ = ctx
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", entity.ErrSourceUnavailable, path, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: %s: cannot open video", entity.ErrSourceUnavailable, path)
	}

	info := entity.NewVideoInfo(
		int(capture.Get(gocv.VideoCaptureFrameWidth)),
		int(capture.Get(gocv.VideoCaptureFrameHeight)),
		capture.Get(gocv.VideoCaptureFPS),
		int(capture.Get(gocv.VideoCaptureFrameCount)),
	)

	return &videoHandle{capture: capture, mat: gocv.NewMat(), info: info}, nil
}

type videoHandle struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
	info    entity.VideoInfo
}

func (h *videoHandle) Info() entity.VideoInfo {
	return h.info
}

// Read возвращает следующий кадр; false в конце потока или при ошибке декодирования
func (h *videoHandle) Read() (image.Image, bool) {
	if ok := h.capture.Read(&h.mat); !ok || h.mat.Empty() {
		return nil, false
	}

	img, err := h.mat.ToImage()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to convert frame")
		return nil, false
	}
	return img, true
}

func (h *videoHandle) Close() error {
	if err := h.mat.Close(); err != nil {
		h.capture.Close()
		return err
	}
	return h.capture.Close()
}

var _ port.VideoSource = (*VideoSource)(nil)
