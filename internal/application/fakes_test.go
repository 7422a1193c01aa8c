package app

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"time"

	"zonewatch/internal/domain/entity"
	"zonewatch/internal/domain/port"
)

type fakeSource struct {
	info    entity.VideoInfo
	frames  int
	openErr error

	mu     sync.Mutex
	opened int
	closed int
}

func newFakeSource(width, height int, fps float64, frames int) *fakeSource {
	return &fakeSource{info: entity.NewVideoInfo(width, height, fps, frames), frames: frames}
}

func (s *fakeSource) Open(ctx context.Context, path string) (port.VideoHandle, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	s.mu.Lock()
	s.opened++
	s.mu.Unlock()

	frame := image.NewRGBA(image.Rect(0, 0, s.info.Width, s.info.Height))
	for i := range frame.Pix {
		frame.Pix[i] = 90
	}
	return &fakeHandle{source: s, frame: frame}, nil
}

func (s *fakeSource) Opened() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened
}

func (s *fakeSource) Closed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeHandle struct {
	source *fakeSource
	frame  image.Image
	read   int
}

func (h *fakeHandle) Info() entity.VideoInfo { return h.source.info }

func (h *fakeHandle) Read() (image.Image, bool) {
	if h.read >= h.source.frames {
		return nil, false
	}
	h.read++
	return h.frame, true
}

func (h *fakeHandle) Close() error {
	h.source.mu.Lock()
	h.source.closed++
	h.source.mu.Unlock()
	return nil
}

// fakeDetector возвращает одни и те же детекции; после failAfter вызовов ошибку
type fakeDetector struct {
	detections []entity.Detection
	failAfter  int
	calls      int
}

func (d *fakeDetector) Detect(ctx context.Context, frame image.Image) ([]entity.Detection, error) {
	d.calls++
	if d.failAfter > 0 && d.calls > d.failAfter {
		return nil, errors.New("model crashed")
	}
	return d.detections, nil
}

func (d *fakeDetector) Close() error { return nil }

func person(x1, y1, x2, y2 int, conf float64) entity.Detection {
	return entity.Detection{
		Class: entity.ClassPerson,
		Box:   entity.BoundingBox{X1: x1, Y1: y1, X2: x2, Y2: y2, Confidence: conf},
	}
}

type recordingSink struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (s *recordingSink) Store(ctx context.Context, id string, img image.Image) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	s.ids = append(s.ids, id)
	s.mu.Unlock()
	return nil
}

func (s *recordingSink) Load(ctx context.Context, id string) ([]byte, error) {
	return nil, errors.New("not implemented")
}

type recordingProgress struct {
	mu       sync.Mutex
	progress []entity.ScanProgress
}

func (p *recordingProgress) Observe(pr entity.ScanProgress) {
	p.mu.Lock()
	p.progress = append(p.progress, pr)
	p.mu.Unlock()
}

type countingAnnotator struct {
	calls int
}

func (a *countingAnnotator) Annotate(frame image.Image, ann port.Annotation) (image.Image, error) {
	a.calls++
	out := image.NewRGBA(frame.Bounds())
	out.Set(0, 0, color.White)
	return out, nil
}

// steppingClock каждый вызов сдвигает время на step
func steppingClock(step time.Duration) func() time.Time {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		now := t
		t = t.Add(step)
		return now
	}
}

func leftHalfZone(id string) entity.Zone {
	return entity.Zone{
		ID:     id,
		Color:  "#00ff00",
		Points: []entity.Point{{X: 0, Y: 0}, {X: 0.5, Y: 0}, {X: 0.5, Y: 1}, {X: 0, Y: 1}},
	}
}
