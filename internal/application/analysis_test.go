package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"zonewatch/internal/domain/entity"
	"zonewatch/internal/infrastructure/storage"
)

type recordingMetrics struct {
	modes   []entity.ScanMode
	results []*entity.ScanResult
}

func (m *recordingMetrics) ObserveScan(mode entity.ScanMode, result *entity.ScanResult) {
	m.modes = append(m.modes, mode)
	m.results = append(m.results, result)
}

// ctxCheckingRepository ведёт себя как драйвер БД: отказывает на отменённом контексте
type ctxCheckingRepository struct {
	*storage.MemoryScanRepository
}

func (r ctxCheckingRepository) Save(ctx context.Context, scanID, videoPath string, result *entity.ScanResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.MemoryScanRepository.Save(ctx, scanID, videoPath, result)
}

func newTestAnalysis(source *fakeSource, det *fakeDetector) (*AnalysisService, *storage.MemoryFrameSinks, *storage.MemoryScanRepository, *recordingMetrics) {
	scanner := newTestScanner(source, det, nil)
	sinks := storage.NewMemoryFrameSinks()
	reports := storage.NewMemoryScanRepository()
	metrics := &recordingMetrics{}

	svc := NewAnalysisService(scanner, source, sinks, reports, metrics)
	svc.newID = func() string { return "generated" }
	return svc, sinks, reports, metrics
}

func TestAnalysisService_Analyze(t *testing.T) {
	source := newFakeSource(320, 240, 30, 30)
	det := &fakeDetector{detections: []entity.Detection{person(10, 10, 50, 100, 0.8)}}
	svc, sinks, reports, metrics := newTestAnalysis(source, det)
	ctx := context.Background()

	out, err := svc.Analyze(ctx, AnalyzeRequest{VideoPath: "v.mp4"})
	require.NoError(t, err)
	require.Equal(t, "generated", out.ScanID)
	require.Equal(t, entity.ModeWholeFrame, out.Mode)
	require.Len(t, out.Result.Detections, 10)
	require.Equal(t, 10, sinks.Len())

	require.Equal(t, []entity.ScanMode{entity.ModeWholeFrame}, metrics.modes)

	saved, err := reports.Get(ctx, "generated")
	require.NoError(t, err)
	require.NotNil(t, saved)
	require.Equal(t, out.Result.Detections, saved.Detections)

	report, err := svc.Report(ctx, "generated")
	require.NoError(t, err)
	require.Equal(t, 10, report.FramesAnalyzed)

	frame, err := svc.Frame(ctx, "generated", out.Result.Detections[0].FrameID)
	require.NoError(t, err)
	require.Equal(t, []byte{0xFF, 0xD8}, frame[:2])

	_, err = svc.Frame(ctx, "generated", "missing")
	require.Error(t, err)
}

func TestAnalysisService_AnalyzeKeepsScanID(t *testing.T) {
	source := newFakeSource(320, 240, 30, 30)
	svc, _, _, _ := newTestAnalysis(source, &fakeDetector{})

	out, err := svc.Analyze(context.Background(), AnalyzeRequest{
		ScanID:    "job-7",
		VideoPath: "v.mp4",
		Zones:     []entity.Zone{leftHalfZone("l")},
	})
	require.NoError(t, err)
	require.Equal(t, "job-7", out.ScanID)
	require.Equal(t, entity.ModeZones, out.Mode)
	require.Empty(t, out.Result.Detections)
}

func TestAnalysisService_FailedScanIsReported(t *testing.T) {
	source := newFakeSource(320, 240, 30, 30)
	source.openErr = errors.New("broken container")
	svc, _, reports, metrics := newTestAnalysis(source, &fakeDetector{})
	ctx := context.Background()

	out, err := svc.Analyze(ctx, AnalyzeRequest{VideoPath: "v.mp4"})
	require.ErrorIs(t, err, entity.ErrSourceUnavailable)
	require.NotNil(t, out)
	require.True(t, out.Result.Failed())
	require.Len(t, metrics.results, 1)

	saved, err := reports.Get(ctx, "generated")
	require.NoError(t, err)
	require.Equal(t, entity.ScanFailed, saved.State)
}

func TestAnalysisService_MalformedZone(t *testing.T) {
	source := newFakeSource(320, 240, 30, 30)
	svc, _, _, metrics := newTestAnalysis(source, &fakeDetector{})

	out, err := svc.Analyze(context.Background(), AnalyzeRequest{
		VideoPath: "v.mp4",
		Zones:     []entity.Zone{{ID: "z", Color: "red", Points: []entity.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}}},
	})
	require.ErrorIs(t, err, entity.ErrMalformedZone)
	require.Nil(t, out)
	require.Empty(t, metrics.results)
}

func TestAnalysisService_Info(t *testing.T) {
	source := newFakeSource(1280, 720, 25, 250)
	svc, _, _, _ := newTestAnalysis(source, &fakeDetector{})

	info := svc.Info(context.Background(), "v.mp4")
	require.NotNil(t, info)
	require.Equal(t, 1280, info.Width)
	require.Equal(t, 720, info.Height)
	require.InDelta(t, 10.0, info.Duration, 1e-9)
	require.Equal(t, 1, source.Closed())

	source.openErr = errors.New("gone")
	require.Nil(t, svc.Info(context.Background(), "v.mp4"))
}

func TestAnalysisService_ReportUnknown(t *testing.T) {
	svc, _, _, _ := newTestAnalysis(newFakeSource(10, 10, 1, 1), &fakeDetector{})

	report, err := svc.Report(context.Background(), "nope")
	require.NoError(t, err)
	require.Nil(t, report)
}

func TestAnalysisService_NoStorage(t *testing.T) {
	source := newFakeSource(320, 240, 30, 30)
	svc := NewAnalysisService(newTestScanner(source, &fakeDetector{}, nil), source, nil, nil, nil)

	out, err := svc.Analyze(context.Background(), AnalyzeRequest{VideoPath: "v.mp4"})
	require.NoError(t, err)
	require.NotEmpty(t, out.ScanID)
	require.Less(t, out.Result.ProcessingTime, time.Minute)

	_, err = svc.Report(context.Background(), out.ScanID)
	require.Error(t, err)
	_, err = svc.Frame(context.Background(), out.ScanID, "0_0")
	require.Error(t, err)
}

func TestAnalysisService_CancelledScanReportIsSaved(t *testing.T) {
	source := newFakeSource(320, 240, 30, 30)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scanner := NewScanner(source, &cancellingDetector{cancel: cancel, after: 3}, nil, nil, DefaultScannerConfig())
	reports := ctxCheckingRepository{storage.NewMemoryScanRepository()}
	svc := NewAnalysisService(scanner, source, nil, reports, nil)
	svc.newID = func() string { return "interrupted" }

	out, err := svc.Analyze(ctx, AnalyzeRequest{VideoPath: "v.mp4"})
	require.ErrorIs(t, err, context.Canceled)
	require.True(t, out.Result.Failed())

	saved, err := svc.Report(context.Background(), "interrupted")
	require.NoError(t, err)
	require.NotNil(t, saved)
	require.Equal(t, entity.ScanFailed, saved.State)
	require.Len(t, saved.Detections, 3)
}

func TestAnalysisService_RejectsUnsafeScanID(t *testing.T) {
	source := newFakeSource(320, 240, 30, 30)
	svc, sinks, _, _ := newTestAnalysis(source, &fakeDetector{})

	out, err := svc.Analyze(context.Background(), AnalyzeRequest{ScanID: "..", VideoPath: "v.mp4"})
	require.ErrorIs(t, err, entity.ErrInvalidScanID)
	require.Nil(t, out)
	require.Zero(t, source.Opened())
	require.Zero(t, sinks.Len())

	_, err = svc.Frame(context.Background(), "../other", "1_0")
	require.ErrorIs(t, err, entity.ErrInvalidScanID)
}
