package worker

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	app "zonewatch/internal/application"
	"zonewatch/internal/domain/entity"
	"zonewatch/internal/infrastructure/messaging"
)

type fakeAnalyzer struct {
	mu   sync.Mutex
	reqs []app.AnalyzeRequest
	err  error
}

func (a *fakeAnalyzer) Analyze(ctx context.Context, req app.AnalyzeRequest) (*app.AnalysisOutput, error) {
	a.mu.Lock()
	a.reqs = append(a.reqs, req)
	a.mu.Unlock()

	result := &entity.ScanResult{State: entity.ScanCompleted}
	if a.err != nil {
		result.State = entity.ScanFailed
		result.Err = a.err
	}
	return &app.AnalysisOutput{ScanID: req.ScanID, Result: result}, a.err
}

func run(t *testing.T, analyzer Analyzer, payloads ...string) []string {
	t.Helper()

	messages := make(chan messaging.Message, len(payloads))
	verdicts := make([]string, len(payloads))
	var mu sync.Mutex
	mark := func(i int, v string) func() {
		return func() {
			mu.Lock()
			verdicts[i] = v
			mu.Unlock()
		}
	}
	for i, p := range payloads {
		messages <- messaging.Message{Value: []byte(p), Ack: mark(i, "ack"), Nack: mark(i, "nack")}
	}
	close(messages)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	New(analyzer, messages, time.Minute).ListenAndRun(ctx)

	mu.Lock()
	defer mu.Unlock()
	return verdicts
}

func TestWorker_RunsJobs(t *testing.T) {
	analyzer := &fakeAnalyzer{}

	acked := run(t, analyzer,
		`{"scan_id":"a","video_path":"/v/a.mp4"}`,
		`not json`,
		`{"video_path":"/v/b.mp4","zones":[{"id":"z","color":"#ffffff","points":[{"x":0,"y":0},{"x":1,"y":0},{"x":1,"y":1}]}]}`,
	)

	require.Equal(t, []string{"ack", "ack", "ack"}, acked)
	require.Len(t, analyzer.reqs, 2)
	require.Equal(t, "a", analyzer.reqs[0].ScanID)
	require.Equal(t, "/v/b.mp4", analyzer.reqs[1].VideoPath)
	require.Len(t, analyzer.reqs[1].Zones, 1)
}

func TestWorker_AckPolicy(t *testing.T) {
	acked := run(t, &fakeAnalyzer{err: fmt.Errorf("frame 3: %w", entity.ErrDetectorUnavailable)}, `{"video_path":"a.mp4"}`)
	require.Equal(t, []string{"nack"}, acked)

	acked = run(t, &fakeAnalyzer{err: entity.ErrSourceUnavailable}, `{"video_path":"a.mp4"}`)
	require.Equal(t, []string{"ack"}, acked)
}

func TestWorker_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		New(&fakeAnalyzer{}, make(chan messaging.Message), 0).ListenAndRun(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
