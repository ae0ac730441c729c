package genclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dusk-indust/deckenrich/internal/deck"
	"github.com/dusk-indust/deckenrich/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// jobServer fakes a job-polling service. statusFn is called with the
// 1-based poll number and returns the status document.
type jobServer struct {
	t        *testing.T
	jobID    string
	polls    atomic.Int32
	submit   func(body map[string]any) (int, any)
	statusFn func(n int) (int, any)
}

func (s *jobServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/generate":
		var body map[string]any
		require.NoError(s.t, json.NewDecoder(r.Body).Decode(&body))
		code, resp := http.StatusOK, any(map[string]any{"job_id": s.jobID})
		if s.submit != nil {
			code, resp = s.submit(body)
		}
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/status/"):
		assert.Equal(s.t, "/status/"+s.jobID, r.URL.Path)
		code, resp := s.statusFn(int(s.polls.Add(1)))
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	default:
		http.NotFound(w, r)
	}
}

func fastConfig(url string) ServiceConfig {
	return ServiceConfig{
		BaseURL:      url,
		Timeout:      100 * time.Millisecond,
		PollInterval: 10 * time.Millisecond,
	}
}

func chartRequest() deck.ChartRequest {
	return deck.ChartRequest{
		SlideRef:   deck.SlideRef{SlideID: "slide_003", SlideNumber: 3},
		Goal:       "show growth",
		Content:    "Q3 revenue trend",
		ChartType:  "line",
		SlideTitle: "Revenue",
	}
}

func TestChartClient_CompletesAfterPolling(t *testing.T) {
	srv := &jobServer{t: t, jobID: "job-42"}
	srv.submit = func(body map[string]any) (int, any) {
		assert.Equal(t, "Q3 revenue trend", body["content"])
		assert.Equal(t, "Revenue", body["title"])
		assert.Equal(t, "line", body["chart_type"])
		assert.Equal(t, ChartTheme, body["theme"])
		return http.StatusOK, map[string]any{"job_id": "job-42"}
	}
	srv.statusFn = func(n int) (int, any) {
		switch n {
		case 1:
			return http.StatusOK, map[string]any{"status": "pending"}
		case 2:
			return http.StatusOK, map[string]any{"status": "processing"}
		}
		return http.StatusOK, map[string]any{
			"status":     "completed",
			"chart_url":  "https://charts/42.png",
			"chart_type": "line",
			"chart_data": map[string]any{"labels": []any{"Q1"}},
			"theme":      "professional",
			"metadata":   map[string]any{"generated_at": "2025-01-01T00:00:00Z", "data_points": 4},
		}
	}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	c := NewChartClient(fastConfig(ts.URL), WithLogger(zaptest.NewLogger(t)), WithMetrics(m))

	got, err := c.Generate(context.Background(), chartRequest())
	require.NoError(t, err)
	assert.Equal(t, "line", got.Type)
	assert.Equal(t, "https://charts/42.png", got.URL)
	assert.Equal(t, []any{"Q1"}, got.Data["labels"])
	assert.Equal(t, "analytics_service_v3", got.Metadata["source"])
	assert.Equal(t, 4, got.Metadata["data_points"])
	assert.Equal(t, int32(3), srv.polls.Load())
	assert.Equal(t, 3.0, testutil.ToFloat64(m.PollAttempts.WithLabelValues("chart")))
}

func TestChartClient_JobFailed(t *testing.T) {
	srv := &jobServer{t: t, jobID: "job-f"}
	srv.statusFn = func(int) (int, any) {
		return http.StatusOK, map[string]any{"status": "failed", "error": "no data found"}
	}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	_, err := NewChartClient(fastConfig(ts.URL)).Generate(context.Background(), chartRequest())
	var jobErr *JobFailedError
	require.True(t, errors.As(err, &jobErr))
	assert.Equal(t, "job-f", jobErr.JobID)
	assert.Equal(t, "no data found", jobErr.Reason)
	assert.Equal(t, int32(1), srv.polls.Load())
}

func TestChartClient_PollTimeout(t *testing.T) {
	srv := &jobServer{t: t, jobID: "job-slow"}
	srv.statusFn = func(int) (int, any) {
		return http.StatusOK, map[string]any{"status": "processing"}
	}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	cfg := fastConfig(ts.URL)
	_, err := NewChartClient(cfg).Generate(context.Background(), chartRequest())
	require.ErrorIs(t, err, ErrPollTimeout)

	var pt *PollTimeoutError
	require.True(t, errors.As(err, &pt))
	assert.Equal(t, cfg.MaxAttempts(), pt.Attempts)
	assert.Equal(t, int32(cfg.MaxAttempts()), srv.polls.Load())
}

func TestChartClient_UnknownStatusKeepsPolling(t *testing.T) {
	srv := &jobServer{t: t, jobID: "job-u"}
	srv.statusFn = func(n int) (int, any) {
		if n == 1 {
			return http.StatusOK, map[string]any{"status": "queued"}
		}
		return http.StatusOK, map[string]any{"status": "completed", "chart_url": "u"}
	}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	got, err := NewChartClient(fastConfig(ts.URL)).Generate(context.Background(), chartRequest())
	require.NoError(t, err)
	assert.Equal(t, "u", got.URL)
	assert.Equal(t, "line", got.Type, "falls back to the requested chart type")
	assert.NotNil(t, got.Data)
}

func TestChartClient_TransientStatusErrorCountsAsAttempt(t *testing.T) {
	srv := &jobServer{t: t, jobID: "job-t"}
	srv.statusFn = func(n int) (int, any) {
		if n == 1 {
			return http.StatusServiceUnavailable, map[string]any{"detail": "busy"}
		}
		return http.StatusOK, map[string]any{"status": "completed", "chart_url": "u"}
	}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	_, err := NewChartClient(fastConfig(ts.URL)).Generate(context.Background(), chartRequest())
	require.NoError(t, err)
	assert.Equal(t, int32(2), srv.polls.Load())
}

func TestChartClient_MissingJobID(t *testing.T) {
	srv := &jobServer{t: t}
	srv.submit = func(map[string]any) (int, any) {
		return http.StatusOK, map[string]any{"message": "accepted"}
	}
	srv.statusFn = func(int) (int, any) {
		assert.Fail(t, "status must not be polled without a job id")
		return http.StatusNotFound, nil
	}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	_, err := NewChartClient(fastConfig(ts.URL)).Generate(context.Background(), chartRequest())
	assert.ErrorIs(t, err, ErrMissingJobID)
}

func TestChartClient_SubmitErrorNotRetried(t *testing.T) {
	var submits atomic.Int32
	srv := &jobServer{t: t}
	srv.submit = func(map[string]any) (int, any) {
		submits.Add(1)
		return http.StatusInternalServerError, map[string]any{"detail": "kaput"}
	}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	_, err := NewChartClient(fastConfig(ts.URL)).Generate(context.Background(), chartRequest())
	var httpErr *HTTPStatusError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, "submit", httpErr.Op)
	assert.Equal(t, int32(1), submits.Load())
}

func TestJobPoller_ContextCancelStopsPolling(t *testing.T) {
	srv := &jobServer{t: t, jobID: "job-c"}
	srv.statusFn = func(int) (int, any) {
		return http.StatusOK, map[string]any{"status": "pending"}
	}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	cfg := ServiceConfig{BaseURL: ts.URL, GeneratePath: "/generate", Timeout: time.Minute, PollInterval: 10 * time.Millisecond}
	p := NewJobPoller(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := p.Run(ctx, map[string]any{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestDiagramClient_Generate(t *testing.T) {
	srv := &jobServer{t: t, jobID: "d-1"}
	srv.submit = func(body map[string]any) (int, any) {
		assert.Equal(t, "approval workflow", body["content"])
		assert.Equal(t, "process", body["diagram_type"])
		theme := body["theme"].(map[string]any)
		assert.Equal(t, "#3B82F6", theme["primaryColor"])
		assert.Equal(t, "modern", theme["style"])
		return http.StatusOK, map[string]any{"job_id": "d-1"}
	}
	srv.statusFn = func(int) (int, any) {
		return http.StatusOK, map[string]any{
			"status":            "completed",
			"diagram_url":       "https://diagrams/d-1.svg",
			"diagram_type":      "process",
			"generation_method": "mermaid",
			"metadata":          map[string]any{"generation_time_ms": 1200},
		}
	}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	got, err := NewDiagramClient(fastConfig(ts.URL)).Generate(context.Background(), deck.DiagramRequest{
		SlideRef:    deck.SlideRef{SlideID: "s5", SlideNumber: 5},
		Content:     "approval workflow",
		DiagramType: "process",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://diagrams/d-1.svg", got.URL)
	assert.Equal(t, "process", got.Type)
	assert.Equal(t, "mermaid", got.Metadata["generation_method"])
	assert.Equal(t, "diagram_service", got.Metadata["source"])
}

func TestJobState_IsTerminal(t *testing.T) {
	assert.True(t, JobCompleted.IsTerminal())
	assert.True(t, JobFailed.IsTerminal())
	assert.False(t, JobPending.IsTerminal())
	assert.False(t, JobProcessing.IsTerminal())
}
