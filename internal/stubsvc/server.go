// Package stubsvc serves fake text, image, chart and diagram generation
// services over HTTP. The wire formats match what the genclient clients
// expect, so the real clients can be driven end to end without network
// access. Each service is mounted under its own path prefix on one mux.
package stubsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dusk-indust/deckenrich/internal/deck"
	"github.com/dusk-indust/deckenrich/internal/genclient"
	"go.uber.org/zap"
)

// Behavior shapes how one fake service responds.
type Behavior struct {
	// Latency delays every generate response.
	Latency time.Duration

	// StatusCode, when set, rejects every generate call with that HTTP status.
	StatusCode int

	// FailWith makes the service report a generation failure with this
	// reason: a failed job for chart and diagram, success=false for images
	// and a 500 for text.
	FailWith string

	// PollsToComplete is the number of status checks that still report
	// processing before a job finishes.
	PollsToComplete int

	// NeverComplete keeps jobs in the processing state forever.
	NeverComplete bool
}

// Endpoints are the base URLs to configure the clients with.
type Endpoints struct {
	Text    string
	Chart   string
	Image   string
	Diagram string
}

// EndpointsFor derives the per-service base URLs for a server rooted at root.
func EndpointsFor(root string) Endpoints {
	root = strings.TrimRight(root, "/")
	return Endpoints{
		Text:    root + "/text",
		Chart:   root + "/chart",
		Image:   root + "/image",
		Diagram: root + "/diagram",
	}
}

// Option configures a Server.
type Option func(*Server)

// WithBehavior sets the behavior of one service.
func WithBehavior(t deck.ServiceType, b Behavior) Option {
	return func(s *Server) { s.behaviors[t] = b }
}

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server is the fake service host.
type Server struct {
	mu        sync.RWMutex
	behaviors map[deck.ServiceType]Behavior
	jobs      *JobStore
	logger    *zap.Logger
	calls     map[deck.ServiceType]*atomic.Int64
}

// New creates a Server. Every service succeeds immediately unless
// configured otherwise.
func New(opts ...Option) *Server {
	s := &Server{
		behaviors: make(map[deck.ServiceType]Behavior),
		jobs:      NewJobStore(),
		logger:    zap.NewNop(),
		calls:     make(map[deck.ServiceType]*atomic.Int64),
	}
	for _, t := range []deck.ServiceType{deck.ServiceText, deck.ServiceChart, deck.ServiceImage, deck.ServiceDiagram} {
		s.calls[t] = new(atomic.Int64)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetBehavior replaces the behavior of one service at runtime.
func (s *Server) SetBehavior(t deck.ServiceType, b Behavior) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.behaviors[t] = b
}

func (s *Server) behavior(t deck.ServiceType) Behavior {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.behaviors[t]
}

// Calls returns the number of generate calls service t received.
func (s *Server) Calls(t deck.ServiceType) int {
	if c, ok := s.calls[t]; ok {
		return int(c.Load())
	}
	return 0
}

// Jobs exposes the job table.
func (s *Server) Jobs() *JobStore { return s.jobs }

// Handler returns the routes of all four services.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /text/api/v1/generate/text", s.handleText)
	mux.HandleFunc("POST /image/api/v2/generate", s.handleImage)
	mux.HandleFunc("POST /chart/generate", s.handleSubmit(deck.ServiceChart))
	mux.HandleFunc("GET /chart/status/{id}", s.handleStatus(deck.ServiceChart))
	mux.HandleFunc("POST /diagram/generate", s.handleSubmit(deck.ServiceDiagram))
	mux.HandleFunc("GET /diagram/status/{id}", s.handleStatus(deck.ServiceDiagram))
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully. ready, if non-nil, receives the bound address.
func (s *Server) ListenAndServe(ctx context.Context, addr string, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("stubsvc: listen %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if ready != nil {
		ready(ln.Addr())
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// begin counts the call, applies latency and any forced status code. It
// returns false when the response has already been written.
func (s *Server) begin(w http.ResponseWriter, r *http.Request, t deck.ServiceType, body any) (Behavior, bool) {
	s.calls[t].Add(1)
	b := s.behavior(t)

	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid JSON: " + err.Error()})
		return b, false
	}
	if b.Latency > 0 {
		select {
		case <-time.After(b.Latency):
		case <-r.Context().Done():
			return b, false
		}
	}
	if b.StatusCode != 0 {
		writeJSON(w, b.StatusCode, map[string]string{"detail": http.StatusText(b.StatusCode)})
		return b, false
	}
	return b, true
}

type textRequest struct {
	SlideID     string   `json:"slide_id"`
	Topics      []string `json:"topics"`
	Constraints struct {
		MaxCharacters *int `json:"max_characters"`
	} `json:"constraints"`
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	b, ok := s.begin(w, r, deck.ServiceText, &req)
	if !ok {
		return
	}
	if b.FailWith != "" {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": b.FailWith})
		return
	}

	limit := 0
	if req.Constraints.MaxCharacters != nil {
		limit = *req.Constraints.MaxCharacters
	}
	content := genclient.ExpandTopics(req.Topics, limit)
	s.logger.Debug("text generated", zap.String("slide_id", req.SlideID), zap.Int("chars", len([]rune(content))))
	writeJSON(w, http.StatusOK, map[string]any{
		"content": content,
		"metadata": map[string]any{
			"word_count": len(strings.Fields(content)),
			"model":      "stub",
		},
	})
}

type imageRequest struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio"`
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	b, ok := s.begin(w, r, deck.ServiceImage, &req)
	if !ok {
		return
	}
	if b.FailWith != "" {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": b.FailWith})
		return
	}

	id := NewJobID()
	base := "https://stub.local/images/" + id
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"image_id": id,
		"urls": map[string]string{
			"original":    base + "/original.png",
			"cropped":     base + "/cropped.png",
			"transparent": base + "/transparent.png",
		},
		"metadata": map[string]any{
			"model":               "stub",
			"target_aspect_ratio": req.AspectRatio,
			"generation_time_ms":  b.Latency.Milliseconds(),
		},
	})
}

type jobRequest struct {
	Content     string `json:"content"`
	ChartType   string `json:"chart_type"`
	DiagramType string `json:"diagram_type"`
	Theme       any    `json:"theme"`
}

func (s *Server) handleSubmit(t deck.ServiceType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req jobRequest
		if _, ok := s.begin(w, r, t, &req); !ok {
			return
		}

		job := Job{
			ID:        NewJobID(),
			Service:   t,
			State:     genclient.JobPending,
			Result:    jobResult(t, req),
			CreatedAt: time.Now(),
		}
		if err := s.jobs.Create(job); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": err.Error()})
			return
		}
		s.logger.Debug("job submitted", zap.String("service", string(t)), zap.String("job_id", job.ID))
		writeJSON(w, http.StatusOK, map[string]string{"job_id": job.ID})
	}
}

func jobResult(t deck.ServiceType, req jobRequest) map[string]any {
	if t == deck.ServiceChart {
		chartType := req.ChartType
		if chartType == "" {
			chartType = "bar"
		}
		data := genclient.SampleChartData(req.Content)
		points := 0
		if labels, ok := data["labels"].([]any); ok {
			points = len(labels)
		}
		return map[string]any{
			"chart_type": chartType,
			"chart_data": data,
			"theme":      "professional",
			"metadata": map[string]any{
				"generated_at": time.Now().UTC().Format(time.RFC3339),
				"data_points":  points,
			},
		}
	}

	diagramType := req.DiagramType
	if diagramType == "" {
		diagramType = "flowchart"
	}
	return map[string]any{
		"diagram_type":      diagramType,
		"generation_method": "stub",
		"metadata": map[string]any{
			"generation_time_ms": 0,
			"dimensions":         map[string]int{"width": 1200, "height": 800},
		},
	}
}

func (s *Server) handleStatus(t deck.ServiceType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		b := s.behavior(t)

		if j, err := s.jobs.Get(id); err != nil || j.Service != t {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": fmt.Sprintf("job %q not found", id)})
			return
		}
		job, err := s.jobs.Update(id, func(j *Job) {
			if j.State.IsTerminal() {
				return
			}
			j.Polls++
			switch {
			case b.NeverComplete:
				j.State = genclient.JobProcessing
			case j.Polls <= b.PollsToComplete:
				j.State = genclient.JobProcessing
			case b.FailWith != "":
				j.State = genclient.JobFailed
				j.Error = b.FailWith
			default:
				j.State = genclient.JobCompleted
			}
		})
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": err.Error()})
			return
		}

		resp := map[string]any{"job_id": job.ID, "status": job.State}
		switch job.State {
		case genclient.JobFailed:
			resp["error"] = job.Error
		case genclient.JobCompleted:
			for k, v := range job.Result {
				resp[k] = v
			}
			resp[string(t)+"_url"] = fmt.Sprintf("https://stub.local/%ss/%s.png", t, job.ID)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
