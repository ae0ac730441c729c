package genclient

import (
	"context"
	"fmt"
	"time"

	"github.com/dusk-indust/deckenrich/internal/metrics"
	"go.uber.org/zap"
)

// JobState is the status a job service reports for a job.
type JobState string

const (
	JobPending    JobState = "pending"
	JobProcessing JobState = "processing"
	JobCompleted  JobState = "completed"
	JobFailed     JobState = "failed"
)

// IsTerminal returns true if the job will not change state again.
func (s JobState) IsTerminal() bool {
	return s == JobCompleted || s == JobFailed
}

type submitResponse struct {
	JobID string `json:"job_id"`
}

type statusResponse struct {
	Status JobState `json:"status"`
	Error  string   `json:"error"`
}

// JobPoller submits a job and polls its status endpoint.
type JobPoller struct {
	t       *transport
	logger  *zap.Logger
	metrics *metrics.Metrics
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewJobPoller creates a JobPoller for cfg.
func NewJobPoller(cfg ServiceConfig, opts ...Option) *JobPoller {
	o := buildOptions(opts)
	cfg = cfg.withDefaults()
	return &JobPoller{
		t:       &transport{cfg: cfg, http: o.http},
		logger:  o.logger.With(zap.String("service", cfg.Name)),
		metrics: o.metrics,
		sleep:   sleepCtx,
	}
}

// Config returns the effective service configuration.
func (p *JobPoller) Config() ServiceConfig { return p.t.cfg }

// Run submits body and blocks until the job completes, returning the raw
// completed status body. Submission is not retried.
func (p *JobPoller) Run(ctx context.Context, body any) ([]byte, error) {
	jobID, err := p.submit(ctx, body)
	if err != nil {
		return nil, err
	}
	p.logger.Info("job submitted", zap.String("job_id", jobID))
	return p.poll(ctx, jobID)
}

func (p *JobPoller) submit(ctx context.Context, body any) (string, error) {
	raw, err := p.t.postJSON(ctx, "submit", p.t.cfg.GeneratePath, p.t.cfg.SubmitTimeout, body)
	if err != nil {
		p.logger.Warn("job submission failed", zap.Error(err))
		return "", err
	}
	var resp submitResponse
	if err := decode(p.t.cfg.Name, raw, &resp); err != nil {
		return "", err
	}
	if resp.JobID == "" {
		return "", fmt.Errorf("%w: %s: %s", ErrMissingJobID, p.t.cfg.Name, truncate(raw))
	}
	return resp.JobID, nil
}

func (p *JobPoller) poll(ctx context.Context, jobID string) ([]byte, error) {
	cfg := p.t.cfg
	maxAttempts := cfg.MaxAttempts()
	log := p.logger.With(zap.String("job_id", jobID))

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := p.sleep(ctx, cfg.PollInterval); err != nil {
			return nil, fmt.Errorf("genclient: %s job %s: %w", cfg.Name, jobID, err)
		}
		p.metrics.PollAttempt(cfg.Name)

		raw, err := p.t.getJSON(ctx, "status", cfg.StatusPath+"/"+jobID, cfg.StatusTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("genclient: %s job %s: %w", cfg.Name, jobID, ctx.Err())
			}
			lastErr = err
			log.Warn("status check failed", zap.Int("attempt", attempt), zap.Error(err))
			continue
		}

		var st statusResponse
		if err := decode(cfg.Name, raw, &st); err != nil {
			lastErr = err
			log.Warn("status response unreadable", zap.Int("attempt", attempt), zap.Error(err))
			continue
		}

		switch st.Status {
		case JobCompleted:
			log.Info("job completed", zap.Int("attempt", attempt))
			return raw, nil
		case JobFailed:
			reason := st.Error
			if reason == "" {
				reason = "unknown error"
			}
			log.Warn("job failed", zap.String("reason", reason))
			return nil, &JobFailedError{Service: cfg.Name, JobID: jobID, Reason: reason}
		case JobPending, JobProcessing:
			log.Debug("job still running",
				zap.String("status", string(st.Status)),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", maxAttempts))
		default:
			log.Warn("job reported unknown status", zap.String("status", string(st.Status)))
		}
	}

	return nil, &PollTimeoutError{
		Service:  cfg.Name,
		JobID:    jobID,
		Attempts: maxAttempts,
		Timeout:  cfg.Timeout,
		LastErr:  lastErr,
	}
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
