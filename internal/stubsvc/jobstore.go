package stubsvc

import (
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/dusk-indust/deckenrich/internal/deck"
	"github.com/dusk-indust/deckenrich/internal/genclient"
	"github.com/google/uuid"
)

// Job is one submitted chart or diagram job.
type Job struct {
	ID        string
	Service   deck.ServiceType
	State     genclient.JobState
	Polls     int
	Result    map[string]any
	Error     string
	CreatedAt time.Time
}

// JobStore is a concurrency-safe in-memory job table. A separate slice keeps
// insertion order for List.
type JobStore struct {
	mu    sync.RWMutex
	jobs  map[string]*Job
	order []string
}

// NewJobStore returns an empty JobStore.
func NewJobStore() *JobStore {
	return &JobStore{
		jobs:  make(map[string]*Job),
		order: make([]string, 0),
	}
}

// NewJobID returns a random job id.
func NewJobID() string {
	return uuid.NewString()
}

// Create stores job. Ids must be unique.
func (s *JobStore) Create(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("job %q already exists", job.ID)
	}
	job.Result = maps.Clone(job.Result)
	s.jobs[job.ID] = &job
	s.order = append(s.order, job.ID)
	return nil
}

// Get returns a copy of the job with the given id.
func (s *JobStore) Get(id string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("job %q not found", id)
	}
	return copyJob(j), nil
}

// Update applies fn to the stored job under the write lock and returns a
// copy of the result.
func (s *JobStore) Update(id string, fn func(*Job)) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("job %q not found", id)
	}
	fn(j)
	return copyJob(j), nil
}

// List returns every job in submission order, optionally filtered by
// service. An empty service matches all jobs.
func (s *JobStore) List(service deck.ServiceType) []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Job, 0, len(s.order))
	for _, id := range s.order {
		j := s.jobs[id]
		if service != "" && j.Service != service {
			continue
		}
		out = append(out, copyJob(j))
	}
	return out
}

func copyJob(j *Job) Job {
	dst := *j
	dst.Result = maps.Clone(j.Result)
	return dst
}
