package stubsvc

import (
	"sync"
	"testing"

	"github.com/dusk-indust/deckenrich/internal/deck"
	"github.com/dusk-indust/deckenrich/internal/genclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStore_CreateGet(t *testing.T) {
	s := NewJobStore()
	require.NoError(t, s.Create(Job{ID: "j1", Service: deck.ServiceChart, Result: map[string]any{"k": "v"}}))

	got, err := s.Get("j1")
	require.NoError(t, err)
	assert.Equal(t, deck.ServiceChart, got.Service)

	got.Result["k"] = "mutated"
	again, err := s.Get("j1")
	require.NoError(t, err)
	assert.Equal(t, "v", again.Result["k"], "Get returns a copy")

	assert.Error(t, s.Create(Job{ID: "j1"}), "duplicate id")
	_, err = s.Get("missing")
	assert.Error(t, err)
}

func TestJobStore_Update(t *testing.T) {
	s := NewJobStore()
	require.NoError(t, s.Create(Job{ID: "j1", State: genclient.JobPending}))

	got, err := s.Update("j1", func(j *Job) {
		j.Polls++
		j.State = genclient.JobCompleted
	})
	require.NoError(t, err)
	assert.Equal(t, 1, got.Polls)
	assert.Equal(t, genclient.JobCompleted, got.State)

	_, err = s.Update("missing", func(*Job) {})
	assert.Error(t, err)
}

func TestJobStore_ListKeepsOrderAndFilters(t *testing.T) {
	s := NewJobStore()
	for _, j := range []Job{
		{ID: "a", Service: deck.ServiceChart},
		{ID: "b", Service: deck.ServiceDiagram},
		{ID: "c", Service: deck.ServiceChart},
	} {
		require.NoError(t, s.Create(j))
	}

	ids := func(jobs []Job) []string {
		out := make([]string, 0, len(jobs))
		for _, j := range jobs {
			out = append(out, j.ID)
		}
		return out
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids(s.List("")))
	assert.Equal(t, []string{"a", "c"}, ids(s.List(deck.ServiceChart)))
}

func TestJobStore_ConcurrentUpdates(t *testing.T) {
	s := NewJobStore()
	require.NoError(t, s.Create(Job{ID: "j"}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Update("j", func(j *Job) { j.Polls++ })
		}()
	}
	wg.Wait()

	got, err := s.Get("j")
	require.NoError(t, err)
	assert.Equal(t, 50, got.Polls)
}

func TestNewJobID_Unique(t *testing.T) {
	assert.NotEqual(t, NewJobID(), NewJobID())
	assert.Len(t, NewJobID(), 36)
}
