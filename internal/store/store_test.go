package store_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garnizeh/crm/internal/store"
	"github.com/garnizeh/crm/pkg/crmerr"
	"github.com/garnizeh/crm/pkg/models"
)

func tasks() []models.Task {
	return []models.Task{
		{ID: 1, ProjectID: 1, Description: "a", Status: models.StatusPending},
		{ID: 2, ProjectID: 1, Description: "b", Status: models.StatusInProgress},
		{ID: 3, ProjectID: 2, Description: "c", Status: models.StatusPending},
	}
}

func TestReplaceListGet(t *testing.T) {
	s := store.New[models.Task]("task")
	s.Replace(tasks())

	got := s.List(func(t models.Task) bool { return t.Status == models.StatusPending })
	require.Len(t, got, 2)
	assert.Equal(t, []int64{1, 3}, []int64{got[0].ID, got[1].ID})
	assert.Len(t, s.List(nil), 3)

	task, err := s.Get(2)
	require.NoError(t, err)
	assert.Equal(t, "b", task.Description)

	_, err = s.Get(99)
	assert.Equal(t, crmerr.KindNotFound, crmerr.KindOf(err))
}

func TestStageIsInvisibleUntilConfirmed(t *testing.T) {
	s := store.New[models.Task]("task")
	s.Replace(tasks())
	v := s.Version()

	candidate := tasks()[0]
	candidate.Status = models.StatusCompleted
	s.Stage(1, candidate)

	got, _ := s.Get(1)
	assert.Equal(t, models.StatusPending, got.Status)
	p, ok := s.Pending(1)
	require.True(t, ok)
	assert.Equal(t, models.StatusCompleted, p.Status)
	assert.Equal(t, v, s.Version())

	s.Confirm(candidate)
	got, _ = s.Get(1)
	assert.Equal(t, models.StatusCompleted, got.Status)
	_, ok = s.Pending(1)
	assert.False(t, ok)
	assert.Equal(t, v+1, s.Version())
}

func TestRollbackKeepsConfirmed(t *testing.T) {
	s := store.New[models.Task]("task")
	s.Replace(tasks())

	candidate := tasks()[1]
	candidate.Status = models.StatusCompleted
	s.Stage(2, candidate)
	s.Rollback(2)

	got, _ := s.Get(2)
	assert.Equal(t, models.StatusInProgress, got.Status)
	_, ok := s.Pending(2)
	assert.False(t, ok)
}

func TestConfirmAppendsAndRemoveReindexes(t *testing.T) {
	s := store.New[models.Task]("task")
	s.Replace(tasks())

	s.Confirm(models.Task{ID: 4, ProjectID: 2, Description: "d", Status: models.StatusPending})
	assert.Equal(t, 4, s.Len())

	s.Remove(2)
	s.Remove(42)
	ids := []int64{}
	for _, t := range s.List(nil) {
		ids = append(ids, t.ID)
	}
	assert.Equal(t, []int64{1, 3, 4}, ids)
	got, err := s.Get(4)
	require.NoError(t, err)
	assert.Equal(t, "d", got.Description)
}

func TestReplaceCopiesInput(t *testing.T) {
	in := tasks()
	s := store.New[models.Task]("task")
	s.Replace(in)
	in[0].Description = "mutated"
	got, _ := s.Get(1)
	assert.Equal(t, "a", got.Description)
}

func TestConcurrentAccess(t *testing.T) {
	s := store.New[models.Task]("task")
	s.Replace(tasks())
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Confirm(models.Task{ID: int64(i + 10), Status: models.StatusPending})
				_ = s.List(nil)
				_, _ = s.Get(1)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 11, s.Len())
}
