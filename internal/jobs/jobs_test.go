package jobs_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"

	dbfs "github.com/garnizeh/crm/db"
	"github.com/garnizeh/crm/internal/db"
	"github.com/garnizeh/crm/internal/jobs"
	"github.com/garnizeh/crm/internal/repository/sqlite"
	"github.com/garnizeh/crm/pkg/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func setup(t *testing.T) (*db.DB, *jobs.Repository) {
	t.Helper()
	ctx := context.Background()
	d, err := db.New(ctx, "file:"+filepath.Join(t.TempDir(), "jobs.db"), nil)
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	if err := db.Migrate(ctx, d, dbfs.Migrations); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return d, jobs.NewRepository(d)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func fastOptions() jobs.Options {
	return jobs.Options{Workers: 1, PollInterval: 10 * time.Millisecond, BaseBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
}

func TestEnqueueAndProcess(t *testing.T) {
	ctx := context.Background()
	_, repo := setup(t)

	handled := make(chan struct{}, 1)
	handlers := map[string]jobs.Handler{
		"test": func(ctx context.Context, j *jobs.Job) error {
			handled <- struct{}{}
			return nil
		},
	}
	pool := jobs.NewWorkerPool(repo, handlers, quietLogger(), fastOptions())
	pool.Start(ctx)
	defer pool.Stop()

	id, err := pool.Enqueue(ctx, "test", map[string]string{"foo": "bar"}, 10, 3)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	select {
	case <-handled:
	case <-time.After(3 * time.Second):
		t.Fatalf("handler was not called")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		j, err := repo.Get(ctx, id)
		if err != nil {
			t.Fatalf("get job: %v", err)
		}
		if j.Status == jobs.StatusDone {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job not marked done, status %q", j.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestFailingJobMovesToDeadLetter(t *testing.T) {
	ctx := context.Background()
	_, repo := setup(t)

	calls := make(chan struct{}, 10)
	handlers := map[string]jobs.Handler{
		"flaky": func(ctx context.Context, j *jobs.Job) error {
			calls <- struct{}{}
			return errors.New("boom")
		},
	}
	pool := jobs.NewWorkerPool(repo, handlers, quietLogger(), fastOptions())
	pool.Start(ctx)
	defer pool.Stop()

	if _, err := pool.Enqueue(ctx, "flaky", nil, 1, 2); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := pool.Enqueue(ctx, "unknown", nil, 1, 2); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		flaky, err := repo.CountDeadLetters(ctx, "flaky")
		if err != nil {
			t.Fatalf("count dead letters: %v", err)
		}
		unknown, err := repo.CountDeadLetters(ctx, "unknown")
		if err != nil {
			t.Fatalf("count dead letters: %v", err)
		}
		if flaky == 1 && unknown == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected both jobs dead-lettered, got flaky=%d unknown=%d", flaky, unknown)
		}
		time.Sleep(20 * time.Millisecond)
	}
	if len(calls) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(calls))
	}
}

func TestChangeRecorderWritesUpdateLog(t *testing.T) {
	ctx := context.Background()
	d, repo := setup(t)
	store := sqlite.New(d, quietLogger())

	cid, err := store.CreateCustomer(ctx, &models.Customer{Name: "Acme", Email: "a@acme.test"})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	pid, err := store.CreateProject(ctx, &models.Project{CustomerID: cid, Name: "Rollout", Phase: models.PhasePlanning})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}

	pool := jobs.NewWorkerPool(repo, map[string]jobs.Handler{
		jobs.TypeProjectUpdateLog: jobs.UpdateLogHandler(store),
	}, quietLogger(), fastOptions())
	pool.Start(ctx)
	defer pool.Stop()

	rec := jobs.NewChangeRecorder(pool, quietLogger())
	rec.RecordProjectChange(ctx, pid, "phase", "pm@crm.test", "Planning -> Development")

	deadline := time.Now().Add(3 * time.Second)
	for {
		logs, err := store.ListUpdateLogsByProject(ctx, pid)
		if err != nil {
			t.Fatalf("list logs: %v", err)
		}
		if len(logs) == 1 {
			if logs[0].ChangeType != "phase" || logs[0].Comment != "Planning -> Development" {
				t.Fatalf("unexpected log: %#v", logs[0])
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("update log not written")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestBackoffDuration(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{3, 8 * time.Second},
		{20, 5 * time.Minute},
		{100, 5 * time.Minute},
	}
	for _, c := range cases {
		if got := jobs.BackoffDuration(c.attempt); got != c.want {
			t.Fatalf("BackoffDuration(%d) = %s want %s", c.attempt, got, c.want)
		}
	}
}
