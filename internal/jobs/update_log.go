package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/garnizeh/crm/pkg/models"
	"github.com/garnizeh/crm/pkg/repository"
)

// TypeProjectUpdateLog writes one update_logs row for a project change.
const TypeProjectUpdateLog = "project.update_log"

// Enqueuer persists a job for later processing.
type Enqueuer interface {
	Enqueue(ctx context.Context, typ string, payload any, priority int, maxAttempts int) (int64, error)
}

// ChangeRecorder queues update-log entries for project changes. Failures are
// logged and swallowed so the originating request still succeeds.
type ChangeRecorder struct {
	q      Enqueuer
	logger *slog.Logger
	now    func() time.Time
}

func NewChangeRecorder(q Enqueuer, logger *slog.Logger) *ChangeRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChangeRecorder{q: q, logger: logger, now: time.Now}
}

// RecordProjectChange enqueues an update-log entry for projectID.
func (r *ChangeRecorder) RecordProjectChange(ctx context.Context, projectID int64, changeType, who, comment string) {
	entry := models.UpdateLog{
		ProjectID:         projectID,
		ChangeType:        changeType,
		ResponsiblePerson: who,
		Comment:           comment,
		Timestamp:         r.now().UTC(),
	}
	if _, err := r.q.Enqueue(ctx, TypeProjectUpdateLog, entry, 50, 5); err != nil {
		r.logger.Error("enqueue update log", "project_id", projectID, "change_type", changeType, "err", err)
	}
}

// UpdateLogHandler decodes the queued entry and stores it.
func UpdateLogHandler(repo repository.UpdateLogRepo) Handler {
	return func(ctx context.Context, j *Job) error {
		var entry models.UpdateLog
		if err := json.Unmarshal(j.Payload, &entry); err != nil {
			return fmt.Errorf("decode update log payload: %w", err)
		}
		if err := entry.Validate(); err != nil {
			return err
		}
		_, err := repo.CreateUpdateLog(ctx, &entry)
		return err
	}
}
