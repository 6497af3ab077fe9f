package sqlite

import (
	"context"
	"fmt"

	"github.com/garnizeh/crm/pkg/models"
)

func (r *SQLiteRepo) CreateUpdateLog(ctx context.Context, l *models.UpdateLog) (int64, error) {
	if l == nil {
		return 0, fmt.Errorf("update log is nil")
	}

	ts := l.Timestamp
	if ts.IsZero() {
		ts = fromMillis(now())
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO update_logs (project_id, change_type, responsible_person, comment, timestamp) VALUES (?, ?, ?, ?, ?)`, l.ProjectID, l.ChangeType, l.ResponsiblePerson, l.Comment, ts.UTC().UnixMilli())
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

// ListUpdateLogsByProject returns the newest entries first.
func (r *SQLiteRepo) ListUpdateLogsByProject(ctx context.Context, projectID int64) ([]models.UpdateLog, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT id, project_id, change_type, responsible_person, comment, timestamp FROM update_logs WHERE project_id = ? ORDER BY timestamp DESC, id DESC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.UpdateLog
	for rows.Next() {
		var l models.UpdateLog
		var ts int64
		if err := rows.Scan(&l.ID, &l.ProjectID, &l.ChangeType, &l.ResponsiblePerson, &l.Comment, &ts); err != nil {
			return nil, err
		}
		l.Timestamp = fromMillis(ts)
		out = append(out, l)
	}

	return out, rows.Err()
}
