package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/crm/pkg/models"
)

const taskColumns = `id, project_id, description, due_date, assigned_to, status`

func (r *SQLiteRepo) CreateTask(ctx context.Context, t *models.Task) (int64, error) {
	if t == nil {
		return 0, fmt.Errorf("task is nil")
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO tasks (project_id, description, due_date, assigned_to, status) VALUES (?, ?, ?, ?, ?)`, t.ProjectID, t.Description, t.DueDate, nullID(t.AssignedTo), string(t.Status))
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	return scanTask(row)
}

func (r *SQLiteRepo) ListTasksByProject(ctx context.Context, projectID int64) ([]models.Task, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT `+taskColumns+` FROM tasks WHERE project_id = ? ORDER BY due_date, id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) UpdateTask(ctx context.Context, t *models.Task) error {
	if t == nil {
		return fmt.Errorf("task is nil")
	}

	_, err := r.conn.Exec(ctx, `UPDATE tasks SET description = ?, due_date = ?, assigned_to = ?, status = ? WHERE id = ?`, t.Description, t.DueDate, nullID(t.AssignedTo), string(t.Status), t.ID)
	return err
}

func scanTask(s scanner) (*models.Task, error) {
	var t models.Task
	var status string
	var assigned sql.NullInt64
	if err := s.Scan(&t.ID, &t.ProjectID, &t.Description, &t.DueDate, &assigned, &status); err != nil {
		if isNoRows(err) {
			return nil, nil
		}

		return nil, err
	}
	t.Status = models.WorkStatus(status)
	if assigned.Valid {
		t.AssignedTo = assigned.Int64
	}

	return &t, nil
}
