package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/crm/pkg/models"
)

const projectColumns = `id, customer_id, project_name, budget, phase, manager`

func (r *SQLiteRepo) CreateProject(ctx context.Context, p *models.Project) (int64, error) {
	if p == nil {
		return 0, fmt.Errorf("project is nil")
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO projects (customer_id, project_name, budget, phase, manager) VALUES (?, ?, ?, ?, ?)`, p.CustomerID, p.Name, p.Budget, string(p.Phase), nullID(p.Manager))
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	return scanProject(row)
}

func (r *SQLiteRepo) ListProjects(ctx context.Context) ([]models.Project, error) {
	return r.listProjects(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY id`)
}

func (r *SQLiteRepo) ListProjectsByCustomer(ctx context.Context, customerID int64) ([]models.Project, error) {
	return r.listProjects(ctx, `SELECT `+projectColumns+` FROM projects WHERE customer_id = ? ORDER BY id`, customerID)
}

func (r *SQLiteRepo) listProjects(ctx context.Context, q string, args ...any) ([]models.Project, error) {
	rows, err := r.conn.QueryRows(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) UpdateProject(ctx context.Context, p *models.Project) error {
	if p == nil {
		return fmt.Errorf("project is nil")
	}

	_, err := r.conn.Exec(ctx, `UPDATE projects SET customer_id = ?, project_name = ?, budget = ?, phase = ?, manager = ? WHERE id = ?`, p.CustomerID, p.Name, p.Budget, string(p.Phase), nullID(p.Manager), p.ID)
	return err
}

// DeleteProject removes the project; tasks, requests, logs and funding cascade.
func (r *SQLiteRepo) DeleteProject(ctx context.Context, id int64) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM projects WHERE id = ?`, id)
	return err
}

func scanProject(s scanner) (*models.Project, error) {
	var p models.Project
	var phase string
	var manager sql.NullInt64
	if err := s.Scan(&p.ID, &p.CustomerID, &p.Name, &p.Budget, &phase, &manager); err != nil {
		if isNoRows(err) {
			return nil, nil
		}

		return nil, err
	}
	p.Phase = models.ProjectPhase(phase)
	if manager.Valid {
		p.Manager = manager.Int64
	}

	return &p, nil
}
