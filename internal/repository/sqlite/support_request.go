package sqlite

import (
	"context"
	"fmt"

	"github.com/garnizeh/crm/pkg/models"
)

const supportColumns = `id, project_id, request_type, description, status, requested_by`

func (r *SQLiteRepo) CreateSupportRequest(ctx context.Context, req *models.ResourceRequest) (int64, error) {
	if req == nil {
		return 0, fmt.Errorf("support request is nil")
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO support_requests (project_id, request_type, description, status, requested_by) VALUES (?, ?, ?, ?, ?)`, req.ProjectID, string(req.Type), req.Description, string(req.Status), req.RequestedBy)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetSupportRequest(ctx context.Context, id int64) (*models.ResourceRequest, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+supportColumns+` FROM support_requests WHERE id = ?`, id)
	return scanSupportRequest(row)
}

func (r *SQLiteRepo) ListSupportRequestsByProject(ctx context.Context, projectID int64) ([]models.ResourceRequest, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT `+supportColumns+` FROM support_requests WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ResourceRequest
	for rows.Next() {
		req, err := scanSupportRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *req)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) UpdateSupportRequest(ctx context.Context, req *models.ResourceRequest) error {
	if req == nil {
		return fmt.Errorf("support request is nil")
	}

	_, err := r.conn.Exec(ctx, `UPDATE support_requests SET request_type = ?, description = ?, status = ?, requested_by = ? WHERE id = ?`, string(req.Type), req.Description, string(req.Status), req.RequestedBy, req.ID)
	return err
}

func scanSupportRequest(s scanner) (*models.ResourceRequest, error) {
	var req models.ResourceRequest
	var typ, status string
	if err := s.Scan(&req.ID, &req.ProjectID, &typ, &req.Description, &status, &req.RequestedBy); err != nil {
		if isNoRows(err) {
			return nil, nil
		}

		return nil, err
	}
	req.Type = models.RequestType(typ)
	req.Status = models.WorkStatus(status)

	return &req, nil
}
