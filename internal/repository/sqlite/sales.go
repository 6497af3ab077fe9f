package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/crm/pkg/models"
)

const salesColumns = `id, customer_id, opportunity, sales_stage, revenue, owner`

func (r *SQLiteRepo) CreateSale(ctx context.Context, s *models.SalesOpportunity) (int64, error) {
	if s == nil {
		return 0, fmt.Errorf("sales opportunity is nil")
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO sales (customer_id, opportunity, sales_stage, revenue, owner, created) VALUES (?, ?, ?, ?, ?, ?)`, s.CustomerID, s.Name, string(s.Stage), s.Revenue, nullID(s.Owner), now())
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetSale(ctx context.Context, id int64) (*models.SalesOpportunity, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+salesColumns+` FROM sales WHERE id = ?`, id)
	return scanSale(row)
}

func (r *SQLiteRepo) ListSales(ctx context.Context, customerID int64) ([]models.SalesOpportunity, error) {
	q := `SELECT ` + salesColumns + ` FROM sales`
	var args []any
	if customerID > 0 {
		q += ` WHERE customer_id = ?`
		args = append(args, customerID)
	}
	q += ` ORDER BY id`

	rows, err := r.conn.QueryRows(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SalesOpportunity
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) UpdateSale(ctx context.Context, s *models.SalesOpportunity) error {
	if s == nil {
		return fmt.Errorf("sales opportunity is nil")
	}

	_, err := r.conn.Exec(ctx, `UPDATE sales SET opportunity = ?, sales_stage = ?, revenue = ?, owner = ? WHERE id = ?`, s.Name, string(s.Stage), s.Revenue, nullID(s.Owner), s.ID)
	return err
}

func (r *SQLiteRepo) DeleteSale(ctx context.Context, id int64) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM sales WHERE id = ?`, id)
	return err
}

func scanSale(s scanner) (*models.SalesOpportunity, error) {
	var o models.SalesOpportunity
	var stage string
	var owner sql.NullInt64
	if err := s.Scan(&o.ID, &o.CustomerID, &o.Name, &stage, &o.Revenue, &owner); err != nil {
		if isNoRows(err) {
			return nil, nil
		}

		return nil, err
	}
	o.Stage = models.SalesStage(stage)
	o.Owner = owner.Int64

	return &o, nil
}
