package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/garnizeh/crm/pkg/models"
	"github.com/garnizeh/crm/pkg/repository"
)

const customerColumns = `id, name, email, phone, company, address, industry, location, tags, sales_stage, technical_evaluator, decision_maker, funding_status, created`

func (r *SQLiteRepo) CreateCustomer(ctx context.Context, c *models.Customer) (int64, error) {
	if c == nil {
		return 0, fmt.Errorf("customer is nil")
	}

	q := `INSERT INTO customers (name, email, phone, company, address, industry, location, tags, sales_stage, technical_evaluator, decision_maker, funding_status, created) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.conn.Exec(ctx, q, c.Name, c.Email, c.Phone, c.Company, c.Address, c.Industry, c.Location, string(c.Tag), c.SalesStage, c.TechnicalEvaluator, c.DecisionMaker, string(c.FundingStatus), now())
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = ?`, id)
	return scanCustomer(row)
}

// ListCustomers applies the non-empty filter fields as equality predicates
// joined with AND, in id order.
func (r *SQLiteRepo) ListCustomers(ctx context.Context, f repository.CustomerFilter) ([]models.Customer, error) {
	var where []string
	var args []any
	add := func(col, v string) {
		if v != "" {
			where = append(where, col+" = ?")
			args = append(args, v)
		}
	}
	add("industry", f.Industry)
	add("location", f.Location)
	add("tags", f.Tag)
	add("sales_stage", f.SalesStage)

	q := `SELECT ` + customerColumns + ` FROM customers`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY id`

	rows, err := r.conn.QueryRows(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) UpdateCustomer(ctx context.Context, c *models.Customer) error {
	if c == nil {
		return fmt.Errorf("customer is nil")
	}

	q := `UPDATE customers SET name = ?, email = ?, phone = ?, company = ?, address = ?, industry = ?, location = ?, tags = ?, sales_stage = ?, technical_evaluator = ?, decision_maker = ?, funding_status = ? WHERE id = ?`
	_, err := r.conn.Exec(ctx, q, c.Name, c.Email, c.Phone, c.Company, c.Address, c.Industry, c.Location, string(c.Tag), c.SalesStage, c.TechnicalEvaluator, c.DecisionMaker, string(c.FundingStatus), c.ID)
	return err
}

func scanCustomer(s scanner) (*models.Customer, error) {
	var c models.Customer
	var tag, funding string
	var created int64
	err := s.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.Address, &c.Industry, &c.Location, &tag, &c.SalesStage, &c.TechnicalEvaluator, &c.DecisionMaker, &funding, &created)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}

		return nil, err
	}
	c.Tag = models.CustomerTag(tag)
	c.FundingStatus = models.FundingStatus(funding)
	c.CreatedAt = fromMillis(created)

	return &c, nil
}
