package sqlite

import (
	"context"
	"time"

	"github.com/garnizeh/crm/pkg/models"
)

func (r *SQLiteRepo) DashboardStats(ctx context.Context, since time.Time) (*models.DashboardStats, error) {
	q := `SELECT
		(SELECT COUNT(*) FROM customers),
		(SELECT COUNT(*) FROM funding_information WHERE funding_status = 'Pending'),
		(SELECT COUNT(*) FROM customer_interactions WHERE interaction_date >= ?),
		(SELECT COUNT(*) FROM sales WHERE sales_stage IN ('Negotiation', 'Proposal Sent'))`
	var s models.DashboardStats
	if err := r.conn.QueryRow(ctx, q, since.UTC().UnixMilli()).Scan(&s.TotalCustomers, &s.PendingFunding, &s.RecentInteractions, &s.ActiveDeals); err != nil {
		return nil, err
	}

	return &s, nil
}

func (r *SQLiteRepo) AdminStats(ctx context.Context) (*models.AdminStats, error) {
	var s models.AdminStats
	q := `SELECT (SELECT COUNT(*) FROM customers), (SELECT COUNT(*) FROM projects), (SELECT COUNT(*) FROM sales)`
	if err := r.conn.QueryRow(ctx, q).Scan(&s.Customers, &s.Projects, &s.Sales); err != nil {
		return nil, err
	}

	return &s, nil
}

func (r *SQLiteRepo) SalesSummary(ctx context.Context) (*models.SalesSummary, error) {
	var s models.SalesSummary
	if err := r.conn.QueryRow(ctx, `SELECT COUNT(*), COALESCE(SUM(revenue), 0) FROM sales`).Scan(&s.TotalOpportunities, &s.TotalRevenue); err != nil {
		return nil, err
	}

	return &s, nil
}

// CustomerDistribution counts customers per industry, largest group first.
func (r *SQLiteRepo) CustomerDistribution(ctx context.Context) ([]models.IndustryCount, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT industry, COUNT(*) AS n FROM customers WHERE industry <> '' GROUP BY industry ORDER BY n DESC, industry`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.IndustryCount
	for rows.Next() {
		var c models.IndustryCount
		if err := rows.Scan(&c.Industry, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) ProjectBudget(ctx context.Context) (*models.BudgetSummary, error) {
	var s models.BudgetSummary
	if err := r.conn.QueryRow(ctx, `SELECT COUNT(*), COALESCE(SUM(budget), 0) FROM projects`).Scan(&s.TotalProjects, &s.TotalBudget); err != nil {
		return nil, err
	}

	return &s, nil
}
