package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/crm/pkg/models"
)

const fundingColumns = `id, customer_id, project_id, funding_status, project_budget, approval_date, decision_maker`

func scopeColumn(scope models.FundingScope) (string, error) {
	switch scope.Kind {
	case models.ScopeCustomer:
		return "customer_id", nil
	case models.ScopeProject:
		return "project_id", nil
	}
	return "", fmt.Errorf("unknown funding scope %q", scope.Kind)
}

func (r *SQLiteRepo) GetFunding(ctx context.Context, scope models.FundingScope) (*models.FundingRecord, error) {
	col, err := scopeColumn(scope)
	if err != nil {
		return nil, err
	}

	row := r.conn.QueryRow(ctx, `SELECT `+fundingColumns+` FROM funding_information WHERE `+col+` = ?`, scope.ID)
	var f models.FundingRecord
	var customerID, projectID, approval sql.NullInt64
	var status string
	if err := row.Scan(&f.ID, &customerID, &projectID, &status, &f.Budget, &approval, &f.DecisionMaker); err != nil {
		if isNoRows(err) {
			return nil, nil
		}

		return nil, err
	}
	f.CustomerID = customerID.Int64
	f.ProjectID = projectID.Int64
	f.Status = models.FundingStatus(status)
	if approval.Valid {
		t := fromMillis(approval.Int64)
		f.ApprovalDate = &t
	}

	return &f, nil
}

// SaveFunding upserts the record for f.Scope() and returns its id.
func (r *SQLiteRepo) SaveFunding(ctx context.Context, f *models.FundingRecord) (int64, error) {
	if f == nil {
		return 0, fmt.Errorf("funding record is nil")
	}
	if err := f.CheckInvariant(); err != nil {
		return 0, err
	}
	scope := f.Scope()
	col, err := scopeColumn(scope)
	if err != nil {
		return 0, err
	}

	var approval any
	if f.ApprovalDate != nil {
		approval = f.ApprovalDate.UTC().UnixMilli()
	}

	var id int64
	err = r.conn.WithTx(ctx, func(tx *sql.Tx) error {
		q := `INSERT INTO funding_information (` + col + `, funding_status, project_budget, approval_date, decision_maker) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(` + col + `) DO UPDATE SET funding_status = excluded.funding_status, project_budget = excluded.project_budget, approval_date = excluded.approval_date, decision_maker = excluded.decision_maker`
		if _, err := tx.ExecContext(ctx, q, scope.ID, string(f.Status), f.Budget, approval, f.DecisionMaker); err != nil {
			return err
		}
		if err := tx.QueryRowContext(ctx, `SELECT id FROM funding_information WHERE `+col+` = ?`, scope.ID).Scan(&id); err != nil {
			return err
		}
		if scope.Kind == models.ScopeCustomer {
			if _, err := tx.ExecContext(ctx, `UPDATE customers SET funding_status = ? WHERE id = ?`, string(f.Status), scope.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return id, nil
}

func (r *SQLiteRepo) DeleteFunding(ctx context.Context, scope models.FundingScope) error {
	col, err := scopeColumn(scope)
	if err != nil {
		return err
	}

	return r.conn.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM funding_information WHERE `+col+` = ?`, scope.ID); err != nil {
			return err
		}
		if scope.Kind == models.ScopeCustomer {
			if _, err := tx.ExecContext(ctx, `UPDATE customers SET funding_status = '' WHERE id = ?`, scope.ID); err != nil {
				return err
			}
		}
		return nil
	})
}
