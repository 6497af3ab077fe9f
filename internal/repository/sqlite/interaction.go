package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/crm/pkg/models"
)

func (r *SQLiteRepo) CreateInteraction(ctx context.Context, i *models.Interaction) (int64, error) {
	if i == nil {
		return 0, fmt.Errorf("interaction is nil")
	}

	ts := i.Timestamp
	if ts.IsZero() {
		ts = fromMillis(now())
	}
	var file any
	if i.FilePath != "" {
		file = i.FilePath
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO customer_interactions (customer_id, interaction_type, details, file_path, interaction_date) VALUES (?, ?, ?, ?, ?)`, i.CustomerID, string(i.Type), i.Details, file, ts.UTC().UnixMilli())
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

// ListInteractionsByCustomer returns the newest interactions first.
func (r *SQLiteRepo) ListInteractionsByCustomer(ctx context.Context, customerID int64) ([]models.Interaction, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT id, customer_id, interaction_type, details, file_path, interaction_date FROM customer_interactions WHERE customer_id = ? ORDER BY interaction_date DESC, id DESC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Interaction
	for rows.Next() {
		var i models.Interaction
		var typ string
		var file sql.NullString
		var ts int64
		if err := rows.Scan(&i.ID, &i.CustomerID, &typ, &i.Details, &file, &ts); err != nil {
			return nil, err
		}
		i.Type = models.InteractionType(typ)
		i.FilePath = file.String
		i.Timestamp = fromMillis(ts)
		out = append(out, i)
	}

	return out, rows.Err()
}
