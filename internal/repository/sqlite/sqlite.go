package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/garnizeh/crm/internal/db"
	"github.com/garnizeh/crm/pkg/repository"
)

// SQLiteRepo implements repository interfaces using the internal DB wrapper.
type SQLiteRepo struct {
	conn   *db.DB
	logger *slog.Logger
}

// Ensure SQLiteRepo implements the public interfaces.
var _ repository.UserRepo = (*SQLiteRepo)(nil)
var _ repository.CustomerRepo = (*SQLiteRepo)(nil)
var _ repository.ProjectRepo = (*SQLiteRepo)(nil)
var _ repository.TaskRepo = (*SQLiteRepo)(nil)
var _ repository.InteractionRepo = (*SQLiteRepo)(nil)
var _ repository.FundingRepo = (*SQLiteRepo)(nil)
var _ repository.SalesRepo = (*SQLiteRepo)(nil)
var _ repository.SupportRequestRepo = (*SQLiteRepo)(nil)
var _ repository.UpdateLogRepo = (*SQLiteRepo)(nil)
var _ repository.StatsRepo = (*SQLiteRepo)(nil)
var _ repository.Store = (*SQLiteRepo)(nil)

func New(conn *db.DB, logger *slog.Logger) *SQLiteRepo {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &SQLiteRepo{conn: conn, logger: logger}
}

func (r *SQLiteRepo) Ping(ctx context.Context) error {
	return r.conn.Ping(ctx)
}

func now() int64 {
	return time.Now().UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// nullID maps the zero id to SQL NULL for optional foreign keys.
func nullID(id int64) any {
	if id <= 0 {
		return nil
	}
	return id
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
