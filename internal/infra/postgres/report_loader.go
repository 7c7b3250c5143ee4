package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/lifelinezhang/frequency-smallgame-sub000/internal/domain"
)

// ReportLoader reads raw report content from Postgres. Parsing stays in the
// report package; the row is handed over untouched.
type ReportLoader struct {
	pool *pgxpool.Pool
}

func NewReportLoader(pool *pgxpool.Pool) *ReportLoader {
	return &ReportLoader{pool: pool}
}

func (l *ReportLoader) GetReport(ctx context.Context, openID string) ([]byte, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT content FROM reports WHERE open_id=$1`, openID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	}
	return raw, nil
}
