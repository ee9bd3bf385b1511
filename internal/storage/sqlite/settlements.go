package sqlite

import (
	"context"
	"time"

	"github.com/exsettle/settlementd/internal/errs"
	"github.com/exsettle/settlementd/internal/models"
)

// DefaultRecentLimit bounds a listing when the caller passes a non-positive limit.
const DefaultRecentLimit = 10

// CreateSettlement persists a new settlement and populates the
// store-assigned ID and CreatedAt on the given record.
func (s *SQLiteStore) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	if settlement.CreatedAt == 0 {
		settlement.CreatedAt = time.Now().Unix()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO settlements (market_pair, amount, price, sensitive_memo, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		settlement.MarketPair, settlement.Amount, settlement.Price,
		settlement.SensitiveMemo, settlement.CreatedAt,
	)
	if err != nil {
		return errs.Wrap(errs.Store, "failed to insert settlement", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return errs.Wrap(errs.Store, "failed to read settlement id", err)
	}
	settlement.ID = id

	return nil
}

// ListRecent returns up to limit settlements, newest first. Rows created in
// the same second keep a stable order via the descending ID tie-break.
func (s *SQLiteStore) ListRecent(ctx context.Context, limit int) ([]*models.Settlement, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, market_pair, amount, price, sensitive_memo, created_at
		 FROM settlements ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, errs.Wrap(errs.Store, "failed to list settlements", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement := &models.Settlement{}
		if err := rows.Scan(&settlement.ID, &settlement.MarketPair, &settlement.Amount,
			&settlement.Price, &settlement.SensitiveMemo, &settlement.CreatedAt); err != nil {
			return nil, errs.Wrap(errs.Store, "failed to scan settlement", err)
		}
		settlements = append(settlements, settlement)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.Store, "failed to iterate settlements", err)
	}

	return settlements, nil
}
