package pgsql

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/theaavashh/xyxx-sub001/internal/core/domain"
	portsrepo "github.com/theaavashh/xyxx-sub001/internal/core/ports/repositories"
)

type PgxLedgerRepository struct {
	BaseRepository
}

// newPgxLedgerRepository creates a new read-side repository for the derived
// ledger entry stream.
func newPgxLedgerRepository(pool *pgxpool.Pool) *PgxLedgerRepository {
	return &PgxLedgerRepository{BaseRepository{Pool: pool}}
}

var _ portsrepo.LedgerRepository = (*PgxLedgerRepository)(nil)

// FindLedgerEntries returns the account's entries within the optional window
// in (entry_date, created_at, ledger_id) order. The ledger_id tie-break keeps
// the order total when two lines of the same journal share a timestamp.
func (r *PgxLedgerRepository) FindLedgerEntries(ctx context.Context, accountCode string, from, to *time.Time) ([]domain.LedgerEntry, error) {
	query := `
		SELECT ledger_id, account_code, journal_id, line_id, entry_date, description, debit, credit, balance, created_at
		FROM ledger_entries
		WHERE account_code = $1
	`
	args := []any{accountCode}
	if from != nil {
		args = append(args, *from)
		query += ` AND entry_date >= $` + strconv.Itoa(len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += ` AND entry_date <= $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY entry_date, created_at, ledger_id;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries for account %s: %w", accountCode, err)
	}
	defer rows.Close()

	entries := []domain.LedgerEntry{}
	for rows.Next() {
		var e domain.LedgerEntry
		err := rows.Scan(
			&e.LedgerID,
			&e.AccountCode,
			&e.JournalID,
			&e.LineID,
			&e.EntryDate,
			&e.Description,
			&e.Debit,
			&e.Credit,
			&e.Balance,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry row for account %s: %w", accountCode, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entry rows for account %s: %w", accountCode, err)
	}
	return entries, nil
}

// SignedBalanceAsOf aggregates debit - credit for the account up to the
// cutoff (inclusive); a nil cutoff covers the full stream.
func (r *PgxLedgerRepository) SignedBalanceAsOf(ctx context.Context, accountCode string, asOf *time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(debit - credit), 0)
		FROM ledger_entries
		WHERE account_code = $1
	`
	args := []any{accountCode}
	if asOf != nil {
		args = append(args, *asOf)
		query += ` AND entry_date <= $2`
	}
	query += `;`

	var signed decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query, args...).Scan(&signed); err != nil {
		return decimal.Zero, fmt.Errorf("failed to aggregate balance for account %s: %w", accountCode, err)
	}
	return signed, nil
}
