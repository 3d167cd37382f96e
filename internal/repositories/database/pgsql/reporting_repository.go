package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/theaavashh/xyxx-sub001/internal/core/domain"
	portsrepo "github.com/theaavashh/xyxx-sub001/internal/core/ports/repositories"
)

type PgxReportingRepository struct {
	BaseRepository
}

// newPgxReportingRepository creates a new read-side repository for reports.
func newPgxReportingRepository(pool *pgxpool.Pool) *PgxReportingRepository {
	return &PgxReportingRepository{BaseRepository{Pool: pool}}
}

var _ portsrepo.ReportingRepository = (*PgxReportingRepository)(nil)

// GetAccountBalancesAsOf aggregates each account's debit-positive signed
// balance from the posted ledger stream up to the cutoff. Only posted entries
// ever reach ledger_entries, so drafts never influence a report.
func (r *PgxReportingRepository) GetAccountBalancesAsOf(ctx context.Context, asOf time.Time) ([]domain.AccountPeriodBalance, error) {
	query := `
		SELECT a.code, a.name, a.account_type, a.sub_type, COALESCE(SUM(l.debit - l.credit), 0) AS balance
		FROM accounts a
		LEFT JOIN ledger_entries l ON l.account_code = a.code AND l.entry_date <= $1
		GROUP BY a.code, a.name, a.account_type, a.sub_type
		ORDER BY a.code;
	`
	rows, err := r.Pool.Query(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to query account balances as of %s: %w", asOf.Format("2006-01-02"), err)
	}
	defer rows.Close()

	balances := []domain.AccountPeriodBalance{}
	for rows.Next() {
		var b domain.AccountPeriodBalance
		if err := rows.Scan(&b.AccountCode, &b.AccountName, &b.AccountType, &b.SubType, &b.Balance); err != nil {
			return nil, fmt.Errorf("failed to scan account balance row: %w", err)
		}
		balances = append(balances, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account balance rows: %w", err)
	}
	return balances, nil
}

// GetProfitAndLossData aggregates revenue (credit - debit) and expense
// (debit - credit) activity within the period, skipping accounts with no net
// movement.
func (r *PgxReportingRepository) GetProfitAndLossData(ctx context.Context, from, to time.Time) ([]domain.AccountAmount, []domain.AccountAmount, error) {
	query := `
		SELECT a.code, a.name, a.account_type,
		       COALESCE(SUM(CASE WHEN a.account_type = 'REVENUE' THEN l.credit - l.debit ELSE l.debit - l.credit END), 0) AS net_amount
		FROM accounts a
		JOIN ledger_entries l ON l.account_code = a.code
		WHERE a.account_type IN ('REVENUE', 'EXPENSE') AND l.entry_date >= $1 AND l.entry_date <= $2
		GROUP BY a.code, a.name, a.account_type
		HAVING COALESCE(SUM(CASE WHEN a.account_type = 'REVENUE' THEN l.credit - l.debit ELSE l.debit - l.credit END), 0) <> 0
		ORDER BY a.code;
	`
	rows, err := r.Pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query profit and loss data: %w", err)
	}
	defer rows.Close()

	revenue := []domain.AccountAmount{}
	expenses := []domain.AccountAmount{}
	for rows.Next() {
		var amount domain.AccountAmount
		var accountType domain.AccountType
		if err := rows.Scan(&amount.AccountCode, &amount.Name, &accountType, &amount.NetAmount); err != nil {
			return nil, nil, fmt.Errorf("failed to scan profit and loss row: %w", err)
		}
		if accountType == domain.Revenue {
			revenue = append(revenue, amount)
		} else {
			expenses = append(expenses, amount)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating profit and loss rows: %w", err)
	}
	return revenue, expenses, nil
}
