package services

import (
	"context"
	"time"

	"github.com/theaavashh/xyxx-sub001/internal/core/domain"
)

// ReportingSvcFacade derives financial reports from the posted ledger.
// Integrity failures (an unbalanced trial balance, an unbalanced balance
// sheet) are carried in the report payload, not thrown.
type ReportingSvcFacade interface {
	TrialBalance(ctx context.Context, asOf time.Time) (*domain.TrialBalanceReport, error)
	BalanceSheet(ctx context.Context, asOf time.Time) (*domain.BalanceSheetReport, error)
	ProfitAndLoss(ctx context.Context, from, to time.Time) (*domain.PAndLReport, error)
}
