package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theaavashh/xyxx-sub001/internal/core/domain"
	portsrepo "github.com/theaavashh/xyxx-sub001/internal/core/ports/repositories"
	portssvc "github.com/theaavashh/xyxx-sub001/internal/core/ports/services"
	"github.com/theaavashh/xyxx-sub001/internal/middleware"
	"github.com/theaavashh/xyxx-sub001/internal/utils/accounting"
)

type reportingService struct {
	reportingRepo portsrepo.ReportingRepository
}

// NewReportingService creates a new reporting service.
func NewReportingService(reportingRepo portsrepo.ReportingRepository) portssvc.ReportingSvcFacade {
	return &reportingService{reportingRepo: reportingRepo}
}

var _ portssvc.ReportingSvcFacade = (*reportingService)(nil)

// TrialBalance lists every account's balance at the cutoff on its natural
// column. An imbalance between the columns signals corrupted data; it is
// reported in the payload, never thrown.
func (s *reportingService) TrialBalance(ctx context.Context, asOf time.Time) (*domain.TrialBalanceReport, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	balances, err := s.reportingRepo.GetAccountBalancesAsOf(ctx, asOf)
	if err != nil {
		logger.Error("Failed to fetch balances for trial balance", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to build trial balance: %w", err)
	}

	report := &domain.TrialBalanceReport{
		AsOf:        asOf,
		Rows:        make([]domain.TrialBalanceRow, 0, len(balances)),
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}

	for _, b := range balances {
		row := domain.TrialBalanceRow{
			AccountCode: b.AccountCode,
			AccountName: b.AccountName,
			AccountType: b.AccountType,
			Debit:       decimal.Zero,
			Credit:      decimal.Zero,
		}
		if b.Balance.IsNegative() {
			row.Credit = b.Balance.Neg()
		} else {
			row.Debit = b.Balance
		}
		report.Rows = append(report.Rows, row)
		report.TotalDebit = report.TotalDebit.Add(row.Debit)
		report.TotalCredit = report.TotalCredit.Add(row.Credit)
	}

	report.IsBalanced = accounting.IsBalanced(report.TotalDebit, report.TotalCredit)
	if !report.IsBalanced {
		logger.Warn("Trial balance does not balance",
			slog.String("total_debit", report.TotalDebit.String()),
			slog.String("total_credit", report.TotalCredit.String()),
		)
	}
	return report, nil
}

// percentChange is (current - prior) / prior * 100, two places. Nil when the
// prior amount is zero: the change is undefined, not infinite.
func percentChange(current, prior decimal.Decimal) *decimal.Decimal {
	if prior.IsZero() {
		return nil
	}
	change := current.Sub(prior).Div(prior).Mul(decimal.NewFromInt(100)).Round(2)
	return &change
}

// BalanceSheet classifies account balances by sub-type at the cutoff, folds
// the revenue/expense net into retained earnings, and compares each line with
// the same date one year earlier.
func (s *reportingService) BalanceSheet(ctx context.Context, asOf time.Time) (*domain.BalanceSheetReport, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	priorAsOf := asOf.AddDate(-1, 0, 0)

	current, err := s.reportingRepo.GetAccountBalancesAsOf(ctx, asOf)
	if err != nil {
		logger.Error("Failed to fetch current balances for balance sheet", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to build balance sheet: %w", err)
	}
	prior, err := s.reportingRepo.GetAccountBalancesAsOf(ctx, priorAsOf)
	if err != nil {
		logger.Error("Failed to fetch prior balances for balance sheet", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to build balance sheet prior period: %w", err)
	}

	priorByCode := make(map[string]domain.AccountPeriodBalance, len(prior))
	for _, b := range prior {
		priorByCode[b.AccountCode] = b
	}

	report := &domain.BalanceSheetReport{
		AsOf:                asOf,
		PriorAsOf:           priorAsOf,
		CurrentAssets:       domain.BalanceSheetSection{Title: "Current Assets", Lines: []domain.BalanceSheetLine{}},
		FixedAssets:         domain.BalanceSheetSection{Title: "Fixed Assets", Lines: []domain.BalanceSheetLine{}},
		CurrentLiabilities:  domain.BalanceSheetSection{Title: "Current Liabilities", Lines: []domain.BalanceSheetLine{}},
		LongTermLiabilities: domain.BalanceSheetSection{Title: "Long Term Liabilities", Lines: []domain.BalanceSheetLine{}},
		Equity:              domain.BalanceSheetSection{Title: "Equity", Lines: []domain.BalanceSheetLine{}},
	}

	retained := decimal.Zero

	for _, b := range current {
		natural, err := accounting.NaturalBalance(b.AccountType, b.Balance)
		if err != nil {
			return nil, err
		}

		// Revenue and expense accounts are not balance sheet lines; their
		// net folds into retained earnings.
		if b.AccountType == domain.Revenue {
			retained = retained.Add(natural)
			continue
		}
		if b.AccountType == domain.Expense {
			retained = retained.Sub(natural)
			continue
		}

		priorNatural := decimal.Zero
		if pb, ok := priorByCode[b.AccountCode]; ok {
			priorNatural, err = accounting.NaturalBalance(pb.AccountType, pb.Balance)
			if err != nil {
				return nil, err
			}
		}

		line := domain.BalanceSheetLine{
			AccountCode:   b.AccountCode,
			AccountName:   b.AccountName,
			Amount:        natural,
			PriorAmount:   priorNatural,
			PercentChange: percentChange(natural, priorNatural),
		}

		// Unknown sub-types fall back to the current bucket of their type.
		var section *domain.BalanceSheetSection
		switch {
		case b.AccountType == domain.Asset && b.SubType == domain.SubTypeFixedAsset:
			section = &report.FixedAssets
		case b.AccountType == domain.Asset:
			section = &report.CurrentAssets
		case b.AccountType == domain.Liability && b.SubType == domain.SubTypeLongTermLiability:
			section = &report.LongTermLiabilities
		case b.AccountType == domain.Liability:
			section = &report.CurrentLiabilities
		default:
			section = &report.Equity
		}
		section.Lines = append(section.Lines, line)
		section.Total = section.Total.Add(natural)
	}

	report.RetainedEarnings = retained
	report.TotalAssets = report.CurrentAssets.Total.Add(report.FixedAssets.Total)
	report.TotalLiabilities = report.CurrentLiabilities.Total.Add(report.LongTermLiabilities.Total)
	report.TotalEquity = report.Equity.Total.Add(retained)
	report.IsBalanced = accounting.IsBalanced(report.TotalAssets, report.TotalLiabilities.Add(report.TotalEquity))

	if !report.IsBalanced {
		logger.Warn("Balance sheet does not balance",
			slog.String("total_assets", report.TotalAssets.String()),
			slog.String("total_liabilities", report.TotalLiabilities.String()),
			slog.String("total_equity", report.TotalEquity.String()),
		)
	}
	return report, nil
}

// ProfitAndLoss aggregates revenue and expense activity over the period.
func (s *reportingService) ProfitAndLoss(ctx context.Context, from, to time.Time) (*domain.PAndLReport, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	revenue, expenses, err := s.reportingRepo.GetProfitAndLossData(ctx, from, to)
	if err != nil {
		logger.Error("Failed to fetch profit and loss data", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to build profit and loss: %w", err)
	}

	totalRevenue := decimal.Zero
	for _, r := range revenue {
		totalRevenue = totalRevenue.Add(r.NetAmount)
	}
	totalExpenses := decimal.Zero
	for _, e := range expenses {
		totalExpenses = totalExpenses.Add(e.NetAmount)
	}

	return &domain.PAndLReport{
		From:      from,
		To:        to,
		Revenue:   revenue,
		Expenses:  expenses,
		NetProfit: totalRevenue.Sub(totalExpenses),
	}, nil
}
