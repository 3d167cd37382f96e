package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theaavashh/xyxx-sub001/internal/apperrors"
	"github.com/theaavashh/xyxx-sub001/internal/core/domain"
	portsrepo "github.com/theaavashh/xyxx-sub001/internal/core/ports/repositories"
	portssvc "github.com/theaavashh/xyxx-sub001/internal/core/ports/services"
	"github.com/theaavashh/xyxx-sub001/internal/dto"
	"github.com/theaavashh/xyxx-sub001/internal/middleware"
	"github.com/theaavashh/xyxx-sub001/internal/utils/accounting"
)

type ledgerService struct {
	ledgerRepo  portsrepo.LedgerRepository
	accountRepo portsrepo.AccountRepository
}

// NewLedgerService creates a new ledger read service.
func NewLedgerService(ledgerRepo portsrepo.LedgerRepository, accountRepo portsrepo.AccountRepository) portssvc.LedgerSvcFacade {
	return &ledgerService{
		ledgerRepo:  ledgerRepo,
		accountRepo: accountRepo,
	}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// ReplayBalances walks ledger entries in order and recomputes the running
// balance from the opening balance, debit minus credit. The stored balances
// are an optimization; this replay is the definition they must agree with.
func ReplayBalances(opening decimal.Decimal, entries []domain.LedgerEntry) []domain.LedgerEntry {
	running := opening
	out := make([]domain.LedgerEntry, len(entries))
	for i, e := range entries {
		running = running.Add(e.Debit).Sub(e.Credit)
		e.Balance = running
		out[i] = e
	}
	return out
}

// GetAccountLedger returns the account's entries in the window with running
// balances accumulated from the window's opening balance.
func (s *ledgerService) GetAccountLedger(ctx context.Context, accountCode string, from, to *time.Time) (*dto.AccountLedgerResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.accountRepo.FindAccountByCode(ctx, accountCode); err != nil {
		return nil, err
	}

	opening := decimal.Zero
	if from != nil {
		cutoff := from.Add(-time.Nanosecond)
		var err error
		opening, err = s.ledgerRepo.SignedBalanceAsOf(ctx, accountCode, &cutoff)
		if err != nil {
			logger.Error("Failed to compute opening balance", slog.String("error", err.Error()), slog.String("account_code", accountCode))
			return nil, fmt.Errorf("failed to compute opening balance for %s: %w", accountCode, err)
		}
	}

	entries, err := s.ledgerRepo.FindLedgerEntries(ctx, accountCode, from, to)
	if err != nil {
		logger.Error("Failed to fetch ledger entries", slog.String("error", err.Error()), slog.String("account_code", accountCode))
		return nil, fmt.Errorf("failed to fetch ledger for %s: %w", accountCode, err)
	}

	replayed := ReplayBalances(opening, entries)

	closing := opening
	if len(replayed) > 0 {
		closing = replayed[len(replayed)-1].Balance
	}

	return &dto.AccountLedgerResponse{
		AccountCode:    accountCode,
		From:           from,
		To:             to,
		OpeningBalance: opening,
		Entries:        dto.ToLedgerEntryResponses(replayed),
		ClosingBalance: closing,
	}, nil
}

// GetAccountBalance aggregates the signed balance at the cutoff and reports
// it as a magnitude with its side. A zero balance reports as debit zero.
func (s *ledgerService) GetAccountBalance(ctx context.Context, accountCode string, asOf *time.Time) (*domain.AccountBalance, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.accountRepo.FindAccountByCode(ctx, accountCode); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to find account for balance", slog.String("error", err.Error()), slog.String("account_code", accountCode))
		}
		return nil, err
	}

	signed, err := s.ledgerRepo.SignedBalanceAsOf(ctx, accountCode, asOf)
	if err != nil {
		logger.Error("Failed to aggregate account balance", slog.String("error", err.Error()), slog.String("account_code", accountCode))
		return nil, fmt.Errorf("failed to aggregate balance for %s: %w", accountCode, err)
	}

	effective := time.Now().UTC()
	if asOf != nil {
		effective = *asOf
	}

	return &domain.AccountBalance{
		AccountCode: accountCode,
		Amount:      signed.Abs(),
		Side:        accounting.BalanceSide(signed),
		AsOf:        effective,
	}, nil
}

// ExportAccountLedgerCSV streams the windowed account ledger as CSV.
func (s *ledgerService) ExportAccountLedgerCSV(ctx context.Context, w io.Writer, accountCode string, from, to *time.Time) error {
	ledger, err := s.GetAccountLedger(ctx, accountCode, from, to)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "journal_id", "description", "debit", "credit", "balance"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, e := range ledger.Entries {
		record := []string{
			e.EntryDate.Format("2006-01-02"),
			e.JournalID,
			e.Description,
			e.Debit.StringFixed(2),
			e.Credit.StringFixed(2),
			e.Balance.StringFixed(2),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
