package services

import (
	"context"
	"io"
	"time"

	"github.com/theaavashh/xyxx-sub001/internal/core/domain"
	"github.com/theaavashh/xyxx-sub001/internal/dto"
)

// LedgerSvcFacade reads the derived per-account ledger. It has no mutation
// API: projection happens inside the journal engine's posting transaction.
type LedgerSvcFacade interface {
	// GetAccountLedger replays the account's entries in (date, insertion)
	// order with running balances accumulated from the window's opening
	// balance. Replay output is identical to the incrementally stored
	// balances.
	GetAccountLedger(ctx context.Context, accountCode string, from, to *time.Time) (*dto.AccountLedgerResponse, error)
	// GetAccountBalance aggregates debit - credit up to the cutoff and
	// reports the magnitude with its side.
	GetAccountBalance(ctx context.Context, accountCode string, asOf *time.Time) (*domain.AccountBalance, error)
	// ExportAccountLedgerCSV writes the account ledger as CSV rows.
	ExportAccountLedgerCSV(ctx context.Context, w io.Writer, accountCode string, from, to *time.Time) error
}
