package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/theaavashh/xyxx-sub001/internal/core/domain"
)

// LedgerEntryResponse defines the data returned for one ledger entry.
type LedgerEntryResponse struct {
	LedgerID    string          `json:"ledgerID"`
	JournalID   string          `json:"journalID"`
	EntryDate   time.Time       `json:"entryDate"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
}

// AccountLedgerResponse is an account's ledger within the requested window,
// with the opening balance the running balances start from.
type AccountLedgerResponse struct {
	AccountCode    string                `json:"accountCode"`
	From           *time.Time            `json:"from,omitempty"`
	To             *time.Time            `json:"to,omitempty"`
	OpeningBalance decimal.Decimal       `json:"openingBalance"`
	Entries        []LedgerEntryResponse `json:"entries"`
	ClosingBalance decimal.Decimal       `json:"closingBalance"`
}

// AccountBalanceResponse reports an account balance unsigned with its side.
type AccountBalanceResponse struct {
	AccountCode string          `json:"accountCode"`
	Amount      decimal.Decimal `json:"amount"`
	Side        string          `json:"side"`
	AsOf        time.Time       `json:"asOf"`
}

// ToLedgerEntryResponses converts a slice of domain.LedgerEntry.
func ToLedgerEntryResponses(entries []domain.LedgerEntry) []LedgerEntryResponse {
	responses := make([]LedgerEntryResponse, len(entries))
	for i, e := range entries {
		responses[i] = LedgerEntryResponse{
			LedgerID:    e.LedgerID,
			JournalID:   e.JournalID,
			EntryDate:   e.EntryDate,
			Description: e.Description,
			Debit:       e.Debit,
			Credit:      e.Credit,
			Balance:     e.Balance,
		}
	}
	return responses
}
