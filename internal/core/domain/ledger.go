package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is the projection of one posted journal line onto its
// account's ledger. Entries are derived, never written directly: the
// journal engine appends them while posting, inside the same transaction
// that flips the entry to POSTED.
//
// Balance is the account's running balance after this entry, the cumulative
// signed sum of (debit - credit) ordered by (entry date, insertion order).
type LedgerEntry struct {
	LedgerID    string          `json:"ledgerID"`
	AccountCode string          `json:"accountCode"`
	JournalID   string          `json:"journalID"`
	LineID      string          `json:"lineID"`
	EntryDate   time.Time       `json:"entryDate"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// BalanceSide labels which side an account balance falls on when reported.
// Accounting convention reports balances unsigned with a side label rather
// than as negative numbers.
type BalanceSide string

const (
	DebitBalance  BalanceSide = "debit"
	CreditBalance BalanceSide = "credit"
)

// AccountBalance is an account balance at a cutoff, reported unsigned with
// its side.
type AccountBalance struct {
	AccountCode string          `json:"accountCode"`
	Amount      decimal.Decimal `json:"amount"`
	Side        BalanceSide     `json:"side"`
	AsOf        time.Time       `json:"asOf"`
}
