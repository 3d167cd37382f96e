package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TrialBalanceRow represents a single account in a trial balance report.
// The balance is reported on the side it falls on; the other column is zero.
type TrialBalanceRow struct {
	AccountCode string          `json:"accountCode"`
	AccountName string          `json:"accountName"`
	AccountType AccountType     `json:"accountType"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// TrialBalanceReport is the full account balance snapshot at a cutoff.
// IsBalanced false is a reportable data-integrity condition carried in the
// payload, not an error.
type TrialBalanceReport struct {
	AsOf        time.Time         `json:"asOf"`
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal   `json:"totalDebit"`
	TotalCredit decimal.Decimal   `json:"totalCredit"`
	IsBalanced  bool              `json:"isBalanced"`
}

// BalanceSheetLine is one account inside a balance sheet section, with the
// prior-period comparison. PercentChange is nil when the previous amount is
// zero (change is undefined, not infinite).
type BalanceSheetLine struct {
	AccountCode   string           `json:"accountCode"`
	AccountName   string           `json:"accountName"`
	Amount        decimal.Decimal  `json:"amount"`
	PriorAmount   decimal.Decimal  `json:"priorAmount"`
	PercentChange *decimal.Decimal `json:"percentChange,omitempty"`
}

// BalanceSheetSection groups lines under one classification heading.
type BalanceSheetSection struct {
	Title string             `json:"title"`
	Lines []BalanceSheetLine `json:"lines"`
	Total decimal.Decimal    `json:"total"`
}

// BalanceSheetReport classifies account balances into asset, liability and
// equity sections by account sub-type, with prior-period comparison.
type BalanceSheetReport struct {
	AsOf                time.Time           `json:"asOf"`
	PriorAsOf           time.Time           `json:"priorAsOf"`
	CurrentAssets       BalanceSheetSection `json:"currentAssets"`
	FixedAssets         BalanceSheetSection `json:"fixedAssets"`
	CurrentLiabilities  BalanceSheetSection `json:"currentLiabilities"`
	LongTermLiabilities BalanceSheetSection `json:"longTermLiabilities"`
	Equity              BalanceSheetSection `json:"equity"`
	RetainedEarnings    decimal.Decimal     `json:"retainedEarnings"`
	TotalAssets         decimal.Decimal     `json:"totalAssets"`
	TotalLiabilities    decimal.Decimal     `json:"totalLiabilities"`
	TotalEquity         decimal.Decimal     `json:"totalEquity"`
	IsBalanced          bool                `json:"isBalanced"`
}

// AccountPeriodBalance is an account's debit-positive signed balance at a
// cutoff, with the metadata reports classify by.
type AccountPeriodBalance struct {
	AccountCode string          `json:"accountCode"`
	AccountName string          `json:"accountName"`
	AccountType AccountType     `json:"accountType"`
	SubType     string          `json:"subType"`
	Balance     decimal.Decimal `json:"balance"`
}

// AccountAmount represents an account with its net amount for the profit
// and loss report.
type AccountAmount struct {
	AccountCode string          `json:"accountCode"`
	Name        string          `json:"name"`
	NetAmount   decimal.Decimal `json:"netAmount"`
}

// PAndLReport represents a profit and loss report over a period.
type PAndLReport struct {
	From      time.Time       `json:"from"`
	To        time.Time       `json:"to"`
	Revenue   []AccountAmount `json:"revenue"`
	Expenses  []AccountAmount `json:"expenses"`
	NetProfit decimal.Decimal `json:"netProfit"`
}
