package domain

import (
	"github.com/shopspring/decimal"
)

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// IsValid reports whether t is one of the five closed account types.
func (t AccountType) IsValid() bool {
	switch t {
	case Asset, Liability, Equity, Revenue, Expense:
		return true
	}
	return false
}

// Account sub-type classifications used by the balance sheet rollup.
// SubType is free-form; these are the values the default chart uses.
const (
	SubTypeCurrentAsset      = "CURRENT_ASSET"
	SubTypeFixedAsset        = "FIXED_ASSET"
	SubTypeCurrentLiability  = "CURRENT_LIABILITY"
	SubTypeLongTermLiability = "LONG_TERM_LIABILITY"
	SubTypeEquity            = "EQUITY"
)

// Account represents a ledger account in the chart of accounts.
// Code is the stable external identifier and is immutable after creation.
// Balance is the persisted running balance, signed debit-positive
// (debits - credits); the ledger entry stream is the source of truth and
// Balance must always be recomputable from it.
type Account struct {
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	AccountType AccountType     `json:"accountType"`
	SubType     string          `json:"subType"`
	Description string          `json:"description"`
	IsActive    bool            `json:"isActive"`
	Balance     decimal.Decimal `json:"balance"`
	AuditFields
}
