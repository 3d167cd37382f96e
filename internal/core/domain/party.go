package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PartyType distinguishes the two kinds of external parties the sub-ledger
// tracks. Customers are debtors, suppliers are creditors.
type PartyType string

const (
	Customer PartyType = "CUSTOMER"
	Supplier PartyType = "SUPPLIER"
)

// IsValid reports whether t is a known party type.
func (t PartyType) IsValid() bool {
	return t == Customer || t == Supplier
}

// Party is a customer or supplier with its own sub-ledger, independent of
// the chart of accounts. Name+Type uniquely identify a party.
// CurrentBalance is signed debit-positive and is a cache: it must always
// equal the signed opening balance plus the sum of (debit - credit) over
// the transaction stream.
type Party struct {
	PartyID            string          `json:"partyID"`
	Name               string          `json:"name"`
	PartyType          PartyType       `json:"partyType"`
	OpeningBalance     decimal.Decimal `json:"openingBalance"`
	OpeningBalanceSide BalanceSide     `json:"openingBalanceSide"`
	CurrentBalance     decimal.Decimal `json:"currentBalance"`
	IsActive           bool            `json:"isActive"`
	AuditFields
}

// SignedOpeningBalance returns the opening balance with debit-positive sign.
func (p Party) SignedOpeningBalance() decimal.Decimal {
	if p.OpeningBalanceSide == CreditBalance {
		return p.OpeningBalance.Neg()
	}
	return p.OpeningBalance
}

// ReferenceType classifies what a party transaction settles or records.
type ReferenceType string

const (
	RefInvoice    ReferenceType = "INVOICE"
	RefPayment    ReferenceType = "PAYMENT"
	RefPurchase   ReferenceType = "PURCHASE"
	RefAdjustment ReferenceType = "ADJUSTMENT"
)

// PartyTxnStatus is the settlement state of a party transaction.
type PartyTxnStatus string

const (
	TxnOpen PartyTxnStatus = "OPEN"
	TxnPaid PartyTxnStatus = "PAID"
)

// PartyTransaction is one append-only movement in a party's sub-ledger.
// Corrections are recorded as new ADJUSTMENT transactions, never edits.
// Balance is the party balance snapshot after this transaction.
type PartyTransaction struct {
	TransactionID string          `json:"transactionID"`
	PartyID       string          `json:"partyID"`
	TxnDate       time.Time       `json:"txnDate"`
	Description   string          `json:"description"`
	ReferenceID   string          `json:"referenceID,omitempty"`
	ReferenceType ReferenceType   `json:"referenceType"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
	Balance       decimal.Decimal `json:"balance"`
	Status        PartyTxnStatus  `json:"status"`
	PaidAt        *time.Time      `json:"paidAt,omitempty"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
	AuditFields
}

// OpenAmount is the outstanding magnitude of an open transaction,
// |debit - credit|.
func (t PartyTransaction) OpenAmount() decimal.Decimal {
	return t.Debit.Sub(t.Credit).Abs()
}

// AgingBucket identifies one elapsed-time band in an aging report.
type AgingBucket string

const (
	BucketCurrent AgingBucket = "CURRENT" // 0-30 days, day 30 inclusive
	Bucket60      AgingBucket = "DAYS_31_60"
	Bucket90      AgingBucket = "DAYS_61_90"
	Bucket180     AgingBucket = "DAYS_91_180"
	BucketOver180 AgingBucket = "OVER_180"
)

// AgingBuckets orders the buckets for presentation.
var AgingBuckets = []AgingBucket{BucketCurrent, Bucket60, Bucket90, Bucket180, BucketOver180}

// PartyAging is the bucketed open balance for one party.
type PartyAging struct {
	PartyID   string                          `json:"partyID"`
	PartyName string                          `json:"partyName"`
	PartyType PartyType                       `json:"partyType"`
	Buckets   map[AgingBucket]decimal.Decimal `json:"buckets"`
	Total     decimal.Decimal                 `json:"total"`
}

// AgingReport is the full aging analysis as of a date: one row per party
// with open transactions, plus the aggregate per bucket. Every open
// transaction lands in exactly one bucket, so the bucket totals sum to the
// grand total.
type AgingReport struct {
	AsOf    time.Time                       `json:"asOf"`
	Parties []PartyAging                    `json:"parties"`
	Totals  map[AgingBucket]decimal.Decimal `json:"totals"`
	Total   decimal.Decimal                 `json:"total"`
}
