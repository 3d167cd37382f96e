package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalStatus indicates the lifecycle state of a journal entry.
type JournalStatus string

const (
	Draft    JournalStatus = "DRAFT"
	Posted   JournalStatus = "POSTED"
	Reversed JournalStatus = "REVERSED"
)

// EntrySide indicates whether a journal line debits or credits its account.
type EntrySide string

const (
	Debit  EntrySide = "DEBIT"
	Credit EntrySide = "CREDIT"
)

// JournalEntry represents a single balanced financial event composed of
// multiple lines. Entries are created in DRAFT and transition exactly once
// to POSTED; a posted entry is immutable and can only be corrected through
// a reversing entry.
type JournalEntry struct {
	JournalID     string          `json:"journalID"`
	JournalNumber string          `json:"journalNumber"` // unique, monotonic within its period (JV-YYYYMM-NNNN)
	EntryDate     time.Time       `json:"entryDate"`
	Description   string          `json:"description"`
	PartyLabel    string          `json:"partyLabel"` // company / counterparty label, informational
	Status        JournalStatus   `json:"status"`
	TotalDebit    decimal.Decimal `json:"totalDebit"`
	TotalCredit   decimal.Decimal `json:"totalCredit"`
	PostedBy      *string         `json:"postedBy,omitempty"`
	PostedAt      *time.Time      `json:"postedAt,omitempty"`
	// Reversal links. OriginalJournalID is set on a reversing entry;
	// ReversingJournalID is stamped on the entry that was reversed.
	OriginalJournalID  *string `json:"originalJournalID,omitempty"`
	ReversingJournalID *string `json:"reversingJournalID,omitempty"`

	Lines []JournalLine `json:"lines,omitempty"`
	AuditFields
}

// JournalLine is a single debit or credit against one account within a
// journal entry. Exactly one side carries the (positive) amount; the
// Side/Amount pair makes the debit-XOR-credit invariant structural.
// Lines are immutable once their parent entry is posted.
type JournalLine struct {
	LineID      string          `json:"lineID"`
	JournalID   string          `json:"journalID"`
	AccountCode string          `json:"accountCode"`
	Side        EntrySide       `json:"side"`
	Amount      decimal.Decimal `json:"amount"`
	Notes       string          `json:"notes,omitempty"`
	AuditFields
}

// DebitAmount returns the line amount when the line is a debit, zero otherwise.
func (l JournalLine) DebitAmount() decimal.Decimal {
	if l.Side == Debit {
		return l.Amount
	}
	return decimal.Zero
}

// CreditAmount returns the line amount when the line is a credit, zero otherwise.
func (l JournalLine) CreditAmount() decimal.Decimal {
	if l.Side == Credit {
		return l.Amount
	}
	return decimal.Zero
}
