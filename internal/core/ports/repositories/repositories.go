package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/theaavashh/xyxx-sub001/internal/core/domain"
)

// Context is included on every operation for cancellation and the underlying
// transaction timeout; no repository call blocks indefinitely.

// RepositoryProvider holds all repository interfaces needed by services.
type RepositoryProvider struct {
	AccountRepo   AccountRepositoryWithTx
	JournalRepo   JournalRepositoryWithTx
	LedgerRepo    LedgerRepository
	PartyRepo     PartyRepositoryWithTx
	DocumentRepo  DocumentRepository
	ReportingRepo ReportingRepository
}

// AccountRepository defines the persistence operations for the chart of accounts.
type AccountRepository interface {
	SaveAccount(ctx context.Context, account domain.Account) error
	FindAccountByCode(ctx context.Context, code string) (*domain.Account, error)
	FindAccountsByCodes(ctx context.Context, codes []string) (map[string]domain.Account, error)
	ListAccounts(ctx context.Context, activeOnly bool) ([]domain.Account, error)
	UpdateAccount(ctx context.Context, account domain.Account) error
}

// AccountRepositoryWithTx extends AccountRepository with methods that take
// part in a caller-managed database transaction. Posting locks account rows
// through these so concurrent posts against the same account serialize.
type AccountRepositoryWithTx interface {
	AccountRepository
	FindAccountsForUpdate(ctx context.Context, tx pgx.Tx, codes []string) (map[string]domain.Account, error)
	UpdateAccountBalancesInTx(ctx context.Context, tx pgx.Tx, balanceChanges map[string]decimal.Decimal, userID string, now time.Time) error
}

// JournalRepository defines the persistence operations for journal entries
// and their lines. Saving an entry saves its lines atomically.
type JournalRepository interface {
	// SaveJournal persists a draft entry with its lines and allocates its
	// period-scoped journal number, all in one transaction.
	SaveJournal(ctx context.Context, journal domain.JournalEntry) (*domain.JournalEntry, error)
	FindJournalByID(ctx context.Context, journalID string) (*domain.JournalEntry, error)
	FindLinesByJournalID(ctx context.Context, journalID string) ([]domain.JournalLine, error)
	ListJournals(ctx context.Context, limit int, nextToken *string, includeReversals bool) ([]domain.JournalEntry, *string, error)
	// PostJournal atomically transitions DRAFT -> POSTED: locks the entry and
	// its accounts, appends ledger entries with running balances, updates the
	// persisted account balances and stamps postedBy/postedAt. A non-draft
	// entry causes apperrors.ErrConflict and no state change.
	PostJournal(ctx context.Context, journalID string, postedBy string, postedAt time.Time) (*domain.JournalEntry, error)
	// UpdateDraftJournal replaces the header fields and lines of a DRAFT entry.
	UpdateDraftJournal(ctx context.Context, journal domain.JournalEntry) (*domain.JournalEntry, error)
	DeleteDraftJournal(ctx context.Context, journalID string) error
	// SaveReversalJournal persists and posts a reversing entry and marks the
	// original entry REVERSED with the back-link, in one transaction.
	SaveReversalJournal(ctx context.Context, reversing domain.JournalEntry, originalJournalID string) (*domain.JournalEntry, error)
}

// JournalRepositoryWithTx exposes the journal write path for composition
// into a larger transaction (document creation persists the document and its
// generated journal all-or-nothing).
type JournalRepositoryWithTx interface {
	JournalRepository
	InsertJournalInTx(ctx context.Context, tx pgx.Tx, journal domain.JournalEntry) (*domain.JournalEntry, error)
	PostJournalInTx(ctx context.Context, tx pgx.Tx, journalID string, postedBy string, postedAt time.Time) (*domain.JournalEntry, error)
	SaveReversalJournalInTx(ctx context.Context, tx pgx.Tx, reversing domain.JournalEntry, originalJournalID string) (*domain.JournalEntry, error)
}

// LedgerRepository reads the derived per-account ledger stream.
type LedgerRepository interface {
	// FindLedgerEntries returns the account's entries ordered by
	// (entry_date, created_at, ledger_id) within the optional date window.
	FindLedgerEntries(ctx context.Context, accountCode string, from, to *time.Time) ([]domain.LedgerEntry, error)
	// SignedBalanceAsOf aggregates debit - credit up to the cutoff
	// (inclusive); a nil cutoff means the full stream.
	SignedBalanceAsOf(ctx context.Context, accountCode string, asOf *time.Time) (decimal.Decimal, error)
}

// PartyRepository defines the persistence operations for the party sub-ledger.
type PartyRepository interface {
	SaveParty(ctx context.Context, party domain.Party) error
	FindPartyByID(ctx context.Context, partyID string) (*domain.Party, error)
	FindPartyByNameAndType(ctx context.Context, name string, partyType domain.PartyType) (*domain.Party, error)
	ListParties(ctx context.Context, partyType *domain.PartyType) ([]domain.Party, error)
	UpdateParty(ctx context.Context, party domain.Party) error
	// AppendTransaction locks the party row, stamps the running balance
	// snapshot and the new current balance, and appends the transaction.
	AppendTransaction(ctx context.Context, txn domain.PartyTransaction) (*domain.PartyTransaction, error)
	ListTransactionsByParty(ctx context.Context, partyID string, limit int, nextToken *string) ([]domain.PartyTransaction, *string, error)
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.PartyTransaction, error)
	// SettleTransaction marks a transaction PAID and appends the balancing
	// payment transaction in one database transaction.
	SettleTransaction(ctx context.Context, transactionID string, payment domain.PartyTransaction) (*domain.PartyTransaction, error)
	// FindOpenTransactions returns every OPEN transaction dated on or before
	// asOf, plus the parties they belong to, optionally filtered by type.
	FindOpenTransactions(ctx context.Context, asOf time.Time, partyType *domain.PartyType) ([]domain.PartyTransaction, map[string]domain.Party, error)
}

// PartyRepositoryWithTx exposes the sub-ledger write path for composition
// into document transactions.
type PartyRepositoryWithTx interface {
	PartyRepository
	AppendTransactionInTx(ctx context.Context, tx pgx.Tx, txn domain.PartyTransaction) (*domain.PartyTransaction, error)
	MarkReferencePaidInTx(ctx context.Context, tx pgx.Tx, referenceID string, method string, paidAt time.Time, userID string) error
}

// DocumentRepository defines the persistence operations for purchase/sales
// documents and their generated journals.
type DocumentRepository interface {
	// CreateDocumentWithJournal persists the document, its generated journal
	// entry (saved and posted), and the matching party transaction in one
	// transaction. Nothing is persisted when any step fails.
	CreateDocumentWithJournal(ctx context.Context, doc domain.Document, journal domain.JournalEntry, partyTxn domain.PartyTransaction) (*domain.Document, error)
	FindDocumentByID(ctx context.Context, documentID string) (*domain.Document, error)
	ListDocuments(ctx context.Context, docType domain.DocumentType, limit int, nextToken *string) ([]domain.Document, *string, error)
	// MarkDocumentPaid stamps payment metadata, persists+posts the settlement
	// journal, appends the payment party transaction and settles the open
	// invoice transaction, all in one transaction. A document already PAID
	// causes apperrors.ErrConflict and no state change.
	MarkDocumentPaid(ctx context.Context, documentID string, settlement domain.JournalEntry, paymentTxn domain.PartyTransaction, method string, paidAt time.Time, userID string) (*domain.Document, error)
	// DeleteDocument removes an unpaid document and unwinds its financial side
	// effects in one transaction: the reversing journal is persisted and
	// posted, the balancing adjustment is appended to the party's stream and
	// the open document transaction is settled. A paid document causes
	// apperrors.ErrConflict and no state change.
	DeleteDocument(ctx context.Context, documentID string, reversal domain.JournalEntry, adjustmentTxn domain.PartyTransaction, userID string) error
}

// ReportingRepository aggregates ledger data for reports.
type ReportingRepository interface {
	// GetAccountBalancesAsOf returns, for every account with activity or a
	// non-zero balance, its debit-positive signed balance at the cutoff.
	GetAccountBalancesAsOf(ctx context.Context, asOf time.Time) ([]domain.AccountPeriodBalance, error)
	GetProfitAndLossData(ctx context.Context, from, to time.Time) (revenue []domain.AccountAmount, expenses []domain.AccountAmount, err error)
}
