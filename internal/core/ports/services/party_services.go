package services

import (
	"context"
	"time"

	"github.com/theaavashh/xyxx-sub001/internal/core/domain"
	"github.com/theaavashh/xyxx-sub001/internal/dto"
)

// PartySvcFacade defines the debtor/creditor sub-ledger operations.
type PartySvcFacade interface {
	CreateParty(ctx context.Context, req dto.CreatePartyRequest, creatorUserID string) (*domain.Party, error)
	GetPartyByID(ctx context.Context, partyID string) (*domain.Party, error)
	ListParties(ctx context.Context, partyType *domain.PartyType) ([]domain.Party, error)
	// RecordTransaction appends to the party's stream and recomputes the
	// cached balance. Unknown parties are rejected.
	RecordTransaction(ctx context.Context, partyID string, req dto.RecordPartyTransactionRequest, userID string) (*domain.PartyTransaction, error)
	ListTransactions(ctx context.Context, partyID string, limit int, nextToken *string) (*dto.ListPartyTransactionsResponse, error)
	// MarkTransactionPaid settles an open transaction; a second call fails.
	MarkTransactionPaid(ctx context.Context, transactionID string, req dto.MarkTransactionPaidRequest, userID string) (*domain.PartyTransaction, error)
	// ComputeAging buckets every open transaction by elapsed days at asOf.
	ComputeAging(ctx context.Context, asOf time.Time, partyType *domain.PartyType) (*domain.AgingReport, error)
}
