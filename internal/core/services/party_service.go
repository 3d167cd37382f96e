package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/theaavashh/xyxx-sub001/internal/apperrors"
	"github.com/theaavashh/xyxx-sub001/internal/core/domain"
	portsrepo "github.com/theaavashh/xyxx-sub001/internal/core/ports/repositories"
	portssvc "github.com/theaavashh/xyxx-sub001/internal/core/ports/services"
	"github.com/theaavashh/xyxx-sub001/internal/dto"
	"github.com/theaavashh/xyxx-sub001/internal/middleware"
)

var (
	ErrPartyNotFound     = errors.New("party not found")
	ErrDuplicateParty    = errors.New("a party with this name and type already exists")
	ErrDegenerateTxn     = errors.New("party transaction must carry exactly one of debit or credit, positive")
	ErrTxnAlreadySettled = errors.New("party transaction is already settled")
)

type partyService struct {
	partyRepo portsrepo.PartyRepository
}

// NewPartyService creates a new party sub-ledger service.
func NewPartyService(partyRepo portsrepo.PartyRepository) portssvc.PartySvcFacade {
	return &partyService{partyRepo: partyRepo}
}

var _ portssvc.PartySvcFacade = (*partyService)(nil)

// CreateParty registers a customer or supplier. Name and type together must
// be unique.
func (s *partyService) CreateParty(ctx context.Context, req dto.CreatePartyRequest, creatorUserID string) (*domain.Party, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	partyType := domain.PartyType(req.PartyType)
	if !partyType.IsValid() {
		return nil, fmt.Errorf("%w: invalid party type %q", apperrors.ErrValidation, req.PartyType)
	}
	if req.OpeningBalance.IsNegative() {
		return nil, fmt.Errorf("%w: opening balance cannot be negative", apperrors.ErrValidation)
	}

	existing, err := s.partyRepo.FindPartyByNameAndType(ctx, req.Name, partyType)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		logger.Error("Failed to check for existing party", slog.String("error", err.Error()), slog.String("name", req.Name))
		return nil, fmt.Errorf("failed to check party %s: %w", req.Name, err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s (%s)", ErrDuplicateParty, req.Name, partyType)
	}

	side := domain.DebitBalance
	if req.OpeningBalanceSide == string(domain.CreditBalance) {
		side = domain.CreditBalance
	}

	now := time.Now().UTC()
	party := domain.Party{
		PartyID:            uuid.NewString(),
		Name:               req.Name,
		PartyType:          partyType,
		OpeningBalance:     req.OpeningBalance,
		OpeningBalanceSide: side,
		IsActive:           true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}
	party.CurrentBalance = party.SignedOpeningBalance()

	if err := s.partyRepo.SaveParty(ctx, party); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("%w: %s (%s)", ErrDuplicateParty, req.Name, partyType)
		}
		logger.Error("Failed to save party", slog.String("error", err.Error()), slog.String("name", req.Name))
		return nil, fmt.Errorf("failed to save party: %w", err)
	}

	logger.Info("Party created", slog.String("party_id", party.PartyID), slog.String("party_type", string(partyType)))
	return &party, nil
}

// GetPartyByID retrieves a single party.
func (s *partyService) GetPartyByID(ctx context.Context, partyID string) (*domain.Party, error) {
	party, err := s.partyRepo.FindPartyByID(ctx, partyID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPartyNotFound, partyID)
		}
		middleware.GetLoggerFromCtx(ctx).Error("Failed to find party", slog.String("error", err.Error()), slog.String("party_id", partyID))
		return nil, err
	}
	return party, nil
}

// ListParties returns parties, optionally filtered by type.
func (s *partyService) ListParties(ctx context.Context, partyType *domain.PartyType) ([]domain.Party, error) {
	parties, err := s.partyRepo.ListParties(ctx, partyType)
	if err != nil {
		middleware.GetLoggerFromCtx(ctx).Error("Failed to list parties", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list parties: %w", err)
	}
	return parties, nil
}

// RecordTransaction appends to the party's stream. The repository locks the
// party row, snapshots the running balance onto the transaction and updates
// the cached current balance atomically.
func (s *partyService) RecordTransaction(ctx context.Context, partyID string, req dto.RecordPartyTransactionRequest, userID string) (*domain.PartyTransaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.GetPartyByID(ctx, partyID); err != nil {
		return nil, err
	}

	hasDebit := req.Debit != nil && !req.Debit.IsZero()
	hasCredit := req.Credit != nil && !req.Credit.IsZero()
	if hasDebit == hasCredit {
		return nil, ErrDegenerateTxn
	}

	debit, credit := decimal.Zero, decimal.Zero
	if hasDebit {
		debit = *req.Debit
	} else {
		credit = *req.Credit
	}
	if debit.IsNegative() || credit.IsNegative() {
		return nil, ErrDegenerateTxn
	}

	now := time.Now().UTC()
	txn := domain.PartyTransaction{
		TransactionID: uuid.NewString(),
		PartyID:       partyID,
		TxnDate:       req.Date,
		Description:   req.Description,
		ReferenceID:   req.ReferenceID,
		ReferenceType: domain.ReferenceType(req.ReferenceType),
		Debit:         debit,
		Credit:        credit,
		Status:        domain.TxnOpen,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	saved, err := s.partyRepo.AppendTransaction(ctx, txn)
	if err != nil {
		logger.Error("Failed to append party transaction", slog.String("error", err.Error()), slog.String("party_id", partyID))
		return nil, fmt.Errorf("failed to record transaction for party %s: %w", partyID, err)
	}

	logger.Info("Party transaction recorded", slog.String("party_id", partyID), slog.String("transaction_id", saved.TransactionID), slog.String("reference_type", string(saved.ReferenceType)))
	return saved, nil
}

// ListTransactions returns a page of a party's transaction stream together
// with the party header.
func (s *partyService) ListTransactions(ctx context.Context, partyID string, limit int, nextToken *string) (*dto.ListPartyTransactionsResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	party, err := s.GetPartyByID(ctx, partyID)
	if err != nil {
		return nil, err
	}

	txns, next, err := s.partyRepo.ListTransactionsByParty(ctx, partyID, limit, nextToken)
	if err != nil {
		logger.Error("Failed to list party transactions", slog.String("error", err.Error()), slog.String("party_id", partyID))
		return nil, fmt.Errorf("failed to list transactions for party %s: %w", partyID, err)
	}

	return &dto.ListPartyTransactionsResponse{
		Party:        dto.ToPartyResponse(party),
		Transactions: dto.ToPartyTransactionResponses(txns),
		NextToken:    next,
	}, nil
}

// MarkTransactionPaid settles an OPEN transaction. The stream stays
// append-only: settlement stamps the original transaction PAID and appends a
// balancing PAYMENT transaction for the open amount, so the party balance
// reflects the settlement without rewriting history.
func (s *partyService) MarkTransactionPaid(ctx context.Context, transactionID string, req dto.MarkTransactionPaidRequest, userID string) (*domain.PartyTransaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	txn, err := s.partyRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		logger.Error("Failed to find party transaction", slog.String("error", err.Error()), slog.String("transaction_id", transactionID))
		return nil, err
	}
	if txn.Status == domain.TxnPaid {
		return nil, fmt.Errorf("%w: %s", ErrTxnAlreadySettled, transactionID)
	}

	paidAt := time.Now().UTC()
	if req.PaymentDate != nil {
		paidAt = *req.PaymentDate
	}

	// The payment moves the party balance opposite to the settled transaction.
	open := txn.OpenAmount()
	debit, credit := decimal.Zero, decimal.Zero
	if txn.Debit.GreaterThan(txn.Credit) {
		credit = open
	} else {
		debit = open
	}

	payment := domain.PartyTransaction{
		TransactionID: uuid.NewString(),
		PartyID:       txn.PartyID,
		TxnDate:       paidAt,
		Description:   fmt.Sprintf("Payment (%s) settling %s", req.PaymentMethod, txn.Description),
		ReferenceID:   txn.TransactionID,
		ReferenceType: domain.RefPayment,
		Debit:         debit,
		Credit:        credit,
		Status:        domain.TxnPaid,
		PaidAt:        &paidAt,
		PaymentMethod: req.PaymentMethod,
		AuditFields: domain.AuditFields{
			CreatedAt:     paidAt,
			CreatedBy:     userID,
			LastUpdatedAt: paidAt,
			LastUpdatedBy: userID,
		},
	}

	settled, err := s.partyRepo.SettleTransaction(ctx, transactionID, payment)
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("%w: %s", ErrTxnAlreadySettled, transactionID)
		}
		logger.Error("Failed to settle party transaction", slog.String("error", err.Error()), slog.String("transaction_id", transactionID))
		return nil, fmt.Errorf("failed to settle transaction %s: %w", transactionID, err)
	}

	logger.Info("Party transaction settled", slog.String("transaction_id", transactionID), slog.String("payment_method", req.PaymentMethod))
	return settled, nil
}

// AgeBucketFor places an elapsed-days value into its aging bucket. Bucket
// boundaries are inclusive on the lower side: day 30 is CURRENT, day 60 is
// DAYS_31_60, and so on.
func AgeBucketFor(ageDays int) domain.AgingBucket {
	switch {
	case ageDays <= 30:
		return domain.BucketCurrent
	case ageDays <= 60:
		return domain.Bucket60
	case ageDays <= 90:
		return domain.Bucket90
	case ageDays <= 180:
		return domain.Bucket180
	default:
		return domain.BucketOver180
	}
}

// ComputeAging buckets every OPEN transaction dated on or before asOf by its
// elapsed age in whole days. Each transaction lands in exactly one bucket, so
// per-bucket totals always sum to the grand total.
func (s *partyService) ComputeAging(ctx context.Context, asOf time.Time, partyType *domain.PartyType) (*domain.AgingReport, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	openTxns, parties, err := s.partyRepo.FindOpenTransactions(ctx, asOf, partyType)
	if err != nil {
		logger.Error("Failed to fetch open transactions for aging", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to compute aging: %w", err)
	}

	report := &domain.AgingReport{
		AsOf:    asOf,
		Parties: []domain.PartyAging{},
		Totals:  make(map[domain.AgingBucket]decimal.Decimal, len(domain.AgingBuckets)),
		Total:   decimal.Zero,
	}
	for _, bucket := range domain.AgingBuckets {
		report.Totals[bucket] = decimal.Zero
	}

	perParty := make(map[string]*domain.PartyAging)
	for _, txn := range openTxns {
		party, ok := parties[txn.PartyID]
		if !ok {
			// Orphaned transaction; the repository query should never produce one.
			logger.Warn("Open transaction references unknown party", slog.String("transaction_id", txn.TransactionID), slog.String("party_id", txn.PartyID))
			continue
		}

		ageDays := int(asOf.Sub(txn.TxnDate).Hours() / 24)
		if ageDays < 0 {
			ageDays = 0
		}
		bucket := AgeBucketFor(ageDays)
		amount := txn.OpenAmount()

		aging, ok := perParty[txn.PartyID]
		if !ok {
			aging = &domain.PartyAging{
				PartyID:   party.PartyID,
				PartyName: party.Name,
				PartyType: party.PartyType,
				Buckets:   make(map[domain.AgingBucket]decimal.Decimal, len(domain.AgingBuckets)),
				Total:     decimal.Zero,
			}
			for _, b := range domain.AgingBuckets {
				aging.Buckets[b] = decimal.Zero
			}
			perParty[txn.PartyID] = aging
		}

		aging.Buckets[bucket] = aging.Buckets[bucket].Add(amount)
		aging.Total = aging.Total.Add(amount)
		report.Totals[bucket] = report.Totals[bucket].Add(amount)
		report.Total = report.Total.Add(amount)
	}

	for _, aging := range perParty {
		report.Parties = append(report.Parties, *aging)
	}
	sort.Slice(report.Parties, func(i, j int) bool {
		return report.Parties[i].PartyName < report.Parties[j].PartyName
	})

	return report, nil
}
