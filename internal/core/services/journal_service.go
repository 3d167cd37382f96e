package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/theaavashh/xyxx-sub001/internal/apperrors"
	"github.com/theaavashh/xyxx-sub001/internal/core/domain"
	portsrepo "github.com/theaavashh/xyxx-sub001/internal/core/ports/repositories"
	portssvc "github.com/theaavashh/xyxx-sub001/internal/core/ports/services"
	"github.com/theaavashh/xyxx-sub001/internal/dto"
	"github.com/theaavashh/xyxx-sub001/internal/middleware"
	"github.com/theaavashh/xyxx-sub001/internal/utils/accounting"
)

var (
	ErrUnbalancedEntry      = errors.New("journal entry debits and credits do not balance")
	ErrDegenerateLine       = errors.New("journal line must carry exactly one of debit or credit, positive")
	ErrInsufficientLines    = errors.New("journal entry must have at least two lines")
	ErrInsufficientAccounts = errors.New("journal entry must touch at least two different accounts")
	ErrImmutableEntry       = errors.New("posted journal entries cannot be modified or deleted")
	ErrAlreadyPosted        = errors.New("journal entry is already posted")
	ErrAccountNotFound      = errors.New("account not found")
	ErrDescriptionMissing   = errors.New("journal description is required")
)

// journalService implements the journal engine. It is the exclusive owner
// of the JournalEntry/JournalLine lifecycle; every other component reaches
// the ledger through it.
type journalService struct {
	journalRepo portsrepo.JournalRepository
	accountSvc  portssvc.AccountSvcFacade
}

// NewJournalService creates a new journal engine service.
func NewJournalService(journalRepo portsrepo.JournalRepository, accountSvc portssvc.AccountSvcFacade) portssvc.JournalSvcFacade {
	return &journalService{
		journalRepo: journalRepo,
		accountSvc:  accountSvc,
	}
}

var _ portssvc.JournalSvcFacade = (*journalService)(nil)

// buildJournalLines converts line requests into domain lines, enforcing the
// debit-XOR-credit invariant per line.
func buildJournalLines(journalID string, reqLines []dto.JournalLineRequest, creatorUserID string, now time.Time) ([]domain.JournalLine, error) {
	lines := make([]domain.JournalLine, len(reqLines))
	for i, lr := range reqLines {
		hasDebit := lr.Debit != nil && !lr.Debit.IsZero()
		hasCredit := lr.Credit != nil && !lr.Credit.IsZero()
		if hasDebit == hasCredit {
			return nil, fmt.Errorf("%w: line %d for account %s", ErrDegenerateLine, i+1, lr.AccountCode)
		}

		side := domain.Debit
		amount := decimal.Zero
		if hasDebit {
			amount = *lr.Debit
		} else {
			side = domain.Credit
			amount = *lr.Credit
		}
		if amount.IsNegative() {
			return nil, fmt.Errorf("%w: line %d has a negative amount", ErrDegenerateLine, i+1)
		}

		lines[i] = domain.JournalLine{
			LineID:      uuid.NewString(),
			JournalID:   journalID,
			AccountCode: lr.AccountCode,
			Side:        side,
			Amount:      amount,
			Notes:       lr.Notes,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     creatorUserID,
				LastUpdatedAt: now,
				LastUpdatedBy: creatorUserID,
			},
		}
	}
	return lines, nil
}

// validateEntryLines runs the journal engine's structural checks: minimum
// lines, minimum distinct accounts, and the balance invariant within
// tolerance. Totals are recomputed from the lines, never trusted from input.
func validateEntryLines(lines []domain.JournalLine) (totalDebit, totalCredit decimal.Decimal, err error) {
	if len(lines) < 2 {
		return decimal.Zero, decimal.Zero, ErrInsufficientLines
	}

	accountSet := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		accountSet[line.AccountCode] = struct{}{}
	}
	if len(accountSet) < 2 {
		return decimal.Zero, decimal.Zero, ErrInsufficientAccounts
	}

	totalDebit, totalCredit = accounting.EntryTotals(lines)
	if !accounting.IsBalanced(totalDebit, totalCredit) {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: debits %s, credits %s",
			ErrUnbalancedEntry, totalDebit.String(), totalCredit.String())
	}
	return totalDebit, totalCredit, nil
}

// resolveEntryAccounts fetches the referenced accounts and rejects missing
// or inactive ones.
func (s *journalService) resolveEntryAccounts(ctx context.Context, lines []domain.JournalLine) (map[string]domain.Account, error) {
	codes := make([]string, 0, len(lines))
	seen := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.AccountCode]; ok {
			continue
		}
		seen[line.AccountCode] = struct{}{}
		codes = append(codes, line.AccountCode)
	}

	accountsMap, err := s.accountSvc.GetAccountsByCodes(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}
	for _, code := range codes {
		acc, found := accountsMap[code]
		if !found {
			return nil, fmt.Errorf("%w: code %s", ErrAccountNotFound, code)
		}
		if !acc.IsActive {
			return nil, fmt.Errorf("%w: account %s is inactive", apperrors.ErrValidation, code)
		}
	}
	return accountsMap, nil
}

// CreateJournal validates and persists a new draft journal entry.
// Implements portssvc.JournalSvcFacade.
func (s *journalService) CreateJournal(ctx context.Context, req dto.CreateJournalRequest, creatorUserID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.Description == "" {
		return nil, ErrDescriptionMissing
	}

	now := time.Now().UTC()
	journalID := uuid.NewString()

	lines, err := buildJournalLines(journalID, req.Lines, creatorUserID, now)
	if err != nil {
		return nil, err
	}

	totalDebit, totalCredit, err := validateEntryLines(lines)
	if err != nil {
		return nil, err
	}

	if _, err := s.resolveEntryAccounts(ctx, lines); err != nil {
		return nil, err
	}

	entry := domain.JournalEntry{
		JournalID:   journalID,
		EntryDate:   req.Date,
		Description: req.Description,
		PartyLabel:  req.PartyLabel,
		Status:      domain.Draft,
		TotalDebit:  totalDebit,
		TotalCredit: totalCredit,
		Lines:       lines,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	saved, err := s.journalRepo.SaveJournal(ctx, entry)
	if err != nil {
		logger.Error("Failed to save journal draft", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save journal: %w", err)
	}

	logger.Info("Journal draft created", slog.String("journal_id", saved.JournalID), slog.String("journal_number", saved.JournalNumber))
	return saved, nil
}

// GetJournalByID retrieves a journal entry with its lines.
func (s *journalService) GetJournalByID(ctx context.Context, journalID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	journal, err := s.journalRepo.FindJournalByID(ctx, journalID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to find journal by ID", slog.String("error", err.Error()), slog.String("journal_id", journalID))
		}
		return nil, err
	}

	lines, err := s.journalRepo.FindLinesByJournalID(ctx, journalID)
	if err != nil {
		logger.Error("Failed to fetch lines for journal", slog.String("error", err.Error()), slog.String("journal_id", journalID))
		return nil, fmt.Errorf("failed to retrieve lines for journal %s: %w", journalID, err)
	}
	journal.Lines = lines

	return journal, nil
}

// ListJournals retrieves a paginated list of journal entries.
func (s *journalService) ListJournals(ctx context.Context, params dto.ListJournalsParams) (*dto.ListJournalsResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	journals, nextToken, err := s.journalRepo.ListJournals(ctx, params.Limit, params.NextToken, params.IncludeReversals)
	if err != nil {
		logger.Error("Failed to list journals from repository", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to retrieve journals: %w", err)
	}

	journalResponses := make([]dto.JournalResponse, len(journals))
	for i := range journals {
		journalResponses[i] = dto.ToJournalResponse(&journals[i])
	}

	return &dto.ListJournalsResponse{
		Journals:  journalResponses,
		NextToken: nextToken,
	}, nil
}

// PostJournal transitions a draft entry to POSTED and projects its lines
// onto the ledger. The repository re-checks the status under lock so two
// concurrent posts cannot both succeed; the loser gets ErrAlreadyPosted.
func (s *journalService) PostJournal(ctx context.Context, journalID string, userID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	journal, err := s.journalRepo.FindJournalByID(ctx, journalID)
	if err != nil {
		return nil, err
	}
	if journal.Status == domain.Posted || journal.Status == domain.Reversed {
		return nil, fmt.Errorf("%w: journal %s", ErrAlreadyPosted, journalID)
	}

	now := time.Now().UTC()
	posted, err := s.journalRepo.PostJournal(ctx, journalID, userID, now)
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			// Lost the race: someone else posted between our read and the lock.
			return nil, fmt.Errorf("%w: journal %s", ErrAlreadyPosted, journalID)
		}
		logger.Error("Failed to post journal", slog.String("error", err.Error()), slog.String("journal_id", journalID))
		return nil, fmt.Errorf("failed to post journal %s: %w", journalID, err)
	}

	logger.Info("Journal posted", slog.String("journal_id", journalID), slog.String("journal_number", posted.JournalNumber), slog.String("posted_by", userID))
	return posted, nil
}

// UpdateJournal replaces the fields and (optionally) lines of a DRAFT entry.
func (s *journalService) UpdateJournal(ctx context.Context, journalID string, req dto.UpdateJournalRequest, userID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	journal, err := s.GetJournalByID(ctx, journalID)
	if err != nil {
		return nil, err
	}
	if journal.Status != domain.Draft {
		return nil, fmt.Errorf("%w: journal %s is %s", ErrImmutableEntry, journalID, journal.Status)
	}

	now := time.Now().UTC()
	if req.Date != nil {
		journal.EntryDate = *req.Date
	}
	if req.Description != nil {
		if *req.Description == "" {
			return nil, ErrDescriptionMissing
		}
		journal.Description = *req.Description
	}
	if req.PartyLabel != nil {
		journal.PartyLabel = *req.PartyLabel
	}

	if req.Lines != nil {
		lines, err := buildJournalLines(journalID, req.Lines, userID, now)
		if err != nil {
			return nil, err
		}
		totalDebit, totalCredit, err := validateEntryLines(lines)
		if err != nil {
			return nil, err
		}
		if _, err := s.resolveEntryAccounts(ctx, lines); err != nil {
			return nil, err
		}
		journal.Lines = lines
		journal.TotalDebit = totalDebit
		journal.TotalCredit = totalCredit
	}

	journal.LastUpdatedAt = now
	journal.LastUpdatedBy = userID

	updated, err := s.journalRepo.UpdateDraftJournal(ctx, *journal)
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("%w: journal %s", ErrImmutableEntry, journalID)
		}
		logger.Error("Failed to update journal draft", slog.String("error", err.Error()), slog.String("journal_id", journalID))
		return nil, fmt.Errorf("failed to update journal %s: %w", journalID, err)
	}

	logger.Info("Journal draft updated", slog.String("journal_id", journalID))
	return updated, nil
}

// DeleteJournal removes a DRAFT entry. Posted entries are never deleted.
func (s *journalService) DeleteJournal(ctx context.Context, journalID string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	journal, err := s.journalRepo.FindJournalByID(ctx, journalID)
	if err != nil {
		return err
	}
	if journal.Status != domain.Draft {
		return fmt.Errorf("%w: journal %s is %s", ErrImmutableEntry, journalID, journal.Status)
	}

	if err := s.journalRepo.DeleteDraftJournal(ctx, journalID); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return fmt.Errorf("%w: journal %s", ErrImmutableEntry, journalID)
		}
		logger.Error("Failed to delete journal draft", slog.String("error", err.Error()), slog.String("journal_id", journalID))
		return fmt.Errorf("failed to delete journal %s: %w", journalID, err)
	}

	logger.Info("Journal draft deleted", slog.String("journal_id", journalID), slog.String("deleted_by", userID))
	return nil
}

// ReverseJournal creates and posts the entry that undoes a posted journal:
// same lines with debit/credit sides swapped. The original is marked
// REVERSED and linked to its reversal.
func (s *journalService) ReverseJournal(ctx context.Context, journalID string, userID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	original, err := s.GetJournalByID(ctx, journalID)
	if err != nil {
		return nil, err
	}
	if original.Status != domain.Posted {
		return nil, fmt.Errorf("%w: journal status is %s, expected POSTED", apperrors.ErrConflict, original.Status)
	}
	if original.OriginalJournalID != nil {
		return nil, fmt.Errorf("%w: cannot reverse a journal that is already a reversal", apperrors.ErrConflict)
	}
	if original.ReversingJournalID != nil {
		return nil, fmt.Errorf("%w: journal %s is already reversed", apperrors.ErrConflict, journalID)
	}

	now := time.Now().UTC()
	reversing := buildReversingEntry(original, userID, now)

	saved, err := s.journalRepo.SaveReversalJournal(ctx, reversing, original.JournalID)
	if err != nil {
		logger.Error("Failed to save reversing journal", slog.String("error", err.Error()), slog.String("original_journal_id", journalID))
		return nil, fmt.Errorf("failed to reverse journal %s: %w", journalID, err)
	}

	logger.Info("Journal reversed", slog.String("original_journal_id", journalID), slog.String("reversing_journal_id", saved.JournalID))
	return saved, nil
}

// buildReversingEntry constructs the posted entry that undoes a posted
// journal: the same lines with debit and credit swapped, linked back to the
// original. Document deletion builds its compensating entry through this too.
func buildReversingEntry(original *domain.JournalEntry, userID string, now time.Time) domain.JournalEntry {
	reversingID := uuid.NewString()
	audit := domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     userID,
		LastUpdatedAt: now,
		LastUpdatedBy: userID,
	}

	reversingLines := make([]domain.JournalLine, len(original.Lines))
	for i, origLine := range original.Lines {
		side := domain.Credit
		if origLine.Side == domain.Credit {
			side = domain.Debit
		}
		reversingLines[i] = domain.JournalLine{
			LineID:      uuid.NewString(),
			JournalID:   reversingID,
			AccountCode: origLine.AccountCode,
			Side:        side,
			Amount:      origLine.Amount,
			Notes:       origLine.Notes,
			AuditFields: audit,
		}
	}

	return domain.JournalEntry{
		JournalID:         reversingID,
		EntryDate:         original.EntryDate,
		Description:       fmt.Sprintf("Reversal of %s: %s", original.JournalNumber, original.Description),
		PartyLabel:        original.PartyLabel,
		Status:            domain.Posted,
		TotalDebit:        original.TotalCredit,
		TotalCredit:       original.TotalDebit,
		PostedBy:          &userID,
		PostedAt:          &now,
		OriginalJournalID: &original.JournalID,
		Lines:             reversingLines,
		AuditFields:       audit,
	}
}
