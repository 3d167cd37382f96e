package services

import (
	"context"

	"github.com/theaavashh/xyxx-sub001/internal/core/domain"
	"github.com/theaavashh/xyxx-sub001/internal/dto"
)

// JournalSvcFacade defines the journal engine: the single validated write
// path for financial truth. All generated journals (documents, settlements,
// reversals) go through this facade, never to storage directly.
type JournalSvcFacade interface {
	// CreateJournal validates and persists a draft entry. On validation
	// failure the specific error is returned and nothing is persisted.
	CreateJournal(ctx context.Context, req dto.CreateJournalRequest, creatorUserID string) (*domain.JournalEntry, error)
	GetJournalByID(ctx context.Context, journalID string) (*domain.JournalEntry, error)
	ListJournals(ctx context.Context, params dto.ListJournalsParams) (*dto.ListJournalsResponse, error)
	// PostJournal transitions DRAFT -> POSTED and projects the ledger.
	// Posting twice is rejected, never silently absorbed.
	PostJournal(ctx context.Context, journalID string, userID string) (*domain.JournalEntry, error)
	// UpdateJournal replaces the draft's fields/lines; posted entries are immutable.
	UpdateJournal(ctx context.Context, journalID string, req dto.UpdateJournalRequest, userID string) (*domain.JournalEntry, error)
	DeleteJournal(ctx context.Context, journalID string, userID string) error
	// ReverseJournal creates and posts the reversing entry for a posted
	// journal; the only sanctioned correction of posted history.
	ReverseJournal(ctx context.Context, journalID string, userID string) (*domain.JournalEntry, error)
}
