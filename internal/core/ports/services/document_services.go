package services

import (
	"context"

	"github.com/theaavashh/xyxx-sub001/internal/core/domain"
	"github.com/theaavashh/xyxx-sub001/internal/dto"
)

// DocumentSvcFacade defines the transaction generators: purchase entries,
// sales entries and their returns. Each creation deterministically produces
// exactly one posted journal entry; marking paid produces exactly one
// settlement entry.
type DocumentSvcFacade interface {
	CreateDocument(ctx context.Context, docType domain.DocumentType, req dto.CreateDocumentRequest, creatorUserID string) (*domain.Document, error)
	GetDocumentByID(ctx context.Context, documentID string) (*domain.Document, error)
	ListDocuments(ctx context.Context, docType domain.DocumentType, limit int, nextToken *string) (*dto.ListDocumentsResponse, error)
	MarkDocumentPaid(ctx context.Context, documentID string, req dto.MarkDocumentPaidRequest, userID string) (*domain.Document, error)
	// DeleteDocument removes an unpaid document, reverses its journal and
	// clears the party's open balance for it, all atomically;
	// paid/processed documents are locked.
	DeleteDocument(ctx context.Context, documentID string, userID string) error
}
