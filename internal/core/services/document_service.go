package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
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
	ErrAlreadyPaid       = errors.New("document is already marked paid")
	ErrLockedDocument    = errors.New("paid documents cannot be modified or deleted")
	ErrWrongPartyType    = errors.New("party type does not match the document type")
	ErrNegativeDocAmount = errors.New("document amounts cannot be negative")
)

type documentService struct {
	documentRepo   portsrepo.DocumentRepository
	partySvc       portssvc.PartySvcFacade
	journalSvc     portssvc.JournalSvcFacade
	defaultVATRate decimal.Decimal
}

// NewDocumentService creates the transaction-generator service. The default
// VAT rate applies whenever a document omits its own rate.
func NewDocumentService(documentRepo portsrepo.DocumentRepository, partySvc portssvc.PartySvcFacade, journalSvc portssvc.JournalSvcFacade, defaultVATRate decimal.Decimal) portssvc.DocumentSvcFacade {
	return &documentService{
		documentRepo:   documentRepo,
		partySvc:       partySvc,
		journalSvc:     journalSvc,
		defaultVATRate: defaultVATRate,
	}
}

var _ portssvc.DocumentSvcFacade = (*documentService)(nil)

func documentTypeLabel(docType domain.DocumentType) string {
	switch docType {
	case domain.PurchaseDocument:
		return "Purchase"
	case domain.SalesDocument:
		return "Sales"
	case domain.PurchaseReturnDoc:
		return "Purchase return"
	default:
		return "Sales return"
	}
}

func documentNumberPrefix(docType domain.DocumentType) string {
	switch docType {
	case domain.PurchaseDocument:
		return "PUR"
	case domain.SalesDocument:
		return "SAL"
	case domain.PurchaseReturnDoc:
		return "PRN"
	default:
		return "SRN"
	}
}

func isPurchaseFamily(docType domain.DocumentType) bool {
	return docType == domain.PurchaseDocument || docType == domain.PurchaseReturnDoc
}

// controlAccountSide is the side of the party control-account line on the
// document's generated journal. Purchases credit A/P, sales debit A/R;
// returns mirror.
func controlAccountSide(docType domain.DocumentType) domain.EntrySide {
	switch docType {
	case domain.PurchaseDocument, domain.SalesReturnDocument:
		return domain.Credit
	default:
		return domain.Debit
	}
}

func oppositeSide(side domain.EntrySide) domain.EntrySide {
	if side == domain.Debit {
		return domain.Credit
	}
	return domain.Debit
}

// buildDocumentJournal constructs the deterministic journal entry for a
// document: the goods and VAT lines on one side, the party control account
// for the gross total on the other. Returns mirror their originating kind
// with every side swapped.
func buildDocumentJournal(doc domain.Document, userID string, now time.Time) domain.JournalEntry {
	goodsAccount := domain.AcctSalesRevenue
	vatAccount := domain.AcctVATOutput
	controlAccount := domain.AcctReceivable
	if isPurchaseFamily(doc.DocumentType) {
		goodsAccount = domain.AcctInventory
		vatAccount = domain.AcctVATInput
		controlAccount = domain.AcctPayable
	}

	controlSide := controlAccountSide(doc.DocumentType)
	goodsSide := oppositeSide(controlSide)

	journalID := uuid.NewString()
	audit := domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     userID,
		LastUpdatedAt: now,
		LastUpdatedBy: userID,
	}

	lines := []domain.JournalLine{
		{
			LineID:      uuid.NewString(),
			JournalID:   journalID,
			AccountCode: goodsAccount,
			Side:        goodsSide,
			Amount:      doc.TaxableAmount,
			Notes:       doc.DocumentNumber,
			AuditFields: audit,
		},
	}
	if doc.VATAmount.IsPositive() {
		lines = append(lines, domain.JournalLine{
			LineID:      uuid.NewString(),
			JournalID:   journalID,
			AccountCode: vatAccount,
			Side:        goodsSide,
			Amount:      doc.VATAmount,
			Notes:       doc.DocumentNumber,
			AuditFields: audit,
		})
	}
	lines = append(lines, domain.JournalLine{
		LineID:      uuid.NewString(),
		JournalID:   journalID,
		AccountCode: controlAccount,
		Side:        controlSide,
		Amount:      doc.TotalAmount,
		Notes:       doc.DocumentNumber,
		AuditFields: audit,
	})

	totalDebit, totalCredit := accounting.EntryTotals(lines)
	return domain.JournalEntry{
		JournalID:   journalID,
		EntryDate:   doc.DocumentDate,
		Description: fmt.Sprintf("%s %s - %s", documentTypeLabel(doc.DocumentType), doc.DocumentNumber, doc.PartyName),
		PartyLabel:  doc.PartyName,
		Status:      domain.Draft,
		TotalDebit:  totalDebit,
		TotalCredit: totalCredit,
		Lines:       lines,
		AuditFields: audit,
	}
}

// CreateDocument computes the document amounts, generates its journal entry
// and party transaction, and persists all three in one transaction.
func (s *documentService) CreateDocument(ctx context.Context, docType domain.DocumentType, req dto.CreateDocumentRequest, creatorUserID string) (*domain.Document, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	party, err := s.partySvc.GetPartyByID(ctx, req.PartyID)
	if err != nil {
		return nil, err
	}
	if isPurchaseFamily(docType) && party.PartyType != domain.Supplier {
		return nil, fmt.Errorf("%w: %s documents need a supplier", ErrWrongPartyType, docType)
	}
	if !isPurchaseFamily(docType) && party.PartyType != domain.Customer {
		return nil, fmt.Errorf("%w: %s documents need a customer", ErrWrongPartyType, docType)
	}

	now := time.Now().UTC()
	docID := uuid.NewString()

	subtotal := decimal.Zero
	docLines := make([]domain.DocumentLine, len(req.Lines))
	for i, lr := range req.Lines {
		if lr.Quantity.IsNegative() || lr.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: line %d", ErrNegativeDocAmount, i+1)
		}
		lineTotal := lr.Quantity.Mul(lr.UnitPrice)
		docLines[i] = domain.DocumentLine{
			LineID:      uuid.NewString(),
			ItemName:    lr.ItemName,
			Quantity:    lr.Quantity,
			UnitPrice:   lr.UnitPrice,
			LineTotal:   lineTotal,
			Description: lr.Description,
		}
		subtotal = subtotal.Add(lineTotal)
	}

	if req.Discount.IsNegative() {
		return nil, fmt.Errorf("%w: discount", ErrNegativeDocAmount)
	}
	taxable := subtotal.Sub(req.Discount)
	if taxable.IsNegative() {
		return nil, fmt.Errorf("%w: discount exceeds subtotal", ErrNegativeDocAmount)
	}
	if taxable.IsZero() {
		// A zero-total document would generate zero-amount journal lines.
		return nil, fmt.Errorf("%w: discount leaves nothing to invoice", ErrNegativeDocAmount)
	}

	vatRate := s.defaultVATRate
	if req.VATRate != nil {
		if req.VATRate.IsNegative() {
			return nil, fmt.Errorf("%w: vat rate", ErrNegativeDocAmount)
		}
		vatRate = *req.VATRate
	}
	vatAmount := accounting.ComputeVAT(taxable, vatRate)
	total := taxable.Add(vatAmount)

	doc := domain.Document{
		DocumentID:     docID,
		DocumentNumber: fmt.Sprintf("%s-%s-%s", documentNumberPrefix(docType), now.Format("200601"), strings.ToUpper(docID[:8])),
		DocumentType:   docType,
		DocumentDate:   req.Date,
		PartyID:        party.PartyID,
		PartyName:      party.Name,
		Lines:          docLines,
		Subtotal:       subtotal,
		Discount:       req.Discount,
		TaxableAmount:  taxable,
		VATRate:        vatRate,
		VATAmount:      vatAmount,
		TotalAmount:    total,
		PaymentStatus:  domain.Unpaid,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	journal := buildDocumentJournal(doc, creatorUserID, now)
	if _, _, err := validateEntryLines(journal.Lines); err != nil {
		// The generated entry is balanced by construction; reaching this is a bug.
		return nil, fmt.Errorf("generated journal failed validation: %w", err)
	}
	doc.JournalID = journal.JournalID

	partyTxn := buildDocumentPartyTxn(doc, creatorUserID, now)

	saved, err := s.documentRepo.CreateDocumentWithJournal(ctx, doc, journal, partyTxn)
	if err != nil {
		logger.Error("Failed to create document", slog.String("error", err.Error()), slog.String("document_type", string(docType)))
		return nil, fmt.Errorf("failed to create %s document: %w", docType, err)
	}

	logger.Info("Document created",
		slog.String("document_id", saved.DocumentID),
		slog.String("document_number", saved.DocumentNumber),
		slog.String("document_type", string(docType)),
		slog.String("total", saved.TotalAmount.StringFixed(2)),
	)
	return saved, nil
}

// buildDocumentPartyTxn derives the sub-ledger movement a document causes.
// A sale debits the customer (they owe more), a purchase credits the
// supplier; returns move the opposite way.
func buildDocumentPartyTxn(doc domain.Document, userID string, now time.Time) domain.PartyTransaction {
	debit, credit := decimal.Zero, decimal.Zero
	refType := domain.RefAdjustment
	switch doc.DocumentType {
	case domain.SalesDocument:
		debit = doc.TotalAmount
		refType = domain.RefInvoice
	case domain.PurchaseDocument:
		credit = doc.TotalAmount
		refType = domain.RefPurchase
	case domain.PurchaseReturnDoc:
		debit = doc.TotalAmount
	case domain.SalesReturnDocument:
		credit = doc.TotalAmount
	}

	return domain.PartyTransaction{
		TransactionID: uuid.NewString(),
		PartyID:       doc.PartyID,
		TxnDate:       doc.DocumentDate,
		Description:   fmt.Sprintf("%s %s", doc.DocumentType, doc.DocumentNumber),
		ReferenceID:   doc.DocumentID,
		ReferenceType: refType,
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
}

// GetDocumentByID retrieves a document with its lines.
func (s *documentService) GetDocumentByID(ctx context.Context, documentID string) (*domain.Document, error) {
	doc, err := s.documentRepo.FindDocumentByID(ctx, documentID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			middleware.GetLoggerFromCtx(ctx).Error("Failed to find document", slog.String("error", err.Error()), slog.String("document_id", documentID))
		}
		return nil, err
	}
	return doc, nil
}

// ListDocuments returns a page of documents of one type.
func (s *documentService) ListDocuments(ctx context.Context, docType domain.DocumentType, limit int, nextToken *string) (*dto.ListDocumentsResponse, error) {
	docs, next, err := s.documentRepo.ListDocuments(ctx, docType, limit, nextToken)
	if err != nil {
		middleware.GetLoggerFromCtx(ctx).Error("Failed to list documents", slog.String("error", err.Error()), slog.String("document_type", string(docType)))
		return nil, fmt.Errorf("failed to list %s documents: %w", docType, err)
	}
	return &dto.ListDocumentsResponse{
		Documents: dto.ToDocumentResponses(docs),
		NextToken: next,
	}, nil
}

// buildSettlementJournal constructs the cash settlement entry for a document:
// the party control account is offset for the gross total, cash or bank takes
// the other side.
func buildSettlementJournal(doc domain.Document, method string, userID string, paidAt time.Time) domain.JournalEntry {
	controlAccount := domain.AcctReceivable
	if isPurchaseFamily(doc.DocumentType) {
		controlAccount = domain.AcctPayable
	}
	cashAccount := domain.AcctCash
	if method == "BANK" {
		cashAccount = domain.AcctBank
	}

	// Settling offsets the document's control-account line; cash moves the
	// same way the control line originally did.
	cashSide := controlAccountSide(doc.DocumentType)
	controlSide := oppositeSide(cashSide)

	journalID := uuid.NewString()
	audit := domain.AuditFields{
		CreatedAt:     paidAt,
		CreatedBy:     userID,
		LastUpdatedAt: paidAt,
		LastUpdatedBy: userID,
	}

	lines := []domain.JournalLine{
		{
			LineID:      uuid.NewString(),
			JournalID:   journalID,
			AccountCode: controlAccount,
			Side:        controlSide,
			Amount:      doc.TotalAmount,
			Notes:       doc.DocumentNumber,
			AuditFields: audit,
		},
		{
			LineID:      uuid.NewString(),
			JournalID:   journalID,
			AccountCode: cashAccount,
			Side:        cashSide,
			Amount:      doc.TotalAmount,
			Notes:       doc.DocumentNumber,
			AuditFields: audit,
		},
	}

	totalDebit, totalCredit := accounting.EntryTotals(lines)
	return domain.JournalEntry{
		JournalID:   journalID,
		EntryDate:   paidAt,
		Description: fmt.Sprintf("Settlement of %s - %s", doc.DocumentNumber, doc.PartyName),
		PartyLabel:  doc.PartyName,
		Status:      domain.Draft,
		TotalDebit:  totalDebit,
		TotalCredit: totalCredit,
		Lines:       lines,
		AuditFields: audit,
	}
}

// MarkDocumentPaid settles a document: exactly one settlement journal is
// created and posted, the payment is appended to the party's stream and the
// open party transaction is stamped PAID, all in one transaction. A second
// call fails with ErrAlreadyPaid.
func (s *documentService) MarkDocumentPaid(ctx context.Context, documentID string, req dto.MarkDocumentPaidRequest, userID string) (*domain.Document, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	doc, err := s.GetDocumentByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.PaymentStatus == domain.Paid {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyPaid, documentID)
	}

	paidAt := time.Now().UTC()
	if req.PaymentDate != nil {
		paidAt = *req.PaymentDate
	}

	settlement := buildSettlementJournal(*doc, req.PaymentMethod, userID, paidAt)

	// Payment moves the party balance opposite to the document itself.
	docTxn := buildDocumentPartyTxn(*doc, userID, paidAt)
	paymentTxn := domain.PartyTransaction{
		TransactionID: uuid.NewString(),
		PartyID:       doc.PartyID,
		TxnDate:       paidAt,
		Description:   fmt.Sprintf("Payment (%s) for %s", req.PaymentMethod, doc.DocumentNumber),
		ReferenceID:   doc.DocumentID,
		ReferenceType: domain.RefPayment,
		Debit:         docTxn.Credit,
		Credit:        docTxn.Debit,
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

	updated, err := s.documentRepo.MarkDocumentPaid(ctx, documentID, settlement, paymentTxn, req.PaymentMethod, paidAt, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyPaid, documentID)
		}
		logger.Error("Failed to mark document paid", slog.String("error", err.Error()), slog.String("document_id", documentID))
		return nil, fmt.Errorf("failed to mark document %s paid: %w", documentID, err)
	}

	logger.Info("Document marked paid",
		slog.String("document_id", documentID),
		slog.String("payment_method", req.PaymentMethod),
		slog.String("settlement_journal_id", settlement.JournalID),
	)
	return updated, nil
}

// DeleteDocument removes an UNPAID document and unwinds everything it caused:
// the generated journal is reversed, the party's open balance for the
// document is cleared by a balancing adjustment and the open transaction is
// settled, all in one database transaction. Paid documents are locked.
func (s *documentService) DeleteDocument(ctx context.Context, documentID string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	doc, err := s.GetDocumentByID(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.PaymentStatus == domain.Paid {
		return fmt.Errorf("%w: %s", ErrLockedDocument, documentID)
	}

	original, err := s.journalSvc.GetJournalByID(ctx, doc.JournalID)
	if err != nil {
		logger.Error("Failed to load document journal", slog.String("error", err.Error()), slog.String("document_id", documentID), slog.String("journal_id", doc.JournalID))
		return fmt.Errorf("failed to load journal for document %s: %w", documentID, err)
	}
	if original.Status != domain.Posted || original.ReversingJournalID != nil {
		return fmt.Errorf("%w: journal %s for document %s cannot be reversed", apperrors.ErrConflict, doc.JournalID, documentID)
	}

	now := time.Now().UTC()
	reversal := buildReversingEntry(original, userID, now)

	// The adjustment moves the party balance opposite to the document itself,
	// the same way a payment would have cleared it.
	docTxn := buildDocumentPartyTxn(*doc, userID, now)
	adjustment := domain.PartyTransaction{
		TransactionID: uuid.NewString(),
		PartyID:       doc.PartyID,
		TxnDate:       now,
		Description:   fmt.Sprintf("Deletion of %s %s", doc.DocumentType, doc.DocumentNumber),
		ReferenceID:   doc.DocumentID,
		ReferenceType: domain.RefAdjustment,
		Debit:         docTxn.Credit,
		Credit:        docTxn.Debit,
		Status:        domain.TxnPaid,
		PaidAt:        &now,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.documentRepo.DeleteDocument(ctx, documentID, reversal, adjustment, userID); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return fmt.Errorf("%w: %s", ErrLockedDocument, documentID)
		}
		logger.Error("Failed to delete document", slog.String("error", err.Error()), slog.String("document_id", documentID))
		return fmt.Errorf("failed to delete document %s: %w", documentID, err)
	}

	logger.Info("Document deleted",
		slog.String("document_id", documentID),
		slog.String("reversing_journal_id", reversal.JournalID),
		slog.String("deleted_by", userID),
	)
	return nil
}
