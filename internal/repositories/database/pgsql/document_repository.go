package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/theaavashh/xyxx-sub001/internal/apperrors"
	"github.com/theaavashh/xyxx-sub001/internal/core/domain"
	portsrepo "github.com/theaavashh/xyxx-sub001/internal/core/ports/repositories"
	"github.com/theaavashh/xyxx-sub001/internal/utils/pagination"
)

const documentColumns = `document_id, document_number, document_type, document_date, party_id, party_name, subtotal, discount, taxable_amount, vat_rate, vat_amount, total_amount, payment_status, payment_method, paid_at, journal_id, settlement_journal_id, created_at, created_by, last_updated_at, last_updated_by`

type PgxDocumentRepository struct {
	BaseRepository
	journalRepo portsrepo.JournalRepositoryWithTx
	partyRepo   portsrepo.PartyRepositoryWithTx
}

// newPgxDocumentRepository creates a new repository for purchase/sales
// documents. It composes the journal and party write paths so a document and
// its financial side effects commit together.
func newPgxDocumentRepository(pool *pgxpool.Pool, journalRepo portsrepo.JournalRepositoryWithTx, partyRepo portsrepo.PartyRepositoryWithTx) *PgxDocumentRepository {
	return &PgxDocumentRepository{
		BaseRepository: BaseRepository{Pool: pool},
		journalRepo:    journalRepo,
		partyRepo:      partyRepo,
	}
}

var _ portsrepo.DocumentRepository = (*PgxDocumentRepository)(nil)

func scanDocument(row pgx.Row) (*domain.Document, error) {
	var d domain.Document
	err := row.Scan(
		&d.DocumentID,
		&d.DocumentNumber,
		&d.DocumentType,
		&d.DocumentDate,
		&d.PartyID,
		&d.PartyName,
		&d.Subtotal,
		&d.Discount,
		&d.TaxableAmount,
		&d.VATRate,
		&d.VATAmount,
		&d.TotalAmount,
		&d.PaymentStatus,
		&d.PaymentMethod,
		&d.PaidAt,
		&d.JournalID,
		&d.SettlementJournalID,
		&d.CreatedAt,
		&d.CreatedBy,
		&d.LastUpdatedAt,
		&d.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *PgxDocumentRepository) insertDocumentInTx(ctx context.Context, tx pgx.Tx, doc domain.Document) error {
	query := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21);
	`
	_, err := tx.Exec(ctx, query,
		doc.DocumentID,
		doc.DocumentNumber,
		doc.DocumentType,
		doc.DocumentDate,
		doc.PartyID,
		doc.PartyName,
		doc.Subtotal,
		doc.Discount,
		doc.TaxableAmount,
		doc.VATRate,
		doc.VATAmount,
		doc.TotalAmount,
		doc.PaymentStatus,
		doc.PaymentMethod,
		doc.PaidAt,
		doc.JournalID,
		doc.SettlementJournalID,
		doc.CreatedAt,
		doc.CreatedBy,
		doc.LastUpdatedAt,
		doc.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document %s: %w", doc.DocumentID, err)
	}

	if len(doc.Lines) == 0 {
		return nil
	}
	lineQuery := `
		INSERT INTO document_lines (line_id, document_id, item_name, quantity, unit_price, line_total, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	batch := &pgx.Batch{}
	for _, line := range doc.Lines {
		batch.Queue(lineQuery,
			line.LineID,
			doc.DocumentID,
			line.ItemName,
			line.Quantity,
			line.UnitPrice,
			line.LineTotal,
			line.Description,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert document lines for %s: %w", doc.DocumentID, err)
	}
	return nil
}

// CreateDocumentWithJournal persists the document, saves and posts its
// generated journal, and appends the matching party transaction, all in one
// transaction.
func (r *PgxDocumentRepository) CreateDocumentWithJournal(ctx context.Context, doc domain.Document, journal domain.JournalEntry, partyTxn domain.PartyTransaction) (*domain.Document, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	savedJournal, err := r.journalRepo.InsertJournalInTx(ctx, tx, journal)
	if err != nil {
		return nil, err
	}
	doc.JournalID = savedJournal.JournalID

	if err := r.insertDocumentInTx(ctx, tx, doc); err != nil {
		return nil, err
	}

	if _, err := r.journalRepo.PostJournalInTx(ctx, tx, savedJournal.JournalID, doc.CreatedBy, doc.CreatedAt); err != nil {
		return nil, err
	}

	if _, err := r.partyRepo.AppendTransactionInTx(ctx, tx, partyTxn); err != nil {
		return nil, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return r.FindDocumentByID(ctx, doc.DocumentID)
}

// FindDocumentByID retrieves a document with its lines.
func (r *PgxDocumentRepository) FindDocumentByID(ctx context.Context, documentID string) (*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE document_id = $1;`

	doc, err := scanDocument(r.Pool.QueryRow(ctx, query, documentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find document %s: %w", documentID, err)
	}

	lineQuery := `
		SELECT line_id, item_name, quantity, unit_price, line_total, description
		FROM document_lines
		WHERE document_id = $1
		ORDER BY line_id;
	`
	rows, err := r.Pool.Query(ctx, lineQuery, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines for document %s: %w", documentID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var l domain.DocumentLine
		if err := rows.Scan(&l.LineID, &l.ItemName, &l.Quantity, &l.UnitPrice, &l.LineTotal, &l.Description); err != nil {
			return nil, fmt.Errorf("failed to scan document line row: %w", err)
		}
		doc.Lines = append(doc.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document line rows: %w", err)
	}
	return doc, nil
}

// ListDocuments retrieves a page of documents of one type ordered by
// (document_date, created_at) descending.
func (r *PgxDocumentRepository) ListDocuments(ctx context.Context, docType domain.DocumentType, limit int, nextToken *string) ([]domain.Document, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	query := `SELECT ` + documentColumns + ` FROM documents WHERE document_type = $1`
	args := []any{docType}
	if nextToken != nil && *nextToken != "" {
		lastDate, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		args = append(args, lastDate, lastCreatedAt)
		query += ` AND (document_date, created_at) < ($2, $3)`
	}
	query += ` ORDER BY document_date DESC, created_at DESC LIMIT $` + strconv.Itoa(len(args)+1) + `;`
	args = append(args, fetchLimit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query %s documents: %w", docType, err)
	}
	defer rows.Close()

	docs := []domain.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		docs = append(docs, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating document rows: %w", err)
	}

	var newNextToken *string
	if len(docs) > limit {
		docs = docs[:limit]
		last := docs[limit-1]
		token := pagination.EncodeToken(last.DocumentDate, last.CreatedAt)
		newNextToken = &token
	}
	return docs, newNextToken, nil
}

// MarkDocumentPaid stamps the document PAID, saves and posts the settlement
// journal, appends the payment to the party's stream and settles the open
// transactions referencing the document, all in one transaction. A document
// already PAID causes ErrConflict and no state change.
func (r *PgxDocumentRepository) MarkDocumentPaid(ctx context.Context, documentID string, settlement domain.JournalEntry, paymentTxn domain.PartyTransaction, method string, paidAt time.Time, userID string) (*domain.Document, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	savedSettlement, err := r.journalRepo.InsertJournalInTx(ctx, tx, settlement)
	if err != nil {
		return nil, err
	}
	if _, err := r.journalRepo.PostJournalInTx(ctx, tx, savedSettlement.JournalID, userID, paidAt); err != nil {
		return nil, err
	}

	// The status guard is in the UPDATE itself so double settlement cannot
	// slip through between read and write.
	updateQuery := `
		UPDATE documents
		SET payment_status = $2, payment_method = $3, paid_at = $4, settlement_journal_id = $5, last_updated_at = $4, last_updated_by = $6
		WHERE document_id = $1 AND payment_status = 'UNPAID';
	`
	cmdTag, err := tx.Exec(ctx, updateQuery, documentID, domain.Paid, method, paidAt, savedSettlement.JournalID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark document %s paid: %w", documentID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		if _, findErr := r.FindDocumentByID(ctx, documentID); errors.Is(findErr, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("%w: document %s is already paid", apperrors.ErrConflict, documentID)
	}

	if _, err := r.partyRepo.AppendTransactionInTx(ctx, tx, paymentTxn); err != nil {
		return nil, err
	}
	if err := r.partyRepo.MarkReferencePaidInTx(ctx, tx, documentID, method, paidAt, userID); err != nil {
		return nil, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return r.FindDocumentByID(ctx, documentID)
}

// DeleteDocument removes an UNPAID document and unwinds its financial side
// effects, all in one transaction: the reversing journal is saved and posted,
// the balancing adjustment is appended to the party's stream and the open
// document transaction is settled. Paid documents match no row and cause
// ErrConflict.
func (r *PgxDocumentRepository) DeleteDocument(ctx context.Context, documentID string, reversal domain.JournalEntry, adjustmentTxn domain.PartyTransaction, userID string) error {
	if reversal.OriginalJournalID == nil {
		return fmt.Errorf("reversal for document %s carries no original journal ID", documentID)
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	// document_lines rows go with the document via ON DELETE CASCADE. The
	// status guard is in the DELETE itself so a concurrent settlement wins.
	cmdTag, err := tx.Exec(ctx, `DELETE FROM documents WHERE document_id = $1 AND payment_status = 'UNPAID';`, documentID)
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", documentID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		if _, findErr := r.FindDocumentByID(ctx, documentID); errors.Is(findErr, apperrors.ErrNotFound) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("%w: document %s is paid", apperrors.ErrConflict, documentID)
	}

	if _, err := r.journalRepo.SaveReversalJournalInTx(ctx, tx, reversal, *reversal.OriginalJournalID); err != nil {
		return err
	}

	if _, err := r.partyRepo.AppendTransactionInTx(ctx, tx, adjustmentTxn); err != nil {
		return err
	}
	if err := r.partyRepo.MarkReferencePaidInTx(ctx, tx, documentID, "ADJUSTMENT", adjustmentTxn.TxnDate, userID); err != nil {
		return err
	}

	return r.Commit(ctx, tx)
}
