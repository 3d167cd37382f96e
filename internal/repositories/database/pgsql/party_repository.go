package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/theaavashh/xyxx-sub001/internal/apperrors"
	"github.com/theaavashh/xyxx-sub001/internal/core/domain"
	portsrepo "github.com/theaavashh/xyxx-sub001/internal/core/ports/repositories"
	"github.com/theaavashh/xyxx-sub001/internal/utils/pagination"
)

const partyColumns = `party_id, name, party_type, opening_balance, opening_balance_side, current_balance, is_active, created_at, created_by, last_updated_at, last_updated_by`

const partyTxnColumns = `transaction_id, party_id, txn_date, description, reference_id, reference_type, debit, credit, balance, status, paid_at, payment_method, created_at, created_by, last_updated_at, last_updated_by`

type PgxPartyRepository struct {
	BaseRepository
}

// newPgxPartyRepository creates a new repository for the party sub-ledger.
func newPgxPartyRepository(pool *pgxpool.Pool) *PgxPartyRepository {
	return &PgxPartyRepository{BaseRepository{Pool: pool}}
}

var _ portsrepo.PartyRepositoryWithTx = (*PgxPartyRepository)(nil)

func scanParty(row pgx.Row) (*domain.Party, error) {
	var p domain.Party
	err := row.Scan(
		&p.PartyID,
		&p.Name,
		&p.PartyType,
		&p.OpeningBalance,
		&p.OpeningBalanceSide,
		&p.CurrentBalance,
		&p.IsActive,
		&p.CreatedAt,
		&p.CreatedBy,
		&p.LastUpdatedAt,
		&p.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanPartyTxn(row pgx.Row) (*domain.PartyTransaction, error) {
	var t domain.PartyTransaction
	err := row.Scan(
		&t.TransactionID,
		&t.PartyID,
		&t.TxnDate,
		&t.Description,
		&t.ReferenceID,
		&t.ReferenceType,
		&t.Debit,
		&t.Credit,
		&t.Balance,
		&t.Status,
		&t.PaidAt,
		&t.PaymentMethod,
		&t.CreatedAt,
		&t.CreatedBy,
		&t.LastUpdatedAt,
		&t.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// SaveParty inserts a new party.
func (r *PgxPartyRepository) SaveParty(ctx context.Context, party domain.Party) error {
	query := `
		INSERT INTO parties (` + partyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := r.Pool.Exec(ctx, query,
		party.PartyID,
		party.Name,
		party.PartyType,
		party.OpeningBalance,
		party.OpeningBalanceSide,
		party.CurrentBalance,
		party.IsActive,
		party.CreatedAt,
		party.CreatedBy,
		party.LastUpdatedAt,
		party.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique violation on (name, party_type)
			return fmt.Errorf("%w: party %s (%s) already exists", apperrors.ErrDuplicate, party.Name, party.PartyType)
		}
		return fmt.Errorf("failed to save party %s: %w", party.PartyID, err)
	}
	return nil
}

// FindPartyByID retrieves a party by its ID.
func (r *PgxPartyRepository) FindPartyByID(ctx context.Context, partyID string) (*domain.Party, error) {
	query := `SELECT ` + partyColumns + ` FROM parties WHERE party_id = $1;`

	p, err := scanParty(r.Pool.QueryRow(ctx, query, partyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find party by ID %s: %w", partyID, err)
	}
	return p, nil
}

// FindPartyByNameAndType retrieves a party by its unique (name, type) pair.
func (r *PgxPartyRepository) FindPartyByNameAndType(ctx context.Context, name string, partyType domain.PartyType) (*domain.Party, error) {
	query := `SELECT ` + partyColumns + ` FROM parties WHERE name = $1 AND party_type = $2;`

	p, err := scanParty(r.Pool.QueryRow(ctx, query, name, partyType))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find party %s (%s): %w", name, partyType, err)
	}
	return p, nil
}

// ListParties retrieves parties ordered by name, optionally filtered by type.
func (r *PgxPartyRepository) ListParties(ctx context.Context, partyType *domain.PartyType) ([]domain.Party, error) {
	query := `SELECT ` + partyColumns + ` FROM parties`
	args := []any{}
	if partyType != nil {
		query += ` WHERE party_type = $1`
		args = append(args, *partyType)
	}
	query += ` ORDER BY name;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query parties: %w", err)
	}
	defer rows.Close()

	parties := []domain.Party{}
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan party row: %w", err)
		}
		parties = append(parties, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating party rows: %w", err)
	}
	return parties, nil
}

// UpdateParty updates the mutable fields of a party.
func (r *PgxPartyRepository) UpdateParty(ctx context.Context, party domain.Party) error {
	query := `
		UPDATE parties
		SET name = $2, is_active = $3, last_updated_at = $4, last_updated_by = $5
		WHERE party_id = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		party.PartyID,
		party.Name,
		party.IsActive,
		party.LastUpdatedAt,
		party.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update party %s: %w", party.PartyID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// AppendTransactionInTx locks the party row, stamps the transaction with the
// post-transaction balance snapshot and moves the cached current balance.
func (r *PgxPartyRepository) AppendTransactionInTx(ctx context.Context, tx pgx.Tx, txn domain.PartyTransaction) (*domain.PartyTransaction, error) {
	var currentBalance decimal.Decimal
	lockQuery := `SELECT current_balance FROM parties WHERE party_id = $1 FOR UPDATE;`
	if err := tx.QueryRow(ctx, lockQuery, txn.PartyID).Scan(&currentBalance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock party %s: %w", txn.PartyID, err)
	}

	newBalance := currentBalance.Add(txn.Debit).Sub(txn.Credit)
	txn.Balance = newBalance

	insertQuery := `
		INSERT INTO party_transactions (` + partyTxnColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`
	_, err := tx.Exec(ctx, insertQuery,
		txn.TransactionID,
		txn.PartyID,
		txn.TxnDate,
		txn.Description,
		txn.ReferenceID,
		txn.ReferenceType,
		txn.Debit,
		txn.Credit,
		txn.Balance,
		txn.Status,
		txn.PaidAt,
		txn.PaymentMethod,
		txn.CreatedAt,
		txn.CreatedBy,
		txn.LastUpdatedAt,
		txn.LastUpdatedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert party transaction %s: %w", txn.TransactionID, err)
	}

	updateQuery := `
		UPDATE parties
		SET current_balance = $2, last_updated_at = $3, last_updated_by = $4
		WHERE party_id = $1;
	`
	if _, err := tx.Exec(ctx, updateQuery, txn.PartyID, newBalance, txn.LastUpdatedAt, txn.LastUpdatedBy); err != nil {
		return nil, fmt.Errorf("failed to update balance for party %s: %w", txn.PartyID, err)
	}
	return &txn, nil
}

// AppendTransaction appends to the party's stream in its own transaction.
func (r *PgxPartyRepository) AppendTransaction(ctx context.Context, txn domain.PartyTransaction) (*domain.PartyTransaction, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	saved, err := r.AppendTransactionInTx(ctx, tx, txn)
	if err != nil {
		return nil, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return saved, nil
}

// ListTransactionsByParty retrieves a page of the party's stream ordered by
// (txn_date, created_at) descending with token-based pagination.
func (r *PgxPartyRepository) ListTransactionsByParty(ctx context.Context, partyID string, limit int, nextToken *string) ([]domain.PartyTransaction, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	query := `SELECT ` + partyTxnColumns + ` FROM party_transactions WHERE party_id = $1`
	args := []any{partyID}
	if nextToken != nil && *nextToken != "" {
		lastDate, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		args = append(args, lastDate, lastCreatedAt)
		query += ` AND (txn_date, created_at) < ($2, $3)`
	}
	query += ` ORDER BY txn_date DESC, created_at DESC LIMIT $` + strconv.Itoa(len(args)+1) + `;`
	args = append(args, fetchLimit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query transactions for party %s: %w", partyID, err)
	}
	defer rows.Close()

	txns := []domain.PartyTransaction{}
	for rows.Next() {
		t, err := scanPartyTxn(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan party transaction row: %w", err)
		}
		txns = append(txns, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating party transaction rows: %w", err)
	}

	var newNextToken *string
	if len(txns) > limit {
		txns = txns[:limit]
		last := txns[limit-1]
		token := pagination.EncodeToken(last.TxnDate, last.CreatedAt)
		newNextToken = &token
	}
	return txns, newNextToken, nil
}

// FindTransactionByID retrieves one party transaction.
func (r *PgxPartyRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.PartyTransaction, error) {
	query := `SELECT ` + partyTxnColumns + ` FROM party_transactions WHERE transaction_id = $1;`

	t, err := scanPartyTxn(r.Pool.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find party transaction %s: %w", transactionID, err)
	}
	return t, nil
}

// SettleTransaction stamps an OPEN transaction PAID and appends the balancing
// payment in one database transaction. An already settled transaction causes
// ErrConflict and no state change.
func (r *PgxPartyRepository) SettleTransaction(ctx context.Context, transactionID string, payment domain.PartyTransaction) (*domain.PartyTransaction, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	settleQuery := `
		UPDATE party_transactions
		SET status = $2, paid_at = $3, payment_method = $4, last_updated_at = $3, last_updated_by = $5
		WHERE transaction_id = $1 AND status = 'OPEN';
	`
	cmdTag, err := tx.Exec(ctx, settleQuery,
		transactionID,
		domain.TxnPaid,
		payment.PaidAt,
		payment.PaymentMethod,
		payment.LastUpdatedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to settle party transaction %s: %w", transactionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		if _, findErr := r.FindTransactionByID(ctx, transactionID); errors.Is(findErr, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("%w: party transaction %s is not open", apperrors.ErrConflict, transactionID)
	}

	if _, err := r.AppendTransactionInTx(ctx, tx, payment); err != nil {
		return nil, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return r.FindTransactionByID(ctx, transactionID)
}

// MarkReferencePaidInTx stamps every OPEN transaction that references the
// given document PAID, inside a caller-managed transaction.
func (r *PgxPartyRepository) MarkReferencePaidInTx(ctx context.Context, tx pgx.Tx, referenceID string, method string, paidAt time.Time, userID string) error {
	query := `
		UPDATE party_transactions
		SET status = $2, paid_at = $3, payment_method = $4, last_updated_at = $3, last_updated_by = $5
		WHERE reference_id = $1 AND status = 'OPEN';
	`
	if _, err := tx.Exec(ctx, query, referenceID, domain.TxnPaid, paidAt, method, userID); err != nil {
		return fmt.Errorf("failed to settle transactions referencing %s: %w", referenceID, err)
	}
	return nil
}

// FindOpenTransactions returns every OPEN transaction dated on or before asOf
// plus the parties they belong to, optionally filtered by party type.
func (r *PgxPartyRepository) FindOpenTransactions(ctx context.Context, asOf time.Time, partyType *domain.PartyType) ([]domain.PartyTransaction, map[string]domain.Party, error) {
	query := `
		SELECT t.transaction_id, t.party_id, t.txn_date, t.description, t.reference_id, t.reference_type,
		       t.debit, t.credit, t.balance, t.status, t.paid_at, t.payment_method,
		       t.created_at, t.created_by, t.last_updated_at, t.last_updated_by,
		       p.party_id, p.name, p.party_type, p.opening_balance, p.opening_balance_side, p.current_balance, p.is_active,
		       p.created_at, p.created_by, p.last_updated_at, p.last_updated_by
		FROM party_transactions t
		JOIN parties p ON t.party_id = p.party_id
		WHERE t.status = 'OPEN' AND t.txn_date <= $1
	`
	args := []any{asOf}
	if partyType != nil {
		args = append(args, *partyType)
		query += ` AND p.party_type = $2`
	}
	query += ` ORDER BY t.txn_date, t.created_at;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query open party transactions: %w", err)
	}
	defer rows.Close()

	txns := []domain.PartyTransaction{}
	parties := map[string]domain.Party{}
	for rows.Next() {
		var t domain.PartyTransaction
		var p domain.Party
		err := rows.Scan(
			&t.TransactionID, &t.PartyID, &t.TxnDate, &t.Description, &t.ReferenceID, &t.ReferenceType,
			&t.Debit, &t.Credit, &t.Balance, &t.Status, &t.PaidAt, &t.PaymentMethod,
			&t.CreatedAt, &t.CreatedBy, &t.LastUpdatedAt, &t.LastUpdatedBy,
			&p.PartyID, &p.Name, &p.PartyType, &p.OpeningBalance, &p.OpeningBalanceSide, &p.CurrentBalance, &p.IsActive,
			&p.CreatedAt, &p.CreatedBy, &p.LastUpdatedAt, &p.LastUpdatedBy,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan open transaction row: %w", err)
		}
		txns = append(txns, t)
		parties[p.PartyID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating open transaction rows: %w", err)
	}
	return txns, parties, nil
}
