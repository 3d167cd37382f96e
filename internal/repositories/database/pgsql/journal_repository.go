package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/theaavashh/xyxx-sub001/internal/apperrors"
	"github.com/theaavashh/xyxx-sub001/internal/core/domain"
	portsrepo "github.com/theaavashh/xyxx-sub001/internal/core/ports/repositories"
	"github.com/theaavashh/xyxx-sub001/internal/utils/accounting"
	"github.com/theaavashh/xyxx-sub001/internal/utils/pagination"
)

const journalColumns = `journal_id, journal_number, entry_date, description, party_label, status, total_debit, total_credit, posted_by, posted_at, original_journal_id, reversing_journal_id, created_at, created_by, last_updated_at, last_updated_by`

type PgxJournalRepository struct {
	BaseRepository
	accountRepo portsrepo.AccountRepositoryWithTx
}

// newPgxJournalRepository creates a new repository for journal entries and
// their lines.
func newPgxJournalRepository(pool *pgxpool.Pool, accountRepo portsrepo.AccountRepositoryWithTx) *PgxJournalRepository {
	return &PgxJournalRepository{
		BaseRepository: BaseRepository{Pool: pool},
		accountRepo:    accountRepo,
	}
}

// Ensure PgxJournalRepository implements portsrepo.JournalRepositoryWithTx
var _ portsrepo.JournalRepositoryWithTx = (*PgxJournalRepository)(nil)

// allocateJournalNumber hands out the next JV-YYYYMM-NNNN number for the
// entry's period. The sequence row is upserted atomically so concurrent
// allocations within a period never collide.
func allocateJournalNumber(ctx context.Context, tx pgx.Tx, entryDate time.Time) (string, error) {
	period := entryDate.Format("200601")

	query := `
		INSERT INTO journal_sequences (period, next_value)
		VALUES ($1, 1)
		ON CONFLICT (period) DO UPDATE SET next_value = journal_sequences.next_value + 1
		RETURNING next_value;
	`
	var n int
	if err := tx.QueryRow(ctx, query, period).Scan(&n); err != nil {
		return "", fmt.Errorf("failed to allocate journal number for period %s: %w", period, err)
	}
	return fmt.Sprintf("JV-%s-%04d", period, n), nil
}

// insertJournalInTx inserts the journal row and its lines.
func (r *PgxJournalRepository) insertJournalInTx(ctx context.Context, tx pgx.Tx, journal domain.JournalEntry) error {
	journalQuery := `
		INSERT INTO journals (` + journalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`
	_, err := tx.Exec(ctx, journalQuery,
		journal.JournalID,
		journal.JournalNumber,
		journal.EntryDate,
		journal.Description,
		journal.PartyLabel,
		journal.Status,
		journal.TotalDebit,
		journal.TotalCredit,
		journal.PostedBy,
		journal.PostedAt,
		journal.OriginalJournalID,
		journal.ReversingJournalID,
		journal.CreatedAt,
		journal.CreatedBy,
		journal.LastUpdatedAt,
		journal.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert journal %s: %w", journal.JournalID, err)
	}

	return r.insertLinesInTx(ctx, tx, journal.Lines)
}

func (r *PgxJournalRepository) insertLinesInTx(ctx context.Context, tx pgx.Tx, lines []domain.JournalLine) error {
	if len(lines) == 0 {
		return nil
	}

	lineQuery := `
		INSERT INTO journal_lines (line_id, journal_id, account_code, side, amount, notes, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	batch := &pgx.Batch{}
	for _, line := range lines {
		batch.Queue(lineQuery,
			line.LineID,
			line.JournalID,
			line.AccountCode,
			line.Side,
			line.Amount,
			line.Notes,
			line.CreatedAt,
			line.CreatedBy,
			line.LastUpdatedAt,
			line.LastUpdatedBy,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert journal lines: %w", err)
	}
	return nil
}

// SaveJournal persists a draft entry with its lines and allocates its journal
// number in one transaction.
func (r *PgxJournalRepository) SaveJournal(ctx context.Context, journal domain.JournalEntry) (*domain.JournalEntry, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	saved, err := r.InsertJournalInTx(ctx, tx, journal)
	if err != nil {
		return nil, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return saved, nil
}

// InsertJournalInTx allocates the journal number and inserts the entry with
// its lines inside a caller-managed transaction.
func (r *PgxJournalRepository) InsertJournalInTx(ctx context.Context, tx pgx.Tx, journal domain.JournalEntry) (*domain.JournalEntry, error) {
	number, err := allocateJournalNumber(ctx, tx, journal.EntryDate)
	if err != nil {
		return nil, err
	}
	journal.JournalNumber = number

	if err := r.insertJournalInTx(ctx, tx, journal); err != nil {
		return nil, err
	}
	return &journal, nil
}

func scanJournal(row pgx.Row) (*domain.JournalEntry, error) {
	var j domain.JournalEntry
	err := row.Scan(
		&j.JournalID,
		&j.JournalNumber,
		&j.EntryDate,
		&j.Description,
		&j.PartyLabel,
		&j.Status,
		&j.TotalDebit,
		&j.TotalCredit,
		&j.PostedBy,
		&j.PostedAt,
		&j.OriginalJournalID,
		&j.ReversingJournalID,
		&j.CreatedAt,
		&j.CreatedBy,
		&j.LastUpdatedAt,
		&j.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// FindJournalByID retrieves a journal entry without its lines.
func (r *PgxJournalRepository) FindJournalByID(ctx context.Context, journalID string) (*domain.JournalEntry, error) {
	query := `SELECT ` + journalColumns + ` FROM journals WHERE journal_id = $1;`

	j, err := scanJournal(r.Pool.QueryRow(ctx, query, journalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find journal by ID %s: %w", journalID, err)
	}
	return j, nil
}

// FindLinesByJournalID retrieves a journal's lines in insertion order.
func (r *PgxJournalRepository) FindLinesByJournalID(ctx context.Context, journalID string) ([]domain.JournalLine, error) {
	query := `
		SELECT line_id, journal_id, account_code, side, amount, notes, created_at, created_by, last_updated_at, last_updated_by
		FROM journal_lines
		WHERE journal_id = $1
		ORDER BY created_at, line_id;
	`
	rows, err := r.Pool.Query(ctx, query, journalID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines for journal %s: %w", journalID, err)
	}
	defer rows.Close()

	lines := []domain.JournalLine{}
	for rows.Next() {
		var l domain.JournalLine
		err := rows.Scan(
			&l.LineID,
			&l.JournalID,
			&l.AccountCode,
			&l.Side,
			&l.Amount,
			&l.Notes,
			&l.CreatedAt,
			&l.CreatedBy,
			&l.LastUpdatedAt,
			&l.LastUpdatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan line row for journal %s: %w", journalID, err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating line rows for journal %s: %w", journalID, err)
	}
	return lines, nil
}

// ListJournals retrieves a page of journals ordered by (entry_date,
// created_at) descending with token-based pagination. Reversing entries are
// hidden unless includeReversals is set.
func (r *PgxJournalRepository) ListJournals(ctx context.Context, limit int, nextToken *string, includeReversals bool) ([]domain.JournalEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// Fetch one extra row to know whether a next page exists.
	fetchLimit := limit + 1

	baseQuery := `SELECT ` + journalColumns + ` FROM journals`
	where := ``
	if !includeReversals {
		where = ` WHERE original_journal_id IS NULL`
	}
	orderBy := ` ORDER BY entry_date DESC, created_at DESC`

	args := []any{}
	if nextToken != nil && *nextToken != "" {
		lastEntryDate, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		if where == "" {
			where = ` WHERE`
		} else {
			where += ` AND`
		}
		where += ` (entry_date, created_at) < ($1, $2)`
		args = append(args, lastEntryDate, lastCreatedAt)
	}

	query := baseQuery + where + orderBy + ` LIMIT $` + strconv.Itoa(len(args)+1) + `;`
	args = append(args, fetchLimit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query journals: %w", err)
	}
	defer rows.Close()

	journals := []domain.JournalEntry{}
	for rows.Next() {
		j, err := scanJournal(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan journal row: %w", err)
		}
		journals = append(journals, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating journal rows: %w", err)
	}

	var newNextToken *string
	if len(journals) > limit {
		journals = journals[:limit]
		last := journals[limit-1]
		token := pagination.EncodeToken(last.EntryDate, last.CreatedAt)
		newNextToken = &token
	}
	return journals, newNextToken, nil
}

// projectJournalInTx transitions a journal to POSTED inside tx: the entry row
// is locked and re-checked, its accounts are locked, ledger entries are
// appended with running balances, and the persisted account balances move by
// the entry's net effect.
func (r *PgxJournalRepository) projectJournalInTx(ctx context.Context, tx pgx.Tx, journalID string, postedBy string, postedAt time.Time) (*domain.JournalEntry, error) {
	lockQuery := `SELECT ` + journalColumns + ` FROM journals WHERE journal_id = $1 FOR UPDATE;`
	journal, err := scanJournal(tx.QueryRow(ctx, lockQuery, journalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock journal %s: %w", journalID, err)
	}
	if journal.Status != domain.Draft {
		return nil, fmt.Errorf("%w: journal %s is %s, not DRAFT", apperrors.ErrConflict, journalID, journal.Status)
	}

	lines, err := r.findLinesInTx(ctx, tx, journalID)
	if err != nil {
		return nil, err
	}
	journal.Lines = lines

	balanceChanges := make(map[string]decimal.Decimal)
	for _, line := range lines {
		delta := accounting.SignedDelta(line)
		balanceChanges[line.AccountCode] = balanceChanges[line.AccountCode].Add(delta)
	}

	codes := make([]string, 0, len(balanceChanges))
	for code := range balanceChanges {
		codes = append(codes, code)
	}

	lockedAccounts, err := r.accountRepo.FindAccountsForUpdate(ctx, tx, codes)
	if err != nil {
		return nil, fmt.Errorf("failed to lock accounts for posting: %w", err)
	}

	if err := r.accountRepo.UpdateAccountBalancesInTx(ctx, tx, balanceChanges, postedBy, postedAt); err != nil {
		return nil, fmt.Errorf("failed to update account balances: %w", err)
	}

	// Running balances start from each account's balance before this entry.
	runningBalances := make(map[string]decimal.Decimal, len(lockedAccounts))
	for code, acc := range lockedAccounts {
		runningBalances[code] = acc.Balance
	}

	ledgerQuery := `
		INSERT INTO ledger_entries (ledger_id, account_code, journal_id, line_id, entry_date, description, debit, credit, balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	batch := &pgx.Batch{}
	for _, line := range lines {
		running := runningBalances[line.AccountCode].Add(accounting.SignedDelta(line))
		runningBalances[line.AccountCode] = running

		batch.Queue(ledgerQuery,
			uuid.NewString(),
			line.AccountCode,
			journal.JournalID,
			line.LineID,
			journal.EntryDate,
			journal.Description,
			line.DebitAmount(),
			line.CreditAmount(),
			running,
			postedAt,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, fmt.Errorf("failed to insert ledger entries for journal %s: %w", journalID, err)
	}

	updateQuery := `
		UPDATE journals
		SET status = $2, posted_by = $3, posted_at = $4, last_updated_at = $4, last_updated_by = $3
		WHERE journal_id = $1;
	`
	if _, err := tx.Exec(ctx, updateQuery, journalID, domain.Posted, postedBy, postedAt); err != nil {
		return nil, fmt.Errorf("failed to mark journal %s posted: %w", journalID, err)
	}

	journal.Status = domain.Posted
	journal.PostedBy = &postedBy
	journal.PostedAt = &postedAt
	journal.LastUpdatedAt = postedAt
	journal.LastUpdatedBy = postedBy
	return journal, nil
}

func (r *PgxJournalRepository) findLinesInTx(ctx context.Context, tx pgx.Tx, journalID string) ([]domain.JournalLine, error) {
	query := `
		SELECT line_id, journal_id, account_code, side, amount, notes, created_at, created_by, last_updated_at, last_updated_by
		FROM journal_lines
		WHERE journal_id = $1
		ORDER BY created_at, line_id;
	`
	rows, err := tx.Query(ctx, query, journalID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines in tx for journal %s: %w", journalID, err)
	}
	defer rows.Close()

	lines := []domain.JournalLine{}
	for rows.Next() {
		var l domain.JournalLine
		err := rows.Scan(
			&l.LineID,
			&l.JournalID,
			&l.AccountCode,
			&l.Side,
			&l.Amount,
			&l.Notes,
			&l.CreatedAt,
			&l.CreatedBy,
			&l.LastUpdatedAt,
			&l.LastUpdatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan line row in tx: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating line rows in tx: %w", err)
	}
	return lines, nil
}

// PostJournal atomically transitions DRAFT -> POSTED and projects the entry
// onto the ledger.
func (r *PgxJournalRepository) PostJournal(ctx context.Context, journalID string, postedBy string, postedAt time.Time) (*domain.JournalEntry, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	posted, err := r.projectJournalInTx(ctx, tx, journalID, postedBy, postedAt)
	if err != nil {
		return nil, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return posted, nil
}

// PostJournalInTx posts a journal inside a caller-managed transaction.
func (r *PgxJournalRepository) PostJournalInTx(ctx context.Context, tx pgx.Tx, journalID string, postedBy string, postedAt time.Time) (*domain.JournalEntry, error) {
	return r.projectJournalInTx(ctx, tx, journalID, postedBy, postedAt)
}

// UpdateDraftJournal replaces the header fields and lines of a DRAFT entry.
// The status guard lives in the UPDATE itself: a posted entry matches no row
// and the caller gets ErrConflict.
func (r *PgxJournalRepository) UpdateDraftJournal(ctx context.Context, journal domain.JournalEntry) (*domain.JournalEntry, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	updateQuery := `
		UPDATE journals
		SET entry_date = $2, description = $3, party_label = $4, total_debit = $5, total_credit = $6, last_updated_at = $7, last_updated_by = $8
		WHERE journal_id = $1 AND status = 'DRAFT';
	`
	cmdTag, err := tx.Exec(ctx, updateQuery,
		journal.JournalID,
		journal.EntryDate,
		journal.Description,
		journal.PartyLabel,
		journal.TotalDebit,
		journal.TotalCredit,
		journal.LastUpdatedAt,
		journal.LastUpdatedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update draft journal %s: %w", journal.JournalID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		if _, findErr := r.FindJournalByID(ctx, journal.JournalID); errors.Is(findErr, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("%w: journal %s is not a draft", apperrors.ErrConflict, journal.JournalID)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM journal_lines WHERE journal_id = $1;`, journal.JournalID); err != nil {
		return nil, fmt.Errorf("failed to clear lines for draft journal %s: %w", journal.JournalID, err)
	}
	if err := r.insertLinesInTx(ctx, tx, journal.Lines); err != nil {
		return nil, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return &journal, nil
}

// DeleteDraftJournal removes a DRAFT entry and its lines.
func (r *PgxJournalRepository) DeleteDraftJournal(ctx context.Context, journalID string) error {
	// journal_lines rows go with the journal via ON DELETE CASCADE.
	cmdTag, err := r.Pool.Exec(ctx, `DELETE FROM journals WHERE journal_id = $1 AND status = 'DRAFT';`, journalID)
	if err != nil {
		return fmt.Errorf("failed to delete draft journal %s: %w", journalID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		if _, findErr := r.FindJournalByID(ctx, journalID); errors.Is(findErr, apperrors.ErrNotFound) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("%w: journal %s is not a draft", apperrors.ErrConflict, journalID)
	}
	return nil
}

// SaveReversalJournal persists and posts a reversing entry and marks the
// original REVERSED with the back-link, in one transaction.
func (r *PgxJournalRepository) SaveReversalJournal(ctx context.Context, reversing domain.JournalEntry, originalJournalID string) (*domain.JournalEntry, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	posted, err := r.SaveReversalJournalInTx(ctx, tx, reversing, originalJournalID)
	if err != nil {
		return nil, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return posted, nil
}

// SaveReversalJournalInTx reverses a journal inside a caller-managed
// transaction. Document deletion composes this with the document delete and
// the party compensation.
func (r *PgxJournalRepository) SaveReversalJournalInTx(ctx context.Context, tx pgx.Tx, reversing domain.JournalEntry, originalJournalID string) (*domain.JournalEntry, error) {
	postedBy := reversing.CreatedBy
	postedAt := reversing.CreatedAt
	if reversing.PostedBy != nil {
		postedBy = *reversing.PostedBy
	}
	if reversing.PostedAt != nil {
		postedAt = *reversing.PostedAt
	}

	// Insert as draft, then run the normal posting projection so running
	// balances and account caches move exactly as for any other entry.
	reversing.Status = domain.Draft
	reversing.PostedBy = nil
	reversing.PostedAt = nil
	saved, err := r.InsertJournalInTx(ctx, tx, reversing)
	if err != nil {
		return nil, err
	}

	posted, err := r.projectJournalInTx(ctx, tx, saved.JournalID, postedBy, postedAt)
	if err != nil {
		return nil, err
	}

	linkQuery := `
		UPDATE journals
		SET status = $3, reversing_journal_id = $2, last_updated_at = $4, last_updated_by = $5
		WHERE journal_id = $1 AND status = 'POSTED' AND reversing_journal_id IS NULL;
	`
	cmdTag, err := tx.Exec(ctx, linkQuery, originalJournalID, posted.JournalID, domain.Reversed, postedAt, postedBy)
	if err != nil {
		return nil, fmt.Errorf("failed to mark journal %s reversed: %w", originalJournalID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return nil, fmt.Errorf("%w: journal %s is not an unreversed posted entry", apperrors.ErrConflict, originalJournalID)
	}
	return posted, nil
}
