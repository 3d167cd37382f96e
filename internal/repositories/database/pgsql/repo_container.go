package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/theaavashh/xyxx-sub001/internal/core/ports/repositories"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	accountRepo := newPgxAccountRepository(dbPool)
	journalRepo := newPgxJournalRepository(dbPool, accountRepo)
	ledgerRepo := newPgxLedgerRepository(dbPool)
	partyRepo := newPgxPartyRepository(dbPool)
	documentRepo := newPgxDocumentRepository(dbPool, journalRepo, partyRepo)
	reportingRepo := newPgxReportingRepository(dbPool)

	return portsrepo.RepositoryProvider{
		AccountRepo:   accountRepo,
		JournalRepo:   journalRepo,
		LedgerRepo:    ledgerRepo,
		PartyRepo:     partyRepo,
		DocumentRepo:  documentRepo,
		ReportingRepo: reportingRepo,
	}
}
