package services

import (
	portsrepo "github.com/theaavashh/xyxx-sub001/internal/core/ports/repositories"
	portssvc "github.com/theaavashh/xyxx-sub001/internal/core/ports/services"
	"github.com/theaavashh/xyxx-sub001/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// Account service first: the journal engine validates entries against it.
	container.Account = NewAccountService(repos.AccountRepo)
	container.Journal = NewJournalService(repos.JournalRepo, container.Account)
	container.Ledger = NewLedgerService(repos.LedgerRepo, repos.AccountRepo)
	container.Party = NewPartyService(repos.PartyRepo)
	container.Document = NewDocumentService(repos.DocumentRepo, container.Party, container.Journal, cfg.VATRatePercent)
	container.Reporting = NewReportingService(repos.ReportingRepo)

	return container
}
