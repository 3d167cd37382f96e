package services

// ServiceContainer holds all service facades for handler wiring.
type ServiceContainer struct {
	Account   AccountSvcFacade
	Journal   JournalSvcFacade
	Ledger    LedgerSvcFacade
	Party     PartySvcFacade
	Document  DocumentSvcFacade
	Reporting ReportingSvcFacade
}
