package domain

// Default chart account codes. The seed migration installs these accounts and
// the transaction generators post against them.
const (
	AcctCash             = "1000"
	AcctBank             = "1010"
	AcctReceivable       = "1100"
	AcctInventory        = "1200"
	AcctVATInput         = "1300"
	AcctPayable          = "2100"
	AcctVATOutput        = "2200"
	AcctOwnersEquity     = "3000"
	AcctRetainedEarnings = "3100"
	AcctSalesRevenue     = "4100"
	AcctPurchaseExpense  = "5000"
)
