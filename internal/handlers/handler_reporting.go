package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	portssvc "github.com/theaavashh/xyxx-sub001/internal/core/ports/services"
	"github.com/theaavashh/xyxx-sub001/internal/middleware"
)

// reportingHandler serves the derived financial reports.
type reportingHandler struct {
	reportingService portssvc.ReportingSvcFacade
	partyService     portssvc.PartySvcFacade
}

func newReportingHandler(reportingService portssvc.ReportingSvcFacade, partyService portssvc.PartySvcFacade) *reportingHandler {
	return &reportingHandler{reportingService: reportingService, partyService: partyService}
}

// asOfOrNow reads the optional asOf parameter, defaulting to the current
// instant. The bool reports whether parsing succeeded; on failure a 400 has
// already been written.
func asOfOrNow(c *gin.Context) (time.Time, bool) {
	asOf, ok := parseDateQuery(c, "asOf")
	if !ok {
		return time.Time{}, false
	}
	if asOf == nil {
		return time.Now().UTC(), true
	}
	return *asOf, true
}

// trialBalance godoc
// @Summary Trial balance report
// @Description Lists every account balance on its natural column; isBalanced flags integrity failures
// @Tags reports
// @Produce  json
// @Param   asOf query string false "Cutoff date (YYYY-MM-DD), defaults to now"
// @Success 200 {object} domain.TrialBalanceReport
// @Router /reports/trial-balance [get]
func (h *reportingHandler) trialBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	asOf, ok := asOfOrNow(c)
	if !ok {
		return
	}

	report, err := h.reportingService.TrialBalance(c.Request.Context(), asOf)
	if err != nil {
		logger.Error("Failed to build trial balance", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build trial balance"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// balanceSheet godoc
// @Summary Balance sheet report
// @Description Classifies balances into assets, liabilities and equity with a prior-year comparison
// @Tags reports
// @Produce  json
// @Param   asOf query string false "Cutoff date (YYYY-MM-DD), defaults to now"
// @Success 200 {object} domain.BalanceSheetReport
// @Router /reports/balance-sheet [get]
func (h *reportingHandler) balanceSheet(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	asOf, ok := asOfOrNow(c)
	if !ok {
		return
	}

	report, err := h.reportingService.BalanceSheet(c.Request.Context(), asOf)
	if err != nil {
		logger.Error("Failed to build balance sheet", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build balance sheet"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// profitAndLoss godoc
// @Summary Profit and loss report
// @Description Sums revenue and expense activity over the period
// @Tags reports
// @Produce  json
// @Param   from query string true "Period start (YYYY-MM-DD)"
// @Param   to query string true "Period end (YYYY-MM-DD)"
// @Success 200 {object} domain.PAndLReport
// @Router /reports/profit-loss [get]
func (h *reportingHandler) profitAndLoss(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	from, ok := parseDateQuery(c, "from")
	if !ok {
		return
	}
	to, ok := parseDateQuery(c, "to")
	if !ok {
		return
	}
	if from == nil || to == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to dates are required"})
		return
	}
	if to.Before(*from) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must not be before from"})
		return
	}

	report, err := h.reportingService.ProfitAndLoss(c.Request.Context(), *from, *to)
	if err != nil {
		logger.Error("Failed to build profit and loss", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build profit and loss"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// agingReport godoc
// @Summary Receivables/payables aging report
// @Description Buckets open party transactions by days outstanding at the cutoff
// @Tags reports
// @Produce  json
// @Param   asOf query string false "Cutoff date (YYYY-MM-DD), defaults to now"
// @Param   type query string false "Party type filter (CUSTOMER or SUPPLIER)"
// @Success 200 {object} domain.AgingReport
// @Router /reports/aging [get]
func (h *reportingHandler) agingReport(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	asOf, ok := asOfOrNow(c)
	if !ok {
		return
	}
	partyType, ok := parsePartyTypeQuery(c)
	if !ok {
		return
	}

	report, err := h.partyService.ComputeAging(c.Request.Context(), asOf, partyType)
	if err != nil {
		logger.Error("Failed to build aging report", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build aging report"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// registerReportingRoutes registers the report endpoints.
func registerReportingRoutes(group *gin.RouterGroup, reportingSvc portssvc.ReportingSvcFacade, partySvc portssvc.PartySvcFacade) {
	reportingHandler := newReportingHandler(reportingSvc, partySvc)

	reports := group.Group("/reports")
	{
		reports.GET("/trial-balance", reportingHandler.trialBalance)
		reports.GET("/balance-sheet", reportingHandler.balanceSheet)
		reports.GET("/profit-loss", reportingHandler.profitAndLoss)
		reports.GET("/aging", reportingHandler.agingReport)
	}
}
