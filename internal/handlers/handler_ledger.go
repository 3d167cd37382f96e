package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/theaavashh/xyxx-sub001/internal/apperrors"
	portssvc "github.com/theaavashh/xyxx-sub001/internal/core/ports/services"
	"github.com/theaavashh/xyxx-sub001/internal/dto"
	"github.com/theaavashh/xyxx-sub001/internal/middleware"
)

// ledgerHandler serves the derived per-account ledger views.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

func newLedgerHandler(ledgerService portssvc.LedgerSvcFacade) *ledgerHandler {
	return &ledgerHandler{ledgerService: ledgerService}
}

// getAccountLedger godoc
// @Summary Get an account's ledger
// @Description Returns the account's entries with running balances for the optional date window
// @Tags ledger
// @Produce  json
// @Param   code path string true "Account code"
// @Param   from query string false "Window start (YYYY-MM-DD)"
// @Param   to query string false "Window end (YYYY-MM-DD)"
// @Success 200 {object} dto.AccountLedgerResponse
// @Failure 404 {object} map[string]string "Account not found"
// @Router /accounts/{code}/ledger [get]
func (h *ledgerHandler) getAccountLedger(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	code := c.Param("code")

	from, ok := parseDateQuery(c, "from")
	if !ok {
		return
	}
	to, ok := parseDateQuery(c, "to")
	if !ok {
		return
	}

	ledger, err := h.ledgerService.GetAccountLedger(c.Request.Context(), code, from, to)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		logger.Error("Failed to get account ledger", slog.String("error", err.Error()), slog.String("code", code))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve ledger"})
		return
	}
	c.JSON(http.StatusOK, ledger)
}

// exportAccountLedger godoc
// @Summary Export an account's ledger as CSV
// @Description Streams the account ledger rows as a CSV attachment
// @Tags ledger
// @Produce  text/csv
// @Param   code path string true "Account code"
// @Param   from query string false "Window start (YYYY-MM-DD)"
// @Param   to query string false "Window end (YYYY-MM-DD)"
// @Success 200 {string} string "CSV content"
// @Failure 404 {object} map[string]string "Account not found"
// @Router /accounts/{code}/ledger/export [get]
func (h *ledgerHandler) exportAccountLedger(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	code := c.Param("code")

	from, ok := parseDateQuery(c, "from")
	if !ok {
		return
	}
	to, ok := parseDateQuery(c, "to")
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="ledger-`+code+`.csv"`)
	if err := h.ledgerService.ExportAccountLedgerCSV(c.Request.Context(), c.Writer, code, from, to); err != nil {
		// Headers may already be written; log and give up on the body.
		logger.Error("Failed to export account ledger", slog.String("error", err.Error()), slog.String("code", code))
		if !c.Writer.Written() {
			if errors.Is(err, apperrors.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export ledger"})
		}
		return
	}
	c.Status(http.StatusOK)
}

// getAccountBalance godoc
// @Summary Get an account balance
// @Description Returns the account's balance magnitude and side as of a cutoff date
// @Tags ledger
// @Produce  json
// @Param   code path string true "Account code"
// @Param   asOf query string false "Cutoff date (YYYY-MM-DD), defaults to now"
// @Success 200 {object} dto.AccountBalanceResponse
// @Failure 404 {object} map[string]string "Account not found"
// @Router /accounts/{code}/balance [get]
func (h *ledgerHandler) getAccountBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	code := c.Param("code")

	asOf, ok := parseDateQuery(c, "asOf")
	if !ok {
		return
	}

	balance, err := h.ledgerService.GetAccountBalance(c.Request.Context(), code, asOf)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		logger.Error("Failed to get account balance", slog.String("error", err.Error()), slog.String("code", code))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve balance"})
		return
	}

	effectiveAsOf := time.Now().UTC()
	if asOf != nil {
		effectiveAsOf = *asOf
	}
	c.JSON(http.StatusOK, dto.AccountBalanceResponse{
		AccountCode: code,
		Amount:      balance.Amount,
		Side:        string(balance.Side),
		AsOf:        effectiveAsOf,
	})
}
