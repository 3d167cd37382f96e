package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/theaavashh/xyxx-sub001/internal/apperrors"
	"github.com/theaavashh/xyxx-sub001/internal/core/domain"
	portssvc "github.com/theaavashh/xyxx-sub001/internal/core/ports/services"
	"github.com/theaavashh/xyxx-sub001/internal/core/services"
	"github.com/theaavashh/xyxx-sub001/internal/dto"
	"github.com/theaavashh/xyxx-sub001/internal/middleware"
)

// partyHandler handles HTTP requests for the customer/supplier sub-ledger.
type partyHandler struct {
	partyService portssvc.PartySvcFacade
}

func newPartyHandler(partyService portssvc.PartySvcFacade) *partyHandler {
	return &partyHandler{partyService: partyService}
}

// parsePartyTypeQuery reads an optional ?type= filter. Writes a 400 response
// itself when the value is not a known party type.
func parsePartyTypeQuery(c *gin.Context) (*domain.PartyType, bool) {
	raw := c.Query("type")
	if raw == "" {
		return nil, true
	}
	partyType := domain.PartyType(raw)
	if !partyType.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid party type, expected CUSTOMER or SUPPLIER"})
		return nil, false
	}
	return &partyType, true
}

// createParty godoc
// @Summary Create a party
// @Description Registers a customer or supplier with an optional opening balance
// @Tags parties
// @Accept  json
// @Produce  json
// @Param   party body dto.CreatePartyRequest true "Party"
// @Success 201 {object} dto.PartyResponse
// @Failure 409 {object} map[string]string "Party already exists"
// @Router /parties [post]
func (h *partyHandler) createParty(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreatePartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for createParty", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	party, err := h.partyService.CreateParty(c.Request.Context(), req, actorID(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDuplicateParty):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to create party", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create party"})
		}
		return
	}
	c.JSON(http.StatusCreated, dto.ToPartyResponse(party))
}

// listParties godoc
// @Summary List parties
// @Description Lists parties, optionally filtered by type
// @Tags parties
// @Produce  json
// @Param   type query string false "Party type filter (CUSTOMER or SUPPLIER)"
// @Success 200 {array} dto.PartyResponse
// @Router /parties [get]
func (h *partyHandler) listParties(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	partyType, ok := parsePartyTypeQuery(c)
	if !ok {
		return
	}

	parties, err := h.partyService.ListParties(c.Request.Context(), partyType)
	if err != nil {
		logger.Error("Failed to list parties", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list parties"})
		return
	}

	responses := make([]dto.PartyResponse, len(parties))
	for i := range parties {
		responses[i] = dto.ToPartyResponse(&parties[i])
	}
	c.JSON(http.StatusOK, responses)
}

// getParty godoc
// @Summary Get a party
// @Description Retrieves one party by ID
// @Tags parties
// @Produce  json
// @Param   partyID path string true "Party ID"
// @Success 200 {object} dto.PartyResponse
// @Failure 404 {object} map[string]string "Party not found"
// @Router /parties/{partyID} [get]
func (h *partyHandler) getParty(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	partyID := c.Param("partyID")

	party, err := h.partyService.GetPartyByID(c.Request.Context(), partyID)
	if err != nil {
		if errors.Is(err, services.ErrPartyNotFound) || errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Party not found"})
			return
		}
		logger.Error("Failed to get party", slog.String("error", err.Error()), slog.String("party_id", partyID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve party"})
		return
	}
	c.JSON(http.StatusOK, dto.ToPartyResponse(party))
}

// recordTransaction godoc
// @Summary Record a party transaction
// @Description Appends a transaction to the party's stream and updates the cached balance
// @Tags parties
// @Accept  json
// @Produce  json
// @Param   partyID path string true "Party ID"
// @Param   transaction body dto.RecordPartyTransactionRequest true "Transaction"
// @Success 201 {object} dto.PartyTransactionResponse
// @Failure 404 {object} map[string]string "Party not found"
// @Router /parties/{partyID}/transactions [post]
func (h *partyHandler) recordTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	partyID := c.Param("partyID")

	var req dto.RecordPartyTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for recordTransaction", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	txn, err := h.partyService.RecordTransaction(c.Request.Context(), partyID, req, actorID(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPartyNotFound), errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Party not found"})
		case errors.Is(err, services.ErrDegenerateTxn), errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to record party transaction", slog.String("error", err.Error()), slog.String("party_id", partyID))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record transaction"})
		}
		return
	}
	c.JSON(http.StatusCreated, dto.ToPartyTransactionResponse(txn))
}

// listTransactions godoc
// @Summary List a party's transactions
// @Description Lists the party's transaction stream with cursor pagination, newest first
// @Tags parties
// @Produce  json
// @Param   partyID path string true "Party ID"
// @Param   limit query int false "Page size"
// @Param   nextToken query string false "Cursor from the previous page"
// @Success 200 {object} dto.ListPartyTransactionsResponse
// @Failure 404 {object} map[string]string "Party not found"
// @Router /parties/{partyID}/transactions [get]
func (h *partyHandler) listTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	partyID := c.Param("partyID")

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = parsed
	}
	var nextToken *string
	if raw := c.Query("nextToken"); raw != "" {
		nextToken = &raw
	}

	resp, err := h.partyService.ListTransactions(c.Request.Context(), partyID, limit, nextToken)
	if err != nil {
		if errors.Is(err, services.ErrPartyNotFound) || errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Party not found"})
			return
		}
		logger.Error("Failed to list party transactions", slog.String("error", err.Error()), slog.String("party_id", partyID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list transactions"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// markTransactionPaid godoc
// @Summary Settle a party transaction
// @Description Marks an open transaction paid and appends the balancing payment entry
// @Tags parties
// @Accept  json
// @Produce  json
// @Param   transactionID path string true "Transaction ID"
// @Param   payment body dto.MarkTransactionPaidRequest true "Payment details"
// @Success 200 {object} dto.PartyTransactionResponse
// @Failure 409 {object} map[string]string "Transaction already settled"
// @Router /party-transactions/{transactionID}/paid [post]
func (h *partyHandler) markTransactionPaid(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("transactionID")

	var req dto.MarkTransactionPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	txn, err := h.partyService.MarkTransactionPaid(c.Request.Context(), transactionID, req, actorID(c))
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
		case errors.Is(err, services.ErrTxnAlreadySettled), errors.Is(err, apperrors.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to settle party transaction", slog.String("error", err.Error()), slog.String("transaction_id", transactionID))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to settle transaction"})
		}
		return
	}
	c.JSON(http.StatusOK, dto.ToPartyTransactionResponse(txn))
}

// registerPartyRoutes registers party sub-ledger routes. Settlement lives
// under /party-transactions because gin cannot mix the :partyID wildcard with
// a literal "transactions" segment at the same position.
func registerPartyRoutes(group *gin.RouterGroup, partySvc portssvc.PartySvcFacade) {
	partyHandler := newPartyHandler(partySvc)

	parties := group.Group("/parties")
	{
		parties.POST("", partyHandler.createParty)
		parties.GET("", partyHandler.listParties)
		parties.GET("/:partyID", partyHandler.getParty)
		parties.POST("/:partyID/transactions", partyHandler.recordTransaction)
		parties.GET("/:partyID/transactions", partyHandler.listTransactions)
	}

	group.POST("/party-transactions/:transactionID/paid", partyHandler.markTransactionPaid)
}
