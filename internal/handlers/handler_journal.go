package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/theaavashh/xyxx-sub001/internal/apperrors"
	portssvc "github.com/theaavashh/xyxx-sub001/internal/core/ports/services"
	"github.com/theaavashh/xyxx-sub001/internal/core/services"
	"github.com/theaavashh/xyxx-sub001/internal/dto"
	"github.com/theaavashh/xyxx-sub001/internal/middleware"
)

// journalHandler handles HTTP requests for journal entries.
type journalHandler struct {
	journalService portssvc.JournalSvcFacade
}

func newJournalHandler(journalService portssvc.JournalSvcFacade) *journalHandler {
	return &journalHandler{journalService: journalService}
}

// journalErrStatus maps journal engine errors onto HTTP statuses.
func journalErrStatus(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrUnbalancedEntry),
		errors.Is(err, services.ErrDegenerateLine),
		errors.Is(err, services.ErrInsufficientLines),
		errors.Is(err, services.ErrInsufficientAccounts),
		errors.Is(err, services.ErrDescriptionMissing),
		errors.Is(err, services.ErrAccountNotFound),
		errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrAlreadyPosted),
		errors.Is(err, services.ErrImmutableEntry),
		errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// createJournal godoc
// @Summary Create a draft journal entry
// @Description Validates and persists a new journal entry in DRAFT status
// @Tags journals
// @Accept  json
// @Produce  json
// @Param   journal body dto.CreateJournalRequest true "Journal entry"
// @Success 201 {object} dto.JournalResponse
// @Failure 400 {object} map[string]string "Validation failure"
// @Router /journals [post]
func (h *journalHandler) createJournal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateJournalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for createJournal", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	journal, err := h.journalService.CreateJournal(c.Request.Context(), req, actorID(c))
	if err != nil {
		status := journalErrStatus(err)
		if status == http.StatusInternalServerError {
			logger.Error("Failed to create journal", slog.String("error", err.Error()))
			c.JSON(status, gin.H{"error": "Failed to create journal"})
			return
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, dto.ToJournalResponse(journal))
}

// listJournals godoc
// @Summary List journal entries
// @Description Lists journals with cursor pagination, newest first
// @Tags journals
// @Produce  json
// @Param   limit query int false "Page size"
// @Param   nextToken query string false "Cursor from the previous page"
// @Param   includeReversals query bool false "Include reversing entries"
// @Success 200 {object} dto.ListJournalsResponse
// @Router /journals [get]
func (h *journalHandler) listJournals(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListJournalsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	resp, err := h.journalService.ListJournals(c.Request.Context(), params)
	if err != nil {
		logger.Error("Failed to list journals", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list journals"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// getJournal godoc
// @Summary Get a journal entry
// @Description Retrieves a journal entry with its lines
// @Tags journals
// @Produce  json
// @Param   journalID path string true "Journal ID"
// @Success 200 {object} dto.JournalResponse
// @Failure 404 {object} map[string]string "Journal not found"
// @Router /journals/{journalID} [get]
func (h *journalHandler) getJournal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	journalID := c.Param("journalID")

	journal, err := h.journalService.GetJournalByID(c.Request.Context(), journalID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Journal not found"})
			return
		}
		logger.Error("Failed to get journal", slog.String("error", err.Error()), slog.String("journal_id", journalID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve journal"})
		return
	}
	c.JSON(http.StatusOK, dto.ToJournalResponse(journal))
}

// postJournal godoc
// @Summary Post a draft journal entry
// @Description Transitions DRAFT to POSTED and projects the lines onto the ledger
// @Tags journals
// @Produce  json
// @Param   journalID path string true "Journal ID"
// @Success 200 {object} dto.JournalResponse
// @Failure 409 {object} map[string]string "Journal already posted"
// @Router /journals/{journalID}/post [post]
func (h *journalHandler) postJournal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	journalID := c.Param("journalID")

	journal, err := h.journalService.PostJournal(c.Request.Context(), journalID, actorID(c))
	if err != nil {
		status := journalErrStatus(err)
		if status == http.StatusInternalServerError {
			logger.Error("Failed to post journal", slog.String("error", err.Error()), slog.String("journal_id", journalID))
			c.JSON(status, gin.H{"error": "Failed to post journal"})
			return
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.ToJournalResponse(journal))
}

// updateJournal godoc
// @Summary Update a draft journal entry
// @Description Replaces fields and optionally lines of a DRAFT entry
// @Tags journals
// @Accept  json
// @Produce  json
// @Param   journalID path string true "Journal ID"
// @Param   journal body dto.UpdateJournalRequest true "Fields to update"
// @Success 200 {object} dto.JournalResponse
// @Failure 409 {object} map[string]string "Journal is not a draft"
// @Router /journals/{journalID} [put]
func (h *journalHandler) updateJournal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	journalID := c.Param("journalID")

	var req dto.UpdateJournalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	journal, err := h.journalService.UpdateJournal(c.Request.Context(), journalID, req, actorID(c))
	if err != nil {
		status := journalErrStatus(err)
		if status == http.StatusInternalServerError {
			logger.Error("Failed to update journal", slog.String("error", err.Error()), slog.String("journal_id", journalID))
			c.JSON(status, gin.H{"error": "Failed to update journal"})
			return
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.ToJournalResponse(journal))
}

// deleteJournal godoc
// @Summary Delete a draft journal entry
// @Description Deletes a DRAFT entry; posted entries can only be reversed
// @Tags journals
// @Produce  json
// @Param   journalID path string true "Journal ID"
// @Success 204 "Deleted"
// @Failure 409 {object} map[string]string "Journal is not a draft"
// @Router /journals/{journalID} [delete]
func (h *journalHandler) deleteJournal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	journalID := c.Param("journalID")

	if err := h.journalService.DeleteJournal(c.Request.Context(), journalID, actorID(c)); err != nil {
		status := journalErrStatus(err)
		if status == http.StatusInternalServerError {
			logger.Error("Failed to delete journal", slog.String("error", err.Error()), slog.String("journal_id", journalID))
			c.JSON(status, gin.H{"error": "Failed to delete journal"})
			return
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// reverseJournal godoc
// @Summary Reverse a posted journal entry
// @Description Creates and posts the entry that undoes a posted journal
// @Tags journals
// @Produce  json
// @Param   journalID path string true "Journal ID"
// @Success 201 {object} dto.JournalResponse
// @Failure 409 {object} map[string]string "Journal cannot be reversed"
// @Router /journals/{journalID}/reverse [post]
func (h *journalHandler) reverseJournal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	journalID := c.Param("journalID")

	reversing, err := h.journalService.ReverseJournal(c.Request.Context(), journalID, actorID(c))
	if err != nil {
		status := journalErrStatus(err)
		if status == http.StatusInternalServerError {
			logger.Error("Failed to reverse journal", slog.String("error", err.Error()), slog.String("journal_id", journalID))
			c.JSON(status, gin.H{"error": "Failed to reverse journal"})
			return
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, dto.ToJournalResponse(reversing))
}

// registerJournalRoutes registers journal specific routes
func registerJournalRoutes(group *gin.RouterGroup, journalSvc portssvc.JournalSvcFacade) {
	journalHandler := newJournalHandler(journalSvc)

	journals := group.Group("/journals")
	{
		journals.POST("", journalHandler.createJournal)
		journals.GET("", journalHandler.listJournals)
		journals.GET("/:journalID", journalHandler.getJournal)
		journals.PUT("/:journalID", journalHandler.updateJournal)
		journals.DELETE("/:journalID", journalHandler.deleteJournal)
		journals.POST("/:journalID/post", journalHandler.postJournal)
		journals.POST("/:journalID/reverse", journalHandler.reverseJournal)
	}
}
