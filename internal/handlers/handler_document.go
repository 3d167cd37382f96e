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

// documentHandler serves one document type. The same handler code is mounted
// once per type so the route path fixes what gets created.
type documentHandler struct {
	documentService portssvc.DocumentSvcFacade
	docType         domain.DocumentType
}

func newDocumentHandler(documentService portssvc.DocumentSvcFacade, docType domain.DocumentType) *documentHandler {
	return &documentHandler{documentService: documentService, docType: docType}
}

// createDocument godoc
// @Summary Create a document
// @Description Creates a purchase/sales document or return and posts its journal entry
// @Tags documents
// @Accept  json
// @Produce  json
// @Param   document body dto.CreateDocumentRequest true "Document"
// @Success 201 {object} dto.DocumentResponse
// @Failure 400 {object} map[string]string "Validation failure"
// @Router /purchases [post]
func (h *documentHandler) createDocument(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for createDocument", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	doc, err := h.documentService.CreateDocument(c.Request.Context(), h.docType, req, actorID(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPartyNotFound), errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Party not found"})
		case errors.Is(err, services.ErrWrongPartyType),
			errors.Is(err, services.ErrNegativeDocAmount),
			errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to create document", slog.String("error", err.Error()), slog.String("document_type", string(h.docType)))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create document"})
		}
		return
	}
	c.JSON(http.StatusCreated, dto.ToDocumentResponse(doc))
}

// listDocuments godoc
// @Summary List documents
// @Description Lists documents of one type with cursor pagination, newest first
// @Tags documents
// @Produce  json
// @Param   limit query int false "Page size"
// @Param   nextToken query string false "Cursor from the previous page"
// @Success 200 {object} dto.ListDocumentsResponse
// @Router /purchases [get]
func (h *documentHandler) listDocuments(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

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

	resp, err := h.documentService.ListDocuments(c.Request.Context(), h.docType, limit, nextToken)
	if err != nil {
		logger.Error("Failed to list documents", slog.String("error", err.Error()), slog.String("document_type", string(h.docType)))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list documents"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// getDocument godoc
// @Summary Get a document
// @Description Retrieves one document with its lines
// @Tags documents
// @Produce  json
// @Param   documentID path string true "Document ID"
// @Success 200 {object} dto.DocumentResponse
// @Failure 404 {object} map[string]string "Document not found"
// @Router /purchases/{documentID} [get]
func (h *documentHandler) getDocument(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	documentID := c.Param("documentID")

	doc, err := h.documentService.GetDocumentByID(c.Request.Context(), documentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
			return
		}
		logger.Error("Failed to get document", slog.String("error", err.Error()), slog.String("document_id", documentID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve document"})
		return
	}
	c.JSON(http.StatusOK, dto.ToDocumentResponse(doc))
}

// markDocumentPaid godoc
// @Summary Settle a document
// @Description Marks an unpaid document paid, posting the settlement journal entry
// @Tags documents
// @Accept  json
// @Produce  json
// @Param   documentID path string true "Document ID"
// @Param   payment body dto.MarkDocumentPaidRequest true "Payment details"
// @Success 200 {object} dto.DocumentResponse
// @Failure 409 {object} map[string]string "Document already paid"
// @Router /purchases/{documentID}/paid [post]
func (h *documentHandler) markDocumentPaid(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	documentID := c.Param("documentID")

	var req dto.MarkDocumentPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	doc, err := h.documentService.MarkDocumentPaid(c.Request.Context(), documentID, req, actorID(c))
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		case errors.Is(err, services.ErrAlreadyPaid), errors.Is(err, apperrors.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to settle document", slog.String("error", err.Error()), slog.String("document_id", documentID))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to settle document"})
		}
		return
	}
	c.JSON(http.StatusOK, dto.ToDocumentResponse(doc))
}

// deleteDocument godoc
// @Summary Delete a document
// @Description Deletes an unpaid document, reverses its journal entry and clears the party balance; paid documents are locked
// @Tags documents
// @Produce  json
// @Param   documentID path string true "Document ID"
// @Success 204 "Deleted"
// @Failure 409 {object} map[string]string "Document is locked"
// @Router /purchases/{documentID} [delete]
func (h *documentHandler) deleteDocument(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	documentID := c.Param("documentID")

	if err := h.documentService.DeleteDocument(c.Request.Context(), documentID, actorID(c)); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		case errors.Is(err, services.ErrLockedDocument), errors.Is(err, apperrors.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to delete document", slog.String("error", err.Error()), slog.String("document_id", documentID))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete document"})
		}
		return
	}
	c.Status(http.StatusNoContent)
}
