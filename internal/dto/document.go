package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/theaavashh/xyxx-sub001/internal/core/domain"
)

// DocumentLineRequest is one item row on a purchase/sales document.
type DocumentLineRequest struct {
	ItemName    string          `json:"itemName" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unitPrice" binding:"required"`
	Description string          `json:"description,omitempty"`
}

// CreateDocumentRequest defines the payload for a purchase entry, sales
// entry, purchase return or sales return. The document type comes from the
// route. VATRate falls back to the configured flat rate when omitted.
type CreateDocumentRequest struct {
	Date     time.Time             `json:"date" binding:"required"`
	PartyID  string                `json:"partyID" binding:"required"`
	Lines    []DocumentLineRequest `json:"lines" binding:"required,min=1,dive"`
	Discount decimal.Decimal       `json:"discount"`
	VATRate  *decimal.Decimal      `json:"vatRate,omitempty"`
}

// MarkDocumentPaidRequest carries payment metadata for settling a document.
type MarkDocumentPaidRequest struct {
	PaymentMethod string     `json:"paymentMethod" binding:"required,oneof=CASH BANK"`
	PaymentDate   *time.Time `json:"paymentDate,omitempty"`
}

// DocumentLineResponse defines the data returned for one document line.
type DocumentLineResponse struct {
	LineID      string          `json:"lineID"`
	ItemName    string          `json:"itemName"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
	Description string          `json:"description,omitempty"`
}

// DocumentResponse defines the data returned for a document, including the
// journal references that carry its financial impact.
type DocumentResponse struct {
	DocumentID          string                 `json:"documentID"`
	DocumentNumber      string                 `json:"documentNumber"`
	DocumentType        string                 `json:"documentType"`
	Date                time.Time              `json:"date"`
	PartyID             string                 `json:"partyID"`
	PartyName           string                 `json:"partyName"`
	Lines               []DocumentLineResponse `json:"lines,omitempty"`
	Subtotal            decimal.Decimal        `json:"subtotal"`
	Discount            decimal.Decimal        `json:"discount"`
	TaxableAmount       decimal.Decimal        `json:"taxableAmount"`
	VATRate             decimal.Decimal        `json:"vatRate"`
	VATAmount           decimal.Decimal        `json:"vatAmount"`
	TotalAmount         decimal.Decimal        `json:"totalAmount"`
	PaymentStatus       string                 `json:"paymentStatus"`
	PaymentMethod       string                 `json:"paymentMethod,omitempty"`
	PaidAt              *time.Time             `json:"paidAt,omitempty"`
	JournalID           string                 `json:"journalID"`
	SettlementJournalID *string                `json:"settlementJournalID,omitempty"`
}

// ListDocumentsResponse is a page of documents plus the next-page cursor.
type ListDocumentsResponse struct {
	Documents []DocumentResponse `json:"documents"`
	NextToken *string            `json:"nextToken,omitempty"`
}

// ToDocumentResponse converts a domain.Document to its response DTO.
func ToDocumentResponse(d *domain.Document) DocumentResponse {
	resp := DocumentResponse{
		DocumentID:          d.DocumentID,
		DocumentNumber:      d.DocumentNumber,
		DocumentType:        string(d.DocumentType),
		Date:                d.DocumentDate,
		PartyID:             d.PartyID,
		PartyName:           d.PartyName,
		Subtotal:            d.Subtotal,
		Discount:            d.Discount,
		TaxableAmount:       d.TaxableAmount,
		VATRate:             d.VATRate,
		VATAmount:           d.VATAmount,
		TotalAmount:         d.TotalAmount,
		PaymentStatus:       string(d.PaymentStatus),
		PaymentMethod:       d.PaymentMethod,
		PaidAt:              d.PaidAt,
		JournalID:           d.JournalID,
		SettlementJournalID: d.SettlementJournalID,
	}
	if len(d.Lines) > 0 {
		resp.Lines = make([]DocumentLineResponse, len(d.Lines))
		for i, l := range d.Lines {
			resp.Lines[i] = DocumentLineResponse{
				LineID:      l.LineID,
				ItemName:    l.ItemName,
				Quantity:    l.Quantity,
				UnitPrice:   l.UnitPrice,
				LineTotal:   l.LineTotal,
				Description: l.Description,
			}
		}
	}
	return resp
}

// ToDocumentResponses converts a slice of documents.
func ToDocumentResponses(docs []domain.Document) []DocumentResponse {
	responses := make([]DocumentResponse, len(docs))
	for i := range docs {
		responses[i] = ToDocumentResponse(&docs[i])
	}
	return responses
}
