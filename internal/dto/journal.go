package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/theaavashh/xyxx-sub001/internal/core/domain"
)

// JournalLineRequest is one line of a journal entry draft. Exactly one of
// debit/credit must be set with a positive amount; anything else is a
// degenerate line and the whole request is rejected.
type JournalLineRequest struct {
	AccountCode string           `json:"accountCode" binding:"required"`
	Debit       *decimal.Decimal `json:"debit,omitempty"`
	Credit      *decimal.Decimal `json:"credit,omitempty"`
	Notes       string           `json:"notes,omitempty"`
}

// CreateJournalRequest defines the payload for creating a draft journal entry.
type CreateJournalRequest struct {
	Date        time.Time            `json:"date" binding:"required"`
	Description string               `json:"description" binding:"required"`
	PartyLabel  string               `json:"partyLabel,omitempty"`
	Lines       []JournalLineRequest `json:"lines" binding:"required,min=2,dive"`
}

// UpdateJournalRequest defines the payload for updating a DRAFT entry.
// When Lines is present the draft's lines are replaced and revalidated.
type UpdateJournalRequest struct {
	Date        *time.Time           `json:"date,omitempty"`
	Description *string              `json:"description,omitempty"`
	PartyLabel  *string              `json:"partyLabel,omitempty"`
	Lines       []JournalLineRequest `json:"lines,omitempty"`
}

// JournalLineResponse defines the data returned for a journal line.
type JournalLineResponse struct {
	LineID      string          `json:"lineID"`
	AccountCode string          `json:"accountCode"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Notes       string          `json:"notes,omitempty"`
}

// JournalResponse defines the data returned for a journal entry.
type JournalResponse struct {
	JournalID          string                `json:"journalID"`
	JournalNumber      string                `json:"journalNumber"`
	Date               time.Time             `json:"date"`
	Description        string                `json:"description"`
	PartyLabel         string                `json:"partyLabel,omitempty"`
	Status             string                `json:"status"`
	TotalDebit         decimal.Decimal       `json:"totalDebit"`
	TotalCredit        decimal.Decimal       `json:"totalCredit"`
	PostedBy           *string               `json:"postedBy,omitempty"`
	PostedAt           *time.Time            `json:"postedAt,omitempty"`
	OriginalJournalID  *string               `json:"originalJournalID,omitempty"`
	ReversingJournalID *string               `json:"reversingJournalID,omitempty"`
	Lines              []JournalLineResponse `json:"lines,omitempty"`
	CreatedAt          time.Time             `json:"createdAt"`
	CreatedBy          string                `json:"createdBy"`
}

// ListJournalsParams holds the query parameters for listing journals.
type ListJournalsParams struct {
	Limit            int     `form:"limit"`
	NextToken        *string `form:"nextToken"`
	IncludeReversals bool    `form:"includeReversals"`
}

// ListJournalsResponse is a page of journals plus the cursor for the next page.
type ListJournalsResponse struct {
	Journals  []JournalResponse `json:"journals"`
	NextToken *string           `json:"nextToken,omitempty"`
}

// ToJournalLineResponse converts a domain.JournalLine to its response DTO.
func ToJournalLineResponse(l *domain.JournalLine) JournalLineResponse {
	return JournalLineResponse{
		LineID:      l.LineID,
		AccountCode: l.AccountCode,
		Debit:       l.DebitAmount(),
		Credit:      l.CreditAmount(),
		Notes:       l.Notes,
	}
}

// ToJournalResponse converts a domain.JournalEntry to its response DTO.
func ToJournalResponse(j *domain.JournalEntry) JournalResponse {
	resp := JournalResponse{
		JournalID:          j.JournalID,
		JournalNumber:      j.JournalNumber,
		Date:               j.EntryDate,
		Description:        j.Description,
		PartyLabel:         j.PartyLabel,
		Status:             string(j.Status),
		TotalDebit:         j.TotalDebit,
		TotalCredit:        j.TotalCredit,
		PostedBy:           j.PostedBy,
		PostedAt:           j.PostedAt,
		OriginalJournalID:  j.OriginalJournalID,
		ReversingJournalID: j.ReversingJournalID,
		CreatedAt:          j.CreatedAt,
		CreatedBy:          j.CreatedBy,
	}
	if len(j.Lines) > 0 {
		resp.Lines = make([]JournalLineResponse, len(j.Lines))
		for i := range j.Lines {
			resp.Lines[i] = ToJournalLineResponse(&j.Lines[i])
		}
	}
	return resp
}
