package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/theaavashh/xyxx-sub001/internal/core/domain"
)

// CreatePartyRequest defines the payload for registering a customer or
// supplier in the sub-ledger.
type CreatePartyRequest struct {
	Name               string          `json:"name" binding:"required"`
	PartyType          string          `json:"partyType" binding:"required,oneof=CUSTOMER SUPPLIER"`
	OpeningBalance     decimal.Decimal `json:"openingBalance"`
	OpeningBalanceSide string          `json:"openingBalanceSide" binding:"omitempty,oneof=debit credit"`
}

// RecordPartyTransactionRequest defines the payload for appending a
// transaction to a party's stream.
type RecordPartyTransactionRequest struct {
	Date          time.Time        `json:"date" binding:"required"`
	Description   string           `json:"description" binding:"required"`
	ReferenceID   string           `json:"referenceID,omitempty"`
	ReferenceType string           `json:"referenceType" binding:"required,oneof=INVOICE PAYMENT PURCHASE ADJUSTMENT"`
	Debit         *decimal.Decimal `json:"debit,omitempty"`
	Credit        *decimal.Decimal `json:"credit,omitempty"`
}

// MarkTransactionPaidRequest carries the payment metadata for settling a
// party transaction.
type MarkTransactionPaidRequest struct {
	PaymentMethod string     `json:"paymentMethod" binding:"required"`
	PaymentDate   *time.Time `json:"paymentDate,omitempty"`
}

// PartyResponse defines the data returned for a party.
type PartyResponse struct {
	PartyID            string          `json:"partyID"`
	Name               string          `json:"name"`
	PartyType          string          `json:"partyType"`
	OpeningBalance     decimal.Decimal `json:"openingBalance"`
	OpeningBalanceSide string          `json:"openingBalanceSide"`
	CurrentBalance     decimal.Decimal `json:"currentBalance"`
	IsActive           bool            `json:"isActive"`
}

// PartyTransactionResponse defines the data returned for one party transaction.
type PartyTransactionResponse struct {
	TransactionID string          `json:"transactionID"`
	Date          time.Time       `json:"date"`
	Description   string          `json:"description"`
	ReferenceID   string          `json:"referenceID,omitempty"`
	ReferenceType string          `json:"referenceType"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
	Balance       decimal.Decimal `json:"balance"`
	Status        string          `json:"status"`
	PaidAt        *time.Time      `json:"paidAt,omitempty"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
}

// ListPartyTransactionsResponse is a page of a party's transaction stream.
type ListPartyTransactionsResponse struct {
	Party        PartyResponse              `json:"party"`
	Transactions []PartyTransactionResponse `json:"transactions"`
	NextToken    *string                    `json:"nextToken,omitempty"`
}

// ToPartyResponse converts a domain.Party to its response DTO.
func ToPartyResponse(p *domain.Party) PartyResponse {
	return PartyResponse{
		PartyID:            p.PartyID,
		Name:               p.Name,
		PartyType:          string(p.PartyType),
		OpeningBalance:     p.OpeningBalance,
		OpeningBalanceSide: string(p.OpeningBalanceSide),
		CurrentBalance:     p.CurrentBalance,
		IsActive:           p.IsActive,
	}
}

// ToPartyTransactionResponse converts a domain.PartyTransaction to its DTO.
func ToPartyTransactionResponse(t *domain.PartyTransaction) PartyTransactionResponse {
	return PartyTransactionResponse{
		TransactionID: t.TransactionID,
		Date:          t.TxnDate,
		Description:   t.Description,
		ReferenceID:   t.ReferenceID,
		ReferenceType: string(t.ReferenceType),
		Debit:         t.Debit,
		Credit:        t.Credit,
		Balance:       t.Balance,
		Status:        string(t.Status),
		PaidAt:        t.PaidAt,
		PaymentMethod: t.PaymentMethod,
	}
}

// ToPartyTransactionResponses converts a slice of party transactions.
func ToPartyTransactionResponses(txns []domain.PartyTransaction) []PartyTransactionResponse {
	responses := make([]PartyTransactionResponse, len(txns))
	for i := range txns {
		responses[i] = ToPartyTransactionResponse(&txns[i])
	}
	return responses
}
