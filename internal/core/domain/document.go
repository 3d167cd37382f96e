package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentType identifies the four source document kinds that generate
// journal entries.
type DocumentType string

const (
	PurchaseDocument    DocumentType = "PURCHASE"
	SalesDocument       DocumentType = "SALES"
	PurchaseReturnDoc   DocumentType = "PURCHASE_RETURN"
	SalesReturnDocument DocumentType = "SALES_RETURN"
)

// PaymentStatus is the settlement state of a document.
type PaymentStatus string

const (
	Unpaid PaymentStatus = "UNPAID"
	Paid   PaymentStatus = "PAID"
)

// DocumentLine is one item row on a purchase/sales document.
type DocumentLine struct {
	LineID      string          `json:"lineID"`
	ItemName    string          `json:"itemName"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
	Description string          `json:"description,omitempty"`
}

// Document is a purchase entry, sales entry, or one of their returns.
// Creating a document deterministically produces exactly one posted journal
// entry (JournalID); marking it paid produces exactly one settlement journal
// entry (SettlementJournalID). Both links are stored so the document's
// financial impact stays traceable.
type Document struct {
	DocumentID     string          `json:"documentID"`
	DocumentNumber string          `json:"documentNumber"`
	DocumentType   DocumentType    `json:"documentType"`
	DocumentDate   time.Time       `json:"documentDate"`
	PartyID        string          `json:"partyID"`
	PartyName      string          `json:"partyName"`
	Lines          []DocumentLine  `json:"lines,omitempty"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Discount       decimal.Decimal `json:"discount"`
	TaxableAmount  decimal.Decimal `json:"taxableAmount"`
	VATRate        decimal.Decimal `json:"vatRate"`
	VATAmount      decimal.Decimal `json:"vatAmount"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	PaymentStatus  PaymentStatus   `json:"paymentStatus"`
	PaymentMethod  string          `json:"paymentMethod,omitempty"`
	PaidAt         *time.Time      `json:"paidAt,omitempty"`

	JournalID           string  `json:"journalID"`
	SettlementJournalID *string `json:"settlementJournalID,omitempty"`
	AuditFields
}

// IsReturn reports whether the document reverses an originating transaction
// kind (debit/credit sides swapped in its generated journal).
func (t DocumentType) IsReturn() bool {
	return t == PurchaseReturnDoc || t == SalesReturnDocument
}
