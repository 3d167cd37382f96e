package dto

import (
	"github.com/shopspring/decimal"
	"github.com/theaavashh/xyxx-sub001/internal/core/domain"
)

// CreateAccountRequest defines the payload for creating a chart-of-accounts
// entry. Code is immutable after creation.
type CreateAccountRequest struct {
	Code        string `json:"code" binding:"required"`
	Name        string `json:"name" binding:"required"`
	AccountType string `json:"accountType" binding:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	SubType     string `json:"subType"`
	Description string `json:"description"`
}

// UpdateAccountRequest defines the mutable account fields. Code and
// accountType are not updatable.
type UpdateAccountRequest struct {
	Name        *string `json:"name,omitempty"`
	SubType     *string `json:"subType,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	AccountType string          `json:"accountType"`
	SubType     string          `json:"subType"`
	Description string          `json:"description,omitempty"`
	IsActive    bool            `json:"isActive"`
	Balance     decimal.Decimal `json:"balance"`
}

// ToAccountResponse converts a domain.Account to its response DTO.
func ToAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		Code:        a.Code,
		Name:        a.Name,
		AccountType: string(a.AccountType),
		SubType:     a.SubType,
		Description: a.Description,
		IsActive:    a.IsActive,
		Balance:     a.Balance,
	}
}

// ToAccountResponses converts a slice of accounts.
func ToAccountResponses(accounts []domain.Account) []AccountResponse {
	responses := make([]AccountResponse, len(accounts))
	for i := range accounts {
		responses[i] = ToAccountResponse(&accounts[i])
	}
	return responses
}
