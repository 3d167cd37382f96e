package services

import (
	"context"

	"github.com/theaavashh/xyxx-sub001/internal/core/domain"
	"github.com/theaavashh/xyxx-sub001/internal/dto"
)

// AccountSvcFacade defines the chart-of-accounts operations.
type AccountSvcFacade interface {
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest, creatorUserID string) (*domain.Account, error)
	GetAccountByCode(ctx context.Context, code string) (*domain.Account, error)
	GetAccountsByCodes(ctx context.Context, codes []string) (map[string]domain.Account, error)
	ListAccounts(ctx context.Context, activeOnly bool) ([]domain.Account, error)
	UpdateAccount(ctx context.Context, code string, req dto.UpdateAccountRequest, userID string) (*domain.Account, error)
	// DeactivateAccount soft-deletes: accounts referenced by ledger entries
	// can never be removed, only switched inactive.
	DeactivateAccount(ctx context.Context, code string, userID string) error
}
