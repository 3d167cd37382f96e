package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theaavashh/xyxx-sub001/internal/apperrors"
	"github.com/theaavashh/xyxx-sub001/internal/core/domain"
	portsrepo "github.com/theaavashh/xyxx-sub001/internal/core/ports/repositories"
	portssvc "github.com/theaavashh/xyxx-sub001/internal/core/ports/services"
	"github.com/theaavashh/xyxx-sub001/internal/dto"
	"github.com/theaavashh/xyxx-sub001/internal/middleware"
)

var ErrDuplicateAccountCode = errors.New("account code already exists")

type accountService struct {
	accountRepo portsrepo.AccountRepository
}

// NewAccountService creates a new chart-of-accounts service.
func NewAccountService(accountRepo portsrepo.AccountRepository) portssvc.AccountSvcFacade {
	return &accountService{accountRepo: accountRepo}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// CreateAccount validates and persists a new account with a zero balance.
func (s *accountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, creatorUserID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	accountType := domain.AccountType(req.AccountType)
	if !accountType.IsValid() {
		return nil, fmt.Errorf("%w: invalid account type %q", apperrors.ErrValidation, req.AccountType)
	}

	existing, err := s.accountRepo.FindAccountByCode(ctx, req.Code)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		logger.Error("Failed to check for existing account", slog.String("error", err.Error()), slog.String("code", req.Code))
		return nil, fmt.Errorf("failed to check account code %s: %w", req.Code, err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateAccountCode, req.Code)
	}

	now := time.Now().UTC()
	account := domain.Account{
		Code:        req.Code,
		Name:        req.Name,
		AccountType: accountType,
		SubType:     req.SubType,
		Description: req.Description,
		IsActive:    true,
		Balance:     decimal.Zero,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAccountCode, req.Code)
		}
		logger.Error("Failed to save account", slog.String("error", err.Error()), slog.String("code", req.Code))
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	logger.Info("Account created", slog.String("code", account.Code), slog.String("type", string(account.AccountType)))
	return &account, nil
}

// GetAccountByCode retrieves a single account.
func (s *accountService) GetAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByCode(ctx, code)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			middleware.GetLoggerFromCtx(ctx).Error("Failed to find account", slog.String("error", err.Error()), slog.String("code", code))
		}
		return nil, err
	}
	return account, nil
}

// GetAccountsByCodes retrieves accounts keyed by code. Missing codes are
// simply absent from the map; callers decide whether that is an error.
func (s *accountService) GetAccountsByCodes(ctx context.Context, codes []string) (map[string]domain.Account, error) {
	if len(codes) == 0 {
		return map[string]domain.Account{}, nil
	}
	accounts, err := s.accountRepo.FindAccountsByCodes(ctx, codes)
	if err != nil {
		middleware.GetLoggerFromCtx(ctx).Error("Failed to find accounts by codes", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to retrieve accounts: %w", err)
	}
	return accounts, nil
}

// ListAccounts returns the chart of accounts, optionally active only.
func (s *accountService) ListAccounts(ctx context.Context, activeOnly bool) ([]domain.Account, error) {
	accounts, err := s.accountRepo.ListAccounts(ctx, activeOnly)
	if err != nil {
		middleware.GetLoggerFromCtx(ctx).Error("Failed to list accounts", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// UpdateAccount changes the mutable fields of an account. The code, type and
// balance are not updatable through this path.
func (s *accountService) UpdateAccount(ctx context.Context, code string, req dto.UpdateAccountRequest, userID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.GetAccountByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		account.Name = *req.Name
	}
	if req.SubType != nil {
		account.SubType = *req.SubType
	}
	if req.Description != nil {
		account.Description = *req.Description
	}
	if req.IsActive != nil {
		account.IsActive = *req.IsActive
	}
	account.LastUpdatedAt = time.Now().UTC()
	account.LastUpdatedBy = userID

	if err := s.accountRepo.UpdateAccount(ctx, *account); err != nil {
		logger.Error("Failed to update account", slog.String("error", err.Error()), slog.String("code", code))
		return nil, fmt.Errorf("failed to update account %s: %w", code, err)
	}

	logger.Info("Account updated", slog.String("code", code))
	return account, nil
}

// DeactivateAccount switches an account inactive. Accounts that ever appeared
// on the ledger are never hard-deleted, so deactivation is the only removal.
func (s *accountService) DeactivateAccount(ctx context.Context, code string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.GetAccountByCode(ctx, code)
	if err != nil {
		return err
	}
	if !account.IsActive {
		return nil
	}

	account.IsActive = false
	account.LastUpdatedAt = time.Now().UTC()
	account.LastUpdatedBy = userID

	if err := s.accountRepo.UpdateAccount(ctx, *account); err != nil {
		logger.Error("Failed to deactivate account", slog.String("error", err.Error()), slog.String("code", code))
		return fmt.Errorf("failed to deactivate account %s: %w", code, err)
	}

	logger.Info("Account deactivated", slog.String("code", code), slog.String("deactivated_by", userID))
	return nil
}
