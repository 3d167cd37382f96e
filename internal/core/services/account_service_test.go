package services_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/theaavashh/xyxx-sub001/internal/apperrors"
	"github.com/theaavashh/xyxx-sub001/internal/core/domain"
	portssvc "github.com/theaavashh/xyxx-sub001/internal/core/ports/services"
	"github.com/theaavashh/xyxx-sub001/internal/core/services"
	"github.com/theaavashh/xyxx-sub001/internal/dto"
)

// --- Test Suite Setup ---
type AccountServiceTestSuite struct {
	suite.Suite
	mockAccountRepo *MockAccountRepository
	service         portssvc.AccountSvcFacade
	userID          string
}

func (suite *AccountServiceTestSuite) SetupTest() {
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.service = services.NewAccountService(suite.mockAccountRepo)
	suite.userID = "tester"
}

func strPtr(s string) *string { return &s }

// --- CreateAccount ---

func (suite *AccountServiceTestSuite) TestCreateAccount_Success() {
	ctx := context.Background()
	req := dto.CreateAccountRequest{
		Code:        "1400",
		Name:        "Prepaid Expenses",
		AccountType: "ASSET",
		SubType:     domain.SubTypeCurrentAsset,
	}

	suite.mockAccountRepo.On("FindAccountByCode", ctx, "1400").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockAccountRepo.On("SaveAccount", ctx, mock.AnythingOfType("domain.Account")).Return(nil).Once()

	account, err := suite.service.CreateAccount(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Equal("1400", account.Code)
	suite.Equal(domain.Asset, account.AccountType)
	suite.True(account.IsActive)
	suite.True(account.Balance.Equal(decimal.Zero))
	suite.Equal(suite.userID, account.CreatedBy)
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestCreateAccount_DuplicateCode() {
	ctx := context.Background()
	req := dto.CreateAccountRequest{Code: domain.AcctCash, Name: "Cash", AccountType: "ASSET"}
	existing := domain.Account{Code: domain.AcctCash, Name: "Cash", AccountType: domain.Asset, IsActive: true}

	suite.mockAccountRepo.On("FindAccountByCode", ctx, domain.AcctCash).Return(&existing, nil).Once()

	account, err := suite.service.CreateAccount(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.Nil(account)
	suite.ErrorIs(err, services.ErrDuplicateAccountCode)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "SaveAccount", mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestCreateAccount_DuplicateRace() {
	ctx := context.Background()
	req := dto.CreateAccountRequest{Code: "1400", Name: "Prepaid Expenses", AccountType: "ASSET"}

	suite.mockAccountRepo.On("FindAccountByCode", ctx, "1400").Return(nil, apperrors.ErrNotFound).Once()
	// The unique constraint catches a concurrent insert of the same code.
	suite.mockAccountRepo.On("SaveAccount", ctx, mock.AnythingOfType("domain.Account")).Return(apperrors.ErrDuplicate).Once()

	_, err := suite.service.CreateAccount(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrDuplicateAccountCode)
}

func (suite *AccountServiceTestSuite) TestCreateAccount_InvalidType() {
	ctx := context.Background()
	req := dto.CreateAccountRequest{Code: "1400", Name: "Prepaid Expenses", AccountType: "SOMETHING"}

	account, err := suite.service.CreateAccount(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.Nil(account)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "FindAccountByCode", mock.Anything, mock.Anything)
}

// --- UpdateAccount ---

func (suite *AccountServiceTestSuite) TestUpdateAccount_MutableFieldsOnly() {
	ctx := context.Background()
	existing := domain.Account{Code: domain.AcctCash, Name: "Cash", AccountType: domain.Asset, IsActive: true, Balance: decimal.NewFromInt(500)}
	req := dto.UpdateAccountRequest{
		Name:        strPtr("Cash on Hand"),
		Description: strPtr("Physical cash"),
	}

	suite.mockAccountRepo.On("FindAccountByCode", ctx, domain.AcctCash).Return(&existing, nil).Once()

	var updated domain.Account
	suite.mockAccountRepo.On("UpdateAccount", ctx, mock.AnythingOfType("domain.Account")).Run(func(args mock.Arguments) {
		updated = args.Get(1).(domain.Account)
	}).Return(nil).Once()

	account, err := suite.service.UpdateAccount(ctx, domain.AcctCash, req, suite.userID)

	suite.Require().NoError(err)
	suite.Equal("Cash on Hand", account.Name)
	suite.Equal("Physical cash", account.Description)
	// The code, type and balance pass through untouched.
	suite.Equal(domain.AcctCash, updated.Code)
	suite.Equal(domain.Asset, updated.AccountType)
	suite.True(updated.Balance.Equal(decimal.NewFromInt(500)))
	suite.Equal(suite.userID, updated.LastUpdatedBy)
}

func (suite *AccountServiceTestSuite) TestUpdateAccount_NotFound() {
	ctx := context.Background()

	suite.mockAccountRepo.On("FindAccountByCode", ctx, "9999").Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.UpdateAccount(ctx, "9999", dto.UpdateAccountRequest{Name: strPtr("Ghost")}, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "UpdateAccount", mock.Anything, mock.Anything)
}

// --- DeactivateAccount ---

func (suite *AccountServiceTestSuite) TestDeactivateAccount_Success() {
	ctx := context.Background()
	existing := domain.Account{Code: domain.AcctCash, Name: "Cash", AccountType: domain.Asset, IsActive: true}

	suite.mockAccountRepo.On("FindAccountByCode", ctx, domain.AcctCash).Return(&existing, nil).Once()

	var updated domain.Account
	suite.mockAccountRepo.On("UpdateAccount", ctx, mock.AnythingOfType("domain.Account")).Run(func(args mock.Arguments) {
		updated = args.Get(1).(domain.Account)
	}).Return(nil).Once()

	err := suite.service.DeactivateAccount(ctx, domain.AcctCash, suite.userID)

	suite.Require().NoError(err)
	suite.False(updated.IsActive)
	suite.Equal(suite.userID, updated.LastUpdatedBy)
}

func (suite *AccountServiceTestSuite) TestDeactivateAccount_AlreadyInactiveIsIdempotent() {
	ctx := context.Background()
	existing := domain.Account{Code: domain.AcctCash, Name: "Cash", AccountType: domain.Asset, IsActive: false}

	suite.mockAccountRepo.On("FindAccountByCode", ctx, domain.AcctCash).Return(&existing, nil).Once()

	err := suite.service.DeactivateAccount(ctx, domain.AcctCash, suite.userID)

	suite.Require().NoError(err)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "UpdateAccount", mock.Anything, mock.Anything)
}

// --- ListAccounts ---

func (suite *AccountServiceTestSuite) TestListAccounts_ActiveOnly() {
	ctx := context.Background()
	accounts := []domain.Account{
		{Code: domain.AcctCash, Name: "Cash", AccountType: domain.Asset, IsActive: true},
		{Code: domain.AcctBank, Name: "Bank", AccountType: domain.Asset, IsActive: true},
	}

	suite.mockAccountRepo.On("ListAccounts", ctx, true).Return(accounts, nil).Once()

	result, err := suite.service.ListAccounts(ctx, true)

	suite.Require().NoError(err)
	suite.Len(result, 2)
}

// --- Run Test Suite ---
func TestAccountService(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}
