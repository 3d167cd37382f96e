package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/theaavashh/xyxx-sub001/internal/apperrors"
	"github.com/theaavashh/xyxx-sub001/internal/core/domain"
	portssvc "github.com/theaavashh/xyxx-sub001/internal/core/ports/services"
	"github.com/theaavashh/xyxx-sub001/internal/core/services"
	"github.com/theaavashh/xyxx-sub001/internal/dto"
)

// --- Mock AccountService ---
type MockAccountService struct {
	mock.Mock
}

var _ portssvc.AccountSvcFacade = (*MockAccountService)(nil)

func (m *MockAccountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, creatorUserID string) (*domain.Account, error) {
	args := m.Called(ctx, req, creatorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) GetAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) GetAccountsByCodes(ctx context.Context, codes []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, codes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountService) ListAccounts(ctx context.Context, activeOnly bool) ([]domain.Account, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountService) UpdateAccount(ctx context.Context, code string, req dto.UpdateAccountRequest, userID string) (*domain.Account, error) {
	args := m.Called(ctx, code, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) DeactivateAccount(ctx context.Context, code string, userID string) error {
	args := m.Called(ctx, code, userID)
	return args.Error(0)
}

// --- Mock LedgerService ---
type MockLedgerService struct {
	mock.Mock
}

var _ portssvc.LedgerSvcFacade = (*MockLedgerService)(nil)

func (m *MockLedgerService) GetAccountLedger(ctx context.Context, accountCode string, from, to *time.Time) (*dto.AccountLedgerResponse, error) {
	args := m.Called(ctx, accountCode, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AccountLedgerResponse), args.Error(1)
}

func (m *MockLedgerService) GetAccountBalance(ctx context.Context, accountCode string, asOf *time.Time) (*domain.AccountBalance, error) {
	args := m.Called(ctx, accountCode, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccountBalance), args.Error(1)
}

func (m *MockLedgerService) ExportAccountLedgerCSV(ctx context.Context, w io.Writer, accountCode string, from, to *time.Time) error {
	args := m.Called(ctx, w, accountCode, from, to)
	if args.Error(0) == nil {
		fmt.Fprintln(w, "date,journal_id,description,debit,credit,balance")
	}
	return args.Error(0)
}

// --- Test Suite ---
type AccountHandlerTestSuite struct {
	suite.Suite
	router             *gin.Engine
	mockAccountService *MockAccountService
	mockLedgerService  *MockLedgerService
}

func (suite *AccountHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()

	suite.mockAccountService = new(MockAccountService)
	suite.mockLedgerService = new(MockLedgerService)

	v1 := suite.router.Group("/api/v1")
	registerAccountRoutes(v1, suite.mockAccountService, suite.mockLedgerService)
}

// --- Test Cases ---

func (suite *AccountHandlerTestSuite) TestCreateAccount_Success() {
	account := &domain.Account{
		Code:        "1400",
		Name:        "Prepaid Expenses",
		AccountType: domain.Asset,
		SubType:     domain.SubTypeCurrentAsset,
		IsActive:    true,
		Balance:     decimal.Zero,
	}
	suite.mockAccountService.On("CreateAccount",
		mock.Anything,
		mock.MatchedBy(func(req dto.CreateAccountRequest) bool {
			return req.Code == "1400" && req.AccountType == "ASSET"
		}),
		"alice",
	).Return(account, nil).Once()

	body := `{"code":"1400","name":"Prepaid Expenses","accountType":"ASSET","subType":"CURRENT_ASSET"}`
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/accounts", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-ID", "alice")

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusCreated, w.Code)

	var resp dto.AccountResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("1400", resp.Code)
	suite.Equal("ASSET", resp.AccountType)
	suite.mockAccountService.AssertExpectations(suite.T())
}

func (suite *AccountHandlerTestSuite) TestCreateAccount_DuplicateCode() {
	suite.mockAccountService.On("CreateAccount", mock.Anything, mock.AnythingOfType("dto.CreateAccountRequest"), "system").
		Return(nil, fmt.Errorf("%w: 1000", services.ErrDuplicateAccountCode)).Once()

	body := `{"code":"1000","name":"Cash","accountType":"ASSET"}`
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/accounts", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *AccountHandlerTestSuite) TestCreateAccount_MalformedBody() {
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/accounts", bytes.NewBufferString(`{"code":`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockAccountService.AssertNotCalled(suite.T(), "CreateAccount", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AccountHandlerTestSuite) TestGetAccount_NotFound() {
	suite.mockAccountService.On("GetAccountByCode", mock.Anything, "9999").Return(nil, apperrors.ErrNotFound).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/accounts/9999", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *AccountHandlerTestSuite) TestListAccounts_ActiveOnlyFlag() {
	accounts := []domain.Account{
		{Code: "1000", Name: "Cash", AccountType: domain.Asset, IsActive: true},
	}
	suite.mockAccountService.On("ListAccounts", mock.Anything, true).Return(accounts, nil).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/accounts?activeOnly=true", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)

	var resp []dto.AccountResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Len(resp, 1)
}

func (suite *AccountHandlerTestSuite) TestGetAccountBalance_Success() {
	asOf := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)
	balance := &domain.AccountBalance{
		AccountCode: "1000",
		Amount:      decimal.NewFromInt(250),
		Side:        domain.CreditBalance,
		AsOf:        asOf,
	}
	suite.mockLedgerService.On("GetAccountBalance", mock.Anything, "1000", mock.AnythingOfType("*time.Time")).Return(balance, nil).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/accounts/1000/balance?asOf=2026-07-15", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)

	var resp dto.AccountBalanceResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("credit", resp.Side)
	suite.True(resp.Amount.Equal(decimal.NewFromInt(250)))
}

func (suite *AccountHandlerTestSuite) TestGetAccountLedger_BadDate() {
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/accounts/1000/ledger?from=not-a-date", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockLedgerService.AssertNotCalled(suite.T(), "GetAccountLedger", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AccountHandlerTestSuite) TestExportAccountLedger_CSVHeaders() {
	suite.mockLedgerService.On("ExportAccountLedgerCSV", mock.Anything, mock.Anything, "1000", (*time.Time)(nil), (*time.Time)(nil)).Return(nil).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/accounts/1000/ledger/export", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Header().Get("Content-Type"), "text/csv")
	suite.Contains(w.Header().Get("Content-Disposition"), "ledger-1000.csv")
}

// --- Run Test Suite ---
func TestAccountHandler(t *testing.T) {
	suite.Run(t, new(AccountHandlerTestSuite))
}
