package services_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/theaavashh/xyxx-sub001/internal/apperrors"
	"github.com/theaavashh/xyxx-sub001/internal/core/domain"
	portsrepo "github.com/theaavashh/xyxx-sub001/internal/core/ports/repositories"
	portssvc "github.com/theaavashh/xyxx-sub001/internal/core/ports/services"
	"github.com/theaavashh/xyxx-sub001/internal/core/services"
)

// --- Mock LedgerRepository ---
type MockLedgerRepository struct {
	mock.Mock
}

var _ portsrepo.LedgerRepository = (*MockLedgerRepository)(nil)

func (m *MockLedgerRepository) FindLedgerEntries(ctx context.Context, accountCode string, from, to *time.Time) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, accountCode, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) SignedBalanceAsOf(ctx context.Context, accountCode string, asOf *time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, accountCode, asOf)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// --- Mock AccountRepository ---
type MockAccountRepository struct {
	mock.Mock
}

var _ portsrepo.AccountRepository = (*MockAccountRepository)(nil)

func (m *MockAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) FindAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountsByCodes(ctx context.Context, codes []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, codes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccounts(ctx context.Context, activeOnly bool) ([]domain.Account, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

// --- Test Suite Setup ---
type LedgerServiceTestSuite struct {
	suite.Suite
	mockLedgerRepo  *MockLedgerRepository
	mockAccountRepo *MockAccountRepository
	service         portssvc.LedgerSvcFacade
	cashAccount     domain.Account
}

func (suite *LedgerServiceTestSuite) SetupTest() {
	suite.mockLedgerRepo = new(MockLedgerRepository)
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.service = services.NewLedgerService(suite.mockLedgerRepo, suite.mockAccountRepo)
	suite.cashAccount = domain.Account{Code: domain.AcctCash, Name: "Cash", AccountType: domain.Asset, IsActive: true}
}

func ledgerEntry(daysAgo int, debit, credit int64) domain.LedgerEntry {
	return domain.LedgerEntry{
		LedgerID:    uuid.NewString(),
		AccountCode: domain.AcctCash,
		JournalID:   uuid.NewString(),
		LineID:      uuid.NewString(),
		EntryDate:   time.Now().UTC().AddDate(0, 0, -daysAgo),
		Description: "test entry",
		Debit:       decimal.NewFromInt(debit),
		Credit:      decimal.NewFromInt(credit),
		CreatedAt:   time.Now().UTC(),
	}
}

// --- ReplayBalances ---

func (suite *LedgerServiceTestSuite) TestReplayBalances_RunningBalance() {
	opening := decimal.NewFromInt(100)
	entries := []domain.LedgerEntry{
		ledgerEntry(3, 50, 0),
		ledgerEntry(2, 0, 30),
		ledgerEntry(1, 0, 200),
	}

	replayed := services.ReplayBalances(opening, entries)

	suite.Require().Len(replayed, 3)
	suite.True(replayed[0].Balance.Equal(decimal.NewFromInt(150)))
	suite.True(replayed[1].Balance.Equal(decimal.NewFromInt(120)))
	// The running balance may go negative mid-stream.
	suite.True(replayed[2].Balance.Equal(decimal.NewFromInt(-80)))
}

func (suite *LedgerServiceTestSuite) TestReplayBalances_OverridesStoredBalances() {
	entries := []domain.LedgerEntry{ledgerEntry(1, 10, 0)}
	entries[0].Balance = decimal.NewFromInt(9999)

	replayed := services.ReplayBalances(decimal.Zero, entries)

	suite.True(replayed[0].Balance.Equal(decimal.NewFromInt(10)))
}

func (suite *LedgerServiceTestSuite) TestReplayBalances_Empty() {
	replayed := services.ReplayBalances(decimal.NewFromInt(5), nil)
	suite.Empty(replayed)
}

// --- GetAccountLedger ---

func (suite *LedgerServiceTestSuite) TestGetAccountLedger_FullStream() {
	ctx := context.Background()
	entries := []domain.LedgerEntry{
		ledgerEntry(2, 500, 0),
		ledgerEntry(1, 0, 200),
	}

	suite.mockAccountRepo.On("FindAccountByCode", ctx, domain.AcctCash).Return(&suite.cashAccount, nil).Once()
	suite.mockLedgerRepo.On("FindLedgerEntries", ctx, domain.AcctCash, (*time.Time)(nil), (*time.Time)(nil)).Return(entries, nil).Once()

	ledger, err := suite.service.GetAccountLedger(ctx, domain.AcctCash, nil, nil)

	suite.Require().NoError(err)
	// No window start: the stream opens at zero and the aggregate is skipped.
	suite.True(ledger.OpeningBalance.IsZero())
	suite.Require().Len(ledger.Entries, 2)
	suite.True(ledger.Entries[0].Balance.Equal(decimal.NewFromInt(500)))
	suite.True(ledger.Entries[1].Balance.Equal(decimal.NewFromInt(300)))
	suite.True(ledger.ClosingBalance.Equal(decimal.NewFromInt(300)))
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "SignedBalanceAsOf", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestGetAccountLedger_WindowOpeningBalance() {
	ctx := context.Background()
	from := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	entries := []domain.LedgerEntry{ledgerEntry(1, 0, 100)}

	suite.mockAccountRepo.On("FindAccountByCode", ctx, domain.AcctCash).Return(&suite.cashAccount, nil).Once()
	// Everything strictly before the window start forms the opening balance.
	suite.mockLedgerRepo.On("SignedBalanceAsOf", ctx, domain.AcctCash, mock.MatchedBy(func(cutoff *time.Time) bool {
		return cutoff != nil && cutoff.Before(from)
	})).Return(decimal.NewFromInt(250), nil).Once()
	suite.mockLedgerRepo.On("FindLedgerEntries", ctx, domain.AcctCash, &from, (*time.Time)(nil)).Return(entries, nil).Once()

	ledger, err := suite.service.GetAccountLedger(ctx, domain.AcctCash, &from, nil)

	suite.Require().NoError(err)
	suite.True(ledger.OpeningBalance.Equal(decimal.NewFromInt(250)))
	suite.Require().Len(ledger.Entries, 1)
	suite.True(ledger.Entries[0].Balance.Equal(decimal.NewFromInt(150)))
	suite.True(ledger.ClosingBalance.Equal(decimal.NewFromInt(150)))
}

func (suite *LedgerServiceTestSuite) TestGetAccountLedger_EmptyWindow() {
	ctx := context.Background()
	from := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	suite.mockAccountRepo.On("FindAccountByCode", ctx, domain.AcctCash).Return(&suite.cashAccount, nil).Once()
	suite.mockLedgerRepo.On("SignedBalanceAsOf", ctx, domain.AcctCash, mock.AnythingOfType("*time.Time")).Return(decimal.NewFromInt(75), nil).Once()
	suite.mockLedgerRepo.On("FindLedgerEntries", ctx, domain.AcctCash, &from, (*time.Time)(nil)).Return([]domain.LedgerEntry{}, nil).Once()

	ledger, err := suite.service.GetAccountLedger(ctx, domain.AcctCash, &from, nil)

	suite.Require().NoError(err)
	suite.Empty(ledger.Entries)
	// With no activity in the window the closing balance is the opening one.
	suite.True(ledger.ClosingBalance.Equal(decimal.NewFromInt(75)))
}

func (suite *LedgerServiceTestSuite) TestGetAccountLedger_UnknownAccount() {
	ctx := context.Background()

	suite.mockAccountRepo.On("FindAccountByCode", ctx, "9999").Return(nil, apperrors.ErrNotFound).Once()

	ledger, err := suite.service.GetAccountLedger(ctx, "9999", nil, nil)

	suite.Require().Error(err)
	suite.Nil(ledger)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "FindLedgerEntries", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// --- GetAccountBalance ---

func (suite *LedgerServiceTestSuite) TestGetAccountBalance_CreditSide() {
	ctx := context.Background()

	suite.mockAccountRepo.On("FindAccountByCode", ctx, domain.AcctCash).Return(&suite.cashAccount, nil).Once()
	suite.mockLedgerRepo.On("SignedBalanceAsOf", ctx, domain.AcctCash, (*time.Time)(nil)).Return(decimal.NewFromInt(-250), nil).Once()

	balance, err := suite.service.GetAccountBalance(ctx, domain.AcctCash, nil)

	suite.Require().NoError(err)
	// Balances report unsigned with a side, never negative.
	suite.True(balance.Amount.Equal(decimal.NewFromInt(250)))
	suite.Equal(domain.CreditBalance, balance.Side)
}

func (suite *LedgerServiceTestSuite) TestGetAccountBalance_ZeroReportsDebit() {
	ctx := context.Background()
	asOf := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)

	suite.mockAccountRepo.On("FindAccountByCode", ctx, domain.AcctCash).Return(&suite.cashAccount, nil).Once()
	suite.mockLedgerRepo.On("SignedBalanceAsOf", ctx, domain.AcctCash, &asOf).Return(decimal.Zero, nil).Once()

	balance, err := suite.service.GetAccountBalance(ctx, domain.AcctCash, &asOf)

	suite.Require().NoError(err)
	suite.True(balance.Amount.IsZero())
	suite.Equal(domain.DebitBalance, balance.Side)
	suite.Equal(asOf, balance.AsOf)
}

// --- ExportAccountLedgerCSV ---

func (suite *LedgerServiceTestSuite) TestExportAccountLedgerCSV() {
	ctx := context.Background()
	entry := ledgerEntry(1, 500, 0)
	entry.EntryDate = time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	entry.Description = "Cash sale"

	suite.mockAccountRepo.On("FindAccountByCode", ctx, domain.AcctCash).Return(&suite.cashAccount, nil).Once()
	suite.mockLedgerRepo.On("FindLedgerEntries", ctx, domain.AcctCash, (*time.Time)(nil), (*time.Time)(nil)).Return([]domain.LedgerEntry{entry}, nil).Once()

	var buf bytes.Buffer
	err := suite.service.ExportAccountLedgerCSV(ctx, &buf, domain.AcctCash, nil, nil)

	suite.Require().NoError(err)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	suite.Require().Len(lines, 2)
	suite.Equal("date,journal_id,description,debit,credit,balance", lines[0])
	suite.Contains(lines[1], "2026-07-10")
	suite.Contains(lines[1], "Cash sale")
	suite.Contains(lines[1], "500.00")
}

// --- Run Test Suite ---
func TestLedgerService(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}
