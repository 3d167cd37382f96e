package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/theaavashh/xyxx-sub001/internal/apperrors"
	"github.com/theaavashh/xyxx-sub001/internal/core/domain"
	portsrepo "github.com/theaavashh/xyxx-sub001/internal/core/ports/repositories"
	portssvc "github.com/theaavashh/xyxx-sub001/internal/core/ports/services"
	"github.com/theaavashh/xyxx-sub001/internal/core/services"
	"github.com/theaavashh/xyxx-sub001/internal/dto"
)

// --- Mock JournalRepository ---
type MockJournalRepository struct {
	mock.Mock
}

var _ portsrepo.JournalRepository = (*MockJournalRepository)(nil)

func (m *MockJournalRepository) SaveJournal(ctx context.Context, journal domain.JournalEntry) (*domain.JournalEntry, error) {
	args := m.Called(ctx, journal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalRepository) FindJournalByID(ctx context.Context, journalID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, journalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalRepository) FindLinesByJournalID(ctx context.Context, journalID string) ([]domain.JournalLine, error) {
	args := m.Called(ctx, journalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.JournalLine), args.Error(1)
}

func (m *MockJournalRepository) ListJournals(ctx context.Context, limit int, nextToken *string, includeReversals bool) ([]domain.JournalEntry, *string, error) {
	args := m.Called(ctx, limit, nextToken, includeReversals)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var next *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		next = &tokenVal
	}
	return args.Get(0).([]domain.JournalEntry), next, args.Error(2)
}

func (m *MockJournalRepository) PostJournal(ctx context.Context, journalID string, postedBy string, postedAt time.Time) (*domain.JournalEntry, error) {
	args := m.Called(ctx, journalID, postedBy, postedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalRepository) UpdateDraftJournal(ctx context.Context, journal domain.JournalEntry) (*domain.JournalEntry, error) {
	args := m.Called(ctx, journal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalRepository) DeleteDraftJournal(ctx context.Context, journalID string) error {
	args := m.Called(ctx, journalID)
	return args.Error(0)
}

func (m *MockJournalRepository) SaveReversalJournal(ctx context.Context, reversing domain.JournalEntry, originalJournalID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, reversing, originalJournalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

// --- Mock AccountService (as used by the journal engine) ---
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

// --- Test Suite Setup ---
type JournalServiceTestSuite struct {
	suite.Suite
	mockJournalRepo *MockJournalRepository
	mockAccountSvc  *MockAccountService
	service         portssvc.JournalSvcFacade
	cashAccount     domain.Account
	revenueAccount  domain.Account
	userID          string
}

func (suite *JournalServiceTestSuite) SetupTest() {
	suite.mockJournalRepo = new(MockJournalRepository)
	suite.mockAccountSvc = new(MockAccountService)
	suite.service = services.NewJournalService(suite.mockJournalRepo, suite.mockAccountSvc)

	suite.userID = "tester"
	suite.cashAccount = domain.Account{
		Code:        domain.AcctCash,
		Name:        "Cash",
		AccountType: domain.Asset,
		IsActive:    true,
	}
	suite.revenueAccount = domain.Account{
		Code:        domain.AcctSalesRevenue,
		Name:        "Sales Revenue",
		AccountType: domain.Revenue,
		IsActive:    true,
	}
}

func (suite *JournalServiceTestSuite) accountsMap() map[string]domain.Account {
	return map[string]domain.Account{
		suite.cashAccount.Code:    suite.cashAccount,
		suite.revenueAccount.Code: suite.revenueAccount,
	}
}

func amt(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func (suite *JournalServiceTestSuite) balancedRequest() dto.CreateJournalRequest {
	return dto.CreateJournalRequest{
		Date:        time.Now(),
		Description: "Cash sale",
		Lines: []dto.JournalLineRequest{
			{AccountCode: suite.cashAccount.Code, Debit: amt(100)},
			{AccountCode: suite.revenueAccount.Code, Credit: amt(100)},
		},
	}
}

// --- CreateJournal ---

func (suite *JournalServiceTestSuite) TestCreateJournal_Success() {
	ctx := context.Background()
	req := suite.balancedRequest()

	saved := &domain.JournalEntry{}
	suite.mockAccountSvc.On("GetAccountsByCodes", ctx, []string{suite.cashAccount.Code, suite.revenueAccount.Code}).Return(suite.accountsMap(), nil).Once()
	suite.mockJournalRepo.On("SaveJournal", ctx, mock.AnythingOfType("domain.JournalEntry")).Run(func(args mock.Arguments) {
		*saved = args.Get(1).(domain.JournalEntry)
	}).Return(saved, nil).Once()

	created, err := suite.service.CreateJournal(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(created)
	suite.NotEmpty(created.JournalID)
	suite.Equal(domain.Draft, created.Status)
	suite.Equal(req.Description, created.Description)
	suite.True(created.TotalDebit.Equal(decimal.NewFromInt(100)))
	suite.True(created.TotalCredit.Equal(decimal.NewFromInt(100)))
	suite.Equal(suite.userID, created.CreatedBy)
	suite.Len(created.Lines, 2)

	suite.mockAccountSvc.AssertExpectations(suite.T())
	suite.mockJournalRepo.AssertExpectations(suite.T())
}

func (suite *JournalServiceTestSuite) TestCreateJournal_Unbalanced() {
	ctx := context.Background()
	req := dto.CreateJournalRequest{
		Date:        time.Now(),
		Description: "Unbalanced",
		Lines: []dto.JournalLineRequest{
			{AccountCode: suite.cashAccount.Code, Debit: amt(100)},
			{AccountCode: suite.revenueAccount.Code, Credit: amt(90)},
		},
	}

	_, err := suite.service.CreateJournal(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrUnbalancedEntry)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "SaveJournal", mock.Anything, mock.Anything)
}

func (suite *JournalServiceTestSuite) TestCreateJournal_WithinTolerance() {
	ctx := context.Background()
	debit := decimal.RequireFromString("100.00")
	credit := decimal.RequireFromString("99.99")
	req := dto.CreateJournalRequest{
		Date:        time.Now(),
		Description: "Rounding remainder",
		Lines: []dto.JournalLineRequest{
			{AccountCode: suite.cashAccount.Code, Debit: &debit},
			{AccountCode: suite.revenueAccount.Code, Credit: &credit},
		},
	}

	saved := &domain.JournalEntry{}
	suite.mockAccountSvc.On("GetAccountsByCodes", ctx, mock.Anything).Return(suite.accountsMap(), nil).Once()
	suite.mockJournalRepo.On("SaveJournal", ctx, mock.AnythingOfType("domain.JournalEntry")).Run(func(args mock.Arguments) {
		*saved = args.Get(1).(domain.JournalEntry)
	}).Return(saved, nil).Once()

	_, err := suite.service.CreateJournal(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.mockJournalRepo.AssertExpectations(suite.T())
}

func (suite *JournalServiceTestSuite) TestCreateJournal_DegenerateLine() {
	ctx := context.Background()
	req := dto.CreateJournalRequest{
		Date:        time.Now(),
		Description: "Both sides set",
		Lines: []dto.JournalLineRequest{
			{AccountCode: suite.cashAccount.Code, Debit: amt(100), Credit: amt(100)},
			{AccountCode: suite.revenueAccount.Code, Credit: amt(100)},
		},
	}

	_, err := suite.service.CreateJournal(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrDegenerateLine)
}

func (suite *JournalServiceTestSuite) TestCreateJournal_NeitherSideSet() {
	ctx := context.Background()
	req := dto.CreateJournalRequest{
		Date:        time.Now(),
		Description: "Empty line",
		Lines: []dto.JournalLineRequest{
			{AccountCode: suite.cashAccount.Code, Debit: amt(100)},
			{AccountCode: suite.revenueAccount.Code},
		},
	}

	_, err := suite.service.CreateJournal(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrDegenerateLine)
}

func (suite *JournalServiceTestSuite) TestCreateJournal_LessThanTwoLines() {
	ctx := context.Background()
	req := dto.CreateJournalRequest{
		Date:        time.Now(),
		Description: "One line",
		Lines: []dto.JournalLineRequest{
			{AccountCode: suite.cashAccount.Code, Debit: amt(100)},
		},
	}

	_, err := suite.service.CreateJournal(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrInsufficientLines)
}

func (suite *JournalServiceTestSuite) TestCreateJournal_SingleAccount() {
	ctx := context.Background()
	req := dto.CreateJournalRequest{
		Date:        time.Now(),
		Description: "Self transfer",
		Lines: []dto.JournalLineRequest{
			{AccountCode: suite.cashAccount.Code, Debit: amt(100)},
			{AccountCode: suite.cashAccount.Code, Credit: amt(100)},
		},
	}

	_, err := suite.service.CreateJournal(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrInsufficientAccounts)
}

func (suite *JournalServiceTestSuite) TestCreateJournal_MissingDescription() {
	ctx := context.Background()
	req := suite.balancedRequest()
	req.Description = ""

	_, err := suite.service.CreateJournal(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrDescriptionMissing)
}

func (suite *JournalServiceTestSuite) TestCreateJournal_AccountNotFound() {
	ctx := context.Background()
	req := suite.balancedRequest()
	partial := map[string]domain.Account{suite.cashAccount.Code: suite.cashAccount}

	suite.mockAccountSvc.On("GetAccountsByCodes", ctx, mock.Anything).Return(partial, nil).Once()

	_, err := suite.service.CreateJournal(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrAccountNotFound)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "SaveJournal", mock.Anything, mock.Anything)
}

func (suite *JournalServiceTestSuite) TestCreateJournal_InactiveAccount() {
	ctx := context.Background()
	req := suite.balancedRequest()
	inactive := suite.revenueAccount
	inactive.IsActive = false
	accounts := map[string]domain.Account{
		suite.cashAccount.Code: suite.cashAccount,
		inactive.Code:          inactive,
	}

	suite.mockAccountSvc.On("GetAccountsByCodes", ctx, mock.Anything).Return(accounts, nil).Once()

	_, err := suite.service.CreateJournal(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *JournalServiceTestSuite) TestCreateJournal_SaveError() {
	ctx := context.Background()
	req := suite.balancedRequest()
	repoErr := assert.AnError

	suite.mockAccountSvc.On("GetAccountsByCodes", ctx, mock.Anything).Return(suite.accountsMap(), nil).Once()
	suite.mockJournalRepo.On("SaveJournal", ctx, mock.Anything).Return(nil, repoErr).Once()

	_, err := suite.service.CreateJournal(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.Contains(err.Error(), repoErr.Error())
}

// --- PostJournal ---

func (suite *JournalServiceTestSuite) draftJournal() *domain.JournalEntry {
	id := uuid.NewString()
	return &domain.JournalEntry{
		JournalID:     id,
		JournalNumber: "JV-202601-0001",
		EntryDate:     time.Now(),
		Description:   "Draft entry",
		Status:        domain.Draft,
		TotalDebit:    decimal.NewFromInt(100),
		TotalCredit:   decimal.NewFromInt(100),
	}
}

func (suite *JournalServiceTestSuite) TestPostJournal_Success() {
	ctx := context.Background()
	draft := suite.draftJournal()
	posted := *draft
	posted.Status = domain.Posted

	suite.mockJournalRepo.On("FindJournalByID", ctx, draft.JournalID).Return(draft, nil).Once()
	suite.mockJournalRepo.On("PostJournal", ctx, draft.JournalID, suite.userID, mock.AnythingOfType("time.Time")).Return(&posted, nil).Once()

	result, err := suite.service.PostJournal(ctx, draft.JournalID, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.Posted, result.Status)
	suite.mockJournalRepo.AssertExpectations(suite.T())
}

func (suite *JournalServiceTestSuite) TestPostJournal_AlreadyPosted() {
	ctx := context.Background()
	journal := suite.draftJournal()
	journal.Status = domain.Posted

	suite.mockJournalRepo.On("FindJournalByID", ctx, journal.JournalID).Return(journal, nil).Once()

	_, err := suite.service.PostJournal(ctx, journal.JournalID, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrAlreadyPosted)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "PostJournal", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *JournalServiceTestSuite) TestPostJournal_LostRace() {
	ctx := context.Background()
	draft := suite.draftJournal()

	suite.mockJournalRepo.On("FindJournalByID", ctx, draft.JournalID).Return(draft, nil).Once()
	suite.mockJournalRepo.On("PostJournal", ctx, draft.JournalID, suite.userID, mock.AnythingOfType("time.Time")).Return(nil, apperrors.ErrConflict).Once()

	_, err := suite.service.PostJournal(ctx, draft.JournalID, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrAlreadyPosted)
}

func (suite *JournalServiceTestSuite) TestPostJournal_NotFound() {
	ctx := context.Background()
	journalID := uuid.NewString()

	suite.mockJournalRepo.On("FindJournalByID", ctx, journalID).Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.PostJournal(ctx, journalID, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

// --- UpdateJournal / DeleteJournal ---

func (suite *JournalServiceTestSuite) TestUpdateJournal_PostedIsImmutable() {
	ctx := context.Background()
	journal := suite.draftJournal()
	journal.Status = domain.Posted
	newDesc := "Edited"

	suite.mockJournalRepo.On("FindJournalByID", ctx, journal.JournalID).Return(journal, nil).Once()
	suite.mockJournalRepo.On("FindLinesByJournalID", ctx, journal.JournalID).Return([]domain.JournalLine{}, nil).Once()

	_, err := suite.service.UpdateJournal(ctx, journal.JournalID, dto.UpdateJournalRequest{Description: &newDesc}, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrImmutableEntry)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "UpdateDraftJournal", mock.Anything, mock.Anything)
}

func (suite *JournalServiceTestSuite) TestDeleteJournal_PostedIsImmutable() {
	ctx := context.Background()
	journal := suite.draftJournal()
	journal.Status = domain.Posted

	suite.mockJournalRepo.On("FindJournalByID", ctx, journal.JournalID).Return(journal, nil).Once()

	err := suite.service.DeleteJournal(ctx, journal.JournalID, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrImmutableEntry)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "DeleteDraftJournal", mock.Anything, mock.Anything)
}

func (suite *JournalServiceTestSuite) TestDeleteJournal_Draft() {
	ctx := context.Background()
	draft := suite.draftJournal()

	suite.mockJournalRepo.On("FindJournalByID", ctx, draft.JournalID).Return(draft, nil).Once()
	suite.mockJournalRepo.On("DeleteDraftJournal", ctx, draft.JournalID).Return(nil).Once()

	err := suite.service.DeleteJournal(ctx, draft.JournalID, suite.userID)

	suite.Require().NoError(err)
	suite.mockJournalRepo.AssertExpectations(suite.T())
}

// --- ReverseJournal ---

func (suite *JournalServiceTestSuite) postedJournalWithLines() *domain.JournalEntry {
	journal := suite.draftJournal()
	journal.Status = domain.Posted
	journal.Lines = []domain.JournalLine{
		{LineID: uuid.NewString(), JournalID: journal.JournalID, AccountCode: suite.cashAccount.Code, Side: domain.Debit, Amount: decimal.NewFromInt(100)},
		{LineID: uuid.NewString(), JournalID: journal.JournalID, AccountCode: suite.revenueAccount.Code, Side: domain.Credit, Amount: decimal.NewFromInt(100)},
	}
	return journal
}

func (suite *JournalServiceTestSuite) TestReverseJournal_SwapsSides() {
	ctx := context.Background()
	original := suite.postedJournalWithLines()

	suite.mockJournalRepo.On("FindJournalByID", ctx, original.JournalID).Return(original, nil).Once()
	suite.mockJournalRepo.On("FindLinesByJournalID", ctx, original.JournalID).Return(original.Lines, nil).Once()

	captured := &domain.JournalEntry{}
	suite.mockJournalRepo.On("SaveReversalJournal", ctx, mock.AnythingOfType("domain.JournalEntry"), original.JournalID).Run(func(args mock.Arguments) {
		*captured = args.Get(1).(domain.JournalEntry)
	}).Return(captured, nil).Once()

	reversing, err := suite.service.ReverseJournal(ctx, original.JournalID, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(reversing)
	suite.Require().Len(captured.Lines, 2)
	suite.Equal(domain.Credit, captured.Lines[0].Side)
	suite.Equal(suite.cashAccount.Code, captured.Lines[0].AccountCode)
	suite.Equal(domain.Debit, captured.Lines[1].Side)
	suite.Equal(suite.revenueAccount.Code, captured.Lines[1].AccountCode)
	suite.Require().NotNil(captured.OriginalJournalID)
	suite.Equal(original.JournalID, *captured.OriginalJournalID)
	suite.Equal(domain.Posted, captured.Status)
	suite.mockJournalRepo.AssertExpectations(suite.T())
}

func (suite *JournalServiceTestSuite) TestReverseJournal_DraftRejected() {
	ctx := context.Background()
	draft := suite.draftJournal()

	suite.mockJournalRepo.On("FindJournalByID", ctx, draft.JournalID).Return(draft, nil).Once()
	suite.mockJournalRepo.On("FindLinesByJournalID", ctx, draft.JournalID).Return([]domain.JournalLine{}, nil).Once()

	_, err := suite.service.ReverseJournal(ctx, draft.JournalID, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConflict)
}

func (suite *JournalServiceTestSuite) TestReverseJournal_AlreadyReversed() {
	ctx := context.Background()
	original := suite.postedJournalWithLines()
	reversingID := uuid.NewString()
	original.ReversingJournalID = &reversingID

	suite.mockJournalRepo.On("FindJournalByID", ctx, original.JournalID).Return(original, nil).Once()
	suite.mockJournalRepo.On("FindLinesByJournalID", ctx, original.JournalID).Return(original.Lines, nil).Once()

	_, err := suite.service.ReverseJournal(ctx, original.JournalID, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "SaveReversalJournal", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *JournalServiceTestSuite) TestReverseJournal_ReversalOfReversal() {
	ctx := context.Background()
	reversal := suite.postedJournalWithLines()
	origID := uuid.NewString()
	reversal.OriginalJournalID = &origID

	suite.mockJournalRepo.On("FindJournalByID", ctx, reversal.JournalID).Return(reversal, nil).Once()
	suite.mockJournalRepo.On("FindLinesByJournalID", ctx, reversal.JournalID).Return(reversal.Lines, nil).Once()

	_, err := suite.service.ReverseJournal(ctx, reversal.JournalID, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConflict)
}

// --- Run Test Suite ---
func TestJournalService(t *testing.T) {
	suite.Run(t, new(JournalServiceTestSuite))
}
