package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"cryptovest.backend/internal/domain/entities"
	"cryptovest.backend/internal/interfaces/http/middleware"
	"cryptovest.backend/internal/usecases"
	"cryptovest.backend/pkg/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := utils.RegisterValidators(); err != nil {
		panic(err)
	}
}

// asUser injects an authenticated caller the way AuthMiddleware does.
func asUser(id uuid.UUID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, id)
		c.Set(middleware.UserRoleKey, role)
		c.Next()
	}
}

func perform(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewBuffer(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

type authServiceStub struct {
	registerFn func(ctx context.Context, input *entities.CreateUserInput) (*entities.AuthResponse, error)
	loginFn    func(ctx context.Context, input *entities.LoginInput) (*entities.AuthResponse, error)
	refreshFn  func(ctx context.Context, token string) (*entities.AuthResponse, error)
	getUserFn  func(ctx context.Context, id uuid.UUID) (*entities.User, error)
}

func (s authServiceStub) Register(ctx context.Context, input *entities.CreateUserInput) (*entities.AuthResponse, error) {
	return s.registerFn(ctx, input)
}
func (s authServiceStub) Login(ctx context.Context, input *entities.LoginInput) (*entities.AuthResponse, error) {
	return s.loginFn(ctx, input)
}
func (s authServiceStub) RefreshToken(ctx context.Context, token string) (*entities.AuthResponse, error) {
	return s.refreshFn(ctx, token)
}
func (s authServiceStub) GetUserByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	return s.getUserFn(ctx, id)
}

type investmentServiceStub struct {
	plans     []entities.Plan
	projectFn func(planID string, amount decimal.Decimal) (*entities.ReturnProjection, error)
	openFn    func(ctx context.Context, userID uuid.UUID, planID string, principal decimal.Decimal) (*entities.InvestmentPosition, error)
	listFn    func(ctx context.Context, userID uuid.UUID) ([]*entities.InvestmentPosition, error)
	cancelFn  func(ctx context.Context, actorID uuid.UUID, isAdmin bool, positionID uuid.UUID) (*entities.InvestmentPosition, error)
}

func (s investmentServiceStub) Plans() []entities.Plan { return s.plans }
func (s investmentServiceStub) Project(planID string, amount decimal.Decimal) (*entities.ReturnProjection, error) {
	return s.projectFn(planID, amount)
}
func (s investmentServiceStub) Open(ctx context.Context, userID uuid.UUID, planID string, principal decimal.Decimal) (*entities.InvestmentPosition, error) {
	return s.openFn(ctx, userID, planID, principal)
}
func (s investmentServiceStub) List(ctx context.Context, userID uuid.UUID) ([]*entities.InvestmentPosition, error) {
	return s.listFn(ctx, userID)
}
func (s investmentServiceStub) Cancel(ctx context.Context, actorID uuid.UUID, isAdmin bool, positionID uuid.UUID) (*entities.InvestmentPosition, error) {
	return s.cancelFn(ctx, actorID, isAdmin, positionID)
}

type ledgerServiceStub struct {
	depositFn    func(ctx context.Context, userID uuid.UUID, input *entities.CreateDepositInput, receipt *usecases.ReceiptUpload) (*entities.DepositResult, error)
	withdrawFn   func(ctx context.Context, userID uuid.UUID, input *entities.CreateWithdrawalInput) (*entities.LedgerEntry, error)
	historyFn    func(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.LedgerEntry, error)
	listAllFn    func(ctx context.Context, status *entities.EntryStatus, p utils.PaginationParams) ([]*entities.LedgerEntry, utils.PaginationMeta, error)
	transitionFn func(ctx context.Context, id uuid.UUID, status entities.EntryStatus) (*entities.LedgerEntry, error)
	creditFn     func(ctx context.Context, input *entities.CreditInput) (*entities.LedgerEntry, error)
}

func (s ledgerServiceStub) Deposit(ctx context.Context, userID uuid.UUID, input *entities.CreateDepositInput, receipt *usecases.ReceiptUpload) (*entities.DepositResult, error) {
	return s.depositFn(ctx, userID, input, receipt)
}
func (s ledgerServiceStub) Withdraw(ctx context.Context, userID uuid.UUID, input *entities.CreateWithdrawalInput) (*entities.LedgerEntry, error) {
	return s.withdrawFn(ctx, userID, input)
}
func (s ledgerServiceStub) History(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.LedgerEntry, error) {
	return s.historyFn(ctx, userID, limit)
}
func (s ledgerServiceStub) ListAll(ctx context.Context, status *entities.EntryStatus, p utils.PaginationParams) ([]*entities.LedgerEntry, utils.PaginationMeta, error) {
	return s.listAllFn(ctx, status, p)
}
func (s ledgerServiceStub) Transition(ctx context.Context, id uuid.UUID, status entities.EntryStatus) (*entities.LedgerEntry, error) {
	return s.transitionFn(ctx, id, status)
}
func (s ledgerServiceStub) Credit(ctx context.Context, input *entities.CreditInput) (*entities.LedgerEntry, error) {
	return s.creditFn(ctx, input)
}

type cardServiceStub struct {
	applyFn  func(ctx context.Context, userID uuid.UUID, input *entities.CreateCardApplicationInput) (*entities.CardApplication, error)
	listFn   func(ctx context.Context, userID uuid.UUID) ([]*entities.CardApplication, error)
	updateFn func(ctx context.Context, id uuid.UUID, status entities.CardStatus) (*entities.CardApplication, error)
}

func (s cardServiceStub) Apply(ctx context.Context, userID uuid.UUID, input *entities.CreateCardApplicationInput) (*entities.CardApplication, error) {
	return s.applyFn(ctx, userID, input)
}
func (s cardServiceStub) List(ctx context.Context, userID uuid.UUID) ([]*entities.CardApplication, error) {
	return s.listFn(ctx, userID)
}
func (s cardServiceStub) UpdateStatus(ctx context.Context, id uuid.UUID, status entities.CardStatus) (*entities.CardApplication, error) {
	return s.updateFn(ctx, id, status)
}

type adminServiceStub struct {
	statsFn     func(ctx context.Context, actorID uuid.UUID) (*entities.AdminStats, error)
	listUsersFn func(ctx context.Context, actorID uuid.UUID, search string, p utils.PaginationParams) ([]*entities.User, utils.PaginationMeta, error)
}

func (s adminServiceStub) Stats(ctx context.Context, actorID uuid.UUID) (*entities.AdminStats, error) {
	return s.statsFn(ctx, actorID)
}
func (s adminServiceStub) ListUsers(ctx context.Context, actorID uuid.UUID, search string, p utils.PaginationParams) ([]*entities.User, utils.PaginationMeta, error) {
	return s.listUsersFn(ctx, actorID, search, p)
}

type webhookServiceStub struct {
	processFn func(ctx context.Context, payload []byte, signature string) (*usecases.WebhookResult, error)
}

func (s webhookServiceStub) ProcessPaymentWebhook(ctx context.Context, payload []byte, signature string) (*usecases.WebhookResult, error) {
	return s.processFn(ctx, payload, signature)
}

type paymentServiceStub struct {
	createFn func(ctx context.Context, userID uuid.UUID, input *entities.CreatePaymentIntentInput) (*entities.PaymentIntentResult, error)
}

func (s paymentServiceStub) Create(ctx context.Context, userID uuid.UUID, input *entities.CreatePaymentIntentInput) (*entities.PaymentIntentResult, error) {
	return s.createFn(ctx, userID, input)
}
