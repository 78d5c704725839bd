package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cryptovest.backend/internal/domain/entities"
	domainerrors "cryptovest.backend/internal/domain/errors"
	"cryptovest.backend/internal/interfaces/http/response"
	"cryptovest.backend/internal/usecases"
	"cryptovest.backend/pkg/utils"
)

// ReceiptField is the multipart field carrying a deposit receipt.
const ReceiptField = "receipt"

type ledgerService interface {
	Deposit(ctx context.Context, userID uuid.UUID, input *entities.CreateDepositInput, receipt *usecases.ReceiptUpload) (*entities.DepositResult, error)
	Withdraw(ctx context.Context, userID uuid.UUID, input *entities.CreateWithdrawalInput) (*entities.LedgerEntry, error)
	History(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.LedgerEntry, error)
	ListAll(ctx context.Context, status *entities.EntryStatus, pagination utils.PaginationParams) ([]*entities.LedgerEntry, utils.PaginationMeta, error)
	Transition(ctx context.Context, id uuid.UUID, status entities.EntryStatus) (*entities.LedgerEntry, error)
	Credit(ctx context.Context, input *entities.CreditInput) (*entities.LedgerEntry, error)
}

// TransactionHandler handles deposits, withdrawals and ledger administration
type TransactionHandler struct {
	ledgerUsecase ledgerService
}

func NewTransactionHandler(ledgerUsecase ledgerService) *TransactionHandler {
	return &TransactionHandler{ledgerUsecase: ledgerUsecase}
}

// Deposit records a pending deposit. Accepts JSON, or multipart with an optional receipt file.
// POST /api/v1/transactions/deposit
func (h *TransactionHandler) Deposit(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var (
		input   *entities.CreateDepositInput
		receipt *usecases.ReceiptUpload
	)
	if strings.HasPrefix(c.ContentType(), gin.MIMEMultipartPOSTForm) {
		form, upload, closeFn, err := depositFromMultipart(c)
		if err != nil {
			response.Error(c, err)
			return
		}
		defer closeFn()
		input, receipt = form, upload
	} else {
		input = &entities.CreateDepositInput{}
		if err := c.ShouldBindJSON(input); err != nil {
			response.Error(c, domainerrors.BadRequest(err.Error()))
			return
		}
	}

	result, err := h.ledgerUsecase.Deposit(c.Request.Context(), userID, input, receipt)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, result)
}

func depositFromMultipart(c *gin.Context) (*entities.CreateDepositInput, *usecases.ReceiptUpload, func(), error) {
	noop := func() {}
	amount, err := decimal.NewFromString(strings.TrimSpace(c.PostForm("amount")))
	if err != nil || !amount.IsPositive() {
		return nil, nil, noop, domainerrors.BadRequest("amount must be a positive number")
	}
	method := strings.TrimSpace(c.PostForm("method"))
	if method == "" {
		return nil, nil, noop, domainerrors.BadRequest("method is required")
	}
	input := &entities.CreateDepositInput{Amount: amount, Method: method}

	header, err := c.FormFile(ReceiptField)
	if errors.Is(err, http.ErrMissingFile) {
		return input, nil, noop, nil
	}
	if err != nil {
		return nil, nil, noop, domainerrors.BadRequest("invalid receipt upload")
	}
	file, err := header.Open()
	if err != nil {
		return nil, nil, noop, domainerrors.BadRequest("invalid receipt upload")
	}
	upload := &usecases.ReceiptUpload{Filename: header.Filename, Size: header.Size, Body: file}
	return input, upload, func() { _ = file.Close() }, nil
}

// Withdraw records a pending withdrawal after re-checking the password
// POST /api/v1/transactions/withdraw
func (h *TransactionHandler) Withdraw(c *gin.Context) {
	var input entities.CreateWithdrawalInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	entry, err := h.ledgerUsecase.Withdraw(c.Request.Context(), userID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"transaction": entry})
}

// History lists the caller's entries, newest first
// GET /api/v1/transactions?limit=
func (h *TransactionHandler) History(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	limit, ok := intQuery(c, "limit")
	if !ok {
		return
	}

	entries, err := h.ledgerUsecase.History(c.Request.Context(), userID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	if entries == nil {
		entries = []*entities.LedgerEntry{}
	}

	response.Success(c, http.StatusOK, gin.H{"transactions": entries})
}

// ListAll lists every entry, optionally filtered by status
// GET /api/v1/admin/transactions?status=&page=&limit=
func (h *TransactionHandler) ListAll(c *gin.Context) {
	pagination, ok := paginationQuery(c)
	if !ok {
		return
	}

	var status *entities.EntryStatus
	if raw := c.Query("status"); raw != "" {
		s := entities.EntryStatus(strings.ToLower(raw))
		status = &s
	}

	entries, meta, err := h.ledgerUsecase.ListAll(c.Request.Context(), status, pagination)
	if err != nil {
		response.Error(c, err)
		return
	}
	if entries == nil {
		entries = []*entities.LedgerEntry{}
	}

	response.Paginated(c, entries, meta)
}

// UpdateStatus approves or rejects a pending entry
// PUT /api/v1/admin/transactions/:id/status
func (h *TransactionHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c, "transaction")
	if !ok {
		return
	}

	var input entities.UpdateEntryStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	entry, err := h.ledgerUsecase.Transition(c.Request.Context(), id, input.Status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"transaction": entry})
}

// Credit books a completed profit or bonus entry for a user
// POST /api/v1/admin/transactions
func (h *TransactionHandler) Credit(c *gin.Context) {
	var input entities.CreditInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	entry, err := h.ledgerUsecase.Credit(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"transaction": entry})
}
