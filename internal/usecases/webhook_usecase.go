package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"cryptovest.backend/internal/domain/entities"
	domainerrors "cryptovest.backend/internal/domain/errors"
	"cryptovest.backend/internal/domain/repositories"
	"cryptovest.backend/pkg/logger"
	"cryptovest.backend/pkg/metrics"
)

// Payment intent event types consumed from the card processor.
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

// Metadata keys the checkout flow attaches to payment intents.
const (
	MetadataEntryID = "entryId"
	MetadataUserID  = "userId"
)

// Webhook outcomes reported back to the caller.
const (
	WebhookActionIgnored      = "ignored"
	WebhookActionDuplicate    = "duplicate"
	WebhookActionTransitioned = "transitioned"
	WebhookActionRecorded     = "recorded"
)

// WebhookResult describes what a processed event did
type WebhookResult struct {
	EventID string     `json:"eventId"`
	Action  string     `json:"action"`
	EntryID *uuid.UUID `json:"entryId,omitempty"`
}

// WebhookUsecase turns card processor notifications into ledger changes
type WebhookUsecase struct {
	ledgerRepo repositories.LedgerRepository
	secret     string
}

// NewWebhookUsecase creates a new webhook usecase
func NewWebhookUsecase(ledgerRepo repositories.LedgerRepository, secret string) *WebhookUsecase {
	return &WebhookUsecase{ledgerRepo: ledgerRepo, secret: secret}
}

// mapStatus maps a payment intent event type to the terminal entry status it implies
func mapStatus(eventType string) (entities.EntryStatus, bool) {
	switch eventType {
	case EventPaymentSucceeded:
		return entities.EntryStatusCompleted, true
	case EventPaymentFailed:
		return entities.EntryStatusFailed, true
	default:
		return "", false
	}
}

// ProcessPaymentWebhook verifies and applies a signed card processor event.
// Replays of an already applied payment intent are no-ops.
func (u *WebhookUsecase) ProcessPaymentWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	if u.secret == "" {
		return nil, domainerrors.NewAppError(http.StatusServiceUnavailable, domainerrors.CodeInternalError, "payment webhooks are not configured", nil)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, u.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, domainerrors.Validation("invalid webhook signature: %v", err)
	}

	result := &WebhookResult{EventID: event.ID, Action: WebhookActionIgnored}
	status, ok := mapStatus(string(event.Type))
	if !ok {
		logger.Debug(ctx, "Ignoring payment event", zap.String("type", string(event.Type)))
		return result, nil
	}
	if event.Data == nil {
		return nil, domainerrors.Validation("payment event has no data")
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return nil, domainerrors.Validation("malformed payment intent: %v", err)
	}

	logger.Info(ctx, "Processing payment event",
		zap.String("eventId", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("paymentIntent", intent.ID),
	)

	if raw := intent.Metadata[MetadataEntryID]; raw != "" {
		return u.transitionEntry(ctx, result, &intent, raw, status)
	}
	return u.recordDeposit(ctx, result, &intent, status)
}

// RetryRef is the external reference of the completed deposit recorded when a
// payment intent succeeds after an earlier attempt was already recorded as failed.
func RetryRef(intentID string) string {
	return intentID + ":completed"
}

func (u *WebhookUsecase) transitionEntry(ctx context.Context, result *WebhookResult, intent *stripe.PaymentIntent, rawID string, status entities.EntryStatus) (*WebhookResult, error) {
	entryID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, domainerrors.Validation("invalid %s metadata", MetadataEntryID)
	}
	result.EntryID = &entryID

	entry, err := u.ledgerRepo.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Kind != entities.EntryKindDeposit {
		return nil, domainerrors.Validation("entry %s is not a deposit", entryID)
	}
	if entry.Status == entities.EntryStatusFailed && status == entities.EntryStatusCompleted {
		return u.recordRetriedSuccess(ctx, result, intent, entry.UserID, entry.Amount)
	}
	if entry.Status == status || entry.Status.Terminal() {
		result.Action = WebhookActionDuplicate
		return result, nil
	}

	updated, err := u.ledgerRepo.Transition(ctx, entryID, status)
	if err != nil {
		return nil, err
	}
	metrics.RecordEntryTransition(string(updated.Kind), string(updated.Status))
	result.Action = WebhookActionTransitioned
	return result, nil
}

// recordDeposit records a card deposit that was not prepared ahead of checkout.
// An intent is a duplicate only once an entry with the status its event implies exists;
// a success after a recorded failure gets its own completed entry.
func (u *WebhookUsecase) recordDeposit(ctx context.Context, result *WebhookResult, intent *stripe.PaymentIntent, status entities.EntryStatus) (*WebhookResult, error) {
	if intent.ID == "" {
		return nil, domainerrors.Validation("payment intent has no id")
	}

	userID, err := uuid.Parse(intent.Metadata[MetadataUserID])
	if err != nil {
		logger.Warn(ctx, "Payment intent carries no user", zap.String("paymentIntent", intent.ID))
		return result, nil
	}

	existing, err := u.findByRef(ctx, intent.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Status == entities.EntryStatusFailed && status == entities.EntryStatusCompleted {
			return u.recordRetriedSuccess(ctx, result, intent, userID, decimal.Zero)
		}
		result.EntryID = &existing.ID
		result.Action = WebhookActionDuplicate
		return result, nil
	}
	return u.appendDeposit(ctx, result, userID, decimal.New(intent.Amount, -2), status, intent.ID)
}

func (u *WebhookUsecase) recordRetriedSuccess(ctx context.Context, result *WebhookResult, intent *stripe.PaymentIntent, userID uuid.UUID, fallback decimal.Decimal) (*WebhookResult, error) {
	if intent.ID == "" {
		return nil, domainerrors.Validation("payment intent has no id")
	}
	ref := RetryRef(intent.ID)
	retried, err := u.findByRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	if retried != nil {
		result.EntryID = &retried.ID
		result.Action = WebhookActionDuplicate
		return result, nil
	}

	amount := decimal.New(intent.Amount, -2)
	if !amount.IsPositive() {
		amount = fallback
	}
	logger.Info(ctx, "Payment intent succeeded after a failed attempt", zap.String("paymentIntent", intent.ID))
	return u.appendDeposit(ctx, result, userID, amount, entities.EntryStatusCompleted, ref)
}

func (u *WebhookUsecase) findByRef(ctx context.Context, ref string) (*entities.LedgerEntry, error) {
	existing, err := u.ledgerRepo.GetByExternalRef(ctx, ref)
	if errors.Is(err, domainerrors.ErrNotFound) {
		return nil, nil
	}
	return existing, err
}

func (u *WebhookUsecase) appendDeposit(ctx context.Context, result *WebhookResult, userID uuid.UUID, amount decimal.Decimal, status entities.EntryStatus, ref string) (*WebhookResult, error) {
	if !amount.IsPositive() {
		return nil, domainerrors.Validation("payment intent has no amount")
	}
	entry := &entities.LedgerEntry{
		UserID:      userID,
		Kind:        entities.EntryKindDeposit,
		Amount:      amount,
		Method:      entities.MethodStripe,
		Status:      status,
		ExternalRef: null.StringFrom(ref),
	}
	if err := u.ledgerRepo.Append(ctx, entry); err != nil {
		if errors.Is(err, domainerrors.ErrAlreadyExists) {
			result.Action = WebhookActionDuplicate
			return result, nil
		}
		return nil, fmt.Errorf("failed to record card deposit: %w", err)
	}
	metrics.RecordEntryAppended(string(entry.Kind), string(entry.Status))

	result.EntryID = &entry.ID
	result.Action = WebhookActionRecorded
	return result, nil
}
