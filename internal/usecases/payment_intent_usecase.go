package usecases

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"go.uber.org/zap"

	"cryptovest.backend/internal/domain/entities"
	domainerrors "cryptovest.backend/internal/domain/errors"
	"cryptovest.backend/internal/domain/repositories"
	"cryptovest.backend/pkg/logger"
	"cryptovest.backend/pkg/metrics"
	"cryptovest.backend/pkg/utils"
)

// CardCurrency is the only currency card deposits are taken in.
const CardCurrency = "usd"

// Card deposit bounds in USD, inclusive.
var (
	MinCardDeposit = decimal.NewFromInt(10)
	MaxCardDeposit = decimal.NewFromInt(50000)
)

// PaymentIntentAPI is the part of the card processor client used at checkout.
type PaymentIntentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// NewStripePaymentIntents returns a payment intent client bound to secretKey.
func NewStripePaymentIntents(secretKey string) PaymentIntentAPI {
	return paymentintent.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey}
}

// PaymentIntentUsecase opens card deposits with the card processor
type PaymentIntentUsecase struct {
	ledgerRepo repositories.LedgerRepository
	intents    PaymentIntentAPI
}

// NewPaymentIntentUsecase creates a new payment intent usecase. A nil intents client disables card deposits.
func NewPaymentIntentUsecase(ledgerRepo repositories.LedgerRepository, intents PaymentIntentAPI) *PaymentIntentUsecase {
	return &PaymentIntentUsecase{ledgerRepo: ledgerRepo, intents: intents}
}

// Create books a pending card deposit and opens a payment intent for it.
// The intent carries the entry id, so the payment webhook settles that entry.
func (u *PaymentIntentUsecase) Create(ctx context.Context, userID uuid.UUID, input *entities.CreatePaymentIntentInput) (*entities.PaymentIntentResult, error) {
	if u.intents == nil {
		return nil, domainerrors.NewAppError(http.StatusServiceUnavailable, domainerrors.CodeInternalError, "card payments are not configured", nil)
	}
	if input.Amount.LessThan(MinCardDeposit) {
		return nil, domainerrors.Validation("minimum card deposit is $%s", MinCardDeposit)
	}
	if input.Amount.GreaterThan(MaxCardDeposit) {
		return nil, domainerrors.Validation("maximum card deposit is $%s", MaxCardDeposit)
	}
	cents := input.Amount.Shift(2)
	if !cents.Equal(cents.Truncate(0)) {
		return nil, domainerrors.Validation("amount has more than two decimal places")
	}

	entry := &entities.LedgerEntry{
		ID:     utils.GenerateUUIDv7(),
		UserID: userID,
		Kind:   entities.EntryKindDeposit,
		Amount: input.Amount,
		Method: entities.MethodStripe,
		Status: entities.EntryStatusPending,
	}
	if err := u.ledgerRepo.Append(ctx, entry); err != nil {
		return nil, err
	}
	metrics.RecordEntryAppended(string(entry.Kind), string(entry.Status))

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(cents.IntPart()),
		Currency: stripe.String(CardCurrency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey(entry.ID.String())
	params.AddMetadata(MetadataUserID, userID.String())
	params.AddMetadata(MetadataEntryID, entry.ID.String())

	intent, err := u.intents.New(params)
	if err != nil {
		logger.Error(ctx, "Failed to create payment intent", zap.String("entryId", entry.ID.String()), zap.Error(err))
		if _, tErr := u.ledgerRepo.Transition(ctx, entry.ID, entities.EntryStatusFailed); tErr != nil {
			logger.Warn(ctx, "Failed to close abandoned card deposit", zap.String("entryId", entry.ID.String()), zap.Error(tErr))
		} else {
			metrics.RecordEntryTransition(string(entry.Kind), string(entities.EntryStatusFailed))
		}
		return nil, domainerrors.NewAppError(http.StatusBadGateway, domainerrors.CodeInternalError, "card processor unavailable", err)
	}

	logger.Info(ctx, "Card deposit opened",
		zap.String("entryId", entry.ID.String()),
		zap.String("paymentIntent", intent.ID),
		zap.String("amount", entry.Amount.String()),
	)
	return &entities.PaymentIntentResult{
		EntryID:         entry.ID,
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Amount:          entry.Amount,
		Currency:        CardCurrency,
	}, nil
}
