package main

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"cryptovest.backend/internal/config"
	"cryptovest.backend/internal/domain/entities"
	domainrepos "cryptovest.backend/internal/domain/repositories"
	dynamostore "cryptovest.backend/internal/infrastructure/dynamodb"
	"cryptovest.backend/internal/infrastructure/repositories"
	"cryptovest.backend/internal/infrastructure/storage"
	"cryptovest.backend/internal/interfaces/http/handlers"
	"cryptovest.backend/internal/interfaces/http/middleware"
	"cryptovest.backend/internal/usecases"
	"cryptovest.backend/pkg/jwt"
)

type app struct {
	investment *usecases.InvestmentUsecase
	routes     routeDeps
}

type ledgerStores struct {
	entries   domainrepos.LedgerRepository
	positions domainrepos.InvestmentRepository
	uow       domainrepos.UnitOfWork
}

// buildLedgerStores picks the ledger backend. Users and card applications always live in postgres.
func buildLedgerStores(ctx context.Context, cfg *config.Config, db *gorm.DB) (*ledgerStores, error) {
	switch cfg.Ledger.Backend {
	case config.LedgerBackendPostgres, "":
		return &ledgerStores{
			entries:   repositories.NewLedgerRepository(db),
			positions: repositories.NewInvestmentRepository(db),
			uow:       repositories.NewUnitOfWork(db),
		}, nil
	case config.LedgerBackendDynamoDB:
		client, err := newDynamoClient(ctx, cfg.DynamoDB.Region, cfg.DynamoDB.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to create dynamodb client: %w", err)
		}
		return &ledgerStores{
			entries:   dynamostore.NewLedgerStore(client, cfg.DynamoDB.EntriesTable),
			positions: dynamostore.NewPositionStore(client, cfg.DynamoDB.PositionsTable),
			uow:       dynamostore.UnitOfWork{},
		}, nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Ledger.Backend)
	}
}

func buildReceiptStorage(ctx context.Context, cfg config.StorageConfig) (domainrepos.ReceiptStorage, error) {
	switch cfg.Backend {
	case config.StorageBackendLocal, "":
		store, err := storage.NewLocalStore(cfg.LocalDir)
		if err != nil {
			return nil, fmt.Errorf("failed to prepare receipt directory: %w", err)
		}
		return store, nil
	case config.StorageBackendS3:
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET is required for the s3 storage backend")
		}
		client, err := newS3Client(ctx, cfg.S3Region, cfg.S3Endpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 client: %w", err)
		}
		return storage.NewS3Store(client, cfg.S3Bucket), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func buildApp(ctx context.Context, cfg *config.Config, db *gorm.DB) (*app, error) {
	stores, err := buildLedgerStores(ctx, cfg, db)
	if err != nil {
		return nil, err
	}
	receipts, err := buildReceiptStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiry, cfg.JWT.RefreshExpiry)

	userRepo := repositories.NewUserRepository(db)
	cardRepo := repositories.NewCardApplicationRepository(db)

	authUsecase := usecases.NewAuthUsecase(userRepo, jwtService, cfg.Compliance.BlockedCountries)
	ledgerUsecase := usecases.NewLedgerUsecase(stores.entries, stores.positions, userRepo, receipts, usecases.LedgerOptions{
		DepositAddresses: cfg.Deposit.Addresses,
		RejectOverdraft:  cfg.Ledger.RejectOverdraft,
		HistoryLimit:     cfg.Ledger.HistoryLimit,
		ReceiptMaxBytes:  cfg.Storage.MaxBytes,
	})
	investmentUsecase := usecases.NewInvestmentUsecase(stores.positions, stores.entries, stores.uow, entities.DefaultPlanCatalog())
	dashboardUsecase := usecases.NewDashboardUsecase(stores.entries, stores.positions)
	adminUsecase := usecases.NewAdminUsecase(userRepo, stores.entries, stores.positions)
	cardUsecase := usecases.NewCardUsecase(cardRepo)
	webhookUsecase := usecases.NewWebhookUsecase(stores.entries, cfg.Payments.WebhookSecret)
	var intents usecases.PaymentIntentAPI
	if cfg.Payments.SecretKey != "" {
		intents = usecases.NewStripePaymentIntents(cfg.Payments.SecretKey)
	}
	paymentUsecase := usecases.NewPaymentIntentUsecase(stores.entries, intents)

	return &app{
		investment: investmentUsecase,
		routes: routeDeps{
			authHandler:        handlers.NewAuthHandler(authUsecase),
			investmentHandler:  handlers.NewInvestmentHandler(investmentUsecase),
			dashboardHandler:   handlers.NewDashboardHandler(dashboardUsecase),
			transactionHandler: handlers.NewTransactionHandler(ledgerUsecase),
			cardHandler:        handlers.NewCardHandler(cardUsecase),
			webhookHandler:     handlers.NewWebhookHandler(webhookUsecase),
			paymentHandler:     handlers.NewPaymentHandler(paymentUsecase),
			adminHandler:       handlers.NewAdminHandler(adminUsecase),
			authMiddleware:     middleware.AuthMiddleware(jwtService),
		},
	}, nil
}
