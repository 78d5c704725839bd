package main

import (
	"github.com/gin-gonic/gin"

	"cryptovest.backend/internal/interfaces/http/handlers"
	"cryptovest.backend/internal/interfaces/http/middleware"
)

type routeDeps struct {
	authHandler        *handlers.AuthHandler
	investmentHandler  *handlers.InvestmentHandler
	dashboardHandler   *handlers.DashboardHandler
	transactionHandler *handlers.TransactionHandler
	cardHandler        *handlers.CardHandler
	webhookHandler     *handlers.WebhookHandler
	paymentHandler     *handlers.PaymentHandler
	adminHandler       *handlers.AdminHandler
	authMiddleware     gin.HandlerFunc
	rateLimit          gin.HandlerFunc
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	if d.rateLimit != nil {
		v1.Use(d.rateLimit)
	}
	idempotent := middleware.IdempotencyMiddleware()

	// Auth routes (public)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", d.authHandler.Register)
		auth.POST("/login", d.authHandler.Login)
		auth.POST("/refresh", d.authHandler.RefreshToken)
		auth.GET("/me", d.authMiddleware, d.authHandler.GetMe)
	}

	// Plan catalog (public)
	plans := v1.Group("/plans")
	{
		plans.GET("", d.investmentHandler.ListPlans)
		plans.POST("/:id/projection", d.investmentHandler.Project)
	}

	v1.GET("/dashboard", d.authMiddleware, d.dashboardHandler.Get)

	transactions := v1.Group("/transactions")
	transactions.Use(d.authMiddleware)
	{
		transactions.GET("", d.transactionHandler.History)
		transactions.POST("/deposit", idempotent, d.transactionHandler.Deposit)
		transactions.POST("/withdraw", idempotent, d.transactionHandler.Withdraw)
	}

	investments := v1.Group("/investments")
	investments.Use(d.authMiddleware)
	{
		investments.POST("", idempotent, d.investmentHandler.Open)
		investments.GET("", d.investmentHandler.List)
		investments.POST("/:id/cancel", d.investmentHandler.Cancel)
	}

	cards := v1.Group("/cards")
	cards.Use(d.authMiddleware)
	{
		cards.POST("/apply", idempotent, d.cardHandler.Apply)
		cards.GET("", d.cardHandler.List)
	}

	payments := v1.Group("/payments")
	payments.Use(d.authMiddleware)
	{
		payments.POST("/intents", idempotent, d.paymentHandler.CreateIntent)
	}

	// Card processor callbacks, authenticated by signature
	webhooks := v1.Group("/webhooks")
	{
		webhooks.POST("/payments", d.webhookHandler.HandlePaymentWebhook)
	}

	admin := v1.Group("/admin")
	admin.Use(d.authMiddleware, middleware.RequireAdmin())
	{
		admin.GET("/stats", d.adminHandler.GetStats)
		admin.GET("/users", d.adminHandler.ListUsers)

		admin.GET("/transactions", d.transactionHandler.ListAll)
		admin.POST("/transactions", idempotent, d.transactionHandler.Credit)
		admin.PUT("/transactions/:id/status", d.transactionHandler.UpdateStatus)

		admin.POST("/investments/:id/cancel", d.investmentHandler.AdminCancel)
		admin.PUT("/cards/:id/status", d.cardHandler.UpdateStatus)
	}
}
