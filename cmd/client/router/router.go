package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"bankr/cmd/client/handlers"
	"bankr/cmd/client/middleware"
	"bankr/cmd/client/purchase"
	"bankr/cmd/client/services"
	"bankr/cmd/client/settings"
)

// Deps 는 로컬 API 가 노출하는 서비스 묶음이다.
type Deps struct {
	Chat      *services.ChatSessionController
	Analytics *services.AnalyticsService
	Accounts  *services.AccountService
	Link      *services.LinkService
	Purchase  purchase.Provider
	Settings  *settings.Store
	Snapshots handlers.SnapshotPurger

	BankData handlers.BankDataRefresher
	// Demo 는 토큰 없이 나가는 클라이언트여야 한다.
	Demo handlers.DemoChatter
}

func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestTrace())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "purchase_provider": d.Purchase.Name()})
	})

	public := r.Group("/api/v1")
	public.POST("/demo-chat", handlers.DemoChatHandler(d.Demo))
	public.GET("/settings", handlers.GetSettingsHandler(d.Settings))
	public.PATCH("/settings", handlers.UpdateSettingsHandler(d.Settings))

	api := r.Group("/api/v1", middleware.BackendToken())
	{
		api.POST("/chats/load", handlers.LoadConversationsHandler(d.Chat))
		api.GET("/chats", handlers.ListConversationsHandler(d.Chat))
		api.POST("/chats", handlers.CreateConversationHandler(d.Chat))
		api.GET("/chats/selected", handlers.SelectedConversationHandler(d.Chat))
		api.POST("/chats/refresh-bank-data", handlers.RefreshBankDataHandler(d.BankData))
		api.POST("/chats/:id/select", handlers.SelectConversationHandler(d.Chat))
		api.DELETE("/chats/:id", handlers.DeleteConversationHandler(d.Chat))
		api.GET("/chats/:id/composition", handlers.CompositionHandler(d.Chat))
		api.POST("/chats/:id/messages", handlers.SendMessageHandler(d.Chat))

		api.GET("/insights/analyses", handlers.ListAnalysesHandler(d.Analytics))
		api.GET("/insights/stories", handlers.ListStoriesHandler(d.Analytics))
		api.GET("/insights/tips", handlers.ListTipsHandler(d.Analytics))
		api.GET("/insights/transactions", handlers.ListTransactionsHandler(d.Analytics))
		api.GET("/insights/overview", handlers.OverviewHandler(d.Analytics))
		api.GET("/insights/daily-recap", handlers.DailyRecapHandler(d.Analytics))

		api.GET("/account/me", handlers.MeHandler(d.Accounts))
		api.POST("/account/logout", handlers.LogoutHandler(d.Accounts, d.Snapshots))
		api.POST("/account/disconnect-bank", handlers.DisconnectBankHandler(d.Accounts, d.Snapshots))

		api.POST("/link/token", handlers.CreateLinkTokenHandler(d.Link))
		api.POST("/link/success", handlers.LinkSuccessHandler(d.Link))

		api.POST("/subscription/purchase", handlers.PurchaseHandler(d.Purchase))
		api.POST("/subscription/restore", handlers.RestoreHandler(d.Purchase))
		api.POST("/subscription/complete", handlers.CompletePurchaseHandler(d.Purchase))
		api.POST("/subscription/cancel", handlers.CancelSubscriptionHandler(d.Accounts))
	}

	return r
}

// WithCORS 는 UI 셸 origin 에서 오는 브라우저 요청을 허용한다.
func WithCORS(h http.Handler, origins []string) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
	}).Handler(h)
}
