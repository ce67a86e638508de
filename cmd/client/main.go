package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"bankr/cmd/client/cache"
	"bankr/cmd/client/clients/accountclient"
	"bankr/cmd/client/clients/analyticsclient"
	"bankr/cmd/client/clients/chatclient"
	"bankr/cmd/client/purchase"
	"bankr/cmd/client/router"
	"bankr/cmd/client/services"
	"bankr/cmd/client/settings"
	"bankr/cmd/internal/logger"
	"bankr/config"
)

// @title           bankr client core API
// @version         1.0
// @description     UI 셸이 호출하는 로컬 API. 채팅 세션, 지출 인사이트, 계좌 연동, 구독을 다룬다.
// @BasePath        /api/v1
func main() {
	config.InitApp()
	cfg := config.GetConfig()
	logger.Init(cfg.Logging.Level)
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	b := newBackends(cfg)

	chatClient := chatclient.New(b.chat)
	accountClient := accountclient.New(b.api)
	analyticsClient := analyticsclient.New(b.api)

	store, err := cache.New(cfg.Cache.Path)
	if err != nil {
		logger.Log.Errorf("failed to open snapshot cache %s: %v", cfg.Cache.Path, err)
		os.Exit(1)
	}
	defer store.Close()

	accounts := services.NewAccountService(accountClient)
	bootCtx, cancelBoot := context.WithTimeout(context.Background(), cfg.API.Timeout)
	if _, err := accounts.Refresh(bootCtx); err != nil {
		// 토큰은 셸이 요청마다 보낼 수도 있으므로 시작은 계속한다.
		logger.WarnWithFields("initial user fetch failed", logger.Fields{"error": err.Error()})
	}
	cancelBoot()

	provider := purchase.NewProvider(purchase.Options{
		Platform:         cfg.Purchase.Platform,
		StripePriceID:    cfg.Purchase.StripePriceID,
		PaywallPlacement: cfg.Purchase.PaywallPlacement,
	}, accountClient, accounts)

	chat := services.NewChatSessionController(chatClient, accounts, services.ChatSessionConfig{
		FreeMessageLimit: cfg.Chat.FreeMessageLimit,
		SendTimeout:      cfg.Chat.SendTimeout,
	})

	r := router.New(router.Deps{
		Chat:      chat,
		Analytics: services.NewAnalyticsService(analyticsClient, store, accounts, services.AnalyticsConfig{
			MonthlyBudget: cfg.Insights.MonthlyBudget,
			StoriesLimit:  cfg.Insights.StoriesLimit,
			TipsLimit:     cfg.Insights.TipsLimit,
		}),
		Accounts:  accounts,
		Link:      services.NewLinkService(accountClient, accounts),
		Purchase:  provider,
		Settings:  settings.NewStore(cfg.Settings.Path),
		Snapshots: store,
		BankData:  chatClient,
		Demo:      chatclient.New(b.anonymous),
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router.WithCORS(r, cfg.Server.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.InfoWithFields("client core listening", logger.Fields{
			"addr":     cfg.Server.Addr,
			"backend":  cfg.API.BaseURL,
			"purchase": provider.Name(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Errorf("server error: %v", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Log.Info("received shutdown signal, shutting down client core...")

	// 진행 중인 메시지 전송이 끝날 때까지 기다린다.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Chat.SendTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Errorf("server shutdown: %v", err)
	}
	if err := chat.Wait(ctx); err != nil {
		logger.Log.Errorf("chat resync did not finish: %v", err)
	}
	logger.Log.Info("client core stopped")
}
