package main

import (
	"bankr/cmd/client/httpclient"
	"bankr/config"
)

// backends 는 백엔드 API 용 BaseClient 묶음이다.
type backends struct {
	// api 는 계정, 분석, 연동 호출용이다.
	api *httpclient.BaseClient
	// chat 응답은 모델 호출을 기다리므로 api 타임아웃 대신 전송 제한 시간을 쓴다.
	chat *httpclient.BaseClient
	// anonymous 는 로그인 전 체험용 채팅이라 토큰을 싣지 않는다.
	anonymous *httpclient.BaseClient
}

func newBackends(cfg config.AppConfig) backends {
	return backends{
		api: httpclient.NewBaseClient(cfg.API.BaseURL, httpclient.Config{
			Timeout:     cfg.API.Timeout,
			AccessToken: cfg.API.AccessToken,
		}),
		chat: httpclient.NewBaseClient(cfg.API.BaseURL, httpclient.Config{
			Timeout:     cfg.Chat.SendTimeout,
			AccessToken: cfg.API.AccessToken,
		}),
		anonymous: httpclient.NewBaseClient(cfg.API.BaseURL, httpclient.Config{Timeout: cfg.Chat.SendTimeout}),
	}
}
