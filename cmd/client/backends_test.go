package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"bankr/config"
)

func TestChatBackendUsesSendTimeout(t *testing.T) {
	var cfg config.AppConfig
	cfg.API.BaseURL = "http://127.0.0.1:3000/api"
	cfg.API.Timeout = 30 * time.Second
	cfg.Chat.SendTimeout = 2 * time.Minute

	b := newBackends(cfg)

	assert.Equal(t, 30*time.Second, b.api.HTTPClient.Timeout)
	assert.Equal(t, 2*time.Minute, b.chat.HTTPClient.Timeout)
	assert.Equal(t, 2*time.Minute, b.anonymous.HTTPClient.Timeout)
}
