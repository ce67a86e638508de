package accountclient

import (
	"context"
	"fmt"
	"net/http"

	"bankr/cmd/client/dto"
	"bankr/cmd/client/httpclient"
)

// Client 는 현재 사용자, 계좌 연동, 구독 결제 관련 백엔드 API 를 호출한다.
type Client struct {
	base *httpclient.BaseClient
}

func New(base *httpclient.BaseClient) *Client {
	return &Client{base: base}
}

type createLinkTokenRequest struct {
	UserID string `json:"userId"`
}

type exchangePublicTokenRequest struct {
	PublicToken   string `json:"public_token"`
	UserID        string `json:"userId"`
	InstitutionID string `json:"institution_id"`
}

type checkoutSessionRequest struct {
	PriceID string `json:"priceId"`
}

// Me 는 GET /auth/me 로 현재 사용자(구독 여부, 메시지 사용량 포함)를 조회한다.
func (c *Client) Me(ctx context.Context) (dto.User, error) {
	req, err := c.base.NewRequest(ctx, http.MethodGet, "/auth/me", nil, nil)
	if err != nil {
		return dto.User{}, err
	}

	var out dto.User
	if err := c.base.DoJSON(req, &out); err != nil {
		return dto.User{}, fmt.Errorf("account-api Me: %w", err)
	}
	return out, nil
}

// -------------------- Bank link --------------------

func (c *Client) CreateLinkToken(ctx context.Context, userID string) (string, error) {
	req, err := c.base.NewJSONRequest(ctx, http.MethodPost, "/plaid/create-link-token", nil, createLinkTokenRequest{UserID: userID})
	if err != nil {
		return "", err
	}

	var out dto.LinkTokenResponse
	if err := c.base.DoJSON(req, &out); err != nil {
		return "", fmt.Errorf("account-api CreateLinkToken: %w", err)
	}
	return out.LinkToken, nil
}

// ExchangePublicToken 은 연동 화면이 돌려준 public token 을 서버 측 access token 으로 교환한다.
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken, userID, institutionID string) error {
	req, err := c.base.NewJSONRequest(ctx, http.MethodPost, "/plaid/exchange-public-token", nil, exchangePublicTokenRequest{
		PublicToken:   publicToken,
		UserID:        userID,
		InstitutionID: institutionID,
	})
	if err != nil {
		return err
	}
	if err := c.base.DoJSON(req, nil); err != nil {
		return fmt.Errorf("account-api ExchangePublicToken: %w", err)
	}
	return nil
}

// FetchBankData 는 연동 직후 계좌/거래 데이터의 최초 수집을 요청한다.
func (c *Client) FetchBankData(ctx context.Context) error {
	req, err := c.base.NewRequest(ctx, http.MethodGet, "/plaid/fetch", nil, nil)
	if err != nil {
		return err
	}
	if err := c.base.DoJSON(req, nil); err != nil {
		return fmt.Errorf("account-api FetchBankData: %w", err)
	}
	return nil
}

func (c *Client) DisconnectBank(ctx context.Context) error {
	req, err := c.base.NewRequest(ctx, http.MethodDelete, "/plaid/disconnect", nil, nil)
	if err != nil {
		return err
	}
	if err := c.base.DoJSON(req, nil); err != nil {
		return fmt.Errorf("account-api DisconnectBank: %w", err)
	}
	return nil
}

// -------------------- Subscription --------------------

// CreateCheckoutSession 은 웹 결제 세션을 만들고 결제 페이지 URL 을 돌려준다.
func (c *Client) CreateCheckoutSession(ctx context.Context, priceID string) (string, error) {
	req, err := c.base.NewJSONRequest(ctx, http.MethodPost, "/stripe/create-checkout-session", nil, checkoutSessionRequest{PriceID: priceID})
	if err != nil {
		return "", err
	}

	var out dto.CheckoutSessionResponse
	if err := c.base.DoJSON(req, &out); err != nil {
		return "", fmt.Errorf("account-api CreateCheckoutSession: %w", err)
	}
	return out.URL, nil
}

func (c *Client) CancelSubscription(ctx context.Context) error {
	req, err := c.base.NewRequest(ctx, http.MethodPost, "/stripe/cancel-subscription", nil, nil)
	if err != nil {
		return err
	}
	if err := c.base.DoJSON(req, nil); err != nil {
		return fmt.Errorf("account-api CancelSubscription: %w", err)
	}
	return nil
}
