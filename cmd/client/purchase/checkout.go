package purchase

import (
	"context"

	"bankr/cmd/client/apierr"
)

// CheckoutProvider 는 백엔드가 만든 웹 결제 세션 URL 을 셸이 여는 결제 경로다.
type CheckoutProvider struct {
	api      CheckoutAPI
	priceID  string
	accounts AccountRefresher
}

func NewCheckoutProvider(api CheckoutAPI, priceID string, accounts AccountRefresher) *CheckoutProvider {
	return &CheckoutProvider{api: api, priceID: priceID, accounts: accounts}
}

func (p *CheckoutProvider) Name() string { return "checkout" }

func (p *CheckoutProvider) Purchase(ctx context.Context) (Outcome, error) {
	if p.priceID == "" {
		return Outcome{}, apierr.Validation("Payment configuration error. Please contact support.")
	}
	url, err := p.api.CreateCheckoutSession(ctx, p.priceID)
	if err != nil {
		return Outcome{}, err
	}
	if url == "" {
		return Outcome{}, apierr.New(apierr.ErrServer, 0, "Unable to open payment page", nil)
	}
	return Outcome{Provider: p.Name(), Action: ActionOpenURL, URL: url}, nil
}

// Restore 는 웹 결제에는 복원 개념이 없으므로 사용자 정보만 다시 읽는다.
func (p *CheckoutProvider) Restore(ctx context.Context) (Outcome, error) {
	return complete(ctx, p.Name(), p.accounts, Completion{Status: StatusRestored})
}

func (p *CheckoutProvider) Complete(ctx context.Context, c Completion) (Outcome, error) {
	return complete(ctx, p.Name(), p.accounts, c)
}
