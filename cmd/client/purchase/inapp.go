package purchase

import (
	"context"
	"fmt"

	"bankr/cmd/client/apierr"
	"bankr/cmd/internal/logger"
)

// InAppProvider 는 네이티브 스토어 SDK 결제 경로다. SDK 는 셸에 있으므로
// 코어는 셸에 할 일을 알려주고, 결과를 받아 사용자 정보를 갱신한다.
type InAppProvider struct {
	placementID string
	accounts    AccountRefresher
}

func NewInAppProvider(placementID string, accounts AccountRefresher) *InAppProvider {
	return &InAppProvider{placementID: placementID, accounts: accounts}
}

func (p *InAppProvider) Name() string { return "in_app" }

func (p *InAppProvider) Purchase(ctx context.Context) (Outcome, error) {
	return Outcome{Provider: p.Name(), Action: ActionNativePurchase, PlacementID: p.placementID}, nil
}

func (p *InAppProvider) Restore(ctx context.Context) (Outcome, error) {
	return Outcome{Provider: p.Name(), Action: ActionNativeRestore, PlacementID: p.placementID}, nil
}

func (p *InAppProvider) Complete(ctx context.Context, c Completion) (Outcome, error) {
	return complete(ctx, p.Name(), p.accounts, c)
}

// complete 는 두 경로가 공유하는 결제 결과 처리다.
func complete(ctx context.Context, provider string, accounts AccountRefresher, c Completion) (Outcome, error) {
	out := Outcome{Provider: provider, Action: ActionNone}

	switch c.Status {
	case StatusCancelled:
		logger.InfoWithFields("purchase cancelled by user", logger.Fields{"provider": provider})
		return out, nil
	case StatusFailed:
		msg := c.Message
		if msg == "" {
			msg = "purchase failed"
		}
		logger.WarnWithFields("purchase failed", logger.Fields{"provider": provider, "message": msg})
		return out, apierr.New(apierr.ErrRequest, 0, msg, nil)
	case StatusPurchased, StatusRestored, "":
	default:
		return out, apierr.Validation(fmt.Sprintf("unknown purchase status %q", c.Status))
	}

	user, err := accounts.Refresh(ctx)
	if err != nil {
		return out, err
	}
	out.User = &user
	logger.InfoWithFields("purchase completed", logger.Fields{
		"provider":        provider,
		"user_id":         user.ID,
		"has_paid_access": user.HasPaidAccess,
	})
	return out, nil
}
