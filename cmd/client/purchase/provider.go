// Package purchase 는 플랫폼별 구독 결제 경로를 하나의 인터페이스로 감싼다.
// 시작 시 플랫폼으로 구현을 한 번 고르고, 화면 코드는 분기하지 않는다.
package purchase

import (
	"context"
	"strings"

	"bankr/cmd/client/dto"
)

// Action 은 결제를 위해 UI 셸이 해야 할 일이다.
type Action string

const (
	// ActionOpenURL 은 URL(웹 결제 페이지)을 외부 브라우저로 연다.
	ActionOpenURL Action = "open_url"
	// ActionNativePurchase 는 네이티브 스토어 SDK 로 paywall 을 열고 첫 상품을 구매한다.
	ActionNativePurchase Action = "native_purchase"
	// ActionNativeRestore 는 네이티브 스토어 SDK 로 이전 구매를 복원한다.
	ActionNativeRestore Action = "native_restore"
	// ActionNone 은 셸이 할 일이 없다. 사용자 정보만 다시 읽었다.
	ActionNone Action = "none"
)

type Outcome struct {
	Provider    string    `json:"provider"`
	Action      Action    `json:"action"`
	URL         string    `json:"url,omitempty"`
	PlacementID string    `json:"placementId,omitempty"`
	User        *dto.User `json:"user,omitempty"`
}

// CompletionStatus 는 셸이 보고하는 결제 결과다.
type CompletionStatus string

const (
	StatusPurchased CompletionStatus = "purchased"
	StatusRestored  CompletionStatus = "restored"
	// StatusCancelled 는 사용자가 결제를 취소한 경우다. 에러로 보지 않는다.
	StatusCancelled CompletionStatus = "cancelled"
	StatusFailed    CompletionStatus = "failed"
)

type Completion struct {
	Status  CompletionStatus `json:"status"`
	Message string           `json:"message,omitempty"`
}

// Provider 는 구독 결제 경로다.
type Provider interface {
	Name() string
	Purchase(ctx context.Context) (Outcome, error)
	Restore(ctx context.Context) (Outcome, error)
	// Complete 는 셸이 결제 화면을 닫은 뒤 결과를 전달할 때 호출한다.
	Complete(ctx context.Context, c Completion) (Outcome, error)
}

// AccountRefresher 는 결제 완료 뒤 구독 여부를 다시 읽는다.
type AccountRefresher interface {
	Refresh(ctx context.Context) (dto.User, error)
}

// CheckoutAPI 는 accountclient.Client 가 구현한다.
type CheckoutAPI interface {
	CreateCheckoutSession(ctx context.Context, priceID string) (string, error)
}

type Options struct {
	Platform         string
	StripePriceID    string
	PaywallPlacement string
}

// NewProvider 는 ios 면 인앱 결제를, 그 외 플랫폼이면 웹 결제를 돌려준다.
func NewProvider(opts Options, checkout CheckoutAPI, accounts AccountRefresher) Provider {
	if strings.EqualFold(strings.TrimSpace(opts.Platform), "ios") {
		return NewInAppProvider(opts.PaywallPlacement, accounts)
	}
	return NewCheckoutProvider(checkout, opts.StripePriceID, accounts)
}
