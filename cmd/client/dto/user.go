package dto

// BankIntegration 은 계좌 연동(aggregation provider) 정보다.
type BankIntegration struct {
	ID            string `json:"id"`
	InstitutionID string `json:"institution_id,omitempty"`
}

// User 는 인증/세션 협력자가 제공하는 현재 사용자다.
// HasPaidAccess, MessageCount 는 채팅 무료 한도 사전 검사에 쓰인다.
type User struct {
	ID               string           `json:"id"`
	Email            string           `json:"email"`
	Name             string           `json:"name,omitempty"`
	HasPaidAccess    bool             `json:"has_paid_access"`
	MessageCount     int              `json:"message_count"`
	PlaidIntegration *BankIntegration `json:"plaid_integration"`
}

func (u User) BankConnected() bool {
	return u.PlaidIntegration != nil && u.PlaidIntegration.ID != ""
}

type LinkTokenResponse struct {
	LinkToken string `json:"link_token"`
}

type CheckoutSessionResponse struct {
	URL string `json:"url"`
}
