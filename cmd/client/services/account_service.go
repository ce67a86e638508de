package services

import (
	"context"
	"sync"

	"bankr/cmd/client/dto"
	"bankr/cmd/internal/logger"
)

// AccountAPI 는 accountclient.Client 가 구현한다.
type AccountAPI interface {
	Me(ctx context.Context) (dto.User, error)
	DisconnectBank(ctx context.Context) error
	CancelSubscription(ctx context.Context) error
}

// AccountService 는 현재 사용자 정보를 들고 있다. 채팅 무료 한도 사전 검사와
// 거래 조회 계좌 ID 가 여기서 나온다.
type AccountService struct {
	api AccountAPI

	mu    sync.RWMutex
	user  dto.User
	known bool
}

func NewAccountService(api AccountAPI) *AccountService {
	return &AccountService{api: api}
}

func (s *AccountService) CurrentUser() (dto.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.known
}

// Refresh 는 GET /auth/me 로 사용자 정보를 다시 읽는다. 실패하면 이전 값을 유지한다.
func (s *AccountService) Refresh(ctx context.Context) (dto.User, error) {
	user, err := s.api.Me(ctx)
	if err != nil {
		return dto.User{}, err
	}

	s.mu.Lock()
	s.user = user
	s.known = true
	s.mu.Unlock()

	logger.DebugWithFields("account refreshed", logger.Fields{
		"user_id":         user.ID,
		"has_paid_access": user.HasPaidAccess,
		"message_count":   user.MessageCount,
	})
	return user, nil
}

// Forget 은 로그아웃 시 사용자 정보를 지운다.
func (s *AccountService) Forget() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = dto.User{}
	s.known = false
}

func (s *AccountService) DisconnectBank(ctx context.Context) (dto.User, error) {
	if err := s.api.DisconnectBank(ctx); err != nil {
		return dto.User{}, err
	}
	return s.Refresh(ctx)
}

func (s *AccountService) CancelSubscription(ctx context.Context) (dto.User, error) {
	if err := s.api.CancelSubscription(ctx); err != nil {
		return dto.User{}, err
	}
	return s.Refresh(ctx)
}
