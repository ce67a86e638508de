package services

import (
	"context"
	"time"

	"bankr/cmd/client/apierr"
	"bankr/cmd/client/dto"
	"bankr/cmd/internal/logger"
)

// LinkAPI 는 계좌 연동 관련 호출이다. accountclient.Client 가 구현한다.
type LinkAPI interface {
	CreateLinkToken(ctx context.Context, userID string) (string, error)
	ExchangePublicToken(ctx context.Context, publicToken, userID, institutionID string) error
	FetchBankData(ctx context.Context) error
}

// AccountRefresher 는 연동 완료 뒤 사용자 정보(연동 여부)를 다시 읽는다.
type AccountRefresher interface {
	CurrentUser() (dto.User, bool)
	Refresh(ctx context.Context) (dto.User, error)
}

const defaultFetchRetryDelay = 2 * time.Second

// LinkService 는 외부 연동 SDK 가 전달한 연결 이벤트를 받아 토큰 교환과 초기 데이터 수집을 진행한다.
// 연동 프로토콜 자체는 SDK 몫이다.
type LinkService struct {
	api      LinkAPI
	accounts AccountRefresher

	retryDelay time.Duration
}

func NewLinkService(api LinkAPI, accounts AccountRefresher) *LinkService {
	return &LinkService{api: api, accounts: accounts, retryDelay: defaultFetchRetryDelay}
}

func (s *LinkService) currentUserID() (string, error) {
	u, ok := s.accounts.CurrentUser()
	if !ok || u.ID == "" {
		return "", apierr.New(apierr.ErrAuth, 0, "Authentication required. Please log in again.", nil)
	}
	return u.ID, nil
}

// CreateLinkToken 은 연동 SDK 를 여는 데 필요한 link token 을 발급받는다.
func (s *LinkService) CreateLinkToken(ctx context.Context) (string, error) {
	userID, err := s.currentUserID()
	if err != nil {
		return "", err
	}
	return s.api.CreateLinkToken(ctx, userID)
}

// HandleLinkSuccess 는 public token 을 교환하고 초기 데이터 수집을 요청한 뒤 사용자 정보를 갱신한다.
// 데이터 수집이 실패하면 retryDelay 후 한 번만 다시 시도한다.
func (s *LinkService) HandleLinkSuccess(ctx context.Context, publicToken, institutionID string) (dto.User, error) {
	if publicToken == "" {
		return dto.User{}, apierr.Validation("public token is required")
	}
	userID, err := s.currentUserID()
	if err != nil {
		return dto.User{}, err
	}

	if err := s.api.ExchangePublicToken(ctx, publicToken, userID, institutionID); err != nil {
		logger.ErrorWithFields("link exchange failed", logger.Fields{"user_id": userID, "error": err.Error()})
		return dto.User{}, err
	}

	if err := s.api.FetchBankData(ctx); err != nil {
		logger.WarnWithFields("link initial fetch failed, retrying", logger.Fields{"user_id": userID, "error": err.Error()})

		timer := time.NewTimer(s.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return dto.User{}, ctx.Err()
		case <-timer.C:
		}

		if err := s.api.FetchBankData(ctx); err != nil {
			logger.ErrorWithFields("link initial fetch retry failed", logger.Fields{"user_id": userID, "error": err.Error()})
			return dto.User{}, err
		}
	}

	user, err := s.accounts.Refresh(ctx)
	if err != nil {
		return dto.User{}, err
	}
	logger.InfoWithFields("bank account linked", logger.Fields{"user_id": userID, "institution_id": institutionID})
	return user, nil
}
