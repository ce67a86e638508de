package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"bankr/cmd/client/dto"
	"bankr/cmd/client/purchase"
	"bankr/cmd/client/services"
	"bankr/cmd/client/settings"
	"bankr/cmd/internal/logger"
)

// SnapshotPurger 는 cache.Store 가 구현한다. 사용자가 바뀌면 이전 사용자의 인사이트가 남지 않도록 비운다.
type SnapshotPurger interface {
	Purge(ctx context.Context) error
}

func purgeSnapshots(ctx context.Context, p SnapshotPurger) {
	if p == nil {
		return
	}
	if err := p.Purge(ctx); err != nil {
		logger.WarnWithFields("snapshot purge failed", logger.Fields{"error": err.Error()})
	}
}

// @Summary 현재 사용자
// @Description 백엔드에서 사용자 정보를 다시 읽는다. 무료 한도 카운터도 함께 갱신된다.
// @Tags account
// @Produce json
// @Success 200 {object} dto.User
// @Failure 401 {object} dto.ErrorResponseDTO
// @Router /api/v1/account/me [get]
func MeHandler(svc *services.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := svc.Refresh(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// @Summary 로그아웃
// @Description 메모리의 사용자 정보와 캐시된 인사이트를 지운다. 토큰 폐기는 셸의 인증 협력자 몫이다.
// @Tags account
// @Produce json
// @Success 200 {object} dto.MessageResponseDTO
// @Router /api/v1/account/logout [post]
func LogoutHandler(svc *services.AccountService, snapshots SnapshotPurger) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc.Forget()
		purgeSnapshots(c.Request.Context(), snapshots)
		c.JSON(http.StatusOK, dto.MessageResponseDTO{Message: "logged out"})
	}
}

// @Summary 계좌 연동 해제
// @Tags account
// @Produce json
// @Success 200 {object} dto.User
// @Router /api/v1/account/disconnect-bank [post]
func DisconnectBankHandler(svc *services.AccountService, snapshots SnapshotPurger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := svc.DisconnectBank(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		purgeSnapshots(c.Request.Context(), snapshots)
		c.JSON(http.StatusOK, user)
	}
}

// @Summary 계좌 연동 토큰 발급
// @Tags link
// @Produce json
// @Success 200 {object} dto.LinkTokenResponse
// @Failure 401 {object} dto.ErrorResponseDTO
// @Router /api/v1/link/token [post]
func CreateLinkTokenHandler(svc *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := svc.CreateLinkToken(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.LinkTokenResponse{LinkToken: token})
	}
}

type linkSuccessRequest struct {
	PublicToken   string `json:"public_token" binding:"required"`
	InstitutionID string `json:"institution_id"`
}

// @Summary 계좌 연동 완료
// @Description public token 을 교환하고 계좌 데이터를 가져온 뒤 갱신된 사용자를 돌려준다.
// @Tags link
// @Accept json
// @Produce json
// @Param body body linkSuccessRequest true "link result"
// @Success 200 {object} dto.User
// @Router /api/v1/link/success [post]
func LinkSuccessHandler(svc *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req linkSuccessRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err)
			return
		}
		user, err := svc.HandleLinkSuccess(c.Request.Context(), req.PublicToken, req.InstitutionID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// @Summary 구독 결제 시작
// @Description 플랫폼 결제 경로에 따라 셸이 할 일(URL 열기, 네이티브 결제)을 돌려준다.
// @Tags subscription
// @Produce json
// @Success 200 {object} purchase.Outcome
// @Router /api/v1/subscription/purchase [post]
func PurchaseHandler(p purchase.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := p.Purchase(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary 구매 복원
// @Tags subscription
// @Produce json
// @Success 200 {object} purchase.Outcome
// @Router /api/v1/subscription/restore [post]
func RestoreHandler(p purchase.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := p.Restore(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary 결제 결과 보고
// @Description 셸이 결제 화면을 닫은 뒤 결과를 알린다. cancelled 는 에러가 아니다.
// @Tags subscription
// @Accept json
// @Produce json
// @Param body body purchase.Completion true "purchase result"
// @Success 200 {object} purchase.Outcome
// @Router /api/v1/subscription/complete [post]
func CompletePurchaseHandler(p purchase.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req purchase.Completion
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err)
			return
		}
		out, err := p.Complete(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary 구독 해지
// @Tags subscription
// @Produce json
// @Success 200 {object} dto.User
// @Router /api/v1/subscription/cancel [post]
func CancelSubscriptionHandler(svc *services.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := svc.CancelSubscription(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// @Summary 앱 설정 조회
// @Tags settings
// @Produce json
// @Success 200 {object} settings.Settings
// @Router /api/v1/settings [get]
func GetSettingsHandler(store *settings.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, store.Get())
	}
}

// @Summary 앱 설정 변경
// @Description 보낸 필드만 바꾸고 바로 저장한다.
// @Tags settings
// @Accept json
// @Produce json
// @Param body body settings.Patch true "changed fields"
// @Success 200 {object} settings.Settings
// @Router /api/v1/settings [patch]
func UpdateSettingsHandler(store *settings.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req settings.Patch
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err)
			return
		}
		out, err := store.Update(req)
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, dto.ErrorResponseDTO{Error: "internal_error", Message: "Unable to save settings."})
			return
		}
		c.JSON(http.StatusOK, out)
	}
}
