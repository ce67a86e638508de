package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bankr/cmd/client/apierr"
	"bankr/cmd/client/dto"
	"bankr/cmd/client/services"
)

// statusFor 는 실패 종류를 로컬 API 상태 코드로 옮긴다.
// 백엔드 403 한도 초과는 셸이 결제 화면으로 가도록 402 로 바꾼다.
func statusFor(err error) (int, string) {
	if errors.Is(err, services.ErrSendInProgress) {
		return http.StatusConflict, "send_in_progress"
	}
	switch kind := apierr.KindOf(err); kind {
	case apierr.ErrAuth:
		return http.StatusUnauthorized, kind.Error()
	case apierr.ErrQuotaExceeded:
		return http.StatusPaymentRequired, kind.Error()
	case apierr.ErrServer:
		return http.StatusBadGateway, kind.Error()
	case apierr.ErrNetwork:
		return http.StatusServiceUnavailable, kind.Error()
	case apierr.ErrValidation:
		return http.StatusBadRequest, kind.Error()
	case apierr.ErrNotFound:
		return http.StatusNotFound, kind.Error()
	case apierr.ErrRequest:
		return http.StatusBadRequest, kind.Error()
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func errorBody(err error) (int, dto.ErrorResponseDTO) {
	status, code := statusFor(err)
	body := dto.ErrorResponseDTO{Error: code, Message: apierr.UserMessage(err)}
	if errors.Is(err, services.ErrSendInProgress) {
		body.Message = "Please wait for the current reply."
	}
	body.Relogin = status == http.StatusUnauthorized
	return status, body
}

func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	status, body := errorBody(err)
	c.JSON(status, body)
}

func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: apierr.ErrValidation.Error(), Message: err.Error()})
}
