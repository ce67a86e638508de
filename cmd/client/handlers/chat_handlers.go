package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"bankr/cmd/client/dto"
	"bankr/cmd/client/services"
)

type conversationsResponse struct {
	Chats      []dto.Chat `json:"chats"`
	SelectedID string     `json:"selectedId,omitempty"`
}

func snapshot(svc *services.ChatSessionController) conversationsResponse {
	out := conversationsResponse{Chats: svc.Conversations()}
	if sel, ok := svc.Selected(); ok {
		out.SelectedID = sel.ID
	}
	return out
}

// @Summary 대화 목록 불러오기
// @Description 서버에서 대화 목록을 다시 읽는다. 가장 최신 대화가 비어 있으면 그 대화를, 아니면 새로 만든 대화를 선택한다.
// @Tags chats
// @Produce json
// @Success 200 {object} conversationsResponse
// @Failure 401 {object} dto.ErrorResponseDTO
// @Failure 503 {object} dto.ErrorResponseDTO
// @Router /api/v1/chats/load [post]
func LoadConversationsHandler(svc *services.ChatSessionController) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := svc.LoadConversations(c.Request.Context()); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, snapshot(svc))
	}
}

// @Summary 현재 대화 목록
// @Description 네트워크 호출 없이 메모리의 대화 목록과 선택 상태를 돌려준다.
// @Tags chats
// @Produce json
// @Success 200 {object} conversationsResponse
// @Router /api/v1/chats [get]
func ListConversationsHandler(svc *services.ChatSessionController) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, snapshot(svc))
	}
}

// @Summary 선택된 대화
// @Tags chats
// @Produce json
// @Success 200 {object} dto.Chat
// @Failure 404 {object} dto.ErrorResponseDTO
// @Router /api/v1/chats/selected [get]
func SelectedConversationHandler(svc *services.ChatSessionController) gin.HandlerFunc {
	return func(c *gin.Context) {
		chat, ok := svc.Selected()
		if !ok {
			c.JSON(http.StatusNotFound, dto.ErrorResponseDTO{Error: "not_found", Message: "No conversation selected."})
			return
		}
		c.JSON(http.StatusOK, chat)
	}
}

// @Summary 새 대화 만들기
// @Description 새 대화를 목록 끝에 추가한다. 선택은 바꾸지 않는다.
// @Tags chats
// @Produce json
// @Success 201 {object} dto.Chat
// @Failure 502 {object} dto.ErrorResponseDTO
// @Router /api/v1/chats [post]
func CreateConversationHandler(svc *services.ChatSessionController) gin.HandlerFunc {
	return func(c *gin.Context) {
		chat, err := svc.CreateConversation(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, chat)
	}
}

// @Summary 대화 선택
// @Description 대화를 서버에서 다시 읽어 선택한다.
// @Tags chats
// @Produce json
// @Param id path string true "Chat ID"
// @Success 200 {object} dto.Chat
// @Failure 404 {object} dto.ErrorResponseDTO
// @Router /api/v1/chats/{id}/select [post]
func SelectConversationHandler(svc *services.ChatSessionController) gin.HandlerFunc {
	return func(c *gin.Context) {
		chat, err := svc.SelectConversation(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, chat)
	}
}

// @Summary 대화 삭제
// @Tags chats
// @Produce json
// @Param id path string true "Chat ID"
// @Success 200 {object} conversationsResponse
// @Failure 404 {object} dto.ErrorResponseDTO
// @Router /api/v1/chats/{id} [delete]
func DeleteConversationHandler(svc *services.ChatSessionController) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.DeleteConversation(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, snapshot(svc))
	}
}

// @Summary 대화 작성 상태
// @Tags chats
// @Produce json
// @Param id path string true "Chat ID"
// @Success 200 {object} object
// @Router /api/v1/chats/{id}/composition [get]
func CompositionHandler(svc *services.ChatSessionController) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"state": svc.Composition(c.Param("id"))})
	}
}

type sendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

type sendErrorResponse struct {
	dto.ErrorResponseDTO
	Result services.SendResult `json:"result"`
}

// @Summary 메시지 전송
// @Description 메시지를 보내고 어시스턴트 응답을 기다린다. 실패해도 result 에 사용자 메시지가 남는다.
// @Tags chats
// @Accept json
// @Produce json
// @Param id path string true "Chat ID"
// @Param body body sendMessageRequest true "message"
// @Success 200 {object} services.SendResult
// @Failure 402 {object} sendErrorResponse
// @Failure 409 {object} dto.ErrorResponseDTO
// @Router /api/v1/chats/{id}/messages [post]
func SendMessageHandler(svc *services.ChatSessionController) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err)
			return
		}

		result, err := svc.SendMessage(c.Request.Context(), c.Param("id"), req.Content)
		if err != nil {
			_ = c.Error(err)
			status, body := errorBody(err)
			c.JSON(status, sendErrorResponse{ErrorResponseDTO: body, Result: result})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// BankDataRefresher 는 chatclient.Client 가 구현한다.
type BankDataRefresher interface {
	RefreshBankData(ctx context.Context) error
}

// @Summary 계좌 데이터 새로고침
// @Description 어시스턴트가 최신 거래를 보도록 연동 계좌 데이터 갱신을 요청한다.
// @Tags chats
// @Produce json
// @Success 200 {object} dto.MessageResponseDTO
// @Failure 502 {object} dto.ErrorResponseDTO
// @Router /api/v1/chats/refresh-bank-data [post]
func RefreshBankDataHandler(client BankDataRefresher) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := client.RefreshBankData(c.Request.Context()); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.MessageResponseDTO{Message: "bank data refreshed"})
	}
}

// DemoChatter 는 로그인 없이 쓰는 체험용 채팅이다.
type DemoChatter interface {
	DemoChat(ctx context.Context, message string, history []dto.DemoChatTurn) (dto.DemoChatResponse, error)
}

type demoChatRequest struct {
	Message string             `json:"message" binding:"required"`
	History []dto.DemoChatTurn `json:"history"`
}

// @Summary 체험용 채팅
// @Tags demo
// @Accept json
// @Produce json
// @Param body body demoChatRequest true "message and history"
// @Success 200 {object} dto.DemoChatResponse
// @Router /api/v1/demo-chat [post]
func DemoChatHandler(client DemoChatter) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req demoChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err)
			return
		}
		out, err := client.DemoChat(c.Request.Context(), req.Message, req.History)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}
