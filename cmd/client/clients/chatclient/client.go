package chatclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"bankr/cmd/client/apierr"
	"bankr/cmd/client/dto"
	"bankr/cmd/client/httpclient"
)

// Client 는 백엔드 대화/메시지 REST API 를 호출하는 얇은 클라이언트다.
//
// 백엔드 응답은 camelCase 와 snake_case, human/ai 와 user/model 이 섞여 있으므로
// 모든 응답은 여기서 dto 형태로 정규화한 뒤 돌려준다.
type Client struct {
	base *httpclient.BaseClient
	now  func() time.Time
}

func New(base *httpclient.BaseClient) *Client {
	return &Client{base: base, now: time.Now}
}

// WithClock 은 타임스탬프 기본값에 쓰는 시계를 바꾼다. 테스트용.
func (c *Client) WithClock(now func() time.Time) *Client {
	c.now = now
	return c
}

// -------------------- Wire types --------------------

type wireMessage struct {
	ID             string     `json:"id"`
	Content        string     `json:"content"`
	Response       string     `json:"response"`
	Role           string     `json:"role"`
	ChatID         string     `json:"chatId"`
	ChatIDSnake    string     `json:"chat_id"`
	CreatedAt      *time.Time `json:"createdAt"`
	CreatedAtSnake *time.Time `json:"created_at"`
	UpdatedAt      *time.Time `json:"updatedAt"`
	UpdatedAtSnake *time.Time `json:"updated_at"`
}

type wireChat struct {
	ID              string        `json:"id"`
	Title           *string       `json:"title"`
	UserID          string        `json:"userId"`
	UserIDSnake     string        `json:"user_id"`
	IsArchived      bool          `json:"isArchived"`
	IsArchivedSnake bool          `json:"is_archived"`
	Messages        []wireMessage `json:"messages"`
	CreatedAt       *time.Time    `json:"createdAt"`
	CreatedAtSnake  *time.Time    `json:"created_at"`
	UpdatedAt       *time.Time    `json:"updatedAt"`
	UpdatedAtSnake  *time.Time    `json:"updated_at"`
}

type createChatRequest struct {
	Title string `json:"title"`
}

type sendMessageRequest struct {
	ChatID  string `json:"chatId"`
	Content string `json:"content"`
}

type demoChatRequest struct {
	Message     string             `json:"message"`
	ChatHistory []dto.DemoChatTurn `json:"chat_history"`
}

func firstTime(fallback time.Time, candidates ...*time.Time) time.Time {
	for _, t := range candidates {
		if t != nil && !t.IsZero() {
			return *t
		}
	}
	return fallback
}

func firstString(candidates ...string) string {
	for _, s := range candidates {
		if s != "" {
			return s
		}
	}
	return ""
}

func (c *Client) normalizeMessage(w wireMessage, chatID string) dto.Message {
	now := c.now()
	return dto.Message{
		ID:        w.ID,
		ChatID:    firstString(w.ChatID, w.ChatIDSnake, chatID),
		Role:      dto.NormalizeRole(w.Role),
		Content:   firstString(w.Response, w.Content),
		CreatedAt: firstTime(now, w.CreatedAt, w.CreatedAtSnake),
		UpdatedAt: firstTime(now, w.UpdatedAt, w.UpdatedAtSnake),
	}
}

func (c *Client) normalizeChat(w wireChat) dto.Chat {
	now := c.now()
	out := dto.Chat{
		ID:         w.ID,
		Title:      w.Title,
		UserID:     firstString(w.UserID, w.UserIDSnake),
		IsArchived: w.IsArchived || w.IsArchivedSnake,
		CreatedAt:  firstTime(now, w.CreatedAt, w.CreatedAtSnake),
		UpdatedAt:  firstTime(now, w.UpdatedAt, w.UpdatedAtSnake),
		Messages:   make([]dto.Message, 0, len(w.Messages)),
	}
	for _, m := range w.Messages {
		out.Messages = append(out.Messages, c.normalizeMessage(m, w.ID))
	}
	return out
}

// -------------------- Chats --------------------

// ListChats 는 GET /chats 를 호출해 현재 사용자의 대화 목록을 조회한다.
func (c *Client) ListChats(ctx context.Context) ([]dto.Chat, error) {
	req, err := c.base.NewRequest(ctx, http.MethodGet, "/chats", nil, nil)
	if err != nil {
		return nil, err
	}

	var out []wireChat
	if err := c.base.DoJSON(req, &out); err != nil {
		return nil, fmt.Errorf("chat-api ListChats: %w", err)
	}

	chats := make([]dto.Chat, 0, len(out))
	for _, w := range out {
		chats = append(chats, c.normalizeChat(w))
	}
	return chats, nil
}

// chatPath 는 /chats/{id} 경로를 만든다. id 는 한 경로 세그먼트로만 쓰인다.
func chatPath(chatID string) (string, error) {
	switch chatID {
	case "", ".", "..":
		return "", apierr.Validation("invalid chat id")
	}
	return "/chats/" + url.PathEscape(chatID), nil
}

// GetChat 은 GET /chats/{id} 를 호출해 메시지를 포함한 대화 하나를 조회한다.
func (c *Client) GetChat(ctx context.Context, chatID string) (dto.Chat, error) {
	p, err := chatPath(chatID)
	if err != nil {
		return dto.Chat{}, err
	}
	req, err := c.base.NewRequest(ctx, http.MethodGet, p, nil, nil)
	if err != nil {
		return dto.Chat{}, err
	}

	var out wireChat
	if err := c.base.DoJSON(req, &out); err != nil {
		return dto.Chat{}, fmt.Errorf("chat-api GetChat: %w", err)
	}
	return c.normalizeChat(out), nil
}

// CreateChat 은 POST /chats 를 호출해 새 대화를 만든다. 대화 ID 는 항상 서버가 정한다.
func (c *Client) CreateChat(ctx context.Context, title string) (dto.Chat, error) {
	req, err := c.base.NewJSONRequest(ctx, http.MethodPost, "/chats", nil, createChatRequest{Title: title})
	if err != nil {
		return dto.Chat{}, err
	}

	var out wireChat
	if err := c.base.DoJSON(req, &out); err != nil {
		return dto.Chat{}, fmt.Errorf("chat-api CreateChat: %w", err)
	}
	return c.normalizeChat(out), nil
}

// DeleteChat 은 DELETE /chats/{id} 를 호출한다.
func (c *Client) DeleteChat(ctx context.Context, chatID string) error {
	p, err := chatPath(chatID)
	if err != nil {
		return err
	}
	req, err := c.base.NewRequest(ctx, http.MethodDelete, p, nil, nil)
	if err != nil {
		return err
	}
	if err := c.base.DoJSON(req, nil); err != nil {
		return fmt.Errorf("chat-api DeleteChat: %w", err)
	}
	return nil
}

// -------------------- Messages --------------------

// SendMessage 는 POST /messages 를 호출한다. 사용자 메시지를 저장하고
// 백엔드가 같은 호출 안에서 생성한 어시스턴트 응답을 돌려받는다.
// 응답에 id 가 없으면 ai-<uuid> 를, role 이 없으면 model 을 채운다.
func (c *Client) SendMessage(ctx context.Context, chatID, content string) (dto.Message, error) {
	req, err := c.base.NewJSONRequest(ctx, http.MethodPost, "/messages", nil, sendMessageRequest{ChatID: chatID, Content: content})
	if err != nil {
		return dto.Message{}, err
	}

	var out wireMessage
	if err := c.base.DoJSON(req, &out); err != nil {
		return dto.Message{}, fmt.Errorf("chat-api SendMessage: %w", err)
	}

	msg := c.normalizeMessage(out, chatID)
	if msg.ID == "" {
		msg.ID = "ai-" + uuid.NewString()
	}
	return msg, nil
}

// RefreshBankData 는 GET /plaid/fetch/refresh 를 호출해 연동 계좌 데이터 갱신을 요청한다.
func (c *Client) RefreshBankData(ctx context.Context) error {
	req, err := c.base.NewRequest(ctx, http.MethodGet, "/plaid/fetch/refresh", nil, nil)
	if err != nil {
		return err
	}
	if err := c.base.DoJSON(req, nil); err != nil {
		return fmt.Errorf("chat-api RefreshBankData: %w", err)
	}
	return nil
}

// DemoChat 은 로그인 전 체험용 POST /demo-chat 을 호출한다.
func (c *Client) DemoChat(ctx context.Context, message string, history []dto.DemoChatTurn) (dto.DemoChatResponse, error) {
	if history == nil {
		history = []dto.DemoChatTurn{}
	}
	req, err := c.base.NewJSONRequest(ctx, http.MethodPost, "/demo-chat", nil, demoChatRequest{Message: message, ChatHistory: history})
	if err != nil {
		return dto.DemoChatResponse{}, err
	}

	var out dto.DemoChatResponse
	if err := c.base.DoJSON(req, &out); err != nil {
		return dto.DemoChatResponse{}, fmt.Errorf("chat-api DemoChat: %w", err)
	}
	return out, nil
}
