package dto

import (
	"strings"
	"time"
)

// Role 은 메시지 작성자다. 백엔드는 human/ai 를 섞어 보내기도 하므로 NormalizeRole 로 맞춘다.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// TypingMarker 는 어시스턴트 응답을 기다리는 동안 보여주는 자리표시 메시지 내용이다.
const TypingMarker = "..."

func NormalizeRole(raw string) Role {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "human", "user":
		return RoleUser
	case "ai", "assistant", "model", "":
		return RoleModel
	default:
		return Role(strings.ToLower(raw))
	}
}

// ProvisionalKind 는 아직 서버에 저장되지 않은 로컬 메시지의 종류다.
type ProvisionalKind string

const (
	// ProvisionalUserEcho 는 사용자가 방금 보낸 메시지의 로컬 사본이다.
	ProvisionalUserEcho ProvisionalKind = "user_echo"
	// ProvisionalLoading 은 어시스턴트 응답 자리표시다.
	ProvisionalLoading ProvisionalKind = "loading"
)

// Provisional 이 붙은 메시지는 아직 서버 사본으로 바뀌지 않은 로컬 메시지다.
// TempID 는 전송마다 새로 만들며 서버로 보내지 않는다.
type Provisional struct {
	TempID string          `json:"temp_id"`
	Kind   ProvisionalKind `json:"kind"`
	// Failed 는 전송이 실패해 서버에 없는 사용자 메시지다. 재동기화 뒤에도 남는다.
	Failed bool `json:"failed,omitempty"`
}

type Message struct {
	ID          string       `json:"id"`
	ChatID      string       `json:"chatId"`
	Role        Role         `json:"role"`
	Content     string       `json:"content"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	Provisional *Provisional `json:"provisional,omitempty"`
}

func (m Message) IsProvisional() bool {
	return m.Provisional != nil
}

// IsLoadingFor 는 m 이 tempID 로 만든 응답 자리표시인지 확인한다.
func (m Message) IsLoadingFor(tempID string) bool {
	return m.Provisional != nil && m.Provisional.Kind == ProvisionalLoading && m.Provisional.TempID == tempID
}

// Chat 은 대화 하나다. Messages 는 삽입 순서(시간순)를 유지하며 재정렬하지 않는다.
type Chat struct {
	ID         string    `json:"id"`
	Title      *string   `json:"title"`
	UserID     string    `json:"userId"`
	IsArchived bool      `json:"isArchived"`
	Messages   []Message `json:"messages"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Clone 은 메시지 슬라이스까지 복사한 사본을 반환한다.
func (c Chat) Clone() Chat {
	out := c
	if c.Title != nil {
		title := *c.Title
		out.Title = &title
	}
	out.Messages = make([]Message, len(c.Messages))
	for i, m := range c.Messages {
		if m.Provisional != nil {
			p := *m.Provisional
			m.Provisional = &p
		}
		out.Messages[i] = m
	}
	return out
}

// DemoChatTurn 은 로그인 없이 쓰는 데모 채팅의 대화 기록 한 줄이다.
type DemoChatTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type DemoChatResponse struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	IsDemo    bool   `json:"isDemo"`
	Timestamp string `json:"timestamp"`
}
