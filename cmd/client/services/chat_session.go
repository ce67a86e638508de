package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"bankr/cmd/client/apierr"
	"bankr/cmd/client/dto"
	"bankr/cmd/client/trace"
	"bankr/cmd/internal/logger"
)

// ChatTransport 는 컨트롤러가 쓰는 대화 REST 호출이다. chatclient.Client 가 구현한다.
type ChatTransport interface {
	ListChats(ctx context.Context) ([]dto.Chat, error)
	GetChat(ctx context.Context, chatID string) (dto.Chat, error)
	CreateChat(ctx context.Context, title string) (dto.Chat, error)
	SendMessage(ctx context.Context, chatID, content string) (dto.Message, error)
	DeleteChat(ctx context.Context, chatID string) error
}

// QuotaSource 는 무료 한도 사전 검사에 필요한 현재 사용자 정보를 제공한다.
type QuotaSource interface {
	CurrentUser() (dto.User, bool)
	Refresh(ctx context.Context) (dto.User, error)
}

// ErrSendInProgress 는 같은 대화에 아직 끝나지 않은 전송이 있을 때 반환된다.
var ErrSendInProgress = errors.New("send already in progress for this chat")

// CompositionState 는 대화 하나의 작성 상태다.
type CompositionState string

const (
	// CompositionEmpty 는 메시지가 하나도 없는 대화.
	CompositionEmpty CompositionState = "empty"
	// CompositionAwaitingFirstReply 는 사용자 메시지는 있지만 어시스턴트 응답이 아직 없는 대화.
	CompositionAwaitingFirstReply CompositionState = "awaiting_first_reply"
	CompositionReady              CompositionState = "ready"
	// CompositionSending 은 전송이 진행 중인 동안의 일시 상태다. 이 동안 추가 전송은 거부된다.
	CompositionSending CompositionState = "sending"
)

type ChatSessionConfig struct {
	FreeMessageLimit int
	SendTimeout      time.Duration
}

// SendResult 는 전송 한 건의 결과와 UI 가 보여줄 상태를 담는다.
type SendResult struct {
	ChatID      string       `json:"chatId"`
	UserMessage dto.Message  `json:"userMessage"`
	Reply       *dto.Message `json:"reply,omitempty"`
	// QuotaExceeded 가 true 면 UI 는 업그레이드 화면으로 보내고 입력창을 비운다.
	QuotaExceeded bool `json:"quotaExceeded"`
	// Relogin 이 true 면 세션이 만료된 것이다.
	Relogin bool   `json:"relogin"`
	Notice  string `json:"notice,omitempty"`
}

// ChatSessionController 는 대화 목록과 선택된 대화의 메모리 상태를 소유한다.
//
// 선택된 대화는 목록 항목의 ID 로만 기억하고 Selected 는 그 항목의 사본을 만든다.
// 따라서 두 화면(목록, 선택 대화)은 항상 같은 메시지를 본다.
// 상태 변경은 mu 로 직렬화하고 transport 호출은 잠금 밖에서 한다.
type ChatSessionController struct {
	transport ChatTransport
	quota     QuotaSource
	cfg       ChatSessionConfig

	now    func() time.Time
	tempID func() string

	mu         sync.Mutex
	chats      []dto.Chat
	selectedID string
	// inflight 는 전송 중인 대화 ID 집합이다.
	inflight map[string]struct{}
	// revs 는 대화별 메시지 변경 횟수다. 백그라운드 재동기화는 시작 시점의 값과 같을 때만 반영된다.
	revs map[string]uint64

	// bg 는 전송 성공 뒤 도는 재동기화 고루틴을 센다.
	bg sync.WaitGroup
}

func NewChatSessionController(transport ChatTransport, quota QuotaSource, cfg ChatSessionConfig) *ChatSessionController {
	if cfg.FreeMessageLimit <= 0 {
		cfg.FreeMessageLimit = 2
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 2 * time.Minute
	}
	return &ChatSessionController{
		transport: transport,
		quota:     quota,
		cfg:       cfg,
		now:       time.Now,
		tempID:    uuid.NewString,
		inflight:  make(map[string]struct{}),
		revs:      make(map[string]uint64),
	}
}

// Wait 는 진행 중인 재동기화가 모두 끝나거나 ctx 가 끝날 때까지 기다린다.
func (s *ChatSessionController) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.bg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// -------------------- Read side --------------------

// Conversations 는 대화 목록 사본을 돌려준다. 최신 대화가 앞에 온다.
func (s *ChatSessionController) Conversations() []dto.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]dto.Chat, 0, len(s.chats))
	for _, c := range s.chats {
		out = append(out, c.Clone())
	}
	return out
}

func (s *ChatSessionController) Selected() (dto.Chat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedLocked()
}

func (s *ChatSessionController) Composition(chatID string) CompositionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.inflight[chatID]; ok {
		return CompositionSending
	}
	i := s.indexLocked(chatID)
	if i < 0 || len(s.chats[i].Messages) == 0 {
		return CompositionEmpty
	}
	for _, m := range s.chats[i].Messages {
		if m.Role == dto.RoleModel && !m.IsProvisional() {
			return CompositionReady
		}
	}
	return CompositionAwaitingFirstReply
}

func (s *ChatSessionController) indexLocked(chatID string) int {
	if chatID == "" {
		return -1
	}
	for i := range s.chats {
		if s.chats[i].ID == chatID {
			return i
		}
	}
	return -1
}

// touchLocked 는 대화의 메시지가 바뀌었음을 기록하고 새 변경 번호를 돌려준다.
func (s *ChatSessionController) touchLocked(chatID string) uint64 {
	s.revs[chatID]++
	return s.revs[chatID]
}

func (s *ChatSessionController) selectedLocked() (dto.Chat, bool) {
	i := s.indexLocked(s.selectedID)
	if i < 0 {
		return dto.Chat{}, false
	}
	return s.chats[i].Clone(), true
}

// -------------------- Operations --------------------

// NewChatTitle 은 새 대화에 붙이는 기본 제목이다.
func NewChatTitle(now time.Time) string {
	return "New Chat - " + now.UTC().Format("2006-01-02T15:04:05.000Z")
}

// LoadConversations 는 대화 목록을 다시 불러오고 선택 정책을 적용한다.
//
//   - 목록이 비어 있으면 새 대화를 만들어 유일한 항목으로 두고 선택한다.
//   - 가장 최신 대화에 메시지가 없으면 그 대화를 그대로 선택한다.
//   - 그 외에는 새 대화를 만들어 맨 앞에 넣고 선택한다.
//
// 실패하면 목록과 선택은 바뀌지 않는다.
func (s *ChatSessionController) LoadConversations(ctx context.Context) (dto.Chat, error) {
	ctx = trace.Start(ctx, "chat.load")
	chats, err := s.transport.ListChats(ctx)
	if err != nil {
		logger.ErrorWithFields("chat session load failed", logger.Fields{"error": err.Error()})
		return dto.Chat{}, err
	}

	sort.SliceStable(chats, func(i, j int) bool { return chats[i].CreatedAt.After(chats[j].CreatedAt) })

	var selected dto.Chat
	if len(chats) > 0 && len(chats[0].Messages) == 0 {
		selected = chats[0]
	} else {
		created, err := s.transport.CreateChat(ctx, NewChatTitle(s.now()))
		if err != nil {
			logger.ErrorWithFields("chat session draft create failed", logger.Fields{"error": err.Error()})
			return dto.Chat{}, err
		}
		selected = created
		chats = append([]dto.Chat{created}, chats...)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// 전송 중인 대화는 임시 메시지가 담긴 로컬 항목을 유지한다.
	for i := range chats {
		if _, ok := s.inflight[chats[i].ID]; !ok {
			s.touchLocked(chats[i].ID)
			continue
		}
		if j := s.indexLocked(chats[i].ID); j >= 0 {
			chats[i] = s.chats[j]
		}
	}
	s.chats = chats
	s.selectedID = selected.ID

	logger.InfoWithFields("chat session loaded", logger.Fields{
		"chats":    len(chats),
		"selected": selected.ID,
	})
	out, _ := s.selectedLocked()
	return out, nil
}

// SelectConversation 은 대화를 메시지까지 다시 조회해 선택한다.
// 그 대화에 전송이 진행 중이면 서버 사본 대신 로컬 항목을 유지한다.
func (s *ChatSessionController) SelectConversation(ctx context.Context, chatID string) (dto.Chat, error) {
	if strings.TrimSpace(chatID) == "" {
		return dto.Chat{}, apierr.Validation("chat id is required")
	}

	s.mu.Lock()
	if _, busy := s.inflight[chatID]; busy && s.indexLocked(chatID) >= 0 {
		s.selectedID = chatID
		out, _ := s.selectedLocked()
		s.mu.Unlock()
		return out, nil
	}
	s.mu.Unlock()

	chat, err := s.transport.GetChat(ctx, chatID)
	if err != nil {
		logger.ErrorWithFields("chat session select failed", logger.Fields{"chat_id": chatID, "error": err.Error()})
		return dto.Chat{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(chat.ID)
	switch {
	case i < 0:
		s.chats = append([]dto.Chat{chat}, s.chats...)
		s.touchLocked(chat.ID)
	case inflightLocked(s.inflight, chat.ID):
		// 조회하는 사이 전송이 시작됐다.
	default:
		s.chats[i] = chat
		s.touchLocked(chat.ID)
	}
	s.selectedID = chat.ID
	out, _ := s.selectedLocked()
	return out, nil
}

func inflightLocked(inflight map[string]struct{}, chatID string) bool {
	_, ok := inflight[chatID]
	return ok
}

// CreateConversation 은 서버에 새 대화를 만들고 목록 끝에 붙인다. 선택은 바꾸지 않는다.
func (s *ChatSessionController) CreateConversation(ctx context.Context) (dto.Chat, error) {
	chat, err := s.transport.CreateChat(ctx, NewChatTitle(s.now()))
	if err != nil {
		logger.ErrorWithFields("chat session create failed", logger.Fields{"error": err.Error()})
		return dto.Chat{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats = append(s.chats, chat)
	return chat.Clone(), nil
}

// DeleteConversation 은 서버에서 대화를 지우고 목록에서 뺀다.
// 선택된 대화였다면 선택이 비워진다.
func (s *ChatSessionController) DeleteConversation(ctx context.Context, chatID string) error {
	if err := s.transport.DeleteChat(ctx, chatID); err != nil {
		logger.ErrorWithFields("chat session delete failed", logger.Fields{"chat_id": chatID, "error": err.Error()})
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(chatID); i >= 0 {
		s.chats = append(s.chats[:i], s.chats[i+1:]...)
	}
	if s.selectedID == chatID {
		s.selectedID = ""
	}
	return nil
}

// quotaExhausted 는 무료 한도 사전 검사다. 사용자 정보가 없으면 서버 판단에 맡긴다.
func (s *ChatSessionController) quotaExhausted() bool {
	if s.quota == nil {
		return false
	}
	user, ok := s.quota.CurrentUser()
	if !ok {
		return false
	}
	return !user.HasPaidAccess && user.MessageCount >= s.cfg.FreeMessageLimit
}

// SendMessage 는 메시지 하나를 전송한다. chatID 가 비어 있으면 선택된 대화로 보낸다.
//
// 사용자 메시지 사본과 응답 자리표시를 먼저 붙이고, 응답이 오면 자리표시를 실제 응답으로 바꾼다.
// 실패하면 자리표시만 지우고 사용자 메시지는 남긴다. 결과는 요청 당시의 대화 항목에만 반영된다.
// 전송은 호출자의 ctx 취소와 무관하게 SendTimeout 까지 진행된다.
// 성공 뒤의 사용자 정보 갱신과 재동기화는 기다리지 않는다. 끝나기를 기다리려면 Wait.
func (s *ChatSessionController) SendMessage(ctx context.Context, chatID, text string) (SendResult, error) {
	content := strings.TrimSpace(text)
	if content == "" {
		return SendResult{}, apierr.Validation("message is empty")
	}

	s.mu.Lock()
	if s.selectedID == "" {
		s.mu.Unlock()
		return SendResult{}, apierr.Validation("no conversation selected")
	}
	if chatID == "" {
		chatID = s.selectedID
	}
	idx := s.indexLocked(chatID)
	if idx < 0 {
		s.mu.Unlock()
		return SendResult{ChatID: chatID}, apierr.New(apierr.ErrNotFound, 0, "conversation not loaded", nil)
	}
	if s.quotaExhausted() {
		s.mu.Unlock()
		err := apierr.New(apierr.ErrQuotaExceeded, 0, "free message limit reached", nil)
		logger.InfoWithFields("chat session quota pre-check blocked send", logger.Fields{"chat_id": chatID})
		return SendResult{ChatID: chatID, QuotaExceeded: true, Notice: apierr.UserMessage(err)}, err
	}
	if _, busy := s.inflight[chatID]; busy {
		s.mu.Unlock()
		return SendResult{ChatID: chatID}, ErrSendInProgress
	}

	now := s.now()
	echo := dto.Message{
		ID:          "user-" + s.tempID(),
		ChatID:      chatID,
		Role:        dto.RoleUser,
		Content:     content,
		CreatedAt:   now,
		UpdatedAt:   now,
		Provisional: &dto.Provisional{Kind: dto.ProvisionalUserEcho},
	}
	echo.Provisional.TempID = echo.ID
	loading := dto.Message{
		ID:          "loading-" + s.tempID(),
		ChatID:      chatID,
		Role:        dto.RoleModel,
		Content:     dto.TypingMarker,
		CreatedAt:   now,
		UpdatedAt:   now,
		Provisional: &dto.Provisional{Kind: dto.ProvisionalLoading},
	}
	loading.Provisional.TempID = loading.ID

	s.chats[idx].Messages = append(s.chats[idx].Messages, echo, loading)
	s.touchLocked(chatID)
	s.inflight[chatID] = struct{}{}
	s.mu.Unlock()

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(trace.Start(ctx, "chat.send")), s.cfg.SendTimeout)
	defer cancel()
	reply, sendErr := s.transport.SendMessage(sendCtx, chatID, content)

	result := SendResult{ChatID: chatID, UserMessage: cloneMessage(echo)}

	s.mu.Lock()
	delete(s.inflight, chatID)
	var rev uint64
	if i := s.indexLocked(chatID); i >= 0 {
		msgs := removeLoading(s.chats[i].Messages, loading.Provisional.TempID)
		if sendErr == nil {
			reply.ChatID = chatID
			msgs = append(msgs, reply)
		} else {
			markFailed(msgs, echo.ID)
		}
		s.chats[i].Messages = msgs
		rev = s.touchLocked(chatID)
	}
	s.mu.Unlock()

	if sendErr != nil {
		result.UserMessage.Provisional.Failed = true
		result.QuotaExceeded = errors.Is(sendErr, apierr.ErrQuotaExceeded)
		result.Relogin = errors.Is(sendErr, apierr.ErrAuth)
		result.Notice = apierr.UserMessage(sendErr)
		fields := logger.Fields{"chat_id": chatID, "request_id": trace.RequestID(sendCtx), "error": sendErr.Error()}
		if kind := apierr.KindOf(sendErr); kind != nil {
			fields["kind"] = kind.Error()
		}
		logger.WarnWithFields("chat session send failed", fields)
		return result, sendErr
	}

	result.Reply = &reply
	bgCtx := context.WithoutCancel(sendCtx)
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		ctx, cancel := context.WithTimeout(bgCtx, s.cfg.SendTimeout)
		defer cancel()
		s.afterSend(ctx, chatID, reply.ID, rev)
	}()
	return result, nil
}

// afterSend 는 전송 성공 뒤 사용자 정보(한도 카운터)를 갱신하고 대화를 서버 사본으로 맞춘다.
// 서버 사본에서 사용자 메시지가 실제 ID 를 얻는다. 두 작업의 실패는 로그만 남긴다.
// 응답 반영 뒤 대화가 다시 바뀌었으면(rev 불일치) 서버 사본은 버린다.
func (s *ChatSessionController) afterSend(ctx context.Context, chatID, replyID string, rev uint64) {
	if s.quota != nil {
		if _, err := s.quota.Refresh(ctx); err != nil {
			logger.WarnWithFields("chat session user refresh failed", logger.Fields{"error": err.Error()})
		}
	}

	fresh, err := s.transport.GetChat(ctx, chatID)
	if err != nil {
		logger.WarnWithFields("chat session resync failed", logger.Fields{"chat_id": chatID, "error": err.Error()})
		return
	}
	if !containsMessage(fresh.Messages, replyID) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if inflightLocked(s.inflight, chatID) || s.revs[chatID] != rev {
		logger.DebugWithFields("chat session resync skipped", logger.Fields{"chat_id": chatID})
		return
	}
	if i := s.indexLocked(chatID); i >= 0 {
		s.chats[i].Messages = mergeResync(s.chats[i].Messages, fresh.Messages)
		s.touchLocked(chatID)
	}
}

// mergeResync 는 서버 사본을 기준으로 하되, 실패한 전송의 사용자 메시지는
// 로컬에서 앞서던 저장 메시지 바로 뒤에 다시 끼워 넣는다. 나머지 임시 메시지는 서버 사본으로 대체된다.
func mergeResync(local, fresh []dto.Message) []dto.Message {
	var lead []dto.Message
	after := make(map[string][]dto.Message)
	anchors := []string{}
	anchor := ""
	for _, m := range local {
		if !m.IsProvisional() {
			anchor = m.ID
			continue
		}
		if m.Provisional.Kind != dto.ProvisionalUserEcho || !m.Provisional.Failed {
			continue
		}
		if anchor == "" {
			lead = append(lead, m)
			continue
		}
		if _, ok := after[anchor]; !ok {
			anchors = append(anchors, anchor)
		}
		after[anchor] = append(after[anchor], m)
	}

	out := make([]dto.Message, 0, len(fresh)+len(lead))
	out = append(out, lead...)
	for _, m := range fresh {
		out = append(out, m)
		if kept, ok := after[m.ID]; ok {
			out = append(out, kept...)
			delete(after, m.ID)
		}
	}
	// 기준 메시지가 서버 사본에 없으면 끝에 붙인다.
	for _, a := range anchors {
		out = append(out, after[a]...)
	}
	return out
}

// removeLoading 은 tempID 로 만든 응답 자리표시만 제거한다.
func removeLoading(msgs []dto.Message, tempID string) []dto.Message {
	out := make([]dto.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.IsLoadingFor(tempID) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// markFailed 는 id 인 사용자 메시지 사본을 실패로 표시한다.
func markFailed(msgs []dto.Message, id string) {
	for i := range msgs {
		if msgs[i].ID != id || msgs[i].Provisional == nil {
			continue
		}
		p := *msgs[i].Provisional
		p.Failed = true
		msgs[i].Provisional = &p
	}
}

func containsMessage(msgs []dto.Message, id string) bool {
	for _, m := range msgs {
		if m.ID == id {
			return true
		}
	}
	return false
}

func cloneMessage(m dto.Message) dto.Message {
	if m.Provisional != nil {
		p := *m.Provisional
		m.Provisional = &p
	}
	return m
}
