package dto

// ErrorResponseDTO 는 로컬 API 의 공통 에러 응답이다.
// Error 는 분류 코드, Message 는 UI 에 그대로 보여줄 문구다.
type ErrorResponseDTO struct {
	Error   string `json:"error" example:"quota_exceeded"`
	Message string `json:"message,omitempty" example:"You've reached your free message limit. Please subscribe to continue."`
	Relogin bool   `json:"relogin,omitempty"`
}

type MessageResponseDTO struct {
	Message string `json:"message" example:"chat deleted successfully"`
}
