package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

type Analysis struct {
	ID                     string    `json:"id"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
	UserID                 string    `json:"user_id"`
	Title                  string    `json:"title"`
	Content                string    `json:"content"`
	RecommendationSeverity Severity  `json:"recommendation_severity"`
}

type Story struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Story     string    `json:"story"`
	KeyStat   string    `json:"key_stat"`
}

type Tip struct {
	ID               string    `json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	UserID           string    `json:"user_id"`
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	PotentialSavings string    `json:"potential_savings"`
}

// Transaction 은 계좌 연동 provider 의 거래 한 건이다.
// Amount 는 JSON 숫자/문자열 모두 받는다. 양수가 지출, 음수가 환불/입금이다.
type Transaction struct {
	AccountID               string          `json:"plaid_account_id"`
	Amount                  decimal.Decimal `json:"amount"`
	Date                    string          `json:"date"`
	Name                    string          `json:"name"`
	MerchantName            string          `json:"merchant_name"`
	PaymentChannel          string          `json:"payment_channel"`
	PersonalFinanceCategory string          `json:"personal_finance_category"`
	Currency                string          `json:"currency"`
	Pending                 bool            `json:"pending"`
}

// -------------------- View models --------------------

type TransformedTip struct {
	ID              string `json:"id"`
	Header          string `json:"header"`
	Text            string `json:"text"`
	Tag             string `json:"tag"`
	HighlightLabel  string `json:"highlightLabel"`
	Highlight       string `json:"highLight"`
	FullSavingsText string `json:"fullSavingsText"`
}

type TransformedStory struct {
	Timeline     string `json:"timeline"`
	Header       string `json:"header"`
	Text         string `json:"text"`
	InsightValue string `json:"insightValue"`
}

type PercentChanges struct {
	TotalSpent      int64 `json:"totalSpent"`
	BudgetRemaining int64 `json:"budgetRemaining"`
	SavedThisMonth  int64 `json:"savedThisMonth"`
}

type OverviewMetrics struct {
	TotalSpent       decimal.Decimal `json:"totalSpent"`
	BudgetRemaining  decimal.Decimal `json:"budgetRemaining"`
	TransactionCount int             `json:"transactionCount"`
	SavedThisMonth   decimal.Decimal `json:"savedThisMonth"`
	PercentChanges   PercentChanges  `json:"percentChanges"`
}

type TrendDataset struct {
	Data        []float64 `json:"data"`
	StrokeWidth int       `json:"strokeWidth"`
}

type SpendingTrend struct {
	Labels   []string       `json:"labels"`
	Datasets []TrendDataset `json:"datasets"`
}

type SpendingCategory struct {
	Title               string `json:"title"`
	Amount              string `json:"amount"`
	PercentValue        int64  `json:"percentValue"`
	Type                string `json:"type"`
	IconColor           string `json:"iconColor"`
	IconBackgroundColor string `json:"iconBackgroundColor"`
}

type DailyRecap struct {
	// Date 는 "October 15, 2025" 형식의 표시용 날짜다.
	Date              string          `json:"date"`
	TotalSpent        decimal.Decimal `json:"totalSpent"`
	TransactionCount  int             `json:"transactionCount"`
	TopCategory       string          `json:"topCategory"`
	ComparisonPercent int64           `json:"comparisonPercent"`
	IsHigher          bool            `json:"isHigher"`
}

// Overview 는 재무 개요 화면 한 번에 필요한 데이터 묶음이다.
type Overview struct {
	Period     string             `json:"period"`
	Metrics    OverviewMetrics    `json:"metrics"`
	Trend      SpendingTrend      `json:"trend"`
	Categories []SpendingCategory `json:"categories"`
}
