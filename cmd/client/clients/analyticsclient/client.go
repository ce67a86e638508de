package analyticsclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"bankr/cmd/client/dto"
	"bankr/cmd/client/httpclient"
)

// 서버 기본값과 같게 맞춘 페이지 크기.
const defaultLimit = 20

type Client struct {
	base *httpclient.BaseClient
}

func New(base *httpclient.BaseClient) *Client {
	return &Client{base: base}
}

// Page 는 limit/offset 페이지 요청이다. Limit 이 0 이하이면 20.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) values() url.Values {
	limit := p.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	return url.Values{
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(offset)},
	}
}

// TransactionQuery 는 GET /plaid/transactions 조회 조건이다. 날짜는 YYYY-MM-DD.
type TransactionQuery struct {
	AccountID string
	StartDate string
	EndDate   string
}

// ListAnalyses 는 AI 분석 결과를 조회한다. severity 가 비어 있으면 전체.
func (c *Client) ListAnalyses(ctx context.Context, page Page, severity dto.Severity) ([]dto.Analysis, error) {
	q := page.values()
	if severity != "" {
		q.Set("severity", string(severity))
	}
	req, err := c.base.NewRequest(ctx, http.MethodGet, "/analytics/analysis", q, nil)
	if err != nil {
		return nil, err
	}

	var out []dto.Analysis
	if err := c.base.DoJSON(req, &out); err != nil {
		return nil, fmt.Errorf("analytics-api ListAnalyses: %w", err)
	}
	return out, nil
}

func (c *Client) ListStories(ctx context.Context, page Page) ([]dto.Story, error) {
	req, err := c.base.NewRequest(ctx, http.MethodGet, "/analytics/stories", page.values(), nil)
	if err != nil {
		return nil, err
	}

	var out []dto.Story
	if err := c.base.DoJSON(req, &out); err != nil {
		return nil, fmt.Errorf("analytics-api ListStories: %w", err)
	}
	return out, nil
}

func (c *Client) ListTips(ctx context.Context, page Page) ([]dto.Tip, error) {
	req, err := c.base.NewRequest(ctx, http.MethodGet, "/analytics/tips", page.values(), nil)
	if err != nil {
		return nil, err
	}

	var out []dto.Tip
	if err := c.base.DoJSON(req, &out); err != nil {
		return nil, fmt.Errorf("analytics-api ListTips: %w", err)
	}
	return out, nil
}

// ListTransactions 는 연동 계좌의 거래 내역을 조회한다. 빈 조건은 쿼리에서 뺀다.
func (c *Client) ListTransactions(ctx context.Context, in TransactionQuery) ([]dto.Transaction, error) {
	q := url.Values{}
	if in.AccountID != "" {
		q.Set("accountId", in.AccountID)
	}
	if in.StartDate != "" {
		q.Set("start_date", in.StartDate)
	}
	if in.EndDate != "" {
		q.Set("end_date", in.EndDate)
	}
	req, err := c.base.NewRequest(ctx, http.MethodGet, "/plaid/transactions", q, nil)
	if err != nil {
		return nil, err
	}

	var out []dto.Transaction
	if err := c.base.DoJSON(req, &out); err != nil {
		return nil, fmt.Errorf("analytics-api ListTransactions: %w", err)
	}
	return out, nil
}
