package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"bankr/cmd/client/apierr"
	"bankr/cmd/client/clients/analyticsclient"
	"bankr/cmd/client/dto"
	"bankr/cmd/internal/logger"
)

// AnalyticsAPI 는 analyticsclient.Client 가 구현한다.
type AnalyticsAPI interface {
	ListAnalyses(ctx context.Context, page analyticsclient.Page, severity dto.Severity) ([]dto.Analysis, error)
	ListStories(ctx context.Context, page analyticsclient.Page) ([]dto.Story, error)
	ListTips(ctx context.Context, page analyticsclient.Page) ([]dto.Tip, error)
	ListTransactions(ctx context.Context, in analyticsclient.TransactionQuery) ([]dto.Transaction, error)
}

// SnapshotStore 는 마지막 성공 응답을 보관한다. cache.Store 가 구현한다.
type SnapshotStore interface {
	Put(ctx context.Context, key string, value any) error
	Get(ctx context.Context, key string, out any) (time.Time, bool, error)
}

// UserSource 는 현재 사용자를 알려준다. 거래 조회의 계좌 ID 로 사용자 ID 를 쓴다.
type UserSource interface {
	CurrentUser() (dto.User, bool)
}

type AnalyticsConfig struct {
	MonthlyBudget float64
	StoriesLimit  int
	TipsLimit     int
}

// Listing 은 목록 조회 결과다. Stale 이면 네트워크 실패로 캐시된 이전 데이터를 돌려준 것이다.
type Listing[T any] struct {
	Items     []T        `json:"items"`
	Stale     bool       `json:"stale"`
	FetchedAt *time.Time `json:"fetchedAt,omitempty"`
}

type AnalyticsService struct {
	api   AnalyticsAPI
	store SnapshotStore
	users UserSource
	cfg   AnalyticsConfig
	now   func() time.Time
}

// NewAnalyticsService 는 store 가 nil 이면 오프라인 대체 없이 동작한다.
func NewAnalyticsService(api AnalyticsAPI, store SnapshotStore, users UserSource, cfg AnalyticsConfig) *AnalyticsService {
	if cfg.MonthlyBudget <= 0 {
		cfg.MonthlyBudget = 2500
	}
	return &AnalyticsService{api: api, store: store, users: users, cfg: cfg, now: time.Now}
}

// withSnapshot 은 fetch 에 성공하면 결과를 저장하고, 네트워크 실패면 저장된 결과로 대체한다.
func withSnapshot[T any](ctx context.Context, store SnapshotStore, key string, fetch func() ([]T, error)) (Listing[T], error) {
	items, err := fetch()
	if err == nil {
		if store != nil {
			if putErr := store.Put(ctx, key, items); putErr != nil {
				logger.WarnWithFields("analytics snapshot save failed", logger.Fields{"key": key, "error": putErr.Error()})
			}
		}
		return Listing[T]{Items: items}, nil
	}
	if store == nil || !errors.Is(err, apierr.ErrNetwork) {
		return Listing[T]{}, err
	}

	var cached []T
	fetchedAt, ok, getErr := store.Get(ctx, key, &cached)
	if getErr != nil {
		logger.WarnWithFields("analytics snapshot read failed", logger.Fields{"key": key, "error": getErr.Error()})
		return Listing[T]{}, err
	}
	if !ok {
		return Listing[T]{}, err
	}
	logger.InfoWithFields("analytics serving stale snapshot", logger.Fields{"key": key, "fetched_at": fetchedAt.Format(time.RFC3339)})
	return Listing[T]{Items: cached, Stale: true, FetchedAt: &fetchedAt}, nil
}

func pageKey(kind string, page analyticsclient.Page, extra ...string) string {
	parts := append([]string{kind, strconv.Itoa(page.Limit), strconv.Itoa(page.Offset)}, extra...)
	return strings.Join(parts, ":")
}

func (s *AnalyticsService) GetAnalyses(ctx context.Context, page analyticsclient.Page, severity dto.Severity) (Listing[dto.Analysis], error) {
	switch severity {
	case "", dto.SeverityLow, dto.SeverityMedium, dto.SeverityHigh:
	default:
		return Listing[dto.Analysis]{}, apierr.Validation(fmt.Sprintf("unknown severity %q", severity))
	}
	return withSnapshot(ctx, s.store, pageKey("analyses", page, string(severity)), func() ([]dto.Analysis, error) {
		return s.api.ListAnalyses(ctx, page, severity)
	})
}

func (s *AnalyticsService) GetStories(ctx context.Context, page analyticsclient.Page) (Listing[dto.TransformedStory], error) {
	if page.Limit <= 0 {
		page.Limit = s.cfg.StoriesLimit
	}
	raw, err := withSnapshot(ctx, s.store, pageKey("stories", page), func() ([]dto.Story, error) {
		return s.api.ListStories(ctx, page)
	})
	if err != nil {
		return Listing[dto.TransformedStory]{}, err
	}
	return Listing[dto.TransformedStory]{
		Items:     TransformStories(raw.Items, s.now()),
		Stale:     raw.Stale,
		FetchedAt: raw.FetchedAt,
	}, nil
}

func (s *AnalyticsService) GetTips(ctx context.Context, page analyticsclient.Page) (Listing[dto.TransformedTip], error) {
	if page.Limit <= 0 {
		page.Limit = s.cfg.TipsLimit
	}
	raw, err := withSnapshot(ctx, s.store, pageKey("tips", page), func() ([]dto.Tip, error) {
		return s.api.ListTips(ctx, page)
	})
	if err != nil {
		return Listing[dto.TransformedTip]{}, err
	}
	return Listing[dto.TransformedTip]{
		Items:     TransformTips(raw.Items),
		Stale:     raw.Stale,
		FetchedAt: raw.FetchedAt,
	}, nil
}

func (s *AnalyticsService) accountID() string {
	if s.users == nil {
		return ""
	}
	if u, ok := s.users.CurrentUser(); ok {
		return u.ID
	}
	return ""
}

func (s *AnalyticsService) GetTransactions(ctx context.Context, startDate, endDate string) ([]dto.Transaction, error) {
	return s.api.ListTransactions(ctx, analyticsclient.TransactionQuery{
		AccountID: s.accountID(),
		StartDate: startDate,
		EndDate:   endDate,
	})
}

// TransactionsForPeriod 는 week, 2week, month 기간의 거래를 조회한다.
// back 이 1 이면 바로 이전 구간이다.
func (s *AnalyticsService) TransactionsForPeriod(ctx context.Context, period string, back int) ([]dto.Transaction, error) {
	start, end, err := PeriodRange(period, s.now(), back)
	if err != nil {
		return nil, apierr.Validation(err.Error())
	}
	return s.GetTransactions(ctx, start, end)
}

// Overview 는 현재 구간과 이전 구간 거래를 동시에 조회해 개요 화면 데이터를 만든다.
func (s *AnalyticsService) Overview(ctx context.Context, period string) (dto.Overview, error) {
	if period == "" {
		period = PeriodWeek
	}
	if _, _, err := PeriodRange(period, s.now(), 0); err != nil {
		return dto.Overview{}, apierr.Validation(err.Error())
	}

	var current, previous []dto.Transaction
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		txs, err := s.TransactionsForPeriod(gctx, period, 0)
		current = txs
		return err
	})
	g.Go(func() error {
		txs, err := s.TransactionsForPeriod(gctx, period, 1)
		previous = txs
		return err
	})
	if err := g.Wait(); err != nil {
		return dto.Overview{}, err
	}

	now := s.now()
	return dto.Overview{
		Period:     period,
		Metrics:    CalculateOverviewMetrics(current, previous, decimal.NewFromFloat(s.cfg.MonthlyBudget)),
		Trend:      GenerateSpendingTrend(current, TrendDays(period, now), now),
		Categories: CategorizeTransactions(current),
	}, nil
}

// DailyRecap 은 오늘과 어제 거래를 동시에 조회해 오늘의 지출 요약을 만든다.
func (s *AnalyticsService) DailyRecap(ctx context.Context) (dto.DailyRecap, error) {
	now := s.now()
	today := now.Format(time.DateOnly)
	yesterday := now.AddDate(0, 0, -1).Format(time.DateOnly)

	var todayTxs, yesterdayTxs []dto.Transaction
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		txs, err := s.GetTransactions(gctx, today, today)
		todayTxs = onDate(txs, today)
		return err
	})
	g.Go(func() error {
		txs, err := s.GetTransactions(gctx, yesterday, yesterday)
		yesterdayTxs = onDate(txs, yesterday)
		return err
	})
	if err := g.Wait(); err != nil {
		return dto.DailyRecap{}, err
	}
	return CalculateDailyRecap(todayTxs, yesterdayTxs, now), nil
}

func onDate(txs []dto.Transaction, date string) []dto.Transaction {
	out := make([]dto.Transaction, 0, len(txs))
	for _, t := range txs {
		if d, _, _ := strings.Cut(t.Date, "T"); d == date {
			out = append(out, t)
		}
	}
	return out
}
