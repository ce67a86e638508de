package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankr/cmd/client/apierr"
	"bankr/cmd/client/cache"
	"bankr/cmd/client/clients/analyticsclient"
	"bankr/cmd/client/dto"
)

type fakeAnalyticsAPI struct {
	mu       sync.Mutex
	err      error
	stories  []dto.Story
	tips     []dto.Tip
	analyses []dto.Analysis
	// txByStart 는 start_date 별 거래 응답이다.
	txByStart map[string][]dto.Transaction
	queries   []analyticsclient.TransactionQuery
	pages     []analyticsclient.Page
}

func (f *fakeAnalyticsAPI) ListAnalyses(ctx context.Context, page analyticsclient.Page, severity dto.Severity) ([]dto.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []dto.Analysis
	for _, a := range f.analyses {
		if severity == "" || a.RecommendationSeverity == severity {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAnalyticsAPI) ListStories(ctx context.Context, page analyticsclient.Page) ([]dto.Story, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages = append(f.pages, page)
	return f.stories, f.err
}

func (f *fakeAnalyticsAPI) ListTips(ctx context.Context, page analyticsclient.Page) ([]dto.Tip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages = append(f.pages, page)
	return f.tips, f.err
}

func (f *fakeAnalyticsAPI) ListTransactions(ctx context.Context, in analyticsclient.TransactionQuery) ([]dto.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, in)
	if f.err != nil {
		return nil, f.err
	}
	return f.txByStart[in.StartDate], nil
}

type staticUser struct{ user dto.User }

func (s staticUser) CurrentUser() (dto.User, bool) { return s.user, s.user.ID != "" }

var analyticsNow = time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC)

func newTestAnalytics(t *testing.T, api *fakeAnalyticsAPI) *AnalyticsService {
	t.Helper()
	store, err := cache.New(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	s := NewAnalyticsService(api, store, staticUser{dto.User{ID: "u1"}}, AnalyticsConfig{MonthlyBudget: 1000, StoriesLimit: 50, TipsLimit: 20})
	s.now = func() time.Time { return analyticsNow }
	return s
}

func TestGetStoriesTransformsAndUsesConfiguredLimit(t *testing.T) {
	api := &fakeAnalyticsAPI{stories: []dto.Story{
		{ID: "s1", Title: "Dining", Story: "You ate out", KeyStat: "25% Decrease in dining spend", CreatedAt: analyticsNow.AddDate(0, 0, -3)},
	}}
	s := newTestAnalytics(t, api)

	got, err := s.GetStories(context.Background(), analyticsclient.Page{})
	require.NoError(t, err)

	require.Len(t, got.Items, 1)
	assert.False(t, got.Stale)
	assert.Equal(t, "this week", got.Items[0].Timeline)
	assert.Equal(t, "-25%", got.Items[0].InsightValue)
	assert.Equal(t, 50, api.pages[0].Limit)
}

func TestGetTipsFallsBackToSnapshotOnNetworkError(t *testing.T) {
	api := &fakeAnalyticsAPI{tips: []dto.Tip{{ID: "t1", Title: "Cook", Content: "at home", PotentialSavings: "$40 per month"}}}
	s := newTestAnalytics(t, api)

	fresh, err := s.GetTips(context.Background(), analyticsclient.Page{})
	require.NoError(t, err)
	require.Len(t, fresh.Items, 1)
	assert.False(t, fresh.Stale)

	api.err = apierr.Network(errors.New("offline"))
	stale, err := s.GetTips(context.Background(), analyticsclient.Page{})
	require.NoError(t, err)
	assert.True(t, stale.Stale)
	require.NotNil(t, stale.FetchedAt)
	require.Len(t, stale.Items, 1)
	assert.Equal(t, "$40/month", stale.Items[0].Highlight)
}

func TestGetTipsServerErrorDoesNotUseSnapshot(t *testing.T) {
	api := &fakeAnalyticsAPI{tips: []dto.Tip{{ID: "t1"}}}
	s := newTestAnalytics(t, api)
	_, err := s.GetTips(context.Background(), analyticsclient.Page{})
	require.NoError(t, err)

	api.err = apierr.FromStatus(500, "boom")
	_, err = s.GetTips(context.Background(), analyticsclient.Page{})
	assert.True(t, errors.Is(err, apierr.ErrServer))
}

func TestGetStoriesNetworkErrorWithoutSnapshot(t *testing.T) {
	api := &fakeAnalyticsAPI{err: apierr.Network(errors.New("offline"))}
	s := newTestAnalytics(t, api)

	_, err := s.GetStories(context.Background(), analyticsclient.Page{})
	assert.True(t, errors.Is(err, apierr.ErrNetwork))
}

func TestGetAnalysesSeverity(t *testing.T) {
	api := &fakeAnalyticsAPI{analyses: []dto.Analysis{
		{ID: "a1", RecommendationSeverity: dto.SeverityHigh},
		{ID: "a2", RecommendationSeverity: dto.SeverityLow},
	}}
	s := newTestAnalytics(t, api)

	got, err := s.GetAnalyses(context.Background(), analyticsclient.Page{}, dto.SeverityHigh)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "a1", got.Items[0].ID)

	_, err = s.GetAnalyses(context.Background(), analyticsclient.Page{}, "URGENT")
	assert.True(t, errors.Is(err, apierr.ErrValidation))
}

func TestOverviewFetchesBothPeriods(t *testing.T) {
	api := &fakeAnalyticsAPI{txByStart: map[string][]dto.Transaction{
		"2025-03-24": {tx("2025-03-30", "300", "FOOD_AND_DRINK"), tx("2025-03-31", "100", "TRANSPORTATION")},
		"2025-03-17": {tx("2025-03-20", "200", "FOOD_AND_DRINK")},
	}}
	s := newTestAnalytics(t, api)

	got, err := s.Overview(context.Background(), PeriodWeek)
	require.NoError(t, err)

	assert.Equal(t, "week", got.Period)
	assert.True(t, decimal.NewFromInt(400).Equal(got.Metrics.TotalSpent))
	assert.True(t, decimal.NewFromInt(600).Equal(got.Metrics.BudgetRemaining))
	assert.Equal(t, int64(100), got.Metrics.PercentChanges.TotalSpent)
	require.Len(t, got.Trend.Labels, 7)
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 300, 100}, got.Trend.Datasets[0].Data)
	require.Len(t, got.Categories, 2)
	assert.Equal(t, "Dining & Coffee", got.Categories[0].Title)

	require.Len(t, api.queries, 2)
	for _, q := range api.queries {
		assert.Equal(t, "u1", q.AccountID)
	}
}

func TestOverviewRejectsUnknownPeriod(t *testing.T) {
	s := newTestAnalytics(t, &fakeAnalyticsAPI{})
	_, err := s.Overview(context.Background(), "year")
	assert.True(t, errors.Is(err, apierr.ErrValidation))
}

func TestOverviewPropagatesErrors(t *testing.T) {
	s := newTestAnalytics(t, &fakeAnalyticsAPI{err: apierr.FromStatus(401, "expired")})
	_, err := s.Overview(context.Background(), PeriodMonth)
	assert.True(t, errors.Is(err, apierr.ErrAuth))
}

func TestDailyRecap(t *testing.T) {
	pending := tx("2025-03-31", "999", "ENTERTAINMENT")
	pending.Pending = true
	api := &fakeAnalyticsAPI{txByStart: map[string][]dto.Transaction{
		"2025-03-31": {tx("2025-03-31", "30", "FOOD_AND_DRINK"), tx("2025-03-31", "20", "TRANSPORTATION"), pending},
		"2025-03-30": {tx("2025-03-30", "100", "FOOD_AND_DRINK")},
	}}
	s := newTestAnalytics(t, api)

	got, err := s.DailyRecap(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "March 31, 2025", got.Date)
	assert.True(t, decimal.NewFromInt(50).Equal(got.TotalSpent))
	assert.Equal(t, 2, got.TransactionCount)
	assert.Equal(t, "Dining & Coffee", got.TopCategory)
	assert.Equal(t, int64(50), got.ComparisonPercent)
	assert.False(t, got.IsHigher)
}
