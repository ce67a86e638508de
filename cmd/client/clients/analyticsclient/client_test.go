package analyticsclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankr/cmd/client/apierr"
	"bankr/cmd/client/dto"
	"bankr/cmd/client/httpclient"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(httpclient.NewBaseClient(srv.URL, httpclient.Config{}))
}

func TestListAnalysesQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/analytics/analysis", r.URL.Path)
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		assert.Equal(t, "0", r.URL.Query().Get("offset"))
		assert.Equal(t, "HIGH", r.URL.Query().Get("severity"))
		_, _ = w.Write([]byte(`[{"id":"a1","title":"t","content":"c","recommendation_severity":"HIGH"}]`))
	})

	out, err := c.ListAnalyses(context.Background(), Page{}, dto.SeverityHigh)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, dto.SeverityHigh, out[0].RecommendationSeverity)
}

func TestListStoriesAndTipsPaging(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, "10", r.URL.Query().Get("offset"))
		switch r.URL.Path {
		case "/analytics/stories":
			_, _ = w.Write([]byte(`[{"id":"s1","title":"Spending","story":"body","key_stat":"20% Decrease"}]`))
		case "/analytics/tips":
			_, _ = w.Write([]byte(`[{"id":"t1","title":"Cook","content":"at home","potential_savings":"$40/month"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	stories, err := c.ListStories(context.Background(), Page{Limit: 5, Offset: 10})
	require.NoError(t, err)
	require.Len(t, stories, 1)
	assert.Equal(t, "20% Decrease", stories[0].KeyStat)

	tips, err := c.ListTips(context.Background(), Page{Limit: 5, Offset: 10})
	require.NoError(t, err)
	require.Len(t, tips, 1)
	assert.Equal(t, "$40/month", tips[0].PotentialSavings)
}

func TestListTransactionsDecodesAmounts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/plaid/transactions", r.URL.Path)
		assert.Equal(t, "u1", r.URL.Query().Get("accountId"))
		assert.Equal(t, "2025-02-01", r.URL.Query().Get("start_date"))
		assert.Equal(t, "2025-03-01", r.URL.Query().Get("end_date"))
		_, _ = w.Write([]byte(`[
			{"plaid_account_id":"acc","amount":12.5,"date":"2025-02-03","personal_finance_category":"FOOD_AND_DRINK","pending":false},
			{"plaid_account_id":"acc","amount":"-3.10","date":"2025-02-04","personal_finance_category":null,"pending":true}
		]`))
	})

	out, err := c.ListTransactions(context.Background(), TransactionQuery{AccountID: "u1", StartDate: "2025-02-01", EndDate: "2025-03-01"})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.True(t, decimal.RequireFromString("12.5").Equal(out[0].Amount))
	assert.True(t, decimal.RequireFromString("-3.10").Equal(out[1].Amount))
	assert.Equal(t, "", out[1].PersonalFinanceCategory)
	assert.True(t, out[1].Pending)
}

func TestListTipsServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.ListTips(context.Background(), Page{})
	assert.True(t, errors.Is(err, apierr.ErrServer))
}
