package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankr/cmd/client/apierr"
	"bankr/cmd/client/dto"
)

type fakeAccountAPI struct {
	user     dto.User
	meErr    error
	calls    []string
	fetchErr []error
}

func (f *fakeAccountAPI) Me(ctx context.Context) (dto.User, error) {
	f.calls = append(f.calls, "me")
	return f.user, f.meErr
}

func (f *fakeAccountAPI) DisconnectBank(ctx context.Context) error {
	f.calls = append(f.calls, "disconnect")
	f.user.PlaidIntegration = nil
	return nil
}

func (f *fakeAccountAPI) CancelSubscription(ctx context.Context) error {
	f.calls = append(f.calls, "cancel")
	f.user.HasPaidAccess = false
	return nil
}

func (f *fakeAccountAPI) CreateLinkToken(ctx context.Context, userID string) (string, error) {
	f.calls = append(f.calls, "link-token:"+userID)
	return "link-1", nil
}

func (f *fakeAccountAPI) ExchangePublicToken(ctx context.Context, publicToken, userID, institutionID string) error {
	f.calls = append(f.calls, "exchange:"+publicToken+":"+institutionID)
	return nil
}

// FetchBankData 는 fetchErr 를 앞에서부터 하나씩 돌려준다.
func (f *fakeAccountAPI) FetchBankData(ctx context.Context) error {
	f.calls = append(f.calls, "fetch")
	if len(f.fetchErr) == 0 {
		f.user.PlaidIntegration = &dto.BankIntegration{ID: "p1"}
		return nil
	}
	err := f.fetchErr[0]
	f.fetchErr = f.fetchErr[1:]
	if err == nil {
		f.user.PlaidIntegration = &dto.BankIntegration{ID: "p1"}
	}
	return err
}

func TestAccountServiceRefresh(t *testing.T) {
	api := &fakeAccountAPI{user: dto.User{ID: "u1", MessageCount: 1}}
	s := NewAccountService(api)

	_, known := s.CurrentUser()
	assert.False(t, known)

	u, err := s.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	cur, known := s.CurrentUser()
	assert.True(t, known)
	assert.Equal(t, 1, cur.MessageCount)

	api.meErr = apierr.FromStatus(401, "expired")
	_, err = s.Refresh(context.Background())
	assert.True(t, errors.Is(err, apierr.ErrAuth))
	cur, _ = s.CurrentUser()
	assert.Equal(t, "u1", cur.ID, "failed refresh keeps the previous user")

	s.Forget()
	_, known = s.CurrentUser()
	assert.False(t, known)
}

func TestAccountServiceDisconnectAndCancelRefresh(t *testing.T) {
	api := &fakeAccountAPI{user: dto.User{ID: "u1", HasPaidAccess: true, PlaidIntegration: &dto.BankIntegration{ID: "p1"}}}
	s := NewAccountService(api)

	u, err := s.DisconnectBank(context.Background())
	require.NoError(t, err)
	assert.False(t, u.BankConnected())

	u, err = s.CancelSubscription(context.Background())
	require.NoError(t, err)
	assert.False(t, u.HasPaidAccess)

	assert.Equal(t, []string{"disconnect", "me", "cancel", "me"}, api.calls)
}

func newTestLink(api *fakeAccountAPI) (*LinkService, *AccountService) {
	accounts := NewAccountService(api)
	_, _ = accounts.Refresh(context.Background())
	api.calls = nil
	link := NewLinkService(api, accounts)
	link.retryDelay = time.Millisecond
	return link, accounts
}

func TestHandleLinkSuccess(t *testing.T) {
	api := &fakeAccountAPI{user: dto.User{ID: "u1"}}
	link, accounts := newTestLink(api)

	u, err := link.HandleLinkSuccess(context.Background(), "public-1", "ins_1")
	require.NoError(t, err)
	assert.True(t, u.BankConnected())
	assert.Equal(t, []string{"exchange:public-1:ins_1", "fetch", "me"}, api.calls)

	cur, _ := accounts.CurrentUser()
	assert.True(t, cur.BankConnected())
}

func TestHandleLinkSuccessRetriesFetchOnce(t *testing.T) {
	api := &fakeAccountAPI{user: dto.User{ID: "u1"}, fetchErr: []error{apierr.FromStatus(502, "not ready"), nil}}
	link, _ := newTestLink(api)

	_, err := link.HandleLinkSuccess(context.Background(), "public-1", "ins_1")
	require.NoError(t, err)
	assert.Equal(t, []string{"exchange:public-1:ins_1", "fetch", "fetch", "me"}, api.calls)
}

func TestHandleLinkSuccessRetryFails(t *testing.T) {
	api := &fakeAccountAPI{user: dto.User{ID: "u1"}, fetchErr: []error{apierr.FromStatus(502, "a"), apierr.FromStatus(502, "b")}}
	link, _ := newTestLink(api)

	_, err := link.HandleLinkSuccess(context.Background(), "public-1", "")
	assert.True(t, errors.Is(err, apierr.ErrServer))
	assert.Equal(t, []string{"exchange:public-1:", "fetch", "fetch"}, api.calls)
}

func TestLinkRequiresKnownUser(t *testing.T) {
	api := &fakeAccountAPI{}
	link := NewLinkService(api, NewAccountService(api))

	_, err := link.CreateLinkToken(context.Background())
	assert.True(t, errors.Is(err, apierr.ErrAuth))

	_, err = link.HandleLinkSuccess(context.Background(), "public-1", "ins")
	assert.True(t, errors.Is(err, apierr.ErrAuth))

	_, err = link.HandleLinkSuccess(context.Background(), "", "ins")
	assert.True(t, errors.Is(err, apierr.ErrValidation))
	assert.Empty(t, api.calls)
}

func TestCreateLinkToken(t *testing.T) {
	api := &fakeAccountAPI{user: dto.User{ID: "u1"}}
	link, _ := newTestLink(api)

	token, err := link.CreateLinkToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "link-1", token)
	assert.Equal(t, []string{"link-token:u1"}, api.calls)
}
