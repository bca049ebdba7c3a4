package tink

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvcrn/tink-gateway/internal/credentials"
	"github.com/dvcrn/tink-gateway/internal/provider"
	"github.com/dvcrn/tink-gateway/internal/result"
	"github.com/dvcrn/tink-gateway/internal/transport"
)

var testPaths = Paths{
	SearchTransactions: "search",
	ListAccounts:       "accounts/list",
	ListCategories:     "categories",
}

type fakeAuthenticator struct {
	codes     []string
	refreshes int
	signOuts  int
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, code string) result.Result[credentials.Status, error] {
	f.codes = append(f.codes, code)
	return result.Ok[credentials.Status, error](credentials.Status{HasAccessToken: true, HasRefreshToken: true})
}

func (f *fakeAuthenticator) Refresh(context.Context) result.Result[credentials.Status, error] {
	f.refreshes++
	return result.Ok[credentials.Status, error](credentials.Status{HasAccessToken: true})
}

func (f *fakeAuthenticator) SignOut() { f.signOuts++ }

// refuseRenew fails every renewal; the tests seed the store with a live token.
type refuseRenew struct{}

func (refuseRenew) Renew(context.Context, string) result.Result[string, error] {
	return result.Fail[string](provider.Unauthenticated(nil))
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) (*Client, *fakeAuthenticator) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := credentials.NewStore()
	store.SetCredentials("test-token", "r1", time.Hour)
	sender := transport.NewAuthTransport(transport.NewHTTPClient(5*time.Second), store, refuseRenew{}, nil)

	oauth := &fakeAuthenticator{}
	client, err := NewClient(Config{BaseURL: srv.URL + "/api/v1/", Paths: testPaths}, sender, oauth, nil, opts...)
	require.NoError(t, err)
	return client, oauth
}

func TestNewClientRejectsRelativeBaseURL(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "api/v1"}, nil, nil, nil)
	require.Error(t, err)
}

func TestQueryTransactions(t *testing.T) {
	now := time.Date(2024, 3, 15, 22, 30, 0, 0, time.UTC)

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/search", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var q searchQuery
		require.NoError(t, json.NewDecoder(r.Body).Decode(&q))
		assert.Equal(t, int64(1704067200000), q.StartDate)
		assert.Equal(t, time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC).UnixMilli(), q.EndDate)
		assert.Equal(t, "DATE", q.Sort)
		assert.Equal(t, "ASC", q.Order)

		w.Write([]byte(`{
			"count": 3,
			"results": [
				{"type": "TRANSACTION", "transaction": {
					"id": "t1", "accountId": "a1", "amount": -12.5, "categoryId": "c1",
					"date": 1704153600000, "description": "Coffee", "notes": "#morning"
				}},
				{"type": "ACCOUNT"},
				{"type": "TRANSACTION", "transaction": {
					"id": "t2", "accountId": "a1", "amount": 1000, "categoryId": "c2",
					"date": 1704240000000, "description": "Salary"
				}}
			]
		}`))
	}, WithClock(func() time.Time { return now }))

	res := client.QueryTransactions(context.Background(), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.True(t, res.IsSuccess(), "unexpected failure: %v", res.Failure())

	txs := res.Unwrap()
	require.Len(t, txs, 2)
	assert.Equal(t, "t1", txs[0].TransactionID)
	assert.Equal(t, "a1", txs[0].AccountID)
	assert.Equal(t, "Coffee", txs[0].Description)
	assert.Equal(t, "#morning", txs[0].Notes)
	assert.True(t, decimal.RequireFromString("-12.5").Equal(txs[0].Amount))
	assert.Equal(t, "c1", txs[0].CategoryID)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), txs[0].Date)
	assert.Empty(t, txs[0].LocalCategoryID)
	assert.Equal(t, "t2", txs[1].TransactionID)
}

func TestQueryTransactionsEndDateUsesUTCDay(t *testing.T) {
	// 01:00 on the 15th in UTC+3 is still the 14th in UTC.
	now := time.Date(2024, 3, 15, 1, 0, 0, 0, time.FixedZone("UTC+3", 3*60*60))

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var q searchQuery
		require.NoError(t, json.NewDecoder(r.Body).Decode(&q))
		assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC).UnixMilli(), q.EndDate)
		w.Write([]byte(`{"count":0,"results":[]}`))
	}, WithClock(func() time.Time { return now }))

	res := client.QueryTransactions(context.Background(), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.True(t, res.IsSuccess())
	assert.Empty(t, res.Unwrap())
}

func TestQueryTransactionsServerError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("server error"))
	})

	res := client.QueryTransactions(context.Background(), time.Now())
	require.False(t, res.IsSuccess())

	err := res.Failure()
	assert.ErrorIs(t, err, provider.ErrProviderRejected)

	var httpErr *provider.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	assert.Equal(t, "server error", httpErr.Message)
}

func TestQueryTransactionsMalformedPayload(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": "nope"}`))
	})

	res := client.QueryTransactions(context.Background(), time.Now())
	require.False(t, res.IsSuccess())
	assert.ErrorIs(t, res.Failure(), provider.ErrProviderRejected)
}

func TestListAccounts(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/accounts/list", r.URL.Path)
		w.Write([]byte(`{"accounts":[{
			"id": "a1", "accountNumber": "1234", "name": "Checking", "type": "CHECKING",
			"balance": 250.75, "currencyCode": "EUR", "closed": false
		}]}`))
	})

	res := client.ListAccounts(context.Background())
	require.True(t, res.IsSuccess())

	accounts := res.Unwrap()
	require.Len(t, accounts, 1)
	assert.Equal(t, "a1", accounts[0].AccountID)
	assert.Equal(t, "1234", accounts[0].AccountNumber)
	assert.Equal(t, "Checking", accounts[0].Name)
	assert.Equal(t, "CHECKING", accounts[0].Type)
	assert.True(t, decimal.RequireFromString("250.75").Equal(accounts[0].Balance))
	assert.Equal(t, "EUR", accounts[0].CurrencyCode)
	assert.False(t, accounts[0].Closed)
}

func TestListAccountsEmpty(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty list", body: `{"accounts":[]}`},
		{name: "null list", body: `{"accounts":null}`},
		{name: "missing field", body: `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})

			res := client.ListAccounts(context.Background())
			require.True(t, res.IsSuccess())
			assert.NotNil(t, res.Unwrap())
			assert.Empty(t, res.Unwrap())
		})
	}
}

func TestListCategoriesDropsTopLevelBuckets(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/categories", r.URL.Path)
		w.Write([]byte(`[
			{"id": "expenses", "code": "expenses", "parent": "", "primaryName": "Expenses", "type": "EXPENSES"},
			{"id": "c1", "code": "expenses:food.groceries", "parent": "expenses", "primaryName": "Food", "secondaryName": "Groceries", "type": "EXPENSES"},
			{"id": "income", "code": "income", "primaryName": "Income", "type": "INCOME"}
		]`))
	})

	res := client.ListCategories(context.Background())
	require.True(t, res.IsSuccess())

	categories := res.Unwrap()
	require.Len(t, categories, 1)
	assert.Equal(t, provider.Category{
		CategoryID:    "c1",
		Code:          "expenses:food.groceries",
		Name:          "Food",
		SecondaryName: "Groceries",
		GroupID:       "expenses",
		Type:          "EXPENSES",
	}, categories[0])
}

func TestUnauthorizedWithoutRenewalIsUnauthenticated(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("token expired"))
	})

	res := client.ListAccounts(context.Background())
	require.False(t, res.IsSuccess())
	assert.ErrorIs(t, res.Failure(), provider.ErrUnauthenticated)
}

func TestAuthOperationsDelegate(t *testing.T) {
	client, oauth := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected API call to %s", r.URL.Path)
	})

	require.True(t, client.Authenticate(context.Background(), "code-1").IsSuccess())
	require.True(t, client.RefreshAuth(context.Background()).IsSuccess())
	client.SignOut()

	assert.Equal(t, []string{"code-1"}, oauth.codes)
	assert.Equal(t, 1, oauth.refreshes)
	assert.Equal(t, 1, oauth.signOuts)
}
