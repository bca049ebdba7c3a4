package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvcrn/tink-gateway/internal/provider"
	"github.com/dvcrn/tink-gateway/internal/result"
)

type staticTokens struct {
	token string
}

func (s *staticTokens) AccessToken() (string, bool) {
	return s.token, s.token != ""
}

type fakeRenewer struct {
	mu     sync.Mutex
	stales []string
	token  string
	err    error
}

func (f *fakeRenewer) Renew(_ context.Context, stale string) result.Result[string, error] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stales = append(f.stales, stale)
	if f.err != nil {
		return result.Fail[string](f.err)
	}
	return result.Ok[string, error](f.token)
}

type sentRequest struct {
	auth string
	body string
}

// scriptedClient answers requests with the queued responses in order.
type scriptedClient struct {
	mu        sync.Mutex
	responses []*http.Response
	err       error
	sent      []sentRequest
}

func (c *scriptedClient) Do(req *http.Request) (*http.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var body string
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		body = string(b)
	}
	c.sent = append(c.sent, sentRequest{auth: req.Header.Get("Authorization"), body: body})

	if c.err != nil {
		return nil, c.err
	}
	resp := c.responses[0]
	c.responses = c.responses[1:]
	return resp, nil
}

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func newRequest(t *testing.T) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, "https://api.example.test/api/v1/search", strings.NewReader(`{"sort":"DATE"}`))
	require.NoError(t, err)
	return req
}

func TestSendRetriesOnceAfter401(t *testing.T) {
	client := &scriptedClient{responses: []*http.Response{
		response(http.StatusUnauthorized, "token expired"),
		response(http.StatusOK, `{"results":[]}`),
	}}
	renewer := &fakeRenewer{token: "new-token"}
	tr := NewAuthTransport(client, &staticTokens{token: "old-token"}, renewer, nil)

	res := tr.Send(context.Background(), newRequest(t))

	require.True(t, res.IsSuccess())
	resp := res.Unwrap()
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, []string{"old-token"}, renewer.stales, "exactly one refresh for the rejected token")
	require.Len(t, client.sent, 2, "exactly one resend")
	assert.Equal(t, "Bearer old-token", client.sent[0].auth)
	assert.Equal(t, "Bearer new-token", client.sent[1].auth)
	assert.Equal(t, `{"sort":"DATE"}`, client.sent[0].body)
	assert.Equal(t, client.sent[0].body, client.sent[1].body, "resend carries the same body")
}

func TestSendRefreshesWhenNoToken(t *testing.T) {
	client := &scriptedClient{responses: []*http.Response{response(http.StatusOK, "[]")}}
	renewer := &fakeRenewer{token: "fresh"}
	tr := NewAuthTransport(client, &staticTokens{}, renewer, nil)

	res := tr.Send(context.Background(), newRequest(t))

	require.True(t, res.IsSuccess())
	assert.Equal(t, []string{""}, renewer.stales)
	require.Len(t, client.sent, 1)
	assert.Equal(t, "Bearer fresh", client.sent[0].auth)
}

func TestSendDoesNotSendWithoutToken(t *testing.T) {
	client := &scriptedClient{}
	renewer := &fakeRenewer{err: provider.Unauthenticated(errors.New("no refresh token stored"))}
	tr := NewAuthTransport(client, &staticTokens{}, renewer, nil)

	res := tr.Send(context.Background(), newRequest(t))

	require.False(t, res.IsSuccess())
	assert.ErrorIs(t, res.Failure(), provider.ErrUnauthenticated)
	assert.Empty(t, client.sent, "request must not be sent without a token")
}

func TestSendMapsFailedRefreshAfter401ToUnauthenticated(t *testing.T) {
	client := &scriptedClient{responses: []*http.Response{response(http.StatusUnauthorized, "token expired")}}
	renewer := &fakeRenewer{err: provider.Unauthenticated(errors.New("invalid_grant"))}
	tr := NewAuthTransport(client, &staticTokens{token: "old-token"}, renewer, nil)

	res := tr.Send(context.Background(), newRequest(t))

	require.False(t, res.IsSuccess())
	err := res.Failure()
	assert.ErrorIs(t, err, provider.ErrUnauthenticated)

	var httpErr *provider.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	assert.Equal(t, "token expired", httpErr.Message)
	assert.Len(t, client.sent, 1, "no resend when refresh fails")
}

func TestSendGivesUpAfterSecond401(t *testing.T) {
	client := &scriptedClient{responses: []*http.Response{
		response(http.StatusUnauthorized, "expired"),
		response(http.StatusUnauthorized, "still expired"),
	}}
	renewer := &fakeRenewer{token: "new-token"}
	tr := NewAuthTransport(client, &staticTokens{token: "old-token"}, renewer, nil)

	res := tr.Send(context.Background(), newRequest(t))

	require.True(t, res.IsSuccess(), "the retry's response is returned as-is")
	resp := res.Unwrap()
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Len(t, client.sent, 2)
	assert.Len(t, renewer.stales, 1)
}

func TestSendReturnsOtherFailuresUnmodified(t *testing.T) {
	client := &scriptedClient{responses: []*http.Response{response(http.StatusInternalServerError, "server error")}}
	renewer := &fakeRenewer{token: "unused"}
	tr := NewAuthTransport(client, &staticTokens{token: "token"}, renewer, nil)

	res := tr.Send(context.Background(), newRequest(t))

	require.True(t, res.IsSuccess())
	resp := res.Unwrap()
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "server error", string(body))
	assert.Empty(t, renewer.stales)
}

func TestSendNetworkErrorIsProviderUnavailable(t *testing.T) {
	client := &scriptedClient{err: errors.New("dial tcp: connection refused")}
	tr := NewAuthTransport(client, &staticTokens{token: "token"}, &fakeRenewer{}, nil)

	res := tr.Send(context.Background(), newRequest(t))

	require.False(t, res.IsSuccess())
	assert.ErrorIs(t, res.Failure(), provider.ErrProviderUnavailable)
	assert.Contains(t, res.Failure().Error(), "connection refused")
}

func TestSendWithoutBody(t *testing.T) {
	client := &scriptedClient{responses: []*http.Response{
		response(http.StatusUnauthorized, ""),
		response(http.StatusOK, "{}"),
	}}
	tr := NewAuthTransport(client, &staticTokens{token: "a"}, &fakeRenewer{token: "b"}, nil)

	req, err := http.NewRequest(http.MethodGet, "https://api.example.test/api/v1/categories", nil)
	require.NoError(t, err)

	res := tr.Send(context.Background(), req)

	require.True(t, res.IsSuccess())
	require.Len(t, client.sent, 2)
	assert.Empty(t, client.sent[1].body)
}
