package api_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"bytefinance/internal/api"
	"bytefinance/internal/tokenstore"
)

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
	}
}

func newClient(t *testing.T, tokens tokenstore.Store) (*api.Client, *MockHTTPClient) {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockHTTP := NewMockHTTPClient(ctrl)
	return api.NewClient("https://backend.test/api", tokens, api.WithHTTPClient(mockHTTP)), mockHTTP
}

func TestDo_AttachesBearerWhenTokenPresent(t *testing.T) {
	t.Parallel()

	tokens := tokenstore.NewMemory()
	require.NoError(t, tokens.SetToken("tok-123"))
	client, mockHTTP := newClient(t, tokens)

	mockHTTP.EXPECT().Do(gomock.Any()).DoAndReturn(func(req *http.Request) (*http.Response, error) {
		require.Equal(t, "Bearer tok-123", req.Header.Get("Authorization"))
		require.Equal(t, "application/json", req.Header.Get("Accept"))
		require.NotEmpty(t, req.Header.Get("X-Request-ID"))
		require.Equal(t, "https://backend.test/api/auth/me", req.URL.String())
		return jsonResponse(http.StatusOK, `{"id": 1, "name": "Ada", "email": "ada@example.com"}`), nil
	})

	user, err := client.Me(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, user.ID)
	require.Equal(t, "Ada", user.Name)
}

func TestDo_NoAuthorizationHeaderWithoutToken(t *testing.T) {
	t.Parallel()

	client, mockHTTP := newClient(t, tokenstore.NewMemory())

	mockHTTP.EXPECT().Do(gomock.Any()).DoAndReturn(func(req *http.Request) (*http.Response, error) {
		require.Empty(t, req.Header.Get("Authorization"))
		return jsonResponse(http.StatusOK, `[]`), nil
	})

	_, err := client.Instruments(context.Background())
	require.NoError(t, err)
}

func TestDo_UnauthorizedClearsStoredToken(t *testing.T) {
	t.Parallel()

	tokens := tokenstore.NewMemory()
	require.NoError(t, tokens.SetToken("stale"))
	client, mockHTTP := newClient(t, tokens)

	mockHTTP.EXPECT().Do(gomock.Any()).Return(jsonResponse(http.StatusUnauthorized, `{"message": "Unauthenticated."}`), nil)

	_, err := client.Portfolio(context.Background())
	require.Error(t, err)

	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	token, err := tokens.Token()
	require.NoError(t, err)
	require.Empty(t, token)
}

func TestDo_UnauthorizedOnAnyEndpointClearsToken(t *testing.T) {
	t.Parallel()

	tokens := tokenstore.NewMemory()
	require.NoError(t, tokens.SetToken("stale"))
	client, mockHTTP := newClient(t, tokens)

	// The clear is not special to auth routes.
	mockHTTP.EXPECT().Do(gomock.Any()).Return(jsonResponse(http.StatusUnauthorized, `{}`), nil)

	_, err := client.Transactions(context.Background())
	require.Error(t, err)

	token, err := tokens.Token()
	require.NoError(t, err)
	require.Empty(t, token)
}

func TestDo_ErrorBodyParsedIntoAPIError(t *testing.T) {
	t.Parallel()

	client, mockHTTP := newClient(t, tokenstore.NewMemory())

	mockHTTP.EXPECT().Do(gomock.Any()).Return(jsonResponse(http.StatusUnprocessableEntity, `{
		"message": "The given data was invalid.",
		"errors": {"email": ["The email has already been taken."]}
	}`), nil)

	_, err := client.Login(context.Background(), "ada@example.com", "secret", false)
	require.Error(t, err)

	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 422, apiErr.StatusCode)
	require.Equal(t, "The email has already been taken.", apiErr.UserMessage("fallback"))
}

func TestDo_MalformedErrorBodyFallsBackToStatusText(t *testing.T) {
	t.Parallel()

	client, mockHTTP := newClient(t, tokenstore.NewMemory())

	mockHTTP.EXPECT().Do(gomock.Any()).Return(jsonResponse(http.StatusInternalServerError, `<html>oops</html>`), nil)

	_, err := client.Instruments(context.Background())
	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Internal Server Error", apiErr.Message)
}

func TestAPIError_UserMessageOrder(t *testing.T) {
	t.Parallel()

	withErrors := &api.APIError{
		StatusCode: 422,
		Message:    "The given data was invalid.",
		Errors: map[string][]string{
			"password": {"Too short."},
			"email":    {"Already taken."},
		},
	}
	// Field errors win, keys scanned in sorted order.
	require.Equal(t, "Already taken.", withErrors.UserMessage("fallback"))

	messageOnly := &api.APIError{StatusCode: 401, Message: "Unauthenticated."}
	require.Equal(t, "Unauthenticated.", messageOnly.UserMessage("fallback"))

	bare := &api.APIError{StatusCode: 500}
	require.Equal(t, "fallback", bare.UserMessage("fallback"))
}

func TestLogin_TrimsEmailWhitespace(t *testing.T) {
	t.Parallel()

	client, mockHTTP := newClient(t, tokenstore.NewMemory())

	mockHTTP.EXPECT().Do(gomock.Any()).DoAndReturn(func(req *http.Request) (*http.Response, error) {
		body, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		require.Contains(t, string(body), `"email":"ada@example.com"`)
		return jsonResponse(http.StatusOK, `{"token": "tok", "user": {"id": 1}}`), nil
	})

	out, err := client.Login(context.Background(), "  ada@example.com ", "secret", true)
	require.NoError(t, err)
	require.Equal(t, "tok", out.Token)
}

func TestMe_AcceptsWrappedAndBareUser(t *testing.T) {
	t.Parallel()

	client, mockHTTP := newClient(t, tokenstore.NewMemory())

	mockHTTP.EXPECT().Do(gomock.Any()).Return(jsonResponse(http.StatusOK, `{"user": {"id": 7, "name": "Ada", "role": "admin"}}`), nil)
	user, err := client.Me(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 7, user.ID)
	require.True(t, user.IsAdmin())

	mockHTTP.EXPECT().Do(gomock.Any()).Return(jsonResponse(http.StatusOK, `{"id": 8, "name": "Grace", "is_admin": true}`), nil)
	user, err = client.Me(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 8, user.ID)
	require.True(t, user.IsAdmin())
}

func TestInstruments_AcceptsEnvelopedLists(t *testing.T) {
	t.Parallel()

	client, mockHTTP := newClient(t, tokenstore.NewMemory())

	mockHTTP.EXPECT().Do(gomock.Any()).Return(jsonResponse(http.StatusOK, `[{"id": 1, "symbol": "AAPL"}]`), nil)
	bare, err := client.Instruments(context.Background())
	require.NoError(t, err)
	require.Len(t, bare, 1)

	mockHTTP.EXPECT().Do(gomock.Any()).Return(jsonResponse(http.StatusOK, `{"data": [{"id": 1, "symbol": "AAPL"}, {"id": 2, "symbol": "MSFT"}]}`), nil)
	enveloped, err := client.Instruments(context.Background())
	require.NoError(t, err)
	require.Len(t, enveloped, 2)
	require.Equal(t, "MSFT", enveloped[1].Symbol)
}

func TestPlaceTrade_PostsPayload(t *testing.T) {
	t.Parallel()

	tokens := tokenstore.NewMemory()
	require.NoError(t, tokens.SetToken("tok"))
	client, mockHTTP := newClient(t, tokens)

	mockHTTP.EXPECT().Do(gomock.Any()).DoAndReturn(func(req *http.Request) (*http.Response, error) {
		require.Equal(t, http.MethodPost, req.Method)
		require.Equal(t, "/api/trades", req.URL.Path)
		body, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		require.Contains(t, string(body), `"instrumentId":5`)
		require.Contains(t, string(body), `"side":"buy"`)
		return jsonResponse(http.StatusCreated, `{"id": 99, "instrument_id": 5, "side": "buy"}`), nil
	})

	tx, err := client.PlaceTrade(context.Background(), api.TradeRequest{InstrumentID: 5, Side: "buy"})
	require.NoError(t, err)
	require.EqualValues(t, 99, tx.ID)
}
