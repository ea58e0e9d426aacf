package credits

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/card-credits/internal/http/middlewarectx"
	"github.com/magabrotheeeer/card-credits/internal/lib/jwt"
	"github.com/magabrotheeeer/card-credits/internal/models"
	"github.com/magabrotheeeer/card-credits/internal/paymentprovider"
	creditservice "github.com/magabrotheeeer/card-credits/internal/services/credits"
	"github.com/magabrotheeeer/card-credits/internal/storage/memory"
)

type stubProvider struct {
	lastReq paymentprovider.CreatePaymentRequest
}

func (p *stubProvider) CreatePayment(_ context.Context, req paymentprovider.CreatePaymentRequest, _ string) (*paymentprovider.CreatePaymentResponse, error) {
	p.lastReq = req
	return &paymentprovider.CreatePaymentResponse{
		ID:     "pay-1",
		Status: "pending",
		Confirmation: paymentprovider.Confirmation{
			Type:            paymentprovider.ConfirmationRedirect,
			ConfirmationURL: "https://pay.example/checkout/pay-1",
		},
	}, nil
}

type testServer struct {
	router   *chi.Mux
	store    *memory.Store
	maker    *jwt.MakerImpl
	provider *stubProvider
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New(models.CreditPackage{
		ID: "starter", Name: "Starter", Credits: 100, PriceCents: 999, Currency: "USD",
	})
	maker := jwt.NewJWTMaker("routes-test-secret", time.Hour)
	provider := &stubProvider{}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Deps{
		Service:   creditservice.NewService(store, store, nil, nil, logger),
		Tokens:    maker,
		Provider:  provider,
		Limiter:   middlewarectx.NewAccountLimiter(1000, 1000),
		DB:        pingOK{},
		ReturnURL: "https://app.example/credits/success",
	})
	return &testServer{router: router, store: store, maker: maker, provider: provider}
}

type pingOK struct{}

func (pingOK) Ping(context.Context) error { return nil }

func (s *testServer) do(t *testing.T, method, path, accountID, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if accountID != "" {
		token, err := s.maker.GenerateToken(accountID)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotContains(t, body, "status")
	return body
}

func TestRoutes_RequireToken(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/v1/credits/check", "/api/v1/credits/transactions", "/api/v1/credits/reconcile"} {
		w := s.do(t, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
	w := s.do(t, http.MethodPost, "/api/v1/credits/use", "", `{"amount":1}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoutes_PublicEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/credits/packages", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"starter"`)

	w = s.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "credits_http_requests_total")
}

func TestRoutes_CreditLifecycle(t *testing.T) {
	s := newTestServer(t)
	const account = "acc-routes"

	w := s.do(t, http.MethodGet, "/api/v1/credits/check", account, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/accounts", account, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/credits/check", account, "")
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)
	assert.EqualValues(t, 0, data["credits"])
	assert.Equal(t, false, data["canUseAI"])
	assert.Equal(t, false, data["canExport"])

	w = s.do(t, http.MethodPost, "/api/v1/credits/use", account, `{"amount":1}`)
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.JSONEq(t, `{"status":"Error","error":"insufficient credits","required":1,"available":0}`, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/v1/credits/purchase", account, `{"packageId":"starter"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://pay.example/checkout/pay-1", decodeBody(t, w)["url"])
	assert.Equal(t, account, s.provider.lastReq.Metadata["account_id"])

	// Подтверждение оплаты приходит через очередь, здесь применяем его напрямую.
	svc := creditservice.NewService(s.store, s.store, nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := svc.ApplyPurchase(context.Background(), account, "starter", "pay-1")
	require.NoError(t, err)

	w = s.do(t, http.MethodPost, "/api/v1/credits/use", account, `{"amount":30,"description":"AI generation"}`)
	require.Equal(t, http.StatusOK, w.Code)
	data = decodeBody(t, w)
	assert.Equal(t, true, data["success"])
	assert.EqualValues(t, 70, data["remainingCredits"])

	w = s.do(t, http.MethodGet, "/api/v1/credits/transactions", account, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"type":"usage"`)
	assert.Contains(t, w.Body.String(), `"type":"purchase"`)

	w = s.do(t, http.MethodGet, "/api/v1/credits/reconcile", account, "")
	require.Equal(t, http.StatusOK, w.Code)
	data = decodeBody(t, w)
	assert.Equal(t, true, data["consistent"])
	assert.EqualValues(t, 70, data["balance"])
}
