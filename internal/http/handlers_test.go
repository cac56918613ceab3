package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/paper-trader/internal/auth"
	"github.com/example/paper-trader/internal/cache"
	"github.com/example/paper-trader/internal/market"
	"github.com/example/paper-trader/internal/models"
	"github.com/example/paper-trader/internal/realtime"
	"github.com/example/paper-trader/internal/store"
	"github.com/example/paper-trader/internal/trading"
)

func setupServer(t *testing.T) (*Server, *store.FileStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)

	logger := zap.NewNop()
	marketSvc := market.New(fs, logger)
	tradingSvc := trading.New(fs, logger)
	claims, err := cache.New(1<<20, time.Minute)
	require.NoError(t, err)
	authSvc := auth.New(fs, tradingSvc, claims, logger, "test-secret", time.Hour, decimal.RequireFromString("10000"))

	// A single asset with a fixed price keeps order arithmetic predictable.
	require.NoError(t, fs.Write(store.Assets, []models.Asset{
		{ID: "aapl", Symbol: "AAPL", Name: "Apple Inc.", Price: decimal.RequireFromString("100")},
		{ID: "btc", Symbol: "BTC", Name: "Bitcoin", Price: decimal.RequireFromString("60000")},
	}))

	return NewServer(authSvc, tradingSvc, marketSvc, realtime.NewHub(), logger, "*"), fs
}

func doJSON(t *testing.T, s *Server, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.R.ServeHTTP(w, req)
	return w
}

func signup(t *testing.T, s *Server, email string) string {
	t.Helper()
	w := doJSON(t, s, http.MethodPost, "/api/auth/signup", "", map[string]any{
		"name": "Ada", "email": email, "password": "hunter22",
	})
	require.Equal(t, http.StatusOK, w.Code, "body=%s", w.Body.String())

	var resp struct {
		Token string            `json:"token"`
		User  models.PublicUser `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestHealth(t *testing.T) {
	s, _ := setupServer(t)
	w := doJSON(t, s, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok":true`)
}

func TestSignupLoginFlow(t *testing.T) {
	s, _ := setupServer(t)
	signup(t, s, "ada@example.com")

	// Duplicate email conflicts.
	w := doJSON(t, s, http.MethodPost, "/api/auth/signup", "", map[string]any{
		"name": "Ada", "email": "ada@example.com", "password": "other",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Missing fields.
	w = doJSON(t, s, http.MethodPost, "/api/auth/signup", "", map[string]any{"name": "Ada"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Login.
	w = doJSON(t, s, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "ada@example.com", "password": "hunter22",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "ada@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListAssets(t *testing.T) {
	s, _ := setupServer(t)
	w := doJSON(t, s, http.MethodGet, "/api/assets", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var assets []models.Asset
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &assets))
	assert.Len(t, assets, 2)
}

func TestPortfolioRequiresAuth(t *testing.T) {
	s, _ := setupServer(t)

	w := doJSON(t, s, http.MethodGet, "/api/portfolio", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/portfolio", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOrderFlow(t *testing.T) {
	s, _ := setupServer(t)
	token := signup(t, s, "ada@example.com")

	// Buy 10 AAPL @ 100.
	w := doJSON(t, s, http.MethodPost, "/api/orders", token, map[string]any{
		"assetId": "aapl", "side": "buy", "quantity": 10,
	})
	require.Equal(t, http.StatusOK, w.Code, "body=%s", w.Body.String())
	assert.Contains(t, w.Body.String(), `"ok":true`)

	// Portfolio reflects the fill.
	w = doJSON(t, s, http.MethodGet, "/api/portfolio", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view models.PortfolioView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.True(t, view.Cash.Equal(decimal.RequireFromString("9000")))
	require.Len(t, view.Holdings, 1)
	assert.Equal(t, "AAPL", view.Holdings[0].Symbol)
	assert.True(t, view.TotalValue.Equal(decimal.RequireFromString("10000")))

	// Transaction history is enriched.
	w = doJSON(t, s, http.MethodGet, "/api/transactions", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var txs []models.TransactionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &txs))
	require.Len(t, txs, 1)
	assert.Equal(t, "AAPL", txs[0].Symbol)
	assert.True(t, txs[0].Amount.Equal(decimal.RequireFromString("1000")))
}

func TestOrderErrors(t *testing.T) {
	s, _ := setupServer(t)
	token := signup(t, s, "ada@example.com")

	tests := []struct {
		name     string
		payload  map[string]any
		wantCode int
	}{
		{"unknown side", map[string]any{"assetId": "aapl", "side": "hold", "quantity": 1}, http.StatusBadRequest},
		{"zero quantity", map[string]any{"assetId": "aapl", "side": "buy", "quantity": 0}, http.StatusBadRequest},
		{"negative quantity", map[string]any{"assetId": "aapl", "side": "buy", "quantity": -2}, http.StatusBadRequest},
		{"missing asset", map[string]any{"side": "buy", "quantity": 1}, http.StatusBadRequest},
		{"unknown asset", map[string]any{"assetId": "zzz", "side": "buy", "quantity": 1}, http.StatusNotFound},
		{"insufficient cash", map[string]any{"assetId": "btc", "side": "buy", "quantity": 5}, http.StatusBadRequest},
		{"insufficient holdings", map[string]any{"assetId": "aapl", "side": "sell", "quantity": 1}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, s, http.MethodPost, "/api/orders", token, tt.payload)
			assert.Equal(t, tt.wantCode, w.Code, "body=%s", w.Body.String())
		})
	}

	// None of the failures moved cash.
	w := doJSON(t, s, http.MethodGet, "/api/portfolio", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view models.PortfolioView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.True(t, view.Cash.Equal(decimal.RequireFromString("10000")))
}

func TestMarketTick(t *testing.T) {
	s, _ := setupServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/market/tick", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		OK           bool `json:"ok"`
		UpdatedCount int  `json:"updatedCount"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, 2, resp.UpdatedCount)

	// Prices stay strictly positive after the tick.
	var assets []models.Asset
	aw := doJSON(t, s, http.MethodGet, "/api/assets", "", nil)
	require.NoError(t, json.Unmarshal(aw.Body.Bytes(), &assets))
	for _, a := range assets {
		assert.True(t, a.Price.IsPositive())
	}
}
