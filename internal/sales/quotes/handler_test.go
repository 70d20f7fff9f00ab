package quotes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradesphere/tradesphere-crm/internal/auth"
	"github.com/tradesphere/tradesphere-crm/internal/sales/deals"
	"github.com/tradesphere/tradesphere-crm/internal/sequence"
	"github.com/tradesphere/tradesphere-crm/internal/users"
)

type handlerEnv struct {
	srv        *httptest.Server
	salesToken string
	adminToken string
	repo       *mockRepository
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	tokens := auth.NewTokenStore(client, time.Hour)

	ctx := context.Background()
	salesToken, err := tokens.Issue(ctx, auth.Actor{UserID: 5, Role: users.RoleSales})
	require.NoError(t, err)
	adminToken, err := tokens.Issue(ctx, auth.Actor{UserID: 1, Role: users.RoleAdmin})
	require.NoError(t, err)

	repo := newMockRepository()
	dealRepo := &mockDeals{deals: map[int64]*deals.Deal{
		10: {ID: 10, DealName: "Steel pipe supply", AccountID: 77, OwnerID: 5},
	}}
	fx := &mockConverter{base: "PKR", rates: map[string]float64{"USD": 280}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(repo, dealRepo, sequence.NewService(&memSeqRepo{}), fx, &mockPrices{}, logger)

	gate := auth.NewMiddleware(tokens)
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(gate.RequireAuth)
		NewHandler(logger, svc).MountRoutes(r, gate)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &handlerEnv{srv: srv, salesToken: salesToken, adminToken: adminToken, repo: repo}
}

func (e *handlerEnv) do(t *testing.T, method, path, token, body string) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = bytes.NewBufferString(body)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeData(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope.Data
}

const createBody = `{
	"subject": "Steel pipe quotation",
	"deal": 10,
	"products": [
		{"productName": "Steel pipe", "quantity": 2, "listPrice": 100, "discount": 10},
		{"productName": "Valve", "quantity": "1", "listPrice": "50"}
	],
	"isGstApplied": true,
	"gstRate": 18
}`

func TestHandlerCreateQuote(t *testing.T) {
	env := newHandlerEnv(t)

	resp := env.do(t, http.MethodPost, "/quotes", env.salesToken, createBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	data := decodeData(t, resp)
	assert.Equal(t, "TS-QUO-00001", data["quoteNumber"])
	assert.Equal(t, "Draft", data["quoteStage"])
	assert.InDelta(t, 283.2, data["grandTotal"].(float64), 1e-9)
	assert.InDelta(t, 43.2, data["gstAmount"].(float64), 1e-9)
}

func TestHandlerCreateQuoteValidation(t *testing.T) {
	env := newHandlerEnv(t)

	resp := env.do(t, http.MethodPost, "/quotes", env.salesToken, `{"subject":"x","deal":10,"products":[]}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestHandlerRequiresAuth(t *testing.T) {
	env := newHandlerEnv(t)

	resp := env.do(t, http.MethodGet, "/quotes", "", "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/quotes", "forged-token", "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandlerAdminGate(t *testing.T) {
	env := newHandlerEnv(t)

	resp := env.do(t, http.MethodPost, "/quotes", env.salesToken, createBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Sales role cannot list all or approve.
	resp = env.do(t, http.MethodGet, "/quotes/all", env.salesToken, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/quotes/1/approve", env.salesToken, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Admin can.
	resp = env.do(t, http.MethodGet, "/quotes/all", env.adminToken, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/quotes/1/approve", env.adminToken, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := decodeData(t, resp)
	assert.Equal(t, true, data["isSOApproved"])
}

func TestHandlerStageTransition(t *testing.T) {
	env := newHandlerEnv(t)

	resp := env.do(t, http.MethodPost, "/quotes", env.salesToken, createBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodPost, "/quotes/1/stage", env.salesToken, `{"quoteStage":"Confirmed"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "confirm without attachment is rejected")

	resp = env.do(t, http.MethodPost, "/quotes/1/stage", env.salesToken,
		`{"quoteStage":"Confirmed","purchaseOrder":{"public_id":"po/42","url":"https://cdn.example/po/42.pdf"}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := decodeData(t, resp)
	assert.Equal(t, "Confirmed", data["quoteStage"])
	assert.NotNil(t, data["confirmedDate"])
}
