//go:build integration

package router_test

// End-to-end tests against real Postgres and Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/... -v

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"supplytrack/internal/config"
	"supplytrack/internal/infra"
	"supplytrack/internal/model"
	"supplytrack/internal/router"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
)

const e2ePassword = "supplytrack-e2e"

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server *httptest.Server
	token  string // admin JWT
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("supplytrack_test"),
		tcPostgres.WithUsername("supplytrack"),
		tcPostgres.WithPassword("supplytrack"),
		testcontainers.WithWaitStrategy(
			tcPostgres.BasicWaitStrategies()...,
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:                    8000,
		Env:                     "test",
		DBDriver:                "postgres",
		DatabaseURL:             pgURL,
		RedisURL:                rdURL,
		LookupCacheTTLSeconds:   60,
		JWTSecret:               "test-secret-key",
		JWTExpirationHours:      8,
		JWTRefreshHours:         24,
		RateLimitPerMinute:      1000,
		LoginRateLimitPerMinute: 50,
		CompanyName:             "E2E Clinic",
	}

	db, err := infra.NewDatabase(cfg.DBDriver, cfg.DatabaseURL)
	require.NoError(t, err, "NewDatabase also runs the migrations")

	rdb, err := infra.NewRedis(ctx, cfg.RedisURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte(e2ePassword), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, db.Create(&model.User{
		Username:     "admin",
		Name:         "Admin E2E",
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
		IsActive:     true,
	}).Error)

	srv := httptest.NewServer(router.New(cfg, db, rdb, nil))
	t.Cleanup(srv.Close)

	loginResp := do(t, srv, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"username": "admin", "password": e2ePassword}),
		"",
	)
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	var loginBody struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, loginResp, &loginBody)
	require.NotEmpty(t, loginBody.AccessToken)

	return &testEnv{server: srv, token: loginBody.AccessToken}
}

type idBody struct {
	ID string `json:"id"`
}

func (env *testEnv) create(t *testing.T, path string, body any) string {
	t.Helper()
	resp := do(t, env.server, "POST", path, jsonBody(t, body), env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var out idBody
	decodeJSON(t, resp, &out)
	return out.ID
}

func (env *testEnv) quantity(t *testing.T, supplyID string) int {
	t.Helper()
	resp := do(t, env.server, "GET", "/v1/supplies/"+supplyID, nil, env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var s struct {
		Quantity int `json:"quantity"`
	}
	decodeJSON(t, resp, &s)
	return s.Quantity
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_Health(t *testing.T) {
	env := setupTestEnv(t)
	resp := do(t, env.server, "GET", "/health", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	decodeJSON(t, resp, &body)
	assert.Equal(t, "connected", body["db"])
	assert.Equal(t, "connected", body["redis"])
}

// Category edits must be visible through the Redis-cached lookups at once.
func TestE2E_LookupsCacheInvalidation(t *testing.T) {
	env := setupTestEnv(t)

	lookups := func() []string {
		resp := do(t, env.server, "GET", "/v1/lookups", nil, env.token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body struct {
			Categories []struct {
				Name string `json:"name"`
			} `json:"categories"`
		}
		decodeJSON(t, resp, &body)
		names := make([]string, len(body.Categories))
		for i, c := range body.Categories {
			names[i] = c.Name
		}
		return names
	}

	assert.Empty(t, lookups())
	id := env.create(t, "/v1/categories", map[string]any{"name": "Wound care"})
	assert.Equal(t, []string{"Wound care"}, lookups())

	resp := do(t, env.server, "PUT", "/v1/categories/"+id, jsonBody(t, map[string]any{"name": "Dressings"}), env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, []string{"Dressings"}, lookups())
}

func TestE2E_PurchaseOrderCycle(t *testing.T) {
	env := setupTestEnv(t)

	supplierID := env.create(t, "/v1/suppliers", map[string]any{"name": "Acme Medical", "email": "orders@acme.test"})
	gauzeID := env.create(t, "/v1/supplies", map[string]any{"name": "Gauze", "price": "4.00", "quantity": 10, "reorder_point": 20})
	tapeID := env.create(t, "/v1/supplies", map[string]any{"name": "Tape", "price": "7.50", "quantity": 4})

	// Gauze starts below its reorder point.
	resp := do(t, env.server, "GET", "/v1/supplies/low-stock", nil, env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var low struct {
		Data []idBody `json:"data"`
	}
	decodeJSON(t, resp, &low)
	require.Len(t, low.Data, 1)
	assert.Equal(t, gauzeID, low.Data[0].ID)

	orderID := env.create(t, "/v1/purchase-orders", map[string]any{
		"supplier_id": supplierID,
		"items": []map[string]any{
			{"supply_id": gauzeID, "quantity": 3},
			{"supply_id": tapeID, "quantity": 2, "unit_price": "10.00"},
		},
	})

	resp = do(t, env.server, "GET", "/v1/purchase-orders/"+orderID, nil, env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var order struct {
		OrderNumber string          `json:"order_number"`
		TotalAmount decimal.Decimal `json:"total_amount"`
	}
	decodeJSON(t, resp, &order)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(32)), "got %s", order.TotalAmount)
	assert.Regexp(t, `^PO-\d{8}-[0-9A-F]{6}$`, order.OrderNumber)

	resp = do(t, env.server, "POST", "/v1/purchase-orders/"+orderID+"/status", jsonBody(t, map[string]string{"status": "ORDERED"}), env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Concurrent receipts: exactly one credits the stock.
	const workers = 5
	codes := make([]int, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i], errs[i] = postStatus(env, orderID, "RECEIVED")
		}(i)
	}
	wg.Wait()

	ok := 0
	for i, c := range codes {
		require.NoError(t, errs[i])
		if c == http.StatusOK {
			ok++
		} else {
			assert.Equal(t, http.StatusConflict, c)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 13, env.quantity(t, gauzeID))
	assert.Equal(t, 6, env.quantity(t, tapeID))

	resp = do(t, env.server, "GET", "/v1/audit-logs?action=RECEIVE", nil, env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var logs struct {
		Data []struct {
			Username string `json:"username"`
		} `json:"data"`
	}
	decodeJSON(t, resp, &logs)
	assert.Len(t, logs.Data, 2)

	// Supplier delete cascades to its orders.
	resp = do(t, env.server, "DELETE", "/v1/suppliers/"+supplierID, nil, env.token)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = do(t, env.server, "GET", "/v1/purchase-orders/"+orderID, nil, env.token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

// Parallel imports against one supply must serialize on the row so that no
// update is lost.
func TestE2E_ConcurrentImports(t *testing.T) {
	env := setupTestEnv(t)
	supplyID := env.create(t, "/v1/supplies", map[string]any{"name": "Syringe", "quantity": 0})

	const workers = 10
	codes := make([]int, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i], errs[i] = uploadCSV(env, "/v1/supplies/"+supplyID+"/import", "Name,Delta\nSyringe,5\n")
		}(i)
	}
	wg.Wait()

	for i := range codes {
		require.NoError(t, errs[i])
		assert.Equal(t, http.StatusOK, codes[i])
	}
	assert.Equal(t, 5*workers, env.quantity(t, supplyID))
}

// uploadCSV posts content as the multipart "file" field. It is safe to call
// from goroutines other than the test's.
func uploadCSV(env *testEnv, path, content string) (int, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "restock.csv")
	if err != nil {
		return 0, err
	}
	if _, err := part.Write([]byte(content)); err != nil {
		return 0, err
	}
	if err := mw.Close(); err != nil {
		return 0, err
	}
	req, err := http.NewRequest("POST", env.server.URL+path, &body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+env.token)
	resp, err := env.server.Client().Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

// postStatus is the goroutine-safe variant of do for status transitions.
func postStatus(env *testEnv, orderID, status string) (int, error) {
	b, err := json.Marshal(map[string]string{"status": status})
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequest("POST", env.server.URL+"/v1/purchase-orders/"+orderID+"/status", bytes.NewReader(b))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+env.token)
	resp, err := env.server.Client().Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}
