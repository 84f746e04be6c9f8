package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	liquidityApp "github.com/fd1az/pool-service/business/liquidity/app"
	"github.com/fd1az/pool-service/business/liquidity/domain"
	paymentApp "github.com/fd1az/pool-service/business/payment/app"
	"github.com/fd1az/pool-service/business/payment/infra/memory"
	"github.com/fd1az/pool-service/internal/apperror"
)

type mockLogger struct{}

func (mockLogger) Debug(context.Context, string, ...any)       {}
func (mockLogger) Info(context.Context, string, ...any)        {}
func (mockLogger) Warn(context.Context, string, ...any)        {}
func (mockLogger) Error(context.Context, string, ...any)       {}
func (mockLogger) Debugc(context.Context, int, string, ...any) {}
func (mockLogger) Infoc(context.Context, int, string, ...any)  {}
func (mockLogger) Warnc(context.Context, int, string, ...any)  {}
func (mockLogger) Errorc(context.Context, int, string, ...any) {}

type fakeProvider struct {
	dex       domain.Dex
	positions []domain.NormalizedPosition
	statsErr  error
	calls     atomic.Int32
}

func (f *fakeProvider) Dex() domain.Dex { return f.dex }

func (f *fakeProvider) LiquidityPositions(ctx context.Context, address string) ([]domain.NormalizedPosition, error) {
	f.calls.Add(1)
	return f.positions, nil
}

func (f *fakeProvider) PoolStats(ctx context.Context, poolID string) (any, error) {
	f.calls.Add(1)
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return domain.PoolStats{ID: poolID, Reserves: []string{}, Coins: []domain.PoolCoin{}}, nil
}

func (f *fakeProvider) BatchPoolStats(ctx context.Context, poolIDs []string) ([]any, error) {
	f.calls.Add(1)
	out := make([]any, len(poolIDs))
	for i, id := range poolIDs {
		out[i] = domain.NewBatchItemError(id)
	}
	return out, nil
}

func (f *fakeProvider) EstimateTotalProfit(ctx context.Context, address string) (*domain.ProfitSummary, error) {
	f.calls.Add(1)
	return &domain.ProfitSummary{Positions: []domain.PositionProfit{}, TotalUnclaimedFeesUSD: 12.5}, nil
}

type fixture struct {
	handler http.Handler
	bluefin *fakeProvider
	flowx   *fakeProvider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	bf := &fakeProvider{dex: domain.DexBluefin, positions: []domain.NormalizedPosition{
		domain.NormalizedPosition{PoolID: "0xb1", Dex: domain.DexBluefin}.WithDefaults(),
	}}
	fx := &fakeProvider{dex: domain.DexFlowX}

	store := memory.New()
	srv := NewServer(
		liquidityApp.NewLiquidityService(mockLogger{}, fx, bf, fx),
		paymentApp.NewPayToLearnService(store, mockLogger{}),
		paymentApp.NewTransactionService(store, mockLogger{}),
		mockLogger{},
	)
	return &fixture{handler: srv.Handler(nil), bluefin: bf, flowx: fx}
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func (f *fixture) providerCalls() int32 {
	return f.bluefin.calls.Load() + f.flowx.calls.Load()
}

func TestRoot(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `"Hello Nim"` {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/health", "")
	body := decode[map[string]string](t, rec)
	if rec.Code != http.StatusOK || body["status"] != "ok" || body["timestamp"] == "" {
		t.Fatalf("got %d %v", rec.Code, body)
	}
}

func TestMissingAddress_Rejected(t *testing.T) {
	paths := []string{
		"/api/bluefin/liquidity-positions",
		"/api/flowx/liquidity-positions",
		"/api/liquidity-positions",
		"/api/flowx/position-value",
		"/api/liquidity-positions?address=%20",
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			f := newFixture(t)
			rec := f.do(t, http.MethodGet, path, "")
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", rec.Code)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"Missing wallet address"}` {
				t.Errorf("body = %s", got)
			}
			if n := f.providerCalls(); n != 0 {
				t.Errorf("provider calls = %d, want 0", n)
			}
		})
	}
}

func TestCombinedPositions_BothKeys(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/liquidity-positions?address=0xabc", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := decode[map[string][]map[string]any](t, rec)
	if len(body["bluefin"]) != 1 {
		t.Errorf("bluefin = %v", body["bluefin"])
	}
	flow, ok := body["flowx"]
	if !ok || flow == nil {
		t.Errorf("flowx key missing or null: %s", rec.Body.String())
	}
}

func TestPositionValue(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/flowx/position-value?address=0xabc", "")
	body := decode[domain.ProfitSummary](t, rec)
	if rec.Code != http.StatusOK || body.TotalUnclaimedFeesUSD != 12.5 {
		t.Fatalf("got %d %+v", rec.Code, body)
	}
}

func TestPoolStats_SourceRouting(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/pools/0xp1/stats", "")
	if rec.Code != http.StatusOK || f.bluefin.calls.Load() != 1 {
		t.Fatalf("default source: status %d, bluefin calls %d", rec.Code, f.bluefin.calls.Load())
	}
	rec = f.do(t, http.MethodGet, "/api/pools/0xp1/stats?source=flowx", "")
	if rec.Code != http.StatusOK || f.flowx.calls.Load() != 1 {
		t.Fatalf("flowx source: status %d, flowx calls %d", rec.Code, f.flowx.calls.Load())
	}
	rec = f.do(t, http.MethodGet, "/api/pools/0xp1/stats?source=uniswap", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown source: status %d", rec.Code)
	}
}

func TestPoolStats_NotFound(t *testing.T) {
	f := newFixture(t)
	f.flowx.statsErr = apperror.NotFound(apperror.CodePoolNotFound, "0xgone")

	rec := f.do(t, http.MethodGet, "/api/pools/0xgone/stats?source=flowx", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[errorBody](t, rec)
	if body.Error != msgPoolStats || body.Details == "" {
		t.Errorf("body = %+v", body)
	}
}

type errorLogger struct {
	mockLogger
	args [][]any
}

func (l *errorLogger) Error(_ context.Context, _ string, args ...any) {
	l.args = append(l.args, args)
}

func TestWriteError_LogsStructuredAppError(t *testing.T) {
	log := &errorLogger{}
	s := &Server{log: log}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/pools/0xp1/stats", nil)

	s.writeError(rec, req, msgPoolStats, apperror.External(apperror.CodeSuiRPCError, "0xp1", errors.New("node down")))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[map[string]string](t, rec)
	if len(body) != 2 || body["error"] != msgPoolStats || body["details"] != "0xp1: node down" {
		t.Errorf("body = %v", body)
	}
	if len(log.args) != 1 {
		t.Fatalf("error logs = %d", len(log.args))
	}
	fields, ok := log.args[0][len(log.args[0])-1].(map[string]interface{})
	if !ok || fields["code"] != apperror.CodeSuiRPCError || fields["cause"] != "node down" {
		t.Errorf("logged error = %v", log.args[0])
	}
}

func TestWriteError_PlainError(t *testing.T) {
	s := &Server{log: mockLogger{}}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/pay/packages", nil)

	s.writeError(rec, req, msgListPackages, errors.New("connection reset"))

	body := decode[errorBody](t, rec)
	if rec.Code != http.StatusInternalServerError || body.Error != msgListPackages || body.Details != "connection reset" {
		t.Errorf("got %d %+v", rec.Code, body)
	}
}

func TestPoolStats_UpstreamFailure(t *testing.T) {
	f := newFixture(t)
	f.bluefin.statsErr = apperror.External(apperror.CodeBluefinFetchFailed, "0xp1", context.DeadlineExceeded)

	rec := f.do(t, http.MethodGet, "/api/pools/0xp1/stats", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[errorBody](t, rec)
	if body.Error != msgPoolStats || !strings.Contains(body.Details, "deadline") {
		t.Errorf("body = %+v", body)
	}
}

func TestBatchPoolStats_InvalidPoolIDs(t *testing.T) {
	bodies := []string{
		`{}`,
		`{"poolIds":[]}`,
		`{"poolIds":"0xp1"}`,
		`{"poolIds":null,"source":"flowx"}`,
	}
	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			f := newFixture(t)
			rec := f.do(t, http.MethodPost, "/api/pools/batch", body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", rec.Code)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"poolIds must be a non-empty array"}` {
				t.Errorf("body = %s", got)
			}
			if n := f.providerCalls(); n != 0 {
				t.Errorf("provider calls = %d, want 0", n)
			}
		})
	}
}

func TestBatchPoolStats_OrderPreserved(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/pools/batch", `{"poolIds":["0xa","0xb","0xc"],"source":"flowx"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	items := decode[[]domain.BatchItemError](t, rec)
	want := []string{"0xa", "0xb", "0xc"}
	if len(items) != len(want) {
		t.Fatalf("len = %d", len(items))
	}
	for i, id := range want {
		if items[i].PoolID != id {
			t.Errorf("items[%d] = %s, want %s", i, items[i].PoolID, id)
		}
	}
}

func TestBatchPoolStats_MalformedBody(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/pools/batch", `{"poolIds":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestPackages_Lifecycle(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/pay/package", `{"id":"p1","priceWei":"1000","name":"Intro","ipfsHash":"Qm1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}

	rec = f.do(t, http.MethodPut, "/api/pay/package/p1", `{"name":"Intro v2"}`)
	updated := decode[map[string]string](t, rec)
	if rec.Code != http.StatusOK || updated["name"] != "Intro v2" || updated["priceWei"] != "1000" {
		t.Fatalf("update: %d %v", rec.Code, updated)
	}

	rec = f.do(t, http.MethodGet, "/api/pay/packages", "")
	list := decode[[]map[string]string](t, rec)
	if len(list) != 1 || list[0]["id"] != "p1" {
		t.Fatalf("list = %v", list)
	}

	rec = f.do(t, http.MethodDelete, "/api/pay/package/p1", "")
	deleted := decode[map[string]any](t, rec)
	if rec.Code != http.StatusOK || deleted["deleted"] != true || deleted["id"] != "p1" {
		t.Fatalf("delete: %d %v", rec.Code, deleted)
	}

	rec = f.do(t, http.MethodGet, "/api/pay/package/p1", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: %d", rec.Code)
	}
}

func TestPackages_EmptyListIsArray(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/pay/packages", "")
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("body = %s", got)
	}
}

func TestPackages_CreateRequiresID(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/pay/package", `{"name":"no id"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestStyle_SelectAndGet(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/pay/user/0xu/style", "")
	if got := strings.TrimSpace(rec.Body.String()); got != `{"style":null}` {
		t.Fatalf("unset style = %s", got)
	}

	rec = f.do(t, http.MethodPost, "/api/pay/user/0xu/style", `{"style":3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("select: %d", rec.Code)
	}
	rec = f.do(t, http.MethodPost, "/api/pay/user/0xu/style", `{"style":0}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("reselect: %d", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/api/pay/user/0xu/style", "")
	if got := strings.TrimSpace(rec.Body.String()); got != `{"style":0}` {
		t.Fatalf("style = %s", got)
	}

	rec = f.do(t, http.MethodPost, "/api/pay/user/0xu/style", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing style: %d", rec.Code)
	}
}

func TestPurchases(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/pay/user/0xu/hasPurchased/p1", "")
	if got := strings.TrimSpace(rec.Body.String()); got != `{"purchased":false}` {
		t.Fatalf("before purchase = %s", got)
	}

	// The path address wins over the body.
	rec = f.do(t, http.MethodPost, "/api/pay/user/0xu/purchase", `{"userAddress":"0xother","packageId":"p1","priceWei":"1000"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("log purchase: %d %s", rec.Code, rec.Body.String())
	}
	logged := decode[map[string]any](t, rec)
	if logged["userAddress"] != "0xu" || logged["id"] == "" {
		t.Errorf("logged = %v", logged)
	}

	rec = f.do(t, http.MethodGet, "/api/pay/user/0xu/hasPurchased/p1", "")
	if got := strings.TrimSpace(rec.Body.String()); got != `{"purchased":true}` {
		t.Fatalf("after purchase = %s", got)
	}

	rec = f.do(t, http.MethodGet, "/api/pay/user/0xu/purchases", "")
	ids := decode[[]string](t, rec)
	if len(ids) != 1 || ids[0] != "p1" {
		t.Fatalf("purchases = %v", ids)
	}

	rec = f.do(t, http.MethodGet, "/api/pay/user/0xother/purchases", "")
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("other user purchases = %s", got)
	}
}

func TestTransactions(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/pay/user/0xu/transaction", `{"packageId":"p1","priceWei":"1000"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing txHash: %d", rec.Code)
	}

	for _, hash := range []string{"0xt1", "0xt2"} {
		rec = f.do(t, http.MethodPost, "/api/pay/user/0xu/transaction", `{"packageId":"p1","priceWei":"1000","txHash":"`+hash+`"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("log %s: %d %s", hash, rec.Code, rec.Body.String())
		}
	}
	f.do(t, http.MethodPost, "/api/pay/user/0xv/transaction", `{"packageId":"p2","priceWei":"5","txHash":"0xt3"}`)

	rec = f.do(t, http.MethodGet, "/api/pay/user/0xu/transactions", "")
	mine := decode[[]map[string]any](t, rec)
	if len(mine) != 2 {
		t.Fatalf("user transactions = %v", mine)
	}
	for _, tx := range mine {
		if tx["userAddress"] != "0xu" {
			t.Errorf("foreign transaction %v", tx)
		}
	}

	rec = f.do(t, http.MethodGet, "/api/pay/transactions", "")
	all := decode[[]map[string]any](t, rec)
	if len(all) != 3 {
		t.Fatalf("all transactions = %d", len(all))
	}
}

func TestCORS_Preflight(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/pay/packages", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("missing allow-origin header: %v", rec.Header())
	}
}
