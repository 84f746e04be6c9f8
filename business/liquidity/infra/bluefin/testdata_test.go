package bluefin

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/rpc"
	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/fd1az/pool-service/internal/ratelimit"
)

const (
	testPackage = "0x3492c874c1e3b3e2984e8c41b589e642d4d0a5d6459e5a9cfc2d52fd7c89c267"
	testPoolID  = "0x15dbcac854b1fc68fc9467dbd9ab34270447aabd8cc0e04a5864d95ccb86b74a"
	testOwner   = "0x00000000000000000000000000000000000000000000000000000000000000a1"
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

var testTracer = tracenoop.NewTracerProvider().Tracer("test")

// positionObject returns a suix_getOwnedObjects item. Ticks are I32 bits.
func positionObject(id string, lowerBits, upperBits uint32) map[string]any {
	return map[string]any{
		"data": map[string]any{
			"objectId": id,
			"type":     testPackage + "::position::Position",
			"owner":    map[string]any{"AddressOwner": testOwner},
			"content": map[string]any{
				"dataType": "moveObject",
				"type":     testPackage + "::position::Position",
				"fields": map[string]any{
					"id":                map[string]any{"id": id},
					"pool_id":           testPoolID,
					"coin_type_a":       "0000000000000000000000000000000000000000000000000000000000000002::sui::SUI",
					"coin_type_b":       "dba34672e30cb065b1f93e3ab55318768fd6fef66c15942c9f7cb846e2f900e7::usdc::USDC",
					"lower_tick":        map[string]any{"type": "i32::I32", "fields": map[string]any{"bits": lowerBits}},
					"upper_tick":        map[string]any{"type": "i32::I32", "fields": map[string]any{"bits": upperBits}},
					"liquidity":         "1000000000",
					"fee_growth_coin_a": "11",
					"fee_growth_coin_b": "22",
					"token_a_fee":       "333",
					"token_b_fee":       "444",
				},
			},
		},
	}
}

func poolObject() map[string]any {
	return map[string]any{
		"data": map[string]any{
			"objectId": testPoolID,
			"type":     testPackage + "::pool::Pool<0x2::sui::SUI, 0xdba34672e30cb065b1f93e3ab55318768fd6fef66c15942c9f7cb846e2f900e7::usdc::USDC>",
			"content": map[string]any{
				"dataType": "moveObject",
				"type":     testPackage + "::pool::Pool<0x2::sui::SUI, 0xdba34672e30cb065b1f93e3ab55318768fd6fef66c15942c9f7cb846e2f900e7::usdc::USDC>",
				"fields": map[string]any{
					"id":                 map[string]any{"id": testPoolID},
					"current_sqrt_price": "18446744073709551616",
					"current_tick_index": map[string]any{"fields": map[string]any{"bits": 0}},
					"liquidity":          "987654321",
					"fee_rate":           "3000",
				},
			},
		},
	}
}

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// fakeSuiNode answers JSON-RPC calls with handler results.
type fakeSuiNode struct {
	mu      sync.Mutex
	calls   []rpcRequest
	handler func(req rpcRequest) (any, *rpcError)
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (n *fakeSuiNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var req rpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	n.mu.Lock()
	n.calls = append(n.calls, req)
	n.mu.Unlock()

	result, rpcErr := n.handler(req)
	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	if rpcErr != nil {
		resp["error"] = rpcErr
	} else {
		resp["result"] = result
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (n *fakeSuiNode) methods() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.calls))
	for i, c := range n.calls {
		out[i] = c.Method
	}
	return out
}

func newTestChain(t *testing.T, node *fakeSuiNode) *Chain {
	t.Helper()
	srv := httptest.NewServer(node)
	t.Cleanup(srv.Close)

	client, err := rpc.DialContext(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(client.Close)

	chain, err := NewChain(client, ChainConfig{BasePackage: testPackage, PageSize: 2},
		ratelimit.Unlimited("sui"), mockLogger{}, testTracer, noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}
	return chain
}
