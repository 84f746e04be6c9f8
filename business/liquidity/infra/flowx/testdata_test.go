package flowx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/fd1az/pool-service/internal/httpclient"
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

const (
	coinSUI  = "0x2::sui::SUI"
	coinUSDC = "0xdba34672e30cb065b1f93e3ab55318768fd6fef66c15942c9f7cb846e2f900e7::usdc::USDC"
)

const positionsBody = `{"data":[
  {
    "id": "0xpos1",
    "owner": "0xowner",
    "liquidity": "123456789012345678901234567890",
    "tickLower": -120,
    "tickUpper": 60,
    "coinsOwedX": "10",
    "coinsOwedY": "5",
    "feeGrowthInsideXLast": "111",
    "feeGrowthInsideYLast": "222",
    "rewardInfos": [{"reward": "0x2::sui::SUI", "coinsOwedReward": "7"}],
    "pool": {
      "id": "0xpool1",
      "name": "SUI-USDC",
      "fee": 3000,
      "liquidity": "999999999999999999999",
      "tvl": "15234.75",
      "reserves": ["1500000000", "2500000"],
      "coins": [
        {"coinType": "0x2::sui::SUI", "derivedPriceInUSD": "2"},
        {"coinType": "0xdba34672e30cb065b1f93e3ab55318768fd6fef66c15942c9f7cb846e2f900e7::usdc::USDC", "derivedPriceInUSD": 1}
      ],
      "day": {"apr": {"total": "42.5", "feeApr": "30", "rewardApr": "12.5"}, "priceMin": "1.1", "priceMax": "3.9"}
    }
  },
  {
    "id": "0xpos2",
    "owner": "0xowner",
    "liquidity": "42",
    "coinsOwedX": "0",
    "coinsOwedY": "20",
    "pool": {
      "id": "0xpool2",
      "name": "SUI-USDC",
      "fee": "500",
      "liquidity": "1",
      "reserves": ["1", "2"],
      "coins": [
        {"coinType": "0x2::sui::SUI", "derivedPriceInUSD": "2"},
        {"coinType": "0xdba34672e30cb065b1f93e3ab55318768fd6fef66c15942c9f7cb846e2f900e7::usdc::USDC", "derivedPriceInUSD": "1"}
      ]
    }
  }
]}`

func newTestAPI(t *testing.T, handler http.HandlerFunc) *API {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("flowx-test"),
		httpclient.WithBaseURL(srv.URL),
	)
	if err != nil {
		t.Fatal(err)
	}
	return NewAPI(client, testTracer)
}

func poolBody(id string) string {
	return `{"data":{"id":"` + id + `","name":"SUI-USDC","fee":3000,"liquidity":"77","reserves":["10","20"],` +
		`"coins":[{"coinType":"0x2::sui::SUI","derivedPriceInUSD":"1.5"},{"coinType":"0xusdc::usdc::USDC"}]}}`
}
