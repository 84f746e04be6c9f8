package bluefin

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/pool-service/internal/apperror"
	"github.com/fd1az/pool-service/internal/circuitbreaker"
	"github.com/fd1az/pool-service/internal/logger"
	"github.com/fd1az/pool-service/internal/ratelimit"
)

const (
	methodGetOwnedObjects = "suix_getOwnedObjects"
	methodGetObject       = "sui_getObject"

	maxOwnedPages = 100
)

var hexAddress = regexp.MustCompile(`^0x[0-9a-fA-F]{1,64}$`)

// ErrPoolObjectMissing is the cause when a position points at a pool object
// the node no longer returns.
var ErrPoolObjectMissing = errors.New("pool object not found")

// SuiCaller is the JSON-RPC surface used here; *rpc.Client satisfies it.
type SuiCaller interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

// ChainConfig configures Sui reads.
type ChainConfig struct {
	BasePackage string
	PageSize    int
	Timeout     time.Duration
}

// Chain reads Bluefin position and pool objects from a Sui fullnode.
type Chain struct {
	caller       SuiCaller
	positionType string
	pageSize     int
	timeout      time.Duration
	maxPages     int
	limiter      *ratelimit.Limiter
	log          logger.LoggerInterface
	cb           *circuitbreaker.CircuitBreaker[json.RawMessage]
	tracer       trace.Tracer
	calls        metric.Int64Counter
	latency      metric.Float64Histogram
}

// NewChain creates a Chain reader.
func NewChain(caller SuiCaller, cfg ChainConfig, limiter *ratelimit.Limiter, log logger.LoggerInterface, tracer trace.Tracer, meter metric.Meter) (*Chain, error) {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	cbCfg := circuitbreaker.DefaultConfig("sui-rpc")
	cbCfg.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, context.Canceled)
	}

	calls, err := meter.Int64Counter(
		"bluefin_rpc_calls_total",
		metric.WithDescription("Sui JSON-RPC calls made for Bluefin reads"),
	)
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram(
		"bluefin_rpc_latency_ms",
		metric.WithDescription("Sui JSON-RPC call latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Chain{
		caller:       caller,
		positionType: cfg.BasePackage + "::position::Position",
		pageSize:     pageSize,
		timeout:      cfg.Timeout,
		maxPages:     maxOwnedPages,
		limiter:      limiter,
		log:          log,
		cb:           circuitbreaker.New[json.RawMessage](cbCfg),
		tracer:       tracer,
		calls:        calls,
		latency:      latency,
	}, nil
}

// normalizeAddress pads hex addresses to the canonical 32-byte form.
// Anything else is passed through for the node to reject.
func normalizeAddress(address string) string {
	if !hexAddress.MatchString(address) {
		return address
	}
	return common.HexToHash(address).Hex()
}

func (c *Chain) call(ctx context.Context, result any, method string, args ...any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := c.cb.Execute(func() (json.RawMessage, error) {
		var raw json.RawMessage
		err := c.caller.CallContext(ctx, &raw, method, args...)
		return raw, err
	})

	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.Bool("success", err == nil),
	)
	c.calls.Add(ctx, 1, attrs)
	c.latency.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)

	if err != nil {
		return err
	}
	return json.Unmarshal(raw, result)
}

// OwnedPositions lists every Bluefin position owned by owner, following pagination.
func (c *Chain) OwnedPositions(ctx context.Context, owner string) ([]RawPosition, error) {
	ctx, span := c.tracer.Start(ctx, "bluefin.owned_positions",
		trace.WithAttributes(attribute.String("owner", owner)),
	)
	defer span.End()

	query := map[string]any{
		"filter": map[string]any{"StructType": c.positionType},
		"options": map[string]any{
			"showContent": true,
			"showOwner":   true,
			"showType":    true,
		},
	}

	owner = normalizeAddress(owner)
	positions := make([]RawPosition, 0)
	var cursor *string
	truncated := false
	for page := 0; page < c.maxPages; page++ {
		var resp ownedObjectsPage
		if err := c.call(ctx, &resp, methodGetOwnedObjects, owner, query, cursor, c.pageSize); err != nil {
			span.RecordError(err)
			return nil, apperror.External(apperror.CodeSuiRPCError, methodGetOwnedObjects, err)
		}

		for _, item := range resp.Data {
			if item.Data == nil {
				continue
			}
			pos, err := decodePosition(item.Data)
			if err != nil {
				return nil, apperror.New(apperror.CodeMalformedPosition,
					apperror.WithContext(item.Data.ObjectID), apperror.WithCause(err))
			}
			if pos.Owner == "" {
				pos.Owner = owner
			}
			positions = append(positions, pos)
		}

		if !resp.HasNextPage || resp.NextCursor == nil {
			truncated = false
			break
		}
		cursor = resp.NextCursor
		truncated = true
	}
	if truncated {
		c.log.Warn(ctx, "Owned positions truncated at page limit",
			"owner", owner, "pages", c.maxPages, "positions", len(positions))
		span.SetAttributes(attribute.Bool("truncated", true))
	}

	span.SetAttributes(attribute.Int("positions", len(positions)))
	return positions, nil
}

// Pool reads one pool object.
func (c *Chain) Pool(ctx context.Context, poolID string) (RawPool, error) {
	ctx, span := c.tracer.Start(ctx, "bluefin.get_pool",
		trace.WithAttributes(attribute.String("pool_id", poolID)),
	)
	defer span.End()

	options := map[string]any{"showContent": true, "showType": true}

	var resp objectResponse
	if err := c.call(ctx, &resp, methodGetObject, poolID, options); err != nil {
		span.RecordError(err)
		return RawPool{}, apperror.External(apperror.CodeSuiRPCError, methodGetObject, err)
	}
	if resp.Data == nil {
		return RawPool{}, apperror.External(apperror.CodeSuiRPCError, poolID, ErrPoolObjectMissing)
	}

	pool, err := decodePool(resp.Data)
	if err != nil {
		return RawPool{}, apperror.New(apperror.CodeMalformedPool,
			apperror.WithContext(poolID), apperror.WithCause(err))
	}
	return pool, nil
}
