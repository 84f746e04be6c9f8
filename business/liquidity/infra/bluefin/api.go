package bluefin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/pool-service/internal/apperror"
	"github.com/fd1az/pool-service/internal/httpclient"
)

const poolsInfoEndpoint = "/api/v1/pools/info"

// PoolsAPI reads pool statistics from the Bluefin spot REST API.
type PoolsAPI struct {
	client httpclient.Client
	tracer trace.Tracer
}

// NewPoolsAPI creates a PoolsAPI over an instrumented client whose base URL
// points at the Bluefin API host.
func NewPoolsAPI(client httpclient.Client, tracer trace.Tracer) *PoolsAPI {
	return &PoolsAPI{client: client, tracer: tracer}
}

func (a *PoolsAPI) fetch(ctx context.Context, pools string, op string) ([]byte, error) {
	resp, err := a.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", op)),
	).
		SetQueryParam("pools", pools).
		Get(ctx, poolsInfoEndpoint)
	if err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

func decodeArray(body []byte) ([]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, false
	}
	return items, true
}

var errPoolNotFound = errors.New("pool not found")

// PoolInfo returns the first pool the API reports for poolID, verbatim.
func (a *PoolsAPI) PoolInfo(ctx context.Context, poolID string) (json.RawMessage, error) {
	ctx, span := a.tracer.Start(ctx, "bluefin.pool_info",
		trace.WithAttributes(attribute.String("pool_id", poolID)),
	)
	defer span.End()

	body, err := a.fetch(ctx, poolID, "pool_info")
	if err != nil {
		span.RecordError(err)
		return nil, apperror.External(apperror.CodeBluefinFetchFailed, poolID, err)
	}

	items, ok := decodeArray(body)
	if !ok || len(items) == 0 {
		return nil, apperror.New(apperror.CodePoolNotFound,
			apperror.WithMessage(apperror.Message(apperror.CodeBluefinFetchFailed)),
			apperror.WithContext(poolID),
			apperror.WithCause(errPoolNotFound),
		)
	}
	return items[0], nil
}

// PoolsInfo fetches all pools in one request. The API's array is returned as
// is; a non-array body yields an empty list and any failure fails the whole batch.
func (a *PoolsAPI) PoolsInfo(ctx context.Context, poolIDs []string) ([]json.RawMessage, error) {
	ctx, span := a.tracer.Start(ctx, "bluefin.pools_info",
		trace.WithAttributes(attribute.Int("pools", len(poolIDs))),
	)
	defer span.End()

	body, err := a.fetch(ctx, strings.Join(poolIDs, ","), "pools_info")
	if err != nil {
		span.RecordError(err)
		return nil, apperror.External(apperror.CodeBluefinBatchFailed, fmt.Sprintf("%d pools", len(poolIDs)), err)
	}

	items, ok := decodeArray(body)
	if !ok {
		return []json.RawMessage{}, nil
	}
	return items, nil
}
