package flowx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/pool-service/internal/apperror"
	"github.com/fd1az/pool-service/internal/httpclient"
)

const (
	positionsEndpoint = "/clmm/positions"
	poolsEndpoint     = "/clmm/pools/"
)

var errPoolNotFound = errors.New("pool not found")

// API reads CLMM positions and pools from the FlowX REST API.
type API struct {
	client httpclient.Client
	tracer trace.Tracer
}

// NewAPI creates an API over an instrumented client whose base URL points
// at the FlowX API host.
func NewAPI(client httpclient.Client, tracer trace.Tracer) *API {
	return &API{client: client, tracer: tracer}
}

// Positions returns every CLMM position owned by owner, pools embedded.
func (a *API) Positions(ctx context.Context, owner string) ([]RawPosition, error) {
	ctx, span := a.tracer.Start(ctx, "flowx.positions",
		trace.WithAttributes(attribute.String("owner", owner)),
	)
	defer span.End()

	resp, err := a.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "positions")),
	).
		SetQueryParam("owner", owner).
		Get(ctx, positionsEndpoint)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.External(apperror.CodeExternalServiceError, "flowx positions", err)
	}

	body := unwrapData(resp.Body())
	if len(body) == 0 || string(body) == "null" {
		return []RawPosition{}, nil
	}

	var positions []RawPosition
	if err := json.Unmarshal(body, &positions); err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeMalformedPosition,
			apperror.WithContext(owner), apperror.WithCause(err))
	}
	if positions == nil {
		positions = []RawPosition{}
	}
	span.SetAttributes(attribute.Int("positions", len(positions)))
	return positions, nil
}

// Pool returns one pool. A 404 or an empty payload is reported as not found.
func (a *API) Pool(ctx context.Context, poolID string) (*RawPool, error) {
	ctx, span := a.tracer.Start(ctx, "flowx.pool",
		trace.WithAttributes(attribute.String("pool_id", poolID)),
	)
	defer span.End()

	resp, err := a.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "pool")),
	).Get(ctx, poolsEndpoint+url.PathEscape(poolID))
	if err != nil {
		span.RecordError(err)
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, poolNotFound(poolID, err)
		}
		return nil, apperror.External(apperror.CodeFlowXFetchFailed, poolID, err)
	}

	body := unwrapData(resp.Body())
	if len(body) == 0 || string(body) == "null" {
		return nil, poolNotFound(poolID, errPoolNotFound)
	}

	var pool RawPool
	if err := json.Unmarshal(body, &pool); err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeMalformedPool,
			apperror.WithContext(poolID), apperror.WithCause(err))
	}
	if pool.ID == "" {
		return nil, poolNotFound(poolID, errPoolNotFound)
	}
	return &pool, nil
}

func poolNotFound(poolID string, cause error) error {
	return apperror.New(apperror.CodePoolNotFound,
		apperror.WithMessage(apperror.Message(apperror.CodeFlowXFetchFailed)),
		apperror.WithContext(poolID),
		apperror.WithCause(cause),
	)
}
