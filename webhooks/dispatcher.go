package webhooks

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-surveyhooks/core"
)

const (
	QueryAuthKey = "zapikey"
	QueryDebug   = "isdebug"
)

var ErrDeliveryURLRequired = errors.New("webhooks: delivery url is required")

type DispatcherOption func(*Dispatcher)

// WithDispatcherClock replaces the clock used for elapsed time.
func WithDispatcherClock(clock core.Clock) DispatcherOption {
	return func(d *Dispatcher) {
		if clock != nil {
			d.clock = clock
		}
	}
}

func WithResponseBodyLimit(limit int64) DispatcherOption {
	return func(d *Dispatcher) {
		if limit > 0 {
			d.maxResponseBodyBytes = limit
		}
	}
}

// Dispatcher sends one rendered payload per call. It never retries and never
// raises: failures come back on DeliveryResult.Err.
type Dispatcher struct {
	transports           core.TransportResolver
	clock                core.Clock
	maxResponseBodyBytes int64
}

func NewDispatcher(transports core.TransportResolver, opts ...DispatcherOption) *Dispatcher {
	dispatcher := &Dispatcher{
		transports: transports,
		clock:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(dispatcher)
		}
	}
	return dispatcher
}

func (d *Dispatcher) Send(ctx context.Context, req core.DeliveryRequest) core.DeliveryResult {
	method := req.Method
	if method != core.MethodGet {
		method = core.MethodPost
	}
	result := core.DeliveryResult{Method: method, URL: strings.TrimSpace(req.URL)}
	if result.URL == "" {
		result.Err = ErrDeliveryURLRequired
		return result
	}
	if d == nil || d.transports == nil {
		result.Err = errors.New("webhooks: dispatcher has no transport resolver")
		return result
	}

	kind, transportReq, err := buildTransportRequest(method, result.URL, req)
	if err != nil {
		result.Err = err
		return result
	}
	transportReq.MaxResponseBodyBytes = d.maxResponseBodyBytes
	result.URL = core.AppendRawQuery(transportReq.URL, transportReq.RawQuery)

	adapter, err := d.transports.Resolve(kind)
	if err != nil {
		result.Err = err
		return result
	}

	startedAt := d.clock()
	response, err := adapter.Do(ctx, transportReq)
	result.Elapsed = d.clock().Sub(startedAt)
	result.StatusCode = response.StatusCode
	result.Body = response.Body
	result.Err = err
	return result
}

// buildTransportRequest picks the transport kind for the payload. GET carries
// the whole payload in the query; POST appends the auth key query and sends
// the payload as the body.
func buildTransportRequest(method core.RequestMethod, target string, req core.DeliveryRequest) (string, core.TransportRequest, error) {
	payload := req.Payload
	if payload == nil {
		payload = core.NewPayload(core.PayloadFormatForm)
	}
	if method == core.MethodGet {
		return core.TransportKindQuery, core.TransportRequest{
			Method:   string(core.MethodGet),
			URL:      target,
			RawQuery: payload.EncodeForm(),
		}, nil
	}

	transportReq := core.TransportRequest{
		Method:   string(core.MethodPost),
		URL:      target,
		RawQuery: QueryAuthKey + "=" + url.QueryEscape(req.AuthKey) + "&" + QueryDebug + "=false",
	}
	if payload.Format == core.PayloadFormatJSON {
		body, err := payload.MarshalJSON()
		if err != nil {
			return "", core.TransportRequest{}, err
		}
		transportReq.Body = body
		return core.TransportKindJSON, transportReq, nil
	}
	transportReq.Body = []byte(payload.EncodeForm())
	return core.TransportKindForm, transportReq, nil
}

var _ core.Dispatcher = (*Dispatcher)(nil)
