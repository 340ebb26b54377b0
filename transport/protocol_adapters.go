package transport

import (
	"context"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-surveyhooks/core"
)

const (
	KindForm  = core.TransportKindForm
	KindJSON  = core.TransportKindJSON
	KindQuery = core.TransportKindQuery
)

// ProtocolHTTPAdapter is a RESTAdapter with a fixed default method and
// content headers for one payload encoding.
type ProtocolHTTPAdapter struct {
	kind          string
	defaultMethod string
	defaultHeader map[string]string
	rest          *RESTAdapter
}

func NewFormAdapter(client HTTPDoer) *ProtocolHTTPAdapter {
	return newProtocolHTTPAdapter(KindForm, client, http.MethodPost, map[string]string{
		"Content-Type": "application/x-www-form-urlencoded",
	})
}

func NewJSONAdapter(client HTTPDoer) *ProtocolHTTPAdapter {
	return newProtocolHTTPAdapter(KindJSON, client, http.MethodPost, map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
	})
}

// NewQueryAdapter sends everything in the url; request bodies are dropped.
func NewQueryAdapter(client HTTPDoer) *ProtocolHTTPAdapter {
	return newProtocolHTTPAdapter(KindQuery, client, http.MethodGet, nil)
}

func newProtocolHTTPAdapter(kind string, client HTTPDoer, defaultMethod string, defaultHeaders map[string]string) *ProtocolHTTPAdapter {
	return &ProtocolHTTPAdapter{
		kind:          normalizeKind(kind),
		defaultMethod: strings.TrimSpace(strings.ToUpper(defaultMethod)),
		defaultHeader: cloneHeaders(defaultHeaders),
		rest:          NewRESTAdapter(client),
	}
}

func (a *ProtocolHTTPAdapter) Kind() string {
	if a == nil {
		return ""
	}
	return a.kind
}

// WithResponseBodyLimit sets the adapter wide response cap; zero keeps the default.
func (a *ProtocolHTTPAdapter) WithResponseBodyLimit(limit int64) *ProtocolHTTPAdapter {
	if a != nil && a.rest != nil && limit > 0 {
		a.rest.MaxResponseBodyBytes = limit
	}
	return a
}

func (a *ProtocolHTTPAdapter) Do(ctx context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	if a == nil || a.rest == nil {
		return core.TransportResponse{}, deliveryError(
			nil,
			goerrors.CategoryInternal,
			"transport: protocol adapter is nil",
			nil,
		)
	}
	resolved := req
	if strings.TrimSpace(resolved.Method) == "" {
		resolved.Method = a.defaultMethod
	}
	if a.kind == KindQuery {
		resolved.Body = nil
	}
	headers := cloneHeaders(a.defaultHeader)
	for key, value := range req.Headers {
		trimmed := strings.TrimSpace(key)
		if trimmed == "" {
			continue
		}
		headers[trimmed] = strings.TrimSpace(value)
	}
	resolved.Headers = headers
	response, err := a.rest.Do(ctx, resolved)
	if err != nil {
		return core.TransportResponse{}, err
	}
	response.Metadata = cloneMetadata(response.Metadata)
	response.Metadata["kind"] = a.kind
	response.Metadata["protocol_adapter"] = a.kind
	return response, nil
}

func cloneHeaders(input map[string]string) map[string]string {
	if len(input) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(input))
	for key, value := range input {
		trimmed := strings.TrimSpace(key)
		if trimmed == "" {
			continue
		}
		out[trimmed] = strings.TrimSpace(value)
	}
	return out
}

func cloneMetadata(input map[string]any) map[string]any {
	if len(input) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(input))
	for key, value := range input {
		out[key] = value
	}
	return out
}

var _ core.TransportAdapter = (*ProtocolHTTPAdapter)(nil)
