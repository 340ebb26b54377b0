package transport

import (
	"crypto/tls"
	"net/http"

	"github.com/goliatone/go-surveyhooks/core"
)

// NewHTTPClient builds the outbound client. There is no client timeout; calls
// are bounded by the caller context or TransportRequest.Timeout. Certificate
// verification is skipped when cfg.InsecureSkipVerify is set.
func NewHTTPClient(cfg core.TransportConfig) *http.Client {
	var roundTripper *http.Transport
	if base, ok := http.DefaultTransport.(*http.Transport); ok {
		roundTripper = base.Clone()
	} else {
		roundTripper = &http.Transport{Proxy: http.ProxyFromEnvironment}
	}
	if cfg.InsecureSkipVerify {
		if roundTripper.TLSClientConfig == nil {
			roundTripper.TLSClientConfig = &tls.Config{}
		}
		roundTripper.TLSClientConfig.InsecureSkipVerify = true //nolint:gosec
	}
	return &http.Client{Transport: roundTripper}
}
