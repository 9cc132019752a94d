package http

import (
	"crypto/tls"
	nethttp "net/http"
	"os"

	"golang.org/x/net/http2"

	"github.com/genefit/genefit-link/internal/config"
)

// NewClient returns the proxy-aware client used for API calls and for reading
// remote file sources (S3, Azure Blob).
//
// HTTP/2 is attempted on direct connections. It is disabled whenever a proxy is
// active, or when DISABLE_HTTP2=true, since many proxies mishandle multiplexed streams.
func NewClient(cfg *config.Config) (*nethttp.Client, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}

	client, err := ConfigureHTTPClient(cfg)
	if err != nil {
		return nil, err
	}

	// NTLM wraps the transport in a Negotiator; leave it as-is
	tr, ok := client.Transport.(*nethttp.Transport)
	if !ok {
		return client, nil
	}

	tr.ForceAttemptHTTP2 = true
	_ = http2.ConfigureTransport(tr)

	if os.Getenv("DISABLE_HTTP2") == "true" || proxyActive(cfg) {
		tr.ForceAttemptHTTP2 = false
		tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
	}

	return client, nil
}

func proxyActive(cfg *config.Config) bool {
	switch cfg.ProxyMode {
	case "no-proxy", "":
		return false
	case "system":
		return os.Getenv("HTTP_PROXY") != "" || os.Getenv("HTTPS_PROXY") != "" ||
			os.Getenv("http_proxy") != "" || os.Getenv("https_proxy") != ""
	default:
		return true
	}
}
