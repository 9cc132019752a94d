package http

import (
	nethttp "net/http"
	"net/url"
	"testing"

	ntlmssp "github.com/Azure/go-ntlmssp"

	"github.com/genefit/genefit-link/internal/config"
)

func TestProxyFuncWithBypass(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")

	tests := []struct {
		name      string
		noProxy   string
		target    string
		wantProxy bool
	}{
		{"empty list proxies everything", "", "https://api.genefit.test/api/", true},
		{"wildcard bypasses subdomain", "*.genefit.test", "https://api.genefit.test/api/", false},
		{"plain domain bypasses subdomain", "genefit.test", "https://api.genefit.test/api/", false},
		{"cidr bypasses ip in range", "10.0.0.0/8", "http://10.1.2.3:8001/api/", false},
		{"cidr proxies ip out of range", "10.0.0.0/8", "http://192.168.1.5:8001/api/", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := proxyFuncWithBypass(proxyURL, tt.noProxy)
			req, _ := nethttp.NewRequest("GET", tt.target, nil)
			got, err := fn(req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if (got != nil) != tt.wantProxy {
				t.Errorf("proxied = %v, want %v", got != nil, tt.wantProxy)
			}
		})
	}
}

func TestBuildProxyURL(t *testing.T) {
	cfg := config.NewConfig()
	cfg.ProxyHost = "proxy.local"

	u := buildProxyURL(cfg)
	if u.Host != "proxy.local:8080" {
		t.Errorf("default port not applied: %s", u.Host)
	}
	if u.User != nil {
		t.Error("credentials must not be embedded without a password")
	}

	cfg.ProxyPort = 3128
	cfg.ProxyUser = "alice"
	cfg.ProxyPassword = "pw"
	u = buildProxyURL(cfg)
	if u.Host != "proxy.local:3128" || u.User == nil || u.User.Username() != "alice" {
		t.Errorf("unexpected proxy url %s", u)
	}
}

func TestConfigureHTTPClientModes(t *testing.T) {
	cfg := config.NewConfig()

	client, err := ConfigureHTTPClient(cfg)
	if err != nil {
		t.Fatalf("no-proxy: %v", err)
	}
	if tr := client.Transport.(*nethttp.Transport); tr.Proxy != nil {
		t.Error("no-proxy mode should not set a proxy func")
	}

	cfg.ProxyMode = "ntlm"
	cfg.ProxyHost = "proxy.local"
	client, err = ConfigureHTTPClient(cfg)
	if err != nil {
		t.Fatalf("ntlm: %v", err)
	}
	if _, ok := client.Transport.(ntlmssp.Negotiator); !ok {
		t.Errorf("ntlm mode should wrap transport in Negotiator, got %T", client.Transport)
	}

	cfg.ProxyMode = "socks"
	if _, err := ConfigureHTTPClient(cfg); err == nil {
		t.Error("expected error for unsupported proxy mode")
	}
}

func TestNewClientDisablesHTTP2BehindProxy(t *testing.T) {
	cfg := config.NewConfig()
	cfg.ProxyMode = "basic"
	cfg.ProxyHost = "proxy.local"

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	tr := client.Transport.(*nethttp.Transport)
	if tr.ForceAttemptHTTP2 {
		t.Error("HTTP/2 should be disabled when a proxy is active")
	}
}

func TestNeedsProxyPassword(t *testing.T) {
	cfg := config.NewConfig()
	if NeedsProxyPassword(cfg) {
		t.Error("no-proxy never needs a password")
	}
	cfg.ProxyMode = "basic"
	cfg.ProxyUser = "alice"
	if !NeedsProxyPassword(cfg) {
		t.Error("basic with user and no password needs a password")
	}
	cfg.ProxyPassword = "pw"
	if NeedsProxyPassword(cfg) {
		t.Error("password already provided")
	}
}
