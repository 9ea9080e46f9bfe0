package icd11

import (
	"context"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// DefaultTimeout bounds one upstream search request.
const DefaultTimeout = 10 * time.Second

// Credentials are OAuth2 client-credentials for an authenticated upstream.
// The zero value means the upstream is public.
type Credentials struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string
}

func (c Credentials) enabled() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.TokenURL != ""
}

// NewHTTPClient returns a client tuned for outbound search traffic. When
// creds are set, requests carry a bearer token obtained and refreshed via
// the client-credentials grant.
func NewHTTPClient(ctx context.Context, timeout time.Duration, creds Credentials) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	base := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   20,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   5 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
	if !creds.enabled() {
		return base
	}

	cfg := clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     creds.TokenURL,
		Scopes:       creds.Scopes,
	}
	client := cfg.Client(context.WithValue(ctx, oauth2.HTTPClient, base))
	client.Timeout = timeout
	return client
}
