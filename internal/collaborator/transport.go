// Package collaborator talks to the persistence service over HTTP. All calls go
// through one Sender, whatever wire protocol is configured.
package collaborator

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/quic-go/quic-go/http3"
	"golang.org/x/net/http2"
)

// Protocol selects the transport used for collaborator calls.
type Protocol string

const (
	ProtocolHTTP1 Protocol = "http1"
	ProtocolHTTP2 Protocol = "http2"
	ProtocolHTTP3 Protocol = "http3"
)

var ErrUnknownProtocol = errors.New("unknown collaborator protocol")

// ParseProtocol accepts the configured protocol name. Empty means http1.
func ParseProtocol(s string) (Protocol, error) {
	switch p := Protocol(s); p {
	case "":
		return ProtocolHTTP1, nil
	case ProtocolHTTP1, ProtocolHTTP2, ProtocolHTTP3:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProtocol, s)
	}
}

// NewTransport builds the round tripper for p. http2 speaks h2c against
// plain http URLs and regular HTTP/2 over TLS.
func NewTransport(p Protocol) (http.RoundTripper, error) {
	switch p {
	case ProtocolHTTP1, "":
		return &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
			MaxIdleConnsPerHost: 32,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   false,
			TLSNextProto:        map[string]func(string, *tls.Conn) http.RoundTripper{},
		}, nil
	case ProtocolHTTP2:
		h2c := &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, network, addr)
			},
		}
		return byScheme{plain: h2c, secure: &http2.Transport{}}, nil
	case ProtocolHTTP3:
		return &http3.Transport{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProtocol, string(p))
	}
}

// byScheme sends plain http requests as h2c and https requests as HTTP/2 over TLS.
type byScheme struct {
	plain  *http2.Transport
	secure *http2.Transport
}

func (b byScheme) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme == "http" {
		return b.plain.RoundTrip(req)
	}
	return b.secure.RoundTrip(req)
}

func (b byScheme) CloseIdleConnections() {
	b.plain.CloseIdleConnections()
	b.secure.CloseIdleConnections()
}
