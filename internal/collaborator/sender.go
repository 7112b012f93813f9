package collaborator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"storefront-auth/internal/domain"
)

const maxResponseBytes = 1 << 20

// Request is an immutable description of one collaborator call. Build a new
// one per call with Get or Post.
type Request struct {
	method string
	path   string
	query  string
	body   []byte
}

// Get describes a GET of path with the given query parameters.
func Get(path string, query url.Values) Request {
	return Request{method: http.MethodGet, path: path, query: query.Encode()}
}

// Post describes a POST of path with v encoded as the JSON body.
func Post(path string, v any) (Request, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return Request{}, fmt.Errorf("encode %s body: %w", path, err)
	}
	return Request{method: http.MethodPost, path: path, body: body}, nil
}

func (r Request) Method() string { return r.method }
func (r Request) Path() string   { return r.path }

// Response is a successful (status < 400) collaborator reply.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v.
func (r Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrUnavailable, err)
	}
	return nil
}

// Sender performs collaborator calls. A 404 reply is domain.ErrNotFound; any
// other failure wraps domain.ErrUnavailable.
type Sender interface {
	Send(ctx context.Context, req Request) (Response, error)
}

// CallObserver receives one event per finished call.
type CallObserver interface {
	ObserveCollaboratorCall(method, path, outcome string, elapsed time.Duration)
}

// HTTPSender is the Sender used in production.
type HTTPSender struct {
	base     *url.URL
	client   *http.Client
	timeout  time.Duration
	logger   *zap.Logger
	observer CallObserver
}

// SenderConfig configures an HTTPSender.
type SenderConfig struct {
	BaseURL  string
	Protocol Protocol
	Timeout  time.Duration
	Observer CallObserver
}

func NewHTTPSender(cfg SenderConfig, logger *zap.Logger) (*HTTPSender, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid collaborator base url %q", cfg.BaseURL)
	}
	rt, err := NewTransport(cfg.Protocol)
	if err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPSender{
		base:     base,
		client:   &http.Client{Transport: rt},
		timeout:  cfg.Timeout,
		logger:   logger,
		observer: cfg.Observer,
	}, nil
}

// Send issues req once. There are no retries.
func (s *HTTPSender) Send(ctx context.Context, req Request) (Response, error) {
	start := time.Now()
	resp, err := s.send(ctx, req)
	outcome := "ok"
	switch {
	case errors.Is(err, domain.ErrNotFound):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
	}
	elapsed := time.Since(start)
	if s.observer != nil {
		s.observer.ObserveCollaboratorCall(req.method, req.path, outcome, elapsed)
	}
	s.logger.Debug("collaborator call",
		zap.String("method", req.method),
		zap.String("path", req.path),
		zap.String("outcome", outcome),
		zap.Duration("elapsed", elapsed),
	)
	return resp, err
}

func (s *HTTPSender) send(ctx context.Context, req Request) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	u := s.base.JoinPath(req.path)
	u.RawQuery = req.query

	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return Response{}, fmt.Errorf("%w: build request: %v", domain.ErrUnavailable, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := s.client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %s %s: %v", domain.ErrUnavailable, req.method, req.path, err)
	}
	defer httpResp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return Response{}, fmt.Errorf("%w: read %s: %v", domain.ErrUnavailable, req.path, err)
	}

	switch {
	case httpResp.StatusCode == http.StatusNotFound:
		return Response{}, fmt.Errorf("%s: %w", req.path, domain.ErrNotFound)
	case httpResp.StatusCode >= http.StatusBadRequest:
		return Response{}, fmt.Errorf("%w: %s %s returned %d", domain.ErrUnavailable, req.method, req.path, httpResp.StatusCode)
	}
	return Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: payload}, nil
}

// Close releases pooled connections. HTTP/3 transports also close their QUIC endpoint.
func (s *HTTPSender) Close() error {
	s.client.CloseIdleConnections()
	if c, ok := s.client.Transport.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
