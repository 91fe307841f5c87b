package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/patrickmn/go-cache"

	"github.com/ecoalliance/cotizador/internal/config"
)

// ErrUnknownWebhook is returned when no endpoint is registered under a name.
var ErrUnknownWebhook = errors.New("unknown webhook")

// Client forwards requests to named upstream webhooks.
type Client interface {
	Has(name string) bool
	Forward(ctx context.Context, req ForwardRequest) (*ForwardResponse, error)
}

// ForwardRequest describes an inbound call to relay. Query is sent on GET,
// Body on POST.
type ForwardRequest struct {
	Webhook string
	Method  string
	Query   url.Values
	Body    []byte
}

// ForwardResponse is the upstream reply, relayed verbatim.
type ForwardResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
	endpoints  map[string]string
	// lookups holds successful GET answers when a cache TTL is configured.
	lookups *cache.Cache
}

// NewClient builds a webhook client over the configured endpoint map.
func NewClient(cfg config.WebhookConfig) *APIClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	endpoints := make(map[string]string, len(cfg.Endpoints))
	for name, target := range cfg.Endpoints {
		if target != "" {
			endpoints[name] = target
		}
	}

	c := &APIClient{
		httpClient: resty.New().SetTimeout(timeout),
		endpoints:  endpoints,
	}
	if cfg.CacheTTL > 0 {
		c.lookups = cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	return c
}

// Has reports whether name is a registered webhook.
func (c *APIClient) Has(name string) bool {
	_, ok := c.endpoints[name]
	return ok
}

// Names lists the registered webhooks in lexical order.
func (c *APIClient) Names() []string {
	names := make([]string, 0, len(c.endpoints))
	for name := range c.endpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Forward relays the request to the named webhook. Upstream error statuses
// are not errors: they come back in the response untouched.
func (c *APIClient) Forward(ctx context.Context, req ForwardRequest) (*ForwardResponse, error) {
	target, ok := c.endpoints[req.Webhook]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWebhook, req.Webhook)
	}

	cacheKey := ""
	if c.lookups != nil && req.Method == http.MethodGet {
		cacheKey = req.Webhook + "?" + req.Query.Encode()
		if hit, found := c.lookups.Get(cacheKey); found {
			return hit.(*ForwardResponse), nil
		}
	}

	r := c.httpClient.R().SetContext(ctx)

	var (
		resp *resty.Response
		err  error
	)
	switch req.Method {
	case http.MethodGet:
		resp, err = r.SetQueryParamsFromValues(req.Query).Get(target)
	case http.MethodPost:
		resp, err = r.
			SetHeader("Content-Type", "application/json").
			SetBody(jsonBody(req.Body)).
			Post(target)
	default:
		return nil, fmt.Errorf("webhook %s: unsupported method %s", req.Webhook, req.Method)
	}
	if err != nil {
		return nil, fmt.Errorf("forward to webhook %s: %w", req.Webhook, err)
	}

	out := &ForwardResponse{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.Body(),
	}
	if cacheKey != "" && out.StatusCode >= 200 && out.StatusCode < 300 {
		c.lookups.SetDefault(cacheKey, out)
	}
	return out, nil
}

// jsonBody mirrors the front-end contract: anything that is not JSON is
// forwarded as an empty object.
func jsonBody(body []byte) []byte {
	if len(body) == 0 || !json.Valid(body) {
		return []byte("{}")
	}
	return body
}
