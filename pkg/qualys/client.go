// pkg/qualys/client.go

package qualys

import (
	"encoding/xml"
	"net/url"
	"strings"
	"time"

	"github.com/CodeMonkeyCybersecurity/agentdedup/pkg/dedup_err"
	"github.com/CodeMonkeyCybersecurity/agentdedup/pkg/httpclient"
	cerr "github.com/cockroachdb/errors"
)

// Client is the vendor API client. All calls go through one throttled,
// retrying httpclient.Client so the configured request delay applies across
// list and delete operations alike.
type Client struct {
	baseURL        string
	pageSize       int
	trackingMethod string
	http           *httpclient.Client
}

// NewClient validates cfg and builds a client.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.PlatformURL), "/")
	if base == "" {
		return nil, cerr.New("platform URL is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, cerr.Wrapf(err, "invalid platform URL %q", base)
	}
	if cfg.Login == "" {
		return nil, cerr.New("API login is required")
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	tracking := cfg.TrackingMethod
	if tracking == "" {
		tracking = DefaultTrackingMethod
	}

	hc := httpclient.DefaultConfig()
	hc.Headers = cfg.Headers
	hc.Transport = cfg.Transport
	hc.AuthConfig = &httpclient.AuthConfig{
		Type:     httpclient.AuthTypeBasic,
		Username: cfg.Login,
		Password: cfg.Password,
	}
	hc.RateLimitConfig.MinInterval = cfg.RequestDelay
	if cfg.Timeout > 0 {
		hc.Timeout = cfg.Timeout
	}
	if cfg.MaxRetries >= 0 {
		hc.RetryConfig.MaxRetries = cfg.MaxRetries
	}
	if cfg.RetryDelay > 0 {
		hc.RetryConfig.InitialDelay = cfg.RetryDelay
		if hc.RetryConfig.MaxDelay < cfg.RetryDelay {
			hc.RetryConfig.MaxDelay = cfg.RetryDelay
		}
	}

	transport, err := httpclient.NewClient(hc)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL:        base,
		pageSize:       pageSize,
		trackingMethod: tracking,
		http:           transport,
	}, nil
}

// newSearchRequest builds the XML payload for one page of the agent search.
func (c *Client) newSearchRequest(offset int) ([]byte, error) {
	req := serviceRequest{
		Filters: &filters{Criteria: []criteria{{
			Field:    "trackingMethod",
			Operator: "EQUALS",
			Value:    c.trackingMethod,
		}}},
		Preferences: &preferences{
			LimitResults:    c.pageSize,
			StartFromOffset: offset,
		},
	}
	return marshalRequest(req)
}

func marshalRequest(req serviceRequest) ([]byte, error) {
	body, err := xml.Marshal(req)
	if err != nil {
		return nil, cerr.Wrap(err, "failed to marshal service request")
	}
	return append([]byte(xml.Header), body...), nil
}

// decodeResponse parses a ServiceResponse and maps non-success codes.
// opDesc is used in error messages.
func decodeResponse(body []byte, opDesc string) (*serviceResponse, error) {
	var sr serviceResponse
	if err := xml.Unmarshal(body, &sr); err != nil {
		return nil, dedup_err.NewMalformedResponseError(err, "%s: cannot parse response (%s)", opDesc, snippet(body))
	}
	if strings.TrimSpace(sr.ResponseCode) == "" {
		return nil, dedup_err.NewMalformedResponseError(nil, "%s: response has no responseCode (%s)", opDesc, snippet(body))
	}
	return &sr, nil
}

func responseDetail(sr *serviceResponse) string {
	detail := strings.TrimSpace(sr.ErrorMessage)
	if res := strings.TrimSpace(sr.ErrorResolution); res != "" {
		if detail != "" {
			detail += "; "
		}
		detail += res
	}
	return detail
}

func isAuthCode(code string) bool {
	return code == responseInvalidCredentials || code == responseUnauthorized
}

func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// snippet trims a payload for inclusion in error messages.
func snippet(body []byte) string {
	const max = 256
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
