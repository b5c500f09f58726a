// pkg/qualys/list.go

package qualys

import (
	"context"
	"net/http"
	"strings"

	"github.com/CodeMonkeyCybersecurity/agentdedup/pkg/agents"
	"github.com/CodeMonkeyCybersecurity/agentdedup/pkg/dedup_err"
	"github.com/CodeMonkeyCybersecurity/agentdedup/pkg/httpclient"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// ListAgents returns every cloud agent registration, paging through the
// search endpoint until the platform reports no more records. Any page error
// aborts the listing: a partial inventory is never returned.
func (c *Client) ListAgents(ctx context.Context) ([]agents.Agent, error) {
	log := otelzap.Ctx(ctx)
	log.Info("Fetching cloud agents from the API",
		zap.String("tracking_method", c.trackingMethod),
		zap.Int("page_size", c.pageSize))

	var all []agents.Agent
	offset := 1
	for page := 1; ; page++ {
		sr, err := c.searchPage(ctx, offset)
		if err != nil {
			return nil, cerr.Wrapf(err, "fetching agent page %d (offset %d)", page, offset)
		}

		parsed, err := toAgents(sr.HostAssets)
		if err != nil {
			return nil, cerr.Wrapf(err, "parsing agent page %d (offset %d)", page, offset)
		}
		all = append(all, parsed...)

		hasMore := strings.EqualFold(strings.TrimSpace(sr.HasMoreRecords), "true")
		log.Debug("Fetched agent page",
			zap.Int("page", page),
			zap.Int("offset", offset),
			zap.Int("records", len(parsed)),
			zap.Bool("has_more_records", hasMore))

		if !hasMore {
			break
		}
		if len(parsed) == 0 {
			return nil, dedup_err.NewMalformedResponseError(nil,
				"page %d (offset %d) reports more records but contains none", page, offset)
		}
		offset += c.pageSize
	}

	log.Info("Fetched cloud agents", zap.Int("count", len(all)))
	return all, nil
}

func (c *Client) searchPage(ctx context.Context, offset int) (*serviceResponse, error) {
	body, err := c.newSearchRequest(offset)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(ctx, httpclient.Request{
		Method:  http.MethodPost,
		URL:     c.baseURL + searchHostAssetPath + "?fields=" + searchFields,
		Body:    body,
		Headers: map[string]string{"Content-Type": "text/xml"},
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, dedup_err.NewMalformedResponseError(nil,
			"search returned unexpected status %d (%s)", resp.StatusCode, snippet(resp.Body))
	}

	sr, err := decodeResponse(resp.Body, "search host assets")
	if err != nil {
		return nil, err
	}

	switch code := strings.TrimSpace(sr.ResponseCode); {
	case code == responseSuccess:
		return sr, nil
	case isAuthCode(code):
		return nil, dedup_err.NewAuthenticationError(nil, "search rejected with %s: %s", code, responseDetail(sr))
	default:
		return nil, dedup_err.NewMalformedResponseError(nil, "search failed with %s: %s", code, responseDetail(sr))
	}
}

func toAgents(assets []hostAsset) ([]agents.Agent, error) {
	out := make([]agents.Agent, 0, len(assets))
	for i, a := range assets {
		id := strings.TrimSpace(a.ID)
		if id == "" {
			return nil, dedup_err.NewMalformedResponseError(nil, "HostAsset #%d has no id", i+1)
		}

		created, err := parseTimestamp(a.Created)
		if err != nil {
			return nil, dedup_err.NewMalformedResponseError(err, "HostAsset %s has invalid created timestamp %q", id, a.Created)
		}
		modified, err := parseTimestamp(a.Modified)
		if err != nil {
			return nil, dedup_err.NewMalformedResponseError(err, "HostAsset %s has invalid modified timestamp %q", id, a.Modified)
		}

		out = append(out, agents.Agent{
			ID:           id,
			Hostname:     strings.TrimSpace(a.Name),
			Address:      strings.TrimSpace(a.Address),
			Created:      created,
			LastActivity: modified,
		})
	}
	return out, nil
}
