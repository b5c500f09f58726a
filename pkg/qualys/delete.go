// pkg/qualys/delete.go

package qualys

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/CodeMonkeyCybersecurity/agentdedup/pkg/agents"
	"github.com/CodeMonkeyCybersecurity/agentdedup/pkg/dedup_err"
	"github.com/CodeMonkeyCybersecurity/agentdedup/pkg/httpclient"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// DeleteAgent uninstalls the agent with the given ID. An agent that no longer
// exists yields an error for which dedup_err.IsNotFound is true. Uninstalls
// bypass the circuit breaker so each removal is attempted on its own.
func (c *Client) DeleteAgent(ctx context.Context, id string) (agents.RemovalStatus, error) {
	var status agents.RemovalStatus

	id = strings.TrimSpace(id)
	if id == "" {
		return status, cerr.New("agent id is required")
	}

	body, err := marshalRequest(serviceRequest{})
	if err != nil {
		return status, err
	}

	resp, err := c.http.Do(ctx, httpclient.Request{
		Method:  http.MethodPost,
		URL:     c.baseURL + uninstallAssetPath + url.PathEscape(id),
		Body:    body,
		Headers: map[string]string{"Content-Type": "text/xml"},

		BypassBreaker: true,
	})
	if err != nil {
		return status, cerr.Wrapf(err, "uninstall agent %s", id)
	}

	status.Raw = string(resp.Body)
	if resp.StatusCode == http.StatusNotFound {
		return status, dedup_err.NewNotFoundError(id)
	}
	if resp.StatusCode >= 400 {
		return status, cerr.Newf("uninstall agent %s: unexpected status %d (%s)", id, resp.StatusCode, snippet(resp.Body))
	}

	sr, err := decodeResponse(resp.Body, "uninstall agent "+id)
	if err != nil {
		return status, err
	}

	status.ResponseCode = strings.TrimSpace(sr.ResponseCode)
	status.Count = -1
	if raw := strings.TrimSpace(sr.Count); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return status, dedup_err.NewMalformedResponseError(err, "uninstall agent %s: invalid count %q", id, raw)
		}
		status.Count = n
	}

	otelzap.Ctx(ctx).Debug("Uninstall response",
		zap.String("agent_id", id),
		zap.String("response_code", status.ResponseCode),
		zap.Int("count", status.Count))

	switch code := status.ResponseCode; {
	case code == responseSuccess && status.Count == 0:
		return status, cerr.Newf("uninstall agent %s returned SUCCESS but uninstalled nothing", id)
	case code == responseSuccess:
		return status, nil
	case code == responseNotFound:
		return status, dedup_err.NewNotFoundError(id)
	case isAuthCode(code):
		return status, dedup_err.NewAuthenticationError(nil, "uninstall agent %s rejected with %s: %s", id, code, responseDetail(sr))
	default:
		return status, cerr.Newf("uninstall agent %s failed with %s: %s", id, code, responseDetail(sr))
	}
}
