package qualys

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/CodeMonkeyCybersecurity/agentdedup/pkg/dedup_err"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "https://qualysapi.test.invalid"

func newTestClient(t *testing.T, mutate func(*Config)) (*Client, *httpmock.MockTransport) {
	t.Helper()

	mock := httpmock.NewMockTransport()
	cfg := Config{
		PlatformURL: testBaseURL + "/",
		Login:       "api-user",
		Password:    "api-pass",
		Headers:     map[string]string{"X-Requested-With": "agentdedup"},
		MaxRetries:  0,
		RetryDelay:  time.Millisecond,
		PageSize:    2,
		Transport:   mock,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	client, err := NewClient(cfg)
	require.NoError(t, err)

	return client, mock
}

func hostAssetXML(id, name, address, modified string) string {
	return fmt.Sprintf(`<HostAsset><id>%s</id><name>%s</name><address>%s</address><created>2023-01-01T00:00:00Z</created><modified>%s</modified></HostAsset>`,
		id, name, address, modified)
}

func searchResponse(hasMore bool, assets ...string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<ServiceResponse>
  <responseCode>SUCCESS</responseCode>
  <count>%d</count>
  <hasMoreRecords>%t</hasMoreRecords>
  <data>%s</data>
</ServiceResponse>`, len(assets), hasMore, strings.Join(assets, ""))
}

func readSearchRequest(t *testing.T, req *http.Request) serviceRequest {
	t.Helper()
	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	var sr serviceRequest
	require.NoError(t, xml.Unmarshal(body, &sr))
	return sr
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Config{Login: "x"})
	assert.ErrorContains(t, err, "platform URL is required")

	_, err = NewClient(Config{PlatformURL: "not a url", Login: "x"})
	assert.ErrorContains(t, err, "invalid platform URL")

	_, err = NewClient(Config{PlatformURL: testBaseURL})
	assert.ErrorContains(t, err, "API login is required")

	c, err := NewClient(Config{PlatformURL: testBaseURL + "///", Login: "x"})
	require.NoError(t, err)
	assert.Equal(t, testBaseURL, c.baseURL)
	assert.Equal(t, DefaultPageSize, c.pageSize)
	assert.Equal(t, DefaultTrackingMethod, c.trackingMethod)
}

func TestListAgentsPaginates(t *testing.T) {
	client, mock := newTestClient(t, nil)

	var offsets []int
	mock.RegisterResponder(http.MethodPost, testBaseURL+searchHostAssetPath,
		func(req *http.Request) (*http.Response, error) {
			user, pass, ok := req.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "api-user", user)
			assert.Equal(t, "api-pass", pass)
			assert.Equal(t, "agentdedup", req.Header.Get("X-Requested-With"))
			assert.Equal(t, searchFields, req.URL.Query().Get("fields"))

			sr := readSearchRequest(t, req)
			require.NotNil(t, sr.Preferences)
			require.NotNil(t, sr.Filters)
			assert.Equal(t, "trackingMethod", sr.Filters.Criteria[0].Field)
			assert.Equal(t, "QAGENT", sr.Filters.Criteria[0].Value)
			assert.Equal(t, 2, sr.Preferences.LimitResults)
			offsets = append(offsets, sr.Preferences.StartFromOffset)

			switch sr.Preferences.StartFromOffset {
			case 1:
				return httpmock.NewStringResponse(200, searchResponse(true,
					hostAssetXML("101", "web1", "10.0.0.1", "2024-02-01T10:00:00Z"),
					hostAssetXML("102", "WEB1", "10.0.0.1", "2024-03-01T10:00:00.123Z"),
				)), nil
			case 3:
				return httpmock.NewStringResponse(200, searchResponse(false,
					hostAssetXML("103", "db1", "", ""),
				)), nil
			}
			return httpmock.NewStringResponse(500, "unexpected offset"), nil
		})

	list, err := client.ListAgents(t.Context())
	require.NoError(t, err)

	assert.Equal(t, []int{1, 3}, offsets)
	require.Len(t, list, 3)

	assert.Equal(t, "101", list[0].ID)
	assert.Equal(t, "web1", list[0].Hostname)
	assert.Equal(t, "10.0.0.1", list[0].Address)
	assert.Equal(t, time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC), list[0].LastActivity)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), list[0].Created)

	assert.Equal(t, "WEB1", list[1].Hostname, "hostname case is preserved")
	assert.True(t, list[1].LastActivity.After(list[0].LastActivity))

	assert.Equal(t, "103", list[2].ID)
	assert.False(t, list[2].HasAddress())
	assert.False(t, list[2].HasActivity())
}

func TestListAgentsErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		check     func(error) bool
		errSubstr string
	}{
		{
			name:   "http unauthorized",
			status: 401,
			body:   "denied",
			check:  dedup_err.IsAuthentication,
		},
		{
			name:   "invalid credentials code",
			status: 200,
			body: `<ServiceResponse><responseCode>INVALID_CREDENTIALS</responseCode>
<responseErrorDetails><errorMessage>Bad login</errorMessage></responseErrorDetails></ServiceResponse>`,
			check:     dedup_err.IsAuthentication,
			errSubstr: "Bad login",
		},
		{
			name:   "garbage body",
			status: 200,
			body:   "<html>maintenance",
			check:  dedup_err.IsMalformed,
		},
		{
			name:   "wrong root element",
			status: 200,
			body:   "<SomethingElse/>",
			check:  dedup_err.IsMalformed,
		},
		{
			name:      "missing id",
			status:    200,
			body:      searchResponse(false, `<HostAsset><name>web1</name><address>10.0.0.1</address></HostAsset>`),
			check:     dedup_err.IsMalformed,
			errSubstr: "has no id",
		},
		{
			name:      "invalid timestamp",
			status:    200,
			body:      searchResponse(false, hostAssetXML("1", "web1", "10.0.0.1", "yesterday")),
			check:     dedup_err.IsMalformed,
			errSubstr: "invalid modified timestamp",
		},
		{
			name:      "more records but empty page",
			status:    200,
			body:      searchResponse(true),
			check:     dedup_err.IsMalformed,
			errSubstr: "contains none",
		},
		{
			name:   "other failure code",
			status: 200,
			body:   `<ServiceResponse><responseCode>INVALID_REQUEST</responseCode></ServiceResponse>`,
			check:  dedup_err.IsMalformed,
		},
		{
			name:   "server error",
			status: 503,
			body:   "busy",
			check:  dedup_err.IsTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, mock := newTestClient(t, nil)
			mock.RegisterResponder(http.MethodPost, testBaseURL+searchHostAssetPath,
				httpmock.NewStringResponder(tt.status, tt.body))

			list, err := client.ListAgents(t.Context())
			require.Error(t, err)
			assert.Nil(t, list)
			assert.True(t, tt.check(err), "unexpected error class: %v", err)
			if tt.errSubstr != "" {
				assert.Contains(t, err.Error(), tt.errSubstr)
			}
		})
	}
}

func TestListAgentsRetriesTransientFailures(t *testing.T) {
	client, mock := newTestClient(t, func(c *Config) { c.MaxRetries = 2 })

	mock.RegisterResponder(http.MethodPost, testBaseURL+searchHostAssetPath,
		httpmock.NewStringResponder(503, "busy"))

	_, err := client.ListAgents(t.Context())
	require.Error(t, err)
	assert.True(t, dedup_err.IsTransient(err))
	assert.Equal(t, 3, mock.GetTotalCallCount())
}

func TestDeleteAgent(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantErr    bool
		check      func(error) bool
		wantCode   string
		wantCount  int
		notClassed bool
		wantMsg    string
	}{
		{
			name:      "success",
			status:    200,
			body:      `<ServiceResponse><responseCode>SUCCESS</responseCode><count>1</count></ServiceResponse>`,
			wantCode:  "SUCCESS",
			wantCount: 1,
		},
		{
			name:      "success without count",
			status:    200,
			body:      `<ServiceResponse><responseCode>SUCCESS</responseCode></ServiceResponse>`,
			wantCode:  "SUCCESS",
			wantCount: -1,
		},
		{
			name:       "success with zero count is a failure",
			status:     200,
			body:       `<ServiceResponse><responseCode>SUCCESS</responseCode><count>0</count></ServiceResponse>`,
			wantErr:    true,
			notClassed: true,
			wantMsg:    "uninstalled nothing",
		},
		{
			name:    "http not found",
			status:  404,
			body:    "",
			wantErr: true,
			check:   dedup_err.IsNotFound,
		},
		{
			name:    "not found code",
			status:  200,
			body:    `<ServiceResponse><responseCode>NOT_FOUND</responseCode></ServiceResponse>`,
			wantErr: true,
			check:   dedup_err.IsNotFound,
		},
		{
			name:    "unauthorized code",
			status:  200,
			body:    `<ServiceResponse><responseCode>UNAUTHORIZED_ACCESS</responseCode></ServiceResponse>`,
			wantErr: true,
			check:   dedup_err.IsAuthentication,
		},
		{
			name:    "garbage",
			status:  200,
			body:    "not xml",
			wantErr: true,
			check:   dedup_err.IsMalformed,
		},
		{
			name:       "vendor refusal",
			status:     200,
			body:       `<ServiceResponse><responseCode>OPERATION_NOT_SUPPORTED</responseCode></ServiceResponse>`,
			wantErr:    true,
			notClassed: true,
			wantMsg:    "OPERATION_NOT_SUPPORTED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, mock := newTestClient(t, nil)
			mock.RegisterResponder(http.MethodPost, testBaseURL+uninstallAssetPath+"42",
				func(req *http.Request) (*http.Response, error) {
					body, _ := io.ReadAll(req.Body)
					assert.Contains(t, string(body), "<ServiceRequest></ServiceRequest>")
					assert.Equal(t, "text/xml", req.Header.Get("Content-Type"))
					return httpmock.NewStringResponse(tt.status, tt.body), nil
				})

			status, err := client.DeleteAgent(t.Context(), "42")
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, tt.wantCode, status.ResponseCode)
				assert.Equal(t, tt.wantCount, status.Count)
				assert.Equal(t, tt.body, status.Raw)
				return
			}

			require.Error(t, err)
			if tt.check != nil {
				assert.True(t, tt.check(err), "unexpected error class: %v", err)
			}
			if tt.notClassed {
				assert.False(t, dedup_err.IsNotFound(err))
				assert.False(t, dedup_err.IsAuthentication(err))
				assert.False(t, dedup_err.IsTransient(err))
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestDeleteAgentRejectsEmptyID(t *testing.T) {
	client, mock := newTestClient(t, nil)

	_, err := client.DeleteAgent(t.Context(), "  ")
	require.Error(t, err)
	assert.Equal(t, 0, mock.GetTotalCallCount())
}
