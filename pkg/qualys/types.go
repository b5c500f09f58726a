// pkg/qualys/types.go

// Package qualys talks to the Qualys QPS REST 2.0 asset management API: it
// searches host assets tracked by cloud agent and uninstalls agents by ID.
package qualys

import (
	"encoding/xml"
	"net/http"
	"time"
)

const (
	searchHostAssetPath = "/qps/rest/2.0/search/am/hostasset"
	searchFields        = "name,id,address,modified,created"
	uninstallAssetPath  = "/qps/rest/2.0/uninstall/am/asset/"

	// DefaultPageSize is the largest page the platform will return.
	DefaultPageSize = 1000
	// DefaultTrackingMethod selects assets registered through cloud agents.
	DefaultTrackingMethod = "QAGENT"

	responseSuccess            = "SUCCESS"
	responseInvalidCredentials = "INVALID_CREDENTIALS"
	responseUnauthorized       = "UNAUTHORIZED_ACCESS"
	responseNotFound           = "NOT_FOUND"
)

// Config carries everything the client needs. It is passed explicitly so the
// client never reads ambient process state.
type Config struct {
	PlatformURL    string
	Login          string
	Password       string
	Headers        map[string]string
	RequestDelay   time.Duration
	Timeout        time.Duration
	MaxRetries     int // used as given; negative keeps the transport default
	RetryDelay     time.Duration
	PageSize       int
	TrackingMethod string

	// Transport, when set, replaces the base round tripper beneath the
	// otelhttp instrumentation.
	Transport http.RoundTripper
}

type serviceRequest struct {
	XMLName     xml.Name     `xml:"ServiceRequest"`
	Filters     *filters     `xml:"filters,omitempty"`
	Preferences *preferences `xml:"preferences,omitempty"`
}

type filters struct {
	Criteria []criteria `xml:"Criteria"`
}

type criteria struct {
	Field    string `xml:"field,attr"`
	Operator string `xml:"operator,attr"`
	Value    string `xml:",chardata"`
}

type preferences struct {
	LimitResults    int `xml:"limitResults"`
	StartFromOffset int `xml:"startFromOffset"`
}

type serviceResponse struct {
	XMLName         xml.Name    `xml:"ServiceResponse"`
	ResponseCode    string      `xml:"responseCode"`
	Count           string      `xml:"count"`
	HasMoreRecords  string      `xml:"hasMoreRecords"`
	HostAssets      []hostAsset `xml:"data>HostAsset"`
	ErrorMessage    string      `xml:"responseErrorDetails>errorMessage"`
	ErrorResolution string      `xml:"responseErrorDetails>errorResolution"`
}

type hostAsset struct {
	ID       string `xml:"id"`
	Name     string `xml:"name"`
	Address  string `xml:"address"`
	Created  string `xml:"created"`
	Modified string `xml:"modified"`
}
