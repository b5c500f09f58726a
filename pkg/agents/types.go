// pkg/agents/types.go

// Package agents holds the cloud agent record shared by the vendor client and
// the duplicate detector.
package agents

import (
	"strings"
	"time"
)

// Agent is one cloud agent registration as reported by the asset platform.
// Values are never mutated after parsing.
type Agent struct {
	ID           string    `json:"id"`
	Hostname     string    `json:"hostname"`
	Address      string    `json:"address"`
	Created      time.Time `json:"created"`
	LastActivity time.Time `json:"last_activity"`
}

// Key identifies the host an agent reports from.
type Key struct {
	Hostname string
	Address  string
}

// IdentityKey returns the normalised (hostname, address) pair. Hostnames are
// compared case-insensitively.
func (a Agent) IdentityKey() Key {
	return Key{
		Hostname: strings.ToLower(strings.TrimSpace(a.Hostname)),
		Address:  strings.TrimSpace(a.Address),
	}
}

// HasAddress reports whether the agent carries an IP address at all.
func (a Agent) HasAddress() bool {
	return strings.TrimSpace(a.Address) != ""
}

// HasActivity reports whether a last-activity timestamp was supplied.
func (a Agent) HasActivity() bool {
	return !a.LastActivity.IsZero()
}

// RemovalStatus is the vendor payload returned for a delete request.
type RemovalStatus struct {
	ResponseCode string `json:"response_code"`
	Count        int    `json:"count"`
	Raw          string `json:"raw,omitempty"`
}
