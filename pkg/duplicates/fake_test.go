// pkg/duplicates/fake_test.go

package duplicates

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/CodeMonkeyCybersecurity/agentdedup/pkg/agents"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func agent(id, host, addr string, activityOffset time.Duration) agents.Agent {
	a := agents.Agent{ID: id, Hostname: host, Address: addr, Created: base}
	if activityOffset >= 0 {
		a.LastActivity = base.Add(activityOffset)
	}
	return a
}

// observeLogs routes the global otelzap logger into an observer for the
// duration of the test.
func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	t.Cleanup(otelzap.ReplaceGlobals(otelzap.New(zap.New(core))))
	return logs
}

// fakeAPI records every delete and fails the ones listed in deleteErr.
type fakeAPI struct {
	mu        sync.Mutex
	list      []agents.Agent
	listErr   error
	deleteErr map[string]error
	deleted   []string
}

func (f *fakeAPI) ListAgents(ctx context.Context) ([]agents.Agent, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.list, nil
}

func (f *fakeAPI) DeleteAgent(ctx context.Context, id string) (agents.RemovalStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	if err, ok := f.deleteErr[id]; ok {
		return agents.RemovalStatus{}, err
	}
	return agents.RemovalStatus{ResponseCode: "SUCCESS", Count: 1}, nil
}
