// pkg/duplicates/resolve_test.go

package duplicates

import (
	"testing"
	"time"

	"github.com/CodeMonkeyCybersecurity/agentdedup/pkg/agents"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keptAndRemoved(decisions []Decision) (kept []string, removed []string) {
	for _, d := range decisions {
		switch d.Action {
		case ActionKeep:
			kept = append(kept, d.Agent.ID)
		case ActionRemove:
			removed = append(removed, d.Agent.ID)
		}
	}
	return kept, removed
}

func TestResolveSelectsKeeper(t *testing.T) {
	const none = time.Duration(-1)

	tests := []struct {
		name    string
		group   []agents.Agent
		kept    string
		removed []string
	}{
		{
			name: "most recent activity wins",
			group: []agents.Agent{
				agent("100", "h", "10.0.0.1", time.Hour),
				agent("101", "h", "10.0.0.1", 2*time.Hour),
			},
			kept:    "101",
			removed: []string{"100"},
		},
		{
			name: "timestamp beats missing timestamp",
			group: []agents.Agent{
				agent("1", "h", "10.0.0.1", none),
				agent("2", "h", "10.0.0.1", 0),
			},
			kept:    "2",
			removed: []string{"1"},
		},
		{
			name: "equal activity falls to smallest numeric id",
			group: []agents.Agent{
				agent("20", "h", "10.0.0.1", time.Hour),
				agent("3", "h", "10.0.0.1", time.Hour),
				agent("100", "h", "10.0.0.1", time.Hour),
			},
			kept:    "3",
			removed: []string{"20", "100"},
		},
		{
			name: "no timestamps falls to smallest id",
			group: []agents.Agent{
				agent("9", "h", "10.0.0.1", none),
				agent("8", "h", "10.0.0.1", none),
			},
			kept:    "8",
			removed: []string{"9"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decisions := Resolve([]Group{{Key: tt.group[0].IdentityKey(), Agents: tt.group}})
			require.Len(t, decisions, len(tt.group))

			assert.Equal(t, ActionKeep, decisions[0].Action, "keep decision comes first")
			kept, removed := keptAndRemoved(decisions)
			assert.Equal(t, []string{tt.kept}, kept)
			assert.Equal(t, tt.removed, removed)
			for _, d := range decisions {
				assert.Equal(t, tt.kept, d.KeptID)
				assert.Equal(t, OutcomePending, d.Outcome)
			}
		})
	}
}

func TestResolveIsOrderIndependent(t *testing.T) {
	a := agent("5", "h", "10.0.0.1", time.Hour)
	b := agent("7", "h", "10.0.0.1", time.Hour)
	c := agent("6", "h", "10.0.0.1", 30*time.Minute)

	orders := [][]agents.Agent{{a, b, c}, {c, b, a}, {b, c, a}}
	for _, order := range orders {
		kept, _ := keptAndRemoved(Resolve([]Group{{Agents: order}}))
		assert.Equal(t, []string{"5"}, kept)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	groups := FindDuplicates([]agents.Agent{
		agent("1", "h", "10.0.0.1", time.Hour),
		agent("2", "h", "10.0.0.1", time.Hour),
		agent("3", "g", "10.0.0.2", 0),
		agent("4", "g", "10.0.0.2", time.Minute),
	})
	assert.Equal(t, Resolve(groups), Resolve(groups))
}

func TestPlanCoversEveryAgent(t *testing.T) {
	list := []agents.Agent{
		agent("1", "web-01", "10.0.0.5", time.Hour),
		agent("2", "WEB-01", "10.0.0.5", 2*time.Hour),
		agent("3", "db-01", "10.0.0.6", 0),
		agent("4", "db-01", "", 0),
		agent("5", "db-01", "", 0),
	}

	groups, decisions := Plan(list)
	require.Len(t, groups, 1)
	require.Len(t, decisions, len(list))

	byID := make(map[string]Decision)
	for _, d := range decisions {
		byID[d.Agent.ID] = d
	}
	assert.Equal(t, ActionRemove, byID["1"].Action)
	assert.Equal(t, "duplicate of 2", byID["1"].Reason)
	assert.Equal(t, ActionKeep, byID["2"].Action)
	assert.Equal(t, "unique", byID["3"].Reason)
	assert.Equal(t, "no address", byID["4"].Reason)
	assert.Equal(t, "no address", byID["5"].Reason)
}
