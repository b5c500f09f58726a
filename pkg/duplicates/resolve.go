// pkg/duplicates/resolve.go

package duplicates

import (
	"fmt"

	"github.com/CodeMonkeyCybersecurity/agentdedup/pkg/agents"
)

// Resolve picks one agent to keep per group and marks the rest for removal.
// For each group the keep decision comes first, followed by the removals in
// first-seen order. The result depends only on the input.
func Resolve(groups []Group) []Decision {
	var decisions []Decision
	for _, g := range groups {
		if len(g.Agents) == 0 {
			continue
		}

		keeper := selectKeeper(g.Agents)
		kept := g.Agents[keeper]

		decisions = append(decisions, Decision{
			Agent:   kept,
			Action:  ActionKeep,
			Reason:  fmt.Sprintf("kept as newest of %d registrations for %s/%s", len(g.Agents), g.Key.Hostname, g.Key.Address),
			KeptID:  kept.ID,
			Outcome: OutcomePending,
		})

		for i, a := range g.Agents {
			if i == keeper {
				continue
			}
			decisions = append(decisions, Decision{
				Agent:   a,
				Action:  ActionRemove,
				Reason:  "duplicate of " + kept.ID,
				KeptID:  kept.ID,
				Outcome: OutcomePending,
			})
		}
	}
	return decisions
}

// Plan detects duplicates and returns every agent's decision: group
// decisions first, then a keep for each agent outside any group.
func Plan(list []agents.Agent) ([]Group, []Decision) {
	groups := FindDuplicates(list)
	return groups, planFor(list, groups)
}

func planFor(list []agents.Agent, groups []Group) []Decision {
	decisions := Resolve(groups)

	handled := make(map[string]struct{}, len(list))
	for _, d := range decisions {
		handled[d.Agent.ID] = struct{}{}
	}

	for _, a := range list {
		if _, ok := handled[a.ID]; ok {
			continue
		}
		handled[a.ID] = struct{}{}

		reason := "unique"
		if !a.HasAddress() {
			reason = "no address"
		}
		decisions = append(decisions, Decision{
			Agent:   a,
			Action:  ActionKeep,
			Reason:  reason,
			KeptID:  a.ID,
			Outcome: OutcomePending,
		})
	}
	return decisions
}

// selectKeeper returns the index of the agent to keep: the most recent
// activity wins, an agent with a timestamp beats one without, and ties fall
// to the smallest identifier.
func selectKeeper(list []agents.Agent) int {
	best := 0
	for i := 1; i < len(list); i++ {
		if preferred(list[i], list[best]) {
			best = i
		}
	}
	return best
}

func preferred(a, b agents.Agent) bool {
	switch {
	case a.HasActivity() && !b.HasActivity():
		return true
	case !a.HasActivity() && b.HasActivity():
		return false
	case a.LastActivity.After(b.LastActivity):
		return true
	case b.LastActivity.After(a.LastActivity):
		return false
	}
	return agents.CompareIDs(a.ID, b.ID) < 0
}
