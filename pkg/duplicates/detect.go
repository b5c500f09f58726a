// pkg/duplicates/detect.go

package duplicates

import "github.com/CodeMonkeyCybersecurity/agentdedup/pkg/agents"

// FindDuplicates groups agents by normalised (hostname, address) and returns
// only the groups with more than one member, in first-seen key order.
//
// Agents without an address are never grouped: an unknown IP must not make
// two different machines with the same name look like one. A record whose ID
// was already seen is ignored so a shifting page boundary can never make an
// agent its own duplicate.
func FindDuplicates(list []agents.Agent) []Group {
	index := make(map[agents.Key]int)
	seen := make(map[string]struct{}, len(list))
	var groups []Group

	for _, a := range list {
		if _, dup := seen[a.ID]; dup {
			continue
		}
		seen[a.ID] = struct{}{}

		if !a.HasAddress() {
			continue
		}

		key := a.IdentityKey()
		if i, ok := index[key]; ok {
			groups[i].Agents = append(groups[i].Agents, a)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, Group{Key: key, Agents: []agents.Agent{a}})
	}

	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		if len(g.Agents) > 1 {
			out = append(out, g)
		}
	}
	return out
}
