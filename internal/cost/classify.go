package cost

import "strings"

// Denylist filters out rows whose team was derived from an internally
// generated topic name. Team derivation is a naming-convention heuristic, so
// the lists are configuration and known to be incomplete.
type Denylist struct {
	Contains []string
	Prefixes []string
	Suffixes []string
}

// Apply returns the rows whose team does not match any denylist rule.
func (d Denylist) Apply(rows []Row) []Row {
	kept := make([]Row, 0, len(rows))
	for _, r := range rows {
		if d.denied(r.Team) {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

func (d Denylist) denied(team string) bool {
	for _, s := range d.Contains {
		if strings.Contains(team, s) {
			return true
		}
	}
	for _, p := range d.Prefixes {
		if strings.HasPrefix(team, p) {
			return true
		}
	}
	for _, s := range d.Suffixes {
		if strings.HasSuffix(team, s) {
			return true
		}
	}
	return false
}
