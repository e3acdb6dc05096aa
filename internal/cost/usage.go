package cost

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedTopicName is returned when a topic name has no team-recognizable
// leading segment. Aggregation aborts rather than silently dropping the
// topic's usage.
var ErrMalformedTopicName = errors.New("malformed topic name")

// AggregateUsage folds a cluster instance's topics into per-team byte totals.
// The team is the substring before the first dot of the topic name, or the
// whole name when there is no dot.
func AggregateUsage(topics []Topic) (map[string]TeamUsage, error) {
	usage := make(map[string]TeamUsage, len(topics))
	for _, topic := range topics {
		team, _, _ := strings.Cut(topic.Name, ".")
		if team == "" {
			return nil, fmt.Errorf("%w: %q", ErrMalformedTopicName, topic.Name)
		}
		u := usage[team]
		for _, p := range topic.Partitions {
			u.BaseBytes += p.Size
			u.TieredBytes += p.RemoteSize
		}
		usage[team] = u
	}
	return usage, nil
}

// TotalTieredBytes sums the tiered footprint across all teams.
func TotalTieredBytes(usage map[string]TeamUsage) uint64 {
	var total uint64
	for _, u := range usage {
		total += u.TieredBytes
	}
	return total
}
