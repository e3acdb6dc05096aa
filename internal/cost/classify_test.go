package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testDenylist() Denylist {
	return Denylist{
		Contains: []string{"KSTREAM-", "-subscription-registration-topic"},
		Prefixes: []string{"_", "connect-"},
		Suffixes: []string{"-repartition", "-changelog"},
	}
}

func teamRows(teams ...string) []Row {
	rows := make([]Row, 0, len(teams))
	for _, team := range teams {
		rows = append(rows, Row{Team: team, Service: ServiceBase})
	}
	return rows
}

func teams(rows []Row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Team)
	}
	return out
}

func TestDenylistApply(t *testing.T) {
	rows := teamRows(
		"teama",
		"appname-KSTREAM-AGGREGATE-STATE-STORE-0000000007",
		"__consumer_offsets",
		"_schemas",
		"connect-offsets",
		"aggregator-store-changelog",
		"joiner-repartition",
		"teamb",
	)

	kept := testDenylist().Apply(rows)
	assert.Equal(t, []string{"teama", "teamb"}, teams(kept))
}

func TestDenylistIdempotent(t *testing.T) {
	rows := teamRows("teama", "_schemas", "teamb", "store-changelog")
	d := testDenylist()

	once := d.Apply(rows)
	twice := d.Apply(once)
	assert.Equal(t, once, twice)
}

func TestDenylistEmpty(t *testing.T) {
	rows := teamRows("teama", "_schemas")
	assert.Equal(t, rows, Denylist{}.Apply(rows))
}
