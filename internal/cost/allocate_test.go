package cost

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epsilon = decimal.New(1, -6)

func testLine(c int64, tiered bool) Line {
	return Line{
		Project:      "dev-project",
		Service:      "kafka-instance",
		Tenant:       "tenant-x",
		Environment:  "dev",
		Status:       "estimate",
		Currency:     "USD",
		Cost:         decimal.NewFromInt(c),
		Period:       "2025-06",
		DaysInPeriod: 30,
		Tiered:       tiered,
	}
}

func sumCost(rows []Row) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range rows {
		sum = sum.Add(r.Cost)
	}
	return sum
}

func TestAllocateBase(t *testing.T) {
	// half=50 shared flat (25 each), the other half by storage weight.
	usage := map[string]TeamUsage{
		"a": {BaseBytes: 600},
		"b": {BaseBytes: 400},
	}

	rows := AllocateBase(testLine(100, false), usage)
	require.Len(t, rows, 2)

	byTeam := map[string]Row{}
	for _, r := range rows {
		byTeam[r.Team] = r
	}
	assert.True(t, byTeam["a"].Cost.Equal(decimal.NewFromInt(55)), "got %s", byTeam["a"].Cost)
	assert.True(t, byTeam["b"].Cost.Equal(decimal.NewFromInt(45)), "got %s", byTeam["b"].Cost)
	assert.True(t, sumCost(rows).Equal(decimal.NewFromInt(100)))
}

func TestAllocateBaseRowFields(t *testing.T) {
	rows := AllocateBase(testLine(10, false), map[string]TeamUsage{"a": {BaseBytes: 1}})
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "dev-project", row.ProjectName)
	assert.Equal(t, "dev", row.Environment)
	assert.Equal(t, "a", row.Team)
	assert.Equal(t, ServiceBase, row.Service)
	assert.Equal(t, "estimate", row.Status)
	assert.Equal(t, "kafka-instance", row.ServiceName)
	assert.Equal(t, "tenant-x", row.Tenant)
	assert.Equal(t, "2025-06", row.Date)
	assert.Equal(t, 30, row.NumberOfDays)
}

func TestAllocateBaseSingleTeam(t *testing.T) {
	// Flat share plus 100% storage weight collapse to the full line cost.
	rows := AllocateBase(testLine(100, false), map[string]TeamUsage{"a": {BaseBytes: 123}})
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Cost.Equal(decimal.NewFromInt(100)), "got %s", rows[0].Cost)
}

func TestAllocateBaseNoTeams(t *testing.T) {
	assert.Empty(t, AllocateBase(testLine(100, false), nil))
}

func TestAllocateBaseZeroBytes(t *testing.T) {
	// No storage weight to distribute by, everything is flat-shared.
	usage := map[string]TeamUsage{
		"a": {},
		"b": {},
	}
	rows := AllocateBase(testLine(100, false), usage)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.True(t, r.Cost.Equal(decimal.NewFromInt(50)), "got %s", r.Cost)
	}
}

func TestAllocateBaseConservation(t *testing.T) {
	usage := map[string]TeamUsage{}
	for i, b := range []uint64{17, 23, 1111, 907, 3, 50000, 12, 99999999} {
		usage[string(rune('a'+i))] = TeamUsage{BaseBytes: b}
	}

	line := testLine(0, false)
	line.Cost = decimal.RequireFromString("4217.93")
	rows := AllocateBase(line, usage)
	require.Len(t, rows, len(usage))

	diff := sumCost(rows).Sub(line.Cost).Abs()
	assert.True(t, diff.LessThan(epsilon), "off by %s", diff)
}

func TestAllocateTiered(t *testing.T) {
	usage := map[string]TeamUsage{
		"a": {TieredBytes: 300},
		"b": {TieredBytes: 100},
		"c": {BaseBytes: 10}, // no tiered usage, no row
	}

	rows := AllocateTiered(testLine(40, true), usage, 400)
	require.Len(t, rows, 2)

	byTeam := map[string]Row{}
	for _, r := range rows {
		byTeam[r.Team] = r
		assert.Equal(t, ServiceTiered, r.Service)
	}
	assert.True(t, byTeam["a"].Cost.Equal(decimal.NewFromInt(30)), "got %s", byTeam["a"].Cost)
	assert.True(t, byTeam["b"].Cost.Equal(decimal.NewFromInt(10)), "got %s", byTeam["b"].Cost)
	assert.True(t, sumCost(rows).Equal(decimal.NewFromInt(40)))
}

func TestAllocateTieredConservation(t *testing.T) {
	usage := map[string]TeamUsage{
		"a": {TieredBytes: 7},
		"b": {TieredBytes: 13},
		"c": {TieredBytes: 7919},
	}
	line := testLine(0, true)
	line.Cost = decimal.RequireFromString("99.99")

	rows := AllocateTiered(line, usage, TotalTieredBytes(usage))
	require.Len(t, rows, 3)

	diff := sumCost(rows).Sub(line.Cost).Abs()
	assert.True(t, diff.LessThan(epsilon), "off by %s", diff)
}

func TestAllocateTieredZeroTotal(t *testing.T) {
	assert.Empty(t, AllocateTiered(testLine(40, true), map[string]TeamUsage{"a": {}}, 0))
}
