package cost

import (
	"errors"
	"maps"
	"slices"

	"github.com/shopspring/decimal"
)

// ErrOrphanedTieredStorageLine is returned when a tiered storage line cannot
// be matched to a base kafka instance for the same project, service and
// period. Tiered cost must never be attributed to an unmatched instance.
var ErrOrphanedTieredStorageLine = errors.New("tiered storage line without matching kafka instance")

var two = decimal.NewFromInt(2)

// AllocateBase splits an instance's base cost line across the teams with
// usage on that instance: half of the cost is shared equally, the other half
// is distributed by each team's share of the instance's base storage. An
// instance without attributable teams produces no rows.
func AllocateBase(line Line, usage map[string]TeamUsage) []Row {
	if len(usage) == 0 {
		return nil
	}

	teams := slices.Sorted(maps.Keys(usage))
	numTeams := decimal.NewFromInt(int64(len(teams)))

	var aggBase uint64
	for _, u := range usage {
		aggBase += u.BaseBytes
	}

	half := line.Cost.Div(two)
	flat := half.Div(numTeams)

	rows := make([]Row, 0, len(teams))
	for _, team := range teams {
		var teamCost decimal.Decimal
		if aggBase == 0 {
			// Storage weight is undefined, share the whole line equally.
			teamCost = line.Cost.Div(numTeams)
		} else {
			weight := decimal.NewFromUint64(usage[team].BaseBytes).Div(decimal.NewFromUint64(aggBase))
			teamCost = flat.Add(half.Mul(weight))
		}
		rows = append(rows, row(line, team, ServiceBase, teamCost))
	}
	return rows
}

// AllocateTiered distributes a tiered storage line across the teams with
// nonzero tiered usage, weighted by their share of the instance's total
// tiered bytes. Callers must only pass lines already matched to an instance
// with nonzero aggregate tiered usage.
func AllocateTiered(line Line, usage map[string]TeamUsage, totalTieredBytes uint64) []Row {
	if totalTieredBytes == 0 {
		return nil
	}

	total := decimal.NewFromUint64(totalTieredBytes)
	var rows []Row
	for _, team := range slices.Sorted(maps.Keys(usage)) {
		if usage[team].TieredBytes == 0 {
			continue
		}
		weight := decimal.NewFromUint64(usage[team].TieredBytes).Div(total)
		rows = append(rows, row(line, team, ServiceTiered, line.Cost.Mul(weight)))
	}
	return rows
}

func row(line Line, team, service string, teamCost decimal.Decimal) Row {
	return Row{
		ProjectName:  line.Project,
		Environment:  line.Environment,
		Team:         team,
		Service:      service,
		Status:       line.Status,
		ServiceName:  line.Service,
		Tenant:       line.Tenant,
		Cost:         teamCost,
		Date:         line.Period,
		NumberOfDays: line.DaysInPeriod,
	}
}
