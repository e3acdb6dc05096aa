// Package cost holds the allocation core: per-team usage aggregation,
// weighted cost allocation and team-name classification. Everything here is
// pure computation over already-fetched data.
package cost

import (
	"github.com/shopspring/decimal"
)

const (
	// Service labels on persisted rows.
	ServiceBase   = "kafka-base"
	ServiceTiered = "kafka-tiered"

	// StatusPaid is the invoice state that marks a billing period as final.
	StatusPaid = "paid"
)

// Invoice is one billing period as reported by the billing provider.
type Invoice struct {
	ID     string
	Status string
	Period string // YYYY-MM
}

// Line is one kafka cost item from an invoice, scoped to a single cluster
// instance. Tiered marks lines billed for tiered (remote) storage; all other
// lines are base cost.
type Line struct {
	Project      string
	Service      string
	Tenant       string
	Environment  string
	Status       string
	Currency     string
	Cost         decimal.Decimal
	Period       string // YYYY-MM
	DaysInPeriod int
	Tiered       bool
}

// InstanceKey identifies a cluster instance within one billing period.
type InstanceKey struct {
	Project string
	Service string
	Period  string
}

func (l Line) Key() InstanceKey {
	return InstanceKey{Project: l.Project, Service: l.Service, Period: l.Period}
}

// Partition sizes are bytes as reported by the provider. RemoteSize is zero
// for topics without tiered storage.
type Partition struct {
	Size       uint64
	RemoteSize uint64
}

// Topic is a named stream within a cluster instance. The first dot-delimited
// segment of the name is the owning team by convention.
type Topic struct {
	Name       string
	Partitions []Partition
}

// TeamUsage is a team's summed storage footprint within one cluster instance.
type TeamUsage struct {
	BaseBytes   uint64
	TieredBytes uint64
}

// Row is one allocated cost item, ready for the warehouse.
type Row struct {
	ProjectName  string
	Environment  string
	Team         string
	Service      string
	Status       string
	ServiceName  string
	Tenant       string
	Cost         decimal.Decimal
	Date         string // YYYY-MM
	NumberOfDays int
}
