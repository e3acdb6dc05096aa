// Package reconcile runs the end-to-end cost allocation: determine the last
// paid billing period, extract newer invoices, allocate their kafka cost to
// teams by storage footprint, and load the result into the warehouse.
package reconcile

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/nais/kafka-cost/internal/cost"
)

// epochPeriod predates the billing group; it is the watermark used when the
// cost table is empty or unreadable.
const epochPeriod = "2020-01"

type Billing interface {
	Invoices(ctx context.Context) ([]cost.Invoice, error)
	InvoiceLines(ctx context.Context, invoice cost.Invoice) ([]cost.Line, error)
	Topics(ctx context.Context, projectName, serviceName string) ([]cost.Topic, error)
}

type Warehouse interface {
	PaidWatermark(ctx context.Context) (string, error)
	EnsureTable(ctx context.Context) error
	DeleteUnpaid(ctx context.Context) error
	InsertRows(ctx context.Context, rows []cost.Row) error
}

type Reconciler struct {
	billing   Billing
	warehouse Warehouse
	denylist  cost.Denylist
	logger    *logrus.Logger
}

func New(billing Billing, warehouse Warehouse, denylist cost.Denylist, logger *logrus.Logger) *Reconciler {
	return &Reconciler{
		billing:   billing,
		warehouse: warehouse,
		denylist:  denylist,
		logger:    logger,
	}
}

// Run performs one reconciliation. Either the whole run succeeds and is
// loaded, or nothing is loaded.
func (r *Reconciler) Run(ctx context.Context) error {
	watermark := r.paidWatermark(ctx)

	invoices, err := r.billing.Invoices(ctx)
	if err != nil {
		return fmt.Errorf("list invoices: %w", err)
	}
	pending := make([]cost.Invoice, 0, len(invoices))
	for _, invoice := range invoices {
		if invoice.Period > watermark {
			pending = append(pending, invoice)
		}
	}
	r.logger.Infof("processing %d of %d invoices after watermark %s", len(pending), len(invoices), watermark)

	lines, err := r.extractLines(ctx, pending)
	if err != nil {
		return err
	}

	baseLines := make(map[cost.InstanceKey]cost.Line)
	var tieredLines []cost.Line
	for _, line := range lines {
		if line.Tiered {
			tieredLines = append(tieredLines, line)
			continue
		}
		key := line.Key()
		if prev, ok := baseLines[key]; ok {
			prev.Cost = prev.Cost.Add(line.Cost)
			baseLines[key] = prev
			continue
		}
		baseLines[key] = line
	}

	usage, err := r.fetchUsage(ctx, baseLines)
	if err != nil {
		return err
	}

	rows, err := r.allocate(baseLines, tieredLines, usage)
	if err != nil {
		return err
	}
	rows = r.denylist.Apply(rows)

	return r.load(ctx, rows)
}

// paidWatermark fetches the latest paid period. An empty or unreadable table
// means no prior data, not a failed run.
func (r *Reconciler) paidWatermark(ctx context.Context) string {
	watermark, err := r.warehouse.PaidWatermark(ctx)
	if err != nil {
		r.logger.WithError(err).Warnf("failed to read paid watermark, assuming no prior data")
		return epochPeriod
	}
	if watermark == "" {
		return epochPeriod
	}
	return watermark
}

// extractLines fetches kafka cost lines for all pending invoices in
// parallel. Any single failure fails the whole batch.
func (r *Reconciler) extractLines(ctx context.Context, invoices []cost.Invoice) ([]cost.Line, error) {
	results := make([][]cost.Line, len(invoices))
	g, gctx := errgroup.WithContext(ctx)
	for i, invoice := range invoices {
		g.Go(func() error {
			lines, err := r.billing.InvoiceLines(gctx, invoice)
			if err != nil {
				return fmt.Errorf("invoice %s: %w", invoice.ID, err)
			}
			results[i] = lines
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var lines []cost.Line
	for _, res := range results {
		lines = append(lines, res...)
	}
	return lines, nil
}

// fetchUsage fetches topics for every invoiced kafka instance in parallel
// and aggregates them into per-team usage. Instances sharing a project and
// service across periods are fetched once.
func (r *Reconciler) fetchUsage(ctx context.Context, baseLines map[cost.InstanceKey]cost.Line) (map[cost.InstanceKey]map[string]cost.TeamUsage, error) {
	type instance struct {
		project string
		service string
	}
	instances := make(map[instance][]cost.InstanceKey)
	for key := range baseLines {
		inst := instance{project: key.Project, service: key.Service}
		instances[inst] = append(instances[inst], key)
	}

	usage := make(map[cost.InstanceKey]map[string]cost.TeamUsage, len(baseLines))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for inst, keys := range instances {
		g.Go(func() error {
			topics, err := r.billing.Topics(gctx, inst.project, inst.service)
			if err != nil {
				return fmt.Errorf("topics for %s/%s: %w", inst.project, inst.service, err)
			}
			teamUsage, err := cost.AggregateUsage(topics)
			if err != nil {
				return fmt.Errorf("aggregate usage for %s/%s: %w", inst.project, inst.service, err)
			}
			mu.Lock()
			for _, key := range keys {
				usage[key] = teamUsage
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return usage, nil
}

func (r *Reconciler) allocate(baseLines map[cost.InstanceKey]cost.Line, tieredLines []cost.Line, usage map[cost.InstanceKey]map[string]cost.TeamUsage) ([]cost.Row, error) {
	keys := make([]cost.InstanceKey, 0, len(baseLines))
	for key := range baseLines {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b cost.InstanceKey) int {
		return strings.Compare(a.Project+"/"+a.Service+"/"+a.Period, b.Project+"/"+b.Service+"/"+b.Period)
	})

	var rows []cost.Row
	for _, key := range keys {
		rows = append(rows, cost.AllocateBase(baseLines[key], usage[key])...)
	}

	for _, line := range tieredLines {
		base, ok := baseLines[line.Key()]
		if !ok {
			return nil, fmt.Errorf("%w: %s/%s in %s", cost.ErrOrphanedTieredStorageLine, line.Project, line.Service, line.Period)
		}
		// Tiered lines carry no tags of their own.
		line.Tenant = base.Tenant
		line.Environment = base.Environment

		instanceUsage := usage[line.Key()]
		total := cost.TotalTieredBytes(instanceUsage)
		if total == 0 {
			continue
		}
		rows = append(rows, cost.AllocateTiered(line, instanceUsage, total)...)
	}
	return rows, nil
}

func (r *Reconciler) load(ctx context.Context, rows []cost.Row) error {
	if err := r.warehouse.EnsureTable(ctx); err != nil {
		return fmt.Errorf("ensure cost table: %w", err)
	}
	if err := r.warehouse.DeleteUnpaid(ctx); err != nil {
		return fmt.Errorf("delete unpaid rows: %w", err)
	}
	r.logger.Infof("inserting %d cost rows", len(rows))
	if err := r.warehouse.InsertRows(ctx, rows); err != nil {
		return fmt.Errorf("insert rows: %w", err)
	}
	return nil
}
