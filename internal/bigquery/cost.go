package bigquery

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/nais/kafka-cost/internal/cost"
)

// PaidWatermark returns the latest billing period (YYYY-MM) already persisted
// with status paid, or the empty string when there is none.
func (c *Client) PaidWatermark(ctx context.Context) (string, error) {
	q := c.client.Query("SELECT MAX(date) FROM " + c.tableID() + " WHERE status = '" + cost.StatusPaid + "'")
	it, err := q.Read(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch paid watermark: %w", err)
	}

	watermark := ""
	for {
		var values []bigquery.Value
		err := it.Next(&values)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to fetch paid watermark: %w", err)
		}
		if len(values) > 0 && values[0] != nil {
			watermark = values[0].(string)
		}
	}
	return watermark, nil
}

// DeleteUnpaid removes previously persisted rows for periods that were not
// final yet, so the following insert replaces them with fresh estimates.
func (c *Client) DeleteUnpaid(ctx context.Context) error {
	q := c.client.Query("DELETE FROM " + c.tableID() + " WHERE status NOT IN ('" + cost.StatusPaid + "')")
	if _, err := q.Read(ctx); err != nil {
		return fmt.Errorf("failed to delete unpaid cost rows: %w", err)
	}
	return nil
}

// InsertRows batch-inserts allocated cost rows.
func (c *Client) InsertRows(ctx context.Context, rows []cost.Row) error {
	lines := make([]Line, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, toLine(row))
	}
	if err := c.client.Dataset(c.dataset).Table(c.table).Inserter().Put(ctx, lines); err != nil {
		return fmt.Errorf("failed to insert cost rows: %w", err)
	}
	return nil
}
