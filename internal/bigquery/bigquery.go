package bigquery

import (
	"context"
	"fmt"
	"net/http"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
)

const (
	gcpLocation = "europe-north1"
)

type Client struct {
	client  *bigquery.Client
	dataset string
	table   string
}

func New(ctx context.Context, projectID, dataset, table string) (*Client, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, err
	}
	client.Location = gcpLocation
	return &Client{
		client:  client,
		dataset: dataset,
		table:   table,
	}, nil
}

// EnsureTable creates the cost table when it does not exist yet.
func (c *Client) EnsureTable(ctx context.Context) error {
	exists, err := c.tableExists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check if table exists: %w", err)
	}
	if exists {
		return nil
	}
	return c.createTable(ctx)
}

func (c *Client) createTable(ctx context.Context) error {
	s, err := bigquery.InferSchema(Line{})
	if err != nil {
		return fmt.Errorf("failed to infer schema: %w", err)
	}

	if err := c.client.Dataset(c.dataset).Table(c.table).Create(ctx, &bigquery.TableMetadata{Schema: s}); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	return nil
}

// tableExists reports whether the cost table exists. A 404 means the dataset
// or table is absent; any other failure is an error, not absence.
func (c *Client) tableExists(ctx context.Context) (bool, error) {
	tableRef := c.client.Dataset(c.dataset).Table(c.table)
	if _, err := tableRef.Metadata(ctx); err != nil {
		if e, ok := err.(*googleapi.Error); ok && e.Code == http.StatusNotFound {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func (c *Client) tableID() string {
	return c.client.Project() + "." + c.dataset + "." + c.table
}
