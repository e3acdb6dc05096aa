package aiven

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	aivenclient "github.com/aiven/go-client-codegen"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/nais/kafka-cost/internal/cost"
)

const (
	// kafkaServiceType is the invoice line service type we allocate.
	kafkaServiceType = "kafka"

	// tieredStorageMarker appears in the free-text description of invoice
	// lines billed for tiered storage.
	tieredStorageMarker = "tiered storage"
)

// ErrMissingServiceTags is returned when a kafka instance on an invoice has
// no tenant or environment tag. Rows without them cannot be attributed, so
// extraction fails instead of mis-billing.
var ErrMissingServiceTags = errors.New("service is missing tenant or environment tag")

type Client struct {
	client         *http.Client
	aivenClient    aivenclient.Client
	baseURL        string
	apiToken       string
	billingGroupID string
	logger         *logrus.Logger
}

func New(apiHost, token, billingGroupID string, logger *logrus.Logger) (*Client, error) {
	client, err := aivenclient.NewClient(aivenclient.TokenOpt(token), aivenclient.UserAgentOpt("nais-kafka-cost"))
	if err != nil {
		return nil, err
	}
	return &Client{
		client:         http.DefaultClient,
		aivenClient:    client,
		baseURL:        "https://" + apiHost,
		apiToken:       token,
		billingGroupID: billingGroupID,
		logger:         logger,
	}, nil
}

// Invoices lists the billing group's invoices with their billing period.
func (c *Client) Invoices(ctx context.Context) ([]cost.Invoice, error) {
	aivenInvoices, err := c.aivenClient.BillingGroupInvoiceList(ctx, c.billingGroupID)
	if err != nil {
		return nil, err
	}

	invoices := make([]cost.Invoice, 0, len(aivenInvoices))
	for _, aivenInvoice := range aivenInvoices {
		begin, err := time.Parse(time.RFC3339, aivenInvoice.PeriodBegin)
		if err != nil {
			return nil, fmt.Errorf("invoice %s: parse period begin: %w", aivenInvoice.InvoiceNumber, err)
		}
		invoices = append(invoices, cost.Invoice{
			ID:     aivenInvoice.InvoiceNumber,
			Status: string(aivenInvoice.State),
			Period: period(begin),
		})
	}
	return invoices, nil
}

// InvoiceLines lists an invoice's kafka cost lines. Base lines carry the
// instance's tenant and environment tags; lines billed for tiered storage
// are marked Tiered and matched to their instance by the caller.
func (c *Client) InvoiceLines(ctx context.Context, invoice cost.Invoice) ([]cost.Line, error) {
	aivenLines, err := c.aivenClient.BillingGroupInvoiceLinesList(ctx, c.billingGroupID, invoice.ID)
	if err != nil {
		return nil, err
	}

	var lines []cost.Line
	for _, line := range aivenLines {
		if string(line.ServiceType) != kafkaServiceType {
			continue
		}
		if line.ProjectName == nil || line.ServiceName == nil || line.TimestampBegin == nil || line.LineTotalLocal == nil {
			return nil, fmt.Errorf("invoice %s: kafka line is missing required fields", invoice.ID)
		}

		begin, err := time.Parse(time.RFC3339, *line.TimestampBegin)
		if err != nil {
			return nil, fmt.Errorf("invoice %s: parse line timestamp: %w", invoice.ID, err)
		}
		lineCost, err := decimal.NewFromString(*line.LineTotalLocal)
		if err != nil {
			return nil, fmt.Errorf("invoice %s: parse line total: %w", invoice.ID, err)
		}

		tiered := isTieredStorage(line.Description)

		tags := Tags{}
		if !tiered {
			fetched, err := c.GetServiceTags(ctx, *line.ProjectName, *line.ServiceName)
			switch {
			case aivenclient.IsNotFound(err):
				// The instance may have been deleted since it was invoiced.
				c.logger.
					WithFields(logrus.Fields{
						"project": *line.ProjectName,
						"service": *line.ServiceName,
					}).
					Warnf("kafka instance not found, assuming it was deleted")
			case err != nil:
				return nil, fmt.Errorf("get service tags for %s/%s: %w", *line.ProjectName, *line.ServiceName, err)
			default:
				if fetched.Tenant == "" || fetched.Environment == "" {
					return nil, fmt.Errorf("%w: %s/%s", ErrMissingServiceTags, *line.ProjectName, *line.ServiceName)
				}
				tags = fetched
			}
		}

		currency := ""
		if line.LocalCurrency != nil {
			currency = *line.LocalCurrency
		}

		lines = append(lines, cost.Line{
			Project:      *line.ProjectName,
			Service:      *line.ServiceName,
			Tenant:       tags.Tenant,
			Environment:  tags.Environment,
			Status:       invoice.Status,
			Currency:     currency,
			Cost:         lineCost,
			Period:       period(begin),
			DaysInPeriod: daysInMonth(begin.Month(), begin.Year()),
			Tiered:       tiered,
		})
	}
	return lines, nil
}

func (c *Client) GetServiceTags(ctx context.Context, projectName, serviceName string) (Tags, error) {
	tags := Tags{}

	resp, err := c.aivenClient.ProjectServiceTagsList(ctx, projectName, serviceName)
	if err != nil {
		return Tags{}, err
	}

	if val, ok := resp["tenant"]; ok {
		tags.Tenant = val
	}
	if val, ok := resp["environment"]; ok {
		tags.Environment = val
	}
	if val, ok := resp["team"]; ok {
		tags.Team = val
	}

	return tags, nil
}

func isTieredStorage(description string) bool {
	return strings.Contains(strings.ToLower(description), tieredStorageMarker)
}

func period(t time.Time) string {
	return fmt.Sprintf("%d-%02d", t.Year(), int(t.Month()))
}

func daysInMonth(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
