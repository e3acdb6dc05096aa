package bigquery

import (
	"math/big"

	"github.com/nais/kafka-cost/internal/cost"
)

// Line is the persisted row. InferSchema maps *big.Rat to NUMERIC.
type Line struct {
	ProjectName  string   `bigquery:"project_name"`
	Environment  string   `bigquery:"environment"`
	Team         string   `bigquery:"team"`
	Service      string   `bigquery:"service"`
	Status       string   `bigquery:"status"`
	ServiceName  string   `bigquery:"service_name"`
	Tenant       string   `bigquery:"tenant"`
	Cost         *big.Rat `bigquery:"cost"`
	Date         string   `bigquery:"date"`
	NumberOfDays int      `bigquery:"number_of_days"`
}

// toLine rounds the cost to currency precision. Intermediate allocation
// arithmetic is never rounded, only this boundary is.
func toLine(row cost.Row) Line {
	return Line{
		ProjectName:  row.ProjectName,
		Environment:  row.Environment,
		Team:         row.Team,
		Service:      row.Service,
		Status:       row.Status,
		ServiceName:  row.ServiceName,
		Tenant:       row.Tenant,
		Cost:         row.Cost.Round(2).Rat(),
		Date:         row.Date,
		NumberOfDays: row.NumberOfDays,
	}
}
