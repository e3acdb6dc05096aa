package config

import (
	"github.com/kelseyhightower/envconfig"
)

// Aiven configuration
type Aiven struct {
	// ApiHost is the hostname of the Aiven API
	ApiHost string `envconfig:"AIVEN_API_HOST" default:"api.aiven.io"`

	// Token is the Aiven API token
	Token string `envconfig:"AIVEN_API_TOKEN" default:""`

	// BillingGroupID is the billing group whose invoices are allocated
	BillingGroupID string `envconfig:"BILLING_GROUP_ID" default:""`
}

// Log configuration
type Log struct {
	// Format customizes the log format. Can be "text" or "json".
	Format string `envconfig:"LOG_FORMAT" default:"text"`

	// Level is the log level
	Level string `envconfig:"LOG_LEVEL" default:"INFO"`
}

// BigQuery configuration
type BigQuery struct {
	// Table is the name of the table containing allocated kafka cost
	Table string `envconfig:"KAFKA_COST_TABLE" default:"kafka_team_cost"`

	// Dataset is the name of the dataset containing the table
	Dataset string `envconfig:"BIGQUERY_DATASET" default:"kafka_team_cost"`

	// ProjectID is the name of the project containing the dataset
	ProjectID string `envconfig:"PROJECT_ID" default:"nais-io"`
}

// Classifier holds the team denylists. Team names are derived from topic
// names, which misfires on internally generated topics; extend these lists
// when a new internal naming scheme shows up.
type Classifier struct {
	// DenyContains drops teams containing any of these substrings
	DenyContains []string `envconfig:"TEAM_DENY_CONTAINS" default:"KSTREAM-,KTABLE-,-subscription-registration-topic,-subscription-response-topic"`

	// DenyPrefixes drops teams starting with any of these prefixes
	DenyPrefixes []string `envconfig:"TEAM_DENY_PREFIXES" default:"_,connect-"`

	// DenySuffixes drops teams ending with any of these suffixes
	DenySuffixes []string `envconfig:"TEAM_DENY_SUFFIXES" default:"-repartition,-changelog"`
}

// Config is the configuration for the application
type Config struct {
	Aiven      Aiven
	BigQuery   BigQuery
	Classifier Classifier
	Log        Log
}

func New() (*Config, error) {
	cfg := &Config{}

	err := envconfig.Process("", cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
