package main

import (
	"context"
	"fmt"
	"os"

	"github.com/nais/kafka-cost/internal/aiven"
	"github.com/nais/kafka-cost/internal/bigquery"
	"github.com/nais/kafka-cost/internal/config"
	"github.com/nais/kafka-cost/internal/cost"
	"github.com/nais/kafka-cost/internal/log"
	"github.com/nais/kafka-cost/internal/reconcile"
)

func main() {
	ctx := context.Background()

	cfg, err := config.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := log.New(cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}

	aivenClient, err := aiven.New(cfg.Aiven.ApiHost, cfg.Aiven.Token, cfg.Aiven.BillingGroupID, logger)
	if err != nil {
		logger.WithError(err).Errorf("failed to create aiven client")
		os.Exit(1)
	}

	bqClient, err := bigquery.New(ctx, cfg.BigQuery.ProjectID, cfg.BigQuery.Dataset, cfg.BigQuery.Table)
	if err != nil {
		logger.WithError(err).Errorf("failed to create bigquery client")
		os.Exit(1)
	}

	denylist := cost.Denylist{
		Contains: cfg.Classifier.DenyContains,
		Prefixes: cfg.Classifier.DenyPrefixes,
		Suffixes: cfg.Classifier.DenySuffixes,
	}

	logger.Infof("started kafka-cost")
	reconciler := reconcile.New(aivenClient, bqClient, denylist, logger)
	if err := reconciler.Run(ctx); err != nil {
		logger.WithError(err).Errorf("reconciliation failed")
		os.Exit(1)
	}
	logger.Infof("reconciliation done")
}
