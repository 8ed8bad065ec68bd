// Command sercha-extract checks and exercises extraction connectors.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/custodia-labs/sercha-extract/internal/adapters/driven/auth"
	"github.com/custodia-labs/sercha-extract/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-extract/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-extract/internal/connectors"
	"github.com/custodia-labs/sercha-extract/internal/core/extract"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-extract/internal/core/services"
	"github.com/custodia-labs/sercha-extract/internal/logger"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetServiceBuilder(buildServices)

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// buildServices wires the diagnostics service for one command run.
func buildServices(configPath string) (driving.Diagnostics, func() error, error) {
	config, err := file.NewConfigStore(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("config loaded from %s", config.Path())

	registry := prometheus.NewRegistry()
	metrics := extract.NewMetrics(registry)
	tokens := auth.NewFactory()

	svc := services.NewDiagnosticsService(connectors.NewBuiltinRegistry(), tokens, config, metrics)

	cleanup := func() error {
		logMetrics(registry)
		return tokens.Close()
	}
	return svc, cleanup, nil
}

// logMetrics writes the extraction counters at debug level.
func logMetrics(g prometheus.Gatherer) {
	families, err := g.Gather()
	if err != nil {
		logger.Warn("gather metrics: %v", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]any, 0, 2*len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName(), l.GetValue())
			}
			logger.With(labels...).Debugw(mf.GetName(), "value", m.GetCounter().GetValue())
		}
	}
}
