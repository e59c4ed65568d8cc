package main

import (
	"fmt"
	"time"

	"github.com/grmpy/grmpy-go/internal/config"
	"github.com/grmpy/grmpy-go/internal/simulation"
	"github.com/grmpy/grmpy-go/pkg/constants"
	"github.com/grmpy/grmpy-go/pkg/metrics"
	"github.com/grmpy/grmpy-go/pkg/output"
	"github.com/grmpy/grmpy-go/pkg/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Simulate a dataset from an initialization file",
		Long: `Reads an initialization file, simulates the population it describes and
writes <source>.grmpy.txt (or .grmpy.csv) with the agent-level data and
<source>.grmpy.info with the summary report.

Examples:
  grmpy simulate --config init.grmpy.yml
  grmpy simulate --config init.grmpy.yml --output-format csv --output-dir out`,
		RunE: runSimulate,
	}

	cmd.Flags().String("config", constants.DefaultConfigFile, "path to the initialization file")
	cmd.Flags().String("output-format", "", "dataset format override: text, csv")
	cmd.Flags().String("output-dir", "", "output directory override")
	cmd.Flags().String("metrics-file", "", "write run metrics in Prometheus text format to this file")
	cmd.Flags().Int("workers", 0, "parallel workers for replications (0 uses GOMAXPROCS)")

	return cmd
}

func runSimulate(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	formatFlag, _ := cmd.Flags().GetString("output-format")
	dirFlag, _ := cmd.Flags().GetString("output-dir")
	metricsFlag, _ := cmd.Flags().GetString("metrics-file")
	workers, _ := cmd.Flags().GetInt("workers")
	logLevel, _ := cmd.Flags().GetString("log-level")

	conf, err := config.LoadConfiguration(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration at %s: %w", configPath, err)
	}

	logger, err := initializeLogger(conf.Logging, logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if formatFlag != "" {
		conf.Output.Format = formatFlag
	}
	if dirFlag != "" {
		conf.Output.Directory = dirFlag
	}
	if metricsFlag != "" {
		conf.Output.MetricsFile = metricsFlag
	}
	if err := validation.ValidateOutputFormat(conf.OutputFormat()); err != nil {
		return err
	}

	warnings, err := conf.Check()
	for _, warning := range warnings {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main.runSimulate"),
		)
	}
	if err != nil {
		logger.Error("invalid configuration",
			zap.String("op", "main.runSimulate"),
			zap.Error(err),
		)
		return fmt.Errorf("invalid configuration: %w", err)
	}

	params, err := conf.ModelParameters()
	if err != nil {
		return err
	}

	sim := simulation.NewSimulator(logger)
	start := time.Now()
	var datasets []*simulation.Dataset
	if conf.Simulation.Replications > 1 {
		datasets, err = sim.RunReplications(cmd.Context(), params, conf.Simulation.Seed, conf.Simulation.Replications, workers)
	} else {
		var ds *simulation.Dataset
		ds, err = sim.RunSeeded(params, conf.Simulation.Seed)
		datasets = []*simulation.Dataset{ds}
	}
	if err != nil {
		logger.Error("simulation failed",
			zap.String("op", "main.runSimulate"),
			zap.Error(err),
		)
		return err
	}
	elapsed := time.Since(start)

	recorder := metrics.NewRecorder()
	for i, ds := range datasets {
		recorder.Observe(ds.Len(), ds.Treated(), elapsed/time.Duration(len(datasets)))

		report, err := output.NewReport(params, ds, conf.Quantiles())
		if err != nil {
			return err
		}
		paths, err := output.WriteRun(conf.Output.Directory, runStem(conf.Simulation.Source, i, len(datasets)), conf.OutputFormat(), ds, report)
		if err != nil {
			return err
		}
		for _, path := range paths {
			fmt.Fprintln(cmd.OutOrStdout(), path)
		}
	}

	if conf.Output.MetricsFile != "" {
		if err := recorder.WriteTextfile(conf.Output.MetricsFile); err != nil {
			return err
		}
	}

	logger.Info("simulation written",
		zap.String("op", "main.runSimulate"),
		zap.String("source", conf.Simulation.Source),
		zap.Int("replications", len(datasets)),
		zap.Duration("elapsed", elapsed),
	)
	return nil
}

// runStem names the output files of replication i out of count.
func runStem(source string, i, count int) string {
	if count <= 1 {
		return source
	}
	return fmt.Sprintf("%s_%0*d", source, len(fmt.Sprint(count-1)), i)
}
