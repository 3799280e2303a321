package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/suyashnema0707/MedGraph-Navigator/config"
	"github.com/suyashnema0707/MedGraph-Navigator/internal/eval"
	"github.com/suyashnema0707/MedGraph-Navigator/internal/knowledge"
	"github.com/suyashnema0707/MedGraph-Navigator/internal/locator"
	"github.com/suyashnema0707/MedGraph-Navigator/internal/provider"
	srv "github.com/suyashnema0707/MedGraph-Navigator/internal/server"
)

func main() {
	var configPath string
	root := &cobra.Command{Use: "medgraph"}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file path")

	loadCfg := func() (*config.Config, error) { return config.LoadConfig(configPath) }

	var serveAddr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the assistant HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadCfg()
			if err != nil {
				return err
			}
			if serveAddr != "" {
				cfg.Server.Address = serveAddr
			}
			if cfg.Server.Address == "" {
				cfg.Server.Address = ":8080"
			}
			return srv.Run(cfg)
		},
	}
	serve.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")

	var locatorAddr string
	locatorCmd := &cobra.Command{
		Use:   "locator",
		Short: "Run the doctor locator service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadCfg()
			if err != nil {
				return err
			}
			if locatorAddr == "" {
				locatorAddr = ":5001"
			}
			return locator.NewService(cfg.Locator).Run(locatorAddr)
		},
	}
	locatorCmd.Flags().StringVar(&locatorAddr, "addr", ":5001", "listen address")

	index := &cobra.Command{
		Use:   "index",
		Short: "Build the semantic index from the knowledge CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadCfg()
			if err != nil {
				return err
			}
			llm, err := provider.NewProvider(cfg.LLM)
			if err != nil {
				return err
			}
			b := knowledge.NewBuilder(llm, cfg.LLM.EmbeddingModel, cfg.Knowledge.EmbeddingBatch)
			n, err := b.Build(context.Background(), cfg.Knowledge.CSVPath, cfg.Knowledge.IndexPath)
			if err != nil {
				return err
			}
			fmt.Printf("indexed %d entries into %s\n", n, cfg.Knowledge.IndexPath)
			return nil
		},
	}

	var casesPath string
	var evalModel string
	var threshold float64
	evalCmd := &cobra.Command{
		Use:   "eval",
		Short: "Score a model against reference answers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadCfg()
			if err != nil {
				return err
			}
			llm, err := provider.NewProvider(cfg.LLM)
			if err != nil {
				return err
			}
			if evalModel == "" {
				evalModel = cfg.LLM.Routing.Answering
			}
			cases, err := eval.LoadTestCases(casesPath)
			if err != nil {
				return err
			}
			report, err := eval.NewRunner(llm, evalModel, threshold).Run(context.Background(), cases)
			if err != nil {
				return err
			}
			fmt.Printf("model %s: %d/%d correct (%.2f%% accuracy, %d skipped)\n",
				report.Model, report.Correct, report.Total-report.Skipped, report.Accuracy, report.Skipped)
			return nil
		},
	}
	evalCmd.Flags().StringVar(&casesPath, "cases", "test_cases.json", "JSON test case file")
	evalCmd.Flags().StringVar(&evalModel, "model", "", "model to evaluate (defaults to answering model)")
	evalCmd.Flags().Float64Var(&threshold, "threshold", 0.8, "similarity threshold for a correct answer")

	var migDir string
	var direction string
	var steps int
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadCfg()
			if err != nil {
				return err
			}
			dsn := cfg.Storage.Postgres.DSN()
			if dsn == "" {
				dsn = os.Getenv("DATABASE_URL")
			}
			return srv.Migrate(migDir, dsn, direction, steps)
		},
	}
	migrateCmd.Flags().StringVar(&migDir, "dir", "file://migrations", "migrations source (file://migrations)")
	migrateCmd.Flags().StringVar(&direction, "direction", "up", "up or down")
	migrateCmd.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = all)")

	root.AddCommand(serve, locatorCmd, index, evalCmd, migrateCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
