// Package cli implements the command-line interface for retail-etl.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/retailops/retail-etl/internal/config"
	"github.com/retailops/retail-etl/internal/logging"
	"github.com/retailops/retail-etl/pkg/version"
)

var (
	// Global flags
	cfgFile    string
	connection string
	csvPath    string
	logLevel   string

	// Global config
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "retail-etl",
		Short: "Star-schema ETL pipeline for retail order exports",
		Long: `retail-etl ingests a flat order-line CSV export, validates it against
the declared column contract, reshapes it into a star schema (conformed
customer/product/location/date dimensions plus an order fact table), loads
it into PostgreSQL with full-replace semantics, and reconciles the loaded
aggregates against the source.

Every run is a complete reload of one snapshot: the warehouse always
describes exactly the input of the most recent run.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./retail-etl.yaml)")
	rootCmd.PersistentFlags().StringVar(&connection, "connection", "",
		"PostgreSQL connection string")
	rootCmd.PersistentFlags().StringVar(&csvPath, "csv", "",
		"path to the source CSV export")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(seedCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if connection != "" {
		cfg.Connection = connection
	}
	if csvPath != "" {
		cfg.CSVPath = csvPath
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	// Reinitialize logger with config
	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}
