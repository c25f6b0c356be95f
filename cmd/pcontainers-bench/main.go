package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cuemby/pcontainers/pkg/plog"
)

var (
	// Version information (set via ldflags during build)
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pcontainers-bench",
	Short: "Smoke-test and benchmark harness for pcontainers environments",
	Long: `pcontainers-bench exercises a pcontainers Environment: it reports
basic throughput for the raw dict and the raw queue, and runs a
create/read/delete smoke test of the blob file store.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("pcontainers-bench version %s\nCommit: %s\n", Version, Commit))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().String("env-path", "", "Environment directory (empty creates a temp one)")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(dictCmd)
	rootCmd.AddCommand(queueCmd)
	rootCmd.AddCommand(blobCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	plog.Init(plog.Config{
		Level:      plog.Level(logLevel),
		JSONOutput: logJSON,
	})
}
