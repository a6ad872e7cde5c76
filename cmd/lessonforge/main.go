// Command lessonforge turns a free-text learning request into a
// structured study plan, formats it as Markdown, and optionally
// publishes it to GitHub as a parent issue with linked sub-issues.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "lessonforge",
	Short: "Generate and publish structured study plans",
	Long: `lessonforge converts a learning request into a hierarchical study plan
using an AI assistant, rewrites it into tracker-ready Markdown, and can
publish the result to GitHub as one parent issue plus linked sub-issues.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default ~/.config/lessonforge/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(planCmd)
}

// newLogger builds the process logger. Verbose switches to the
// human-readable development encoder with debug level.
func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
