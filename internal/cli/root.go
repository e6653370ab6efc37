// Package cli holds the estimator command tree: the HTTP service plus offline
// pricing and extraction helpers.
package cli

import (
	"context"
	"fmt"
	"os"

	"construction_estimator/internal/config"
	"construction_estimator/internal/logger"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "estimator",
	Short: "Drafts, prices and revises construction cost estimates.",
	Long: `estimator turns plan documents or explicit room lists into itemized
construction estimates and revises them as client answers come in.

Run "estimator serve" for the HTTP API, or price a room list offline with
"estimator rooms --file rooms.yaml".`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.estimator.yaml)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "", "Set log level. Available: debug, info, warn, error, fatal (overrides log.level)")
}

// initConfig reads the config file and ESTIMATOR_* environment, then sets the log level.
func initConfig(cmd *cobra.Command, _ []string) error {
	v := config.New()
	if err := v.BindPFlag("log.level", cmd.Flags().Lookup("loglevel")); err != nil {
		return err
	}
	loaded, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	if err := logger.SetLogLevel(loaded.Log.Level); err != nil {
		return err
	}
	cfg = loaded
	return nil
}
