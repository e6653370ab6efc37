package cli

import (
	"construction_estimator/internal/adapter/http/routes"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the estimate HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.Server.Port = port
		}
		return routes.Run(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 0, "listen port (overrides server.port)")
}
