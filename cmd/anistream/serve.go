package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve exposes the pass-through routes used by the web front-end
(/api/search, /api/anime/{slug}, /api/anime/{slug}/episodes) and the
normalized /api/v1 routes. It stops gracefully on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("listen"); addr != "" {
			viper.Set("listen_addr", addr)
		}

		application, err := newApp()
		if err != nil {
			return err
		}
		defer application.Close()

		return application.Serve(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().String("listen", "", "listen address, overrides listen_addr")
	rootCmd.AddCommand(serveCmd)
}
