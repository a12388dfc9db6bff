package main

import (
	"github.com/spf13/cobra"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Announce newly released episodes to Discord",
	Long: `Notify checks the latest-episodes feed and posts every episode not
seen on a previous run to discord_webhook_url. The first run only records
the current feed. Requires database_path.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApp()
		if err != nil {
			return err
		}
		defer application.Close()

		result, err := application.NotifyLatest(cmd.Context())
		if err != nil {
			return err
		}
		return render(cmd, result)
	},
}

func init() {
	rootCmd.AddCommand(notifyCmd)
}
