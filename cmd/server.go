package cmd

import (
	"github.com/spf13/cobra"

	"massiliafm/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the station server",
	Long:  `Start the HTTP server: public catalog API, DJ console API and the player WebSocket channel.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
