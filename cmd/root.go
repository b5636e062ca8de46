package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mashrabu",
	Short: "Mashrabuç Çâfî audio catalogue service",
	Long:  `Serves the public editions/days/tracks catalogue and the password-protected administration API.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Running the bare binary starts the server, same as `mashrabu serve`.
		serveCmd.Run(cmd, args)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
