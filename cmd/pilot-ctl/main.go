package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pilot/internal/ipc"
)

var (
	socketPath string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "pilot-ctl",
	Short: "Control a running pilot-daemon",
	Long: `Send commands to pilot-daemon over its control socket.

Bind "pilot-ctl trigger" to a hotkey for push-to-talk, or type a
command directly:

  pilot-ctl say "open steam and launch dota"
  pilot-ctl afk --duration 10m
  pilot-ctl status`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&socketPath, "socket", "s", ipc.DefaultSocketPath(), "Daemon control socket")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print the raw reply as JSON")

	rootCmd.AddCommand(triggerCmd, sayCmd, afkCmd, stopAFKCmd, statusCmd)
}
