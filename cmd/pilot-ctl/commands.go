package main

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pilot/internal/ipc"
)

const requestTimeout = 2 * time.Minute

var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Start listening for one voice command",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return send(cmd, ipc.ControlMessage{Cmd: ipc.CmdTrigger})
	},
}

var sayCmd = &cobra.Command{
	Use:   "say <command...>",
	Short: "Run a typed command as if it was spoken",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return send(cmd, ipc.ControlMessage{Cmd: ipc.CmdSay, Text: strings.Join(args, " ")})
	},
}

var (
	afkDuration time.Duration
	afkInterval time.Duration
)

var afkCmd = &cobra.Command{
	Use:   "afk",
	Short: "Start the anti-AFK movement loop",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		msg := ipc.ControlMessage{Cmd: ipc.CmdAFK, Args: map[string]string{}}
		if cmd.Flags().Changed("duration") {
			msg.Args["duration"] = afkDuration.String()
		}
		if cmd.Flags().Changed("interval") {
			msg.Args["interval"] = afkInterval.String()
		}
		return send(cmd, msg)
	},
}

var stopAFKCmd = &cobra.Command{
	Use:   "stop-afk",
	Short: "Stop the anti-AFK loop",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return send(cmd, ipc.ControlMessage{Cmd: ipc.CmdStopAFK})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what the daemon is doing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return send(cmd, ipc.ControlMessage{Cmd: ipc.CmdStatus})
	},
}

func init() {
	afkCmd.Flags().DurationVarP(&afkDuration, "duration", "d", 0, "How long to keep moving (daemon default if unset)")
	afkCmd.Flags().DurationVarP(&afkInterval, "interval", "i", 0, "Pause between moves (daemon default if unset)")
}

func send(cmd *cobra.Command, msg ipc.ControlMessage) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()

	reply, err := ipc.Send(ctx, socketPath, msg)
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), reply, jsonOutput)
}
