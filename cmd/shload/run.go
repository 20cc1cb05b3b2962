package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-shload/monitor"
	"github.com/moffa90/go-shload/protocol"
)

// goCmd starts execution. The monitor does not answer, so nothing is read.
var goCmd = &cobra.Command{
	Use:   "go <address>",
	Short: "start execution at an address",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(cmd *cobra.Command, args []string, sess *monitor.Session) error {
		addr, err := protocol.ParseAddress(args[0])
		if err != nil {
			return err
		}
		return sess.Continue(cmd.Context(), addr)
	}),
}

// runCmd starts execution and attaches the terminal.
var runCmd = &cobra.Command{
	Use:   "run <address>",
	Short: "start execution and open a terminal on the serial port",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := protocol.ParseAddress(args[0])
		if err != nil {
			return err
		}

		link, err := openLink()
		if err != nil {
			return err
		}
		defer func() { _ = link.Close() }()

		if err := newSession(link, os.Stderr).Continue(cmd.Context(), addr); err != nil {
			return err
		}
		return terminal(cmd.Context(), link, os.Stdout)
	},
}

var termCmd = &cobra.Command{
	Use:   "term",
	Short: "open a terminal on the serial port (Ctrl-] leaves)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		link, err := openLink()
		if err != nil {
			return err
		}
		defer func() { _ = link.Close() }()

		return terminal(cmd.Context(), link, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(goCmd, runCmd, termCmd)
}
