package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-shload/monitor"
	"github.com/moffa90/go-shload/protocol"
)

var dumpLength int

// withSession runs fn on a fresh session over the configured port.
func withSession(fn func(cmd *cobra.Command, args []string, sess *monitor.Session) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		link, err := openLink()
		if err != nil {
			return err
		}
		defer func() { _ = link.Close() }()

		return fn(cmd, args, newSession(link, os.Stderr))
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print the board ROM version",
	Args:  cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, args []string, sess *monitor.Session) error {
		version, err := sess.Connect(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("ROM version : %s\n", version)
		return nil
	}),
}

var regsCmd = &cobra.Command{
	Use:   "regs",
	Short: "read the CPU registers",
	Args:  cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, args []string, sess *monitor.Session) error {
		regs, err := sess.Registers(cmd.Context())
		if err != nil {
			return err
		}
		printRegisters(os.Stdout, regs)
		return nil
	}),
}

var offsetsCmd = &cobra.Command{
	Use:   "offsets",
	Short: "query the section offsets",
	Args:  cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, args []string, sess *monitor.Session) error {
		off, err := sess.QueryOffsets(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Text=%08x Data=%08x Bss=%08x\n", off.Text, off.Data, off.Bss)
		return nil
	}),
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "reset the board",
	Args:  cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, args []string, sess *monitor.Session) error {
		if err := sess.Reset(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("Board replied with %s to reset command\n", sess.Status())
		return nil
	}),
}

var memCmd = &cobra.Command{
	Use:   "mem <address>",
	Short: "dump board memory",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(cmd *cobra.Command, args []string, sess *monitor.Session) error {
		addr, err := protocol.ParseAddress(args[0])
		if err != nil {
			return err
		}
		data, err := sess.MemoryDump(cmd.Context(), addr, dumpLength)
		if err != nil {
			return err
		}
		printDump(os.Stdout, addr, data)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(versionCmd, regsCmd, offsetsCmd, resetCmd, memCmd)
	memCmd.Flags().IntVarP(&dumpLength, "length", "n", protocol.DefaultMemoryDumpSize, "number of bytes to read")
}
