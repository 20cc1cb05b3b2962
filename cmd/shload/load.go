package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-shload/monitor"
	"github.com/moffa90/go-shload/protocol"
)

var (
	abortOnLostReply bool
	continueOnFailed bool
	runAfterLoad     bool
)

// loadCmd loads an image through the Advanced Monitor.
var loadCmd = &cobra.Command{
	Use:   "load <file> <address>",
	Short: "load an S-record or Intel HEX file",
	Long: `Load an S-record file to consecutive addresses starting at <address>,
or an Intel HEX file to the addresses it carries.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := protocol.ParseAddress(args[1])
		if err != nil {
			return err
		}

		link, err := openLink()
		if err != nil {
			return err
		}
		defer func() { _ = link.Close() }()

		sess := newSession(link, os.Stderr, monitor.WithLoadPolicy(monitor.LoadPolicy{
			AbortOnSendFailure:    !continueOnFailed,
			AbortOnReceiveFailure: abortOnLostReply,
		}))

		res, err := sess.LoadFile(cmd.Context(), args[0], addr)
		if res != nil {
			fmt.Printf("Loaded %d bytes in %d packets to 0x%08x-0x%08x (%s)\n",
				res.Bytes, res.Chunks, res.Start, res.End, res.Elapsed.Round(time.Millisecond))
		}
		if err != nil {
			return err
		}

		if runAfterLoad {
			return sess.Continue(cmd.Context(), res.Start)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
	loadCmd.Flags().BoolVar(&abortOnLostReply, "strict", false, "abort when a packet is not acknowledged")
	loadCmd.Flags().BoolVar(&continueOnFailed, "keep-going", false, "skip packets that cannot be sent instead of aborting")
	loadCmd.Flags().BoolVar(&runAfterLoad, "run", false, "start execution at the load address afterwards")
}
