package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-shload/cmon"
)

// cmonCmd downloads to a board running CMON and follows its console.
var cmonCmd = &cobra.Command{
	Use:   "cmon <file>",
	Short: "download an S-record file to a board running CMON",
	Long: `Download an S-record file with the CMON echo protocol, start it and print
the program's output until interrupted.

The board must be reset during the countdown so that CMON announces itself.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		link, err := openLink()
		if err != nil {
			return err
		}
		defer func() { _ = link.Close() }()

		err = cmonDownload(cmd.Context(), link, args[0], os.Stdout)
		if errors.Is(err, cmon.ErrCancelled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(cmonCmd)
}
