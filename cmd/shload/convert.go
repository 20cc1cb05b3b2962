package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-shload/monitor"
	"github.com/moffa90/go-shload/protocol"
	"github.com/moffa90/go-shload/srec"
)

var (
	convertAddress string
	hexLineLength  int
)

// convertCmd converts between Intel HEX and S-record images.
var convertCmd = &cobra.Command{
	Use:   "convert <input> <output>",
	Short: "convert between Intel HEX and S-record images",
	Long: `Convert an Intel HEX image to S-records, or S-records to Intel HEX.
The direction follows the input extension (.hex, .ihex and .ihx are Intel HEX).

With --address, S-record data is placed back to back from that address, as
the load command does, instead of at the addresses in the records.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, out := args[0], args[1]
		if monitor.IsIntelHex(in) {
			return hexToSRecord(in, out)
		}
		return sRecordToHex(in, out)
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().StringVar(&convertAddress, "address", "", "relocate S-record data to consecutive addresses from here")
	convertCmd.Flags().IntVar(&hexLineLength, "line-length", 16, "data bytes per Intel HEX line")
}

func hexToSRecord(in, out string) error {
	img, err := srec.OpenIntelHex(in)
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	enc := srec.NewEncoder(f)
	if err := enc.WriteHeader(strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))); err != nil {
		return err
	}
	for _, seg := range img.Segments {
		for _, r := range seg.Records(srec.DefaultChunkSize) {
			if err := enc.Write(r); err != nil {
				return err
			}
		}
	}
	if err := enc.Close(img.Entry); err != nil {
		return err
	}

	fmt.Printf("Wrote %d records (%d bytes) to %s\n", enc.Count(), img.Size(), out)
	return f.Close()
}

func sRecordToHex(in, out string) error {
	src, err := srec.Open(in)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	records, err := srec.ReadAll(src)
	if err != nil {
		return err
	}

	if convertAddress != "" {
		next, err := protocol.ParseAddress(convertAddress)
		if err != nil {
			return err
		}
		for i := range records {
			records[i].Address = next
			next += uint32(records[i].Len())
		}
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := srec.WriteIntelHex(f, records, hexLineLength); err != nil {
		return err
	}

	fmt.Printf("Wrote %d records to %s\n", len(records), out)
	return f.Close()
}
