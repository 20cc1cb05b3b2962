package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-shload/transport"
)

var (
	configFile string
	verbose    bool
)

// cli holds what every command shares once flags are parsed.
var cli = struct {
	settings Settings
	logger   *slog.Logger
}{
	settings: defaultSettings(),
	logger:   slog.Default(),
}

// rootCmd runs the interactive menu.
var rootCmd = &cobra.Command{
	Use:   "shload [9600 | 19200 | 38400]",
	Short: "Loader for SuperH boards with Advanced Monitor 1.0 and CMON 3.4",
	Long: `shload talks to a Hitachi SuperH evaluation board over a serial line.

Without a subcommand it identifies the board and opens the interactive menu.
The optional argument selects the baud rate.`,
	Args:              validateBaudArg,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			cli.settings.Baud, _ = strconv.Atoi(args[0])
		}

		link, err := openLink()
		if err != nil {
			return err
		}
		defer func() { _ = link.Close() }()

		fmt.Printf("shload : Using %s at %d baud\n", cli.settings.Port, cli.settings.Baud)

		_, keys := operator()
		m := newMenu(keys, os.Stdout, link)
		m.connect(cmd.Context())
		return m.run(cmd.Context())
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "settings file (default ./"+DefaultSettingsFile+" if present)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log protocol traffic")

	defaults := defaultSettings()
	flags.StringP("port", "p", defaults.Port, "serial device, or tcp://host:port for a terminal server")
	flags.IntP("baud", "b", defaults.Baud, "baud rate (9600, 19200 or 38400)")
	flags.String("charset", defaults.Charset, "character set of the board console (utf-8, latin1, cp437, gb18030)")
	flags.Duration("send-timeout", time.Duration(defaults.SendTimeout), "time allowed to write one packet")
	flags.Duration("receive-timeout", time.Duration(defaults.ReceiveTimeout), "time allowed to receive one reply")
	flags.Duration("byte-timeout", time.Duration(defaults.ByteTimeout), "CMON: time allowed for each echo")
	flags.Duration("wake-timeout", time.Duration(defaults.WakeTimeout), "CMON: time allowed for the board to wake")
	flags.Duration("reset-window", time.Duration(defaults.ResetWindow), "CMON: time given to reset the board")
	flags.Int("chunk-size", defaults.ChunkSize, "maximum bytes per memory-write command")
	flags.Bool("verify", defaults.VerifyChecksum, "verify reply checksums")
}

// validateBaudArg accepts one optional baud rate argument.
func validateBaudArg(cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("accepts at most one argument, received %d", len(args))
	}
	if len(args) == 1 {
		baud, err := strconv.Atoi(args[0])
		if err != nil || !transport.ValidBaud(baud) {
			return fmt.Errorf("invalid baud rate %q", args[0])
		}
	}
	return nil
}

// setup reads the settings file, applies flags and creates the logger.
func setup(cmd *cobra.Command, args []string) error {
	path, required := configFile, true
	if path == "" {
		path, required = DefaultSettingsFile, false
	}

	s, err := loadSettings(path, required)
	if err != nil {
		return err
	}
	if err := s.applyFlags(cmd.Flags()); err != nil {
		return err
	}
	cli.settings = s

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	cli.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// Errors past this point are not usage errors.
	cmd.SilenceUsage = true
	return nil
}
