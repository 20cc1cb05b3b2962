package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-shload/monitor"
	"github.com/moffa90/go-shload/script"
)

// scriptCmd runs a Lua script against the board.
var scriptCmd = &cobra.Command{
	Use:   "script <file.lua>",
	Short: "run a Lua script against the board",
	Long: `Run a Lua script with a global "board" table:

  board.identify()  board.offsets()  board.regs()  board.mem(addr [, len])
  board.load(path [, addr])  board.reset()  board.go(addr)  board.sleep(ms)`,
	Args: cobra.ExactArgs(1),
	RunE: withSession(func(cmd *cobra.Command, args []string, sess *monitor.Session) error {
		// Compile first so syntax errors do not touch the board.
		proto, err := script.CompileFile(args[0])
		if err != nil {
			return err
		}

		engine := script.NewEngine(sess,
			script.WithOutput(os.Stdout),
			script.WithLogger(cli.logger),
		)
		return engine.Run(cmd.Context(), proto)
	}),
}

func init() {
	rootCmd.AddCommand(scriptCmd)
}
