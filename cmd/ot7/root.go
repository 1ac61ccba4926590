// Package main is the command-line entry point for ot7, a one-time pad
// file encryption tool implementing the OT7 protocol.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/otseven/OT7-sub000/internal/keystore"
	"github.com/otseven/OT7-sub000/internal/metrics"
	"github.com/otseven/OT7-sub000/internal/otlog"
	"github.com/otseven/OT7-sub000/internal/resultcode"
	"github.com/otseven/OT7-sub000/internal/skein"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

// globalFlags holds the persistent flags shared by every subcommand.
type globalFlags struct {
	keyMapPath string
	logPath    string
	logLevel   string
	logFormat  string
	silent     bool
}

func main() {
	os.Exit(run())
}

func run() int {
	// Skein1024 self-test at startup; a failure is fatal.
	err := skein.SelfTest()
	metrics.Default().RecordSelfTest(err == nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "skein1024 self-test failed: %v\n", err)
		return resultcode.SelfTestFailed.ExitStatus()
	}

	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:     "ot7",
		Short:   "ot7 - one-time pad file encryption",
		Version: Version,
		Long: `ot7 encrypts and decrypts files with the OT7 one-time-pad protocol:
true-random key material consumed from a local key file, mixed with a
password-derived keystream, and tracked in a consumption log so no byte
of key is ever reused.`,
	}

	rootCmd.PersistentFlags().StringVar(&flags.keyMapPath, "keymap", "keymap.yaml", "path to the key map file")
	rootCmd.PersistentFlags().StringVar(&flags.logPath, "log", "ot7.log", "path to the consumption log file")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "text", "log format: text, json")
	rootCmd.PersistentFlags().BoolVar(&flags.silent, "silent", false, "suppress all logging")

	rootCmd.AddCommand(encodeCmd(&flags))
	rootCmd.AddCommand(decodeCmd(&flags))
	rootCmd.AddCommand(testhashCmd(&flags))
	rootCmd.AddCommand(serveMetricsCmd(&flags))

	if err := rootCmd.Execute(); err != nil {
		var code resultcode.Code
		if errors.As(err, &code) {
			return code.ExitStatus()
		}
		return 1
	}
	return 0
}

func (g *globalFlags) logger() *slog.Logger {
	if g.silent {
		return otlog.NopLogger()
	}
	return otlog.NewLogger(g.logLevel, g.logFormat)
}

func (g *globalFlags) openStore() (*keystore.Store, error) {
	return keystore.Open(g.keyMapPath, g.logPath)
}
