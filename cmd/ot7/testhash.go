package main

import (
	"fmt"

	"github.com/otseven/OT7-sub000/internal/metrics"
	"github.com/otseven/OT7-sub000/internal/resultcode"
	"github.com/otseven/OT7-sub000/internal/skein"
	"github.com/spf13/cobra"
)

func testhashCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "testhash",
		Short: "Run the Skein1024 self-test and exit",
		Long: `Runs the Skein1024 known-answer self-test bundled with the hash
engine and reports pass/fail. Intended for startup health checks and for
verifying a build before it is trusted with real key material.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := g.logger()
			m := metrics.Default()

			err := skein.SelfTest()
			m.RecordSelfTest(err == nil)
			if err != nil {
				logger.Error("skein1024 self-test failed", "error", err)
				fmt.Println("FAILED")
				return resultcode.Wrapf(resultcode.SelfTestFailed, "skein1024 self-test failed: %v", err)
			}
			logger.Info("skein1024 self-test passed")
			fmt.Println("OK")
			return nil
		},
	}
	return cmd
}
