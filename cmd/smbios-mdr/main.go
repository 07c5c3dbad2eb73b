// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package main provides the smbios-mdr daemon implementation.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/openbmc/smbios-mdr/internal/app/smbiosd"
	"github.com/openbmc/smbios-mdr/pkg/logging"
)

var (
	config smbiosd.Config
	debug  bool
)

var rootCmd = &cobra.Command{
	Use:           "smbios-mdr",
	Short:         "SMBIOS table synchronizer and hardware inventory publisher",
	Args:          cobra.NoArgs,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		level := zapcore.InfoLevel
		if debug {
			level = zapcore.DebugLevel
		}

		// The service log ends up in the journal, which keeps its own
		// timestamps.
		logger := logging.ZapLogger(
			logging.NewLogDestination(os.Stderr, level, logging.WithColoredLevels(), logging.WithoutTimestamp()),
		)

		svc, err := smbiosd.New(config, logger)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		return svc.Run(ctx)
	},
}

func init() {
	rootCmd.Flags().StringVar(&config.BackingStorePath, "backing-store", "/var/lib/smbios/smbios2", "path to the MDR backing store file")
	rootCmd.Flags().StringVar(&config.LocatorMapPath, "locator-map", "", "path to the YAML memory locator map")
	rootCmd.Flags().BoolVar(&config.WatchBackingStore, "watch", true, "watch the backing store for out-of-process updates")
	rootCmd.Flags().BoolVar(&config.OnlyDeviceLocator, "only-device-locator", false, "do not prefix memory locators with the bank locator")
	rootCmd.Flags().BoolVar(&config.EmbeddedSlots, "embedded-slots", false, "report every PCIe slot as occupied")
	rootCmd.Flags().BoolVar(&config.ExposeComponentName, "expose-component-name", false, "key firmware inventory by component name instead of firmware id")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())

		os.Exit(1)
	}
}
