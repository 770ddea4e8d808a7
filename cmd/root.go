package cmd

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Flags
	cfgPath string
	debug   bool

	// Root command
	rootCmd = &cobra.Command{
		Use:   "gifty-api",
		Short: "Gift voucher platform",
		Long: `Gift voucher platform backend.

Functions:
- Accept paid orders and issue unique voucher codes
- Render voucher PDFs and deliver them by email
- Redeem vouchers at the store, exactly once per code
- Manage stores, products, customers and platform users`,
	}
)

// Execute executes the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", ".", "directory holding config.yaml")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func initLogging() {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}
