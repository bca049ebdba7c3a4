// Command tink-gateway serves and queries a Tink account over OAuth.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dvcrn/tink-gateway/internal/app"
	"github.com/dvcrn/tink-gateway/internal/config"
	"github.com/dvcrn/tink-gateway/internal/logger"
)

var (
	// configFile is set by the --config flag.
	configFile string

	// gateway is the wired application, initialized before every command.
	gateway *app.App
	log     zerolog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tink-gateway",
	Short: "tink-gateway talks to the Tink API on your behalf",
	Long: `tink-gateway holds OAuth credentials for a Tink account, refreshes them
when they expire, and exposes transactions, accounts and categories either
over HTTP (serve) or directly on the command line.`,
	SilenceUsage:      true,
	PersistentPreRunE: initGateway,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: $CONFIG_PATH or ./config.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(authenticateCmd)
	rootCmd.AddCommand(transactionsCmd)
	rootCmd.AddCommand(accountsCmd)
	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(signOutCmd)
}

// initGateway loads config and wires the application.
func initGateway(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	log = logger.New(cfg.Log)

	gateway, err = app.New(cfg, log)
	if err != nil {
		return fmt.Errorf("init gateway: %w", err)
	}
	return nil
}

func printJSON(v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Println(string(output))
	return nil
}
