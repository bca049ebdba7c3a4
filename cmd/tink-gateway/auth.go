package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dvcrn/tink-gateway/internal/app"
	"github.com/dvcrn/tink-gateway/internal/credentials"
)

var authenticateCmd = &cobra.Command{
	Use:   "authenticate <code>",
	Short: "Exchange an authorization code for credentials",
	Long: `Authenticate exchanges the authorization code returned by Tink Link for
an access and refresh token, and stores them.

Example:
  tink-gateway authenticate 2f6e0f1c8a3b4d`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res := gateway.Client.Authenticate(cmd.Context(), args[0])
		if !res.IsSuccess() {
			return fmt.Errorf("authenticate: %w", res.Failure())
		}
		return printJSON(res.Unwrap())
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh the stored access token now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res := gateway.Client.RefreshAuth(cmd.Context())
		if !res.IsSuccess() {
			return fmt.Errorf("refresh: %w", res.Failure())
		}
		return printJSON(res.Unwrap())
	},
}

var signOutCmd = &cobra.Command{
	Use:   "sign-out",
	Short: "Forget all stored credentials",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		gateway.Client.SignOut()
		fmt.Fprintln(os.Stderr, "Credentials cleared")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored credential state (no token values)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := struct {
			credentials.Status
			File       string `json:"file,omitempty"`
			FileExists bool   `json:"fileExists"`
		}{Status: gateway.Store.Status()}

		if !gateway.Config.Credentials.InMemory {
			out.File = app.CredentialsPath(gateway.Config)
			out.FileExists = credentials.FileExists(out.File)
		}
		return printJSON(out)
	},
}
