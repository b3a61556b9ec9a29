package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cookieFile string

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Import a browser session",
	Long: `Imports a cookie file exported from a logged-in browser session.

The file is the JSON produced by the browser login helper:
  {"cookies":[{"name":"...","value":"...","domain":"...","path":"..."}]}

The session is stored in the database and used by every later sync.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.log.Sync()

		f, err := os.Open(cookieFile)
		if err != nil {
			return fmt.Errorf("failed to open cookie file: %w", err)
		}
		defer f.Close()

		if err := e.feature.Service().Auth().ImportCookies(context.Background(), f); err != nil {
			return fmt.Errorf("failed to import session: %w", err)
		}

		if e.feature.Service().Auth().Validate(context.Background()) {
			e.log.Info("Session imported and validated")
		} else {
			e.log.Warn("Session imported but validation failed; it may be stale")
		}
		return nil
	},
}

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.log.Sync()

		if err := e.feature.Service().Auth().Invalidate(context.Background()); err != nil {
			return err
		}
		return nil
	},
}

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show library statistics and session state",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.log.Sync()

		report, err := e.feature.Service().Status(context.Background())
		if err != nil {
			return err
		}

		fields := []zap.Field{
			zap.Int64("books", report.Books),
			zap.Int64("highlights", report.Highlights),
			zap.Bool("authenticated", report.Authenticated),
			zap.String("region", report.Region),
			zap.String("last_status", report.LastStatus),
		}
		if report.LastSync != nil {
			fields = append(fields, zap.Time("last_sync", *report.LastSync))
		}
		e.log.Info("Library status", fields...)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&cookieFile, "cookies", "", "Path to the exported cookie file (required)")
	_ = loginCmd.MarkFlagRequired("cookies")

	RootCmd.AddCommand(loginCmd)
	RootCmd.AddCommand(logoutCmd)
	RootCmd.AddCommand(statusCmd)
}
