package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/inovacc/gerritconn/internal/credential"
	"github.com/inovacc/gerritconn/internal/gerrit"
	"github.com/spf13/cobra"
)

var (
	verifyURL      string
	verifyUsername string
	verifyPassword string
	verifyTimeout  time.Duration
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check Gerrit credentials against the server",
	Long: `Build a one-off connection and perform a single request against Gerrit.

Flags take precedence over environment variables, which take precedence
over the settings file. The cached connection and the persisted
connectivity flag are never changed by this command.

Examples:
  gerritconn verify
  gerritconn verify --url https://review.example.org --username alice
  GERRIT_AUTH_PASSWORD=secret gerritconn verify --timeout 5s`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringVar(&verifyURL, "url", "", "Gerrit server URL")
	verifyCmd.Flags().StringVarP(&verifyUsername, "username", "u", "", "Gerrit username")
	verifyCmd.Flags().StringVarP(&verifyPassword, "password", "p", "", "Gerrit HTTP password")
	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", gerrit.DefaultTimeout, "Maximum time to wait for the server")
}

func runVerify(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	if verifyTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, verifyTimeout)
		defer cancel()
	}

	flagSet := changedCredentials(cmd.Flags(), verifyURL, verifyUsername)
	if cmd.Flags().Changed("password") {
		flagSet.Password = credential.FieldOf(verifyPassword, true)
	}

	set := credential.Read(current.settings).Overlay(flagSet)

	res := current.manager.Verify(ctx, set)
	if !res.OK() {
		return fmt.Errorf("verification %s: %w", res.Outcome, res.Err)
	}

	return nil
}
